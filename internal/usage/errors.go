package usage

import "errors"

// ErrLimitReached indicates the user exceeded their AI quota.
var ErrLimitReached = errors.New("limit reached")
