package usage

import "time"

const resetPeriod = 30 * 24 * time.Hour

func defaultUsage() Usage {
	return Usage{
		Plan:     "Free",
		Limit:    200,
		Used:     0,
		ResetsAt: time.Now().UTC().Add(resetPeriod),
	}
}
