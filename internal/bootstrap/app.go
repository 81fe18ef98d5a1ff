package bootstrap

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/gin-gonic/gin"

	"journal-backend/internal/account"
	"journal-backend/internal/ai"
	"journal-backend/internal/ai/analyzer"
	"journal-backend/internal/ai/companion"
	openai "journal-backend/internal/ai/openai"
	"journal-backend/internal/auth"
	"journal-backend/internal/chat"
	"journal-backend/internal/entries"
	"journal-backend/internal/shared/config"
	"journal-backend/internal/shared/server"
	"journal-backend/internal/shared/storage/db"
	"journal-backend/internal/shared/storage/object"
	localstore "journal-backend/internal/shared/storage/object/local"
	s3store "journal-backend/internal/shared/storage/object/s3"
	"journal-backend/internal/uploads"
	"journal-backend/internal/usage"
	"journal-backend/internal/users"
)

// App holds shared dependencies.
type App struct {
	Config config.Config
	Router *gin.Engine
	DB     *sql.DB
	Store  object.ObjectStore

	EntriesRepo entries.Repo
	ChatRepo    chat.Repo
	UsersRepo   users.Repo
	CodesRepo   auth.CodeRepo

	AIClient       ai.Client
	Analyzer       *analyzer.Analyzer
	Companion      *companion.Companion
	EntriesService *entries.Service
	ChatService    *chat.Service
	UploadsService *uploads.Service
	UsageService   *usage.Service
	UsersService   *users.Service
	AuthService    *auth.Service
	AccountService *account.Service

	AuthHandler    *auth.Handler
	GoogleAuth     *auth.GoogleService
	EntriesHandler *entries.Handler
	ChatHandler    *chat.Handler
	UploadsHandler *uploads.Handler
	UsageHandler   *usage.Handler
	UsersHandler   *users.Handler
	AccountHandler *account.Handler
}

// Build prepares shared dependencies and the router.
func Build(cfg config.Config) (*App, error) {
	if strings.TrimSpace(cfg.Env) == "" {
		cfg.Env = "dev"
	}
	if strings.TrimSpace(cfg.ObjectStoreType) == "" {
		cfg.ObjectStoreType = "local"
	}
	ctx := context.Background()

	sqlDB, err := buildDB(ctx, cfg)
	if err != nil {
		return nil, err
	}

	store, err := buildStore(ctx, cfg)
	if err != nil {
		return nil, err
	}

	app := &App{
		Config: cfg,
		DB:     sqlDB,
		Store:  store,
	}

	if err := buildServices(app); err != nil {
		return nil, err
	}

	app.Router = server.NewRouter(server.RouterDeps{
		Config:         app.Config,
		AuthHandler:    app.AuthHandler,
		GoogleAuth:     app.GoogleAuth,
		EntriesHandler: app.EntriesHandler,
		ChatHandler:    app.ChatHandler,
		UploadsHandler: app.UploadsHandler,
		UsageHandler:   app.UsageHandler,
		UsersHandler:   app.UsersHandler,
		AccountHandler: app.AccountHandler,
	})

	return app, nil
}

func buildDB(ctx context.Context, cfg config.Config) (*sql.DB, error) {
	if strings.TrimSpace(cfg.DatabaseURL) == "" {
		if isDevLike(cfg.Env) {
			log.Printf("bootstrap: DATABASE_URL empty; using in-memory repositories")
			return nil, nil
		}
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	opts := db.OptionsFromEnv(db.DefaultServerOptions())
	sqlDB, err := db.Connect(ctx, cfg.DatabaseURL, opts)
	if err != nil {
		if isDevLike(cfg.Env) {
			log.Printf("bootstrap: database connect failed; using in-memory repositories: %v", err)
			return nil, nil
		}
		return nil, err
	}

	if err := db.RunMigrations(ctx, sqlDB); err != nil {
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return sqlDB, nil
}

func buildStore(ctx context.Context, cfg config.Config) (object.ObjectStore, error) {
	switch cfg.ObjectStoreType {
	case "s3":
		return s3store.New(ctx, cfg.AWSRegion, cfg.S3Bucket, cfg.S3Prefix, cfg.SSEKMSKeyID)
	default:
		return localstore.New(cfg.LocalStoreDir), nil
	}
}

func isDevLike(env string) bool {
	switch strings.ToLower(strings.TrimSpace(env)) {
	case "dev", "local":
		return true
	default:
		return false
	}
}

func buildServices(app *App) error {
	var (
		entriesRepo entries.Repo
		chatRepo    chat.Repo
		userRepo    users.Repo
		codesRepo   auth.CodeRepo
	)

	if app.DB != nil {
		entriesRepo = &entries.PGRepo{DB: app.DB}
		chatRepo = &chat.PGRepo{DB: app.DB}
		userRepo = &users.PGRepo{DB: app.DB}
		codesRepo = &auth.PGCodeRepo{DB: app.DB}
	} else {
		entriesRepo = entries.NewMemoryRepo()
		chatRepo = chat.NewMemoryRepo()
		userRepo = users.NewMemoryRepo()
		codesRepo = auth.NewMemoryCodeRepo()
	}

	var usageSvc *usage.Service
	if app.DB != nil {
		usageSvc = usage.NewPostgresService(usage.NewPGStore(app.DB))
	} else {
		usageSvc = usage.NewService()
	}

	aiClient := ai.Client(ai.PlaceholderClient{})
	if app.Config.LLMProvider == "openai" && os.Getenv("OPENAI_API_KEY") != "" {
		openaiClient, err := openai.NewClient(os.Getenv("OPENAI_API_KEY"), app.Config.LLMModel)
		if err != nil {
			return err
		}
		aiClient = openaiClient
	}

	entrySvc := &entries.Service{
		Repo:     entriesRepo,
		Analyzer: analyzer.New(aiClient),
		Usage:    usageSvc,
		Store:    app.Store,
	}
	chatSvc := &chat.Service{
		Repo:      chatRepo,
		Companion: companion.New(aiClient),
		Entries:   entrySvc,
		Usage:     usageSvc,
	}
	uploadSvc := &uploads.Service{Store: app.Store}

	userSvc := users.NewService(userRepo)
	mailer := buildMailer(app.Config)
	authSvc := auth.NewService(codesRepo, mailer, userSvc)
	googleAuthSvc := auth.NewGoogleService(
		app.Config.GoogleClientID,
		app.Config.GoogleClientSecret,
		app.Config.GoogleRedirectURL,
		app.Config.UIRedirectURL,
		userSvc,
	)
	accountSvc := &account.Service{Entries: entrySvc, Chat: chatSvc}

	app.EntriesRepo = entriesRepo
	app.ChatRepo = chatRepo
	app.UsersRepo = userRepo
	app.CodesRepo = codesRepo
	app.AIClient = aiClient
	app.Analyzer = entrySvc.Analyzer
	app.Companion = chatSvc.Companion
	app.EntriesService = entrySvc
	app.ChatService = chatSvc
	app.UploadsService = uploadSvc
	app.UsageService = usageSvc
	app.UsersService = userSvc
	app.AuthService = authSvc
	app.AccountService = accountSvc

	app.AuthHandler = auth.NewHandler(authSvc)
	app.GoogleAuth = googleAuthSvc
	app.EntriesHandler = entries.NewHandler(entrySvc)
	app.ChatHandler = chat.NewHandler(chatSvc)
	app.UploadsHandler = uploads.NewHandler(uploadSvc)
	app.UsageHandler = usage.NewHandler(usageSvc)
	app.UsersHandler = users.NewHandler(userSvc)
	app.AccountHandler = account.NewHandler(accountSvc)

	return nil
}

func buildMailer(cfg config.Config) auth.Mailer {
	if strings.TrimSpace(cfg.SMTPHost) == "" {
		log.Printf("bootstrap: SMTP_HOST empty; login codes go to the log")
		return auth.LogMailer{}
	}
	mailer, err := auth.NewSMTPMailer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUsername, cfg.SMTPPassword, cfg.MailFrom)
	if err != nil {
		log.Printf("bootstrap: smtp mailer init failed; login codes go to the log: %v", err)
		return auth.LogMailer{}
	}
	return mailer
}
