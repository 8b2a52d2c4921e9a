package sockim

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"sync"
	"syscall"
	"time"

	"github.com/go-chi/cors"
	"github.com/sockim-chat/sockim/core"
	"github.com/sockim-chat/sockim/pkg/router"
)

type App struct {
	config      *Config
	db          *core.SQLiteDB
	context     context.Context
	server      *http.Server
	logger      *slog.Logger
	router      *router.Router
	eventRouter *core.EventRouter
	wsManager   *core.ConnManager
	registry    *core.GroupRegistry
	gateway     *Gateway

	exit chan int

	userStore       core.UserStore
	chatStore       core.ChatStore
	invitationStore core.InvitationStore
	messageStore    core.MessageStore
	prefStore       core.PreferenceStore
	authStore       core.AuthStore

	userHandler *UserHandler
	authHandler *AuthHandler

	cleanupFuncs []func(context.Context)

	wg sync.WaitGroup
}

func New(ctx context.Context, config *Config) *App {
	var err error
	app := &App{
		exit: make(chan int),
	}
	if ctx == nil {
		ctx, _ = signal.NotifyContext(
			context.Background(),
			syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT, syscall.SIGHUP)
	}
	app.context = ctx

	if config == nil {
		var err error
		config, err = LoadConfig()
		if err != nil {
			failed(1, "failed to load config: %v\n", err)
		}
	}
	if err := config.Validate(); err != nil {
		failed(1, FormatValidationErrors(err))
	}
	app.config = config

	app.logger = slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug,
		AddSource: true,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if a.Key == slog.SourceKey {
				source, _ := a.Value.Any().(*slog.Source)
				if source != nil {
					source.File = filepath.Base(source.File)
				}
			}
			return a
		},
	}))

	sqliteOptions := &core.SQLiteDBOption{
		Mode:          "rwc",
		Cache:         "shared",
		JournalMode:   "WAL",
		BusyTimeoutMS: 5000,
		ForeignKeys:   true,
	}
	app.db, err = core.NewSQLiteDB(app.config.SQLite.File, app.config.SQLite.Migrations, sqliteOptions)
	if err != nil {
		failed(1, "failed to open database: %v\n", err)
	}
	app.AddCleanupFunc(func(ctx context.Context) {
		app.db.Close()
	})
	if err := app.db.Migrate(); err != nil {
		failed(1, "failed to migrate database: %v\n", err)
	}

	app.userStore = core.NewSQLiteUserStore(app.db.DB)
	app.authStore = core.NewSQLiteAuthStore(app.db.DB, app.userStore, []byte(app.config.Auth.Secret))
	app.chatStore = core.NewSQLiteChatStore(app.db.DB, app.userStore)
	app.invitationStore = core.NewSQLiteInvitationStore(app.db.DB, app.userStore)
	app.messageStore = core.NewSQLiteMessageStore(app.db.DB)
	app.prefStore = core.NewSQLitePreferenceStore(app.db.DB)

	app.wsManager = core.NewConnManager(app.context, &app.wg, app.logger)
	app.registry = core.NewGroupRegistry(app.wsManager)
	app.wsManager.OnConnectionOpened(app.onConnectionOpen)
	app.wsManager.OnConnectionClosed(app.onConnectionClose)
	app.eventRouter = core.NewEventRouter(app.context, app.logger, app.wsManager, app.registry)

	app.gateway = NewGateway(
		app.eventRouter,
		app.wsManager,
		app.logger,
		app.userStore,
		app.chatStore,
		app.invitationStore,
		app.messageStore,
		app.prefStore,
	)
	app.gateway.Register()

	app.userHandler = NewUserHandler(app.userStore)
	app.authHandler = NewAuthHandler(app.authStore)
	authMiddleware := core.JWTMiddleware(app.authStore)

	app.router = router.New(router.WithLogger(app.logger), router.WithErrorMapper(domainErrorMapper))

	app.router.Router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   app.config.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
	}))

	app.router.With(authMiddleware).Router.Get("/ws", func(w http.ResponseWriter, r *http.Request) {
		session := core.SessionFromRequest(r)
		if err := app.wsManager.Connect(session.UserID, w, r); err != nil {
			return
		}
	})

	api := router.New(router.WithLogger(app.logger), router.WithErrorMapper(domainErrorMapper))

	api.Route("/users", func(r *router.Router) {
		r.With(authMiddleware).Get("/me", app.userHandler.MeHandler)
		r.Post("/", app.userHandler.RegisterUserHandler)
		r.With(authMiddleware).Get("/", app.userHandler.GetUserByEmailHandler)
	})

	api.Route("/auth", func(r *router.Router) {
		r.Post("/signin", app.authHandler.SigninHandler)
		r.With(authMiddleware).Post("/signout", app.authHandler.SignoutHandler)
	})

	app.router.Mount("/api", api)

	app.server = &http.Server{
		Addr:    fmt.Sprintf("%s:%d", app.config.Hostname, app.config.Port),
		Handler: app.router.Router,
		BaseContext: func(listener net.Listener) context.Context {
			return app.context
		},
	}

	return app
}

// domainErrorMapper translates store errors surfaced by HTTP handlers to
// API responses.
func domainErrorMapper(err error) router.Error {
	domainErr, ok := core.AsDomainError(err)
	if !ok {
		return nil
	}
	switch domainErr.Kind {
	case core.KindNotFound:
		return router.NewJsonError(http.StatusNotFound, domainErr.Error())
	case core.KindConflict:
		return router.NewJsonError(http.StatusConflict, domainErr.Error())
	case core.KindValidation:
		return router.NewJsonError(http.StatusBadRequest, domainErr.Error())
	default:
		return nil
	}
}

func (app *App) Start() {
	app.wg.Add(1)
	go app.eventRouter.Listen(&app.wg)
	app.AddCleanupFunc(func(ctx context.Context) {
		app.wsManager.CloseAll()
	})

	// listen for shutdown signal
	go func() {
		<-app.context.Done()
		closeCtx, closeCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer closeCancel()
		var wg sync.WaitGroup

		for _, f := range app.cleanupFuncs {
			wg.Add(1)
			func(wg *sync.WaitGroup) {
				defer wg.Done()
				f(closeCtx)
			}(&wg)
		}

		done := make(chan struct{})
		go func() {
			wg.Wait()
			close(done)
		}()

		select {
		case <-done:
			app.logger.Info("app shutdown gracefully")
			app.exit <- 0
		case <-closeCtx.Done():
			app.logger.Info("app shutdown timed out")
			app.exit <- 1
		}
	}()

	app.AddCleanupFunc(func(ctx context.Context) {
		app.server.Shutdown(ctx)
	})
	app.logger.Info(fmt.Sprintf("app running on: %s:%d",
		app.config.Hostname, app.config.Port))

	if err := app.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		failed(1, "server error: %v\n", err)
	}

	code := <-app.exit
	if code != 0 {
		failed(code, "app exit with code: %d\n", code)
	} else {
		os.Exit(code)
	}
}

func (app *App) AddCleanupFunc(f func(context.Context)) {
	app.cleanupFuncs = append(app.cleanupFuncs, f)
}

func failed(code int, s string, args ...interface{}) {
	fmt.Printf(s, args...)
	os.Exit(code)
}
