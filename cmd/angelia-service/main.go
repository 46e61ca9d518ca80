package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	firebase "firebase.google.com/go"
	"github.com/go-redis/redis/v8"
	"github.com/lmittmann/tint"
	"github.com/rs/cors"
	httpSwagger "github.com/swaggo/http-swagger"
	"golang.org/x/sync/errgroup"
	"google.golang.org/api/option"

	"github.com/princekumarofficial/angelia/docs"
	"github.com/princekumarofficial/angelia/internal/config"
	"github.com/princekumarofficial/angelia/internal/demo"
	"github.com/princekumarofficial/angelia/internal/events"
	"github.com/princekumarofficial/angelia/internal/feedsync"
	"github.com/princekumarofficial/angelia/internal/http/handlers/channels"
	demoHandlers "github.com/princekumarofficial/angelia/internal/http/handlers/demo"
	"github.com/princekumarofficial/angelia/internal/http/handlers/health"
	"github.com/princekumarofficial/angelia/internal/http/handlers/posts"
	prefsHandlers "github.com/princekumarofficial/angelia/internal/http/handlers/prefs"
	"github.com/princekumarofficial/angelia/internal/http/handlers/users"
	wsHandler "github.com/princekumarofficial/angelia/internal/http/handlers/websocket"
	"github.com/princekumarofficial/angelia/internal/http/middleware"
	"github.com/princekumarofficial/angelia/internal/prefs"
	"github.com/princekumarofficial/angelia/internal/ratelimit"
	"github.com/princekumarofficial/angelia/internal/services/feed"
	"github.com/princekumarofficial/angelia/internal/services/identity"
	"github.com/princekumarofficial/angelia/internal/services/media"
	"github.com/princekumarofficial/angelia/internal/services/notify"
	"github.com/princekumarofficial/angelia/internal/storage/firestoredb"
	"github.com/princekumarofficial/angelia/internal/store"
	"github.com/princekumarofficial/angelia/internal/websocket"
)

// @title Angelia API
// @version 1.0
// @description Family feed sync gateway: channels, posts, invites and live updates.
// @host localhost:8080
// @BasePath /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	// load config
	cfg := config.MustLoad()

	logger := newLogger(cfg)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// firebase: document store, auth and push
	app, err := firebase.NewApp(ctx, &firebase.Config{ProjectID: cfg.Firebase.ProjectID},
		option.WithCredentialsFile(cfg.Firebase.CredentialsFile))
	if err != nil {
		log.Fatal("Failed to initialize firebase:", err)
	}

	db, err := firestoredb.NewFromApp(ctx, app)
	if err != nil {
		log.Fatal("Failed to connect to firestore:", err)
	}
	defer db.Close()
	slog.Info("Connected to Firestore", slog.String("project_id", cfg.Firebase.ProjectID))

	provider, err := newIdentityProvider(ctx, cfg, app)
	if err != nil {
		log.Fatal("Failed to initialize identity provider:", err)
	}

	notifier, err := notify.NewFCM(ctx, app)
	if err != nil {
		log.Fatal("Failed to initialize messaging:", err)
	}

	mediaService, err := media.NewService(cfg)
	if err != nil {
		log.Fatal("Failed to initialize media service:", err)
	}

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Address,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer redisClient.Close()
	if err := redisClient.Ping(ctx).Err(); err != nil {
		log.Fatal("Failed to connect to Redis:", err)
	}
	slog.Info("Connected to Redis", slog.String("address", cfg.Redis.Address))

	// replica, live push and actions
	st := store.New()
	hub := websocket.NewHub()
	publisher := events.NewEventPublisher(hub, st, "")
	stopPublishing := publisher.Start()
	defer stopPublishing()

	stopSync, err := demo.Remote(db,
		feedsync.WithLogger(logger),
		feedsync.WithErrorHandler(func(collection string, err error) {
			// a dead listener leaves the replica stale; exit and let the supervisor restart us
			slog.Error("Sync listener died, shutting down", slog.String("collection", collection), slog.String("error", err.Error()))
			stop()
		}),
	).Start(ctx, st)
	if err != nil {
		log.Fatal("Failed to start sync:", err)
	}
	defer stopSync()

	limits := mediaService.Limits()
	feedOptions := feed.Options{
		CustomChannelLimit: cfg.Feed.CustomChannelLimit,
		MaxFilesPerPost:    limits.MaxFilesPerPost,
		MaxFileSize:        limits.MaxFileSize,
		AllowedMimeTypes:   limits.AllowedMimeTypes,
	}
	feedService := feed.NewService(feed.Static(db, mediaService, notifier), st, feedOptions, logger)

	// demo sessions get private copies of the seeded family
	sessions := demo.NewSessions(demo.Options{
		MediaBaseURL: cfg.Demo.MediaBaseURL,
		TTL:          cfg.Demo.SessionTTL,
		MaxSessions:  cfg.Demo.MaxSessions,
		Feed:         feedOptions,
		Hub:          hub,
		Logger:       logger,
	})

	userPrefs := prefs.New(redisClient)
	limiter := ratelimit.NewLimiter(redisClient, map[ratelimit.Action]int64{
		ratelimit.ActionPost:     cfg.Feed.PostsPerMinute,
		ratelimit.ActionReaction: cfg.Feed.ReactionsPerMinute,
	})

	// setup router
	router := http.NewServeMux()
	auth := middleware.Auth(provider, sessions)
	protect := func(h http.HandlerFunc) http.Handler { return auth(h) }
	rateLimitConfig := middleware.NewRateLimitConfig(limiter)
	limited := func(action ratelimit.Action, h http.HandlerFunc) http.Handler {
		return auth(rateLimitConfig.RateLimitedHandler(action, h))
	}

	postHandlers := posts.NewPostHandlers(feedService, st)
	router.Handle("GET /feed", protect(postHandlers.Feed()))
	router.Handle("POST /posts", limited(ratelimit.ActionPost, postHandlers.CreatePost()))
	router.Handle("GET /posts/{id}", protect(postHandlers.GetPost()))
	router.Handle("DELETE /posts/{id}", protect(postHandlers.DeletePost()))
	router.Handle("POST /posts/{id}/reactions", limited(ratelimit.ActionReaction, postHandlers.ToggleReaction()))
	router.Handle("POST /posts/{id}/comments", protect(postHandlers.AddComment()))
	router.Handle("POST /posts/{id}/conversation", protect(postHandlers.JoinConversation()))

	channelHandlers := channels.NewChannelHandlers(feedService, st, cfg.Feed.InviteOrigin)
	router.Handle("GET /channels", protect(channelHandlers.ListChannels()))
	router.Handle("POST /channels", protect(channelHandlers.CreateChannel()))
	router.Handle("POST /channels/daily", protect(channelHandlers.EnsureDailyChannel()))
	router.Handle("DELETE /channels/{id}", protect(channelHandlers.DeleteChannel()))
	router.Handle("POST /channels/{id}/invite-code", protect(channelHandlers.RegenerateInviteCode()))
	router.Handle("DELETE /channels/{id}/subscription", protect(channelHandlers.Unsubscribe()))
	router.Handle("GET /invite/{code}", protect(channelHandlers.ResolveInvite()))
	router.Handle("POST /invite/{code}/join", protect(channelHandlers.JoinByInviteCode()))
	router.Handle("GET /invites", protect(channelHandlers.PendingInvites()))
	router.Handle("POST /invites", protect(channelHandlers.InviteUser()))
	router.Handle("POST /invites/{id}/respond", protect(channelHandlers.RespondToInvite()))

	userHandlers := users.NewUserHandlers(feedService, provider, logger)
	router.HandleFunc("POST /auth/signup", userHandlers.SignUp())
	router.HandleFunc("POST /auth/login", userHandlers.Login())
	router.Handle("POST /auth/logout", protect(userHandlers.Logout()))
	router.Handle("POST /auth/verify", protect(userHandlers.SendVerification()))
	router.Handle("GET /auth/verify/status", protect(userHandlers.VerificationStatus()))
	router.HandleFunc("GET /auth/verify/confirm", userHandlers.ConfirmVerification())
	router.Handle("GET /me", protect(userHandlers.Me()))
	router.Handle("PUT /me/profile", protect(userHandlers.CompleteProfile()))

	router.Handle("GET /prefs", protect(prefsHandlers.GetPrefs(userPrefs)))
	router.Handle("DELETE /prefs", protect(prefsHandlers.ClearPrefs(userPrefs)))
	router.Handle("POST /prefs/banner", protect(prefsHandlers.DismissBanner(userPrefs)))
	router.Handle("PUT /prefs/scroll", protect(prefsHandlers.SaveScroll(userPrefs)))

	router.Handle("GET /demo", protect(demoHandlers.Status()))
	router.HandleFunc("POST /demo/enter", demoHandlers.Enter(sessions))
	router.Handle("POST /demo/exit", protect(demoHandlers.Exit(sessions)))
	router.HandleFunc("GET /demo-media/{session}/{key...}", demoHandlers.Media(sessions))

	upgrader := wsHandler.NewUpgrader(cfg.HTTPServer.AllowedOrigins)
	router.Handle("GET /ws", protect(wsHandler.WebSocketHandler(hub, upgrader, publisher)))

	router.HandleFunc("GET /health", health.Health(redisClient))
	router.HandleFunc("GET /stats", health.GetStats(redisClient, st, sessions, hub))

	docs.SwaggerInfo.Host = cfg.HTTPServer.Address
	router.Handle("GET /swagger/", httpSwagger.WrapHandler)

	corsHandler := cors.New(cors.Options{
		AllowedOrigins:   cfg.HTTPServer.AllowedOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		ExposedHeaders:   []string{"X-RateLimit-Limit", "X-RateLimit-Remaining", "X-RateLimit-Reset"},
		AllowCredentials: true,
	})

	server := http.Server{
		Addr:              cfg.HTTPServer.Address,
		Handler:           corsHandler.Handler(middleware.Logging(logger)(router)),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return hub.Run(gctx)
	})

	g.Go(func() error {
		return sessions.Run(gctx, time.Minute)
	})

	g.Go(func() error {
		slog.Info("server started", slog.String("address", cfg.HTTPServer.Address))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("failed to start server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()

		slog.Info("Shutting down server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("failed to gracefully shutdown server: %w", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		slog.Error("Server stopped with error", slog.String("error", err.Error()))
		os.Exit(1)
	}

	slog.Info("Server stopped")
}

func newLogger(cfg *config.Config) *slog.Logger {
	if cfg.IsLocal() {
		return slog.New(tint.NewHandler(os.Stdout, &tint.Options{
			Level:      slog.LevelDebug,
			TimeFormat: time.Kitchen,
		}))
	}
	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
}

func newIdentityProvider(ctx context.Context, cfg *config.Config, app *firebase.App) (identity.Provider, error) {
	switch cfg.Auth.Provider {
	case "local":
		slog.Warn("Using the in-process identity provider; accounts are lost on restart")
		return identity.NewLocalProvider(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL, cfg.Auth.VerifyBaseURL), nil
	default:
		p, err := identity.NewFirebaseProvider(ctx, app)
		if err != nil {
			return nil, err
		}
		return p, nil
	}
}
