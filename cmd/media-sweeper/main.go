package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	firebase "firebase.google.com/go"
	"google.golang.org/api/option"

	"github.com/princekumarofficial/angelia/internal/config"
	"github.com/princekumarofficial/angelia/internal/services/media"
	"github.com/princekumarofficial/angelia/internal/storage/firestoredb"
	"github.com/princekumarofficial/angelia/internal/sweeper"
)

func main() {
	// Load config
	cfg := config.MustLoad()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))

	// Setup graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigCh
		slog.Info("Received shutdown signal")
		cancel()
	}()

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

	mediaService, err := media.NewService(cfg)
	if err != nil {
		log.Fatal("Failed to initialize media service:", err)
	}

	worker := sweeper.New(mediaService, db, cfg.Feed.SweepInterval, cfg.Feed.SweepGrace, logger)
	worker.Start(ctx)

	slog.Info("Media sweeper stopped")
}
