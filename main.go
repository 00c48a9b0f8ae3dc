package main

import (
	"context"
	"time"

	"studygenie/internal/api"
	"studygenie/internal/assessment"
	"studygenie/internal/config"
	logging "studygenie/internal/logging"
	"studygenie/internal/router"
	"studygenie/internal/session"
	"studygenie/internal/storage"

	"go.uber.org/zap"
)

const projectRoot = "."

func main() {
	// Configuration first, with a console-only logger; the file logger
	// needs the configured log directory.
	bootLog := logging.Console()
	if err := config.Init(projectRoot, bootLog); err != nil {
		bootLog.Fatal("Failed to load configuration", zap.Error(err))
	}

	log, err := logging.Init(projectRoot, config.Conf.Logging)
	if err != nil {
		bootLog.Fatal("Failed to initialize logger", zap.Error(err))
	}
	defer log.Sync()

	// Local store for the credential and cached profile
	store, err := storage.Open(config.Conf.Storage.Path, log)
	if err != nil {
		log.Fatal("Failed to open local store", zap.Error(err))
	}
	defer store.Close()

	// Remote API client; the session store supplies its bearer token
	client := api.New(config.Conf.API, log)
	sess := session.New(store, client, log)
	client.SetTokenSource(sess.Token)

	engine := assessment.New(client, log)

	// Restore the persisted session before serving. A failure here just
	// means starting logged out.
	ctx, cancel := context.WithTimeout(context.Background(), config.Conf.API.Timeout+time.Second)
	if err := sess.Bootstrap(ctx); err != nil {
		log.Warn("Session bootstrap failed, starting logged out", zap.Error(err))
	}
	cancel()

	r := router.Setup(log, sess, engine, client)

	port := ":" + config.Conf.Server.Port
	log.Info("StudyGenie client listening on http://localhost" + port)
	if err := r.Run(port); err != nil {
		log.Fatal("Failed to run Gin server", zap.Error(err))
	}
}
