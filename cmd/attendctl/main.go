package main

import (
	"context"
	"os"

	"go.uber.org/zap"

	"studentattendance/internal/attendance"
	"studentattendance/internal/config"
	"studentattendance/internal/identity"
	"studentattendance/internal/logging"
	"studentattendance/internal/profile"
	"studentattendance/internal/store"
)

func main() {
	cfg := config.Load()
	logger := logging.Must(cfg.Env).Named("attendctl")
	defer logger.Sync()

	ctx := context.Background()
	docs, err := store.OpenDocuments(ctx, cfg)
	if err != nil {
		logger.Fatal("document store connect failed", zap.Error(err))
	}
	defer docs.Close(ctx)

	dir := identity.NewDirectory(docs, logger)
	cli := commandLine{
		dir:      dir,
		session:  identity.NewClient(dir),
		att:      attendance.NewService(attendance.NewRepository(docs, cfg.HistoryBatchSize), nil, nil, logger, attendance.Options{}),
		profiles: profile.NewManager(docs, logger),
		out:      os.Stdout,
	}
	if err := cli.run(ctx, os.Args); err != nil {
		if err != errHelp {
			logger.Error("command failed", zap.Error(err))
		}
		os.Exit(1)
	}
}
