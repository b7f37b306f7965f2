package main

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/magabrotheeeer/bluewave-shop/internal/app/seed"
	"github.com/magabrotheeeer/bluewave-shop/internal/config"
	"github.com/magabrotheeeer/bluewave-shop/internal/lib/sl"
)

func main() {
	cfg := config.MustLoad()
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	res, err := seed.Run(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to seed catalog", sl.Err(err))
		os.Exit(1)
	}
	logger.Info("catalog ready", slog.Int("upserted", res.Upserted), slog.Int64("deactivated", res.Deactivated))
}
