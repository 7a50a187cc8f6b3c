package cmd

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/artvista/cartsync/internal/config"
	"github.com/artvista/cartsync/internal/coordinator"
	"github.com/artvista/cartsync/internal/log"
	"github.com/artvista/cartsync/internal/otel"
	"github.com/artvista/cartsync/internal/remote"
	"github.com/artvista/cartsync/internal/store"
)

// runDemo walks the guest-to-login flow against a running backend: add as
// guest, log in, merge, then mutate the authenticated cart.
func runDemo(c context.Context) {
	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyAppName, "cartsync-demo").
		Str(log.KeyTag, "main runDemo").
		Logger()

	logger = logger.With().Str(log.KeyProcess, "init config").Logger()
	logger.Info().Msg("initializing config")
	c = logger.WithContext(c)
	cfg := config.InitConfig(c, "cartsync")
	logger = logger.With().Any(log.KeyConfig, cfg).Logger()
	logger.Info().Msg("initialized config")

	logger = logger.With().Str(log.KeyProcess, "InitOtelSdk").Logger()
	logger.Info().Msg("initializing otel sdk")
	shutdownFuncs, err := otel.InitOtelSdk(c, cfg.Otel.Endpoint())
	if err != nil {
		logger.Error().Err(err).Msgf("failed initializing otel sdk with error=%s", err.Error())
	}
	defer func() {
		if err := otel.ShutdownOtel(c, shutdownFuncs); err != nil {
			logger.Error().Err(err).Msgf("failed shutting down otel with error=%s", err.Error())
		}
	}()
	logger.Info().Msg("initialized otel sdk")

	var guest store.GuestStore
	if cfg.Storage.Backend == "redis" {
		cache := store.NewCacheClient(c, cfg.Cache)
		guest = store.NewRedisStore(cache, cfg.Storage.Key)
	} else {
		guest = store.NewFileStore(cfg.Storage.Path)
	}

	client := remote.NewClient(cfg.Remote)
	co := coordinator.New(guest, client)

	logger = logger.With().Str(log.KeyProcess, "guest flow").Logger()
	co.Load(c)
	for _, product := range sampleCatalog() {
		result := co.AddToCart(c, product, 1, nil)
		logger.Info().
			Str(log.KeyProductID, product.ID).
			Bool("success", result.Success).
			Str("message", result.Message).
			Msg("added to guest cart")
	}
	logger.Info().Any("summary", co.Summary()).Msg("guest cart summary")

	logger = logger.With().Str(log.KeyProcess, "login flow").Logger()
	logger.Info().Msg("logging in, merging guest cart")
	co.SetSession(c, true)
	logger.Info().Any("summary", co.Summary()).Msg("merged cart summary")

	items := co.Items()
	if len(items) > 0 {
		result := co.UpdateQuantity(c, items[0].ID, items[0].Quantity+1)
		logger.Info().
			Str(log.KeyCartItemID, items[0].ID).
			Bool("success", result.Success).
			Msg("bumped first line quantity")
	}
	logger.Info().Any("summary", co.Summary()).Msg("final cart summary")
}
