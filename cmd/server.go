package cmd

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/artvista/cartsync/internal/config"
	"github.com/artvista/cartsync/internal/log"
	"github.com/artvista/cartsync/internal/otel"
	"github.com/artvista/cartsync/internal/server"
	"github.com/artvista/cartsync/pkg/cart"
)

func runServer(c context.Context) {
	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyAppName, "cartsync-server").
		Str(log.KeyTag, "main runServer").
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
	logger.Info().Msg("initialized otel sdk")

	logger = logger.With().Str(log.KeyProcess, "Start Server").Logger()
	logger.Info().Msg("initializing router")
	backend := server.New(sampleCatalog()...)
	httpServer := http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Application.Host, cfg.Application.Port),
		BaseContext:  func(net.Listener) context.Context { return c },
		Handler:      backend.Router(),
		ReadTimeout:  45 * time.Second,
		WriteTimeout: 45 * time.Second,
	}
	logger.Info().Msg("initialized router")

	go func() {
		logger.Info().Msgf("start listening request at %s", httpServer.Addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error().
				Err(err).
				Msgf("error=%s occured while server is running", err.Error())
		}
	}()

	<-c.Done()
	logger = logger.With().Str(log.KeyProcess, "Shutdown Server").Logger()
	logger.Info().Msg("received interuption signal shutting down")
	if err := httpServer.Shutdown(c); err != nil {
		logger.Error().Err(err).Msgf("failed shutting down server with error=%s", err.Error())
	}
	if err := otel.ShutdownOtel(c, shutdownFuncs); err != nil {
		logger.Error().Err(err).Msgf("failed shutting down otel with error=%s", err.Error())
	}
	logger.Info().Msg("shutdown server")
}

// sampleCatalog seeds the demo backend with a few gallery pieces.
func sampleCatalog() []cart.Product {
	discounted := decimal.NewFromInt(180)
	return []cart.Product{
		{
			ID:     "artwork-001",
			Type:   cart.ProductTypeArtwork,
			Title:  "Harbor at Dusk",
			Image:  "/images/harbor-at-dusk.jpg",
			Artist: "M. Okafor",
			Price:  decimal.NewFromInt(450),
		},
		{
			ID:            "print-014",
			Type:          cart.ProductTypeProduct,
			Title:         "Linocut Print No. 14",
			Image:         "/images/linocut-14.jpg",
			Artist:        "E. Sandoval",
			Price:         decimal.NewFromInt(220),
			DiscountPrice: &discounted,
		},
		{
			ID:     "frame-oak-m",
			Type:   cart.ProductTypeProduct,
			Title:  "Oak Frame (Medium)",
			Image:  "/images/frame-oak-m.jpg",
			Artist: "",
			Price:  decimal.NewFromInt(65),
		},
	}
}
