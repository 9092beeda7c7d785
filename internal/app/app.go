package app

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/vuongnp/tiktok-insight-service/internal/api"
	"github.com/vuongnp/tiktok-insight-service/internal/llm"
	"github.com/vuongnp/tiktok-insight-service/internal/llm/llmimpl"
	"github.com/vuongnp/tiktok-insight-service/internal/pipeline"
	"github.com/vuongnp/tiktok-insight-service/internal/pipeline/pipelineimpl"
	"github.com/vuongnp/tiktok-insight-service/internal/provider"
	"github.com/vuongnp/tiktok-insight-service/internal/provider/providerimpl"
	"github.com/vuongnp/tiktok-insight-service/pkg/config"
	"github.com/vuongnp/tiktok-insight-service/pkg/logger"
	"go.uber.org/fx"
)

var Module = fx.Options(
	fx.Provide(
		config.New,
		logger.FxOption,
	),
	fx.Provide(
		fx.Annotate(
			providerimpl.New,
			fx.As(new(provider.Client)),
		),
		fx.Annotate(
			llmimpl.New,
			fx.As(new(llm.Client)),
		),
		fx.Annotate(
			pipelineimpl.New,
			fx.As(new(pipeline.Service)),
		),
	),
	fx.Provide(
		api.NewHandler,
		api.NewRouter,
	),
	fx.Invoke(run),
)

func run(lc fx.Lifecycle, log logger.Logger, cfg *config.Config, router http.Handler) {
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.App.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			go func() {
				log.Info("HTTP server listening", "addr", srv.Addr)
				if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					log.Error("HTTP server stopped unexpectedly", "error", err)
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			log.Info("Shutting down HTTP server")
			return srv.Shutdown(ctx)
		},
	})
}
