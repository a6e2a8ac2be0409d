// Package app wires configuration, storage, clients and services into one
// application lifecycle.
package app

import (
	"context"
	"fmt"

	"github.com/humanda/askfin/internal/clients/ecos"
	"github.com/humanda/askfin/internal/clients/krx"
	"github.com/humanda/askfin/internal/clients/naver"
	"github.com/humanda/askfin/internal/common"
	"github.com/humanda/askfin/internal/datasource"
	"github.com/humanda/askfin/internal/interfaces"
	"github.com/humanda/askfin/internal/registry"
	"github.com/humanda/askfin/internal/services/analysis"
	"github.com/humanda/askfin/internal/services/period"
	"github.com/humanda/askfin/internal/services/universe"
	"github.com/humanda/askfin/internal/storage"
)

// App holds all application components
type App struct {
	Config   *common.Config
	Logger   *common.Logger
	Storage  *storage.Manager
	Registry *registry.Registry
	Analysis interfaces.AnalysisService
}

// New creates the application from layered config files
func New(configPaths ...string) (*App, error) {
	config, err := common.LoadConfig(configPaths...)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	logger := common.NewLogger(config.Logging.Level)

	store, err := storage.NewManager(logger, &config.Storage)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}

	naverClient := naver.NewClient(
		naver.WithBaseURL(config.Clients.Naver.BaseURL),
		naver.WithRateLimit(config.Clients.Naver.RateLimit),
		naver.WithTimeout(config.Clients.Naver.GetTimeout()),
		naver.WithLogger(logger),
	)

	krxClient := krx.NewClient(
		krx.WithBaseURL(config.Clients.KRX.BaseURL),
		krx.WithRateLimit(config.Clients.KRX.RateLimit),
		krx.WithTimeout(config.Clients.KRX.GetTimeout()),
		krx.WithLogger(logger),
	)

	// A missing ECOS key degrades indicator features instead of blocking
	// startup; the client reports the absence on first use.
	ecosKey, err := common.ResolveAPIKey("ecos_api_key", config.Clients.ECOS.APIKey)
	if err != nil {
		logger.Warn().Msg("ECOS API key not configured, indicator features unavailable")
		ecosKey = ""
	}
	ecosClient := ecos.NewClient(ecosKey,
		ecos.WithBaseURL(config.Clients.ECOS.BaseURL),
		ecos.WithTimeout(config.Clients.ECOS.GetTimeout()),
		ecos.WithLogger(logger),
	)

	source := datasource.NewChain(
		[]interfaces.SeriesProvider{naverClient, krxClient},
		datasource.WithStore(store.Series()),
		datasource.WithLogger(logger),
	)

	reg := registry.New(krxClient, config.Data.ThemesPath, logger)

	analysisService := analysis.NewService(analysis.Deps{
		Registry:  reg,
		Periods:   period.NewResolver(ecosClient, period.WithLogger(logger)),
		Universe:  universe.NewResolver(reg, logger),
		Source:    source,
		NetBuy:    krxClient,
		Consensus: naverClient,
		Indicator: ecosClient,
	}, &config.Engine, logger)

	logger.Info().
		Str("environment", config.Environment).
		Str("version", common.GetVersion()).
		Msg("AskFin initialized")

	return &App{
		Config:   config,
		Logger:   logger,
		Storage:  store,
		Registry: reg,
		Analysis: analysisService,
	}, nil
}

// Warm loads reference data. Must complete before the server accepts
// traffic.
func (a *App) Warm(ctx context.Context) error {
	return a.Registry.Warm(ctx)
}

// Close releases application resources
func (a *App) Close() error {
	if a.Storage != nil {
		if err := a.Storage.Close(); err != nil {
			return fmt.Errorf("failed to close storage: %w", err)
		}
	}
	return nil
}
