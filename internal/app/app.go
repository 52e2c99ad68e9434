package app

import (
	"context"
	"fmt"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/loci/internal/common"
	"github.com/ternarybob/loci/internal/handlers"
	"github.com/ternarybob/loci/internal/interfaces"
	"github.com/ternarybob/loci/internal/services/agent"
	"github.com/ternarybob/loci/internal/services/fetch"
	"github.com/ternarybob/loci/internal/services/ingest"
	"github.com/ternarybob/loci/internal/services/llm"
	"github.com/ternarybob/loci/internal/services/places"
	"github.com/ternarybob/loci/internal/services/recommend"
	"github.com/ternarybob/loci/internal/services/reconcile"
	"github.com/ternarybob/loci/internal/services/websearch"
	"github.com/ternarybob/loci/internal/storage/badger"
)

// App holds all application components and dependencies
type App struct {
	Config         *common.Config
	Logger         arbor.ILogger
	ctx            context.Context
	cancelCtx      context.CancelFunc
	StorageManager interfaces.StorageManager

	// External clients
	PlacesService     interfaces.PlacesService
	CompletionService interfaces.CompletionService
	WebSearchService  interfaces.WebSearchService
	ContentFetcher    interfaces.ContentFetcher

	// Pipeline services
	IngestService    *ingest.Service
	RecommendService *recommend.Service
	AgentService     *agent.Service
	ReconcileService *reconcile.Service

	// HTTP handlers
	HealthHandler    *handlers.HealthHandler
	TakeoutHandler   *handlers.TakeoutHandler
	PlacesHandler    *handlers.PlacesHandler
	ProfileHandler   *handlers.ProfileHandler
	RecommendHandler *handlers.RecommendHandler
}

// New wires up storage, external clients, pipeline services, and handlers.
// Call Close to release everything in reverse order.
func New(ctx context.Context, config *common.Config) (*App, error) {
	logger := common.GetLogger()
	appCtx, cancel := context.WithCancel(ctx)

	a := &App{
		Config:    config,
		Logger:    logger,
		ctx:       appCtx,
		cancelCtx: cancel,
	}

	storageManager, err := badger.NewManager(logger, &config.Storage.Badger)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}
	a.StorageManager = storageManager
	kvStorage := storageManager.KeyValueStorage()

	a.PlacesService = places.NewService(config, kvStorage, logger)
	a.ContentFetcher = fetch.NewFetcher(config, logger)

	a.CompletionService, err = llm.NewCompletionService(config, kvStorage, logger)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("failed to initialize completion service: %w", err)
	}

	a.WebSearchService, err = websearch.NewService(appCtx, config, kvStorage, logger)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("failed to initialize web search: %w", err)
	}

	savedPlaces := storageManager.SavedPlaceStorage()
	profiles := storageManager.ProfileStorage()
	placeCache := storageManager.PlaceCacheStorage()

	a.IngestService = ingest.NewService(config, savedPlaces, a.PlacesService, logger)
	a.RecommendService = recommend.NewService(config, a.CompletionService, profiles, savedPlaces, logger)
	a.AgentService = agent.NewService(config, a.CompletionService, a.WebSearchService, a.ContentFetcher, a.RecommendService, logger)
	a.ReconcileService = reconcile.NewService(config, savedPlaces, logger)

	a.HealthHandler = handlers.NewHealthHandler(logger)
	a.TakeoutHandler = handlers.NewTakeoutHandler(a.IngestService, logger)
	a.PlacesHandler = handlers.NewPlacesHandler(savedPlaces, placeCache, a.PlacesService, a.AgentService, logger)
	a.ProfileHandler = handlers.NewProfileHandler(profiles, logger)
	a.RecommendHandler = handlers.NewRecommendHandler(a.RecommendService, a.PlacesService, logger)

	logger.Info().Msg("Application components initialized")
	return a, nil
}

// Start launches background work (the duplicate reconciliation schedule)
func (a *App) Start() error {
	return a.ReconcileService.Start()
}

// Close shuts down components in reverse dependency order
func (a *App) Close() {
	a.cancelCtx()

	if a.ReconcileService != nil {
		a.ReconcileService.Stop()
	}
	if a.CompletionService != nil {
		if err := a.CompletionService.Close(); err != nil {
			a.Logger.Warn().Err(err).Msg("Completion service close failed")
		}
	}
	if a.StorageManager != nil {
		if err := a.StorageManager.Close(); err != nil {
			a.Logger.Warn().Err(err).Msg("Storage close failed")
		}
	}

	a.Logger.Info().Msg("Application shut down")
}
