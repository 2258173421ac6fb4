package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"hydrogen-admin/internal/api/handlers"
	"hydrogen-admin/internal/api/middleware"
	"hydrogen-admin/internal/config"
	"hydrogen-admin/internal/database"
	"hydrogen-admin/internal/history"
	"hydrogen-admin/internal/logger"
	"hydrogen-admin/internal/repository"
	"hydrogen-admin/internal/services/shopify"
	"hydrogen-admin/internal/stream"

	"github.com/gin-gonic/gin"
)

// Deps are the collaborators built by the entry points. Hub and Stash are
// optional: without a hub the session and store command routes are not
// mounted, without a stash payloads cannot be stashed.
type Deps struct {
	DB       *database.Database
	Hub      *stream.Hub
	Stash    handlers.PayloadStash
	Registry handlers.Registry
	Shopify  handlers.ShopifyClientFunc
}

type Server struct {
	config *config.Config
	logger *logger.Logger
	db     *database.Database
	router *gin.Engine
	server *http.Server
}

// ShopifyClient returns a factory for rate limited Admin API clients.
func ShopifyClient(cfg *config.Config, logger *logger.Logger) handlers.ShopifyClientFunc {
	return func(shopURL, token string) handlers.ShopifyAPI {
		return shopify.NewClient(shopURL, token, cfg.ShopifyAPIVersion, logger, shopify.WithRateLimit(cfg.ShopifyRateLimit))
	}
}

func New(cfg *config.Config, logger *logger.Logger, deps Deps) *Server {
	// Set Gin mode
	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	if deps.Shopify == nil {
		deps.Shopify = ShopifyClient(cfg, logger)
	}

	router := gin.New()

	// Middleware
	router.Use(middleware.Logger(logger))
	router.Use(middleware.Recovery(logger))
	router.Use(middleware.CORS(cfg.CORSAllowedOrigins))

	// Repositories
	stores := repository.NewStoreRepository(deps.DB.DB)
	drafts := repository.NewDraftRepository(deps.DB.DB)
	runs := repository.NewRunRepository(deps.DB.DB)
	recorder := history.NewRecorder(runs, logger)

	// Initialize handlers
	shopifyHandler := handlers.NewShopifyHandler(cfg, logger, deps.Shopify, recorder)
	collectionHandler := handlers.NewCollectionHandler(cfg, logger, deps.Shopify, recorder)
	draftHandler := handlers.NewDraftHandler(drafts, logger)
	runHandler := handlers.NewRunHandler(runs, logger)
	storeHandler := handlers.NewStoreHandler(stores, drafts, deps.Registry, deps.Hub, logger)

	router.GET("/health", handlers.Health)

	// Proxy routes called by the admin pages
	proxy := router.Group("/api")
	{
		proxy.POST("/create-collection", shopifyHandler.CreateCollection)
		proxy.POST("/publish-collection", shopifyHandler.PublishCollection)
		proxy.GET("/get-publications", shopifyHandler.GetPublications)
		proxy.POST("/upload-products", shopifyHandler.UploadProducts)
	}

	v1 := router.Group("/api/v1")
	{
		// Drafts
		v1.GET("/drafts/:key", draftHandler.Load)
		v1.PUT("/drafts/:key", draftHandler.Save)
		v1.DELETE("/drafts/:key", draftHandler.Clear)

		// Runs
		v1.GET("/runs", runHandler.List)
		v1.GET("/runs/:id", runHandler.Get)
		v1.GET("/runs/:id/failed", runHandler.Failed)

		v1.GET("/templates/:kind", handlers.Template)
		v1.POST("/collections/import", collectionHandler.Import)

		// Stores
		v1.GET("/stores", storeHandler.List)
		v1.GET("/stores/:id", storeHandler.Get)

		if deps.Hub != nil {
			sessionHandler := handlers.NewSessionHandler(deps.Hub, deps.Stash, logger)

			v1.POST("/stores/create", storeHandler.Create)
			v1.PUT("/stores/:id/config", storeHandler.UpdateConfig)

			// Publish sessions
			publish := v1.Group("/publish")
			{
				publish.POST("/payloads", sessionHandler.StashPayload)
				publish.POST("/sessions", sessionHandler.Open)
				publish.GET("/sessions/:id", sessionHandler.Get)
				publish.GET("/sessions/:id/events", sessionHandler.Events)
				publish.GET("/sessions/:id/failed", sessionHandler.Failed)
				publish.DELETE("/sessions/:id", sessionHandler.Close)
			}
		}
	}

	return &Server{
		config: cfg,
		logger: logger,
		db:     deps.DB,
		router: router,
	}
}

func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%s", s.config.APIHost, s.config.APIPort)

	s.server = &http.Server{
		Addr:        addr,
		Handler:     s.router,
		ReadTimeout: 15 * time.Second,
		// no write timeout: session event streams stay open
		IdleTimeout: 60 * time.Second,
	}

	s.logger.Info("Starting server on " + addr)
	return s.server.ListenAndServe()
}

func (s *Server) Stop(ctx context.Context) error {
	s.logger.Info("Shutting down server...")
	return s.server.Shutdown(ctx)
}

// GetRouter returns the Gin router for Vercel
func (s *Server) GetRouter() *gin.Engine {
	return s.router
}
