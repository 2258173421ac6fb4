package handler

import (
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"sync"

	"hydrogen-admin/internal/api"
	"hydrogen-admin/internal/config"
	"hydrogen-admin/internal/database"
	"hydrogen-admin/internal/logger"
	"hydrogen-admin/internal/services/registry"

	"github.com/gin-gonic/gin"
	_ "github.com/lib/pq"
)

var (
	db      *sql.DB
	dbMutex sync.Mutex
	router  *gin.Engine
)

// initDB opens the Postgres connection once per function instance.
func initDB() error {
	if db != nil {
		return nil // Already initialized
	}

	databaseURL := os.Getenv("DATABASE_URL")
	if databaseURL == "" {
		return fmt.Errorf("DATABASE_URL not set")
	}

	conn, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return err
	}

	// Test the connection
	if err := conn.Ping(); err != nil {
		conn.Close()
		return err
	}
	db = conn
	return nil
}

// initRouter builds the same routes as cmd/api without the event relay:
// functions do not live long enough to hold a session.
func initRouter() (*gin.Engine, error) {
	dbMutex.Lock()
	defer dbMutex.Unlock()

	if router != nil {
		return router, nil
	}
	if err := initDB(); err != nil {
		return nil, err
	}

	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	cfg.Env = "production"
	log := logger.New(cfg.LogLevel, cfg.Env)

	store, err := database.NewFromSQL(db)
	if err != nil {
		return nil, err
	}

	server := api.New(cfg, log, api.Deps{
		DB:       store,
		Registry: registry.NewClient(cfg.StoreRegistryURL),
	})
	router = server.GetRouter()
	return router, nil
}

func Handler(w http.ResponseWriter, r *http.Request) {
	engine, err := initRouter()
	if err != nil {
		http.Error(w, fmt.Sprintf("Database initialization failed: %v", err), http.StatusInternalServerError)
		return
	}

	// Serve the request
	engine.ServeHTTP(w, r)
}

// This function is required by Vercel
func main() {
	// This won't be called in Vercel, but required for Go compilation
}
