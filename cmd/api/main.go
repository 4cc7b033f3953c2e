package main

import (
	"context"
	"database/sql"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Abduallh5Mohamed/FreeLance-25-sub000/internal/approval"
	"github.com/Abduallh5Mohamed/FreeLance-25-sub000/internal/auth"
	"github.com/Abduallh5Mohamed/FreeLance-25-sub000/internal/config"
	"github.com/Abduallh5Mohamed/FreeLance-25-sub000/internal/database"
	"github.com/Abduallh5Mohamed/FreeLance-25-sub000/internal/handlers"
	"github.com/Abduallh5Mohamed/FreeLance-25-sub000/internal/metrics"
	"github.com/Abduallh5Mohamed/FreeLance-25-sub000/internal/notify"
	"github.com/Abduallh5Mohamed/FreeLance-25-sub000/internal/routes"
	"github.com/Abduallh5Mohamed/FreeLance-25-sub000/internal/store"
	"github.com/Abduallh5Mohamed/FreeLance-25-sub000/internal/store/memstore"
	"github.com/Abduallh5Mohamed/FreeLance-25-sub000/internal/store/mysqlstore"
)

func main() {
	// 0. --- Load Configuration ---
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if err := cfg.ValidateAPI(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}
	gin.SetMode(cfg.GinMode)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 1. --- Store ---
	st, db, err := openStore(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to open %s store: %v", cfg.StoreDriver, err)
	}
	if db != nil {
		defer db.Close()
	}

	// 2. --- Admin Bootstrap ---
	if cfg.AdminEmail != "" {
		created, err := auth.EnsureAdmin(ctx, st, cfg.AdminEmail, cfg.AdminPassword)
		if err != nil {
			log.Fatalf("Failed to bootstrap admin account: %v", err)
		}
		if created {
			log.Printf("Created admin account %s", cfg.AdminEmail)
		}
	}

	// 3. --- Services ---
	logger := log.New(os.Stderr, "approval: ", log.LstdFlags)
	app := &handlers.Handlers{
		Store:    st,
		Approval: approval.NewService(st, notify.NewWhatsApp(cfg.WhatsAppCountryCode), logger),
		Tokens:   auth.NewTokenManager(cfg.JWTSecret, cfg.JWTTTL),
		Metrics:  metrics.New(),
		Uploads:  handlers.UploadConfig{Dir: cfg.UploadDir, BaseURL: cfg.BaseURL},
	}

	// 4. --- Router & Server ---
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           routes.SetupRouter(app, cfg.FrontendURL),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Printf("Starting education center API on port %s (store: %s)...", cfg.Port, cfg.StoreDriver)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	// 5. --- Graceful Shutdown ---
	<-ctx.Done()
	log.Println("Shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("WARNING: forced shutdown: %v", err)
	}
}

// openStore builds the configured store. db is nil for the memory store.
func openStore(ctx context.Context, cfg *config.Config) (store.Store, *sql.DB, error) {
	if cfg.StoreDriver == config.DriverMemory {
		log.Println("WARNING: using the in-memory store, data is lost on restart")
		return memstore.New(), nil, nil
	}

	db, err := database.Open(ctx, cfg.DSN, database.Options{
		MaxOpenConns:    cfg.MaxOpenConns,
		MaxIdleConns:    cfg.MaxIdleConns,
		ConnMaxLifetime: cfg.ConnMaxLifetime,
	})
	if err != nil {
		return nil, nil, err
	}
	if cfg.MigrateOnStart {
		if err := database.Migrate(ctx, db); err != nil {
			db.Close()
			return nil, nil, err
		}
		log.Println("Database migrations applied")
	}
	return mysqlstore.New(db), db, nil
}
