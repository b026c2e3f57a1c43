package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"golang.org/x/time/rate"

	"github.com/BruksfildServices01/barber-manager/internal/analytics"
	"github.com/BruksfildServices01/barber-manager/internal/assistant"
	"github.com/BruksfildServices01/barber-manager/internal/audit"
	"github.com/BruksfildServices01/barber-manager/internal/cache"
	"github.com/BruksfildServices01/barber-manager/internal/config"
	dbpkg "github.com/BruksfildServices01/barber-manager/internal/db"
	"github.com/BruksfildServices01/barber-manager/internal/media"
	"github.com/BruksfildServices01/barber-manager/internal/middleware"
	"github.com/BruksfildServices01/barber-manager/internal/notify"
	"github.com/BruksfildServices01/barber-manager/internal/payments"
	"github.com/BruksfildServices01/barber-manager/internal/routes"
	"github.com/BruksfildServices01/barber-manager/internal/whatsapp"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Printf("[config] .env not loaded: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg := config.Load()
	db := dbpkg.NewDB(cfg)

	// ======================================================
	// INTEGRATIONS
	// ======================================================
	var gridCache cache.Cache = cache.NewMemory()
	if cfg.RedisURL != "" {
		rc, err := cache.NewRedis(cfg.RedisURL)
		if err != nil {
			log.Printf("[cache] redis unavailable, using memory: %v", err)
		} else {
			defer rc.Close()
			gridCache = rc
		}
	}

	auditDispatcher := audit.NewDispatcher(audit.New(db))

	var advisor analytics.Advisor
	if cfg.GeminiAPIKey != "" {
		g, err := analytics.NewGeminiAdvisor(ctx, cfg.GeminiAPIKey, cfg.GeminiModel)
		if err != nil {
			log.Printf("[analytics] gemini disabled: %v", err)
		} else {
			advisor = g
		}
	}

	// 5 req/s por IP, rajada de 20
	limiter := middleware.NewIPRateLimiter(rate.Limit(5), 20)
	go limiter.RunCleanup(time.Minute, ctx.Done())

	// ======================================================
	// HTTP
	// ======================================================
	r := gin.Default()

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	routes.RegisterRoutes(r, routes.Deps{
		DB:        db,
		Config:    cfg,
		Audit:     auditDispatcher,
		Cache:     gridCache,
		Payments:  payments.New(cfg.MercadoPagoAccessToken),
		Uploader:  media.NewUploader(media.NewStorage(cfg)),
		Notifier:  notify.New(ctx, cfg.FirebaseCredentialsFile),
		WhatsApp:  whatsapp.New(cfg.EvolutionAPIURL, cfg.EvolutionAPIKey),
		Assistant: assistant.New(ctx, cfg.GeminiAPIKey, cfg.GeminiModel),
		Advisor:   advisor,
		Limiter:   limiter,
	})

	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Printf("Server running on %s", cfg.Addr())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("failed to start server: %v", err)
		}
	}()

	<-ctx.Done()
	log.Println("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("shutdown: %v", err)
	}

	// só depois que nenhuma requisição pode mais auditar
	auditDispatcher.Close()
}
