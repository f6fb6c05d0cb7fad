package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"example.com/fitbitsync/internal/api"
	"example.com/fitbitsync/internal/auth"
	"example.com/fitbitsync/internal/config"
	"example.com/fitbitsync/internal/fitbit"
	persistence "example.com/fitbitsync/internal/persistence/postgres"
	"example.com/fitbitsync/internal/publish"
	syncer "example.com/fitbitsync/internal/sync"
	httptransport "example.com/fitbitsync/internal/transport/http"
)

func main() {
	cfg := config.Load()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pool, err := pgxpool.New(ctx, cfg.PostgresURL)
	if err != nil {
		log.Fatalf("failed to connect to postgres: %v", err)
	}
	defer pool.Close()

	producer := publish.NewKafkaProducer(cfg.KafkaBrokers)
	defer producer.Close()
	publisher := publish.NewPublisher(producer)

	client := fitbit.NewClient(fitbit.Config{
		APIBaseURL:   cfg.FitbitAPIBaseURL,
		TokenURL:     cfg.FitbitTokenURL,
		RevokeURL:    cfg.FitbitRevokeURL,
		ClientID:     cfg.FitbitClientID,
		ClientSecret: cfg.FitbitClientSecret,
		Timeout:      cfg.FitbitTimeout,
	})

	orchestrator := syncer.NewOrchestrator(
		persistence.NewCredentialStore(pool),
		client,
		persistence.NewResourceLedger(pool),
		publisher,
		syncer.WithBackfillConcurrency(cfg.BackfillConcurrency),
	)

	handler := api.NewHandler(orchestrator)
	mux := http.NewServeMux()
	handler.RegisterRoutes(mux)
	mux.Handle("/metrics", promhttp.Handler())

	// Basic request logger
	logger := func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			log.Printf("%s %s", r.Method, r.URL.Path)
			next.ServeHTTP(w, r)
		})
	}

	authMiddleware := auth.NewMiddleware(auth.Config{Secret: cfg.JWTSecret, Issuer: cfg.JWTIssuer})

	server := httptransport.NewServer(httptransport.ServerConfig{
		Address:      cfg.HTTPAddress,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}, authMiddleware.Wrap(logger(mux)))

	shutdownCh := make(chan os.Signal, 1)
	signal.Notify(shutdownCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		log.Printf("fitbit-sync api listening on %s", cfg.HTTPAddress)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	<-shutdownCh
	cancel()

	if err := httptransport.Shutdown(server, 15*time.Second); err != nil {
		log.Printf("graceful shutdown failed: %v", err)
	}
}
