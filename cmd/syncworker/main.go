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
	"github.com/segmentio/kafka-go"

	"example.com/fitbitsync/internal/config"
	"example.com/fitbitsync/internal/consumer"
	"example.com/fitbitsync/internal/fitbit"
	persistence "example.com/fitbitsync/internal/persistence/postgres"
	"example.com/fitbitsync/internal/publish"
	syncer "example.com/fitbitsync/internal/sync"
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

	metricsSrv := &http.Server{Addr: cfg.MetricsAddress, Handler: promhttp.Handler()}

	go func() {
		log.Printf("worker metrics listening on %s", cfg.MetricsAddress)
		if err := metricsSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Printf("metrics server error: %v", err)
		}
	}()

	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:         cfg.KafkaBrokers,
		GroupID:         cfg.ConsumerGroupID,
		Topic:           cfg.SyncRequestTopic,
		MinBytes:        1e3,
		MaxBytes:        10e6,
		CommitInterval:  time.Second,
		RetentionTime:   24 * time.Hour,
		ReadLagInterval: -1,
	})
	defer reader.Close()

	proc := consumer.NewProcessor(reader, orchestrator)

	done := make(chan struct{})
	go func() {
		defer close(done)
		log.Printf("sync worker started (topic=%s, group=%s)", cfg.SyncRequestTopic, cfg.ConsumerGroupID)
		if err := proc.Run(ctx); err != nil && err != context.Canceled {
			log.Printf("sync worker stopped with error: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop
	log.Println("worker shutdown requested")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := metricsSrv.Shutdown(shutdownCtx); err != nil {
		log.Printf("metrics server shutdown error: %v", err)
	}

	<-done
}
