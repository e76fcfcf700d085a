package main

import (
	"context"
	"database/sql"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/go-redis/redis/v8"

	_ "github.com/go-sql-driver/mysql"
	"github.com/joho/godotenv"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/mysqldialect"

	"tickethub/internal/config"
	eventdb "tickethub/internal/events/db"
	"tickethub/internal/events/event_api"
	events "tickethub/internal/events/service"
	"tickethub/internal/events/ticketclient"
	"tickethub/internal/events/viacep"
	"tickethub/internal/kafka"
	"tickethub/internal/logger"
)

func openDatabase(cfg *config.Config, appLog *logger.Logger) *bun.DB {
	if cfg.Database.DSN == "" {
		appLog.Fatal("DATABASE", "MYSQL_DSN not set")
	}
	sqldb, err := sql.Open("mysql", cfg.Database.DSN)
	if err != nil {
		appLog.Fatal("DATABASE", "Failed to open MySQL: "+err.Error())
	}
	sqldb.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	sqldb.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	sqldb.SetConnMaxLifetime(cfg.Database.MaxLifetime)

	if err := sqldb.Ping(); err != nil {
		appLog.Fatal("DATABASE", "Failed to connect to MySQL: "+err.Error())
	}
	appLog.Info("DATABASE", "MySQL connection successful")

	return bun.NewDB(sqldb, mysqldialect.New())
}

func openRedis(cfg *config.Config, appLog *logger.Logger) *redis.Client {
	client := redis.NewClient(&redis.Options{Addr: cfg.Redis.Addr})

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		// CEP lookups still work without the cache, just slower.
		appLog.Warn("REDIS", "Redis unavailable, CEP cache disabled: "+err.Error())
		_ = client.Close()
		return nil
	}
	appLog.Info("REDIS", "Redis connection successful")

	return client
}

func main() {
	_ = godotenv.Load() // Loads .env file if present

	cfg := config.Load()

	appLog := logger.NewLogger("event-service")
	defer appLog.Close()

	bunDB := openDatabase(cfg, appLog)
	defer bunDB.Close()

	var cepCache viacep.Cache
	if redisClient := openRedis(cfg, appLog); redisClient != nil {
		defer redisClient.Close()
		cepCache = &viacep.RedisCache{Client: redisClient}
	}

	var producer *kafka.Producer
	var eventPublisher events.KafkaPublisher
	if cfg.Kafka.Enabled {
		producer = kafka.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.Topics.EventEvents)
		defer producer.Close()
		eventPublisher = producer
		appLog.Info("KAFKA", "Producer connected to "+cfg.Kafka.Topics.EventEvents)
	}

	tickets := ticketclient.New(cfg.Peers.TicketServiceURL, &http.Client{Timeout: cfg.Peers.CallTimeout}, appLog)
	cep := viacep.NewClient(cfg.ViaCep.BaseURL, cfg.Peers.CallTimeout, cepCache, cfg.ViaCep.CacheTTL, appLog)

	eventService := events.NewEventService(&eventdb.DB{Bun: bunDB}, tickets, eventPublisher, appLog)
	handler := event_api.NewHandler(eventService, cep, appLog)

	r := chi.NewRouter()
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
		MaxAge:         300,
	}))

	r.Get("/health", handler.Health)

	r.Route("/api/v1/events", func(r chi.Router) {
		r.Post("/", handler.CreateEvent)
		r.Get("/", handler.ListEvents)
		r.Get("/search", handler.SearchEvents)
		r.Get("/{eventID}", handler.GetEvent)
		r.Put("/{eventID}", handler.UpdateEvent)
		r.Patch("/{eventID}/cancel", handler.CancelEvent)
		r.Patch("/{eventID}/reactivate", handler.ReactivateEvent)
	})

	server := &http.Server{
		Addr:         cfg.Server.Port,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		appLog.Info("SERVER", "Event service on "+cfg.Server.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			appLog.Fatal("SERVER", "HTTP error: "+err.Error())
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	ctxShutdown, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = server.Shutdown(ctxShutdown)
	appLog.Info("SERVER", "Event service shutdown complete")
}
