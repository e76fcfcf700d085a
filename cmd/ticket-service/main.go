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

	_ "github.com/go-sql-driver/mysql"
	"github.com/joho/godotenv"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/mysqldialect"

	"tickethub/internal/auth"
	"tickethub/internal/config"
	"tickethub/internal/kafka"
	"tickethub/internal/logger"
	ticketdb "tickethub/internal/tickets/db"
	"tickethub/internal/tickets/eventclient"
	"tickethub/internal/tickets/qr"
	tickets "tickethub/internal/tickets/service"
	"tickethub/internal/tickets/ticket_api"
	"tickethub/internal/users"
	userdb "tickethub/internal/users/db"
	"tickethub/internal/users/user_api"
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

func main() {
	_ = godotenv.Load() // Loads .env file if present

	cfg := config.Load()
	if os.Getenv("PORT") == "" {
		cfg.Server.Port = ":8081"
	}
	appLog := logger.NewLogger("ticket-service")
	defer appLog.Close()

	if cfg.Auth.JWTSecret == "" {
		appLog.Fatal("AUTH", "JWT_SECRET not set")
	}

	bunDB := openDatabase(cfg, appLog)
	defer bunDB.Close()

	var producer *kafka.Producer
	var ticketPublisher tickets.KafkaPublisher
	if cfg.Kafka.Enabled {
		producer = kafka.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.Topics.TicketEvents)
		defer producer.Close()
		ticketPublisher = producer
		appLog.Info("KAFKA", "Producer connected to "+cfg.Kafka.Topics.TicketEvents)
	}

	var qrGen *qr.Generator
	if cfg.QR.Secret != "" {
		qrGen = qr.NewGenerator(cfg.QR.Secret)
	}

	events := eventclient.New(cfg.Peers.EventServiceURL, &http.Client{Timeout: cfg.Peers.CallTimeout}, appLog)

	ticketService := tickets.NewTicketService(&ticketdb.DB{Bun: bunDB}, events, ticketPublisher, qrGen, appLog)
	ticketHandler := ticket_api.NewHandler(ticketService, appLog)

	userService := users.NewUserService(&userdb.DB{Bun: bunDB}, cfg.Auth.JWTSecret, cfg.Auth.TokenTTL, appLog)
	userHandler := user_api.NewHandler(userService, appLog)

	r := chi.NewRouter()
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
		MaxAge:         300,
	}))

	r.Get("/health", ticketHandler.Health)

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/users", userHandler.Register)
		r.Post("/auth", userHandler.Login)

		r.Route("/tickets", func(r chi.Router) {
			// Peer-facing check endpoint stays open: the event service
			// calls it service-to-service without a user token.
			r.Get("/event/{eventID}/check", ticketHandler.CheckTicketsForEvent)

			r.Group(func(r chi.Router) {
				r.Use(auth.Middleware(cfg.Auth.JWTSecret))
				r.Post("/", ticketHandler.CreateTicket)
				r.Get("/my-tickets", ticketHandler.MyTickets)
				r.Get("/status/{status}", ticketHandler.TicketsByStatus)
				r.Get("/cpf/{cpf}", ticketHandler.TicketsByCPF)
				r.Get("/{ticketID}", ticketHandler.ViewTicket)
				r.Put("/{ticketID}/cancel", ticketHandler.CancelTicket)
			})
		})

		r.Group(func(r chi.Router) {
			r.Use(auth.Middleware(cfg.Auth.JWTSecret))
			r.Get("/users/cpf/{cpf}", userHandler.GetUserByCPF)
			r.Get("/users/{userID}", userHandler.GetUser)
			r.Put("/users/{userID}", userHandler.UpdateProfile)
		})
	})

	server := &http.Server{
		Addr:         cfg.Server.Port,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		appLog.Info("SERVER", "Ticket service on "+cfg.Server.Port)
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
	appLog.Info("SERVER", "Ticket service shutdown complete")
}
