package main

import (
	"context"
	"database/sql"
	"log"

	_ "github.com/go-sql-driver/mysql"
	"github.com/joho/godotenv"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/mysqldialect"

	"tickethub/internal/config"
	"tickethub/internal/models"
)

func main() {
	_ = godotenv.Load()

	ctx := context.Background()
	cfg := config.Load()

	if cfg.Database.DSN == "" {
		log.Fatal("MYSQL_DSN not set")
	}
	sqldb, err := sql.Open("mysql", cfg.Database.DSN)
	if err != nil {
		log.Fatalf("Failed to open MySQL: %v", err)
	}
	defer sqldb.Close()

	if err := sqldb.PingContext(ctx); err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	db := bun.NewDB(sqldb, mysqldialect.New())

	log.Println("Creating tables...")
	if err := createTables(ctx, db); err != nil {
		log.Fatalf("Migration failed: %v", err)
	}

	log.Println("✅ Done.")
}

func createTables(ctx context.Context, db *bun.DB) error {
	tables := []interface{}{
		(*models.User)(nil),
		(*models.Event)(nil),
		(*models.Ticket)(nil),
	}
	for _, table := range tables {
		if _, err := db.NewCreateTable().Model(table).IfNotExists().Exec(ctx); err != nil {
			return err
		}
	}
	return nil
}
