package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"novalnet-checkout/internal/config"
	"novalnet-checkout/internal/logger"

	_ "github.com/lib/pq"
	"go.uber.org/zap"
)

const pingTimeout = 5 * time.Second

func buildDSN(cfg *config.Config) string {
	return fmt.Sprintf(
		"host=%s user=%s password=%s dbname=%s port=%s sslmode=disable",
		cfg.DBHost, cfg.DBUser, cfg.DBPassword, cfg.DBName, cfg.DBPort,
	)
}

// NewDatabase opens the Postgres pool holding baskets and the transaction log.
func NewDatabase(cfg *config.Config) (*sql.DB, error) {
	return newDatabaseWithDriver(cfg, "postgres")
}

func newDatabaseWithDriver(cfg *config.Config, driverName string) (*sql.DB, error) {
	db, err := sql.Open(driverName, buildDSN(cfg))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to DB: %w", err)
	}

	db.SetMaxOpenConns(20)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(30 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping DB: %w", err)
	}

	logger.L().Info("database connection established",
		zap.String("host", cfg.DBHost),
		zap.String("db", cfg.DBName),
	)
	return db, nil
}
