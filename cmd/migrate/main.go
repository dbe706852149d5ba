package main

import (
	"database/sql"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"novalnet-checkout/internal/logger"

	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"go.uber.org/zap"
)

func main() {
	_ = godotenv.Load()
	logger.Init(os.Getenv("APP_ENV"))
	defer logger.Sync()

	mode := flag.String("mode", "up", "migration mode: up or down")
	dir := flag.String("dir", "./migrations", "directory holding the migration files")
	flag.Parse()

	dbURL := databaseURL()
	if dbURL == "" {
		logger.L().Fatal("DB_URL not set and DB_HOST is empty")
	}

	db, err := sql.Open("postgres", dbURL)
	if err != nil {
		logger.L().Fatal("failed to connect db", zap.Error(err))
	}
	defer db.Close()

	if err := run(db, *mode, *dir); err != nil {
		logger.L().Fatal("migration failed", zap.String("mode", *mode), zap.Error(err))
	}
}

// databaseURL prefers DB_URL and otherwise assembles a DSN from the DB_*
// variables the server uses.
func databaseURL() string {
	if u := os.Getenv("DB_URL"); u != "" {
		return u
	}
	if os.Getenv("DB_HOST") == "" {
		return ""
	}
	return fmt.Sprintf(
		"host=%s user=%s password=%s dbname=%s port=%s sslmode=disable",
		os.Getenv("DB_HOST"), os.Getenv("DB_USER"), os.Getenv("DB_PASSWORD"),
		os.Getenv("DB_NAME"), os.Getenv("DB_PORT"),
	)
}

func run(db *sql.DB, mode, migrationsDir string) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version TEXT PRIMARY KEY,
			applied_at TIMESTAMP NOT NULL DEFAULT NOW()
		);
	`)
	if err != nil {
		return fmt.Errorf("failed to ensure schema_migrations table: %w", err)
	}

	files, err := filepath.Glob(filepath.Join(migrationsDir, "*.sql"))
	if err != nil {
		return fmt.Errorf("failed to read migrations: %w", err)
	}
	sort.Strings(files)

	switch mode {
	case "up":
		return runMigrationsUp(db, files)
	case "down":
		return runMigrationsDown(db, files)
	default:
		return fmt.Errorf("unknown mode: %s (use 'up' or 'down')", mode)
	}
}

func runMigrationsUp(db *sql.DB, files []string) error {
	log := logger.L()

	applied := 0
	for _, file := range files {
		version := filepath.Base(file)

		var exists bool
		err := db.QueryRow(`SELECT EXISTS(SELECT 1 FROM schema_migrations WHERE version = $1)`, version).Scan(&exists)
		if err != nil {
			return fmt.Errorf("failed to check migration status: %w", err)
		}
		if exists {
			log.Debug("skipping applied migration", zap.String("version", version))
			continue
		}

		content, err := os.ReadFile(file)
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", file, err)
		}

		log.Info("applying migration", zap.String("version", version))
		if _, err := db.Exec(extractMigrationPart(string(content), "Up")); err != nil {
			return fmt.Errorf("migration %s failed: %w", version, err)
		}

		if _, err := db.Exec(`INSERT INTO schema_migrations (version) VALUES ($1)`, version); err != nil {
			return fmt.Errorf("failed to record migration version: %w", err)
		}
		applied++
	}

	log.Info("migrations up to date", zap.Int("applied", applied))
	return nil
}

func runMigrationsDown(db *sql.DB, files []string) error {
	log := logger.L()

	var lastVersion string
	err := db.QueryRow(`SELECT version FROM schema_migrations ORDER BY applied_at DESC LIMIT 1`).Scan(&lastVersion)
	if err == sql.ErrNoRows {
		log.Warn("no migrations to roll back")
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to get last applied migration: %w", err)
	}

	filePath := ""
	for _, f := range files {
		if filepath.Base(f) == lastVersion {
			filePath = f
			break
		}
	}
	if filePath == "" {
		return fmt.Errorf("migration file not found for version: %s", lastVersion)
	}

	content, err := os.ReadFile(filePath)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", filePath, err)
	}

	log.Info("rolling back migration", zap.String("version", lastVersion))
	if _, err := db.Exec(extractMigrationPart(string(content), "Down")); err != nil {
		return fmt.Errorf("rollback of %s failed: %w", lastVersion, err)
	}

	if _, err := db.Exec(`DELETE FROM schema_migrations WHERE version = $1`, lastVersion); err != nil {
		return fmt.Errorf("failed to remove migration record: %w", err)
	}
	return nil
}

// extractMigrationPart returns the statements between "-- +migrate <section>"
// and the next marker.
func extractMigrationPart(content string, section string) string {
	var part strings.Builder
	var inPart bool

	for _, line := range strings.Split(content, "\n") {
		if strings.Contains(line, "-- +migrate "+section) {
			inPart = true
			continue
		}
		if inPart && strings.HasPrefix(line, "-- +migrate") {
			break
		}
		if inPart {
			part.WriteString(line + "\n")
		}
	}
	return part.String()
}
