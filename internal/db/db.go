package db

import (
	"errors"
	"fmt"
	"os"
	"regexp"
	"strings"
	"time"

	migrate "github.com/golang-migrate/migrate/v4"
	// The following blank imports register the postgres driver and file source for golang-migrate.
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/rs/zerolog/log"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/diewo77/sales-invoices/internal/models"
)

// ConnectAndMigrate opens the Postgres connection, brings the schema up to
// date and optionally seeds reference data. The returned handle is the only
// store object in the process; callers pass it down explicitly.
func ConnectAndMigrate(rawDSN string) (*gorm.DB, error) {
	dsn := NormalizeDSN(rawDSN)
	if dsn == "" {
		return nil, errors.New("DATABASE_DSN is empty, check the environment configuration")
	}
	logLevel := logger.Silent
	if os.Getenv("DB_DEBUG") == "1" {
		logLevel = logger.Info
	}
	cfg := &gorm.Config{
		Logger: logger.Default.LogMode(logLevel),
		// Translated errors let callers recognize foreign-key violations
		// across dialects via gorm.ErrForeignKeyViolated.
		TranslateError: true,
	}
	var conn *gorm.DB
	var err error
	for i := 0; i < 10; i++ {
		conn, err = gorm.Open(postgres.Open(dsn), cfg)
		if err == nil {
			break
		}
		log.Warn().Err(err).Msg("retrying DB connection")
		time.Sleep(2 * time.Second)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to connect database after retries: %w", err)
	}

	if pingErr := conn.Exec("SELECT 1").Error; pingErr != nil {
		return nil, fmt.Errorf("db ping failed: %w", pingErr)
	}
	log.Info().Str("dsn", maskDSN(dsn)).Msg("database connected")

	// MIGRATIONS=1 runs sql migrations via golang-migrate; otherwise keep the
	// AutoMigrate fallback (dev convenience).
	if v := strings.ToLower(os.Getenv("MIGRATIONS")); v == "1" || v == "true" || v == "yes" {
		if err := runSQLMigrations(dsn); err != nil {
			return nil, fmt.Errorf("sql migrations failed: %w", err)
		}
	} else {
		if err := AutoMigrate(conn); err != nil {
			return nil, err
		}
	}

	for _, table := range []string{"countries", "units", "customers", "products", "invoices", "invoice_line_items"} {
		if !conn.Migrator().HasTable(table) {
			return nil, errors.New("missing table after migration: " + table)
		}
	}
	if v := strings.ToLower(os.Getenv("DB_SEED")); v == "1" || v == "true" || v == "yes" {
		seed(conn)
	}
	return conn, nil
}

// AutoMigrate creates or updates the schema from the models. Also used by the
// test setup against in-memory SQLite.
func AutoMigrate(conn *gorm.DB) error {
	toMigrate := []interface{}{
		&models.Country{}, &models.Unit{}, &models.Customer{}, &models.Product{},
		&models.Invoice{}, &models.InvoiceLineItem{},
	}
	for _, m := range toMigrate {
		if err := conn.AutoMigrate(m); err != nil {
			return fmt.Errorf("automigrate %T: %w", m, err)
		}
	}
	return nil
}

// seed inserts the read-only reference rows invoicing depends on. Idempotent.
func seed(conn *gorm.DB) {
	baseCountries := []models.Country{
		{Code: "TH", Name: "Thailand"},
		{Code: "SG", Name: "Singapore"},
		{Code: "MY", Name: "Malaysia"},
		{Code: "US", Name: "United States"},
		{Code: "GB", Name: "United Kingdom"},
	}
	for _, c := range baseCountries {
		var existing models.Country
		if err := conn.Where("code = ?", c.Code).First(&existing).Error; errors.Is(err, gorm.ErrRecordNotFound) {
			conn.Create(&c)
		}
	}
	baseUnits := []models.Unit{
		{Code: "EA", Name: "Each"},
		{Code: "BOX", Name: "Box"},
		{Code: "KG", Name: "Kilogram"},
		{Code: "HR", Name: "Hour"},
	}
	for _, u := range baseUnits {
		var existing models.Unit
		if err := conn.Where("code = ?", u.Code).First(&existing).Error; errors.Is(err, gorm.ErrRecordNotFound) {
			conn.Create(&u)
		}
	}
}

// runSQLMigrations executes migrations in ./migrations using golang-migrate file source.
func runSQLMigrations(dsn string) error {
	m, err := migrate.New("file://migrations", ToURLDSN(dsn))
	if err != nil {
		return err
	}
	if err = m.Up(); err != nil && err != migrate.ErrNoChange {
		return err
	}
	return nil
}

var (
	kvPasswordRegex  = regexp.MustCompile(`(password=)(\S+)`)
	urlPasswordRegex = regexp.MustCompile(`(://[^:/@]+:)[^@]+@`)
)

func maskDSN(dsn string) string {
	masked := kvPasswordRegex.ReplaceAllString(dsn, `${1}***`)
	return urlPasswordRegex.ReplaceAllString(masked, `${1}***@`)
}
