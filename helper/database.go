package helper

import (
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
)

// DatabaseConfiguration holds the connection parameters for Postgres.
// All values come from the environment (optionally via a .env file).
type DatabaseConfiguration struct {
	Host     string
	Port     string
	Database string
	Username string
	Password string
	Schema   string
	SSLMode  string
}

// NewDatabaseConfiguration loads the database configuration from environment
// variables. A missing required value is a configuration error and is returned
// to the caller instead of being silently defaulted.
func NewDatabaseConfiguration() (*DatabaseConfiguration, error) {
	// Ignore error, .env file is optional
	_ = godotenv.Load()

	config := &DatabaseConfiguration{
		Host:     os.Getenv("DB_HOST"),
		Port:     os.Getenv("DB_PORT"),
		Database: os.Getenv("DB_DATABASE"),
		Username: os.Getenv("DB_USERNAME"),
		Password: os.Getenv("DB_PASSWORD"),
		Schema:   os.Getenv("DB_SCHEMA"),
		SSLMode:  os.Getenv("DB_SSLMODE"),
	}

	if config.Schema == "" {
		config.Schema = "public"
	}
	if config.SSLMode == "" {
		config.SSLMode = "disable"
	}

	missing := []string{}
	if config.Host == "" {
		missing = append(missing, "DB_HOST")
	}
	if config.Port == "" {
		missing = append(missing, "DB_PORT")
	}
	if config.Database == "" {
		missing = append(missing, "DB_DATABASE")
	}
	if config.Username == "" {
		missing = append(missing, "DB_USERNAME")
	}
	if config.Password == "" {
		missing = append(missing, "DB_PASSWORD")
	}
	if len(missing) > 0 {
		return nil, NewError("load database configuration", fmt.Errorf("missing required environment variables: %v", missing))
	}

	return config, nil
}

// Database wraps a sql.DB connection with a name and logger
type Database struct {
	Name     string
	Instance *sql.DB
	Logger   *slog.Logger
}

// NewDatabase opens a connection to Postgres and pings it.
// It panics on connection failure because nothing can run without the store.
func NewDatabase(name string, config *DatabaseConfiguration, logger *slog.Logger) *Database {
	connStr := fmt.Sprintf(
		"host=%s port=%s dbname=%s user=%s password=%s search_path=%s sslmode=%s",
		config.Host,
		config.Port,
		config.Database,
		config.Username,
		config.Password,
		config.Schema,
		config.SSLMode,
	)

	db, err := sql.Open("postgres", connStr)
	if err != nil {
		logger.Error("Failed to open database connection", slog.String("error", err.Error()))
		panic(err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		logger.Error("Failed to ping database", slog.String("error", err.Error()))
		panic(err)
	}

	logger.Info("Connected to database", slog.String("name", name), slog.String("host", config.Host))

	return &Database{
		Name:     name,
		Instance: db,
		Logger:   logger,
	}
}

// NewTestDatabase opens a database connection for tests with a quiet logger
func NewTestDatabase(config *DatabaseConfiguration) *Database {
	logger := slog.New(NewPrettyHandler(os.Stdout, PrettyHandlerOptions{
		SlogOpts: slog.HandlerOptions{
			Level: slog.LevelWarn,
		},
	}))
	return NewDatabase("test", config, logger)
}
