// Package config reads the settings of the API server and the web front-end from the
// environment. A .env file in the working directory is loaded first if present.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

// Storage backends selectable with DATABASE.
const (
	DriverMySQL  = "mysql"
	DriverMongo  = "mongo"
	DriverMemory = "memory"
)

// Config aggregates the settings of both binaries.
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Web      WebConfig
}

// ServerConfig describes the HTTP listener and logging.
type ServerConfig struct {
	Addr       string
	GinLogging bool
	LogLevel   logrus.Level
	Production bool
}

// DatabaseConfig selects and parameterizes the contact store.
type DatabaseConfig struct {
	Driver   string
	User     string
	Password string
	Host     string
	Name     string
	MongoURI string
	MongoDB  string
}

// WebConfig holds what the front-end needs to reach the API and sign sessions.
type WebConfig struct {
	APIURL       string
	AuthSecret   string
	SecureCookie bool
}

// Load reads the configuration from the environment.
func Load() (*Config, error) {
	// A missing .env file is the normal case in production.
	_ = godotenv.Load()

	server, err := loadServerConfig()
	if err != nil {
		return nil, err
	}
	database, err := loadDatabaseConfig()
	if err != nil {
		return nil, err
	}
	return &Config{
		Server:   server,
		Database: database,
		Web: WebConfig{
			APIURL:       strings.TrimRight(strings.TrimSpace(os.Getenv("API_URL")), "/"),
			AuthSecret:   os.Getenv("AUTH_SECRET"),
			SecureCookie: server.Production,
		},
	}, nil
}

func loadServerConfig() (ServerConfig, error) {
	port := getEnvOrDefault("PORT", "8000")
	if n, err := strconv.Atoi(port); err != nil || n < 1 || n > 65535 {
		return ServerConfig{}, fmt.Errorf("invalid PORT value: %q", port)
	}
	level, err := logrus.ParseLevel(getEnvOrDefault("LOG_LEVEL", "info"))
	if err != nil {
		return ServerConfig{}, fmt.Errorf("invalid LOG_LEVEL value: %w", err)
	}
	return ServerConfig{
		Addr:       ":" + port,
		GinLogging: !strings.EqualFold(os.Getenv("GIN_LOGGING"), "off"),
		LogLevel:   level,
		Production: strings.EqualFold(os.Getenv("APP_ENV"), "production"),
	}, nil
}

func loadDatabaseConfig() (DatabaseConfig, error) {
	driver := strings.ToLower(getEnvOrDefault("DATABASE", DriverMySQL))
	switch driver {
	case DriverMySQL, DriverMongo, DriverMemory:
	default:
		return DatabaseConfig{}, fmt.Errorf("invalid DATABASE value: %q", driver)
	}
	cfg := DatabaseConfig{
		Driver:   driver,
		User:     os.Getenv("DBUSER"),
		Password: os.Getenv("DBPWD"),
		Host:     getEnvOrDefault("DBHOST", "localhost:3306"),
		Name:     getEnvOrDefault("DBNAME", "contacts"),
		MongoURI: getEnvOrDefault("MONGO_URI", "mongodb://localhost:27017"),
		MongoDB:  getEnvOrDefault("DB_NAME", "contacts"),
	}
	return cfg, nil
}

// Validate checks the settings that only the front-end requires.
func (c WebConfig) Validate() error {
	var errs []error
	if c.APIURL == "" {
		errs = append(errs, errors.New("API_URL is required"))
	} else if u, err := url.Parse(c.APIURL); err != nil || u.Scheme == "" || u.Host == "" {
		errs = append(errs, fmt.Errorf("invalid API_URL value: %q", c.APIURL))
	}
	if c.AuthSecret == "" {
		errs = append(errs, errors.New("AUTH_SECRET is required"))
	}
	return errors.Join(errs...)
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}
