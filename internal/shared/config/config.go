package config

import (
	"fmt"
	"strconv"
	"time"

	"galaxy-forge/internal/shared/utils"

	"github.com/joho/godotenv"
)

type Config struct {
	Server     ServerConfig
	Database   DatabaseConfig
	Redis      RedisConfig
	Frontend   FrontendConfig
	Logging    LoggingConfig
	RateLimit  RateLimitConfig
	Admin      AdminConfig
	Telemetry  TelemetryConfig
	Generation GenerationConfig
}

type ServerConfig struct {
	Port            string
	Environment     string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration
}

type DatabaseConfig struct {
	Enabled         bool
	Host            string
	Port            string
	User            string
	Password        string
	Name            string
	SSLMode         string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	MigrationsPath  string
	ConnectAttempts uint
}

type RedisConfig struct {
	Enabled    bool
	URL        string
	Host       string
	Port       string
	Password   string
	DB              int
	SummaryTTL      time.Duration
	ConnectAttempts uint
}

type FrontendConfig struct {
	URL       string
	CORSDebug bool
}

type LoggingConfig struct {
	Level      string
	JSONFormat bool
}

type RateLimitConfig struct {
	Enabled           bool
	RequestsPerSecond float64
	BurstSize         int
	TrustProxy        bool
	// WriteCost is how many tokens one POST consumes.
	WriteCost int
}

type AdminConfig struct {
	Enabled   bool
	JWTSecret string
}

type TelemetryConfig struct {
	Enabled     bool
	Endpoint    string
	ServiceName string
}

// GenerationConfig holds the defaults applied to generation requests that
// leave a field unset.
type GenerationConfig struct {
	Width                  float64
	Height                 float64
	Seed                   uint64
	Distribution           string
	Engine                 string
	StarCount              int
	GridSize               int
	AdjacencyThreshold     float64
	HiddenGatePercentage   float64
	MaxGatesPerSystem      int
	MinGatesForHub         int
	HubSpawnProbability    float64
	MinHubDistance         float64
	SalvageYardProbability float64
	PiratePercentage       float64
	PirateBandMin          int
	PirateBandMax          int
	MinStarDistance        float64
	PoissonAttempts        int
	GateChunkSize          int
	DormantGatePercentage  float64
	InhabitedPercentage    float64
	InhabitedMinSpacing    float64
	CatalogPath            string
}

var GlobalConfig *Config

func Init() error {
	if err := godotenv.Load(); err != nil {
		fmt.Println("No .env file found, using system environment variables")
	}

	config, err := load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	if err := config.validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	GlobalConfig = config
	return nil
}

func load() (*Config, error) {
	config := &Config{
		Server:     loadServerConfig(),
		Database:   loadDatabaseConfig(),
		Redis:      loadRedisConfig(),
		Frontend:   loadFrontendConfig(),
		Logging:    loadLoggingConfig(),
		RateLimit:  loadRateLimitConfig(),
		Admin:      loadAdminConfig(),
		Telemetry:  loadTelemetryConfig(),
		Generation: loadGenerationConfig(),
	}

	return config, nil
}

func loadServerConfig() ServerConfig {
	readTimeout, _ := strconv.Atoi(utils.GetEnv("SERVER_READ_TIMEOUT_SECONDS", "15"))
	writeTimeout, _ := strconv.Atoi(utils.GetEnv("SERVER_WRITE_TIMEOUT_SECONDS", "120"))
	idleTimeout, _ := strconv.Atoi(utils.GetEnv("SERVER_IDLE_TIMEOUT_SECONDS", "60"))
	shutdownTimeout, _ := strconv.Atoi(utils.GetEnv("SERVER_SHUTDOWN_TIMEOUT_SECONDS", "10"))

	return ServerConfig{
		Port:            utils.GetEnv("SERVER_PORT", "8080"),
		Environment:     utils.GetEnv("ENVIRONMENT", "development"),
		ReadTimeout:     time.Duration(readTimeout) * time.Second,
		WriteTimeout:    time.Duration(writeTimeout) * time.Second,
		IdleTimeout:     time.Duration(idleTimeout) * time.Second,
		ShutdownTimeout: time.Duration(shutdownTimeout) * time.Second,
	}
}

func loadDatabaseConfig() DatabaseConfig {
	maxOpenConns, _ := strconv.Atoi(utils.GetEnv("DB_MAX_OPEN_CONNS", "25"))
	maxIdleConns, _ := strconv.Atoi(utils.GetEnv("DB_MAX_IDLE_CONNS", "5"))
	connMaxLifetime, _ := strconv.Atoi(utils.GetEnv("DB_CONN_MAX_LIFETIME_MINUTES", "5"))

	return DatabaseConfig{
		Enabled:         utils.GetEnv("DB_ENABLED", "true") == "true",
		Host:            utils.GetEnv("DB_HOST", "localhost"),
		Port:            utils.GetEnv("DB_PORT", "5432"),
		User:            utils.GetEnv("DB_USER", "postgres"),
		Password:        utils.GetEnv("DB_PASSWORD", "postgres"),
		Name:            utils.GetEnv("DB_NAME", "galaxy"),
		SSLMode:         utils.GetEnv("DB_SSLMODE", "disable"),
		MaxOpenConns:    maxOpenConns,
		MaxIdleConns:    maxIdleConns,
		ConnMaxLifetime: time.Duration(connMaxLifetime) * time.Minute,
		MigrationsPath:  utils.GetEnv("DB_MIGRATIONS_PATH", ""),
		ConnectAttempts: uint(max(1, utils.GetEnvInt("DB_CONNECT_ATTEMPTS", 5))),
	}
}

func loadRedisConfig() RedisConfig {
	db, _ := strconv.Atoi(utils.GetEnv("REDIS_DB", "0"))
	summaryTTL, _ := strconv.Atoi(utils.GetEnv("REDIS_SUMMARY_TTL_SECONDS", "300"))

	return RedisConfig{
		Enabled:         utils.GetEnv("REDIS_ENABLED", "false") == "true",
		URL:             utils.GetEnv("REDIS_URL", ""),
		Host:            utils.GetEnv("REDIS_HOST", "localhost"),
		Port:            utils.GetEnv("REDIS_PORT", "6379"),
		Password:        utils.GetEnv("REDIS_PASSWORD", ""),
		DB:              db,
		SummaryTTL:      time.Duration(summaryTTL) * time.Second,
		ConnectAttempts: uint(max(1, utils.GetEnvInt("REDIS_CONNECT_ATTEMPTS", 3))),
	}
}

func loadFrontendConfig() FrontendConfig {
	return FrontendConfig{
		URL:       utils.GetEnv("FRONTEND_URL", "http://localhost:3000"),
		CORSDebug: utils.GetEnv("CORS_DEBUG", "") == "true",
	}
}

func loadLoggingConfig() LoggingConfig {
	environment := utils.GetEnv("ENVIRONMENT", "development")

	return LoggingConfig{
		Level:      utils.GetEnv("LOG_LEVEL", "debug"),
		JSONFormat: environment == "production" || utils.GetEnv("LOG_FORMAT", "text") == "json",
	}
}

func loadRateLimitConfig() RateLimitConfig {
	requestsPerSecond, _ := strconv.ParseFloat(utils.GetEnv("RATE_LIMIT_REQUESTS_PER_SECOND", "10"), 64)
	burstSize, _ := strconv.Atoi(utils.GetEnv("RATE_LIMIT_BURST_SIZE", "20"))
	writeCost, err := strconv.Atoi(utils.GetEnv("RATE_LIMIT_WRITE_COST", "5"))
	if err != nil || writeCost < 1 {
		writeCost = 5
	}

	return RateLimitConfig{
		Enabled:           utils.GetEnv("RATE_LIMIT_ENABLED", "true") == "true",
		RequestsPerSecond: requestsPerSecond,
		BurstSize:         burstSize,
		TrustProxy:        utils.GetEnv("RATE_LIMIT_TRUST_PROXY", "false") == "true",
		WriteCost:         writeCost,
	}
}

func loadAdminConfig() AdminConfig {
	return AdminConfig{
		Enabled:   utils.GetEnv("ADMIN_AUTH_ENABLED", "true") == "true",
		JWTSecret: utils.GetEnv("ADMIN_JWT_SECRET", ""),
	}
}

func loadTelemetryConfig() TelemetryConfig {
	return TelemetryConfig{
		Enabled:     utils.GetEnv("OTEL_ENABLED", "false") == "true",
		Endpoint:    utils.GetEnv("OTEL_ENDPOINT", ""),
		ServiceName: utils.GetEnv("OTEL_SERVICE_NAME", "galaxy-forge"),
	}
}

func loadGenerationConfig() GenerationConfig {
	return GenerationConfig{
		Width:                  utils.GetEnvFloat("GALAXY_WIDTH", 1000),
		Height:                 utils.GetEnvFloat("GALAXY_HEIGHT", 1000),
		Seed:                   utils.GetEnvUint64("GALAXY_SEED", 42),
		Distribution:           utils.GetEnv("GALAXY_DISTRIBUTION", "scatter"),
		Engine:                 utils.GetEnv("GALAXY_ENGINE", "mt19937"),
		StarCount:              utils.GetEnvInt("GALAXY_STAR_COUNT", 500),
		GridSize:               utils.GetEnvInt("GALAXY_GRID_SIZE", 10),
		AdjacencyThreshold:     utils.GetEnvFloat("GALAXY_ADJACENCY_THRESHOLD", 1.5),
		HiddenGatePercentage:   utils.GetEnvFloat("GALAXY_HIDDEN_GATE_PERCENTAGE", 0.02),
		MaxGatesPerSystem:      utils.GetEnvInt("GALAXY_MAX_GATES_PER_SYSTEM", 6),
		MinGatesForHub:         utils.GetEnvInt("GALAXY_MIN_GATES_FOR_HUB", 3),
		HubSpawnProbability:    utils.GetEnvFloat("GALAXY_HUB_SPAWN_PROBABILITY", 0.3),
		MinHubDistance:         utils.GetEnvFloat("GALAXY_MIN_HUB_DISTANCE", 100),
		SalvageYardProbability: utils.GetEnvFloat("GALAXY_SALVAGE_YARD_PROBABILITY", 0.2),
		PiratePercentage:       utils.GetEnvFloat("GALAXY_PIRATE_PERCENTAGE", 0.1),
		PirateBandMin:          utils.GetEnvInt("GALAXY_PIRATE_BAND_MIN", 1),
		PirateBandMax:          utils.GetEnvInt("GALAXY_PIRATE_BAND_MAX", 3),
		MinStarDistance:        utils.GetEnvFloat("GALAXY_MIN_STAR_DISTANCE", 0),
		PoissonAttempts:        utils.GetEnvInt("GALAXY_POISSON_ATTEMPTS", 30),
		GateChunkSize:          utils.GetEnvInt("GALAXY_GATE_CHUNK_SIZE", 50),
		DormantGatePercentage:  utils.GetEnvFloat("GALAXY_DORMANT_GATE_PERCENTAGE", 0),
		InhabitedPercentage:    utils.GetEnvFloat("GALAXY_INHABITED_PERCENTAGE", 0.1),
		InhabitedMinSpacing:    utils.GetEnvFloat("GALAXY_INHABITED_MIN_SPACING", 50),
		CatalogPath:            utils.GetEnv("GALAXY_CATALOG_PATH", ""),
	}
}

func (c *Config) validate() error {
	if c.Server.Port == "" {
		return fmt.Errorf("SERVER_PORT is required")
	}

	if c.Database.Enabled {
		if c.Database.Host == "" {
			return fmt.Errorf("DB_HOST is required")
		}
		if c.Database.Name == "" {
			return fmt.Errorf("DB_NAME is required")
		}
	}

	if c.Admin.Enabled {
		if c.Admin.JWTSecret == "" {
			return fmt.Errorf("ADMIN_JWT_SECRET is required when admin auth is enabled")
		}
		if len(c.Admin.JWTSecret) < 32 {
			return fmt.Errorf("ADMIN_JWT_SECRET must be at least 32 characters long")
		}
	}

	if c.Telemetry.Enabled && c.Telemetry.Endpoint == "" {
		return fmt.Errorf("OTEL_ENDPOINT is required when telemetry is enabled")
	}

	return nil
}

// DSN is the lib/pq keyword connection string.
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.Name, d.SSLMode)
}
