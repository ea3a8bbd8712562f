package config

import (
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"

	"advisor/pkg/errors"
)

type Config struct {
	App        AppConfig
	AI         AIConfig
	RAG        RAGConfig
	Postgres   PostgresConfig
	Redis      RedisConfig
	MarketData MarketDataConfig
	Workflow   WorkflowConfig
}

type AppConfig struct {
	Name      string `envconfig:"APP_NAME" default:"advisor"`
	Env       string `envconfig:"APP_ENV" default:"development"`
	LogLevel  string `envconfig:"LOG_LEVEL" default:"info"`
	OutputDir string `envconfig:"OUTPUT_DIR" default:"./output"`
}

type AIConfig struct {
	APIKey      string        `envconfig:"OPENAI_API_KEY"`
	BaseURL     string        `envconfig:"OPENAI_BASE_URL" default:"https://api.openai.com/v1"`
	Model       string        `envconfig:"OPENAI_MODEL" default:"gpt-4o-mini"`
	Temperature float64       `envconfig:"OPENAI_TEMPERATURE" default:"0"`
	Timeout     time.Duration `envconfig:"OPENAI_TIMEOUT" default:"60s"`
	RateLimit   float64       `envconfig:"OPENAI_RATE_LIMIT_RPM" default:"500"`
}

type RAGConfig struct {
	EmbeddingModel     string `envconfig:"EMBEDDING_MODEL" default:"text-embedding-3-small"`
	StockKnowledgeDir  string `envconfig:"STOCK_KNOWLEDGE_DIR" default:"./rag/knowledge/stock"`
	CompanyKnowledgeDir string `envconfig:"COMPANY_KNOWLEDGE_DIR" default:"./rag/knowledge/company"`
	StockDBDir         string `envconfig:"STOCK_DB_DIR" default:"./rag/db/stock"`
	CompanyDBDir       string `envconfig:"COMPANY_DB_DIR" default:"./rag/db/company"`
	ChunkSize          int    `envconfig:"RAG_CHUNK_SIZE" default:"500"`
	ChunkOverlap       int    `envconfig:"RAG_CHUNK_OVERLAP" default:"50"`
	TopK               int    `envconfig:"RAG_TOP_K" default:"3"`
}

type PostgresConfig struct {
	Host     string `envconfig:"POSTGRES_HOST"`
	Port     int    `envconfig:"POSTGRES_PORT" default:"5432"`
	User     string `envconfig:"POSTGRES_USER"`
	Password string `envconfig:"POSTGRES_PASSWORD"`
	Database string `envconfig:"POSTGRES_DB"`
	SSLMode  string `envconfig:"POSTGRES_SSL_MODE" default:"disable"`
	MaxConns int    `envconfig:"POSTGRES_MAX_CONNS" default:"25"`
}

// Enabled reports whether a Postgres-backed vector store is configured.
// When false the retrieval layer falls back to the local SQLite store.
func (c PostgresConfig) Enabled() bool {
	return c.Host != "" && c.Database != ""
}

func (c PostgresConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, c.SSLMode,
	)
}

type RedisConfig struct {
	Host     string `envconfig:"REDIS_HOST"`
	Port     int    `envconfig:"REDIS_PORT" default:"6379"`
	Password string `envconfig:"REDIS_PASSWORD"`
	DB       int    `envconfig:"REDIS_DB" default:"0"`
}

// Enabled reports whether a Redis cache is configured.
func (c RedisConfig) Enabled() bool {
	return c.Host != ""
}

func (c RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

type MarketDataConfig struct {
	BaseURL      string        `envconfig:"MARKET_DATA_BASE_URL"`
	RateLimit    float64       `envconfig:"MARKET_DATA_RATE_LIMIT_RPS" default:"5"`
	Timeout      time.Duration `envconfig:"MARKET_DATA_TIMEOUT" default:"30s"`
	CacheTTL     time.Duration `envconfig:"MARKET_DATA_CACHE_TTL" default:"5m"`
	KLineYears   int           `envconfig:"MARKET_DATA_KLINE_YEARS" default:"3"`
	NewsCount    int           `envconfig:"MARKET_DATA_NEWS_COUNT" default:"10"`
}

type WorkflowConfig struct {
	MaxIterations       int           `envconfig:"WORKFLOW_MAX_ITERATIONS" default:"25"`
	MaxIterationsNoTool int           `envconfig:"WORKFLOW_MAX_ITERATIONS_NO_TOOL" default:"10"`
	StageTimeout        time.Duration `envconfig:"WORKFLOW_STAGE_TIMEOUT" default:"5m"`
}

// Load reads configuration from .env file (if present) and environment variables
func Load() (*Config, error) {
	// .env is optional; environment takes precedence
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, errors.Wrap(err, "process environment config")
	}

	return &cfg, nil
}

// Validate checks that required configuration is present
func (c *Config) Validate() error {
	if c.AI.APIKey == "" {
		return errors.Wrapf(errors.ErrInvalidInput, "OPENAI_API_KEY is not configured")
	}
	return nil
}
