package config

import (
	"fmt"
	"log"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	Port  string `envconfig:"PORT" default:"8080"`
	Debug bool   `envconfig:"DEBUG" default:"false"`

	// Knowledge store: JSON file by default, Postgres when DATABASE_URL is set.
	KnowledgePath string `envconfig:"KNOWLEDGE_PATH" default:"data/knowledge.json"`
	DatabaseURL   string `envconfig:"DATABASE_URL"`

	// Completion service (any OpenAI-compatible endpoint).
	LLMAPIKey  string `envconfig:"LLM_API_KEY"`
	LLMBaseURL string `envconfig:"LLM_BASE_URL"`
	LLMModel   string `envconfig:"LLM_MODEL" default:"qwen-plus"`

	RetrievalTimeout  time.Duration `envconfig:"RETRIEVAL_TIMEOUT" default:"5s"`
	GenerationTimeout time.Duration `envconfig:"GENERATION_TIMEOUT" default:"60s"`

	// Snapshot archive (optional).
	S3Endpoint       string        `envconfig:"S3_ENDPOINT"`
	S3AccessKey      string        `envconfig:"S3_ACCESS_KEY_ID"`
	S3SecretKey      string        `envconfig:"S3_SECRET_ACCESS_KEY"`
	S3Bucket         string        `envconfig:"S3_BUCKET" default:"campusdesk-snapshots"`
	S3Region         string        `envconfig:"S3_REGION" default:"us-east-1"`
	SnapshotInterval time.Duration `envconfig:"SNAPSHOT_INTERVAL" default:"1h"`
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("CAMPUSDESK", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process config: %w", err)
	}

	return &cfg, nil
}

func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	return cfg
}

func (c *Config) HasPostgres() bool {
	return c.DatabaseURL != ""
}

func (c *Config) HasS3() bool {
	return c.S3Endpoint != "" && c.S3AccessKey != "" && c.S3SecretKey != ""
}

func (c *Config) HasLLM() bool {
	return c.LLMAPIKey != ""
}
