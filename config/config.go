package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config represents the complete application configuration
type Config struct {
	Server        ServerConfig
	Ollama        OllamaConfig
	Qdrant        QdrantConfig
	RAG           RAGConfig
	Observability ObservabilityConfig
	Environment   string
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host            string
	Port            int
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
}

// OllamaConfig holds Ollama model service configuration
type OllamaConfig struct {
	Host            string
	EmbeddingModel  string
	LLMModel        string
	EmbedTimeout    time.Duration
	GenerateTimeout time.Duration
}

// QdrantConfig holds Qdrant vector database configuration
type QdrantConfig struct {
	Host       string
	Port       int
	Collection string
	VectorSize int
}

// RAGConfig holds retrieval pipeline configuration
type RAGConfig struct {
	// SimilarityThreshold is the minimum score a retrieved chunk must reach
	// to be used as answer context.
	SimilarityThreshold float32
	TopK                int
	// FallbackGreeting is returned by the direct-response path when the
	// language model is unreachable; a greeting must never hard-fail.
	FallbackGreeting string
}

// ObservabilityConfig holds logging configuration
type ObservabilityConfig struct {
	LogLevel  string
	LogFormat string // json or text
}

// New creates a new Config instance by loading environment variables
func New() (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load(".env")

	cfg := &Config{
		Environment: getEnv("ENVIRONMENT", "development"),
		Server: ServerConfig{
			Host:            getEnv("SERVER_HOST", "0.0.0.0"),
			Port:            getEnvAsInt("SERVER_PORT", 8000),
			ReadTimeout:     getEnvAsDuration("SERVER_READ_TIMEOUT", 30*time.Second),
			WriteTimeout:    getEnvAsDuration("SERVER_WRITE_TIMEOUT", 3*time.Minute),
			ShutdownTimeout: getEnvAsDuration("SERVER_SHUTDOWN_TIMEOUT", 10*time.Second),
		},
		Ollama: OllamaConfig{
			Host:            getEnv("OLLAMA_HOST", "http://localhost:11434"),
			EmbeddingModel:  getEnv("OLLAMA_EMBEDDING_MODEL", "embeddinggemma:latest"),
			LLMModel:        getEnv("OLLAMA_LLM_MODEL", "granite3.1-moe:1b"),
			EmbedTimeout:    getEnvAsDuration("OLLAMA_EMBED_TIMEOUT", 60*time.Second),
			GenerateTimeout: getEnvAsDuration("OLLAMA_GENERATE_TIMEOUT", 120*time.Second),
		},
		Qdrant: QdrantConfig{
			Host:       getEnv("QDRANT_HOST", "localhost"),
			Port:       getEnvAsInt("QDRANT_PORT", 6334),
			Collection: getEnv("QDRANT_COLLECTION", "documents"),
			VectorSize: getEnvAsInt("QDRANT_VECTOR_SIZE", 768),
		},
		RAG: RAGConfig{
			SimilarityThreshold: getEnvAsFloat32("SIMILARITY_THRESHOLD", 0.3),
			TopK:                getEnvAsInt("RAG_TOP_K", 5),
			FallbackGreeting:    getEnv("FALLBACK_GREETING", "Hello! How can I help you today?"),
		},
		Observability: ObservabilityConfig{
			LogLevel:  getEnv("LOG_LEVEL", "info"),
			LogFormat: getEnv("LOG_FORMAT", "json"),
		},
	}

	// Validate the configuration
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// Validate checks if all required configuration fields are set
func (c *Config) Validate() error {
	if c.Ollama.Host == "" {
		return fmt.Errorf("ollama host is required")
	}
	if c.Ollama.EmbeddingModel == "" {
		return fmt.Errorf("ollama embedding model is required")
	}
	if c.Ollama.LLMModel == "" {
		return fmt.Errorf("ollama LLM model is required")
	}
	if c.Qdrant.Host == "" {
		return fmt.Errorf("qdrant host is required")
	}
	if c.Qdrant.Collection == "" {
		return fmt.Errorf("qdrant collection name is required")
	}
	if c.Qdrant.VectorSize <= 0 {
		return fmt.Errorf("qdrant vector size must be positive")
	}
	if c.RAG.SimilarityThreshold < 0 || c.RAG.SimilarityThreshold > 1 {
		return fmt.Errorf("similarity threshold must be between 0 and 1")
	}
	if c.RAG.TopK <= 0 {
		return fmt.Errorf("rag top_k must be positive")
	}
	if c.Observability.LogLevel == "" {
		return fmt.Errorf("log level is required")
	}
	return nil
}

// IsProduction returns true if running in production environment
func (c *Config) IsProduction() bool {
	return c.Environment == "production" || c.Environment == "prod"
}

// IsDevelopment returns true if running in development environment
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development" || c.Environment == "dev"
}

// Address returns the HTTP server address
func (c *ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// Address returns the Qdrant gRPC address
func (c *QdrantConfig) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// Helper functions

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsFloat32(key string, defaultValue float32) float32 {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseFloat(valueStr, 32)
	if err != nil {
		return defaultValue
	}
	return float32(value)
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := time.ParseDuration(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}
