package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	App      AppConfig
	Database DatabaseConfig
	Keys     APIKeys
	Ai       AIConfig
	Quota    QuotaConfig
	Ingest   IngestConfig
}

type AppConfig struct {
	Port               string
	BaseURL            string
	Environment        string
	LogFilePath        string
	CorsAllowedOrigins string
	AdminEmail         string
	DefaultDatasetTag  string
	UsageTopic         string
}

type DatabaseConfig struct {
	Connection string
}

type APIKeys struct {
	GoogleGemini string
	Cohere       string
}

type AIConfig struct {
	EmbeddingProvider string // "cohere" or "gemini"
	LLMProvider       string // "gemini" or "ollama"
	LLMModel          string
	OllamaBaseURL     string
}

type QuotaConfig struct {
	FreeMaxQueries int
	FreeMaxPDFs    int
}

type IngestConfig struct {
	PdfServiceURL   string
	ChunkBatchSize  int
	BatchDelay      time.Duration
	MaxUploadSizeMB int
}

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("Note: .env file not found, usage system environment")
	}

	return &Config{
		App: AppConfig{
			Port:               getEnv("APP_PORT", "3000"),
			BaseURL:            getEnv("APP_BASE_URL", "http://localhost:3000"),
			Environment:        getEnv("GO_ENV", "development"),
			LogFilePath:        getEnv("LOG_FILE_PATH", "app.log"),
			CorsAllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:5173"),
			AdminEmail:         getEnv("ADMIN_EMAIL", ""),
			DefaultDatasetTag:  getEnv("DEFAULT_DATASET_TAG", "default"),
			UsageTopic:         getEnv("USAGE_EVENT_TOPIC_NAME", "USAGE_EVENTS"),
		},
		Database: DatabaseConfig{
			Connection: getEnv("DB_CONNECTION_STRING", ""),
		},
		Keys: APIKeys{
			GoogleGemini: getEnv("GOOGLE_GEMINI_API_KEY", ""),
			Cohere:       getEnv("COHERE_API_KEY", ""),
		},
		Ai: AIConfig{
			EmbeddingProvider: getEnv("EMBEDDING_PROVIDER", "cohere"),
			LLMProvider:       getEnv("LLM_PROVIDER", "gemini"),
			LLMModel:          getEnv("LLM_MODEL", "gemini-1.5-flash"),
			OllamaBaseURL:     getEnv("OLLAMA_BASE_URL", "http://localhost:11434"),
		},
		Quota: QuotaConfig{
			FreeMaxQueries: getEnvAsInt("FREE_MAX_QUERIES", 20),
			FreeMaxPDFs:    getEnvAsInt("FREE_MAX_PDFS", 2),
		},
		Ingest: IngestConfig{
			PdfServiceURL:   getEnv("PDF_SERVICE_URL", "http://localhost:5000"),
			ChunkBatchSize:  getEnvAsInt("INGEST_CHUNK_BATCH_SIZE", 20),
			BatchDelay:      getEnvAsDuration("INGEST_BATCH_DELAY", 500*time.Millisecond),
			MaxUploadSizeMB: getEnvAsInt("MAX_UPLOAD_SIZE_MB", 50),
		},
	}
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	strValue := getEnv(key, "")
	if value, err := strconv.Atoi(strValue); err == nil {
		return value
	}
	return fallback
}

func getEnvAsDuration(key string, fallback time.Duration) time.Duration {
	strValue := getEnv(key, "")
	if value, err := time.ParseDuration(strValue); err == nil {
		return value
	}
	return fallback
}
