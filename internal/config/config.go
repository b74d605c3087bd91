package config

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds every runtime knob of the service. Values come from the
// environment, with a .env file loaded first if one is present.
type Config struct {
	Port    string
	LogMode string

	UploadDir   string
	VectorDir   string
	DatabaseURL string

	Provider      string // "openai" or "ollama"
	OpenAIAPIKey  string
	OpenAIBaseURL string
	EmbedModel    string
	ChatModel     string
	OllamaModel   string

	ChunkSize    int
	ChunkOverlap int
	TopK         int
}

// Load reads the configuration from the environment. A missing .env file
// is not an error.
func Load() *Config {
	_ = godotenv.Load()

	return &Config{
		Port:    getEnv("PORT", "8000"),
		LogMode: getEnv("LOG_MODE", "development"),

		UploadDir:   getEnv("UPLOAD_DIR", "uploads"),
		VectorDir:   getEnv("VECTOR_DIR", "vector_data"),
		DatabaseURL: getEnv("DATABASE_URL", "pdf_metadata.db"),

		Provider:      getEnv("LLM_PROVIDER", "openai"),
		OpenAIAPIKey:  getEnv("OPENAI_API_KEY", ""),
		OpenAIBaseURL: getEnv("OPENAI_BASE_URL", "https://api.openai.com/v1"),
		EmbedModel:    getEnv("EMBEDDING_MODEL", "text-embedding-3-small"),
		ChatModel:     getEnv("CHAT_MODEL", "gpt-4o-mini"),
		OllamaModel:   getEnv("OLLAMA_MODEL", "llama3.2"),

		ChunkSize:    getEnvAsInt("CHUNK_SIZE", 500),
		ChunkOverlap: getEnvAsInt("CHUNK_OVERLAP", 100),
		TopK:         getEnvAsInt("TOP_K", 4),
	}
}

func getEnv(key, defaultVal string) string {
	if val, ok := os.LookupEnv(key); ok {
		return val
	}
	return defaultVal
}

func getEnvAsInt(key string, defaultVal int) int {
	valStr, ok := os.LookupEnv(key)
	if !ok {
		return defaultVal
	}
	i, err := strconv.Atoi(valStr)
	if err != nil {
		return defaultVal
	}
	return i
}
