package config

import (
	"log"
	"os"

	"github.com/joho/godotenv"
)

type Config struct {
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	JWTSecret  string
	ServerPort string

	// AI tutor endpoint (OpenAI-compatible chat completions)
	AIBaseURL string
	AIAPIKey  string
	AIModel   string

	// GitHub repo the lesson chapters are synced from
	LessonsRepo string // "owner/repo"
	LessonsPath string // directory inside the repo, e.g. "chapters"
}

func LoadConfig() (*Config, error) {
	err := godotenv.Load()
	if err != nil {
		log.Println("Error loading .env file, using environment variables")
	}

	return &Config{
		DBHost:      getEnv("DB_HOST", "localhost"),
		DBPort:      getEnv("DB_PORT", "5432"),
		DBUser:      getEnv("DB_USER", "postgres"),
		DBPassword:  getEnv("DB_PASSWORD", "postgres"),
		DBName:      getEnv("DB_NAME", "jac_tutor"),
		JWTSecret:   getEnv("JWT_SECRET", "secret"),
		ServerPort:  getEnv("SERVER_PORT", "8000"),
		AIBaseURL:   getEnv("AI_BASE_URL", "http://localhost:11434/v1"),
		AIAPIKey:    getEnv("AI_API_KEY", ""),
		AIModel:     getEnv("AI_MODEL", "gemini-1.5-flash"),
		LessonsRepo: getEnv("LESSONS_REPO", "jaseci-labs/jac-book"),
		LessonsPath: getEnv("LESSONS_PATH", "chapters"),
	}, nil
}

func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}
