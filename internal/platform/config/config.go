package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	APIPort string
	JWTKey  []byte
	JWTExp  time.Duration

	DBDriver   string // "postgres" or "sqlite"
	DBDSN      string // overrides the composed postgres conn string when set
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBSslMode  string

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	TestViewCacheTTL        time.Duration
	DefaultTestDurationMins int
	CORSAllowedOrigins      []string
}

var AppConfig *Config

func Load() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, relying on environment variables")
	}

	AppConfig = &Config{
		APIPort:    getEnv("API_PORT", "8080"),
		JWTKey:     []byte(getEnv("JWT_SECRET", "defaultsecret")),
		JWTExp:     time.Duration(getEnvAsInt("JWT_EXPIRATION_HOURS", 72)) * time.Hour,
		DBDriver:   getEnv("DB_DRIVER", "postgres"),
		DBDSN:      getEnv("DB_DSN", ""),
		DBHost:     getEnv("DB_HOST", "localhost"),
		DBPort:     getEnv("DB_PORT", "5432"),
		DBUser:     getEnv("DB_USER", "user"),
		DBPassword: getEnv("DB_PASSWORD", "password"),
		DBName:     getEnv("DB_NAME", "learnhub_db"),
		DBSslMode:  getEnv("DB_SSLMODE", "disable"),

		RedisAddr:     getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnvAsInt("REDIS_DB", 0),

		TestViewCacheTTL:        time.Duration(getEnvAsInt("TEST_VIEW_CACHE_TTL_SECONDS", 300)) * time.Second,
		DefaultTestDurationMins: getEnvAsInt("DEFAULT_TEST_DURATION_MINUTES", 30),
		CORSAllowedOrigins:      []string{getEnv("CORS_ALLOWED_ORIGIN", "http://localhost:3000")},
	}

	if AppConfig.DBDSN == "" && AppConfig.DBDriver == "postgres" {
		AppConfig.DBDSN = "host=" + AppConfig.DBHost +
			" port=" + AppConfig.DBPort +
			" user=" + AppConfig.DBUser +
			" password=" + AppConfig.DBPassword +
			" dbname=" + AppConfig.DBName +
			" sslmode=" + AppConfig.DBSslMode
	}
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return fallback
}
