package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// AppConfig 汇总运行服务所需的基础配置。
type AppConfig struct {
	ListenAddr          string
	Port                string
	StoreDriver         string
	DatabasePath        string
	MongoURI            string
	MongoDatabase       string
	RedisAddr           string
	RedisPassword       string
	SessionSecret       string
	GinMode             string
	UploadDir           string
	UploadURLPath       string
	VerificationCodeTTL time.Duration
	LogLevel            string
	CORSOrigins         []string
}

// LoadDotEnvs 按 .env.<env>.local > .env.local > .env.<env> > .env 的优先级加载环境文件。
// 已存在的环境变量不会被覆盖；缺失的文件会被忽略。
func LoadDotEnvs() {
	env := strings.TrimSpace(os.Getenv("OATEXT_ENV"))
	if env == "" {
		env = "dev"
	}

	for _, file := range []string{".env." + env + ".local", ".env.local", ".env." + env, ".env"} {
		if _, err := os.Stat(file); err != nil {
			continue
		}
		_ = godotenv.Load(file)
	}
}

// Load 从环境变量读取应用配置，并为缺失项提供安全的默认值。
func Load() AppConfig {
	port := getEnv("PORT", "8080")

	listenAddr := getEnv("LISTEN_ADDR", fmt.Sprintf(":%s", port))

	codeTTL := 5 * time.Minute
	if raw := strings.TrimSpace(os.Getenv("VERIFICATION_CODE_TTL")); raw != "" {
		if parsed, err := time.ParseDuration(raw); err == nil && parsed > 0 {
			codeTTL = parsed
		}
	}

	var origins []string
	for _, origin := range strings.Split(os.Getenv("CORS_ORIGINS"), ",") {
		if trimmed := strings.TrimSpace(origin); trimmed != "" {
			origins = append(origins, trimmed)
		}
	}

	return AppConfig{
		ListenAddr:          listenAddr,
		Port:                port,
		StoreDriver:         strings.ToLower(getEnv("STORE_DRIVER", "sqlite")),
		DatabasePath:        getEnv("DATABASE_PATH", "oatext.db"),
		MongoURI:            getEnv("MONGO_URI", "mongodb://localhost:27017"),
		MongoDatabase:       getEnv("MONGO_DATABASE", "OAText"),
		RedisAddr:           strings.TrimSpace(os.Getenv("REDIS_ADDR")),
		RedisPassword:       strings.TrimSpace(os.Getenv("REDIS_PASSWORD")),
		SessionSecret:       getEnv("SESSION_SECRET", "oatext-dev-secret"),
		GinMode:             getEnv("GIN_MODE", "release"),
		UploadDir:           getEnv("UPLOAD_DIR", "web/static/uploads"),
		UploadURLPath:       getEnv("UPLOAD_URL_PATH", "/static/uploads"),
		VerificationCodeTTL: codeTTL,
		LogLevel:            getEnv("LOG_LEVEL", "info"),
		CORSOrigins:         origins,
	}
}

// getEnv 获取环境变量，如果不存在则返回默认值
func getEnv(key, fallback string) string {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	return value
}
