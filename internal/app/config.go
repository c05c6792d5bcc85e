package app

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config stores runtime configuration loaded from environment variables.
type Config struct {
	AppEnv        string
	HTTPAddr      string
	QuestionsPath string

	SessionBackend    string
	SessionSecret     string
	SessionTTLMinutes int

	DBDSN             string
	DBMaxOpenConns    int
	DBMaxIdleConns    int
	DBConnMaxLifeMins int

	CSRFEnforced    bool
	RateLimitPerMin int
	CORSOrigins     []string
	SecureCookies   bool
	TemplatesDir    string
	StaticDir       string
}

// LoadConfig reads an optional .env file and then the process environment.
// Variables already set in the environment win over the file.
func LoadConfig() Config {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("config .env load failed err=%v", err)
	}

	addr := os.Getenv("HTTP_ADDR")
	if addr == "" {
		addr = ":" + strconv.Itoa(intOrDefault("PORT", 5000))
	}
	appEnv := envOrDefault("APP_ENV", "development")

	return Config{
		AppEnv:            appEnv,
		HTTPAddr:          addr,
		QuestionsPath:     envOrDefault("QUESTIONS_PATH", "questions.json"),
		SessionBackend:    strings.ToLower(envOrDefault("SESSION_BACKEND", "memory")),
		SessionSecret:     os.Getenv("SESSION_SECRET"),
		SessionTTLMinutes: intOrDefault("SESSION_TTL_MINUTES", 120),
		DBDSN:             os.Getenv("DB_DSN"),
		DBMaxOpenConns:    intOrDefault("DB_MAX_OPEN_CONNS", 25),
		DBMaxIdleConns:    intOrDefault("DB_MAX_IDLE_CONNS", 25),
		DBConnMaxLifeMins: intOrDefault("DB_CONN_MAX_LIFETIME_MINUTES", 30),
		CSRFEnforced:      boolOrDefault("CSRF_ENFORCED", appEnv == "production"),
		RateLimitPerMin:   intOrDefault("RATE_LIMIT_PER_MINUTE", 120),
		CORSOrigins:       splitList(os.Getenv("CORS_ORIGINS")),
		SecureCookies:     boolOrDefault("SECURE_COOKIES", appEnv == "production"),
		TemplatesDir:      envOrDefault("TEMPLATES_DIR", "web/templates"),
		StaticDir:         envOrDefault("STATIC_DIR", "web/static"),
	}
}

func (c Config) SessionTTL() time.Duration {
	return time.Duration(c.SessionTTLMinutes) * time.Minute
}

func envOrDefault(key, fallback string) string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	return v
}

func stringsToInt(v string) int {
	n, _ := strconv.Atoi(v)
	return n
}

func intOrDefault(key string, fallback int) int {
	v := stringsToInt(os.Getenv(key))
	if v <= 0 {
		return fallback
	}
	return v
}

func boolOrDefault(key string, fallback bool) bool {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	switch strings.ToLower(v) {
	case "1", "true", "yes", "y", "on":
		return true
	case "0", "false", "no", "n", "off":
		return false
	default:
		return fallback
	}
}

func splitList(v string) []string {
	var out []string
	for _, p := range strings.Split(v, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
