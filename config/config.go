package config

import (
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Config holds all application configuration loaded from environment variables.
type Config struct {
	PostgresEnabled  bool
	PostgresHost     string
	PostgresPort     string
	PostgresUser     string
	PostgresPassword string
	PostgresDB       string
	PostgresSSLMode  string

	RateLimitMs       int
	MaxRetries        int
	TargetTotal       int
	MaxScrolls        int
	ScrollStablePolls int
	FeedTimeoutSec    int
	Headless          bool

	CSVOutputPath    string
	DashboardCSVPath string
	DashboardAddr    string
	MetricsTextfile  string
	TargetsFile      string
	ChromeBin        string
	LogLevel         string
}

// Load reads the .env file and returns a populated Config struct.
func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("[config] No .env file found, falling back to system env vars")
	}

	csvPath := getEnv("CSV_OUTPUT_PATH", "./output/data_perumahan_indonesia_raya.csv")

	return &Config{
		PostgresEnabled:  getEnvBool("POSTGRES_ENABLED", false),
		PostgresHost:     getEnv("POSTGRES_HOST", "localhost"),
		PostgresPort:     getEnv("POSTGRES_PORT", "5432"),
		PostgresUser:     getEnv("POSTGRES_USER", "scraper"),
		PostgresPassword: getEnv("POSTGRES_PASSWORD", "scraper123"),
		PostgresDB:       getEnv("POSTGRES_DB", "perumahan_db"),
		PostgresSSLMode:  getEnv("POSTGRES_SSLMODE", "disable"),

		RateLimitMs:       getEnvInt("RATE_LIMIT_MS", 1000),
		MaxRetries:        getEnvInt("MAX_RETRIES", 1),
		TargetTotal:       getEnvInt("TARGET_TOTAL", 3000),
		MaxScrolls:        getEnvInt("MAX_SCROLLS", 15),
		ScrollStablePolls: getEnvInt("SCROLL_STABLE_POLLS", 3),
		FeedTimeoutSec:    getEnvInt("FEED_TIMEOUT_SEC", 20),
		Headless:          getEnvBool("HEADLESS", true),

		CSVOutputPath:    csvPath,
		DashboardCSVPath: getEnv("DASHBOARD_CSV_PATH", csvPath),
		DashboardAddr:    getEnv("DASHBOARD_ADDR", ":8501"),
		MetricsTextfile:  getEnv("METRICS_TEXTFILE", ""),
		TargetsFile:      getEnv("TARGETS_FILE", ""),
		ChromeBin:        getEnv("CHROME_BIN", ""),
		LogLevel:         getEnv("LOG_LEVEL", "info"),
	}
}

// DSN returns the PostgreSQL connection string.
func (c *Config) DSN() string {
	return "host=" + c.PostgresHost +
		" port=" + c.PostgresPort +
		" user=" + c.PostgresUser +
		" password=" + c.PostgresPassword +
		" dbname=" + c.PostgresDB +
		" sslmode=" + c.PostgresSSLMode
}

// MapOutputPath is where the static HTML map lands: next to the CSV, same
// base name.
func (c *Config) MapOutputPath() string {
	return MapPathFor(c.CSVOutputPath)
}

// MapPathFor swaps a trailing .csv for .html, or appends .html otherwise.
func MapPathFor(csvPath string) string {
	if strings.HasSuffix(csvPath, ".csv") {
		return strings.TrimSuffix(csvPath, ".csv") + ".html"
	}
	return csvPath + ".html"
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if val := os.Getenv(key); val != "" {
		n, err := strconv.Atoi(val)
		if err == nil {
			return n
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if val := os.Getenv(key); val != "" {
		b, err := strconv.ParseBool(val)
		if err == nil {
			return b
		}
	}
	return fallback
}
