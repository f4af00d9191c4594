package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port             string
	JWTSecret        string
	JWTAccessExpiry  time.Duration
	JWTRefreshExpiry time.Duration
	InternalAPIKey   string // guards /api/internal, empty leaves it open

	// Database
	DatabaseURL string
	DBHost      string
	DBPort      string
	DBUser      string
	DBPassword  string
	DBName      string
	DBSSLMode   string

	// AI providers
	AIProvider     string // "gemini", "ollama", "gateway" or "auto"
	GeminiApiKey   string
	GeminiModel    string
	OllamaBaseURL  string
	OllamaModel    string
	GatewayBaseURL string
	GatewayAPIKey  string
	GatewayModel   string

	// Response simulation
	SimulationDelay        time.Duration
	SimulationPollInterval time.Duration
	SimulationMaxAttempts  int
	ResponseTemplatesFile  string

	// Mailbox monitoring and classification
	MonitorInterval       time.Duration
	SimulatedReplyRate    float64
	ClassifierInterval    time.Duration
	ClassifierBatchSize   int
	DefaultCandidateEmail string
	JobDigestInterval     time.Duration

	// External job recommendations
	RecommenderBaseURL string
	RecommenderTimeout time.Duration

	// Google / Firebase
	GoogleClientID      string
	GoogleClientSecret  string
	GoogleProjectID     string
	GoogleCredentials   string
	StatusEventsTopic   string
	FirebaseCredentials string

	// Chroma vector search
	ChromaAPIKey   string
	ChromaTenant   string
	ChromaDatabase string
}

func Load() *Config {
	// Load .env file if it exists
	_ = godotenv.Load()

	return &Config{
		Port:             getEnv("PORT", "8080"),
		JWTSecret:        getEnv("JWT_SECRET", "your-secret-key-change-in-production"),
		JWTAccessExpiry:  getDuration("JWT_ACCESS_EXPIRY", 15*time.Minute),
		JWTRefreshExpiry: getDuration("JWT_REFRESH_EXPIRY", 168*time.Hour), // 7 days
		InternalAPIKey:   getEnv("INTERNAL_API_KEY", ""),

		DatabaseURL: getEnv("DATABASE_URL", ""),
		DBHost:      getEnv("DB_HOST", "localhost"),
		DBPort:      getEnv("DB_PORT", "5432"),
		DBUser:      getEnv("DB_USER", "postgres"),
		DBPassword:  getEnv("DB_PASSWORD", "postgres"),
		DBName:      getEnv("DB_NAME", "jobmatch"),
		DBSSLMode:   getEnv("DB_SSLMODE", "disable"),

		AIProvider:     getEnv("AI_PROVIDER", "auto"),
		GeminiApiKey:   getEnv("GEMINI_API_KEY", ""),
		GeminiModel:    getEnv("GEMINI_MODEL", "gemini-2.5-flash"),
		OllamaBaseURL:  getEnv("OLLAMA_BASE_URL", "http://localhost:11434"),
		OllamaModel:    getEnv("OLLAMA_MODEL", "llama3"),
		GatewayBaseURL: getEnv("AI_GATEWAY_URL", ""),
		GatewayAPIKey:  getEnv("AI_GATEWAY_API_KEY", ""),
		GatewayModel:   getEnv("AI_GATEWAY_MODEL", "google/gemini-2.5-flash"),

		SimulationDelay:        getDuration("SIMULATION_DELAY", 10*time.Second),
		SimulationPollInterval: getDuration("SIMULATION_POLL_INTERVAL", 2*time.Second),
		SimulationMaxAttempts:  getInt("SIMULATION_MAX_ATTEMPTS", 5),
		ResponseTemplatesFile:  getEnv("RESPONSE_TEMPLATES_FILE", ""),

		MonitorInterval:       getDuration("MAILBOX_MONITOR_INTERVAL", 0),
		SimulatedReplyRate:    getFloat("MAILBOX_SIMULATED_REPLY_RATE", 0.3),
		ClassifierInterval:    getDuration("CLASSIFIER_INTERVAL", 0),
		ClassifierBatchSize:   getInt("CLASSIFIER_BATCH_SIZE", 50),
		DefaultCandidateEmail: getEnv("DEFAULT_CANDIDATE_EMAIL", "candidate@example.com"),
		JobDigestInterval:     getDuration("JOB_DIGEST_INTERVAL", 0),

		RecommenderBaseURL: getEnv("RECOMMENDER_BASE_URL", "http://localhost:8000"),
		RecommenderTimeout: getDuration("RECOMMENDER_TIMEOUT", 30*time.Second),

		GoogleClientID:      getEnv("GOOGLE_CLIENT_ID", ""),
		GoogleClientSecret:  getEnv("GOOGLE_CLIENT_SECRET", ""),
		GoogleProjectID:     getEnv("GOOGLE_PROJECT_ID", ""),
		GoogleCredentials:   getEnv("GOOGLE_CREDENTIALS", ""),
		StatusEventsTopic:   getEnv("STATUS_EVENTS_TOPIC", ""),
		FirebaseCredentials: getEnv("FIREBASE_CREDENTIALS", ""),

		ChromaAPIKey:   getEnv("CHROMA_API_KEY", ""),
		ChromaTenant:   getEnv("CHROMA_TENANT", ""),
		ChromaDatabase: getEnv("CHROMA_DATABASE", ""),
	}
}

// DSN builds the Postgres connection string. DATABASE_URL wins when set.
func (c *Config) DSN() string {
	if c.DatabaseURL != "" {
		return c.DatabaseURL
	}
	return fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=%s TimeZone=UTC",
		c.DBHost, c.DBUser, c.DBPassword, c.DBName, c.DBPort, c.DBSSLMode)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if parsed, err := time.ParseDuration(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseFloat(value, 64); err == nil {
			return parsed
		}
	}
	return defaultValue
}
