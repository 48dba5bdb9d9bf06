package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"
)

var (
	config     *Config
	configOnce sync.Once
)

// Config stores all configuration of the application
type Config struct {
	// Environment type
	EnvType string

	// Database
	DBHost          string
	DBUser          string
	DBPassword      string
	DBName          string
	DBPort          string
	DBMigrationMode string // "auto" (default), "alter", "drop"
	DBLogLevel      string // silent, error, warn, info

	// Server
	ServerPort      string
	AllowedOrigin   string
	PortalURL       string
	AssociationName string
	DebugResponses  bool // expose the notification debug object in responses

	// Redis, disabled when RedisHost is empty
	RedisHost     string
	RedisPort     string
	RedisPassword string
	RedisDB       int

	// JWT Authentication
	JWTSecretKey       string
	TokenTTL           time.Duration
	TokenRefreshWindow time.Duration

	// Mail
	MailEnabled  bool
	MailFrom     string
	SMTPHost     string
	SMTPPort     int
	SMTPUsername string
	SMTPPassword string

	// Uploads
	MaxImageBytes    int64
	MaxDocumentBytes int64

	// Scheduled jobs (cron specs, empty disables a job)
	JobsEnabled                  bool
	CloseSurveysSchedule         string
	PublishAnnouncementsSchedule string
	VotingRightsSchedule         string
	PastDueRemindersSchedule     string
	YearlyAssessmentsSchedule    string
	YearlyAssessmentDueDays      int

	// Forgot password throttle per email
	PasswordResetLimit  int
	PasswordResetWindow time.Duration

	// Bootstrap board member, created when no board member exists
	BootstrapEmail    string
	BootstrapPassword string
}

// LoadConfig loads config from environment variables based on ENV_TYPE
func LoadConfig() *Config {
	envType := getEnv("ENV_TYPE", "LOCAL")
	prefix := ""

	if strings.ToUpper(envType) == "LOCAL" {
		prefix = "LOCAL_"
	} else if strings.ToUpper(envType) == "SERVER" {
		prefix = "SERVER_"
	} else {
		fmt.Printf("Warning: Unknown ENV_TYPE '%s', defaulting to LOCAL environment\n", envType)
		prefix = "LOCAL_"
		envType = "LOCAL"
	}

	fmt.Printf("Loading configuration for environment: %s\n", envType)

	return &Config{
		EnvType: envType,

		DBHost:          getEnvRequired(prefix + "DB_HOST"),
		DBUser:          getEnvRequired(prefix + "DB_USER"),
		DBPassword:      getEnvRequired(prefix + "DB_PASSWORD"),
		DBName:          getEnvRequired(prefix + "DB_NAME"),
		DBPort:          getEnv(prefix+"DB_PORT", "3306"),
		DBMigrationMode: getEnv(prefix+"DB_MIGRATION_MODE", "auto"),
		DBLogLevel:      getEnv("DB_LOG_LEVEL", "warn"),

		ServerPort:      getEnv(prefix+"SERVER_PORT", getEnv("SERVER_PORT", "8080")),
		AllowedOrigin:   getEnv("ALLOWED_ORIGIN", "http://localhost:3000"),
		PortalURL:       getEnv("PORTAL_URL", "http://localhost:3000"),
		AssociationName: getEnv("ASSOCIATION_NAME", "Homeowners Association"),
		DebugResponses:  getEnvAsBool("DEBUG_RESPONSES", false),

		RedisHost:     getEnv(prefix+"REDIS_HOST", getEnv("REDIS_HOST", "")),
		RedisPort:     getEnv(prefix+"REDIS_PORT", getEnv("REDIS_PORT", "6379")),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnvAsInt("REDIS_DB", 0),

		JWTSecretKey:       getEnvRequired("JWT_SECRET_KEY"),
		TokenTTL:           getEnvAsDuration("JWT_TOKEN_TTL", time.Hour),
		TokenRefreshWindow: getEnvAsDuration("JWT_REFRESH_WINDOW", 7*24*time.Hour),

		MailEnabled:  getEnvAsBool("MAIL_ENABLED", false),
		MailFrom:     getEnv("MAIL_FROM", "no-reply@hoa.local"),
		SMTPHost:     getEnv("SMTP_HOST", "localhost"),
		SMTPPort:     getEnvAsInt("SMTP_PORT", 587),
		SMTPUsername: getEnv("SMTP_USERNAME", ""),
		SMTPPassword: getEnv("SMTP_PASSWORD", ""),

		MaxImageBytes:    int64(getEnvAsInt("MAX_IMAGE_MB", 10)) << 20,
		MaxDocumentBytes: int64(getEnvAsInt("MAX_DOCUMENT_MB", 25)) << 20,

		JobsEnabled:                  getEnvAsBool("JOBS_ENABLED", true),
		CloseSurveysSchedule:         getEnv("JOB_CLOSE_SURVEYS", "5 0 * * *"),
		PublishAnnouncementsSchedule: getEnv("JOB_PUBLISH_ANNOUNCEMENTS", "10 0 * * *"),
		VotingRightsSchedule:         getEnv("JOB_VOTING_RIGHTS", "15 0 * * *"),
		PastDueRemindersSchedule:     getEnv("JOB_PAST_DUE_REMINDERS", "0 8 * * 1"),
		YearlyAssessmentsSchedule:    getEnv("JOB_YEARLY_ASSESSMENTS", "30 0 1 1 *"),
		YearlyAssessmentDueDays:      getEnvAsInt("YEARLY_ASSESSMENT_DUE_DAYS", 30),

		PasswordResetLimit:  getEnvAsInt("PASSWORD_RESET_LIMIT", 3),
		PasswordResetWindow: getEnvAsDuration("PASSWORD_RESET_WINDOW", time.Hour),

		BootstrapEmail:    getEnv("BOOTSTRAP_EMAIL", "board@hoa.local"),
		BootstrapPassword: getEnvRequired("BOOTSTRAP_PASSWORD"),
	}
}

// Default returns a config with every non-connection default filled in.
// Connection settings are left empty.
func Default() *Config {
	return &Config{
		EnvType:                      "LOCAL",
		DBMigrationMode:              "auto",
		DBLogLevel:                   "warn",
		ServerPort:                   "8080",
		AllowedOrigin:                "http://localhost:3000",
		PortalURL:                    "http://localhost:3000",
		AssociationName:              "Homeowners Association",
		JWTSecretKey:                 "hoa-secret-key-change-in-production",
		TokenTTL:                     time.Hour,
		TokenRefreshWindow:           7 * 24 * time.Hour,
		MailFrom:                     "no-reply@hoa.local",
		SMTPPort:                     587,
		MaxImageBytes:                10 << 20,
		MaxDocumentBytes:             25 << 20,
		CloseSurveysSchedule:         "5 0 * * *",
		PublishAnnouncementsSchedule: "10 0 * * *",
		VotingRightsSchedule:         "15 0 * * *",
		PastDueRemindersSchedule:     "0 8 * * 1",
		YearlyAssessmentsSchedule:    "30 0 1 1 *",
		YearlyAssessmentDueDays:      30,
		PasswordResetLimit:           3,
		PasswordResetWindow:          time.Hour,
		BootstrapEmail:               "board@hoa.local",
	}
}

// GetConfig returns the application configuration as a singleton
func GetConfig() *Config {
	configOnce.Do(func() {
		config = LoadConfig()
	})
	return config
}

// GetDSN returns the database connection string
func (c *Config) GetDSN() string {
	return c.DBUser + ":" + c.DBPassword + "@tcp(" + c.DBHost + ":" + c.DBPort + ")/" + c.DBName + "?charset=utf8mb4&parseTime=True&loc=Local&allowNativePasswords=true"
}

// GetRedisAddr returns the Redis address
func (c *Config) GetRedisAddr() string {
	return c.RedisHost + ":" + c.RedisPort
}

// RedisEnabled reports whether a Redis host is configured
func (c *Config) RedisEnabled() bool {
	return c.RedisHost != ""
}

func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	return defaultValue
}

// getEnvRequired panics when key is unset or empty
func getEnvRequired(key string) string {
	if value, exists := os.LookupEnv(key); exists && value != "" {
		return value
	}
	panic(fmt.Sprintf("Required environment variable %s is not set", key))
}
