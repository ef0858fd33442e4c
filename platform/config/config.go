// Package config provides application configuration loading.
// This is part of the platform layer and contains no business logic.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// =============================================================================
// Module-Specific Config Interfaces (Principle of Least Privilege)
// =============================================================================

// DatabaseConfig provides database connection settings.
type DatabaseConfig interface {
	GetDatabaseURL() string
}

// HTTPConfig provides settings for the HTTP server.
type HTTPConfig interface {
	GetHTTPAddr() string
	GetCORSAllowAll() bool
	GetCORSOrigins() []string
}

// QueueConfig provides settings for the background task queue.
type QueueConfig interface {
	GetRedisURL() string
	GetRedisTLSInsecure() bool
	GetAsynqQueueName() string
	GetAsynqConcurrency() int
}

// MetaConfig provides settings for the Meta Graph API integration.
type MetaConfig interface {
	GetGraphAPIBaseURL() string
	GetMetaVerifyToken() string
	GetWhatsAppAccessToken() string
	GetWhatsAppPhoneNumberID() string
	GetMessengerPageAccessToken() string
	GetInstagramAccessToken() string
}

// AIConfig provides settings for the reply-generation capability.
type AIConfig interface {
	GetGeminiAPIKey() string
	GetGeminiModel() string
	GetReplyTimeout() time.Duration
}

// PipelineConfig provides settings for the inbound message pipeline.
type PipelineConfig interface {
	GetHistoryMaxTurns() int
	GetClassifyPolicyFile() string
}

// AdminConfig provides settings for the admin API surface.
type AdminConfig interface {
	GetAdminAPIKey() string
}

// NotificationConfig provides settings for sales-team notifications.
type NotificationConfig interface {
	GetSalesTeamWhatsApp() string
	GetSalesTeamEmail() string
}

// EmailConfig provides settings for SMTP email sending.
type EmailConfig interface {
	GetSMTPHost() string
	GetSMTPPort() int
	GetSMTPUsername() string
	GetSMTPPassword() string
	GetEmailFromName() string
	GetEmailFromAddress() string
	IsEmailEnabled() bool
}

// =============================================================================
// Main Config Struct
// =============================================================================

// Config holds all application configuration values.
type Config struct {
	Env                      string
	HTTPAddr                 string
	DatabaseURL              string
	RedisURL                 string
	RedisTLSInsecure         bool
	AsynqQueueName           string
	AsynqConcurrency         int
	CORSAllowAll             bool
	CORSOrigins              []string
	GraphAPIBaseURL          string
	MetaVerifyToken          string
	WhatsAppAccessToken      string
	WhatsAppPhoneNumberID    string
	MessengerPageAccessToken string
	InstagramAccessToken     string
	GeminiAPIKey             string
	GeminiModel              string
	ReplyTimeout             time.Duration
	HistoryMaxTurns          int
	ClassifyPolicyFile       string
	AdminAPIKey              string
	SalesTeamWhatsApp        string
	SalesTeamEmail           string
	SMTPHost                 string
	SMTPPort                 int
	SMTPUsername             string
	SMTPPassword             string
	EmailFromName            string
	EmailFromAddress         string
}

// DatabaseConfig implementation
func (c *Config) GetDatabaseURL() string { return c.DatabaseURL }

// HTTPConfig implementation
func (c *Config) GetHTTPAddr() string      { return c.HTTPAddr }
func (c *Config) GetCORSAllowAll() bool    { return c.CORSAllowAll }
func (c *Config) GetCORSOrigins() []string { return c.CORSOrigins }

// QueueConfig implementation
func (c *Config) GetRedisURL() string       { return c.RedisURL }
func (c *Config) GetRedisTLSInsecure() bool { return c.RedisTLSInsecure }
func (c *Config) GetAsynqQueueName() string { return c.AsynqQueueName }
func (c *Config) GetAsynqConcurrency() int  { return c.AsynqConcurrency }

// MetaConfig implementation
func (c *Config) GetGraphAPIBaseURL() string          { return c.GraphAPIBaseURL }
func (c *Config) GetMetaVerifyToken() string          { return c.MetaVerifyToken }
func (c *Config) GetWhatsAppAccessToken() string      { return c.WhatsAppAccessToken }
func (c *Config) GetWhatsAppPhoneNumberID() string    { return c.WhatsAppPhoneNumberID }
func (c *Config) GetMessengerPageAccessToken() string { return c.MessengerPageAccessToken }
func (c *Config) GetInstagramAccessToken() string     { return c.InstagramAccessToken }

// AIConfig implementation
func (c *Config) GetGeminiAPIKey() string        { return c.GeminiAPIKey }
func (c *Config) GetGeminiModel() string         { return c.GeminiModel }
func (c *Config) GetReplyTimeout() time.Duration { return c.ReplyTimeout }

// PipelineConfig implementation
func (c *Config) GetHistoryMaxTurns() int        { return c.HistoryMaxTurns }
func (c *Config) GetClassifyPolicyFile() string  { return c.ClassifyPolicyFile }

// AdminConfig implementation
func (c *Config) GetAdminAPIKey() string { return c.AdminAPIKey }

// NotificationConfig implementation
func (c *Config) GetSalesTeamWhatsApp() string { return c.SalesTeamWhatsApp }
func (c *Config) GetSalesTeamEmail() string    { return c.SalesTeamEmail }

// EmailConfig implementation
func (c *Config) GetSMTPHost() string         { return c.SMTPHost }
func (c *Config) GetSMTPPort() int            { return c.SMTPPort }
func (c *Config) GetSMTPUsername() string     { return c.SMTPUsername }
func (c *Config) GetSMTPPassword() string     { return c.SMTPPassword }
func (c *Config) GetEmailFromName() string    { return c.EmailFromName }
func (c *Config) GetEmailFromAddress() string { return c.EmailFromAddress }
func (c *Config) IsEmailEnabled() bool        { return c.SMTPHost != "" && c.EmailFromAddress != "" }

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Env:                      getEnv("APP_ENV", "development"),
		HTTPAddr:                 getEnv("HTTP_ADDR", ":8080"),
		DatabaseURL:              getEnv("DATABASE_URL", ""),
		RedisURL:                 getEnv("REDIS_URL", ""),
		RedisTLSInsecure:         strings.EqualFold(getEnv("REDIS_TLS_INSECURE", "false"), "true"),
		AsynqQueueName:           getEnv("ASYNQ_QUEUE", "default"),
		AsynqConcurrency:         mustInt(getEnv("ASYNQ_CONCURRENCY", "10")),
		CORSAllowAll:             strings.EqualFold(getEnv("CORS_ALLOW_ALL", "false"), "true"),
		CORSOrigins:              splitCSV(getEnv("CORS_ORIGINS", "http://localhost:4200")),
		GraphAPIBaseURL:          getEnv("GRAPH_API_BASE_URL", "https://graph.facebook.com/v21.0"),
		MetaVerifyToken:          getEnv("META_VERIFY_TOKEN", ""),
		WhatsAppAccessToken:      getEnv("WHATSAPP_ACCESS_TOKEN", ""),
		WhatsAppPhoneNumberID:    getEnv("WHATSAPP_PHONE_NUMBER_ID", ""),
		MessengerPageAccessToken: getEnv("MESSENGER_PAGE_ACCESS_TOKEN", ""),
		InstagramAccessToken:     getEnv("INSTAGRAM_ACCESS_TOKEN", ""),
		GeminiAPIKey:             getEnv("GEMINI_API_KEY", ""),
		GeminiModel:              getEnv("GEMINI_MODEL", "gemini-2.0-flash"),
		ReplyTimeout:             mustDuration(getEnv("REPLY_TIMEOUT", "30s")),
		HistoryMaxTurns:          mustInt(getEnv("HISTORY_MAX_TURNS", "20")),
		ClassifyPolicyFile:       getEnv("CLASSIFY_POLICY_FILE", ""),
		AdminAPIKey:              getEnv("ADMIN_API_KEY", ""),
		SalesTeamWhatsApp:        getEnv("SALES_TEAM_WHATSAPP", ""),
		SalesTeamEmail:           getEnv("SALES_TEAM_EMAIL", ""),
		SMTPHost:                 getEnv("SMTP_HOST", ""),
		SMTPPort:                 mustInt(getEnv("SMTP_PORT", "587")),
		SMTPUsername:             getEnv("SMTP_USERNAME", ""),
		SMTPPassword:             getEnv("SMTP_PASSWORD", ""),
		EmailFromName:            getEnv("EMAIL_FROM_NAME", "Real Estate Bot"),
		EmailFromAddress:         getEnv("EMAIL_FROM_ADDRESS", ""),
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}
	if cfg.RedisURL == "" {
		return nil, fmt.Errorf("REDIS_URL is required")
	}
	if cfg.MetaVerifyToken == "" {
		return nil, fmt.Errorf("META_VERIFY_TOKEN is required")
	}
	if cfg.GeminiAPIKey == "" {
		return nil, fmt.Errorf("GEMINI_API_KEY is required")
	}
	if cfg.AdminAPIKey == "" {
		return nil, fmt.Errorf("ADMIN_API_KEY is required")
	}
	if cfg.HistoryMaxTurns < 1 {
		cfg.HistoryMaxTurns = 20
	}
	if cfg.ReplyTimeout <= 0 {
		cfg.ReplyTimeout = 30 * time.Second
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if val, ok := os.LookupEnv(key); ok {
		return val
	}
	return fallback
}

func mustDuration(value string) time.Duration {
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0
	}
	return d
}

func mustInt(value string) int {
	result, err := strconv.Atoi(value)
	if err != nil {
		return 0
	}
	return result
}

func splitCSV(value string) []string {
	parts := strings.Split(value, ",")
	results := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			results = append(results, trimmed)
		}
	}
	return results
}
