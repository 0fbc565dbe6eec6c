package utils

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	App        AppConfig
	Database   DatabaseConfig
	JWT        JWTConfig
	Activation ActivationConfig
	OTP        OTPConfig
	SMS        SMSConfig
	Email      EmailConfig
	Notify     NotifyConfig
	Queue      QueueConfig
	Redis      RedisConfig
	Kafka      KafkaConfig
	CORS       CORSConfig
}

type AppConfig struct {
	Name    string
	Port    string
	Debug   bool
	LogPath string
	BaseURL string
}

type DatabaseConfig struct {
	Host     string
	Port     string
	Name     string
	User     string
	Password string
	SSLMode  string
	MaxConns int32
	Migrate  bool
}

type JWTConfig struct {
	AccessSecret  string
	RefreshSecret string
	AccessTTL     time.Duration
	RefreshTTL    time.Duration
}

type ActivationConfig struct {
	Secret string
	TTL    time.Duration
}

type OTPConfig struct {
	Min                 int
	Max                 int
	SignupWindow        time.Duration
	LoginWindow         time.Duration
	PasswordResetWindow time.Duration
	ResendCooldown      time.Duration
	MaxAttempts         int
	CountryCode         string
}

type SMSConfig struct {
	Driver      string
	TwilioSID   string
	TwilioToken string
	TwilioFrom  string
	TwilioURL   string
}

type EmailConfig struct {
	Driver         string
	From           string
	SendGridAPIKey string
	SendGridURL    string
	Host           string
	Port           int
	User           string
	Password       string
}

type NotifyConfig struct {
	Timeout     time.Duration
	MaxAttempts int
}

type QueueConfig struct {
	Driver        string
	WorkerEnabled bool
}

type RedisConfig struct {
	URL     string
	MailKey string
}

type KafkaConfig struct {
	Brokers []string
	Topic   string
	GroupID string
}

type CORSConfig struct {
	AllowedOrigins []string
}

func LoadConfig() (*Config, error) {
	// .env is optional; the process environment always wins.
	_ = godotenv.Load()

	viper.SetConfigFile(".env")
	viper.SetConfigType("env")

	// Set defaults
	viper.SetDefault("APP_NAME", "medhistory")
	viper.SetDefault("PORT", "8080")
	viper.SetDefault("DEBUG", false)
	viper.SetDefault("LOG_PATH", "logs/")
	viper.SetDefault("APP_BASE_URL", "http://localhost:8080")
	viper.SetDefault("DB_MAX_CONNS", 10)
	viper.SetDefault("DB_SSLMODE", "disable")
	viper.SetDefault("DB_AUTO_MIGRATE", true)
	viper.SetDefault("JWT_ACCESS_TTL_MINUTES", 5)
	viper.SetDefault("JWT_REFRESH_TTL_HOURS", 24)
	viper.SetDefault("ACTIVATION_TTL_HOURS", 72)
	viper.SetDefault("OTP_MIN", 10101)
	viper.SetDefault("OTP_MAX", 909090)
	viper.SetDefault("OTP_SIGNUP_WINDOW_SECONDS", 50)
	viper.SetDefault("OTP_LOGIN_WINDOW_SECONDS", 50)
	viper.SetDefault("OTP_PASSWORD_RESET_WINDOW_SECONDS", 50)
	viper.SetDefault("OTP_RESEND_COOLDOWN_SECONDS", 20)
	viper.SetDefault("OTP_MAX_ATTEMPTS", 0)
	viper.SetDefault("SIGNUP_COUNTRY_CODE", "+91")
	viper.SetDefault("SMS_DRIVER", "log")
	viper.SetDefault("TWILIO_BASE_URL", "https://api.twilio.com")
	viper.SetDefault("EMAIL_DRIVER", "log")
	viper.SetDefault("SENDGRID_BASE_URL", "https://api.sendgrid.com")
	viper.SetDefault("SMTP_PORT", 465)
	viper.SetDefault("NOTIFY_TIMEOUT_SECONDS", 10)
	viper.SetDefault("NOTIFY_MAX_ATTEMPTS", 1)
	viper.SetDefault("MAIL_QUEUE_DRIVER", "none")
	viper.SetDefault("MAIL_WORKER_ENABLED", true)
	viper.SetDefault("REDIS_URL", "redis://localhost:6379/0")
	viper.SetDefault("MAIL_QUEUE_KEY", "medhistory:mail")
	viper.SetDefault("KAFKA_BROKERS", "localhost:9092")
	viper.SetDefault("KAFKA_TOPIC", "medhistory.mail")
	viper.SetDefault("KAFKA_GROUP_ID", "medhistory-mail-workers")
	viper.SetDefault("CORS_ALLOWED_ORIGINS", "*")

	if err := viper.ReadInConfig(); err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
	}

	viper.AutomaticEnv()

	config := &Config{
		App: AppConfig{
			Name:    viper.GetString("APP_NAME"),
			Port:    viper.GetString("PORT"),
			Debug:   viper.GetBool("DEBUG"),
			LogPath: viper.GetString("LOG_PATH"),
			BaseURL: strings.TrimRight(viper.GetString("APP_BASE_URL"), "/"),
		},
		Database: DatabaseConfig{
			Host:     viper.GetString("DB_HOST"),
			Port:     viper.GetString("DB_PORT"),
			Name:     viper.GetString("DB_NAME"),
			User:     viper.GetString("DB_USER"),
			Password: viper.GetString("DB_PASS"),
			SSLMode:  viper.GetString("DB_SSLMODE"),
			MaxConns: viper.GetInt32("DB_MAX_CONNS"),
			Migrate:  viper.GetBool("DB_AUTO_MIGRATE"),
		},
		JWT: JWTConfig{
			AccessSecret:  viper.GetString("JWT_ACCESS_SECRET"),
			RefreshSecret: viper.GetString("JWT_REFRESH_SECRET"),
			AccessTTL:     time.Duration(viper.GetInt("JWT_ACCESS_TTL_MINUTES")) * time.Minute,
			RefreshTTL:    time.Duration(viper.GetInt("JWT_REFRESH_TTL_HOURS")) * time.Hour,
		},
		Activation: ActivationConfig{
			Secret: viper.GetString("ACTIVATION_SECRET"),
			TTL:    time.Duration(viper.GetInt("ACTIVATION_TTL_HOURS")) * time.Hour,
		},
		OTP: OTPConfig{
			Min:                 viper.GetInt("OTP_MIN"),
			Max:                 viper.GetInt("OTP_MAX"),
			SignupWindow:        seconds("OTP_SIGNUP_WINDOW_SECONDS"),
			LoginWindow:         seconds("OTP_LOGIN_WINDOW_SECONDS"),
			PasswordResetWindow: seconds("OTP_PASSWORD_RESET_WINDOW_SECONDS"),
			ResendCooldown:      seconds("OTP_RESEND_COOLDOWN_SECONDS"),
			MaxAttempts:         viper.GetInt("OTP_MAX_ATTEMPTS"),
			CountryCode:         viper.GetString("SIGNUP_COUNTRY_CODE"),
		},
		SMS: SMSConfig{
			Driver:      viper.GetString("SMS_DRIVER"),
			TwilioSID:   viper.GetString("TWILIO_ACCOUNT_SID"),
			TwilioToken: viper.GetString("TWILIO_AUTH_TOKEN"),
			TwilioFrom:  viper.GetString("TWILIO_FROM"),
			TwilioURL:   viper.GetString("TWILIO_BASE_URL"),
		},
		Email: EmailConfig{
			Driver:         viper.GetString("EMAIL_DRIVER"),
			From:           viper.GetString("EMAIL_FROM"),
			SendGridAPIKey: viper.GetString("SENDGRID_API_KEY"),
			SendGridURL:    viper.GetString("SENDGRID_BASE_URL"),
			Host:           viper.GetString("SMTP_HOST"),
			Port:           viper.GetInt("SMTP_PORT"),
			User:           viper.GetString("SMTP_USER"),
			Password:       viper.GetString("SMTP_PASS"),
		},
		Notify: NotifyConfig{
			Timeout:     seconds("NOTIFY_TIMEOUT_SECONDS"),
			MaxAttempts: viper.GetInt("NOTIFY_MAX_ATTEMPTS"),
		},
		Queue: QueueConfig{
			Driver:        viper.GetString("MAIL_QUEUE_DRIVER"),
			WorkerEnabled: viper.GetBool("MAIL_WORKER_ENABLED"),
		},
		Redis: RedisConfig{
			URL:     viper.GetString("REDIS_URL"),
			MailKey: viper.GetString("MAIL_QUEUE_KEY"),
		},
		Kafka: KafkaConfig{
			Brokers: splitList(viper.GetString("KAFKA_BROKERS")),
			Topic:   viper.GetString("KAFKA_TOPIC"),
			GroupID: viper.GetString("KAFKA_GROUP_ID"),
		},
		CORS: CORSConfig{
			AllowedOrigins: splitList(viper.GetString("CORS_ALLOWED_ORIGINS")),
		},
	}

	return config, nil
}

func seconds(key string) time.Duration {
	return time.Duration(viper.GetInt(key)) * time.Second
}

func splitList(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// Validate rejects configurations the server cannot run with.
func (c *Config) Validate() error {
	var missing []string
	if c.JWT.AccessSecret == "" {
		missing = append(missing, "JWT_ACCESS_SECRET")
	}
	if c.JWT.RefreshSecret == "" {
		missing = append(missing, "JWT_REFRESH_SECRET")
	}
	if c.Activation.Secret == "" {
		missing = append(missing, "ACTIVATION_SECRET")
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required settings: %s", strings.Join(missing, ", "))
	}
	if c.OTP.Max <= c.OTP.Min {
		return fmt.Errorf("OTP_MAX (%d) must be greater than OTP_MIN (%d)", c.OTP.Max, c.OTP.Min)
	}
	return nil
}
