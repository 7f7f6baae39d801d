package config

import (
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	App       AppConfig
	DB        DBConfig
	Redis     RedisConfig
	JWT       JWTConfig
	Payment   PaymentConfig
	Reconcile ReconcileConfig
}

type AppConfig struct {
	Port           string
	Env            string
	LogLevel       string
	SlotCacheTTL   time.Duration
	AllowedOrigins []string
}

type DBConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	Name     string
	SSLMode  string
}

type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
}

type JWTConfig struct {
	Secret        string
	AccessExpiry  time.Duration
	RefreshExpiry time.Duration
}

type PaymentConfig struct {
	Provider          string
	Currency          string
	Timeout           time.Duration
	StripeSecretKey   string
	RazorpayKeyID     string
	RazorpayKeySecret string
}

type ReconcileConfig struct {
	Schedule  string
	MinAge    time.Duration
	BatchSize int
}

func LoadConfig() (*Config, error) {
	viper.SetConfigFile(".env")
	viper.AutomaticEnv()

	viper.SetDefault("APP_PORT", "8080")
	viper.SetDefault("APP_ENV", "development")
	viper.SetDefault("LOG_LEVEL", "info")
	viper.SetDefault("CORS_ALLOWED_ORIGINS", "*")
	viper.SetDefault("DB_SSLMODE", "disable")
	viper.SetDefault("PAYMENT_PROVIDER", "stripe")
	viper.SetDefault("PAYMENT_CURRENCY", "usd")
	viper.SetDefault("RECONCILE_SCHEDULE", "@every 5m")
	viper.SetDefault("RECONCILE_BATCH_SIZE", 50)

	if err := viper.ReadInConfig(); err != nil {
		return nil, err
	}

	config := &Config{
		App: AppConfig{
			Port:           viper.GetString("APP_PORT"),
			Env:            viper.GetString("APP_ENV"),
			LogLevel:       viper.GetString("LOG_LEVEL"),
			SlotCacheTTL:   parseDuration("SLOT_CACHE_TTL", 24*time.Hour),
			AllowedOrigins: splitList(viper.GetString("CORS_ALLOWED_ORIGINS")),
		},
		DB: DBConfig{
			Host:     viper.GetString("DB_HOST"),
			Port:     viper.GetString("DB_PORT"),
			User:     viper.GetString("DB_USER"),
			Password: viper.GetString("DB_PASSWORD"),
			Name:     viper.GetString("DB_NAME"),
			SSLMode:  viper.GetString("DB_SSLMODE"),
		},
		Redis: RedisConfig{
			Host:     viper.GetString("REDIS_HOST"),
			Port:     viper.GetString("REDIS_PORT"),
			Password: viper.GetString("REDIS_PASSWORD"),
			DB:       viper.GetInt("REDIS_DB"),
		},
		JWT: JWTConfig{
			Secret:        viper.GetString("JWT_SECRET"),
			AccessExpiry:  parseDuration("JWT_ACCESS_EXPIRY", 15*time.Minute),
			RefreshExpiry: parseDuration("JWT_REFRESH_EXPIRY", 7*24*time.Hour),
		},
		Payment: PaymentConfig{
			Provider:          strings.ToLower(viper.GetString("PAYMENT_PROVIDER")),
			Currency:          strings.ToLower(viper.GetString("PAYMENT_CURRENCY")),
			Timeout:           parseDuration("PAYMENT_TIMEOUT", 10*time.Second),
			StripeSecretKey:   viper.GetString("STRIPE_SECRET_KEY"),
			RazorpayKeyID:     viper.GetString("RAZORPAY_KEY_ID"),
			RazorpayKeySecret: viper.GetString("RAZORPAY_KEY_SECRET"),
		},
		Reconcile: ReconcileConfig{
			Schedule:  viper.GetString("RECONCILE_SCHEDULE"),
			MinAge:    parseDuration("RECONCILE_MIN_AGE", 2*time.Minute),
			BatchSize: viper.GetInt("RECONCILE_BATCH_SIZE"),
		},
	}

	return config, nil
}

// parseDuration falls back when the key is unset or not a valid duration.
func parseDuration(key string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(viper.GetString(key))
	if err != nil || d <= 0 {
		return fallback
	}
	return d
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
