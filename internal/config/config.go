package config

import (
	"errors"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

const (
	defaultAppPort     = "8080"
	defaultSessionTTL  = 30 * time.Minute
	defaultPaygateURL  = "https://paygate.novalnet.de/paygate.jsp"
	defaultPayportURL  = "https://payport.novalnet.de/paygate.jsp"
	defaultShopBaseURL = "http://localhost:8080"
)

var ErrMissingDBHost = errors.New("environment variables not loaded properly: DB_HOST is empty")

type Config struct {
	AppEnv    string
	AppPort   string
	SecretKey string

	DBHost     string
	DBUser     string
	DBPassword string
	DBName     string
	DBPort     string

	RedisAddr     string
	RedisPassword string
	RedisDB       int
	SessionTTL    time.Duration

	ShopBaseURL string
	Novalnet    NovalnetConfig
}

// NovalnetConfig holds merchant credentials and gateway endpoints.
type NovalnetConfig struct {
	VendorID   string
	AuthCode   string
	ProductID  string
	TariffID   string
	TestMode   bool
	AccessKey  string
	PaygateURL string
	PayportURL string
}

func LoadConfig() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		AppEnv:    os.Getenv("APP_ENV"),
		AppPort:   getEnv("APP_PORT", defaultAppPort),
		SecretKey: os.Getenv("SECRET_KEY"),

		DBHost:     os.Getenv("DB_HOST"),
		DBUser:     os.Getenv("DB_USER"),
		DBPassword: os.Getenv("DB_PASSWORD"),
		DBName:     os.Getenv("DB_NAME"),
		DBPort:     os.Getenv("DB_PORT"),

		RedisAddr:     os.Getenv("REDIS_ADDR"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),
		RedisDB:       getEnvInt("REDIS_DB", 0),
		SessionTTL:    getEnvDuration("SESSION_TTL", defaultSessionTTL),

		ShopBaseURL: getEnv("SHOP_BASE_URL", defaultShopBaseURL),
		Novalnet: NovalnetConfig{
			VendorID:   os.Getenv("NOVALNET_VENDOR_ID"),
			AuthCode:   os.Getenv("NOVALNET_AUTH_CODE"),
			ProductID:  os.Getenv("NOVALNET_PRODUCT_ID"),
			TariffID:   os.Getenv("NOVALNET_TARIFF_ID"),
			TestMode:   getEnvBool("NOVALNET_TEST_MODE", false),
			AccessKey:  os.Getenv("NOVALNET_ACCESS_KEY"),
			PaygateURL: getEnv("NOVALNET_PAYGATE_URL", defaultPaygateURL),
			PayportURL: getEnv("NOVALNET_PAYPORT_URL", defaultPayportURL),
		},
	}

	if cfg.DBHost == "" {
		return nil, ErrMissingDBHost
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	v, err := strconv.Atoi(os.Getenv(key))
	if err != nil {
		return fallback
	}
	return v
}

func getEnvBool(key string, fallback bool) bool {
	v, err := strconv.ParseBool(os.Getenv(key))
	if err != nil {
		return fallback
	}
	return v
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	v, err := time.ParseDuration(os.Getenv(key))
	if err != nil || v <= 0 {
		return fallback
	}
	return v
}
