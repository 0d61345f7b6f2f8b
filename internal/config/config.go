package config

import (
	"log"
	"os"
	"runtime"
	"sync"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Server    ServerConfig
	App       AppConfig
	Cache     CacheConfig
	Storage   StorageConfig
	Drive     DriveConfig
	Analytics AnalyticsConfig
}

type ServerConfig struct {
	Port           string
	Mode           string
	ReadTimeout    int
	WriteTimeout   int
	AllowedOrigins []string
	MaxUploadMB    int
}

type AppConfig struct {
	UploadDir   string
	OutputDir   string
	LogLevel    string
	LogJSON     bool
	WorkerCount int
}

type CacheConfig struct {
	Enabled       bool
	RedisURL      string
	RedisHost     string
	RedisPort     string
	RedisPassword string
	RedisDB       int
	TTLSeconds    int
}

// StorageConfig points at an S3-compatible bucket holding upload files.
type StorageConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	Region    string
	UseSSL    bool
}

type DriveConfig struct {
	CredentialsJSON string
	FolderID        string
}

// AnalyticsConfig overrides the business assumptions of the rate card.
// Zero values keep the defaults.
type AnalyticsConfig struct {
	ReferralRate        float64
	FulfillmentStandard float64
	FulfillmentOversize float64
	StorageRate         float64
	OpportunityCostRate float64
	TargetMarginPct     float64
	PriceElasticity     float64
	PPCMonthlyBudget    float64
	PPCSalesLift        float64
	ListingSalesLift    float64
}

var (
	once     sync.Once
	instance *Config
)

func Load() *Config {
	once.Do(func() {
		// Load .env file if it exists
		_ = godotenv.Load()

		viper.SetDefault("SERVER_PORT", "8080")
		viper.SetDefault("SERVER_MODE", "debug")
		viper.SetDefault("SERVER_READ_TIMEOUT", 15)
		viper.SetDefault("SERVER_WRITE_TIMEOUT", 30)
		viper.SetDefault("SERVER_ALLOWED_ORIGINS", []string{"*"})
		viper.SetDefault("SERVER_MAX_UPLOAD_MB", 20)
		viper.SetDefault("APP_UPLOAD_DIR", "./data/uploads")
		viper.SetDefault("APP_OUTPUT_DIR", "./data/output")
		viper.SetDefault("LOG_LEVEL", "info")
	viper.SetDefault("LOG_JSON", false)
		viper.SetDefault("PIPELINE_WORKERS", runtime.NumCPU())
		viper.SetDefault("CACHE_ENABLED", false)
		viper.SetDefault("REDIS_URL", "")
		viper.SetDefault("REDIS_HOST", "127.0.0.1")
		viper.SetDefault("REDIS_PORT", "6379")
		viper.SetDefault("REDIS_PASSWORD", "")
		viper.SetDefault("REDIS_DB", 0)
		viper.SetDefault("CACHE_TTL_SECONDS", 300)
		viper.SetDefault("S3_REGION", "us-east-1")
		viper.SetDefault("S3_USE_SSL", true)

		// Read from environment variables
		viper.AutomaticEnv()

		ensureDir(viper.GetString("APP_UPLOAD_DIR"))
		ensureDir(viper.GetString("APP_OUTPUT_DIR"))

		instance = &Config{
			Server: ServerConfig{
				Port:           viper.GetString("SERVER_PORT"),
				Mode:           viper.GetString("SERVER_MODE"),
				ReadTimeout:    viper.GetInt("SERVER_READ_TIMEOUT"),
				WriteTimeout:   viper.GetInt("SERVER_WRITE_TIMEOUT"),
				AllowedOrigins: viper.GetStringSlice("SERVER_ALLOWED_ORIGINS"),
				MaxUploadMB:    viper.GetInt("SERVER_MAX_UPLOAD_MB"),
			},
			App: AppConfig{
				UploadDir:   viper.GetString("APP_UPLOAD_DIR"),
				OutputDir:   viper.GetString("APP_OUTPUT_DIR"),
				LogLevel:    viper.GetString("LOG_LEVEL"),
				LogJSON:     viper.GetBool("LOG_JSON"),
				WorkerCount: viper.GetInt("PIPELINE_WORKERS"),
			},
			Cache: CacheConfig{
				Enabled:       viper.GetBool("CACHE_ENABLED"),
				RedisURL:      viper.GetString("REDIS_URL"),
				RedisHost:     viper.GetString("REDIS_HOST"),
				RedisPort:     viper.GetString("REDIS_PORT"),
				RedisPassword: viper.GetString("REDIS_PASSWORD"),
				RedisDB:       viper.GetInt("REDIS_DB"),
				TTLSeconds:    viper.GetInt("CACHE_TTL_SECONDS"),
			},
			Storage: StorageConfig{
				Endpoint:  viper.GetString("S3_ENDPOINT"),
				AccessKey: viper.GetString("S3_ACCESS_KEY"),
				SecretKey: viper.GetString("S3_SECRET_KEY"),
				Bucket:    viper.GetString("S3_BUCKET"),
				Region:    viper.GetString("S3_REGION"),
				UseSSL:    viper.GetBool("S3_USE_SSL"),
			},
			Drive: DriveConfig{
				CredentialsJSON: viper.GetString("GOOGLE_DRIVE_CREDENTIALS_JSON"),
				FolderID:        viper.GetString("DRIVE_FOLDER_ID"),
			},
			Analytics: AnalyticsConfig{
				ReferralRate:        viper.GetFloat64("ANALYTICS_REFERRAL_RATE"),
				FulfillmentStandard: viper.GetFloat64("ANALYTICS_FULFILLMENT_STANDARD"),
				FulfillmentOversize: viper.GetFloat64("ANALYTICS_FULFILLMENT_OVERSIZE"),
				StorageRate:         viper.GetFloat64("ANALYTICS_STORAGE_RATE"),
				OpportunityCostRate: viper.GetFloat64("ANALYTICS_OPPORTUNITY_COST_RATE"),
				TargetMarginPct:     viper.GetFloat64("ANALYTICS_TARGET_MARGIN_PCT"),
				PriceElasticity:     viper.GetFloat64("ANALYTICS_PRICE_ELASTICITY"),
				PPCMonthlyBudget:    viper.GetFloat64("ANALYTICS_PPC_MONTHLY_BUDGET"),
				PPCSalesLift:        viper.GetFloat64("ANALYTICS_PPC_SALES_LIFT"),
				ListingSalesLift:    viper.GetFloat64("ANALYTICS_LISTING_SALES_LIFT"),
			},
		}
	})

	return instance
}

func ensureDir(dir string) {
	if dir == "" {
		return
	}
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		if err := os.MkdirAll(dir, 0755); err != nil {
			log.Fatalf("Failed to create directory %s: %v", dir, err)
		}
	}
}
