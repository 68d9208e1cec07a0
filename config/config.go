// server/config/config.go
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// --- Sub-structs, mirroring config.yaml ---

type ServerConfig struct {
	Port     string `mapstructure:"port"`
	LogLevel string `mapstructure:"logLevel"`
	LogJSON  bool   `mapstructure:"logJSON"`
}

type MongoConfig struct {
	URI    string `mapstructure:"uri"`
	DBName string `mapstructure:"dbName"`
}

type JWTConfig struct {
	Secret     string `mapstructure:"secret"`
	Expiration string `mapstructure:"expiration"`
}

type S3Config struct {
	Bucket           string `mapstructure:"bucket"`
	Region           string `mapstructure:"region"`
	AccessKeyID      string `mapstructure:"accessKeyID"`
	SecretAccessKey  string `mapstructure:"secretAccessKey"`
	CloudFrontDomain string `mapstructure:"cloudFrontDomain"`
	KeyPrefix        string `mapstructure:"keyPrefix"`
}

type VisionConfig struct {
	APIKey string `mapstructure:"apiKey"`
	Model  string `mapstructure:"model"`
}

type ExternalScoringConfig struct {
	Endpoint string `mapstructure:"endpoint"`
	APIKey   string `mapstructure:"apiKey"`
}

// ScoringConfig selects and tunes the contamination scoring provider.
type ScoringConfig struct {
	Provider       string                `mapstructure:"provider"` // "vision" or "external"
	Timeout        time.Duration         `mapstructure:"timeout"`
	AlertThreshold int                   `mapstructure:"alertThreshold"`
	Vision         VisionConfig          `mapstructure:"vision"`
	External       ExternalScoringConfig `mapstructure:"external"`
}

type KafkaConfig struct {
	Brokers []string `mapstructure:"brokers"`
	Topic   string   `mapstructure:"topic"`
}

type CORSConfig struct {
	AllowedOrigins []string `mapstructure:"allowedOrigins"`
}

// --- Main Config struct ---

type Config struct {
	Server  ServerConfig  `mapstructure:"server"`
	Mongo   MongoConfig   `mapstructure:"mongo"`
	JWT     JWTConfig     `mapstructure:"jwt"`
	S3      S3Config      `mapstructure:"s3"`
	Scoring ScoringConfig `mapstructure:"scoring"`
	Kafka   KafkaConfig   `mapstructure:"kafka"`
	CORS    CORSConfig    `mapstructure:"cors"`
}

const (
	ProviderVision   = "vision"
	ProviderExternal = "external"
)

// LoadConfig reads config.yaml from path, overlays environment variables
// (including a local .env file if one exists) and validates the result.
func LoadConfig(path string) (config Config, err error) {
	// .env is optional; real deployments inject variables directly.
	_ = godotenv.Load()

	v := viper.New()
	v.AddConfigPath(path)
	v.SetConfigName("config")
	v.SetConfigType("yaml")

	setDefaults(v)

	v.AutomaticEnv()
	bindings := map[string]string{
		"mongo.uri":                 "MONGO_URI",
		"mongo.dbName":              "MONGO_DBNAME",
		"server.port":               "SERVER_PORT",
		"server.logLevel":           "LOG_LEVEL",
		"server.logJSON":            "LOG_JSON",
		"jwt.secret":                "JWT_SECRET",
		"jwt.expiration":            "JWT_EXPIRATION",
		"s3.bucket":                 "S3_BUCKET",
		"s3.region":                 "S3_REGION",
		"s3.accessKeyID":            "S3_ACCESS_KEY_ID",
		"s3.secretAccessKey":        "S3_SECRET_ACCESS_KEY",
		"s3.cloudFrontDomain":       "S3_CLOUDFRONT_DOMAIN",
		"scoring.provider":          "SCORING_PROVIDER",
		"scoring.timeout":           "SCORING_TIMEOUT",
		"scoring.alertThreshold":    "CONTAMINATION_ALERT_THRESHOLD",
		"scoring.vision.apiKey":     "GEMINI_API_KEY",
		"scoring.vision.model":      "GEMINI_MODEL",
		"scoring.external.endpoint": "AI_SCORING_ENDPOINT",
		"scoring.external.apiKey":   "AI_SCORING_API_KEY",
		"kafka.brokers":             "KAFKA_BROKERS",
		"kafka.topic":               "KAFKA_TOPIC",
		"cors.allowedOrigins":       "CORS_ALLOWED_ORIGINS",
	}
	for key, env := range bindings {
		if err = v.BindEnv(key, env); err != nil {
			return config, fmt.Errorf("bind env %s: %w", env, err)
		}
	}

	// A missing config.yaml is fine, env vars alone are enough.
	if err = v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return config, fmt.Errorf("read config: %w", err)
		}
		err = nil
	}

	if err = v.Unmarshal(&config); err != nil {
		return config, fmt.Errorf("unmarshal config: %w", err)
	}

	// Comma separated env values arrive as a single element.
	config.Kafka.Brokers = splitList(config.Kafka.Brokers)
	config.CORS.AllowedOrigins = splitList(config.CORS.AllowedOrigins)

	err = config.Validate()
	return config, err
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.logLevel", "info")
	v.SetDefault("mongo.dbName", "waste_collection")
	v.SetDefault("jwt.expiration", "24h")
	v.SetDefault("scoring.provider", ProviderVision)
	v.SetDefault("scoring.timeout", 20*time.Second)
	v.SetDefault("scoring.alertThreshold", 6)
	v.SetDefault("scoring.vision.model", "gemini-2.0-flash")
	v.SetDefault("kafka.topic", "pickup-events")
	v.SetDefault("s3.keyPrefix", "pickups")
}

// Validate checks the settings the core cannot run without.
func (c Config) Validate() error {
	switch c.Scoring.Provider {
	case ProviderVision, ProviderExternal:
	default:
		return fmt.Errorf("scoring.provider must be %q or %q, got %q", ProviderVision, ProviderExternal, c.Scoring.Provider)
	}
	if c.Scoring.Provider == ProviderExternal && c.Scoring.External.Endpoint == "" {
		return errors.New("scoring.external.endpoint is required for the external provider")
	}
	if c.Scoring.AlertThreshold < 1 || c.Scoring.AlertThreshold > 10 {
		return fmt.Errorf("scoring.alertThreshold must be within 1..10, got %d", c.Scoring.AlertThreshold)
	}
	if c.Scoring.Timeout <= 0 {
		return errors.New("scoring.timeout must be positive")
	}
	return nil
}

func splitList(in []string) []string {
	var out []string
	for _, item := range in {
		for _, part := range strings.Split(item, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}
