package config

import (
	"errors"
	"log"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all configuration for the application.
// The values are read by Viper from a config file or environment variables.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	S3       S3Config       `mapstructure:"s3"`
	JWT      JWTConfig      `mapstructure:"jwt"`
	Reports  ReportsConfig  `mapstructure:"reports"`
	Push     PushConfig     `mapstructure:"push"`
	Entries  EntriesConfig  `mapstructure:"entries"`
}

type ServerConfig struct {
	Address string `mapstructure:"address"`
	Mode    string `mapstructure:"mode"` // gin mode: debug, release, test
}

type DatabaseConfig struct {
	URI  string `mapstructure:"uri"`
	Name string `mapstructure:"name"`
}

type S3Config struct {
	Endpoint        string `mapstructure:"endpoint"`
	Region          string `mapstructure:"region"`
	AccessKeyID     string `mapstructure:"access_key_id"`
	SecretAccessKey string `mapstructure:"secret_access_key"`
	BucketName      string `mapstructure:"bucket_name"`
}

// Enabled reports whether report export has somewhere to write.
func (c S3Config) Enabled() bool {
	return c.BucketName != ""
}

// JWTConfig defines JWT specific configuration
type JWTConfig struct {
	Secret     string        `mapstructure:"secret"`
	Expiration time.Duration `mapstructure:"expiration"`
}

// ReportsConfig controls the summary CSV export.
type ReportsConfig struct {
	Prefix    string        `mapstructure:"prefix"`
	Schedule  string        `mapstructure:"schedule"` // cron spec, empty disables scheduled export
	URLExpiry time.Duration `mapstructure:"url_expiry"`
}

// PushConfig configures the SNS push channel. Without a platform application
// ARN push is disabled and only local notifications are sent.
type PushConfig struct {
	Region                 string        `mapstructure:"region"`
	AccessKeyID            string        `mapstructure:"access_key_id"`
	SecretAccessKey        string        `mapstructure:"secret_access_key"`
	PlatformApplicationARN string        `mapstructure:"platform_application_arn"`
	Timeout                time.Duration `mapstructure:"timeout"`
}

func (c PushConfig) Enabled() bool {
	return c.PlatformApplicationARN != ""
}

type EntriesConfig struct {
	RecentScope string `mapstructure:"recent_scope"` // "owner" or "all"
}

// LoadConfig reads configuration from file or environment variables.
// A .env file in path, if present, is loaded into the environment first.
func LoadConfig(path string) (config Config, err error) {
	if err := godotenv.Load(path + "/.env"); err == nil {
		log.Println("INFO: Loaded environment from .env")
	}

	v := viper.New()
	v.AddConfigPath(path)
	v.SetConfigName("config")
	v.SetConfigType("yaml")

	// Use replacer for nested keys e.g., server.address -> SERVER_ADDRESS
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(`.`, `_`))

	setDefaults(v)

	err = v.ReadInConfig()
	var notFound viper.ConfigFileNotFoundError
	if errors.As(err, &notFound) {
		// No config file; rely on defaults and env vars
		err = nil
	} else if err != nil {
		return
	}

	// Viper parses duration strings ("60m", "1h") into time.Duration fields
	if err = v.Unmarshal(&config); err != nil {
		return
	}

	if config.JWT.Secret == "" {
		return config, errors.New("jwt.secret must be set")
	}
	return config, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.address", ":8080")
	v.SetDefault("server.mode", "debug")
	v.SetDefault("database.uri", "mongodb://localhost:27017")
	v.SetDefault("database.name", "fitlog")
	v.SetDefault("jwt.expiration", "1h")
	// AutomaticEnv only resolves keys viper already knows about
	v.SetDefault("jwt.secret", "")
	v.SetDefault("s3.endpoint", "")
	v.SetDefault("s3.region", "us-east-1")
	v.SetDefault("s3.access_key_id", "")
	v.SetDefault("s3.secret_access_key", "")
	v.SetDefault("s3.bucket_name", "")
	v.SetDefault("reports.prefix", "reports")
	v.SetDefault("reports.schedule", "")
	v.SetDefault("reports.url_expiry", "15m")
	v.SetDefault("push.region", "us-east-1")
	v.SetDefault("push.access_key_id", "")
	v.SetDefault("push.secret_access_key", "")
	v.SetDefault("push.platform_application_arn", "")
	v.SetDefault("push.timeout", "10s")
	v.SetDefault("entries.recent_scope", "all")
}
