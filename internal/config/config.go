package config

import (
	"strings"

	"github.com/spf13/viper"
)

// Config holds all configuration for the application, read by Viper from a
// config file or environment variables.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	S3       S3Config       `mapstructure:"s3"`
	JWT      JWTConfig      `mapstructure:"jwt"`
	Media    MediaConfig    `mapstructure:"media"`
}

type ServerConfig struct {
	Address string `mapstructure:"address"`
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
	UseSSL          bool   `mapstructure:"use_ssl"`
}

// JWTConfig carries the verification secret; token issuance belongs to the
// identity service.
type JWTConfig struct {
	Secret string `mapstructure:"secret"`
}

type MediaConfig struct {
	// Upper bounds for multipart uploads, in bytes.
	MaxVideoBytes     int64 `mapstructure:"max_video_bytes"`
	MaxThumbnailBytes int64 `mapstructure:"max_thumbnail_bytes"`
}

// LoadConfig reads configuration from file or environment variables.
func LoadConfig(path string) (config Config, err error) {
	viper.AddConfigPath(path)
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")

	viper.AutomaticEnv()
	// server.address -> SERVER_ADDRESS and so on.
	viper.SetEnvKeyReplacer(strings.NewReplacer(`.`, `_`))

	viper.SetDefault("server.address", ":8080")
	viper.SetDefault("database.uri", "mongodb://localhost:27017")
	viper.SetDefault("database.name", "streamtube")
	viper.SetDefault("s3.use_ssl", true)
	viper.SetDefault("media.max_video_bytes", int64(2<<30))
	viper.SetDefault("media.max_thumbnail_bytes", int64(8<<20))

	err = viper.ReadInConfig()
	if _, ok := err.(viper.ConfigFileNotFoundError); ok {
		// Config file is optional; env vars and defaults may be enough.
		err = nil
	} else if err != nil {
		return
	}

	err = viper.Unmarshal(&config)
	return
}
