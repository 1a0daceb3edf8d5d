package config

import (
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the application.
// The values are read by Viper from a config file or environment variables.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Storage  StorageConfig  `mapstructure:"storage"`
	Upload   UploadConfig   `mapstructure:"upload"`
	Share    ShareConfig    `mapstructure:"share"`
	Auth     AuthConfig     `mapstructure:"auth"`
	Engine   EngineConfig   `mapstructure:"engine"`
	Kafka    KafkaConfig    `mapstructure:"kafka"`
}

type ServerConfig struct {
	Address string `mapstructure:"address"`
}

type DatabaseConfig struct {
	URI  string `mapstructure:"uri"`
	Name string `mapstructure:"name"`
}

// StorageConfig locates the on-disk video store. The directory is created
// lazily, on the first operation that needs it.
type StorageConfig struct {
	Dir string `mapstructure:"dir"`
}

// UploadConfig is the admission policy for incoming videos.
type UploadConfig struct {
	MaxSizeBytes       int64   `mapstructure:"max_size_bytes"`
	MinDurationSeconds float64 `mapstructure:"min_duration_seconds"`
	MaxDurationSeconds float64 `mapstructure:"max_duration_seconds"`
}

// ShareConfig controls share link issuance.
type ShareConfig struct {
	TTL time.Duration `mapstructure:"ttl"`
}

// AuthConfig holds the static API token callers must present.
type AuthConfig struct {
	Token string `mapstructure:"token"`
}

// EngineConfig names the transcoding binaries; overridable for
// non-standard installs.
type EngineConfig struct {
	FFmpegPath  string `mapstructure:"ffmpeg_path"`
	FFprobePath string `mapstructure:"ffprobe_path"`
}

// KafkaConfig enables optional event publishing.
type KafkaConfig struct {
	Enabled bool     `mapstructure:"enabled"`
	Brokers []string `mapstructure:"brokers"`
	Topic   string   `mapstructure:"topic"`
}

// LoadConfig reads configuration from file or environment variables.
func LoadConfig(path string) (config Config, err error) {
	viper.AddConfigPath(path)
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")

	// Environment variables override file values,
	// e.g. storage.dir -> STORAGE_DIR, share.ttl -> SHARE_TTL.
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(`.`, `_`))

	viper.SetDefault("server.address", ":8000")
	viper.SetDefault("database.uri", "mongodb://localhost:27017")
	viper.SetDefault("database.name", "videoverse")
	viper.SetDefault("storage.dir", "video_store")
	viper.SetDefault("upload.max_size_bytes", int64(25*1024*1024))
	viper.SetDefault("upload.min_duration_seconds", 5.0)
	viper.SetDefault("upload.max_duration_seconds", 25.0)
	viper.SetDefault("share.ttl", "24h")
	viper.SetDefault("engine.ffmpeg_path", "ffmpeg")
	viper.SetDefault("engine.ffprobe_path", "ffprobe")
	viper.SetDefault("kafka.enabled", false)
	viper.SetDefault("kafka.topic", "videoverse.events")

	err = viper.ReadInConfig()
	// A missing config file is fine; defaults and env vars still apply.
	if _, ok := err.(viper.ConfigFileNotFoundError); ok {
		err = nil
	} else if err != nil {
		return
	}

	err = viper.Unmarshal(&config)
	return
}
