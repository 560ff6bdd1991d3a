package config

import (
	"fmt"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Config holds everything the service reads from the environment.
type Config struct {
	HTTPAddr        string        `env:"HTTP_ADDR" envDefault:":8000"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"10s"`

	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"text"`

	DB    DBConfig
	Image ImageConfig
}

// DBConfig describes the MySQL connection and its pool.
type DBConfig struct {
	Host            string        `env:"DB_HOST"`
	Port            int           `env:"DB_PORT" envDefault:"3306"`
	User            string        `env:"DB_USER"`
	Password        string        `env:"DB_PASSWORD"`
	Name            string        `env:"DB_NAME"`
	MaxOpenConns    int           `env:"DB_MAX_OPEN_CONNS" envDefault:"10"`
	MaxIdleConns    int           `env:"DB_MAX_IDLE_CONNS" envDefault:"5"`
	ConnMaxLifetime time.Duration `env:"DB_CONN_MAX_LIFETIME" envDefault:"5m"`
}

// ImageConfig selects and configures the image host.
type ImageConfig struct {
	Host     string `env:"IMAGE_HOST" envDefault:"cloudinary"`
	Folder   string `env:"IMAGE_FOLDER" envDefault:"schools"`
	MaxBytes int64  `env:"MAX_IMAGE_BYTES" envDefault:"5242880"`

	CloudName string `env:"CLOUDINARY_CLOUD_NAME"`
	APIKey    string `env:"CLOUDINARY_API_KEY"`
	APISecret string `env:"CLOUDINARY_API_SECRET"`

	AWSRegion    string `env:"AWS_REGION"`
	AWSAccessKey string `env:"AWS_ACCESS_KEY_ID"`
	AWSSecretKey string `env:"AWS_SECRET_ACCESS_KEY"`
	S3Bucket     string `env:"S3_BUCKET"`
	S3Endpoint   string `env:"S3_ENDPOINT"`
}

const (
	ImageHostCloudinary = "cloudinary"
	ImageHostS3         = "s3"
)

// Load reads an optional .env file and then parses the process environment.
// Variables already set in the environment win over the file.
func Load(files ...string) (Config, error) {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if _, err := os.Stat(f); err != nil {
			continue
		}
		if err := godotenv.Load(f); err != nil {
			return Config{}, fmt.Errorf("load %s: %w", f, err)
		}
	}

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) validate() error {
	switch c.Image.Host {
	case ImageHostCloudinary, ImageHostS3:
	default:
		return fmt.Errorf("IMAGE_HOST must be %q or %q, got %q", ImageHostCloudinary, ImageHostS3, c.Image.Host)
	}
	if c.Image.MaxBytes <= 0 {
		return fmt.Errorf("MAX_IMAGE_BYTES must be positive")
	}
	if c.DB.MaxOpenConns < 0 || c.DB.MaxIdleConns < 0 {
		return fmt.Errorf("database pool sizes must not be negative")
	}
	return nil
}
