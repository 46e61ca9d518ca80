package config

import (
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
)

type Config struct {
	Env        string     `yaml:"env" env:"ENV" env-default:"production"`
	HTTPServer HTTPServer `yaml:"http_server"`
	Firebase   Firebase   `yaml:"firebase"`
	MinIO      MinIO      `yaml:"minio"`
	Media      Media      `yaml:"media"`
	Redis      Redis      `yaml:"redis"`
	Feed       Feed       `yaml:"feed"`
	Auth       Auth       `yaml:"auth"`
	Demo       Demo       `yaml:"demo"`
}

type HTTPServer struct {
	Address        string   `yaml:"address" env:"HTTP_ADDRESS" env-default:"localhost:8080"`
	AllowedOrigins []string `yaml:"allowed_origins" env:"HTTP_ALLOWED_ORIGINS" env-default:"http://localhost:5173"`
}

type Firebase struct {
	ProjectID       string `yaml:"project_id" env:"FIREBASE_PROJECT_ID"`
	CredentialsFile string `yaml:"credentials_file" env:"FIREBASE_CREDENTIALS_PATH" env-default:"./serviceAccountKey.json"`
}

type MinIO struct {
	Endpoint        string `yaml:"endpoint" env:"MINIO_ENDPOINT" env-default:"localhost:9000"`
	AccessKeyID     string `yaml:"access_key_id" env:"MINIO_ACCESS_KEY_ID" env-default:"minioadmin"`
	SecretAccessKey string `yaml:"secret_access_key" env:"MINIO_SECRET_ACCESS_KEY" env-default:"minioadmin"`
	BucketName      string `yaml:"bucket_name" env:"MINIO_BUCKET" env-default:"angelia-media"`
	UseSSL          bool   `yaml:"use_ssl" env:"MINIO_USE_SSL" env-default:"false"`
	PublicBaseURL   string `yaml:"public_base_url" env:"MINIO_PUBLIC_BASE_URL"`
}

type Media struct {
	AllowedMimeTypes []string `yaml:"allowed_mime_types" env-default:"image/jpeg,image/png,image/gif,image/webp,video/mp4,video/quicktime"`
	MaxFileSize      int64    `yaml:"max_file_size" env-default:"52428800"`
	MaxFilesPerPost  int      `yaml:"max_files_per_post" env-default:"10"`
}

type Redis struct {
	Address  string `yaml:"address" env:"REDIS_ADDRESS" env-default:"localhost:6379"`
	Password string `yaml:"password" env:"REDIS_PASSWORD"`
	DB       int    `yaml:"db" env:"REDIS_DB" env-default:"0"`
}

type Feed struct {
	CustomChannelLimit int           `yaml:"custom_channel_limit" env-default:"3"`
	InviteOrigin       string        `yaml:"invite_origin" env:"INVITE_ORIGIN" env-default:"http://localhost:5173"`
	PostsPerMinute     int64         `yaml:"posts_per_minute" env-default:"20"`
	ReactionsPerMinute int64         `yaml:"reactions_per_minute" env-default:"60"`
	SweepInterval      time.Duration `yaml:"sweep_interval" env-default:"1h"`
	SweepGrace         time.Duration `yaml:"sweep_grace" env-default:"15m"`
}

type Auth struct {
	// Provider is "firebase" or "local".
	Provider string `yaml:"provider" env:"AUTH_PROVIDER" env-default:"firebase"`

	// JWTSecret signs the local provider's tokens. Required when Provider
	// is "local".
	JWTSecret string        `yaml:"jwt_secret" env:"JWT_SECRET"`
	TokenTTL  time.Duration `yaml:"token_ttl" env-default:"24h"`

	// VerifyBaseURL is where the local provider's verification links point.
	VerifyBaseURL string `yaml:"verify_base_url" env:"VERIFY_BASE_URL" env-default:"http://localhost:8080"`
}

type Demo struct {
	// MediaBaseURL is followed by the session id and object key in the
	// URLs of demo uploads.
	MediaBaseURL string        `yaml:"media_base_url" env-default:"http://localhost:8080/demo-media"`
	SessionTTL   time.Duration `yaml:"session_ttl" env-default:"1h"`
	MaxSessions  int           `yaml:"max_sessions" env-default:"200"`
}

// IsLocal reports whether the service runs on a developer machine.
func (c *Config) IsLocal() bool {
	return c.Env == "local"
}

// Load reads the YAML file at path, letting environment variables override it.
func Load(path string) (*Config, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, fmt.Errorf("config file does not exist at path: %s", path)
	}

	var cfg Config
	if err := cleanenv.ReadConfig(path, &cfg); err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	if cfg.Auth.Provider != "firebase" && cfg.Auth.Provider != "local" {
		return nil, fmt.Errorf("unknown auth provider %q", cfg.Auth.Provider)
	}
	if cfg.Auth.Provider == "local" && cfg.Auth.JWTSecret == "" {
		return nil, fmt.Errorf("auth.jwt_secret (JWT_SECRET) is required with the local auth provider")
	}

	return &cfg, nil
}

func MustLoad() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}

	configPath := os.Getenv("CONFIG_PATH")

	if configPath == "" {
		flags := flag.String("config", "", "Path to config file")
		flag.Parse()
		configPath = *flags

		if configPath == "" {
			log.Fatal("config path must be provided")
		}
	}

	cfg, err := Load(configPath)
	if err != nil {
		log.Fatal(err)
	}

	return cfg
}
