package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the service.
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Redis    RedisConfig
	Storage  StorageConfig
	Events   EventsConfig
	Pipeline PipelineConfig
	Auth     AuthConfig
	Upload   UploadConfig
	Logging  LoggingConfig
	Tracing  TracingConfig
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port            int
	Host            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
	RateLimitRPS    int
	RateLimitBurst  int
}

// DatabaseConfig holds Postgres configuration. Used only when
// `database.enabled` is true; otherwise the in-memory catalog is used.
type DatabaseConfig struct {
	Enabled  bool
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
	SSLMode  string
	MaxConns int
	MinConns int
}

// RedisConfig holds the progress-cache configuration.
type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// StorageConfig selects and configures the artifact store backend.
type StorageConfig struct {
	Backend string // "local" or "s3"
	// Local backend
	RootDir string
	// S3/MinIO backend
	Endpoint        string
	AccessKeyID     string
	SecretAccessKey string
	BucketName      string
	Region          string
	UseSSL          bool
}

// EventsConfig configures the optional RabbitMQ lifecycle event publisher.
type EventsConfig struct {
	Enabled  bool
	Host     string
	Port     int
	User     string
	Password string
	Vhost    string
	Exchange string
}

// PipelineConfig holds transcoding pipeline configuration.
type PipelineConfig struct {
	WorkerCount   int
	QueueSize     int
	TempDir       string
	FFmpegPath    string
	FFprobePath   string
	Ladder        []int
	ProbeTimeout  time.Duration
	EncodeTimeout time.Duration
	ThumbTimeout  time.Duration
	ProgressTTL   time.Duration
}

// AuthConfig holds JWT verification configuration.
type AuthConfig struct {
	JWTSecret string
}

// UploadConfig bounds what the upload endpoint accepts.
type UploadConfig struct {
	MaxSizeBytes      int64
	AllowedExtensions []string
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level  string
	Format string
}

// TracingConfig holds Jaeger configuration.
type TracingConfig struct {
	Enabled        bool
	ServiceName    string
	JaegerEndpoint string
}

// Load reads configuration from file and environment variables.
func Load(configPath string) (*Config, error) {
	viper.SetConfigFile(configPath)
	viper.SetConfigType("yaml")
	viper.AutomaticEnv()

	setDefaults()

	if err := viper.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &config, nil
}

func setDefaults() {
	viper.SetDefault("server.port", 8080)
	viper.SetDefault("server.host", "0.0.0.0")
	viper.SetDefault("server.readTimeout", "30s")
	// Streaming responses pace themselves, so no global write timeout.
	viper.SetDefault("server.writeTimeout", "0")
	viper.SetDefault("server.shutdownTimeout", "10s")
	viper.SetDefault("server.rateLimitRPS", 10)
	viper.SetDefault("server.rateLimitBurst", 20)

	viper.SetDefault("database.enabled", false)
	viper.SetDefault("database.host", "localhost")
	viper.SetDefault("database.port", 5432)
	viper.SetDefault("database.user", "postgres")
	viper.SetDefault("database.password", "postgres")
	viper.SetDefault("database.dbname", "vodhub")
	viper.SetDefault("database.sslmode", "disable")
	viper.SetDefault("database.maxConns", 25)
	viper.SetDefault("database.minConns", 5)

	viper.SetDefault("redis.host", "localhost")
	viper.SetDefault("redis.port", 6379)
	viper.SetDefault("redis.password", "")
	viper.SetDefault("redis.db", 0)

	viper.SetDefault("storage.backend", "local")
	viper.SetDefault("storage.rootDir", "./data")
	viper.SetDefault("storage.endpoint", "localhost:9000")
	viper.SetDefault("storage.accessKeyID", "minioadmin")
	viper.SetDefault("storage.secretAccessKey", "minioadmin")
	viper.SetDefault("storage.bucketName", "videos")
	viper.SetDefault("storage.region", "us-east-1")
	viper.SetDefault("storage.useSSL", false)

	viper.SetDefault("events.enabled", false)
	viper.SetDefault("events.host", "localhost")
	viper.SetDefault("events.port", 5672)
	viper.SetDefault("events.user", "guest")
	viper.SetDefault("events.password", "guest")
	viper.SetDefault("events.vhost", "/")
	viper.SetDefault("events.exchange", "vodhub.videos")

	viper.SetDefault("pipeline.workerCount", 2)
	viper.SetDefault("pipeline.queueSize", 16)
	viper.SetDefault("pipeline.tempDir", "/tmp/vodhub")
	viper.SetDefault("pipeline.ffmpegPath", "ffmpeg")
	viper.SetDefault("pipeline.ffprobePath", "ffprobe")
	viper.SetDefault("pipeline.ladder", []int{1080, 720, 480, 360})
	viper.SetDefault("pipeline.probeTimeout", "30s")
	viper.SetDefault("pipeline.encodeTimeout", "30m")
	viper.SetDefault("pipeline.thumbTimeout", "1m")
	viper.SetDefault("pipeline.progressTTL", "24h")

	viper.SetDefault("auth.jwtSecret", "")

	viper.SetDefault("upload.maxSizeBytes", 500*1024*1024) // 500MB
	viper.SetDefault("upload.allowedExtensions", []string{".mp4", ".mov", ".avi", ".wmv", ".flv", ".mkv"})

	viper.SetDefault("logging.level", "info")
	viper.SetDefault("logging.format", "json")

	viper.SetDefault("tracing.enabled", false)
	viper.SetDefault("tracing.serviceName", "vodhub")
	viper.SetDefault("tracing.jaegerEndpoint", "http://localhost:14268/api/traces")
}
