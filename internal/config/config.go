package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	NATS     NATSConfig     `yaml:"nats"`
	MinIO    MinIOConfig    `yaml:"minio"`
	Piv      PivConfig      `yaml:"piv"`
	Worker   WorkerConfig   `yaml:"worker"`
	Logging  LoggingConfig  `yaml:"logging"`
}

type ServerConfig struct {
	Port   int    `yaml:"port"`
	APIKey string `yaml:"api_key"`
}

type DatabaseConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Name     string `yaml:"name"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	MaxConns int    `yaml:"max_conns"`
}

func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=disable",
		d.User, d.Password, d.Host, d.Port, d.Name)
}

type NATSConfig struct {
	URL string `yaml:"url"`
}

type MinIOConfig struct {
	Endpoint  string `yaml:"endpoint"`
	AccessKey string `yaml:"access_key"`
	SecretKey string `yaml:"secret_key"`
	Bucket    string `yaml:"bucket"`
	UseSSL    bool   `yaml:"use_ssl"`
}

// PivConfig holds the model paths and processing defaults for the
// credential pipeline. pivworker.NewPipeline reads only the two model
// paths; the other fields are loaded and defaulted but not applied to
// the ProcessingOptions a job runs with.
type PivConfig struct {
	DetectorModelPath  string  `yaml:"detector_model_path"`
	LandmarkModelPath  string  `yaml:"landmark_model_path"`
	DefaultPreset      string  `yaml:"default_preset"`
	MinFaceConfidence  float64 `yaml:"min_face_confidence"`
	MaxRotationDegrees float64 `yaml:"max_rotation_degrees"`
	ROIStartLevel      int     `yaml:"roi_start_level"`
	EnableROI          bool    `yaml:"enable_roi"`
	AlignROI           bool    `yaml:"align_roi"`
	MaxRetries         int     `yaml:"max_retries"`
}

// WorkerConfig controls the queue-consuming worker pool that drains
// CREDENTIAL_JOBS.
type WorkerConfig struct {
	Concurrency       int           `yaml:"concurrency"`
	ProcessingTimeout time.Duration `yaml:"processing_timeout"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Load reads config from YAML file and applies environment variable overrides.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	cfg := &Config{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	applyEnvOverrides(cfg)
	setDefaults(cfg)

	return cfg, nil
}

func setDefaults(cfg *Config) {
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Database.Port == 0 {
		cfg.Database.Port = 5432
	}
	if cfg.Database.MaxConns == 0 {
		cfg.Database.MaxConns = 20
	}
	if cfg.Piv.DefaultPreset == "" {
		cfg.Piv.DefaultPreset = "piv_balanced"
	}
	if cfg.Piv.MinFaceConfidence == 0 {
		cfg.Piv.MinFaceConfidence = 0.8
	}
	if cfg.Piv.MaxRotationDegrees == 0 {
		cfg.Piv.MaxRotationDegrees = 15.0
	}
	if cfg.Piv.ROIStartLevel == 0 {
		cfg.Piv.ROIStartLevel = 3
	}
	if cfg.Piv.MaxRetries == 0 {
		cfg.Piv.MaxRetries = 2
	}
	if cfg.Worker.Concurrency == 0 {
		cfg.Worker.Concurrency = 4
	}
	if cfg.Worker.ProcessingTimeout == 0 {
		cfg.Worker.ProcessingTimeout = 30 * time.Second
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "json"
	}
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("PIV_SERVER_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}
	if v := os.Getenv("PIV_API_KEY"); v != "" {
		cfg.Server.APIKey = v
	}
	if v := os.Getenv("PIV_DB_HOST"); v != "" {
		cfg.Database.Host = v
	}
	if v := os.Getenv("PIV_DB_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Database.Port = port
		}
	}
	if v := os.Getenv("PIV_DB_NAME"); v != "" {
		cfg.Database.Name = v
	}
	if v := os.Getenv("PIV_DB_USER"); v != "" {
		cfg.Database.User = v
	}
	if v := os.Getenv("PIV_DB_PASSWORD"); v != "" {
		cfg.Database.Password = v
	}
	if v := os.Getenv("PIV_NATS_URL"); v != "" {
		cfg.NATS.URL = v
	}
	if v := os.Getenv("PIV_MINIO_ENDPOINT"); v != "" {
		cfg.MinIO.Endpoint = v
	}
	if v := os.Getenv("PIV_MINIO_ACCESS_KEY"); v != "" {
		cfg.MinIO.AccessKey = v
	}
	if v := os.Getenv("PIV_MINIO_SECRET_KEY"); v != "" {
		cfg.MinIO.SecretKey = v
	}
	if v := os.Getenv("PIV_MINIO_BUCKET"); v != "" {
		cfg.MinIO.Bucket = v
	}
	if v := os.Getenv("PIV_DETECTOR_MODEL_PATH"); v != "" {
		cfg.Piv.DetectorModelPath = v
	}
	if v := os.Getenv("PIV_LANDMARK_MODEL_PATH"); v != "" {
		cfg.Piv.LandmarkModelPath = v
	}
	if v := os.Getenv("PIV_DEFAULT_PRESET"); v != "" {
		cfg.Piv.DefaultPreset = v
	}
	if v := os.Getenv("PIV_WORKER_CONCURRENCY"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Worker.Concurrency = n
		}
	}
}
