package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

type Config struct {
	Server     ServerConfig     `mapstructure:"server"`
	Database   DatabaseConfig   `mapstructure:"database"`
	Redis      RedisConfig      `mapstructure:"redis"`
	Queue      QueueConfig      `mapstructure:"queue"`
	Ingest     IngestConfig     `mapstructure:"ingest"`
	LLM        LLMConfig        `mapstructure:"llm"`
	Transcribe TranscribeConfig `mapstructure:"transcribe"`
	Dedup      DedupConfig      `mapstructure:"dedup"`
	OSS        OSSConfig        `mapstructure:"oss"`
	CORS       CORSConfig       `mapstructure:"cors"`
}

type ServerConfig struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
	Mode string `mapstructure:"mode"`
}

type DatabaseConfig struct {
	Host         string `mapstructure:"host"`
	Port         int    `mapstructure:"port"`
	Username     string `mapstructure:"username"`
	Password     string `mapstructure:"password"`
	Database     string `mapstructure:"database"`
	MaxIdleConns int    `mapstructure:"max_idle_conns"`
	MaxOpenConns int    `mapstructure:"max_open_conns"`
}

type RedisConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	PoolSize int    `mapstructure:"pool_size"`
}

type QueueConfig struct {
	IngestQueue string `mapstructure:"ingest_queue"`
	MaxWorkers  int    `mapstructure:"max_workers"`
}

type IngestConfig struct {
	UserAgent string `mapstructure:"user_agent"`
	// Seconds allowed for a single network fetch.
	FetchTimeoutSeconds int `mapstructure:"fetch_timeout_seconds"`
	// Soft wall-clock limit for a whole job; steps observe the deadline and
	// fail cleanly.
	SoftTimeLimitSeconds int `mapstructure:"soft_time_limit_seconds"`
	// Hard limit after which the watchdog force-fails the job so it can never
	// be left RUNNING.
	HardTimeLimitSeconds int `mapstructure:"hard_time_limit_seconds"`
	MaxCommentCount      int `mapstructure:"max_comment_count"`
	MaxMediaUploadMB     int `mapstructure:"max_media_upload_mb"`
	UploadDir            string `mapstructure:"upload_dir"`
}

type LLMConfig struct {
	BaseURL   string `mapstructure:"base_url"`
	APIKey    string `mapstructure:"api_key"`
	Model     string `mapstructure:"model"`
	MaxChars  int    `mapstructure:"max_chars"`
	ChunkSize int    `mapstructure:"chunk_size"`
	Overlap   int    `mapstructure:"overlap"`
}

type TranscribeConfig struct {
	// External command that takes a media path and writes JSON segments
	// [{"start_s":..,"end_s":..,"text":..}] to stdout.
	Command string   `mapstructure:"command"`
	Args    []string `mapstructure:"args"`
}

type DedupConfig struct {
	PairwiseThreshold float64 `mapstructure:"pairwise_threshold"`
	PairwiseLimit     int     `mapstructure:"pairwise_limit"`
	LexicalMinSim     float64 `mapstructure:"lexical_min_similarity"`
}

type OSSConfig struct {
	Endpoint        string `mapstructure:"endpoint"`
	AccessKeyID     string `mapstructure:"access_key_id"`
	AccessKeySecret string `mapstructure:"access_key_secret"`
	BucketName      string `mapstructure:"bucket_name"`
	CDNDomain       string `mapstructure:"cdn_domain"`
}

type CORSConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"`
	AllowedMethods []string `mapstructure:"allowed_methods"`
	AllowedHeaders []string `mapstructure:"allowed_headers"`
}

func Load(configPath string) (*Config, error) {
	// config.local.yaml holds real keys and is not committed; prefer it.
	dir := filepath.Dir(configPath)
	localConfigPath := filepath.Join(dir, "config.local.yaml")
	if _, err := os.Stat(localConfigPath); err == nil {
		configPath = localConfigPath
	}

	viper.SetConfigFile(configPath)
	viper.SetConfigType("yaml")

	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := viper.ReadInConfig(); err != nil {
		return nil, err
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	applyDefaults(&cfg)
	return &cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.Queue.IngestQueue == "" {
		cfg.Queue.IngestQueue = "ingest_jobs"
	}
	if cfg.Queue.MaxWorkers <= 0 {
		cfg.Queue.MaxWorkers = 4
	}
	if cfg.Ingest.UserAgent == "" {
		cfg.Ingest.UserAgent = "Mozilla/5.0 (ArtifactOS Research Bot)"
	}
	if cfg.Ingest.FetchTimeoutSeconds <= 0 {
		cfg.Ingest.FetchTimeoutSeconds = 15
	}
	if cfg.Ingest.SoftTimeLimitSeconds <= 0 {
		cfg.Ingest.SoftTimeLimitSeconds = 300
	}
	if cfg.Ingest.HardTimeLimitSeconds <= 0 {
		cfg.Ingest.HardTimeLimitSeconds = 600
	}
	if cfg.Ingest.MaxCommentCount <= 0 {
		cfg.Ingest.MaxCommentCount = 20
	}
	if cfg.Ingest.MaxMediaUploadMB <= 0 {
		cfg.Ingest.MaxMediaUploadMB = 100
	}
	if cfg.Ingest.UploadDir == "" {
		cfg.Ingest.UploadDir = "/tmp/research_uploads"
	}
	if cfg.LLM.MaxChars <= 0 {
		cfg.LLM.MaxChars = 25000
	}
	if cfg.LLM.ChunkSize <= 0 {
		cfg.LLM.ChunkSize = 12000
	}
	if cfg.LLM.Overlap <= 0 {
		cfg.LLM.Overlap = 500
	}
	if cfg.Dedup.PairwiseThreshold <= 0 {
		cfg.Dedup.PairwiseThreshold = 0.92
	}
	if cfg.Dedup.PairwiseLimit <= 0 {
		cfg.Dedup.PairwiseLimit = 500
	}
	if cfg.Dedup.LexicalMinSim <= 0 {
		cfg.Dedup.LexicalMinSim = 0.88
	}
}
