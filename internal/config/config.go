package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/xxxsen/common/logger"
)

type Config struct {
	Port      int              `json:"port"`
	JWTSecret string           `json:"jwt_secret"`
	LogConfig logger.LogConfig `json:"log_config"`
	Database  DatabaseConfig   `json:"database"`
	AI        AIConfig         `json:"ai"`
	STT       STTConfig        `json:"stt"`
	FileStore FileStoreConfig  `json:"file_store"`
	Sandbox   SandboxConfig    `json:"sandbox"`
	Index     IndexConfig      `json:"index"`
	Search    SearchConfig     `json:"search"`
	Advisor   AdvisorConfig    `json:"advisor"`
	Session   SessionConfig    `json:"session"`
	RateLimit RateLimitConfig  `json:"rate_limit"`
	CORS      []string         `json:"cors_allowlist"`
}

type DatabaseConfig struct {
	DSN      string `json:"dsn"`
	Host     string `json:"host"`
	Port     int    `json:"port"`
	User     string `json:"user"`
	Password string `json:"password"`
	DBName   string `json:"db_name"`
	SSLMode  string `json:"ssl_mode"`
}

type ProviderConfig struct {
	Provider string      `json:"provider"`
	Model    string      `json:"model"`
	Data     interface{} `json:"data"`
}

type AIConfig struct {
	Embed      []ProviderConfig `json:"embed"`
	Generate   []ProviderConfig `json:"generate"`
	EmbedDim   int              `json:"embed_dim"`
	TimeoutSec int              `json:"timeout_sec"`
}

type STTConfig struct {
	Engine         string      `json:"engine"`
	Data           interface{} `json:"data"`
	MaxDurationSec int         `json:"max_duration_sec"`
	TimeoutSec     int         `json:"timeout_sec"`
}

type FileStoreConfig struct {
	Type      string   `json:"type"`
	Dir       string   `json:"dir"`
	PublicURL string   `json:"public_url"`
	S3        S3Config `json:"s3"`
}

type S3Config struct {
	Endpoint  string `json:"endpoint"`
	SecretID  string `json:"secret_id"`
	SecretKey string `json:"secret_key"`
	Bucket    string `json:"bucket"`
	Region    string `json:"region"`
	Prefix    string `json:"prefix"`
	UseSSL    bool   `json:"use_ssl"`
}

type SandboxConfig struct {
	AllowedRoots []string `json:"allowed_roots"`
}

type IndexConfig struct {
	MaxFileBytes  int64    `json:"max_file_bytes"`
	MaxChunkChars int      `json:"max_chunk_chars"`
	OverlapLines  int      `json:"overlap_lines"`
	Extensions    []string `json:"extensions"`
}

type SearchConfig struct {
	Overfetch     int `json:"overfetch"`
	MaxQueryChars int `json:"max_query_chars"`
	MaxTopK       int `json:"max_top_k"`
}

type AdvisorConfig struct {
	TimeoutSec   int `json:"timeout_sec"`
	SnippetLimit int `json:"snippet_limit"`
}

type SessionConfig struct {
	IdleTTLMinutes     int    `json:"idle_ttl_minutes"`
	CleanupSpec        string `json:"cleanup_spec"`
	MaxScreenshotBytes int64  `json:"max_screenshot_bytes"`
}

type RateLimitConfig struct {
	IndexMS      int `json:"index_ms"`
	SearchMS     int `json:"search_ms"`
	TranscribeMS int `json:"transcribe_ms"`
	AdviseMS     int `json:"advise_ms"`
	ScreenshotMS int `json:"screenshot_ms"`
	RepoListMS   int `json:"repo_list_ms"`
	RepoDeleteMS int `json:"repo_delete_ms"`
}

func Load(path string) (*Config, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open config: %w", err)
	}
	defer file.Close()

	var cfg Config
	if err := json.NewDecoder(file).Decode(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if cfg.Port == 0 {
		return nil, fmt.Errorf("port is required")
	}
	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("jwt_secret is required")
	}
	if cfg.Database.DSN == "" && cfg.Database.Host == "" {
		return nil, fmt.Errorf("database.dsn or database.host is required")
	}
	if len(cfg.Sandbox.AllowedRoots) == 0 {
		return nil, fmt.Errorf("sandbox.allowed_roots must not be empty")
	}
	if cfg.LogConfig.Level == "" {
		cfg.LogConfig.Level = "info"
	}
	if cfg.AI.EmbedDim == 0 {
		cfg.AI.EmbedDim = 768
	}
	// The code_chunks embedding column is declared vector(768); reject other
	// dimensions here instead of failing on the first upsert.
	if cfg.AI.EmbedDim != 768 {
		return nil, fmt.Errorf("ai.embed_dim must be 768 to match the embedding column, got %d", cfg.AI.EmbedDim)
	}
	if cfg.AI.TimeoutSec == 0 {
		cfg.AI.TimeoutSec = 30
	}
	if cfg.STT.MaxDurationSec == 0 {
		cfg.STT.MaxDurationSec = 60
	}
	if cfg.STT.TimeoutSec == 0 {
		cfg.STT.TimeoutSec = 20
	}
	if cfg.FileStore.Type == "" {
		cfg.FileStore.Type = "local"
	}
	switch cfg.FileStore.Type {
	case "local":
		if cfg.FileStore.Dir == "" {
			return nil, fmt.Errorf("file_store.dir is required for local store")
		}
	case "s3":
		if cfg.FileStore.S3.Endpoint == "" || cfg.FileStore.S3.Bucket == "" || cfg.FileStore.S3.SecretID == "" || cfg.FileStore.S3.SecretKey == "" {
			return nil, fmt.Errorf("file_store.s3 endpoint/bucket/secret_id/secret_key are required for s3 store")
		}
		if cfg.FileStore.S3.Region == "" {
			cfg.FileStore.S3.Region = "us-east-1"
		}
	default:
		return nil, fmt.Errorf("file_store.type must be local or s3")
	}
	if cfg.Index.MaxFileBytes == 0 {
		cfg.Index.MaxFileBytes = 1 << 20
	}
	if cfg.Index.MaxChunkChars == 0 {
		cfg.Index.MaxChunkChars = 1000
	}
	if cfg.Index.OverlapLines == 0 {
		cfg.Index.OverlapLines = 2
	}
	if len(cfg.Index.Extensions) == 0 {
		cfg.Index.Extensions = []string{
			".py", ".swift", ".js", ".ts", ".tsx", ".jsx",
			".go", ".rs", ".java", ".kt", ".cpp", ".c", ".h",
			".md", ".txt", ".json", ".yaml", ".yml",
		}
	}
	if cfg.Search.Overfetch == 0 {
		cfg.Search.Overfetch = 4
	}
	if cfg.Search.MaxQueryChars == 0 {
		cfg.Search.MaxQueryChars = 2000
	}
	if cfg.Search.MaxTopK == 0 {
		cfg.Search.MaxTopK = 50
	}
	if cfg.Advisor.TimeoutSec == 0 {
		cfg.Advisor.TimeoutSec = 10
	}
	if cfg.Advisor.SnippetLimit == 0 {
		cfg.Advisor.SnippetLimit = 3
	}
	if cfg.Session.IdleTTLMinutes == 0 {
		cfg.Session.IdleTTLMinutes = 120
	}
	if cfg.Session.CleanupSpec == "" {
		cfg.Session.CleanupSpec = "*/30 * * * *"
	}
	if cfg.Session.MaxScreenshotBytes == 0 {
		cfg.Session.MaxScreenshotBytes = 8 << 20
	}
	if cfg.RateLimit.IndexMS == 0 {
		cfg.RateLimit.IndexMS = 6000
	}
	if cfg.RateLimit.SearchMS == 0 {
		cfg.RateLimit.SearchMS = 1000
	}
	if cfg.RateLimit.TranscribeMS == 0 {
		cfg.RateLimit.TranscribeMS = 500
	}
	if cfg.RateLimit.AdviseMS == 0 {
		cfg.RateLimit.AdviseMS = 2000
	}
	if cfg.RateLimit.ScreenshotMS == 0 {
		cfg.RateLimit.ScreenshotMS = 1000
	}
	if cfg.RateLimit.RepoListMS == 0 {
		cfg.RateLimit.RepoListMS = 1000
	}
	if cfg.RateLimit.RepoDeleteMS == 0 {
		cfg.RateLimit.RepoDeleteMS = 2000
	}
	return &cfg, nil
}
