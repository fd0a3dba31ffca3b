package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// OpenAIEmbedderConfig holds configuration for the OpenAI-compatible embedder.
type OpenAIEmbedderConfig struct {
	BaseURL     string `yaml:"base_url"`
	APIKeyEnv   string `yaml:"api_key_env"`
	Model       string `yaml:"model"`
	TimeoutSecs int    `yaml:"timeout_secs"`
}

// EmbedderConfig selects the embedder that feeds diversity re-ranking.
// Type "none" keeps retrieval purely lexical.
type EmbedderConfig struct {
	Type   string                `yaml:"type"`
	OpenAI *OpenAIEmbedderConfig `yaml:"openai,omitempty"`
}

// ChunkerConfig configures how documents are split into chunks.
type ChunkerConfig struct {
	Type              string `yaml:"type"`
	MaxWords          int    `yaml:"max_words"`
	OverlapWords      int    `yaml:"overlap_words"`
	SentencesPerChunk int    `yaml:"sentences_per_chunk"`
	OverlapSentences  int    `yaml:"overlap_sentences"`
}

// RetrievalConfig tunes query scoring and re-ranking.
type RetrievalConfig struct {
	TopK             int     `yaml:"top_k"`
	MMRLambda        float64 `yaml:"mmr_lambda"`
	CandidatePool    int     `yaml:"candidate_pool"`
	SummarySentences int     `yaml:"summary_sentences"`
}

// ServerConfig configures the HTTP surface and its worker.
type ServerConfig struct {
	Addr            string   `yaml:"addr"`
	AllowedOrigins  []string `yaml:"allowed_origins"`
	QueueSize       int      `yaml:"queue_size"`
	WatchDir        string   `yaml:"watch_dir"`
	WatchDebounceMs int      `yaml:"watch_debounce_ms"`
	MaxUploadMB     int      `yaml:"max_upload_mb"`
}

// ChatProviderConfig configures one upstream chat model.
type ChatProviderConfig struct {
	Model     string `yaml:"model"`
	APIKeyEnv string `yaml:"api_key_env"`
	BaseURL   string `yaml:"base_url,omitempty"`
}

// LLMConfig lists the chat providers the proxy may forward to.
type LLMConfig struct {
	OpenAI *ChatProviderConfig `yaml:"openai,omitempty"`
	Gemini *ChatProviderConfig `yaml:"gemini,omitempty"`
}

// LogConfig configures structured logging.
type LogConfig struct {
	Level       string `yaml:"level"`
	Development bool   `yaml:"development"`
}

// AppConfig is the root application configuration structure.
type AppConfig struct {
	Chunker   ChunkerConfig   `yaml:"chunker"`
	Retrieval RetrievalConfig `yaml:"retrieval"`
	Embedder  EmbedderConfig  `yaml:"embedder"`
	Server    ServerConfig    `yaml:"server"`
	LLM       LLMConfig       `yaml:"llm"`
	Log       LogConfig       `yaml:"log"`
}

// Load reads a config from a specified path. If the file does not exist, returns defaults.
func Load(path string) (*AppConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return defaultConfig(), nil
		}
		return nil, err
	}
	var cfg AppConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}
	applyConfigDefaults(&cfg)
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return &cfg, nil
}

// LoadDefault tries ./config.yaml first, then ~/.config/scadarag/config.yaml.
// If neither exists, it writes defaults to ~/.config/scadarag/config.yaml and returns them.
func LoadDefault() (*AppConfig, string, error) {
	cwdPath := "config.yaml"
	if _, err := os.Stat(cwdPath); err == nil {
		cfg, err := Load(cwdPath)
		return cfg, cwdPath, err
	}
	userPath, err := defaultUserConfigPath()
	if err != nil {
		return nil, "", err
	}
	if _, err := os.Stat(userPath); err == nil {
		cfg, err := Load(userPath)
		return cfg, userPath, err
	}
	cfg := defaultConfig()
	if err := Save(userPath, cfg); err != nil {
		return nil, "", err
	}
	return cfg, userPath, nil
}

// Save writes the config to the given path, creating directories as needed.
func Save(path string, cfg *AppConfig) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// Validate rejects settings the retrieval pipeline cannot run with.
func (c *AppConfig) Validate() error {
	switch c.Chunker.Type {
	case "word":
		if c.Chunker.OverlapWords < 0 || c.Chunker.OverlapWords >= c.Chunker.MaxWords {
			return fmt.Errorf("chunker.overlap_words must be in [0, max_words), got %d with max_words %d",
				c.Chunker.OverlapWords, c.Chunker.MaxWords)
		}
	case "sentence":
		if c.Chunker.OverlapSentences < 0 || c.Chunker.OverlapSentences >= c.Chunker.SentencesPerChunk {
			return fmt.Errorf("chunker.overlap_sentences must be in [0, sentences_per_chunk)")
		}
	default:
		return fmt.Errorf("unknown chunker type %q", c.Chunker.Type)
	}
	if c.Retrieval.MMRLambda < 0 || c.Retrieval.MMRLambda > 1 {
		return fmt.Errorf("retrieval.mmr_lambda must be within [0, 1], got %v", c.Retrieval.MMRLambda)
	}
	switch c.Embedder.Type {
	case "none", "tfidf":
	case "openai":
		if c.Embedder.OpenAI == nil {
			return errors.New("embedder.openai section missing")
		}
	default:
		return fmt.Errorf("unknown embedder type %q", c.Embedder.Type)
	}
	return nil
}

func defaultUserConfigPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "scadarag", "config.yaml"), nil
}

func defaultConfig() *AppConfig {
	cfg := &AppConfig{
		Chunker:   ChunkerConfig{Type: "word", MaxWords: 1000, OverlapWords: 150, SentencesPerChunk: 5, OverlapSentences: 1},
		Retrieval: RetrievalConfig{TopK: 5, MMRLambda: 0.7, CandidatePool: 20, SummarySentences: 3},
		Embedder:  EmbedderConfig{Type: "none"},
	}
	applyConfigDefaults(cfg)
	return cfg
}

func applyConfigDefaults(cfg *AppConfig) {
	if cfg.Chunker.Type == "" {
		cfg.Chunker.Type = "word"
	}
	if cfg.Chunker.MaxWords == 0 {
		cfg.Chunker.MaxWords = 1000
		if cfg.Chunker.OverlapWords == 0 {
			cfg.Chunker.OverlapWords = 150
		}
	}
	if cfg.Chunker.SentencesPerChunk == 0 {
		cfg.Chunker.SentencesPerChunk = 5
	}
	if cfg.Retrieval.TopK <= 0 {
		cfg.Retrieval.TopK = 5
	}
	// zero reads as unset; a pure-diversity ranking is never useful here
	if cfg.Retrieval.MMRLambda == 0 {
		cfg.Retrieval.MMRLambda = 0.7
	}
	if cfg.Retrieval.CandidatePool < cfg.Retrieval.TopK {
		cfg.Retrieval.CandidatePool = 4 * cfg.Retrieval.TopK
	}
	if cfg.Retrieval.SummarySentences <= 0 {
		cfg.Retrieval.SummarySentences = 3
	}
	if cfg.Embedder.Type == "" {
		cfg.Embedder.Type = "none"
	}
	if cfg.Embedder.Type == "openai" && cfg.Embedder.OpenAI != nil {
		if cfg.Embedder.OpenAI.BaseURL == "" {
			cfg.Embedder.OpenAI.BaseURL = "https://api.openai.com/v1"
		}
		if cfg.Embedder.OpenAI.APIKeyEnv == "" {
			cfg.Embedder.OpenAI.APIKeyEnv = "OPENAI_API_KEY"
		}
		if cfg.Embedder.OpenAI.Model == "" {
			cfg.Embedder.OpenAI.Model = "text-embedding-3-small"
		}
		if cfg.Embedder.OpenAI.TimeoutSecs == 0 {
			cfg.Embedder.OpenAI.TimeoutSecs = 30
		}
	}
	if cfg.Server.Addr == "" {
		cfg.Server.Addr = ":8080"
	}
	if len(cfg.Server.AllowedOrigins) == 0 {
		cfg.Server.AllowedOrigins = []string{"http://localhost:*", "http://127.0.0.1:*"}
	}
	if cfg.Server.WatchDebounceMs <= 0 {
		cfg.Server.WatchDebounceMs = 500
	}
	if cfg.Server.QueueSize <= 0 {
		cfg.Server.QueueSize = 64
	}
	if cfg.Server.MaxUploadMB <= 0 {
		cfg.Server.MaxUploadMB = 32
	}
	if cfg.LLM.OpenAI == nil {
		cfg.LLM.OpenAI = &ChatProviderConfig{}
	}
	if cfg.LLM.OpenAI.Model == "" {
		cfg.LLM.OpenAI.Model = "gpt-4o-mini"
	}
	if cfg.LLM.OpenAI.APIKeyEnv == "" {
		cfg.LLM.OpenAI.APIKeyEnv = "OPENAI_API_KEY"
	}
	if cfg.LLM.Gemini == nil {
		cfg.LLM.Gemini = &ChatProviderConfig{}
	}
	if cfg.LLM.Gemini.Model == "" {
		cfg.LLM.Gemini.Model = "gemini-1.5-flash"
	}
	if cfg.LLM.Gemini.APIKeyEnv == "" {
		cfg.LLM.Gemini.APIKeyEnv = "GEMINI_API_KEY"
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
}
