package app

import (
	"fmt"
	"os"
	"time"

	yaml "gopkg.in/yaml.v3"
)

// Config holds runtime configuration for the application.
type Config struct {
	// Output
	OutputDir string
	PDF       bool

	// HTTP server
	Addr        string
	FrontendDir string

	// LLM
	LLMBaseURL string
	LLMModel   string
	LLMAPIKey  string

	// Prompting
	Voice        string
	StyleRefPath string

	// Fetch chain
	Strategies    []string
	Timeout       time.Duration
	RenderTimeout time.Duration
	RetryAttempts int
	MinBodyChars  int
	UserAgent     string
	ReaderBaseURL string

	// Transcripts
	Language string

	Verbose bool
}

// FileConfig is the optional YAML configuration schema. Flags win over file
// values; the file fills in whatever the flags left at their zero value.
type FileConfig struct {
	Output struct {
		Dir string `yaml:"dir"`
		PDF bool   `yaml:"pdf"`
	} `yaml:"output"`

	Serve struct {
		Addr     string `yaml:"addr"`
		Frontend string `yaml:"frontend"`
	} `yaml:"serve"`

	LLM struct {
		BaseURL string `yaml:"base"`
		Model   string `yaml:"model"`
		APIKey  string `yaml:"key"`
	} `yaml:"llm"`

	Prompt struct {
		Voice    string `yaml:"voice"`
		StyleRef string `yaml:"styleRef"`
	} `yaml:"prompt"`

	Fetch struct {
		Strategies    []string      `yaml:"strategies"`
		Timeout       time.Duration `yaml:"timeout"`
		RenderTimeout time.Duration `yaml:"renderTimeout"`
		RetryAttempts int           `yaml:"retryAttempts"`
		MinBodyChars  int           `yaml:"minBodyChars"`
		UserAgent     string        `yaml:"userAgent"`
		ReaderBase    string        `yaml:"readerBase"`
	} `yaml:"fetch"`

	Language string `yaml:"language"`
}

// LoadFileConfig reads and parses the YAML config at path.
func LoadFileConfig(path string) (*FileConfig, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}
	var fc FileConfig
	if err := yaml.Unmarshal(b, &fc); err != nil {
		return nil, fmt.Errorf("parse config file: %w", err)
	}
	return &fc, nil
}

// Merge fills zero-valued cfg fields from the file config.
func (fc *FileConfig) Merge(cfg *Config) {
	if cfg.OutputDir == "" {
		cfg.OutputDir = fc.Output.Dir
	}
	if !cfg.PDF {
		cfg.PDF = fc.Output.PDF
	}
	if cfg.Addr == "" {
		cfg.Addr = fc.Serve.Addr
	}
	if cfg.FrontendDir == "" {
		cfg.FrontendDir = fc.Serve.Frontend
	}
	if cfg.LLMBaseURL == "" {
		cfg.LLMBaseURL = fc.LLM.BaseURL
	}
	if cfg.LLMModel == "" {
		cfg.LLMModel = fc.LLM.Model
	}
	if cfg.LLMAPIKey == "" {
		cfg.LLMAPIKey = fc.LLM.APIKey
	}
	if cfg.Voice == "" {
		cfg.Voice = fc.Prompt.Voice
	}
	if cfg.StyleRefPath == "" {
		cfg.StyleRefPath = fc.Prompt.StyleRef
	}
	if len(cfg.Strategies) == 0 {
		cfg.Strategies = fc.Fetch.Strategies
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = fc.Fetch.Timeout
	}
	if cfg.RenderTimeout == 0 {
		cfg.RenderTimeout = fc.Fetch.RenderTimeout
	}
	if cfg.RetryAttempts == 0 {
		cfg.RetryAttempts = fc.Fetch.RetryAttempts
	}
	if cfg.MinBodyChars == 0 {
		cfg.MinBodyChars = fc.Fetch.MinBodyChars
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = fc.Fetch.UserAgent
	}
	if cfg.ReaderBaseURL == "" {
		cfg.ReaderBaseURL = fc.Fetch.ReaderBase
	}
	if cfg.Language == "" {
		cfg.Language = fc.Language
	}
}
