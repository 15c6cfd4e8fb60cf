package config

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v2"
)

// Config is the merged application and corpora configuration
type Config struct {
	App     AppConfig      `yaml:"app"`
	NGram   NGramConfig    `yaml:"ngram"`
	Corpora []CorpusConfig `yaml:"corpora"`
}

// AppConfig holds process-level settings
type AppConfig struct {
	Port           int    `yaml:"port"`
	LogLevel       string `yaml:"log_level"`
	NumFileThreads int    `yaml:"num_file_threads"`
	// GCThreshold triggers a GC after this many walked files, 0 disables
	GCThreshold int64 `yaml:"gc_threshold"`
}

// NGramConfig holds the defaults used for every corpus
type NGramConfig struct {
	MaxOrder  int         `yaml:"max_order"`
	MaxSkip   int         `yaml:"max_skip"`
	Tokenizer string      `yaml:"tokenizer"`
	Workers   int         `yaml:"workers"`
	Bloom     BloomConfig `yaml:"bloom"`
}

// BloomConfig sizes the optional membership filter
type BloomConfig struct {
	Enabled           bool    `yaml:"enabled"`
	ExpectedItems     uint    `yaml:"expected_items"`
	FalsePositiveRate float64 `yaml:"false_positive_rate"`
}

// CorpusConfig names a directory to ingest. Language overrides extension
// based detection; MaxOrder and MaxSkip override the ngram defaults when set.
type CorpusConfig struct {
	Name     string `yaml:"name"`
	Path     string `yaml:"path"`
	Language string `yaml:"language,omitempty"`
	MaxOrder int    `yaml:"max_order,omitempty"`
	MaxSkip  *int   `yaml:"max_skip,omitempty"`
}

type corporaFile struct {
	Corpora []CorpusConfig `yaml:"corpora"`
}

// Default returns a configuration with every default applied
func Default() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

// LoadConfig reads the application config and, when corporaConfigPath is not
// empty, appends the corpora listed in that file. Defaults are applied and
// the result is validated.
func LoadConfig(appConfigPath, corporaConfigPath string) (*Config, error) {
	cfg := &Config{}
	if appConfigPath != "" {
		if err := readYAML(appConfigPath, cfg); err != nil {
			return nil, err
		}
	}

	if corporaConfigPath != "" {
		var cf corporaFile
		if err := readYAML(corporaConfigPath, &cf); err != nil {
			return nil, err
		}
		cfg.Corpora = append(cfg.Corpora, cf.Corpora...)
	}

	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func readYAML(path string, out any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config %s: %w", path, err)
	}
	if err := yaml.UnmarshalStrict(data, out); err != nil {
		return fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	return nil
}

func (c *Config) applyDefaults() {
	if c.App.Port == 0 {
		c.App.Port = 8080
	}
	if c.App.LogLevel == "" {
		c.App.LogLevel = "info"
	}
	if c.App.NumFileThreads == 0 {
		c.App.NumFileThreads = 2
	}
	if c.NGram.MaxOrder == 0 {
		c.NGram.MaxOrder = 3
	}
	if c.NGram.Tokenizer == "" {
		c.NGram.Tokenizer = "word"
	}
	if c.NGram.Bloom.ExpectedItems == 0 {
		c.NGram.Bloom.ExpectedItems = 100000
	}
	if c.NGram.Bloom.FalsePositiveRate == 0 {
		c.NGram.Bloom.FalsePositiveRate = 0.01
	}
}

// Validate rejects settings the collections would refuse
func (c *Config) Validate() error {
	var errs []error
	if c.App.Port < 0 || c.App.Port > 65535 {
		errs = append(errs, fmt.Errorf("app.port out of range: %d", c.App.Port))
	}
	if c.App.NumFileThreads < 1 {
		errs = append(errs, fmt.Errorf("app.num_file_threads must be >= 1: %d", c.App.NumFileThreads))
	}
	if c.NGram.MaxOrder < 1 {
		errs = append(errs, fmt.Errorf("ngram.max_order must be >= 1: %d", c.NGram.MaxOrder))
	}
	if c.NGram.MaxSkip < 0 {
		errs = append(errs, fmt.Errorf("ngram.max_skip must be >= 0: %d", c.NGram.MaxSkip))
	}
	if r := c.NGram.Bloom.FalsePositiveRate; r <= 0 || r >= 1 {
		errs = append(errs, fmt.Errorf("ngram.bloom.false_positive_rate must be in (0, 1): %g", r))
	}

	seen := make(map[string]bool, len(c.Corpora))
	for i, corpus := range c.Corpora {
		switch {
		case corpus.Name == "":
			errs = append(errs, fmt.Errorf("corpora[%d]: name is required", i))
		case seen[corpus.Name]:
			errs = append(errs, fmt.Errorf("corpora[%d]: duplicate name %q", i, corpus.Name))
		}
		seen[corpus.Name] = true
		if corpus.MaxOrder < 0 {
			errs = append(errs, fmt.Errorf("corpora[%d]: max_order must be >= 0: %d", i, corpus.MaxOrder))
		}
		if corpus.MaxSkip != nil && *corpus.MaxSkip < 0 {
			errs = append(errs, fmt.Errorf("corpora[%d]: max_skip must be >= 0: %d", i, *corpus.MaxSkip))
		}
	}
	return errors.Join(errs...)
}

// GetCorpus returns the corpus with the given name
func (c *Config) GetCorpus(name string) (*CorpusConfig, bool) {
	for i := range c.Corpora {
		if c.Corpora[i].Name == name {
			return &c.Corpora[i], true
		}
	}
	return nil, false
}

// Bounds returns the effective max order and max skip for corpus
func (c *Config) Bounds(corpus *CorpusConfig) (maxOrder, maxSkip int) {
	maxOrder, maxSkip = c.NGram.MaxOrder, c.NGram.MaxSkip
	if corpus == nil {
		return maxOrder, maxSkip
	}
	if corpus.MaxOrder > 0 {
		maxOrder = corpus.MaxOrder
	}
	if corpus.MaxSkip != nil {
		maxSkip = *corpus.MaxSkip
	}
	return maxOrder, maxSkip
}
