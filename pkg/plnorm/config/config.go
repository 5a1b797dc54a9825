package config

import (
	"fmt"
	"path/filepath"

	"github.com/ilyakaznacheev/cleanenv"

	"github.com/cognicore/plnorm/pkg/plnorm/ingest"
	"github.com/cognicore/plnorm/pkg/plnorm/internalerr"
)

// Config is the preprocessing configuration, read from YAML with
// environment overrides.
type Config struct {
	LogLevel      string     `yaml:"log_level" env:"PLNORM_LOG_LEVEL" env-default:"INFO"`
	Language      string     `yaml:"language" env:"PLNORM_LANGUAGE" env-default:"pl"`
	StopwordsFile string     `yaml:"stopwords_file" env:"PLNORM_STOPWORDS_FILE"`
	Dictionary    Dictionary `yaml:"dictionary"`
	Columns       []string   `yaml:"columns" env:"PLNORM_COLUMNS" env-separator:","`
	Workers       int        `yaml:"workers" env:"PLNORM_WORKERS"`
	OnLemmaMiss   string     `yaml:"on_lemma_miss" env:"PLNORM_ON_LEMMA_MISS" env-default:"fail"`
	// Stages switches stages off by name; stages not listed stay enabled.
	Stages map[string]bool `yaml:"stages"`
	Input  Input           `yaml:"input"`
}

// Dictionary describes where the morphological dictionary lives.
type Dictionary struct {
	Path      string `yaml:"path" env:"PLNORM_DICT_PATH"`
	Format    string `yaml:"format" env:"PLNORM_DICT_FORMAT" env-default:"tsv"`
	Unknown   string `yaml:"unknown" env:"PLNORM_DICT_UNKNOWN" env-default:"fail"`
	CacheSize int    `yaml:"cache_size" env:"PLNORM_DICT_CACHE_SIZE"`
}

// Input controls how raw cells are read.
type Input struct {
	StripHTML bool `yaml:"strip_html" env:"PLNORM_STRIP_HTML"`
}

// Load reads the configuration file at path and applies environment overrides.
func Load(path string) (Config, error) {
	var cfg Config
	if err := cleanenv.ReadConfig(path, &cfg); err != nil {
		return Config{}, fmt.Errorf("read config %q: %w: %w", path, internalerr.ErrConfig, err)
	}
	cfg.resolvePaths(filepath.Dir(path))
	return cfg, nil
}

// resolvePaths makes file references relative to the config file's directory.
func (c *Config) resolvePaths(dir string) {
	c.StopwordsFile = resolve(dir, c.StopwordsFile)
	c.Dictionary.Path = resolve(dir, c.Dictionary.Path)
}

func resolve(dir, path string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(dir, path)
}

// FromEnv builds the configuration from environment variables and defaults only.
func FromEnv() (Config, error) {
	var cfg Config
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return Config{}, fmt.Errorf("read env: %w: %w", internalerr.ErrConfig, err)
	}
	return cfg, nil
}

// Toggles resolves the stage switches. Unknown stage names are rejected.
func (c Config) Toggles() (ingest.Toggles, error) {
	t := ingest.AllStages()
	for name, on := range c.Stages {
		switch ingest.Stage(name) {
		case ingest.StageLowercase:
			t.Lowercase = on
		case ingest.StageRemoveMentions:
			t.RemoveMentions = on
		case ingest.StageRemoveHashtags:
			t.RemoveHashtags = on
		case ingest.StageRemoveURLs:
			t.RemoveURLs = on
		case ingest.StageRemoveNumbers:
			t.RemoveNumbers = on
		case ingest.StageRemoveEmojis:
			t.RemoveEmojis = on
		case ingest.StageRemovePunctuation:
			t.RemovePunctuation = on
		case ingest.StageLemmatize:
			t.Lemmatize = on
		case ingest.StageRemoveStopwords:
			t.RemoveStopwords = on
		default:
			return ingest.Toggles{}, fmt.Errorf("unknown stage %q: %w", name, internalerr.ErrConfig)
		}
	}
	return t, nil
}

// MissPolicy resolves on_lemma_miss.
func (c Config) MissPolicy() (ingest.MissPolicy, error) {
	return ingest.ParseMissPolicy(c.OnLemmaMiss)
}
