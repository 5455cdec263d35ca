package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/siherrmann/inscriber/helper"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// EnvPrefix is the prefix of environment overrides, e.g. INSCRIBER_PAGE_CONFIDENCE_THRESHOLD.
const EnvPrefix = "INSCRIBER"

// Config is passed explicitly into every entry point of the pipeline.
type Config struct {
	Cache       CacheConfig    `mapstructure:"cache" yaml:"cache"`
	OutputDir   string         `mapstructure:"output_dir" yaml:"output_dir"`
	Page        PageConfig     `mapstructure:"page" yaml:"page"`
	OCR         OCRConfig      `mapstructure:"ocr" yaml:"ocr"`
	NLP         NLPConfig      `mapstructure:"nlp" yaml:"nlp"`
	HTTP        HTTPConfig     `mapstructure:"http" yaml:"http"`
	Export      ExportConfig   `mapstructure:"export" yaml:"export"`
	Database    DatabaseConfig `mapstructure:"database" yaml:"database"`
	MetricsFile string         `mapstructure:"metrics_file" yaml:"metrics_file"`
}

// CacheConfig holds the image and OCR cache roots.
type CacheConfig struct {
	ImageDir string `mapstructure:"image_dir" yaml:"image_dir"`
	OCRDir   string `mapstructure:"ocr_dir" yaml:"ocr_dir"`
}

// PageConfig controls text reconstruction.
type PageConfig struct {
	ConfidenceThreshold int    `mapstructure:"confidence_threshold" yaml:"confidence_threshold"`
	ContainerLabelField string `mapstructure:"container_label_field" yaml:"container_label_field"`
	PreferTextRendering bool   `mapstructure:"prefer_text_rendering" yaml:"prefer_text_rendering"`
	LineMode            bool   `mapstructure:"line_mode" yaml:"line_mode"`
}

// OCRConfig configures the tesseract engine.
type OCRConfig struct {
	Languages []string `mapstructure:"languages" yaml:"languages"`
}

// NLPConfig selects the hugot models.
type NLPConfig struct {
	Model          string `mapstructure:"model" yaml:"model"`
	EmbeddingModel string `mapstructure:"embedding_model" yaml:"embedding_model"`
	ModelDir       string `mapstructure:"model_dir" yaml:"model_dir"`
}

// HTTPConfig configures manifest, text and image fetching.
type HTTPConfig struct {
	Timeout    time.Duration `mapstructure:"timeout" yaml:"timeout"`
	Retries    uint          `mapstructure:"retries" yaml:"retries"`
	RetryDelay time.Duration `mapstructure:"retry_delay" yaml:"retry_delay"`
	UserAgent  string        `mapstructure:"user_agent" yaml:"user_agent"`
}

// MarshalYAML writes durations in their string form so they read back through viper.
func (h HTTPConfig) MarshalYAML() (interface{}, error) {
	return struct {
		Timeout    string `yaml:"timeout"`
		Retries    uint   `yaml:"retries"`
		RetryDelay string `yaml:"retry_delay"`
		UserAgent  string `yaml:"user_agent"`
	}{
		Timeout:    h.Timeout.String(),
		Retries:    h.Retries,
		RetryDelay: h.RetryDelay.String(),
		UserAgent:  h.UserAgent,
	}, nil
}

// ExportConfig selects the formats written per page.
type ExportConfig struct {
	Formats []string `mapstructure:"formats" yaml:"formats"`
}

// DatabaseConfig enables the optional Postgres store.
type DatabaseConfig struct {
	Enabled                      bool `mapstructure:"enabled" yaml:"enabled"`
	EmbeddingDim                 int  `mapstructure:"embedding_dim" yaml:"embedding_dim"`
	helper.DatabaseConfiguration `mapstructure:",squash" yaml:",inline"`
}

// DefaultConfig returns the documented defaults.
func DefaultConfig() *Config {
	cacheRoot := defaultCacheRoot()
	return &Config{
		Cache: CacheConfig{
			ImageDir: filepath.Join(cacheRoot, "images"),
			OCRDir:   filepath.Join(cacheRoot, "ocr"),
		},
		OutputDir: "./output",
		Page: PageConfig{
			ConfidenceThreshold: 95,
			ContainerLabelField: "Container",
			PreferTextRendering: true,
		},
		OCR: OCRConfig{
			Languages: []string{"eng"},
		},
		NLP: NLPConfig{
			Model:          "KnightsAnalytics/distilbert-NER",
			EmbeddingModel: "sentence-transformers/all-MiniLM-L6-v2",
			ModelDir:       helper.DefaultModelDir,
		},
		HTTP: HTTPConfig{
			Timeout:    60 * time.Second,
			Retries:    3,
			RetryDelay: time.Second,
			UserAgent:  "inscriber/0.1",
		},
		Export: ExportConfig{
			Formats: []string{"txt", "csv", "jsonl", "ttl"},
		},
		Database: DatabaseConfig{
			Enabled:      false,
			EmbeddingDim: 384,
			DatabaseConfiguration: helper.DatabaseConfiguration{
				Host:     "localhost",
				Port:     "5432",
				Database: "inscriber",
				Username: "postgres",
				Schema:   "public",
				SSLMode:  "disable",
			},
		},
	}
}

func defaultCacheRoot() string {
	if dir := os.Getenv("XDG_CACHE_HOME"); dir != "" {
		return filepath.Join(dir, "inscriber")
	}
	return filepath.Join(helper.ExpandHome("~/.cache"), "inscriber")
}

// Load reads defaults, the optional config file and INSCRIBER_* environment
// variables, in that order of precedence. A missing config file is not an error.
func Load(cfgFile string) (*Config, error) {
	v := viper.New()
	setDefaults(v, DefaultConfig())

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.SetConfigName("inscriber")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.inscriber")
	}

	if err := v.ReadInConfig(); err != nil {
		var configFileNotFoundError viper.ConfigFileNotFoundError
		if !errors.As(err, &configFileNotFoundError) {
			return nil, helper.NewError("read config", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, helper.NewError("unmarshal config", err)
	}
	cfg.Cache.ImageDir = helper.ExpandHome(cfg.Cache.ImageDir)
	cfg.Cache.OCRDir = helper.ExpandHome(cfg.Cache.OCRDir)
	cfg.NLP.ModelDir = helper.ExpandHome(cfg.NLP.ModelDir)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper, d *Config) {
	v.SetDefault("cache.image_dir", d.Cache.ImageDir)
	v.SetDefault("cache.ocr_dir", d.Cache.OCRDir)
	v.SetDefault("output_dir", d.OutputDir)
	v.SetDefault("page.confidence_threshold", d.Page.ConfidenceThreshold)
	v.SetDefault("page.container_label_field", d.Page.ContainerLabelField)
	v.SetDefault("page.prefer_text_rendering", d.Page.PreferTextRendering)
	v.SetDefault("page.line_mode", d.Page.LineMode)
	v.SetDefault("ocr.languages", d.OCR.Languages)
	v.SetDefault("nlp.model", d.NLP.Model)
	v.SetDefault("nlp.embedding_model", d.NLP.EmbeddingModel)
	v.SetDefault("nlp.model_dir", d.NLP.ModelDir)
	v.SetDefault("http.timeout", d.HTTP.Timeout)
	v.SetDefault("http.retries", d.HTTP.Retries)
	v.SetDefault("http.retry_delay", d.HTTP.RetryDelay)
	v.SetDefault("http.user_agent", d.HTTP.UserAgent)
	v.SetDefault("export.formats", d.Export.Formats)
	v.SetDefault("database.enabled", d.Database.Enabled)
	v.SetDefault("database.embedding_dim", d.Database.EmbeddingDim)
	v.SetDefault("database.host", d.Database.Host)
	v.SetDefault("database.port", d.Database.Port)
	v.SetDefault("database.database", d.Database.Database)
	v.SetDefault("database.username", d.Database.Username)
	v.SetDefault("database.password", d.Database.Password)
	v.SetDefault("database.schema", d.Database.Schema)
	v.SetDefault("database.sslmode", d.Database.SSLMode)
	v.SetDefault("metrics_file", d.MetricsFile)
}

// Validate checks value ranges.
func (c *Config) Validate() error {
	if c.Page.ConfidenceThreshold < 0 || c.Page.ConfidenceThreshold > 100 {
		return helper.NewError("validate config", fmt.Errorf("page.confidence_threshold must be within 0..100, got %d", c.Page.ConfidenceThreshold))
	}
	if c.Cache.ImageDir == "" || c.Cache.OCRDir == "" {
		return helper.NewError("validate config", errors.New("cache.image_dir and cache.ocr_dir must be set"))
	}
	if c.HTTP.Timeout <= 0 {
		return helper.NewError("validate config", errors.New("http.timeout must be positive"))
	}
	if c.Database.Enabled && c.Database.EmbeddingDim <= 0 {
		return helper.NewError("validate config", errors.New("database.embedding_dim must be positive"))
	}
	return nil
}

// WriteDefault writes the default configuration as YAML to path.
// It refuses to overwrite an existing file.
func WriteDefault(path string) error {
	if _, err := os.Stat(path); err == nil {
		return helper.NewError("write default config", fmt.Errorf("%s already exists", path))
	}
	data, err := yaml.Marshal(DefaultConfig())
	if err != nil {
		return helper.NewError("marshal default config", err)
	}
	return helper.WriteFileAtomic(path, data, 0600)
}
