package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

// Config holds all graphweave configuration. Values are fixed at load time;
// components receive a copy at construction and never see later mutation.
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Analyzer  AnalyzerConfig  `mapstructure:"analyzer"`
	Scoring   ScoringConfig   `mapstructure:"scoring"`
	Retrieval RetrievalConfig `mapstructure:"retrieval"`
}

type ServerConfig struct {
	Bind string `mapstructure:"bind"`
	Port int    `mapstructure:"port"`
}

type DatabaseConfig struct {
	Path string `mapstructure:"path"`
}

// AnalyzerConfig carries the extraction rule set. Empty slices mean
// "use the built-in defaults" (analyzer.DefaultEntityRules and
// analyzer.DefaultRelationTemplates).
type AnalyzerConfig struct {
	EntityRules       []EntityRule       `mapstructure:"entity_rules"`
	RelationTemplates []RelationTemplate `mapstructure:"relation_templates"`
}

// EntityRule maps a regular expression to an entity type tag. Rules are
// evaluated in list order; earlier rules claim overlapping spans first.
// Group selects the submatch that is the entity surface form (0 = whole match).
type EntityRule struct {
	Type    string `mapstructure:"type"`
	Pattern string `mapstructure:"pattern"`
	Group   int    `mapstructure:"group"`
}

// RelationTemplate maps a trigger-phrase pattern to a relation label.
// SubjectGroup and ObjectGroup select the submatches holding the endpoints.
type RelationTemplate struct {
	Label        string `mapstructure:"label"`
	Pattern      string `mapstructure:"pattern"`
	SubjectGroup int    `mapstructure:"subject_group"`
	ObjectGroup  int    `mapstructure:"object_group"`
}

// ScoringConfig holds the importance formula coefficients and edge growth.
type ScoringConfig struct {
	BaseWeight          float64 `mapstructure:"base_weight"`
	ConnectivityWeight  float64 `mapstructure:"connectivity_weight"`
	RecencyWeight       float64 `mapstructure:"recency_weight"`
	EdgeIncrement       float64 `mapstructure:"edge_increment"`
	RecencyHalfLifeDays float64 `mapstructure:"recency_half_life_days"`
}

// RetrievalConfig holds the query scoring blend and result shaping.
type RetrievalConfig struct {
	Alpha     float64 `mapstructure:"alpha"`     // lexical similarity weight
	Beta      float64 `mapstructure:"beta"`      // entity overlap weight
	Gamma     float64 `mapstructure:"gamma"`     // importance weight
	Threshold float64 `mapstructure:"threshold"` // minimum combined score
	TopK      int     `mapstructure:"top_k"`
}

// Default returns a Config with sensible defaults.
func Default() Config {
	return Config{
		Server: ServerConfig{
			Bind: "127.0.0.1",
			Port: 37791,
		},
		Database: DatabaseConfig{
			Path: "", // resolved at runtime via store.DefaultDBPath()
		},
		Scoring: ScoringConfig{
			BaseWeight:          0.3,
			ConnectivityWeight:  0.2,
			RecencyWeight:       0.5,
			EdgeIncrement:       0.3,
			RecencyHalfLifeDays: 30,
		},
		Retrieval: RetrievalConfig{
			Alpha:     0.5,
			Beta:      0.3,
			Gamma:     0.1,
			Threshold: 0.1,
			TopK:      5,
		},
	}
}

// DefaultConfigPath returns ~/.graphweave/config.yaml.
func DefaultConfigPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("get home dir: %w", err)
	}
	return filepath.Join(home, ".graphweave", "config.yaml"), nil
}

// Load reads configuration from ~/.graphweave/config.yaml, falling back to
// Default() when the file does not exist.
func Load() (Config, error) {
	path, err := DefaultConfigPath()
	if err != nil {
		return Config{}, err
	}
	return LoadFromPath(path)
}

// LoadFromPath reads configuration from a specific file. A missing file is
// not an error; defaults apply.
func LoadFromPath(path string) (Config, error) {
	cfg := Default()

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	setDefaults(v, cfg)

	if err := v.ReadInConfig(); err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return cfg, nil
		}
		return Config{}, fmt.Errorf("read config %s: %w", path, err)
	}

	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := validate(cfg); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper, cfg Config) {
	v.SetDefault("server.bind", cfg.Server.Bind)
	v.SetDefault("server.port", cfg.Server.Port)
	v.SetDefault("database.path", cfg.Database.Path)
	v.SetDefault("scoring.base_weight", cfg.Scoring.BaseWeight)
	v.SetDefault("scoring.connectivity_weight", cfg.Scoring.ConnectivityWeight)
	v.SetDefault("scoring.recency_weight", cfg.Scoring.RecencyWeight)
	v.SetDefault("scoring.edge_increment", cfg.Scoring.EdgeIncrement)
	v.SetDefault("scoring.recency_half_life_days", cfg.Scoring.RecencyHalfLifeDays)
	v.SetDefault("retrieval.alpha", cfg.Retrieval.Alpha)
	v.SetDefault("retrieval.beta", cfg.Retrieval.Beta)
	v.SetDefault("retrieval.gamma", cfg.Retrieval.Gamma)
	v.SetDefault("retrieval.threshold", cfg.Retrieval.Threshold)
	v.SetDefault("retrieval.top_k", cfg.Retrieval.TopK)
}

func validate(cfg Config) error {
	if cfg.Retrieval.TopK <= 0 {
		return fmt.Errorf("retrieval.top_k must be positive, got %d", cfg.Retrieval.TopK)
	}
	if cfg.Scoring.EdgeIncrement <= 0 || cfg.Scoring.EdgeIncrement > 1 {
		return fmt.Errorf("scoring.edge_increment must be in (0, 1], got %g", cfg.Scoring.EdgeIncrement)
	}
	if cfg.Scoring.RecencyHalfLifeDays <= 0 {
		return fmt.Errorf("scoring.recency_half_life_days must be positive, got %g", cfg.Scoring.RecencyHalfLifeDays)
	}
	for _, w := range []struct {
		name  string
		value float64
	}{
		{"scoring.base_weight", cfg.Scoring.BaseWeight},
		{"scoring.connectivity_weight", cfg.Scoring.ConnectivityWeight},
		{"scoring.recency_weight", cfg.Scoring.RecencyWeight},
		{"retrieval.alpha", cfg.Retrieval.Alpha},
		{"retrieval.beta", cfg.Retrieval.Beta},
		{"retrieval.gamma", cfg.Retrieval.Gamma},
	} {
		if w.value < 0 {
			return fmt.Errorf("%s must be non-negative, got %g", w.name, w.value)
		}
	}
	return nil
}

// ListenAddr returns the bind:port address string.
func (c *Config) ListenAddr() string {
	return fmt.Sprintf("%s:%d", c.Server.Bind, c.Server.Port)
}
