package config

import (
	"fmt"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Scoring ScoringConfig `yaml:"scoring" mapstructure:"scoring"`
	Model   ModelConfig   `yaml:"model" mapstructure:"model"`
	Store   StoreConfig   `yaml:"store" mapstructure:"store"`
	Batch   BatchConfig   `yaml:"batch" mapstructure:"batch"`
	Log     LogConfig     `yaml:"log" mapstructure:"log"`
}

// ScoringConfig configures the rule-based i-Score engine.
type ScoringConfig struct {
	Weights       Weights `yaml:"weights" mapstructure:"weights"`
	HighRiskScore float64 `yaml:"high_risk_score" mapstructure:"high_risk_score"`
}

// Weights are the category weights injected into the scoring engine. They are
// not required to sum to 1. Only Geopolitical, Economic and Regulatory are
// consumed by the country scorer; the rest are carried for reporting and are
// persisted with trained models.
type Weights struct {
	Geopolitical  float64 `yaml:"geopolitical" mapstructure:"geopolitical" json:"geopolitical"`
	Economic      float64 `yaml:"economic" mapstructure:"economic" json:"economic"`
	SupplyChain   float64 `yaml:"supply_chain" mapstructure:"supply_chain" json:"supply_chain"`
	Cyber         float64 `yaml:"cyber" mapstructure:"cyber" json:"cyber"`
	Regulatory    float64 `yaml:"regulatory" mapstructure:"regulatory" json:"regulatory"`
	Environmental float64 `yaml:"environmental" mapstructure:"environmental" json:"environmental"`
}

// Map returns the weights keyed by category name.
func (w Weights) Map() map[string]float64 {
	return map[string]float64{
		"geopolitical":  w.Geopolitical,
		"economic":      w.Economic,
		"supply_chain":  w.SupplyChain,
		"cyber":         w.Cyber,
		"regulatory":    w.Regulatory,
		"environmental": w.Environmental,
	}
}

// ModelConfig configures the predictive extension.
type ModelConfig struct {
	Path         string  `yaml:"path" mapstructure:"path"`
	Name         string  `yaml:"name" mapstructure:"name"`
	Trees        int     `yaml:"trees" mapstructure:"trees"`
	BoostStages  int     `yaml:"boost_stages" mapstructure:"boost_stages"`
	LearningRate float64 `yaml:"learning_rate" mapstructure:"learning_rate"`
	MaxDepth     int     `yaml:"max_depth" mapstructure:"max_depth"`
	TestFraction float64 `yaml:"test_fraction" mapstructure:"test_fraction"`
	Seed         uint64  `yaml:"seed" mapstructure:"seed"`
}

// StoreConfig configures the score and artifact store.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
	MaxConns    int32  `yaml:"max_conns" mapstructure:"max_conns"`
}

// BatchConfig configures portfolio assessment fan-out.
type BatchConfig struct {
	MaxConcurrency int `yaml:"max_concurrency" mapstructure:"max_concurrency"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// DefaultWeights returns the reference category weights.
func DefaultWeights() Weights {
	return Weights{
		Geopolitical:  0.25,
		Economic:      0.20,
		SupplyChain:   0.20,
		Cyber:         0.15,
		Regulatory:    0.10,
		Environmental: 0.10,
	}
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("SENTINEL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	w := DefaultWeights()
	v.SetDefault("scoring.weights.geopolitical", w.Geopolitical)
	v.SetDefault("scoring.weights.economic", w.Economic)
	v.SetDefault("scoring.weights.supply_chain", w.SupplyChain)
	v.SetDefault("scoring.weights.cyber", w.Cyber)
	v.SetDefault("scoring.weights.regulatory", w.Regulatory)
	v.SetDefault("scoring.weights.environmental", w.Environmental)
	v.SetDefault("scoring.high_risk_score", 70.0)
	v.SetDefault("model.path", "models/iscore.json")
	v.SetDefault("model.name", "iscore")
	v.SetDefault("model.trees", 100)
	v.SetDefault("model.boost_stages", 100)
	v.SetDefault("model.learning_rate", 0.1)
	v.SetDefault("model.max_depth", 3)
	v.SetDefault("model.test_fraction", 0.2)
	v.SetDefault("model.seed", 42)
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.database_url", "sentinel.db")
	v.SetDefault("store.max_conns", 10)
	v.SetDefault("batch.max_concurrency", 8)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// Validate checks that the configuration is internally consistent.
func (c *Config) Validate() error {
	var errs []string

	if err := ValidateWeights(c.Scoring.Weights); err != nil {
		errs = append(errs, err.Error())
	}
	if c.Scoring.HighRiskScore < 0 || c.Scoring.HighRiskScore > 100 {
		errs = append(errs, "scoring.high_risk_score must be between 0 and 100")
	}

	m := c.Model
	if m.Trees < 1 {
		errs = append(errs, "model.trees must be >= 1")
	}
	if m.BoostStages < 1 {
		errs = append(errs, "model.boost_stages must be >= 1")
	}
	if m.LearningRate <= 0 || m.LearningRate > 1 {
		errs = append(errs, "model.learning_rate must be in (0, 1]")
	}
	if m.MaxDepth < 1 {
		errs = append(errs, "model.max_depth must be >= 1")
	}
	if m.TestFraction <= 0 || m.TestFraction >= 1 {
		errs = append(errs, "model.test_fraction must be in (0, 1)")
	}

	switch c.Store.Driver {
	case "sqlite", "postgres":
	default:
		errs = append(errs, fmt.Sprintf("store.driver %q is not supported", c.Store.Driver))
	}

	if c.Batch.MaxConcurrency < 1 {
		errs = append(errs, "batch.max_concurrency must be >= 1")
	}

	if len(errs) > 0 {
		return eris.Errorf("config: validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}

// ValidateWeights checks that category weights are usable by the engine.
func ValidateWeights(w Weights) error {
	var errs []string
	for name, v := range w.Map() {
		if v < 0 {
			errs = append(errs, fmt.Sprintf("%s weight must be >= 0", name))
		}
	}
	if w.Geopolitical+w.Economic+w.Regulatory <= 0 {
		errs = append(errs, "geopolitical, economic and regulatory weights must not all be zero")
	}
	if len(errs) > 0 {
		return eris.Errorf("weights: %s", strings.Join(errs, "; "))
	}
	return nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
