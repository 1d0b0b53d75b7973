package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"
)

// Hyperparameters tune the negotiation agent.
type Hyperparameters struct {
	BoulwareBeta          float64 `yaml:"boulwareBeta"`
	FinishTime            float64 `yaml:"finishTime"`
	GiveUpTime            float64 `yaml:"giveUpTime"`
	MaxListSize           int     `yaml:"maxListSize"`
	RecentBidWindow       int     `yaml:"recentBidWindow"`
	TransitionTime        float64 `yaml:"transitionTime"`
	MaxElicitationPenalty float64 `yaml:"maxElicitationPenalty"`

	ExpandStep       int    `yaml:"expandStep"`
	OpponentModel    string `yaml:"opponentModel"`
	OpponentEstimate string `yaml:"opponentEstimate"`
}

// Config holds the agent hyperparameters and infrastructure settings.
type Config struct {
	Hyperparameters `yaml:",inline"`

	RedisURL        string `yaml:"redisUrl"`
	AnalyticsStream string `yaml:"analyticsStream"`
	Seed            int64  `yaml:"seed"`
}

// DefaultHyperparameters returns the tuned defaults.
func DefaultHyperparameters() Hyperparameters {
	return Hyperparameters{
		BoulwareBeta:          0.1,
		FinishTime:            0.4,
		GiveUpTime:            1.0,
		MaxListSize:           330,
		RecentBidWindow:       10,
		TransitionTime:        0.5,
		MaxElicitationPenalty: 0.05,
		ExpandStep:            33,
		OpponentModel:         "ratio",
		OpponentEstimate:      "recent",
	}
}

// Default returns a configuration with no file or environment applied.
func Default() *Config {
	return &Config{
		Hyperparameters: DefaultHyperparameters(),
		AnalyticsStream: "haggle:analytics",
		Seed:            1,
	}
}

// Load builds the configuration from defaults, then the YAML file at path
// (skipped when path is empty), then HAGGLE_* environment variables.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(b, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}
	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() error {
	h := &c.Hyperparameters
	var errs []error
	floatEnv := func(key string, dst *float64) {
		v, err := strconv.ParseFloat(envOrDefault(key, strconv.FormatFloat(*dst, 'g', -1, 64)), 64)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", key, err))
			return
		}
		*dst = v
	}
	intEnv := func(key string, dst *int) {
		v, err := strconv.Atoi(envOrDefault(key, strconv.Itoa(*dst)))
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", key, err))
			return
		}
		*dst = v
	}
	floatEnv("HAGGLE_BOULWARE_BETA", &h.BoulwareBeta)
	floatEnv("HAGGLE_FINISH_TIME", &h.FinishTime)
	floatEnv("HAGGLE_GIVE_UP_TIME", &h.GiveUpTime)
	intEnv("HAGGLE_MAX_LIST_SIZE", &h.MaxListSize)
	intEnv("HAGGLE_RECENT_BID_WINDOW", &h.RecentBidWindow)
	floatEnv("HAGGLE_TRANSITION_TIME", &h.TransitionTime)
	floatEnv("HAGGLE_MAX_ELICITATION_PENALTY", &h.MaxElicitationPenalty)
	intEnv("HAGGLE_EXPAND_STEP", &h.ExpandStep)
	h.OpponentModel = envOrDefault("HAGGLE_OPPONENT_MODEL", h.OpponentModel)
	h.OpponentEstimate = envOrDefault("HAGGLE_OPPONENT_ESTIMATE", h.OpponentEstimate)

	c.RedisURL = envOrDefault("HAGGLE_REDIS_URL", c.RedisURL)
	c.AnalyticsStream = envOrDefault("HAGGLE_ANALYTICS_STREAM", c.AnalyticsStream)
	seed, err := strconv.ParseInt(envOrDefault("HAGGLE_SEED", strconv.FormatInt(c.Seed, 10)), 10, 64)
	if err != nil {
		errs = append(errs, fmt.Errorf("HAGGLE_SEED: %w", err))
	} else {
		c.Seed = seed
	}
	if len(errs) > 0 {
		return fmt.Errorf("config environment: %w", errors.Join(errs...))
	}
	return nil
}

// Validate rejects values the agent cannot work with.
func (h Hyperparameters) Validate() error {
	var errs []error
	if h.BoulwareBeta <= 0 {
		errs = append(errs, fmt.Errorf("boulwareBeta must be positive, got %v", h.BoulwareBeta))
	}
	for name, v := range map[string]float64{
		"finishTime":     h.FinishTime,
		"giveUpTime":     h.GiveUpTime,
		"transitionTime": h.TransitionTime,
	} {
		if v < 0 || v > 1 {
			errs = append(errs, fmt.Errorf("%s must lie in [0,1], got %v", name, v))
		}
	}
	if h.MaxListSize <= 0 {
		errs = append(errs, fmt.Errorf("maxListSize must be positive, got %d", h.MaxListSize))
	}
	if h.RecentBidWindow <= 0 {
		errs = append(errs, fmt.Errorf("recentBidWindow must be positive, got %d", h.RecentBidWindow))
	}
	if h.MaxElicitationPenalty < 0 {
		errs = append(errs, fmt.Errorf("maxElicitationPenalty must not be negative, got %v", h.MaxElicitationPenalty))
	}
	if h.ExpandStep < 0 {
		errs = append(errs, fmt.Errorf("expandStep must not be negative, got %d", h.ExpandStep))
	}
	switch h.OpponentModel {
	case "rank", "ratio":
	default:
		errs = append(errs, fmt.Errorf("unknown opponentModel %q", h.OpponentModel))
	}
	switch h.OpponentEstimate {
	case "recent", "total", "mean":
	default:
		errs = append(errs, fmt.Errorf("unknown opponentEstimate %q", h.OpponentEstimate))
	}
	return errors.Join(errs...)
}

// CSVLabels returns the hyperparameter names in CSV column order.
func (h Hyperparameters) CSVLabels() string {
	return "boulwareBeta,finishTime,giveUpTime,maxListSize,recentBidWindow,transitionTime,maxElicitationPenalty"
}

// CSV returns the hyperparameter values in CSV column order.
func (h Hyperparameters) CSV() string {
	return fmt.Sprintf("%v,%v,%v,%d,%d,%v,%v", h.BoulwareBeta, h.FinishTime, h.GiveUpTime,
		h.MaxListSize, h.RecentBidWindow, h.TransitionTime, h.MaxElicitationPenalty)
}

// Diagnostics logs the hyperparameters once, plus a CSV pair at debug level.
func (h Hyperparameters) Diagnostics(logger zerolog.Logger) {
	logger.Info().
		Float64("boulwareBeta", h.BoulwareBeta).
		Float64("finishTime", h.FinishTime).
		Float64("giveUpTime", h.GiveUpTime).
		Int("maxListSize", h.MaxListSize).
		Int("recentBidWindow", h.RecentBidWindow).
		Float64("transitionTime", h.TransitionTime).
		Float64("maxElicitationPenalty", h.MaxElicitationPenalty).
		Str("opponentModel", h.OpponentModel).
		Str("opponentEstimate", h.OpponentEstimate).
		Msg("Hyperparameters")
	logger.Debug().Msg(h.CSVLabels())
	logger.Debug().Msg(h.CSV())
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
