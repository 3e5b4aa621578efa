// Package config loads and validates simulation parameters.
// Every recognized option must be explicitly present in the file;
// a missing option is a configuration error surfaced before any bar
// is processed.
package config

import (
	"errors"
	"fmt"

	"github.com/spf13/viper"
)

// Grid reference modes. See GridReference.
const (
	GridRefLastFill = "last_fill"
	GridRefEntry    = "entry"
)

// Configuration errors.
var (
	ErrMissingOption = errors.New("missing configuration option")
	ErrOutOfRange    = errors.New("configuration option out of range")
)

// Config holds every tunable of the pump-short simulation.
type Config struct {
	// Pump detection
	PumpThresholdPercent         float64 `mapstructure:"pump_threshold_percent"`
	LookbackDays                 int     `mapstructure:"lookback_days"`
	VolumeConfirmationMultiplier float64 `mapstructure:"volume_confirmation_multiplier"`
	BaselineWindow               int     `mapstructure:"baseline_window"`

	// Reversal patterns
	BearishVolumeMultiplier   float64 `mapstructure:"bearish_volume_multiplier"`
	UpperShadowRatioThreshold float64 `mapstructure:"upper_shadow_ratio_threshold"`
	DojiBodyRatioThreshold    float64 `mapstructure:"doji_body_ratio_threshold"`
	HighLevelMultiplier       float64 `mapstructure:"high_level_multiplier"`
	HighLevelRelaxFactor      float64 `mapstructure:"high_level_relax_factor"`

	// Reverse grid
	AddUpThreshold   float64 `mapstructure:"add_up_threshold"`
	AddDownThreshold float64 `mapstructure:"add_down_threshold"`
	MaxAdds          int     `mapstructure:"max_adds"`
	AddFraction      float64 `mapstructure:"add_fraction"`
	GridReference    string  `mapstructure:"grid_reference"`

	// Exits
	StopLossThreshold   float64 `mapstructure:"stop_loss_threshold"`
	TakeProfitThreshold float64 `mapstructure:"take_profit_threshold"`

	// Portfolio
	InitialCapital         float64 `mapstructure:"initial_capital"`
	FeeRate                float64 `mapstructure:"fee_rate"`
	SlippageRate           float64 `mapstructure:"slippage_rate"`
	MaxPositionSizeRatio   float64 `mapstructure:"max_position_size_ratio"`
	MaxTotalExposureRatio  float64 `mapstructure:"max_total_exposure_ratio"`
	MaxConcurrentPositions int     `mapstructure:"max_concurrent_positions"`
}

// requiredKeys is the full recognized option set. Load fails if any is absent.
var requiredKeys = []string{
	"pump_threshold_percent",
	"lookback_days",
	"volume_confirmation_multiplier",
	"baseline_window",
	"bearish_volume_multiplier",
	"upper_shadow_ratio_threshold",
	"doji_body_ratio_threshold",
	"high_level_multiplier",
	"high_level_relax_factor",
	"add_up_threshold",
	"add_down_threshold",
	"max_adds",
	"add_fraction",
	"grid_reference",
	"stop_loss_threshold",
	"take_profit_threshold",
	"initial_capital",
	"fee_rate",
	"slippage_rate",
	"max_position_size_ratio",
	"max_total_exposure_ratio",
	"max_concurrent_positions",
}

// Load reads a YAML config file and validates it.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}

	for _, key := range requiredKeys {
		if !v.IsSet(key) {
			return nil, fmt.Errorf("%w: %s", ErrMissingOption, key)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Default returns the conventional parameter set of the strategy.
// Used by tests and as a template for config files.
func Default() *Config {
	return &Config{
		PumpThresholdPercent:         80,
		LookbackDays:                 3,
		VolumeConfirmationMultiplier: 1.5,
		BaselineWindow:               24,

		BearishVolumeMultiplier:   1.5,
		UpperShadowRatioThreshold: 0.3,
		DojiBodyRatioThreshold:    0.1,
		HighLevelMultiplier:       0.5,
		HighLevelRelaxFactor:      0.667,

		AddUpThreshold:   0.10,
		AddDownThreshold: 0.065,
		MaxAdds:          3,
		AddFraction:      0.5,
		GridReference:    GridRefLastFill,

		StopLossThreshold:   0.35,
		TakeProfitThreshold: 0.12,

		InitialCapital:         10000,
		FeeRate:                0.0005,
		SlippageRate:           0.001,
		MaxPositionSizeRatio:   0.08,
		MaxTotalExposureRatio:  0.30,
		MaxConcurrentPositions: 3,
	}
}

// Validate checks option ranges. Thresholds expressed as fractions must sit
// in (0, 1); multipliers and windows must be positive.
func (c *Config) Validate() error {
	checks := []struct {
		name string
		ok   bool
	}{
		{"pump_threshold_percent", c.PumpThresholdPercent > 0},
		{"lookback_days", c.LookbackDays > 0},
		{"volume_confirmation_multiplier", c.VolumeConfirmationMultiplier > 0},
		{"baseline_window", c.BaselineWindow > 0},
		{"bearish_volume_multiplier", c.BearishVolumeMultiplier > 0},
		{"upper_shadow_ratio_threshold", c.UpperShadowRatioThreshold > 0 && c.UpperShadowRatioThreshold < 1},
		{"doji_body_ratio_threshold", c.DojiBodyRatioThreshold > 0 && c.DojiBodyRatioThreshold < 1},
		{"high_level_multiplier", c.HighLevelMultiplier > 0},
		{"high_level_relax_factor", c.HighLevelRelaxFactor > 0 && c.HighLevelRelaxFactor <= 1},
		{"add_up_threshold", c.AddUpThreshold > 0 && c.AddUpThreshold < 1},
		{"add_down_threshold", c.AddDownThreshold > 0 && c.AddDownThreshold < 1},
		{"max_adds", c.MaxAdds >= 0},
		{"add_fraction", c.AddFraction > 0},
		{"grid_reference", c.GridReference == GridRefLastFill || c.GridReference == GridRefEntry},
		{"stop_loss_threshold", c.StopLossThreshold > 0},
		{"take_profit_threshold", c.TakeProfitThreshold > 0 && c.TakeProfitThreshold < 1},
		{"initial_capital", c.InitialCapital > 0},
		{"fee_rate", c.FeeRate >= 0 && c.FeeRate < 1},
		{"slippage_rate", c.SlippageRate >= 0 && c.SlippageRate < 1},
		{"max_position_size_ratio", c.MaxPositionSizeRatio > 0 && c.MaxPositionSizeRatio <= 1},
		{"max_total_exposure_ratio", c.MaxTotalExposureRatio > 0 && c.MaxTotalExposureRatio <= 1},
		{"max_concurrent_positions", c.MaxConcurrentPositions > 0},
	}

	for _, check := range checks {
		if !check.ok {
			return fmt.Errorf("%w: %s", ErrOutOfRange, check.name)
		}
	}
	return nil
}

// LookbackHours converts the day lookback to bar counts for hourly bars.
func (c *Config) LookbackHours() int {
	return c.LookbackDays * 24
}

// Fingerprint returns a deterministic rendering of every option, used to
// derive run identifiers.
func (c *Config) Fingerprint() string {
	return fmt.Sprintf("%+v", *c)
}
