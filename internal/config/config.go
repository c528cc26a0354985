package config

import (
	"fmt"
	"strings"
	"time"

	"dse-sniper-go/internal/engine"
	"github.com/spf13/viper"
)

// Config holds all configuration for the application.
type Config struct {
	Sniper   Sniper   `mapstructure:"sniper"`
	Engine   Engine   `mapstructure:"engine"`
	DSE      DSE      `mapstructure:"dse"`
	Logger   Logger   `mapstructure:"logger"`
	Server   Server   `mapstructure:"server"`
	Database Database `mapstructure:"database"`
}

// Sniper holds the scan-loop and market-clock configuration.
type Sniper struct {
	ScanInterval int    `mapstructure:"scan_interval"` // seconds between scans
	Timezone     string `mapstructure:"timezone"`
	MarketOpen   string `mapstructure:"market_open"`  // "HH:MM" local market time
	MarketClose  string `mapstructure:"market_close"` // "HH:MM" local market time
}

// Engine holds the indicator and exit-rule thresholds. Every field maps
// onto engine.Config; defaults come from engine.DefaultConfig.
type Engine struct {
	RVOLThreshold              float64 `mapstructure:"rvol_threshold"`
	RVOLWindow                 int     `mapstructure:"rvol_window"`
	TrendWindow                int     `mapstructure:"trend_window"`
	QuietAccumulationThreshold float64 `mapstructure:"quiet_accumulation_threshold"`
	LowCapThreshold            float64 `mapstructure:"low_cap_threshold"`
	MinVolume                  int64   `mapstructure:"min_volume"`
	ATRPeriod                  int     `mapstructure:"atr_period"`
	StopLossPct                float64 `mapstructure:"stop_loss_pct"`
	TrailingMultiplier         float64 `mapstructure:"trailing_multiplier"`
	ClimaxProfitThreshold      float64 `mapstructure:"climax_profit_threshold"`
	ClimaxRVOLThreshold        float64 `mapstructure:"climax_rvol_threshold"`
	ZombieDays                 int     `mapstructure:"zombie_days"`
	ZombieProfitThreshold      float64 `mapstructure:"zombie_profit_threshold"`
}

// DSE holds the configuration for the market-data source.
type DSE struct {
	BaseURL        string  `mapstructure:"base_url"`
	RateLimit      float64 `mapstructure:"rate_limit"`
	RateLimitBurst int     `mapstructure:"rate_limit_burst"`
}

// Server holds the ports for the sniper API and the dashboard.
type Server struct {
	ApiPort int `mapstructure:"api_port"`
	UIPort  int `mapstructure:"ui_port"`
}

// Database holds the configuration for the database.
type Database struct {
	DSN string `mapstructure:"dsn"`
}

// Logger holds the configuration for the logger.
type Logger struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// LoadConfig reads configuration from file or environment variables.
func LoadConfig(path string) (config Config, err error) {
	viper.AddConfigPath(path)
	viper.SetConfigName("config")
	viper.SetConfigType("yml")

	// Allow environment variables to override config file
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults()

	err = viper.ReadInConfig()
	if err != nil {
		return
	}

	err = viper.Unmarshal(&config)
	return
}

func setDefaults() {
	ecfg := engine.DefaultConfig()

	viper.SetDefault("sniper.scan_interval", 300)
	viper.SetDefault("sniper.timezone", "Asia/Dhaka")
	viper.SetDefault("sniper.market_open", "10:00")
	viper.SetDefault("sniper.market_close", "14:30")

	viper.SetDefault("engine.rvol_threshold", ecfg.RVOLThreshold)
	viper.SetDefault("engine.rvol_window", ecfg.RVOLWindow)
	viper.SetDefault("engine.trend_window", ecfg.TrendWindow)
	viper.SetDefault("engine.quiet_accumulation_threshold", ecfg.QuietAccumulationThreshold)
	viper.SetDefault("engine.low_cap_threshold", ecfg.LowCapThreshold)
	viper.SetDefault("engine.min_volume", ecfg.MinVolume)
	viper.SetDefault("engine.atr_period", ecfg.ATRPeriod)
	viper.SetDefault("engine.stop_loss_pct", ecfg.StopLossPct)
	viper.SetDefault("engine.trailing_multiplier", ecfg.TrailingMultiplier)
	viper.SetDefault("engine.climax_profit_threshold", ecfg.ClimaxProfitThreshold)
	viper.SetDefault("engine.climax_rvol_threshold", ecfg.ClimaxRVOLThreshold)
	viper.SetDefault("engine.zombie_days", ecfg.ZombieDays)
	viper.SetDefault("engine.zombie_profit_threshold", ecfg.ZombieProfitThreshold)

	viper.SetDefault("dse.rate_limit", 2) // requests per second
	viper.SetDefault("dse.rate_limit_burst", 1)

	viper.SetDefault("server.api_port", 12001)
	viper.SetDefault("server.ui_port", 12002)
}

// EngineConfig assembles the engine's value-object configuration from
// the loaded settings, including the parsed trading session.
func (c *Config) EngineConfig() (engine.Config, error) {
	loc, err := time.LoadLocation(c.Sniper.Timezone)
	if err != nil {
		return engine.Config{}, fmt.Errorf("invalid timezone %q: %w", c.Sniper.Timezone, err)
	}

	openH, openM, err := parseClock(c.Sniper.MarketOpen)
	if err != nil {
		return engine.Config{}, fmt.Errorf("invalid market_open: %w", err)
	}
	closeH, closeM, err := parseClock(c.Sniper.MarketClose)
	if err != nil {
		return engine.Config{}, fmt.Errorf("invalid market_close: %w", err)
	}

	return engine.Config{
		RVOLThreshold:              c.Engine.RVOLThreshold,
		RVOLWindow:                 c.Engine.RVOLWindow,
		TrendWindow:                c.Engine.TrendWindow,
		QuietAccumulationThreshold: c.Engine.QuietAccumulationThreshold,
		LowCapThreshold:            c.Engine.LowCapThreshold,
		MinVolume:                  c.Engine.MinVolume,
		ATRPeriod:                  c.Engine.ATRPeriod,
		StopLossPct:                c.Engine.StopLossPct,
		TrailingMultiplier:         c.Engine.TrailingMultiplier,
		ClimaxProfitThreshold:      c.Engine.ClimaxProfitThreshold,
		ClimaxRVOLThreshold:        c.Engine.ClimaxRVOLThreshold,
		ZombieDays:                 c.Engine.ZombieDays,
		ZombieProfitThreshold:      c.Engine.ZombieProfitThreshold,
		Session: engine.Session{
			Location:    loc,
			OpenHour:    openH,
			OpenMinute:  openM,
			CloseHour:   closeH,
			CloseMinute: closeM,
		},
	}, nil
}

func parseClock(s string) (hour, minute int, err error) {
	t, err := time.Parse("15:04", s)
	if err != nil {
		return 0, 0, fmt.Errorf("expected HH:MM, got %q: %w", s, err)
	}
	return t.Hour(), t.Minute(), nil
}
