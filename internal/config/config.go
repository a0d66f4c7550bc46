package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

type Config struct {
	Port                string   `mapstructure:"PORT"`
	Env                 string   `mapstructure:"ENV"`
	DatabaseURL         string   `mapstructure:"DATABASE_URL"`
	DBMaxConns          int32    `mapstructure:"DB_MAX_CONNS"`
	DBMinConns          int32    `mapstructure:"DB_MIN_CONNS"`
	CORSOrigins         []string `mapstructure:"CORS_ORIGINS"`
	ClinicOpenHour      int      `mapstructure:"CLINIC_OPEN_HOUR"`
	ClinicCloseHour     int      `mapstructure:"CLINIC_CLOSE_HOUR"`
	SlotIntervalMinutes int      `mapstructure:"SLOT_INTERVAL_MINUTES"`
	CalendarBridgeURL   string   `mapstructure:"CALENDAR_BRIDGE_URL"`
	CalendarBridgeToken string   `mapstructure:"CALENDAR_BRIDGE_TOKEN"`
	AuthSecret          string   `mapstructure:"AUTH_SECRET"`
}

func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigFile(".env")
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("PORT", "8000")
	v.SetDefault("ENV", "development")
	v.SetDefault("DB_MAX_CONNS", 20)
	v.SetDefault("DB_MIN_CONNS", 5)
	v.SetDefault("CORS_ORIGINS", "http://localhost:3000")
	v.SetDefault("CLINIC_OPEN_HOUR", 9)
	v.SetDefault("CLINIC_CLOSE_HOUR", 20)
	v.SetDefault("SLOT_INTERVAL_MINUTES", 30)

	// Bind env vars explicitly so Unmarshal picks them up
	v.BindEnv("PORT")
	v.BindEnv("ENV")
	v.BindEnv("DATABASE_URL")
	v.BindEnv("DB_MAX_CONNS")
	v.BindEnv("DB_MIN_CONNS")
	v.BindEnv("CORS_ORIGINS")
	v.BindEnv("CLINIC_OPEN_HOUR")
	v.BindEnv("CLINIC_CLOSE_HOUR")
	v.BindEnv("SLOT_INTERVAL_MINUTES")
	v.BindEnv("CALENDAR_BRIDGE_URL")
	v.BindEnv("CALENDAR_BRIDGE_TOKEN")
	v.BindEnv("AUTH_SECRET")

	// Try reading .env file, but don't fail if missing
	_ = v.ReadInConfig()

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if cfg.CORSOrigins == nil {
		origins := v.GetString("CORS_ORIGINS")
		if origins != "" {
			cfg.CORSOrigins = strings.Split(origins, ",")
		}
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	return cfg, nil
}

func (c *Config) IsDev() bool {
	return c.Env == "development"
}

// IsProduction returns true when the server is configured for production mode.
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// Validate checks that the configuration is safe to run. Clinic hours must
// form a non-empty half-open range, the slot interval must divide a day, and
// production requires an AUTH_SECRET so actor tokens can be verified.
func (c *Config) Validate() error {
	if c.ClinicOpenHour < 0 || c.ClinicOpenHour > 23 {
		return fmt.Errorf("CLINIC_OPEN_HOUR must be between 0 and 23, got %d", c.ClinicOpenHour)
	}
	if c.ClinicCloseHour < 1 || c.ClinicCloseHour > 24 {
		return fmt.Errorf("CLINIC_CLOSE_HOUR must be between 1 and 24, got %d", c.ClinicCloseHour)
	}
	if c.ClinicCloseHour <= c.ClinicOpenHour {
		return fmt.Errorf("CLINIC_CLOSE_HOUR (%d) must be after CLINIC_OPEN_HOUR (%d)", c.ClinicCloseHour, c.ClinicOpenHour)
	}
	if c.SlotIntervalMinutes <= 0 || c.SlotIntervalMinutes > 24*60 {
		return fmt.Errorf("SLOT_INTERVAL_MINUTES must be between 1 and 1440, got %d", c.SlotIntervalMinutes)
	}
	if c.IsProduction() && c.AuthSecret == "" {
		return fmt.Errorf("AUTH_SECRET is required in production")
	}
	return nil
}
