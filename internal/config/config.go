package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

type HTTPConfig struct {
	Host string
	Port int
}

type DBConfig struct {
	DSN             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime string
}

type FactorsConfig struct {
	OverridesPath string
	CachePath     string
	Sources       []string
}

type ComplianceConfig struct {
	Scope1Warning float64
	Scope2Warning float64
	Scope3Warning float64
}

type Config struct {
	Environment string
	HTTP        HTTPConfig
	DB          DBConfig
	Factors     FactorsConfig
	Compliance  ComplianceConfig
}

func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigName("app")
	v.SetConfigType("env")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("./deploy")
	v.AddConfigPath("./internal/config")
	v.AutomaticEnv()

	_ = v.ReadInConfig()

	cfg := &Config{
		Environment: v.GetString("APP_ENV"),
		HTTP: HTTPConfig{
			Host: v.GetString("HTTP_HOST"),
			Port: v.GetInt("HTTP_PORT"),
		},
		DB: DBConfig{
			DSN:             v.GetString("DB_DSN"),
			MaxOpenConns:    v.GetInt("DB_MAX_OPEN_CONNS"),
			MaxIdleConns:    v.GetInt("DB_MAX_IDLE_CONNS"),
			ConnMaxLifetime: v.GetString("DB_CONN_MAX_LIFETIME"),
		},
		Factors: FactorsConfig{
			OverridesPath: v.GetString("EMISSION_FACTORS_CONFIG"),
			CachePath:     v.GetString("EMISSION_FACTORS_CACHE"),
			Sources:       parseList(v.GetString("EMISSION_FACTORS_SOURCES")),
		},
		Compliance: ComplianceConfig{
			Scope1Warning: v.GetFloat64("COMPLIANCE_SCOPE_1_WARNING"),
			Scope2Warning: v.GetFloat64("COMPLIANCE_SCOPE_2_WARNING"),
			Scope3Warning: v.GetFloat64("COMPLIANCE_SCOPE_3_WARNING"),
		},
	}

	if cfg.Environment == "" {
		cfg.Environment = "development"
	}
	if cfg.HTTP.Host == "" {
		cfg.HTTP.Host = "0.0.0.0"
	}
	if cfg.HTTP.Port == 0 {
		cfg.HTTP.Port = 7090
	}
	if cfg.Factors.CachePath == "" {
		cfg.Factors.CachePath = "data/emission_factors.json"
	}
	// kg CO2e per year
	if cfg.Compliance.Scope1Warning == 0 {
		cfg.Compliance.Scope1Warning = 100000
	}
	if cfg.Compliance.Scope2Warning == 0 {
		cfg.Compliance.Scope2Warning = 50000
	}
	if cfg.Compliance.Scope3Warning == 0 {
		cfg.Compliance.Scope3Warning = 200000
	}

	if err := validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func validate(cfg *Config) error {
	if cfg.DB.DSN == "" {
		return fmt.Errorf("DB_DSN is required")
	}
	return nil
}

func parseList(raw string) []string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	items := strings.Split(raw, ",")
	result := make([]string, 0, len(items))
	for _, item := range items {
		item = strings.TrimSpace(item)
		if item != "" {
			result = append(result, item)
		}
	}
	return result
}
