package config

import (
	"fmt"
	"os"

	"github.com/spf13/viper"
)

// ConfigurationError names a required value missing from the process
// configuration.
type ConfigurationError struct {
	Field string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("missing required configuration value %q", e.Field)
}

type Export struct {
	TempPath  string `mapstructure:"tempPath"`
	Prefix    string `mapstructure:"filePrefix"`
	HubTable  string `mapstructure:"hubTable"`
	WeeksBack int    `mapstructure:"weeksBack"`
}

type Storage struct {
	ServiceURL   string `mapstructure:"serviceUrl"`
	AccountName  string `mapstructure:"accountName"`
	AccountKey   string `mapstructure:"accountKey"`
	TenantID     string `mapstructure:"tenantId"`
	ClientID     string `mapstructure:"clientId"`
	ClientSecret string `mapstructure:"clientSecret"`
	Container    string `mapstructure:"container"`
}

type Config struct {
	DbConnectionString string  `mapstructure:"dbConnectionString"`
	Export             Export  `mapstructure:"export"`
	Storage            Storage `mapstructure:"storage"`
}

// Load reads the orchestrator-supplied JSON process arguments from path.
// Secrets may instead come from the environment: HUB_EXPORT_DB_CONN,
// HUB_EXPORT_STORAGE_KEY and HUB_EXPORT_CLIENT_SECRET override their file
// counterparts when set.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("json")

	v.SetDefault("export.filePrefix", "Egenbefordring")
	v.SetDefault("export.hubTable", "rpa.Hub_GO_Egenbefordring_ifm_til_skolekoer")

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse process configuration: %w", err)
	}

	if conn := os.Getenv("HUB_EXPORT_DB_CONN"); conn != "" {
		cfg.DbConnectionString = conn
	}
	if key := os.Getenv("HUB_EXPORT_STORAGE_KEY"); key != "" {
		cfg.Storage.AccountKey = key
	}
	if secret := os.Getenv("HUB_EXPORT_CLIENT_SECRET"); secret != "" {
		cfg.Storage.ClientSecret = secret
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	switch {
	case c.Export.TempPath == "":
		return &ConfigurationError{Field: "export.tempPath"}
	case c.DbConnectionString == "":
		return &ConfigurationError{Field: "dbConnectionString"}
	case c.Storage.ServiceURL == "":
		return &ConfigurationError{Field: "storage.serviceUrl"}
	case c.Storage.Container == "":
		return &ConfigurationError{Field: "storage.container"}
	}

	if c.Storage.AccountKey == "" &&
		(c.Storage.TenantID == "" || c.Storage.ClientID == "" || c.Storage.ClientSecret == "") {
		return &ConfigurationError{Field: "storage credentials"}
	}
	if c.Storage.AccountKey != "" && c.Storage.AccountName == "" {
		return &ConfigurationError{Field: "storage.accountName"}
	}
	return nil
}
