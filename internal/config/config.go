package config

import (
	"github.com/spf13/viper"
)

// Config holds all runtime configuration loaded from environment variables.
// One terminal process = one config; the device profile identifies this
// terminal against the hub.
type Config struct {
	// Server (local API consumed by the presentation layer)
	Port int    `mapstructure:"PORT"`
	Env  string `mapstructure:"APP_ENV"` // development | production

	// Local durable store
	DataPath string `mapstructure:"DATA_PATH"` // SQLite file, one per terminal

	// Device profile — identity used to scope sync traffic
	UnitID   string `mapstructure:"UNIT_ID"`
	DeviceID string `mapstructure:"DEVICE_ID"`
	Rol      string `mapstructure:"TERMINAL_ROL"` // caja | cocina

	// Hub (LAN coordination service)
	HubURL          string `mapstructure:"HUB_URL"`
	HubSecret       string `mapstructure:"HUB_SECRET"`
	PullIntervalSec int    `mapstructure:"PULL_INTERVAL_SEC"`

	// Business
	NombreComercio    string `mapstructure:"NOMBRE_COMERCIO"`
	ReciboStoragePath string `mapstructure:"RECIBO_STORAGE_PATH"`
}

// PerfilDispositivo is the identity handed to the sync engine.
type PerfilDispositivo struct {
	UnitID   string
	DeviceID string
	Rol      string
}

// Perfil returns the device profile portion of the config.
func (c *Config) Perfil() PerfilDispositivo {
	return PerfilDispositivo{UnitID: c.UnitID, DeviceID: c.DeviceID, Rol: c.Rol}
}

// Load reads configuration from environment variables (and optional .env file).
func Load() (*Config, error) {
	viper.SetConfigName(".env")
	viper.SetConfigType("env")
	viper.AddConfigPath(".")
	viper.AutomaticEnv()

	// Sensible defaults for development
	viper.SetDefault("PORT", 8090)
	viper.SetDefault("APP_ENV", "development")
	viper.SetDefault("DATA_PATH", "blendresto.db")
	viper.SetDefault("UNIT_ID", "local-1")
	viper.SetDefault("DEVICE_ID", "caja-1")
	viper.SetDefault("TERMINAL_ROL", "caja")
	viper.SetDefault("HUB_URL", "http://localhost:7070")
	viper.SetDefault("PULL_INTERVAL_SEC", 15)
	viper.SetDefault("NOMBRE_COMERCIO", "BlendResto")
	viper.SetDefault("RECIBO_STORAGE_PATH", "/tmp/blendresto/recibos")

	// Optional .env file for local development — does not fail if missing
	_ = viper.ReadInConfig()

	cfg := &Config{}
	if err := viper.Unmarshal(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}
