// Package config loads the CLI configuration from defaults, rowshape.yaml,
// environment variables and flags, in ascending precedence.
package config

import "github.com/leapstack-labs/rowshape/pkg/adapter"

// Config is the fully resolved CLI configuration.
type Config struct {
	Adapter AdapterConfig `koanf:"adapter"`
	Output  string        `koanf:"output"`
	Verbose bool          `koanf:"verbose"`
}

// AdapterConfig describes the database to connect to.
type AdapterConfig struct {
	Type     string            `koanf:"type"`
	Path     string            `koanf:"path"`
	Host     string            `koanf:"host"`
	Port     int               `koanf:"port"`
	Database string            `koanf:"database"`
	Username string            `koanf:"username"`
	Password string            `koanf:"password"`
	Options  map[string]string `koanf:"options"`
}

// AdapterSettings converts the config into the adapter package's form.
func (c *Config) AdapterSettings() adapter.Config {
	return adapter.Config{
		Type:     c.Adapter.Type,
		Path:     c.Adapter.Path,
		Host:     c.Adapter.Host,
		Port:     c.Adapter.Port,
		Database: c.Adapter.Database,
		Username: c.Adapter.Username,
		Password: c.Adapter.Password,
		Options:  c.Adapter.Options,
	}
}

// Default values applied before any other configuration source.
const (
	DefaultAdapterType = "sqlite"
	DefaultAdapterPath = ":memory:"
	DefaultOutput      = "table"
)
