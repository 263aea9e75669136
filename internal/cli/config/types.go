// Package config loads entconsole configuration: global console settings
// and the named connection profiles a console can be started against.
package config

// Config holds all CLI configuration options.
type Config struct {
	DefaultProfile string              `koanf:"default_profile"`
	Format         string              `koanf:"format"`
	LogFile        string              `koanf:"log_file"`
	HistoryFile    string              `koanf:"history_file"`
	Verbose        bool                `koanf:"verbose"`
	ShowSQL        bool                `koanf:"show_sql"`
	ProfileQueries bool                `koanf:"profile_queries"`
	MonitorQueries bool                `koanf:"monitor_queries"`
	Profiles       map[string]*Profile `koanf:"profiles"`

	// File is the configuration file that was loaded, if any.
	File string `koanf:"-"`
}

// Profile describes one data store connection and the schema manifest
// declaring its entities.
type Profile struct {
	Driver   string `koanf:"driver"`
	Database string `koanf:"database"`
	Host     string `koanf:"host"`
	Port     int    `koanf:"port"`
	User     string `koanf:"user"`
	Password string `koanf:"password"`
	Schema   string `koanf:"schema"`
	Manifest string `koanf:"manifest"`

	// PasswordKeyring reads the password from the OS keyring, stored under
	// the profile name, when no password is configured.
	PasswordKeyring bool `koanf:"password_keyring"`

	// Options are driver specific and decoded by the backend.
	Options map[string]any `koanf:"options"`
}

// Default configuration values.
const (
	DefaultFormat = "record"
	DefaultDriver = "sqlite"
)

// fileDrivers keep their database in a local file whose path is resolved
// relative to the configuration file.
var fileDrivers = map[string]bool{
	"sqlite": true,
	"duckdb": true,
}
