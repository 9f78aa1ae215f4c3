package config

// CLIConfig is the configuration for respkv-cli.
type CLIConfig struct {
	// Used when no profile is selected.
	DefaultServer string `yaml:"default_server"`
	DefaultOutput string `yaml:"default_output"` // text, json, yaml

	// Named servers, selected with --profile.
	Profiles map[string]Profile `yaml:"profiles"`

	CurrentProfile string `yaml:"current_profile"`
}

// Profile stores the connection details of one server. Passwords are
// never written here; use RESPKV_PASSWORD or --password.
type Profile struct {
	Server        string `yaml:"server"`
	TLS           bool   `yaml:"tls"`
	TLSCAFile     string `yaml:"tls_ca_file"`
	TLSServerName string `yaml:"tls_server_name"`
}

// Default returns the default CLI configuration.
func Default() *CLIConfig {
	return &CLIConfig{
		DefaultServer: "127.0.0.1:6379",
		DefaultOutput: "text",
		Profiles:      make(map[string]Profile),
	}
}
