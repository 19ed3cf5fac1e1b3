package server

import (
	"fmt"
	"os"

	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
)

// ServerConfig represents the complete server configuration
type ServerConfig struct {
	Server   ServerSettings  `hcl:"server,block"`
	Race     RaceSettings    `hcl:"race,block"`
	Accounts []AccountConfig `hcl:"account,block"`
}

// ServerSettings contains server-level configuration
type ServerSettings struct {
	Address  string `hcl:"address,optional"`
	Port     int    `hcl:"port,optional"`
	LogLevel string `hcl:"log_level,optional"`
}

// RaceSettings configures the race engine instance
type RaceSettings struct {
	Owner   string `hcl:"owner"`
	DataDir string `hcl:"data_dir,optional"` // empty keeps balances in memory
}

// AccountConfig defines a bootstrap account: its auth token and an optional
// opening balance credited at startup.
type AccountConfig struct {
	Name    string `hcl:"name,label"`
	Token   string `hcl:"token,optional"`
	Balance uint64 `hcl:"balance,optional"`
}

// DefaultServerConfig returns default server configuration
func DefaultServerConfig() *ServerConfig {
	return &ServerConfig{
		Server: ServerSettings{
			Address:  "localhost",
			Port:     8080,
			LogLevel: "info",
		},
		Race: RaceSettings{
			Owner: "operator",
		},
	}
}

// LoadServerConfig loads server configuration from an HCL file. A missing
// file yields the defaults.
func LoadServerConfig(filename string) (*ServerConfig, error) {
	if _, err := os.Stat(filename); os.IsNotExist(err) {
		return DefaultServerConfig(), nil
	}

	parser := hclparse.NewParser()
	file, diags := parser.ParseHCLFile(filename)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse HCL file: %s", diags.Error())
	}

	var config ServerConfig
	diags = gohcl.DecodeBody(file.Body, nil, &config)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to decode HCL: %s", diags.Error())
	}

	if config.Server.Address == "" {
		config.Server.Address = "localhost"
	}
	if config.Server.Port == 0 {
		config.Server.Port = 8080
	}
	if config.Server.LogLevel == "" {
		config.Server.LogLevel = "info"
	}
	if config.Race.Owner == "" {
		config.Race.Owner = "operator"
	}

	return &config, nil
}

// Validate validates the server configuration
func (c *ServerConfig) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid port: %d", c.Server.Port)
	}

	if c.Race.Owner == "" {
		return fmt.Errorf("race owner account must be configured")
	}

	seen := make(map[string]bool)
	for _, account := range c.Accounts {
		if account.Name == "" {
			return fmt.Errorf("account name must not be empty")
		}
		if seen[account.Name] {
			return fmt.Errorf("duplicate account: %s", account.Name)
		}
		seen[account.Name] = true
	}

	return nil
}

// GetServerAddress returns the host:port string to bind to
func (c *ServerConfig) GetServerAddress() string {
	return fmt.Sprintf("%s:%d", c.Server.Address, c.Server.Port)
}

// TokenTable builds the token -> account table for the static validator.
// Accounts without tokens are excluded; if no account has a token, auth is
// considered disabled.
func (c *ServerConfig) TokenTable() map[string]string {
	tokens := make(map[string]string)
	for _, account := range c.Accounts {
		if account.Token != "" {
			tokens[account.Token] = account.Name
		}
	}
	return tokens
}
