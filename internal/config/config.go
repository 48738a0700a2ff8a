package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

var (
	ErrMissingField      = errors.New("missing required config field")
	ErrUnsupportedFormat = errors.New("unsupported config format")
)

// Relay is the SMTP relay configuration read once at startup.
//
// Example Config.toml:
//
//	user = "bob@mail.com"
//	pwd = "04 08 0F 10 17 2A"
//	forward_address = "alice@mail.com"
//	server = "smtp.mail.com"
//	listen_address = "0.0.0.0:8080"
type Relay struct {
	// User is the SMTP account name.
	User string `toml:"user" yaml:"user"`
	// Password is usually an app password rather than the account password.
	Password string `toml:"pwd" yaml:"pwd"`
	// ForwardAddress receives every relayed submission.
	ForwardAddress string `toml:"forward_address" yaml:"forward_address"`
	// Server is the SMTP host matching User and Password.
	Server        string `toml:"server"         yaml:"server"`
	ListenAddress string `toml:"listen_address" yaml:"listen_address"`
}

// Load reads and validates the relay configuration. The format is chosen by
// file extension; anything other than .yaml/.yml is parsed as TOML.
func Load(path string) (*Relay, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("unable to read config file: %w", err)
	}

	format := "toml"

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		format = "yaml"
	}

	return Parse(data, format)
}

// Parse decodes and validates a relay configuration in the given format ("toml" or "yaml").
func Parse(data []byte, format string) (*Relay, error) {
	var cfg Relay

	switch format {
	case "toml":
		if err := toml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("unable to parse config file: %w", err)
		}
	case "yaml":
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("unable to parse config file: %w", err)
		}
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate reports the first required field that is empty.
func (r *Relay) Validate() error {
	fields := []struct {
		name  string
		value string
	}{
		{"user", r.User},
		{"pwd", r.Password},
		{"forward_address", r.ForwardAddress},
		{"server", r.Server},
		{"listen_address", r.ListenAddress},
	}

	for _, f := range fields {
		if strings.TrimSpace(f.value) == "" {
			return fmt.Errorf("%w: %s", ErrMissingField, f.name)
		}
	}

	return nil
}
