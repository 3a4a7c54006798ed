package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateAPI(); err != nil {
		return err
	}
	if err := c.validateConnectivity(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateAPI() error {
	if strings.TrimSpace(c.API.BaseURL) == "" {
		defaultPath, err := DefaultConfigPath()
		if err != nil {
			defaultPath = "~/.config/fieldsync/config.toml"
		}
		return fmt.Errorf("api.base_url is required. Edit %s (create with 'fieldsync config init')", defaultPath)
	}
	parsed, err := url.Parse(c.API.BaseURL)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return fmt.Errorf("api.base_url %q is not a valid absolute URL", c.API.BaseURL)
	}
	if c.API.Token != "" && c.API.TokenPath != "" {
		return errors.New("api.token and api.token_path are mutually exclusive")
	}
	return nil
}

func (c *Config) validateConnectivity() error {
	parsed, err := url.Parse(c.Connectivity.ProbeURL)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return fmt.Errorf("connectivity.probe_url %q is not a valid absolute URL", c.Connectivity.ProbeURL)
	}
	return nil
}
