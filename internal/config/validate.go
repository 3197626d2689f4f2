package config

import (
	"fmt"
	"net/url"
)

var validFormats = map[string]struct{}{
	"csv":    {},
	"csv_br": {},
	"both":   {},
}

var validBREncodings = map[string]struct{}{
	"utf-8":        {},
	"windows-1252": {},
}

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateAPI(); err != nil {
		return err
	}
	if err := c.validateOutput(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateAPI() error {
	parsed, err := url.Parse(c.API.BaseURL)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return fmt.Errorf("api.base_url must be an absolute URL, got %q", c.API.BaseURL)
	}
	return nil
}

func (c *Config) validateOutput() error {
	if _, ok := validFormats[c.Output.Format]; !ok {
		return fmt.Errorf("output.format must be one of csv, csv_br, both; got %q", c.Output.Format)
	}
	if _, ok := validBREncodings[c.Output.BREncoding]; !ok {
		return fmt.Errorf("output.br_encoding must be utf-8 or windows-1252; got %q", c.Output.BREncoding)
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "auto", "console", "json":
		return nil
	default:
		return fmt.Errorf("logging.format must be auto, console, or json; got %q", c.Logging.Format)
	}
}
