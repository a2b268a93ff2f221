// Package sheets appends attendance records to a Google Sheets spreadsheet.
package sheets

import (
	"errors"
	"fmt"
)

// DefaultSpreadsheetName is looked up in Drive when no spreadsheet ID is configured.
const DefaultSpreadsheetName = "PontoFuncionarios"

// Config holds the configuration for the Google Sheets writer.
type Config struct {
	ClientID           string
	ClientSecret       string
	RefreshToken       string
	ServiceAccountPath string
	SpreadsheetID      string
	SpreadsheetName    string
	// SheetName is the tab records are appended to; empty means the first tab.
	SheetName string
	TimeZone  string
	BatchSize int
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		SpreadsheetName: DefaultSpreadsheetName,
		TimeZone:        "America/Sao_Paulo",
		BatchSize:       500,
	}
}

// Config validation errors.
var (
	ErrNoAuth        = errors.New("no authentication method configured")
	ErrMultipleAuth  = errors.New("multiple authentication methods configured; use either OAuth2 or service account")
	ErrNoSpreadsheet = errors.New("spreadsheet ID or name is required")
)

// HasOAuth reports whether complete OAuth2 credentials are present.
func (c *Config) HasOAuth() bool {
	return c.ClientID != "" && c.ClientSecret != "" && c.RefreshToken != ""
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	hasServiceAccount := c.ServiceAccountPath != ""

	if !c.HasOAuth() && !hasServiceAccount {
		return ErrNoAuth
	}
	if c.HasOAuth() && hasServiceAccount {
		return ErrMultipleAuth
	}
	if c.SpreadsheetID == "" && c.SpreadsheetName == "" {
		return ErrNoSpreadsheet
	}
	if c.BatchSize <= 0 {
		return fmt.Errorf("batch size must be positive")
	}
	return nil
}

// appendRange is the A1 range rows are appended under.
func (c *Config) appendRange() string {
	if c.SheetName == "" {
		return "A:D"
	}
	return fmt.Sprintf("'%s'!A:D", c.SheetName)
}
