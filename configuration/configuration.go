// Package configuration holds the runtime configuration, populated from
// defaults, environment variables and command line flags.
package configuration

import (
	"time"

	"github.com/fulldump/goconfig"
)

// Configuration is the full set of runtime settings.
type Configuration struct {
	SpreadsheetID string `usage:"Google spreadsheet id"`
	SheetName     string `usage:"sheet (tab) name inside the spreadsheet"`
	Credentials   string `usage:"path to service account credentials JSON"`
	SqlitePath    string `usage:"path to a SQLite file used instead of a spreadsheet"`
	Timezone      string `usage:"IANA timezone the sheet's dates are anchored in"`
	Verbose       bool   `usage:"enable debug logging"`
}

// Default returns the configuration defaults applied before environment
// variables and flags are read.
func Default() Configuration {
	return Configuration{
		SheetName:  "Sheet1",
		SqlitePath: "sheet.db",
		Timezone:   "UTC",
	}
}

// Read fills the configuration from defaults, environment and flags.
func Read() Configuration {
	c := Default()
	goconfig.Read(&c)
	return c
}

// Location resolves the configured timezone, falling back to UTC when the
// name does not resolve.
func (c Configuration) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}
