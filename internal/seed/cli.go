package seed

import (
	"fmt"
	"os"

	"github.com/okian/savra/pkg/logger"
)

// SetupLogging initializes the global logger for the seed tool.
func SetupLogging(verbose bool) error {
	if err := logger.Init(); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	level := "info"
	if verbose {
		level = "debug"
	}
	return logger.SetLevelString(level)
}

// ShowHelp prints usage information for the seed tool.
func ShowHelp() {
	_, _ = os.Stdout.WriteString(`Savra Activity Seeder
=====================

Generates synthetic teacher activity and either writes it as a CSV the
service can load, or pushes it to a running service and checks the
reports it serves.

Usage:
  go run ./cmd/seed-activities [options]

Options:
  -url string        Base URL of the service; empty skips the replay
  -prefix string     API prefix (default "/api")
  -teachers int      Distinct teachers (default 40)
  -records int       Records to generate (default 5000)
  -months int        Months of history (default 6)
  -seed uint         Generator seed (default 1)
  -batch int         Records per POST (default 250)
  -workers int       Concurrent submitters (default 2 x NumCPU)
  -timeout duration  HTTP request timeout (default 30s)
  -csv string        Write the generated records to this CSV file
  -verbose           Enable debug logging
  -help              Show this help

Examples:
  go run ./cmd/seed-activities -csv data/activities.csv
  go run ./cmd/seed-activities -url http://localhost:8000 -records 20000 -seed 7

Re-running with the same seed pushes duplicates, which the service drops;
use a new seed against a long-running instance.
`)
}
