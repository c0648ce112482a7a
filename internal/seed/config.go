// Package seed generates synthetic activity records and replays them
// against a running service.
package seed

import (
	"time"

	"github.com/okian/savra/internal/domain/types"
)

// Config holds configuration for a seed run.
type Config struct {
	BaseURL   string        // Base URL of the service; empty writes the CSV only
	Prefix    string        // API prefix, "/api" by default
	Teachers  int           // Number of distinct teachers
	Records   int           // Number of records to generate
	Months    int           // Records are spread over this many months before End
	End       time.Time     // Latest activity date
	Seed      uint64        // Generator seed; equal seeds give equal records
	BatchSize int           // Records per POST /records
	Workers   int           // Number of concurrent submitters
	Timeout   time.Duration // HTTP request timeout
	OutputCSV string        // Optional CSV file for the generated records
	Verbose   bool          // Enable verbose logging
}

// Entry is a leaderboard row as served by the API.
type Entry = types.Entry

// Stats holds run statistics.
type Stats struct {
	RecordsGenerated int
	BatchesSent      int
	BatchesRetried   int
	BatchesFailed    int
	RecordsQueued    int
	RanksChecked     int
	RankMismatches   int
	StartTime        time.Time
	EndTime          time.Time
	Duration         time.Duration
}
