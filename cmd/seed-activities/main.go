package main

import (
	"context"
	"flag"
	"os"
	"runtime"
	"time"

	"github.com/okian/savra/internal/seed"
)

// Default configuration constants.
const (
	defaultTeachers  = 40
	defaultRecords   = 5000
	defaultMonths    = 6
	defaultBatchSize = 250
	defaultWorkers   = 2 // multiplier for runtime.NumCPU()
	defaultTimeout   = 30 * time.Second
	defaultRunTime   = 10 * time.Minute
)

func main() {
	var (
		baseURL   = flag.String("url", "", "Base URL of the service; empty skips the replay")
		prefix    = flag.String("prefix", "/api", "API prefix of the service")
		teachers  = flag.Int("teachers", defaultTeachers, "Number of distinct teachers")
		records   = flag.Int("records", defaultRecords, "Number of records to generate")
		months    = flag.Int("months", defaultMonths, "Months of history to spread records over")
		seedValue = flag.Uint64("seed", 1, "Generator seed")
		batchSize = flag.Int("batch", defaultBatchSize, "Records per POST")
		workers   = flag.Int("workers", runtime.NumCPU()*defaultWorkers, "Number of concurrent submitters")
		timeout   = flag.Duration("timeout", defaultTimeout, "HTTP request timeout")
		outputCSV = flag.String("csv", "", "Write the generated records to this CSV file")
		verbose   = flag.Bool("verbose", false, "Enable verbose logging")
		help      = flag.Bool("help", false, "Show help")
	)
	flag.Parse()

	if *help {
		seed.ShowHelp()
		return
	}
	if *baseURL == "" && *outputCSV == "" {
		seed.ShowHelp()
		os.Exit(2)
	}

	if err := seed.SetupLogging(*verbose); err != nil {
		_, _ = os.Stderr.WriteString("Failed to setup logging: " + err.Error() + "\n")
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), defaultRunTime)
	defer cancel()

	cfg := &seed.Config{
		BaseURL:   *baseURL,
		Prefix:    *prefix,
		Teachers:  *teachers,
		Records:   *records,
		Months:    *months,
		End:       time.Now().UTC(),
		Seed:      *seedValue,
		BatchSize: *batchSize,
		Workers:   max(*workers, 1),
		Timeout:   *timeout,
		OutputCSV: *outputCSV,
		Verbose:   *verbose,
	}

	if err := seed.Run(ctx, cfg); err != nil {
		_, _ = os.Stderr.WriteString("Seed run failed: " + err.Error() + "\n")
		cancel()
		os.Exit(1) //nolint:gocritic // exitAfterDefer: cancel is called above
	}
}
