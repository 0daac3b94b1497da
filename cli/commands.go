package cli

import "fmt"

var (
	// Version contains the application version number. It's set via ldflags
	// when building.
	Version = ""

	// CommitSHA contains the SHA of the commit that this application was built
	// against. It's set via ldflags when building.
	CommitSHA = ""
)

// Globals defines global flags available to all commands.
type Globals struct {
	Telemetry bool   `help:"Show timing telemetry for operations."`
	Config    string `help:"TOML configuration file (defaults to ./cointax.toml when present)." placeholder:"FILE"`
	LogLevel  string `help:"Log level: trace, debug, info, warn or error." placeholder:"LEVEL"`
	LogFormat string `help:"Log format: text or json." placeholder:"FORMAT"`
	Policy    string `help:"Lot selection policy: FIFO, LIFO or WeightedAverage." short:"p"`
}

type Commands struct {
	Globals

	Gains   GainsCmd   `cmd:"" help:"Report realized gains and losses."`
	Income  IncomeCmd  `cmd:"" help:"Report income from rewards and interest."`
	Lots    LotsCmd    `cmd:"" help:"Show the lots still held after all transactions."`
	Summary SummaryCmd `cmd:"" help:"Show capital gains totals per year."`
	Fetch   FetchCmd   `cmd:"" help:"Download transaction histories from a blockchain indexer."`
	Serve   ServeCmd   `cmd:"" help:"Serve the report over HTTP and reload it when exports change."`
	Doctor  DoctorCmd  `cmd:"" help:"Doctor utilities for debugging exports and settings."`
}

// BuildVersion combines Version and CommitSHA for display.
func BuildVersion() string {
	version := Version
	if version == "" {
		version = "dev"
	}
	if CommitSHA == "" {
		return version
	}
	return fmt.Sprintf("%s (%s)", version, CommitSHA)
}
