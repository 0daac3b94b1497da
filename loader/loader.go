// Package loader reads transaction histories from disk. It accepts exchange
// CSV exports and Algorand JSONL dumps, expands directories, skips files named
// more than once and merges everything into one transaction list.
//
// Example usage:
//
//	ldr := loader.New(loader.WithRecursive(), loader.WithAlgorandAddress(addr))
//	result, err := ldr.Load(ctx, "exports/", "extra.csv")
//	if err != nil {
//	    return err
//	}
//	sales, err := ledger.Reconcile(ctx, result.Transactions, cfg)
package loader

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/robinvdvleuten/cointax/algorand"
	"github.com/robinvdvleuten/cointax/parser"
	"github.com/robinvdvleuten/cointax/telemetry"
	"github.com/robinvdvleuten/cointax/transaction"
)

// Loader reads transaction files.
//
// Configure the loader using functional options passed to New:
//
//	loader := New(WithRecursive())
type Loader struct {
	// Format forces the CSV layout; FormatAuto detects it per file.
	Format parser.Format

	// Recursive expands directories into the supported files they contain.
	Recursive bool

	// AlgorandAddress is the account JSONL histories belong to. JSONL files
	// cannot be converted without it.
	AlgorandAddress string

	// AlgorandAsset is the symbol Algos are booked under.
	AlgorandAsset string
}

// Option configures how files are loaded.
type Option func(*Loader)

// WithFormat forces the CSV layout of every file.
func WithFormat(f parser.Format) Option {
	return func(l *Loader) {
		l.Format = f
	}
}

// WithRecursive makes directories load every .csv and .jsonl file beneath them.
func WithRecursive() Option {
	return func(l *Loader) {
		l.Recursive = true
	}
}

// WithAlgorandAddress names the owner of the Algorand histories being loaded.
func WithAlgorandAddress(address string) Option {
	return func(l *Loader) {
		l.AlgorandAddress = address
	}
}

// WithAlgorandAsset sets the symbol Algos are booked under.
func WithAlgorandAsset(asset string) Option {
	return func(l *Loader) {
		l.AlgorandAsset = asset
	}
}

// New creates a new Loader with the given options.
func New(opts ...Option) *Loader {
	l := &Loader{
		AlgorandAsset: algorand.DefaultAsset,
	}

	for _, opt := range opts {
		opt(l)
	}

	return l
}

// Result holds the merged transactions and the files they came from.
type Result struct {
	Transactions transaction.Transactions

	// Files are the absolute paths that were read, in load order.
	Files []string
}

// Load reads every path. Directories require WithRecursive. A file named
// twice, directly or through a directory, is read once.
func (l *Loader) Load(ctx context.Context, paths ...string) (*Result, error) {
	timer := telemetry.StartTimer(ctx, "loader.load")
	defer timer.End()

	state := &loaderState{
		loader:  l,
		visited: make(map[string]bool),
		result:  &Result{},
	}

	for _, path := range paths {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if err := state.loadPath(ctx, timer, path); err != nil {
			return nil, err
		}
	}

	return state.result, nil
}

// LoadBytes parses in-memory data, such as standard input. name selects the
// decoder by extension and labels transaction sources.
func (l *Loader) LoadBytes(ctx context.Context, name string, data []byte) (*Result, error) {
	txns, err := l.decode(ctx, name, data)
	if err != nil {
		return nil, err
	}
	return &Result{Transactions: txns}, nil
}

func (l *Loader) decode(ctx context.Context, filename string, data []byte) (transaction.Transactions, error) {
	if isJSONL(filename) {
		if l.AlgorandAddress == "" {
			return nil, fmt.Errorf("%s: an Algorand address is required to load JSONL histories", filename)
		}
		history, err := algorand.ReadJSONL(bytes.NewReader(data))
		if err != nil {
			return nil, fmt.Errorf("%s: %w", filename, err)
		}
		return algorand.ToTransactions(ctx, l.AlgorandAddress, l.AlgorandAsset, history), nil
	}

	return parser.ParseBytes(ctx, filename, data, parser.WithFormat(l.Format))
}

// loaderState tracks state during one Load call.
type loaderState struct {
	loader  *Loader
	visited map[string]bool // absolute paths already loaded
	result  *Result
}

func (s *loaderState) loadPath(ctx context.Context, parent telemetry.Timer, path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", path, err)
	}

	if !info.IsDir() {
		return s.loadFile(ctx, parent, path)
	}
	if !s.loader.Recursive {
		return fmt.Errorf("%s is a directory (use --recursive to load its files)", path)
	}

	return filepath.WalkDir(path, func(p string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !supported(p) {
			return nil
		}
		return s.loadFile(ctx, parent, p)
	})
}

func (s *loaderState) loadFile(ctx context.Context, parent telemetry.Timer, filename string) error {
	absPath, err := filepath.Abs(filename)
	if err != nil {
		return fmt.Errorf("failed to resolve absolute path for %s: %w", filename, err)
	}
	if s.visited[absPath] {
		return nil
	}
	s.visited[absPath] = true

	timer := parent.Child(fmt.Sprintf("loader.file %s", filepath.Base(filename)))
	defer timer.End()

	data, err := os.ReadFile(filename)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", filename, err)
	}

	txns, err := s.loader.decode(ctx, filename, data)
	if err != nil {
		return err
	}

	s.result.Transactions = append(s.result.Transactions, txns...)
	s.result.Files = append(s.result.Files, absPath)
	return nil
}

func isJSONL(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	return ext == ".jsonl" || ext == ".ndjson"
}

func supported(name string) bool {
	return isJSONL(name) || strings.ToLower(filepath.Ext(name)) == ".csv"
}
