// Package config loads cointax settings from a TOML file, .env files and the
// environment. Command-line flags are applied on top by the CLI, so the
// precedence is flag > environment > file > defaults.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	toml "github.com/pelletier/go-toml/v2"

	"github.com/robinvdvleuten/cointax/algorand"
	"github.com/robinvdvleuten/cointax/ledger"
)

// DefaultPath is read when no config file is named and it exists.
const DefaultPath = "cointax.toml"

// File holds every setting that can be configured outside of flags.
type File struct {
	Ledger   LedgerConfig   `toml:"ledger"`
	Output   OutputConfig   `toml:"output"`
	Algorand AlgorandConfig `toml:"algorand"`
	Logging  LoggingConfig  `toml:"logging"`
}

// LedgerConfig holds the reconciliation settings.
type LedgerConfig struct {
	Policy             string `toml:"policy" validate:"required,policy"`
	FeeSlippage        bool   `toml:"fee_slippage"`
	IncomeShortCircuit bool   `toml:"income_short_circuit"`
}

// OutputConfig holds report settings.
type OutputConfig struct {
	Currency string `toml:"currency" validate:"required,len=3,alpha"` // ISO 4217 code used for totals
}

// AlgorandConfig holds indexer settings.
type AlgorandConfig struct {
	IndexerURL string   `toml:"indexer_url" validate:"required,url"`
	RateLimit  int      `toml:"rate_limit" validate:"min=1,max=100"`
	PageSize   int      `toml:"page_size" validate:"min=1,max=1000"`
	Timeout    string   `toml:"timeout" validate:"omitempty,duration"`
	Asset      string   `toml:"asset" validate:"required"`
	Addresses  []string `toml:"addresses" validate:"dive,len=58,alphanum"`
}

// GetTimeout parses and returns the timeout duration
func (c *AlgorandConfig) GetTimeout() time.Duration {
	d, err := time.ParseDuration(c.Timeout)
	if err != nil {
		return algorand.DefaultTimeout
	}
	return d
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string `toml:"level" validate:"oneof=trace debug info warn warning error"`
	Format string `toml:"format" validate:"oneof=text json"`
}

// Default returns the settings used when nothing is configured.
func Default() *File {
	cfg := ledger.NewConfig()
	return &File{
		Ledger: LedgerConfig{
			Policy:             cfg.Policy.String(),
			FeeSlippage:        cfg.FeeSlippage,
			IncomeShortCircuit: cfg.IncomeShortCircuit,
		},
		Output: OutputConfig{
			Currency: "USD",
		},
		Algorand: AlgorandConfig{
			IndexerURL: algorand.DefaultBaseURL,
			RateLimit:  algorand.DefaultRateLimit,
			PageSize:   algorand.DefaultPageSize,
			Timeout:    algorand.DefaultTimeout.String(),
			Asset:      algorand.DefaultAsset,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Load reads the config file at path over the defaults, applies environment
// overrides and validates the result. An empty path reads DefaultPath if it
// exists; a named file must exist.
func Load(path string) (*File, error) {
	LoadDotEnv()

	f := Default()

	if path == "" {
		if _, err := os.Stat(DefaultPath); err == nil {
			path = DefaultPath
		}
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
		if err := f.decode(data); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}

	f.applyEnvOverrides()

	if err := f.Validate(); err != nil {
		return nil, err
	}
	return f, nil
}

// Parse decodes TOML over the defaults without consulting the environment.
func Parse(data []byte) (*File, error) {
	f := Default()
	if err := f.decode(data); err != nil {
		return nil, err
	}
	if err := f.Validate(); err != nil {
		return nil, err
	}
	return f, nil
}

func (f *File) decode(data []byte) error {
	dec := toml.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(f); err != nil {
		var strict *toml.StrictMissingError
		if errors.As(err, &strict) {
			return fmt.Errorf("unknown settings:\n%s", strict.String())
		}
		return err
	}
	return nil
}

// LoadDotEnv loads the first .env file found next to the executable or in the
// working directory. Variables already set are left alone.
func LoadDotEnv() {
	candidates := []string{".env"}

	if exePath, err := os.Executable(); err == nil {
		candidates = append([]string{filepath.Join(filepath.Dir(exePath), ".env")}, candidates...)
	}

	for _, path := range candidates {
		if err := godotenv.Load(path); err == nil {
			return
		}
	}
}

// applyEnvOverrides applies environment variable overrides to the settings.
func (f *File) applyEnvOverrides() {
	if v := os.Getenv("COINTAX_POLICY"); v != "" {
		f.Ledger.Policy = v
	}
	if v := os.Getenv("COINTAX_CURRENCY"); v != "" {
		f.Output.Currency = v
	}
	if v := os.Getenv("COINTAX_LOG_LEVEL"); v != "" {
		f.Logging.Level = v
	}
	if v := os.Getenv("COINTAX_LOG_FORMAT"); v != "" {
		f.Logging.Format = v
	}
	if v := os.Getenv("ALGORAND_INDEXER_URL"); v != "" {
		f.Algorand.IndexerURL = v
	}
	if v := os.Getenv("ALGORAND_RATE_LIMIT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			f.Algorand.RateLimit = n
		}
	}
}

// Validate checks every setting and normalizes the currency code.
func (f *File) Validate() error {
	f.Output.Currency = strings.ToUpper(f.Output.Currency)
	f.Logging.Level = strings.ToLower(f.Logging.Level)
	f.Logging.Format = strings.ToLower(f.Logging.Format)

	err := newValidator().Struct(f)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}

	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, describe(fe))
	}
	return fmt.Errorf("invalid configuration: %s", strings.Join(msgs, "; "))
}

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())

	// Report fields by their TOML keys.
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name, _, _ := strings.Cut(field.Tag.Get("toml"), ",")
		if name == "-" {
			return ""
		}
		return name
	})

	_ = v.RegisterValidation("policy", func(fl validator.FieldLevel) bool {
		_, err := ledger.ParsePolicy(fl.Field().String())
		return err == nil
	})
	_ = v.RegisterValidation("duration", func(fl validator.FieldLevel) bool {
		_, err := time.ParseDuration(fl.Field().String())
		return err == nil
	})

	return v
}

// describe renders one failed rule, e.g. "output.currency must be 3 characters".
func describe(fe validator.FieldError) string {
	field := strings.TrimPrefix(fe.Namespace(), "File.")

	switch fe.Tag() {
	case "required":
		return field + " is required"
	case "policy":
		return fmt.Sprintf("%s %q is not FIFO, LIFO or WeightedAverage", field, fe.Value())
	case "oneof":
		return fmt.Sprintf("%s must be one of %s", field, fe.Param())
	case "len":
		return fmt.Sprintf("%s must be %s characters", field, fe.Param())
	case "min":
		return fmt.Sprintf("%s must be at least %s", field, fe.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s", field, fe.Param())
	}
	return fmt.Sprintf("%s %q failed %q", field, fe.Value(), fe.Tag())
}

// LedgerConfig converts the ledger settings into a run configuration.
func (f *File) LedgerConfig() (*ledger.Config, error) {
	policy, err := ledger.ParsePolicy(f.Ledger.Policy)
	if err != nil {
		return nil, err
	}

	cfg := ledger.NewConfig()
	cfg.Policy = policy
	cfg.FeeSlippage = f.Ledger.FeeSlippage
	cfg.IncomeShortCircuit = f.Ledger.IncomeShortCircuit
	return cfg, nil
}

// ClientOptions returns the indexer client options for the Algorand settings.
func (f *File) ClientOptions() []algorand.ClientOption {
	return []algorand.ClientOption{
		algorand.WithBaseURL(f.Algorand.IndexerURL),
		algorand.WithRateLimit(f.Algorand.RateLimit),
		algorand.WithPageSize(f.Algorand.PageSize),
		algorand.WithTimeout(f.Algorand.GetTimeout()),
	}
}
