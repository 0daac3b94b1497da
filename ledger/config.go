package ledger

import (
	"context"
	"fmt"
	"strings"
)

// Policy selects which lots a disposal consumes.
type Policy int

const (
	// FIFO consumes the oldest lot first.
	FIFO Policy = iota
	// LIFO consumes the newest lot first.
	LIFO
	// WeightedAverage prices every disposal at the blended price of all held lots.
	WeightedAverage
)

func (p Policy) String() string {
	switch p {
	case FIFO:
		return "FIFO"
	case LIFO:
		return "LIFO"
	case WeightedAverage:
		return "WeightedAverage"
	}
	return fmt.Sprintf("Policy(%d)", int(p))
}

// ParsePolicy parses a policy name, case-insensitively.
func ParsePolicy(s string) (Policy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "fifo":
		return FIFO, nil
	case "lifo":
		return LIFO, nil
	case "weightedaverage", "weighted-average", "weighted_average", "average", "wavg":
		return WeightedAverage, nil
	}
	return FIFO, fmt.Errorf("unknown cost basis policy %q, expected FIFO, LIFO or WeightedAverage", s)
}

// MarshalText implements encoding.TextMarshaler.
func (p Policy) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler so policies can be read
// from TOML files and command-line flags.
func (p *Policy) UnmarshalText(text []byte) error {
	parsed, err := ParsePolicy(string(text))
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}

// Config holds the settings of one reconciliation run. The policy is fixed
// for the whole run and applies to every asset.
type Config struct {
	Policy Policy

	// FeeSlippage treats a shortfall as covered when the disposal's fees are
	// worth at least the unmatched quantity at spot price.
	FeeSlippage bool

	// IncomeShortCircuit gives reward receipts their stated subtotal as basis
	// instead of matching them against withdrawn lots.
	IncomeShortCircuit bool

	// QuantityPlaces is the precision quantities are rounded to after every
	// consumption step.
	QuantityPlaces int32

	// CurrencyPlaces is the precision of cost basis and gains in output records.
	CurrencyPlaces int32
}

// NewConfig returns the default configuration: FIFO with both heuristics on.
func NewConfig() *Config {
	return &Config{
		Policy:             FIFO,
		FeeSlippage:        true,
		IncomeShortCircuit: true,
		QuantityPlaces:     6,
		CurrencyPlaces:     2,
	}
}

type contextKey struct{}

// WithContext returns a new context with the Config attached.
func (c *Config) WithContext(ctx context.Context) context.Context {
	return context.WithValue(ctx, contextKey{}, c)
}

// ConfigFromContext retrieves the Config from context.
// Returns a default Config if not found.
func ConfigFromContext(ctx context.Context) *Config {
	if cfg, ok := ctx.Value(contextKey{}).(*Config); ok {
		return cfg
	}
	return NewConfig()
}
