package ledger

import (
	"context"
	"testing"

	"github.com/alecthomas/assert/v2"
)

func TestParsePolicy(t *testing.T) {
	tests := []struct {
		input   string
		want    Policy
		wantErr bool
	}{
		{"FIFO", FIFO, false},
		{"fifo", FIFO, false},
		{" LIFO ", LIFO, false},
		{"WeightedAverage", WeightedAverage, false},
		{"weighted-average", WeightedAverage, false},
		{"wavg", WeightedAverage, false},
		{"spid", FIFO, true},
		{"", FIFO, true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParsePolicy(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestPolicyText(t *testing.T) {
	var p Policy
	assert.NoError(t, p.UnmarshalText([]byte("lifo")))
	assert.Equal(t, LIFO, p)

	text, err := WeightedAverage.MarshalText()
	assert.NoError(t, err)
	assert.Equal(t, "WeightedAverage", string(text))

	assert.Error(t, p.UnmarshalText([]byte("random")))
	assert.Equal(t, LIFO, p)
}

func TestConfigContext(t *testing.T) {
	def := ConfigFromContext(context.Background())
	assert.Equal(t, NewConfig(), def)

	cfg := NewConfig()
	cfg.Policy = WeightedAverage
	cfg.FeeSlippage = false

	got := ConfigFromContext(cfg.WithContext(context.Background()))
	assert.Equal(t, cfg, got)
}
