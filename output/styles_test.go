package output

import (
	"bytes"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
)

func TestNewStyles(t *testing.T) {
	var buf bytes.Buffer
	styles := NewStyles(&buf)

	if styles == nil {
		t.Fatal("NewStyles should return non-nil Styles")
	}
	if styles.Output() == nil {
		t.Error("Styles should have non-nil output")
	}
}

func TestStylesKeepText(t *testing.T) {
	var buf bytes.Buffer
	styles := NewStyles(&buf)

	tests := []struct {
		name  string
		style func(string) string
		text  string
	}{
		{"Success", styles.Success, "reconciled"},
		{"Error", styles.Error, "unrecognized kind"},
		{"Warning", styles.Warning, "shortfall"},
		{"FilePath", styles.FilePath, "/tmp/coinbase.csv"},
		{"Asset", styles.Asset, "BTC"},
		{"Amount", styles.Amount, "1,234.56 USD"},
		{"Gain", styles.Gain, "12.00"},
		{"Loss", styles.Loss, "-12.00"},
		{"Keyword", styles.Keyword, "Gains"},
		{"Dim", styles.Dim, "secondary"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.style(tt.text); !strings.Contains(got, tt.text) {
				t.Errorf("%s() should contain %q, got: %q", tt.name, tt.text, got)
			}
		})
	}
}

func TestStylesSigned(t *testing.T) {
	var buf bytes.Buffer
	styles := NewStyles(&buf)

	if got := styles.Signed("0.00", decimal.Zero); got != "0.00" {
		t.Errorf("Signed() should leave zero unstyled, got: %q", got)
	}
	if got := styles.Signed("5.00", decimal.NewFromInt(5)); !strings.Contains(got, "5.00") {
		t.Errorf("Signed() should contain text, got: %q", got)
	}
	if got := styles.Signed("-5.00", decimal.NewFromInt(-5)); !strings.Contains(got, "-5.00") {
		t.Errorf("Signed() should contain text, got: %q", got)
	}
}

func TestStylesTiming(t *testing.T) {
	var buf bytes.Buffer
	styles := NewStyles(&buf)

	t.Run("FastOperation", func(t *testing.T) {
		if result := styles.Timing("5ms", false); !strings.Contains(result, "5ms") {
			t.Errorf("Timing() result should contain timing, got: %s", result)
		}
	})

	t.Run("SlowOperation", func(t *testing.T) {
		if result := styles.Timing("500ms", true); !strings.Contains(result, "500ms") {
			t.Errorf("Timing() result should contain timing, got: %s", result)
		}
	})
}
