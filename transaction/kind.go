package transaction

import "strings"

// Kind classifies a transaction by its effect on an asset position.
// The set is closed: every exporter label maps onto one of these values or
// onto Unknown, which the ledger refuses to book.
type Kind int

const (
	Unknown Kind = iota
	Buy
	Sell
	Convert
	Send
	Receive
	Income
	Reward
)

var kindNames = [...]string{
	Unknown: "Unknown",
	Buy:     "Buy",
	Sell:    "Sell",
	Convert: "Convert",
	Send:    "Send",
	Receive: "Receive",
	Income:  "Income",
	Reward:  "Reward",
}

// String returns the canonical name of the kind.
func (k Kind) String() string {
	if k < 0 || int(k) >= len(kindNames) {
		return "Unknown"
	}
	return kindNames[k]
}

// labels maps exporter transaction-type labels (lowercased) onto kinds.
var labels = map[string]Kind{
	"buy":                 Buy,
	"convertbuy":          Buy,
	"cardbuyback":         Buy,
	"advanced trade buy":  Buy,
	"sell":                Sell,
	"convertsell":         Sell,
	"advanced trade sell": Sell,
	"convert":             Convert,
	"send":                Send,
	"cardspend":           Send,
	"receive":             Receive,
	"coinbase earn":       Income,
	"rewards income":      Income,
	"staking income":      Income,
	"inflation reward":    Income,
	"learning reward":     Reward,
}

// ParseKind maps an exporter label such as "Advanced Trade Sell" or
// "Coinbase Earn" onto a Kind. Canonical kind names are accepted as well.
// Unrecognized labels return Unknown.
func ParseKind(label string) Kind {
	key := strings.ToLower(strings.TrimSpace(label))
	if k, ok := labels[key]; ok {
		return k
	}
	for k, name := range kindNames {
		if strings.ToLower(name) == key && Kind(k) != Unknown {
			return Kind(k)
		}
	}
	return Unknown
}

// IsAcquisition reports whether the kind adds units to a position.
func (k Kind) IsAcquisition() bool {
	switch k {
	case Buy, Receive, Income, Reward:
		return true
	}
	return false
}

// IsDisposal reports whether the kind removes units from a position.
func (k Kind) IsDisposal() bool {
	return k == Sell || k == Send
}

// IsCostless reports whether the kind is a reward whose basis is its stated
// value rather than anything matched from prior lots.
func (k Kind) IsCostless() bool {
	return k == Reward
}
