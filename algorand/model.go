package algorand

import "time"

// Transaction types as reported in tx-type.
const (
	TypePayment       = "pay"
	TypeAssetTransfer = "axfer"
	TypeApplication   = "appl"
)

// AccountTransaction is one indexer transaction record. Only the fields the
// tax conversion needs are decoded; JSONL files keep them in the same shape.
type AccountTransaction struct {
	ID               string `json:"id"`
	RoundTime        int64  `json:"round-time"`
	ConfirmedRound   uint64 `json:"confirmed-round"`
	IntraRoundOffset uint64 `json:"intra-round-offset,omitempty"`
	Fee              uint64 `json:"fee"`
	Sender           string `json:"sender"`
	Type             string `json:"tx-type"`
	Group            string `json:"group,omitempty"`
	SenderRewards    uint64 `json:"sender-rewards"`
	ReceiverRewards  uint64 `json:"receiver-rewards"`
	CloseRewards     uint64 `json:"close-rewards"`
	ClosingAmount    uint64 `json:"closing-amount"`

	Payment       *Payment       `json:"payment-transaction,omitempty"`
	AssetTransfer *AssetTransfer `json:"asset-transfer-transaction,omitempty"`
	Application   *Application   `json:"application-transaction,omitempty"`
}

// Payment moves Algos between accounts.
type Payment struct {
	Amount           uint64 `json:"amount"`
	Receiver         string `json:"receiver"`
	CloseRemainderTo string `json:"close-remainder-to,omitempty"`
	CloseAmount      uint64 `json:"close-amount,omitempty"`
}

// AssetTransfer moves an Algorand Standard Asset.
type AssetTransfer struct {
	Amount   uint64 `json:"amount"`
	AssetID  uint64 `json:"asset-id"`
	Receiver string `json:"receiver"`
}

// Application is an application call.
type Application struct {
	ApplicationID uint64 `json:"application-id"`
}

// Time returns the block time of the round the transaction was confirmed in.
func (t AccountTransaction) Time() time.Time {
	return time.Unix(t.RoundTime, 0).UTC()
}

// Receiver returns the receiving account of a payment or asset transfer.
func (t AccountTransaction) Receiver() string {
	switch {
	case t.Payment != nil:
		return t.Payment.Receiver
	case t.AssetTransfer != nil:
		return t.AssetTransfer.Receiver
	}
	return ""
}
