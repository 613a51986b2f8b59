package events

import (
	"math/big"

	"tidepool/core/types"
	"tidepool/crypto"
)

const (
	// TypeTransferred is emitted when value moves between two accounts.
	TypeTransferred = "ledger.transferred"
	// TypeMinted is emitted when new supply is created for an asset.
	TypeMinted = "ledger.minted"
	// TypeBurned is emitted when supply is destroyed for an asset.
	TypeBurned = "ledger.burned"
)

// Transferred captures a completed balance transfer.
type Transferred struct {
	Asset  string
	From   crypto.Address
	To     crypto.Address
	Amount *big.Int
}

// EventType satisfies the Event interface.
func (Transferred) EventType() string { return TypeTransferred }

// Event converts the structured payload into a broadcastable event.
func (e Transferred) Event() *types.Event {
	return &types.Event{Type: TypeTransferred, Attributes: map[string]string{
		"asset":  e.Asset,
		"from":   e.From.String(),
		"to":     e.To.String(),
		"amount": formatAmount(e.Amount),
	}}
}

// Minted captures a supply increase credited to an account.
type Minted struct {
	Asset     string
	To        crypto.Address
	Amount    *big.Int
	NewSupply *big.Int
}

// EventType satisfies the Event interface.
func (Minted) EventType() string { return TypeMinted }

// Event converts the structured payload into a broadcastable event.
func (e Minted) Event() *types.Event {
	return &types.Event{Type: TypeMinted, Attributes: map[string]string{
		"asset":     e.Asset,
		"to":        e.To.String(),
		"amount":    formatAmount(e.Amount),
		"newSupply": formatAmount(e.NewSupply),
	}}
}

// Burned captures a supply decrease debited from an account.
type Burned struct {
	Asset     string
	From      crypto.Address
	Amount    *big.Int
	NewSupply *big.Int
}

// EventType satisfies the Event interface.
func (Burned) EventType() string { return TypeBurned }

// Event converts the structured payload into a broadcastable event.
func (e Burned) Event() *types.Event {
	return &types.Event{Type: TypeBurned, Attributes: map[string]string{
		"asset":     e.Asset,
		"from":      e.From.String(),
		"amount":    formatAmount(e.Amount),
		"newSupply": formatAmount(e.NewSupply),
	}}
}
