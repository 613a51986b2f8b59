package registry

// Asset describes a registered fungible asset. Balances for the symbol exist
// in the ledger regardless of metadata; engines only operate on symbols that
// are registered and not paused.
type Asset struct {
	Symbol   string
	Name     string
	Decimals uint8
	Paused   bool
}

// Role names consulted by administrative operations. Role membership lives in
// state so authorization survives restarts and carries no process-global
// owner.
const (
	// RoleAdmin authorizes pool creation, asset registration and role grants.
	RoleAdmin = "admin"
	// RoleMinter authorizes ledger mint and burn operations.
	RoleMinter = "minter"
)
