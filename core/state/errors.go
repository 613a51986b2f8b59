package state

import "errors"

// ErrNegativeBalance guards the ledger keyspace against underflow writes.
var ErrNegativeBalance = errors.New("state: balance must be non-negative")
