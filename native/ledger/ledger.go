// Package ledger implements balance movement over the (asset, account)
// keyspace. It is the ground truth both engines read and mutate; callers are
// responsible for checking asset registration and authorization before
// moving value.
package ledger

import (
	"math/big"

	"tidepool/crypto"
)

// State is the balance slice of the state manager.
type State interface {
	Balance(symbol string, addr crypto.Address) (*big.Int, error)
	SetBalance(symbol string, addr crypto.Address, amount *big.Int) error
	Supply(symbol string) (*big.Int, error)
	SetSupply(symbol string, amount *big.Int) error
}

// BalanceOf returns the balance for (symbol, addr), zero when absent.
func BalanceOf(st State, symbol string, addr crypto.Address) (*big.Int, error) {
	return st.Balance(symbol, addr)
}

// Move transfers amount between two accounts without touching supply. The
// per-asset sum of balances is invariant under Move.
func Move(st State, symbol string, from, to crypto.Address, amount *big.Int) error {
	if amount == nil || amount.Sign() <= 0 {
		return ErrInvalidAmount
	}
	fromBal, err := st.Balance(symbol, from)
	if err != nil {
		return err
	}
	if fromBal.Cmp(amount) < 0 {
		return ErrInsufficientBalance
	}
	if from.Equal(to) {
		return nil
	}
	toBal, err := st.Balance(symbol, to)
	if err != nil {
		return err
	}
	if err := st.SetBalance(symbol, from, new(big.Int).Sub(fromBal, amount)); err != nil {
		return err
	}
	return st.SetBalance(symbol, to, new(big.Int).Add(toBal, amount))
}

// Mint creates new supply and credits it to an account. It returns the new
// total supply for the asset.
func Mint(st State, symbol string, to crypto.Address, amount *big.Int) (*big.Int, error) {
	if amount == nil || amount.Sign() <= 0 {
		return nil, ErrInvalidAmount
	}
	supply, err := st.Supply(symbol)
	if err != nil {
		return nil, err
	}
	balance, err := st.Balance(symbol, to)
	if err != nil {
		return nil, err
	}
	newSupply := new(big.Int).Add(supply, amount)
	if err := st.SetSupply(symbol, newSupply); err != nil {
		return nil, err
	}
	if err := st.SetBalance(symbol, to, new(big.Int).Add(balance, amount)); err != nil {
		return nil, err
	}
	return newSupply, nil
}

// Burn destroys supply held by an account. It returns the new total supply
// for the asset.
func Burn(st State, symbol string, from crypto.Address, amount *big.Int) (*big.Int, error) {
	if amount == nil || amount.Sign() <= 0 {
		return nil, ErrInvalidAmount
	}
	balance, err := st.Balance(symbol, from)
	if err != nil {
		return nil, err
	}
	if balance.Cmp(amount) < 0 {
		return nil, ErrInsufficientBalance
	}
	supply, err := st.Supply(symbol)
	if err != nil {
		return nil, err
	}
	newSupply := new(big.Int).Sub(supply, amount)
	if err := st.SetSupply(symbol, newSupply); err != nil {
		return nil, err
	}
	if err := st.SetBalance(symbol, from, new(big.Int).Sub(balance, amount)); err != nil {
		return nil, err
	}
	return newSupply, nil
}
