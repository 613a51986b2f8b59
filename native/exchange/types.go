package exchange

import (
	"fmt"
	"math/big"

	"tidepool/crypto"
)

// feeDenominator is the basis-point denominator applied to swap fees.
var feeDenominator = big.NewInt(10_000)

// MaxFeeBps caps the pool fee at 100%.
const MaxFeeBps = 10_000

// Pool is a constant-product market between two distinct assets. Reserves
// only change through AddLiquidity, RemoveLiquidity and Swap; the withheld
// swap fee stays in the pool, which is what keeps the reserve product
// non-decreasing.
type Pool struct {
	ID       uint64
	AssetA   string
	AssetB   string
	ReserveA *big.Int
	ReserveB *big.Int
	FeeBps   uint32
}

// CustodyAddress is the ledger account holding both reserves.
func (p *Pool) CustodyAddress() crypto.Address {
	return crypto.DeriveModuleAddress(fmt.Sprintf("exchange/pool/%d", p.ID))
}

// Clone returns a deep copy of the pool.
func (p *Pool) Clone() *Pool {
	if p == nil {
		return nil
	}
	clone := &Pool{
		ID:     p.ID,
		AssetA: p.AssetA,
		AssetB: p.AssetB,
		FeeBps: p.FeeBps,
	}
	clone.ReserveA = copyBigInt(p.ReserveA)
	clone.ReserveB = copyBigInt(p.ReserveB)
	return clone
}

func copyBigInt(v *big.Int) *big.Int {
	if v == nil {
		return big.NewInt(0)
	}
	return new(big.Int).Set(v)
}
