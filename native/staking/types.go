package staking

import (
	"fmt"
	"math/big"

	"tidepool/crypto"
)

// rewardScale is the fixed-point factor applied to the per-share accumulator
// so integer division keeps enough precision across settlements.
var rewardScale = big.NewInt(1_000_000_000_000)

// Pool is the per-pool reward accounting state. AccRewardPerShare only
// advances when the pool is touched by a mutating call; it is monotonically
// non-decreasing and frozen while TotalStaked is zero.
type Pool struct {
	ID                uint64
	Asset             string
	RewardRatePerSec  *big.Int
	TotalStaked       *big.Int
	AccRewardPerShare *big.Int
	LastUpdateUnix    uint64
}

// PrincipalAddress is the custody account holding staked principal.
func (p *Pool) PrincipalAddress() crypto.Address {
	return crypto.DeriveModuleAddress(fmt.Sprintf("staking/pool/%d/principal", p.ID))
}

// RewardAddress is the custody account holding the pre-funded reward reserve.
// Keeping it separate from principal custody means reward payouts can never
// dip into staked funds.
func (p *Pool) RewardAddress() crypto.Address {
	return crypto.DeriveModuleAddress(fmt.Sprintf("staking/pool/%d/rewards", p.ID))
}

// Clone returns a deep copy of the pool.
func (p *Pool) Clone() *Pool {
	if p == nil {
		return nil
	}
	clone := &Pool{
		ID:             p.ID,
		Asset:          p.Asset,
		LastUpdateUnix: p.LastUpdateUnix,
	}
	clone.RewardRatePerSec = copyBigInt(p.RewardRatePerSec)
	clone.TotalStaked = copyBigInt(p.TotalStaked)
	clone.AccRewardPerShare = copyBigInt(p.AccRewardPerShare)
	return clone
}

// UserStake tracks one account's position in one pool. RewardDebt holds
// Amount * AccRewardPerShare as of the last settlement, still scaled, so the
// pending reward derivation never re-pays settled rewards.
type UserStake struct {
	PoolID     uint64
	Address    []byte
	Amount     *big.Int
	RewardDebt *big.Int
}

func copyBigInt(v *big.Int) *big.Int {
	if v == nil {
		return big.NewInt(0)
	}
	return new(big.Int).Set(v)
}
