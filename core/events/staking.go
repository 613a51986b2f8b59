package events

import (
	"math/big"
	"strconv"

	"tidepool/core/types"
	"tidepool/crypto"
)

const (
	// TypeStakePoolCreated is emitted when a staking pool is created.
	TypeStakePoolCreated = "staking.pool_created"
	// TypeStaked is emitted when an account adds stake to a pool.
	TypeStaked = "staking.staked"
	// TypeUnstaked is emitted when an account withdraws stake from a pool.
	TypeUnstaked = "staking.unstaked"
	// TypeRewardsClaimed is emitted when pending rewards are paid out.
	TypeRewardsClaimed = "staking.rewards_claimed"
	// TypeRewardsFunded is emitted when the reward reserve is topped up.
	TypeRewardsFunded = "staking.rewards_funded"
)

// StakePoolCreated captures the creation of a staking pool.
type StakePoolCreated struct {
	PoolID       uint64
	Asset        string
	RewardPerSec *big.Int
	Admin        crypto.Address
}

// EventType satisfies the Event interface.
func (StakePoolCreated) EventType() string { return TypeStakePoolCreated }

// Event converts the structured payload into a broadcastable event.
func (e StakePoolCreated) Event() *types.Event {
	return &types.Event{Type: TypeStakePoolCreated, Attributes: map[string]string{
		"poolId":       strconv.FormatUint(e.PoolID, 10),
		"asset":        e.Asset,
		"rewardPerSec": formatAmount(e.RewardPerSec),
		"admin":        e.Admin.String(),
	}}
}

// Staked captures a completed stake. Reward records the settlement paid as a
// side effect when the account already had a position.
type Staked struct {
	PoolID  uint64
	Account crypto.Address
	Amount  *big.Int
	Staked  *big.Int
	Reward  *big.Int
}

// EventType satisfies the Event interface.
func (Staked) EventType() string { return TypeStaked }

// Event converts the structured payload into a broadcastable event.
func (e Staked) Event() *types.Event {
	attrs := map[string]string{
		"poolId":  strconv.FormatUint(e.PoolID, 10),
		"account": e.Account.String(),
		"amount":  formatAmount(e.Amount),
		"staked":  formatAmount(e.Staked),
	}
	if e.Reward != nil && e.Reward.Sign() > 0 {
		attrs["reward"] = e.Reward.String()
	}
	return &types.Event{Type: TypeStaked, Attributes: attrs}
}

// Unstaked captures a completed unstake including the settled reward.
type Unstaked struct {
	PoolID  uint64
	Account crypto.Address
	Amount  *big.Int
	Staked  *big.Int
	Reward  *big.Int
}

// EventType satisfies the Event interface.
func (Unstaked) EventType() string { return TypeUnstaked }

// Event converts the structured payload into a broadcastable event.
func (e Unstaked) Event() *types.Event {
	attrs := map[string]string{
		"poolId":  strconv.FormatUint(e.PoolID, 10),
		"account": e.Account.String(),
		"amount":  formatAmount(e.Amount),
		"staked":  formatAmount(e.Staked),
	}
	if e.Reward != nil && e.Reward.Sign() > 0 {
		attrs["reward"] = e.Reward.String()
	}
	return &types.Event{Type: TypeUnstaked, Attributes: attrs}
}

// RewardsClaimed captures a standalone reward claim.
type RewardsClaimed struct {
	PoolID  uint64
	Account crypto.Address
	Reward  *big.Int
}

// EventType satisfies the Event interface.
func (RewardsClaimed) EventType() string { return TypeRewardsClaimed }

// Event converts the structured payload into a broadcastable event.
func (e RewardsClaimed) Event() *types.Event {
	return &types.Event{Type: TypeRewardsClaimed, Attributes: map[string]string{
		"poolId":  strconv.FormatUint(e.PoolID, 10),
		"account": e.Account.String(),
		"reward":  formatAmount(e.Reward),
	}}
}

// RewardsFunded captures a reward reserve top-up.
type RewardsFunded struct {
	PoolID  uint64
	Funder  crypto.Address
	Amount  *big.Int
	Reserve *big.Int
}

// EventType satisfies the Event interface.
func (RewardsFunded) EventType() string { return TypeRewardsFunded }

// Event converts the structured payload into a broadcastable event.
func (e RewardsFunded) Event() *types.Event {
	return &types.Event{Type: TypeRewardsFunded, Attributes: map[string]string{
		"poolId":  strconv.FormatUint(e.PoolID, 10),
		"funder":  e.Funder.String(),
		"amount":  formatAmount(e.Amount),
		"reserve": formatAmount(e.Reserve),
	}}
}
