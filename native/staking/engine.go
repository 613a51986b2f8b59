// Package staking implements the accumulator-based reward engine. Reward
// accrual is lazy: every mutating call first catches the pool accumulator up
// to the present, so the math is identical no matter how much wall-clock time
// elapsed between calls and no background scheduler exists.
package staking

import (
	"math/big"
	"time"

	"tidepool/core/events"
	"tidepool/core/types"
	"tidepool/crypto"
	"tidepool/native/ledger"
	"tidepool/native/registry"
)

// State is the slice of the state manager the engine operates on.
type State interface {
	ledger.State
	IsAssetRegistered(symbol string) (bool, error)
	HasRole(role string, addr crypto.Address) (bool, error)
	StakingPool(id uint64) (*Pool, error)
	PutStakingPool(pool *Pool) error
	AllocStakingPoolID() (uint64, error)
	UserStake(poolID uint64, addr crypto.Address) (*UserStake, error)
	PutUserStake(stake *UserStake) error
	AppendEvent(evt *types.Event)
}

// Engine orchestrates the staking state transitions.
type Engine struct {
	state State
	now   func() time.Time
}

func NewEngine() *Engine {
	return &Engine{now: time.Now}
}

// SetState wires the engine to the external persistence layer.
func (e *Engine) SetState(state State) { e.state = state }

// SetClock overrides the time source. Tests use this to drive accrual
// deterministically.
func (e *Engine) SetClock(now func() time.Time) {
	if now != nil {
		e.now = now
	}
}

func (e *Engine) nowUnix() uint64 {
	ts := e.now().Unix()
	if ts < 0 {
		return 0
	}
	return uint64(ts)
}

// CreatePool registers a new staking pool for a known asset. The caller must
// hold the admin role.
func (e *Engine) CreatePool(caller crypto.Address, asset string, rewardRatePerSec *big.Int) (uint64, error) {
	if e == nil || e.state == nil {
		return 0, errNilState
	}
	if err := registry.Authorize(e.state, registry.RoleAdmin, caller); err != nil {
		return 0, err
	}
	asset = registry.NormalizeSymbol(asset)
	registered, err := e.state.IsAssetRegistered(asset)
	if err != nil {
		return 0, err
	}
	if !registered {
		return 0, ErrUnknownAsset
	}
	if rewardRatePerSec == nil || rewardRatePerSec.Sign() < 0 {
		return 0, ErrInvalidAmount
	}
	id, err := e.state.AllocStakingPoolID()
	if err != nil {
		return 0, err
	}
	pool := &Pool{
		ID:                id,
		Asset:             asset,
		RewardRatePerSec:  new(big.Int).Set(rewardRatePerSec),
		TotalStaked:       big.NewInt(0),
		AccRewardPerShare: big.NewInt(0),
		LastUpdateUnix:    e.nowUnix(),
	}
	if err := e.state.PutStakingPool(pool); err != nil {
		return 0, err
	}
	e.state.AppendEvent(events.StakePoolCreated{
		PoolID:       id,
		Asset:        asset,
		RewardPerSec: pool.RewardRatePerSec,
		Admin:        caller,
	}.Event())
	return id, nil
}

// touchPool advances the accumulator to now. While nothing is staked the
// accumulator stays frozen; only the timestamp moves forward.
func touchPool(pool *Pool, now uint64) {
	if now <= pool.LastUpdateUnix {
		return
	}
	if pool.TotalStaked.Sign() > 0 {
		elapsed := new(big.Int).SetUint64(now - pool.LastUpdateUnix)
		delta := new(big.Int).Mul(elapsed, pool.RewardRatePerSec)
		delta.Mul(delta, rewardScale)
		delta.Quo(delta, pool.TotalStaked)
		pool.AccRewardPerShare = new(big.Int).Add(pool.AccRewardPerShare, delta)
	}
	pool.LastUpdateUnix = now
}

// pendingAmount derives the unsettled reward for a stake against the current
// accumulator. Division truncates toward zero on both terms, which is what
// makes pending exactly zero immediately after a settlement.
func pendingAmount(pool *Pool, stake *UserStake) *big.Int {
	if stake == nil || stake.Amount == nil || stake.Amount.Sign() == 0 {
		return big.NewInt(0)
	}
	earned := new(big.Int).Mul(stake.Amount, pool.AccRewardPerShare)
	earned.Quo(earned, rewardScale)
	debt := new(big.Int).Quo(copyBigInt(stake.RewardDebt), rewardScale)
	pending := earned.Sub(earned, debt)
	if pending.Sign() < 0 {
		return big.NewInt(0)
	}
	return pending
}

func (e *Engine) loadStake(poolID uint64, account crypto.Address) (*UserStake, error) {
	stake, err := e.state.UserStake(poolID, account)
	if err != nil {
		return nil, err
	}
	if stake == nil {
		stake = &UserStake{
			PoolID:     poolID,
			Address:    account.Bytes(),
			Amount:     big.NewInt(0),
			RewardDebt: big.NewInt(0),
		}
	}
	if stake.Amount == nil {
		stake.Amount = big.NewInt(0)
	}
	if stake.RewardDebt == nil {
		stake.RewardDebt = big.NewInt(0)
	}
	return stake, nil
}

// checkReserve verifies the reward reserve can cover a pending payout before
// any state is mutated.
func (e *Engine) checkReserve(pool *Pool, pending *big.Int) error {
	if pending.Sign() == 0 {
		return nil
	}
	reserve, err := e.state.Balance(pool.Asset, pool.RewardAddress())
	if err != nil {
		return err
	}
	if reserve.Cmp(pending) < 0 {
		return ErrInsufficientRewardReserve
	}
	return nil
}

// Stake moves amount from the account into pool custody. An existing position
// is settled first; the settlement payout is a mandatory side effect, not an
// optional one. The settled reward is returned.
func (e *Engine) Stake(poolID uint64, account crypto.Address, amount *big.Int) (*big.Int, error) {
	if e == nil || e.state == nil {
		return nil, errNilState
	}
	pool, err := e.state.StakingPool(poolID)
	if err != nil {
		return nil, err
	}
	if pool == nil {
		return nil, ErrPoolNotFound
	}
	if amount == nil || amount.Sign() <= 0 {
		return nil, ErrInvalidAmount
	}
	touchPool(pool, e.nowUnix())

	stake, err := e.loadStake(poolID, account)
	if err != nil {
		return nil, err
	}
	pending := pendingAmount(pool, stake)
	if err := e.checkReserve(pool, pending); err != nil {
		return nil, err
	}
	balance, err := e.state.Balance(pool.Asset, account)
	if err != nil {
		return nil, err
	}
	if balance.Cmp(amount) < 0 {
		return nil, ledger.ErrInsufficientBalance
	}

	stake.Amount = new(big.Int).Add(stake.Amount, amount)
	stake.RewardDebt = new(big.Int).Mul(stake.Amount, pool.AccRewardPerShare)
	pool.TotalStaked = new(big.Int).Add(pool.TotalStaked, amount)
	if err := e.state.PutUserStake(stake); err != nil {
		return nil, err
	}
	if err := e.state.PutStakingPool(pool); err != nil {
		return nil, err
	}

	if pending.Sign() > 0 {
		if err := ledger.Move(e.state, pool.Asset, pool.RewardAddress(), account, pending); err != nil {
			return nil, err
		}
	}
	if err := ledger.Move(e.state, pool.Asset, account, pool.PrincipalAddress(), amount); err != nil {
		return nil, err
	}

	e.state.AppendEvent(events.Staked{
		PoolID:  poolID,
		Account: account,
		Amount:  amount,
		Staked:  stake.Amount,
		Reward:  pending,
	}.Event())
	return pending, nil
}

// Unstake settles pending rewards unconditionally, then returns amount of
// principal to the account. The settled reward is returned.
func (e *Engine) Unstake(poolID uint64, account crypto.Address, amount *big.Int) (*big.Int, error) {
	if e == nil || e.state == nil {
		return nil, errNilState
	}
	pool, err := e.state.StakingPool(poolID)
	if err != nil {
		return nil, err
	}
	if pool == nil {
		return nil, ErrPoolNotFound
	}
	if amount == nil || amount.Sign() <= 0 {
		return nil, ErrInvalidAmount
	}
	stake, err := e.loadStake(poolID, account)
	if err != nil {
		return nil, err
	}
	if amount.Cmp(stake.Amount) > 0 {
		return nil, ErrInsufficientStake
	}
	touchPool(pool, e.nowUnix())

	pending := pendingAmount(pool, stake)
	if err := e.checkReserve(pool, pending); err != nil {
		return nil, err
	}

	stake.Amount = new(big.Int).Sub(stake.Amount, amount)
	stake.RewardDebt = new(big.Int).Mul(stake.Amount, pool.AccRewardPerShare)
	pool.TotalStaked = new(big.Int).Sub(pool.TotalStaked, amount)
	if err := e.state.PutUserStake(stake); err != nil {
		return nil, err
	}
	if err := e.state.PutStakingPool(pool); err != nil {
		return nil, err
	}

	if pending.Sign() > 0 {
		if err := ledger.Move(e.state, pool.Asset, pool.RewardAddress(), account, pending); err != nil {
			return nil, err
		}
	}
	if err := ledger.Move(e.state, pool.Asset, pool.PrincipalAddress(), account, amount); err != nil {
		return nil, err
	}

	e.state.AppendEvent(events.Unstaked{
		PoolID:  poolID,
		Account: account,
		Amount:  amount,
		Staked:  stake.Amount,
		Reward:  pending,
	}.Event())
	return pending, nil
}

// ClaimRewards settles and pays out the pending reward for an active stake.
func (e *Engine) ClaimRewards(poolID uint64, account crypto.Address) (*big.Int, error) {
	if e == nil || e.state == nil {
		return nil, errNilState
	}
	pool, err := e.state.StakingPool(poolID)
	if err != nil {
		return nil, err
	}
	if pool == nil {
		return nil, ErrPoolNotFound
	}
	stake, err := e.loadStake(poolID, account)
	if err != nil {
		return nil, err
	}
	if stake.Amount.Sign() == 0 {
		return nil, ErrNothingStaked
	}
	touchPool(pool, e.nowUnix())

	pending := pendingAmount(pool, stake)
	if err := e.checkReserve(pool, pending); err != nil {
		return nil, err
	}

	stake.RewardDebt = new(big.Int).Mul(stake.Amount, pool.AccRewardPerShare)
	if err := e.state.PutUserStake(stake); err != nil {
		return nil, err
	}
	if err := e.state.PutStakingPool(pool); err != nil {
		return nil, err
	}

	if pending.Sign() > 0 {
		if err := ledger.Move(e.state, pool.Asset, pool.RewardAddress(), account, pending); err != nil {
			return nil, err
		}
	}

	e.state.AppendEvent(events.RewardsClaimed{
		PoolID:  poolID,
		Account: account,
		Reward:  pending,
	}.Event())
	return pending, nil
}

// PendingReward computes what ClaimRewards would pay without mutating state.
// The accumulator catch-up runs against a copy of the pool and is never
// persisted.
func (e *Engine) PendingReward(poolID uint64, account crypto.Address) (*big.Int, error) {
	if e == nil || e.state == nil {
		return nil, errNilState
	}
	pool, err := e.state.StakingPool(poolID)
	if err != nil {
		return nil, err
	}
	if pool == nil {
		return nil, ErrPoolNotFound
	}
	stake, err := e.loadStake(poolID, account)
	if err != nil {
		return nil, err
	}
	shadow := pool.Clone()
	touchPool(shadow, e.nowUnix())
	return pendingAmount(shadow, stake), nil
}

// FundRewards moves amount from the funder into the pool's reward reserve.
// The reserve is the sole source of reward payouts; the engine never mints.
func (e *Engine) FundRewards(poolID uint64, funder crypto.Address, amount *big.Int) error {
	if e == nil || e.state == nil {
		return errNilState
	}
	pool, err := e.state.StakingPool(poolID)
	if err != nil {
		return err
	}
	if pool == nil {
		return ErrPoolNotFound
	}
	if amount == nil || amount.Sign() <= 0 {
		return ErrInvalidAmount
	}
	if err := ledger.Move(e.state, pool.Asset, funder, pool.RewardAddress(), amount); err != nil {
		return err
	}
	reserve, err := e.state.Balance(pool.Asset, pool.RewardAddress())
	if err != nil {
		return err
	}
	e.state.AppendEvent(events.RewardsFunded{
		PoolID:  poolID,
		Funder:  funder,
		Amount:  amount,
		Reserve: reserve,
	}.Event())
	return nil
}

// Pool returns the stored pool record.
func (e *Engine) Pool(poolID uint64) (*Pool, error) {
	if e == nil || e.state == nil {
		return nil, errNilState
	}
	pool, err := e.state.StakingPool(poolID)
	if err != nil {
		return nil, err
	}
	if pool == nil {
		return nil, ErrPoolNotFound
	}
	return pool, nil
}

// Position returns the stored stake for an account, zero-valued when absent.
func (e *Engine) Position(poolID uint64, account crypto.Address) (*UserStake, error) {
	if e == nil || e.state == nil {
		return nil, errNilState
	}
	pool, err := e.state.StakingPool(poolID)
	if err != nil {
		return nil, err
	}
	if pool == nil {
		return nil, ErrPoolNotFound
	}
	return e.loadStake(poolID, account)
}
