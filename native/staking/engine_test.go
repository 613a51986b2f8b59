package staking

import (
	"errors"
	"fmt"
	"math/big"
	"testing"
	"time"

	"tidepool/core/types"
	"tidepool/crypto"
	"tidepool/native/ledger"
	"tidepool/native/registry"
)

type mockState struct {
	assets   map[string]bool
	admins   map[string]bool
	balances map[string]*big.Int
	supplies map[string]*big.Int
	pools    map[uint64]*Pool
	stakes   map[string]*UserStake
	poolSeq  uint64
	events   []*types.Event
}

func newMockState() *mockState {
	return &mockState{
		assets:   make(map[string]bool),
		admins:   make(map[string]bool),
		balances: make(map[string]*big.Int),
		supplies: make(map[string]*big.Int),
		pools:    make(map[uint64]*Pool),
		stakes:   make(map[string]*UserStake),
	}
}

func balanceKey(symbol string, addr crypto.Address) string {
	return symbol + "/" + string(addr.Bytes())
}

func stakeKey(poolID uint64, addr []byte) string {
	return fmt.Sprintf("%d/%x", poolID, addr)
}

func (m *mockState) Balance(symbol string, addr crypto.Address) (*big.Int, error) {
	if bal, ok := m.balances[balanceKey(symbol, addr)]; ok {
		return new(big.Int).Set(bal), nil
	}
	return big.NewInt(0), nil
}

func (m *mockState) SetBalance(symbol string, addr crypto.Address, amount *big.Int) error {
	m.balances[balanceKey(symbol, addr)] = new(big.Int).Set(amount)
	return nil
}

func (m *mockState) Supply(symbol string) (*big.Int, error) {
	if supply, ok := m.supplies[symbol]; ok {
		return new(big.Int).Set(supply), nil
	}
	return big.NewInt(0), nil
}

func (m *mockState) SetSupply(symbol string, amount *big.Int) error {
	m.supplies[symbol] = new(big.Int).Set(amount)
	return nil
}

func (m *mockState) IsAssetRegistered(symbol string) (bool, error) {
	return m.assets[symbol], nil
}

func (m *mockState) HasRole(role string, addr crypto.Address) (bool, error) {
	if role != registry.RoleAdmin {
		return false, nil
	}
	return m.admins[string(addr.Bytes())], nil
}

func (m *mockState) StakingPool(id uint64) (*Pool, error) {
	return m.pools[id].Clone(), nil
}

func (m *mockState) PutStakingPool(pool *Pool) error {
	m.pools[pool.ID] = pool.Clone()
	return nil
}

func (m *mockState) AllocStakingPoolID() (uint64, error) {
	m.poolSeq++
	return m.poolSeq, nil
}

func (m *mockState) UserStake(poolID uint64, addr crypto.Address) (*UserStake, error) {
	stake, ok := m.stakes[stakeKey(poolID, addr.Bytes())]
	if !ok {
		return nil, nil
	}
	return &UserStake{
		PoolID:     stake.PoolID,
		Address:    append([]byte(nil), stake.Address...),
		Amount:     new(big.Int).Set(stake.Amount),
		RewardDebt: new(big.Int).Set(stake.RewardDebt),
	}, nil
}

func (m *mockState) PutUserStake(stake *UserStake) error {
	m.stakes[stakeKey(stake.PoolID, stake.Address)] = &UserStake{
		PoolID:     stake.PoolID,
		Address:    append([]byte(nil), stake.Address...),
		Amount:     new(big.Int).Set(stake.Amount),
		RewardDebt: new(big.Int).Set(stake.RewardDebt),
	}
	return nil
}

func (m *mockState) AppendEvent(evt *types.Event) {
	m.events = append(m.events, evt)
}

func makeAddress(suffix byte) crypto.Address {
	raw := make([]byte, crypto.AddressLength)
	raw[len(raw)-1] = suffix
	return crypto.MustNewAddress(crypto.Prefix, raw)
}

type fixture struct {
	engine *Engine
	state  *mockState
	now    int64
	admin  crypto.Address
	user   crypto.Address
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	state := newMockState()
	state.assets["TIDE"] = true
	admin := makeAddress(0x01)
	user := makeAddress(0x02)
	state.admins[string(admin.Bytes())] = true

	f := &fixture{engine: NewEngine(), state: state, now: 1_700_000_000, admin: admin, user: user}
	f.engine.SetState(state)
	f.engine.SetClock(func() time.Time { return time.Unix(f.now, 0) })
	return f
}

func (f *fixture) advance(seconds int64) { f.now += seconds }

func (f *fixture) fund(addr crypto.Address, amount int64) {
	f.state.balances[balanceKey("TIDE", addr)] = big.NewInt(amount)
}

func (f *fixture) createPool(t *testing.T, rate int64) uint64 {
	t.Helper()
	id, err := f.engine.CreatePool(f.admin, "TIDE", big.NewInt(rate))
	if err != nil {
		t.Fatalf("create pool: %v", err)
	}
	return id
}

func (f *fixture) fundRewards(t *testing.T, poolID uint64, amount int64) {
	t.Helper()
	funder := makeAddress(0x0f)
	f.fund(funder, amount)
	if err := f.engine.FundRewards(poolID, funder, big.NewInt(amount)); err != nil {
		t.Fatalf("fund rewards: %v", err)
	}
}

func TestCreatePoolValidation(t *testing.T) {
	f := newFixture(t)
	if _, err := f.engine.CreatePool(f.user, "TIDE", big.NewInt(1)); !errors.Is(err, registry.ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
	if _, err := f.engine.CreatePool(f.admin, "NOPE", big.NewInt(1)); !errors.Is(err, ErrUnknownAsset) {
		t.Fatalf("expected ErrUnknownAsset, got %v", err)
	}
	id := f.createPool(t, 100)
	if id != 1 {
		t.Fatalf("expected dense pool id 1, got %d", id)
	}
}

func TestSingleStakerAccruesFullRate(t *testing.T) {
	f := newFixture(t)
	poolID := f.createPool(t, 100)
	f.fundRewards(t, poolID, 10_000)
	f.fund(f.user, 50)

	if _, err := f.engine.Stake(poolID, f.user, big.NewInt(50)); err != nil {
		t.Fatalf("stake: %v", err)
	}
	f.advance(10)

	pending, err := f.engine.PendingReward(poolID, f.user)
	if err != nil {
		t.Fatalf("pending: %v", err)
	}
	if pending.Cmp(big.NewInt(1000)) != 0 {
		t.Fatalf("expected pending 1000, got %s", pending)
	}

	paid, err := f.engine.ClaimRewards(poolID, f.user)
	if err != nil {
		t.Fatalf("claim: %v", err)
	}
	if paid.Cmp(big.NewInt(1000)) != 0 {
		t.Fatalf("expected payout 1000, got %s", paid)
	}
	balance, _ := f.state.Balance("TIDE", f.user)
	if balance.Cmp(big.NewInt(1000)) != 0 {
		t.Fatalf("expected user balance 1000, got %s", balance)
	}

	pending, err = f.engine.PendingReward(poolID, f.user)
	if err != nil {
		t.Fatalf("pending after claim: %v", err)
	}
	if pending.Sign() != 0 {
		t.Fatalf("expected zero pending after claim, got %s", pending)
	}
}

func TestStakeUnstakeRoundTripZeroElapsed(t *testing.T) {
	f := newFixture(t)
	poolID := f.createPool(t, 100)
	f.fund(f.user, 500)

	if _, err := f.engine.Stake(poolID, f.user, big.NewInt(500)); err != nil {
		t.Fatalf("stake: %v", err)
	}
	reward, err := f.engine.Unstake(poolID, f.user, big.NewInt(500))
	if err != nil {
		t.Fatalf("unstake: %v", err)
	}
	if reward.Sign() != 0 {
		t.Fatalf("expected zero reward with zero elapsed time, got %s", reward)
	}
	balance, _ := f.state.Balance("TIDE", f.user)
	if balance.Cmp(big.NewInt(500)) != 0 {
		t.Fatalf("expected balance restored to 500, got %s", balance)
	}
	pool, _ := f.state.StakingPool(poolID)
	if pool.TotalStaked.Sign() != 0 {
		t.Fatalf("expected empty pool, got %s staked", pool.TotalStaked)
	}
}

func TestUnstakeMoreThanStakedLeavesStateUnchanged(t *testing.T) {
	f := newFixture(t)
	poolID := f.createPool(t, 100)
	f.fund(f.user, 100)
	if _, err := f.engine.Stake(poolID, f.user, big.NewInt(100)); err != nil {
		t.Fatalf("stake: %v", err)
	}
	before, _ := f.state.StakingPool(poolID)

	if _, err := f.engine.Unstake(poolID, f.user, big.NewInt(101)); !errors.Is(err, ErrInsufficientStake) {
		t.Fatalf("expected ErrInsufficientStake, got %v", err)
	}
	after, _ := f.state.StakingPool(poolID)
	if after.TotalStaked.Cmp(before.TotalStaked) != 0 || after.AccRewardPerShare.Cmp(before.AccRewardPerShare) != 0 {
		t.Fatalf("pool mutated by failed unstake")
	}
	stake, _ := f.state.UserStake(poolID, f.user)
	if stake.Amount.Cmp(big.NewInt(100)) != 0 {
		t.Fatalf("stake mutated by failed unstake: %s", stake.Amount)
	}
}

func TestAccumulatorFrozenWhileEmpty(t *testing.T) {
	f := newFixture(t)
	poolID := f.createPool(t, 100)
	f.fundRewards(t, poolID, 10_000)
	f.advance(1000)

	f.fund(f.user, 10)
	if _, err := f.engine.Stake(poolID, f.user, big.NewInt(10)); err != nil {
		t.Fatalf("stake: %v", err)
	}
	pool, _ := f.state.StakingPool(poolID)
	if pool.AccRewardPerShare.Sign() != 0 {
		t.Fatalf("accumulator advanced while pool was empty: %s", pool.AccRewardPerShare)
	}
	pending, err := f.engine.PendingReward(poolID, f.user)
	if err != nil {
		t.Fatalf("pending: %v", err)
	}
	if pending.Sign() != 0 {
		t.Fatalf("reward accrued for pre-stake idle time: %s", pending)
	}
}

func TestAccumulatorMonotonic(t *testing.T) {
	f := newFixture(t)
	poolID := f.createPool(t, 7)
	f.fundRewards(t, poolID, 1_000_000)
	f.fund(f.user, 1000)
	if _, err := f.engine.Stake(poolID, f.user, big.NewInt(333)); err != nil {
		t.Fatalf("stake: %v", err)
	}

	last := big.NewInt(0)
	for i := 0; i < 5; i++ {
		f.advance(13)
		if _, err := f.engine.Stake(poolID, f.user, big.NewInt(10)); err != nil {
			t.Fatalf("stake %d: %v", i, err)
		}
		pool, _ := f.state.StakingPool(poolID)
		if pool.AccRewardPerShare.Cmp(last) < 0 {
			t.Fatalf("accumulator decreased: %s -> %s", last, pool.AccRewardPerShare)
		}
		last = pool.AccRewardPerShare
	}
}

func TestClaimRequiresActiveStake(t *testing.T) {
	f := newFixture(t)
	poolID := f.createPool(t, 100)
	if _, err := f.engine.ClaimRewards(poolID, f.user); !errors.Is(err, ErrNothingStaked) {
		t.Fatalf("expected ErrNothingStaked, got %v", err)
	}
	if _, err := f.engine.ClaimRewards(99, f.user); !errors.Is(err, ErrPoolNotFound) {
		t.Fatalf("expected ErrPoolNotFound, got %v", err)
	}
}

func TestInsufficientRewardReserveAborts(t *testing.T) {
	f := newFixture(t)
	poolID := f.createPool(t, 100)
	f.fund(f.user, 50)
	if _, err := f.engine.Stake(poolID, f.user, big.NewInt(50)); err != nil {
		t.Fatalf("stake: %v", err)
	}
	f.advance(10)

	if _, err := f.engine.ClaimRewards(poolID, f.user); !errors.Is(err, ErrInsufficientRewardReserve) {
		t.Fatalf("expected ErrInsufficientRewardReserve, got %v", err)
	}
	stake, _ := f.state.UserStake(poolID, f.user)
	if stake.Amount.Cmp(big.NewInt(50)) != 0 {
		t.Fatalf("stake mutated by failed claim")
	}

	f.fundRewards(t, poolID, 10_000)
	paid, err := f.engine.ClaimRewards(poolID, f.user)
	if err != nil {
		t.Fatalf("claim after funding: %v", err)
	}
	if paid.Cmp(big.NewInt(1000)) != 0 {
		t.Fatalf("expected 1000 after funding, got %s", paid)
	}
}

func TestTwoStakersSplitProRata(t *testing.T) {
	f := newFixture(t)
	poolID := f.createPool(t, 100)
	f.fundRewards(t, poolID, 100_000)
	second := makeAddress(0x03)
	f.fund(f.user, 100)
	f.fund(second, 300)

	if _, err := f.engine.Stake(poolID, f.user, big.NewInt(100)); err != nil {
		t.Fatalf("stake first: %v", err)
	}
	f.advance(10)
	// First staker owns the full 1000 accrued so far.
	if _, err := f.engine.Stake(poolID, second, big.NewInt(300)); err != nil {
		t.Fatalf("stake second: %v", err)
	}
	f.advance(10)
	// The next 1000 splits 1:3.

	firstPending, err := f.engine.PendingReward(poolID, f.user)
	if err != nil {
		t.Fatalf("pending first: %v", err)
	}
	secondPending, err := f.engine.PendingReward(poolID, second)
	if err != nil {
		t.Fatalf("pending second: %v", err)
	}
	if firstPending.Cmp(big.NewInt(1250)) != 0 {
		t.Fatalf("expected first staker pending 1250, got %s", firstPending)
	}
	if secondPending.Cmp(big.NewInt(750)) != 0 {
		t.Fatalf("expected second staker pending 750, got %s", secondPending)
	}
}

func TestStakeSettlesExistingPosition(t *testing.T) {
	f := newFixture(t)
	poolID := f.createPool(t, 100)
	f.fundRewards(t, poolID, 10_000)
	f.fund(f.user, 200)

	if _, err := f.engine.Stake(poolID, f.user, big.NewInt(100)); err != nil {
		t.Fatalf("stake: %v", err)
	}
	f.advance(10)
	reward, err := f.engine.Stake(poolID, f.user, big.NewInt(100))
	if err != nil {
		t.Fatalf("restake: %v", err)
	}
	if reward.Cmp(big.NewInt(1000)) != 0 {
		t.Fatalf("expected settlement of 1000 on restake, got %s", reward)
	}
	pending, _ := f.engine.PendingReward(poolID, f.user)
	if pending.Sign() != 0 {
		t.Fatalf("expected zero pending after restake, got %s", pending)
	}
}

func TestStakeRejectsInvalidAmounts(t *testing.T) {
	f := newFixture(t)
	poolID := f.createPool(t, 100)
	if _, err := f.engine.Stake(poolID, f.user, big.NewInt(0)); !errors.Is(err, ErrInvalidAmount) {
		t.Fatalf("expected ErrInvalidAmount for zero, got %v", err)
	}
	if _, err := f.engine.Stake(poolID, f.user, big.NewInt(-5)); !errors.Is(err, ErrInvalidAmount) {
		t.Fatalf("expected ErrInvalidAmount for negative, got %v", err)
	}
	if _, err := f.engine.Stake(poolID, f.user, big.NewInt(10)); !errors.Is(err, ledger.ErrInsufficientBalance) {
		t.Fatalf("expected ErrInsufficientBalance, got %v", err)
	}
	if _, err := f.engine.Stake(42, f.user, big.NewInt(10)); !errors.Is(err, ErrPoolNotFound) {
		t.Fatalf("expected ErrPoolNotFound, got %v", err)
	}
}

func TestPendingRewardDoesNotPersistTouch(t *testing.T) {
	f := newFixture(t)
	poolID := f.createPool(t, 100)
	f.fundRewards(t, poolID, 10_000)
	f.fund(f.user, 50)
	if _, err := f.engine.Stake(poolID, f.user, big.NewInt(50)); err != nil {
		t.Fatalf("stake: %v", err)
	}
	f.advance(10)

	if _, err := f.engine.PendingReward(poolID, f.user); err != nil {
		t.Fatalf("pending: %v", err)
	}
	pool, _ := f.state.StakingPool(poolID)
	if pool.LastUpdateUnix != uint64(f.now-10) {
		t.Fatalf("pending reward persisted a touch: last update %d", pool.LastUpdateUnix)
	}
	if pool.AccRewardPerShare.Sign() != 0 {
		t.Fatalf("pending reward persisted accumulator: %s", pool.AccRewardPerShare)
	}
}
