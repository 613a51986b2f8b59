package core

import (
	"errors"
	"math/big"
	"testing"
	"time"

	"tidepool/core/events"
	"tidepool/core/types"
	"tidepool/crypto"
	"tidepool/native/ledger"
	"tidepool/native/registry"
	"tidepool/storage"
)

func makeAddress(suffix byte) crypto.Address {
	raw := make([]byte, crypto.AddressLength)
	raw[len(raw)-1] = suffix
	return crypto.MustNewAddress(crypto.Prefix, raw)
}

type harness struct {
	node   *Node
	now    int64
	admin  crypto.Address
	alice  crypto.Address
	bob    crypto.Address
	events []*types.Event
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	h := &harness{
		node:  NewNode(storage.NewMemDB()),
		now:   1_700_000_000,
		admin: makeAddress(0x01),
		alice: makeAddress(0x02),
		bob:   makeAddress(0x03),
	}
	h.node.SetClock(func() time.Time { return time.Unix(h.now, 0) })
	h.node.SetEventHandler(func(evt *types.Event) { h.events = append(h.events, evt) })
	if err := h.node.EnsureGenesisAdmin(h.admin); err != nil {
		t.Fatalf("genesis admin: %v", err)
	}
	if err := h.node.GrantRole(h.admin, registry.RoleMinter, h.admin); err != nil {
		t.Fatalf("grant minter: %v", err)
	}
	for _, symbol := range []string{"TIDE", "USDX"} {
		if err := h.node.RegisterAsset(h.admin, registry.Asset{Symbol: symbol, Decimals: 6}); err != nil {
			t.Fatalf("register %s: %v", symbol, err)
		}
	}
	return h
}

func (h *harness) mint(t *testing.T, to crypto.Address, asset string, amount int64) {
	t.Helper()
	if err := h.node.Mint(h.admin, asset, to, big.NewInt(amount)); err != nil {
		t.Fatalf("mint %d %s: %v", amount, asset, err)
	}
}

func (h *harness) balance(t *testing.T, asset string, addr crypto.Address) *big.Int {
	t.Helper()
	balance, err := h.node.BalanceOf(asset, addr)
	if err != nil {
		t.Fatalf("balance: %v", err)
	}
	return balance
}

func TestGenesisAdminSeedsOnce(t *testing.T) {
	h := newHarness(t)
	other := makeAddress(0x09)
	if err := h.node.EnsureGenesisAdmin(other); err != nil {
		t.Fatalf("re-ensure: %v", err)
	}
	// The second call is a no-op: the new address gained nothing.
	if err := h.node.GrantRole(other, registry.RoleMinter, other); !errors.Is(err, registry.ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized for non-admin, got %v", err)
	}
}

func TestTransferRequiresRegisteredAsset(t *testing.T) {
	h := newHarness(t)
	h.mint(t, h.alice, "TIDE", 100)
	if err := h.node.Transfer(h.alice, h.bob, "GOLD", big.NewInt(10)); !errors.Is(err, registry.ErrAssetNotFound) {
		t.Fatalf("expected ErrAssetNotFound, got %v", err)
	}
	if err := h.node.Transfer(h.alice, h.bob, "tide", big.NewInt(10)); err != nil {
		t.Fatalf("transfer: %v", err)
	}
	if h.balance(t, "TIDE", h.bob).Cmp(big.NewInt(10)) != 0 {
		t.Fatalf("transfer not applied")
	}
}

func TestMintRequiresMinterRole(t *testing.T) {
	h := newHarness(t)
	if err := h.node.Mint(h.alice, "TIDE", h.alice, big.NewInt(100)); !errors.Is(err, registry.ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
	h.mint(t, h.alice, "TIDE", 100)
	supply, err := h.node.SupplyOf("TIDE")
	if err != nil {
		t.Fatalf("supply: %v", err)
	}
	if supply.Cmp(big.NewInt(100)) != 0 {
		t.Fatalf("expected supply 100, got %s", supply)
	}
}

func TestFailedTransitionLeavesNoTrace(t *testing.T) {
	h := newHarness(t)
	h.mint(t, h.alice, "TIDE", 100)
	before := len(h.events)

	if err := h.node.Transfer(h.alice, h.bob, "TIDE", big.NewInt(101)); !errors.Is(err, ledger.ErrInsufficientBalance) {
		t.Fatalf("expected ErrInsufficientBalance, got %v", err)
	}
	if h.balance(t, "TIDE", h.alice).Cmp(big.NewInt(100)) != 0 {
		t.Fatalf("failed transfer mutated balance")
	}
	if len(h.events) != before {
		t.Fatalf("failed transition emitted events")
	}
}

func TestEachOperationEmitsOneEvent(t *testing.T) {
	h := newHarness(t)
	h.mint(t, h.alice, "TIDE", 100)
	start := len(h.events)

	if err := h.node.Transfer(h.alice, h.bob, "TIDE", big.NewInt(10)); err != nil {
		t.Fatalf("transfer: %v", err)
	}
	if len(h.events) != start+1 {
		t.Fatalf("expected exactly one event, got %d", len(h.events)-start)
	}
	if h.events[len(h.events)-1].Type != events.TypeTransferred {
		t.Fatalf("unexpected event type %s", h.events[len(h.events)-1].Type)
	}
}

func TestStakingLifecycleEndToEnd(t *testing.T) {
	h := newHarness(t)
	h.mint(t, h.alice, "TIDE", 1_000)
	h.mint(t, h.admin, "TIDE", 100_000)

	poolID, err := h.node.StakingCreatePool(h.admin, "TIDE", big.NewInt(100))
	if err != nil {
		t.Fatalf("create pool: %v", err)
	}
	if err := h.node.FundRewards(poolID, h.admin, big.NewInt(50_000)); err != nil {
		t.Fatalf("fund rewards: %v", err)
	}
	if _, err := h.node.Stake(poolID, h.alice, big.NewInt(1_000)); err != nil {
		t.Fatalf("stake: %v", err)
	}
	if h.balance(t, "TIDE", h.alice).Sign() != 0 {
		t.Fatalf("stake left principal with the account")
	}

	h.now += 25
	pending, err := h.node.PendingReward(poolID, h.alice)
	if err != nil {
		t.Fatalf("pending: %v", err)
	}
	if pending.Cmp(big.NewInt(2_500)) != 0 {
		t.Fatalf("expected pending 2500, got %s", pending)
	}

	reward, err := h.node.Unstake(poolID, h.alice, big.NewInt(1_000))
	if err != nil {
		t.Fatalf("unstake: %v", err)
	}
	if reward.Cmp(big.NewInt(2_500)) != 0 {
		t.Fatalf("expected settled reward 2500, got %s", reward)
	}
	if h.balance(t, "TIDE", h.alice).Cmp(big.NewInt(3_500)) != 0 {
		t.Fatalf("expected principal plus reward 3500, got %s", h.balance(t, "TIDE", h.alice))
	}

	// The whole lifecycle never touched supply.
	supply, _ := h.node.SupplyOf("TIDE")
	if supply.Cmp(big.NewInt(101_000)) != 0 {
		t.Fatalf("staking changed supply: %s", supply)
	}
}

func TestExchangeLifecycleEndToEnd(t *testing.T) {
	h := newHarness(t)
	h.mint(t, h.admin, "USDX", 1_000)
	h.mint(t, h.admin, "TIDE", 1_000)
	h.mint(t, h.alice, "USDX", 100)

	poolID, err := h.node.ExchangeCreatePool(h.admin, "USDX", "TIDE", 200)
	if err != nil {
		t.Fatalf("create pool: %v", err)
	}
	if err := h.node.AddLiquidity(poolID, h.admin, big.NewInt(1_000), big.NewInt(1_000)); err != nil {
		t.Fatalf("add liquidity: %v", err)
	}

	quoted, err := h.node.Quote(poolID, "USDX", big.NewInt(100))
	if err != nil {
		t.Fatalf("quote: %v", err)
	}
	out, err := h.node.Swap(poolID, h.alice, "USDX", big.NewInt(100))
	if err != nil {
		t.Fatalf("swap: %v", err)
	}
	if out.Cmp(quoted) != 0 || out.Cmp(big.NewInt(89)) != 0 {
		t.Fatalf("expected output 89 matching quote %s, got %s", quoted, out)
	}

	pool, err := h.node.ExchangePool(poolID)
	if err != nil {
		t.Fatalf("get pool: %v", err)
	}
	if pool.ReserveA.Cmp(big.NewInt(1_100)) != 0 || pool.ReserveB.Cmp(big.NewInt(911)) != 0 {
		t.Fatalf("expected reserves 1100/911, got %s/%s", pool.ReserveA, pool.ReserveB)
	}
	if h.balance(t, "TIDE", h.alice).Cmp(big.NewInt(89)) != 0 {
		t.Fatalf("swap output not credited")
	}

	// Reserves stay backed one-for-one by custody balances.
	custody := pool.CustodyAddress()
	if h.balance(t, "USDX", custody).Cmp(pool.ReserveA) != 0 || h.balance(t, "TIDE", custody).Cmp(pool.ReserveB) != 0 {
		t.Fatalf("custody diverged from reserves")
	}
}

func TestPausedAssetBlocksNewPools(t *testing.T) {
	h := newHarness(t)
	if err := h.node.SetAssetPaused(h.admin, "TIDE", true); err != nil {
		t.Fatalf("pause: %v", err)
	}
	if _, err := h.node.StakingCreatePool(h.admin, "TIDE", big.NewInt(1)); err == nil {
		t.Fatalf("expected pool creation against paused asset to fail")
	}
	if err := h.node.SetAssetPaused(h.admin, "TIDE", false); err != nil {
		t.Fatalf("unpause: %v", err)
	}
	if _, err := h.node.StakingCreatePool(h.admin, "TIDE", big.NewInt(1)); err != nil {
		t.Fatalf("create pool after unpause: %v", err)
	}
}
