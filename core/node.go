// Package core wires the state manager and the native engines into a single
// sequencer. Every mutating operation runs to completion under one lock and
// either commits all of its writes or discards them, so no caller ever
// observes a half-updated pool or balance.
package core

import (
	"math/big"
	"sync"
	"time"

	"tidepool/core/events"
	"tidepool/core/state"
	"tidepool/core/types"
	"tidepool/crypto"
	"tidepool/native/exchange"
	"tidepool/native/ledger"
	"tidepool/native/registry"
	"tidepool/native/staking"
	"tidepool/observability/metrics"
	"tidepool/storage"
)

// EventHandler observes terminal events after their transition commits.
type EventHandler func(evt *types.Event)

// Node owns the database, the state manager and the engines.
type Node struct {
	mu       sync.Mutex
	db       storage.Database
	state    *state.Manager
	registry *registry.Registry
	staking  *staking.Engine
	exchange *exchange.Engine
	onEvent  EventHandler
}

// NewNode constructs a node over the provided database.
func NewNode(db storage.Database) *Node {
	mgr := state.NewManager(db)
	stakingEngine := staking.NewEngine()
	stakingEngine.SetState(mgr)
	exchangeEngine := exchange.NewEngine()
	exchangeEngine.SetState(mgr)
	return &Node{
		db:       db,
		state:    mgr,
		registry: registry.NewRegistry(mgr),
		staking:  stakingEngine,
		exchange: exchangeEngine,
	}
}

// SetEventHandler installs an observer for committed terminal events.
func (n *Node) SetEventHandler(handler EventHandler) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.onEvent = handler
}

// SetClock overrides the staking engine time source, for tests.
func (n *Node) SetClock(now func() time.Time) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.staking.SetClock(now)
}

// transition runs a mutating operation inside the commit/discard boundary.
func (n *Node) transition(op string, fn func() error) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if err := fn(); err != nil {
		n.state.Discard()
		metrics.Engine().ObserveFailure(op)
		return err
	}
	evts := n.state.Events()
	if err := n.state.Commit(); err != nil {
		n.state.Discard()
		metrics.Engine().ObserveFailure(op)
		return err
	}
	for _, evt := range evts {
		metrics.Engine().ObserveTransition(evt.Type)
		if evt.Type == events.TypeSwapExecuted {
			metrics.Engine().ObserveSwap()
		}
		if n.onEvent != nil {
			n.onEvent(evt)
		}
	}
	return nil
}

// view runs a read-only operation. The overlay is discarded afterwards so a
// misbehaving read can never leak writes into the next transition.
func (n *Node) view(fn func() error) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	defer n.state.Discard()
	return fn()
}

// EnsureGenesisAdmin seeds the admin role on first boot. It is a no-op when
// any admin already exists, so restarting a configured node never rewrites
// authority.
func (n *Node) EnsureGenesisAdmin(addr crypto.Address) error {
	return n.transition("ensureGenesisAdmin", func() error {
		members, err := n.state.RoleMembers(registry.RoleAdmin)
		if err != nil {
			return err
		}
		if len(members) > 0 {
			return nil
		}
		if err := n.state.GrantRole(registry.RoleAdmin, addr); err != nil {
			return err
		}
		n.state.AppendEvent(events.RoleGranted{Role: registry.RoleAdmin, Address: addr, Admin: addr}.Event())
		return nil
	})
}

// --- Ledger operations ---

func (n *Node) requireRegistered(symbol string) error {
	registered, err := n.state.IsAssetRegistered(symbol)
	if err != nil {
		return err
	}
	if !registered {
		return registry.ErrAssetNotFound
	}
	return nil
}

// Transfer moves value between two accounts.
func (n *Node) Transfer(from, to crypto.Address, asset string, amount *big.Int) error {
	asset = registry.NormalizeSymbol(asset)
	return n.transition("ledger.transfer", func() error {
		if err := n.requireRegistered(asset); err != nil {
			return err
		}
		if err := ledger.Move(n.state, asset, from, to, amount); err != nil {
			return err
		}
		n.state.AppendEvent(events.Transferred{Asset: asset, From: from, To: to, Amount: amount}.Event())
		return nil
	})
}

// Mint creates supply for a registered asset. The caller must hold the
// minter role.
func (n *Node) Mint(caller crypto.Address, asset string, to crypto.Address, amount *big.Int) error {
	asset = registry.NormalizeSymbol(asset)
	return n.transition("ledger.mint", func() error {
		if err := registry.Authorize(n.state, registry.RoleMinter, caller); err != nil {
			return err
		}
		if err := n.requireRegistered(asset); err != nil {
			return err
		}
		newSupply, err := ledger.Mint(n.state, asset, to, amount)
		if err != nil {
			return err
		}
		n.state.AppendEvent(events.Minted{Asset: asset, To: to, Amount: amount, NewSupply: newSupply}.Event())
		return nil
	})
}

// Burn destroys supply held by an account. The caller must hold the minter
// role.
func (n *Node) Burn(caller crypto.Address, asset string, from crypto.Address, amount *big.Int) error {
	asset = registry.NormalizeSymbol(asset)
	return n.transition("ledger.burn", func() error {
		if err := registry.Authorize(n.state, registry.RoleMinter, caller); err != nil {
			return err
		}
		if err := n.requireRegistered(asset); err != nil {
			return err
		}
		newSupply, err := ledger.Burn(n.state, asset, from, amount)
		if err != nil {
			return err
		}
		n.state.AppendEvent(events.Burned{Asset: asset, From: from, Amount: amount, NewSupply: newSupply}.Event())
		return nil
	})
}

// BalanceOf returns the balance for (asset, addr).
func (n *Node) BalanceOf(asset string, addr crypto.Address) (*big.Int, error) {
	var balance *big.Int
	err := n.view(func() error {
		var innerErr error
		balance, innerErr = ledger.BalanceOf(n.state, registry.NormalizeSymbol(asset), addr)
		return innerErr
	})
	return balance, err
}

// SupplyOf returns the minted supply for an asset.
func (n *Node) SupplyOf(asset string) (*big.Int, error) {
	var supply *big.Int
	err := n.view(func() error {
		var innerErr error
		supply, innerErr = n.state.Supply(registry.NormalizeSymbol(asset))
		return innerErr
	})
	return supply, err
}

// --- Registry operations ---

// RegisterAsset records new asset metadata.
func (n *Node) RegisterAsset(caller crypto.Address, asset registry.Asset) error {
	return n.transition("registry.register", func() error {
		return n.registry.Register(caller, asset)
	})
}

// SetAssetPaused toggles the pause flag on an asset.
func (n *Node) SetAssetPaused(caller crypto.Address, symbol string, paused bool) error {
	return n.transition("registry.setPaused", func() error {
		return n.registry.SetPaused(caller, symbol, paused)
	})
}

// GetAsset returns the metadata for a symbol.
func (n *Node) GetAsset(symbol string) (*registry.Asset, error) {
	var asset *registry.Asset
	err := n.view(func() error {
		var innerErr error
		asset, innerErr = n.registry.Get(symbol)
		return innerErr
	})
	return asset, err
}

// ListAssets returns all registered assets.
func (n *Node) ListAssets() ([]registry.Asset, error) {
	var assets []registry.Asset
	err := n.view(func() error {
		var innerErr error
		assets, innerErr = n.registry.List()
		return innerErr
	})
	return assets, err
}

// GrantRole adds an address to a role.
func (n *Node) GrantRole(caller crypto.Address, role string, addr crypto.Address) error {
	return n.transition("registry.grantRole", func() error {
		return n.registry.GrantRole(caller, role, addr)
	})
}

// RevokeRole removes an address from a role.
func (n *Node) RevokeRole(caller crypto.Address, role string, addr crypto.Address) error {
	return n.transition("registry.revokeRole", func() error {
		return n.registry.RevokeRole(caller, role, addr)
	})
}

// --- Staking operations ---

// StakingCreatePool creates a staking pool and returns its id.
func (n *Node) StakingCreatePool(caller crypto.Address, asset string, rewardRatePerSec *big.Int) (uint64, error) {
	var id uint64
	err := n.transition("staking.createPool", func() error {
		var innerErr error
		id, innerErr = n.staking.CreatePool(caller, asset, rewardRatePerSec)
		return innerErr
	})
	return id, err
}

// Stake adds stake to a pool, settling any pending reward first. The settled
// reward is returned.
func (n *Node) Stake(poolID uint64, account crypto.Address, amount *big.Int) (*big.Int, error) {
	var reward *big.Int
	err := n.transition("staking.stake", func() error {
		var innerErr error
		reward, innerErr = n.staking.Stake(poolID, account, amount)
		return innerErr
	})
	return reward, err
}

// Unstake withdraws stake from a pool, settling rewards unconditionally.
func (n *Node) Unstake(poolID uint64, account crypto.Address, amount *big.Int) (*big.Int, error) {
	var reward *big.Int
	err := n.transition("staking.unstake", func() error {
		var innerErr error
		reward, innerErr = n.staking.Unstake(poolID, account, amount)
		return innerErr
	})
	return reward, err
}

// ClaimRewards pays out the pending reward for an active stake.
func (n *Node) ClaimRewards(poolID uint64, account crypto.Address) (*big.Int, error) {
	var reward *big.Int
	err := n.transition("staking.claimRewards", func() error {
		var innerErr error
		reward, innerErr = n.staking.ClaimRewards(poolID, account)
		return innerErr
	})
	return reward, err
}

// FundRewards tops up a pool's reward reserve from the funder's balance.
func (n *Node) FundRewards(poolID uint64, funder crypto.Address, amount *big.Int) error {
	return n.transition("staking.fundRewards", func() error {
		return n.staking.FundRewards(poolID, funder, amount)
	})
}

// PendingReward computes the unsettled reward without mutating state.
func (n *Node) PendingReward(poolID uint64, account crypto.Address) (*big.Int, error) {
	var pending *big.Int
	err := n.view(func() error {
		var innerErr error
		pending, innerErr = n.staking.PendingReward(poolID, account)
		return innerErr
	})
	return pending, err
}

// StakingPool returns the stored staking pool record.
func (n *Node) StakingPool(poolID uint64) (*staking.Pool, error) {
	var pool *staking.Pool
	err := n.view(func() error {
		var innerErr error
		pool, innerErr = n.staking.Pool(poolID)
		return innerErr
	})
	return pool, err
}

// StakingPosition returns an account's stake in a pool.
func (n *Node) StakingPosition(poolID uint64, account crypto.Address) (*staking.UserStake, error) {
	var stake *staking.UserStake
	err := n.view(func() error {
		var innerErr error
		stake, innerErr = n.staking.Position(poolID, account)
		return innerErr
	})
	return stake, err
}

// --- Exchange operations ---

// ExchangeCreatePool creates a constant-product pool and returns its id.
func (n *Node) ExchangeCreatePool(caller crypto.Address, assetA, assetB string, feeBps uint32) (uint64, error) {
	var id uint64
	err := n.transition("exchange.createPool", func() error {
		var innerErr error
		id, innerErr = n.exchange.CreatePool(caller, assetA, assetB, feeBps)
		return innerErr
	})
	return id, err
}

// AddLiquidity deposits reserves into a pool.
func (n *Node) AddLiquidity(poolID uint64, account crypto.Address, amountA, amountB *big.Int) error {
	return n.transition("exchange.addLiquidity", func() error {
		return n.exchange.AddLiquidity(poolID, account, amountA, amountB)
	})
}

// RemoveLiquidity withdraws reserves from a pool.
func (n *Node) RemoveLiquidity(poolID uint64, account crypto.Address, amountA, amountB *big.Int) error {
	return n.transition("exchange.removeLiquidity", func() error {
		return n.exchange.RemoveLiquidity(poolID, account, amountA, amountB)
	})
}

// Swap executes a swap and returns the output amount.
func (n *Node) Swap(poolID uint64, trader crypto.Address, assetIn string, amountIn *big.Int) (*big.Int, error) {
	var amountOut *big.Int
	err := n.transition("exchange.swap", func() error {
		var innerErr error
		amountOut, innerErr = n.exchange.Swap(poolID, trader, assetIn, amountIn)
		return innerErr
	})
	return amountOut, err
}

// Quote computes a swap output without mutating state.
func (n *Node) Quote(poolID uint64, assetIn string, amountIn *big.Int) (*big.Int, error) {
	var amountOut *big.Int
	err := n.view(func() error {
		var innerErr error
		amountOut, innerErr = n.exchange.Quote(poolID, assetIn, amountIn)
		return innerErr
	})
	return amountOut, err
}

// ExchangePool returns the stored exchange pool record.
func (n *Node) ExchangePool(poolID uint64) (*exchange.Pool, error) {
	var pool *exchange.Pool
	err := n.view(func() error {
		var innerErr error
		pool, innerErr = n.exchange.Pool(poolID)
		return innerErr
	})
	return pool, err
}
