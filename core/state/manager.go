// Package state persists ledger, registry and pool records in a key-value
// store using keccak-hashed, prefix-namespaced keys and RLP encoding.
//
// Writes accumulate in an in-memory overlay until Commit flushes them to the
// backing database; Discard drops them. The node wraps every state
// transition in that boundary so an operation either fully applies or leaves
// no trace, including its events.
package state

import (
	"math/big"
	"sort"

	"github.com/ethereum/go-ethereum/rlp"

	"tidepool/core/types"
	"tidepool/crypto"
	"tidepool/native/exchange"
	"tidepool/native/registry"
	"tidepool/native/staking"
	"tidepool/storage"
)

// Manager provides typed access to the state records backing the engines.
// It is not safe for concurrent use; the node serializes operations.
type Manager struct {
	db      storage.Database
	overlay map[string][]byte
	events  []*types.Event
}

// NewManager creates a state manager over the provided database.
func NewManager(db storage.Database) *Manager {
	return &Manager{
		db:      db,
		overlay: make(map[string][]byte),
	}
}

func (m *Manager) get(key []byte) ([]byte, error) {
	if data, ok := m.overlay[string(key)]; ok {
		return data, nil
	}
	return m.db.Get(key)
}

func (m *Manager) put(key, value []byte) {
	m.overlay[string(key)] = value
}

func (m *Manager) getRecord(key []byte, out interface{}) (bool, error) {
	data, err := m.get(key)
	if err != nil {
		return false, err
	}
	if len(data) == 0 {
		return false, nil
	}
	if err := rlp.DecodeBytes(data, out); err != nil {
		return false, err
	}
	return true, nil
}

func (m *Manager) putRecord(key []byte, value interface{}) error {
	encoded, err := rlp.EncodeToBytes(value)
	if err != nil {
		return err
	}
	m.put(key, encoded)
	return nil
}

// Commit flushes the overlay to the database and resets the transition
// buffers. Keys are written in sorted order so replays are deterministic.
func (m *Manager) Commit() error {
	keys := make([]string, 0, len(m.overlay))
	for key := range m.overlay {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		if err := m.db.Put([]byte(key), m.overlay[key]); err != nil {
			return err
		}
	}
	m.reset()
	return nil
}

// Discard drops all uncommitted writes and buffered events.
func (m *Manager) Discard() {
	m.reset()
}

func (m *Manager) reset() {
	m.overlay = make(map[string][]byte)
	m.events = nil
}

// AppendEvent buffers an event for the in-flight transition. Events are only
// observable after Commit.
func (m *Manager) AppendEvent(evt *types.Event) {
	if evt == nil {
		return
	}
	m.events = append(m.events, evt)
}

// Events returns the events buffered by the in-flight transition.
func (m *Manager) Events() []*types.Event {
	return append([]*types.Event(nil), m.events...)
}

// --- Asset registry ---

// Asset returns the stored metadata for a symbol, nil when unregistered.
func (m *Manager) Asset(symbol string) (*registry.Asset, error) {
	var asset registry.Asset
	found, err := m.getRecord(assetKey(symbol), &asset)
	if err != nil || !found {
		return nil, err
	}
	return &asset, nil
}

// PutAsset stores asset metadata, appending new symbols to the asset list.
func (m *Manager) PutAsset(asset *registry.Asset) error {
	existing, err := m.Asset(asset.Symbol)
	if err != nil {
		return err
	}
	if existing == nil {
		list, err := m.AssetList()
		if err != nil {
			return err
		}
		list = append(list, asset.Symbol)
		if err := m.putRecord(assetListKey, list); err != nil {
			return err
		}
	}
	return m.putRecord(assetKey(asset.Symbol), asset)
}

// AssetList returns all registered symbols in registration order.
func (m *Manager) AssetList() ([]string, error) {
	var list []string
	if _, err := m.getRecord(assetListKey, &list); err != nil {
		return nil, err
	}
	if list == nil {
		list = []string{}
	}
	return list, nil
}

// IsAssetRegistered reports whether a symbol is registered and not paused.
func (m *Manager) IsAssetRegistered(symbol string) (bool, error) {
	asset, err := m.Asset(symbol)
	if err != nil {
		return false, err
	}
	return asset != nil && !asset.Paused, nil
}

// --- Balances and supply ---

// Balance returns the ledger balance for (symbol, addr), zero when absent.
func (m *Manager) Balance(symbol string, addr crypto.Address) (*big.Int, error) {
	value := new(big.Int)
	found, err := m.getRecord(balanceKey(symbol, addr.Bytes()), value)
	if err != nil {
		return nil, err
	}
	if !found {
		return big.NewInt(0), nil
	}
	return value, nil
}

// SetBalance stores the ledger balance for (symbol, addr).
func (m *Manager) SetBalance(symbol string, addr crypto.Address, amount *big.Int) error {
	if amount == nil || amount.Sign() < 0 {
		return ErrNegativeBalance
	}
	return m.putRecord(balanceKey(symbol, addr.Bytes()), amount)
}

// Supply returns the total minted supply for a symbol.
func (m *Manager) Supply(symbol string) (*big.Int, error) {
	value := new(big.Int)
	found, err := m.getRecord(supplyKey(symbol), value)
	if err != nil {
		return nil, err
	}
	if !found {
		return big.NewInt(0), nil
	}
	return value, nil
}

// SetSupply stores the total minted supply for a symbol.
func (m *Manager) SetSupply(symbol string, amount *big.Int) error {
	if amount == nil || amount.Sign() < 0 {
		return ErrNegativeBalance
	}
	return m.putRecord(supplyKey(symbol), amount)
}

// --- Roles ---

// HasRole reports whether addr belongs to the role.
func (m *Manager) HasRole(role string, addr crypto.Address) (bool, error) {
	members, err := m.roleMembers(role)
	if err != nil {
		return false, err
	}
	target := string(addr.Bytes())
	for _, member := range members {
		if string(member) == target {
			return true, nil
		}
	}
	return false, nil
}

// GrantRole adds addr to the role membership. Adding twice is a no-op.
func (m *Manager) GrantRole(role string, addr crypto.Address) error {
	members, err := m.roleMembers(role)
	if err != nil {
		return err
	}
	target := string(addr.Bytes())
	for _, member := range members {
		if string(member) == target {
			return nil
		}
	}
	members = append(members, addr.Bytes())
	return m.putRecord(roleKey(role), members)
}

// RevokeRole removes addr from the role membership.
func (m *Manager) RevokeRole(role string, addr crypto.Address) error {
	members, err := m.roleMembers(role)
	if err != nil {
		return err
	}
	target := string(addr.Bytes())
	filtered := make([][]byte, 0, len(members))
	for _, member := range members {
		if string(member) != target {
			filtered = append(filtered, member)
		}
	}
	return m.putRecord(roleKey(role), filtered)
}

// RoleMembers returns the raw addresses holding a role.
func (m *Manager) RoleMembers(role string) ([][]byte, error) {
	return m.roleMembers(role)
}

func (m *Manager) roleMembers(role string) ([][]byte, error) {
	var members [][]byte
	if _, err := m.getRecord(roleKey(role), &members); err != nil {
		return nil, err
	}
	return members, nil
}

// --- Staking pools ---

// StakingPool returns the stored pool record, nil when absent.
func (m *Manager) StakingPool(id uint64) (*staking.Pool, error) {
	var pool staking.Pool
	found, err := m.getRecord(stakingPoolKey(id), &pool)
	if err != nil || !found {
		return nil, err
	}
	return &pool, nil
}

// PutStakingPool stores a pool record.
func (m *Manager) PutStakingPool(pool *staking.Pool) error {
	return m.putRecord(stakingPoolKey(pool.ID), pool)
}

// AllocStakingPoolID reserves the next dense pool id, starting at 1.
func (m *Manager) AllocStakingPoolID() (uint64, error) {
	return m.allocID(stakingPoolCountKey)
}

// StakingPoolCount returns the number of staking pools created so far.
func (m *Manager) StakingPoolCount() (uint64, error) {
	return m.counter(stakingPoolCountKey)
}

// UserStake returns the stored stake for (pool, addr), nil when absent.
func (m *Manager) UserStake(poolID uint64, addr crypto.Address) (*staking.UserStake, error) {
	var stake staking.UserStake
	found, err := m.getRecord(stakingStakeKey(poolID, addr.Bytes()), &stake)
	if err != nil || !found {
		return nil, err
	}
	return &stake, nil
}

// PutUserStake stores a stake record.
func (m *Manager) PutUserStake(stake *staking.UserStake) error {
	return m.putRecord(stakingStakeKey(stake.PoolID, stake.Address), stake)
}

// --- Exchange pools ---

// ExchangePool returns the stored pool record, nil when absent.
func (m *Manager) ExchangePool(id uint64) (*exchange.Pool, error) {
	var pool exchange.Pool
	found, err := m.getRecord(exchangePoolKey(id), &pool)
	if err != nil || !found {
		return nil, err
	}
	return &pool, nil
}

// PutExchangePool stores a pool record.
func (m *Manager) PutExchangePool(pool *exchange.Pool) error {
	return m.putRecord(exchangePoolKey(pool.ID), pool)
}

// AllocExchangePoolID reserves the next dense pool id, starting at 1.
func (m *Manager) AllocExchangePoolID() (uint64, error) {
	return m.allocID(exchangePoolCountKey)
}

// ExchangePoolCount returns the number of exchange pools created so far.
func (m *Manager) ExchangePoolCount() (uint64, error) {
	return m.counter(exchangePoolCountKey)
}

func (m *Manager) counter(name string) (uint64, error) {
	var count uint64
	if _, err := m.getRecord(counterKey(name), &count); err != nil {
		return 0, err
	}
	return count, nil
}

func (m *Manager) allocID(name string) (uint64, error) {
	count, err := m.counter(name)
	if err != nil {
		return 0, err
	}
	next := count + 1
	if err := m.putRecord(counterKey(name), next); err != nil {
		return 0, err
	}
	return next, nil
}
