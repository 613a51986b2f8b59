package registry

import (
	"strings"

	"tidepool/core/events"
	"tidepool/core/types"
	"tidepool/crypto"
)

const maxSymbolLength = 12

// State is the slice of the state manager the registry operates on.
type State interface {
	Asset(symbol string) (*Asset, error)
	PutAsset(asset *Asset) error
	AssetList() ([]string, error)
	HasRole(role string, addr crypto.Address) (bool, error)
	GrantRole(role string, addr crypto.Address) error
	RevokeRole(role string, addr crypto.Address) error
	AppendEvent(evt *types.Event)
}

// RoleState is the narrow view engines use to authorize administrative calls.
type RoleState interface {
	HasRole(role string, addr crypto.Address) (bool, error)
}

// Authorize checks that the caller holds the given role. It is the explicit
// authorization context administrative operations receive instead of a
// mutable owner singleton.
func Authorize(st RoleState, role string, caller crypto.Address) error {
	ok, err := st.HasRole(role, caller)
	if err != nil {
		return err
	}
	if !ok {
		return ErrUnauthorized
	}
	return nil
}

// Registry exposes the asset metadata and role administration surface.
type Registry struct {
	state State
}

func NewRegistry(state State) *Registry {
	return &Registry{state: state}
}

// NormalizeSymbol canonicalises an asset symbol for lookups.
func NormalizeSymbol(symbol string) string {
	return strings.ToUpper(strings.TrimSpace(symbol))
}

// Register records a new asset. The caller must hold RoleAdmin.
func (r *Registry) Register(caller crypto.Address, asset Asset) error {
	if err := Authorize(r.state, RoleAdmin, caller); err != nil {
		return err
	}
	asset.Symbol = NormalizeSymbol(asset.Symbol)
	if asset.Symbol == "" || len(asset.Symbol) > maxSymbolLength {
		return ErrInvalidAsset
	}
	existing, err := r.state.Asset(asset.Symbol)
	if err != nil {
		return err
	}
	if existing != nil {
		return ErrAssetExists
	}
	if err := r.state.PutAsset(&asset); err != nil {
		return err
	}
	r.state.AppendEvent(events.AssetRegistered{
		Symbol:   asset.Symbol,
		Name:     asset.Name,
		Decimals: asset.Decimals,
		Admin:    caller,
	}.Event())
	return nil
}

// SetPaused toggles the paused flag on a registered asset. Paused assets fail
// the registration check both engines consult at pool creation.
func (r *Registry) SetPaused(caller crypto.Address, symbol string, paused bool) error {
	if err := Authorize(r.state, RoleAdmin, caller); err != nil {
		return err
	}
	symbol = NormalizeSymbol(symbol)
	asset, err := r.state.Asset(symbol)
	if err != nil {
		return err
	}
	if asset == nil {
		return ErrAssetNotFound
	}
	asset.Paused = paused
	if err := r.state.PutAsset(asset); err != nil {
		return err
	}
	r.state.AppendEvent(events.AssetPauseChanged{Symbol: symbol, Paused: paused}.Event())
	return nil
}

// Get returns the metadata for a symbol.
func (r *Registry) Get(symbol string) (*Asset, error) {
	asset, err := r.state.Asset(NormalizeSymbol(symbol))
	if err != nil {
		return nil, err
	}
	if asset == nil {
		return nil, ErrAssetNotFound
	}
	return asset, nil
}

// List returns metadata for every registered asset in registration order.
func (r *Registry) List() ([]Asset, error) {
	symbols, err := r.state.AssetList()
	if err != nil {
		return nil, err
	}
	assets := make([]Asset, 0, len(symbols))
	for _, symbol := range symbols {
		asset, err := r.state.Asset(symbol)
		if err != nil {
			return nil, err
		}
		if asset == nil {
			continue
		}
		assets = append(assets, *asset)
	}
	return assets, nil
}

// GrantRole adds an address to a role. The caller must hold RoleAdmin.
func (r *Registry) GrantRole(caller crypto.Address, role string, addr crypto.Address) error {
	if err := Authorize(r.state, RoleAdmin, caller); err != nil {
		return err
	}
	if err := r.state.GrantRole(role, addr); err != nil {
		return err
	}
	r.state.AppendEvent(events.RoleGranted{Role: role, Address: addr, Admin: caller}.Event())
	return nil
}

// RevokeRole removes an address from a role. The caller must hold RoleAdmin.
func (r *Registry) RevokeRole(caller crypto.Address, role string, addr crypto.Address) error {
	if err := Authorize(r.state, RoleAdmin, caller); err != nil {
		return err
	}
	if err := r.state.RevokeRole(role, addr); err != nil {
		return err
	}
	r.state.AppendEvent(events.RoleRevoked{Role: role, Address: addr, Admin: caller}.Event())
	return nil
}
