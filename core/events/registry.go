package events

import (
	"strconv"

	"tidepool/core/types"
	"tidepool/crypto"
)

const (
	// TypeAssetRegistered is emitted when a new asset enters the registry.
	TypeAssetRegistered = "registry.asset_registered"
	// TypeAssetPauseChanged is emitted when an asset pause flag is toggled.
	TypeAssetPauseChanged = "registry.asset_pause_changed"
	// TypeRoleGranted is emitted when an address gains a role.
	TypeRoleGranted = "registry.role_granted"
	// TypeRoleRevoked is emitted when an address loses a role.
	TypeRoleRevoked = "registry.role_revoked"
)

// AssetRegistered captures a new asset registration.
type AssetRegistered struct {
	Symbol   string
	Name     string
	Decimals uint8
	Admin    crypto.Address
}

// EventType satisfies the Event interface.
func (AssetRegistered) EventType() string { return TypeAssetRegistered }

// Event converts the structured payload into a broadcastable event.
func (e AssetRegistered) Event() *types.Event {
	return &types.Event{Type: TypeAssetRegistered, Attributes: map[string]string{
		"symbol":   e.Symbol,
		"name":     e.Name,
		"decimals": strconv.FormatUint(uint64(e.Decimals), 10),
		"admin":    e.Admin.String(),
	}}
}

// AssetPauseChanged captures a pause flag toggle.
type AssetPauseChanged struct {
	Symbol string
	Paused bool
}

// EventType satisfies the Event interface.
func (AssetPauseChanged) EventType() string { return TypeAssetPauseChanged }

// Event converts the structured payload into a broadcastable event.
func (e AssetPauseChanged) Event() *types.Event {
	return &types.Event{Type: TypeAssetPauseChanged, Attributes: map[string]string{
		"symbol": e.Symbol,
		"paused": strconv.FormatBool(e.Paused),
	}}
}

// RoleGranted captures a role membership addition.
type RoleGranted struct {
	Role    string
	Address crypto.Address
	Admin   crypto.Address
}

// EventType satisfies the Event interface.
func (RoleGranted) EventType() string { return TypeRoleGranted }

// Event converts the structured payload into a broadcastable event.
func (e RoleGranted) Event() *types.Event {
	return &types.Event{Type: TypeRoleGranted, Attributes: map[string]string{
		"role":  e.Role,
		"addr":  e.Address.String(),
		"admin": e.Admin.String(),
	}}
}

// RoleRevoked captures a role membership removal.
type RoleRevoked struct {
	Role    string
	Address crypto.Address
	Admin   crypto.Address
}

// EventType satisfies the Event interface.
func (RoleRevoked) EventType() string { return TypeRoleRevoked }

// Event converts the structured payload into a broadcastable event.
func (e RoleRevoked) Event() *types.Event {
	return &types.Event{Type: TypeRoleRevoked, Attributes: map[string]string{
		"role":  e.Role,
		"addr":  e.Address.String(),
		"admin": e.Admin.String(),
	}}
}
