package events

import (
	"math/big"
	"strconv"

	"tidepool/core/types"
	"tidepool/crypto"
)

const (
	// TypeExchangePoolCreated is emitted when an exchange pool is created.
	TypeExchangePoolCreated = "exchange.pool_created"
	// TypeLiquidityAdded is emitted when reserves are deposited into a pool.
	TypeLiquidityAdded = "exchange.liquidity_added"
	// TypeLiquidityRemoved is emitted when reserves are withdrawn from a pool.
	TypeLiquidityRemoved = "exchange.liquidity_removed"
	// TypeSwapExecuted is emitted when a swap completes.
	TypeSwapExecuted = "exchange.swap_executed"
)

// ExchangePoolCreated captures the creation of an exchange pool.
type ExchangePoolCreated struct {
	PoolID uint64
	AssetA string
	AssetB string
	FeeBps uint32
	Admin  crypto.Address
}

// EventType satisfies the Event interface.
func (ExchangePoolCreated) EventType() string { return TypeExchangePoolCreated }

// Event converts the structured payload into a broadcastable event.
func (e ExchangePoolCreated) Event() *types.Event {
	return &types.Event{Type: TypeExchangePoolCreated, Attributes: map[string]string{
		"poolId": strconv.FormatUint(e.PoolID, 10),
		"assetA": e.AssetA,
		"assetB": e.AssetB,
		"feeBps": strconv.FormatUint(uint64(e.FeeBps), 10),
		"admin":  e.Admin.String(),
	}}
}

// LiquidityAdded captures a reserve deposit.
type LiquidityAdded struct {
	PoolID  uint64
	Account crypto.Address
	AmountA *big.Int
	AmountB *big.Int
}

// EventType satisfies the Event interface.
func (LiquidityAdded) EventType() string { return TypeLiquidityAdded }

// Event converts the structured payload into a broadcastable event.
func (e LiquidityAdded) Event() *types.Event {
	return &types.Event{Type: TypeLiquidityAdded, Attributes: map[string]string{
		"poolId":  strconv.FormatUint(e.PoolID, 10),
		"account": e.Account.String(),
		"amountA": formatAmount(e.AmountA),
		"amountB": formatAmount(e.AmountB),
	}}
}

// LiquidityRemoved captures a reserve withdrawal.
type LiquidityRemoved struct {
	PoolID  uint64
	Account crypto.Address
	AmountA *big.Int
	AmountB *big.Int
}

// EventType satisfies the Event interface.
func (LiquidityRemoved) EventType() string { return TypeLiquidityRemoved }

// Event converts the structured payload into a broadcastable event.
func (e LiquidityRemoved) Event() *types.Event {
	return &types.Event{Type: TypeLiquidityRemoved, Attributes: map[string]string{
		"poolId":  strconv.FormatUint(e.PoolID, 10),
		"account": e.Account.String(),
		"amountA": formatAmount(e.AmountA),
		"amountB": formatAmount(e.AmountB),
	}}
}

// SwapExecuted captures a completed swap.
type SwapExecuted struct {
	PoolID    uint64
	Trader    crypto.Address
	AssetIn   string
	AssetOut  string
	AmountIn  *big.Int
	AmountOut *big.Int
}

// EventType satisfies the Event interface.
func (SwapExecuted) EventType() string { return TypeSwapExecuted }

// Event converts the structured payload into a broadcastable event.
func (e SwapExecuted) Event() *types.Event {
	return &types.Event{Type: TypeSwapExecuted, Attributes: map[string]string{
		"poolId":    strconv.FormatUint(e.PoolID, 10),
		"trader":    e.Trader.String(),
		"assetIn":   e.AssetIn,
		"assetOut":  e.AssetOut,
		"amountIn":  formatAmount(e.AmountIn),
		"amountOut": formatAmount(e.AmountOut),
	}}
}
