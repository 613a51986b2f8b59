// Package exchange implements the constant-product market engine. Pricing
// follows reserve ratios with a basis-point fee withheld in the pool; there
// is no share accounting for liquidity providers, reserves are managed
// administratively.
package exchange

import (
	"math/big"

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
	ExchangePool(id uint64) (*Pool, error)
	PutExchangePool(pool *Pool) error
	AllocExchangePoolID() (uint64, error)
	AppendEvent(evt *types.Event)
}

// Engine orchestrates the exchange state transitions.
type Engine struct {
	state State
}

func NewEngine() *Engine {
	return &Engine{}
}

// SetState wires the engine to the external persistence layer.
func (e *Engine) SetState(state State) { e.state = state }

// CreatePool registers a constant-product pool between two distinct known
// assets. The caller must hold the admin role. Reserves start at zero.
func (e *Engine) CreatePool(caller crypto.Address, assetA, assetB string, feeBps uint32) (uint64, error) {
	if e == nil || e.state == nil {
		return 0, errNilState
	}
	if err := registry.Authorize(e.state, registry.RoleAdmin, caller); err != nil {
		return 0, err
	}
	assetA = registry.NormalizeSymbol(assetA)
	assetB = registry.NormalizeSymbol(assetB)
	if assetA == assetB {
		return 0, ErrSameAsset
	}
	if feeBps > MaxFeeBps {
		return 0, ErrInvalidFee
	}
	for _, asset := range []string{assetA, assetB} {
		registered, err := e.state.IsAssetRegistered(asset)
		if err != nil {
			return 0, err
		}
		if !registered {
			return 0, ErrUnknownAsset
		}
	}
	id, err := e.state.AllocExchangePoolID()
	if err != nil {
		return 0, err
	}
	pool := &Pool{
		ID:       id,
		AssetA:   assetA,
		AssetB:   assetB,
		ReserveA: big.NewInt(0),
		ReserveB: big.NewInt(0),
		FeeBps:   feeBps,
	}
	if err := e.state.PutExchangePool(pool); err != nil {
		return 0, err
	}
	e.state.AppendEvent(events.ExchangePoolCreated{
		PoolID: id,
		AssetA: assetA,
		AssetB: assetB,
		FeeBps: feeBps,
		Admin:  caller,
	}.Event())
	return id, nil
}

// AddLiquidity debits both amounts from the caller and credits the pool
// reserves. There is no proportional share bookkeeping: any depositor's
// reserves are withdrawable by any caller of RemoveLiquidity.
func (e *Engine) AddLiquidity(poolID uint64, account crypto.Address, amountA, amountB *big.Int) error {
	if e == nil || e.state == nil {
		return errNilState
	}
	pool, err := e.state.ExchangePool(poolID)
	if err != nil {
		return err
	}
	if pool == nil {
		return ErrPoolNotFound
	}
	if amountA == nil || amountA.Sign() <= 0 || amountB == nil || amountB.Sign() <= 0 {
		return ErrInvalidAmount
	}
	for _, leg := range []struct {
		asset  string
		amount *big.Int
	}{{pool.AssetA, amountA}, {pool.AssetB, amountB}} {
		balance, err := e.state.Balance(leg.asset, account)
		if err != nil {
			return err
		}
		if balance.Cmp(leg.amount) < 0 {
			return ledger.ErrInsufficientBalance
		}
	}

	pool.ReserveA = new(big.Int).Add(pool.ReserveA, amountA)
	pool.ReserveB = new(big.Int).Add(pool.ReserveB, amountB)
	if err := e.state.PutExchangePool(pool); err != nil {
		return err
	}
	custody := pool.CustodyAddress()
	if err := ledger.Move(e.state, pool.AssetA, account, custody, amountA); err != nil {
		return err
	}
	if err := ledger.Move(e.state, pool.AssetB, account, custody, amountB); err != nil {
		return err
	}

	e.state.AppendEvent(events.LiquidityAdded{
		PoolID:  poolID,
		Account: account,
		AmountA: amountA,
		AmountB: amountB,
	}.Event())
	return nil
}

// RemoveLiquidity debits the pool reserves and credits the caller.
func (e *Engine) RemoveLiquidity(poolID uint64, account crypto.Address, amountA, amountB *big.Int) error {
	if e == nil || e.state == nil {
		return errNilState
	}
	pool, err := e.state.ExchangePool(poolID)
	if err != nil {
		return err
	}
	if pool == nil {
		return ErrPoolNotFound
	}
	if amountA == nil || amountA.Sign() <= 0 || amountB == nil || amountB.Sign() <= 0 {
		return ErrInvalidAmount
	}
	if pool.ReserveA.Cmp(amountA) < 0 || pool.ReserveB.Cmp(amountB) < 0 {
		return ErrInsufficientReserves
	}

	pool.ReserveA = new(big.Int).Sub(pool.ReserveA, amountA)
	pool.ReserveB = new(big.Int).Sub(pool.ReserveB, amountB)
	if err := e.state.PutExchangePool(pool); err != nil {
		return err
	}
	custody := pool.CustodyAddress()
	if err := ledger.Move(e.state, pool.AssetA, custody, account, amountA); err != nil {
		return err
	}
	if err := ledger.Move(e.state, pool.AssetB, custody, account, amountB); err != nil {
		return err
	}

	e.state.AppendEvent(events.LiquidityRemoved{
		PoolID:  poolID,
		Account: account,
		AmountA: amountA,
		AmountB: amountB,
	}.Event())
	return nil
}

// Quote computes the swap output for a hypothetical input without mutating
// state: out = reserveOut * inAfterFee / (reserveIn + inAfterFee), with the
// fee floored out of the input first.
func (e *Engine) Quote(poolID uint64, assetIn string, amountIn *big.Int) (*big.Int, error) {
	if e == nil || e.state == nil {
		return nil, errNilState
	}
	pool, err := e.state.ExchangePool(poolID)
	if err != nil {
		return nil, err
	}
	if pool == nil {
		return nil, ErrPoolNotFound
	}
	if amountIn == nil || amountIn.Sign() <= 0 {
		return nil, ErrZeroInput
	}
	_, reserveIn, reserveOut, err := pool.orient(registry.NormalizeSymbol(assetIn))
	if err != nil {
		return nil, err
	}
	return swapOutput(reserveIn, reserveOut, amountIn, pool.FeeBps), nil
}

// Swap converts amountIn of the input asset into the opposite asset at the
// price set by the reserves. The fee is withheld inside the pool. Returns the
// output amount.
func (e *Engine) Swap(poolID uint64, trader crypto.Address, assetIn string, amountIn *big.Int) (*big.Int, error) {
	if e == nil || e.state == nil {
		return nil, errNilState
	}
	pool, err := e.state.ExchangePool(poolID)
	if err != nil {
		return nil, err
	}
	if pool == nil {
		return nil, ErrPoolNotFound
	}
	if amountIn == nil || amountIn.Sign() <= 0 {
		return nil, ErrZeroInput
	}
	assetIn = registry.NormalizeSymbol(assetIn)
	assetOut, reserveIn, reserveOut, err := pool.orient(assetIn)
	if err != nil {
		return nil, err
	}
	balance, err := e.state.Balance(assetIn, trader)
	if err != nil {
		return nil, err
	}
	if balance.Cmp(amountIn) < 0 {
		return nil, ledger.ErrInsufficientBalance
	}
	amountOut := swapOutput(reserveIn, reserveOut, amountIn, pool.FeeBps)
	if amountOut.Sign() == 0 {
		return nil, ErrInsufficientOutput
	}

	reserveIn.Add(reserveIn, amountIn)
	reserveOut.Sub(reserveOut, amountOut)
	if err := e.state.PutExchangePool(pool); err != nil {
		return nil, err
	}
	custody := pool.CustodyAddress()
	if err := ledger.Move(e.state, assetIn, trader, custody, amountIn); err != nil {
		return nil, err
	}
	if err := ledger.Move(e.state, assetOut, custody, trader, amountOut); err != nil {
		return nil, err
	}

	e.state.AppendEvent(events.SwapExecuted{
		PoolID:    poolID,
		Trader:    trader,
		AssetIn:   assetIn,
		AssetOut:  assetOut,
		AmountIn:  amountIn,
		AmountOut: amountOut,
	}.Event())
	return amountOut, nil
}

// Pool returns the stored pool record.
func (e *Engine) Pool(poolID uint64) (*Pool, error) {
	if e == nil || e.state == nil {
		return nil, errNilState
	}
	pool, err := e.state.ExchangePool(poolID)
	if err != nil {
		return nil, err
	}
	if pool == nil {
		return nil, ErrPoolNotFound
	}
	return pool, nil
}

// orient resolves which side of the pool the input asset occupies. The
// returned reserves alias the pool fields so swap updates write through.
func (p *Pool) orient(assetIn string) (assetOut string, reserveIn, reserveOut *big.Int, err error) {
	switch assetIn {
	case p.AssetA:
		return p.AssetB, p.ReserveA, p.ReserveB, nil
	case p.AssetB:
		return p.AssetA, p.ReserveB, p.ReserveA, nil
	default:
		return "", nil, nil, ErrInvalidAsset
	}
}

// swapOutput applies the constant-product formula with the fee floored out of
// the input. All divisions truncate toward zero.
func swapOutput(reserveIn, reserveOut, amountIn *big.Int, feeBps uint32) *big.Int {
	fee := new(big.Int).Mul(amountIn, new(big.Int).SetUint64(uint64(feeBps)))
	fee.Quo(fee, feeDenominator)
	afterFee := new(big.Int).Sub(amountIn, fee)
	if afterFee.Sign() <= 0 {
		return big.NewInt(0)
	}
	numerator := new(big.Int).Mul(reserveOut, afterFee)
	denominator := new(big.Int).Add(reserveIn, afterFee)
	if denominator.Sign() == 0 {
		return big.NewInt(0)
	}
	return numerator.Quo(numerator, denominator)
}
