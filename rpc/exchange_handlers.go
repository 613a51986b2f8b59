package rpc

import "net/http"

type exchangeCreatePoolParams struct {
	Caller string `json:"caller"`
	AssetA string `json:"assetA"`
	AssetB string `json:"assetB"`
	FeeBps uint32 `json:"feeBps"`
}

type exchangeCreatePoolResult struct {
	PoolID uint64 `json:"poolId"`
}

type liquidityParams struct {
	PoolID  uint64 `json:"poolId"`
	Account string `json:"account"`
	AmountA string `json:"amountA"`
	AmountB string `json:"amountB"`
}

type swapParams struct {
	PoolID   uint64 `json:"poolId"`
	Trader   string `json:"trader"`
	AssetIn  string `json:"assetIn"`
	AmountIn string `json:"amountIn"`
}

type swapResult struct {
	AmountOut string `json:"amountOut"`
}

type exchangePoolParams struct {
	PoolID uint64 `json:"poolId"`
}

type exchangePoolResult struct {
	PoolID   uint64 `json:"poolId"`
	AssetA   string `json:"assetA"`
	AssetB   string `json:"assetB"`
	ReserveA string `json:"reserveA"`
	ReserveB string `json:"reserveB"`
	FeeBps   uint32 `json:"feeBps"`
}

func (s *Server) handleExchangeCreatePool(w http.ResponseWriter, req *RPCRequest) {
	var params exchangeCreatePoolParams
	if err := decodeParams(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	caller, err := decodeBech32(params.Caller)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid caller address", err.Error())
		return
	}
	id, err := s.node.ExchangeCreatePool(caller, params.AssetA, params.AssetB, params.FeeBps)
	if err != nil {
		writeOpError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, exchangeCreatePoolResult{PoolID: id})
}

func (s *Server) liquidityCall(w http.ResponseWriter, req *RPCRequest, fn func(poolID uint64, account string, amountA, amountB string) error) {
	var params liquidityParams
	if err := decodeParams(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	if err := fn(params.PoolID, params.Account, params.AmountA, params.AmountB); err != nil {
		writeOpError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, map[string]bool{"ok": true})
}

func (s *Server) handleAddLiquidity(w http.ResponseWriter, req *RPCRequest) {
	s.liquidityCall(w, req, func(poolID uint64, account, amountA, amountB string) error {
		addr, err := decodeBech32(account)
		if err != nil {
			return err
		}
		a, err := parseAmount(amountA)
		if err != nil {
			return err
		}
		b, err := parseAmount(amountB)
		if err != nil {
			return err
		}
		return s.node.AddLiquidity(poolID, addr, a, b)
	})
}

func (s *Server) handleRemoveLiquidity(w http.ResponseWriter, req *RPCRequest) {
	s.liquidityCall(w, req, func(poolID uint64, account, amountA, amountB string) error {
		addr, err := decodeBech32(account)
		if err != nil {
			return err
		}
		a, err := parseAmount(amountA)
		if err != nil {
			return err
		}
		b, err := parseAmount(amountB)
		if err != nil {
			return err
		}
		return s.node.RemoveLiquidity(poolID, addr, a, b)
	})
}

func (s *Server) handleSwap(w http.ResponseWriter, req *RPCRequest) {
	var params swapParams
	if err := decodeParams(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	trader, err := decodeBech32(params.Trader)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid trader address", err.Error())
		return
	}
	amountIn, err := parseAmount(params.AmountIn)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	amountOut, err := s.node.Swap(params.PoolID, trader, params.AssetIn, amountIn)
	if err != nil {
		writeOpError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, swapResult{AmountOut: formatBig(amountOut)})
}

func (s *Server) handleQuote(w http.ResponseWriter, req *RPCRequest) {
	var params swapParams
	if err := decodeParams(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	amountIn, err := parseAmount(params.AmountIn)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	amountOut, err := s.node.Quote(params.PoolID, params.AssetIn, amountIn)
	if err != nil {
		writeOpError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, swapResult{AmountOut: formatBig(amountOut)})
}

func (s *Server) handleExchangeGetPool(w http.ResponseWriter, req *RPCRequest) {
	var params exchangePoolParams
	if err := decodeParams(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	pool, err := s.node.ExchangePool(params.PoolID)
	if err != nil {
		writeOpError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, exchangePoolResult{
		PoolID:   pool.ID,
		AssetA:   pool.AssetA,
		AssetB:   pool.AssetB,
		ReserveA: formatBig(pool.ReserveA),
		ReserveB: formatBig(pool.ReserveB),
		FeeBps:   pool.FeeBps,
	})
}
