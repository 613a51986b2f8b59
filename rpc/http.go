// Package rpc exposes the node operations over JSON-RPC 2.0. A single POST
// endpoint dispatches on the method name; mutating methods require the
// bearer token when one is configured.
package rpc

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math/big"
	"net/http"
	"os"
	"strings"

	"tidepool/core"
	"tidepool/crypto"
	"tidepool/native/registry"
)

const (
	jsonRPCVersion  = "2.0"
	maxRequestBytes = 1 << 20 // 1 MiB
	authTokenEnv    = "TIDEPOOL_RPC_TOKEN"
)

const (
	codeParseError     = -32700
	codeInvalidRequest = -32600
	codeMethodNotFound = -32601
	codeInvalidParams  = -32602
	codeUnauthorized   = -32001
	codeServerError    = -32000
)

// Server dispatches JSON-RPC requests to the node.
type Server struct {
	node      *core.Node
	authToken string
}

// NewServer constructs a server over the node. The mutation auth token is
// read from TIDEPOOL_RPC_TOKEN; when empty, mutations are open.
func NewServer(node *core.Node) *Server {
	return &Server{
		node:      node,
		authToken: strings.TrimSpace(os.Getenv(authTokenEnv)),
	}
}

// Handler returns the HTTP handler serving the RPC endpoint.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/", s.handle)
	return mux
}

// Start serves the RPC endpoint until the listener fails.
func (s *Server) Start(addr string) error {
	return http.ListenAndServe(addr, s.Handler())
}

// RPCRequest is the JSON-RPC request envelope.
type RPCRequest struct {
	JSONRPC string            `json:"jsonrpc"`
	Method  string            `json:"method"`
	Params  []json.RawMessage `json:"params"`
	ID      int               `json:"id"`
}

// RPCResponse is the JSON-RPC response envelope.
type RPCResponse struct {
	JSONRPC string      `json:"jsonrpc"`
	ID      interface{} `json:"id"`
	Result  interface{} `json:"result,omitempty"`
	Error   *RPCError   `json:"error,omitempty"`
}

// RPCError is the JSON-RPC error payload.
type RPCError struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

func writeError(w http.ResponseWriter, status int, id interface{}, code int, message string, data interface{}) {
	if status <= 0 {
		status = http.StatusBadRequest
	}
	if status != http.StatusOK {
		w.WriteHeader(status)
	}
	errObj := &RPCError{Code: code, Message: message}
	if data != nil {
		errObj.Data = data
	}
	resp := RPCResponse{JSONRPC: jsonRPCVersion, ID: id, Error: errObj}
	_ = json.NewEncoder(w).Encode(resp)
}

func writeResult(w http.ResponseWriter, id interface{}, result interface{}) {
	resp := RPCResponse{JSONRPC: jsonRPCVersion, ID: id, Result: result}
	_ = json.NewEncoder(w).Encode(resp)
}

// writeOpError maps engine errors onto RPC codes. Authorization failures get
// their own code; everything else surfaces as a server error with the
// sentinel text intact so clients can match on it.
func writeOpError(w http.ResponseWriter, id interface{}, err error) {
	if errors.Is(err, registry.ErrUnauthorized) {
		writeError(w, http.StatusForbidden, id, codeUnauthorized, err.Error(), nil)
		return
	}
	writeError(w, http.StatusBadRequest, id, codeServerError, err.Error(), nil)
}

func (s *Server) requireAuth(r *http.Request) *RPCError {
	if s.authToken == "" {
		return nil
	}
	header := strings.TrimSpace(r.Header.Get("Authorization"))
	if !strings.HasPrefix(header, "Bearer ") {
		return &RPCError{Code: codeUnauthorized, Message: "missing bearer token"}
	}
	if strings.TrimPrefix(header, "Bearer ") != s.authToken {
		return &RPCError{Code: codeUnauthorized, Message: "invalid bearer token"}
	}
	return nil
}

func (s *Server) handle(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, nil, codeInvalidRequest, "POST required", nil)
		return
	}
	body, err := io.ReadAll(io.LimitReader(r.Body, maxRequestBytes))
	if err != nil {
		writeError(w, http.StatusBadRequest, nil, codeParseError, "failed to read request", nil)
		return
	}
	var req RPCRequest
	if err := json.Unmarshal(body, &req); err != nil {
		writeError(w, http.StatusBadRequest, nil, codeParseError, "invalid JSON", err.Error())
		return
	}
	if req.JSONRPC != "" && req.JSONRPC != jsonRPCVersion {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidRequest, "unsupported jsonrpc version", nil)
		return
	}

	switch req.Method {
	case "ledger_balanceOf":
		s.handleBalanceOf(w, &req)
	case "ledger_supplyOf":
		s.handleSupplyOf(w, &req)
	case "ledger_transfer":
		s.withAuth(w, r, &req, s.handleTransfer)
	case "ledger_mint":
		s.withAuth(w, r, &req, s.handleMint)
	case "ledger_burn":
		s.withAuth(w, r, &req, s.handleBurn)
	case "registry_register":
		s.withAuth(w, r, &req, s.handleRegisterAsset)
	case "registry_setPaused":
		s.withAuth(w, r, &req, s.handleSetAssetPaused)
	case "registry_get":
		s.handleGetAsset(w, &req)
	case "registry_list":
		s.handleListAssets(w, &req)
	case "registry_grantRole":
		s.withAuth(w, r, &req, s.handleGrantRole)
	case "registry_revokeRole":
		s.withAuth(w, r, &req, s.handleRevokeRole)
	case "staking_createPool":
		s.withAuth(w, r, &req, s.handleStakingCreatePool)
	case "staking_stake":
		s.withAuth(w, r, &req, s.handleStake)
	case "staking_unstake":
		s.withAuth(w, r, &req, s.handleUnstake)
	case "staking_claimRewards":
		s.withAuth(w, r, &req, s.handleClaimRewards)
	case "staking_fundRewards":
		s.withAuth(w, r, &req, s.handleFundRewards)
	case "staking_pendingReward":
		s.handlePendingReward(w, &req)
	case "staking_getPool":
		s.handleStakingGetPool(w, &req)
	case "staking_position":
		s.handleStakingPosition(w, &req)
	case "exchange_createPool":
		s.withAuth(w, r, &req, s.handleExchangeCreatePool)
	case "exchange_addLiquidity":
		s.withAuth(w, r, &req, s.handleAddLiquidity)
	case "exchange_removeLiquidity":
		s.withAuth(w, r, &req, s.handleRemoveLiquidity)
	case "exchange_swap":
		s.withAuth(w, r, &req, s.handleSwap)
	case "exchange_quote":
		s.handleQuote(w, &req)
	case "exchange_getPool":
		s.handleExchangeGetPool(w, &req)
	default:
		writeError(w, http.StatusNotFound, req.ID, codeMethodNotFound, fmt.Sprintf("unknown method %q", req.Method), nil)
	}
}

func (s *Server) withAuth(w http.ResponseWriter, r *http.Request, req *RPCRequest, fn func(http.ResponseWriter, *RPCRequest)) {
	if authErr := s.requireAuth(r); authErr != nil {
		writeError(w, http.StatusUnauthorized, req.ID, authErr.Code, authErr.Message, authErr.Data)
		return
	}
	fn(w, req)
}

func decodeParams(req *RPCRequest, out interface{}) error {
	if len(req.Params) != 1 {
		return fmt.Errorf("exactly one parameter object expected")
	}
	return json.Unmarshal(req.Params[0], out)
}

func parseAmount(amount string) (*big.Int, error) {
	trimmed := strings.TrimSpace(amount)
	if trimmed == "" {
		return nil, fmt.Errorf("amount is required")
	}
	value, ok := new(big.Int).SetString(trimmed, 10)
	if !ok {
		return nil, fmt.Errorf("invalid amount")
	}
	if value.Sign() <= 0 {
		return nil, fmt.Errorf("amount must be positive")
	}
	return value, nil
}

func decodeBech32(addr string) (crypto.Address, error) {
	return crypto.DecodeAddress(strings.TrimSpace(addr))
}

func formatBig(value *big.Int) string {
	if value == nil {
		return "0"
	}
	return value.String()
}
