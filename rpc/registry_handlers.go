package rpc

import (
	"net/http"

	"tidepool/native/registry"
)

type registerAssetParams struct {
	Caller   string `json:"caller"`
	Symbol   string `json:"symbol"`
	Name     string `json:"name"`
	Decimals uint8  `json:"decimals"`
}

type setPausedParams struct {
	Caller string `json:"caller"`
	Symbol string `json:"symbol"`
	Paused bool   `json:"paused"`
}

type getAssetParams struct {
	Symbol string `json:"symbol"`
}

type assetResult struct {
	Symbol   string `json:"symbol"`
	Name     string `json:"name"`
	Decimals uint8  `json:"decimals"`
	Paused   bool   `json:"paused"`
}

type grantRoleParams struct {
	Caller  string `json:"caller"`
	Role    string `json:"role"`
	Address string `json:"address"`
}

func assetResultFrom(asset registry.Asset) assetResult {
	return assetResult{
		Symbol:   asset.Symbol,
		Name:     asset.Name,
		Decimals: asset.Decimals,
		Paused:   asset.Paused,
	}
}

func (s *Server) handleRegisterAsset(w http.ResponseWriter, req *RPCRequest) {
	var params registerAssetParams
	if err := decodeParams(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	caller, err := decodeBech32(params.Caller)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid caller address", err.Error())
		return
	}
	asset := registry.Asset{Symbol: params.Symbol, Name: params.Name, Decimals: params.Decimals}
	if err := s.node.RegisterAsset(caller, asset); err != nil {
		writeOpError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, map[string]bool{"ok": true})
}

func (s *Server) handleSetAssetPaused(w http.ResponseWriter, req *RPCRequest) {
	var params setPausedParams
	if err := decodeParams(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	caller, err := decodeBech32(params.Caller)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid caller address", err.Error())
		return
	}
	if err := s.node.SetAssetPaused(caller, params.Symbol, params.Paused); err != nil {
		writeOpError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, map[string]bool{"ok": true})
}

func (s *Server) handleGetAsset(w http.ResponseWriter, req *RPCRequest) {
	var params getAssetParams
	if err := decodeParams(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	asset, err := s.node.GetAsset(params.Symbol)
	if err != nil {
		writeOpError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, assetResultFrom(*asset))
}

func (s *Server) handleListAssets(w http.ResponseWriter, req *RPCRequest) {
	assets, err := s.node.ListAssets()
	if err != nil {
		writeOpError(w, req.ID, err)
		return
	}
	results := make([]assetResult, 0, len(assets))
	for _, asset := range assets {
		results = append(results, assetResultFrom(asset))
	}
	writeResult(w, req.ID, results)
}

func (s *Server) handleGrantRole(w http.ResponseWriter, req *RPCRequest) {
	var params grantRoleParams
	if err := decodeParams(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	caller, err := decodeBech32(params.Caller)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid caller address", err.Error())
		return
	}
	addr, err := decodeBech32(params.Address)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid address", err.Error())
		return
	}
	if err := s.node.GrantRole(caller, params.Role, addr); err != nil {
		writeOpError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, map[string]bool{"ok": true})
}

func (s *Server) handleRevokeRole(w http.ResponseWriter, req *RPCRequest) {
	var params grantRoleParams
	if err := decodeParams(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	caller, err := decodeBech32(params.Caller)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid caller address", err.Error())
		return
	}
	addr, err := decodeBech32(params.Address)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid address", err.Error())
		return
	}
	if err := s.node.RevokeRole(caller, params.Role, addr); err != nil {
		writeOpError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, map[string]bool{"ok": true})
}
