package rpc

import "net/http"

type stakingCreatePoolParams struct {
	Caller           string `json:"caller"`
	Asset            string `json:"asset"`
	RewardRatePerSec string `json:"rewardRatePerSec"`
}

type stakingCreatePoolResult struct {
	PoolID uint64 `json:"poolId"`
}

type stakeParams struct {
	PoolID  uint64 `json:"poolId"`
	Account string `json:"account"`
	Amount  string `json:"amount"`
}

type stakeResult struct {
	Reward string `json:"reward"`
}

type claimParams struct {
	PoolID  uint64 `json:"poolId"`
	Account string `json:"account"`
}

type fundRewardsParams struct {
	PoolID uint64 `json:"poolId"`
	Funder string `json:"funder"`
	Amount string `json:"amount"`
}

type pendingRewardResult struct {
	Pending string `json:"pending"`
}

type stakingPoolParams struct {
	PoolID uint64 `json:"poolId"`
}

type stakingPoolResult struct {
	PoolID            uint64 `json:"poolId"`
	Asset             string `json:"asset"`
	RewardRatePerSec  string `json:"rewardRatePerSec"`
	TotalStaked       string `json:"totalStaked"`
	AccRewardPerShare string `json:"accRewardPerShare"`
	LastUpdateUnix    uint64 `json:"lastUpdateUnix"`
}

type stakingPositionResult struct {
	PoolID     uint64 `json:"poolId"`
	Account    string `json:"account"`
	Amount     string `json:"amount"`
	RewardDebt string `json:"rewardDebt"`
}

func (s *Server) handleStakingCreatePool(w http.ResponseWriter, req *RPCRequest) {
	var params stakingCreatePoolParams
	if err := decodeParams(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	caller, err := decodeBech32(params.Caller)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid caller address", err.Error())
		return
	}
	rate, err := parseAmount(params.RewardRatePerSec)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	id, err := s.node.StakingCreatePool(caller, params.Asset, rate)
	if err != nil {
		writeOpError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, stakingCreatePoolResult{PoolID: id})
}

func (s *Server) handleStake(w http.ResponseWriter, req *RPCRequest) {
	var params stakeParams
	if err := decodeParams(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	account, err := decodeBech32(params.Account)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid account address", err.Error())
		return
	}
	amount, err := parseAmount(params.Amount)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	reward, err := s.node.Stake(params.PoolID, account, amount)
	if err != nil {
		writeOpError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, stakeResult{Reward: formatBig(reward)})
}

func (s *Server) handleUnstake(w http.ResponseWriter, req *RPCRequest) {
	var params stakeParams
	if err := decodeParams(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	account, err := decodeBech32(params.Account)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid account address", err.Error())
		return
	}
	amount, err := parseAmount(params.Amount)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	reward, err := s.node.Unstake(params.PoolID, account, amount)
	if err != nil {
		writeOpError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, stakeResult{Reward: formatBig(reward)})
}

func (s *Server) handleClaimRewards(w http.ResponseWriter, req *RPCRequest) {
	var params claimParams
	if err := decodeParams(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	account, err := decodeBech32(params.Account)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid account address", err.Error())
		return
	}
	reward, err := s.node.ClaimRewards(params.PoolID, account)
	if err != nil {
		writeOpError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, stakeResult{Reward: formatBig(reward)})
}

func (s *Server) handleFundRewards(w http.ResponseWriter, req *RPCRequest) {
	var params fundRewardsParams
	if err := decodeParams(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	funder, err := decodeBech32(params.Funder)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid funder address", err.Error())
		return
	}
	amount, err := parseAmount(params.Amount)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	if err := s.node.FundRewards(params.PoolID, funder, amount); err != nil {
		writeOpError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, map[string]bool{"ok": true})
}

func (s *Server) handlePendingReward(w http.ResponseWriter, req *RPCRequest) {
	var params claimParams
	if err := decodeParams(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	account, err := decodeBech32(params.Account)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid account address", err.Error())
		return
	}
	pending, err := s.node.PendingReward(params.PoolID, account)
	if err != nil {
		writeOpError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, pendingRewardResult{Pending: formatBig(pending)})
}

func (s *Server) handleStakingGetPool(w http.ResponseWriter, req *RPCRequest) {
	var params stakingPoolParams
	if err := decodeParams(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	pool, err := s.node.StakingPool(params.PoolID)
	if err != nil {
		writeOpError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, stakingPoolResult{
		PoolID:            pool.ID,
		Asset:             pool.Asset,
		RewardRatePerSec:  formatBig(pool.RewardRatePerSec),
		TotalStaked:       formatBig(pool.TotalStaked),
		AccRewardPerShare: formatBig(pool.AccRewardPerShare),
		LastUpdateUnix:    pool.LastUpdateUnix,
	})
}

func (s *Server) handleStakingPosition(w http.ResponseWriter, req *RPCRequest) {
	var params claimParams
	if err := decodeParams(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	account, err := decodeBech32(params.Account)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid account address", err.Error())
		return
	}
	stake, err := s.node.StakingPosition(params.PoolID, account)
	if err != nil {
		writeOpError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, stakingPositionResult{
		PoolID:     params.PoolID,
		Account:    params.Account,
		Amount:     formatBig(stake.Amount),
		RewardDebt: formatBig(stake.RewardDebt),
	})
}
