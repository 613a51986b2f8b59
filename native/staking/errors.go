package staking

import "errors"

var (
	ErrPoolNotFound              = errors.New("staking: pool not found")
	ErrUnknownAsset              = errors.New("staking: unknown asset")
	ErrInvalidAmount             = errors.New("staking: amount must be positive")
	ErrInsufficientStake         = errors.New("staking: insufficient stake")
	ErrNothingStaked             = errors.New("staking: nothing staked")
	ErrInsufficientRewardReserve = errors.New("staking: insufficient reward reserve")

	errNilState = errors.New("staking: state not configured")
)
