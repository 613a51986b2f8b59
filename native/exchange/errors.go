package exchange

import "errors"

var (
	ErrPoolNotFound         = errors.New("exchange: pool not found")
	ErrSameAsset            = errors.New("exchange: pool assets must differ")
	ErrUnknownAsset         = errors.New("exchange: unknown asset")
	ErrInvalidAsset         = errors.New("exchange: asset not in pool")
	ErrInvalidAmount        = errors.New("exchange: amount must be positive")
	ErrInvalidFee           = errors.New("exchange: fee exceeds 10000 bps")
	ErrZeroInput            = errors.New("exchange: swap input must be positive")
	ErrInsufficientReserves = errors.New("exchange: insufficient reserves")
	ErrInsufficientOutput   = errors.New("exchange: swap output is zero")

	errNilState = errors.New("exchange: state not configured")
)
