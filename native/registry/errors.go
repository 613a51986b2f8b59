package registry

import "errors"

var (
	ErrUnauthorized  = errors.New("registry: unauthorized")
	ErrAssetExists   = errors.New("registry: asset already registered")
	ErrAssetNotFound = errors.New("registry: asset not found")
	ErrInvalidAsset  = errors.New("registry: invalid asset")
)
