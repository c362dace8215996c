package registry

import "errors"

// Registry ドメインのエラー定義
var (
	ErrAlreadyInitialized = errors.New("registry account already in use")
	ErrRegistryNotFound   = errors.New("registry not initialized")
	ErrAuthorityRequired  = errors.New("authority is required")
	ErrEventIDExhausted   = errors.New("event id space exhausted")
)
