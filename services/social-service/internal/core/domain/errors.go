package domain

import "errors"

// --- ERREURS DU DOMAINE ---
// Les adapters traduisent leurs erreurs techniques vers ces sentinelles,
// les appelants testent avec errors.Is.
var (
	ErrValidation         = errors.New("validation error")
	ErrNotFound           = errors.New("not found")
	ErrForbidden          = errors.New("forbidden")
	ErrTimeout            = errors.New("timeout")
	ErrStorageUnavailable = errors.New("storage unavailable")
)
