package domain

import "errors"

// Store-level sentinels. Usecases translate them into apperror kinds.
var (
	ErrNotFound         = errors.New("resource not found")
	ErrDuplicate        = errors.New("resource already exists")
	ErrEdgeNotFound     = errors.New("relationship not found")
	ErrProgramNotFound  = errors.New("program not found")
	ErrStoreUnavailable = errors.New("store unavailable")
	ErrUnknownField     = errors.New("unknown field")
	ErrInvalidValue     = errors.New("invalid filter value")
)
