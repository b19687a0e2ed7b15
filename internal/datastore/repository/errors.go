package repository

import "github.com/agrotrace/agrobio-go/internal/errors"

// Sentinel errors returned by repositories. Callers match with errors.Is.
var (
	ErrCachedResponseNotFound = errors.Sentinel("cached response not found")
	ErrQueuedMutationNotFound = errors.Sentinel("queued mutation not found")
	ErrGovResponseNotFound    = errors.Sentinel("gov api response not found")
)
