package domain

import (
	"errors"
	"fmt"
)

// Sentinel errors shared across adapters and the orchestrator.
var (
	// ErrRateLimited marks a transient rate-limit-class failure from an
	// external service. Calls failing with it are retried with backoff.
	ErrRateLimited = errors.New("rate limited")

	// ErrAuthConfiguration marks a systemic misconfiguration (bad API key,
	// missing credentials). It is never retried and aborts the batch run.
	ErrAuthConfiguration = errors.New("authentication or configuration error")

	// ErrBundleNotReady is returned by the read path when no bundle has been
	// cached yet for the requested user and day.
	ErrBundleNotReady = errors.New("bundle not ready")

	// ErrNotFound is returned by repositories when a row is absent.
	ErrNotFound = errors.New("not found")
)

// FetchError reports a failed source fetch. Non-fatal: the source simply
// contributes zero articles to the run.
type FetchError struct {
	Source string
	Err    error
}

func (e *FetchError) Error() string { return fmt.Sprintf("fetch %s: %v", e.Source, e.Err) }
func (e *FetchError) Unwrap() error { return e.Err }

// ClassificationError reports a failed classification call for one article.
// Non-fatal: the keyword fallback engages.
type ClassificationError struct {
	URL string
	Err error
}

func (e *ClassificationError) Error() string { return fmt.Sprintf("classify %s: %v", e.URL, e.Err) }
func (e *ClassificationError) Unwrap() error { return e.Err }

// CacheWriteError reports a failed bundle upsert for one user. Non-fatal to
// the batch: the user serves stale or "preparing" until the next run.
type CacheWriteError struct {
	UserID string
	Err    error
}

func (e *CacheWriteError) Error() string {
	return fmt.Sprintf("cache write for user %s: %v", e.UserID, e.Err)
}
func (e *CacheWriteError) Unwrap() error { return e.Err }
