package domain

import "errors"

var (
	// ErrEmptyMessage rejects blank input before any state mutation.
	ErrEmptyMessage = errors.New("message is empty")

	// ErrNotConfigured means the data-access collaborator is absent.
	ErrNotConfigured = errors.New("data service not configured")

	// ErrSessionNotFound is returned by read-only session lookups.
	ErrSessionNotFound = errors.New("session not found")

	// ErrDataUnavailable wraps backend failures during dispatch.
	ErrDataUnavailable = errors.New("data service unavailable")

	// ErrNoProvider means every configured provider failed or none
	// is configured; callers fall back to template rendering.
	ErrNoProvider = errors.New("no language-model provider available")
)
