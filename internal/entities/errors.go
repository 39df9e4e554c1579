package entities

import "errors"

var (
	// ErrNotFound indicates the shortcode is not in the table.
	ErrNotFound = errors.New("short link not found")

	// ErrExpired indicates the link exists but its validity window has passed.
	ErrExpired = errors.New("short link has expired")

	// ErrShortcodeExhausted indicates no unique shortcode could be allocated.
	ErrShortcodeExhausted = errors.New("failed to generate unique shortcode")
)
