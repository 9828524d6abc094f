package search

import (
	"errors"

	"sdkdocs/internal/index"
)

// Sentinel errors for consistent error handling.
var (
	ErrSDKNotConfigured = errors.New("sdk not configured")
	ErrStorageMissing   = index.ErrStorageMissing
	ErrFileNotFound     = errors.New("file not found")
	ErrSymbolNotFound   = errors.New("symbol not found")
	ErrInvalidPattern   = errors.New("invalid pattern")
	ErrPathTraversal    = errors.New("path traversal rejected")
)
