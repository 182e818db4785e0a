package domain

import (
	"errors"
	"fmt"
)

// Base error types (sentinel errors).
var (
	ErrNotFound     = errors.New("not found")
	ErrInvalidInput = errors.New("invalid input")
	ErrUnsupported  = errors.New("unsupported operation")
	ErrInternal     = errors.New("internal error")
	ErrUnavailable  = errors.New("service unavailable")
)

// Specific errors.
var (
	ErrLayerNotFound      = fmt.Errorf("layer: %w", ErrNotFound)
	ErrFeatureNotFound    = fmt.Errorf("feature: %w", ErrNotFound)
	ErrLayerNotLoaded     = fmt.Errorf("layer not loaded: %w", ErrUnavailable)
	ErrInvalidCoordinate  = fmt.Errorf("coordinate: %w", ErrInvalidInput)
	ErrUnsupportedFormat  = fmt.Errorf("layer format: %w", ErrUnsupported)
	ErrDecode             = fmt.Errorf("malformed asset: %w", ErrInvalidInput)
	ErrUnsupportedHeatmap = fmt.Errorf("heatmap kind: %w", ErrUnsupported)
	ErrDuplicateLayer     = fmt.Errorf("duplicate layer name: %w", ErrInvalidInput)
	ErrNotReady           = fmt.Errorf("service not ready: %w", ErrUnavailable)
	ErrStorageUnavailable = fmt.Errorf("storage: %w", ErrUnavailable)
	ErrUpstream           = fmt.Errorf("upstream api: %w", ErrUnavailable)
)

// ValidationError represents a detailed validation error.
type ValidationError struct {
	Field      string      // Field that failed validation
	Value      interface{} // The invalid value
	Constraint string      // The constraint that was violated
	Message    string      // Human-readable message
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error for %s: %s (value: %v, constraint: %s)",
		e.Field, e.Message, e.Value, e.Constraint)
}

// Unwrap returns the underlying error type.
func (e *ValidationError) Unwrap() error {
	return ErrInvalidInput
}

// LayerError represents a failure while loading a single layer.
type LayerError struct {
	Layer  string // Layer name
	Source string // Asset key
	Err    error  // Underlying error
}

// Error implements the error interface.
func (e *LayerError) Error() string {
	return fmt.Sprintf("%s: %v", e.Layer, e.Err)
}

// Unwrap returns the underlying error.
func (e *LayerError) Unwrap() error {
	return e.Err
}

// StorageError represents an error during storage operations.
type StorageError struct {
	Operation string // Operation that failed (download, list, etc.)
	Key       string // Object key
	Err       error  // Underlying error
}

// Error implements the error interface.
func (e *StorageError) Error() string {
	if e.Key != "" {
		return fmt.Sprintf("storage error during %s for %s: %v",
			e.Operation, e.Key, e.Err)
	}
	return fmt.Sprintf("storage error during %s: %v", e.Operation, e.Err)
}

// Unwrap returns the underlying error.
func (e *StorageError) Unwrap() error {
	return e.Err
}

// DecodeError represents a malformed layer asset.
type DecodeError struct {
	Format LayerFormat // Asset format
	Key    string      // Asset key
	Err    error       // Underlying error
}

// Error implements the error interface.
func (e *DecodeError) Error() string {
	return fmt.Sprintf("decoding %s %s: %v", e.Format, e.Key, e.Err)
}

// Unwrap returns ErrDecode and the underlying error.
func (e *DecodeError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrDecode}
	}
	return []error{ErrDecode, e.Err}
}

// UpstreamError represents a failed call to the environmental REST API.
type UpstreamError struct {
	Endpoint   string // Request path
	StatusCode int    // HTTP status, zero on transport failure
	Err        error  // Underlying error
}

// Error implements the error interface.
func (e *UpstreamError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("upstream %s returned status %d", e.Endpoint, e.StatusCode)
	}
	return fmt.Sprintf("upstream %s: %v", e.Endpoint, e.Err)
}

// Unwrap returns ErrUpstream so callers can detect API failures generically.
func (e *UpstreamError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrUpstream}
	}
	return []error{ErrUpstream, e.Err}
}

// ConfigError represents a configuration error.
type ConfigError struct {
	Field   string // Configuration field
	Message string // Error message
}

// Error implements the error interface.
func (e *ConfigError) Error() string {
	return fmt.Sprintf("configuration error for %s: %s", e.Field, e.Message)
}

// Unwrap returns the underlying error type.
func (e *ConfigError) Unwrap() error {
	return ErrInvalidInput
}
