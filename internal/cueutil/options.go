// SPDX-License-Identifier: MPL-2.0

// Package cueutil validates JSON or CUE documents against an embedded CUE
// schema and decodes them into Go structs, reporting failures with JSON-path
// prefixes (e.g. "layers[2].simplifications[0].level").
package cueutil

// DefaultMaxFileSize is the default maximum document size (5MB).
// Layer lists are small; anything larger is almost certainly the wrong file.
const DefaultMaxFileSize int64 = 5 * 1024 * 1024

type (
	// decodeOptions holds configuration for Decode.
	decodeOptions struct {
		maxFileSize int64
		filename    string
	}

	// Option configures decoding behavior.
	Option func(*decodeOptions)
)

func defaultOptions() decodeOptions {
	return decodeOptions{
		maxFileSize: DefaultMaxFileSize,
		filename:    "<input>",
	}
}

// WithMaxFileSize sets the maximum allowed document size.
func WithMaxFileSize(size int64) Option {
	return func(o *decodeOptions) {
		o.maxFileSize = size
	}
}

// WithFilename sets the filename used in error messages.
func WithFilename(name string) Option {
	return func(o *decodeOptions) {
		if name != "" {
			o.filename = name
		}
	}
}
