// SPDX-License-Identifier: MPL-2.0

package issue

import "errors"

// Error kinds. Stages wrap their failures with one of these so callers can
// classify them with errors.Is without depending on stage internals.
var (
	// ErrConfiguration marks a missing or malformed configuration document or a
	// missing required tool. It aborts the whole run.
	ErrConfiguration = errors.New("configuration error")

	// ErrResolution marks a layer whose URLs or file names cannot be derived
	// from its configuration. It fails that layer only.
	ErrResolution = errors.New("resolution error")

	// ErrNetwork marks a download failure (transport error or non-200 status).
	ErrNetwork = errors.New("network error")

	// ErrExtraction marks a non-zero archiver exit.
	ErrExtraction = errors.New("extraction error")

	// ErrLocate marks a geometry file missing from an extracted tree.
	ErrLocate = errors.New("locate error")

	// ErrToolInvocation marks a geometry tool failure. It fails one
	// simplification profile only.
	ErrToolInvocation = errors.New("tool invocation error")
)

// IsFatal reports whether err must abort the whole run instead of being
// logged and skipped.
func IsFatal(err error) bool {
	return errors.Is(err, ErrConfiguration)
}
