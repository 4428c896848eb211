// SPDX-License-Identifier: MPL-2.0

// Package fetch downloads layer archives with mirror fallback and extracts
// them into per-layer source directories.
//
// Candidate URLs are tried in order and the first success wins; when every
// mirror fails the layer fails with the last error. Presence on disk is the
// cache: an existing archive skips the download and an existing extraction
// directory skips the archiver.
package fetch
