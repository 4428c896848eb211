// SPDX-License-Identifier: MPL-2.0

// Package config loads the layer configuration document and the runtime
// settings of a decoupage run.
//
// The document (config.json by default, JSON or CUE) is unified with an
// embedded CUE schema (config_schema.cue) that checks field types only, then
// decoded into Config. Relative directories resolve against the document's
// directory. Per-layer fields such as source URLs are validated lazily by the
// stage that needs them, through the resolution helpers on Layer and Profile.
//
// Runtime settings (tool binaries, timeouts, strict mode) are not part of the
// document. They come from Viper, bound to command-line flags, DECOUPAGE_*
// environment variables and an optional .env file.
package config
