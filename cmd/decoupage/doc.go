// SPDX-License-Identifier: MPL-2.0

// Package cmd contains all CLI commands for decoupage.
//
// This package implements the Cobra command hierarchy: fetch and convert run
// the two pipeline stages, plan prints the conversion commands without
// running them, and layers and config inspect the configuration.
package cmd
