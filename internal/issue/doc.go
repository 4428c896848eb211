// SPDX-License-Identifier: MPL-2.0

// Package issue provides actionable error handling with user-friendly messages.
//
// ActionableError carries the failed operation, the resource involved, remediation
// hints and the underlying cause. Errors are classified by kind (configuration,
// resolution, network, extraction, locate, tool invocation) through sentinel
// errors so that the pipeline can decide whether a failure aborts the whole run
// or only the current layer or profile.
//
// The package also holds a catalog of Markdown issue pages rendered with glamour
// when a fatal error reaches the CLI.
package issue
