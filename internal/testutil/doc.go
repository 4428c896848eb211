// SPDX-License-Identifier: MPL-2.0

// Package testutil provides helpers shared by package tests: filesystem
// helpers that fail the test on error, a subprocess recorder built on the
// TestHelperProcess pattern, and a Reporter that records what the pipeline
// printed.
//
// A package that injects MockCommandRecorder.CommandFunc must declare the
// helper entry point once in its tests:
//
//	func TestHelperProcess(t *testing.T) {
//		testutil.RunHelperProcess()
//	}
package testutil
