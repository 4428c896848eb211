// SPDX-License-Identifier: MPL-2.0

package testutil

import (
	"fmt"
	"strings"
	"sync"

	"github.com/decoupage/decoupage/internal/report"
)

type (
	// Event is one line a Reporter was asked to print.
	Event struct {
		// Kind is "section", "step", "success", "skip", "warn" or "failure".
		Kind    string
		Message string
	}

	// Reporter records events instead of printing them.
	Reporter struct {
		mu        sync.Mutex
		events    []Event
		summaries []report.Summary
	}
)

var _ report.Reporter = (*Reporter)(nil)

// NewReporter creates an empty recording reporter.
func NewReporter() *Reporter {
	return &Reporter{}
}

func (r *Reporter) record(kind, format string, args ...any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, Event{Kind: kind, Message: fmt.Sprintf(format, args...)})
}

// Section implements report.Reporter.
func (r *Reporter) Section(title string) { r.record("section", "%s", title) }

// Step implements report.Reporter.
func (r *Reporter) Step(format string, args ...any) { r.record("step", format, args...) }

// Success implements report.Reporter.
func (r *Reporter) Success(format string, args ...any) { r.record("success", format, args...) }

// Skip implements report.Reporter.
func (r *Reporter) Skip(format string, args ...any) { r.record("skip", format, args...) }

// Warn implements report.Reporter.
func (r *Reporter) Warn(format string, args ...any) { r.record("warn", format, args...) }

// Failure implements report.Reporter.
func (r *Reporter) Failure(format string, args ...any) { r.record("failure", format, args...) }

// Summary implements report.Reporter.
func (r *Reporter) Summary(s report.Summary) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.summaries = append(r.summaries, s)
}

// Events returns a copy of the recorded events.
func (r *Reporter) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Event, len(r.events))
	copy(out, r.events)
	return out
}

// Messages returns the messages of every event of the given kind.
func (r *Reporter) Messages(kind string) []string {
	var out []string
	for _, e := range r.Events() {
		if e.Kind == kind {
			out = append(out, e.Message)
		}
	}
	return out
}

// Contains reports whether an event of the given kind contains substr.
func (r *Reporter) Contains(kind, substr string) bool {
	for _, m := range r.Messages(kind) {
		if strings.Contains(m, substr) {
			return true
		}
	}
	return false
}

// Summaries returns the recorded summaries.
func (r *Reporter) Summaries() []report.Summary {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]report.Summary, len(r.summaries))
	copy(out, r.summaries)
	return out
}
