// SPDX-License-Identifier: MPL-2.0

package issue

import (
	"errors"
	"strings"
	"testing"
)

func TestId_Constants(t *testing.T) {
	t.Parallel()

	if ConfigNotFoundId != 1 {
		t.Errorf("ConfigNotFoundId = %d, want 1", ConfigNotFoundId)
	}

	seen := make(map[Id]bool)
	for _, is := range Values() {
		if seen[is.Id()] {
			t.Errorf("duplicate ID: %d", is.Id())
		}
		seen[is.Id()] = true
	}
}

func TestValues_Ordered(t *testing.T) {
	t.Parallel()

	all := Values()
	if len(all) != len(issues) {
		t.Fatalf("Values() returned %d issues, want %d", len(all), len(issues))
	}
	for i := 1; i < len(all); i++ {
		if all[i-1].Id() >= all[i].Id() {
			t.Errorf("Values() not sorted at %d: %d >= %d", i, all[i-1].Id(), all[i].Id())
		}
	}
}

func TestGet(t *testing.T) {
	t.Parallel()

	is := Get(GeometryToolNotFoundId)
	if is == nil {
		t.Fatal("Get(GeometryToolNotFoundId) returned nil")
	}
	if !strings.Contains(string(is.MarkdownMsg()), "mapshaper") {
		t.Error("geometry tool page should mention mapshaper")
	}
	if Get(Id(999)) != nil {
		t.Error("Get(999) should return nil")
	}
}

func TestIssue_ExtLinksAreCloned(t *testing.T) {
	t.Parallel()

	is := Get(GeometryToolNotFoundId)
	links := is.ExtLinks()
	if len(links) == 0 {
		t.Fatal("expected at least one external link")
	}
	links[0] = "mutated"
	if is.ExtLinks()[0] == "mutated" {
		t.Error("ExtLinks() must return a copy")
	}
}

func TestIssue_Render(t *testing.T) {
	original := render
	defer func() { render = original }()

	var gotStyle, gotMarkdown string
	render = func(in, stylePath string) (string, error) {
		gotMarkdown = in
		gotStyle = stylePath
		return "rendered", nil
	}

	out, err := Get(GeometryToolNotFoundId).Render("notty")
	if err != nil {
		t.Fatalf("Render() error: %v", err)
	}
	if out != "rendered" || gotStyle != "notty" {
		t.Errorf("Render() = %q with style %q", out, gotStyle)
	}
	if !strings.Contains(gotMarkdown, "## See also") {
		t.Error("pages with links should get a See also section")
	}

	render = func(string, string) (string, error) { return "", errors.New("boom") }
	if _, err := Get(LayerNotFoundId).Render("dark"); err == nil {
		t.Error("Render() should propagate renderer errors")
	}
}

func TestAllIssuesAreRenderable(t *testing.T) {
	t.Parallel()

	for _, is := range Values() {
		if strings.TrimSpace(string(is.MarkdownMsg())) == "" {
			t.Errorf("issue %d has no content", is.Id())
			continue
		}
		if _, err := is.Render("notty"); err != nil {
			t.Errorf("issue %d failed to render: %v", is.Id(), err)
		}
	}
}
