// SPDX-License-Identifier: MPL-2.0

package issue

import (
	"strings"

	"github.com/charmbracelet/glamour"
	"golang.org/x/exp/slices"
)

const (
	ConfigNotFoundId Id = iota + 1
	ConfigParseErrorId
	GeometryToolNotFoundId
	ArchiverNotFoundId
	LayerNotFoundId
	DownloadFailedId
	ExtractionFailedId
	ShapefileNotFoundId
	ToolInvocationFailedId
)

type (
	Id int

	MarkdownMsg string

	HttpLink string

	Issue struct {
		id       Id          // ID used to lookup the issue
		mdMsg    MarkdownMsg // Markdown text that will be rendered
		extLinks []HttpLink  // external links that might be useful for the user
	}
)

func (i *Issue) Id() Id {
	return i.id
}

func (i *Issue) MarkdownMsg() MarkdownMsg {
	return i.mdMsg
}

func (i *Issue) ExtLinks() []HttpLink {
	return slices.Clone(i.extLinks)
}

// Render renders the issue page with the given glamour style ("dark",
// "light", "notty", ...).
func (i *Issue) Render(stylePath string) (string, error) {
	var md strings.Builder
	md.WriteString(string(i.mdMsg))
	if len(i.extLinks) > 0 {
		md.WriteString("\n\n## See also\n")
		for _, link := range i.extLinks {
			md.WriteString("- <" + string(link) + ">\n")
		}
	}
	return render(md.String(), stylePath)
}

var (
	render = glamour.Render

	configNotFoundIssue = &Issue{
		id: ConfigNotFoundId,
		mdMsg: `
# No layer configuration found!

decoupage reads its layer list from a JSON (or CUE) document, ` + "`config.json`" + ` in the
current directory by default.

## Things you can try:
- Run the command from the directory holding ` + "`config.json`" + `
- Point to the document explicitly:
~~~
$ decoupage convert --config path/to/config.json
~~~
- Or set it once in the environment:
~~~
$ export DECOUPAGE_CONFIG=path/to/config.json
~~~`,
	}

	configParseErrorIssue = &Issue{
		id: ConfigParseErrorId,
		mdMsg: `
# The layer configuration could not be parsed!

The document is either not valid JSON/CUE or does not match the expected shape.

## Expected shape:
~~~json
{
  "directories": {"sources": "sources", "geojson": "geojson", "topojson": "topojson"},
  "options": {"snap": true, "method": "visvalingam", "keepShapes": true},
  "layers": [
    {
      "name": "regions",
      "enabled": true,
      "source": {"urls": ["https://..."], "archive": true, "shapefile": "REGION.shp"},
      "projection": "wgs84",
      "simplifications": [{"level": 100, "suffix": ""}]
    }
  ]
}
~~~

## Things you can try:
- Check the field reported in the error message
- Validate the JSON syntax (trailing commas, quotes)`,
	}

	geometryToolNotFoundIssue = &Issue{
		id: GeometryToolNotFoundId,
		mdMsg: `
# mapshaper is not installed!

The convert stage runs ` + "`mapshaper`" + ` to reproject, simplify and encode every layer.

## Things you can try:
- Install it with npm:
~~~
$ npm install -g mapshaper
~~~
- Or point decoupage to an existing binary:
~~~
$ decoupage convert --mapshaper /path/to/mapshaper
~~~`,
		extLinks: []HttpLink{"https://github.com/mbloch/mapshaper"},
	}

	archiverNotFoundIssue = &Issue{
		id: ArchiverNotFoundId,
		mdMsg: `
# 7z is not installed!

IGN publishes ADMIN EXPRESS as 7z archives; the fetch stage extracts them with ` + "`7z`" + `.

## Things you can try:
- Install p7zip (` + "`apt install p7zip-full`" + `, ` + "`brew install p7zip`" + `)
- Or point decoupage to an existing binary:
~~~
$ decoupage fetch --archiver /path/to/7z
~~~`,
	}

	layerNotFoundIssue = &Issue{
		id: LayerNotFoundId,
		mdMsg: `
# Unknown layer!

The layer passed with ` + "`--layer`" + ` is not declared in the configuration.

## Things you can try:
- List the declared layers:
~~~
$ decoupage layers
~~~`,
	}

	downloadFailedIssue = &Issue{
		id: DownloadFailedId,
		mdMsg: `
# Download failed!

Every mirror configured for the layer was tried and none returned the archive.

## Things you can try:
- Check your network connection and proxy settings
- Open the URLs in a browser; IGN regularly moves archives between releases
- Add another mirror to the layer's ` + "`source.urls`" + ` list`,
	}

	extractionFailedIssue = &Issue{
		id: ExtractionFailedId,
		mdMsg: `
# Extraction failed!

The archiver exited with an error. The partially extracted directory was removed
so the next run retries.

## Things you can try:
- Delete the downloaded archive if it is truncated and fetch again
- Check free disk space in the sources directory`,
	}

	shapefileNotFoundIssue = &Issue{
		id: ShapefileNotFoundId,
		mdMsg: `
# Geometry file not found!

The extracted tree of the layer does not contain the configured ` + "`source.shapefile`" + `.

## Things you can try:
- Run ` + "`decoupage fetch`" + ` first
- Check the file name against the archive contents (names are case sensitive)`,
	}

	toolInvocationFailedIssue = &Issue{
		id: ToolInvocationFailedId,
		mdMsg: `
# mapshaper failed!

The geometry tool exited with an error for one simplification profile; the other
profiles were still processed.

## Things you can try:
- Re-run with ` + "`--verbose`" + ` to see the exact command line
- Print the planned commands without running them:
~~~
$ decoupage plan --layer <name>
~~~`,
	}

	issues = map[Id]*Issue{
		configNotFoundIssue.Id():       configNotFoundIssue,
		configParseErrorIssue.Id():     configParseErrorIssue,
		geometryToolNotFoundIssue.Id(): geometryToolNotFoundIssue,
		archiverNotFoundIssue.Id():     archiverNotFoundIssue,
		layerNotFoundIssue.Id():        layerNotFoundIssue,
		downloadFailedIssue.Id():       downloadFailedIssue,
		extractionFailedIssue.Id():     extractionFailedIssue,
		shapefileNotFoundIssue.Id():    shapefileNotFoundIssue,
		toolInvocationFailedIssue.Id(): toolInvocationFailedIssue,
	}
)

// Values returns every catalog page ordered by id.
func Values() []*Issue {
	all := make([]*Issue, 0, len(issues))
	for _, is := range issues {
		all = append(all, is)
	}
	slices.SortFunc(all, func(a, b *Issue) int { return int(a.id) - int(b.id) })
	return all
}

func Get(id Id) *Issue {
	return issues[id]
}
