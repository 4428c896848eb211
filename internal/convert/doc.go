// SPDX-License-Identifier: MPL-2.0

// Package convert turns the shapefile of each layer into one GeoJSON and one
// TopoJSON file per simplification profile.
//
// BuildPlan is pure and shared with the plan command, which prints the
// commands a conversion would run. Stage executes a plan through a
// GeometryTool, normally *mapshaper.Tool. A failed profile is reported and
// the next profile of the same layer still runs.
package convert
