// Package render draws link charts.
//
// The primary output is SVG with a real text layer, so that downstream PDF
// conversion preserves selectable text. Conversion to PDF and PNG shells
// out to rsvg-convert; DOT output and force-directed position seeding go
// through Graphviz.
package render
