// Package web holds the page templates and static assets, embedded so the
// binary serves the expense page without files on disk.
package web

import "embed"

// TemplatesFS embeds the page and its HTMX fragments.
//
//go:embed templates/*.html
var TemplatesFS embed.FS

// StaticFS embeds the stylesheet, the page script and the category icons.
//
//go:embed static
var StaticFS embed.FS
