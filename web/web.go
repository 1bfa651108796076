// Package web embeds the HTML templates for the three views.
package web

import "embed"

//go:embed templates/*.html
var TemplateFiles embed.FS
