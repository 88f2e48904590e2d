// Package assets embeds the web interface templates and stylesheet.
package assets

import "embed"

//go:embed templates/*.html
var TemplateFS embed.FS

//go:embed static/*
var StaticFS embed.FS
