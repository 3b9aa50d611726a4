package web

import "embed"

// TemplatesFS holds the HTML project list and budget partial.
//
//go:embed templates/*.html
var TemplatesFS embed.FS

// StaticFS holds the stylesheet and the script that loads budget partials.
//
//go:embed static/*
var StaticFS embed.FS
