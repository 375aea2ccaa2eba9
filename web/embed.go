// Package web embeds the site's themes so the binary is self-contained.
package web

import "embed"

// FS holds themes/<name>/{layout.html,partials,pages,assets}.
//
//go:embed themes
var FS embed.FS

// ThemesDir is the root of the theme tree inside FS.
const ThemesDir = "themes"
