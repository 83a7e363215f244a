// Package static embeds the portal stylesheet.
package static

import "embed"

//go:embed *.css
var FS embed.FS
