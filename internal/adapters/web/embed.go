// Package web serves the storage diagnostic panel over HTTP: an embedded
// page plus a small JSON API. Binds to localhost only, no network exposure,
// no auth needed. Mutating endpoints are additionally gated on dev tools.
package web

import "embed"

//go:embed static/index.html
var staticFS embed.FS
