// Package static embeds the dashboard page.
package static

import (
	_ "embed"
)

//go:embed index.html
var indexHTML []byte

// Index returns the dashboard page.
func Index() []byte {
	return indexHTML
}
