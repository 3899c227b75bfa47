// Package web carries the embedded presentation page served at /.
package web

import _ "embed"

//go:embed index.html
var IndexHTML []byte
