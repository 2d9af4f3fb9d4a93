package server

import (
	"embed"
	"io/fs"
)

//go:embed static
var staticFS embed.FS

var staticAssets = func() fs.FS {
	sub, err := fs.Sub(staticFS, "static")
	if err != nil {
		panic(err)
	}
	return sub
}()
