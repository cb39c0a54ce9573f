package web

import (
	"embed"
	"io/fs"
	"log/slog"
)

//go:embed static
var staticFiles embed.FS

// StaticFS is the embedded front end with the "static/" prefix stripped.
var StaticFS fs.FS

func init() {
	var err error

	StaticFS, err = fs.Sub(staticFiles, "static")
	if err != nil {
		slog.Error("web: failed to create static FS", "err", err)
		panic(err)
	}
}
