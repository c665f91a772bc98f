package web

import (
	"embed"
	"io/fs"
)

var (
	//go:embed static
	embeddedStaticFiles embed.FS

	//go:embed templates
	embeddedTemplates embed.FS
)

// subFS strips the top directory of an embedded tree. dir is a constant
// below the embed root, so fs.Sub can not fail.
func subFS(root embed.FS, dir string) fs.FS {
	sub, err := fs.Sub(root, dir)
	if err != nil {
		panic(err)
	}

	return sub
}
