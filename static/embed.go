package staticfiles

import (
	"embed"
	"io/fs"
)

//go:embed index.html css/* js/*
var embedded embed.FS

func EmbeddedFS() fs.FS {
	return embedded
}

func IndexHTML() ([]byte, error) {
	return embedded.ReadFile("index.html")
}
