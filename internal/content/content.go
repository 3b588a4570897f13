// Package content embeds the portal's static blog articles.
package content

import (
	"embed"
	"io/fs"
)

//go:embed posts/*.md
var posts embed.FS

// Posts returns the article files, one <slug>.md per post.
func Posts() fs.FS {
	sub, err := fs.Sub(posts, "posts")
	if err != nil {
		panic(err)
	}
	return sub
}
