package domain

import "html/template"

// Post is a rendered blog article.
type Post struct {
	Slug  string
	Title string
	Body  template.HTML
}
