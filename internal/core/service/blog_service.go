package service

import (
	"bytes"
	"fmt"
	"html/template"
	"io/fs"
	"path"
	"sort"
	"strings"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"

	"github.com/oracadehub/learning-portal/internal/core/domain"
)

// BlogService serves the static blog articles. Articles are markdown files
// named <slug>.md whose first line is "# <title>"; they are rendered once at
// construction.
type BlogService struct {
	posts map[string]domain.Post
	slugs []string
}

func NewBlogService(fsys fs.FS) (*BlogService, error) {
	md := goldmark.New(goldmark.WithExtensions(extension.GFM))
	policy := bluemonday.UGCPolicy()

	files, err := fs.Glob(fsys, "*.md")
	if err != nil {
		return nil, fmt.Errorf("list posts: %w", err)
	}

	s := &BlogService{posts: make(map[string]domain.Post, len(files))}
	for _, name := range files {
		raw, err := fs.ReadFile(fsys, name)
		if err != nil {
			return nil, fmt.Errorf("read post %s: %w", name, err)
		}

		title, body := splitTitle(string(raw))
		if title == "" {
			return nil, fmt.Errorf("post %s: missing title heading", name)
		}

		var buf bytes.Buffer
		if err := md.Convert([]byte(body), &buf); err != nil {
			return nil, fmt.Errorf("render post %s: %w", name, err)
		}

		slug := strings.TrimSuffix(path.Base(name), ".md")
		s.posts[slug] = domain.Post{
			Slug:  slug,
			Title: title,
			Body:  template.HTML(policy.SanitizeBytes(buf.Bytes())),
		}
		s.slugs = append(s.slugs, slug)
	}
	sort.Strings(s.slugs)
	return s, nil
}

// Get returns the post for slug or domain.ErrPostNotFound.
func (s *BlogService) Get(slug string) (domain.Post, error) {
	p, ok := s.posts[slug]
	if !ok {
		return domain.Post{}, domain.ErrPostNotFound
	}
	return p, nil
}

// List returns every post ordered by slug.
func (s *BlogService) List() []domain.Post {
	out := make([]domain.Post, 0, len(s.slugs))
	for _, slug := range s.slugs {
		out = append(out, s.posts[slug])
	}
	return out
}

func splitTitle(src string) (title, body string) {
	src = strings.TrimLeft(src, "\n")
	line, rest, _ := strings.Cut(src, "\n")
	if !strings.HasPrefix(line, "# ") {
		return "", src
	}
	return strings.TrimSpace(strings.TrimPrefix(line, "# ")), rest
}
