package content

import (
	"io/fs"
	"testing"
)

func TestPosts_AllFeatureArticlesPresent(t *testing.T) {
	want := []string{
		"quality-content", "interactive-learning", "track-progress",
		"flexible-scheduling", "community-forum", "official-certification",
	}
	for _, slug := range want {
		if _, err := fs.Stat(Posts(), slug+".md"); err != nil {
			t.Fatalf("missing post %s: %v", slug, err)
		}
	}
}
