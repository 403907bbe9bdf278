package markdown

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		content string
		valid   bool
	}{
		{"valid document", "# Title\n\nSome **bold** text\n\n- item", true},
		{"empty content", "   \n\t", false},
		{"unclosed code block", "# Title\n\n```go\nfunc main() {}", false},
		{"unclosed link bracket", "# Title\n\n[link without close", false},
		{"no formatting at all", "just a plain sentence without anything", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			valid, errs := Validate(tt.content)
			assert.Equal(t, tt.valid, valid)
			if !tt.valid {
				assert.NotEmpty(t, errs)
			}
		})
	}
}

func TestExtractTitle(t *testing.T) {
	assert.Equal(t, "Redis Caching", ExtractTitle("# Redis Caching\n\nbody", "notes.md"))
	assert.Equal(t, "My Caching Notes", ExtractTitle("no heading here", "my-caching_notes.md"))
	assert.Equal(t, "Untitled", ExtractTitle("no heading here", ""))

	// H1 берётся раньше имени файла, даже если он не первой строкой
	assert.Equal(t, "Later Title", ExtractTitle("intro text\n# Later Title\nbody", "fallback.md"))
}

func TestExcerpt(t *testing.T) {
	t.Run("short paragraph returned whole", func(t *testing.T) {
		assert.Equal(t, "Short intro.", Excerpt("Short intro.\n\nSecond paragraph.", 150))
	})

	t.Run("long paragraph cut on word boundary", func(t *testing.T) {
		long := strings.Repeat("word ", 100)
		got := Excerpt(long, 150)
		assert.LessOrEqual(t, len(got), 154)
		assert.True(t, strings.HasSuffix(got, "..."))
	})

	t.Run("markdown formatting stripped", func(t *testing.T) {
		got := Excerpt("# Heading\n\n**Bold** start of text", 150)
		assert.NotContains(t, got, "#")
		assert.NotContains(t, got, "*")
	})
}

func TestReadTime(t *testing.T) {
	assert.Equal(t, "1 min read", ReadTime("a few words only"))
	assert.Equal(t, "2 min read", ReadTime(strings.Repeat("word ", 400)))
}

func TestHasStructure(t *testing.T) {
	assert.True(t, HasStructure("# Heading\ntext"))
	assert.True(t, HasStructure("para one\n\npara two"))
	assert.False(t, HasStructure("single flat line"))
}
