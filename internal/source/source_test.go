package source

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/mitchellh/go-homedir"
)

func TestPlainText(t *testing.T) {
	tests := []struct {
		name     string
		markdown string
		expected string
	}{
		{
			name:     "heading ends sentence",
			markdown: "# Title\n\nSome text here.",
			expected: "Title.\n\nSome text here.",
		},
		{
			name:     "heading keeps punctuation",
			markdown: "## Ready?\n",
			expected: "Ready?",
		},
		{
			name:     "code block skipped",
			markdown: "Before.\n\n```go\nfmt.Println()\n```\n\nAfter.",
			expected: "Before.\n\nAfter.",
		},
		{
			name:     "inline code kept",
			markdown: "Run `make` now.",
			expected: "Run make now.",
		},
		{
			name:     "link text only",
			markdown: "See [the docs](https://example.com) today.",
			expected: "See the docs today.",
		},
		{
			name:     "emphasis flattened",
			markdown: "This is **bold** and *soft*.",
			expected: "This is bold and soft.",
		},
		{
			name:     "list items end sentences",
			markdown: "- one\n- two\n",
			expected: "one. two.",
		},
		{
			name:     "soft breaks joined",
			markdown: "first line\nsecond line",
			expected: "first line second line",
		},
		{
			name:     "html dropped",
			markdown: "<div>hidden</div>\n\nShown.",
			expected: "Shown.",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := PlainText([]byte(tt.markdown))
			if got != tt.expected {
				t.Errorf("PlainText() = %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestRemoveFrontmatter(t *testing.T) {
	in := "---\ntitle: x\ntags: [a]\n---\n# Body\n"
	if got := string(RemoveFrontmatter([]byte(in))); got != "# Body\n" {
		t.Errorf("RemoveFrontmatter() = %q", got)
	}

	plain := "no front matter\n---\n"
	if got := string(RemoveFrontmatter([]byte(plain))); got != plain {
		t.Errorf("RemoveFrontmatter() changed %q to %q", plain, got)
	}
}

func TestIsMarkdownFile(t *testing.T) {
	tests := map[string]bool{
		"README.md":      true,
		"notes.MARKDOWN": true,
		"a.mkd":          true,
		"story.txt":      false,
		"":               false,
	}
	for name, want := range tests {
		if got := IsMarkdownFile(name); got != want {
			t.Errorf("IsMarkdownFile(%q) = %v, want %v", name, got, want)
		}
	}
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()
	md := filepath.Join(dir, "doc.md")
	txt := filepath.Join(dir, "doc.txt")
	if err := os.WriteFile(md, []byte("# Hi\n\n`x`"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(txt, []byte("  # Hi  \n"), 0o644); err != nil {
		t.Fatal(err)
	}

	src, err := Load(md, nil, Options{})
	if err != nil {
		t.Fatalf("Load(md) error = %v", err)
	}
	if !src.Markdown || src.Text != "Hi.\n\nx" || src.Path != md {
		t.Errorf("Load(md) = %+v", src)
	}

	src, err = Load(md, nil, Options{Plain: true})
	if err != nil {
		t.Fatal(err)
	}
	if src.Markdown || !strings.HasPrefix(src.Text, "# Hi") {
		t.Errorf("Load(md, Plain) = %+v", src)
	}

	src, err = Load(txt, nil, Options{})
	if err != nil {
		t.Fatal(err)
	}
	if src.Markdown || src.Text != "# Hi" {
		t.Errorf("Load(txt) = %+v", src)
	}

	src, err = Load(txt, nil, Options{Markdown: true})
	if err != nil {
		t.Fatal(err)
	}
	if src.Text != "Hi." {
		t.Errorf("Load(txt, Markdown) = %+v", src)
	}
}

func TestLoadStdin(t *testing.T) {
	src, err := Load("-", strings.NewReader("hello world\n"), Options{})
	if err != nil {
		t.Fatal(err)
	}
	if src.Path != "" || src.Text != "hello world" {
		t.Errorf("Load(-) = %+v", src)
	}
}

func TestLoadErrors(t *testing.T) {
	if _, err := Load("", nil, Options{}); err != ErrEmptyPath {
		t.Errorf("Load(\"\") error = %v, want ErrEmptyPath", err)
	}
	if _, err := Load(filepath.Join(t.TempDir(), "missing.md"), nil, Options{}); err == nil {
		t.Error("Load(missing) expected error")
	}
}

func TestExpandPath(t *testing.T) {
	homedir.DisableCache = true
	t.Setenv("HOME", "/home/tester")
	t.Setenv("NARRATE_TEST_DIR", "docs")

	got, err := ExpandPath("~/$NARRATE_TEST_DIR/a.md")
	if err != nil {
		t.Fatal(err)
	}
	if got != "/home/tester/docs/a.md" {
		t.Errorf("ExpandPath() = %q", got)
	}
}
