// Package source loads the text to narrate from files or standard input.
package source

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/mitchellh/go-homedir"
)

// ErrEmptyPath is returned when no path was given.
var ErrEmptyPath = errors.New("no source path given")

var frontmatter = regexp.MustCompile(`\A---\r?\n(?s:.*?)\r?\n---\r?\n`)

var markdownExtensions = []string{".md", ".mdown", ".mkdn", ".mkd", ".markdown"}

// Source is loaded narration text.
type Source struct {
	// Path is the absolute file path, empty for stdin.
	Path string
	// Text is the narration text, converted from Markdown when applicable.
	Text string
	// Markdown reports whether Text was converted.
	Markdown bool
}

// Options controls how a source is interpreted.
type Options struct {
	// Plain disables Markdown conversion even for .md files.
	Plain bool
	// Markdown forces conversion regardless of the file extension.
	Markdown bool
}

// Load reads arg, which is a file path or "-" for stdin.
func Load(arg string, stdin io.Reader, opts Options) (*Source, error) {
	if arg == "" {
		return nil, ErrEmptyPath
	}

	if arg == "-" {
		b, err := io.ReadAll(stdin)
		if err != nil {
			return nil, fmt.Errorf("unable to read stdin: %w", err)
		}
		return FromBytes("", b, opts), nil
	}

	path, err := ExpandPath(arg)
	if err != nil {
		return nil, err
	}

	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("unable to open file: %w", err)
	}

	return FromBytes(path, b, opts), nil
}

// FromBytes builds a Source from raw file contents.
func FromBytes(path string, b []byte, opts Options) *Source {
	markdown := !opts.Plain && (opts.Markdown || IsMarkdownFile(path))

	src := &Source{Path: path, Markdown: markdown}
	if markdown {
		src.Text = PlainText(RemoveFrontmatter(b))
	} else {
		src.Text = strings.TrimSpace(string(b))
	}
	return src
}

// ExpandPath resolves ~ and environment variables and returns an absolute
// path.
func ExpandPath(path string) (string, error) {
	expanded, err := homedir.Expand(os.ExpandEnv(path))
	if err != nil {
		return "", fmt.Errorf("unable to expand path: %w", err)
	}
	abs, err := filepath.Abs(expanded)
	if err != nil {
		return "", fmt.Errorf("unable to get absolute path: %w", err)
	}
	return abs, nil
}

// IsMarkdownFile reports whether the file extension denotes Markdown.
func IsMarkdownFile(filename string) bool {
	ext := strings.ToLower(filepath.Ext(filename))
	for _, v := range markdownExtensions {
		if ext == v {
			return true
		}
	}
	return false
}

// RemoveFrontmatter strips a leading YAML front matter block.
func RemoveFrontmatter(content []byte) []byte {
	if loc := frontmatter.FindIndex(content); loc != nil {
		return content[loc[1]:]
	}
	return content
}
