// Package content turns markdown blog posts into HTML for the public site.
package content

import (
	"bytes"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/diagnosis/concierge/internal/domain"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	goldmarkHTML "github.com/yuin/goldmark/renderer/html"
	"github.com/yuin/goldmark/text"
)

const (
	excerptRunes   = 180
	wordsPerMinute = 200
)

// Post is a blog with its rendered body.
type Post struct {
	domain.Blog
	HTML           string `json:"html"`
	ReadingMinutes int    `json:"reading_minutes"`
}

// Renderer converts blog markdown. Raw HTML in the source is escaped.
type Renderer struct {
	md goldmark.Markdown
}

func NewRenderer() *Renderer {
	return &Renderer{
		md: goldmark.New(
			goldmark.WithExtensions(extension.GFM),
			goldmark.WithRendererOptions(
				goldmarkHTML.WithHardWraps(),
			),
		),
	}
}

func (r *Renderer) Render(b domain.Blog) (Post, error) {
	src := []byte(b.Content)

	var buf bytes.Buffer
	if err := r.md.Convert(src, &buf); err != nil {
		return Post{}, fmt.Errorf("failed to render blog %s: %w", b.Slug, err)
	}

	plain := r.PlainText(src)
	if b.Excerpt == "" {
		b.Excerpt = Excerpt(plain, excerptRunes)
	}

	return Post{
		Blog:           b,
		HTML:           buf.String(),
		ReadingMinutes: ReadingMinutes(plain),
	}, nil
}

// Summaries renders list entries without their bodies.
func (r *Renderer) Summaries(blogs []domain.Blog) []Post {
	out := make([]Post, 0, len(blogs))
	for _, b := range blogs {
		plain := r.PlainText([]byte(b.Content))
		if b.Excerpt == "" {
			b.Excerpt = Excerpt(plain, excerptRunes)
		}
		b.Content = ""
		out = append(out, Post{Blog: b, ReadingMinutes: ReadingMinutes(plain)})
	}
	return out
}

// PlainText strips markdown syntax, keeping the words a reader sees.
// Code blocks are dropped.
func (r *Renderer) PlainText(src []byte) string {
	doc := r.md.Parser().Parse(text.NewReader(src))

	var sb strings.Builder
	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		switch node := n.(type) {
		case *ast.FencedCodeBlock, *ast.CodeBlock, *ast.HTMLBlock:
			return ast.WalkSkipChildren, nil
		case *ast.Text:
			if entering {
				sb.Write(node.Segment.Value(src))
				if node.SoftLineBreak() || node.HardLineBreak() {
					sb.WriteByte(' ')
				}
			}
		case *ast.String:
			if entering {
				sb.Write(node.Value)
			}
		default:
			if !entering && n.Type() == ast.TypeBlock {
				sb.WriteByte(' ')
			}
		}
		return ast.WalkContinue, nil
	})

	return strings.Join(strings.Fields(sb.String()), " ")
}

// Excerpt cuts s to at most n runes on a word boundary.
func Excerpt(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	runes := []rune(s)
	cut := string(runes[:n])
	if i := strings.LastIndexByte(cut, ' '); i > 0 {
		cut = cut[:i]
	}
	return strings.TrimRight(cut, " ,.;:") + "…"
}

// ReadingMinutes estimates reading time, at least one minute.
func ReadingMinutes(plain string) int {
	words := len(strings.Fields(plain))
	minutes := (words + wordsPerMinute - 1) / wordsPerMinute
	if minutes < 1 {
		return 1
	}
	return minutes
}
