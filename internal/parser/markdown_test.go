package parser

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMarkdownParser_Parse(t *testing.T) {
	p := NewMarkdownParser()
	ctx := context.Background()

	author := func(s string) *string { return &s }

	tests := []struct {
		name     string
		filename string
		content  string
		want     *Result
	}{
		{
			name:     "Title and author",
			filename: "post.md",
			content:  "---\ntitle: Deep Work\nauthor: Cal Newport\n---\n\n# Intro\n\nRules for focus.\n",
			want:     &Result{Text: "# Intro\n\nRules for focus.", Title: "Deep Work", Author: author("Cal Newport"), Format: FormatMarkdown},
		},
		{
			name:     "No frontmatter",
			filename: "notes.md",
			content:  "\n  Just some notes.\n\nMore notes.  \n",
			want:     &Result{Text: "Just some notes.\n\nMore notes.", Title: "notes", Format: FormatMarkdown},
		},
		{
			name:     "Title only",
			filename: "a.md",
			content:  "---\ntitle:   Spaced Out   \ndate: 2024-01-01\n---\nBody",
			want:     &Result{Text: "Body", Title: "Spaced Out", Format: FormatMarkdown},
		},
		{
			name:     "Author only",
			filename: "draft.markdown",
			content:  "---\nauthor: Someone\n---\nBody",
			want:     &Result{Text: "Body", Title: "draft", Author: author("Someone"), Format: FormatMarkdown},
		},
		{
			name:     "Neither declared",
			filename: "Tags.MD",
			content:  "---\ntags: go\n---\nBody",
			want:     &Result{Text: "Body", Title: "Tags", Format: FormatMarkdown},
		},
		{
			name:     "Values are literal",
			filename: "q.md",
			content:  "---\ntitle: \"Quoted: Title\" # comment\nauthor: [A, B]\n---\nBody",
			want:     &Result{Text: "Body", Title: "\"Quoted: Title\" # comment", Author: author("[A, B]"), Format: FormatMarkdown},
		},
		{
			name:     "CRLF line endings",
			filename: "win.md",
			content:  "---\r\ntitle: Windows\r\nauthor: Bill\r\n---\r\nLine one\r\nLine two\r\n",
			want:     &Result{Text: "Line one\r\nLine two", Title: "Windows", Author: author("Bill"), Format: FormatMarkdown},
		},
		{
			name:     "Frontmatter without body",
			filename: "empty.md",
			content:  "---\ntitle: Only Meta\n---",
			want:     &Result{Text: "", Title: "Only Meta", Format: FormatMarkdown},
		},
		{
			name:     "Unclosed frontmatter is body",
			filename: "open.md",
			content:  "---\ntitle: Never Closed\nBody",
			want:     &Result{Text: "---\ntitle: Never Closed\nBody", Title: "open", Format: FormatMarkdown},
		},
		{
			name:     "Frontmatter not at start is body",
			filename: "late.md",
			content:  "Intro\n---\ntitle: Late\n---\nRest",
			want:     &Result{Text: "Intro\n---\ntitle: Late\n---\nRest", Title: "late", Format: FormatMarkdown},
		},
		{
			name:     "Indented keys are ignored",
			filename: "nested.md",
			content:  "---\nmeta:\n  title: Nested\n---\nBody",
			want:     &Result{Text: "Body", Title: "nested", Format: FormatMarkdown},
		},
		{
			name:     "Code formatting preserved",
			filename: "code.md",
			content:  "---\ntitle: Code\n---\n```go\nfunc main() {\n\tprintln(\"hi\")\n}\n```\n\n    indented block\n",
			want:     &Result{Text: "```go\nfunc main() {\n\tprintln(\"hi\")\n}\n```\n\n    indented block", Title: "Code", Format: FormatMarkdown},
		},
		{
			name:     "Leading BOM",
			filename: "bom.md",
			content:  "\ufeff---\ntitle: BOM\n---\nBody",
			want:     &Result{Text: "Body", Title: "BOM", Format: FormatMarkdown},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := p.Parse(ctx, NewFile(tt.filename, []byte(tt.content)))
			require.NoError(t, err)
			assert.Equal(t, tt.want, result)
		})
	}
}

func TestMarkdownParser_InvalidUTF8(t *testing.T) {
	result, err := NewMarkdownParser().Parse(context.Background(), NewFile("bad.md", []byte("caf\xe9")))
	require.NoError(t, err)
	assert.Equal(t, "caf\uFFFD", result.Text)
}

func TestMarkdownParser_ReadFailure(t *testing.T) {
	_, err := NewMarkdownParser().Parse(context.Background(), &countingFile{name: "x.md", err: errBoom})
	pe := requireParseError(t, err)
	assert.Equal(t, FormatMarkdown, pe.Format)
	assert.Same(t, errBoom, pe.Unwrap())
}

func TestMarkdownParser_CanParse(t *testing.T) {
	p := NewMarkdownParser()

	tests := []struct {
		name     string
		expected bool
	}{
		{"a.md", true},
		{"a.MD", true},
		{"a.markdown", true},
		{"a.Markdown", true},
		{"a.mdx", false},
		{"a.txt", false},
		{"md", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, p.CanParse(NewFile(tt.name, nil)))
		})
	}
}

func TestPDFParser(t *testing.T) {
	p := NewPDFParser()
	assert.True(t, p.CanParse(NewFile("Paper.PDF", nil)))
	assert.False(t, p.CanParse(NewFile("paper.epub", nil)))

	result, err := p.Parse(context.Background(), NewFile("paper.pdf", []byte("%PDF")))
	assert.Nil(t, result)
	pe := requireParseError(t, err)
	assert.Equal(t, FormatPDF, pe.Format)
	assert.Equal(t, "PDF parsing is not yet implemented", pe.Message)
	assert.Nil(t, pe.Unwrap())
}
