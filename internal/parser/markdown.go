package parser

import (
	"context"
	"regexp"
	"strings"
)

var (
	// frontmatterPattern matches a block delimited by lines of exactly "---"
	// at the very start of the file. Group 1 is the block, group 2 the body.
	frontmatterPattern = regexp.MustCompile(`^---\r?\n([\s\S]*?)\r?\n---(?:\r?\n([\s\S]*))?$`)

	frontmatterTitle  = regexp.MustCompile(`(?m)^title:[ \t]*(.+)$`)
	frontmatterAuthor = regexp.MustCompile(`(?m)^author:[ \t]*(.+)$`)

	markdownExtPattern = regexp.MustCompile(`(?i)\.(md|markdown)$`)
)

// MarkdownParser splits optional frontmatter from a Markdown body.
// Frontmatter values are taken literally: no YAML quoting, lists or nesting
// are interpreted.
type MarkdownParser struct{}

// NewMarkdownParser creates a new Markdown parser
func NewMarkdownParser() *MarkdownParser {
	return &MarkdownParser{}
}

func (p *MarkdownParser) Format() FileFormat {
	return FormatMarkdown
}

func (p *MarkdownParser) Capabilities() Capabilities {
	return Capabilities{
		Extensions:         []string{"md", "markdown"},
		MIMETypes:          []string{"text/markdown", "text/x-markdown"},
		SupportsLargeFiles: false,
		Description:        "Markdown documents with optional frontmatter",
	}
}

// CanParse reports whether the file name ends with .md or .markdown, ignoring case
func (p *MarkdownParser) CanParse(file File) bool {
	return hasExtension(file.Name(), "md", "markdown")
}

// Parse returns the body with surrounding whitespace trimmed. Internal
// whitespace is preserved so code blocks and line breaks survive.
func (p *MarkdownParser) Parse(ctx context.Context, file File) (*Result, error) {
	data, err := file.ReadAll(ctx)
	if err != nil {
		return nil, newParseError(FormatMarkdown, err, "failed to read Markdown file: %s", err.Error())
	}

	content := decodeUTF8(stripBOM(data))
	title, author, body := splitFrontmatter(content)

	if title == "" {
		title = fallbackTitle(file.Name(), markdownExtPattern)
	}

	result := &Result{
		Text:   strings.TrimSpace(body),
		Title:  title,
		Format: FormatMarkdown,
	}
	if author != "" {
		result.Author = &author
	}
	return result, nil
}

// splitFrontmatter returns the declared title and author and the remaining
// body. Content without a leading frontmatter block is returned whole.
func splitFrontmatter(content string) (title, author, body string) {
	m := frontmatterPattern.FindStringSubmatch(content)
	if m == nil {
		return "", "", content
	}

	block := m[1]
	return frontmatterValue(frontmatterTitle, block), frontmatterValue(frontmatterAuthor, block), m[2]
}

func frontmatterValue(re *regexp.Regexp, block string) string {
	m := re.FindStringSubmatch(block)
	if m == nil {
		return ""
	}
	return strings.TrimSpace(m[1])
}
