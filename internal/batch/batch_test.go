package batch

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/chess99/BookDistill/internal/parser"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// trackingParser claims .md files and records peak concurrency
type trackingParser struct {
	active atomic.Int32
	peak   atomic.Int32
	delay  time.Duration
}

func (p *trackingParser) Format() parser.FileFormat { return parser.FormatMarkdown }

func (p *trackingParser) Capabilities() parser.Capabilities {
	return parser.Capabilities{Extensions: []string{"md"}}
}

func (p *trackingParser) CanParse(file parser.File) bool {
	name := file.Name()
	return len(name) > 3 && name[len(name)-3:] == ".md"
}

func (p *trackingParser) Parse(ctx context.Context, file parser.File) (*parser.Result, error) {
	n := p.active.Add(1)
	defer p.active.Add(-1)
	for {
		peak := p.peak.Load()
		if n <= peak || p.peak.CompareAndSwap(peak, n) {
			break
		}
	}

	select {
	case <-time.After(p.delay):
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	data, err := file.ReadAll(ctx)
	if err != nil {
		return nil, err
	}
	return &parser.Result{Text: string(data), Title: file.Name(), Format: parser.FormatMarkdown}, nil
}

func TestParseAll_OrderAndErrors(t *testing.T) {
	registry := parser.NewDefaultRegistry(zap.NewNop())
	runner := NewRunner(registry, 2, nil)

	files := []parser.File{
		parser.NewFile("a.md", []byte("---\ntitle: A\n---\nalpha")),
		parser.NewFile("b.txt", []byte("plain")),
		parser.NewFile("c.markdown", []byte("gamma")),
		parser.NewFile("d.pdf", []byte("%PDF-1.7")),
	}

	outcomes := runner.ParseAll(context.Background(), files)
	require.Len(t, outcomes, 4)

	assert.Equal(t, "a.md", outcomes[0].Name)
	require.NoError(t, outcomes[0].Err)
	assert.Equal(t, "A", outcomes[0].Result.Title)
	assert.Equal(t, "alpha", outcomes[0].Result.Text)

	var pe *parser.ParseError
	require.ErrorAs(t, outcomes[1].Err, &pe)
	assert.Equal(t, parser.UndetectedFormat, pe.Format)
	assert.Nil(t, outcomes[1].Result)

	require.NoError(t, outcomes[2].Err)
	assert.Equal(t, "c", outcomes[2].Result.Title)

	require.ErrorAs(t, outcomes[3].Err, &pe)
	assert.Equal(t, parser.FormatPDF, pe.Format)

	assert.Equal(t, 2, Failed(outcomes))
}

func TestParseAll_RespectsLimit(t *testing.T) {
	tp := &trackingParser{delay: 20 * time.Millisecond}
	registry := parser.NewRegistry(nil)
	registry.Register(tp)

	files := make([]parser.File, 10)
	for i := range files {
		files[i] = parser.NewFile(fmt.Sprintf("f%d.md", i), []byte("x"))
	}

	outcomes := NewRunner(registry, 3, nil).ParseAll(context.Background(), files)
	assert.Equal(t, 0, Failed(outcomes))
	assert.LessOrEqual(t, tp.peak.Load(), int32(3))
	assert.GreaterOrEqual(t, tp.peak.Load(), int32(1))
}

func TestParseAll_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	registry := parser.NewDefaultRegistry(nil)
	outcomes := NewRunner(registry, 1, nil).ParseAll(ctx, []parser.File{
		parser.NewFile("a.md", []byte("alpha")),
		parser.NewFile("b.md", []byte("beta")),
	})

	for _, o := range outcomes {
		require.Error(t, o.Err)
		assert.True(t, errors.Is(o.Err, context.Canceled))
	}
}

func TestNewRunner_DefaultLimit(t *testing.T) {
	r := NewRunner(parser.NewRegistry(nil), 0, nil)
	assert.Equal(t, DefaultConcurrency, r.limit)
}
