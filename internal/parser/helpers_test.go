package parser

import (
	"archive/zip"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"testing"
)

const testContainerXML = `<?xml version="1.0" encoding="UTF-8"?>
<container version="1.0" xmlns="urn:oasis:names:tc:opendocument:xmlns:container">
  <rootfiles>
    <rootfile full-path="%s" media-type="application/oebps-package+xml"/>
  </rootfiles>
</container>`

// buildZip creates an in-memory zip archive from path -> content. Entries
// are written in sorted order so archives are reproducible.
func buildZip(t *testing.T, files map[string]string) []byte {
	t.Helper()

	names := make([]string, 0, len(files))
	for name := range files {
		names = append(names, name)
	}
	sort.Strings(names)

	buf := new(bytes.Buffer)
	zw := zip.NewWriter(buf)
	for _, name := range names {
		fw, err := zw.Create(name)
		if err != nil {
			t.Fatalf("buildZip: create %s: %v", name, err)
		}
		if _, err := io.WriteString(fw, files[name]); err != nil {
			t.Fatalf("buildZip: write %s: %v", name, err)
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("buildZip: close writer: %v", err)
	}
	return buf.Bytes()
}

func containerXML(opfPath string) string {
	return fmt.Sprintf(testContainerXML, opfPath)
}

// opf renders a package document from raw metadata, manifest and spine markup
func opf(metadata, manifest, spine string) string {
	return `<?xml version="1.0" encoding="UTF-8"?>
<package xmlns="http://www.idpf.org/2007/opf" version="3.0" unique-identifier="uid">
  <metadata xmlns:dc="http://purl.org/dc/elements/1.1/">` + metadata + `</metadata>
  <manifest>` + manifest + `</manifest>
  <spine>` + spine + `</spine>
</package>`
}

func xhtml(body string) string {
	return `<?xml version="1.0" encoding="UTF-8"?>
<!DOCTYPE html>
<html xmlns="http://www.w3.org/1999/xhtml">
<head><title>Chapter</title></head>
<body>` + body + `</body>
</html>`
}

// sampleBook is a two chapter EPUB with its package document under OEBPS/
func sampleBook(t *testing.T) []byte {
	t.Helper()
	return buildZip(t, map[string]string{
		"mimetype":               "application/epub+zip",
		"META-INF/container.xml": containerXML("OEBPS/content.opf"),
		"OEBPS/content.opf": opf(
			`<dc:title>Sample Book</dc:title><dc:creator>Jane Doe</dc:creator>`,
			`<item id="ch1" href="ch1.xhtml" media-type="application/xhtml+xml"/>
			 <item id="ch2" href="ch2.xhtml" media-type="application/xhtml+xml"/>`,
			`<itemref idref="ch1"/><itemref idref="ch2"/>`,
		),
		"OEBPS/ch1.xhtml": xhtml(`<p>Hello</p>`),
		"OEBPS/ch2.xhtml": xhtml(`<p>World</p>`),
	})
}

// countingFile records how often its contents are read
type countingFile struct {
	name  string
	data  []byte
	err   error
	reads int
}

func (f *countingFile) Name() string { return f.name }

func (f *countingFile) ReadAll(ctx context.Context) ([]byte, error) {
	f.reads++
	if f.err != nil {
		return nil, f.err
	}
	return f.data, nil
}

// stubParser claims files according to claim and returns result or err
type stubParser struct {
	format FileFormat
	exts   []string
	claim  func(File) bool
	result *Result
	err    error
	panics any
}

func (p *stubParser) Format() FileFormat { return p.format }

func (p *stubParser) Capabilities() Capabilities {
	return Capabilities{Extensions: p.exts}
}

func (p *stubParser) CanParse(file File) bool {
	if p.claim == nil {
		return false
	}
	return p.claim(file)
}

func (p *stubParser) Parse(ctx context.Context, file File) (*Result, error) {
	if p.panics != nil {
		panic(p.panics)
	}
	return p.result, p.err
}

func claimAll(File) bool { return true }

var errBoom = errors.New("boom")
