package parser

import (
	"encoding/xml"
	"fmt"
	"net/url"
	"strings"

	"github.com/beevik/etree"
	"golang.org/x/net/html/charset"
)

// containerPath is the bootstrap descriptor that points at the package document
const containerPath = "META-INF/container.xml"

const packageMediaType = "application/oebps-package+xml"

// packageDocument is the resolved content of an OPF file
type packageDocument struct {
	path   string
	folder string

	title  string
	author string

	manifest map[string]string // id -> href
	spine    []string          // hrefs in reading order
}

// resolve returns the archive path of an href relative to the package folder
func (p *packageDocument) resolve(href string) string {
	if p.folder == "" {
		return href
	}
	return p.folder + "/" + href
}

// alternatePath returns the percent-decoded form of a resolved path, or ""
// when decoding changes nothing.
func alternatePath(resolved string) string {
	decoded, err := url.PathUnescape(resolved)
	if err != nil || decoded == resolved {
		return ""
	}
	return decoded
}

func readXML(data []byte) (*etree.Document, error) {
	doc := etree.NewDocument()
	doc.ReadSettings = etree.ReadSettings{
		CharsetReader: charset.NewReaderLabel,
		Permissive:    true,
		Entity:        xml.HTMLEntity,
	}
	if err := doc.ReadFromBytes(data); err != nil {
		return nil, fmt.Errorf("invalid XML: %w", err)
	}
	return doc, nil
}

// findPackagePath reads the container descriptor and returns the archive
// path of the package document.
func findPackagePath(a *archive) (string, error) {
	data, found, err := a.readBytes(containerPath)
	if err != nil {
		return "", err
	}
	if !found {
		return "", newParseError(FormatEPUB, nil, "invalid EPUB: missing container descriptor %s", containerPath)
	}

	doc, err := readXML(data)
	if err != nil {
		return "", fmt.Errorf("failed to read %s: %w", containerPath, err)
	}

	var fallback string
	for _, rf := range doc.FindElements("//rootfile") {
		fullPath := strings.TrimSpace(rf.SelectAttrValue("full-path", ""))
		if fullPath == "" {
			continue
		}
		if strings.EqualFold(rf.SelectAttrValue("media-type", ""), packageMediaType) {
			return fullPath, nil
		}
		if fallback == "" {
			fallback = fullPath
		}
	}
	if fallback == "" {
		return "", newParseError(FormatEPUB, nil, "invalid EPUB: cannot find package document path in %s", containerPath)
	}
	return fallback, nil
}

// readPackage loads the package document and resolves its reading order.
// Spine entries without an idref, or whose idref is not in the manifest,
// are dropped. Duplicate manifest ids keep the last declaration.
func readPackage(a *archive, opfPath string) (*packageDocument, error) {
	data, found, err := a.readBytes(opfPath)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, newParseError(FormatEPUB, nil, "invalid EPUB: package document missing at %s", opfPath)
	}

	doc, err := readXML(data)
	if err != nil {
		return nil, fmt.Errorf("failed to read package document %s: %w", opfPath, err)
	}

	pkg := &packageDocument{
		path:     opfPath,
		manifest: make(map[string]string),
	}
	if idx := strings.LastIndex(opfPath, "/"); idx >= 0 {
		pkg.folder = opfPath[:idx]
	}

	if metadata := doc.FindElement("//metadata"); metadata != nil {
		pkg.title = firstText(metadata, ".//title")
		pkg.author = firstText(metadata, ".//creator")
	}

	for _, item := range doc.FindElements("//manifest/item") {
		id := item.SelectAttr("id")
		href := item.SelectAttr("href")
		if id == nil || href == nil {
			continue
		}
		pkg.manifest[id.Value] = href.Value
	}

	for _, ref := range doc.FindElements("//spine/itemref") {
		idref := ref.SelectAttr("idref")
		if idref == nil {
			continue
		}
		href, ok := pkg.manifest[idref.Value]
		if !ok {
			continue
		}
		pkg.spine = append(pkg.spine, href)
	}

	return pkg, nil
}

// firstText returns the trimmed text content of the first element matching path
func firstText(e *etree.Element, path string) string {
	match := e.FindElement(path)
	if match == nil {
		return ""
	}
	var sb strings.Builder
	appendText(match, &sb)
	return strings.TrimSpace(sb.String())
}

func appendText(e *etree.Element, sb *strings.Builder) {
	for _, child := range e.Child {
		switch c := child.(type) {
		case *etree.CharData:
			sb.WriteString(c.Data)
		case *etree.Element:
			appendText(c, sb)
		}
	}
}
