package parser

import (
	"archive/zip"
	"bytes"
	"fmt"
	"io"
	"path"
	"strings"
	"unicode/utf8"
)

// DefaultMaxEntrySize is the largest decompressed size accepted for a single
// archive member.
const DefaultMaxEntrySize int64 = 256 << 20

// archive indexes the members of a zip container by path
type archive struct {
	files        map[string]*zip.File
	folded       map[string]*zip.File
	maxEntrySize int64
}

func openArchive(data []byte, maxEntrySize int64) (*archive, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, err
	}

	if maxEntrySize <= 0 {
		maxEntrySize = DefaultMaxEntrySize
	}

	a := &archive{
		files:        make(map[string]*zip.File, len(zr.File)),
		folded:       make(map[string]*zip.File, len(zr.File)),
		maxEntrySize: maxEntrySize,
	}
	for _, f := range zr.File {
		if _, dup := a.files[f.Name]; !dup {
			a.files[f.Name] = f
		}
		lower := strings.ToLower(f.Name)
		if _, dup := a.folded[lower]; !dup {
			a.folded[lower] = f
		}
	}
	return a, nil
}

// lookup finds a member by exact path, then by cleaned path, then ignoring case
func (a *archive) lookup(name string) *zip.File {
	if f, ok := a.files[name]; ok {
		return f
	}
	cleaned := path.Clean(name)
	if f, ok := a.files[cleaned]; ok {
		return f
	}
	return a.folded[strings.ToLower(cleaned)]
}

// readBytes returns the member's contents with any UTF-8 BOM removed.
// found is false when the archive has no such member.
func (a *archive) readBytes(name string) (data []byte, found bool, err error) {
	f := a.lookup(name)
	if f == nil {
		return nil, false, nil
	}

	if f.UncompressedSize64 > uint64(a.maxEntrySize) {
		return nil, true, fmt.Errorf("archive entry %s too large: %d bytes (max %d)", f.Name, f.UncompressedSize64, a.maxEntrySize)
	}

	rc, err := f.Open()
	if err != nil {
		return nil, true, fmt.Errorf("failed to open archive entry %s: %w", f.Name, err)
	}
	defer rc.Close()

	// The declared size may be forged, so read one byte past the limit.
	data, err = io.ReadAll(io.LimitReader(rc, a.maxEntrySize+1))
	if err != nil {
		return nil, true, fmt.Errorf("failed to read archive entry %s: %w", f.Name, err)
	}
	if int64(len(data)) > a.maxEntrySize {
		return nil, true, fmt.Errorf("archive entry %s exceeds %d bytes when decompressed", f.Name, a.maxEntrySize)
	}

	return stripBOM(data), true, nil
}

// readText returns the member decoded as UTF-8. Invalid sequences are
// replaced rather than rejected.
func (a *archive) readText(name string) (string, bool, error) {
	data, found, err := a.readBytes(name)
	if err != nil || !found {
		return "", found, err
	}
	return decodeUTF8(data), true, nil
}

func stripBOM(data []byte) []byte {
	return bytes.TrimPrefix(data, []byte("\xef\xbb\xbf"))
}

func decodeUTF8(data []byte) string {
	if utf8.Valid(data) {
		return string(data)
	}
	return strings.ToValidUTF8(string(data), "\uFFFD")
}
