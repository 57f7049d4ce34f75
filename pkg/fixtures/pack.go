package fixtures

import (
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/klauspost/compress/zip"
)

// FromDir collects every regular file below dir into a Set, prefixing each
// path with prefix (use DefaultStripPrefix to match the bundled layout).
// Paths matching any exclude glob are skipped.
func FromDir(dir, prefix string, exclude []string) (*Set, error) {
	set := &Set{}
	err := filepath.WalkDir(dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(dir, p)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)
		if rel == "." {
			return nil
		}
		for _, pattern := range exclude {
			if ok, _ := doublestar.Match(pattern, rel); ok {
				if d.IsDir() {
					return filepath.SkipDir
				}
				return nil
			}
		}
		if d.IsDir() {
			return nil
		}
		if !d.Type().IsRegular() {
			return fmt.Errorf("%s: %w: mode %s", rel, ErrUnsupportedEntry, d.Type())
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		// #nosec G304 -- p comes from walking dir
		data, err := os.ReadFile(p)
		if err != nil {
			return err
		}
		name := rel
		if prefix != "" {
			name = prefix + "/" + rel
		}
		return set.add(name, data, info.Mode(), Options{})
	})
	if err != nil {
		return nil, err
	}
	return set, nil
}

// WriteZip encodes the set as a zip archive in entry order.
func WriteZip(w io.Writer, set *Set) error {
	zw := zip.NewWriter(w)
	for _, e := range set.Entries {
		hdr := &zip.FileHeader{Name: e.Path, Method: zip.Deflate}
		hdr.SetMode(e.Mode)
		fw, err := zw.CreateHeader(hdr)
		if err != nil {
			return fmt.Errorf("zip %s: %w", e.Path, err)
		}
		if _, err := fw.Write(e.Data); err != nil {
			return fmt.Errorf("zip %s: %w", e.Path, err)
		}
	}
	return zw.Close()
}
