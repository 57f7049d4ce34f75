// Package fixtures loads fixture archives into an ordered, validated set of
// files. Entry content is kept byte-for-byte; no newline or encoding
// normalisation happens here.
package fixtures

import (
	"archive/tar"
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"sort"
	"strings"

	"github.com/fulmenhq/hookkit/pkg/safeio"
	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zip"
	"golang.org/x/tools/txtar"
)

var (
	// ErrPathTraversal marks an entry whose name escapes the extraction root.
	ErrPathTraversal = safeio.ErrPathTraversal
	// ErrUnsupportedEntry marks symlinks, devices and entries targeting .git.
	ErrUnsupportedEntry = errors.New("unsupported archive entry")
	// ErrUnsupportedFormat is returned for archive extensions Load does not know.
	ErrUnsupportedFormat = errors.New("unsupported archive format")
	// ErrDuplicateEntry marks two entries resolving to the same path.
	ErrDuplicateEntry = errors.New("duplicate archive entry")
)

// DefaultStripPrefix is the directory the bundled example archive nests its files under.
const DefaultStripPrefix = "test_files"

const defaultMode fs.FileMode = 0o644

// Entry is one fixture file.
type Entry struct {
	Path string // slash-separated, relative to the workspace root
	Data []byte
	Mode fs.FileMode
}

// Set is the ordered collection of fixture files, in archive order.
type Set struct {
	Entries []Entry
	index   map[string]int
}

// Options controls how archive names are mapped onto workspace paths.
type Options struct {
	// StripPrefix is removed from the front of every entry under it.
	StripPrefix string
}

// Len returns the number of files.
func (s *Set) Len() int { return len(s.Entries) }

// Lookup returns the entry stored at path.
func (s *Set) Lookup(path string) (Entry, bool) {
	i, ok := s.index[path]
	if !ok {
		return Entry{}, false
	}
	return s.Entries[i], true
}

// Paths returns every entry path sorted lexicographically.
func (s *Set) Paths() []string {
	out := make([]string, 0, len(s.Entries))
	for _, e := range s.Entries {
		out = append(out, e.Path)
	}
	sort.Strings(out)
	return out
}

// TotalBytes returns the summed content size.
func (s *Set) TotalBytes() uint64 {
	var n uint64
	for _, e := range s.Entries {
		n += uint64(len(e.Data))
	}
	return n
}

func (s *Set) add(name string, data []byte, mode fs.FileMode, opts Options) error {
	p, err := safeio.CleanRelPath(name)
	if err != nil {
		return fmt.Errorf("entry %q: %w", name, err)
	}
	if prefix := strings.Trim(opts.StripPrefix, "/"); prefix != "" && strings.HasPrefix(p, prefix+"/") {
		p = strings.TrimPrefix(p, prefix+"/")
	}
	if p == ".git" || strings.HasPrefix(p, ".git/") {
		return fmt.Errorf("entry %q: %w: writes into .git", name, ErrUnsupportedEntry)
	}
	if s.index == nil {
		s.index = make(map[string]int)
	}
	if _, dup := s.index[p]; dup {
		return fmt.Errorf("entry %q: %w: %s", name, ErrDuplicateEntry, p)
	}
	if mode.Perm() == 0 {
		mode = defaultMode
	}
	s.index[p] = len(s.Entries)
	s.Entries = append(s.Entries, Entry{Path: p, Data: data, Mode: mode.Perm()})
	return nil
}

// Load reads and validates the archive at path. The format is chosen by
// extension: .zip, .tar.gz/.tgz or .txtar.
func Load(path string, opts Options) (*Set, error) {
	// #nosec G304 -- archive path is operator supplied
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Decode(path, data, opts)
}

// Decode parses archive bytes; name is used only to pick the format.
func Decode(name string, data []byte, opts Options) (*Set, error) {
	lower := strings.ToLower(name)
	switch {
	case strings.HasSuffix(lower, ".zip"):
		return decodeZip(data, opts)
	case strings.HasSuffix(lower, ".tar.gz"), strings.HasSuffix(lower, ".tgz"):
		return decodeTarGz(data, opts)
	case strings.HasSuffix(lower, ".txtar"):
		return decodeTxtar(data, opts)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, name)
	}
}

func decodeZip(data []byte, opts Options) (*Set, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("open zip: %w", err)
	}
	set := &Set{}
	for _, f := range zr.File {
		if strings.HasSuffix(f.Name, "/") || f.Mode().IsDir() {
			continue
		}
		if !f.Mode().IsRegular() {
			return nil, fmt.Errorf("entry %q: %w: mode %s", f.Name, ErrUnsupportedEntry, f.Mode())
		}
		// Validate the name before decompressing anything.
		if _, err := safeio.CleanRelPath(f.Name); err != nil {
			return nil, fmt.Errorf("entry %q: %w", f.Name, err)
		}
		rc, err := f.Open()
		if err != nil {
			return nil, fmt.Errorf("entry %q: %w", f.Name, err)
		}
		content, err := io.ReadAll(rc)
		_ = rc.Close()
		if err != nil {
			return nil, fmt.Errorf("entry %q: %w", f.Name, err)
		}
		if err := set.add(f.Name, content, f.Mode(), opts); err != nil {
			return nil, err
		}
	}
	return set, nil
}

func decodeTarGz(data []byte, opts Options) (*Set, error) {
	gz, err := gzip.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("open gzip: %w", err)
	}
	defer gz.Close()

	set := &Set{}
	tr := tar.NewReader(gz)
	for {
		hdr, err := tr.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read tar: %w", err)
		}
		switch hdr.Typeflag {
		case tar.TypeDir, tar.TypeXGlobalHeader:
			continue
		case tar.TypeReg:
		default:
			return nil, fmt.Errorf("entry %q: %w: type %q", hdr.Name, ErrUnsupportedEntry, string(hdr.Typeflag))
		}
		if _, err := safeio.CleanRelPath(hdr.Name); err != nil {
			return nil, fmt.Errorf("entry %q: %w", hdr.Name, err)
		}
		content, err := io.ReadAll(tr)
		if err != nil {
			return nil, fmt.Errorf("entry %q: %w", hdr.Name, err)
		}
		if err := set.add(hdr.Name, content, fs.FileMode(hdr.Mode), opts); err != nil {
			return nil, err
		}
	}
	return set, nil
}

func decodeTxtar(data []byte, opts Options) (*Set, error) {
	ar := txtar.Parse(data)
	set := &Set{}
	for _, f := range ar.Files {
		if err := set.add(f.Name, f.Data, defaultMode, opts); err != nil {
			return nil, err
		}
	}
	return set, nil
}
