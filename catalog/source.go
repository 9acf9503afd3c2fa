package catalog

import (
	"errors"
	"io"
	"io/fs"
	"maps"
	"os"
	"path"
	"path/filepath"
	"slices"
	"strings"
	"sync"
)

// DefaultExtensions are the file extensions recognized as catalogs.
var DefaultExtensions = []string{".yaml", ".yml"}

// Source finds catalog files by name. A catalog's name is its file name
// without the extension ("iokit" for "iokit.yaml").
type Source interface {
	// Find opens the named catalog and returns it with a path for
	// diagnostics. A missing catalog yields fs.ErrNotExist.
	Find(name string) (io.ReadCloser, string, error)

	// ListCatalogs returns the sorted names of every catalog in the source.
	ListCatalogs() ([]string, error)
}

// SourceOption configures a source.
type SourceOption func(*sourceConfig)

type sourceConfig struct {
	extensions []string
}

// WithExtensions sets the file extensions recognized as catalogs.
func WithExtensions(exts ...string) SourceOption {
	return func(c *sourceConfig) {
		c.extensions = exts
	}
}

// indexSource serves catalogs from one filesystem. The name index is
// built on first use; the first file found for a name wins.
type indexSource struct {
	fsys  fs.FS
	label func(p string) string
	files func() (map[string]string, error)
}

func newIndexSource(fsys fs.FS, label func(string) string, recursive bool, opts []SourceOption) *indexSource {
	cfg := sourceConfig{extensions: DefaultExtensions}
	for _, opt := range opts {
		opt(&cfg)
	}
	return &indexSource{
		fsys:  fsys,
		label: label,
		files: sync.OnceValues(func() (map[string]string, error) {
			return scan(fsys, recursive, cfg.extensions)
		}),
	}
}

// scan maps catalog names to slash-separated paths in fsys. Unreadable
// entries are skipped.
func scan(fsys fs.FS, recursive bool, exts []string) (map[string]string, error) {
	files := make(map[string]string)
	err := fs.WalkDir(fsys, ".", func(p string, d fs.DirEntry, err error) error {
		switch {
		case err != nil && d != nil && d.IsDir():
			return fs.SkipDir
		case err != nil:
			return nil
		case d.IsDir():
			if p != "." && !recursive {
				return fs.SkipDir
			}
			return nil
		}
		ext := path.Ext(p)
		if !slices.ContainsFunc(exts, func(e string) bool { return strings.EqualFold(e, ext) }) {
			return nil
		}
		name := strings.TrimSuffix(path.Base(p), ext)
		if _, seen := files[name]; !seen {
			files[name] = p
		}
		return nil
	})
	return files, err
}

func (s *indexSource) Find(name string) (io.ReadCloser, string, error) {
	files, err := s.files()
	if err != nil {
		return nil, "", err
	}
	p, ok := files[name]
	if !ok {
		return nil, "", fs.ErrNotExist
	}
	f, err := s.fsys.Open(p)
	if err != nil {
		return nil, s.label(p), err
	}
	return f, s.label(p), nil
}

func (s *indexSource) ListCatalogs() ([]string, error) {
	files, err := s.files()
	if err != nil {
		return nil, err
	}
	return slices.Sorted(maps.Keys(files)), nil
}

// osLabel reports paths under dir in host form.
func osLabel(dir string) func(string) string {
	return func(p string) string { return filepath.Join(dir, filepath.FromSlash(p)) }
}

// Dir creates a Source over the catalogs directly inside dir.
func Dir(dir string, opts ...SourceOption) (Source, error) {
	if err := requireDir(dir); err != nil {
		return nil, err
	}
	return newIndexSource(os.DirFS(dir), osLabel(dir), false, opts), nil
}

// DirTree creates a Source over every catalog below root.
func DirTree(root string, opts ...SourceOption) (Source, error) {
	if err := requireDir(root); err != nil {
		return nil, err
	}
	return newIndexSource(os.DirFS(root), osLabel(root), true, opts), nil
}

// File creates a Source holding the single catalog at p, whatever its
// extension.
func File(p string) (Source, error) {
	info, err := os.Stat(p)
	if err != nil {
		return nil, err
	}
	if info.IsDir() {
		return nil, &os.PathError{Op: "open", Path: p, Err: os.ErrInvalid}
	}
	dir, base := filepath.Split(p)
	files := map[string]string{strings.TrimSuffix(base, filepath.Ext(base)): base}
	return &indexSource{
		fsys:  os.DirFS(filepath.Clean(dir)),
		label: osLabel(dir),
		files: func() (map[string]string, error) { return files, nil },
	}, nil
}

// FS creates a Source over an fs.FS such as embed.FS. name prefixes the
// paths reported for diagnostics.
func FS(name string, fsys fs.FS, opts ...SourceOption) Source {
	label := func(p string) string { return name + ":" + p }
	return newIndexSource(fsys, label, true, opts)
}

func requireDir(p string) error {
	info, err := os.Stat(p)
	if err == nil && !info.IsDir() {
		err = &os.PathError{Op: "open", Path: p, Err: os.ErrInvalid}
	}
	return err
}

type multiSource []Source

// Multi searches sources in order; the first source holding a name wins.
func Multi(sources ...Source) Source {
	return multiSource(sources)
}

func (m multiSource) Find(name string) (io.ReadCloser, string, error) {
	for _, src := range m {
		r, p, err := src.Find(name)
		if !errors.Is(err, fs.ErrNotExist) {
			return r, p, err
		}
	}
	return nil, "", fs.ErrNotExist
}

func (m multiSource) ListCatalogs() ([]string, error) {
	seen := make(map[string]struct{})
	for _, src := range m {
		names, err := src.ListCatalogs()
		if err != nil {
			return nil, err
		}
		for _, n := range names {
			seen[n] = struct{}{}
		}
	}
	return slices.Sorted(maps.Keys(seen)), nil
}
