package store

import (
	"context"
	stderrors "errors"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/BitEU/linkchart/pkg/chart"
	"github.com/BitEU/linkchart/pkg/errors"
)

// FileStore keeps one JSON document per chart under a directory. Document
// names map to file names; characters that don't survive a filesystem are
// escaped.
type FileStore struct {
	dir string
}

// NewFileStore creates the directory if needed.
func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidPath, err, "create store directory %s", dir)
	}
	return &FileStore{dir: dir}, nil
}

// Save writes the document atomically: temp file then rename.
func (s *FileStore) Save(ctx context.Context, doc chart.Document) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if doc.Name == "" {
		return errors.New(errors.ErrCodeInvalidDocument, "document name must not be empty")
	}

	data, err := chart.MarshalDocument(doc)
	if err != nil {
		return errors.Wrap(errors.ErrCodeInvalidDocument, err, "marshal %s", doc.Name)
	}

	path := s.path(doc.Name)
	tmp, err := os.CreateTemp(s.dir, ".save.*")
	if err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "create temp file")
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return errors.Wrap(errors.ErrCodeInternal, err, "write %s", tmpName)
	}
	if err := tmp.Close(); err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "close %s", tmpName)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "rename into %s", path)
	}
	return nil
}

// Load reads a document by name.
func (s *FileStore) Load(ctx context.Context, name string) (chart.Document, error) {
	if err := ctx.Err(); err != nil {
		return chart.Document{}, err
	}
	doc, err := chart.ReadDocumentFile(s.path(name))
	if stderrors.Is(err, fs.ErrNotExist) {
		return chart.Document{}, errors.New(errors.ErrCodeChartNotFound, "no chart named %q", name)
	}
	if err != nil {
		return chart.Document{}, errors.Wrap(errors.ErrCodeInvalidDocument, err, "load %q", name)
	}
	return doc, nil
}

// List returns stored document names, sorted.
func (s *FileStore) List(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "read store directory")
	}

	var names []string
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".json") {
			continue
		}
		names = append(names, unescapeName(strings.TrimSuffix(e.Name(), ".json")))
	}
	sort.Strings(names)
	return names, nil
}

// Delete removes a document.
func (s *FileStore) Delete(ctx context.Context, name string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	err := os.Remove(s.path(name))
	if os.IsNotExist(err) {
		return errors.New(errors.ErrCodeChartNotFound, "no chart named %q", name)
	}
	return err
}

// Close does nothing for the file store.
func (s *FileStore) Close(ctx context.Context) error { return nil }

func (s *FileStore) path(name string) string {
	return filepath.Join(s.dir, escapeName(name)+".json")
}

// escapeName replaces path separators and other hostile characters so any
// document name maps to a single flat file.
func escapeName(name string) string {
	r := strings.NewReplacer("/", "%2F", "\\", "%5C", ":", "%3A", "..", "%2E%2E")
	return r.Replace(name)
}

func unescapeName(name string) string {
	r := strings.NewReplacer("%2F", "/", "%5C", "\\", "%3A", ":", "%2E%2E", "..")
	return r.Replace(name)
}

var _ ChartStore = (*FileStore)(nil)
