// Package extract loads certificate documents and fills in policies for
// attachments that still need extraction.
package extract

import (
	"encoding/json"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"

	"github.com/sells-group/coi-cli/internal/model"
)

func isDocumentFile(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json", ".yaml", ".yml":
		return true
	}
	return false
}

// LoadFile decodes one document from a JSON or YAML file, chosen by
// extension. A missing document id defaults to the file name, and relative
// attachment paths are resolved against the file's directory.
func LoadFile(path string) (model.Document, error) {
	var doc model.Document

	data, err := os.ReadFile(path)
	if err != nil {
		return doc, eris.Wrapf(err, "extract: read %s", path)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		err = json.Unmarshal(data, &doc)
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &doc)
	default:
		return doc, eris.Errorf("extract: unsupported document file %s", path)
	}
	if err != nil {
		return doc, eris.Wrapf(err, "extract: decode %s", path)
	}

	if doc.ID == "" {
		base := filepath.Base(path)
		doc.ID = strings.TrimSuffix(base, filepath.Ext(base))
	}
	dir := filepath.Dir(path)
	for i := range doc.Attachments {
		a := &doc.Attachments[i]
		if a.Path != "" && !filepath.IsAbs(a.Path) {
			a.Path = filepath.Join(dir, a.Path)
		}
		if a.ID == "" {
			a.ID = doc.ID + "-" + strings.TrimSuffix(filepath.Base(a.Path), filepath.Ext(a.Path))
		}
	}
	return doc, nil
}

// LoadDir loads every document file under dir, ordered by path.
func LoadDir(dir string) ([]model.Document, error) {
	var paths []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && isDocumentFile(path) {
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		return nil, eris.Wrapf(err, "extract: walk %s", dir)
	}
	sort.Strings(paths)

	docs := make([]model.Document, 0, len(paths))
	for _, p := range paths {
		doc, err := LoadFile(p)
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	return docs, nil
}

// Load reads a single file or a whole directory.
func Load(path string) ([]model.Document, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, eris.Wrapf(err, "extract: stat %s", path)
	}
	if info.IsDir() {
		return LoadDir(path)
	}
	doc, err := LoadFile(path)
	if err != nil {
		return nil, err
	}
	return []model.Document{doc}, nil
}
