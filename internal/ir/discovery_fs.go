package ir

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	schema "github.com/hanpama/refetchgen/internal/schema"
)

var documentExtensions = map[string]bool{".graphql": true, ".gql": true}

// FileSystemDiscovery implements Discovery for executable documents on disk
type FileSystemDiscovery struct {
	paths map[DocumentID]string
	metas map[DocumentID]*DocumentMetadata
}

// NewFileSystemDiscovery walks rootDir for .graphql and .gql files. Files and
// directories in exclude (typically the schema files and the output
// directory) are skipped.
func NewFileSystemDiscovery(ctx context.Context, rootDir string, exclude ...string) (*FileSystemDiscovery, error) {
	if rootDir == "" {
		return nil, fmt.Errorf("documents root cannot be empty")
	}
	skip := make(map[string]bool, len(exclude))
	for _, p := range exclude {
		abs, err := filepath.Abs(p)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve %q: %w", p, err)
		}
		skip[abs] = true
	}
	discovery := &FileSystemDiscovery{
		paths: make(map[DocumentID]string),
		metas: make(map[DocumentID]*DocumentMetadata),
	}

	err := filepath.WalkDir(rootDir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		abs, err := filepath.Abs(path)
		if err == nil && skip[abs] {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() || !documentExtensions[filepath.Ext(d.Name())] {
			return nil
		}

		relPath, err := filepath.Rel(rootDir, path)
		if err != nil {
			return fmt.Errorf("failed to get relative path for %q: %w", path, err)
		}
		id := DocumentID(filepath.ToSlash(relPath))
		discovery.paths[id] = path
		discovery.metas[id] = &DocumentMetadata{
			ID:       id,
			Name:     strings.TrimSuffix(d.Name(), filepath.Ext(d.Name())),
			FilePath: relPath,
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to walk documents root %q: %w", rootDir, err)
	}
	return discovery, nil
}

// ListDocuments returns the discovered documents ordered by path
func (d *FileSystemDiscovery) ListDocuments(ctx context.Context) ([]*DocumentMetadata, error) {
	docs := make([]*DocumentMetadata, 0, len(d.metas))
	for _, meta := range d.metas {
		docs = append(docs, meta)
	}
	sort.Slice(docs, func(i, j int) bool { return docs[i].ID < docs[j].ID })
	return docs, nil
}

// ReadDocument reads the GraphQL source of a discovered document
func (d *FileSystemDiscovery) ReadDocument(ctx context.Context, id DocumentID) (string, error) {
	fp, ok := d.paths[id]
	if !ok {
		return "", fmt.Errorf("document %q not found", id)
	}
	content, err := os.ReadFile(fp)
	if err != nil {
		return "", fmt.Errorf("failed to read document %q: %w", id, err)
	}
	return string(content), nil
}

// Load is a convenience function that discovers documents under rootDir and
// builds the program against sch
func Load(ctx context.Context, rootDir string, sch *schema.Schema, exclude ...string) (*Program, error) {
	discovery, err := NewFileSystemDiscovery(ctx, rootDir, exclude...)
	if err != nil {
		return nil, err
	}
	return Build(ctx, discovery, sch)
}
