package ir

import (
	"context"
	"fmt"
)

type InMemoryDocument struct {
	// slash-separated path, also used as the source name in locations
	Path    string
	Content string
}

// InMemoryDiscovery is a test implementation of Discovery that stores data in memory
type InMemoryDiscovery struct {
	metas    []*DocumentMetadata
	contents map[DocumentID]string
}

// NewInMemoryDiscovery creates a new InMemoryDiscovery. Documents are listed
// in the order given.
func NewInMemoryDiscovery(docs []InMemoryDocument) *InMemoryDiscovery {
	discovery := &InMemoryDiscovery{
		contents: make(map[DocumentID]string),
	}
	for _, doc := range docs {
		id := DocumentID(doc.Path)
		discovery.metas = append(discovery.metas, &DocumentMetadata{
			ID:       id,
			Name:     doc.Path,
			FilePath: doc.Path,
		})
		discovery.contents[id] = doc.Content
	}
	return discovery
}

// ListDocuments implements Discovery interface
func (d *InMemoryDiscovery) ListDocuments(ctx context.Context) ([]*DocumentMetadata, error) {
	return append([]*DocumentMetadata(nil), d.metas...), nil
}

// ReadDocument implements Discovery interface
func (d *InMemoryDiscovery) ReadDocument(ctx context.Context, id DocumentID) (string, error) {
	content, exists := d.contents[id]
	if !exists {
		return "", fmt.Errorf("document %q not found", id)
	}
	return content, nil
}
