package ir

import (
	"context"
)

// DocumentID is a unique identifier for an executable document,
// usually its slash-separated path relative to the documents root.
// ex. "profile/ProfileCard.graphql"
type DocumentID string

type DocumentMetadata struct {
	ID       DocumentID
	Name     string
	FilePath string
}

type Discovery interface {
	ListDocuments(ctx context.Context) ([]*DocumentMetadata, error)
	ReadDocument(ctx context.Context, id DocumentID) (string, error)
}
