package document

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"path"
	"sort"

	"github.com/chess99/BookDistill/internal/storage"
	"github.com/chess99/BookDistill/pkg/types"
)

const (
	rootPrefix   = "documents/"
	metadataFile = "metadata.json"
	textFile     = "text.txt"
	rawFile      = "raw"
)

// Repository handles document persistence
type Repository interface {
	// SaveDocument stores document metadata
	SaveDocument(ctx context.Context, doc *types.Document) error

	// GetDocument retrieves document metadata by ID
	GetDocument(ctx context.Context, id string) (*types.Document, error)

	// UpdateDocument updates document metadata
	UpdateDocument(ctx context.Context, doc *types.Document) error

	// ListDocuments returns all documents, newest first
	ListDocuments(ctx context.Context) ([]*types.Document, error)

	// SaveText stores the extracted text of a document
	SaveText(ctx context.Context, id, text string) error

	// GetText retrieves the extracted text of a document
	GetText(ctx context.Context, id string) (string, error)

	// SaveRawFile stores the uploaded file
	SaveRawFile(ctx context.Context, id string, data []byte) error

	// GetRawFile retrieves the uploaded file
	GetRawFile(ctx context.Context, id string) ([]byte, error)
}

// StorageRepository implements Repository using a storage adapter
type StorageRepository struct {
	storage storage.Adapter
}

// NewRepository creates a new document repository
func NewRepository(storageAdapter storage.Adapter) *StorageRepository {
	return &StorageRepository{
		storage: storageAdapter,
	}
}

// SaveDocument stores document metadata
func (r *StorageRepository) SaveDocument(ctx context.Context, doc *types.Document) error {
	if doc.ID == "" {
		return fmt.Errorf("document ID is required")
	}

	data, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("failed to marshal document: %w", err)
	}

	if err := r.storage.Put(ctx, objectPath(doc.ID, metadataFile), bytes.NewReader(data)); err != nil {
		return fmt.Errorf("failed to save document metadata: %w", err)
	}
	return nil
}

// GetDocument retrieves document metadata by ID. A missing document yields an
// error wrapping storage.ErrNotFound.
func (r *StorageRepository) GetDocument(ctx context.Context, id string) (*types.Document, error) {
	return r.readDocument(ctx, objectPath(id, metadataFile))
}

// UpdateDocument updates document metadata
func (r *StorageRepository) UpdateDocument(ctx context.Context, doc *types.Document) error {
	return r.SaveDocument(ctx, doc)
}

// ListDocuments returns all documents, newest first
func (r *StorageRepository) ListDocuments(ctx context.Context) ([]*types.Document, error) {
	paths, err := r.storage.List(ctx, rootPrefix)
	if err != nil {
		return nil, fmt.Errorf("failed to list documents: %w", err)
	}

	docs := make([]*types.Document, 0)
	for _, p := range paths {
		if path.Base(p) != metadataFile {
			continue
		}

		doc, err := r.readDocument(ctx, p)
		if err != nil {
			continue // Skip documents that can't be read
		}
		docs = append(docs, doc)
	}

	sort.SliceStable(docs, func(i, j int) bool {
		return docs[i].UploadedAt.After(docs[j].UploadedAt)
	})

	return docs, nil
}

// SaveText stores the extracted text of a document
func (r *StorageRepository) SaveText(ctx context.Context, id, text string) error {
	if err := r.storage.Put(ctx, objectPath(id, textFile), bytes.NewReader([]byte(text))); err != nil {
		return fmt.Errorf("failed to save document text: %w", err)
	}
	return nil
}

// GetText retrieves the extracted text of a document
func (r *StorageRepository) GetText(ctx context.Context, id string) (string, error) {
	data, err := r.readAll(ctx, objectPath(id, textFile))
	if err != nil {
		return "", fmt.Errorf("failed to get document text: %w", err)
	}
	return string(data), nil
}

// SaveRawFile stores the uploaded file
func (r *StorageRepository) SaveRawFile(ctx context.Context, id string, data []byte) error {
	if err := r.storage.Put(ctx, objectPath(id, rawFile), bytes.NewReader(data)); err != nil {
		return fmt.Errorf("failed to save raw file: %w", err)
	}
	return nil
}

// GetRawFile retrieves the uploaded file
func (r *StorageRepository) GetRawFile(ctx context.Context, id string) ([]byte, error) {
	data, err := r.readAll(ctx, objectPath(id, rawFile))
	if err != nil {
		return nil, fmt.Errorf("failed to get raw file: %w", err)
	}
	return data, nil
}

func (r *StorageRepository) readDocument(ctx context.Context, p string) (*types.Document, error) {
	reader, err := r.storage.Get(ctx, p)
	if err != nil {
		return nil, fmt.Errorf("failed to get document metadata: %w", err)
	}
	defer reader.Close()

	var doc types.Document
	if err := json.NewDecoder(reader).Decode(&doc); err != nil {
		return nil, fmt.Errorf("failed to decode document metadata: %w", err)
	}

	return &doc, nil
}

func (r *StorageRepository) readAll(ctx context.Context, p string) ([]byte, error) {
	reader, err := r.storage.Get(ctx, p)
	if err != nil {
		return nil, err
	}
	defer reader.Close()

	return io.ReadAll(reader)
}

func objectPath(id, name string) string {
	return rootPrefix + id + "/" + name
}
