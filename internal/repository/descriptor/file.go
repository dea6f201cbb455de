package descriptor

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/ratranqu/endstone/internal/service/resolver"
)

// DefaultFileMode is used for written documents; they are meant to be published.
const DefaultFileMode os.FileMode = 0o644

// Repository defines persistence operations for a bedrock server data document.
type Repository interface {
	Load(ctx context.Context) (*resolver.Document, error)
	Save(ctx context.Context, doc *resolver.Document) error
}

// FileRepository persists a document to a file. Paths ending in .json are
// written as indented JSON, anything else as YAML.
type FileRepository struct {
	// path is the filesystem location of the document.
	path string
	// mu protects concurrent access to the document file.
	mu sync.Mutex
}

var (
	// ErrNotFound is returned when the document file does not exist yet.
	ErrNotFound = errors.New("document not found")

	errNilDocument = errors.New("document is nil")
)

// NewFileRepository creates a repository for the document at path.
func NewFileRepository(path string) *FileRepository {
	return &FileRepository{
		path: filepath.Clean(path),
	}
}

// Path returns the document location.
func (r *FileRepository) Path() string {
	return r.path
}

// Load reads the document from disk.
func (r *FileRepository) Load(_ context.Context) (*resolver.Document, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	contents, err := os.ReadFile(r.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, ErrNotFound
		}

		return nil, fmt.Errorf("read document: %w", err)
	}

	doc, err := resolver.Parse(contents)
	if err != nil {
		return nil, fmt.Errorf("decode document: %w", err)
	}

	return doc, nil
}

// Save writes the document, replacing the file in one rename.
func (r *FileRepository) Save(_ context.Context, doc *resolver.Document) error {
	if doc == nil {
		return errNilDocument
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	data, err := r.encode(doc)
	if err != nil {
		return fmt.Errorf("encode document: %w", err)
	}

	temporary := r.path + ".tmp"
	if err = os.WriteFile(temporary, data, DefaultFileMode); err != nil {
		return fmt.Errorf("write document: %w", err)
	}

	if err = os.Rename(temporary, r.path); err != nil {
		_ = os.Remove(temporary)

		return fmt.Errorf("replace document: %w", err)
	}

	return nil
}

func (r *FileRepository) encode(doc *resolver.Document) ([]byte, error) {
	if !strings.EqualFold(filepath.Ext(r.path), ".json") {
		return yaml.Marshal(doc)
	}

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, err
	}

	return append(data, '\n'), nil
}
