package storage

import (
	"os"

	"github.com/starford/raido/internal/models"
)

// Provider abstracts vault file access so the core can be tested against a
// temp directory and, eventually, other backends.
type Provider interface {
	// List walks dir (relative to root, "" for the whole vault) and returns
	// metadata for every .md file, excluded folders skipped.
	List(dir string) ([]models.NoteMetadata, error)
	Read(path string) ([]byte, error)
	Write(path string, content []byte) error
	Delete(path string) error
	Move(oldPath, newPath string) error
	// Stat resolves path inside the vault and stats it. It returns an error
	// both for missing files and for paths escaping the root.
	Stat(path string) (os.FileInfo, error)
	// Verify checks that path stays inside the vault root without requiring
	// the file to exist.
	Verify(path string) error
	Root() string
}
