// Package storage defines the vault file-system abstraction.
package storage

import "time"

// FileInfo is lightweight metadata returned by list and stat operations.
type FileInfo struct {
	Path      string    `json:"path"`
	Size      int64     `json:"size"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Provider is the interface for vault file operations. All paths are
// relative to the vault root.
type Provider interface {
	// List returns metadata for every file under dir whose extension is in
	// exts (e.g. ".md", ".png"). Empty exts lists everything.
	List(dir string, exts ...string) ([]FileInfo, error)
	// Read returns the raw bytes of the file at path.
	Read(path string) ([]byte, error)
	// Write atomically writes content to path.
	Write(path string, content []byte) error
	// Stat returns metadata for a single file.
	Stat(path string) (FileInfo, error)
	// Root returns the absolute vault root directory.
	Root() string
}
