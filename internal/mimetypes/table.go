// Package mimetypes maps file extensions to MIME types and display icons.
package mimetypes

import (
	"github.com/tyemirov/fsapi/internal/config"
)

const (
	DefaultFileMimetype      = "application/octet-stream"
	DefaultDirectoryMimetype = "application/directory"
	DefaultDirectoryIcon     = "📂"
)

// Entry is a resolved extension mapping.
type Entry struct {
	Extension string
	Mimetype  string
	Icon      string
}

// Table is a read-only extension lookup. Later entries win on duplicate extensions.
type Table struct {
	entries map[string]Entry
}

// NewTable builds a Table from configured entries. Extensions are stored as given.
func NewTable(configuredEntries []config.MimetypeEntry) Table {
	entries := make(map[string]Entry, len(configuredEntries))
	for _, configuredEntry := range configuredEntries {
		entries[configuredEntry.Extension] = Entry{
			Extension: configuredEntry.Extension,
			Mimetype:  configuredEntry.Mimetype,
			Icon:      configuredEntry.Icon,
		}
	}
	return Table{entries: entries}
}

// Lookup matches the extension exactly, without a leading dot and without case folding.
func (table Table) Lookup(extension string) (Entry, bool) {
	if extension == "" {
		return Entry{}, false
	}
	entry, found := table.entries[extension]
	return entry, found
}

// DefaultFile is the MIME type for files without a table entry.
func DefaultFile() string {
	return DefaultFileMimetype
}

// DefaultDirectory is the listing fallback for entries without a table entry.
func DefaultDirectory() Entry {
	return Entry{Mimetype: DefaultDirectoryMimetype, Icon: DefaultDirectoryIcon}
}
