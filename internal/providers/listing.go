// Package providers produces response content for resolved targets.
package providers

import (
	"encoding/json"
	"io/fs"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"

	"github.com/tyemirov/fsapi/internal/mimetypes"
	"github.com/tyemirov/fsapi/internal/resolver"
	"github.com/tyemirov/fsapi/pkg/logging"
)

const (
	ListingContentType = "application/json"

	logFieldDirectory       = "directory"
	logFieldFile            = "file"
	logFieldEntries         = "entries"
	logMessageListingFailed = "directory listing failed"
	logMessageListed        = "directory listed"
)

// DirectoryEntry is one child in a listing. Request is the listed directory's own path;
// clients derive the child address by joining Request and Name.
type DirectoryEntry struct {
	Name         string `json:"name"`
	Mimetype     string `json:"mimetype"`
	MimetypeIcon string `json:"mimetype_icon"`
	IsDir        bool   `json:"is_dir"`
	Request      string `json:"request"`
}

// ListingProvider enumerates the immediate children of an api target.
type ListingProvider struct {
	fileSystem          afero.Fs
	table               mimetypes.Table
	normalizeExtensions bool
	loggingService      *logging.Service
}

// NewListingProvider constructs a ListingProvider. With normalizeExtensions set, child
// extensions are lowercased before the table lookup.
func NewListingProvider(fileSystem afero.Fs, table mimetypes.Table, normalizeExtensions bool, loggingService *logging.Service) ListingProvider {
	return ListingProvider{
		fileSystem:          fileSystem,
		table:               table,
		normalizeExtensions: normalizeExtensions,
		loggingService:      loggingService,
	}
}

// List returns the children sorted by name. Read failures yield an empty listing.
func (provider ListingProvider) List(target resolver.APITarget) []DirectoryEntry {
	children, readErr := afero.ReadDir(provider.fileSystem, target.DirectoryPath)
	if readErr != nil {
		provider.loggingService.Error(logMessageListingFailed, readErr, logging.String(logFieldDirectory, target.DirectoryPath))
		return []DirectoryEntry{}
	}

	entries := make([]DirectoryEntry, 0, len(children))
	for _, child := range children {
		displayEntry := mimetypes.DefaultDirectory()
		extension := extensionOf(child.Name())
		if provider.normalizeExtensions {
			extension = strings.ToLower(extension)
		}
		if tableEntry, found := provider.table.Lookup(extension); found {
			displayEntry = tableEntry
		}
		entries = append(entries, DirectoryEntry{
			Name:         child.Name(),
			Mimetype:     displayEntry.Mimetype,
			MimetypeIcon: displayEntry.Icon,
			IsDir:        provider.isDirectory(target.DirectoryPath, child),
			Request:      target.ListingPath,
		})
	}
	provider.loggingService.Debug(logMessageListed, logging.String(logFieldDirectory, target.DirectoryPath), logging.Int(logFieldEntries, len(entries)))
	return entries
}

// JSON serializes the listing as a bare array.
func (provider ListingProvider) JSON(target resolver.APITarget) ([]byte, error) {
	return json.Marshal(provider.List(target))
}

// ContentType is the content type of every listing response.
func (provider ListingProvider) ContentType() string {
	return ListingContentType
}

// isDirectory follows symbolic links so a link to a directory reports as one.
func (provider ListingProvider) isDirectory(directoryPath string, child fs.FileInfo) bool {
	if child.Mode()&fs.ModeSymlink == 0 {
		return child.IsDir()
	}
	targetInfo, statErr := provider.fileSystem.Stat(filepath.Join(directoryPath, child.Name()))
	if statErr != nil {
		return false
	}
	return targetInfo.IsDir()
}

// extensionOf returns the extension without its dot. Dotfiles such as ".profile" have none.
func extensionOf(name string) string {
	extension := filepath.Ext(name)
	if extension == name {
		return ""
	}
	return strings.TrimPrefix(extension, ".")
}
