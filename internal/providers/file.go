package providers

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/spf13/afero"

	"github.com/tyemirov/fsapi/internal/markdown"
	"github.com/tyemirov/fsapi/internal/mimetypes"
	"github.com/tyemirov/fsapi/internal/resolver"
	"github.com/tyemirov/fsapi/pkg/logging"
)

const (
	markdownExtension   = "md"
	markdownContentType = "text/html; charset=utf-8"

	logMessageFileReadFailed = "file read failed"
	logMessageInvalidText    = "text file is not valid utf-8"
)

var (
	ErrNotFound    = errors.New("provider.file.not_found")
	ErrInvalidText = errors.New("provider.file.invalid_text")
)

// textExtensions are validated as UTF-8 before being served.
var textExtensions = map[string]struct{}{
	"txt":  {},
	"html": {},
	"json": {},
	"css":  {},
	"js":   {},
}

// FileProvider reads single files.
type FileProvider struct {
	fileSystem      afero.Fs
	table           mimetypes.Table
	markdownEnabled bool
	loggingService  *logging.Service
}

// NewFileProvider constructs a FileProvider. With markdownEnabled set, Render turns
// .md files into HTML documents.
func NewFileProvider(fileSystem afero.Fs, table mimetypes.Table, markdownEnabled bool, loggingService *logging.Service) FileProvider {
	return FileProvider{
		fileSystem:      fileSystem,
		table:           table,
		markdownEnabled: markdownEnabled,
		loggingService:  loggingService,
	}
}

// Read returns the file bytes unchanged. Files with a text extension must be valid UTF-8.
func (provider FileProvider) Read(target resolver.FileTarget) ([]byte, error) {
	content, readErr := afero.ReadFile(provider.fileSystem, target.FilePath)
	if readErr != nil {
		provider.loggingService.Error(logMessageFileReadFailed, readErr, logging.String(logFieldFile, target.FilePath))
		return nil, fmt.Errorf("%w: %s", ErrNotFound, target.FilePath)
	}
	if _, isText := textExtensions[lowerExtension(target.FilePath)]; isText && !utf8.Valid(content) {
		provider.loggingService.Error(logMessageInvalidText, ErrInvalidText, logging.String(logFieldFile, target.FilePath))
		return nil, fmt.Errorf("%w: %s", ErrInvalidText, target.FilePath)
	}
	return content, nil
}

// Mimetype looks up the lowercased extension, defaulting to application/octet-stream.
func (provider FileProvider) Mimetype(target resolver.FileTarget) string {
	if entry, found := provider.table.Lookup(lowerExtension(target.FilePath)); found {
		return entry.Mimetype
	}
	return mimetypes.DefaultFile()
}

// Render returns the response body and content type for the target.
func (provider FileProvider) Render(target resolver.FileTarget) ([]byte, string, error) {
	content, readErr := provider.Read(target)
	if readErr != nil {
		return nil, "", readErr
	}
	if provider.markdownEnabled && lowerExtension(target.FilePath) == markdownExtension {
		renderedHTML, renderErr := markdown.ToHTML(content)
		if renderErr != nil {
			return nil, "", fmt.Errorf("render markdown: %w", renderErr)
		}
		documentTitle := strings.TrimSuffix(filepath.Base(target.FilePath), filepath.Ext(target.FilePath))
		return markdown.Document(documentTitle, renderedHTML), markdownContentType, nil
	}
	return content, provider.Mimetype(target), nil
}

func lowerExtension(filePath string) string {
	return strings.ToLower(extensionOf(filepath.Base(filePath)))
}
