package providers

import (
	"unicode/utf8"

	"github.com/spf13/afero"

	"github.com/tyemirov/fsapi/internal/resolver"
	"github.com/tyemirov/fsapi/pkg/logging"
)

const (
	ShellContentType = "text/html"
	ShellPlaceholder = "[File not found or invalid UTF-8]"

	logFieldShell            = "shell"
	logFieldRequest          = "request"
	logMessageShellFailed    = "application shell unavailable"
	logMessageShellRequested = "application shell requested"
)

// ShellProvider serves the fixed front-end entry point for directory targets.
type ShellProvider struct {
	fileSystem     afero.Fs
	shellPath      string
	loggingService *logging.Service
}

// NewShellProvider constructs a ShellProvider reading shellPath on every call.
func NewShellProvider(fileSystem afero.Fs, shellPath string, loggingService *logging.Service) ShellProvider {
	return ShellProvider{fileSystem: fileSystem, shellPath: shellPath, loggingService: loggingService}
}

// Shell returns the shell bytes regardless of which directory was requested.
// An unreadable or non UTF-8 shell yields ShellPlaceholder.
func (provider ShellProvider) Shell(target resolver.DirectoryTarget) []byte {
	provider.loggingService.Debug(logMessageShellRequested, logging.String(logFieldRequest, target.Request))
	content, readErr := afero.ReadFile(provider.fileSystem, provider.shellPath)
	if readErr != nil {
		provider.loggingService.Error(logMessageShellFailed, readErr, logging.String(logFieldShell, provider.shellPath))
		return []byte(ShellPlaceholder)
	}
	if !utf8.Valid(content) {
		provider.loggingService.Error(logMessageShellFailed, ErrInvalidText, logging.String(logFieldShell, provider.shellPath))
		return []byte(ShellPlaceholder)
	}
	return content
}

// ContentType is the content type of every shell response.
func (provider ShellProvider) ContentType() string {
	return ShellContentType
}
