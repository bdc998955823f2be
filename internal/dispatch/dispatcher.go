// Package dispatch turns a request path into a status, content type and body.
package dispatch

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/tyemirov/fsapi/internal/providers"
	"github.com/tyemirov/fsapi/internal/resolver"
	"github.com/tyemirov/fsapi/pkg/logging"
)

const (
	NotFoundBody       = "Not Found"
	InvalidTextBody    = "[Invalid UTF-8]"
	InternalErrorBody  = "Internal Server Error"
	plainTextMediaType = "text/plain; charset=utf-8"

	logFieldRequest          = "request"
	logFieldTarget           = "target"
	logMessageNotResolved    = "request not resolved"
	logMessageProviderFailed = "provider failed"
	logMessageListingEncode  = "listing encoding failed"
	logMessageUnknownTarget  = "unknown target type"
)

// Response is the transport-neutral outcome of a dispatch.
type Response struct {
	Status      int
	ContentType string
	Body        []byte
}

// PathResolver resolves request paths to targets.
type PathResolver interface {
	Resolve(requestPath string) (resolver.Target, error)
}

// Dispatcher routes resolved targets to their provider.
type Dispatcher struct {
	pathResolver    PathResolver
	listingProvider providers.ListingProvider
	fileProvider    providers.FileProvider
	shellProvider   providers.ShellProvider
	loggingService  *logging.Service
}

// NewDispatcher constructs a Dispatcher.
func NewDispatcher(pathResolver PathResolver, listingProvider providers.ListingProvider, fileProvider providers.FileProvider, shellProvider providers.ShellProvider, loggingService *logging.Service) *Dispatcher {
	return &Dispatcher{
		pathResolver:    pathResolver,
		listingProvider: listingProvider,
		fileProvider:    fileProvider,
		shellProvider:   shellProvider,
		loggingService:  loggingService,
	}
}

// Dispatch resolves requestPath, which must already be percent-decoded, and invokes the
// matching provider. Every resolution failure is reported as 404.
func (dispatcher *Dispatcher) Dispatch(requestPath string) Response {
	target, resolveErr := dispatcher.pathResolver.Resolve(requestPath)
	if resolveErr != nil {
		dispatcher.loggingService.Debug(logMessageNotResolved, logging.String(logFieldRequest, requestPath), logging.ErrorField(resolveErr))
		return notFound()
	}

	switch typedTarget := target.(type) {
	case resolver.APITarget:
		body, encodeErr := dispatcher.listingProvider.JSON(typedTarget)
		if encodeErr != nil {
			dispatcher.loggingService.Error(logMessageListingEncode, encodeErr, logging.String(logFieldTarget, typedTarget.DirectoryPath))
			return textResponse(http.StatusInternalServerError, InternalErrorBody)
		}
		return Response{Status: http.StatusOK, ContentType: dispatcher.listingProvider.ContentType(), Body: body}
	case resolver.FileTarget:
		body, contentType, renderErr := dispatcher.fileProvider.Render(typedTarget)
		if renderErr != nil {
			return dispatcher.fileFailure(typedTarget, renderErr)
		}
		return Response{Status: http.StatusOK, ContentType: contentType, Body: body}
	case resolver.DirectoryTarget:
		return Response{Status: http.StatusOK, ContentType: dispatcher.shellProvider.ContentType(), Body: dispatcher.shellProvider.Shell(typedTarget)}
	default:
		dispatcher.loggingService.Error(logMessageUnknownTarget, fmt.Errorf("unhandled target type %T", target), logging.String(logFieldRequest, requestPath))
		return textResponse(http.StatusInternalServerError, InternalErrorBody)
	}
}

func (dispatcher *Dispatcher) fileFailure(target resolver.FileTarget, renderErr error) Response {
	dispatcher.loggingService.Error(logMessageProviderFailed, renderErr, logging.String(logFieldRequest, target.Request), logging.String(logFieldTarget, target.FilePath))
	switch {
	case errors.Is(renderErr, providers.ErrNotFound):
		return notFound()
	case errors.Is(renderErr, providers.ErrInvalidText):
		return textResponse(http.StatusInternalServerError, InvalidTextBody)
	default:
		return textResponse(http.StatusInternalServerError, InternalErrorBody)
	}
}

func notFound() Response {
	return textResponse(http.StatusNotFound, NotFoundBody)
}

func textResponse(status int, body string) Response {
	return Response{Status: status, ContentType: plainTextMediaType, Body: []byte(body)}
}
