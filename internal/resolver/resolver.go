// Package resolver matches request paths against the ordered route table and validates
// the computed filesystem target.
package resolver

import (
	"errors"
	"fmt"
	"path"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/spf13/afero"

	"github.com/tyemirov/fsapi/internal/config"
	"github.com/tyemirov/fsapi/pkg/logging"
)

const (
	pathCaptureGroupName = "path"
	pathSeparator        = "/"

	logFieldPattern     = "pattern"
	logFieldRequest     = "request"
	logFieldResolved    = "resolved"
	logFieldProvider    = "provider"
	logFieldSubpath     = "subpath"
	logMessageMatching  = "matching route"
	logMessageMatched   = "matched route"
	logMessageResolved  = "resolved target"
	logMessageBadRegex  = "route pattern does not compile"
	logMessageNotFound  = "path does not exist"
	logMessageNotDir    = "path is not a directory"
	logMessageUnsafe    = "path escapes root"
	logMessageRouteMiss = "no route matched"
)

var (
	ErrRouteMiss      = errors.New("resolver.route.miss")
	ErrRegexCompile   = errors.New("resolver.route.regex")
	ErrTargetNotFound = errors.New("resolver.target.not_found")
	ErrUnsafePath     = errors.New("resolver.target.unsafe")
)

type compiledRoute struct {
	mapping    config.RouteMapping
	expression *regexp.Regexp
	compileErr error
}

// Resolver evaluates routes in declared order. It holds no mutable state and is safe
// for concurrent use.
type Resolver struct {
	rootDirectory  string
	routes         []compiledRoute
	fileSystem     afero.Fs
	loggingService *logging.Service
}

// New compiles the route table. Patterns that fail to compile are kept so that
// resolution reaching them fails closed.
func New(rootConfig *config.RootConfig, fileSystem afero.Fs, loggingService *logging.Service) *Resolver {
	routes := make([]compiledRoute, 0, len(rootConfig.Routes))
	for _, mapping := range rootConfig.Routes {
		expression, compileErr := regexp.Compile(mapping.Pattern)
		routes = append(routes, compiledRoute{mapping: mapping, expression: expression, compileErr: compileErr})
	}
	return &Resolver{
		rootDirectory:  rootConfig.RootDirectory,
		routes:         routes,
		fileSystem:     fileSystem,
		loggingService: loggingService,
	}
}

// Resolve returns the target for requestPath. The first matching route is final: a
// validation failure on it is returned without evaluating later routes.
func (resolver *Resolver) Resolve(requestPath string) (Target, error) {
	for _, route := range resolver.routes {
		resolver.loggingService.Debug(logMessageMatching, logging.String(logFieldPattern, route.mapping.Pattern), logging.String(logFieldRequest, requestPath))
		if route.compileErr != nil {
			resolver.loggingService.Error(logMessageBadRegex, route.compileErr, logging.String(logFieldPattern, route.mapping.Pattern))
			return nil, fmt.Errorf("%w: %s", ErrRegexCompile, route.mapping.Pattern)
		}

		if route.expression.NumSubexp() == 0 {
			if !route.expression.MatchString(requestPath) {
				continue
			}
			resolver.loggingService.Debug(logMessageMatched, logging.String(logFieldPattern, route.mapping.Pattern))
			return resolver.resolveFixedRoute(route.mapping, requestPath)
		}

		captureIndex := route.expression.SubexpIndex(pathCaptureGroupName)
		if captureIndex < 0 {
			continue
		}
		submatches := route.expression.FindStringSubmatchIndex(requestPath)
		if submatches == nil || submatches[2*captureIndex] < 0 {
			continue
		}
		capturedPath := requestPath[submatches[2*captureIndex]:submatches[2*captureIndex+1]]
		resolver.loggingService.Debug(logMessageMatched, logging.String(logFieldPattern, route.mapping.Pattern), logging.String(logFieldSubpath, capturedPath))
		return resolver.resolveCapturedRoute(route.mapping, requestPath, capturedPath)
	}
	resolver.loggingService.Debug(logMessageRouteMiss, logging.String(logFieldRequest, requestPath))
	return nil, fmt.Errorf("%w: %s", ErrRouteMiss, requestPath)
}

// resolveFixedRoute serves the route's mapped path itself, relative to the root directory.
func (resolver *Resolver) resolveFixedRoute(mapping config.RouteMapping, requestPath string) (Target, error) {
	mappedPath := strings.TrimPrefix(mapping.EffectiveMappedPath(), pathSeparator)
	resolvedPath := filepath.Join(resolver.rootDirectory, filepath.FromSlash(mappedPath))
	return resolver.validate(mapping.EffectiveProvider(), resolvedPath, requestPath, requestPath)
}

// resolveCapturedRoute joins the captured subpath under root/mapped_path.
func (resolver *Resolver) resolveCapturedRoute(mapping config.RouteMapping, requestPath string, capturedPath string) (Target, error) {
	effectiveRoot := filepath.Join(resolver.rootDirectory, filepath.FromSlash(mapping.EffectiveMappedPath()))
	relativePath, safe := localSubpath(capturedPath)
	if !safe {
		resolver.loggingService.Error(logMessageUnsafe, ErrUnsafePath, logging.String(logFieldRequest, requestPath), logging.String(logFieldSubpath, capturedPath))
		return nil, fmt.Errorf("%w: %s", ErrUnsafePath, capturedPath)
	}
	resolvedPath := filepath.Join(effectiveRoot, filepath.FromSlash(relativePath))
	return resolver.validate(mapping.EffectiveProvider(), resolvedPath, requestPath, capturedPath)
}

func (resolver *Resolver) validate(provider config.Provider, resolvedPath string, requestPath string, listingPath string) (Target, error) {
	resolver.loggingService.Debug(logMessageResolved, logging.String(logFieldResolved, resolvedPath), logging.String(logFieldProvider, string(provider)))
	fileInfo, statErr := resolver.fileSystem.Stat(resolvedPath)
	if statErr != nil {
		resolver.loggingService.Error(logMessageNotFound, statErr, logging.String(logFieldResolved, resolvedPath))
		return nil, fmt.Errorf("%w: %s", ErrTargetNotFound, resolvedPath)
	}

	switch provider {
	case config.ProviderAPI:
		if !fileInfo.IsDir() {
			resolver.loggingService.Error(logMessageNotDir, ErrTargetNotFound, logging.String(logFieldResolved, resolvedPath))
			return nil, fmt.Errorf("%w: not a directory: %s", ErrTargetNotFound, resolvedPath)
		}
		return APITarget{DirectoryPath: resolvedPath, Request: requestPath, ListingPath: listingPath}, nil
	default:
		if fileInfo.IsDir() {
			return DirectoryTarget{DirectoryPath: resolvedPath, Request: requestPath}, nil
		}
		return FileTarget{FilePath: resolvedPath, Request: requestPath}, nil
	}
}

// localSubpath strips one leading separator and reports whether the cleaned remainder
// stays inside the directory it is joined to.
func localSubpath(subpath string) (string, bool) {
	trimmed := strings.TrimPrefix(subpath, pathSeparator)
	if trimmed == "" {
		return "", true
	}
	cleaned := path.Clean(trimmed)
	if cleaned == "." {
		return "", true
	}
	if !filepath.IsLocal(filepath.FromSlash(cleaned)) {
		return "", false
	}
	return cleaned, true
}
