package server

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/tyemirov/fsapi/internal/dispatch"
	"github.com/tyemirov/fsapi/internal/serverdetails"
	"github.com/tyemirov/fsapi/pkg/logging"
)

const (
	defaultLogTimeLayout        = "2006-01-02 15:04:05"
	serverHeaderName            = "Server"
	serverHeaderValue           = "fsapi"
	contentTypeHeaderName       = "Content-Type"
	contentLengthHeaderName     = "Content-Length"
	catchAllRoutePattern        = "/*"
	consoleRequestTimeLayout    = "02/Jan/2006 15:04:05"
	logFieldDirectory           = "directory"
	logFieldURL                 = "url"
	logFieldMethod              = "method"
	logFieldPath                = "path"
	logFieldProtocol            = "protocol"
	logFieldRemote              = "remote"
	logFieldDuration            = "duration"
	logFieldStatus              = "status"
	logFieldTimestamp           = "timestamp"
	logMessageServingHTTP       = "serving http"
	logMessageServingHTTPS      = "serving https"
	logMessageShutdownInitiated = "shutdown initiated"
	logMessageShutdownCompleted = "shutdown completed"
	logMessageShutdownFailed    = "shutdown failed"
	logMessageServerError       = "server error"
	logMessageRequestStarted    = "request started"
	logMessageRequestCompleted  = "request completed"
	shutdownGracePeriod         = 3 * time.Second
)

// Configuration describes how the transport listens.
type Configuration struct {
	BindAddress   string
	Port          string
	RootDirectory string
	LoggingType   string
	TLS           *TLSConfiguration
}

// TLSConfiguration describes transport layer security configuration.
type TLSConfiguration struct {
	CertificatePath   string
	PrivateKeyPath    string
	LoadedCertificate *tls.Certificate
}

// RequestDispatcher produces the response for a decoded request path.
type RequestDispatcher interface {
	Dispatch(requestPath string) dispatch.Response
}

// Server frames dispatcher responses over HTTP or HTTPS.
type Server struct {
	loggingService          *logging.Service
	servingAddressFormatter serverdetails.ServingAddressFormatter
	dispatcher              RequestDispatcher
}

// NewServer constructs a Server.
func NewServer(loggingService *logging.Service, servingAddressFormatter serverdetails.ServingAddressFormatter, dispatcher RequestDispatcher) Server {
	return Server{loggingService: loggingService, servingAddressFormatter: servingAddressFormatter, dispatcher: dispatcher}
}

// Handler builds the complete request handler chain.
func (server Server) Handler(configuration Configuration) http.Handler {
	router := chi.NewRouter()
	router.Use(middleware.Recoverer)
	router.Get(catchAllRoutePattern, server.serveDispatch)
	router.Head(catchAllRoutePattern, server.serveDispatch)

	loggingType := server.loggingService.Type()
	if configuration.LoggingType != "" {
		if normalizedType, normalizeErr := logging.NormalizeType(configuration.LoggingType); normalizeErr == nil {
			loggingType = normalizedType
		}
	}
	return server.wrapWithLogging(server.wrapWithHeaders(router), loggingType)
}

// Serve runs the HTTP server until the context is cancelled or an error occurs.
func (server Server) Serve(ctx context.Context, configuration Configuration) error {
	if server.loggingService == nil {
		return errors.New("logging service not configured")
	}
	if server.dispatcher == nil {
		return errors.New("dispatcher not configured")
	}
	listeningAddress := net.JoinHostPort(configuration.BindAddress, configuration.Port)
	displayAddress := server.servingAddressFormatter.FormatHostAndPortForLogging(configuration.BindAddress, configuration.Port)

	httpServer := &http.Server{
		Addr:              listeningAddress,
		Handler:           server.Handler(configuration),
		ReadHeaderTimeout: 15 * time.Second,
	}

	certificateConfigured, configureErr := server.configureTLS(httpServer, configuration.TLS)
	if configureErr != nil {
		return fmt.Errorf("configure tls: %w", configureErr)
	}

	scheme := "http"
	activeMessage := logMessageServingHTTP
	if certificateConfigured {
		scheme = "https"
		activeMessage = logMessageServingHTTPS
	}
	if server.loggingService.Type() == logging.TypeConsole {
		server.loggingService.Info(formatConsoleStartMessage(configuration, certificateConfigured, displayAddress))
	} else {
		server.loggingService.Info(
			activeMessage,
			logging.String(logFieldDirectory, configuration.RootDirectory),
			logging.String(logFieldURL, server.servingAddressFormatter.FormatURLForLogging(scheme, configuration.BindAddress, configuration.Port)),
			logging.String(logFieldTimestamp, time.Now().Format(defaultLogTimeLayout)),
		)
	}

	serverErrors := make(chan error, 1)
	go func() {
		var serveErr error
		if certificateConfigured {
			serveErr = httpServer.ListenAndServeTLS("", "")
		} else {
			serveErr = httpServer.ListenAndServe()
		}
		serverErrors <- serveErr
	}()

	select {
	case <-ctx.Done():
		server.loggingService.Info(logMessageShutdownInitiated)
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGracePeriod)
		defer cancel()
		shutdownErr := httpServer.Shutdown(shutdownCtx)
		if shutdownErr != nil {
			server.loggingService.Error(logMessageShutdownFailed, shutdownErr)
			return fmt.Errorf("shutdown server: %w", shutdownErr)
		}
		server.loggingService.Info(logMessageShutdownCompleted)
		return nil
	case serveErr := <-serverErrors:
		if serveErr != nil && !errors.Is(serveErr, http.ErrServerClosed) {
			if isAddressInUse(serveErr) {
				friendlyMessage := formatAddressInUseMessage(configuration)
				server.loggingService.Error(friendlyMessage, serveErr)
				return fmt.Errorf("address in use: %s", friendlyMessage)
			}
			server.loggingService.Error(logMessageServerError, serveErr)
			return fmt.Errorf("serve http: %w", serveErr)
		}
		return nil
	}
}

func (server Server) serveDispatch(responseWriter http.ResponseWriter, request *http.Request) {
	response := server.dispatcher.Dispatch(request.URL.Path)
	if response.ContentType != "" {
		responseWriter.Header().Set(contentTypeHeaderName, response.ContentType)
	}
	responseWriter.Header().Set(contentLengthHeaderName, strconv.Itoa(len(response.Body)))
	responseWriter.WriteHeader(response.Status)
	if request.Method == http.MethodHead {
		return
	}
	_, _ = responseWriter.Write(response.Body)
}

func (server Server) wrapWithHeaders(handler http.Handler) http.Handler {
	return http.HandlerFunc(func(responseWriter http.ResponseWriter, request *http.Request) {
		responseWriter.Header().Set(serverHeaderName, serverHeaderValue)
		handler.ServeHTTP(responseWriter, request)
	})
}

func (server Server) wrapWithLogging(handler http.Handler, loggingType string) http.Handler {
	if server.loggingService == nil {
		return handler
	}
	switch loggingType {
	case logging.TypeConsole:
		return http.HandlerFunc(func(responseWriter http.ResponseWriter, request *http.Request) {
			recordedWriter := newStatusRecorder(responseWriter)
			startTime := time.Now()
			handler.ServeHTTP(recordedWriter, request)
			message := formatConsoleRequestLog(request, recordedWriter.statusCode, recordedWriter.bytesWritten, startTime)
			server.loggingService.Info(message)
		})
	default:
		return http.HandlerFunc(func(responseWriter http.ResponseWriter, request *http.Request) {
			recordedWriter := newStatusRecorder(responseWriter)
			startTime := time.Now()
			server.loggingService.Debug(
				logMessageRequestStarted,
				logging.String(logFieldMethod, request.Method),
				logging.String(logFieldPath, request.URL.Path),
				logging.String(logFieldProtocol, request.Proto),
				logging.String(logFieldRemote, request.RemoteAddr),
			)
			handler.ServeHTTP(recordedWriter, request)
			server.loggingService.Info(
				logMessageRequestCompleted,
				logging.String(logFieldMethod, request.Method),
				logging.String(logFieldPath, request.URL.Path),
				logging.Int(logFieldStatus, recordedWriter.statusCode),
				logging.Duration(logFieldDuration, time.Since(startTime)),
				logging.String(logFieldRemote, request.RemoteAddr),
			)
		})
	}
}

func formatConsoleStartMessage(configuration Configuration, certificateConfigured bool, displayAddress string) string {
	bindAddress := configuration.BindAddress
	if strings.TrimSpace(bindAddress) == "" {
		bindAddress = "0.0.0.0"
	}
	scheme := "http"
	schemeLabel := "HTTP"
	if certificateConfigured {
		scheme = "https"
		schemeLabel = "HTTPS"
	}
	return fmt.Sprintf("Serving %s from %s on %s port %s (%s://%s/) ...", schemeLabel, configuration.RootDirectory, bindAddress, configuration.Port, scheme, displayAddress)
}

func formatConsoleRequestLog(request *http.Request, statusCode int, bytesWritten int, startTime time.Time) string {
	clientAddress := request.RemoteAddr
	if host, _, err := net.SplitHostPort(clientAddress); err == nil {
		clientAddress = host
	}
	timestamp := startTime.Format(consoleRequestTimeLayout)
	requestTarget := request.URL.RequestURI()
	if requestTarget == "" {
		requestTarget = request.URL.Path
	}
	requestLine := fmt.Sprintf("%s %s %s", request.Method, requestTarget, request.Proto)
	sizeField := "-"
	if bytesWritten > 0 {
		sizeField = strconv.Itoa(bytesWritten)
	}
	return fmt.Sprintf("%s - - [%s] \"%s\" %d %s", clientAddress, timestamp, requestLine, statusCode, sizeField)
}

func (server Server) configureTLS(httpServer *http.Server, configuration *TLSConfiguration) (bool, error) {
	if configuration == nil {
		return false, nil
	}
	if configuration.LoadedCertificate != nil {
		httpServer.TLSConfig = &tls.Config{Certificates: []tls.Certificate{*configuration.LoadedCertificate}}
		return true, nil
	}
	if configuration.CertificatePath == "" || configuration.PrivateKeyPath == "" {
		return false, errors.New("both certificate and private key paths must be provided")
	}
	certificate, err := tls.LoadX509KeyPair(configuration.CertificatePath, configuration.PrivateKeyPath)
	if err != nil {
		return false, err
	}
	httpServer.TLSConfig = &tls.Config{Certificates: []tls.Certificate{certificate}}
	return true, nil
}

type statusRecorder struct {
	http.ResponseWriter
	statusCode   int
	bytesWritten int
}

func (recorder *statusRecorder) WriteHeader(statusCode int) {
	recorder.statusCode = statusCode
	recorder.ResponseWriter.WriteHeader(statusCode)
}

func (recorder *statusRecorder) Write(content []byte) (int, error) {
	written, err := recorder.ResponseWriter.Write(content)
	recorder.bytesWritten += written
	return written, err
}

func newStatusRecorder(responseWriter http.ResponseWriter) *statusRecorder {
	return &statusRecorder{ResponseWriter: responseWriter, statusCode: http.StatusOK}
}

func formatAddressInUseMessage(configuration Configuration) string {
	bindAddress := configuration.BindAddress
	if strings.TrimSpace(bindAddress) == "" {
		bindAddress = "0.0.0.0"
	}
	return fmt.Sprintf("Address already in use: %s:%s", bindAddress, configuration.Port)
}

func isAddressInUse(err error) bool {
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		if errors.Is(opErr.Err, syscall.EADDRINUSE) {
			return true
		}
		var syscallErr *os.SyscallError
		if errors.As(opErr.Err, &syscallErr) {
			return errors.Is(syscallErr.Err, syscall.EADDRINUSE)
		}
	}
	var syscallErr *os.SyscallError
	if errors.As(err, &syscallErr) {
		return errors.Is(syscallErr.Err, syscall.EADDRINUSE)
	}
	return errors.Is(err, syscall.EADDRINUSE)
}
