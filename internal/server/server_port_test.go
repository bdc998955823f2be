package server

import (
	"context"
	"net"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/tyemirov/fsapi/internal/dispatch"
	"github.com/tyemirov/fsapi/internal/serverdetails"
	"github.com/tyemirov/fsapi/pkg/logging"
)

type staticDispatcher struct {
	response dispatch.Response
}

func (dispatcher staticDispatcher) Dispatch(string) dispatch.Response {
	return dispatcher.response
}

func TestIntegrationServerReturnsFriendlyErrorWhenPortInUse(t *testing.T) {
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	defer listener.Close()
	tcpAddr := listener.Addr().(*net.TCPAddr)
	portString := strconv.Itoa(tcpAddr.Port)

	serverInstance := NewServer(logging.NewTestService(logging.TypeConsole), serverdetails.NewServingAddressFormatter(), staticDispatcher{})
	configuration := Configuration{
		BindAddress:   "127.0.0.1",
		Port:          portString,
		RootDirectory: t.TempDir(),
		LoggingType:   "CONSOLE",
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	err = serverInstance.Serve(ctx, configuration)
	if err == nil {
		t.Fatalf("expected error when port is in use")
	}
	if !strings.Contains(err.Error(), "address in use") {
		t.Fatalf("expected address in use error, got %v", err)
	}
}

func TestServerStopsWhenContextIsCancelled(t *testing.T) {
	serverInstance := NewServer(logging.NewTestService(logging.TypeJSON), serverdetails.NewServingAddressFormatter(), staticDispatcher{})
	configuration := Configuration{
		BindAddress:   "127.0.0.1",
		Port:          "0",
		RootDirectory: t.TempDir(),
	}

	ctx, cancel := context.WithCancel(context.Background())
	serveErrors := make(chan error, 1)
	go func() {
		serveErrors <- serverInstance.Serve(ctx, configuration)
	}()
	time.Sleep(100 * time.Millisecond)
	cancel()

	select {
	case serveErr := <-serveErrors:
		if serveErr != nil {
			t.Fatalf("expected clean shutdown, got %v", serveErr)
		}
	case <-time.After(5 * time.Second):
		t.Fatalf("server did not stop after cancellation")
	}
}

func TestServerRequiresDispatcher(t *testing.T) {
	serverInstance := NewServer(logging.NewTestService(logging.TypeConsole), serverdetails.NewServingAddressFormatter(), nil)
	if err := serverInstance.Serve(context.Background(), Configuration{Port: "0"}); err == nil {
		t.Fatalf("expected error without dispatcher")
	}
}

func TestServerRejectsIncompleteTLSConfiguration(t *testing.T) {
	serverInstance := NewServer(logging.NewTestService(logging.TypeConsole), serverdetails.NewServingAddressFormatter(), staticDispatcher{})
	configuration := Configuration{
		BindAddress: "127.0.0.1",
		Port:        "0",
		TLS:         &TLSConfiguration{CertificatePath: "cert.pem"},
	}
	err := serverInstance.Serve(context.Background(), configuration)
	if err == nil || !strings.Contains(err.Error(), "configure tls") {
		t.Fatalf("expected tls configuration error, got %v", err)
	}
}
