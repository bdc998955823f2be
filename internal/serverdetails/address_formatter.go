package serverdetails

import (
	"fmt"
	"net"
	"strings"
)

const (
	localhostDisplayName = "localhost"
	schemeSuffix         = "://"
)

var localBindAddresses = map[string]struct{}{
	"":          {},
	"0.0.0.0":   {},
	"127.0.0.1": {},
	"::":        {},
	"::1":       {},
}

// ServingAddressFormatter renders listening addresses for humans.
type ServingAddressFormatter interface {
	FormatHostAndPortForLogging(bindAddress string, port string) string
	FormatURLForLogging(scheme string, bindAddress string, port string) string
}

type servingAddressFormatter struct{}

// NewServingAddressFormatter returns the default formatter. Wildcard and loopback bind
// addresses are shown as localhost.
func NewServingAddressFormatter() ServingAddressFormatter {
	return servingAddressFormatter{}
}

func (formatter servingAddressFormatter) FormatHostAndPortForLogging(bindAddress string, port string) string {
	host := strings.TrimSpace(bindAddress)
	if _, isLocal := localBindAddresses[host]; isLocal {
		host = localhostDisplayName
	}
	return net.JoinHostPort(host, port)
}

func (formatter servingAddressFormatter) FormatURLForLogging(scheme string, bindAddress string, port string) string {
	trimmedScheme := strings.TrimSuffix(strings.TrimSpace(scheme), schemeSuffix)
	return fmt.Sprintf("%s://%s", trimmedScheme, formatter.FormatHostAndPortForLogging(bindAddress, port))
}
