package app

import (
	"testing"

	"github.com/tyemirov/fsapi/internal/config"
	"github.com/tyemirov/fsapi/pkg/logging"
)

func TestNewRootCommandRegistersFlags(t *testing.T) {
	resources := &applicationResources{
		configurationManager: newConfigurationManager(),
		loggingService:       logging.NewTestService(logging.TypeConsole),
	}

	defer func() {
		if recovered := recover(); recovered != nil {
			t.Fatalf("newRootCommand panicked: %v", recovered)
		}
	}()

	rootCommand := newRootCommand(resources)
	flagNames := []string{
		flagNameListenHost,
		flagNameListenPort,
		flagNameRootDirectory,
		flagNameShellPath,
		flagNameLogLevel,
		flagNameLoggingType,
		flagNameMarkdown,
		flagNameTLSCertificatePath,
		flagNameTLSKeyPath,
	}
	for _, flagName := range flagNames {
		if rootCommand.Flags().Lookup(flagName) == nil {
			t.Fatalf("expected %s flag to be registered", flagName)
		}
	}
	if rootCommand.PersistentFlags().Lookup(flagNameConfigFile) == nil {
		t.Fatalf("expected config flag to be registered")
	}
}

func TestRootCommandFlagsOverrideConfiguration(t *testing.T) {
	resources := &applicationResources{
		configurationManager: newConfigurationManager(),
		loggingService:       logging.NewTestService(logging.TypeConsole),
	}
	rootCommand := newRootCommand(resources)

	if err := rootCommand.ParseFlags([]string{"--" + flagNameListenPort, "9000", "--" + flagNameMarkdown}); err != nil {
		t.Fatalf("parse flags: %v", err)
	}

	if port := resources.configurationManager.GetInt(config.KeyListenPort); port != 9000 {
		t.Fatalf("expected port 9000, got %d", port)
	}
	if !resources.configurationManager.GetBool(config.KeyMarkdownEnabled) {
		t.Fatalf("expected markdown to be enabled")
	}
	if host := resources.configurationManager.GetString(config.KeyListenHost); host != "127.0.0.1" {
		t.Fatalf("expected default host, got %s", host)
	}
}
