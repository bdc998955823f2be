package app

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"

	"github.com/tyemirov/fsapi/internal/config"
	"github.com/tyemirov/fsapi/pkg/logging"
)

type contextKey string

const (
	contextKeyApplicationResources contextKey = "application-resources"
	contextKeyServeConfiguration   contextKey = "serve-configuration"

	defaultApplicationName = "fsapi"
	defaultConfigFilePath  = "./config.yaml"

	flagNameConfigFile         = "config"
	flagNameListenHost         = "api-host"
	flagNameListenPort         = "api-port"
	flagNameRootDirectory      = "root"
	flagNameShellPath          = "shell"
	flagNameLogLevel           = "log-level"
	flagNameLoggingType        = "logging-type"
	flagNameTLSCertificatePath = "tls-cert"
	flagNameTLSKeyPath         = "tls-key"
	flagNameMarkdown           = "markdown"

	logMessageFailedInitializeLogger = "failed to initialize logger"
	logMessageCommandExecutionFailed = "command execution failed"
)

type applicationResources struct {
	configurationManager *viper.Viper
	loggingService       *logging.Service
}

func (resources *applicationResources) updateLogger(loggingType string, loggingLevel string) error {
	normalizedType, err := logging.NormalizeType(loggingType)
	if err != nil {
		return err
	}
	normalizedLevel, err := logging.NormalizeLevel(loggingLevel)
	if err != nil {
		return err
	}
	if resources.loggingService != nil && resources.loggingService.Type() == normalizedType && resources.loggingService.Level() == normalizedLevel {
		return nil
	}
	service, err := logging.NewServiceWithLevel(normalizedType, normalizedLevel)
	if err != nil {
		return err
	}
	if resources.loggingService != nil {
		_ = resources.loggingService.Sync()
	}
	resources.loggingService = service
	return nil
}

func newConfigurationManager() *viper.Viper {
	configurationManager := viper.New()
	configurationManager.SetEnvPrefix(strings.ToUpper(defaultApplicationName))
	configurationManager.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	configurationManager.AutomaticEnv()
	config.SetDefaults(configurationManager)
	return configurationManager
}

// Execute runs the CLI using the provided context and arguments, returning an exit code.
func Execute(ctx context.Context, arguments []string) int {
	initialService, err := logging.NewService(logging.TypeConsole)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", logMessageFailedInitializeLogger, err)
		return 1
	}
	resources := &applicationResources{
		configurationManager: newConfigurationManager(),
		loggingService:       initialService,
	}
	defer func() {
		if resources.loggingService != nil {
			_ = resources.loggingService.Sync()
		}
	}()

	rootCommand := newRootCommand(resources)
	baseContext := context.WithValue(ctx, contextKeyApplicationResources, resources)
	rootCommand.SetContext(baseContext)
	rootCommand.SetArgs(arguments)

	if executionErr := rootCommand.Execute(); executionErr != nil {
		resources.loggingService.Error(logMessageCommandExecutionFailed, executionErr)
		return 1
	}

	return 0
}
