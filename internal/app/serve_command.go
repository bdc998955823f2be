package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/tyemirov/fsapi/internal/config"
	"github.com/tyemirov/fsapi/internal/dispatch"
	"github.com/tyemirov/fsapi/internal/mimetypes"
	"github.com/tyemirov/fsapi/internal/providers"
	"github.com/tyemirov/fsapi/internal/resolver"
	"github.com/tyemirov/fsapi/internal/server"
	"github.com/tyemirov/fsapi/internal/serverdetails"
	"github.com/tyemirov/fsapi/pkg/logging"
)

const (
	logFieldSignal           = "signal"
	logFieldConfigFile       = "config_file"
	logFieldPattern          = "pattern"
	logFieldProvider         = "provider"
	logFieldMappedPath       = "mapped_path"
	logMessageReceivedSignal = "received signal"
	logMessageConfigLoaded   = "configuration loaded"
	logMessageConfigMissing  = "configuration file not found, using defaults"
	logMessageRouteLoaded    = "route loaded"
)

func prepareServeConfiguration(cmd *cobra.Command, args []string) error {
	resources, err := getApplicationResources(cmd)
	if err != nil {
		return err
	}
	configurationManager := resources.configurationManager

	if len(args) == 1 {
		argumentValue := strings.TrimSpace(args[0])
		portCandidate, parseErr := strconv.Atoi(argumentValue)
		if parseErr != nil || portCandidate <= 0 || portCandidate > 65535 {
			return fmt.Errorf("invalid port %s", argumentValue)
		}
		configurationManager.Set(config.KeyListenPort, portCandidate)
	}

	rootConfig, loadErr := config.Load(configurationManager)
	if loadErr != nil {
		return loadErr
	}
	if rootConfig.TLS.CertificatePath != "" {
		if _, certErr := os.Stat(rootConfig.TLS.CertificatePath); certErr != nil {
			return fmt.Errorf("stat tls certificate: %w", certErr)
		}
		if _, keyErr := os.Stat(rootConfig.TLS.PrivateKeyPath); keyErr != nil {
			return fmt.Errorf("stat tls private key: %w", keyErr)
		}
	}

	if loggerErr := resources.updateLogger(rootConfig.Log.Type, rootConfig.Log.Level); loggerErr != nil {
		return fmt.Errorf("configure logger: %w", loggerErr)
	}
	for _, mapping := range rootConfig.Routes {
		resources.loggingService.Debug(
			logMessageRouteLoaded,
			logging.String(logFieldPattern, mapping.Pattern),
			logging.String(logFieldProvider, string(mapping.EffectiveProvider())),
			logging.String(logFieldMappedPath, mapping.EffectiveMappedPath()),
		)
	}

	cmd.SetContext(context.WithValue(cmd.Context(), contextKeyServeConfiguration, rootConfig))
	return nil
}

func runServe(cmd *cobra.Command) error {
	resources, err := getApplicationResources(cmd)
	if err != nil {
		return err
	}
	serveConfigurationValue := cmd.Context().Value(contextKeyServeConfiguration)
	if serveConfigurationValue == nil {
		return errors.New("serve configuration not initialized")
	}
	rootConfig, ok := serveConfigurationValue.(*config.RootConfig)
	if !ok {
		return errors.New("serve configuration has unexpected type")
	}

	serverConfiguration := server.Configuration{
		BindAddress:   rootConfig.Listen.Host,
		Port:          strconv.Itoa(rootConfig.Listen.Port),
		RootDirectory: rootConfig.RootDirectory,
		LoggingType:   resources.loggingService.Type(),
	}
	if rootConfig.TLS.CertificatePath != "" {
		serverConfiguration.TLS = &server.TLSConfiguration{
			CertificatePath: rootConfig.TLS.CertificatePath,
			PrivateKeyPath:  rootConfig.TLS.PrivateKeyPath,
		}
	}

	dispatcher := newDispatcher(rootConfig, afero.NewOsFs(), resources.loggingService)
	serverInstance := server.NewServer(resources.loggingService, serverdetails.NewServingAddressFormatter(), dispatcher)
	serveContext, cancel := createSignalContext(cmd.Context(), resources.loggingService)
	defer cancel()

	return serverInstance.Serve(serveContext, serverConfiguration)
}

// newDispatcher wires the resolver and the providers over fileSystem.
func newDispatcher(rootConfig *config.RootConfig, fileSystem afero.Fs, loggingService *logging.Service) *dispatch.Dispatcher {
	table := mimetypes.NewTable(rootConfig.Mimetypes)
	return dispatch.NewDispatcher(
		resolver.New(rootConfig, fileSystem, loggingService),
		providers.NewListingProvider(fileSystem, table, rootConfig.NormalizeExtensions, loggingService),
		providers.NewFileProvider(fileSystem, table, rootConfig.MarkdownEnabled, loggingService),
		providers.NewShellProvider(fileSystem, rootConfig.ShellPath, loggingService),
		loggingService,
	)
}

// loadConfigurationFile reads the YAML file named by --config. A missing
// default file is tolerated; a missing explicit file is an error.
func loadConfigurationFile(cmd *cobra.Command) error {
	resources, err := getApplicationResources(cmd)
	if err != nil {
		return err
	}
	configFilePath, flagErr := cmd.Flags().GetString(flagNameConfigFile)
	if flagErr != nil {
		return fmt.Errorf("read config flag: %w", flagErr)
	}
	configFilePath = strings.TrimSpace(configFilePath)
	if configFilePath == "" {
		configFilePath = defaultConfigFilePath
	}
	explicit := cmd.Flags().Changed(flagNameConfigFile)
	if _, statErr := os.Stat(configFilePath); statErr != nil {
		if errors.Is(statErr, os.ErrNotExist) && !explicit {
			resources.loggingService.Debug(logMessageConfigMissing, logging.String(logFieldConfigFile, configFilePath))
			return nil
		}
		return fmt.Errorf("read configuration: %w", statErr)
	}
	return readConfigurationFile(resources.configurationManager, resources.loggingService, configFilePath)
}

func readConfigurationFile(configurationManager *viper.Viper, loggingService *logging.Service, configFilePath string) error {
	configurationManager.SetConfigFile(configFilePath)
	if readErr := configurationManager.ReadInConfig(); readErr != nil {
		return fmt.Errorf("read configuration: %w", readErr)
	}
	loggingService.Debug(logMessageConfigLoaded, logging.String(logFieldConfigFile, configurationManager.ConfigFileUsed()))
	return nil
}

func getApplicationResources(cmd *cobra.Command) (*applicationResources, error) {
	resourceValue := cmd.Context().Value(contextKeyApplicationResources)
	if resourceValue == nil {
		return nil, errors.New("application resources not configured")
	}
	resources, ok := resourceValue.(*applicationResources)
	if !ok {
		return nil, errors.New("invalid application resources type")
	}
	return resources, nil
}

func createSignalContext(parent context.Context, loggingService *logging.Service) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(parent)
	signalChannel := make(chan os.Signal, 1)
	signal.Notify(signalChannel, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		select {
		case <-ctx.Done():
			return
		case receivedSignal := <-signalChannel:
			if loggingService != nil {
				loggingService.Info(logMessageReceivedSignal, logging.String(logFieldSignal, receivedSignal.String()))
			}
			cancel()
		}
	}()

	return ctx, func() {
		signal.Stop(signalChannel)
		cancel()
	}
}
