package app

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/tyemirov/fsapi/internal/config"
)

func newRootCommand(resources *applicationResources) *cobra.Command {
	rootCommand := &cobra.Command{
		Use:           fmt.Sprintf("%s [port]", defaultApplicationName),
		Short:         "Serve a directory tree as files, JSON listings and an application shell",
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return loadConfigurationFile(cmd)
		},
		PreRunE: func(cmd *cobra.Command, args []string) error {
			return prepareServeConfiguration(cmd, args)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd)
		},
	}

	serveFlags := pflag.NewFlagSet("serve", pflag.ContinueOnError)
	configureServeFlags(serveFlags, resources.configurationManager)
	rootCommand.Flags().AddFlagSet(serveFlags)

	tlsFlags := pflag.NewFlagSet("serve-tls", pflag.ContinueOnError)
	configureTLSFlags(tlsFlags, resources.configurationManager)
	rootCommand.Flags().AddFlagSet(tlsFlags)

	rootCommand.PersistentFlags().String(flagNameConfigFile, defaultConfigFilePath, "Path to configuration file")

	return rootCommand
}

func configureServeFlags(flagSet *pflag.FlagSet, configurationManager *viper.Viper) {
	flagSet.String(flagNameListenHost, configurationManager.GetString(config.KeyListenHost), "Listen host")
	flagSet.Int(flagNameListenPort, configurationManager.GetInt(config.KeyListenPort), "Listen port")
	flagSet.String(flagNameRootDirectory, configurationManager.GetString(config.KeyRootDirectory), "Root directory served by every route")
	flagSet.String(flagNameShellPath, configurationManager.GetString(config.KeyShellPath), "Application shell served for directories")
	flagSet.String(flagNameLogLevel, configurationManager.GetString(config.KeyLogLevel), "Logging level (INFO or DEBUG)")
	flagSet.String(flagNameLoggingType, configurationManager.GetString(config.KeyLogType), "Logging type (CONSOLE or JSON)")
	flagSet.Bool(flagNameMarkdown, configurationManager.GetBool(config.KeyMarkdownEnabled), "Render Markdown files as HTML")
	_ = configurationManager.BindPFlag(config.KeyListenHost, flagSet.Lookup(flagNameListenHost))
	_ = configurationManager.BindPFlag(config.KeyListenPort, flagSet.Lookup(flagNameListenPort))
	_ = configurationManager.BindPFlag(config.KeyRootDirectory, flagSet.Lookup(flagNameRootDirectory))
	_ = configurationManager.BindPFlag(config.KeyShellPath, flagSet.Lookup(flagNameShellPath))
	_ = configurationManager.BindPFlag(config.KeyLogLevel, flagSet.Lookup(flagNameLogLevel))
	_ = configurationManager.BindPFlag(config.KeyLogType, flagSet.Lookup(flagNameLoggingType))
	_ = configurationManager.BindPFlag(config.KeyMarkdownEnabled, flagSet.Lookup(flagNameMarkdown))
}

func configureTLSFlags(flagSet *pflag.FlagSet, configurationManager *viper.Viper) {
	flagSet.String(flagNameTLSCertificatePath, configurationManager.GetString(config.KeyTLSCertificate), "Path to TLS certificate (PEM)")
	flagSet.String(flagNameTLSKeyPath, configurationManager.GetString(config.KeyTLSPrivateKey), "Path to TLS private key (PEM)")
	_ = configurationManager.BindPFlag(config.KeyTLSCertificate, flagSet.Lookup(flagNameTLSCertificatePath))
	_ = configurationManager.BindPFlag(config.KeyTLSPrivateKey, flagSet.Lookup(flagNameTLSKeyPath))
}
