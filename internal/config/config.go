// Package config loads the immutable root configuration shared by every request.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

const (
	KeyRootDirectory       = "root_directory"
	KeyPaths               = "paths"
	KeyMimetypes           = "mimetypes"
	KeyListenHost          = "api.listen.host"
	KeyListenPort          = "api.listen.port"
	KeyLogLevel            = "api.log.level"
	KeyLogType             = "api.log.type"
	KeyTLSCertificate      = "api.tls.certificate"
	KeyTLSPrivateKey       = "api.tls.private_key"
	KeyShellPath           = "shell.path"
	KeyNormalizeExtensions = "listing.normalize_extensions"
	KeyMarkdownEnabled     = "markdown.enabled"

	// DefaultMappedPath is used for routes that do not declare a path.
	DefaultMappedPath = "."
	DefaultShellPath  = "ui/index.html"
)

// Provider selects how a matched route is served.
type Provider string

const (
	ProviderAPI Provider = "api"
	ProviderFS  Provider = "fs"
)

var (
	ErrInvalidConfiguration = errors.New("config.invalid")
	ErrInvalidRoute         = errors.New("config.route.invalid")
)

// RouteMapping binds a request pattern to a provider and a served path.
type RouteMapping struct {
	Pattern    string   `mapstructure:"pattern" validate:"required"`
	MappedPath string   `mapstructure:"path"`
	Provider   Provider `mapstructure:"provider" validate:"omitempty,oneof=api fs"`
}

// EffectiveMappedPath returns the configured path or DefaultMappedPath.
func (mapping RouteMapping) EffectiveMappedPath() string {
	if strings.TrimSpace(mapping.MappedPath) == "" {
		return DefaultMappedPath
	}
	return mapping.MappedPath
}

// EffectiveProvider returns the configured provider, defaulting to ProviderFS.
func (mapping RouteMapping) EffectiveProvider() Provider {
	if mapping.Provider == "" {
		return ProviderFS
	}
	return mapping.Provider
}

// MimetypeEntry maps a file extension to a MIME type and a display icon.
type MimetypeEntry struct {
	Extension string `mapstructure:"extension" validate:"required"`
	Mimetype  string `mapstructure:"mimetype" validate:"required"`
	Icon      string `mapstructure:"icon"`
}

// ListenConfiguration describes the transport bind address.
type ListenConfiguration struct {
	Host string `mapstructure:"host" validate:"required"`
	Port int    `mapstructure:"port" validate:"required,min=1,max=65535"`
}

// LogConfiguration describes the logging service. Load lowercases both values.
type LogConfiguration struct {
	Level string `mapstructure:"level" validate:"omitempty,oneof=debug info"`
	Type  string `mapstructure:"type" validate:"omitempty,oneof=console json"`
}

// TLSConfiguration points at PEM files. Both or neither must be set.
type TLSConfiguration struct {
	CertificatePath string `mapstructure:"certificate" validate:"required_with=PrivateKeyPath"`
	PrivateKeyPath  string `mapstructure:"private_key" validate:"required_with=CertificatePath"`
}

// RootConfig is loaded once at startup and never mutated afterwards.
type RootConfig struct {
	RootDirectory       string              `mapstructure:"root_directory" validate:"required"`
	Routes              []RouteMapping      `mapstructure:"paths" validate:"dive"`
	Mimetypes           []MimetypeEntry     `mapstructure:"mimetypes" validate:"dive"`
	Listen              ListenConfiguration `mapstructure:"listen"`
	Log                 LogConfiguration    `mapstructure:"log"`
	TLS                 TLSConfiguration    `mapstructure:"tls"`
	ShellPath           string              `mapstructure:"shell_path"`
	NormalizeExtensions bool                `mapstructure:"normalize_extensions"`
	MarkdownEnabled     bool                `mapstructure:"markdown_enabled"`
}

// SetDefaults registers default values on the viper instance.
func SetDefaults(configurationManager *viper.Viper) {
	configurationManager.SetDefault(KeyRootDirectory, ".")
	configurationManager.SetDefault(KeyListenHost, "127.0.0.1")
	configurationManager.SetDefault(KeyListenPort, 8080)
	configurationManager.SetDefault(KeyLogLevel, "info")
	configurationManager.SetDefault(KeyLogType, "console")
	configurationManager.SetDefault(KeyTLSCertificate, "")
	configurationManager.SetDefault(KeyTLSPrivateKey, "")
	configurationManager.SetDefault(KeyShellPath, DefaultShellPath)
	configurationManager.SetDefault(KeyNormalizeExtensions, false)
	configurationManager.SetDefault(KeyMarkdownEnabled, false)
}

// Load assembles a RootConfig from the viper instance and validates it.
// Relative root and shell paths are resolved against the working directory.
func Load(configurationManager *viper.Viper) (*RootConfig, error) {
	rootConfig := &RootConfig{
		RootDirectory: strings.TrimSpace(configurationManager.GetString(KeyRootDirectory)),
		Listen: ListenConfiguration{
			Host: strings.TrimSpace(configurationManager.GetString(KeyListenHost)),
			Port: configurationManager.GetInt(KeyListenPort),
		},
		Log: LogConfiguration{
			Level: strings.ToLower(strings.TrimSpace(configurationManager.GetString(KeyLogLevel))),
			Type:  strings.ToLower(strings.TrimSpace(configurationManager.GetString(KeyLogType))),
		},
		TLS: TLSConfiguration{
			CertificatePath: strings.TrimSpace(configurationManager.GetString(KeyTLSCertificate)),
			PrivateKeyPath:  strings.TrimSpace(configurationManager.GetString(KeyTLSPrivateKey)),
		},
		ShellPath:           strings.TrimSpace(configurationManager.GetString(KeyShellPath)),
		NormalizeExtensions: configurationManager.GetBool(KeyNormalizeExtensions),
		MarkdownEnabled:     configurationManager.GetBool(KeyMarkdownEnabled),
	}
	if err := configurationManager.UnmarshalKey(KeyPaths, &rootConfig.Routes); err != nil {
		return nil, fmt.Errorf("%w: decode paths: %s", ErrInvalidConfiguration, err.Error())
	}
	if err := configurationManager.UnmarshalKey(KeyMimetypes, &rootConfig.Mimetypes); err != nil {
		return nil, fmt.Errorf("%w: decode mimetypes: %s", ErrInvalidConfiguration, err.Error())
	}
	if rootConfig.ShellPath == "" {
		rootConfig.ShellPath = DefaultShellPath
	}

	if err := Validate(rootConfig); err != nil {
		return nil, err
	}

	absoluteRoot, absoluteErr := filepath.Abs(rootConfig.RootDirectory)
	if absoluteErr != nil {
		return nil, fmt.Errorf("resolve root directory: %w", absoluteErr)
	}
	statInfo, statErr := os.Stat(absoluteRoot)
	if statErr != nil {
		return nil, fmt.Errorf("stat root directory: %w", statErr)
	}
	if !statInfo.IsDir() {
		return nil, fmt.Errorf("%w: root directory is not a directory: %s", ErrInvalidConfiguration, absoluteRoot)
	}
	rootConfig.RootDirectory = absoluteRoot

	absoluteShell, shellErr := filepath.Abs(rootConfig.ShellPath)
	if shellErr != nil {
		return nil, fmt.Errorf("resolve shell path: %w", shellErr)
	}
	rootConfig.ShellPath = absoluteShell
	return rootConfig, nil
}

// Validate checks struct constraints and compiles every route pattern.
func Validate(rootConfig *RootConfig) error {
	structValidator := validator.New(validator.WithRequiredStructEnabled())
	if err := structValidator.Struct(rootConfig); err != nil {
		var validationErrors validator.ValidationErrors
		if errors.As(err, &validationErrors) {
			messages := make([]string, 0, len(validationErrors))
			for _, fieldError := range validationErrors {
				messages = append(messages, fmt.Sprintf("%s failed %s", fieldError.Namespace(), fieldError.Tag()))
			}
			return fmt.Errorf("%w: %s", ErrInvalidConfiguration, strings.Join(messages, "; "))
		}
		return fmt.Errorf("%w: %s", ErrInvalidConfiguration, err.Error())
	}
	for index, mapping := range rootConfig.Routes {
		if _, compileErr := regexp.Compile(mapping.Pattern); compileErr != nil {
			return fmt.Errorf("%w: paths[%d] pattern %q: %s", ErrInvalidRoute, index, mapping.Pattern, compileErr.Error())
		}
	}
	return nil
}
