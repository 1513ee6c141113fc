package log

import (
	"fmt"

	gferrors "github.com/vnykmshr/goshape/pkg/common/errors"
	"github.com/vnykmshr/goshape/pkg/common/validation"
)

// Level defines possible values for log levels.
type Level string

// Logging levels.
const (
	LevelError Level = "error"
	LevelWarn  Level = "warn"
	LevelInfo  Level = "info"
	LevelDebug Level = "debug"
)

// Format defines possible values for log formats.
type Format string

// Logging formats.
const (
	FormatJSON Format = "json"
	FormatText Format = "text"
)

// Output defines possible values for log outputs.
type Output string

// Logging outputs.
const (
	OutputStdout Output = "stdout"
	OutputStderr Output = "stderr"
	OutputFile   Output = "file"
)

// Default rotation values.
const (
	DefaultFileMaxSizeMB  = 250
	DefaultFileMaxBackups = 10
)

// FileConfig configures file output and its rotation.
type FileConfig struct {
	Path       string `mapstructure:"path" yaml:"path" json:"path"`
	MaxSizeMB  int    `mapstructure:"maxSizeMB" yaml:"maxSizeMB" json:"maxSizeMB"`
	MaxBackups int    `mapstructure:"maxBackups" yaml:"maxBackups" json:"maxBackups"`
	MaxAgeDays int    `mapstructure:"maxAgeDays" yaml:"maxAgeDays" json:"maxAgeDays"`
	Compress   bool   `mapstructure:"compress" yaml:"compress" json:"compress"`
}

// Config represents a set of configuration parameters for logging.
type Config struct {
	Level  Level      `mapstructure:"level" yaml:"level" json:"level"`
	Format Format     `mapstructure:"format" yaml:"format" json:"format"`
	Output Output     `mapstructure:"output" yaml:"output" json:"output"`
	File   FileConfig `mapstructure:"file" yaml:"file" json:"file"`

	// AddCaller adds the package/file:line of the call site to every entry.
	AddCaller bool `mapstructure:"addCaller" yaml:"addCaller" json:"addCaller"`
}

// DefaultConfig returns info-level JSON logging to stdout.
func DefaultConfig() Config {
	return Config{
		Level:  LevelInfo,
		Format: FormatJSON,
		Output: OutputStdout,
		File: FileConfig{
			MaxSizeMB:  DefaultFileMaxSizeMB,
			MaxBackups: DefaultFileMaxBackups,
		},
	}
}

// Validate checks the configuration.
func (c Config) Validate() error {
	switch c.Level {
	case LevelError, LevelWarn, LevelInfo, LevelDebug:
	default:
		return invalid("level", c.Level, fmt.Sprintf("choose one of %q, %q, %q, %q",
			LevelError, LevelWarn, LevelInfo, LevelDebug))
	}

	switch c.Format {
	case FormatJSON, FormatText:
	default:
		return invalid("format", c.Format, fmt.Sprintf("choose one of %q, %q", FormatJSON, FormatText))
	}

	switch c.Output {
	case OutputStdout, OutputStderr:
	case OutputFile:
		if err := validation.ValidateNotEmpty("log", "file.path", c.File.Path); err != nil {
			return err
		}
		if c.File.MaxSizeMB < 0 || c.File.MaxBackups < 0 || c.File.MaxAgeDays < 0 {
			return invalid("file", c.File, "rotation limits cannot be negative")
		}
	default:
		return invalid("output", c.Output, fmt.Sprintf("choose one of %q, %q, %q",
			OutputStdout, OutputStderr, OutputFile))
	}
	return nil
}

func invalid(field string, value interface{}, hint string) error {
	return gferrors.NewValidationError("log", field, value, "unknown value").WithHint(hint)
}
