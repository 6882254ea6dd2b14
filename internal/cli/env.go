package cli

import (
	"context"
	"errors"
	"fmt"

	"cuelang.org/go/cue/token"
	"github.com/spf13/cobra"

	"github.com/roach88/tablemap/internal/codec"
	"github.com/roach88/tablemap/internal/config"
	"github.com/roach88/tablemap/internal/registry"
)

// Error code constants for command-level failures. Mapping failures use the
// mapping error code instead (TYPE_NOT_FOUND, QUERY_FAILURE, ...).
const (
	ErrCodeGeneric     = "E001" // Generic/unknown error
	ErrCodeConfig      = "E002" // Config file missing or invalid
	ErrCodeNoSchemas   = "E003" // No schemas directory configured
	ErrCodeLoadFailed  = "E004" // CUE record definitions failed to load
	ErrCodeBadInput    = "E005" // Invalid command input
	ErrCodeWriteFailed = "E007" // File write error
)

// LoadError is a command-level setup failure.
type LoadError struct {
	Code    string
	Message string
	Pos     token.Pos // CUE position if available
}

func (e *LoadError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s", e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(), e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// environment is the resolved configuration and record types of one command.
type environment struct {
	cfg   config.Config
	types *registry.Registry
}

// loadEnvironment reads the config file (or defaults), applies flag overrides
// and loads the record definitions. Without needBackend only the dialect is
// checked, so statements can be compiled with no database configured.
func loadEnvironment(opts *RootOptions, needBackend bool) (*environment, error) {
	cfg := config.Default()
	if opts.Config != "" {
		loaded, err := config.Load(opts.Config)
		if err != nil {
			return nil, &LoadError{Code: ErrCodeConfig, Message: err.Error()}
		}
		cfg = loaded
	} else {
		cfg.ApplyEnv()
	}

	if opts.Dialect != "" {
		cfg.Dialect = opts.Dialect
	}
	if opts.Database != "" {
		cfg.Path = opts.Database
	}
	if opts.Schemas != "" {
		cfg.Schemas = opts.Schemas
	}

	if needBackend {
		if err := cfg.Validate(); err != nil {
			return nil, &LoadError{Code: ErrCodeConfig, Message: fmt.Sprintf("invalid config: %v", err)}
		}
	} else if _, err := codec.Lookup(cfg.Dialect); err != nil {
		return nil, &LoadError{Code: ErrCodeConfig, Message: err.Error()}
	}

	if cfg.Schemas == "" {
		return nil, &LoadError{Code: ErrCodeNoSchemas, Message: "no schemas directory: set schemas in the config or pass --schemas"}
	}
	types := registry.New()
	if err := types.LoadDir(cfg.Schemas); err != nil {
		return nil, convertLoadError(err)
	}
	return &environment{cfg: cfg, types: types}, nil
}

// convertLoadError keeps the CUE position of a record definition error.
func convertLoadError(err error) *LoadError {
	var compileErr *registry.CompileError
	if errors.As(err, &compileErr) {
		return &LoadError{Code: ErrCodeLoadFailed, Message: err.Error(), Pos: compileErr.Pos}
	}
	return &LoadError{Code: ErrCodeLoadFailed, Message: err.Error()}
}

// outputLoadError reports a setup failure (exit code 2).
func outputLoadError(f *OutputFormatter, err error) error {
	var loadErr *LoadError
	if errors.As(err, &loadErr) {
		_ = f.Error(loadErr.Code, loadErr.Message, nil)
		return WrapExitError(ExitCommandError, loadErr.Code, err)
	}
	return reportError(f, ExitCommandError, err)
}

// commandContext returns the command's context, or Background when unset.
func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
