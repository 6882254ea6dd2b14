package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/tablemap/internal/codec"
	"github.com/roach88/tablemap/internal/ddl"
	"github.com/roach88/tablemap/internal/mapper"
)

// DDLOptions holds flags for the ddl command.
type DDLOptions struct {
	*RootOptions
	Apply           bool
	SkipUnsupported bool
	Output          string // output file path
}

// DDLResult is the JSON payload of the ddl command.
type DDLResult struct {
	Tables  []string            `json:"tables"`
	Skipped map[string][]string `json:"skipped,omitempty"`
	SQL     string              `json:"sql,omitempty"`
}

// NewDDLCommand creates the ddl command.
func NewDDLCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &DDLOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "ddl",
		Short: "Generate DROP/CREATE TABLE statements for every record type",
		Long: `Generate one table per registered record type, one column per scalar field.

Message, group, enum and repeated fields have no column type and fail
generation unless --skip-unsupported is given. With --apply the statements
are executed against the configured database; existing tables are dropped.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDDL(opts, cmd)
		},
	}

	cmd.Flags().BoolVar(&opts.Apply, "apply", false, "execute the statements")
	cmd.Flags().BoolVar(&opts.SkipUnsupported, "skip-unsupported", false, "leave out fields without a column type")
	cmd.Flags().StringVarP(&opts.Output, "output", "o", "", "output file path")

	return cmd
}

func runDDL(opts *DDLOptions, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)

	env, err := loadEnvironment(opts.RootOptions, opts.Apply)
	if err != nil {
		return outputLoadError(formatter, err)
	}
	if opts.Apply {
		return applyDDL(opts, env, formatter, cmd)
	}

	d, err := codec.Lookup(env.cfg.Dialect)
	if err != nil {
		return reportError(formatter, ExitCommandError, err)
	}
	schemas := env.types.Schemas()
	sql, err := ddl.Generate(schemas, ddl.Options{
		Dialect:         d,
		SkipUnsupported: opts.SkipUnsupported,
		Source:          env.cfg.Schemas,
	})
	if err != nil {
		return reportError(formatter, ExitFailure, err)
	}

	if opts.Output != "" {
		if err := os.WriteFile(opts.Output, []byte(sql), 0644); err != nil {
			_ = formatter.Error(ErrCodeWriteFailed, fmt.Sprintf("writing output file: %v", err), nil)
			return WrapExitError(ExitCommandError, "failed to write output", err)
		}
		formatter.Notef("Wrote %d table(s) to %s", len(schemas), opts.Output)
	}

	if formatter.Format == "json" {
		result := DDLResult{Tables: env.types.Types(), SQL: sql}
		return formatter.Success(result)
	}
	if opts.Output == "" {
		fmt.Fprint(formatter.Writer, sql)
	} else {
		fmt.Fprintf(formatter.Writer, "✓ Wrote %d table(s) to %s\n", len(schemas), opts.Output)
	}
	return nil
}

func applyDDL(opts *DDLOptions, env *environment, formatter *OutputFormatter, cmd *cobra.Command) error {
	m, err := mapper.New(env.cfg.Store(), env.types, opts.Logger())
	if err != nil {
		return reportError(formatter, ExitCommandError, err)
	}

	result := DDLResult{Tables: []string{}, Skipped: map[string][]string{}}
	for _, s := range env.types.Schemas() {
		skipped, err := m.CreateTable(commandContext(cmd), s, ddl.Options{SkipUnsupported: opts.SkipUnsupported})
		if err != nil {
			return reportError(formatter, ExitFailure, err)
		}
		result.Tables = append(result.Tables, s.Name())
		for _, f := range skipped {
			result.Skipped[s.Name()] = append(result.Skipped[s.Name()], f.Name)
			formatter.Notef("Skipped %s.%s (%s)", s.Name(), f.Name, f.KindName())
		}
	}

	if formatter.Format == "json" {
		return formatter.Success(result)
	}
	for _, name := range result.Tables {
		fmt.Fprintf(formatter.Writer, "✓ Created %s\n", name)
	}
	return nil
}
