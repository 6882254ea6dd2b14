package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/tablemap/internal/codec"
	"github.com/roach88/tablemap/internal/querysql"
)

// CompileOptions holds flags for the compile command.
type CompileOptions struct {
	*RootOptions
	Op   string // "select" | "replace"
	Data string // record or template as JSON
}

// CompileResult is the JSON payload of the compile command.
type CompileResult struct {
	Type    string `json:"type"`
	Op      string `json:"op"`
	Dialect string `json:"dialect"`
	SQL     string `json:"sql"`
}

// NewCompileCommand creates the compile command.
func NewCompileCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &CompileOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "compile <type>",
		Short: "Print the statement a save or load would run",
		Long: `Compile a record into the SELECT (load) or REPLACE (save) statement
without connecting to the database.

Example:
  tablemap compile pmo.tutorial.PbOrmTest --op replace --data '{"id":1,"name":"pot1"}'`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCompile(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Op, "op", "select", "statement to compile (select|replace)")
	cmd.Flags().StringVarP(&opts.Data, "data", "d", "{}", "record or template as JSON")

	return cmd
}

func runCompile(opts *CompileOptions, typeName string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)

	if opts.Op != "select" && opts.Op != "replace" {
		_ = formatter.Error(ErrCodeBadInput, fmt.Sprintf("invalid op %q: must be select or replace", opts.Op), nil)
		return NewExitError(ExitCommandError, "invalid op "+opts.Op)
	}

	env, err := loadEnvironment(opts.RootOptions, false)
	if err != nil {
		return outputLoadError(formatter, err)
	}
	d, err := codec.Lookup(env.cfg.Dialect)
	if err != nil {
		return reportError(formatter, ExitCommandError, err)
	}

	s, err := env.types.SchemaFor(typeName)
	if err != nil {
		return reportError(formatter, ExitFailure, err)
	}
	rec, err := env.types.Deserialize(typeName, []byte(opts.Data))
	if err != nil {
		return reportError(formatter, ExitFailure, err)
	}

	compiler := querysql.NewSQLCompiler(codec.New(d))
	var sql string
	if opts.Op == "replace" {
		sql, err = compiler.BuildReplace(s, rec)
	} else {
		sql, err = compiler.BuildSelect(s, rec)
	}
	if err != nil {
		return reportError(formatter, ExitFailure, err)
	}

	if formatter.Format == "json" {
		return formatter.Success(CompileResult{Type: typeName, Op: opts.Op, Dialect: d.Name(), SQL: sql})
	}
	fmt.Fprintln(formatter.Writer, sql)
	return nil
}
