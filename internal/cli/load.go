package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/tablemap/internal/mapper"
)

// LoadOptions holds flags for the load command.
type LoadOptions struct {
	*RootOptions
	Where string // predicate template as JSON
}

// LoadResult is the JSON payload of the load command.
type LoadResult struct {
	Type    string            `json:"type"`
	Records []json.RawMessage `json:"records"`
}

// NewLoadCommand creates the load command.
func NewLoadCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &LoadOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "load <type>",
		Short: "Load records matching a template",
		Long: `Load every record of the given type whose columns equal the fields
present in --where. An empty template loads the whole table.

Example:
  tablemap load pmo.tutorial.PbOrmTest --where '{"id":1}'`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLoad(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.Where, "where", "w", "{}", "predicate template as JSON")

	return cmd
}

func runLoad(opts *LoadOptions, typeName string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)

	env, err := loadEnvironment(opts.RootOptions, true)
	if err != nil {
		return outputLoadError(formatter, err)
	}
	m, err := mapper.New(env.cfg.Store(), env.types, opts.Logger())
	if err != nil {
		return reportError(formatter, ExitCommandError, err)
	}

	records, err := m.LoadBytes(commandContext(cmd), typeName, []byte(opts.Where))
	if err != nil {
		return reportError(formatter, ExitFailure, err)
	}
	formatter.Notef("Loaded %d record(s) of %s", len(records), typeName)

	if formatter.Format == "json" {
		result := LoadResult{Type: typeName, Records: make([]json.RawMessage, len(records))}
		for i, r := range records {
			result.Records[i] = r
		}
		return formatter.Success(result)
	}

	if len(records) == 0 {
		fmt.Fprintln(formatter.Writer, "No records matched")
		return nil
	}
	for _, r := range records {
		fmt.Fprintln(formatter.Writer, string(r))
	}
	return nil
}
