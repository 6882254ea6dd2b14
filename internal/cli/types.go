package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/tablemap/internal/ir"
)

// TypeInfo describes one record type in JSON output.
type TypeInfo struct {
	Name   string     `json:"name"`
	Key    string     `json:"key,omitempty"`
	Fields []ir.Field `json:"fields"`
}

// NewTypesCommand creates the types command.
func NewTypesCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "types",
		Short:         "List registered record types",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTypes(rootOpts, cmd)
		},
	}
	return cmd
}

func runTypes(opts *RootOptions, cmd *cobra.Command) error {
	formatter := newFormatter(opts, cmd)

	env, err := loadEnvironment(opts, false)
	if err != nil {
		return outputLoadError(formatter, err)
	}

	schemas := env.types.Schemas()
	if formatter.Format == "json" {
		infos := make([]TypeInfo, len(schemas))
		for i, s := range schemas {
			infos[i] = TypeInfo{Name: s.Name(), Key: s.Key(), Fields: s.Fields()}
		}
		return formatter.Success(infos)
	}

	for _, s := range schemas {
		if s.Key() != "" {
			fmt.Fprintf(formatter.Writer, "%s (key: %s)\n", s.Name(), s.Key())
		} else {
			fmt.Fprintln(formatter.Writer, s.Name())
		}
		for _, f := range s.Fields() {
			marker := ""
			if !f.Supported() {
				marker = "  (not stored)"
			}
			fmt.Fprintf(formatter.Writer, "  %-16s %s%s\n", f.Name, f.KindName(), marker)
		}
	}
	return nil
}
