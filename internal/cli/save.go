package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/tablemap/internal/mapper"
)

// SaveOptions holds flags for the save command.
type SaveOptions struct {
	*RootOptions
	Data string // record as JSON
}

// NewSaveCommand creates the save command.
func NewSaveCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &SaveOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "save <type>",
		Short: "Save one record",
		Long: `Save one record of the given type, replacing any row with the same key.

Only the fields present in --data are written.

Example:
  tablemap save pmo.tutorial.PbOrmTest --data '{"id":1,"name":"pot1"}'`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSave(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.Data, "data", "d", "", "record as JSON (required)")
	_ = cmd.MarkFlagRequired("data")

	return cmd
}

func runSave(opts *SaveOptions, typeName string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)

	env, err := loadEnvironment(opts.RootOptions, true)
	if err != nil {
		return outputLoadError(formatter, err)
	}
	m, err := mapper.New(env.cfg.Store(), env.types, opts.Logger())
	if err != nil {
		return reportError(formatter, ExitCommandError, err)
	}

	if err := m.SaveBytes(commandContext(cmd), typeName, []byte(opts.Data)); err != nil {
		return reportError(formatter, ExitFailure, err)
	}

	if formatter.Format == "json" {
		return formatter.Success(map[string]string{"type": typeName})
	}
	fmt.Fprintf(formatter.Writer, "✓ Saved %s\n", typeName)
	return nil
}
