package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/dop251/goja"
	"github.com/spf13/cobra"

	"github.com/zoobzio/faultline"
	jsoncodec "github.com/zoobzio/faultline/json"
	"github.com/zoobzio/faultline/jsvm"
)

// NewJSCmd builds the js command.
func NewJSCmd() *cobra.Command {
	var (
		eval    string
		timeout time.Duration
		record  bool
	)

	cmd := &cobra.Command{
		Use:   "js [script]",
		Short: "Run a script and print what it throws",
		Long: `Js runs a JavaScript file (or --eval source) and prints the error it
throws, serialized as JSON. A script that completes prints its result.

With --record the thrown error is also added to the journal.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cliCtx, err := mustContext(cmd)
			if err != nil {
				return err
			}

			source := eval
			if source == "" {
				if len(args) == 0 {
					return errors.New("js: a script file or --eval is required")
				}
				data, err := os.ReadFile(args[0])
				if err != nil {
					return fmt.Errorf("read %s: %w", args[0], err)
				}
				source = string(data)
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
			defer cancel()

			vm := goja.New()
			v, runErr := jsvm.Run(ctx, vm, source)
			out := cmd.OutOrStdout()

			if runErr == nil {
				data, err := jsoncodec.New().Marshal(faultline.Serialize(jsvm.Wrap(vm, v)))
				if err != nil {
					return err
				}
				_, _ = fmt.Fprintf(out, "%s\n", data)
				return nil
			}

			thrown, ok := runErr.(faultline.Instance)
			if !ok {
				return runErr
			}

			proc, err := cliCtx.Processor("json")
			if err != nil {
				return err
			}
			data, err := proc.Store(ctx, thrown)
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintf(out, "%s\n", data)

			cliCtx.Log().Debug().Str("kind", thrown.Name()).Msg("script threw")

			if record {
				journal, err := cliCtx.Journal()
				if err != nil {
					return err
				}
				entry, err := journal.Record(cmd.Context(), thrown)
				if err != nil {
					return err
				}
				cliCtx.Log().Info().Str("id", entry.ID).Str("kind", entry.Kind).Msg("recorded error")
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&eval, "eval", "e", "", "script source to run instead of a file")
	cmd.Flags().DurationVar(&timeout, "timeout", 5*time.Second, "interrupt the script after this long")
	cmd.Flags().BoolVar(&record, "record", false, "add the thrown error to the journal")

	return cmd
}
