package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/zoobzio/faultline"
)

// NewDecodeCmd builds the decode command.
func NewDecodeCmd() *cobra.Command {
	var (
		codecName string
		untrusted bool
	)

	cmd := &cobra.Command{
		Use:   "decode [file]",
		Short: "Rebuild a serialized error and print it",
		Long: `Decode reads a serialized error from a file or stdin, rebuilds it and
prints its kind, message, code, properties, stack and causes followed by
its fingerprint.

Use --untrusted to apply the receive depth limit.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cliCtx, err := mustContext(cmd)
			if err != nil {
				return err
			}
			if codecName == "" {
				codecName = cliCtx.Config.Codec
			}

			data, err := readInput(cmd, args)
			if err != nil {
				return err
			}
			proc, err := cliCtx.Processor(codecName)
			if err != nil {
				return err
			}

			var inst faultline.Instance
			if untrusted {
				inst, err = proc.Receive(cmd.Context(), data)
			} else {
				inst, err = proc.Load(cmd.Context(), data)
			}
			if err != nil {
				return err
			}
			if inst == nil {
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), "null")
				return nil
			}

			hasher, err := cliCtx.Hasher()
			if err != nil {
				return err
			}
			fp, err := faultline.FingerprintWith(inst, hasher)
			if err != nil {
				return err
			}

			cliCtx.Log().Debug().
				Str("codec", codecName).
				Str("kind", inst.Name()).
				Int("size", len(data)).
				Msg("decoded error")

			out := cmd.OutOrStdout()
			_, _ = fmt.Fprintf(out, "%+v\n", inst)
			_, _ = fmt.Fprintf(out, "fingerprint: %s\n", fp)
			return nil
		},
	}

	cmd.Flags().StringVar(&codecName, "codec", "", "payload codec: json, yaml, msgpack or bson (default from config)")
	cmd.Flags().BoolVar(&untrusted, "untrusted", false, "bound the rebuild depth like an external payload")

	return cmd
}
