package cli

import (
	"github.com/spf13/cobra"
)

// NewTranscodeCmd builds the transcode command.
func NewTranscodeCmd() *cobra.Command {
	var (
		from, to string
		external bool
	)

	cmd := &cobra.Command{
		Use:   "transcode [file]",
		Short: "Re-encode a serialized error in another codec",
		Long: `Transcode rebuilds a serialized error and writes it back out in another
codec.

With --external the payload is treated as leaving for a third party: the
configured masks and redactions apply and the input depth is bounded.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cliCtx, err := mustContext(cmd)
			if err != nil {
				return err
			}
			if from == "" {
				from = cliCtx.Config.Codec
			}

			data, err := readInput(cmd, args)
			if err != nil {
				return err
			}
			in, err := cliCtx.Processor(from)
			if err != nil {
				return err
			}
			out, err := cliCtx.Processor(to)
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			var encoded []byte
			if external {
				inst, err := in.Receive(ctx, data)
				if err != nil {
					return err
				}
				encoded, err = out.Send(ctx, inst)
				if err != nil {
					return err
				}
			} else {
				inst, err := in.Load(ctx, data)
				if err != nil {
					return err
				}
				encoded, err = out.Store(ctx, inst)
				if err != nil {
					return err
				}
			}

			cliCtx.Log().Debug().
				Str("from", from).
				Str("to", to).
				Int("in_size", len(data)).
				Int("out_size", len(encoded)).
				Msg("transcoded error")

			_, err = cmd.OutOrStdout().Write(encoded)
			return err
		},
	}

	cmd.Flags().StringVar(&from, "from", "", "input codec (default from config)")
	cmd.Flags().StringVar(&to, "to", "json", "output codec")
	cmd.Flags().BoolVar(&external, "external", false, "apply masks and redactions for external delivery")

	return cmd
}
