package main

import (
	"fmt"
	"io"

	"github.com/Gunvolt24/cdc_ingest/pkg/validate"
	"github.com/spf13/cobra"
)

// newValidateCmd — офлайн-декодирование захваченных сообщений тем же декодером, что и в консьюмере.
// Валидные события в каноническом виде идут в stdout, отклонённые строки и сводка в stderr.
func newValidateCmd() *cobra.Command {
	var (
		inputPath string
		formatStr string
	)

	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Decode a .json/.jsonl capture of CDC messages",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			decoder := validate.NewEventDecoder()

			format, err := validate.ParseFormat(formatStr)
			if err != nil {
				return err
			}

			var summary validate.Summary
			if inputPath == "" {
				// stdin вариант: считаем, что jsonl
				if format == validate.FormatJSON {
					return fmt.Errorf("stdin supports only jsonl, got %q", format)
				}
				summary, err = validate.ValidateJSONLStream(ctx, decoder, cmd.InOrStdin(), cmd.OutOrStdout())
			} else {
				summary, err = validate.ValidateFile(ctx, decoder, inputPath, format, cmd.OutOrStdout())
			}

			printRejects(cmd.ErrOrStderr(), summary)
			if err != nil {
				return fmt.Errorf("validation: %w (%s)", err, summary)
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "validation ok (%s)\n", summary)
			return nil
		},
	}

	cmd.Flags().StringVar(&inputPath, "in", "", "path to input (.json or .jsonl); stdin (jsonl) when empty")
	cmd.Flags().StringVar(&formatStr, "format", string(validate.FormatAuto), "input format: auto|json|jsonl")
	return cmd
}

func printRejects(w io.Writer, s validate.Summary) {
	for _, r := range s.Rejects {
		fmt.Fprintf(w, "line %d: %v\n", r.Line, r.Err)
	}
	if hidden := s.Invalid - len(s.Rejects); hidden > 0 {
		fmt.Fprintf(w, "... %d more invalid lines\n", hidden)
	}
}
