// Команда cdcctl — служебные операции: создание топиков и офлайн-проверка CDC-событий.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "cdcctl",
		Short: "Operational tooling for the CDC ingestion consumer",
		Long: `Operational tooling for the CDC ingestion consumer.

Examples:
  # Create the configured topic (CDC_KAFKA_* env), retrying until the broker is up
  cdcctl ensure-topic

  # Create every topic from a file
  cdcctl ensure-topic --file topics.yaml --brokers localhost:29092

  # Decode a capture and print canonical events
  cdcctl validate --in capture.jsonl`,
		SilenceUsage: true,
	}
	root.AddCommand(newEnsureTopicCmd(), newValidateCmd())
	return root
}

func main() {
	_ = godotenv.Load(".env.local")

	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
