package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var version = "dev"

func main() {
	_ = godotenv.Load()

	rootCmd := &cobra.Command{
		Use:   "voicerag",
		Short: "Knowledge base for a retrieval-augmented voice assistant",
		Long: `voicerag ingests documents into a persistent vector store and retrieves
context for a voice assistant's language model.

Environment variables:
  GOOGLE_API_KEY       Gemini API key (required for the gemini embedder)
  GEMINI_EMBED_MODEL   Gemini embedding model (default: gemini-embedding-001)
  VECTOR_DB_PATH       Storage directory (default: ./vector_db)
  COLLECTION_NAME      Collection name (default: documents_collection)`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().String("config", "", "Path to YAML config file (default: ./config.yaml or ~/.config/voicerag/config.yaml)")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Enable debug logging")

	rootCmd.AddCommand(ingestCmd())
	rootCmd.AddCommand(queryCmd())
	rootCmd.AddCommand(chatCmd())
	rootCmd.AddCommand(infoCmd())
	rootCmd.AddCommand(resetCmd())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
