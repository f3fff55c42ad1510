package main

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"voicerag/internal/conversation"
	"voicerag/internal/domain"
	"voicerag/internal/ingest"
	"voicerag/internal/tui"
)

func ingestCmd() *cobra.Command {
	var chunkSize int

	cmd := &cobra.Command{
		Use:   "ingest [path]",
		Short: "Ingest a file or every file of a directory",
		Long: `Extracts text from a file, or from each regular file directly inside a
directory, splits it into overlapping word windows and stores their embeddings.
Without a path, the directory is asked for interactively.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Flags().Changed("chunk-size") && chunkSize <= 0 {
				return fmt.Errorf("--chunk-size must be positive, got %d: %w", chunkSize, domain.ErrInvalidArgument)
			}
			var path string
			if len(args) == 1 {
				path = args[0]
			} else {
				path = promptLine(cmd.InOrStdin(), cmd.OutOrStdout(), "Enter the path to the directory to ingest (e.g., 'docs'): ")
				if path == "" {
					fmt.Fprintln(cmd.OutOrStdout(), "No path provided. Canceling ingestion.")
					return nil
				}
			}
			return runIngest(cmd, expandHome(path), chunkSize)
		},
	}
	cmd.Flags().IntVarP(&chunkSize, "chunk-size", "s", 0, "Words per chunk (default from config)")
	return cmd
}

func runIngest(cmd *cobra.Command, path string, chunkSize int) error {
	cfg, err := loadConfig(cmd, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	if chunkSize == 0 {
		chunkSize = cfg.Chunker.ChunkSize
	}
	a, err := openApp(cmd.Context(), cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	out := cmd.OutOrStdout()
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("the path '%s' is not valid: %w", path, err)
	}
	if !info.IsDir() {
		res, err := a.ingestor.Ingest(cmd.Context(), path, chunkSize)
		if err != nil {
			return fmt.Errorf("ingest failed for %s: %w", path, err)
		}
		return printJSON(out, res)
	}

	fmt.Fprintf(out, "Processing all files in directory: %s\n", path)
	sum, err := a.ingestor.IngestDir(cmd.Context(), path, chunkSize)
	if err != nil {
		return err
	}
	for _, f := range sum.Files {
		if f.Err != nil {
			fmt.Fprintf(out, "Ingest failed for %s: %v\n", f.Path, f.Err)
			continue
		}
		fmt.Fprintf(out, "Ingest successful for %s: %s\n", f.Path, describe(f.Result))
	}
	fmt.Fprintf(out, "\nIngestion summary: %d files successfully ingested, %d files failed.\n", sum.Succeeded, sum.Failed)
	return nil
}

func describe(r ingest.Result) string {
	if r.Message != "" {
		return r.Message
	}
	if !r.OK {
		return "store rejected the chunks"
	}
	return fmt.Sprintf("%d chunks added", r.Added)
}

func queryCmd() *cobra.Command {
	var topK int

	cmd := &cobra.Command{
		Use:   "query <text>",
		Short: "Print the knowledge-base context retrieved for a question",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			if topK <= 0 {
				topK = cfg.Retrieval.TopK
			}
			a, err := openApp(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer a.Close()

			fmt.Fprintln(cmd.OutOrStdout(), a.retrieval.Retrieve(cmd.Context(), strings.Join(args, " "), topK))
			return nil
		},
	}
	cmd.Flags().IntVarP(&topK, "top-k", "k", 0, "Number of passages (default from config)")
	return cmd
}

func chatCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "chat",
		Short: "Interactive text session standing in for the voice agent",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			// Logs would corrupt the terminal UI; they go to a file next to the data.
			logFile, err := openChatLog()
			if err != nil {
				return err
			}
			defer logFile.Close()

			cfg, err := loadConfig(cmd, logFile)
			if err != nil {
				return err
			}
			a, err := openApp(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer a.Close()

			info, err := a.store.Info(cmd.Context())
			if err != nil {
				return err
			}
			summary := fmt.Sprintf("%d chunks in %s (%s)", info.DocumentCount, info.Name, info.Location)
			flow := conversation.New(a.retrieval, cfg.Retrieval.ConversationTopK, nil)
			if _, err := tea.NewProgram(tui.New(flow, summary)).Run(); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), conversation.Farewell)
			return nil
		},
	}
}

func infoCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "info",
		Short: "Show the active collection",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			a, err := openApp(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer a.Close()

			info, err := a.store.Info(cmd.Context())
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), info)
		},
	}
}

func resetCmd() *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "reset",
		Short: "Delete the active collection and everything in it",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			if !yes {
				answer := promptLine(cmd.InOrStdin(), cmd.OutOrStdout(),
					fmt.Sprintf("Delete collection %q? [y/N]: ", cfg.VectorStore.Collection))
				if !strings.EqualFold(answer, "y") && !strings.EqualFold(answer, "yes") {
					fmt.Fprintln(cmd.OutOrStdout(), "Aborted.")
					return nil
				}
			}
			a, err := openApp(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer a.Close()

			if err := a.store.DeleteCollection(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Collection %s deleted.\n", cfg.VectorStore.Collection)
			return nil
		},
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Do not ask for confirmation")
	return cmd
}

func promptLine(in io.Reader, out io.Writer, prompt string) string {
	fmt.Fprint(out, prompt)
	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return ""
	}
	return strings.TrimSpace(line)
}

func expandHome(path string) string {
	if path == "~" || strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, strings.TrimPrefix(path, "~"))
		}
	}
	if abs, err := filepath.Abs(path); err == nil {
		return abs
	}
	return path
}

func openChatLog() (*os.File, error) {
	dir, err := os.UserCacheDir()
	if err != nil {
		dir = os.TempDir()
	}
	dir = filepath.Join(dir, "voicerag")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return os.OpenFile(filepath.Join(dir, "chat.log"), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
