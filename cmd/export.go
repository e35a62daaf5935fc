package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/iksnae/skillswap/internal"
	"github.com/iksnae/skillswap/internal/export"
)

var (
	format    string
	outputDir string
	toStdout  bool
)

// exportCmd represents the export command
var exportCmd = &cobra.Command{
	Use:   "export <participant-id>",
	Short: "Export a conversation and shared sessions to file",
	Long: fmt.Sprintf(`Export everything exchanged with one member: the conversation and the
sessions you share, in one of: %s.

Use 'skillswap messages' to see participant ids.`, strings.Join(export.Formats, ", ")),
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		exporter, err := export.NewExporter(format)
		if err != nil {
			return err
		}

		transcript, err := buildTranscript(cmd.Context(), args[0])
		if err != nil {
			return err
		}

		if toStdout {
			return exporter.Export(transcript, cmd.OutOrStdout())
		}

		if err := os.MkdirAll(outputDir, 0755); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
		filename := fmt.Sprintf("conversation_%s.%s", args[0], exporter.Extension())
		path := filepath.Join(outputDir, filename)
		if err := writeExport(exporter, transcript, path); err != nil {
			return err
		}

		internal.PrintSuccess(cmd.OutOrStdout(), fmt.Sprintf("Export complete: %d message(s), %d session(s) written to %s",
			transcript.Metadata.MessageCount, transcript.Metadata.SessionCount, path))
		return nil
	},
}

// buildTranscript resolves the participant, then loads the conversation and
// the shared sessions as separate progress steps
func buildTranscript(ctx context.Context, participantID string) (*internal.Transcript, error) {
	participant := internal.UserRef{ID: participantID}
	var sessions []internal.ExchangeSession

	steps := []internal.ProgressStep{
		{Message: "Resolving participant", Fn: func(ctx context.Context) error {
			if u, err := app.Profile.Lookup(ctx, participantID); err == nil {
				participant = u.Ref()
			} else {
				internal.LogDebug("Profile lookup for %s failed: %v", participantID, err)
			}
			return nil
		}},
		{Message: "Loading conversation", Fn: func(ctx context.Context) error {
			_, err := app.Threads.OpenThread(ctx, participant)
			return err
		}},
		{Message: "Loading sessions", Fn: func(ctx context.Context) error {
			var err error
			sessions, err = app.Lifecycle.List(ctx)
			return err
		}},
	}
	if err := internal.ShowProgressWithSteps(ctx, steps); err != nil {
		return nil, userError(err, "Unable to export conversation")
	}

	entries := app.Threads.Conversation()
	messages := make([]internal.Message, 0, len(entries))
	for _, e := range entries {
		messages = append(messages, e.Message)
	}
	return internal.NewTranscript(app.Auth.CurrentUser(), participant, messages, sessions, time.Now()), nil
}

func writeExport(exporter export.Exporter, t *internal.Transcript, path string) error {
	file, err := os.Create(path)
	if err != nil {
		return &internal.ExportError{Format: format, Path: path, Err: err}
	}
	if err := exporter.Export(t, file); err != nil {
		_ = file.Close()
		return &internal.ExportError{Format: format, Path: path, Err: err}
	}
	if err := file.Close(); err != nil {
		return &internal.ExportError{Format: format, Path: path, Err: err}
	}
	return nil
}

func init() {
	rootCmd.AddCommand(exportCmd)
	exportCmd.Flags().StringVarP(&format, "format", "f", "md", "Export format ("+strings.Join(export.Formats, ", ")+")")
	exportCmd.Flags().StringVarP(&outputDir, "out", "o", "./exports", "Output directory")
	exportCmd.Flags().BoolVar(&toStdout, "stdout", false, "Write to standard output instead of a file")
}
