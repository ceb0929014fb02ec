package cmd

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/inkmark-app/inkmark/internal/evalcmd"
	"github.com/inkmark-app/inkmark/internal/transcribe"
)

func newEvalCmd() *cobra.Command {
	var engine engineFlags

	cmd := &cobra.Command{
		Use:   "eval",
		Short: "Transcription quality evaluation tools",
		Long: `Evaluation tools for measuring transcription accuracy against labelled
datasets of photographed note pages.

Supports running the full engine over a dataset of pages with reference
transcriptions and rendering saved results as reports.`,
	}

	factory := evalcmd.EngineFactory(func(ctx context.Context) (*transcribe.Engine, string, string, error) {
		return engine.buildEngine(ctx)
	})

	// Engine knobs apply to every eval subcommand that transcribes.
	engine.registerPersistent(cmd)

	// Add eval subcommands
	cmd.AddCommand(evalcmd.NewRunCmd(factory))
	cmd.AddCommand(evalcmd.NewReportCmd())

	return cmd
}
