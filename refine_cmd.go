package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/dgnsrekt/autocast/internal/podcast"
	"github.com/spf13/cobra"
)

var (
	refineFeedback string
	refineOutput   string
)

var refineCmd = &cobra.Command{
	Use:   "refine SCRIPT",
	Short: "Rewrite a script according to your feedback",
	Long: paragraph(fmt.Sprintf("\n%s an existing script with the AI. The script is rewritten in place unless an output file is given.",
		keyword("Refine"))),
	Example: paragraph("autocast refine script.md --feedback \"shorter intro, more examples\"\nautocast refine script.md --feedback \"more casual\" -o casual.md"),
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runRefine(cmd.Context(), cmd.ErrOrStderr(), args[0], refineFeedback, refineOutput)
	},
}

func init() {
	refineCmd.Flags().StringVarP(&refineFeedback, "feedback", "f", "", "how the script should change")
	refineCmd.Flags().StringVarP(&refineOutput, "output", "o", "", "write the refined script here instead of replacing SCRIPT")
	_ = refineCmd.MarkFlagRequired("feedback")
}

func runRefine(ctx context.Context, stderr io.Writer, path, feedback, output string) error {
	b, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("unable to read script: %w", err)
	}

	client, err := newClient()
	if err != nil {
		return err
	}

	status(stderr, "common.refining")
	out, err := client.RefineScript(ctx, podcast.RefineRequest{
		Script:       string(b),
		Feedback:     feedback,
		Language:     settings.Script.Language,
		Template:     settings.Script.Template,
		CustomPrompt: settings.Script.CustomPrompt,
	})
	if err != nil {
		return localize(err)
	}

	if output == "" {
		output = path
	}
	return writeOutput(stderr, output, []byte(out+"\n"))
}
