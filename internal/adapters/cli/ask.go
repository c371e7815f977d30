package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/benhall/vid2notes/internal/application"
)

var (
	contextFlag  []string
	askModelFlag string
)

// NewAskCmd creates the ask command
func NewAskCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ask <video> <question>",
		Short: "Ask a question about a processed video",
		Long: `Ask answers free-form questions using the stored session as a
knowledge base. Pass --context to inject your own notes or files so the
answer is specific to your project.`,
		Args: cobra.MinimumNArgs(2),
		RunE: runAsk,
	}

	cmd.Flags().StringArrayVar(&contextFlag, "context", nil, "File to inject into the prompt (repeatable)")
	cmd.Flags().StringVar(&askModelFlag, "model", "", "Completion model (default from config)")

	return cmd
}

func runAsk(cmd *cobra.Command, args []string) error {
	app, err := newApp()
	if err != nil {
		return err
	}

	videoID, err := resolveVideoID(args[0])
	if err != nil {
		return err
	}
	question := strings.Join(args[1:], " ")

	contextText, sources, err := loadContextFiles(contextFlag)
	if err != nil {
		return err
	}

	model := askModelFlag
	if model == "" {
		model = app.Config.Models.Synthesis
	}

	answer, err := app.AskSvc.Ask(cmd.Context(), application.AskRequest{
		VideoID:        videoID,
		Question:       question,
		Model:          model,
		Context:        contextText,
		ContextSources: sources,
	})
	if err != nil {
		return err
	}

	fmt.Println(answer)
	return nil
}

// loadContextFiles reads each file and labels it so the model can tell
// the sources apart.
func loadContextFiles(paths []string) (string, []string, error) {
	if len(paths) == 0 {
		return "", nil, nil
	}

	var b strings.Builder
	sources := make([]string, 0, len(paths))
	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			return "", nil, fmt.Errorf("reading context file: %w", err)
		}
		fmt.Fprintf(&b, "--- %s ---\n%s\n\n", path, strings.TrimSpace(string(data)))
		sources = append(sources, path)
	}
	return strings.TrimSpace(b.String()), sources, nil
}
