package cli

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/benhall/vid2notes/internal/application"
	"github.com/benhall/vid2notes/internal/domain"
)

var (
	resumeFlag    bool
	forceFlag     bool
	sceneFlag     bool
	thresholdFlag float64
	intervalFlag  float64
)

var (
	headerStyle = lipgloss.NewStyle().Bold(true)
	labelStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	valueStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("212"))
)

// NewExtractCmd creates the extract command
func NewExtractCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "extract <url>",
		Short: "Process a video into a described, queryable session",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			mode := application.ModeFrames
			if sceneFlag {
				mode = application.ModeScene
			}
			return runExtract(cmd, args[0], mode)
		},
	}

	cmd.Flags().BoolVar(&resumeFlag, "resume", false, "Continue an interrupted run from its last checkpoint")
	cmd.Flags().BoolVar(&forceFlag, "force", false, "Discard existing artifacts and re-extract")
	cmd.Flags().BoolVar(&sceneFlag, "scene", false, "Select timestamps by scene change instead of transcript analysis")
	cmd.Flags().Float64Var(&thresholdFlag, "threshold", 0, "Scene change sensitivity (lower is more sensitive)")
	cmd.Flags().Float64Var(&intervalFlag, "interval", 0, "Minimum seconds between scene-change frames")

	return cmd
}

// NewSlidesCmd creates the slides command
func NewSlidesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "slides <url>",
		Short: "Extract slide-worthy frames: complete, standalone visuals",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExtract(cmd, args[0], application.ModeSlides)
		},
	}

	cmd.Flags().BoolVar(&resumeFlag, "resume", false, "Continue an interrupted run from its last checkpoint")
	cmd.Flags().BoolVar(&forceFlag, "force", false, "Discard existing artifacts and re-extract")

	return cmd
}

func runExtract(cmd *cobra.Command, url string, mode application.Mode) error {
	app, err := newApp()
	if err != nil {
		return err
	}
	if !app.Downloader.IsAvailable() {
		return domain.ErrYtDlpNotFound
	}
	pipeline, err := app.NewPipeline()
	if err != nil {
		return err
	}

	videoID, err := resolveVideoID(url)
	if err != nil {
		return err
	}

	session, err := pipeline.Extract(cmd.Context(), application.ExtractRequest{
		URL:              url,
		VideoID:          videoID,
		Mode:             mode,
		Resume:           resumeFlag,
		Force:            forceFlag,
		SceneThreshold:   thresholdFlag,
		SceneMinInterval: intervalFlag,
	})
	if err != nil {
		return err
	}

	printSession(session)
	return nil
}

func printSession(s *domain.Session) {
	fmt.Println(headerStyle.Render(s.Title))
	rows := []struct{ label, value string }{
		{"Session", s.VideoID},
		{"Duration", domain.FormatTimestamp(s.Duration)},
		{"Frames", fmt.Sprintf("%d", s.FrameCount)},
		{"Batches", fmt.Sprintf("%d", len(s.FrameDescriptions))},
	}
	for _, r := range rows {
		fmt.Printf("  %s %s\n", labelStyle.Render(r.label+":"), valueStyle.Render(r.value))
	}
	fmt.Printf("\nAsk about it:  vid2notes ask %s \"your question\"\n", s.VideoID)
}
