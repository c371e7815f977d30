package cli

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/benhall/vid2notes/internal/domain"
)

var (
	sessionIDStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("212"))
	dimStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
)

// NewSessionsCmd creates the sessions command
func NewSessionsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sessions",
		Short: "List processed videos",
		RunE:  runSessionsList,
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "delete <video>",
		Short: "Delete a session and all its artifacts",
		Args:  cobra.ExactArgs(1),
		RunE:  runSessionsDelete,
	})

	return cmd
}

func runSessionsList(cmd *cobra.Command, args []string) error {
	app, err := newApp()
	if err != nil {
		return err
	}

	summaries, err := app.SessionsSvc.List(cmd.Context())
	if err != nil {
		return err
	}
	if len(summaries) == 0 {
		fmt.Println("No sessions yet. Run: vid2notes extract <url>")
		return nil
	}

	fmt.Println(headerStyle.Render(fmt.Sprintf("%-13s %-42s %8s %7s  %s",
		"SESSION", "TITLE", "LENGTH", "FRAMES", "EXTRACTED")))
	for _, s := range summaries {
		title := s.Title
		if len(title) > 40 {
			title = title[:39] + "…"
		}
		fmt.Printf("%s %-42s %8s %7d  %s\n",
			sessionIDStyle.Render(fmt.Sprintf("%-13s", s.SessionID)),
			title,
			domain.FormatTimestamp(s.Duration),
			s.Frames,
			dimStyle.Render(s.ExtractedAt.Format("2006-01-02 15:04")),
		)
	}
	return nil
}

func runSessionsDelete(cmd *cobra.Command, args []string) error {
	app, err := newApp()
	if err != nil {
		return err
	}
	videoID, err := resolveVideoID(args[0])
	if err != nil {
		return err
	}
	if err := app.SessionsSvc.Delete(cmd.Context(), videoID); err != nil {
		return err
	}
	fmt.Printf("Deleted %s\n", videoID)
	return nil
}
