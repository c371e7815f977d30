package cli

import (
	"fmt"
	"os"
	"regexp"

	"github.com/spf13/cobra"

	"github.com/benhall/vid2notes/internal/adapters/ytdlp"
	"github.com/benhall/vid2notes/internal/config"
	"github.com/benhall/vid2notes/internal/logging"
)

var (
	// Global flags
	configFlag      string
	storageRootFlag string
	verboseFlag     bool
)

// NewRootCmd creates the root command
func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "vid2notes",
		Short: "Turn instructional videos into queryable knowledge",
		Long: `vid2notes downloads a video, picks the visually important moments,
extracts those frames, and has a vision model describe them against the
transcript. The result is a local session you can ask questions about.`,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			logging.Init(verboseFlag)
		},
	}

	rootCmd.PersistentFlags().StringVar(&configFlag, "config", config.DefaultPath(), "Config file path")
	rootCmd.PersistentFlags().StringVar(&storageRootFlag, "storage-root", "", "Session storage directory (default: ~/.vid2notes)")
	rootCmd.PersistentFlags().BoolVarP(&verboseFlag, "verbose", "v", false, "Debug logging")

	rootCmd.AddCommand(NewExtractCmd())
	rootCmd.AddCommand(NewSlidesCmd())
	rootCmd.AddCommand(NewAskCmd())
	rootCmd.AddCommand(NewSessionsCmd())

	return rootCmd
}

func newApp() (*App, error) {
	return NewApp(configFlag, storageRootFlag)
}

var bareVideoID = regexp.MustCompile(`^[A-Za-z0-9_-]{11}$`)

// resolveVideoID accepts either a video URL or a bare video ID.
func resolveVideoID(arg string) (string, error) {
	if id, err := ytdlp.ExtractVideoID(arg); err == nil {
		return id, nil
	}
	if bareVideoID.MatchString(arg) {
		return arg, nil
	}
	return "", fmt.Errorf("could not extract a video ID from %q", arg)
}

// Execute runs the CLI
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
