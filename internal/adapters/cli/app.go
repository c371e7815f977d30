package cli

import (
	"github.com/benhall/vid2notes/internal/adapters/claude"
	"github.com/benhall/vid2notes/internal/adapters/ffmpeg"
	"github.com/benhall/vid2notes/internal/adapters/store"
	"github.com/benhall/vid2notes/internal/adapters/ytdlp"
	"github.com/benhall/vid2notes/internal/application"
	"github.com/benhall/vid2notes/internal/config"
	"github.com/benhall/vid2notes/internal/describe"
	"github.com/benhall/vid2notes/internal/logging"
	"github.com/benhall/vid2notes/internal/selection"
)

// App holds all application dependencies
type App struct {
	Config     *config.Config
	Store      *store.Store
	Downloader *ytdlp.Downloader
	Claude     *claude.Client

	AskSvc      *application.AskService
	SessionsSvc *application.SessionsService
}

// NewApp creates and wires up the dependencies every command needs.
// The extraction pipeline is wired separately because it additionally
// requires ffmpeg on PATH.
func NewApp(configPath, storageRoot string) (*App, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	if storageRoot != "" {
		cfg.StorageRoot = storageRoot
	}

	logger := logging.WithComponent("app")
	st := store.New(cfg.StorageRoot, logger)
	downloader := ytdlp.NewDownloader(logger)
	client := claude.New("")

	return &App{
		Config:      cfg,
		Store:       st,
		Downloader:  downloader,
		Claude:      client,
		AskSvc:      application.NewAskService(st, client, logger),
		SessionsSvc: application.NewSessionsService(st, logger),
	}, nil
}

// NewPipeline wires the full extraction pipeline. Fails if ffmpeg or
// ffprobe are not installed.
func (a *App) NewPipeline() (*application.PipelineService, error) {
	logger := logging.WithComponent("app")
	ff, err := ffmpeg.New(logger)
	if err != nil {
		return nil, err
	}

	return application.NewPipelineService(
		a.Store,
		a.Downloader,
		ytdlp.NewTranscriptFetcher(a.Downloader),
		ff,
		selection.NewTranscriptSelector(a.Claude, logger),
		selection.NewSceneSelector(ff, ff, logger),
		describe.New(a.Claude, logger),
		a.Config,
		logger,
	), nil
}
