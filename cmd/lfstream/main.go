package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"mime"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"
	"golang.org/x/term"

	"github.com/netanel-haber/localfiles.stream/internal/config"
	"github.com/netanel-haber/localfiles.stream/internal/domain"
	"github.com/netanel-haber/localfiles.stream/internal/handle"
	"github.com/netanel-haber/localfiles.stream/internal/ingest"
	"github.com/netanel-haber/localfiles.stream/internal/library"
	applog "github.com/netanel-haber/localfiles.stream/internal/log"
	"github.com/netanel-haber/localfiles.stream/internal/playback"
	"github.com/netanel-haber/localfiles.stream/internal/search"
	"github.com/netanel-haber/localfiles.stream/internal/share"
	"github.com/netanel-haber/localfiles.stream/internal/store"
	"github.com/netanel-haber/localfiles.stream/internal/tui"
)

// Version is set at build time via -ldflags
var Version = "dev"

func main() {
	var showVersion bool
	var serve bool
	var playQuery string
	flag.BoolVar(&showVersion, "v", false, "print version")
	flag.BoolVar(&showVersion, "version", false, "print version")
	flag.BoolVar(&serve, "serve", false, "run the share receiver only, no UI")
	flag.StringVar(&playQuery, "play", "", "play the library asset best matching the query, then exit")
	flag.Parse()

	if showVersion {
		fmt.Printf("lfstream %s\n", Version)
		return
	}

	if err := run(serve, playQuery, flag.Args()); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(serve bool, playQuery string, addPaths []string) error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	logger, err := applog.SetupLogger(&cfg.Logging)
	if err != nil {
		// Fall back to null logger if file logging fails
		logger = applog.NullLogger()
	}
	slog.SetDefault(logger)
	logger.Info("starting lfstream", "version", Version)

	// First run: write the defaults so the user has a file to edit.
	if config.FileUsed() == "" {
		if err := config.SaveConfig(cfg); err != nil {
			logger.Warn("failed to write default config", "error", err)
		}
	}

	st, err := store.Open(cfg.Storage.DataDir)
	if err != nil {
		return fmt.Errorf("failed to open library store: %w", err)
	}
	defer st.Close()

	blobs := store.NewBlobStore(st, cfg.Storage.QuotaBytes)
	meta := store.NewMetadataStore(st)
	staging := store.NewStagingStore(st)

	handles, err := handle.NewManager(filepath.Join(cfg.Storage.DataDir, "handles"), logger)
	if err != nil {
		return fmt.Errorf("failed to create handle manager: %w", err)
	}
	defer handles.ReleaseAll()

	sig := ingest.NewSignal()
	producer := ingest.NewProducer(staging, sig, logger)
	drainer := ingest.NewDrainer(staging, logger)

	lib := library.NewService(blobs, meta, handles, drainer, cfg.Storage.MaxFileBytes, logger)
	launcher := playback.NewLauncher(cfg.Player.Command, cfg.Player.Args, cfg.Player.StartFlag, logger)
	session := playback.NewSession(blobs, handles, launcher, lib, logger)
	lib.AttachSession(session)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := lib.Start(ctx); err != nil {
		return err
	}

	// One-shot mode: add files handed on the command line, then exit.
	if len(addPaths) > 0 {
		return addFromPaths(ctx, lib, addPaths)
	}

	// One-shot mode: play the best name match, then exit.
	if playQuery != "" {
		return playByQuery(ctx, lib, playQuery)
	}

	receiver := share.NewServer(cfg.Share.ListenAddr, producer, cfg.Share.MaxRequestBytes, logger)
	go func() {
		if err := receiver.Run(ctx); err != nil {
			logger.Error("share receiver stopped", "error", err)
		}
	}()
	go lib.ListenShareOutcomes(ctx, sig.Outcomes())

	if serve || !term.IsTerminal(int(os.Stdout.Fd())) {
		return runHeadless(ctx, cancel, logger)
	}

	model := tui.NewModel(lib)
	p := tea.NewProgram(model, tea.WithAltScreen())

	logger.Info("starting TUI")
	if _, err := p.Run(); err != nil {
		logger.Error("TUI error", "error", err)
		return fmt.Errorf("TUI error: %w", err)
	}

	logger.Info("shutting down")
	return nil
}

// runHeadless blocks until interrupted, keeping the share receiver alive.
func runHeadless(ctx context.Context, cancel context.CancelFunc, logger *slog.Logger) error {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	logger.Info("running headless")
	select {
	case <-sigCh:
		cancel()
	case <-ctx.Done():
	}
	logger.Info("shutting down")
	return nil
}

// addFromPaths ingests local files exactly as a file picker would.
func addFromPaths(ctx context.Context, lib *library.Service, paths []string) error {
	files := make([]domain.IncomingFile, 0, len(paths))
	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", path, err)
		}
		mimeType := mime.TypeByExtension(filepath.Ext(path))
		if mimeType == "" {
			mimeType = "application/octet-stream"
		}
		files = append(files, domain.IncomingFile{
			Name:     filepath.Base(path),
			MimeType: mimeType,
			Data:     data,
		})
	}

	report, err := lib.Add(ctx, files)
	for _, added := range report.Added {
		fmt.Printf("added %s (%s)\n", added.Name, added.FormattedSize())
	}
	for _, rejected := range report.Rejected {
		fmt.Printf("skipped %s: %v\n", rejected.Name, rejected.Reason)
	}
	return err
}

// playByQuery plays the asset whose name best matches query.
func playByQuery(ctx context.Context, lib *library.Service, query string) error {
	ranked := search.Rank(query, lib.List())
	if len(ranked) == 0 {
		return fmt.Errorf("no asset matches %q", query)
	}

	best := ranked[0]
	fmt.Printf("playing %s (%s)\n", best.Name, best.FormattedSize())
	return lib.Play(ctx, best.ID)
}
