package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"sync"
	"syscall"

	"github.com/avelko/driftfm/api"
	"github.com/avelko/driftfm/internal/audio"
	"github.com/avelko/driftfm/internal/config"
	"github.com/avelko/driftfm/internal/player"
	"github.com/avelko/driftfm/internal/source"
	"github.com/avelko/driftfm/internal/state"
	"github.com/avelko/driftfm/internal/ui"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// Load configuration
	configPath := config.GetConfigPath()
	cfg, err := config.LoadOrCreate(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	// Create data directory
	if err := os.MkdirAll(cfg.DataDir, 0755); err != nil {
		return fmt.Errorf("create data directory: %w", err)
	}

	// The terminal owns stdout, so logs go to a file in the data dir
	logFile, err := os.OpenFile(filepath.Join(cfg.DataDir, "driftfm.log"),
		os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}
	defer logFile.Close()
	log.SetOutput(logFile)

	// Setup context with graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle signals
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		cancel()
	}()

	// Load the track list (embedded default when unset)
	list, err := source.Load(cfg.TrackList)
	if err != nil {
		return fmt.Errorf("load track list: %w", err)
	}
	src := source.New(list, cfg.Timeout())

	// Initialize audio output
	sink, err := audio.NewOutput()
	if err != nil {
		return fmt.Errorf("init audio: %w", err)
	}
	defer sink.Stop()

	// Restore persisted volume and bookmarks
	volumePath := filepath.Join(cfg.DataDir, "volume.txt")
	volume, err := state.LoadVolume(volumePath)
	if err != nil {
		return fmt.Errorf("load volume: %w", err)
	}
	sink.SetVolume(volume)

	bookmarks, err := state.LoadBookmarks(filepath.Join(cfg.DataDir, "bookmarks.txt"))
	if err != nil {
		return fmt.Errorf("load bookmarks: %w", err)
	}

	if cfg.StartPaused {
		sink.SetPaused(true)
	}

	p := player.New(player.Options{
		Source:     src,
		Sink:       sink,
		Bookmarks:  bookmarks,
		BufferSize: cfg.BufferSize,
		Backoff:    cfg.Backoff(),
	})

	// Save state on exit, after the control loop has stopped
	defer func() {
		if err := state.SaveVolume(volumePath, sink.Volume()); err != nil {
			log.Printf("save volume: %v", err)
		}
		if err := bookmarks.Save(); err != nil {
			log.Printf("save bookmarks: %v", err)
		}
	}()

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := p.Run(ctx); err != nil {
			log.Printf("player stopped: %v", err)
		}
	}()

	// A quit message is best effort; cancellation is the guaranteed stop,
	// and it must happen before the join or the join never finishes.
	defer func() {
		p.Send(api.Message{Type: api.MsgQuit})
		cancel()
		wg.Wait()
	}()

	// Kick off the first track
	p.Send(api.Message{Type: api.MsgInit})

	log.Printf("playing %q (%d tracks)", list.Name, list.Len())

	return ui.Run(p, cfg.KeyBindings)
}
