package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/pflag"

	"github.com/cputracker/agent/config"
	"github.com/cputracker/agent/pkg/datasite"
	"github.com/cputracker/agent/pkg/history"
	"github.com/cputracker/agent/pkg/metrics"
	"github.com/cputracker/agent/pkg/monitoring"
	"github.com/cputracker/agent/pkg/privacy"
	"github.com/cputracker/agent/pkg/sampler"
	"github.com/cputracker/agent/pkg/tracker"
)

func main() {
	configPath := pflag.String("config", "", "path to JSON configuration file")
	once := pflag.Bool("once", false, "perform a single tracking run and exit")
	interval := pflag.Duration("interval", 0, "override the run interval in daemon mode")
	pflag.Parse()

	// Load configuration
	var cfg *config.Config
	var err error
	if *configPath != "" {
		cfg, err = config.LoadConfig(*configPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if *interval > 0 {
		cfg.Run.Interval = *interval
	}

	log.Println("Starting CPU tracker agent...")

	// Create context cancelled on shutdown signals
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		log.Println("Shutting down...")
		cancel()
	}()

	// The private tier must exist before the history store can live there.
	storage := datasite.NewStorage(cfg.Datasite.Root, cfg.Datasite.Email)
	if _, err := storage.EnsurePrivateFolder(); err != nil {
		log.Fatalf("Failed to prepare private folder: %v", err)
	}

	hist, err := history.Open(cfg.HistoryDBPath())
	if err != nil {
		log.Printf("Run history disabled: %v", err)
		hist = nil
	} else {
		defer hist.Close()
	}

	// Initialize the tracking pipeline
	collector := metrics.NewCollector()
	cpuSampler := sampler.New(sampler.GopsutilSource{}, &cfg.Sampling)
	aggregator := privacy.NewAggregator(nil)
	trk := tracker.New(cfg, cpuSampler, aggregator, hist, collector)

	// Health endpoint (disabled when the port is 0)
	healthChecker := monitoring.NewHealthChecker(cfg.Run.HealthPort, trk, collector, hist)
	go healthChecker.Start(ctx)

	if *once {
		if _, err := trk.Run(ctx); err != nil {
			log.Fatalf("Tracking run failed: %v", err)
		}
		return
	}

	runDaemon(ctx, cfg, trk, *configPath)
	log.Println("Agent shutdown complete")
}

// runDaemon performs a tracking run immediately and then on every interval
// tick until ctx is cancelled. When a config file is in use, it is watched
// and reloaded on change; runs and reloads happen on the same goroutine, so
// a reload never races an in-flight run.
func runDaemon(ctx context.Context, cfg *config.Config, trk *tracker.Tracker, configPath string) {
	var events chan fsnotify.Event
	var watchErrs chan error

	if configPath != "" {
		watcher, err := fsnotify.NewWatcher()
		if err != nil {
			log.Printf("Config watch disabled: %v", err)
		} else {
			defer watcher.Close()
			if err := watcher.Add(configPath); err != nil {
				log.Printf("Config watch disabled: %v", err)
			} else {
				events = watcher.Events
				watchErrs = watcher.Errors
			}
		}
	}

	ticker := time.NewTicker(cfg.Run.Interval)
	defer ticker.Stop()

	if _, err := trk.Run(ctx); err != nil {
		log.Printf("Tracking run failed: %v", err)
	}

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := trk.Run(ctx); err != nil {
				log.Printf("Tracking run failed: %v", err)
			}
		case event := <-events:
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			next, err := config.LoadConfig(configPath)
			if err != nil {
				log.Printf("Ignoring config change: %v", err)
				continue
			}
			*cfg = *next
			ticker.Reset(cfg.Run.Interval)
			log.Printf("Configuration reloaded from %s", configPath)
		case err := <-watchErrs:
			log.Printf("Config watcher error: %v", err)
		}
	}
}
