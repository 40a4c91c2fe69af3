// Command trackd runs the tracking-session ingestion daemon: it reads NMEA
// fixes from a GPS serial port, feeds them through the validation and
// smoothing pipeline, persists the trajectory to SQLite, and serves the
// session control API.
package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/waymark-data/tracklog/internal/api"
	"github.com/waymark-data/tracklog/internal/config"
	"github.com/waymark-data/tracklog/internal/sensor"
	"github.com/waymark-data/tracklog/internal/storage/sqlite"
	"github.com/waymark-data/tracklog/internal/track"
)

var (
	configPath = flag.String("config", "", "Path to tuning config JSON")
	listen     = flag.String("listen", "", "Listen address (overrides config)")
	serialPort = flag.String("serial", "", "GPS serial port path (overrides config)")
	mockFile   = flag.String("mock", "", "Replay NMEA sentences from a file instead of a serial port")
)

func main() {
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	addr := cfg.GetListen()
	if *listen != "" {
		addr = *listen
	}

	db, err := sqlite.Open(cfg.GetDatabasePath())
	if err != nil {
		log.Fatalf("failed to open database: %v", err)
	}
	defer db.Close()

	sessions := track.NewManager(sqlite.NewSessionStore(db))
	points := sqlite.NewLocationStore(db)

	// Close sessions abandoned by a previous crash before accepting any
	// lifecycle calls. A failed recovery is logged, not fatal: start calls
	// will keep failing until the store recovers, which beats crashing.
	if _, err := sessions.RecoverOrphans(); err != nil {
		log.Printf("orphan recovery failed: %v", err)
	}

	coordinator := track.NewCoordinator(track.CoordinatorConfig{
		Sessions:   sessions,
		Points:     points,
		QueueDepth: cfg.GetQueueDepth(),
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var wg sync.WaitGroup

	// Sensor routine: deliver fixes to the coordinator. The coordinator
	// discards fixes while no session is active, so the sensor can run for
	// the whole process lifetime.
	port, err := openPort(cfg)
	if err != nil {
		log.Fatalf("failed to open sensor: %v", err)
	}
	if port != nil {
		source := sensor.NewSource(port, coordinator.OnFix)
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := source.Run(ctx); err != nil && err != context.Canceled {
				log.Printf("sensor stream ended: %v", err)
			}
		}()
	} else {
		log.Print("no sensor configured; fixes must arrive via test harness")
	}

	// HTTP server routine.
	wg.Add(1)
	go func() {
		defer wg.Done()

		server := &http.Server{
			Addr:    addr,
			Handler: api.LoggingMiddleware(api.NewServer(coordinator, points).ServeMux()),
		}

		go func() {
			if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Fatalf("failed to start server: %v", err)
			}
		}()

		<-ctx.Done()
		log.Println("shutting down HTTP server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Printf("HTTP server shutdown error: %v", err)
		}
	}()

	wg.Wait()

	// Stop the active session cleanly so the next boot finds no orphan.
	if _, err := coordinator.StopSession(); err != nil && err != track.ErrNoActiveSession {
		log.Printf("failed to stop session on shutdown: %v", err)
	}

	log.Print("graceful shutdown complete")
}

func openPort(cfg *config.Config) (sensor.Port, error) {
	if *mockFile != "" {
		data, err := os.ReadFile(*mockFile)
		if err != nil {
			return nil, err
		}
		return sensor.NewMockPort(data), nil
	}

	path := cfg.GetSerialPort()
	if *serialPort != "" {
		path = *serialPort
	}
	if path == "" {
		return nil, nil
	}
	return sensor.OpenPort(path, cfg.GetBaudRate())
}
