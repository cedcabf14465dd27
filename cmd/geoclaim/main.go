package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/banshee-data/geoclaim/internal/api"
	"github.com/banshee-data/geoclaim/internal/config"
	"github.com/banshee-data/geoclaim/internal/db"
	"github.com/banshee-data/geoclaim/internal/monitoring"
	"github.com/banshee-data/geoclaim/internal/serialmux"
	"github.com/banshee-data/geoclaim/internal/session"
	"github.com/banshee-data/geoclaim/internal/source"
	"github.com/banshee-data/geoclaim/internal/timeutil"
	"github.com/banshee-data/geoclaim/internal/upload"
	"github.com/banshee-data/geoclaim/internal/version"
)

var (
	listen      = flag.String("listen", ":8080", "Listen address")
	configFile  = flag.String("config", "", "Path to tuning JSON (defaults are used when empty)")
	sourceKind  = flag.String("source", "nmea", "Position source: nmea, mock, redis or replay")
	dbPath      = flag.String("db-path", "geoclaim.db", "Claims database path (empty disables local storage)")
	showVersion = flag.Bool("version", false, "Print version and exit")
)

// Serial receiver
var (
	port         = flag.String("port", "/dev/ttyUSB0", "GPS receiver serial port (nmea source)")
	baud         = flag.Int("baud", serialmux.DefaultBaudRate, "GPS receiver baud rate")
	dataBits     = flag.Int("data-bits", 8, "GPS receiver data bits (5-8)")
	stopBits     = flag.Int("stop-bits", 1, "GPS receiver stop bits (1 or 2)")
	parity       = flag.String("parity", "N", "GPS receiver parity: N, E or O")
	fixtures     = flag.String("fixtures", "fixtures.nmea", "NMEA sentences replayed by the mock source")
	mockInterval = flag.Duration("mock-interval", time.Second, "Delay between mock sentences")
)

// Redis
var (
	redisAddr     = flag.String("redis-addr", "", "Redis address for the redis source or fix publishing")
	redisPassword = flag.String("redis-password", "", "Redis password")
	device        = flag.String("device", "default", "Device name used in redis keys")
	redisPublish  = flag.Bool("redis-publish", false, "Republish local fixes to redis")
)

// Replay
var (
	replayFile     = flag.String("replay-file", "", "JSON-lines fix track for the replay source")
	replayInterval = flag.Duration("replay-interval", time.Second, "Delay between replayed fixes")
	replayRestamp  = flag.Bool("replay-restamp", true, "Stamp replayed fixes relative to the wall clock")
)

// Upload
var (
	uploadURL   = flag.String("upload-url", "", "Remote endpoint receiving passed claims")
	uploadToken = flag.String("upload-token", "", "Bearer token for the upload endpoint")
)

type runner interface {
	Run(ctx context.Context) error
}

// newSource builds the fix producer for kind. The returned line mux feeds
// NMEA sources and serves the serial debug routes; it is a disabled mux for
// sources that do not read a receiver.
func newSource(kind string, mb *source.Mailbox) (runner, serialmux.SerialMuxInterface, error) {
	switch kind {
	case "nmea":
		m, err := serialmux.NewRealSerialMux(*port, portOptions())
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open GPS receiver %s: %w", *port, err)
		}
		return source.NewNMEASource(m, mb), m, nil

	case "mock":
		data, err := os.ReadFile(*fixtures)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open fixtures file: %w", err)
		}
		lines := strings.Split(strings.TrimSpace(string(data)), "\n")
		m := serialmux.NewMockSerialMux(lines, *mockInterval)
		return source.NewNMEASource(m, mb), m, nil

	case "redis":
		client := source.ConnectRedis(*redisAddr, *redisPassword)
		if client == nil {
			return nil, nil, errors.New("-redis-addr is required for the redis source")
		}
		return source.NewRedisSource(client, *device, mb), serialmux.NewDisabledSerialMux(), nil

	case "replay":
		if *replayFile == "" {
			return nil, nil, errors.New("-replay-file is required for the replay source")
		}
		fixes, err := source.LoadFixes(*replayFile)
		if err != nil {
			return nil, nil, err
		}
		rs := source.NewReplaySource(fixes, mb, timeutil.RealClock{}, *replayInterval)
		rs.Restamp = *replayRestamp
		return rs, serialmux.NewDisabledSerialMux(), nil
	}
	return nil, nil, fmt.Errorf("unknown source %q", kind)
}

func portOptions() serialmux.PortOptions {
	return serialmux.PortOptions{
		BaudRate: *baud,
		DataBits: *dataBits,
		StopBits: *stopBits,
		Parity:   *parity,
	}
}

func loadSessionConfig(path string) (session.Config, error) {
	if path == "" {
		return session.DefaultConfig(), nil
	}
	cfg, err := config.LoadTuningConfig(path)
	if err != nil {
		return session.Config{}, err
	}
	return session.ConfigFromTuning(cfg), nil
}

func newMetrics() *monitoring.Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return monitoring.NewMetrics(reg)
}

// Main
func main() {
	flag.Parse()

	if *showVersion {
		fmt.Println(version.String())
		return
	}

	if flag.Arg(0) == "migrate" {
		if err := db.RunMigrateCommand(flag.Args()[1:], *dbPath, os.Stdout); err != nil {
			log.Fatalf("migrate: %v", err)
		}
		return
	}

	if *listen == "" {
		log.Fatal("Listen address is required")
	}

	cfg, err := loadSessionConfig(*configFile)
	if err != nil {
		log.Fatalf("failed to load tuning config: %v", err)
	}

	mb := source.NewMailbox(session.AuthUndetermined)
	mb.Prompt = func(ctx context.Context) session.Authorization {
		log.Printf("granting %s source access to the capture session", *sourceKind)
		return session.AuthGranted
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if *redisPublish && *sourceKind != "redis" {
		client := source.ConnectRedis(*redisAddr, *redisPassword)
		if client == nil {
			log.Fatal("-redis-publish requires -redis-addr")
		}
		defer client.Close()
		mb.OnPut = source.NewRedisPublisher(client, *device, source.DefaultFixTTL).Forward(ctx)
	}

	src, lines, err := newSource(*sourceKind, mb)
	if err != nil {
		log.Fatal(err)
	}
	defer lines.Close()

	if err := lines.Initialize(); err != nil {
		log.Fatalf("failed to initialize GPS receiver: %v", err)
	}

	metrics := newMetrics()
	metrics.WatchMailbox(mb.Stats)

	var uploaders upload.Fanout
	var claims api.ClaimStore
	if *dbPath != "" {
		d, err := db.NewDB(*dbPath)
		if err != nil {
			log.Fatalf("Failed to connect to database: %v", err)
		}
		defer d.Close()
		uploaders = append(uploaders, d)
		claims = d
	}
	if *uploadURL != "" {
		uploaders = append(uploaders, upload.NewHTTPUploader(nil, *uploadURL, *uploadToken))
	}

	opts := []session.Option{session.WithMetrics(metrics)}
	if len(uploaders) > 0 {
		opts = append(opts, session.WithUploader(uploaders))
	}
	sess := session.New(cfg, mb, opts...)

	var wg sync.WaitGroup

	// run the monitor routine to manage IO on the serial port
	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := lines.Monitor(ctx); err != nil && !errors.Is(err, context.Canceled) {
			log.Printf("failed to monitor serial port: %v", err)
		}
		log.Print("monitor routine terminated")
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := src.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			log.Printf("%s source stopped: %v", *sourceKind, err)
		}
		log.Print("source routine terminated")
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := sess.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			log.Printf("session stopped: %v", err)
		}
		log.Print("session routine terminated")
	}()

	// HTTP server goroutine
	wg.Add(1)
	go func() {
		defer wg.Done()

		mux := api.NewServer(sess, claims, metrics).ServeMux()

		lines.AttachAdminRoutes(mux)
		mb.AttachAdminRoutes(mux)
		if d, ok := claims.(*db.DB); ok {
			if err := d.AttachAdminRoutes(mux); err != nil {
				log.Printf("failed to attach database admin routes: %v", err)
			}
		}

		server := &http.Server{
			Addr:    *listen,
			Handler: api.LoggingMiddleware(mux),
		}

		// Start server in a goroutine so it doesn't block
		go func() {
			if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Fatalf("failed to start server: %v", err)
			}
		}()

		// Wait for context cancellation to shut down server
		<-ctx.Done()
		log.Println("shutting down HTTP server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 1*time.Second)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Printf("HTTP server shutdown error: %v", err)
			// Force close the server if graceful shutdown fails
			if err := server.Close(); err != nil {
				log.Printf("HTTP server force close error: %v", err)
			}
		}

		log.Printf("HTTP server routine stopped")
	}()

	log.Printf("%s listening on %s", version.String(), *listen)

	// Wait for all goroutines to finish
	wg.Wait()
	log.Printf("Graceful shutdown complete")
}
