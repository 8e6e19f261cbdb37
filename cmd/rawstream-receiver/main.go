// Command rawstream-receiver listens for FH/FD datagrams on a UDP socket,
// reassembles them into complete raw sensor frames, and reports running
// counters over MQTT and a local HTTP health endpoint.
package main

import (
	"context"
	"flag"
	"log/slog"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/e7canasta/orion-care-sensor/modules/rawstream/internal/config"
	"github.com/e7canasta/orion-care-sensor/modules/rawstream/internal/reassemble"
	"github.com/e7canasta/orion-care-sensor/modules/rawstream/internal/telemetry"
)

const defaultConfigPath = "config/receiver.yaml"

// expiryInterval drives the periodic stragglers sweep (and the MQTT stats
// publish); the sweep's distance is reassemble.DefaultMaxDistance.
const expiryInterval = 2 * time.Second

func main() {
	configPath := flag.String("config", defaultConfigPath, "path to configuration file")
	debug := flag.Bool("debug", false, "enable debug logging")
	flag.Parse()

	logLevel := slog.LevelInfo
	if *debug {
		logLevel = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel})))

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		slog.Info("received shutdown signal", "signal", sig)
		cancel()
	}()

	addr, err := net.ResolveUDPAddr("udp", cfg.Network.ListenAddr)
	if err != nil {
		slog.Error("bad listen address", "addr", cfg.Network.ListenAddr, "error", err)
		os.Exit(1)
	}
	conn, err := net.ListenUDP("udp", addr)
	if err != nil {
		slog.Error("failed to listen", "addr", cfg.Network.ListenAddr, "error", err)
		os.Exit(1)
	}
	defer conn.Close()

	reassembler := reassemble.New()

	var publisher *telemetry.Publisher
	if cfg.MQTT.Broker != "" {
		publisher = telemetry.NewPublisher(cfg)
		if err := publisher.Connect(ctx); err != nil {
			slog.Warn("mqtt connect failed, continuing without telemetry", "error", err)
			publisher = nil
		} else {
			go publisher.Run(ctx, expiryInterval, func() telemetry.StatsSnapshot {
				return telemetry.FromReassemblerStats(cfg.InstanceID, reassembler.Stats())
			})
		}
	}

	health := telemetry.NewHealthServer(func() telemetry.StatsSnapshot {
		return telemetry.FromReassemblerStats(cfg.InstanceID, reassembler.Stats())
	})
	if err := health.Start(cfg.HealthPort); err != nil {
		slog.Error("failed to start health server", "error", err)
		os.Exit(1)
	}

	go expireLoop(ctx, reassembler)

	slog.Info("receiver listening", "addr", cfg.Network.ListenAddr)

	buf := make([]byte, 65536)
	var framesCompleted uint64
	for {
		select {
		case <-ctx.Done():
			if publisher != nil {
				publisher.Disconnect()
			}
			slog.Info("receiver stopped", "frames_completed", framesCompleted)
			return
		default:
		}

		conn.SetReadDeadline(time.Now().Add(500 * time.Millisecond))
		n, _, err := conn.ReadFromUDP(buf)
		if err != nil {
			if ne, ok := err.(net.Error); ok && ne.Timeout() {
				continue
			}
			slog.Warn("udp read failed", "error", err)
			continue
		}

		packet := make([]byte, n)
		copy(packet, buf[:n])
		for _, frame := range reassembler.Ingest(packet) {
			framesCompleted++
			slog.Debug("frame completed",
				"trace_id", frame.TraceID,
				"fseq32", frame.FSeq32,
				"bytes", len(frame.Payload),
				"width", frame.Info.Width,
				"height", frame.Info.Height,
			)
		}
	}
}

// expireLoop periodically sweeps stragglers so a lost FH or the tail
// fragments of a frame that never completed don't linger forever.
func expireLoop(ctx context.Context, r *reassemble.FrameReassembler) {
	ticker := time.NewTicker(expiryInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if recent, ok := r.LatestFSeq32(); ok {
				r.ExpireOlderThan(recent, reassemble.DefaultMaxDistance)
			}
		}
	}
}
