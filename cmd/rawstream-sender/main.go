// Command rawstream-sender fragments a synthetic raw sensor feed into FH/FD
// datagrams and pushes them over UDP, optionally injecting loss,
// duplication, and reordering to exercise a receiver under adverse network
// conditions.
package main

import (
	"context"
	"flag"
	"log/slog"
	"net"
	"os"
	"os/signal"
	"syscall"

	"github.com/e7canasta/orion-care-sensor/modules/rawstream/internal/config"
	"github.com/e7canasta/orion-care-sensor/modules/rawstream/internal/fragment"
	"github.com/e7canasta/orion-care-sensor/modules/rawstream/internal/framesource"
	"github.com/e7canasta/orion-care-sensor/modules/rawstream/internal/telemetry"
)

const defaultConfigPath = "config/sender.yaml"

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

	conn, err := net.Dial("udp", cfg.Network.DialAddr)
	if err != nil {
		slog.Error("failed to dial destination", "addr", cfg.Network.DialAddr, "error", err)
		os.Exit(1)
	}
	defer conn.Close()

	format, err := config.SampleFormatFromString(cfg.Frame.SampleFormat)
	if err != nil {
		slog.Error("bad frame config", "error", err)
		os.Exit(1)
	}
	pattern, err := config.BayerPatternFromString(cfg.Frame.BayerPattern)
	if err != nil {
		slog.Error("bad frame config", "error", err)
		os.Exit(1)
	}

	source := framesource.New(cfg.Frame.Width, cfg.Frame.Height, format, pattern, cfg.Frame.FlowID, cfg.Frame.FPS)
	go source.Run(ctx)

	var publisher *telemetry.Publisher
	if cfg.MQTT.Broker != "" {
		publisher = telemetry.NewPublisher(cfg)
		if err := publisher.Connect(ctx); err != nil {
			slog.Warn("mqtt connect failed, continuing without telemetry", "error", err)
			publisher = nil
		}
	}

	fragOpts := fragment.Options{
		FlowID:           cfg.Frame.FlowID,
		FragmentPayload:  cfg.Fragment.MTUBytes,
		LossPercent:      cfg.Fragment.LossPercent,
		DuplicatePercent: cfg.Fragment.DuplicatePercent,
		ReorderWindow:    cfg.Fragment.ReorderWindow,
	}
	reorder := &fragment.ReorderState{}

	var sent, framesSent uint64
	for frame := range source.Frames() {
		packets := fragment.Fragment(frame.Info, uint32(frame.Seq), frame.TimestampUs, frame.Payload, fragOpts, reorder)
		for _, pkt := range packets {
			if _, err := conn.Write(pkt); err != nil {
				slog.Warn("udp write failed", "error", err)
				continue
			}
			sent++
		}
		framesSent++

		if publisher != nil && framesSent%uint64(cfg.Frame.FPS) == 0 {
			publisher.Publish(telemetry.StatsSnapshot{
				InstanceID: cfg.InstanceID,
				FDPackets:  sent,
			})
		}
	}

	if publisher != nil {
		publisher.Disconnect()
	}
	slog.Info("sender stopped", "frames_sent", framesSent, "packets_sent", sent)
}
