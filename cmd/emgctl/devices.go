package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/gwillem/emgctl/pkg/config"
	"github.com/gwillem/emgctl/pkg/glove"
	"github.com/gwillem/emgctl/pkg/hand"
	"github.com/gwillem/emgctl/pkg/telemetry"
)

var (
	headerStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	subHeaderStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("14"))
	successStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	errorStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	dimStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
)

// loadConfig reads the configuration file, falling back to defaults when it
// does not exist yet.
func loadConfig() *config.Config {
	cfg, err := config.LoadFrom(opts.Config)
	if errors.Is(err, fs.ErrNotExist) {
		return config.Default()
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Invalid config %s:\n%v\n", opts.Config, err)
		os.Exit(1)
	}
	return cfg
}

// openGlove opens and configures the sample source and starts streaming.
func openGlove(ctx context.Context, cfg *config.Config, sim bool) (glove.Source, error) {
	var src glove.Source
	if sim {
		src = glove.NewSimSource(uint64(time.Now().UnixNano()))
	} else {
		port := cfg.Glove.Port
		if port == "" {
			found, err := glove.FindGlovePort()
			if err != nil {
				return nil, err
			}
			if found == "" {
				return nil, errors.New("no glove port configured or detected")
			}
			port = found
		}
		src = glove.NewSerialSource(glove.SerialConfig{
			Port:     port,
			BaudRate: cfg.Glove.BaudRate,
		})
	}

	if err := cfg.Glove.Channels.Validate(src.Channels()); err != nil {
		return nil, err
	}
	if err := src.Open(ctx); err != nil {
		return nil, err
	}
	if err := src.Configure(cfg.Glove.Stream); err != nil {
		src.Close()
		return nil, fmt.Errorf("configure %s: %w", src.Name(), err)
	}
	if err := src.Start(); err != nil {
		src.Close()
		return nil, fmt.Errorf("start %s: %w", src.Name(), err)
	}
	return src, nil
}

// openHand connects to the hand selected in the configuration.
func openHand(ctx context.Context, cfg *config.Config) (hand.Sink, error) {
	switch cfg.Hand.Driver {
	case config.DriverServo:
		return hand.NewServoHand(ctx, cfg.Hand.Port, cfg.Hand.Servos)
	default:
		return openROHand(cfg)
	}
}

func openROHand(cfg *config.Config) (*hand.ROHand, error) {
	return hand.NewROHand(hand.ROHandConfig{
		Port:     cfg.Hand.Port,
		BaudRate: cfg.Hand.BaudRate,
		NodeID:   cfg.Hand.NodeID,
	})
}

// openTelemetry returns nil when no broker is configured.
func openTelemetry(cfg *config.Config) (*telemetry.Publisher, error) {
	if !cfg.Telemetry.Enabled() {
		return nil, nil
	}
	return telemetry.Connect(cfg.Telemetry.Broker, cfg.Telemetry.ClientID, cfg.Telemetry.Topic)
}
