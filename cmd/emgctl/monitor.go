package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"

	"github.com/gwillem/emgctl/pkg/glove"
)

type MonitorCommand struct {
	Count int  `short:"n" long:"count" description:"Stop after this many batches (0 runs until interrupted)"`
	Sim   bool `long:"sim" description:"Use the simulated glove"`
}

func (c *MonitorCommand) Execute(args []string) error {
	cfg := loadConfig()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	src, err := openGlove(ctx, cfg, c.Sim)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error connecting to glove: %v\n", err)
		os.Exit(1)
	}
	defer func() {
		src.Stop()
		src.Close()
	}()

	fmt.Printf("Monitoring %s (%d channels)\n", src.Name(), src.Channels())
	fmt.Println(dimStyle.Render("Press Ctrl+C to stop"))

	for n := 0; c.Count == 0 || n < c.Count; n++ {
		batch, err := src.Next(ctx)
		if errors.Is(err, context.Canceled) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("read batch: %w", err)
		}
		if len(batch) == 0 {
			continue
		}
		fmt.Printf("%6d  %s\n", n, formatVector(batch[len(batch)-1]))
	}
	return nil
}

func formatVector(v glove.ChannelVector) string {
	parts := make([]string, len(v))
	for i, x := range v {
		parts[i] = fmt.Sprintf("%4d", x)
	}
	return strings.Join(parts, " ")
}
