package main

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/gwillem/emgctl/pkg/hand"
)

type GestureCommand struct {
	Args struct {
		Name string `positional-arg-name:"NAME" description:"Gesture name, e.g. FIST or POINT"`
	} `positional-args:"yes"`
}

func (c *GestureCommand) Execute(args []string) error {
	if c.Args.Name == "" {
		fmt.Println("Available gestures:")
		for _, name := range hand.GestureNames() {
			fmt.Printf("  %s\n", name)
		}
		return nil
	}
	if _, ok := hand.LookupGesture(c.Args.Name); !ok {
		fmt.Fprintf(os.Stderr, "Unknown gesture %q. Available: %s\n",
			c.Args.Name, strings.Join(hand.GestureNames(), ", "))
		os.Exit(1)
	}

	cfg := loadConfig()
	ctx := context.Background()

	sink, err := openHand(ctx, cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error connecting to hand on %s: %v\n", cfg.Hand.Port, err)
		os.Exit(1)
	}
	defer sink.Close()

	if err := hand.Perform(ctx, sink, c.Args.Name); err != nil {
		return fmt.Errorf("perform %s: %w", c.Args.Name, err)
	}
	fmt.Println(successStyle.Render(strings.ToUpper(c.Args.Name)))
	return nil
}

type AngleCommand struct {
	Args struct {
		Finger  string `positional-arg-name:"FINGER" required:"yes" description:"Finger name or index (0-5)"`
		Degrees string `positional-arg-name:"DEGREES" description:"Target angle; omit to read the current angle"`
	} `positional-args:"yes"`
}

func (c *AngleCommand) Execute(args []string) error {
	finger, err := parseFinger(c.Args.Finger)
	if err != nil {
		return err
	}

	cfg := loadConfig()
	ctx := context.Background()

	h, err := openROHand(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error connecting to hand on %s: %v\n", cfg.Hand.Port, err)
		os.Exit(1)
	}
	defer h.Close()

	if c.Args.Degrees != "" {
		degrees, err := strconv.ParseFloat(c.Args.Degrees, 64)
		if err != nil {
			return fmt.Errorf("invalid angle %q", c.Args.Degrees)
		}
		if err := h.SetFingerAngle(ctx, finger, degrees); err != nil {
			return err
		}
	}

	angle, err := h.FingerAngle(ctx, finger)
	if err != nil {
		return err
	}
	fmt.Printf("%s: %.2f°\n", finger, angle)
	return nil
}

func parseFinger(s string) (hand.Finger, error) {
	if i, err := strconv.Atoi(s); err == nil {
		if i < 0 || i >= hand.NumFingers {
			return 0, fmt.Errorf("finger index %d out of range 0-%d", i, hand.NumFingers-1)
		}
		return hand.Finger(i), nil
	}
	for _, f := range hand.AllFingers() {
		if strings.EqualFold(f.String(), s) {
			return f, nil
		}
	}
	return 0, fmt.Errorf("unknown finger %q", s)
}
