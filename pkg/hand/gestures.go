package hand

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"
)

// Gestures are preset hand poses, keyed by upper-case name.
var Gestures = map[string]Positions{
	"REST":    {20000, 10000, 10000, 10000, 10000, 0},
	"FIST":    {45000, 65535, 65535, 65535, 65535, 0},
	"POINT":   {45000, 0, 65535, 65535, 65535, 0},
	"VICTORY": {45000, 0, 0, 65535, 65535, 0},
	"SPREAD":  {0, 0, 0, 0, 0, 0},
	"ROCK":    {0, 0, 65535, 65535, 0, 0},
	"PINCH":   {45000, 45000, 45000, 45000, 45000, 0},
	"SHOOT":   {0, 0, 65535, 65535, 65535, 0},
	"ITC":     {30000, 30000, 0, 0, 0, 65535},
	"SIX":     {0, 65535, 65535, 65535, 0, 0},
	"TRIGGER": {38000, 30000, 32000, 65535, 65535, 65535},
	"THUMBUP": {0, 65535, 65535, 65535, 65535, 0},
	"GRASP":   {27525, 29491, 32768, 27525, 24903, 65535},
}

// RestSettle is how long Perform waits after moving to REST.
var RestSettle = 500 * time.Millisecond

// GestureNames returns the preset names in sorted order.
func GestureNames() []string {
	names := make([]string, 0, len(Gestures))
	for name := range Gestures {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// LookupGesture finds a preset by name, ignoring case.
func LookupGesture(name string) (Positions, bool) {
	p, ok := Gestures[strings.ToUpper(name)]
	return p, ok
}

// Perform moves the hand to REST and then to the named gesture.
func Perform(ctx context.Context, sink Sink, name string) error {
	target, ok := LookupGesture(name)
	if !ok {
		return fmt.Errorf("unknown gesture %q", name)
	}

	if err := sink.SetPositions(ctx, Gestures["REST"]); err != nil {
		return fmt.Errorf("move to rest: %w", err)
	}

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(RestSettle):
	}

	if err := sink.SetPositions(ctx, target); err != nil {
		return fmt.Errorf("move to %s: %w", strings.ToLower(name), err)
	}
	return nil
}
