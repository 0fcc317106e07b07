package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/gwillem/emgctl/pkg/config"
	"github.com/gwillem/emgctl/pkg/glove"
	"github.com/gwillem/emgctl/pkg/hand"
)

type CalibrateCommand struct {
	Batches int  `long:"batches" description:"Batches to collect per phase (default from config)"`
	Sim     bool `long:"sim" description:"Use the simulated glove"`
}

func (c *CalibrateCommand) Execute(args []string) error {
	cfg := loadConfig()
	if c.Batches > 0 {
		cfg.Calibration.BatchesPerPhase = c.Batches
	}

	ctx := context.Background()
	src, err := openGlove(ctx, cfg, c.Sim)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error connecting to glove: %v\n", err)
		os.Exit(1)
	}
	defer func() {
		src.Stop()
		src.Close()
	}()

	cal := calibrate(ctx, cfg, src)
	fmt.Println()
	fmt.Println(renderCalibration(cal))
	return nil
}

// confirmPrompter asks the operator to hold a gesture and confirm.
type confirmPrompter struct{}

func (confirmPrompter) Ready(ctx context.Context, prompt string) error {
	fmt.Println()
	fmt.Println(subHeaderStyle.Render(prompt))

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title("Hold the gesture, then continue").
				Affirmative("Continue").
				Negative("").
				Value(new(bool)),
		),
	)
	return form.RunWithContext(ctx)
}

// calibrate runs the guided calibration and exits when the glove did not
// produce a usable range for every finger.
func calibrate(ctx context.Context, cfg *config.Config, src glove.Source) glove.Calibration {
	fmt.Println(headerStyle.Render("Calibration"))
	fmt.Println(dimStyle.Render("━━━━━━━━━━━"))
	fmt.Printf("Collecting %d batches per gesture from %s\n", cfg.Calibration.BatchesPerPhase, src.Name())

	c := &glove.Calibrator{
		Source:          src,
		Channels:        cfg.Glove.Channels,
		BatchesPerPhase: cfg.Calibration.BatchesPerPhase,
		Prompter:        confirmPrompter{},
		Progress: func(phase glove.Phase, batches int) {
			fmt.Printf("\r  %s: %d/%d", phase, batches, cfg.Calibration.BatchesPerPhase)
			if batches == cfg.Calibration.BatchesPerPhase {
				fmt.Println()
			}
		},
	}

	cal, err := c.Run(ctx)
	if err == nil {
		fmt.Println(successStyle.Render("Calibration complete."))
		return cal
	}

	if errors.Is(err, huh.ErrUserAborted) {
		fmt.Println()
		os.Exit(0)
	}
	rangeErrs := glove.RangeErrors(err)
	if len(rangeErrs) == 0 {
		fmt.Fprintf(os.Stderr, "Calibration failed: %v\n", err)
		os.Exit(1)
	}
	fmt.Fprintln(os.Stderr, errorStyle.Render("Calibration failed, no usable range for:"))
	for _, re := range rangeErrs {
		fmt.Fprintf(os.Stderr, "  %-10s min=%d max=%d\n", re.Finger, re.Min, re.Max)
	}
	os.Exit(1)
	return glove.Calibration{}
}

func renderCalibration(cal glove.Calibration) string {
	tableHeaderStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12")).Padding(0, 1)
	tableFingerStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("14")).Padding(0, 1)
	tableCellStyle := lipgloss.NewStyle().Padding(0, 1)

	rows := make([][]string, 0, hand.NumFingers)
	for _, f := range hand.AllFingers() {
		r := cal[f]
		rows = append(rows, []string{
			f.String(),
			fmt.Sprintf("%d", r.Min),
			fmt.Sprintf("%d", r.Max),
			fmt.Sprintf("%d", r.Max-r.Min),
		})
	}

	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(dimStyle).
		Headers("Finger", "Min", "Max", "Range").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return tableHeaderStyle
			}
			if col == 0 {
				return tableFingerStyle
			}
			return tableCellStyle
		}).
		Render()
}
