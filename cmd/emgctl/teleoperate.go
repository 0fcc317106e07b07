package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/NimbleMarkets/ntcharts/canvas/runes"
	"github.com/NimbleMarkets/ntcharts/linechart/streamlinechart"

	"github.com/gwillem/emgctl/pkg/glove"
	"github.com/gwillem/emgctl/pkg/hand"
	"github.com/gwillem/emgctl/pkg/teleop"
)

type RunCommand struct {
	Plain              bool `long:"plain" description:"Print log lines instead of the live chart"`
	Sim                bool `long:"sim" description:"Use the simulated glove"`
	DefaultCalibration bool `long:"default-calibration" description:"Skip calibration and use the configured default ranges"`
	HaltOnWriteError   bool `long:"halt-on-write-error" description:"Stop when a hand write fails"`
}

const (
	headerHeight = 2 // title + blank line
	legendHeight = 2 // legend row + blank
	footerHeight = 7 // log box height
	maxLogs      = 5 // number of log messages to show
	borderSize   = 2 // chart border
)

// Finger colors - distinct colors for each finger
var fingerColors = [hand.NumFingers]string{
	hand.Thumb:     "196", // red
	hand.Index:     "208", // orange
	hand.Middle:    "226", // yellow
	hand.Ring:      "46",  // green
	hand.Pinky:     "51",  // cyan
	hand.ThumbRoot: "201", // magenta
}

var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	chartStyle  = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("240"))
	statusStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
)

type teleopModel struct {
	ctrl          *teleop.Controller
	done          <-chan error
	chart         *streamlinechart.Model
	width         int      // terminal width
	height        int      // terminal height
	logs          []string // last N log messages
	quitting      bool
	err           error
	lastPositions *hand.Positions // previous positions, to detect movement
}

func (m *teleopModel) addLog(msg string) {
	m.logs = append(m.logs, msg)
	if len(m.logs) > maxLogs {
		m.logs = m.logs[len(m.logs)-maxLogs:]
	}
}

// hasMovement checks if any finger position has changed from the last state
func (m *teleopModel) hasMovement(positions hand.Positions) bool {
	return m.lastPositions == nil || *m.lastPositions != positions
}

// Messages from the controller
type stateMsg teleop.State
type logMsg string
type doneMsg struct{ err error }

func waitForState(ctrl *teleop.Controller) tea.Cmd {
	return func() tea.Msg {
		return stateMsg(<-ctrl.States())
	}
}

func waitForLog(ctrl *teleop.Controller) tea.Cmd {
	return func() tea.Msg {
		return logMsg(<-ctrl.Logs())
	}
}

func waitForDone(done <-chan error) tea.Cmd {
	return func() tea.Msg {
		return doneMsg{<-done}
	}
}

// chartSize calculates the size of the chart based on terminal dimensions
func (m *teleopModel) chartSize() (width, height int) {
	if m.width == 0 || m.height == 0 {
		return 80, 20 // default size before we know terminal size
	}
	width = max(m.width-borderSize-2, 40)
	height = max(m.height-headerHeight-legendHeight-footerHeight-borderSize, 10)
	return width, height
}

func (m *teleopModel) resizeChart() {
	w, h := m.chartSize()
	m.chart.Resize(w, h)
}

func initialTeleopModel(ctrl *teleop.Controller, done <-chan error) teleopModel {
	chart := streamlinechart.New(80, 20,
		streamlinechart.WithYRange(0, hand.MaxPosition),
	)

	for _, f := range hand.AllFingers() {
		style := lipgloss.NewStyle().Foreground(lipgloss.Color(fingerColors[f]))
		chart.SetDataSetStyles(f.String(), runes.ThinLineStyle, style)
	}

	return teleopModel{
		ctrl:  ctrl,
		done:  done,
		chart: &chart,
	}
}

func (m teleopModel) Init() tea.Cmd {
	return tea.Batch(
		waitForState(m.ctrl),
		waitForLog(m.ctrl),
		waitForDone(m.done),
	)
}

func (m teleopModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.resizeChart()
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			m.ctrl.Stop()
			m.addLog("Stopping after the current batch...")
		}

	case stateMsg:
		state := teleop.State(msg)
		if state.Error == nil && m.hasMovement(state.Positions) {
			for _, f := range hand.AllFingers() {
				m.chart.PushDataSet(f.String(), float64(state.Positions[f]))
			}
			m.chart.DrawAll()
			m.lastPositions = &state.Positions
		}
		return m, waitForState(m.ctrl)

	case logMsg:
		m.addLog(string(msg))
		return m, waitForLog(m.ctrl)

	case doneMsg:
		m.quitting = true
		m.err = msg.err
		return m, tea.Quit
	}

	return m, nil
}

func (m teleopModel) View() string {
	if m.quitting {
		return "Teleoperation stopped.\n"
	}

	var sb strings.Builder

	// Header
	sb.WriteString(titleStyle.Render("emgctl"))
	sb.WriteString(fmt.Sprintf(" - %s", m.ctrl.Source()))
	stats := m.ctrl.Stats()
	sb.WriteString(statusStyle.Render(fmt.Sprintf("  %d steps, %d write errors", stats.Steps, stats.WriteErrors)))
	sb.WriteString("\n\n")

	// Chart
	sb.WriteString(chartStyle.Render(m.chart.View()))
	sb.WriteString("\n")

	// Legend
	sb.WriteString(renderLegend())
	sb.WriteString("\n")

	// Log box
	logStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("240")).
		Width(m.width - 4).
		Foreground(lipgloss.Color("9")) // bright red

	var logLines string
	if len(m.logs) == 0 {
		logLines = statusStyle.Render("Press 'q' to quit")
	} else {
		logLines = strings.Join(m.logs, "\n")
	}
	sb.WriteString(logStyle.Render(logLines))
	sb.WriteString("\n")

	return sb.String()
}

func renderLegend() string {
	var items []string
	for _, f := range hand.AllFingers() {
		colorStyle := lipgloss.NewStyle().Foreground(lipgloss.Color(fingerColors[f])).Bold(true)
		items = append(items, colorStyle.Render("━━")+" "+f.String())
	}
	return strings.Join(items, "  ")
}

func (c *RunCommand) Execute(args []string) error {
	cfg := loadConfig()
	ctx := context.Background()

	src, err := openGlove(ctx, cfg, c.Sim)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error connecting to glove: %v\n", err)
		os.Exit(1)
	}

	var cal glove.Calibration
	if c.DefaultCalibration {
		cal, err = glove.UseDefault(cfg.Glove.DefaultCalibration)
		if err != nil {
			src.Close()
			fmt.Fprintf(os.Stderr, "Invalid default calibration:\n%v\n", err)
			os.Exit(1)
		}
		fmt.Println("Using default calibration.")
	} else {
		cal = calibrate(ctx, cfg, src)
	}
	fmt.Println(renderCalibration(cal))

	sink, err := openHand(ctx, cfg)
	if err != nil {
		src.Close()
		fmt.Fprintf(os.Stderr, "Error connecting to hand on %s: %v\n", cfg.Hand.Port, err)
		os.Exit(1)
	}

	tcfg := teleop.Config{
		Source:           src,
		Sink:             sink,
		Mapper:           glove.NewMapper(cfg.Glove.Channels, cal),
		HaltOnWriteError: c.HaltOnWriteError,
	}
	pub, err := openTelemetry(cfg)
	if err != nil {
		log.Printf("Telemetry disabled: %v", err)
	} else if pub != nil {
		tcfg.Telemetry = pub
		fmt.Printf("Publishing positions to %s\n", pub.Topic())
	}

	ctrl, err := teleop.NewController(tcfg)
	if err != nil {
		log.Fatalf("Failed to create controller: %v", err)
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigCh)
	go func() {
		for range sigCh {
			ctrl.Stop()
		}
	}()

	done := make(chan error, 1)
	go func() {
		done <- ctrl.Run(ctx)
	}()

	if c.Plain {
		err = runPlain(ctrl, done)
	} else {
		p := tea.NewProgram(initialTeleopModel(ctrl, done), tea.WithAltScreen())
		final, runErr := p.Run()
		if runErr != nil {
			log.Fatalf("Error running program: %v", runErr)
		}
		err = final.(teleopModel).err
	}

	if closeErr := ctrl.Close(); closeErr != nil {
		log.Printf("Warning: %v", closeErr)
	}
	stats := ctrl.Stats()
	fmt.Printf("%d steps, %d write errors\n", stats.Steps, stats.WriteErrors)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Control loop failed: %v\n", err)
		os.Exit(1)
	}
	return nil
}

// runPlain prints controller logs and a position line twice a second until
// the loop ends.
func runPlain(ctrl *teleop.Controller, done <-chan error) error {
	fmt.Println(dimStyle.Render("Press Ctrl+C to stop"))

	var last time.Time
	for {
		select {
		case msg := <-ctrl.Logs():
			fmt.Println(msg)
		case state := <-ctrl.States():
			if state.Error != nil || time.Since(last) < 500*time.Millisecond {
				continue
			}
			last = time.Now()
			fmt.Println(formatPositions(state.Positions))
		case err := <-done:
			drainLogs(ctrl)
			return err
		}
	}
}

func drainLogs(ctrl *teleop.Controller) {
	for {
		select {
		case msg := <-ctrl.Logs():
			fmt.Println(msg)
		default:
			return
		}
	}
}

func formatPositions(p hand.Positions) string {
	parts := make([]string, 0, hand.NumFingers)
	for _, f := range hand.AllFingers() {
		parts = append(parts, fmt.Sprintf("%s=%5d", f, p[f]))
	}
	return strings.Join(parts, " ")
}
