package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/huh"
	"go.bug.st/serial"

	"github.com/gwillem/emgctl/pkg/config"
	"github.com/gwillem/emgctl/pkg/glove"
)

type SetupCommand struct{}

func (c *SetupCommand) Execute(args []string) error {
	fmt.Println(headerStyle.Render("emgctl Setup"))
	fmt.Println(dimStyle.Render("━━━━━━━━━━━━"))
	fmt.Println()

	ports := listPorts()
	if len(ports) == 0 {
		fmt.Println("No serial ports found.")
		fmt.Println("Make sure the glove and the hand are connected.")
		os.Exit(1)
	}

	cfg := loadConfig()
	if detected, _ := glove.FindGlovePort(); cfg.Glove.Port == "" && detected != "" {
		cfg.Glove.Port = detected
	}

	options := make([]huh.Option[string], 0, len(ports))
	for _, port := range ports {
		options = append(options, huh.NewOption(port, port))
	}

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Which port is the glove on?").
				Options(options...).
				Value(&cfg.Glove.Port),
			huh.NewSelect[string]().
				Title("Which hand is connected?").
				Options(
					huh.NewOption("OYMotion ROHand (Modbus RTU)", config.DriverROHand),
					huh.NewOption("Feetech servo hand", config.DriverServo),
				).
				Value(&cfg.Hand.Driver),
			huh.NewSelect[string]().
				Title("Which port is the hand on?").
				Options(options...).
				Value(&cfg.Hand.Port),
		),
	)
	if err := form.Run(); err != nil {
		fmt.Println()
		os.Exit(0)
	}

	if cfg.Glove.Port == cfg.Hand.Port {
		fmt.Fprintln(os.Stderr, errorStyle.Render("Glove and hand cannot share a port."))
		os.Exit(1)
	}
	if cfg.Hand.Driver == config.DriverServo {
		for i := range cfg.Hand.Servos {
			if cfg.Hand.Servos[i].ID == 0 {
				cfg.Hand.Servos[i].ID = i + 1
				cfg.Hand.Servos[i].RangeMax = 4095
			}
		}
	}

	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Invalid configuration:\n%v\n", err)
		os.Exit(1)
	}
	if err := cfg.SaveTo(opts.Config); err != nil {
		fmt.Fprintf(os.Stderr, "Error saving config: %v\n", err)
		os.Exit(1)
	}

	fmt.Println(dimStyle.Render("━━━━━━━━━━━━━━━━━━━━━"))
	fmt.Println(successStyle.Render("Setup complete!"))
	fmt.Printf("  Glove: %s\n", cfg.Glove.Port)
	fmt.Printf("  Hand:  %s (%s)\n", cfg.Hand.Port, cfg.Hand.Driver)
	fmt.Printf("Configuration saved to %s\n", opts.Config)
	fmt.Println()
	fmt.Println("Start teleoperation with: " + headerStyle.Render("emgctl run"))

	return nil
}

type PortsCommand struct{}

func (c *PortsCommand) Execute(args []string) error {
	ports := listPorts()
	if len(ports) == 0 {
		fmt.Println("No serial ports found.")
		return nil
	}

	detected, _ := glove.FindGlovePort()
	for _, port := range ports {
		if port == detected {
			fmt.Printf("%s %s\n", port, successStyle.Render("(glove)"))
			continue
		}
		fmt.Println(port)
	}
	return nil
}

func listPorts() []string {
	ports, err := serial.GetPortsList()
	if err != nil {
		fmt.Printf("Error listing ports: %v\n", err)
		return nil
	}

	var result []string
	for _, port := range ports {
		// Skip Bluetooth ports on macOS
		if strings.Contains(port, "Bluetooth") {
			continue
		}
		result = append(result, port)
	}
	return result
}
