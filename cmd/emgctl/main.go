package main

import (
	"os"

	"github.com/jessevdk/go-flags"
)

type Options struct {
	Config string `short:"c" long:"config" default:"emgctl.json" description:"Configuration file"`

	Setup     SetupCommand     `command:"setup" description:"Choose glove and hand ports and write the configuration"`
	Ports     PortsCommand     `command:"ports" description:"List serial ports"`
	Calibrate CalibrateCommand `command:"calibrate" description:"Run the guided glove calibration"`
	Run       RunCommand       `command:"run" alias:"teleop" description:"Calibrate and drive the hand from the glove"`
	Gesture   GestureCommand   `command:"gesture" description:"Move the hand to a preset gesture"`
	Angle     AngleCommand     `command:"angle" description:"Set or read a finger angle on the ROHand"`
	Monitor   MonitorCommand   `command:"monitor" description:"Print decoded glove samples"`
}

var opts Options
var parser = flags.NewParser(&opts, flags.Default)

func main() {
	parser.LongDescription = "emgctl - Drive a prosthetic hand from an EMG glove"

	_, err := parser.Parse()
	if err != nil {
		if flagsErr, ok := err.(*flags.Error); ok {
			if flagsErr.Type == flags.ErrHelp {
				os.Exit(0)
			}
		}
		os.Exit(1)
	}
}
