// Package emgctl drives a robotic hand from a sensor glove.
//
// Glove samples (EMG or bend sensors) are calibrated against a few guided
// gestures, rescaled into finger positions and written to an OYMotion ROHand
// over Modbus RTU, or to a servo-driven hand on a Feetech bus.
//
// # Installation
//
//	go install github.com/gwillem/emgctl/cmd/emgctl@latest
//
// # Usage
//
// First, pick the glove and hand serial ports:
//
//	emgctl setup
//
// Then calibrate and start controlling the hand:
//
//	emgctl run
//
// # Packages
//
// The module is organized into the following packages:
//
//   - cmd/emgctl: CLI with setup, ports, calibrate, run, gesture, angle and monitor commands
//   - pkg/glove: Sample sources, channel map, calibration and position mapping
//   - pkg/hand: Hand actuators (ROHand over Modbus, Feetech servo hand) and gestures
//   - pkg/teleop: Session control loop
//   - pkg/config: JSON configuration file
//   - pkg/telemetry: MQTT publication of finger positions
package emgctl
