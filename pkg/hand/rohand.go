package hand

import (
	"context"
	"encoding/binary"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/goburrow/modbus"
)

// ROHand register map (protocol v1).
const (
	RegFingerPosTarget0   uint16 = 1155
	RegFingerPos0         uint16 = 1165
	RegFingerAngleTarget0 uint16 = 1175
	RegFingerAngle0       uint16 = 1185
)

// Defaults for the ROHand RS-485 link.
const (
	DefaultROHandBaudRate = 115200
	DefaultROHandNodeID   = 2
)

// registerClient is the subset of modbus.Client used by ROHand.
type registerClient interface {
	WriteMultipleRegisters(address, quantity uint16, value []byte) ([]byte, error)
	ReadHoldingRegisters(address, quantity uint16) ([]byte, error)
}

// ROHandConfig holds the serial settings for an OYMotion ROHand.
type ROHandConfig struct {
	Port     string
	BaudRate int
	NodeID   byte
	Timeout  time.Duration
}

// ROHand drives an OYMotion ROHand over Modbus RTU.
type ROHand struct {
	mu      sync.Mutex
	handler *modbus.RTUClientHandler
	client  registerClient
	setNode func(byte)
	node    byte
}

// NewROHand opens the serial link to the hand.
func NewROHand(cfg ROHandConfig) (*ROHand, error) {
	if cfg.BaudRate == 0 {
		cfg.BaudRate = DefaultROHandBaudRate
	}
	if cfg.NodeID == 0 {
		cfg.NodeID = DefaultROHandNodeID
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = time.Second
	}

	handler := modbus.NewRTUClientHandler(cfg.Port)
	handler.BaudRate = cfg.BaudRate
	handler.DataBits = 8
	handler.Parity = "N"
	handler.StopBits = 1
	handler.SlaveId = cfg.NodeID
	handler.Timeout = cfg.Timeout

	if err := handler.Connect(); err != nil {
		return nil, fmt.Errorf("open modbus port %s: %w", cfg.Port, err)
	}

	h := newROHand(modbus.NewClient(handler), func(id byte) { handler.SlaveId = id }, cfg.NodeID)
	h.handler = handler
	return h, nil
}

func newROHand(client registerClient, setNode func(byte), node byte) *ROHand {
	return &ROHand{
		client:  client,
		setNode: setNode,
		node:    node,
	}
}

// Close closes the serial link.
func (h *ROHand) Close() error {
	if h.handler == nil {
		return nil
	}
	return h.handler.Close()
}

// NodeID returns the node the hand is addressed as.
func (h *ROHand) NodeID() byte {
	return h.node
}

// WriteRegisters writes a contiguous register block on the given node.
func (h *ROHand) WriteRegisters(ctx context.Context, node byte, addr uint16, values []uint16) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	data := make([]byte, 2*len(values))
	for i, v := range values {
		binary.BigEndian.PutUint16(data[2*i:], v)
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	h.setNode(node)
	if _, err := h.client.WriteMultipleRegisters(addr, uint16(len(values)), data); err != nil {
		return fmt.Errorf("write registers %d+%d on node %d: %w", addr, len(values), node, err)
	}
	return nil
}

// ReadRegisters reads a contiguous register block from the given node.
func (h *ROHand) ReadRegisters(ctx context.Context, node byte, addr uint16, count int) ([]uint16, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	h.setNode(node)
	data, err := h.client.ReadHoldingRegisters(addr, uint16(count))
	if err != nil {
		return nil, fmt.Errorf("read registers %d+%d on node %d: %w", addr, count, node, err)
	}
	if len(data) < 2*count {
		return nil, fmt.Errorf("read registers %d+%d on node %d: short response (%d bytes)", addr, count, node, len(data))
	}

	values := make([]uint16, count)
	for i := range values {
		values[i] = binary.BigEndian.Uint16(data[2*i:])
	}
	return values, nil
}

// SetPositions writes all finger position targets.
func (h *ROHand) SetPositions(ctx context.Context, positions Positions) error {
	return h.WriteRegisters(ctx, h.node, RegFingerPosTarget0, positions.Registers())
}

// Positions reads the current finger positions.
func (h *ROHand) Positions(ctx context.Context) (Positions, error) {
	var p Positions
	values, err := h.ReadRegisters(ctx, h.node, RegFingerPos0, NumFingers)
	if err != nil {
		return p, err
	}
	copy(p[:], values)
	return p, nil
}

// SetFingerAngle sets the target angle of a finger in degrees.
// The hand expects hundredths of a degree as a signed 16-bit value.
func (h *ROHand) SetFingerAngle(ctx context.Context, f Finger, degrees float64) error {
	if f < 0 || int(f) >= NumFingers {
		return fmt.Errorf("invalid finger %d", int(f))
	}
	target := math.Round(degrees * 100)
	if target < math.MinInt16 || target > math.MaxInt16 {
		return fmt.Errorf("angle %.2f out of range", degrees)
	}
	return h.WriteRegisters(ctx, h.node, RegFingerAngleTarget0+uint16(f), []uint16{uint16(int16(target))})
}

// FingerAngle reads the current angle of a finger in degrees.
func (h *ROHand) FingerAngle(ctx context.Context, f Finger) (float64, error) {
	if f < 0 || int(f) >= NumFingers {
		return 0, fmt.Errorf("invalid finger %d", int(f))
	}
	values, err := h.ReadRegisters(ctx, h.node, RegFingerAngle0+uint16(f), 1)
	if err != nil {
		return 0, err
	}
	return float64(int16(values[0])) / 100, nil
}
