package hand

import (
	"context"
	"errors"
	"math"
	"testing"
)

type writeCall struct {
	node     byte
	addr     uint16
	quantity uint16
	data     []byte
}

type fakeRegisters struct {
	node     byte
	writes   []writeCall
	reads    map[uint16][]byte
	writeErr error
}

func (f *fakeRegisters) WriteMultipleRegisters(address, quantity uint16, value []byte) ([]byte, error) {
	if f.writeErr != nil {
		return nil, f.writeErr
	}
	f.writes = append(f.writes, writeCall{node: f.node, addr: address, quantity: quantity, data: append([]byte(nil), value...)})
	return []byte{byte(address >> 8), byte(address), byte(quantity >> 8), byte(quantity)}, nil
}

func (f *fakeRegisters) ReadHoldingRegisters(address, quantity uint16) ([]byte, error) {
	data, ok := f.reads[address]
	if !ok {
		return nil, errors.New("illegal data address")
	}
	return data, nil
}

func newFakeHand(node byte) (*ROHand, *fakeRegisters) {
	regs := &fakeRegisters{reads: map[uint16][]byte{}}
	return newROHand(regs, func(id byte) { regs.node = id }, node), regs
}

func TestROHand_SetPositions(t *testing.T) {
	h, regs := newFakeHand(2)

	p := Positions{0, 1, 256, 32768, 65535, 4660}
	if err := h.SetPositions(context.Background(), p); err != nil {
		t.Fatalf("SetPositions: %v", err)
	}

	if len(regs.writes) != 1 {
		t.Fatalf("got %d writes, want 1", len(regs.writes))
	}
	w := regs.writes[0]
	if w.node != 2 {
		t.Errorf("node = %d, want 2", w.node)
	}
	if w.addr != RegFingerPosTarget0 {
		t.Errorf("addr = %d, want %d", w.addr, RegFingerPosTarget0)
	}
	if w.quantity != NumFingers {
		t.Errorf("quantity = %d, want %d", w.quantity, NumFingers)
	}

	expected := []byte{
		0x00, 0x00,
		0x00, 0x01,
		0x01, 0x00,
		0x80, 0x00,
		0xff, 0xff,
		0x12, 0x34,
	}
	if string(w.data) != string(expected) {
		t.Errorf("data = % x, want % x", w.data, expected)
	}
}

func TestROHand_WriteRegistersNode(t *testing.T) {
	h, regs := newFakeHand(2)

	if err := h.WriteRegisters(context.Background(), 7, 1000, []uint16{1}); err != nil {
		t.Fatalf("WriteRegisters: %v", err)
	}
	if regs.writes[0].node != 7 {
		t.Errorf("node = %d, want 7", regs.writes[0].node)
	}
}

func TestROHand_WriteError(t *testing.T) {
	h, regs := newFakeHand(2)
	regs.writeErr = errors.New("timeout")

	err := h.SetPositions(context.Background(), Positions{})
	if err == nil {
		t.Fatal("SetPositions should fail")
	}
	if !errors.Is(err, regs.writeErr) {
		t.Errorf("error %v does not wrap transport error", err)
	}
}

func TestROHand_CanceledContext(t *testing.T) {
	h, regs := newFakeHand(2)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := h.SetPositions(ctx, Positions{}); !errors.Is(err, context.Canceled) {
		t.Errorf("SetPositions error = %v, want context.Canceled", err)
	}
	if len(regs.writes) != 0 {
		t.Errorf("canceled write reached the bus")
	}
}

func TestROHand_SetFingerAngle(t *testing.T) {
	tests := []struct {
		degrees  float64
		expected uint16
	}{
		{15.05, 1505},
		{0, 0},
		{-1.5, 65386}, // -150 as two's complement
	}

	for _, tt := range tests {
		h, regs := newFakeHand(2)
		if err := h.SetFingerAngle(context.Background(), Index, tt.degrees); err != nil {
			t.Fatalf("SetFingerAngle(%f): %v", tt.degrees, err)
		}
		w := regs.writes[0]
		if w.addr != RegFingerAngleTarget0+1 {
			t.Errorf("addr = %d, want %d", w.addr, RegFingerAngleTarget0+1)
		}
		got := uint16(w.data[0])<<8 | uint16(w.data[1])
		if got != tt.expected {
			t.Errorf("SetFingerAngle(%f) wrote %d, want %d", tt.degrees, got, tt.expected)
		}
	}
}

func TestROHand_SetFingerAngleOutOfRange(t *testing.T) {
	h, _ := newFakeHand(2)
	if err := h.SetFingerAngle(context.Background(), Thumb, 400); err == nil {
		t.Error("SetFingerAngle(400) should fail")
	}
	if err := h.SetFingerAngle(context.Background(), Finger(9), 10); err == nil {
		t.Error("SetFingerAngle on finger 9 should fail")
	}
}

func TestROHand_FingerAngle(t *testing.T) {
	h, regs := newFakeHand(2)
	regs.reads[RegFingerAngle0+uint16(Ring)] = []byte{0xfe, 0x0c} // -500

	got, err := h.FingerAngle(context.Background(), Ring)
	if err != nil {
		t.Fatalf("FingerAngle: %v", err)
	}
	if math.Abs(got-(-5.0)) > 0.001 {
		t.Errorf("FingerAngle = %f, want -5.0", got)
	}
}

func TestROHand_Positions(t *testing.T) {
	h, regs := newFakeHand(2)
	regs.reads[RegFingerPos0] = []byte{
		0x00, 0x01, 0x00, 0x02, 0x00, 0x03,
		0x00, 0x04, 0x00, 0x05, 0xff, 0xff,
	}

	got, err := h.Positions(context.Background())
	if err != nil {
		t.Fatalf("Positions: %v", err)
	}
	expected := Positions{1, 2, 3, 4, 5, 65535}
	if got != expected {
		t.Errorf("Positions = %v, want %v", got, expected)
	}
}

func TestROHand_ShortRead(t *testing.T) {
	h, regs := newFakeHand(2)
	regs.reads[RegFingerPos0] = []byte{0x00, 0x01}

	if _, err := h.Positions(context.Background()); err == nil {
		t.Error("Positions should fail on a short response")
	}
}
