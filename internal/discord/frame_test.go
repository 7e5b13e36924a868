// Tests for frame encoding and decoding: header layout, partial reads,
// size guards and truncated input.
package discord

import (
	"bytes"
	"encoding/binary"
	"errors"
	"io"
	"testing"
)

// ///////////////////////////////////////////////
// EncodeFrame / WriteFrame
// ///////////////////////////////////////////////

func TestEncodeFrame(t *testing.T) {
	payload := []byte(`{"v":1,"client_id":"12345"}`)
	frame, err := EncodeFrame(OpHandshake, payload)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(frame) != frameHeaderSize+len(payload) {
		t.Fatalf("expected frame length %d, got %d", frameHeaderSize+len(payload), len(frame))
	}
	if op := Opcode(binary.LittleEndian.Uint32(frame[0:4])); op != OpHandshake {
		t.Fatalf("expected opcode %s, got %s", OpHandshake, op)
	}
	if n := binary.LittleEndian.Uint32(frame[4:8]); n != uint32(len(payload)) {
		t.Fatalf("expected length %d, got %d", len(payload), n)
	}
	if !bytes.Equal(frame[frameHeaderSize:], payload) {
		t.Fatalf("payload mismatch: expected %q, got %q", payload, frame[frameHeaderSize:])
	}
}

func TestEncodeFrame_SizeGuard(t *testing.T) {
	if _, err := EncodeFrame(OpFrame, make([]byte, MaxPayloadSize)); err != nil {
		t.Fatalf("expected exactly MaxPayloadSize to be accepted, got: %v", err)
	}
	_, err := EncodeFrame(OpFrame, make([]byte, MaxPayloadSize+1))
	if !errors.Is(err, ErrPayloadTooLarge) {
		t.Fatalf("expected ErrPayloadTooLarge, got: %v", err)
	}
}

func TestWriteFrame(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteFrame(&buf, OpPong, []byte(`{}`)); err != nil {
		t.Fatalf("WriteFrame: %v", err)
	}
	op, payload, err := DecodeFrame(&buf)
	if err != nil {
		t.Fatalf("DecodeFrame: %v", err)
	}
	if op != OpPong || string(payload) != `{}` {
		t.Fatalf("got %s %q", op, payload)
	}
}

func TestWriteFrame_Oversized(t *testing.T) {
	var buf bytes.Buffer
	err := WriteFrame(&buf, OpFrame, make([]byte, MaxPayloadSize+1))
	if !errors.Is(err, ErrPayloadTooLarge) {
		t.Fatalf("expected ErrPayloadTooLarge, got %v", err)
	}
	if buf.Len() != 0 {
		t.Fatalf("expected nothing written, got %d bytes", buf.Len())
	}
}

// ///////////////////////////////////////////////
// DecodeFrame
// ///////////////////////////////////////////////

// slowReader returns data one byte at a time, simulating partial reads.
type slowReader struct {
	data []byte
	pos  int
}

func (r *slowReader) Read(p []byte) (int, error) {
	if r.pos >= len(r.data) {
		return 0, io.EOF
	}
	p[0] = r.data[r.pos]
	r.pos++
	return 1, nil
}

func TestDecodeFrame_Partial(t *testing.T) {
	original := []byte(`{"hello":"world"}`)
	encoded, err := EncodeFrame(OpFrame, original)
	if err != nil {
		t.Fatalf("EncodeFrame: %v", err)
	}

	opcode, payload, err := DecodeFrame(&slowReader{data: encoded})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if opcode != OpFrame || !bytes.Equal(payload, original) {
		t.Fatalf("got %s %q", opcode, payload)
	}
}

func TestDecodeFrame_Sequential(t *testing.T) {
	var buf bytes.Buffer
	ops := []Opcode{OpHandshake, OpFrame, OpPing, OpClose}
	for _, op := range ops {
		if err := WriteFrame(&buf, op, []byte(op.String())); err != nil {
			t.Fatalf("WriteFrame: %v", err)
		}
	}
	for _, want := range ops {
		op, payload, err := DecodeFrame(&buf)
		if err != nil {
			t.Fatalf("DecodeFrame: %v", err)
		}
		if op != want || string(payload) != want.String() {
			t.Fatalf("got %s %q, want %s", op, payload, want)
		}
	}
}

func TestDecodeFrame_Errors(t *testing.T) {
	oversized := make([]byte, frameHeaderSize)
	binary.LittleEndian.PutUint32(oversized[0:4], uint32(OpFrame))
	binary.LittleEndian.PutUint32(oversized[4:8], MaxPayloadSize+1)

	truncated := make([]byte, frameHeaderSize)
	binary.LittleEndian.PutUint32(truncated[0:4], uint32(OpFrame))
	binary.LittleEndian.PutUint32(truncated[4:8], 100)
	truncated = append(truncated, []byte("short")...)

	tests := []struct {
		name string
		data []byte
		is   error
	}{
		{"oversized", oversized, ErrPayloadTooLarge},
		{"short header", []byte{0, 0, 0, 0}, io.ErrUnexpectedEOF},
		{"short payload", truncated, io.ErrUnexpectedEOF},
		{"empty", nil, io.EOF},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := DecodeFrame(bytes.NewReader(tt.data))
			if !errors.Is(err, tt.is) {
				t.Fatalf("expected %v, got %v", tt.is, err)
			}
		})
	}
}

func TestOpcodeString(t *testing.T) {
	if OpPing.String() != "PING" || OpClose.String() != "CLOSE" {
		t.Fatalf("unexpected names: %s %s", OpPing, OpClose)
	}
	if got := Opcode(9).String(); got != "OPCODE(9)" {
		t.Fatalf("unknown opcode string = %q", got)
	}
}
