package model

import (
	"encoding/json"
	"fmt"
)

// Color is an ARGB color with 8 bits per channel.
type Color struct {
	A, R, G, B uint8
}

// ColorFromHex unpacks a 0xAARRGGBB value.
func ColorFromHex(v uint32) Color {
	return Color{
		A: uint8(v >> 24),
		R: uint8(v >> 16),
		G: uint8(v >> 8),
		B: uint8(v),
	}
}

// Hex packs the color as 0xAARRGGBB.
func (c Color) Hex() uint32 {
	return uint32(c.A)<<24 | uint32(c.R)<<16 | uint32(c.G)<<8 | uint32(c.B)
}

func (c Color) String() string {
	return fmt.Sprintf("(%d, %d, %d, %d)", c.A, c.R, c.G, c.B)
}

func (c Color) MarshalJSON() ([]byte, error) {
	return json.Marshal(c.Hex())
}

func (c *Color) UnmarshalJSON(data []byte) error {
	v, err := decodeInt(data)
	if err != nil {
		return fmt.Errorf("color: %w", err)
	}
	*c = ColorFromHex(uint32(v))
	return nil
}
