package tray

import (
	"bytes"
	"encoding/binary"
)

type rgb struct{ r, g, b byte }

var (
	connectedColor    = rgb{0x2e, 0xa0, 0x43}
	disconnectedColor = rgb{0x80, 0x80, 0x80}
)

const iconSize = 16

// makeIcon renders a 16x16 32-bit ICO: a filled circle in c on a
// transparent background.
func makeIcon(c rgb) []byte {
	const (
		headerSize = 6 + 16
		dibSize    = 40
		pixelBytes = iconSize * iconSize * 4
		maskBytes  = iconSize * 4 // 1bpp rows padded to 32 bits
	)
	var buf bytes.Buffer
	le := binary.LittleEndian

	// ICONDIR
	binary.Write(&buf, le, [3]uint16{0, 1, 1})
	// ICONDIRENTRY
	buf.Write([]byte{iconSize, iconSize, 0, 0})
	binary.Write(&buf, le, [2]uint16{1, 32})
	binary.Write(&buf, le, [2]uint32{dibSize + pixelBytes + maskBytes, headerSize})

	// BITMAPINFOHEADER, height doubled for the AND mask
	binary.Write(&buf, le, struct {
		Size, Width, Height    uint32
		Planes, BitCount       uint16
		Compression, ImageSize uint32
		XPels, YPels           uint32
		ClrUsed, ClrImportant  uint32
	}{dibSize, iconSize, iconSize * 2, 1, 32, 0, pixelBytes, 0, 0, 0, 0})

	// BGRA rows, bottom-up
	const center, radius2 = 7.5, 7.0 * 7.0
	for y := iconSize - 1; y >= 0; y-- {
		for x := 0; x < iconSize; x++ {
			dx, dy := float64(x)-center, float64(y)-center
			if dx*dx+dy*dy <= radius2 {
				buf.Write([]byte{c.b, c.g, c.r, 0xff})
			} else {
				buf.Write([]byte{0, 0, 0, 0})
			}
		}
	}
	buf.Write(make([]byte, maskBytes))
	return buf.Bytes()
}
