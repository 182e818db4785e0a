package geopackage

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/encoding/wkb"
)

// Geometry blob errors.
var (
	ErrNotGeoPackageBinary = errors.New("not a GeoPackage geometry blob")
	ErrEmptyGeometry       = errors.New("empty geometry")
)

const gpHeaderSize = 8

// Header is the fixed part of a GeoPackage geometry blob.
type Header struct {
	Version      byte
	LittleEndian bool
	Empty        bool
	SRSID        int32
	EnvelopeLen  int
}

// envelopeSize maps the envelope indicator to its length in bytes.
func envelopeSize(indicator byte) (int, error) {
	switch indicator {
	case 0:
		return 0, nil
	case 1:
		return 32, nil
	case 2, 3:
		return 48, nil
	case 4:
		return 64, nil
	default:
		return 0, fmt.Errorf("invalid envelope indicator %d", indicator)
	}
}

// ParseHeader reads the header of a GeoPackage geometry blob.
func ParseHeader(blob []byte) (Header, error) {
	if len(blob) < gpHeaderSize || blob[0] != 'G' || blob[1] != 'P' {
		return Header{}, ErrNotGeoPackageBinary
	}

	flags := blob[3]
	h := Header{
		Version:      blob[2],
		LittleEndian: flags&0x01 == 1,
		Empty:        flags&0x10 != 0,
	}

	size, err := envelopeSize((flags >> 1) & 0x07)
	if err != nil {
		return Header{}, err
	}
	h.EnvelopeLen = size

	if h.LittleEndian {
		h.SRSID = int32(binary.LittleEndian.Uint32(blob[4:8]))
	} else {
		h.SRSID = int32(binary.BigEndian.Uint32(blob[4:8]))
	}

	if len(blob) < gpHeaderSize+h.EnvelopeLen {
		return Header{}, fmt.Errorf("truncated envelope: %d bytes", len(blob))
	}
	return h, nil
}

// DecodeGeometry decodes a GeoPackage geometry blob. Blobs without the GP
// header are read as plain WKB.
func DecodeGeometry(blob []byte) (orb.Geometry, error) {
	h, err := ParseHeader(blob)
	if errors.Is(err, ErrNotGeoPackageBinary) {
		return wkb.Unmarshal(blob)
	}
	if err != nil {
		return nil, err
	}
	if h.Empty {
		return nil, ErrEmptyGeometry
	}
	return wkb.Unmarshal(blob[gpHeaderSize+h.EnvelopeLen:])
}

// EncodeGeometry builds a little-endian GeoPackage blob without envelope.
func EncodeGeometry(g orb.Geometry, srsID int32) ([]byte, error) {
	body, err := wkb.Marshal(g, binary.LittleEndian)
	if err != nil {
		return nil, err
	}
	blob := make([]byte, gpHeaderSize, gpHeaderSize+len(body))
	blob[0], blob[1], blob[2], blob[3] = 'G', 'P', 0, 0x01
	binary.LittleEndian.PutUint32(blob[4:8], uint32(srsID))
	return append(blob, body...), nil
}
