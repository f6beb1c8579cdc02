// Package wpdmwire implements the control-plane wire encoding (C6 transport):
// a small tagged, varint-prefixed binary format for WpdmMessage. No
// serialization library is used because none is needed here — see
// DESIGN.md for why this is the one hand-rolled wire format in the tree.
package wpdmwire

import (
	"encoding/binary"
	"fmt"
)

// MaxMessageSize is the framing limit from spec.md §6: every message must
// fit in a single datagram no larger than 1 MiB.
const MaxMessageSize = 1 << 20

const (
	tagSetWallpaper byte = 1
	tagQueryMonitor byte = 2
	tagMonitors     byte = 3
)

// MonitorMeta mirrors the immutable output description shared with the
// control plane (spec.md §3).
type MonitorMeta struct {
	Name   string
	Width  int32
	Height int32
}

// Message is a decoded WpdmMessage. Exactly one of the typed fields is
// meaningful, selected by Tag.
type Message struct {
	Tag byte

	// SetWallpaper
	Path     string
	Monitors []string

	// Monitors (response)
	MonitorList []MonitorMeta
}

// NewSetWallpaper builds a SetWallpaper variant.
func NewSetWallpaper(path string, monitors []string) Message {
	return Message{Tag: tagSetWallpaper, Path: path, Monitors: monitors}
}

// NewQueryMonitor builds a QueryMonitor variant.
func NewQueryMonitor() Message {
	return Message{Tag: tagQueryMonitor}
}

// NewMonitors builds a Monitors response variant.
func NewMonitors(monitors []MonitorMeta) Message {
	return Message{Tag: tagMonitors, MonitorList: monitors}
}

func (m Message) IsSetWallpaper() bool { return m.Tag == tagSetWallpaper }
func (m Message) IsQueryMonitor() bool { return m.Tag == tagQueryMonitor }
func (m Message) IsMonitors() bool     { return m.Tag == tagMonitors }

// Encode serializes m into the wire format, returning an error if the
// result would exceed MaxMessageSize.
func Encode(m Message) ([]byte, error) {
	var buf []byte
	buf = append(buf, m.Tag)

	switch m.Tag {
	case tagSetWallpaper:
		buf = appendString(buf, m.Path)
		buf = appendStringSlice(buf, m.Monitors)
	case tagQueryMonitor:
		// no payload
	case tagMonitors:
		buf = appendUvarint(buf, uint64(len(m.MonitorList)))
		for _, mm := range m.MonitorList {
			buf = appendString(buf, mm.Name)
			buf = appendUvarint(buf, uint64(int32ToUvarint(mm.Width)))
			buf = appendUvarint(buf, uint64(int32ToUvarint(mm.Height)))
		}
	default:
		return nil, fmt.Errorf("wpdmwire: encode: unknown message tag %d", m.Tag)
	}

	if len(buf) > MaxMessageSize {
		return nil, fmt.Errorf("wpdmwire: encode: message of %d bytes exceeds %d byte limit", len(buf), MaxMessageSize)
	}
	return buf, nil
}

// Decode parses a wire-format message, rejecting anything over
// MaxMessageSize or malformed.
func Decode(data []byte) (Message, error) {
	if len(data) > MaxMessageSize {
		return Message{}, fmt.Errorf("wpdmwire: decode: message of %d bytes exceeds %d byte limit", len(data), MaxMessageSize)
	}
	if len(data) == 0 {
		return Message{}, fmt.Errorf("wpdmwire: decode: empty message")
	}

	tag := data[0]
	rest := data[1:]

	switch tag {
	case tagSetWallpaper:
		path, rest, err := readString(rest)
		if err != nil {
			return Message{}, fmt.Errorf("wpdmwire: decode SetWallpaper path: %w", err)
		}
		monitors, _, err := readStringSlice(rest)
		if err != nil {
			return Message{}, fmt.Errorf("wpdmwire: decode SetWallpaper monitors: %w", err)
		}
		return Message{Tag: tag, Path: path, Monitors: monitors}, nil

	case tagQueryMonitor:
		return Message{Tag: tag}, nil

	case tagMonitors:
		count, rest, err := readUvarint(rest)
		if err != nil {
			return Message{}, fmt.Errorf("wpdmwire: decode Monitors count: %w", err)
		}
		if count > uint64(len(rest)) {
			return Message{}, fmt.Errorf("wpdmwire: decode Monitors count %d exceeds remaining %d bytes", count, len(rest))
		}
		list := make([]MonitorMeta, 0, count)
		for i := uint64(0); i < count; i++ {
			var name string
			name, rest, err = readString(rest)
			if err != nil {
				return Message{}, fmt.Errorf("wpdmwire: decode Monitors[%d].name: %w", i, err)
			}
			var w, h uint64
			w, rest, err = readUvarint(rest)
			if err != nil {
				return Message{}, fmt.Errorf("wpdmwire: decode Monitors[%d].width: %w", i, err)
			}
			h, rest, err = readUvarint(rest)
			if err != nil {
				return Message{}, fmt.Errorf("wpdmwire: decode Monitors[%d].height: %w", i, err)
			}
			list = append(list, MonitorMeta{Name: name, Width: uvarintToInt32(w), Height: uvarintToInt32(h)})
		}
		return Message{Tag: tag, MonitorList: list}, nil

	default:
		return Message{}, fmt.Errorf("wpdmwire: decode: unknown message tag %d", tag)
	}
}

// Widths and heights are always non-negative in this protocol, so they ride
// on a plain uvarint rather than zigzag encoding.
func int32ToUvarint(v int32) uint64  { return uint64(v) }
func uvarintToInt32(v uint64) int32  { return int32(v) }

func appendUvarint(buf []byte, v uint64) []byte {
	var tmp [binary.MaxVarintLen64]byte
	n := binary.PutUvarint(tmp[:], v)
	return append(buf, tmp[:n]...)
}

func appendString(buf []byte, s string) []byte {
	buf = appendUvarint(buf, uint64(len(s)))
	return append(buf, s...)
}

func appendStringSlice(buf []byte, ss []string) []byte {
	buf = appendUvarint(buf, uint64(len(ss)))
	for _, s := range ss {
		buf = appendString(buf, s)
	}
	return buf
}

func readUvarint(b []byte) (uint64, []byte, error) {
	v, n := binary.Uvarint(b)
	if n <= 0 {
		return 0, nil, fmt.Errorf("malformed varint")
	}
	return v, b[n:], nil
}

func readString(b []byte) (string, []byte, error) {
	n, rest, err := readUvarint(b)
	if err != nil {
		return "", nil, err
	}
	if uint64(len(rest)) < n {
		return "", nil, fmt.Errorf("truncated string: want %d bytes, have %d", n, len(rest))
	}
	return string(rest[:n]), rest[n:], nil
}

func readStringSlice(b []byte) ([]string, []byte, error) {
	count, rest, err := readUvarint(b)
	if err != nil {
		return nil, nil, err
	}
	if count > uint64(len(rest)) {
		return nil, nil, fmt.Errorf("string slice count %d exceeds remaining %d bytes", count, len(rest))
	}
	out := make([]string, 0, count)
	for i := uint64(0); i < count; i++ {
		var s string
		s, rest, err = readString(rest)
		if err != nil {
			return nil, nil, fmt.Errorf("element %d: %w", i, err)
		}
		out = append(out, s)
	}
	return out, rest, nil
}
