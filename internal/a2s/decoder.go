package a2s

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"strings"
)

// Defaults substituted when the reply is truncated before the field.
const (
	DefaultMaxPlayers  uint8       = 20
	DefaultServerType  ServerType  = 'd'
	DefaultEnvironment Environment = 'l'
)

// reader is a bounds checked cursor over an immutable payload.
type reader struct {
	buf []byte
	off int
}

func (r *reader) remaining() int {
	return len(r.buf) - r.off
}

func (r *reader) readByte(def byte) byte {
	if r.remaining() < 1 {
		return def
	}
	b := r.buf[r.off]
	r.off++
	return b
}

func (r *reader) readBool() bool {
	return r.readByte(0) != 0
}

func (r *reader) readUint16(def uint16) uint16 {
	if r.remaining() < 2 {
		return def
	}
	v := binary.LittleEndian.Uint16(r.buf[r.off:])
	r.off += 2
	return v
}

// readString reads up to the next null byte, or to the end of the buffer when
// there is none. Invalid UTF-8 sequences are replaced, never rejected.
func (r *reader) readString() string {
	if r.remaining() < 1 {
		return ""
	}

	rest := r.buf[r.off:]
	end := bytes.IndexByte(rest, 0)
	if end < 0 {
		r.off = len(r.buf)
		return strings.ToValidUTF8(string(rest), "\uFFFD")
	}

	r.off += end + 1
	return strings.ToValidUTF8(string(rest[:end]), "\uFFFD")
}

// DecodeInfo parses the A2S_INFO payload that follows the 5 byte reply header.
// Fields missing due to truncation take their defaults; trailing extra data
// (EDF and later fields) is ignored. Only an empty payload is an error.
func DecodeInfo(payload []byte) (*Info, error) {
	if len(payload) == 0 {
		return nil, fmt.Errorf("%w: empty payload", ErrDecode)
	}

	r := &reader{buf: payload}
	info := &Info{}
	info.Protocol = r.readByte(0)
	info.Name = r.readString()
	info.Map = r.readString()
	info.Folder = r.readString()
	info.Game = r.readString()
	info.AppID = r.readUint16(0)
	info.Players = r.readByte(0)
	info.MaxPlayers = r.readByte(DefaultMaxPlayers)
	info.Bots = r.readByte(0)
	info.ServerType = ServerType(r.readByte(byte(DefaultServerType)))
	info.Environment = Environment(r.readByte(byte(DefaultEnvironment)))
	info.Password = r.readBool()
	info.VAC = r.readBool()

	return info, nil
}
