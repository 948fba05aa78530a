// Package a2stest provides an in-process A2S_INFO responder and payload
// encoder for tests of A2S clients.
package a2stest

import (
	"bytes"
	"encoding/binary"

	"github.com/woozymasta/scpquery/internal/a2s"
)

var infoHeader = []byte{0xFF, 0xFF, 0xFF, 0xFF, 0x49}

// encoder writes A2S wire values to a buffer.
type encoder struct {
	buf bytes.Buffer
}

// WriteString writes a null terminated string.
func (e *encoder) WriteString(s string) {
	e.buf.WriteString(s)
	e.buf.WriteByte(0)
}

// Write writes a fixed size value in little endian order.
func (e *encoder) Write(v any) {
	_ = binary.Write(&e.buf, binary.LittleEndian, v)
}

func boolByte(b bool) byte {
	if b {
		return 1
	}
	return 0
}

// EncodeInfo encodes the A2S_INFO payload (without the reply header) for info.
// Ping is not part of the wire format and is ignored.
func EncodeInfo(info a2s.Info) []byte {
	e := &encoder{}
	e.Write(info.Protocol)
	e.WriteString(info.Name)
	e.WriteString(info.Map)
	e.WriteString(info.Folder)
	e.WriteString(info.Game)
	e.Write(info.AppID)
	e.Write(info.Players)
	e.Write(info.MaxPlayers)
	e.Write(info.Bots)
	e.Write(byte(info.ServerType))
	e.Write(byte(info.Environment))
	e.Write(boolByte(info.Password))
	e.Write(boolByte(info.VAC))

	return e.buf.Bytes()
}

// EncodeInfoReply encodes a complete A2S_INFO reply datagram.
func EncodeInfoReply(info a2s.Info) []byte {
	return append(bytes.Clone(infoHeader), EncodeInfo(info)...)
}
