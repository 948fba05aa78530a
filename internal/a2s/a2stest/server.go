package a2stest

import (
	"bytes"
	"net"
	"sync"
	"sync/atomic"

	"github.com/woozymasta/scpquery/internal/a2s"
)

// Mode selects how the Server answers requests.
type Mode int

const (
	// Direct answers every request with the info reply.
	Direct Mode = iota
	// Challenge answers a request without token with a challenge,
	// and a request echoing the token with the info reply.
	Challenge
	// Silent never answers.
	Silent
	// BadHeader answers with a reply whose marker is not FF FF FF FF.
	BadHeader
	// ShortChallenge answers with a challenge reply missing its token.
	ShortChallenge
	// UnexpectedType answers with a valid header and an unknown type byte.
	UnexpectedType
	// ShortReply answers with the 4 byte marker only.
	ShortReply
	// HeaderOnly answers with an info header and no payload.
	HeaderOnly
)

var (
	requestPrefix = append([]byte{0xFF, 0xFF, 0xFF, 0xFF, 0x54}, "Source Engine Query\x00"...)

	// Token is the challenge token issued in Challenge mode.
	Token = []byte{0x0A, 0x0B, 0x0C, 0x0D}
)

// Server is a UDP A2S_INFO responder bound to a loopback port.
type Server struct {
	conn     *net.UDPConn
	reply    []byte
	wg       sync.WaitGroup
	requests atomic.Int32
	mode     Mode
}

// NewServer starts a responder on an ephemeral loopback port.
func NewServer(mode Mode, info a2s.Info) (*Server, error) {
	return NewServerAt("127.0.0.1:0", mode, info)
}

// NewServerAt starts a responder on the given UDP address.
func NewServerAt(addr string, mode Mode, info a2s.Info) (*Server, error) {
	address, err := net.ResolveUDPAddr("udp4", addr)
	if err != nil {
		return nil, err
	}

	conn, err := net.ListenUDP("udp4", address)
	if err != nil {
		return nil, err
	}

	s := &Server{
		conn:  conn,
		mode:  mode,
		reply: EncodeInfoReply(info),
	}

	s.wg.Add(1)
	go s.serve()

	return s, nil
}

// Port returns the bound UDP port.
func (s *Server) Port() uint16 {
	return uint16(s.conn.LocalAddr().(*net.UDPAddr).Port)
}

// Requests returns the number of datagrams received so far.
func (s *Server) Requests() int {
	return int(s.requests.Load())
}

// Close stops the responder and releases the port.
func (s *Server) Close() {
	_ = s.conn.Close()
	s.wg.Wait()
}

func (s *Server) serve() {
	defer s.wg.Done()

	buf := make([]byte, 1500)
	for {
		n, from, err := s.conn.ReadFromUDP(buf)
		if err != nil {
			return
		}
		s.requests.Add(1)

		if resp := s.respond(buf[:n]); resp != nil {
			_, _ = s.conn.WriteToUDP(resp, from)
		}
	}
}

func (s *Server) respond(req []byte) []byte {
	if !bytes.HasPrefix(req, requestPrefix) {
		return nil
	}
	token := req[len(requestPrefix):]

	switch s.mode {
	case Direct:
		return s.reply
	case Challenge:
		if bytes.Equal(token, Token) {
			return s.reply
		}
		return append([]byte{0xFF, 0xFF, 0xFF, 0xFF, 0x41}, Token...)
	case BadHeader:
		return append([]byte{0xFE, 0xFF, 0xFF, 0xFF}, s.reply[4:]...)
	case ShortChallenge:
		return []byte{0xFF, 0xFF, 0xFF, 0xFF, 0x41, 0x0A, 0x0B}
	case UnexpectedType:
		return []byte{0xFF, 0xFF, 0xFF, 0xFF, 0x6D, 0x00}
	case ShortReply:
		return []byte{0xFF, 0xFF, 0xFF, 0xFF}
	case HeaderOnly:
		return []byte{0xFF, 0xFF, 0xFF, 0xFF, 0x49}
	default:
		return nil
	}
}
