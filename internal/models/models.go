// Package models defines the data structures used for API requests and database persistence.
package models

import (
	"net"
	"strconv"
	"time"
)

// Preset is a named server shown by /servers and checked by /xy.
type Preset struct {
	Name string `json:"name"`
	Host string `json:"host"`
	Port uint16 `json:"port"`
}

// Addr returns the host:port form of the preset.
func (p Preset) Addr() string {
	return net.JoinHostPort(p.Host, strconv.Itoa(int(p.Port)))
}

// Binding is the server bound to a chat group.
type Binding struct {
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	GroupID   string    `json:"group_id"`
	Host      string    `json:"host"`
	Name      string    `json:"name,omitempty"`
	Port      uint16    `json:"port"`
}

// Addr returns the host:port form of the bound server.
func (b Binding) Addr() string {
	return net.JoinHostPort(b.Host, strconv.Itoa(int(b.Port)))
}

// Title returns the binding name, or its address when unnamed.
func (b Binding) Title() string {
	if b.Name != "" {
		return b.Name
	}
	return b.Addr()
}

// Admin is a user allowed to change group bindings.
type Admin struct {
	CreatedAt time.Time `json:"created_at"`
	UserID    string    `json:"user_id"`
	AddedBy   string    `json:"added_by,omitempty"`
}

// Message is a chat message delivered by the chat host.
// GroupID is empty for private messages.
type Message struct {
	GroupID string `json:"group_id,omitempty"`
	UserID  string `json:"user_id"`
	Text    string `json:"text"`
}

// Reply is the answer to a Message.
type Reply struct {
	Text    string `json:"text,omitempty"`
	Handled bool   `json:"handled"`
}
