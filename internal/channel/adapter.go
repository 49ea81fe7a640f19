package channel

import "context"

// Kind classifies an inbound message
type Kind int

const (
	// KindText is free text typed by the user
	KindText Kind = iota
	// KindCommand is one of the fixed slash commands
	KindCommand
	// KindCallback is a button selection carrying an action token
	KindCallback
)

// Message represents an inbound event from a channel
type Message struct {
	Kind         Kind
	UserID       int64
	Text         string
	Command      string
	Args         string
	CallbackData string
	Timestamp    int64
}

// Button is one inline choice attached to a response
type Button struct {
	Label string
	Data  string
}

// Response represents a reply to send back to the channel, optionally
// with rows of inline buttons
type Response struct {
	Text    string
	Buttons [][]Button
}

// ChannelAdapter is the interface for channel adapters
type ChannelAdapter interface {
	// Start starts the channel adapter
	Start(ctx context.Context) error

	// Stop stops the channel adapter
	Stop() error

	// SendMessage sends a message to the channel
	SendMessage(userID int64, resp *Response) error

	// Incoming returns a channel of incoming messages
	Incoming() <-chan *Message

	// Name returns the name of the channel adapter
	Name() string

	// IsEnabled returns whether the channel is enabled
	IsEnabled() bool
}
