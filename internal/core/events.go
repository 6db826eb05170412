package core

import (
	"strings"
	"time"
)

// Attachment is a file attached to an inbound message.
type Attachment struct {
	ContentType string
	URL         string
	// Description is the text a transport derived from the attachment:
	// an image description or the text of a linked page.
	Description string
}

func (a Attachment) IsImage() bool {
	return strings.HasPrefix(a.ContentType, "image/")
}

// Channel identifies where a message was posted and which transport owns it.
type Channel struct {
	ID        string
	Name      string
	Transport string
}

// InboundEvent is a message received by a transport.
type InboundEvent struct {
	Transport   string
	ChannelID   string
	ChannelName string
	Author      string
	Text        string
	Attachments []Attachment
	ReceivedAt  time.Time
}

func (e InboundEvent) Channel() Channel {
	return Channel{ID: e.ChannelID, Name: e.ChannelName, Transport: e.Transport}
}
