package core

import (
	"strings"
)

const (
	AppName          = "Chorus"
	AppUserAgent     = "Chorus/0.1"
	AppRepositoryURL = "https://github.com/sandevgo/chorus"
	AppVersion       = "0.1.0"
)

const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

const (
	PartText     = "text"
	PartImageURL = "image_url"
)

// Part is one piece of a turn's content.
type Part struct {
	Type     string `json:"type"`
	Text     string `json:"text,omitempty"`
	ImageURL string `json:"image_url,omitempty"`
}

func TextPart(text string) Part {
	return Part{Type: PartText, Text: text}
}

func ImagePart(url string) Part {
	return Part{Type: PartImageURL, ImageURL: url}
}

// Turn is a single entry of a persona's conversation memory.
type Turn struct {
	Role  string `json:"role"`
	Parts []Part `json:"parts"`
}

func NewTextTurn(role, text string) Turn {
	return Turn{Role: role, Parts: []Part{TextPart(text)}}
}

// Text joins the text parts of the turn with newlines.
func (t Turn) Text() string {
	var texts []string
	for _, p := range t.Parts {
		if p.Type == PartText && p.Text != "" {
			texts = append(texts, p.Text)
		}
	}
	return strings.Join(texts, "\n")
}

// Images returns the image references of the turn in order.
func (t Turn) Images() []string {
	var urls []string
	for _, p := range t.Parts {
		if p.Type == PartImageURL && p.ImageURL != "" {
			urls = append(urls, p.ImageURL)
		}
	}
	return urls
}
