package core

import "context"

// ModelCaller is the language-model collaborator: a system prompt and the
// conversation turns in, reply text out.
type ModelCaller interface {
	Complete(ctx context.Context, system string, turns []Turn) (string, error)
}

// ImageDescriber turns an image reference into descriptive text.
type ImageDescriber interface {
	AnalyzeURL(ctx context.Context, imageURL, query string) (string, error)
}

// LinkPreviewer turns links found in a message into text attachments.
type LinkPreviewer interface {
	Attachments(ctx context.Context, text string) []Attachment
}

// Transport delivers persona speech to a channel.
type Transport interface {
	Name() string
	Deliver(ctx context.Context, channelID string, persona Persona, text string) error
}

// InboundSink accepts events received by transports.
type InboundSink interface {
	Publish(ctx context.Context, event InboundEvent)
}
