package router

import (
	"regexp"
	"strings"
	"time"

	"github.com/sandevgo/chorus/internal/core"
)

type Reason string

const (
	ReasonNone     Reason = ""
	ReasonSelf     Reason = "self"
	ReasonMention  Reason = "mention"
	ReasonImplicit Reason = "implicit"
)

// MentionRecorder is the part of the attention tracker the router needs.
type MentionRecorder interface {
	RecordMention(p core.Persona, channelID string, now time.Time)
}

// Router picks at most one persona to handle an inbound event.
type Router struct {
	personas []core.Persona
	patterns []*regexp.Regexp
	mentions MentionRecorder
	now      func() time.Time
}

func New(personas []core.Persona, mentions MentionRecorder) *Router {
	patterns := make([]*regexp.Regexp, len(personas))
	for i, p := range personas {
		patterns[i] = regexp.MustCompile(`(?i)\b` + regexp.QuoteMeta(p.Name) + `\b`)
	}
	return &Router{
		personas: personas,
		patterns: patterns,
		mentions: mentions,
		now:      time.Now,
	}
}

// Route applies, in order: the self-author guard, the first persona
// mentioned by name, then the persona living in the event's channel.
// A mention outside the persona's home channel is recorded.
func (r *Router) Route(event core.InboundEvent) (core.Persona, Reason, bool) {
	author := strings.TrimSpace(event.Author)
	for _, p := range r.personas {
		if author != "" && author == p.DisplayName() {
			return core.Persona{}, ReasonSelf, false
		}
	}

	for i, p := range r.personas {
		if !r.patterns[i].MatchString(event.Text) {
			continue
		}
		if event.ChannelID != p.HomeChannel && r.mentions != nil {
			now := event.ReceivedAt
			if now.IsZero() {
				now = r.now()
			}
			r.mentions.RecordMention(p, event.ChannelID, now)
		}
		return p, ReasonMention, true
	}

	for _, p := range r.personas {
		if p.HomeChannel == event.ChannelID {
			return p, ReasonImplicit, true
		}
	}

	return core.Persona{}, ReasonNone, false
}

func (r *Router) Personas() []core.Persona {
	out := make([]core.Persona, len(r.personas))
	copy(out, r.personas)
	return out
}

// Lookup finds a persona by name, case-insensitively.
func (r *Router) Lookup(name string) (core.Persona, error) {
	for _, p := range r.personas {
		if strings.EqualFold(p.Name, name) {
			return p, nil
		}
	}
	return core.Persona{}, core.ErrPersonaNotFound
}
