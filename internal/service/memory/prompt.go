package memory

import (
	"fmt"
	"strings"

	"github.com/sandevgo/chorus/internal/core"
)

const (
	replyStyle = "Only respond with one or two sentence replies unless asked to explain in detail."

	ContinueInstruction = "respond naturally to the above conversation, in character, " +
		"driving the narrative forward and pursuing your goals."
	DreamInstruction = "Dream about the above conversation. Describe the dream in a few vivid sentences, " +
		"in character, mixing what happened with your hopes and fears."
	GoalInstruction = "Based on the above conversation, state one concrete goal you will pursue next, in character."
	SummaryPrompt   = "Summarize the following conversation history:"
)

// SystemPrompt is the system turn that puts the model in character.
func SystemPrompt(p core.Persona) string {
	personality := strings.TrimRight(strings.TrimSpace(p.Personality), ".")
	return fmt.Sprintf("You are %s. %s. %s", p.Name, personality, replyStyle)
}

// InboundText is the text a persona remembers for a message posted in a
// channel.
func InboundText(channelName, author, content string) string {
	return fmt.Sprintf("(%s) %s: %s", channelName, author, content)
}

// WithInstruction returns a copy of turns followed by a trailing user turn.
func WithInstruction(turns []core.Turn, instruction string) []core.Turn {
	out := make([]core.Turn, 0, len(turns)+1)
	out = append(out, turns...)
	return append(out, core.NewTextTurn(core.RoleUser, instruction))
}
