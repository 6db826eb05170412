package core

import "context"

// CmdRouter answers operator commands typed into a transport. The bool is
// false when input is not a command and should be treated as chat.
type CmdRouter interface {
	Execute(ctx context.Context, channelID, input string) (string, bool)
	ListCommands() []Command
}

// Command is a single slash command. The reply is Markdown.
type Command interface {
	Name() string
	Description() string
	Execute(ctx context.Context, channelID string, args []string) (string, error)
}
