package conv

import (
	"testing"
)

func TestMarkdownToTelegramHTML(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "empty input",
			input:    "",
			expected: "",
		},
		{
			name:     "plain text",
			input:    "Hello world",
			expected: "Hello world\n",
		},
		{
			name:     "bold text",
			input:    "**bold**",
			expected: "<strong>bold</strong>\n",
		},
		{
			name:     "inline code",
			input:    "`code`",
			expected: "<code>code</code>\n",
		},
		{
			name:     "header tags stripped",
			input:    "# Info",
			expected: "Info\n",
		},
		{
			name:     "script tags sanitized",
			input:    "<script>alert('xss')</script>",
			expected: "\n",
		},
		{
			name:     "mixed formatting",
			input:    "**Bold** and *italic* with `code`",
			expected: "<strong>Bold</strong> and <em>italic</em> with <code>code</code>\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := MarkdownToTelegramHTML([]byte(tt.input))
			if got != tt.expected {
				t.Errorf("MarkdownToTelegramHTML(%q) = %q, want %q", tt.input, got, tt.expected)
			}
		})
	}
}

func TestPersonaHTML(t *testing.T) {
	tests := []struct {
		name     string
		display  string
		input    string
		expected string
	}{
		{
			name:     "plain reply",
			display:  "Nova 🦊",
			input:    "Hello world",
			expected: "<b>Nova 🦊:</b> Hello world",
		},
		{
			name:     "display name escaped",
			display:  "<Nova>",
			input:    "**hi**",
			expected: "<b>&lt;Nova&gt;:</b> <strong>hi</strong>",
		},
		{
			name:     "no display name",
			display:  "",
			input:    "Hello world",
			expected: "Hello world",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := PersonaHTML(tt.display, tt.input)
			if got != tt.expected {
				t.Errorf("PersonaHTML(%q, %q) = %q, want %q", tt.display, tt.input, got, tt.expected)
			}
		})
	}
}
