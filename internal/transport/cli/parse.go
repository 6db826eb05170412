package cli

import (
	"path"
	"strings"
)

var imageExts = map[string]string{
	".png":  "image/png",
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".gif":  "image/gif",
	".webp": "image/webp",
}

// Input is one parsed console line.
type Input struct {
	Channel string
	Author  string
	Text    string
	Images  []string
}

// ParseLine reads "#channel author: text". The channel defaults to current
// and the author to DefaultAuthor. Words that name an image file or URL
// become image references instead of text.
func ParseLine(line, current string) Input {
	in := Input{Channel: current, Author: DefaultAuthor}
	line = strings.TrimSpace(line)

	if strings.HasPrefix(line, "#") {
		channel, rest, _ := strings.Cut(line, " ")
		if len(channel) > 1 {
			in.Channel = channel
		}
		line = strings.TrimSpace(rest)
	}

	if head, rest, ok := strings.Cut(line, ":"); ok && isAuthor(head) {
		in.Author = strings.TrimSpace(head)
		line = strings.TrimSpace(rest)
	}

	var words []string
	for _, w := range strings.Fields(line) {
		if imageContentType(w) != "" {
			in.Images = append(in.Images, w)
			continue
		}
		words = append(words, w)
	}
	in.Text = strings.Join(words, " ")
	return in
}

// isAuthor accepts a single word, so "note: see this" names an author but
// "see https://x" does not.
func isAuthor(s string) bool {
	s = strings.TrimSpace(s)
	return s != "" && !strings.ContainsAny(s, " \t/")
}

func imageContentType(ref string) string {
	p := ref
	if isRemote(ref) {
		if i := strings.IndexAny(p, "?#"); i >= 0 {
			p = p[:i]
		}
	}
	return imageExts[strings.ToLower(path.Ext(p))]
}

func isRemote(ref string) bool {
	return strings.HasPrefix(ref, "http://") || strings.HasPrefix(ref, "https://")
}
