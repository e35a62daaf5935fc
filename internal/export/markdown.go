package export

import (
	"bytes"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/iksnae/skillswap/internal"
)

// MarkdownExporter exports transcripts in Markdown format
type MarkdownExporter struct{}

// Export exports a transcript to Markdown format
func (e *MarkdownExporter) Export(t *internal.Transcript, w io.Writer) error {
	_, err := w.Write(renderMarkdown(t))
	return err
}

func renderMarkdown(t *internal.Transcript) []byte {
	var b bytes.Buffer

	_, _ = fmt.Fprintf(&b, "# %s\n\n", t.Title())
	if t.Viewer.Name != "" {
		_, _ = fmt.Fprintf(&b, "**Member:** %s  \n", t.Viewer.Name)
	}
	_, _ = fmt.Fprintf(&b, "**Messages:** %d  \n", len(t.Messages))
	_, _ = fmt.Fprintf(&b, "**Sessions:** %d\n\n", len(t.Sessions))

	if len(t.Sessions) > 0 {
		_, _ = fmt.Fprintf(&b, "## Sessions\n\n")
		_, _ = fmt.Fprintf(&b, "| When | Learn | Teach | Minutes | Status |\n")
		_, _ = fmt.Fprintf(&b, "|---|---|---|---|---|\n")
		for _, s := range t.Sessions {
			_, _ = fmt.Fprintf(&b, "| %s | %s | %s | %d | %s |\n",
				s.ScheduledFor.UTC().Format(time.RFC3339),
				escapeMarkdown(s.RequestedSkill),
				escapeMarkdown(s.OfferedSkill),
				s.DurationMinutes,
				s.Status)
		}
		_, _ = fmt.Fprintf(&b, "\n")
	}

	_, _ = fmt.Fprintf(&b, "---\n\n")
	_, _ = fmt.Fprintf(&b, "## Messages\n\n")

	for i, msg := range t.Messages {
		timestamp := ""
		if msg.Timestamp != "" {
			timestamp = fmt.Sprintf(" (%s)", msg.Timestamp)
		}
		arrow := "→"
		if msg.Direction == internal.Incoming {
			arrow = "←"
		}

		_, _ = fmt.Fprintf(&b, "**%s %s:**%s\n\n%s\n\n", arrow, escapeMarkdown(msg.Sender), timestamp, escapeMarkdown(msg.Content))

		if i < len(t.Messages)-1 {
			_, _ = fmt.Fprintf(&b, "---\n\n")
		}
	}

	return b.Bytes()
}

// escapeMarkdown escapes markdown special characters
func escapeMarkdown(text string) string {
	lines := strings.Split(text, "\n")
	var result []string
	inCodeBlock := false

	for _, line := range lines {
		if strings.HasPrefix(line, "```") {
			inCodeBlock = !inCodeBlock
			result = append(result, line)
		} else if inCodeBlock {
			result = append(result, line)
		} else {
			line = strings.ReplaceAll(line, "**", "\\*\\*")
			line = strings.ReplaceAll(line, "__", "\\_\\_")
			line = strings.ReplaceAll(line, "|", "\\|")
			result = append(result, line)
		}
	}

	return strings.Join(result, "\n")
}

// Extension returns the file extension for this format
func (e *MarkdownExporter) Extension() string {
	return "md"
}
