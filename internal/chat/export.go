package chat

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"
)

// ExportFormat represents the format for exporting a transcript
type ExportFormat string

const (
	ExportFormatMarkdown ExportFormat = "markdown"
	ExportFormatJSON     ExportFormat = "json"
)

// FormatFromPath picks the export format from a file extension
func FormatFromPath(path string) ExportFormat {
	if strings.HasSuffix(strings.ToLower(path), ".json") {
		return ExportFormatJSON
	}
	return ExportFormatMarkdown
}

// Export writes the messages to w in the given format.
// Pending messages are written with an empty body and marked as pending.
func Export(w io.Writer, messages []Message, format ExportFormat) error {
	switch format {
	case ExportFormatJSON:
		return exportJSON(w, messages)
	case ExportFormatMarkdown, "":
		_, err := io.WriteString(w, ExportMarkdown(messages))
		return err
	default:
		return fmt.Errorf("unsupported export format: %s", format)
	}
}

// ExportMarkdown renders the messages as a Markdown transcript
func ExportMarkdown(messages []Message) string {
	var sb strings.Builder

	sb.WriteString("# Assistant transcript\n\n")
	sb.WriteString("**Messages:** ")
	sb.WriteString(fmt.Sprintf("%d", len(messages)))
	sb.WriteString("\n\n---\n\n")

	for i, msg := range messages {
		role := "User"
		if msg.Sender == SenderAssistant {
			role = "Assistant"
		}

		sb.WriteString("## ")
		sb.WriteString(role)
		if !msg.Created.IsZero() {
			sb.WriteString(" (")
			sb.WriteString(msg.Created.Format("15:04:05"))
			sb.WriteString(")")
		}
		sb.WriteString("\n\n")

		if msg.Pending {
			sb.WriteString("_pending_\n")
		} else {
			sb.WriteString(msg.Text)
			sb.WriteString("\n")
		}

		if i < len(messages)-1 {
			sb.WriteString("\n---\n\n")
		}
	}

	return sb.String()
}

type exportMessage struct {
	ID      string    `json:"id"`
	Sender  Sender    `json:"sender"`
	Text    string    `json:"text"`
	Pending bool      `json:"pending,omitempty"`
	Created time.Time `json:"created"`
}

func exportJSON(w io.Writer, messages []Message) error {
	out := make([]exportMessage, 0, len(messages))
	for _, m := range messages {
		out = append(out, exportMessage{
			ID:      m.ID.String(),
			Sender:  m.Sender,
			Text:    m.Text,
			Pending: m.Pending,
			Created: m.Created,
		})
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}
