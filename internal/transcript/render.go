package transcript

import (
	"fmt"
	"strings"
)

const (
	UnknownUser      = "unknown user"
	UnknownContact   = "unknown contact"
	UnknownTimestamp = "unknown"
	NoDate           = "no date"
	NoURL            = "no URL"
	NoNumber         = "no number"
	UnknownName      = "unknown name"
	NoContactInfo    = "no information available"
	UnrecognizedLine = "[unrecognized message type]"
	contactSeparator = "; "
	phoneSeparator   = ","
	delimiterWidth   = 100
)

var delimiter = strings.Repeat("=", delimiterWidth)

// Transcript is the rendered form of one conversation.
type Transcript struct {
	Conversation Conversation
	Lines        []string
}

// Render turns a conversation and its messages into a transcript. Lines keep
// the order of msgs; every message yields exactly one line.
func Render(conv Conversation, msgs []Message, dir Directory) *Transcript {
	t := &Transcript{
		Conversation: conv,
		Lines:        make([]string, 0, len(msgs)),
	}
	for _, m := range msgs {
		t.Lines = append(t.Lines, RenderLine(conv, m, dir))
	}
	return t
}

// RenderLine formats a single message as "[timestamp] sender: body".
func RenderLine(conv Conversation, m Message, dir Directory) string {
	ts := m.Timestamp
	if ts == "" {
		ts = NoDate
	}
	return fmt.Sprintf("[%s] %s: %s", ts, resolveSender(conv, m, dir), renderBody(m))
}

// Bytes returns the full file contents: header, one line per message and the
// closing delimiter.
func (t *Transcript) Bytes() []byte {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Conversation with: %s (ID: %s)\n", t.Conversation.ContactName, t.Conversation.ID)
	fmt.Fprintf(&sb, "Started: %s | Closed: %s\n", t.Conversation.CreatedAt, t.Conversation.ClosedAt)
	sb.WriteString(delimiter + "\n")
	for _, line := range t.Lines {
		sb.WriteString(line)
		sb.WriteString("\n")
	}
	sb.WriteString("\n" + delimiter + "\n")
	return []byte(sb.String())
}

// resolveSender never consults the directory for contact messages.
func resolveSender(conv Conversation, m Message, dir Directory) string {
	if !m.FromMember {
		return conv.ContactName
	}
	if m.SenderMemberID == "" || dir == nil {
		return UnknownUser
	}
	if name, ok := dir.DisplayName(m.SenderMemberID); ok && name != "" {
		return name
	}
	return UnknownUser
}

// bodyRule renders a message body when the message carries the payload the
// rule requires. Rules are tried in order; the first match wins.
type bodyRule func(m Message) (string, bool)

var bodyRules = []bodyRule{
	textBody,
	attachmentBody,
	contactBody,
}

var attachmentLabels = map[MessageType]string{
	TypeAudio: "Audio",
	TypeImage: "Image",
	TypeVideo: "Video",
	TypeFile:  "File",
}

func renderBody(m Message) string {
	for _, rule := range bodyRules {
		if body, ok := rule(m); ok {
			return body
		}
	}
	return UnrecognizedLine
}

func textBody(m Message) (string, bool) {
	if m.Type != TypeText || m.Content == "" {
		return "", false
	}
	return m.Content, true
}

func attachmentBody(m Message) (string, bool) {
	label, ok := attachmentLabels[m.Type]
	if !ok || m.File == nil {
		return "", false
	}
	url := m.File.URL
	if url == "" {
		url = NoURL
	}
	return fmt.Sprintf("[%s] %s", label, url), true
}

func contactBody(m Message) (string, bool) {
	if m.Type != TypeContact {
		return "", false
	}
	if len(m.Contacts) == 0 {
		return "[Contact] " + NoContactInfo, true
	}
	entries := make([]string, 0, len(m.Contacts))
	for _, c := range m.Contacts {
		name := c.Name
		if name == "" {
			name = UnknownName
		}
		phones := NoNumber
		if len(c.PhoneNumbers) > 0 {
			phones = strings.Join(c.PhoneNumbers, phoneSeparator)
		}
		entries = append(entries, name+" - "+phones)
	}
	return "[Contact] " + strings.Join(entries, contactSeparator), true
}
