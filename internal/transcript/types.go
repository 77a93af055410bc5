package transcript

// MessageType is the kind of payload a message carries.
type MessageType int

const (
	TypeUnknown MessageType = iota
	TypeText
	TypeAudio
	TypeImage
	TypeVideo
	TypeFile
	TypeContact
)

// ParseMessageType maps the source's messageType string to a MessageType.
// Anything unrecognised is TypeUnknown.
func ParseMessageType(s string) MessageType {
	switch s {
	case "Text":
		return TypeText
	case "Audio":
		return TypeAudio
	case "Image":
		return TypeImage
	case "Video":
		return TypeVideo
	case "File":
		return TypeFile
	case "Contact":
		return TypeContact
	default:
		return TypeUnknown
	}
}

func (t MessageType) String() string {
	switch t {
	case TypeText:
		return "Text"
	case TypeAudio:
		return "Audio"
	case TypeImage:
		return "Image"
	case TypeVideo:
		return "Video"
	case TypeFile:
		return "File"
	case TypeContact:
		return "Contact"
	default:
		return "Unknown"
	}
}

// Conversation is one closed chat. ContactName is already filename-safe.
// CreatedAt and ClosedAt are kept exactly as the source returned them.
type Conversation struct {
	ID          string
	ContactName string
	CreatedAt   string
	ClosedAt    string
}

// Attachment is the file reference of a media message. URL may be empty
// even when the attachment itself is present.
type Attachment struct {
	URL string
}

// ContactCard is one entry of a shared-contact message.
type ContactCard struct {
	Name         string
	PhoneNumbers []string
}

// Message is a single chat event as delivered by the source.
type Message struct {
	Timestamp      string
	Type           MessageType
	Content        string
	File           *Attachment
	FromMember     bool // sent by an organization member rather than the contact
	SenderMemberID string
	Contacts       []ContactCard
}

// Directory resolves organization member ids to display names.
type Directory interface {
	DisplayName(memberID string) (string, bool)
}
