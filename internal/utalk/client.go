// Package utalk is a minimal client for the uTalk helpdesk chat API: it lists
// closed chats and fetches the messages of one chat.
package utalk

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/MikeSquared-Agency/scribe/internal/transcript"
)

const (
	// DefaultBaseURL is the production API root.
	DefaultBaseURL = "https://app-utalk.umbler.com/api"

	// DefaultPageSize is the Take of the chat listing.
	DefaultPageSize = 20

	// DefaultMessageTake is the number of messages fetched per chat.
	DefaultMessageTake = 50

	windowLayout = "2006-01-02T15:04:05"
)

// Window bounds the creation time of the chats to list. Start and End are
// sent verbatim as the API's UTC date filters.
type Window struct {
	Start string
	End   string
}

// DayWindow covers day from midnight to cutoffHour:00, in UTC.
func DayWindow(day time.Time, cutoffHour int) Window {
	d := day.UTC()
	start := time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, time.UTC)
	return Window{
		Start: start.Format(windowLayout),
		End:   start.Add(time.Duration(cutoffHour) * time.Hour).Format(windowLayout),
	}
}

// StatusError is returned when the API answers with a non-2xx status.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("utalk api error %d: %s", e.StatusCode, e.Body)
}

// Client calls the chat API with a bearer token.
type Client struct {
	baseURL  string
	token    string
	pageSize int
	client   *http.Client
	logger   *slog.Logger
}

// NewClient creates a client. pageSize is the Take of the single chat listing
// request; values below 1 fall back to DefaultPageSize.
func NewClient(baseURL, token string, pageSize int, timeout time.Duration, logger *slog.Logger) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if pageSize < 1 {
		pageSize = DefaultPageSize
	}
	return &Client{
		baseURL:  strings.TrimRight(baseURL, "/"),
		token:    token,
		pageSize: pageSize,
		client:   &http.Client{Timeout: timeout},
		logger:   logger,
	}
}

type chatsResponse struct {
	Items []chatItem `json:"items"`
}

type chatItem struct {
	ID      string `json:"id"`
	Contact *struct {
		Name *string `json:"name"`
	} `json:"contact"`
	CreatedAtUTC *string `json:"createdAtUTC"`
	ClosedAtUTC  *string `json:"closedAtUTC"`
}

type messagesResponse struct {
	Messages []messageItem `json:"messages"`
}

type messageItem struct {
	EventAtUTC  string `json:"eventAtUTC"`
	Content     string `json:"content"`
	MessageType string `json:"messageType"`
	File        *struct {
		URL string `json:"url"`
	} `json:"file"`
	Source                   string `json:"source"`
	SentByOrganizationMember *struct {
		ID string `json:"id"`
	} `json:"sentByOrganizationMember"`
	Contacts []struct {
		Name         string   `json:"name"`
		PhoneNumbers []string `json:"phoneNumbers"`
	} `json:"contacts"`
}

// ListClosedConversations returns the first page of closed chats created
// inside window. Chats beyond the configured page size are not fetched.
func (c *Client) ListClosedConversations(ctx context.Context, window Window, organizationID string) ([]transcript.Conversation, error) {
	q := url.Values{}
	q.Set("organizationId", organizationID)
	q.Set("ChatState", "Closed")
	q.Set("Messages", "All")
	q.Set("OrderBy", "LastMessage")
	q.Set("Skip", "0")
	q.Set("Take", strconv.Itoa(c.pageSize))
	q.Set("DateStartCreatedAtUTC", window.Start)
	q.Set("DateEndCreatedAtUTC", window.End)

	var resp chatsResponse
	if err := c.get(ctx, "/v1/chats/", q, &resp); err != nil {
		return nil, fmt.Errorf("list chats: %w", err)
	}

	convs := make([]transcript.Conversation, 0, len(resp.Items))
	for _, item := range resp.Items {
		convs = append(convs, toConversation(item))
	}
	return convs, nil
}

// FetchMessages returns up to maxCount messages of a chat that precede asOf,
// in the order the API delivers them.
func (c *Client) FetchMessages(ctx context.Context, conversationID, organizationID string, asOf time.Time, maxCount int) ([]transcript.Message, error) {
	if maxCount < 1 {
		maxCount = DefaultMessageTake
	}
	q := url.Values{}
	q.Set("organizationId", organizationID)
	q.Set("FromEventUTC", asOf.UTC().Format(time.RFC3339Nano))
	q.Set("Take", strconv.Itoa(maxCount))
	q.Set("Direction", "TakeBefore")

	var resp messagesResponse
	path := "/v1/chats/" + url.PathEscape(conversationID) + "/relative-messages/"
	if err := c.get(ctx, path, q, &resp); err != nil {
		return nil, fmt.Errorf("fetch messages of %s: %w", conversationID, err)
	}

	msgs := make([]transcript.Message, 0, len(resp.Messages))
	for _, item := range resp.Messages {
		msgs = append(msgs, toMessage(item))
	}
	return msgs, nil
}

func (c *Client) get(ctx context.Context, path string, query url.Values, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path+"?"+query.Encode(), nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("api call: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &StatusError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(body))}
	}

	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("unmarshal response: %w", err)
	}
	c.logger.Debug("utalk request done", "path", path, "status", resp.StatusCode, "bytes", len(body))
	return nil
}

func toConversation(item chatItem) transcript.Conversation {
	conv := transcript.Conversation{
		ID:          item.ID,
		ContactName: transcript.UnknownContact,
		CreatedAt:   transcript.UnknownTimestamp,
		ClosedAt:    transcript.UnknownTimestamp,
	}
	if item.Contact != nil && item.Contact.Name != nil && *item.Contact.Name != "" {
		conv.ContactName = transcript.SanitizeFilename(*item.Contact.Name)
	}
	if item.CreatedAtUTC != nil {
		conv.CreatedAt = *item.CreatedAtUTC
	}
	if item.ClosedAtUTC != nil {
		conv.ClosedAt = *item.ClosedAtUTC
	}
	return conv
}

func toMessage(item messageItem) transcript.Message {
	m := transcript.Message{
		Timestamp:  item.EventAtUTC,
		Type:       transcript.ParseMessageType(item.MessageType),
		Content:    item.Content,
		FromMember: item.Source == "Member",
	}
	if item.File != nil {
		m.File = &transcript.Attachment{URL: item.File.URL}
	}
	if item.SentByOrganizationMember != nil {
		m.SenderMemberID = item.SentByOrganizationMember.ID
	}
	for _, c := range item.Contacts {
		m.Contacts = append(m.Contacts, transcript.ContactCard{
			Name:         c.Name,
			PhoneNumbers: c.PhoneNumbers,
		})
	}
	return m
}
