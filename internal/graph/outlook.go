// Package graph provides the Microsoft Graph mail client used to pull roster
// reports out of an Outlook mailbox.
package graph

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
)

const graphBase = "https://graph.microsoft.com/v1.0"

// ErrNoAttachment is returned when no message in range carries a matching
// attachment.
var ErrNoAttachment = errors.New("no matching attachment")

// EmailMessage represents an Outlook email message.
type EmailMessage struct {
	ID             string           `json:"id"`
	Subject        string           `json:"subject"`
	From           EmailRecipient   `json:"from"`
	To             []EmailRecipient `json:"toRecipients"`
	ReceivedAt     time.Time        `json:"receivedDateTime"`
	IsRead         bool             `json:"isRead"`
	HasAttachments bool             `json:"hasAttachments"`
	WebLink        string           `json:"webLink,omitempty"`
}

// EmailRecipient holds an email address with display name.
type EmailRecipient struct {
	EmailAddress EmailAddr `json:"emailAddress"`
}

// EmailAddr holds the address and name.
type EmailAddr struct {
	Name    string `json:"name"`
	Address string `json:"address"`
}

// Attachment represents an email attachment.
type Attachment struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	ContentType  string `json:"contentType"`
	Size         int64  `json:"size"`
	IsInline     bool   `json:"isInline"`
	ContentBytes string `json:"contentBytes,omitempty"` // base64 encoded
}

// InboxFilter configures which emails to retrieve.
type InboxFilter struct {
	From          string
	Subject       string
	HasAttachment bool
	UnreadOnly    bool
	Since         time.Time
	Limit         int
}

// Found is a report attachment located in the mailbox.
type Found struct {
	Message    EmailMessage
	Attachment Attachment
	Data       []byte
}

// Outlook provides Microsoft Outlook operations via Graph API.
type Outlook struct {
	Client *http.Client
}

// NewOutlook creates a new Outlook client.
func NewOutlook(client *http.Client) *Outlook {
	return &Outlook{Client: client}
}

type messagesResponse struct {
	Value []EmailMessage `json:"value"`
}

type attachmentsResponse struct {
	Value []Attachment `json:"value"`
}

// ListInbox returns recent emails, newest first, with optional filters.
func (o *Outlook) ListInbox(ctx context.Context, filter InboxFilter) ([]EmailMessage, error) {
	limit := filter.Limit
	if limit <= 0 {
		limit = 20
	}
	if limit > 50 {
		limit = 50
	}

	params := url.Values{}
	params.Set("$top", fmt.Sprintf("%d", limit))
	params.Set("$orderby", "receivedDateTime desc")
	params.Set("$select", "id,subject,from,toRecipients,receivedDateTime,isRead,hasAttachments,webLink")

	// Graph requires the $orderby property to lead the $filter expression.
	since := filter.Since
	if since.IsZero() {
		since = time.Unix(0, 0)
	}
	filters := []string{fmt.Sprintf("receivedDateTime ge %s", since.UTC().Format(time.RFC3339))}
	if filter.From != "" {
		filters = append(filters, fmt.Sprintf("from/emailAddress/address eq '%s'", odataQuote(filter.From)))
	}
	if filter.Subject != "" {
		filters = append(filters, fmt.Sprintf("contains(subject, '%s')", odataQuote(filter.Subject)))
	}
	if filter.HasAttachment {
		filters = append(filters, "hasAttachments eq true")
	}
	if filter.UnreadOnly {
		filters = append(filters, "isRead eq false")
	}
	params.Set("$filter", strings.Join(filters, " and "))

	var result messagesResponse
	if err := o.getJSON(ctx, graphBase+"/me/messages?"+params.Encode(), "inbox", &result); err != nil {
		return nil, err
	}
	return result.Value, nil
}

// ListAttachments returns attachments for a message.
func (o *Outlook) ListAttachments(ctx context.Context, messageID string) ([]Attachment, error) {
	params := url.Values{}
	params.Set("$select", "id,name,contentType,size,isInline")

	var result attachmentsResponse
	endpoint := graphBase + "/me/messages/" + url.PathEscape(messageID) + "/attachments?" + params.Encode()
	if err := o.getJSON(ctx, endpoint, "list attachments", &result); err != nil {
		return nil, err
	}
	return result.Value, nil
}

// AttachmentContent fetches a single attachment and decodes its content.
func (o *Outlook) AttachmentContent(ctx context.Context, messageID, attachmentID string) (*Attachment, []byte, error) {
	endpoint := graphBase + "/me/messages/" + url.PathEscape(messageID) + "/attachments/" + url.PathEscape(attachmentID)

	var att Attachment
	if err := o.getJSON(ctx, endpoint, "download attachment", &att); err != nil {
		return nil, nil, err
	}
	if att.ContentBytes == "" {
		return nil, nil, fmt.Errorf("attachment %s has no content", att.Name)
	}

	decoded, err := base64.StdEncoding.DecodeString(att.ContentBytes)
	if err != nil {
		return nil, nil, fmt.Errorf("could not decode attachment content: %w", err)
	}
	att.ContentBytes = ""
	return &att, decoded, nil
}

// DownloadAttachment downloads an attachment to a local directory.
// Returns the local file path written.
func (o *Outlook) DownloadAttachment(ctx context.Context, messageID, attachmentID, destDir string) (string, error) {
	att, data, err := o.AttachmentContent(ctx, messageID, attachmentID)
	if err != nil {
		return "", err
	}
	return SaveAttachment(destDir, att.Name, data)
}

// SaveAttachment writes attachment content into destDir under its own base name.
func SaveAttachment(destDir, name string, data []byte) (string, error) {
	if err := os.MkdirAll(destDir, 0755); err != nil {
		return "", fmt.Errorf("could not create output directory: %w", err)
	}

	outPath := filepath.Join(destDir, filepath.Base(name))
	if err := os.WriteFile(outPath, data, 0644); err != nil {
		return "", fmt.Errorf("could not write attachment: %w", err)
	}
	return outPath, nil
}

// FindAttachment walks messages matching filter, newest first, and returns
// the first non-inline attachment whose name satisfies match.
func (o *Outlook) FindAttachment(ctx context.Context, filter InboxFilter, match func(name string) bool) (*Found, error) {
	filter.HasAttachment = true
	messages, err := o.ListInbox(ctx, filter)
	if err != nil {
		return nil, err
	}

	for _, msg := range messages {
		atts, err := o.ListAttachments(ctx, msg.ID)
		if err != nil {
			return nil, err
		}
		for _, att := range atts {
			if att.IsInline || !match(att.Name) {
				continue
			}
			log.Debug().Str("message", msg.Subject).Str("attachment", att.Name).Msg("found report attachment")
			full, data, err := o.AttachmentContent(ctx, msg.ID, att.ID)
			if err != nil {
				return nil, err
			}
			return &Found{Message: msg, Attachment: *full, Data: data}, nil
		}
	}
	return nil, fmt.Errorf("%w in %d message(s) matching subject %q", ErrNoAttachment, len(messages), filter.Subject)
}

// MarkAsRead marks a message as read.
func (o *Outlook) MarkAsRead(ctx context.Context, messageID string) error {
	endpoint := graphBase + "/me/messages/" + url.PathEscape(messageID)
	body := []byte(`{"isRead": true}`)
	req, err := http.NewRequestWithContext(ctx, "PATCH", endpoint, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := o.Client.Do(req)
	if err != nil {
		return fmt.Errorf("could not mark as read: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("mark as read failed (%d): %s", resp.StatusCode, string(respBody))
	}
	return nil
}

func (o *Outlook) getJSON(ctx context.Context, endpoint, what string, out any) error {
	req, err := http.NewRequestWithContext(ctx, "GET", endpoint, nil)
	if err != nil {
		return err
	}

	resp, err := o.Client.Do(req)
	if err != nil {
		return fmt.Errorf("could not %s: %w", what, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("%s request failed (%d): %s", what, resp.StatusCode, string(body))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("could not parse %s response: %w", what, err)
	}
	return nil
}

// odataQuote escapes a string literal for an OData $filter expression.
func odataQuote(s string) string {
	return strings.ReplaceAll(s, "'", "''")
}

// IsXLSAttachment returns true if the attachment looks like a legacy Excel workbook.
func IsXLSAttachment(name string) bool {
	return strings.EqualFold(filepath.Ext(name), ".xls")
}

// FormatEmailDate formats an email timestamp for display.
func FormatEmailDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format("2006-01-02 15:04")
}
