package domain

import "time"

// Recipient is a name and email address pair.
type Recipient struct {
	Name    string `json:"name,omitempty"`
	Address string `json:"email"`
}

// String renders the recipient as "Name <address>".
func (r Recipient) String() string {
	if r.Name == "" || r.Name == r.Address {
		return r.Address
	}
	return r.Name + " <" + r.Address + ">"
}

// AttachmentInfo describes an attachment on a received message.
type AttachmentInfo struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	ContentType string `json:"content_type,omitempty"`
	Size        int64  `json:"size"`
	IsInline    bool   `json:"is_inline,omitempty"`
}

// Message is a mail message snapshot.
type Message struct {
	ID                      string           `json:"id"`
	Subject                 string           `json:"subject"`
	From                    Recipient        `json:"from"`
	To                      []Recipient      `json:"to"`
	Cc                      []Recipient      `json:"cc,omitempty"`
	Bcc                     []Recipient      `json:"bcc,omitempty"`
	ReceivedAt              time.Time        `json:"received_datetime"`
	SentAt                  time.Time        `json:"sent_datetime,omitempty"`
	IsRead                  bool             `json:"is_read"`
	Importance              string           `json:"importance,omitempty"`
	HasAttachments          bool             `json:"has_attachments"`
	BodyPreview             string           `json:"body_preview,omitempty"`
	Body                    string           `json:"body_content,omitempty"`
	BodyType                string           `json:"body_type,omitempty"`
	WebLink                 string           `json:"web_link,omitempty"`
	ConversationID          string           `json:"conversation_id,omitempty"`
	ParentFolderID          string           `json:"folder_id,omitempty"`
	Categories              []string         `json:"categories,omitempty"`
	InferenceClassification string           `json:"inference_classification,omitempty"`
	Attachments             []AttachmentInfo `json:"attachments,omitempty"`
}

// MailFolder is a mailbox folder.
type MailFolder struct {
	ID               string `json:"id"`
	DisplayName      string `json:"display_name"`
	ParentFolderID   string `json:"parent_folder_id,omitempty"`
	TotalItemCount   int    `json:"total_item_count"`
	UnreadItemCount  int    `json:"unread_item_count"`
	ChildFolderCount int    `json:"child_folder_count"`
}

// OutgoingAttachment is a file attached to an outgoing message.
type OutgoingAttachment struct {
	Name        string
	ContentType string
	Data        []byte
}

// OutgoingMail is a message to send.
type OutgoingMail struct {
	To              []string
	Cc              []string
	Bcc             []string
	Subject         string
	Body            string
	IsHTML          bool
	Attachments     []OutgoingAttachment
	SaveToSentItems bool
}

// MessageQuery filters a remote message listing.
type MessageQuery struct {
	Folder string
	// Unread filters on read state when non-nil.
	Unread *bool
	Since  time.Time
	Search string
	// Limit caps the result after all pages are fetched. Zero means no cap.
	Limit int
}

// LocalMessage is a message in the local Maildir mirror.
type LocalMessage struct {
	ShortID string    `json:"id"`
	GraphID string    `json:"graph_id"`
	Folder  string    `json:"folder"`
	Path    string    `json:"path"`
	Subject string    `json:"subject"`
	From    string    `json:"from"`
	To      string    `json:"to"`
	Date    time.Time `json:"date"`
	Seen    bool      `json:"seen"`
}

// LocalMessageContent is a parsed local message.
type LocalMessageContent struct {
	LocalMessage
	Cc          string   `json:"cc,omitempty"`
	Body        string   `json:"body"`
	IsHTML      bool     `json:"is_html"`
	Attachments []string `json:"attachments,omitempty"`
}

// LocalQuery filters the local Maildir listing.
type LocalQuery struct {
	Folder string
	Count  int
	Since  time.Time
	// Seen filters on read state when non-nil.
	Seen   *bool
	Search string
	// Field is the header searched by Search: subject, from or to.
	Field string
}

// SyncOptions controls a Maildir sync run.
type SyncOptions struct {
	Folders      []string
	Count        int
	Since        time.Time
	All          bool
	FocusedInbox bool
}

// FolderSyncResult reports one folder of a sync run.
type FolderSyncResult struct {
	Folder     string `json:"folder"`
	Maildir    string `json:"maildir"`
	Fetched    int    `json:"fetched"`
	Skipped    int    `json:"skipped"`
	Downloaded int    `json:"downloaded"`
}

// MessageAction is the outcome of archive or mark-read on one message.
type MessageAction struct {
	ID      string `json:"id"`
	Subject string `json:"subject,omitempty"`
	DryRun  bool   `json:"dry_run"`
	Local   bool   `json:"local"`
}
