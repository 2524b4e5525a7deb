package outlook

import (
	"encoding/base64"
	"mime"
	"path/filepath"

	"github.com/custodia-labs/o365-cli/internal/connectors/microsoft"
	"github.com/custodia-labs/o365-cli/internal/core/domain"
)

// Message represents an Outlook message from Microsoft Graph API.
type Message struct {
	ID                      string                `json:"id"`
	Subject                 string                `json:"subject"`
	BodyPreview             string                `json:"bodyPreview"`
	Body                    *microsoft.ItemBody   `json:"body,omitempty"`
	From                    *microsoft.Recipient  `json:"from,omitempty"`
	ToRecipients            []microsoft.Recipient `json:"toRecipients"`
	CcRecipients            []microsoft.Recipient `json:"ccRecipients"`
	BccRecipients           []microsoft.Recipient `json:"bccRecipients"`
	ReceivedDateTime        string                `json:"receivedDateTime"`
	SentDateTime            string                `json:"sentDateTime"`
	IsRead                  bool                  `json:"isRead"`
	Importance              string                `json:"importance"`
	ConversationID          string                `json:"conversationId"`
	ParentFolderID          string                `json:"parentFolderId"`
	WebLink                 string                `json:"webLink"`
	HasAttachments          bool                  `json:"hasAttachments"`
	Categories              []string              `json:"categories"`
	InferenceClassification string                `json:"inferenceClassification"`
	Attachments             []Attachment          `json:"attachments,omitempty"`
}

// Attachment is attachment metadata; content is never requested.
type Attachment struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	ContentType string `json:"contentType"`
	Size        int64  `json:"size"`
	IsInline    bool   `json:"isInline"`
}

// MailFolder is the Graph mailFolder resource.
type MailFolder struct {
	ID               string `json:"id"`
	DisplayName      string `json:"displayName"`
	ParentFolderID   string `json:"parentFolderId"`
	TotalItemCount   int    `json:"totalItemCount"`
	UnreadItemCount  int    `json:"unreadItemCount"`
	ChildFolderCount int    `json:"childFolderCount"`
}

// listFields is the $select used for message listings.
const listFields = "id,subject,from,toRecipients,ccRecipients,receivedDateTime,sentDateTime," +
	"isRead,importance,hasAttachments,bodyPreview,webLink,conversationId,parentFolderId," +
	"categories,inferenceClassification"

// ToDomain converts a Graph message.
func (m *Message) ToDomain() domain.Message {
	msg := domain.Message{
		ID:                      m.ID,
		Subject:                 m.Subject,
		To:                      microsoft.RecipientsToDomain(m.ToRecipients),
		Cc:                      microsoft.RecipientsToDomain(m.CcRecipients),
		Bcc:                     microsoft.RecipientsToDomain(m.BccRecipients),
		ReceivedAt:              microsoft.MustParseDateTime(m.ReceivedDateTime),
		SentAt:                  microsoft.MustParseDateTime(m.SentDateTime),
		IsRead:                  m.IsRead,
		Importance:              m.Importance,
		HasAttachments:          m.HasAttachments,
		BodyPreview:             m.BodyPreview,
		WebLink:                 m.WebLink,
		ConversationID:          m.ConversationID,
		ParentFolderID:          m.ParentFolderID,
		Categories:              m.Categories,
		InferenceClassification: m.InferenceClassification,
	}
	if m.From != nil {
		msg.From = m.From.ToDomain()
	}
	if m.Body != nil {
		msg.Body = m.Body.Content
		msg.BodyType = m.Body.ContentType
	}
	for _, a := range m.Attachments {
		msg.Attachments = append(msg.Attachments, domain.AttachmentInfo{
			ID:          a.ID,
			Name:        a.Name,
			ContentType: a.ContentType,
			Size:        a.Size,
			IsInline:    a.IsInline,
		})
	}
	return msg
}

// ToDomain converts a Graph mail folder. name overrides the display name
// so nested folders can carry their full path.
func (f *MailFolder) ToDomain(name string) domain.MailFolder {
	if name == "" {
		name = f.DisplayName
	}
	return domain.MailFolder{
		ID:               f.ID,
		DisplayName:      name,
		ParentFolderID:   f.ParentFolderID,
		TotalItemCount:   f.TotalItemCount,
		UnreadItemCount:  f.UnreadItemCount,
		ChildFolderCount: f.ChildFolderCount,
	}
}

// sendMailRequest is the body of POST /me/sendMail.
type sendMailRequest struct {
	Message         outgoingMessage `json:"message"`
	SaveToSentItems bool            `json:"saveToSentItems"`
}

type outgoingMessage struct {
	Subject       string                `json:"subject"`
	Body          microsoft.ItemBody    `json:"body"`
	ToRecipients  []microsoft.Recipient `json:"toRecipients"`
	CcRecipients  []microsoft.Recipient `json:"ccRecipients,omitempty"`
	BccRecipients []microsoft.Recipient `json:"bccRecipients,omitempty"`
	Attachments   []fileAttachment      `json:"attachments,omitempty"`
}

type fileAttachment struct {
	ODataType    string `json:"@odata.type"`
	Name         string `json:"name"`
	ContentType  string `json:"contentType"`
	ContentBytes string `json:"contentBytes"`
}

func newSendMailRequest(mail domain.OutgoingMail) sendMailRequest {
	contentType := "text"
	if mail.IsHTML {
		contentType = "html"
	}

	msg := outgoingMessage{
		Subject:       mail.Subject,
		Body:          microsoft.ItemBody{ContentType: contentType, Content: mail.Body},
		ToRecipients:  microsoft.NewRecipients(mail.To),
		CcRecipients:  microsoft.NewRecipients(mail.Cc),
		BccRecipients: microsoft.NewRecipients(mail.Bcc),
	}
	for _, a := range mail.Attachments {
		ct := a.ContentType
		if ct == "" {
			ct = mime.TypeByExtension(filepath.Ext(a.Name))
		}
		if ct == "" {
			ct = "application/octet-stream"
		}
		msg.Attachments = append(msg.Attachments, fileAttachment{
			ODataType:    "#microsoft.graph.fileAttachment",
			Name:         a.Name,
			ContentType:  ct,
			ContentBytes: base64.StdEncoding.EncodeToString(a.Data),
		})
	}

	return sendMailRequest{Message: msg, SaveToSentItems: mail.SaveToSentItems}
}
