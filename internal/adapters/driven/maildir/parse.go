package maildir

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	_ "github.com/emersion/go-message/charset"
	"github.com/emersion/go-message/mail"

	"github.com/custodia-labs/o365-cli/internal/connectors/microsoft"
	"github.com/custodia-labs/o365-cli/internal/core/domain"
	"github.com/custodia-labs/o365-cli/internal/logger"
)

type header struct {
	subject string
	from    string
	to      string
	cc      string
	date    time.Time
}

func readHeader(h mail.Header) header {
	var out header
	out.subject, _ = h.Subject()
	out.from = addressList(h, "From")
	out.to = addressList(h, "To")
	out.cc = addressList(h, "Cc")
	out.date, _ = h.Date()
	return out
}

func addressList(h mail.Header, key string) string {
	list, err := h.AddressList(key)
	if err != nil || len(list) == 0 {
		v, _ := h.Text(key)
		return strings.TrimSpace(v)
	}
	parts := make([]string, len(list))
	for i, a := range list {
		parts[i] = domain.Recipient{Name: a.Name, Address: a.Address}.String()
	}
	return strings.Join(parts, ", ")
}

// parseHeader reads only the header block of raw.
func parseHeader(raw []byte) header {
	r, err := mail.CreateReader(bytes.NewReader(raw))
	if err != nil && r == nil {
		logger.Debug("maildir: unreadable header: %v", err)
		return header{}
	}
	defer r.Close()
	return readHeader(r.Header)
}

// Read parses the message file. The plain text part is preferred; HTML is
// converted to text unless preferHTML is set.
func (s *Store) Read(_ context.Context, msg *domain.LocalMessage, preferHTML bool) (*domain.LocalMessageContent, error) {
	path, err := s.locate(msg)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open message: %w", err)
	}
	defer f.Close()

	r, err := mail.CreateReader(f)
	if err != nil && r == nil {
		return nil, fmt.Errorf("parse message: %w", err)
	}
	defer r.Close()

	hdr := readHeader(r.Header)
	out := &domain.LocalMessageContent{LocalMessage: *msg, Cc: hdr.cc}
	out.Path = path
	if hdr.subject != "" {
		out.Subject = hdr.subject
	}

	var text, html string
	for {
		part, err := r.NextPart()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			logger.Debug("maildir: %s: %v", msg.ShortID, err)
			break
		}

		switch h := part.Header.(type) {
		case *mail.InlineHeader:
			mediaType, _, _ := h.ContentType()
			body, err := io.ReadAll(part.Body)
			if err != nil {
				continue
			}
			switch {
			case strings.HasPrefix(mediaType, "text/plain") || mediaType == "":
				if text == "" {
					text = string(body)
				}
			case strings.HasPrefix(mediaType, "text/html"):
				if html == "" {
					html = string(body)
				}
			}
		case *mail.AttachmentHeader:
			name, _ := h.Filename()
			if strings.TrimSpace(name) == "" {
				name = "attachment"
			}
			out.Attachments = append(out.Attachments, name)
		}
	}

	switch {
	case preferHTML && html != "":
		out.Body, out.IsHTML = html, true
	case strings.TrimSpace(text) != "":
		out.Body = strings.TrimSpace(text)
	default:
		out.Body = microsoft.StripHTML(html)
	}
	return out, nil
}
