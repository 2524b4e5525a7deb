package microsoft

import (
	"html"
	"regexp"
	"strings"

	"github.com/custodia-labs/o365-cli/internal/core/domain"
)

// EmailAddress is the Graph emailAddress complex type.
type EmailAddress struct {
	Name    string `json:"name,omitempty"`
	Address string `json:"address"`
}

// Recipient is the Graph recipient resource.
type Recipient struct {
	EmailAddress EmailAddress `json:"emailAddress"`
}

// NewRecipients builds Graph recipients from plain addresses.
func NewRecipients(addrs []string) []Recipient {
	out := make([]Recipient, 0, len(addrs))
	for _, a := range addrs {
		if a = strings.TrimSpace(a); a != "" {
			out = append(out, Recipient{EmailAddress: EmailAddress{Address: a}})
		}
	}
	return out
}

// ToDomain converts the recipient.
func (r Recipient) ToDomain() domain.Recipient {
	return domain.Recipient{Name: r.EmailAddress.Name, Address: r.EmailAddress.Address}
}

// RecipientsToDomain converts a recipient list.
func RecipientsToDomain(rs []Recipient) []domain.Recipient {
	if len(rs) == 0 {
		return nil
	}
	out := make([]domain.Recipient, len(rs))
	for i, r := range rs {
		out[i] = r.ToDomain()
	}
	return out
}

// ItemBody is the Graph itemBody complex type.
type ItemBody struct {
	ContentType string `json:"contentType"`
	Content     string `json:"content"`
}

var (
	blockTags   = regexp.MustCompile(`(?i)<\s*(br|/p|/div|/li|/tr|/h[1-6])\s*/?>`)
	dropTags    = regexp.MustCompile(`(?is)<(script|style|head)[^>]*>.*?</(script|style|head)>`)
	anyTag      = regexp.MustCompile(`<[^>]*>`)
	blankLines  = regexp.MustCompile(`\n[ \t]*\n[ \t\n]*`)
	inlineSpace = regexp.MustCompile(`[ \t\r\f\v]+`)
)

// StripHTML converts an HTML fragment to plain text, keeping line breaks for
// block elements.
func StripHTML(s string) string {
	if !strings.Contains(s, "<") && !strings.Contains(s, "&") {
		return strings.TrimSpace(s)
	}
	s = dropTags.ReplaceAllString(s, "")
	s = blockTags.ReplaceAllString(s, "\n")
	s = anyTag.ReplaceAllString(s, "")
	s = html.UnescapeString(s)
	s = strings.ReplaceAll(s, "\u00a0", " ")
	s = inlineSpace.ReplaceAllString(s, " ")
	s = blankLines.ReplaceAllString(s, "\n\n")

	lines := strings.Split(s, "\n")
	for i, l := range lines {
		lines[i] = strings.TrimSpace(l)
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}

// BodyText returns the body as plain text.
func (b ItemBody) BodyText() string {
	if strings.EqualFold(b.ContentType, "html") {
		return StripHTML(b.Content)
	}
	return strings.TrimSpace(b.Content)
}
