package people

import (
	"context"
	"fmt"
	"net/url"

	"github.com/custodia-labs/o365-cli/internal/connectors/microsoft"
	"github.com/custodia-labs/o365-cli/internal/core/domain"
	"github.com/custodia-labs/o365-cli/internal/core/ports/driven"
)

// Ensure Connector implements the interface.
var _ driven.ContactGateway = (*Connector)(nil)

const contactFields = "id,displayName,givenName,surname,jobTitle,companyName,emailAddresses"

// Connector reads Outlook contacts via Microsoft Graph.
type Connector struct {
	client *microsoft.Client
}

// New creates a new contacts connector.
func New(client *microsoft.Client) *Connector {
	return &Connector{client: client}
}

// ListContacts returns every contact that has an email address, one entry
// per address.
func (c *Connector) ListContacts(ctx context.Context) ([]domain.Person, error) {
	query := url.Values{
		"$top":    {"999"},
		"$select": {contactFields},
	}
	raw, err := microsoft.ListAll[Contact](ctx, c.client, microsoft.ServiceContacts, "/me/contacts", query)
	if err != nil {
		return nil, fmt.Errorf("list contacts: %w", err)
	}

	var out []domain.Person
	for i := range raw {
		out = append(out, raw[i].ToDomain()...)
	}
	return out, nil
}
