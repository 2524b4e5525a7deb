package people

import (
	"strings"

	"github.com/custodia-labs/o365-cli/internal/core/domain"
)

// Contact is the Graph contact resource.
type Contact struct {
	ID             string         `json:"id"`
	DisplayName    string         `json:"displayName"`
	GivenName      string         `json:"givenName"`
	Surname        string         `json:"surname"`
	JobTitle       string         `json:"jobTitle"`
	CompanyName    string         `json:"companyName"`
	EmailAddresses []EmailAddress `json:"emailAddresses"`
}

// EmailAddress is one contact email.
type EmailAddress struct {
	Name    string `json:"name"`
	Address string `json:"address"`
}

// Name returns the display name, falling back to given name and surname.
func (c *Contact) Name() string {
	if c.DisplayName != "" {
		return c.DisplayName
	}
	return strings.TrimSpace(c.GivenName + " " + c.Surname)
}

// ToDomain converts a contact into one person per email address.
func (c *Contact) ToDomain() []domain.Person {
	var out []domain.Person
	for _, e := range c.EmailAddresses {
		addr := strings.ToLower(strings.TrimSpace(e.Address))
		if addr == "" {
			continue
		}
		name := c.Name()
		if name == "" {
			name = e.Name
		}
		out = append(out, domain.Person{
			Name:     name,
			Email:    addr,
			Source:   domain.SourceContact,
			JobTitle: c.JobTitle,
			Company:  c.CompanyName,
		})
	}
	return out
}
