package services

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/custodia-labs/o365-cli/internal/core/domain"
	"github.com/custodia-labs/o365-cli/internal/core/ports/driven"
	"github.com/custodia-labs/o365-cli/internal/core/ports/driving"
	"github.com/custodia-labs/o365-cli/internal/logger"
)

// Ensure ContactService implements the interface.
var _ driving.ContactService = (*ContactService)(nil)

// ContactService finds people among Outlook contacts and the owners of
// calendars shared with the signed-in user.
type ContactService struct {
	contacts  driven.ContactGateway
	calendars driven.CalendarGateway
}

// NewContactService creates a contact service. calendars may be nil.
func NewContactService(contacts driven.ContactGateway, calendars driven.CalendarGateway) *ContactService {
	return &ContactService{contacts: contacts, calendars: calendars}
}

// ListContacts returns Outlook contacts that have an email address.
func (s *ContactService) ListContacts(ctx context.Context) ([]domain.Person, error) {
	return s.contacts.ListContacts(ctx)
}

// CalendarOwners returns the owners of visible calendars.
func (s *ContactService) CalendarOwners(ctx context.Context) ([]domain.Person, error) {
	if s.calendars == nil {
		return nil, nil
	}
	cals, err := s.calendars.ListCalendars(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]domain.Person, 0, len(cals))
	for _, c := range cals {
		if c.Owner.Address == "" {
			continue
		}
		out = append(out, domain.Person{
			Name:   c.Owner.Name,
			Email:  strings.ToLower(c.Owner.Address),
			Source: domain.SourceCalendar,
		})
	}
	return out, nil
}

// List returns contacts and calendar owners, de-duplicated by email and
// sorted by name. Contacts win over calendar owners for the same address.
func (s *ContactService) List(ctx context.Context) ([]domain.Person, error) {
	contacts, err := s.ListContacts(ctx)
	if err != nil {
		return nil, err
	}
	owners, err := s.CalendarOwners(ctx)
	if err != nil {
		logger.Warn("contacts: skipping calendar owners: %v", err)
	}

	seen := make(map[string]bool, len(contacts)+len(owners))
	out := make([]domain.Person, 0, len(contacts)+len(owners))
	for _, p := range append(contacts, owners...) {
		if seen[p.Email] {
			continue
		}
		seen[p.Email] = true
		out = append(out, p)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return strings.ToLower(out[i].Name) < strings.ToLower(out[j].Name)
	})
	return out, nil
}

// looksLikeEmail matches the loose test used for user arguments.
func looksLikeEmail(s string) bool {
	return strings.Contains(s, "@") && strings.Contains(s, ".")
}

// Search matches an email exactly when query looks like one, otherwise a
// case-insensitive substring of the name or email.
func (s *ContactService) Search(ctx context.Context, query string) ([]domain.Person, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, fmt.Errorf("%w: search query is empty", domain.ErrInvalidInput)
	}
	people, err := s.List(ctx)
	if err != nil {
		return nil, err
	}

	q := strings.ToLower(query)
	var out []domain.Person
	for _, p := range people {
		if looksLikeEmail(q) {
			if p.Email == q {
				out = append(out, p)
			}
			continue
		}
		if strings.Contains(strings.ToLower(p.Name), q) || strings.Contains(p.Email, q) {
			out = append(out, p)
		}
	}
	return out, nil
}

// Resolve returns the single person matching query. An email with no
// match resolves to itself.
func (s *ContactService) Resolve(ctx context.Context, query string) (*domain.Person, error) {
	matches, err := s.Search(ctx, query)
	if err != nil {
		return nil, err
	}
	switch len(matches) {
	case 1:
		return &matches[0], nil
	case 0:
		if looksLikeEmail(query) {
			return &domain.Person{Email: strings.ToLower(strings.TrimSpace(query))}, nil
		}
		return nil, fmt.Errorf("%w: no users found matching %q", domain.ErrNotFound, query)
	}
	return nil, fmt.Errorf("%w: ambiguous query %q matches %d users: %s",
		domain.ErrInvalidInput, query, len(matches), describePeople(matches))
}

func describePeople(people []domain.Person) string {
	parts := make([]string, len(people))
	for i, p := range people {
		parts[i] = fmt.Sprintf("%s (%s)", p.Name, p.Email)
	}
	return strings.Join(parts, ", ")
}
