package storage

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/sahilm/fuzzy"

	"sol/model"
)

const maxContactMatches = 10

// ContactStore implements model.ContactStore on the contacts table.
type ContactStore struct {
	db *DB
}

const contactColumns = `id, name, email, phone, company, title, notes, last_interaction`

// List returns every contact ordered by name.
func (s *ContactStore) List(ctx context.Context) ([]model.Contact, error) {
	rows, err := s.db.db.QueryContext(ctx, `SELECT `+contactColumns+` FROM contacts ORDER BY name COLLATE NOCASE`)
	if err != nil {
		return nil, fmt.Errorf("failed to list contacts: %w", err)
	}
	defer rows.Close()

	var contacts []model.Contact
	for rows.Next() {
		var (
			c    model.Contact
			last int64
		)
		if err := rows.Scan(&c.ID, &c.Name, &c.Email, &c.Phone, &c.Company, &c.Title, &c.Notes, &last); err != nil {
			return nil, fmt.Errorf("failed to scan contact: %w", err)
		}
		c.LastInteraction = fromMillis(last)
		contacts = append(contacts, c)
	}
	return contacts, rows.Err()
}

// FindByName ranks contacts by fuzzy match of name against their names,
// best match first.
func (s *ContactStore) FindByName(ctx context.Context, name string) ([]model.Contact, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, nil
	}

	all, err := s.List(ctx)
	if err != nil {
		return nil, err
	}

	targets := make([]string, len(all))
	for i, c := range all {
		targets[i] = strings.ToLower(c.Name)
	}

	matches := fuzzy.Find(strings.ToLower(name), targets)
	if len(matches) > maxContactMatches {
		matches = matches[:maxContactMatches]
	}

	out := make([]model.Contact, len(matches))
	for i, match := range matches {
		out[i] = all[match.Index]
	}
	return out, nil
}

// Upsert inserts c, or replaces the contact with the same id.
func (s *ContactStore) Upsert(ctx context.Context, c model.Contact) (*model.Contact, error) {
	c.Name = strings.TrimSpace(c.Name)
	if c.Name == "" {
		return nil, fmt.Errorf("contact needs a name")
	}
	if c.ID == "" {
		c.ID = uuid.NewString()
	}

	_, err := s.db.db.ExecContext(ctx, `
	INSERT INTO contacts (id, name, email, phone, company, title, notes, last_interaction)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT (id) DO UPDATE SET
		name = excluded.name,
		email = excluded.email,
		phone = excluded.phone,
		company = excluded.company,
		title = excluded.title,
		notes = excluded.notes,
		last_interaction = excluded.last_interaction
	`,
		c.ID,
		c.Name,
		c.Email,
		c.Phone,
		c.Company,
		c.Title,
		c.Notes,
		toMillis(c.LastInteraction),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to save contact: %w", err)
	}
	return &c, nil
}
