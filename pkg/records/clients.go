package records

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/platinummonkey/crm/pkg/storage"
	"github.com/sirupsen/logrus"
)

// ClientsKey is the document key holding client accounts
const ClientsKey = "crmAccounts"

// ClientPatch holds the fields to change on a client; nil fields are left as-is
type ClientPatch struct {
	Name     *string       `json:"name,omitempty"`
	Company  *string       `json:"company,omitempty"`
	Contact  *string       `json:"contact,omitempty"`
	Email    *string       `json:"email,omitempty"`
	Location *string       `json:"location,omitempty"`
	Status   *ClientStatus `json:"status,omitempty"`
}

// ClientStore holds client accounts in insertion order
type ClientStore struct {
	store storage.Store
	log   *logrus.Logger
	now   func() time.Time

	mu      sync.RWMutex
	clients []Client
}

// NewClientStore creates an empty client store over store
func NewClientStore(store storage.Store, log *logrus.Logger) *ClientStore {
	if log == nil {
		log = logrus.New()
	}
	return &ClientStore{store: store, log: log, now: time.Now}
}

// Load reads the clients document; a missing document means no clients
func (s *ClientStore) Load(ctx context.Context) error {
	clients, err := storage.Load(ctx, s.store, ClientsKey, []Client{})
	if err != nil {
		return fmt.Errorf("failed to load clients: %w", err)
	}

	s.mu.Lock()
	s.clients = clients
	s.mu.Unlock()
	return nil
}

// List returns a copy of every client
func (s *ClientStore) List() []Client {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]Client(nil), s.clients...)
}

// Get returns the client with the given ID
func (s *ClientStore) Get(id string) (Client, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if idx := s.indexOf(id); idx >= 0 {
		return s.clients[idx], nil
	}
	return Client{}, fmt.Errorf("%w: client %s", ErrNotFound, id)
}

// Search returns the clients whose name, company or email contains term, ignoring case
func (s *ClientStore) Search(term string) []Client {
	term = strings.ToLower(strings.TrimSpace(term))
	all := s.List()
	if term == "" {
		return all
	}

	out := make([]Client, 0, len(all))
	for _, c := range all {
		if containsFold(term, c.Name, c.Company, c.Email) {
			out = append(out, c)
		}
	}
	return out
}

// Add validates a client, fills its defaults and appends it
func (s *ClientStore) Add(ctx context.Context, client Client) (Client, error) {
	if err := validateClient(client); err != nil {
		return Client{}, err
	}
	if client.ID == "" {
		client.ID = uuid.NewString()
	}
	if client.Status == "" {
		client.Status = ClientActive
	}
	if !client.Status.Valid() {
		return Client{}, fmt.Errorf("%w: %q", ErrInvalidStatus, client.Status)
	}
	if client.CreatedAt.IsZero() {
		client.CreatedAt = s.now()
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	next := append(append([]Client(nil), s.clients...), client)
	if err := s.persist(ctx, next); err != nil {
		return Client{}, err
	}
	s.clients = next

	s.log.WithField("client_id", client.ID).Info("Client added")
	return client, nil
}

// Update applies patch to a client
func (s *ClientStore) Update(ctx context.Context, id string, patch ClientPatch) (Client, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.indexOf(id)
	if idx < 0 {
		return Client{}, fmt.Errorf("%w: client %s", ErrNotFound, id)
	}

	c := s.clients[idx]
	for _, f := range []struct {
		dst *string
		src *string
	}{
		{&c.Name, patch.Name},
		{&c.Company, patch.Company},
		{&c.Contact, patch.Contact},
		{&c.Email, patch.Email},
		{&c.Location, patch.Location},
	} {
		if f.src != nil {
			*f.dst = *f.src
		}
	}
	if patch.Status != nil {
		if !patch.Status.Valid() {
			return Client{}, fmt.Errorf("%w: %q", ErrInvalidStatus, *patch.Status)
		}
		c.Status = *patch.Status
	}
	if err := validateClient(c); err != nil {
		return Client{}, err
	}

	next := append([]Client(nil), s.clients...)
	next[idx] = c
	if err := s.persist(ctx, next); err != nil {
		return Client{}, err
	}
	s.clients = next
	return c, nil
}

// Delete removes a client
func (s *ClientStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.indexOf(id)
	if idx < 0 {
		return fmt.Errorf("%w: client %s", ErrNotFound, id)
	}

	next := make([]Client, 0, len(s.clients)-1)
	next = append(next, s.clients[:idx]...)
	next = append(next, s.clients[idx+1:]...)
	if err := s.persist(ctx, next); err != nil {
		return err
	}
	s.clients = next

	s.log.WithField("client_id", id).Info("Client deleted")
	return nil
}

// Replace swaps in a whole client list, used by seeding
func (s *ClientStore) Replace(ctx context.Context, clients []Client) error {
	for _, c := range clients {
		if err := validateClient(c); err != nil {
			return fmt.Errorf("client %s: %w", c.Name, err)
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	next := append([]Client(nil), clients...)
	if err := s.persist(ctx, next); err != nil {
		return err
	}
	s.clients = next
	return nil
}

func validateClient(c Client) error {
	return requireFields(
		[2]string{"name", c.Name},
		[2]string{"company", c.Company},
		[2]string{"email", c.Email},
	)
}

func (s *ClientStore) indexOf(id string) int {
	for i, c := range s.clients {
		if c.ID == id {
			return i
		}
	}
	return -1
}

func (s *ClientStore) persist(ctx context.Context, clients []Client) error {
	if err := storage.Save(ctx, s.store, ClientsKey, clients); err != nil {
		return fmt.Errorf("failed to persist clients: %w", err)
	}
	return nil
}

func containsFold(lowerTerm string, fields ...string) bool {
	for _, f := range fields {
		if strings.Contains(strings.ToLower(f), lowerTerm) {
			return true
		}
	}
	return false
}
