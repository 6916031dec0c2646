package users

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/platinummonkey/crm/pkg/storage"
	"github.com/sirupsen/logrus"
)

// StorageKey is the document key holding the roster
const StorageKey = "crmUsers"

// ErrSelfDelete is returned when a user tries to delete their own account
var ErrSelfDelete = errors.New("you cannot delete your own account")

// Patch holds the fields to change on an account; nil fields and empty name,
// email or credential values are left as-is
type Patch struct {
	Name       *string `json:"name,omitempty"`
	Email      *string `json:"email,omitempty"`
	Role       *Role   `json:"role,omitempty"`
	Credential *string `json:"password,omitempty"`
}

// Directory is the ordered roster of user accounts backed by a document store.
// Every mutation writes the whole roster; on a failed write the in-memory roster
// is left unchanged.
type Directory struct {
	store storage.Store
	log   *logrus.Logger

	mu       sync.RWMutex
	accounts []UserAccount
}

// NewDirectory creates a directory over store holding the default roster until Load is called
func NewDirectory(store storage.Store, log *logrus.Logger) *Directory {
	if log == nil {
		log = logrus.New()
	}
	return &Directory{
		store:    store,
		log:      log,
		accounts: DefaultRoster(),
	}
}

// Load reads the roster from the store, falling back to DefaultRoster
func (d *Directory) Load(ctx context.Context) error {
	accounts, err := storage.Load(ctx, d.store, StorageKey, DefaultRoster())
	if err != nil {
		return fmt.Errorf("failed to load user directory: %w", err)
	}

	d.mu.Lock()
	d.accounts = accounts
	d.mu.Unlock()

	d.log.WithField("users", len(accounts)).Debug("User directory loaded")
	return nil
}

// List returns a copy of the roster in insertion order
func (d *Directory) List() []UserAccount {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return append([]UserAccount(nil), d.accounts...)
}

// Get returns the account with the given ID
func (d *Directory) Get(id string) (UserAccount, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	for _, a := range d.accounts {
		if a.ID == id {
			return a, nil
		}
	}
	return UserAccount{}, fmt.Errorf("%w: %s", ErrNotFound, id)
}

// FindByEmail returns the account whose email matches exactly
func (d *Directory) FindByEmail(email string) (UserAccount, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	for _, a := range d.accounts {
		if a.Email == email {
			return a, true
		}
	}
	return UserAccount{}, false
}

// Resolve looks up the account behind an assignee email. Assignee references are
// weak: deleting a user leaves records pointing at an email that no longer resolves.
func (d *Directory) Resolve(email string) (UserAccount, bool) {
	if email == "" {
		return UserAccount{}, false
	}
	return d.FindByEmail(email)
}

// DisplayAssignee returns the assignee's name, or Unassigned when the email does not resolve
func (d *Directory) DisplayAssignee(email string) string {
	if a, ok := d.Resolve(email); ok {
		return a.Name
	}
	return Unassigned
}

// Add validates and appends an account. An empty ID gets a generated one; an empty
// credential gets a temporary one, which is returned on the stored account.
func (d *Directory) Add(ctx context.Context, account UserAccount) (UserAccount, error) {
	account.Email = strings.TrimSpace(account.Email)
	if account.Role == "" {
		account.Role = RoleAgent
	}
	if err := account.Validate(); err != nil {
		return UserAccount{}, err
	}
	if account.ID == "" {
		account.ID = uuid.NewString()
	}
	if account.Credential == "" {
		account.Credential = temporaryCredential()
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if err := checkUnique(d.accounts, account); err != nil {
		return UserAccount{}, err
	}

	next := append(append([]UserAccount(nil), d.accounts...), account)
	if err := d.persist(ctx, next); err != nil {
		return UserAccount{}, err
	}
	d.accounts = next

	d.log.WithFields(logrus.Fields{"user_id": account.ID, "role": account.Role}).Info("User added")
	return account, nil
}

// Update merges patch into the account with the given ID
func (d *Directory) Update(ctx context.Context, id string, patch Patch) (UserAccount, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	idx := d.indexOf(id)
	if idx < 0 {
		return UserAccount{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}

	updated := d.accounts[idx]
	if patch.Name != nil && *patch.Name != "" {
		updated.Name = *patch.Name
	}
	if patch.Email != nil && strings.TrimSpace(*patch.Email) != "" {
		updated.Email = strings.TrimSpace(*patch.Email)
	}
	if patch.Role != nil {
		updated.Role = *patch.Role
	}
	if patch.Credential != nil && *patch.Credential != "" {
		updated.Credential = *patch.Credential
	}
	if err := updated.Validate(); err != nil {
		return UserAccount{}, err
	}
	for i, a := range d.accounts {
		if i != idx && a.Email == updated.Email {
			return UserAccount{}, fmt.Errorf("%w: %s", ErrDuplicateEmail, updated.Email)
		}
	}

	next := append([]UserAccount(nil), d.accounts...)
	next[idx] = updated
	if err := d.persist(ctx, next); err != nil {
		return UserAccount{}, err
	}
	d.accounts = next

	d.log.WithField("user_id", id).Info("User updated")
	return updated, nil
}

// Delete removes the account with the given ID. Records assigned to the account
// keep its email.
func (d *Directory) Delete(ctx context.Context, id string) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	idx := d.indexOf(id)
	if idx < 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}

	next := make([]UserAccount, 0, len(d.accounts)-1)
	next = append(next, d.accounts[:idx]...)
	next = append(next, d.accounts[idx+1:]...)
	if err := d.persist(ctx, next); err != nil {
		return err
	}
	d.accounts = next

	d.log.WithField("user_id", id).Info("User deleted")
	return nil
}

// Replace swaps in a whole roster, used by seeding. Emails and IDs must be unique
// across the roster.
func (d *Directory) Replace(ctx context.Context, accounts []UserAccount) error {
	for i, a := range accounts {
		if err := a.Validate(); err != nil {
			return fmt.Errorf("account %s: %w", a.Email, err)
		}
		if err := checkUnique(accounts[:i], a); err != nil {
			return err
		}
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	next := append([]UserAccount(nil), accounts...)
	if err := d.persist(ctx, next); err != nil {
		return err
	}
	d.accounts = next
	return nil
}

// checkUnique rejects account when its email or ID is already taken in existing
func checkUnique(existing []UserAccount, account UserAccount) error {
	for _, a := range existing {
		if a.Email == account.Email {
			return fmt.Errorf("%w: %s", ErrDuplicateEmail, account.Email)
		}
		if a.ID == account.ID {
			return fmt.Errorf("%w: id %s", ErrInvalidAccount, account.ID)
		}
	}
	return nil
}

func (d *Directory) indexOf(id string) int {
	for i, a := range d.accounts {
		if a.ID == id {
			return i
		}
	}
	return -1
}

func (d *Directory) persist(ctx context.Context, accounts []UserAccount) error {
	if err := storage.Save(ctx, d.store, StorageKey, accounts); err != nil {
		return fmt.Errorf("failed to persist user directory: %w", err)
	}
	return nil
}

func temporaryCredential() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
}
