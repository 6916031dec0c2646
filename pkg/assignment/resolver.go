package assignment

import (
	"errors"
	"sync"

	"github.com/platinummonkey/crm/pkg/users"
)

// ErrNoAssignableUsers is returned when round-robin has no candidates to assign to
var ErrNoAssignableUsers = errors.New("no assignable users")

// Assignable reports whether a role can receive leads
func Assignable(role users.Role) bool {
	return role == users.RoleLead || role == users.RoleAgent
}

// AssignableUsers returns the accounts that can receive leads, in directory order
func AssignableUsers(accounts []users.UserAccount) []users.UserAccount {
	var out []users.UserAccount
	for _, a := range accounts {
		if Assignable(a.Role) {
			out = append(out, a)
		}
	}
	return out
}

// RoundRobin distributes count records over candidates starting at startIndex.
// Record i goes to candidates[(startIndex+i) mod n]; the returned index is where
// the next batch should start. With no candidates and count > 0 it returns
// ErrNoAssignableUsers and nothing is assigned.
func RoundRobin(candidates []users.UserAccount, startIndex, count int) ([]string, int, error) {
	n := len(candidates)
	if count <= 0 {
		if n == 0 {
			return []string{}, startIndex, nil
		}
		return []string{}, normalize(startIndex, n), nil
	}
	if n == 0 {
		return nil, startIndex, ErrNoAssignableUsers
	}

	start := normalize(startIndex, n)

	emails := make([]string, count)
	for i := 0; i < count; i++ {
		emails[i] = candidates[(start+i)%n].Email
	}
	return emails, (start + count) % n, nil
}

func normalize(index, n int) int {
	index %= n
	if index < 0 {
		index += n
	}
	return index
}

// Rotation is the round-robin position owned by one application context
type Rotation struct {
	mu   sync.Mutex
	next int
}

// NewRotation creates a rotation starting at the first candidate
func NewRotation() *Rotation {
	return &Rotation{}
}

// Next returns the index the next batch will start at
func (r *Rotation) Next() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.next
}

// Assign runs RoundRobin from the current position and advances it on success
func (r *Rotation) Assign(candidates []users.UserAccount, count int) ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	emails, next, err := RoundRobin(candidates, r.next, count)
	if err != nil {
		return nil, err
	}
	r.next = next
	return emails, nil
}

// Set moves the rotation to index. Callers that compute a batch with RoundRobin
// use it to commit the batch's next index once its records are stored.
func (r *Rotation) Set(index int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.next = index
}

// Reset moves the rotation back to the first candidate
func (r *Rotation) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.next = 0
}

// Assignee is anything carrying an ID and an assignee email
type Assignee interface {
	AssignmentID() string
	SetAssignee(email string)
}

// ManualAssign sets the assignee of every record whose ID is listed. The email is
// not checked against the directory. It returns the number of records changed.
func ManualAssign[T Assignee](records []T, ids []string, email string) int {
	if len(ids) == 0 {
		return 0
	}
	wanted := make(map[string]bool, len(ids))
	for _, id := range ids {
		wanted[id] = true
	}

	changed := 0
	for _, rec := range records {
		if wanted[rec.AssignmentID()] {
			rec.SetAssignee(email)
			changed++
		}
	}
	return changed
}
