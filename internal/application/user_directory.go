package application

import (
	"context"
	"fmt"
	"sort"
	"strings"
)

// DefaultCredentials returns the built-in user table: user1..user10 whose
// passwords are their numeric suffix.
func DefaultCredentials() []Credential {
	creds := make([]Credential, 0, 10)
	for i := 1; i <= 10; i++ {
		creds = append(creds, Credential{
			Username: fmt.Sprintf("user%d", i),
			Password: fmt.Sprintf("%d", i),
		})
	}
	return creds
}

// UserDirectory is the fixed, read-only set of users allowed to log in.
type UserDirectory struct {
	users map[string]Credential
}

// NewUserDirectory validates creds and indexes them by username.
func NewUserDirectory(creds []Credential) (*UserDirectory, error) {
	vErr := &ValidationError{}
	users := make(map[string]Credential, len(creds))

	for i, cred := range creds {
		cred.Username = strings.TrimSpace(cred.Username)
		field := fmt.Sprintf("users[%d]", i)
		switch {
		case cred.Username == "":
			vErr.add(field, "username is required")
			continue
		case cred.Password == "" && cred.PasswordHash == "":
			vErr.add(field, "password or password_hash is required")
			continue
		}
		if _, exists := users[cred.Username]; exists {
			vErr.add(field, "duplicate username "+cred.Username)
			continue
		}
		users[cred.Username] = cred
	}

	if len(creds) == 0 {
		vErr.add("users", "at least one user is required")
	}
	if vErr.HasErrors() {
		return nil, vErr
	}
	return &UserDirectory{users: users}, nil
}

// GetCredential returns the credential registered for username.
func (d *UserDirectory) GetCredential(_ context.Context, username string) (Credential, error) {
	if d == nil {
		return Credential{}, ErrNotFound
	}
	cred, ok := d.users[username]
	if !ok {
		return Credential{}, ErrNotFound
	}
	return cred, nil
}

// Usernames lists the registered users in sorted order.
func (d *UserDirectory) Usernames() []string {
	if d == nil {
		return nil
	}
	names := make([]string, 0, len(d.users))
	for name := range d.users {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
