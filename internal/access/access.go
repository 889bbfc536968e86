// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package access implements the static user allow-list that gates research runs.
package access

import (
	"errors"
	"fmt"
	"strings"
)

// ErrAccessDenied is returned for users not on the allow-list.
var ErrAccessDenied = errors.New("access denied")

// DefaultUsers is the allow-list used when none is configured.
var DefaultUsers = []string{"admin"}

// AllowList is an immutable set of permitted user identifiers.
type AllowList struct {
	users map[string]struct{}
}

// NewAllowList builds an allow-list from users. Surrounding whitespace is
// trimmed and blank entries are dropped. An empty list denies everyone.
func NewAllowList(users []string) *AllowList {
	a := &AllowList{users: make(map[string]struct{}, len(users))}
	for _, u := range users {
		if u = strings.TrimSpace(u); u != "" {
			a.users[u] = struct{}{}
		}
	}
	return a
}

// ParseList splits a comma-separated user list, as found in environment variables.
func ParseList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// Allowed reports whether user is on the list.
func (a *AllowList) Allowed(user string) bool {
	_, ok := a.users[user]
	return ok
}

// Check returns ErrAccessDenied, wrapped with the user name, when user is
// not on the list.
func (a *AllowList) Check(user string) error {
	if !a.Allowed(user) {
		return fmt.Errorf("%w for user %q", ErrAccessDenied, user)
	}
	return nil
}

// Len returns the number of permitted users.
func (a *AllowList) Len() int {
	return len(a.users)
}
