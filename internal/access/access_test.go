// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package access

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAllowList(t *testing.T) {
	a := NewAllowList([]string{"admin", " analyst ", ""})

	assert.Equal(t, 2, a.Len())
	assert.True(t, a.Allowed("admin"))
	assert.True(t, a.Allowed("analyst"))
	assert.False(t, a.Allowed("Admin"), "lookups are case-sensitive")
	assert.NoError(t, a.Check("admin"))

	err := a.Check("mallory")
	assert.ErrorIs(t, err, ErrAccessDenied)
	assert.Contains(t, err.Error(), `"mallory"`)
}

func TestAllowList_EmptyDeniesAll(t *testing.T) {
	a := NewAllowList(nil)
	assert.ErrorIs(t, a.Check("admin"), ErrAccessDenied)
}

func TestParseList(t *testing.T) {
	tests := []struct {
		in   string
		want []string
	}{
		{"admin", []string{"admin"}},
		{"admin, ana ,bob", []string{"admin", "ana", "bob"}},
		{" , ,", nil},
		{"", nil},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseList(tt.in))
		})
	}
}
