package tool

import (
	"testing"

	"browsegpt/internal/domain/entity"

	"github.com/stretchr/testify/assert"
)

func TestURLPolicy_Check(t *testing.T) {
	policy := NewURLPolicy([]string{" LocalHost ", "internal.example", ""})

	tests := []struct {
		url     string
		allowed bool
	}{
		{"https://example.com/page", true},
		{"http://example.com", true},
		{"HTTPS://Example.com", true},
		{"ftp://example.com", false},
		{"file:///etc/hosts", false},
		{"example.com/no-scheme", false},
		{"https://", false},
		{"http://localhost:8080/admin", false},
		{"https://internal.example", false},
		{"https://deep.api.internal.example/x", false},
		{"https://notinternal.example", true},
		{"::::", false},
	}

	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			err := policy.Check(tt.url)
			if tt.allowed {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, entity.ErrURLNotAllowed)
			}
		})
	}
}

func TestURLPolicy_EmptyDenyList(t *testing.T) {
	assert.NoError(t, NewURLPolicy(nil).Check("http://localhost"))
}
