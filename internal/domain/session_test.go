package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSession_State(t *testing.T) {
	anon := &Session{ID: "sess-1", ExpiresAt: time.Now().Add(time.Hour)}
	assert.False(t, anon.IsAuthenticated())
	assert.False(t, anon.IsExpired())

	stale := &Session{ID: "sess-2", UserID: "user-1", ExpiresAt: time.Now().Add(-time.Minute)}
	assert.True(t, stale.IsAuthenticated())
	assert.True(t, stale.IsExpired())
}
