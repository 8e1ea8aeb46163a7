package identity

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

var testTime = time.Date(2026, 5, 4, 10, 30, 15, 100_000_000, time.UTC)

func TestResolver_Priority(t *testing.T) {
	r := NewResolver(time.Second)

	tests := []struct {
		name    string
		signals Signals
		want    string
	}{
		{
			name:    "account wins over session",
			signals: Signals{AccountID: "42", SessionID: "abc", RemoteAddr: "10.0.0.1", At: testTime},
			want:    "user_42",
		},
		{
			name:    "session when anonymous",
			signals: Signals{SessionID: "abc", RemoteAddr: "10.0.0.1", At: testTime},
			want:    "session_abc",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, r.Resolve(tt.signals))
		})
	}
}

func TestResolver_AnonymousID(t *testing.T) {
	r := NewResolver(time.Second)
	s := Signals{RemoteAddr: "10.0.0.1", UserAgent: "Mozilla/5.0", At: testTime}

	id := r.Resolve(s)

	assert.True(t, strings.HasPrefix(id, "anon_"))
	assert.Len(t, id, len("anon_")+16)

	// same client inside the same second collapses to one id
	same := s
	same.At = testTime.Add(800 * time.Millisecond)
	assert.Equal(t, id, r.Resolve(same))

	nextSecond := s
	nextSecond.At = testTime.Add(time.Second)
	assert.NotEqual(t, id, r.Resolve(nextSecond))

	otherAgent := s
	otherAgent.UserAgent = "curl/8.0"
	assert.NotEqual(t, id, r.Resolve(otherAgent))
}

func TestResolver_WiderWindow(t *testing.T) {
	r := NewResolver(time.Minute)
	s := Signals{RemoteAddr: "10.0.0.1", UserAgent: "Mozilla/5.0", At: testTime}

	later := s
	later.At = testTime.Add(30 * time.Second)

	assert.Equal(t, r.Resolve(s), r.Resolve(later))
}

func TestNewResolver_DefaultsWindow(t *testing.T) {
	r := NewResolver(0)

	assert.Equal(t, time.Second, r.window)
}
