package token

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/SenjeyB/LinkadooDemo/internal/models"
)

const testSecret = "0123456789abcdef0123456789abcdef"

var alice = &models.User{ID: 1, Username: "alice", Nickname: "Alice"}

func TestNewRejectsShortSecret(t *testing.T) {
	req := require.New(t)

	_, err := New("")
	req.ErrorIs(err, ErrBadSecret)

	_, err = New("too-short")
	req.ErrorIs(err, ErrBadSecret)

	_, err = New(testSecret)
	req.NoError(err)
}

func TestIssueAndValidate(t *testing.T) {
	req := require.New(t)
	svc, err := New(testSecret)
	req.NoError(err)

	tok, err := svc.Issue(alice)
	req.NoError(err)
	req.NotEmpty(tok)

	req.True(svc.Validate(tok))

	username, err := svc.ExtractUsername(tok)
	req.NoError(err)
	req.Equal("alice", username)

	claims, err := svc.ExtractClaims(tok)
	req.NoError(err)
	req.Equal(int64(1), claims.UserID)
	req.Equal("Alice", claims.Nickname)
}

func TestValidateRejectsTampering(t *testing.T) {
	req := require.New(t)
	svc, err := New(testSecret)
	req.NoError(err)

	tok, err := svc.Issue(alice)
	req.NoError(err)

	// Flip one character somewhere in the payload.
	altered := []byte(tok)
	i := len(altered) / 2
	if altered[i] == 'a' {
		altered[i] = 'b'
	} else {
		altered[i] = 'a'
	}
	req.False(svc.Validate(string(altered)))

	req.False(svc.Validate(""))
	req.False(svc.Validate("not.a.token"))

	_, err = svc.ExtractUsername(string(altered))
	req.Error(err)
}

func TestValidateRejectsWrongSecret(t *testing.T) {
	req := require.New(t)
	svc1, err := New(testSecret)
	req.NoError(err)
	svc2, err := New("ffffffffffffffffffffffffffffffff")
	req.NoError(err)

	tok, err := svc1.Issue(alice)
	req.NoError(err)
	req.False(svc2.Validate(tok))
}

func TestTokenExpires(t *testing.T) {
	req := require.New(t)
	svc, err := New(testSecret)
	req.NoError(err)

	tok, err := svc.Issue(alice)
	req.NoError(err)
	req.True(svc.Validate(tok))

	// Advance the clock past the fixed 10-hour lifetime.
	svc.now = func() time.Time { return time.Now().Add(TTL + time.Minute) }
	req.False(svc.Validate(tok))

	_, err = svc.ExtractUsername(tok)
	req.Error(err)
}
