package auth

import (
	"testing"
	"time"

	"github.com/Ayman482/nile-dose-cafe-website/internal/clock"
	apperr "github.com/Ayman482/nile-dose-cafe-website/internal/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIssueAndParse(t *testing.T) {
	clk := clock.NewFakeClock(time.Now())
	tokens := NewTokenManager("secret", time.Hour, clk)

	token, err := tokens.Issue("user-1", "admin")
	require.NoError(t, err)

	claims, err := tokens.Parse(token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.Subject)
	assert.Equal(t, "admin", claims.Role)
}

func TestParseRejects(t *testing.T) {
	clk := clock.NewFakeClock(time.Now())
	tokens := NewTokenManager("secret", time.Hour, clk)
	token, err := tokens.Issue("user-1", "customer")
	require.NoError(t, err)

	testCases := []struct {
		name  string
		token string
		setup func()
	}{
		{name: "garbage", token: "not-a-token"},
		{name: "wrong secret", token: func() string {
			other, _ := NewTokenManager("other", time.Hour, clk).Issue("user-1", "admin")
			return other
		}()},
		{name: "expired", token: token, setup: func() { clk.Advance(2 * time.Hour) }},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if tc.setup != nil {
				tc.setup()
			}
			_, err := tokens.Parse(tc.token)
			assert.ErrorIs(t, err, apperr.ErrUnauthorized)
		})
	}
}
