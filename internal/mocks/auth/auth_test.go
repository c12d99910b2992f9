package auth

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/evalquiz/quiz-portal/internal/adapters/memstore"
	domainauth "github.com/evalquiz/quiz-portal/internal/domain/auth"
	apperrors "github.com/evalquiz/quiz-portal/internal/errors"
	"github.com/evalquiz/quiz-portal/internal/ports"
)

func TestFakeBackend_LoginIssuesDecodableToken(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	backend := NewFakeBackend()
	backend.Now = func() time.Time { return now }
	want := backend.AddUser("ada@example.com", "pw", "Ada", domainauth.RoleTutor)

	res, err := backend.Login(context.Background(), ports.Credentials{Email: "ADA@example.com", Password: "pw"})
	require.NoError(t, err)
	assert.Equal(t, want, res.User)

	claims, err := domainauth.DecodeClaims(res.Token)
	require.NoError(t, err)
	assert.Equal(t, now.Add(time.Hour).Unix(), claims.ExpiresAt.Unix())
	assert.Equal(t, domainauth.RoleTutor, claims.Role)
}

func TestFakeBackend_LoginRejectsBadPassword(t *testing.T) {
	backend := NewFakeBackend()
	backend.AddUser("ada@example.com", "pw", "Ada", domainauth.RoleAdmin)

	_, err := backend.Login(context.Background(), ports.Credentials{Email: "ada@example.com", Password: "nope"})
	assert.True(t, apperrors.IsUnauthorized(err))
}

func TestFakeBackend_Signup(t *testing.T) {
	backend := NewFakeBackend()
	ctx := context.Background()

	res, err := backend.Signup(ctx, ports.SignupInput{Email: "s@example.com", Password: "pw", Name: "Sam"})
	require.NoError(t, err)
	assert.Equal(t, domainauth.RoleStudent, res.User.Role)
	assert.NotEmpty(t, res.Token)

	_, err = backend.Signup(ctx, ports.SignupInput{Email: "s@example.com", Password: "pw", Name: "Sam"})
	assert.True(t, apperrors.IsConflict(err))

	_, err = backend.Signup(ctx, ports.SignupInput{Email: "x@example.com"})
	assert.True(t, apperrors.IsValidation(err))
}

func TestFlakyArea_FailsChosenKeys(t *testing.T) {
	ctx := context.Background()
	area := &FlakyArea{
		StorageArea: memstore.NewBackend().Area("o"),
		FailSet:     map[string]bool{ports.StorageKeyToken: true},
	}

	require.NoError(t, area.SetItem(ctx, ports.StorageKeyUser, "{}"))
	assert.ErrorIs(t, area.SetItem(ctx, ports.StorageKeyToken, "t"), ErrInjected)

	_, isAtomic := any(area).(ports.AtomicWriter)
	assert.False(t, isAtomic, "FlakyArea must not expose the wrapped area's atomic writer")
}
