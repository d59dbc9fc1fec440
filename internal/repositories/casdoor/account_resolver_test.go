package casdoor

import (
	"context"
	"errors"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/achievers-lc/learning-center/internal/cache"
	"github.com/achievers-lc/learning-center/internal/models"
	"github.com/achievers-lc/learning-center/internal/repositories/memory"
)

func staticVerifier(email string, err error) TokenVerifier {
	return func(string) (string, error) { return email, err }
}

func TestResolve_CachesByEmail(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	cm := cache.NewCacheManager(client)

	repo := memory.New()
	account := &models.Account{Email: "ada@example.com", PasswordHash: "x", Role: models.RoleTeacher}
	require.NoError(t, repo.Account().Create(ctx, account))

	resolver := NewAccountResolverWithVerifier(staticVerifier("  ADA@example.com ", nil), repo.Account(), cm)

	got, err := resolver.Resolve(ctx, "token")
	require.NoError(t, err)
	assert.Equal(t, account.ID, got.ID)
	assert.Equal(t, models.RoleTeacher, got.Role)
	assert.True(t, mr.Exists("account:email:ada@example.com"))

	// the repository changes underneath; the cached copy is served until invalidated
	require.NoError(t, repo.Account().UpdateStatus(ctx, account.ID, models.AccountSuspended))

	got, err = resolver.Resolve(ctx, "token")
	require.NoError(t, err)
	assert.Equal(t, models.AccountActive, got.Status)

	cache.InvalidateAccountCache(ctx, cm, "ada@example.com")
	got, err = resolver.Resolve(ctx, "token")
	require.NoError(t, err)
	assert.Equal(t, models.AccountSuspended, got.Status)
}

func TestResolve_Rejections(t *testing.T) {
	ctx := context.Background()
	repo := memory.New()

	_, err := NewAccountResolverWithVerifier(staticVerifier("", errors.New("bad signature")), repo.Account(), nil).Resolve(ctx, "t")
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = NewAccountResolverWithVerifier(staticVerifier("   ", nil), repo.Account(), nil).Resolve(ctx, "t")
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = NewAccountResolverWithVerifier(staticVerifier("ghost@example.com", nil), repo.Account(), nil).Resolve(ctx, "t")
	assert.ErrorIs(t, err, ErrUnknownAccount)
}
