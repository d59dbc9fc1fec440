// Package casdoor maps Casdoor-issued access tokens onto local accounts.
package casdoor

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/casdoor/casdoor-go-sdk/casdoorsdk"

	"github.com/achievers-lc/learning-center/internal/cache"
	"github.com/achievers-lc/learning-center/internal/config"
	"github.com/achievers-lc/learning-center/internal/models"
	"github.com/achievers-lc/learning-center/internal/repositories"
)

var (
	ErrInvalidToken   = errors.New("invalid token")
	ErrUnknownAccount = errors.New("no local account for token")
)

// TokenVerifier checks a bearer token and returns the email it was issued for
type TokenVerifier func(token string) (email string, err error)

// AccountResolver turns a bearer token into the local Account with the same email.
// Lookups go through the account cache, keyed by normalized email.
type AccountResolver struct {
	verify   TokenVerifier
	accounts repositories.AccountRepository
	cache    *cache.CacheManager
}

// NewAccountResolver verifies tokens against the Casdoor application in cfg
func NewAccountResolver(cfg config.CasdoorConfig, accounts repositories.AccountRepository, cm *cache.CacheManager) *AccountResolver {
	client := casdoorsdk.NewClient(
		cfg.Endpoint,
		cfg.ClientID,
		cfg.ClientSecret,
		cfg.Cert,
		cfg.Organization,
		cfg.Application,
	)

	return NewAccountResolverWithVerifier(func(token string) (string, error) {
		claims, err := client.ParseJwtToken(token)
		if err != nil {
			return "", err
		}
		return claims.Email, nil
	}, accounts, cm)
}

func NewAccountResolverWithVerifier(verify TokenVerifier, accounts repositories.AccountRepository, cm *cache.CacheManager) *AccountResolver {
	if cm == nil {
		cm = cache.NewCacheManager(nil)
	}
	return &AccountResolver{
		verify:   verify,
		accounts: accounts,
		cache:    cm,
	}
}

// Resolve returns the account the token belongs to. It does not check the account status.
func (r *AccountResolver) Resolve(ctx context.Context, token string) (*models.Account, error) {
	email, err := r.verify(token)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return nil, fmt.Errorf("%w: token carries no email", ErrInvalidToken)
	}

	var account models.Account
	err = r.cache.Account.CacheOrExecute(ctx, "email:"+email, &account, cache.AccountCacheConfig.TTL, func() (interface{}, error) {
		return r.accounts.GetByEmail(ctx, email)
	})
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrUnknownAccount
		}
		return nil, fmt.Errorf("failed to resolve account %s: %w", email, err)
	}

	return &account, nil
}
