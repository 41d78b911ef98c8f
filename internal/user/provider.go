package user

import (
	"context"
	"errors"
	"fmt"
)

// IdentityProvider resolves credentials into actors and answers the account
// checks the reservation flow depends on.
type IdentityProvider interface {
	GetActor(ctx context.Context, credential string) (Actor, error)
	IsEmailVerified(ctx context.Context, userID int64) (bool, error)
	IsProfileComplete(ctx context.Context, userID int64) (bool, error)
	Exists(ctx context.Context, userID int64) (bool, error)
}

type provider struct {
	repo   Repository
	secret string
}

func NewIdentityProvider(repo Repository, jwtSecret string) IdentityProvider {
	return &provider{repo: repo, secret: jwtSecret}
}

// GetActor trusts the token only for the user id; the role always comes from
// the stored account so a demoted user cannot keep acting with an old token.
func (p *provider) GetActor(ctx context.Context, credential string) (Actor, error) {
	if credential == "" {
		return Actor{}, ErrUnauthenticated
	}

	claims, err := ParseJWT(p.secret, credential)
	if err != nil {
		return Actor{}, fmt.Errorf("%w: %v", ErrUnauthenticated, err)
	}

	u, err := p.repo.FindByID(ctx, claims.UserID)
	if err != nil {
		return Actor{}, err
	}
	if !u.Active {
		return Actor{}, ErrInactiveUser
	}

	return Actor{UserID: u.ID, Role: u.Role}, nil
}

func (p *provider) IsEmailVerified(ctx context.Context, userID int64) (bool, error) {
	u, err := p.repo.FindByID(ctx, userID)
	if err != nil {
		return false, err
	}
	return u.EmailVerified, nil
}

func (p *provider) IsProfileComplete(ctx context.Context, userID int64) (bool, error) {
	u, err := p.repo.FindByID(ctx, userID)
	if err != nil {
		return false, err
	}
	return u.ProfileCompleted, nil
}

func (p *provider) Exists(ctx context.Context, userID int64) (bool, error) {
	u, err := p.repo.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return false, nil
		}
		return false, err
	}
	return u.Active, nil
}
