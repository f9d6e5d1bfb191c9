package auth

import (
	"context"
	"time"

	"github.com/angelmondragon/saree-storefront/internal/users"
	pkgAuth "github.com/angelmondragon/saree-storefront/pkg/auth"
	"github.com/angelmondragon/saree-storefront/pkg/auth/session"
	"github.com/angelmondragon/saree-storefront/pkg/config"
	"github.com/angelmondragon/saree-storefront/pkg/db/models"
	pkgerrors "github.com/angelmondragon/saree-storefront/pkg/errors"
	"github.com/angelmondragon/saree-storefront/pkg/types"
)

type sessionManager interface {
	Generate(ctx context.Context, accessID string) (string, error)
	Rotate(ctx context.Context, oldAccessID, provided string) (string, string, error)
	Revoke(ctx context.Context, accessID string) error
}

type passwordHasher interface {
	Hash(password string) (string, error)
	Verify(password, encoded string) (bool, error)
}

// issueSession mints an access token and stores a fresh refresh token under
// its jti.
func issueSession(ctx context.Context, sessions sessionManager, cfg config.JWTConfig, user *models.User, now time.Time) (*types.AuthSession, error) {
	accessID := session.NewAccessID()
	refreshToken, err := sessions.Generate(ctx, accessID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "store refresh token")
	}
	return sessionFor(cfg, user, now, accessID, refreshToken)
}

func sessionFor(cfg config.JWTConfig, user *models.User, now time.Time, accessID, refreshToken string) (*types.AuthSession, error) {
	accessToken, err := pkgAuth.MintAccessToken(cfg, now, pkgAuth.AccessTokenPayload{
		UserID: user.ID,
		Email:  user.Email,
		JTI:    accessID,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "mint jwt")
	}
	return &types.AuthSession{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		User:         users.FromModel(user).AuthUser(),
	}, nil
}
