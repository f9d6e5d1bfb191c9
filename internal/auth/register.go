package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/angelmondragon/saree-storefront/internal/users"
	"github.com/angelmondragon/saree-storefront/pkg/config"
	"github.com/angelmondragon/saree-storefront/pkg/db"
	"github.com/angelmondragon/saree-storefront/pkg/db/models"
	pkgerrors "github.com/angelmondragon/saree-storefront/pkg/errors"
	"github.com/angelmondragon/saree-storefront/pkg/types"
	"gorm.io/gorm"
)

// RegisterService creates shopper accounts and signs them in.
type RegisterService interface {
	Register(ctx context.Context, req types.RegisterRequest) (*types.AuthSession, error)
}

// RegisterServiceParams packages the dependencies for the registration flow.
type RegisterServiceParams struct {
	DB             *db.Client
	SessionManager sessionManager
	PasswordHasher passwordHasher
	JWTConfig      config.JWTConfig
}

type registerService struct {
	db       *db.Client
	session  sessionManager
	password passwordHasher
	jwtCfg   config.JWTConfig
}

// NewRegisterService builds a registration service with the provided dependencies.
func NewRegisterService(params RegisterServiceParams) (RegisterService, error) {
	if params.DB == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "database client required")
	}
	if params.SessionManager == nil {
		return nil, fmt.Errorf("session manager is required")
	}
	if params.PasswordHasher == nil {
		return nil, fmt.Errorf("password hasher is required")
	}
	return &registerService{
		db:       params.DB,
		session:  params.SessionManager,
		password: params.PasswordHasher,
		jwtCfg:   params.JWTConfig,
	}, nil
}

func (s *registerService) Register(ctx context.Context, req types.RegisterRequest) (*types.AuthSession, error) {
	email := users.NormalizeEmail(req.Email)
	if email == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "email is required")
	}
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "name is required")
	}

	passwordHash, err := s.password.Hash(req.Password)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "hash password")
	}

	var user *models.User
	err = s.db.WithTx(ctx, func(tx *gorm.DB) error {
		userRepo := users.NewRepository(tx)

		if _, err := userRepo.FindByEmail(ctx, email); err == nil {
			return pkgerrors.New(pkgerrors.CodeConflict, "email already registered")
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "check user email")
		}

		created, err := userRepo.Create(ctx, users.CreateUserDTO{
			Email:        email,
			PasswordHash: passwordHash,
			Name:         name,
			Phone:        req.Phone,
		})
		if db.IsUniqueViolation(err, "") {
			return pkgerrors.New(pkgerrors.CodeConflict, "email already registered")
		}
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create user")
		}
		user = created
		return nil
	})
	if err != nil {
		return nil, err
	}
	return issueSession(ctx, s.session, s.jwtCfg, user, time.Now().UTC())
}
