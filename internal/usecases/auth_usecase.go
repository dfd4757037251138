package usecases

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"strings"

	"github.com/Elish-Ab/qualify-law/internal/entities"
	"github.com/Elish-Ab/qualify-law/internal/repository"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// Login providers. The provider id picks the credential flow; there is no
// fallthrough between them.
const (
	ProviderClient = "client-login"
	ProviderAdmin  = "admin-login"
)

type credentials struct {
	Email    string `validate:"required,email"`
	Password string `validate:"required,min=6"`
}

type AuthUsecase struct {
	users         *repository.ClientRepository
	adminEmail    string
	adminPassword string
	validate      *validator.Validate
	log           *zap.SugaredLogger
}

func NewAuthUsecase(users *repository.ClientRepository, adminEmail, adminPassword string, log *zap.SugaredLogger) *AuthUsecase {
	return &AuthUsecase{
		users:         users,
		adminEmail:    adminEmail,
		adminPassword: adminPassword,
		validate:      validator.New(),
		log:           log,
	}
}

// Login authenticates a credential pair under the named provider and
// returns the session principal. Unknown email and wrong password produce
// the same error so the login form cannot be used to enumerate accounts.
func (uc *AuthUsecase) Login(ctx context.Context, provider, email, password string) (*entities.Principal, error) {
	// Shape check happens before any lookup.
	if err := uc.validate.Struct(credentials{Email: email, Password: password}); err != nil {
		return nil, fmt.Errorf("%w: %s", entities.ErrValidation, "email and password (min 6 chars) required")
	}

	switch provider {
	case ProviderClient:
		return uc.loginClient(ctx, email, password)
	case ProviderAdmin:
		return uc.loginAdmin(email, password)
	default:
		return nil, fmt.Errorf("%w: unknown provider %q", entities.ErrValidation, provider)
	}
}

func (uc *AuthUsecase) loginClient(ctx context.Context, email, password string) (*entities.Principal, error) {
	user, err := uc.users.FindUserByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("login lookup: %w", err)
	}
	if user == nil || user.PasswordHash == "" {
		return nil, entities.ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		if !errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			// A corrupt stored hash is an operational problem, not a bad
			// password; log it but keep the outward failure identical.
			uc.log.Errorw("password hash comparison failed", "error", err)
		}
		return nil, entities.ErrInvalidCredentials
	}

	return &entities.Principal{
		ID:         user.ID,
		Name:       user.Name,
		Email:      user.Email,
		ClientID:   user.ClientID,
		ClientName: user.ClientName,
		Role:       entities.RoleClient,
	}, nil
}

func (uc *AuthUsecase) loginAdmin(email, password string) (*entities.Principal, error) {
	if uc.adminEmail == "" || uc.adminPassword == "" {
		uc.log.Warn("admin login attempted but no admin credentials configured")
		return nil, entities.ErrInvalidCredentials
	}

	emailOK := subtle.ConstantTimeCompare([]byte(strings.ToLower(email)), []byte(strings.ToLower(uc.adminEmail)))
	passOK := subtle.ConstantTimeCompare([]byte(password), []byte(uc.adminPassword))
	if emailOK&passOK != 1 {
		return nil, entities.ErrInvalidCredentials
	}

	return &entities.Principal{
		ID:         "admin",
		Name:       "Administrator",
		Email:      email,
		ClientID:   "admin",
		ClientName: "Admin Panel",
		Role:       entities.RoleAdmin,
	}, nil
}

type registration struct {
	Name       string `validate:"required"`
	Email      string `validate:"required,email"`
	Password   string `validate:"required,min=6"`
	ClientName string `validate:"required"`
}

// Register creates a tenant and its first user. The email uniqueness check
// runs before the create; a concurrent registration with the same email can
// still slip through, a limitation inherited from the store contract.
func (uc *AuthUsecase) Register(ctx context.Context, name, email, password, clientName string) (*entities.User, error) {
	if err := uc.validate.Struct(registration{Name: name, Email: email, Password: password, ClientName: clientName}); err != nil {
		return nil, fmt.Errorf("%w: missing or malformed fields", entities.ErrValidation)
	}

	existing, err := uc.users.FindUserByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("registration lookup: %w", err)
	}
	if existing != nil {
		return nil, entities.ErrDuplicateEmail
	}

	client, err := uc.users.CreateClient(ctx, clientName, "", email)
	if err != nil {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user, err := uc.users.CreateUser(ctx, entities.User{
		Name:         name,
		Email:        email,
		PasswordHash: string(hash),
		ClientID:     client.ID,
		ClientName:   client.Name,
	})
	if err != nil {
		return nil, err
	}

	uc.log.Infow("tenant registered", "clientId", client.ID)
	return user, nil
}
