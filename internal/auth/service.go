package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/microearn/backend/internal/database"
	"github.com/microearn/backend/internal/ledger"
	"github.com/microearn/backend/internal/metrics"
	"github.com/microearn/backend/internal/models"
)

const DefaultTokenTTL = 7 * 24 * time.Hour

// AccountStore is the account repository auth needs.
type AccountStore interface {
	Create(ctx context.Context, a *models.Account) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Account, error)
	GetByEmail(ctx context.Context, email string) (*models.Account, error)
	GetByIDForUpdate(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*models.Account, error)
	SetRole(ctx context.Context, tx pgx.Tx, id uuid.UUID, role models.Role) error
}

// Session is returned by every call that issues a token.
type Session struct {
	Token   string          `json:"token"`
	Account *models.Account `json:"account"`
}

type Service interface {
	SignIn(ctx context.Context, idToken string) (*Session, error)
	Login(ctx context.Context, email, password string) (*Session, error)
	SelectRole(ctx context.Context, actor models.Actor, role models.Role) (*Session, error)
	ValidateToken(ctx context.Context, token string) (models.Actor, error)
	CreateAdmin(ctx context.Context, email, password string, coins int64) (*models.Account, error)
}

type Options struct {
	Secret   []byte
	TokenTTL time.Duration
}

type service struct {
	db       database.TxBeginner
	accounts AccountStore
	ledger   ledger.Service
	identity IdentityProvider
	secret   []byte
	ttl      time.Duration
	log      *slog.Logger
	now      func() time.Time
}

func NewService(db database.TxBeginner, accounts AccountStore, ledger ledger.Service, identity IdentityProvider, opts Options, log *slog.Logger) Service {
	if opts.TokenTTL <= 0 {
		opts.TokenTTL = DefaultTokenTTL
	}
	if log == nil {
		log = slog.Default()
	}
	return &service{
		db:       db,
		accounts: accounts,
		ledger:   ledger,
		identity: identity,
		secret:   opts.Secret,
		ttl:      opts.TokenTTL,
		log:      log,
		now:      time.Now,
	}
}

var _ Service = (*service)(nil)

type claims struct {
	jwt.RegisteredClaims
	Role models.Role `json:"role"`
}

// SignIn verifies an external ID token and finds or creates the account.
// New accounts start as workers with no coins; the signup bonus is paid on
// the first role selection.
func (s *service) SignIn(ctx context.Context, idToken string) (*Session, error) {
	id, err := s.identity.VerifyIDToken(ctx, idToken)
	if err != nil {
		return nil, err
	}
	email := strings.ToLower(strings.TrimSpace(id.Email))
	acc, err := s.accounts.GetByEmail(ctx, email)
	if errors.Is(err, models.ErrNotFound) {
		acc = &models.Account{
			ID:          uuid.New(),
			Email:       email,
			DisplayName: id.DisplayName,
			PhotoURL:    id.PhotoURL,
			Role:        models.RoleWorker,
		}
		err = s.accounts.Create(ctx, acc)
		if errors.Is(err, models.ErrDuplicateEmail) {
			// Lost a race with a concurrent first sign-in.
			acc, err = s.accounts.GetByEmail(ctx, email)
		} else if err == nil {
			s.log.Info("account created", "account_id", acc.ID, "email", email)
		}
	}
	if err != nil {
		return nil, fmt.Errorf("sign in: %w", err)
	}
	if !acc.IsActive {
		return nil, models.ErrNotAuthorized
	}
	return s.session(acc)
}

// Login checks a local password. Only bootstrap accounts have one.
func (s *service) Login(ctx context.Context, email, password string) (*Session, error) {
	acc, err := s.accounts.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if errors.Is(err, models.ErrNotFound) {
		return nil, models.ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}
	if acc.PasswordHash == "" || !acc.IsActive {
		return nil, models.ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(acc.PasswordHash), []byte(password)); err != nil {
		return nil, models.ErrInvalidCredentials
	}
	return s.session(acc)
}

// SelectRole sets the account's role and pays the one-time signup bonus in
// the same transaction.
func (s *service) SelectRole(ctx context.Context, actor models.Actor, role models.Role) (*Session, error) {
	if !role.Selectable() {
		return nil, models.ErrInvalidRole
	}
	var granted int64
	err := database.InTx(ctx, s.db, func(tx pgx.Tx) error {
		acc, err := s.accounts.GetByIDForUpdate(ctx, tx, actor.ID)
		if err != nil {
			return err
		}
		if !acc.CanSelectRole(role) {
			return models.ErrRoleLocked
		}
		if acc.Role != role {
			if err := s.accounts.SetRole(ctx, tx, acc.ID, role); err != nil {
				return err
			}
		}
		granted, err = s.ledger.GrantInitialBonus(ctx, tx, acc.ID, role)
		return err
	})
	if err != nil {
		return nil, err
	}
	acc, err := s.accounts.GetByID(ctx, actor.ID)
	if err != nil {
		return nil, err
	}
	if granted > 0 {
		metrics.Coins(string(models.LedgerSignupBonus), granted)
	}
	s.log.Info("role selected", "account_id", acc.ID, "role", role, "bonus", granted)
	return s.session(acc)
}

func (s *service) ValidateToken(_ context.Context, token string) (models.Actor, error) {
	tok, err := jwt.ParseWithClaims(token, &claims{}, func(t *jwt.Token) (interface{}, error) {
		return s.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(s.now))
	if err != nil {
		return models.Actor{}, fmt.Errorf("%w: %v", models.ErrInvalidCredentials, err)
	}
	c, ok := tok.Claims.(*claims)
	if !ok || !tok.Valid {
		return models.Actor{}, models.ErrInvalidCredentials
	}
	id, err := uuid.Parse(c.Subject)
	if err != nil || !c.Role.Valid() {
		return models.Actor{}, models.ErrInvalidCredentials
	}
	return models.Actor{ID: id, Role: c.Role}, nil
}

// CreateAdmin bootstraps a password-login admin and grants it coins. The
// bonus flag is set so role selection can never pay it a signup bonus.
func (s *service) CreateAdmin(ctx context.Context, email, password string, coins int64) (*models.Account, error) {
	if len(password) < 8 {
		return nil, fmt.Errorf("%w: password must be at least 8 characters", models.ErrValidation)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	email = strings.ToLower(strings.TrimSpace(email))
	acc := &models.Account{
		ID:                   uuid.New(),
		Email:                email,
		DisplayName:          "Admin",
		PasswordHash:         string(hash),
		Role:                 models.RoleAdmin,
		InitialCoinsReceived: true,
	}
	if err := s.accounts.Create(ctx, acc); err != nil {
		return nil, fmt.Errorf("create admin: %w", err)
	}
	if coins > 0 {
		err := database.InTx(ctx, s.db, func(tx pgx.Tx) error {
			_, err := s.ledger.Credit(ctx, tx, acc.ID, coins, models.LedgerAdminGrant, nil)
			return err
		})
		if err != nil {
			return nil, fmt.Errorf("grant admin coins: %w", err)
		}
		metrics.Coins(string(models.LedgerAdminGrant), coins)
	}
	s.log.Info("admin created", "account_id", acc.ID, "email", email, "coins", coins)
	return s.accounts.GetByID(ctx, acc.ID)
}

func (s *service) session(acc *models.Account) (*Session, error) {
	token, err := s.issueToken(acc.ID, acc.Role)
	if err != nil {
		return nil, err
	}
	return &Session{Token: token, Account: acc}, nil
}

func (s *service) issueToken(id uuid.UUID, role models.Role) (string, error) {
	now := s.now()
	c := claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   id.String(),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
		Role: role,
	}
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, c)
	return tok.SignedString(s.secret)
}
