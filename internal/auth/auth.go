package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/alexedwards/scs/pgxstore"
	"github.com/alexedwards/scs/v2"
	"github.com/go-playground/validator/v10"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/snarg/voxmood/internal/database"
)

const sessionUserKey = "user_id"

// ErrInvalidCredentials is returned on bad username/password combinations.
// Registration and login failures share it so responses don't leak which
// part was wrong.
var ErrInvalidCredentials = errors.New("invalid username or password")

// Credentials is a register/login request body.
type Credentials struct {
	Username string `json:"username" validate:"required,min=3,max=64,alphanum"`
	Password string `json:"password" validate:"required,min=8,max=128"`
}

// UserStore is the subset of database operations auth needs.
type UserStore interface {
	InsertUser(ctx context.Context, username, passwordHash string) (int64, error)
	GetUserByUsername(ctx context.Context, username string) (*database.User, error)
	GetUser(ctx context.Context, id int64) (*database.User, error)
}

// Service handles registration, login, and session management. Sessions are
// stored in Postgres next to the application data.
type Service struct {
	store    UserStore
	Sessions *scs.SessionManager
	validate *validator.Validate
	log      zerolog.Logger
}

// NewService creates the auth service with a pgx-backed session store.
func NewService(store UserStore, pool *pgxpool.Pool, lifetime time.Duration, log zerolog.Logger) *Service {
	sessions := scs.New()
	sessions.Store = pgxstore.New(pool)
	sessions.Lifetime = lifetime
	sessions.Cookie.HttpOnly = true
	sessions.Cookie.SameSite = http.SameSiteLaxMode

	return &Service{
		store:    store,
		Sessions: sessions,
		validate: validator.New(),
		log:      log,
	}
}

// Register validates the credentials, hashes the password, and creates the
// user. database.ErrUsernameTaken passes through for a 409 response.
func (s *Service) Register(ctx context.Context, creds Credentials) (int64, error) {
	if err := s.validate.Struct(creds); err != nil {
		return 0, fmt.Errorf("%w: %s", ErrInvalidCredentials, err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(creds.Password), bcrypt.DefaultCost)
	if err != nil {
		return 0, fmt.Errorf("hash password: %w", err)
	}

	id, err := s.store.InsertUser(ctx, creds.Username, string(hash))
	if err != nil {
		return 0, err
	}
	s.log.Info().Str("username", creds.Username).Int64("user_id", id).Msg("user registered")
	return id, nil
}

// Login verifies the password and binds the user to the session. The
// session token is renewed to prevent fixation.
func (s *Service) Login(ctx context.Context, creds Credentials) (*database.User, error) {
	user, err := s.store.GetUserByUsername(ctx, creds.Username)
	if errors.Is(err, database.ErrNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}

	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(creds.Password)) != nil {
		return nil, ErrInvalidCredentials
	}

	if err := s.Sessions.RenewToken(ctx); err != nil {
		return nil, fmt.Errorf("renew session: %w", err)
	}
	s.Sessions.Put(ctx, sessionUserKey, user.ID)
	s.log.Info().Str("username", user.Username).Msg("user logged in")
	return user, nil
}

// Logout destroys the current session.
func (s *Service) Logout(ctx context.Context) error {
	return s.Sessions.Destroy(ctx)
}

// CurrentUserID returns the logged-in user's ID, or 0 if anonymous.
func (s *Service) CurrentUserID(ctx context.Context) int64 {
	id, _ := s.Sessions.Get(ctx, sessionUserKey).(int64)
	return id
}
