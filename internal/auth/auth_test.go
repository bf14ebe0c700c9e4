package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/snarg/voxmood/internal/database"
)

type mockUserStore struct {
	users  map[string]*database.User
	nextID int64
}

func newMockUserStore() *mockUserStore {
	return &mockUserStore{users: make(map[string]*database.User), nextID: 1}
}

func (m *mockUserStore) InsertUser(_ context.Context, username, passwordHash string) (int64, error) {
	if _, ok := m.users[username]; ok {
		return 0, database.ErrUsernameTaken
	}
	id := m.nextID
	m.nextID++
	m.users[username] = &database.User{ID: id, Username: username, PasswordHash: passwordHash}
	return id, nil
}

func (m *mockUserStore) GetUserByUsername(_ context.Context, username string) (*database.User, error) {
	u, ok := m.users[username]
	if !ok {
		return nil, database.ErrNotFound
	}
	return u, nil
}

func (m *mockUserStore) GetUser(_ context.Context, id int64) (*database.User, error) {
	for _, u := range m.users {
		if u.ID == id {
			return u, nil
		}
	}
	return nil, database.ErrNotFound
}

func newTestService(store UserStore) *Service {
	return NewService(store, nil, time.Hour, zerolog.Nop())
}

func TestRegister(t *testing.T) {
	store := newMockUserStore()
	s := newTestService(store)
	ctx := context.Background()

	id, err := s.Register(ctx, Credentials{Username: "alice01", Password: "correcthorse"})
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if id != 1 {
		t.Errorf("id = %d, want 1", id)
	}

	// Password must be stored hashed, and verify against the original.
	u := store.users["alice01"]
	if u.PasswordHash == "correcthorse" {
		t.Error("password stored in plaintext")
	}
	if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte("correcthorse")) != nil {
		t.Error("stored hash does not verify against password")
	}
}

func TestRegister_Validation(t *testing.T) {
	s := newTestService(newMockUserStore())
	ctx := context.Background()

	tests := []struct {
		name  string
		creds Credentials
	}{
		{"empty", Credentials{}},
		{"short_username", Credentials{Username: "ab", Password: "correcthorse"}},
		{"short_password", Credentials{Username: "alice01", Password: "short"}},
		{"non_alphanum_username", Credentials{Username: "alice o'malley", Password: "correcthorse"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := s.Register(ctx, tt.creds); !errors.Is(err, ErrInvalidCredentials) {
				t.Errorf("err = %v, want ErrInvalidCredentials", err)
			}
		})
	}
}

func TestRegister_DuplicateUsername(t *testing.T) {
	s := newTestService(newMockUserStore())
	ctx := context.Background()

	if _, err := s.Register(ctx, Credentials{Username: "alice01", Password: "correcthorse"}); err != nil {
		t.Fatalf("first Register: %v", err)
	}
	if _, err := s.Register(ctx, Credentials{Username: "alice01", Password: "otherpassword"}); !errors.Is(err, database.ErrUsernameTaken) {
		t.Errorf("err = %v, want ErrUsernameTaken", err)
	}
}

func TestLogin_BadCredentials(t *testing.T) {
	store := newMockUserStore()
	s := newTestService(store)
	ctx := context.Background()

	if _, err := s.Register(ctx, Credentials{Username: "alice01", Password: "correcthorse"}); err != nil {
		t.Fatalf("Register: %v", err)
	}

	t.Run("unknown_user", func(t *testing.T) {
		_, err := s.Login(ctx, Credentials{Username: "nobody", Password: "whatever1"})
		if !errors.Is(err, ErrInvalidCredentials) {
			t.Errorf("err = %v, want ErrInvalidCredentials", err)
		}
	})

	t.Run("wrong_password", func(t *testing.T) {
		_, err := s.Login(ctx, Credentials{Username: "alice01", Password: "wrongpassword"})
		if !errors.Is(err, ErrInvalidCredentials) {
			t.Errorf("err = %v, want ErrInvalidCredentials", err)
		}
	})
}
