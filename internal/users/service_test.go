package users

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Paulodev-web/OrcaRede-sub001/internal/platform/httpx"
	"github.com/Paulodev-web/OrcaRede-sub001/internal/shared"
)

type memoryUserRepo struct {
	users  map[string]User
	nextID int
}

func newMemoryUserRepo() *memoryUserRepo {
	return &memoryUserRepo{users: make(map[string]User)}
}

func (r *memoryUserRepo) List(ctx context.Context) ([]User, error) {
	var out []User
	for _, u := range r.users {
		out = append(out, u)
	}
	return out, nil
}

func (r *memoryUserRepo) Get(ctx context.Context, id string) (User, error) {
	u, ok := r.users[id]
	if !ok {
		return User{}, httpx.ErrNotFound
	}
	return u, nil
}

func (r *memoryUserRepo) FindByEmail(ctx context.Context, email string) (User, error) {
	for _, u := range r.users {
		if u.Email == email {
			return u, nil
		}
	}
	return User{}, httpx.ErrNotFound
}

func (r *memoryUserRepo) Create(ctx context.Context, u User) (User, error) {
	r.nextID++
	u.ID = fmt.Sprintf("user-%d", r.nextID)
	r.users[u.ID] = u
	return u, nil
}

func (r *memoryUserRepo) Update(ctx context.Context, id string, u User) error {
	if _, ok := r.users[id]; !ok {
		return httpx.ErrNotFound
	}
	u.ID = id
	r.users[id] = u
	return nil
}

func (r *memoryUserRepo) Delete(ctx context.Context, id string) error {
	delete(r.users, id)
	return nil
}

func TestAuthenticate(t *testing.T) {
	repo := newMemoryUserRepo()
	svc := NewService(repo)
	ctx := context.Background()

	created, err := svc.Create(ctx, CreateUserRequest{
		Email:    "  Tecnico@Example.COM ",
		FullName: "Técnico de Campo",
		Password: "super-secret-1",
	})
	require.NoError(t, err)
	require.Equal(t, "tecnico@example.com", created.Email)
	require.NotEqual(t, "super-secret-1", created.PasswordHash)

	user, err := svc.Authenticate(ctx, "tecnico@example.com", "super-secret-1")
	require.NoError(t, err)
	require.Equal(t, created.ID, user.ID)

	// Email lookup normalizes the same way Create did.
	_, err = svc.Authenticate(ctx, " TECNICO@example.com ", "super-secret-1")
	require.NoError(t, err)

	_, err = svc.Authenticate(ctx, "tecnico@example.com", "wrong")
	require.ErrorIs(t, err, shared.ErrInvalidCredentials)

	_, err = svc.Authenticate(ctx, "nobody@example.com", "super-secret-1")
	require.ErrorIs(t, err, shared.ErrInvalidCredentials)
}

func TestAuthenticateInactiveAccount(t *testing.T) {
	repo := newMemoryUserRepo()
	svc := NewService(repo)
	ctx := context.Background()

	created, err := svc.Create(ctx, CreateUserRequest{
		Email:    "inactive@example.com",
		FullName: "Desligado",
		Password: "super-secret-1",
	})
	require.NoError(t, err)

	active := false
	_, err = svc.Update(ctx, created.ID, UpdateUserRequest{IsActive: &active})
	require.NoError(t, err)

	_, err = svc.Authenticate(ctx, "inactive@example.com", "super-secret-1")
	require.ErrorIs(t, err, shared.ErrInvalidCredentials)
}

func TestUpdatePasswordRotatesHash(t *testing.T) {
	repo := newMemoryUserRepo()
	svc := NewService(repo)
	ctx := context.Background()

	created, err := svc.Create(ctx, CreateUserRequest{
		Email:    "rotate@example.com",
		FullName: "Rotator",
		Password: "old-password-1",
	})
	require.NoError(t, err)

	next := "new-password-2"
	_, err = svc.Update(ctx, created.ID, UpdateUserRequest{Password: &next})
	require.NoError(t, err)

	_, err = svc.Authenticate(ctx, "rotate@example.com", "old-password-1")
	require.ErrorIs(t, err, shared.ErrInvalidCredentials)
	_, err = svc.Authenticate(ctx, "rotate@example.com", "new-password-2")
	require.NoError(t, err)
}
