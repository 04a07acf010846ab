package seed

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"medbook/internal/auth"
	"medbook/internal/repository"
	"medbook/internal/service"
)

const doctorsJSON = `[
  {"email": "a@example.com", "password": "secret", "name": "Alice", "available": true, "specialization": "therapist"},
  {"email": "b@example.com", "password": "secret", "name": "Bob", "available": false, "specialization": "surgeon"},
  {"email": "c@example.com", "password": "secret", "name": "Incomplete"}
]`

func newIdentity() service.IdentityService {
	store := repository.NewMemoryStore()
	issuer := auth.NewTokenIssuer("a", "r", time.Minute, time.Hour)
	return service.NewIdentityService(store.Users(), store.Sessions(), issuer, nil, bcrypt.MinCost, zerolog.Nop())
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "doctors.json")
	require.NoError(t, os.WriteFile(path, []byte(doctorsJSON), 0o644))

	doctors, err := Load(context.Background(), path)
	require.NoError(t, err)
	require.Len(t, doctors, 3)
	assert.Equal(t, "therapist", doctors[0].Specialization)
	assert.Nil(t, doctors[2].Available)
}

func TestLoadFromURL(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(doctorsJSON))
	}))
	defer srv.Close()

	doctors, err := Load(context.Background(), srv.URL)
	require.NoError(t, err)
	assert.Len(t, doctors, 3)
}

func TestLoadFailures(t *testing.T) {
	_, err := Load(context.Background(), filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()
	_, err = Load(context.Background(), srv.URL)
	assert.Error(t, err)
}

func TestApplyIsRepeatable(t *testing.T) {
	ctx := context.Background()
	identity := newIdentity()
	path := filepath.Join(t.TempDir(), "doctors.json")
	require.NoError(t, os.WriteFile(path, []byte(doctorsJSON), 0o644))
	doctors, err := Load(ctx, path)
	require.NoError(t, err)

	first, err := Apply(ctx, identity, doctors)
	require.NoError(t, err)
	assert.Equal(t, Result{Created: 2, Skipped: 1}, first)

	second, err := Apply(ctx, identity, doctors)
	require.NoError(t, err)
	assert.Equal(t, Result{Created: 0, Skipped: 3}, second)

	listed, err := identity.ListDoctors(ctx, "")
	require.NoError(t, err)
	assert.Len(t, listed, 2)
}
