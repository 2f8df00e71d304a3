package main

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"courtbook/internal/auth"
	"courtbook/internal/config"
	"courtbook/internal/database"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSeedIsIdempotent(t *testing.T) {
	dir := t.TempDir()
	logger := zerolog.Nop()

	path := filepath.Join(dir, "members.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
members:
  - id: "m1"
    first_name: "Ana"
    last_name: "Lopez"
    email: "ana@club.example"
    phone: "+33600000001"
  - first_name: "No"
    last_name: "Email"
    phone: "+33600000002"
`), 0o644))

	members, err := loadMembers(path, &logger)
	require.NoError(t, err)
	require.Len(t, members, 2)
	assert.Equal(t, "Ana", members[0].FirstName)

	db, err := database.NewDB(filepath.Join(dir, "seed.db"), &logger)
	require.NoError(t, err)
	defer db.Close()

	tokens, err := auth.NewJWTProvider(config.APIAuthConfig{JWTSecret: "secret"})
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, seed(ctx, db, tokens, members, 0, &logger))

	again, err := loadMembers(path, &logger)
	require.NoError(t, err)
	again = again[:1]
	require.NoError(t, seed(ctx, db, tokens, again, 0, &logger), "known ids are reused")

	m, err := db.GetMember(ctx, "m1")
	require.NoError(t, err)
	assert.True(t, m.IsProfileComplete())

	assert.NotEmpty(t, members[1].ID, "missing ids are generated")
	incomplete, err := db.GetMember(ctx, members[1].ID)
	require.NoError(t, err)
	assert.False(t, incomplete.IsProfileComplete())
}
