package db_test

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/minishop/internal/db"
	"github.com/Skotchmaster/minishop/internal/db/dbtest"
	"github.com/Skotchmaster/minishop/internal/hash"
	"github.com/Skotchmaster/minishop/internal/models"
)

func TestOpen_RejectsBadInput(t *testing.T) {
	_, err := db.Open(context.Background(), "sqlite", "")
	require.Error(t, err)

	_, err = db.Open(context.Background(), "mysql", "x")
	require.Error(t, err)
}

func TestSeed_CreatesDefaultUserOnce(t *testing.T) {
	gdb := dbtest.New(t)
	ctx := context.Background()

	created, err := db.Seed(ctx, gdb, "yoshi", "12345")
	require.NoError(t, err)
	assert.True(t, created)

	created, err = db.Seed(ctx, gdb, "yoshi", "12345")
	require.NoError(t, err)
	assert.False(t, created)

	var users []models.User
	require.NoError(t, gdb.Find(&users).Error)
	require.Len(t, users, 1)
	assert.Equal(t, "yoshi", users[0].Username)
	assert.NotEqual(t, "12345", users[0].PasswordHash)
	assert.True(t, hash.CheckPassword(users[0].PasswordHash, "12345"))
}

func TestSeed_SkipsWhenAnyUserExists(t *testing.T) {
	gdb := dbtest.New(t)
	require.NoError(t, gdb.Create(&models.User{Username: "someone", PasswordHash: "x"}).Error)

	created, err := db.Seed(context.Background(), gdb, "yoshi", "12345")
	require.NoError(t, err)
	assert.False(t, created)
}

func TestSeed_OverlongPassword(t *testing.T) {
	gdb := dbtest.New(t)

	created, err := db.Seed(context.Background(), gdb, "yoshi", strings.Repeat("a", 80))
	assert.ErrorIs(t, err, hash.ErrPasswordTooLong)
	assert.False(t, created)

	var n int64
	require.NoError(t, gdb.Model(&models.User{}).Count(&n).Error)
	assert.Zero(t, n)
}
