package database

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPersistentModels_SchemaApplies(t *testing.T) {
	db, err := ConnectTest()
	require.NoError(t, err)

	for _, table := range []string{
		"users", "follows", "snippets", "docs", "bugs",
		"comments", "likes", "bookmarks", "notifications", "user_preferences",
	} {
		assert.True(t, db.Migrator().HasTable(table), "missing table %s", table)
	}
}
