package main

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gitlab.com/dirk.krummacker/contacts-app/internal/model"
	"gitlab.com/dirk.krummacker/contacts-app/internal/store/memory"
)

func TestSplitStatements(t *testing.T) {
	sql := `-- schema
CREATE TABLE IF NOT EXISTS contacts (
    id CHAR(36) NOT NULL,
    PRIMARY KEY (id)
);
-- second one
DROP TABLE old;`
	statements, err := splitStatements(strings.NewReader(sql))
	require.NoError(t, err)
	require.Len(t, statements, 2)
	assert.Equal(t, "CREATE TABLE IF NOT EXISTS contacts (     id CHAR(36) NOT NULL,     PRIMARY KEY (id) ); ", statements[0])
	assert.Equal(t, "DROP TABLE old; ", statements[1])
}

func TestSplitStatementsDropsUnterminatedTail(t *testing.T) {
	statements, err := splitStatements(strings.NewReader("SELECT 1;\nSELECT 2"))
	require.NoError(t, err)
	assert.Equal(t, []string{"SELECT 1; "}, statements)
}

func TestPopulateOnlyFillsEmptyStore(t *testing.T) {
	ctx := context.Background()
	contacts := memory.New()

	inserted, err := populate(ctx, contacts)
	require.NoError(t, err)
	assert.Equal(t, len(initialContacts), inserted)

	inserted, err = populate(ctx, contacts)
	require.NoError(t, err)
	assert.Zero(t, inserted)

	all, err := contacts.FindMany(ctx, nil)
	require.NoError(t, err)
	assert.Len(t, all, len(initialContacts))
}

func TestPopulateSkipsNonEmptyStore(t *testing.T) {
	ctx := context.Background()
	contacts := memory.New()
	_, err := contacts.Insert(ctx, model.Fields{First: "Ada"})
	require.NoError(t, err)

	inserted, err := populate(ctx, contacts)
	require.NoError(t, err)
	assert.Zero(t, inserted)
}
