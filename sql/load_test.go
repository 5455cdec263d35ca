package sql

import (
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func functionExists(t *testing.T, db *sql.DB, name string) bool {
	var exists bool
	err := db.QueryRow("SELECT EXISTS(SELECT 1 FROM pg_proc WHERE proname = $1);", name).Scan(&exists)
	require.NoError(t, err)
	return exists
}

func TestInit(t *testing.T) {
	db := initDB(t)

	t.Run("Initialize database extensions", func(t *testing.T) {
		err := Init(db.Instance)
		assert.NoError(t, err)

		var exists bool
		err = db.Instance.QueryRow("SELECT EXISTS(SELECT 1 FROM pg_extension WHERE extname = 'vector');").Scan(&exists)
		require.NoError(t, err)
		assert.True(t, exists, "pgvector extension should be created")
	})

	t.Run("Initialize database extensions is idempotent", func(t *testing.T) {
		err := Init(db.Instance)
		assert.NoError(t, err)

		err = Init(db.Instance)
		assert.NoError(t, err)
	})
}

func TestLoadSql(t *testing.T) {
	db := initDB(t)

	cases := []struct {
		name      string
		load      func(*sql.DB, bool) error
		functions []string
	}{
		{"containers", LoadContainersSql, ContainersFunctions},
		{"pages", LoadPagesSql, PagesFunctions},
		{"inscriptions", LoadInscriptionsSql, InscriptionsFunctions},
	}

	for _, c := range cases {
		t.Run("Load "+c.name+" SQL functions", func(t *testing.T) {
			err := c.load(db.Instance, false)
			assert.NoError(t, err)

			for _, funcName := range c.functions {
				assert.True(t, functionExists(t, db.Instance, funcName), "Function %s should exist", funcName)
			}
		})

		t.Run("Load "+c.name+" SQL is idempotent without force", func(t *testing.T) {
			err := c.load(db.Instance, false)
			assert.NoError(t, err)
		})

		t.Run("Load "+c.name+" SQL with force reloads", func(t *testing.T) {
			err := c.load(db.Instance, true)
			assert.NoError(t, err)

			for _, funcName := range c.functions {
				assert.True(t, functionExists(t, db.Instance, funcName), "Function %s should exist after force reload", funcName)
			}
		})
	}
}

func TestLoadAllSql(t *testing.T) {
	db := initDB(t)

	t.Run("Load all SQL functions", func(t *testing.T) {
		err := LoadAllSql(db.Instance, true)
		require.NoError(t, err)

		all := append(append(append([]string{}, ContainersFunctions...), PagesFunctions...), InscriptionsFunctions...)
		for _, funcName := range all {
			assert.True(t, functionExists(t, db.Instance, funcName), "Function %s should exist", funcName)
		}
	})

	t.Run("Check reports missing functions", func(t *testing.T) {
		exist, err := checkFunctions(db.Instance, []string{"this_function_does_not_exist"})
		require.NoError(t, err)
		assert.False(t, exist)
	})
}
