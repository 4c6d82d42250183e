package state

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coolbeans/gazette/pkg/types"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "state.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestOpenCreatesTables(t *testing.T) {
	store := openTestStore(t)

	for _, table := range []string{"snapshots", "ministries", "departments", "portfolios"} {
		var name string
		err := store.db.QueryRow("SELECT name FROM sqlite_master WHERE type='table' AND name=?", table).Scan(&name)
		require.NoError(t, err, "table %s", table)
		assert.Equal(t, table, name)
	}
}

func TestSnapshotRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := openTestStore(t)

	snapshot := mustSnapshot(t)
	require.NoError(t, store.SaveSnapshot(ctx, snapshot))

	loaded, err := store.LoadSnapshot(ctx, initialVersion)
	require.NoError(t, err)
	assert.Equal(t, snapshot.Listings(), loaded.Listings())
	assert.Equal(t, initialVersion, loaded.Version())
}

func TestSnapshotKeepsEmptyMinistry(t *testing.T) {
	ctx := context.Background()
	store := openTestStore(t)

	snapshot, _ := mustSnapshot(t).Apply(nextVersion, []types.Transaction{
		types.NewTerminateTransaction("Department of Commerce", "Minister of Trade"),
	})
	require.NoError(t, store.SaveSnapshot(ctx, snapshot))

	loaded, err := store.LoadSnapshot(ctx, nextVersion)
	require.NoError(t, err)
	departments, ok := loaded.Departments("Minister of Trade")
	assert.True(t, ok)
	assert.Empty(t, departments)
}

func TestLatestSnapshot(t *testing.T) {
	ctx := context.Background()
	store := openTestStore(t)

	_, err := store.LatestSnapshot(ctx)
	require.ErrorIs(t, err, ErrSnapshotNotFound)

	prior := mustSnapshot(t)
	next, _ := prior.Apply(nextVersion, nil)
	require.NoError(t, store.SaveSnapshot(ctx, prior))
	require.NoError(t, store.SaveSnapshot(ctx, next))

	latest, err := store.LatestSnapshot(ctx)
	require.NoError(t, err)
	assert.Equal(t, nextVersion, latest.Version())

	// Saving an existing version again makes it the latest.
	require.NoError(t, store.SaveSnapshot(ctx, prior))
	latest, err = store.LatestSnapshot(ctx)
	require.NoError(t, err)
	assert.Equal(t, initialVersion, latest.Version())

	versions, err := store.SnapshotsBetween(ctx, "2022-01-01", "2022-12-31")
	require.NoError(t, err)
	assert.Len(t, versions, 2)
}

func TestSnapshotsByDate(t *testing.T) {
	ctx := context.Background()
	store := openTestStore(t)

	first := mustSnapshot(t)
	second, _ := first.Apply(Version{GazetteNumber: "2289/44", Date: initialVersion.Date}, nil)
	require.NoError(t, store.SaveSnapshot(ctx, first))
	require.NoError(t, store.SaveSnapshot(ctx, second))

	versions, err := store.SnapshotsByDate(ctx, initialVersion.Date)
	require.NoError(t, err)
	assert.Equal(t, []Version{initialVersion, {GazetteNumber: "2289/44", Date: initialVersion.Date}}, versions)

	versions, err = store.SnapshotsByDate(ctx, "1999-01-01")
	require.NoError(t, err)
	assert.Empty(t, versions)
}

func TestDepartmentOrder(t *testing.T) {
	ctx := context.Background()
	store := openTestStore(t)
	require.NoError(t, store.SaveSnapshot(ctx, mustSnapshot(t)))

	departments, err := store.DepartmentOrder(ctx, "Minister of Finance", initialVersion)
	require.NoError(t, err)
	assert.Equal(t, []string{"General Treasury", "Department of Lotteries", "Department of Excise"}, departments)

	_, err = store.DepartmentOrder(ctx, "Minister of Tourism", initialVersion)
	assert.ErrorIs(t, err, ErrSnapshotNotFound)
}

func TestPortfolios(t *testing.T) {
	ctx := context.Background()
	store := openTestStore(t)

	portfolios, version, err := store.CurrentPortfolios(ctx)
	require.NoError(t, err)
	assert.Empty(t, portfolios)
	assert.True(t, version.IsZero())

	saved := []types.Portfolio{
		{Ministry: "Ministry of Finance", Position: "Minister", Person: "Ranil Wickremesinghe"},
		{Ministry: "Ministry of Health", Position: "Minister", Person: "Keheliya Rambukwella"},
	}
	require.NoError(t, store.SavePortfolios(ctx, nextVersion, saved))

	portfolios, version, err = store.CurrentPortfolios(ctx)
	require.NoError(t, err)
	assert.Equal(t, saved, portfolios)
	assert.Equal(t, nextVersion, version)

	loaded, err := store.LoadPortfolios(ctx, nextVersion)
	require.NoError(t, err)
	assert.Equal(t, saved, loaded)

	_, err = store.LoadPortfolios(ctx, initialVersion)
	assert.ErrorIs(t, err, ErrSnapshotNotFound)

	// Person versions do not count as department snapshots.
	_, err = store.LatestSnapshot(ctx)
	assert.ErrorIs(t, err, ErrSnapshotNotFound)
}

func TestClear(t *testing.T) {
	ctx := context.Background()
	store := openTestStore(t)
	require.NoError(t, store.SaveSnapshot(ctx, mustSnapshot(t)))
	require.NoError(t, store.SavePortfolios(ctx, nextVersion, []types.Portfolio{{Ministry: "M", Position: "Minister", Person: "P"}}))

	require.NoError(t, store.Clear(ctx))

	_, err := store.LatestSnapshot(ctx)
	assert.ErrorIs(t, err, ErrSnapshotNotFound)
	portfolios, _, err := store.CurrentPortfolios(ctx)
	require.NoError(t, err)
	assert.Empty(t, portfolios)
}

func TestSaveSnapshotRejectsIncompleteVersion(t *testing.T) {
	store := openTestStore(t)
	snapshot, err := NewSnapshot(Version{GazetteNumber: "2289/43"}, initialListings())
	require.NoError(t, err)
	assert.Error(t, store.SaveSnapshot(context.Background(), snapshot))
}
