package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/chazu/lamina/pkg/geom"
	"github.com/chazu/lamina/pkg/plate"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r3"
)

func openTest(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "db", "snapshots.db"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

// clock makes successive snapshots one second apart.
func clock(t *testing.T) {
	t.Helper()
	orig := now
	tick := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	now = func() time.Time {
		tick = tick.Add(time.Second)
		return tick
	}
	t.Cleanup(func() { now = orig })
}

func tJoint(t *testing.T) *plate.Model {
	t.Helper()
	base := plate.RectPlate("base", geom.WorldXY, 200, 100, 20)
	wallPlane := geom.PlaneFromAxes(r3.Vec{Y: 40}, r3.Vec{X: 1}, r3.Vec{Z: 1})
	wall := plate.RectPlate("wall", wallPlane, 200, 80, 20)
	m, err := plate.New([]plate.Plate{base, wall}, [][2]int{{0, 1}})
	require.NoError(t, err)
	return m
}

func TestSaveAndGet(t *testing.T) {
	clock(t)
	s := openTest(t)
	ctx := context.Background()

	sum, err := s.Save(ctx, "", "eval", tJoint(t))
	require.NoError(t, err)
	assert.Len(t, sum.ID, 36)
	assert.Equal(t, 2, sum.Plates)

	snap, err := s.Get(ctx, sum.ID)
	require.NoError(t, err)
	assert.Equal(t, sum.ID, snap.ID)
	assert.Equal(t, "eval", snap.Operation)
	assert.True(t, sum.CreatedAt.Equal(snap.CreatedAt))
	assert.Equal(t, []string{"(0,1) SF"}, snap.Model.ContactStrings(), "contacts are rebuilt on load")
	assert.Equal(t, "wall", snap.Model.Plates()[1].Name)
}

func TestGetByPrefixAndLatest(t *testing.T) {
	clock(t)
	s := openTest(t)
	ctx := context.Background()

	first, err := s.Save(ctx, "", "eval", tJoint(t))
	require.NoError(t, err)
	second, err := s.Save(ctx, first.ID, "fingers", tJoint(t))
	require.NoError(t, err)

	latest, err := s.Get(ctx, Latest)
	require.NoError(t, err)
	assert.Equal(t, second.ID, latest.ID)
	assert.Equal(t, first.ID, latest.Parent)

	byPrefix, err := s.Get(ctx, first.ID[:8])
	require.NoError(t, err)
	assert.Equal(t, first.ID, byPrefix.ID)
	assert.Empty(t, byPrefix.Parent)

	empty, err := s.Get(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, second.ID, empty.ID)
}

func TestGetErrors(t *testing.T) {
	s := openTest(t)
	ctx := context.Background()

	_, err := s.Get(ctx, Latest)
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = s.Save(ctx, "", "eval", tJoint(t))
	require.NoError(t, err)
	_, err = s.Save(ctx, "", "eval", tJoint(t))
	require.NoError(t, err)

	_, err = s.Get(ctx, "zzz")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = s.Save(ctx, "", "eval", nil)
	assert.Error(t, err)
}

func TestAmbiguousPrefix(t *testing.T) {
	s := openTest(t)
	ctx := context.Background()
	for _, id := range []string{"abc-1", "abc-2"} {
		_, err := s.ExecContext(ctx,
			`INSERT INTO snapshots (id, operation, plates, created_at, model) VALUES (?, 'x', 0, 0, '{}')`, id)
		require.NoError(t, err)
	}
	_, err := s.Get(ctx, "abc")
	assert.ErrorIs(t, err, ErrAmbiguous)
}

func TestListAndDelete(t *testing.T) {
	clock(t)
	s := openTest(t)
	ctx := context.Background()

	var ids []string
	for _, op := range []string{"eval", "tenons", "fab"} {
		sum, err := s.Save(ctx, "", op, tJoint(t))
		require.NoError(t, err)
		ids = append(ids, sum.ID)
	}

	list, err := s.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, "fab", list[0].Operation, "newest first")
	assert.Equal(t, "eval", list[2].Operation)
	assert.True(t, list[0].CreatedAt.After(list[1].CreatedAt))

	require.NoError(t, s.Delete(ctx, ids[1]))
	list, err = s.List(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 2)
	assert.ErrorIs(t, s.Delete(ctx, ids[1]), ErrNotFound)
}

func TestReopenKeepsSnapshots(t *testing.T) {
	path := filepath.Join(t.TempDir(), "snapshots.db")
	ctx := context.Background()

	s, err := Open(path, nil)
	require.NoError(t, err)
	sum, err := s.Save(ctx, "", "eval", tJoint(t))
	require.NoError(t, err)
	require.NoError(t, s.Close())

	s, err = Open(path, nil)
	require.NoError(t, err)
	defer s.Close()
	snap, err := s.Get(ctx, sum.ID)
	require.NoError(t, err)
	assert.Len(t, snap.Model.Plates(), 2)
}
