// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package store

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/rerps/internal/summary"
	"github.com/pdiddy/rerps/pkg/types"
)

func openStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(types.StoreConfig{ResultsDir: t.TempDir()})
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestOpenCreatesDatabase(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "results")
	s, err := Open(types.StoreConfig{ResultsDir: dir})
	require.NoError(t, err)
	defer s.Close()

	_, err = os.Stat(filepath.Join(dir, dbFile))
	assert.NoError(t, err)

	// Reopening an existing database is fine.
	require.NoError(t, s.Close())
	s2, err := Open(types.StoreConfig{ResultsDir: dir})
	require.NoError(t, err)
	defer s2.Close()
}

func TestRunLifecycle(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()

	id, err := s.BeginRun("dbc2019")
	require.NoError(t, err)
	require.NoError(t, s.AddArtifact(id, "figure", "figures/dbc2019-observed.pdf"))
	require.NoError(t, s.AddArtifact(id, "table", "stats/dbc2019-300-500.csv"))
	require.NoError(t, s.FinishRun(id, "ok"))

	runs, err := s.Runs(ctx, "")
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, "dbc2019", runs[0].Recipe)
	assert.Equal(t, "ok", runs[0].Status)
	assert.False(t, runs[0].Started.IsZero())
	assert.False(t, runs[0].Finished.IsZero())

	arts, err := s.Artifacts(ctx, id)
	require.NoError(t, err)
	require.Len(t, arts, 2)
	assert.Equal(t, "figure", arts[0].Kind)
	assert.Equal(t, "figures/dbc2019-observed.pdf", arts[0].Path)
	assert.Equal(t, "table", arts[1].Kind)
}

func TestRunsFilterAndOrder(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()

	a, err := s.BeginRun("dbc2019")
	require.NoError(t, err)
	require.NoError(t, s.FinishRun(a, "ok"))
	b, err := s.BeginRun("dbc2021")
	require.NoError(t, err)
	require.NoError(t, s.FinishRun(b, "failed"))

	all, err := s.Runs(ctx, "")
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, b, all[0].ID, "newest first")

	only, err := s.Runs(ctx, "dbc2021")
	require.NoError(t, err)
	require.Len(t, only, 1)
	assert.Equal(t, "failed", only[0].Status)
}

func TestWindowAverages(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()

	id, err := s.BeginRun("capexp2021")
	require.NoError(t, err)
	rows := []summary.WindowRow{
		{Condition: "baseline", Subject: "s1", Electrode: "Pz", Mean: 1.5},
		{Condition: "baseline", Subject: "s1", Electrode: "Fz", Mean: -0.5},
		{Condition: "cloze", Subject: "s2", Electrode: "Fz", Mean: 2.25},
	}
	require.NoError(t, s.AddWindowAverages(id, "300-500", rows))
	require.NoError(t, s.FinishRun(id, "ok"))

	got, err := s.WindowAverages(ctx, id, "300-500")
	require.NoError(t, err)
	require.Len(t, got, 3)
	// Ordered by condition, subject, electrode.
	assert.Equal(t, "Fz", got[0].Electrode)
	assert.Equal(t, "Pz", got[1].Electrode)
	assert.Equal(t, "cloze", got[2].Condition)
	assert.InDelta(t, -0.5, got[0].Mean, 1e-12)

	none, err := s.WindowAverages(ctx, id, "600-800")
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestDeleteRunsCascades(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()

	id, err := s.BeginRun("psyp2023")
	require.NoError(t, err)
	require.NoError(t, s.AddArtifact(id, "figure", "figures/psyp2023-observed.pdf"))
	require.NoError(t, s.AddWindowAverages(id, "300-502", []summary.WindowRow{
		{Condition: "a", Subject: "s1", Electrode: "Cz", Mean: 0.25},
	}))
	keep, err := s.BeginRun("dbc2019")
	require.NoError(t, err)

	n, err := s.DeleteRuns("psyp2023")
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	runs, err := s.Runs(ctx, "")
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, keep, runs[0].ID)

	arts, err := s.Artifacts(ctx, id)
	require.NoError(t, err)
	assert.Empty(t, arts)

	n, err = s.DeleteRuns("")
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)
}
