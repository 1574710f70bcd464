package main

import (
	"errors"
	"testing"

	"github.com/golang-migrate/migrate/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeMigrator struct {
	upErr  error
	steps  []int
	forced int
}

func (f *fakeMigrator) Up() error { return f.upErr }

func (f *fakeMigrator) Steps(n int) error {
	f.steps = append(f.steps, n)
	return nil
}

func (f *fakeMigrator) Force(version int) error {
	f.forced = version
	return nil
}

func (f *fakeMigrator) Version() (uint, bool, error) { return 4, false, nil }

func TestRunUpIgnoresNoChange(t *testing.T) {
	require.NoError(t, run(&fakeMigrator{upErr: migrate.ErrNoChange}, nil))
	assert.Error(t, run(&fakeMigrator{upErr: errors.New("boom")}, []string{"up"}))
}

func TestRunDownDefaultsToOneStep(t *testing.T) {
	m := &fakeMigrator{}
	require.NoError(t, run(m, []string{"down"}))
	require.NoError(t, run(m, []string{"down", "2"}))
	assert.Equal(t, []int{-1, -2}, m.steps)
}

func TestRunForceRequiresVersion(t *testing.T) {
	m := &fakeMigrator{}
	assert.Error(t, run(m, []string{"force"}))
	assert.Error(t, run(m, []string{"force", "x"}))
	require.NoError(t, run(m, []string{"force", "3"}))
	assert.Equal(t, 3, m.forced)
}

func TestRunUnknownCommand(t *testing.T) {
	assert.Error(t, run(&fakeMigrator{}, []string{"sideways"}))
	assert.NoError(t, run(&fakeMigrator{}, []string{"version"}))
}
