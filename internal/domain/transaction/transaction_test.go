package transaction

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeTx struct {
	committed  bool
	rolledBack bool
	commitErr  error
}

func (f *fakeTx) Commit() error {
	if f.commitErr != nil {
		return f.commitErr
	}
	f.committed = true
	return nil
}

func (f *fakeTx) Rollback() error {
	if !f.committed {
		f.rolledBack = true
	}
	return nil
}

type fakeManager struct {
	tx       *fakeTx
	beginErr error
}

func (m *fakeManager) Begin(ctx context.Context) (Tx, error) {
	if m.beginErr != nil {
		return nil, m.beginErr
	}
	return m.tx, nil
}

func TestRun_Commit(t *testing.T) {
	m := &fakeManager{tx: &fakeTx{}}

	err := Run(context.Background(), m, func(tx Tx) error { return nil })

	require.NoError(t, err)
	assert.True(t, m.tx.committed)
	assert.False(t, m.tx.rolledBack)
}

func TestRun_RollbackOnError(t *testing.T) {
	m := &fakeManager{tx: &fakeTx{}}
	sentinel := errors.New("boom")

	err := Run(context.Background(), m, func(tx Tx) error { return sentinel })

	assert.ErrorIs(t, err, sentinel)
	assert.False(t, m.tx.committed)
	assert.True(t, m.tx.rolledBack)
}

func TestRun_BeginError(t *testing.T) {
	sentinel := errors.New("no connection")
	m := &fakeManager{beginErr: sentinel}
	called := false

	err := Run(context.Background(), m, func(tx Tx) error {
		called = true
		return nil
	})

	assert.ErrorIs(t, err, sentinel)
	assert.False(t, called)
}

func TestRun_CommitError(t *testing.T) {
	sentinel := errors.New("serialization failure")
	m := &fakeManager{tx: &fakeTx{commitErr: sentinel}}

	err := Run(context.Background(), m, func(tx Tx) error { return nil })

	assert.ErrorIs(t, err, sentinel)
	assert.True(t, m.tx.rolledBack)
}
