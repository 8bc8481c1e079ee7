package tx

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWithTxIgnoresNil(t *testing.T) {
	ctx := WithTx(context.Background(), nil)

	_, ok := From(ctx)
	assert.False(t, ok)
}

func TestExecPrefersTransaction(t *testing.T) {
	db := &sql.DB{}
	assert.Same(t, db, Exec(context.Background(), db))

	outer := &sql.Tx{}
	assert.Same(t, outer, Exec(WithTx(context.Background(), outer), db))
}

func TestRunJoinsOuterTransaction(t *testing.T) {
	outer := &sql.Tx{}
	ctx := WithTx(context.Background(), outer)

	var joined *sql.Tx
	err := Runner{}.RunInTx(ctx, func(ctx context.Context) error {
		joined, _ = From(ctx)
		return nil
	})
	require.NoError(t, err)
	assert.Same(t, outer, joined, "a nested run must not begin a second transaction")

	errStop := errors.New("stop")
	assert.ErrorIs(t, Run(ctx, nil, func(context.Context) error { return errStop }), errStop)
}
