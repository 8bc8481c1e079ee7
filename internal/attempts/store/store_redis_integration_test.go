//go:build integration

package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"empverify/pkg/testutil/containers"
)

// Runs the shared suite against a real Redis so the Lua increment is
// exercised by the server's script engine rather than miniredis.
func TestRedisContainerStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, &StoreSuite{newStore: func(t *testing.T) attemptStore {
		rc := containers.GetManager().GetRedis(t)
		require.NoError(t, rc.Flush(context.Background()))
		return NewRedis(rc.Client)
	}})
}
