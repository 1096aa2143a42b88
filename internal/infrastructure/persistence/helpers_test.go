package persistence_test

import (
	"testing"

	"github.com/propledger/backend/internal/domain/shared"
	"github.com/stretchr/testify/require"
)

func requireDomainError(t *testing.T, err error, kind shared.ErrorKind, code string) {
	t.Helper()
	require.Error(t, err)
	de, ok := shared.AsDomainError(err)
	require.True(t, ok, "expected a DomainError, got %T: %v", err, err)
	require.Equal(t, kind, de.Kind)
	require.Equal(t, code, de.Code)
}
