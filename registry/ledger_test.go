package registry_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/wildproof/wildproof/registry"
)

func TestMemLedgerRecordsTransfers(t *testing.T) {
	t.Parallel()
	ledger := registry.NewMemLedger()

	first := registry.Transfer{Amount: 500, From: submitter, To: verifier}
	second := registry.Transfer{Amount: 0, From: stranger, To: verifier, ProofID: 1, Time: 3}
	require.NoError(t, ledger.Transfer(context.Background(), first))
	require.NoError(t, ledger.Transfer(context.Background(), second))
	require.Equal(t, []registry.Transfer{first, second}, ledger.Transfers())

	_, tracked := ledger.Balance(submitter)
	require.False(t, tracked)

	// the returned trail is a copy
	ledger.Transfers()[0].Amount = 1
	require.Equal(t, uint64(500), ledger.Transfers()[0].Amount)
}

func TestMemLedgerBalances(t *testing.T) {
	t.Parallel()
	ledger := registry.NewMemLedger(registry.WithBalances(map[registry.Identity]uint64{submitter: 600}))

	require.NoError(t, ledger.Transfer(context.Background(), registry.Transfer{Amount: 500, From: submitter, To: verifier}))
	err := ledger.Transfer(context.Background(), registry.Transfer{Amount: 500, From: submitter, To: verifier})
	require.ErrorIs(t, err, registry.ErrInsufficientFunds)
	require.Len(t, ledger.Transfers(), 1)

	balance, tracked := ledger.Balance(submitter)
	require.True(t, tracked)
	require.Equal(t, uint64(100), balance)
	balance, _ = ledger.Balance(verifier)
	require.Equal(t, uint64(500), balance)
	balance, _ = ledger.Balance(stranger)
	require.Zero(t, balance)
}
