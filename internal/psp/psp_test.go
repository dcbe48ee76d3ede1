package psp

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToMinorUnits(t *testing.T) {
	t.Parallel()

	cases := map[string]int64{
		"0":       0,
		"12":      1200,
		"12.34":   1234,
		"12.345":  1235,
		"1000.10": 100010,
	}
	for in, want := range cases {
		assert.Equal(t, want, ToMinorUnits(decimal.RequireFromString(in)), in)
	}
}

func TestMockPSP_DistinctReferences(t *testing.T) {
	t.Parallel()

	p := NewMockPSP()
	first, err := p.Charge(context.Background(), ChargeRequest{Amount: decimal.NewFromInt(10)})
	require.NoError(t, err)
	second, err := p.Charge(context.Background(), ChargeRequest{Amount: decimal.NewFromInt(10)})
	require.NoError(t, err)

	assert.True(t, first.Success)
	assert.NotEqual(t, first.Reference, second.Reference)
}

func TestMockPayoutProvider(t *testing.T) {
	t.Parallel()

	ref, err := NewMockPayoutProvider().Transfer(context.Background(), TransferRequest{PayoutID: "p1"})
	require.NoError(t, err)
	assert.Equal(t, "mock_po_p1", ref)
}
