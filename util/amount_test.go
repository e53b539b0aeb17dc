package util

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewAmount(t *testing.T) {
	tests := []struct {
		name    string
		coins   float64
		want    Amount
		wantErr error
	}{
		{name: "one coin", coins: 1, want: Amount(AtomicUnitsPerCoin)},
		{name: "fractional", coins: 0.5, want: Amount(AtomicUnitsPerCoin / 2)},
		{name: "zero rejected", coins: 0, wantErr: ErrNonPositiveAmount},
		{name: "negative rejected", coins: -1, wantErr: ErrNonPositiveAmount},
		{name: "nan rejected", coins: math.NaN(), wantErr: ErrNonPositiveAmount},
		{name: "inf rejected", coins: math.Inf(1), wantErr: ErrNonPositiveAmount},
		{name: "overflow rejected", coins: math.MaxFloat64, wantErr: ErrAmountOverflow},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NewAmount(tt.coins)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tt.want, got)
		})
	}
}

func TestAmountRoundTrip(t *testing.T) {
	a, err := NewAmount(1234.56789)
	require.NoError(t, err)
	require.InDelta(t, 1234.56789, a.ToCoins(), 1e-9)
}
