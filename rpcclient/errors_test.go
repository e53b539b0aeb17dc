package rpcclient

import (
	"testing"

	"github.com/monerosim/monerosim/btcjson"
	"github.com/stretchr/testify/require"
)

func TestClassifyProtocolError(t *testing.T) {
	tests := []struct {
		message  string
		wantKind Kind
		wantCode SemanticCode
	}{
		{"Wallet already exists.", KindSemantic, SemWalletExists},
		{"Wallet not found.", KindSemantic, SemWalletNotFound},
		{"not enough money", KindSemantic, SemNotEnoughMoney},
		{"Invalid address", KindSemantic, SemInvalidAddress},
		{"daemon is not synchronized", KindSemantic, SemWalletNotReady},
		{"some other problem", KindProtocol, SemNone},
	}

	for _, tt := range tests {
		err := classifyProtocolError("transfer", &btcjson.RPCError{Code: -1, Message: tt.message})
		require.Equal(t, tt.wantKind, err.Kind, tt.message)
		require.Equal(t, tt.wantCode, err.Code2, tt.message)
	}
}

func TestIsSemantic(t *testing.T) {
	err := classifyProtocolError("transfer", &btcjson.RPCError{Message: "not enough money"})
	require.True(t, IsSemantic(err, SemNotEnoughMoney))
	require.False(t, IsSemantic(err, SemInvalidAddress))
	require.False(t, IsSemantic(nil, SemInvalidAddress))
}
