package distributor

import (
	"errors"
	"testing"

	"github.com/monerosim/monerosim/rpcclient"
)

func TestRecoverableClassifiesSemanticAndTransportErrors(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want bool
	}{
		{"not enough money", &rpcclient.Error{Kind: rpcclient.KindSemantic, Code2: rpcclient.SemNotEnoughMoney}, true},
		{"wallet not ready", &rpcclient.Error{Kind: rpcclient.KindSemantic, Code2: rpcclient.SemWalletNotReady}, true},
		{"transport", &rpcclient.Error{Kind: rpcclient.KindTransport}, true},
		{"invalid address", &rpcclient.Error{Kind: rpcclient.KindSemantic, Code2: rpcclient.SemInvalidAddress}, false},
		{"protocol", &rpcclient.Error{Kind: rpcclient.KindProtocol}, false},
		{"plain error", errors.New("boom"), false},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			if got := recoverable(c.err); got != c.want {
				t.Fatalf("recoverable(%v) = %v, want %v", c.err, got, c.want)
			}
		})
	}
}

func TestCountFunded(t *testing.T) {
	outcomes := []FundingOutcome{
		{AgentID: "a", Funded: true},
		{AgentID: "b", Funded: false},
		{AgentID: "c", Funded: true},
	}
	if got := countFunded(outcomes); got != 2 {
		t.Fatalf("countFunded() = %d, want 2", got)
	}
	if got := countFunded(nil); got != 0 {
		t.Fatalf("countFunded(nil) = %d, want 0", got)
	}
}
