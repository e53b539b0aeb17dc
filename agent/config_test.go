package agent

import "testing"

func TestConfigAttrBool(t *testing.T) {
	cfg := Config{Attributes: map[string]string{"can_receive_distributions": "true", "is_miner": "0"}}

	if !cfg.AttrBool("can_receive_distributions") {
		t.Fatal("expected can_receive_distributions to parse true")
	}
	if cfg.AttrBool("is_miner") {
		t.Fatal("expected is_miner=0 to parse false")
	}
	if cfg.AttrBool("missing") {
		t.Fatal("expected a missing attribute to parse false")
	}
}
