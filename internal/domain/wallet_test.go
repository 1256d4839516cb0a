package domain

import "testing"

func TestWalletFlowDirections(t *testing.T) {
	tests := []struct {
		flow       WalletFlow
		canSend    bool
		canReceive bool
	}{
		{WalletFlowAll, true, true},
		{WalletFlowInbound, false, true},
		{WalletFlowOutbound, true, false},
	}

	for _, tt := range tests {
		w := &Wallet{Flow: tt.flow}
		if w.CanSend() != tt.canSend {
			t.Fatalf("flow %s: CanSend() = %v, want %v", tt.flow, w.CanSend(), tt.canSend)
		}
		if w.CanReceive() != tt.canReceive {
			t.Fatalf("flow %s: CanReceive() = %v, want %v", tt.flow, w.CanReceive(), tt.canReceive)
		}
	}
}

func TestDefaultPlatformWallets(t *testing.T) {
	wallets := DefaultPlatformWallets([]string{"mpesa", "stripe"})

	byName := make(map[string]*Wallet, len(wallets))
	for _, w := range wallets {
		if w.Type != WalletTypePlatform {
			t.Fatalf("wallet %v is not a platform wallet", w.Name)
		}
		if w.Name == nil || *w.Name == "" {
			t.Fatal("platform wallet without a name")
		}
		if w.UserID != nil {
			t.Fatalf("platform wallet %s carries a user id", *w.Name)
		}
		byName[*w.Name] = w
	}

	if len(byName) != 6 {
		t.Fatalf("got %d distinct wallets, want 6", len(byName))
	}

	for _, name := range []string{PlatformPrize, PlatformReferral} {
		if byName[name].Flow != WalletFlowOutbound {
			t.Fatalf("%s wallet flow = %s, want outbound", name, byName[name].Flow)
		}
	}
	if byName[PlatformCorporate].Flow != WalletFlowAll {
		t.Fatal("corporate wallet must send and receive")
	}
	for _, provider := range []string{"mpesa", "stripe"} {
		w, ok := byName[provider]
		if !ok {
			t.Fatalf("provider wallet %s missing", provider)
		}
		if w.Flow != WalletFlowAll {
			t.Fatalf("provider wallet %s flow = %s, want all", provider, w.Flow)
		}
	}
}
