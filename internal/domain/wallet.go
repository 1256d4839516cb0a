package domain

import "time"

type WalletType string

const (
	WalletTypeUser     WalletType = "user"
	WalletTypePlatform WalletType = "platform"
)

// WalletFlow constrains the direction funds may move through a wallet.
type WalletFlow string

const (
	// WalletFlowInbound wallets only receive; they can never be a source.
	WalletFlowInbound WalletFlow = "inbound"
	// WalletFlowOutbound wallets only send; they can never be a destination.
	WalletFlowOutbound WalletFlow = "outbound"
	WalletFlowAll      WalletFlow = "all"
)

// Well-known platform wallet names. Platform wallets are the house side of
// every user-facing transfer.
const (
	PlatformCorporate  = "corporate"
	PlatformCorrection = "correction"
	PlatformPrize      = "prize"
	PlatformReferral   = "referral"
)

// Wallet groups the accounts of one owner: either a user (UserID set) or a
// named platform wallet (Name set). Exactly one of the two is present.
type Wallet struct {
	ID        int64      `json:"id"`
	Type      WalletType `json:"wallet_type"`
	UserID    *string    `json:"user_id,omitempty"`
	Name      *string    `json:"name,omitempty"`
	Flow      WalletFlow `json:"flow"`
	CreatedAt time.Time  `json:"created_at"`
}

// CanSend reports whether the wallet may be the source of a transfer.
func (w *Wallet) CanSend() bool { return w.Flow != WalletFlowInbound }

// CanReceive reports whether the wallet may be the destination of a transfer.
func (w *Wallet) CanReceive() bool { return w.Flow != WalletFlowOutbound }

// DefaultPlatformWallets returns the platform wallets seeded at startup:
// the fixed house wallets plus one inbound wallet per payment provider.
// Prize and referral wallets only pay out, so they are outbound-only.
func DefaultPlatformWallets(providers []string) []*Wallet {
	names := []struct {
		name string
		flow WalletFlow
	}{
		{PlatformCorporate, WalletFlowAll},
		{PlatformCorrection, WalletFlowAll},
		{PlatformPrize, WalletFlowOutbound},
		{PlatformReferral, WalletFlowOutbound},
	}

	wallets := make([]*Wallet, 0, len(names)+len(providers))
	for _, n := range names {
		name := n.name
		wallets = append(wallets, &Wallet{
			Type: WalletTypePlatform,
			Name: &name,
			Flow: n.flow,
		})
	}
	for _, p := range providers {
		provider := p
		wallets = append(wallets, &Wallet{
			Type: WalletTypePlatform,
			Name: &provider,
			Flow: WalletFlowAll,
		})
	}
	return wallets
}
