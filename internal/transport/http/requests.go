package httptransport

import "tokengate/internal/token"

// CreateTokenRequest is the POST /tokens body.
type CreateTokenRequest struct {
	Name            string `json:"name"`
	Symbol          string `json:"symbol"`
	TotalSupply     int64  `json:"total_supply"`
	LogoRef         string `json:"logo_ref"`
	CreatorWalletID string `json:"creator_wallet_id"`
}

func (r CreateTokenRequest) candidate() token.Candidate {
	return token.Candidate{
		Name:            r.Name,
		Symbol:          r.Symbol,
		TotalSupply:     r.TotalSupply,
		LogoRef:         r.LogoRef,
		CreatorWalletID: r.CreatorWalletID,
	}
}

// VerifyWalletRequest is the POST /wallets/verify body.
type VerifyWalletRequest struct {
	WalletAddress string `json:"wallet_address"`
}
