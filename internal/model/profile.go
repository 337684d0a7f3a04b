package model

// Customer profiles drive which trading pairs are relevant for a wallet.
const (
	ProfileDefault   = "default"
	ProfileVitalik   = "vitalik"
	ProfileTrader    = "trader"
	ProfileNFTTrader = "nft_trader"
)
