package types

import "encoding/json"

// TradeRecord is a raw fill record as returned by the trade-history
// endpoints. Numeric fields arrive as JSON numbers or strings depending
// on the endpoint, so they are decoded as json.Number.
type TradeRecord struct {
	ID        string      `json:"id"`
	TokenID   string      `json:"token_id"`
	Asset     string      `json:"asset"` // Data API spelling of token_id
	Side      string      `json:"side"`
	Price     json.Number `json:"price"`
	Size      json.Number `json:"size"`
	Timestamp json.Number `json:"timestamp"`
	MatchTime string      `json:"match_time"` // CLOB spelling of timestamp
}

// OrderSubmissionResponse represents the response from POST /order.
// Based on the official Polymarket CLOB API documentation.
type OrderSubmissionResponse struct {
	Success      bool     `json:"success"`
	ErrorMsg     string   `json:"errorMsg"`
	OrderID      string   `json:"orderId"` // lowercase 'd' per API spec
	OrderHashes  []string `json:"orderHashes"`
	Status       string   `json:"status"` // matched, live, delayed, unmatched
	TakingAmount string   `json:"takingAmount"`
	MakingAmount string   `json:"makingAmount"`
}

// SignedOrderJSON represents a signed order in the format expected by
// the CLOB API. Fields match the EIP-712 order structure after signing.
type SignedOrderJSON struct {
	Salt          int64  `json:"salt"` // Integer per API spec (not string)
	Maker         string `json:"maker"`
	Signer        string `json:"signer"`
	Taker         string `json:"taker"`
	TokenID       string `json:"tokenId"`
	MakerAmount   string `json:"makerAmount"` // Raw amount (6 decimals for USDC)
	TakerAmount   string `json:"takerAmount"` // Raw token amount
	Side          string `json:"side"`
	Expiration    string `json:"expiration"` // Unix timestamp (0 for no expiry)
	Nonce         string `json:"nonce"`
	FeeRateBps    string `json:"feeRateBps"`
	SignatureType int    `json:"signatureType"` // 0=EOA, 1=POLY_PROXY, 2=GNOSIS_SAFE
	Signature     string `json:"signature"`     // Hex-encoded with 0x prefix
}

// OrderSubmissionRequest wraps a signed order with submission metadata.
type OrderSubmissionRequest struct {
	Order     SignedOrderJSON `json:"order"`
	Owner     string          `json:"owner"`     // API key (not maker address!)
	OrderType string          `json:"orderType"` // GTC, FOK, GTD, or FAK
}
