package execution

import (
	"context"
	"crypto/ecdsa"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"math/big"
	"net/http"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/polymarket/go-order-utils/pkg/builder"
	"github.com/polymarket/go-order-utils/pkg/model"
	"go.uber.org/zap"

	"github.com/synapsefi/pm-ledger/pkg/types"
)

const zeroAddress = "0x0000000000000000000000000000000000000000"

// OrderClient signs and submits single orders to the CLOB.
type OrderClient struct {
	baseURL       string
	apiKey        string
	secret        string
	passphrase    string
	privateKey    *ecdsa.PrivateKey
	address       string // EOA address (signer)
	proxyAddress  string // Proxy address (maker/funder)
	signatureType model.SignatureType
	orderBuilder  builder.ExchangeOrderBuilder
	httpClient    *http.Client
	logger        *zap.Logger
}

// OrderClientConfig holds configuration for the order client.
type OrderClientConfig struct {
	BaseURL       string
	APIKey        string
	Secret        string
	Passphrase    string
	PrivateKey    string
	Address       string
	ProxyAddress  string
	SignatureType int
	Logger        *zap.Logger
}

// NewOrderClient creates a new order client.
func NewOrderClient(cfg *OrderClientConfig) (*OrderClient, error) {
	privateKey, err := crypto.HexToECDSA(strings.TrimPrefix(cfg.PrivateKey, "0x"))
	if err != nil {
		return nil, fmt.Errorf("parse private key: %w", err)
	}

	// Derive EOA address if not provided
	address := cfg.Address
	if address == "" {
		publicKey := privateKey.Public()
		publicKeyECDSA, _ := publicKey.(*ecdsa.PublicKey)
		address = crypto.PubkeyToAddress(*publicKeyECDSA).Hex()
	}

	chainID := big.NewInt(137) // Polygon mainnet
	orderBuilder := builder.NewExchangeOrderBuilderImpl(chainID, nil)

	return &OrderClient{
		baseURL:       cfg.BaseURL,
		apiKey:        cfg.APIKey,
		secret:        cfg.Secret,
		passphrase:    cfg.Passphrase,
		privateKey:    privateKey,
		address:       address,
		proxyAddress:  cfg.ProxyAddress,
		signatureType: model.SignatureType(cfg.SignatureType),
		orderBuilder:  orderBuilder,
		httpClient:    &http.Client{Timeout: 30 * time.Second},
		logger:        cfg.Logger,
	}, nil
}

// Submit signs and submits one order leg as a GTC limit order.
func (c *OrderClient) Submit(ctx context.Context, leg types.OrderLeg) (*types.OrderSubmissionResponse, error) {
	makerAddress := c.address
	if c.proxyAddress != "" {
		makerAddress = c.proxyAddress
	}

	// A BUY pays USDC for outcome tokens; a SELL is the reverse.
	var side model.Side
	var makerAmount, takerAmount string
	switch leg.Side {
	case types.SideBuy:
		side = model.BUY
		makerAmount = toRawAmount(leg.Price * leg.Size)
		takerAmount = toRawAmount(leg.Size)
	case types.SideSell:
		side = model.SELL
		makerAmount = toRawAmount(leg.Size)
		takerAmount = toRawAmount(leg.Price * leg.Size)
	default:
		return nil, fmt.Errorf("invalid order side %q", leg.Side)
	}

	orderData := &model.OrderData{
		Maker:         makerAddress,
		Taker:         zeroAddress,
		TokenId:       leg.TokenID,
		MakerAmount:   makerAmount,
		TakerAmount:   takerAmount,
		Side:          side,
		FeeRateBps:    "0",
		Nonce:         "0",
		Signer:        c.address,
		Expiration:    "0",
		SignatureType: c.signatureType,
	}

	signedOrder, err := c.orderBuilder.BuildSignedOrder(c.privateKey, orderData, model.CTFExchange)
	if err != nil {
		return nil, fmt.Errorf("build %s order for token %s: %w", leg.Side, leg.TokenID, err)
	}

	c.logger.Debug("order-built",
		zap.String("token-id", leg.TokenID),
		zap.String("side", leg.Side),
		zap.Float64("price", leg.Price),
		zap.Float64("size", leg.Size))

	return c.submitOrder(ctx, signedOrder, leg.Side)
}

func (c *OrderClient) submitOrder(ctx context.Context, order *model.SignedOrder, sideStr string) (*types.OrderSubmissionResponse, error) {
	jsonOrder := types.SignedOrderJSON{
		Salt:          order.Salt.Int64(),
		Maker:         order.Maker.Hex(),
		Signer:        order.Signer.Hex(),
		Taker:         order.Taker.Hex(),
		TokenID:       order.TokenId.String(),
		MakerAmount:   order.MakerAmount.String(),
		TakerAmount:   order.TakerAmount.String(),
		Side:          sideStr,
		Expiration:    order.Expiration.String(),
		Nonce:         order.Nonce.String(),
		FeeRateBps:    order.FeeRateBps.String(),
		SignatureType: int(order.SignatureType.Int64()),
		Signature:     "0x" + common.Bytes2Hex(order.Signature),
	}

	// "owner" is the API key, not the maker address.
	orderRequest := types.OrderSubmissionRequest{
		Order:     jsonOrder,
		Owner:     c.apiKey,
		OrderType: "GTC",
	}

	reqBody, err := json.Marshal(orderRequest)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	// L2 HMAC over timestamp + method + path + body, URL-safe base64
	// both ways.
	timestamp := fmt.Sprintf("%d", time.Now().Unix())
	method := http.MethodPost
	requestPath := "/order"

	secretBytes, err := base64.URLEncoding.DecodeString(c.secret)
	if err != nil {
		return nil, fmt.Errorf("decode secret: %w", err)
	}

	h := hmac.New(sha256.New, secretBytes)
	h.Write([]byte(timestamp + method + requestPath + string(reqBody)))
	signature := base64.URLEncoding.EncodeToString(h.Sum(nil))

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+requestPath, strings.NewReader(string(reqBody)))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("POLY_API_KEY", c.apiKey)
	req.Header.Set("POLY_SIGNATURE", signature)
	req.Header.Set("POLY_TIMESTAMP", timestamp)
	req.Header.Set("POLY_PASSPHRASE", c.passphrase)
	req.Header.Set("POLY_ADDRESS", c.address) // EOA address, not the proxy

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return nil, fmt.Errorf("API error (status %d): %s", resp.StatusCode, string(body))
	}

	var orderResp types.OrderSubmissionResponse
	if err := json.Unmarshal(body, &orderResp); err != nil {
		return nil, fmt.Errorf("parse response: %w", err)
	}

	if !orderResp.Success {
		return &orderResp, fmt.Errorf("order rejected: %s", orderResp.ErrorMsg)
	}

	return &orderResp, nil
}

// toRawAmount converts a decimal amount to the 6-decimal raw integer
// string the exchange expects.
func toRawAmount(amount float64) string {
	return fmt.Sprintf("%d", int64(amount*1000000))
}
