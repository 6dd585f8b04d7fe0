package ledger

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"sync"
	"time"

	json "github.com/goccy/go-json"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/synapsefi/pm-ledger/pkg/types"
)

// candidatePaths are the fill-history endpoint spellings seen across
// API deployments, probed in order. The first path that answers with
// records is remembered for subsequent requests.
var candidatePaths = []string{"/fills", "/get-fills", "/fills-by-owner"}

// RemoteClient fetches fill history from the trade-history API.
type RemoteClient struct {
	baseURL    string
	apiKey     string
	secret     string
	passphrase string
	address    string
	httpClient *http.Client
	limiter    *rate.Limiter
	logger     *zap.Logger

	mu        sync.Mutex
	knownPath string
}

// RemoteClientConfig holds configuration for the remote fill client.
// The credential fields are optional; when set, requests carry L2
// authentication headers.
type RemoteClientConfig struct {
	BaseURL        string
	APIKey         string
	Secret         string
	Passphrase     string
	Address        string
	Timeout        time.Duration
	RequestsPerSec float64
	Logger         *zap.Logger
}

// NewRemoteClient creates a new remote fill client.
func NewRemoteClient(cfg RemoteClientConfig) *RemoteClient {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 10 * time.Second
	}
	rps := cfg.RequestsPerSec
	if rps <= 0 {
		rps = 5
	}

	return &RemoteClient{
		baseURL:    cfg.BaseURL,
		apiKey:     cfg.APIKey,
		secret:     cfg.Secret,
		passphrase: cfg.Passphrase,
		address:    cfg.Address,
		httpClient: &http.Client{Timeout: timeout},
		limiter:    rate.NewLimiter(rate.Limit(rps), 1),
		logger:     cfg.Logger,
	}
}

// Fills fetches all fills for an owner on one outcome token. Records
// the API returns with an unusable side, price or size are dropped
// rather than failing the whole fetch.
func (c *RemoteClient) Fills(ctx context.Context, owner, tokenID string) ([]types.Fill, error) {
	records, err := c.fetch(ctx, owner, tokenID)
	if err != nil {
		return nil, err
	}

	fills := make([]types.Fill, 0, len(records))
	for _, rec := range records {
		fill, ok := c.toFill(rec, tokenID)
		if !ok {
			RemoteRecordsDroppedTotal.Inc()
			continue
		}
		fills = append(fills, fill)
	}

	return fills, nil
}

func (c *RemoteClient) fetch(ctx context.Context, owner, tokenID string) ([]types.TradeRecord, error) {
	var lastErr error
	sawEmpty := false
	for _, path := range c.paths() {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limiter: %w", err)
		}

		records, status, err := c.get(ctx, path, owner, tokenID)
		if err != nil {
			lastErr = err
			continue
		}
		if status == http.StatusNotFound {
			// Wrong spelling for this deployment; try the next one.
			lastErr = fmt.Errorf("path %s not found", path)
			continue
		}
		if len(records) == 0 {
			// An empty array from one spelling does not mean the
			// history is empty; another spelling may hold it.
			sawEmpty = true
			continue
		}

		c.rememberPath(path)
		return records, nil
	}

	if sawEmpty {
		return nil, nil
	}
	return nil, fmt.Errorf("fetch fills for owner %s: %w", owner, lastErr)
}

// paths returns the probe order, starting with the last path that
// worked.
func (c *RemoteClient) paths() []string {
	c.mu.Lock()
	known := c.knownPath
	c.mu.Unlock()

	if known == "" {
		return candidatePaths
	}

	ordered := make([]string, 0, len(candidatePaths))
	ordered = append(ordered, known)
	for _, p := range candidatePaths {
		if p != known {
			ordered = append(ordered, p)
		}
	}
	return ordered
}

func (c *RemoteClient) rememberPath(path string) {
	c.mu.Lock()
	c.knownPath = path
	c.mu.Unlock()
}

func (c *RemoteClient) get(ctx context.Context, path, owner, tokenID string) ([]types.TradeRecord, int, error) {
	start := time.Now()

	query := url.Values{}
	query.Set("owner", owner)
	query.Set("token_id", tokenID)
	requestPath := path + "?" + query.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+requestPath, nil)
	if err != nil {
		return nil, 0, fmt.Errorf("create request: %w", err)
	}

	if c.apiKey != "" {
		if err := c.sign(req, http.MethodGet, requestPath); err != nil {
			return nil, 0, fmt.Errorf("sign request: %w", err)
		}
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	RemoteRequestDurationSeconds.Observe(time.Since(start).Seconds())

	if resp.StatusCode == http.StatusNotFound {
		return nil, http.StatusNotFound, nil
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resp.StatusCode, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, resp.StatusCode, fmt.Errorf("API error (status %d): %s", resp.StatusCode, string(body))
	}

	var records []types.TradeRecord
	if err := json.Unmarshal(body, &records); err != nil {
		return nil, resp.StatusCode, fmt.Errorf("parse response: %w", err)
	}

	return records, resp.StatusCode, nil
}

// sign attaches L2 authentication headers. The HMAC covers
// timestamp + method + path, URL-safe base64 both ways, matching the
// official clients.
func (c *RemoteClient) sign(req *http.Request, method, requestPath string) error {
	timestamp := strconv.FormatInt(time.Now().Unix(), 10)

	secretBytes, err := base64.URLEncoding.DecodeString(c.secret)
	if err != nil {
		return fmt.Errorf("decode secret: %w", err)
	}

	h := hmac.New(sha256.New, secretBytes)
	h.Write([]byte(timestamp + method + requestPath))
	signature := base64.URLEncoding.EncodeToString(h.Sum(nil))

	req.Header.Set("POLY_API_KEY", c.apiKey)
	req.Header.Set("POLY_SIGNATURE", signature)
	req.Header.Set("POLY_TIMESTAMP", timestamp)
	req.Header.Set("POLY_PASSPHRASE", c.passphrase)
	req.Header.Set("POLY_ADDRESS", c.address)
	return nil
}

func (c *RemoteClient) toFill(rec types.TradeRecord, tokenID string) (types.Fill, bool) {
	side, ok := types.NormalizeSide(rec.Side)
	if !ok {
		c.logger.Debug("dropping-fill-record", zap.String("reason", "side"), zap.String("id", rec.ID))
		return types.Fill{}, false
	}

	price, err := rec.Price.Float64()
	if err != nil || price < 0 {
		c.logger.Debug("dropping-fill-record", zap.String("reason", "price"), zap.String("id", rec.ID))
		return types.Fill{}, false
	}

	size, err := rec.Size.Float64()
	if err != nil || size <= 0 {
		c.logger.Debug("dropping-fill-record", zap.String("reason", "size"), zap.String("id", rec.ID))
		return types.Fill{}, false
	}

	token := rec.TokenID
	if token == "" {
		token = rec.Asset
	}
	if token == "" {
		token = tokenID
	}

	return types.Fill{
		TokenID:   token,
		Side:      side,
		Price:     price,
		Size:      size,
		Timestamp: parseFillTimestamp(rec),
	}, true
}

// parseFillTimestamp accepts the timestamp spellings seen across the
// trade-history endpoints: unix seconds, unix milliseconds, fractional
// seconds, or an ISO string. Unparseable values become 0, which sorts
// earliest.
func parseFillTimestamp(rec types.TradeRecord) int64 {
	s := rec.Timestamp.String()
	if s == "" || s == "0" {
		s = rec.MatchTime
	}
	if s == "" {
		return 0
	}

	if sec, err := strconv.ParseInt(s, 10, 64); err == nil {
		if sec > 1e12 {
			return sec / 1000
		}
		return sec
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return int64(f)
	}
	for _, layout := range []string{
		time.RFC3339Nano, time.RFC3339,
		"2006-01-02T15:04:05.000Z", "2006-01-02T15:04:05Z",
	} {
		if t, err := time.Parse(layout, s); err == nil {
			return t.Unix()
		}
	}
	return 0
}
