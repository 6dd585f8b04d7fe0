package quotes

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/synapsefi/pm-ledger/pkg/types"
)

// BookClient fetches one token's top of book.
type BookClient interface {
	FetchBook(ctx context.Context, tokenID string) (types.QuoteSnapshot, error)
}

// Manager maintains top-of-book snapshots for subscribed tokens by
// polling the book endpoint. Every subscription carries a generation
// number; a response is applied only if its generation is still
// current, so a slow in-flight response from before a resubscribe can
// never overwrite newer state.
type Manager struct {
	client   BookClient
	interval time.Duration
	logger   *zap.Logger

	mu          sync.RWMutex
	snapshots   map[string]types.QuoteSnapshot // key: token_id
	generations map[string]uint64
	cancels     map[string]context.CancelFunc

	updateChan chan types.QuoteSnapshot
	ctx        context.Context
	wg         sync.WaitGroup
}

// ManagerConfig holds quote manager configuration.
type ManagerConfig struct {
	PollInterval time.Duration
	Logger       *zap.Logger
}

// NewManager creates a new quote manager.
func NewManager(cfg ManagerConfig, client BookClient) *Manager {
	interval := cfg.PollInterval
	if interval == 0 {
		interval = 5 * time.Second
	}

	return &Manager{
		client:      client,
		interval:    interval,
		logger:      cfg.Logger,
		snapshots:   make(map[string]types.QuoteSnapshot),
		generations: make(map[string]uint64),
		cancels:     make(map[string]context.CancelFunc),
		updateChan:  make(chan types.QuoteSnapshot, 1000),
	}
}

// Start starts the quote manager.
func (m *Manager) Start(ctx context.Context) error {
	m.ctx = ctx
	m.logger.Info("quote-manager-starting", zap.Duration("poll-interval", m.interval))
	return nil
}

// Subscribe starts polling a token's book. Resubscribing an already
// tracked token cancels its previous polling task and bumps the
// generation so stale responses are discarded.
func (m *Manager) Subscribe(tokenID string) {
	m.mu.Lock()
	if cancel, exists := m.cancels[tokenID]; exists {
		cancel()
	}
	m.generations[tokenID]++
	gen := m.generations[tokenID]

	pollCtx, cancel := context.WithCancel(m.ctx)
	m.cancels[tokenID] = cancel
	m.mu.Unlock()

	SubscriptionCount.Inc()
	m.logger.Debug("quote-subscription-started",
		zap.String("token-id", tokenID),
		zap.Uint64("generation", gen))

	m.wg.Add(1)
	go m.pollLoop(pollCtx, tokenID, gen)
}

// Unsubscribe stops polling a token and drops its snapshot.
func (m *Manager) Unsubscribe(tokenID string) {
	m.mu.Lock()
	cancel, exists := m.cancels[tokenID]
	if exists {
		cancel()
		delete(m.cancels, tokenID)
		delete(m.snapshots, tokenID)
		m.generations[tokenID]++ // invalidate in-flight responses
	}
	m.mu.Unlock()

	if exists {
		SubscriptionCount.Dec()
		m.logger.Debug("quote-subscription-stopped", zap.String("token-id", tokenID))
	}
}

func (m *Manager) pollLoop(ctx context.Context, tokenID string, gen uint64) {
	defer m.wg.Done()

	// Fetch immediately, then on the ticker.
	m.fetchOnce(ctx, tokenID, gen)

	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			// Each tick fetches in its own goroutine so one slow
			// response does not delay the next tick; the generation
			// check makes late arrivals harmless.
			m.wg.Add(1)
			go func() {
				defer m.wg.Done()
				m.fetchOnce(ctx, tokenID, gen)
			}()
		}
	}
}

func (m *Manager) fetchOnce(ctx context.Context, tokenID string, gen uint64) {
	snap, err := m.client.FetchBook(ctx, tokenID)
	if err != nil {
		if ctx.Err() == nil {
			FetchErrorsTotal.Inc()
			m.logger.Warn("quote-fetch-failed",
				zap.String("token-id", tokenID),
				zap.Error(err))
		}
		return
	}

	m.apply(snap, gen)
}

// apply stores a snapshot if its generation is still current.
func (m *Manager) apply(snap types.QuoteSnapshot, gen uint64) {
	m.mu.Lock()
	if m.generations[snap.TokenID] != gen {
		m.mu.Unlock()
		StaleResponsesDiscardedTotal.Inc()
		m.logger.Debug("stale-quote-discarded",
			zap.String("token-id", snap.TokenID),
			zap.Uint64("generation", gen))
		return
	}
	m.snapshots[snap.TokenID] = snap
	SnapshotsTracked.Set(float64(len(m.snapshots)))
	m.mu.Unlock()

	// Notify subscribers of update (non-blocking)
	select {
	case m.updateChan <- snap:
	default:
		UpdatesDroppedTotal.Inc()
		m.logger.Warn("quote-update-channel-full", zap.String("token-id", snap.TokenID))
	}
}

// ApplyExternal applies a snapshot pushed by a streaming source. It
// runs under the token's current generation, so it participates in the
// same staleness rules as polled responses.
func (m *Manager) ApplyExternal(snap types.QuoteSnapshot) {
	m.mu.RLock()
	gen := m.generations[snap.TokenID]
	// Streamed book messages carry no tick size or neg-risk flag;
	// carry them over from the polled snapshot.
	if prev, ok := m.snapshots[snap.TokenID]; ok && snap.TickSize == 0 {
		snap.TickSize = prev.TickSize
		snap.NegRisk = prev.NegRisk
	}
	m.mu.RUnlock()

	m.apply(snap, gen)
}

// Snapshot returns the current snapshot for a token.
func (m *Manager) Snapshot(tokenID string) (types.QuoteSnapshot, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	snap, exists := m.snapshots[tokenID]
	return snap, exists
}

// AllSnapshots returns a copy of every tracked snapshot.
func (m *Manager) AllSnapshots() map[string]types.QuoteSnapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make(map[string]types.QuoteSnapshot, len(m.snapshots))
	for tokenID, snap := range m.snapshots {
		out[tokenID] = snap
	}
	return out
}

// UpdateChan returns the channel for receiving quote updates.
func (m *Manager) UpdateChan() <-chan types.QuoteSnapshot {
	return m.updateChan
}

// Close stops all polling tasks and waits for them to finish.
func (m *Manager) Close() error {
	m.logger.Info("closing-quote-manager")

	m.mu.Lock()
	for tokenID, cancel := range m.cancels {
		cancel()
		delete(m.cancels, tokenID)
	}
	m.mu.Unlock()

	m.wg.Wait()
	close(m.updateChan)
	m.logger.Info("quote-manager-closed")
	return nil
}
