package client

import (
	"context"
	"errors"
	"net/url"
	"sync"
	"time"
)

// Guest polling intervals. The history view tightens the cadence while
// the guest is actually watching and relaxes it on close.
const (
	GuestBaseInterval    = 5 * time.Second
	GuestHistoryInterval = 2500 * time.Millisecond
)

// TokenStore caches the guest token per table id for the duration of one
// browser session. Cleared whenever the server reports the token stale.
type TokenStore interface {
	Get(tableID uint) (string, bool)
	Set(tableID uint, token string)
	Delete(tableID uint)
}

// MemoryTokenStore is the in-process TokenStore.
type MemoryTokenStore struct {
	mu     sync.Mutex
	tokens map[uint]string
}

func NewMemoryTokenStore() *MemoryTokenStore {
	return &MemoryTokenStore{tokens: map[uint]string{}}
}

func (s *MemoryTokenStore) Get(tableID uint) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	token, ok := s.tokens[tableID]
	return token, ok
}

func (s *MemoryTokenStore) Set(tableID uint, token string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tokens[tableID] = token
}

func (s *MemoryTokenStore) Delete(tableID uint) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.tokens, tableID)
}

// ErrNotVerified is returned for guest calls made before a PIN exchange.
var ErrNotVerified = errors.New("no verified session for this table")

// ErrEmptyCart guards submission of an empty cart locally, before any
// network round-trip.
var ErrEmptyCart = errors.New("cart is empty")

// GuestSession is the guest client's single session context: the cached
// token, the local cart and the history poller all hang off it, so timer
// callbacks and user actions mutate state through one owner.
type GuestSession struct {
	api     *API
	tableID uint
	store   TokenStore

	mu          sync.Mutex
	token       string
	historyOpen bool

	Cart   *Cart
	poller *Poller

	// OnOrders receives every full-state history refresh.
	OnOrders func([]Order)
	// OnAuthRequired fires when the server rejects the cached token; the
	// UI must re-prompt for the current PIN.
	OnAuthRequired func()
}

func NewGuestSession(api *API, tableID uint, store TokenStore) *GuestSession {
	g := &GuestSession{
		api:     api,
		tableID: tableID,
		store:   store,
		Cart:    NewCart(),
	}
	g.poller = NewPoller(g.refreshOrders)

	if token, ok := store.Get(tableID); ok {
		g.token = token
	}
	return g
}

// Verified reports whether a token is currently cached.
func (g *GuestSession) Verified() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.token != ""
}

// Verify exchanges the table PIN for the session token and caches it.
func (g *GuestSession) Verify(ctx context.Context, pin string) error {
	var out struct {
		Token string `json:"token"`
	}
	err := g.api.Post(ctx, "/session/verify", map[string]interface{}{
		"table_id": g.tableID,
		"pin":      pin,
	}, &out)
	if err != nil {
		return err
	}

	g.mu.Lock()
	g.token = out.Token
	g.mu.Unlock()
	g.store.Set(g.tableID, out.Token)
	return nil
}

// Menu fetches the guest menu (visible items only).
func (g *GuestSession) Menu(ctx context.Context) (*Menu, error) {
	var menu Menu
	if err := g.api.Get(ctx, "/menu", nil, &menu); err != nil {
		return nil, err
	}
	return &menu, nil
}

// Submit sends the cart as a new order. The cart is cleared only on a
// confirmed success; every failure leaves it intact for a retry.
func (g *GuestSession) Submit(ctx context.Context) (uint, error) {
	token, err := g.currentToken()
	if err != nil {
		return 0, err
	}
	if g.Cart.IsEmpty() {
		return 0, ErrEmptyCart
	}

	var out struct {
		ID uint `json:"id"`
	}
	err = g.api.Post(ctx, "/orders", map[string]interface{}{
		"token": token,
		"items": g.Cart.Lines(),
	}, &out)
	if err != nil {
		g.handleAuthError(err)
		return 0, err
	}

	g.Cart.Clear()
	g.poller.Kick()
	return out.ID, nil
}

// Orders fetches the session's own history, newest first.
func (g *GuestSession) Orders(ctx context.Context) ([]Order, error) {
	token, err := g.currentToken()
	if err != nil {
		return nil, err
	}

	var out struct {
		Orders []Order `json:"orders"`
	}
	query := url.Values{"token": {token}}
	if err := g.api.Get(ctx, "/orders/mine", query, &out); err != nil {
		g.handleAuthError(err)
		return nil, err
	}
	return out.Orders, nil
}

// StartPolling begins the history poll at the cadence matching the
// current view; call after Verify.
func (g *GuestSession) StartPolling() {
	g.poller.Start(g.pollInterval())
}

// OpenHistory tightens the poll while the guest watches the history view.
// Opening the already-open view changes nothing.
func (g *GuestSession) OpenHistory() {
	g.mu.Lock()
	if g.historyOpen {
		g.mu.Unlock()
		return
	}
	g.historyOpen = true
	g.mu.Unlock()
	g.poller.Reschedule(GuestHistoryInterval)
}

// CloseHistory relaxes the poll back to the baseline.
func (g *GuestSession) CloseHistory() {
	g.mu.Lock()
	if !g.historyOpen {
		g.mu.Unlock()
		return
	}
	g.historyOpen = false
	g.mu.Unlock()
	g.poller.Reschedule(GuestBaseInterval)
}

func (g *GuestSession) pollInterval() time.Duration {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.historyOpen {
		return GuestHistoryInterval
	}
	return GuestBaseInterval
}

// StopPolling is the single teardown point for navigation away.
func (g *GuestSession) StopPolling() {
	g.poller.Stop()
}

func (g *GuestSession) currentToken() (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.token == "" {
		return "", ErrNotVerified
	}
	return g.token, nil
}

// handleAuthError clears the cached token on a 401 and asks the UI to
// re-prompt the PIN. This is the stale-token recovery path after a staff
// reset; retrying would loop forever on the dead credential. The poller
// is kicked, not stopped: a running loop notices the dead credential on
// its next run and winds itself down, and OnAuthRequired may restart it
// straight away after re-verifying.
func (g *GuestSession) handleAuthError(err error) {
	if !errors.Is(err, ErrUnauthorized) {
		return
	}

	g.mu.Lock()
	g.token = ""
	g.mu.Unlock()
	g.store.Delete(g.tableID)
	g.poller.Kick()

	if g.OnAuthRequired != nil {
		g.OnAuthRequired()
	}
}

func (g *GuestSession) refreshOrders(ctx context.Context) error {
	orders, err := g.Orders(ctx)
	if err != nil {
		if errors.Is(err, ErrNotVerified) || !IsRetryable(err) {
			// Dead credentials and rejected requests cannot heal on a
			// timer; the loop winds down until the guest re-verifies.
			return ErrStopPolling
		}
		// A transport failure is just a missed tick; the next scheduled
		// poll retries.
		return err
	}
	if g.OnOrders != nil {
		g.OnOrders(orders)
	}
	return nil
}
