package client

import (
	"context"
	"errors"
	"net/url"
	"strconv"
	"sync"
	"time"
)

// StaffBoardInterval is the order board cadence while the tab is focused.
const StaffBoardInterval = 5 * time.Second

// BoardFilter narrows the staff order board.
type BoardFilter struct {
	TableID uint
	State   string
}

// StaffBoard is the operator client's context: the shared secret lives
// here in memory only, and the board poller runs solely while the orders
// view has focus.
type StaffBoard struct {
	api    *API
	poller *Poller

	mu     sync.Mutex
	filter BoardFilter

	// OnOrders receives every full-state board refresh.
	OnOrders func([]Order)
	// OnAuthRequired fires when the server rejects the operator secret;
	// the UI must re-prompt for it.
	OnAuthRequired func()
}

func NewStaffBoard(api *API) *StaffBoard {
	b := &StaffBoard{api: api}
	b.poller = NewPoller(b.refreshOrders)
	return b
}

// SetSecret stores the operator secret for subsequent calls. Kept in
// memory only, never persisted.
func (b *StaffBoard) SetSecret(secret string) {
	b.api.SetStaffSecret(secret)
}

// SetFilter changes the board query and refreshes immediately.
func (b *StaffBoard) SetFilter(filter BoardFilter) {
	b.mu.Lock()
	b.filter = filter
	b.mu.Unlock()
	b.poller.Kick()
}

// Focus starts the board poll; Blur stops it so a backgrounded tab stops
// generating load.
func (b *StaffBoard) Focus() {
	b.poller.Start(StaffBoardInterval)
}

func (b *StaffBoard) Blur() {
	b.poller.Stop()
}

// Orders fetches the board with the given filter.
func (b *StaffBoard) Orders(ctx context.Context, filter BoardFilter) ([]Order, error) {
	query := url.Values{}
	if filter.TableID != 0 {
		query.Set("table_id", itoa(filter.TableID))
	}
	if filter.State != "" {
		query.Set("state", filter.State)
	}

	var out struct {
		Orders []Order `json:"orders"`
	}
	if err := b.api.Get(ctx, "/orders", query, &out); err != nil {
		b.handleAuthError(err)
		return nil, err
	}
	return out.Orders, nil
}

// Transition moves an order along the state machine, then kicks an
// immediate re-fetch so the actor sees their own change without waiting
// for the next tick.
func (b *StaffBoard) Transition(ctx context.Context, orderID uint, state string) error {
	err := b.api.Patch(ctx, "/orders/"+itoa(orderID), map[string]string{"state": state}, nil)
	if err != nil {
		b.handleAuthError(err)
		return err
	}
	b.poller.Kick()
	return nil
}

// Tables fetches the table cards with their active sessions.
func (b *StaffBoard) Tables(ctx context.Context) ([]TableView, error) {
	var out struct {
		Tables []TableView `json:"tables"`
	}
	if err := b.api.Get(ctx, "/tables", nil, &out); err != nil {
		b.handleAuthError(err)
		return nil, err
	}
	return out.Tables, nil
}

// OpenSession opens a table and returns the new PIN.
func (b *StaffBoard) OpenSession(ctx context.Context, tableID uint) (string, error) {
	return b.sessionCall(ctx, "/session/open", tableID)
}

// CloseSession closes a table's session, invalidating its tokens.
func (b *StaffBoard) CloseSession(ctx context.Context, tableID uint) error {
	err := b.api.Post(ctx, "/session/close", map[string]interface{}{"table_id": tableID}, nil)
	b.handleAuthError(err)
	return err
}

// ResetSession rotates a table's PIN and token in one server call.
func (b *StaffBoard) ResetSession(ctx context.Context, tableID uint) (string, error) {
	return b.sessionCall(ctx, "/session/reset", tableID)
}

func (b *StaffBoard) sessionCall(ctx context.Context, path string, tableID uint) (string, error) {
	var out struct {
		PIN string `json:"pin"`
	}
	err := b.api.Post(ctx, path, map[string]interface{}{"table_id": tableID}, &out)
	if err != nil {
		b.handleAuthError(err)
		return "", err
	}
	return out.PIN, nil
}

// handleAuthError discards a rejected secret and asks the UI to
// re-prompt. The poller is kicked, not stopped: a running loop notices
// the missing secret on its next run and winds itself down, and
// OnAuthRequired may re-arm and refocus immediately.
func (b *StaffBoard) handleAuthError(err error) {
	if !errors.Is(err, ErrUnauthorized) {
		return
	}

	hadSecret := b.api.StaffSecret() != ""
	b.api.SetStaffSecret("")
	b.poller.Kick()

	if hadSecret && b.OnAuthRequired != nil {
		b.OnAuthRequired()
	}
}

func (b *StaffBoard) refreshOrders(ctx context.Context) error {
	b.mu.Lock()
	filter := b.filter
	b.mu.Unlock()

	orders, err := b.Orders(ctx, filter)
	if err != nil {
		if !IsRetryable(err) {
			// A discarded secret or a rejected request cannot heal on a
			// timer; the loop winds down until the operator re-arms.
			return ErrStopPolling
		}
		return err
	}
	if b.OnOrders != nil {
		b.OnOrders(orders)
	}
	return nil
}

func itoa(v uint) string {
	return strconv.FormatUint(uint64(v), 10)
}
