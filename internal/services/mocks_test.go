package services

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/shillmonger/Shopdotfun-sub001/internal/model"
	"github.com/shillmonger/Shopdotfun-sub001/internal/repository"
)

// In-memory fakes mirroring the conditional-write semantics of the real
// repositories: mutating methods apply their guards before touching state
// and report false when a guard does not hold.

// =============================================================================
// Payment store
// =============================================================================

type mockPaymentStore struct {
	payments map[string]*model.Payment
}

func newMockPaymentStore() *mockPaymentStore {
	return &mockPaymentStore{payments: map[string]*model.Payment{}}
}

func (m *mockPaymentStore) Create(_ context.Context, p *model.Payment) error {
	cp := *p
	m.payments[p.PaymentID] = &cp
	return nil
}

func (m *mockPaymentStore) GetByID(_ context.Context, id string) (*model.Payment, error) {
	p, ok := m.payments[id]
	if !ok {
		return nil, nil
	}
	cp := *p
	return &cp, nil
}

func (m *mockPaymentStore) ListByStatus(_ context.Context, status string) ([]model.Payment, error) {
	var out []model.Payment
	for _, p := range m.payments {
		if p.Status == status {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (m *mockPaymentStore) Finalize(_ context.Context, id, status string) (bool, error) {
	p, ok := m.payments[id]
	if !ok || p.Status != model.PaymentPending {
		return false, nil
	}
	p.Status = status
	p.UpdatedAt = time.Now()
	return true, nil
}

// =============================================================================
// Order store
// =============================================================================

type mockOrderStore struct {
	orders      map[string]*model.Order
	failCreate  map[string]bool // product codes whose insert fails
	createCalls int
}

func newMockOrderStore() *mockOrderStore {
	return &mockOrderStore{
		orders:     map[string]*model.Order{},
		failCreate: map[string]bool{},
	}
}

func (m *mockOrderStore) Create(_ context.Context, o *model.Order) error {
	m.createCalls++
	if m.failCreate[o.ProductCode] {
		return errors.New("insert failed")
	}
	if _, ok := m.orders[o.OrderID]; ok {
		return repository.ErrOrderIDCollision
	}
	for _, prev := range m.orders {
		if prev.PaymentID == o.PaymentID && prev.ProductCode == o.ProductCode {
			return repository.ErrDuplicateOrder
		}
	}
	cp := *o
	m.orders[o.OrderID] = &cp
	return nil
}

func (m *mockOrderStore) GetByID(_ context.Context, id string) (*model.Order, error) {
	o, ok := m.orders[id]
	if !ok {
		return nil, nil
	}
	cp := *o
	return &cp, nil
}

func (m *mockOrderStore) listWhere(match func(*model.Order) bool) []model.Order {
	var out []model.Order
	for _, o := range m.orders {
		if match(o) {
			out = append(out, *o)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].OrderID < out[j].OrderID })
	return out
}

func (m *mockOrderStore) ListByPayment(_ context.Context, paymentID string) ([]model.Order, error) {
	return m.listWhere(func(o *model.Order) bool { return o.PaymentID == paymentID }), nil
}

func (m *mockOrderStore) ListBySeller(_ context.Context, email string) ([]model.Order, error) {
	return m.listWhere(func(o *model.Order) bool { return o.SellerInfo.Email == email }), nil
}

func (m *mockOrderStore) ListByBuyer(_ context.Context, email string) ([]model.Order, error) {
	return m.listWhere(func(o *model.Order) bool { return o.BuyerInfo.Email == email }), nil
}

func (m *mockOrderStore) MarkShipped(_ context.Context, orderID, sellerEmail string) (bool, error) {
	o, ok := m.orders[orderID]
	if !ok || o.SellerInfo.Email != sellerEmail ||
		o.Status.Shipping != model.ShippingPending ||
		o.Status.AdminAction != model.AdminActionNone {
		return false, nil
	}
	now := time.Now()
	o.Status.Shipping = model.ShippingShipped
	o.ShippedAt = &now
	return true, nil
}

func (m *mockOrderStore) ConfirmReceived(_ context.Context, orderID, buyerEmail string) (bool, error) {
	o, ok := m.orders[orderID]
	if !ok || o.BuyerInfo.Email != buyerEmail ||
		o.Status.Shipping != model.ShippingShipped ||
		o.Status.BuyerAction != model.BuyerActionNone ||
		o.Status.AdminAction != model.AdminActionNone {
		return false, nil
	}
	o.Status.Shipping = model.ShippingReceived
	o.Status.BuyerAction = model.BuyerActionConfirmed
	return true, nil
}

func (m *mockOrderStore) AutoConfirm(_ context.Context, cutoff time.Time) (int64, error) {
	var n int64
	for _, o := range m.orders {
		if o.Status.Shipping == model.ShippingShipped &&
			o.Status.BuyerAction == model.BuyerActionNone &&
			o.Status.AdminAction == model.AdminActionNone &&
			o.ShippedAt != nil && !o.ShippedAt.After(cutoff) {
			o.Status.Shipping = model.ShippingReceived
			n++
		}
	}
	return n, nil
}

func (m *mockOrderStore) FileDispute(_ context.Context, orderID, buyerEmail string, d *model.Dispute) (bool, error) {
	o, ok := m.orders[orderID]
	if !ok || o.BuyerInfo.Email != buyerEmail ||
		o.Status.BuyerAction == model.BuyerActionDisputed ||
		o.Status.AdminAction != model.AdminActionNone {
		return false, nil
	}
	o.Status.BuyerAction = model.BuyerActionDisputed
	o.Dispute = d
	return true, nil
}

func (m *mockOrderStore) Resolve(_ context.Context, orderID, adminAction, paymentStatus string, d *model.Dispute) (bool, error) {
	o, ok := m.orders[orderID]
	if !ok || o.Status.AdminAction != model.AdminActionNone {
		return false, nil
	}
	o.Status.AdminAction = adminAction
	if paymentStatus != "" {
		o.Status.Payment = paymentStatus
	}
	o.Dispute = d
	return true, nil
}

func (m *mockOrderStore) SetPaymentStatus(_ context.Context, orderID, from, to string) (bool, error) {
	o, ok := m.orders[orderID]
	if !ok || o.Status.Payment != from {
		return false, nil
	}
	o.Status.Payment = to
	return true, nil
}

// =============================================================================
// Buyer store
// =============================================================================

type mockBuyerStore struct {
	buyers     map[string]*model.Buyer
	history    map[string][]model.BuyerPaymentEntry
	failCredit bool
}

func newMockBuyerStore() *mockBuyerStore {
	return &mockBuyerStore{
		buyers:  map[string]*model.Buyer{},
		history: map[string][]model.BuyerPaymentEntry{},
	}
}

func (m *mockBuyerStore) GetByEmail(_ context.Context, email string) (*model.Buyer, error) {
	b, ok := m.buyers[email]
	if !ok {
		return nil, nil
	}
	cp := *b
	return &cp, nil
}

func (m *mockBuyerStore) CreditPayment(_ context.Context, email string, e model.BuyerPaymentEntry) (bool, error) {
	if m.failCredit {
		return false, errors.New("credit failed")
	}
	for _, prev := range m.history[email] {
		if prev.PaymentID == e.PaymentID {
			return false, nil
		}
	}
	m.history[email] = append(m.history[email], e)
	if b, ok := m.buyers[email]; ok {
		b.Balance += e.AmountPaid
	}
	return true, nil
}

func (m *mockBuyerStore) History(_ context.Context, email string) ([]model.BuyerPaymentEntry, error) {
	return m.history[email], nil
}

// =============================================================================
// Seller store
// =============================================================================

type mockSellerStore struct {
	sellers map[string]*model.Seller
	entries map[string]*model.PayoutEntry
	orders  *mockOrderStore // for the eligibility join
}

func newMockSellerStore(orders *mockOrderStore) *mockSellerStore {
	return &mockSellerStore{
		sellers: map[string]*model.Seller{},
		entries: map[string]*model.PayoutEntry{},
		orders:  orders,
	}
}

func (m *mockSellerStore) GetByEmail(_ context.Context, email string) (*model.Seller, error) {
	s, ok := m.sellers[email]
	if !ok {
		return nil, nil
	}
	cp := *s
	return &cp, nil
}

func (m *mockSellerStore) CreatePayoutEntry(_ context.Context, e *model.PayoutEntry) error {
	for _, prev := range m.entries {
		if prev.SellerEmail == e.SellerEmail && prev.OrderID == e.OrderID {
			return nil
		}
	}
	cp := *e
	m.entries[e.EntryID] = &cp
	return nil
}

func (m *mockSellerStore) GetEntry(_ context.Context, entryID string) (*model.PayoutEntry, error) {
	e, ok := m.entries[entryID]
	if !ok {
		return nil, nil
	}
	cp := *e
	return &cp, nil
}

func (m *mockSellerStore) GetEntryByOrder(_ context.Context, sellerEmail, orderID string) (*model.PayoutEntry, error) {
	for _, e := range m.entries {
		if e.SellerEmail == sellerEmail && e.OrderID == orderID {
			cp := *e
			return &cp, nil
		}
	}
	return nil, nil
}

func (m *mockSellerStore) ListEntries(_ context.Context, sellerEmail string) ([]model.PayoutEntry, error) {
	var out []model.PayoutEntry
	for _, e := range m.entries {
		if e.SellerEmail == sellerEmail {
			out = append(out, *e)
		}
	}
	return out, nil
}

func (m *mockSellerStore) RequestPayout(_ context.Context, sellerEmail, orderID string) (bool, error) {
	o := m.orders.orders[orderID]
	if o == nil || o.Status.Payment != model.OrderPaymentPaid {
		return false, nil
	}
	eligible := o.Status.AdminAction == model.AdminActionReleased ||
		o.Status.AdminAction == model.AdminActionSplit ||
		(o.Status.AdminAction == model.AdminActionNone && o.Status.BuyerAction != model.BuyerActionDisputed)
	if !eligible {
		return false, nil
	}
	for _, e := range m.entries {
		if e.SellerEmail == sellerEmail && e.OrderID == orderID && e.PayoutStatus == model.PayoutPending {
			e.PayoutStatus = model.PayoutRequested
			return true, nil
		}
	}
	return false, nil
}

func (m *mockSellerStore) MarkPaid(_ context.Context, entryID string) (bool, error) {
	e, ok := m.entries[entryID]
	if !ok || e.PayoutStatus != model.PayoutRequested {
		return false, nil
	}
	o := m.orders.orders[e.OrderID]
	if o == nil || o.Status.AdminAction == model.AdminActionRefunded ||
		o.Status.Payment == model.OrderPaymentRefunded ||
		o.Status.Payment == model.OrderPaymentRefundRequested {
		return false, nil
	}
	e.PayoutStatus = model.PayoutPaid
	return true, nil
}

func (m *mockSellerStore) UpdateEntryAmounts(_ context.Context, sellerEmail, orderID string, gross, commission, net float64) (bool, error) {
	for _, e := range m.entries {
		if e.SellerEmail == sellerEmail && e.OrderID == orderID && e.PayoutStatus == model.PayoutPending {
			e.GrossAmount = gross
			e.Commission = commission
			e.NetAmount = net
			return true, nil
		}
	}
	return false, nil
}

// =============================================================================
// Notifier and refund gateway
// =============================================================================

type sentNotification struct {
	Recipient string
	Type      string
	OrderID   string
}

type mockNotifier struct {
	sent []sentNotification
}

func (m *mockNotifier) Notify(_ context.Context, recipient, _, _, ntype, orderID string) {
	m.sent = append(m.sent, sentNotification{Recipient: recipient, Type: ntype, OrderID: orderID})
}

func (m *mockNotifier) sentTo(recipient, ntype string) int {
	n := 0
	for _, s := range m.sent {
		if s.Recipient == recipient && s.Type == ntype {
			n++
		}
	}
	return n
}

type mockGateway struct {
	fail    bool
	amounts []float64
}

func (m *mockGateway) RequestReversal(_ context.Context, _, _ string, amount float64) error {
	if m.fail {
		return errors.New("rail unavailable")
	}
	m.amounts = append(m.amounts, amount)
	return nil
}
