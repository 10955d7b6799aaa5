package storage

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sol1corejz/marketcore/internal/models"
)

// Memory is an in-process Store with the same atomicity contract as the
// Postgres implementation: one mutex guards every read-validate-write cycle.
// Used by tests and by local runs without a database.
type Memory struct {
	mu      sync.Mutex
	users   map[uuid.UUID]models.User
	logins  map[string]uuid.UUID
	orders  map[uuid.UUID]models.Order
	offers  map[uuid.UUID]models.DeliveryOffer
	history []models.PointsHistoryEntry
	rewards map[uuid.UUID]models.SellerRewardsConfig
}

func NewMemory() *Memory {
	return &Memory{
		users:   make(map[uuid.UUID]models.User),
		logins:  make(map[string]uuid.UUID),
		orders:  make(map[uuid.UUID]models.Order),
		offers:  make(map[uuid.UUID]models.DeliveryOffer),
		rewards: make(map[uuid.UUID]models.SellerRewardsConfig),
	}
}

func (m *Memory) CreateUser(_ context.Context, user models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.logins[user.Login]; ok {
		return models.ErrDuplicateEntry
	}
	m.users[user.ID] = user
	m.logins[user.Login] = user.ID
	return nil
}

func (m *Memory) GetUserByLogin(_ context.Context, login string) (models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	id, ok := m.logins[login]
	if !ok {
		return models.User{}, models.ErrNotFound
	}
	return m.users[id], nil
}

func (m *Memory) balanceLocked(userID uuid.UUID) int64 {
	var balance int64
	for _, e := range m.history {
		if e.UserID == userID {
			balance += e.PointsEarned - e.PointsSpent
		}
	}
	return balance
}

func (m *Memory) earningExistsLocked(orderID uuid.NullUUID) bool {
	if !orderID.Valid {
		return false
	}
	for _, e := range m.history {
		if e.PointsEarned > 0 && e.OrderID.Valid && e.OrderID.UUID == orderID.UUID {
			return true
		}
	}
	return false
}

func (m *Memory) CreateOrder(_ context.Context, order models.Order, spend *models.PointsHistoryEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if spend != nil {
		if m.balanceLocked(spend.UserID) < spend.PointsSpent {
			return models.ErrInsufficientBalance
		}
	}
	m.orders[order.ID] = order
	if spend != nil {
		m.history = append(m.history, *spend)
	}
	return nil
}

func (m *Memory) GetOrder(_ context.Context, id uuid.UUID) (models.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	order, ok := m.orders[id]
	if !ok {
		return models.Order{}, models.ErrNotFound
	}
	return order, nil
}

func (m *Memory) UpdateOrderStatus(_ context.Context, id uuid.UUID, from, to models.OrderStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	order, ok := m.orders[id]
	if !ok || order.Status != from {
		return models.ErrInvalidTransition
	}
	order.Status = to
	m.orders[id] = order
	return nil
}

func (m *Memory) UpdatePaymentStatus(_ context.Context, id uuid.UUID, from, to models.PaymentStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	order, ok := m.orders[id]
	if !ok || order.PaymentStatus != from {
		return models.ErrInvalidTransition
	}
	order.PaymentStatus = to
	m.orders[id] = order
	return nil
}

func (m *Memory) CompleteOrder(_ context.Context, id uuid.UUID, points int64, earn *models.PointsHistoryEntry) (int64, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	order, ok := m.orders[id]
	if !ok {
		return 0, false, models.ErrNotFound
	}
	if order.Status == models.OrderCompleted {
		return order.PointsAwarded.Int64, false, nil
	}
	if order.Status != models.OrderDelivered {
		return 0, false, models.ErrInvalidTransition
	}

	order.Status = models.OrderCompleted
	if !order.PointsAwarded.Valid {
		order.PointsAwarded.Int64 = points
		order.PointsAwarded.Valid = true
	}
	if order.PaymentMethod == models.PaymentCash && order.PaymentStatus != models.PaymentConfirmed {
		order.PaymentStatus = models.PaymentConfirmed
	}
	m.orders[id] = order

	if earn != nil && !m.earningExistsLocked(earn.OrderID) {
		m.history = append(m.history, *earn)
	}

	return points, true, nil
}

func (m *Memory) ExpiredUnpaidOrders(_ context.Context, cutoff time.Time) ([]models.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var orders []models.Order
	for _, order := range m.orders {
		if (order.Status == models.OrderPending || order.Status == models.OrderSellerConfirmed) &&
			order.PaymentStatus != models.PaymentConfirmed &&
			order.ExpiresAt.Valid && order.ExpiresAt.Time.Before(cutoff) {
			orders = append(orders, order)
		}
	}
	return orders, nil
}

func (m *Memory) activeOfferLocked(orderID uuid.UUID, except uuid.UUID) bool {
	for _, o := range m.offers {
		if o.OrderID == orderID && o.ID != except && o.Status.Active() {
			return true
		}
	}
	return false
}

func (m *Memory) CreateOffer(_ context.Context, offer models.DeliveryOffer) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.activeOfferLocked(offer.OrderID, uuid.Nil) {
		return models.ErrConflictingOffer
	}
	m.offers[offer.ID] = offer
	return nil
}

func (m *Memory) GetOffer(_ context.Context, id uuid.UUID) (models.DeliveryOffer, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	offer, ok := m.offers[id]
	if !ok {
		return models.DeliveryOffer{}, models.ErrNotFound
	}
	return offer, nil
}

func (m *Memory) AcceptOffer(_ context.Context, offerID, courierID uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	offer, ok := m.offers[offerID]
	if !ok {
		return models.ErrNotFound
	}
	if offer.Status != models.OfferPending {
		return models.ErrInvalidTransition
	}
	if m.activeOfferLocked(offer.OrderID, offerID) {
		return models.ErrConflictingOffer
	}

	offer.Status = models.OfferAccepted
	offer.CourierID = uuid.NullUUID{UUID: courierID, Valid: true}
	m.offers[offerID] = offer

	if order, ok := m.orders[offer.OrderID]; ok && !order.CourierID.Valid {
		order.CourierID = uuid.NullUUID{UUID: courierID, Valid: true}
		m.orders[order.ID] = order
	}
	return nil
}

func (m *Memory) UpdateOfferStatus(_ context.Context, id uuid.UUID, from, to models.OfferStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	offer, ok := m.offers[id]
	if !ok || offer.Status != from {
		return models.ErrInvalidTransition
	}
	offer.Status = to
	m.offers[id] = offer
	return nil
}

func (m *Memory) OrphanedPendingOffers(_ context.Context) ([]models.DeliveryOffer, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var offers []models.DeliveryOffer
	for _, offer := range m.offers {
		if offer.Status != models.OfferPending {
			continue
		}
		order, ok := m.orders[offer.OrderID]
		orphaned := ok && (order.Status == models.OrderDelivered || order.Status.Terminal())
		if orphaned || m.activeOfferLocked(offer.OrderID, offer.ID) {
			offers = append(offers, offer)
		}
	}
	return offers, nil
}

func (m *Memory) AvailableBalance(_ context.Context, userID uuid.UUID) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.balanceLocked(userID), nil
}

func (m *Memory) AppendEarning(_ context.Context, entry models.PointsHistoryEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.earningExistsLocked(entry.OrderID) {
		return models.ErrDuplicateEntry
	}
	m.history = append(m.history, entry)
	return nil
}

func (m *Memory) AppendSpending(_ context.Context, entry models.PointsHistoryEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.balanceLocked(entry.UserID) < entry.PointsSpent {
		return models.ErrInsufficientBalance
	}
	m.history = append(m.history, entry)
	return nil
}

func (m *Memory) UserHistory(_ context.Context, userID uuid.UUID) ([]models.PointsHistoryEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var entries []models.PointsHistoryEntry
	for _, e := range m.history {
		if e.UserID == userID {
			entries = append(entries, e)
		}
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].CreatedAt.Before(entries[j].CreatedAt) })
	return entries, nil
}

func (m *Memory) NegativeBalances(_ context.Context) ([]uuid.UUID, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	balances := make(map[uuid.UUID]int64)
	for _, e := range m.history {
		balances[e.UserID] += e.PointsEarned - e.PointsSpent
	}
	var users []uuid.UUID
	for id, balance := range balances {
		if balance < 0 {
			users = append(users, id)
		}
	}
	return users, nil
}

func (m *Memory) GetRewardsConfig(_ context.Context, sellerID uuid.UUID) (models.SellerRewardsConfig, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cfg, ok := m.rewards[sellerID]
	if !ok {
		return models.SellerRewardsConfig{}, models.ErrConfigUnavailable
	}
	return cfg, nil
}

func (m *Memory) UpsertRewardsConfig(_ context.Context, cfg models.SellerRewardsConfig) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rewards[cfg.SellerID] = cfg
	return nil
}
