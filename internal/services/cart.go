package service

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/aaravmahajanofficial/storefront/internal/errors"
	"github.com/aaravmahajanofficial/storefront/internal/metrics"
	"github.com/aaravmahajanofficial/storefront/internal/models"
	"github.com/aaravmahajanofficial/storefront/internal/storage"
	"github.com/aaravmahajanofficial/storefront/internal/utils"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CartService owns the in-memory cart. The in-memory collection is
// authoritative; storage is updated write-behind, at most one debounce
// window after the last mutation. Mutations made within that window are
// lost if the process dies before the write lands.
type CartService interface {
	Load(ctx context.Context) error
	Add(req *models.AddItemRequest) (*models.LineItem, error)
	Remove(id string)
	UpdateQuantity(id string, quantity int)
	Clear(ctx context.Context) error
	Items() []models.LineItem
	TotalPrice() decimal.Decimal
	ItemCount() int
	Snapshot() *models.CartResponse
	Flush(ctx context.Context) error
	Close(ctx context.Context) error
}

type cartService struct {
	store     storage.Store
	validator *validator.Validate
	debounce  time.Duration
	logger    *slog.Logger

	// persistMu serialises storage writes and is always taken before mu.
	persistMu sync.Mutex

	mu     sync.Mutex
	items  []models.LineItem
	dirty  bool
	timer  *time.Timer
	closed bool
}

func NewCartService(store storage.Store, debounce time.Duration, logger *slog.Logger) CartService {

	if logger == nil {
		logger = slog.Default()
	}

	return &cartService{
		store:     store,
		validator: validator.New(),
		debounce:  debounce,
		logger:    logger.With(slog.String("component", "cart")),
		items:     []models.LineItem{},
	}
}

// Load replaces the in-memory cart with the persisted one.
func (s *cartService) Load(ctx context.Context) error {

	dbCtx, cancel := utils.WithDBTimeout(ctx)
	defer cancel()

	var items []models.LineItem

	found, err := s.store.Get(dbCtx, storage.CartItemsKey, &items)
	if err != nil {
		return errors.StorageError("Failed to load cart").WithError(err)
	}

	valid := make([]models.LineItem, 0, len(items))
	for _, item := range items {
		if item.Quantity >= 1 && item.ID != "" {
			valid = append(valid, item)
		}
	}

	s.mu.Lock()
	s.items = valid
	s.dirty = false
	s.mu.Unlock()

	s.logger.Debug("Cart loaded", slog.Bool("found", found), slog.Int("lines", len(valid)))

	return nil
}

// Add merges the quantity into the line holding the same product, size and
// color, or appends a new line.
func (s *cartService) Add(req *models.AddItemRequest) (*models.LineItem, error) {

	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err)
	}

	if req.UnitPrice.IsNegative() {
		return nil, errors.AddValidationError("price", "must not be negative")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.items {
		if s.items[i].Matches(req.ProductID, req.Size, req.Color) {
			s.items[i].Quantity += req.Quantity
			s.scheduleLocked()
			line := s.items[i]
			return &line, nil
		}
	}

	line := models.LineItem{
		ID:        uuid.NewString(),
		ProductID: req.ProductID,
		Name:      req.Name,
		Image:     req.Image,
		UnitPrice: req.UnitPrice,
		Size:      req.Size,
		Color:     req.Color,
		Quantity:  req.Quantity,
	}

	s.items = append(s.items, line)
	s.scheduleLocked()

	return &line, nil
}

// Remove is a no-op for unknown ids.
func (s *cartService) Remove(id string) {

	s.mu.Lock()
	defer s.mu.Unlock()

	s.removeLocked(id)
}

func (s *cartService) UpdateQuantity(id string, quantity int) {

	s.mu.Lock()
	defer s.mu.Unlock()

	if quantity <= 0 {
		s.removeLocked(id)
		return
	}

	for i := range s.items {
		if s.items[i].ID == id {
			s.items[i].Quantity = quantity
			s.scheduleLocked()
			return
		}
	}
}

// Clear empties the cart and deletes the persisted items right away. A
// pending write is dropped and a write already running finishes before the
// delete.
func (s *cartService) Clear(ctx context.Context) error {

	s.persistMu.Lock()
	defer s.persistMu.Unlock()

	s.mu.Lock()
	s.items = []models.LineItem{}
	s.dirty = false
	if s.timer != nil {
		s.timer.Stop()
	}
	s.mu.Unlock()

	dbCtx, cancel := utils.WithDBTimeout(ctx)
	defer cancel()

	if err := s.store.Delete(dbCtx, storage.CartItemsKey); err != nil {
		metrics.CartPersist(metrics.ResultFailure)
		return errors.StorageError("Failed to clear cart").WithError(err)
	}

	return nil
}

// ClearWithCoupon empties the cart and drops the applied coupon, which was
// validated against the old subtotal.
func ClearWithCoupon(ctx context.Context, cart CartService, coupons CouponService) error {

	if err := cart.Clear(ctx); err != nil {
		return err
	}

	return coupons.RemoveCoupon(ctx)
}

func (s *cartService) Items() []models.LineItem {

	s.mu.Lock()
	defer s.mu.Unlock()

	items := make([]models.LineItem, len(s.items))
	copy(items, s.items)

	return items
}

func (s *cartService) TotalPrice() decimal.Decimal {

	s.mu.Lock()
	defer s.mu.Unlock()

	return totalOf(s.items)
}

// ItemCount counts units, not lines.
func (s *cartService) ItemCount() int {

	s.mu.Lock()
	defer s.mu.Unlock()

	return countOf(s.items)
}

// Snapshot returns items and both aggregates from one consistent state.
func (s *cartService) Snapshot() *models.CartResponse {

	s.mu.Lock()
	defer s.mu.Unlock()

	items := make([]models.LineItem, len(s.items))
	copy(items, s.items)

	return &models.CartResponse{
		Items:      items,
		ItemCount:  countOf(items),
		TotalPrice: totalOf(items),
	}
}

// Flush writes a pending change now.
func (s *cartService) Flush(ctx context.Context) error {

	s.mu.Lock()
	if s.timer != nil {
		s.timer.Stop()
	}
	s.mu.Unlock()

	return s.persist(ctx)
}

// Close flushes and stops scheduling further writes.
func (s *cartService) Close(ctx context.Context) error {

	err := s.Flush(ctx)

	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()

	return err
}

func (s *cartService) removeLocked(id string) {

	for i := range s.items {
		if s.items[i].ID == id {
			s.items = append(s.items[:i], s.items[i+1:]...)
			s.scheduleLocked()
			return
		}
	}
}

// scheduleLocked marks the cart dirty and restarts the trailing timer.
func (s *cartService) scheduleLocked() {

	s.dirty = true

	if s.closed {
		return
	}

	if s.timer == nil {
		s.timer = time.AfterFunc(s.debounce, s.flushPending)
		return
	}

	s.timer.Reset(s.debounce)
}

func (s *cartService) flushPending() {

	if err := s.persist(context.Background()); err != nil {
		s.logger.Error("Failed to persist cart", slog.String("error", err.Error()))
	}
}

func (s *cartService) persist(ctx context.Context) error {

	s.persistMu.Lock()
	defer s.persistMu.Unlock()

	s.mu.Lock()
	if !s.dirty {
		s.mu.Unlock()
		return nil
	}

	snapshot := make([]models.LineItem, len(s.items))
	copy(snapshot, s.items)
	s.dirty = false
	s.mu.Unlock()

	dbCtx, cancel := utils.WithDBTimeout(ctx)
	defer cancel()

	if err := s.store.Set(dbCtx, storage.CartItemsKey, snapshot); err != nil {
		metrics.CartPersist(metrics.ResultFailure)

		// retried by the next mutation or flush
		s.mu.Lock()
		s.dirty = true
		s.mu.Unlock()

		return errors.StorageError("Failed to persist cart").WithError(err)
	}

	metrics.CartPersist(metrics.ResultSuccess)

	return nil
}

func totalOf(items []models.LineItem) decimal.Decimal {

	total := decimal.Zero
	for _, item := range items {
		total = total.Add(item.LineTotal())
	}

	return total
}

func countOf(items []models.LineItem) int {

	count := 0
	for _, item := range items {
		count += item.Quantity
	}

	return count
}
