package entitlement

import (
	"context"
	"sync"
	"time"

	session "github.com/goliatone/go-session"
)

const (
	ActivityEventPurchaseSuccess session.ActivityEventType = "entitlement.purchase.success"
	ActivityEventPurchaseFailure session.ActivityEventType = "entitlement.purchase.failure"
	ActivityEventRestoreSuccess  session.ActivityEventType = "entitlement.restore.success"
	ActivityEventRestoreFailure  session.ActivityEventType = "entitlement.restore.failure"
	ActivityEventRefreshFailure  session.ActivityEventType = "entitlement.refresh.failure"
	ActivityEventProductSelected session.ActivityEventType = "entitlement.product.selected"
)

// Snapshot is the read-only view of container state delivered to observers.
type Snapshot struct {
	Products          []Product
	Status            Status
	SelectedProductID string
	SelectedPeriod    Period
	IsLoading         bool
	LastError         string
}

// SelectedProduct returns the catalog entry matching the selection, if any.
func (s Snapshot) SelectedProduct() (Product, bool) {
	for _, p := range s.Products {
		if p.ID == s.SelectedProductID {
			return p, true
		}
	}
	return Product{}, false
}

// Observer receives a snapshot every time container state changes.
type Observer func(Snapshot)

// Container owns product and subscription state the way session.Container
// owns identity state: views observe snapshots, operations delegate to the
// injected Provider (or caller-supplied handlers) and fold failures into
// LastError through the shared translator.
type Container struct {
	provider        Provider
	translator      *session.Translator
	logger          session.Logger
	loggerProvider  session.LoggerProvider
	sink            session.ActivitySink
	now             func() time.Time
	singleFlight    bool
	purchaseHandler PurchaseHandler
	restoreHandler  RestoreHandler

	mu        sync.Mutex
	products  []Product
	status    Status
	selected  string
	period    Period
	loading   bool
	lastErr   string
	inFlight  bool
	observers map[int]Observer
	nextID    int
}

// Option customizes container construction.
type Option func(*Container)

// WithLogger overrides the container logger.
func WithLogger(logger session.Logger) Option {
	return func(c *Container) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithLoggerProvider routes container logging through a host logger factory.
func WithLoggerProvider(provider session.LoggerProvider) Option {
	return func(c *Container) {
		c.loggerProvider = provider
	}
}

// WithActivitySink configures an ActivitySink for tracking events.
func WithActivitySink(sink session.ActivitySink) Option {
	return func(c *Container) {
		c.sink = session.NormalizeActivitySink(sink)
	}
}

// WithClock injects a custom clock (useful for tests).
func WithClock(clock func() time.Time) Option {
	return func(c *Container) {
		if clock != nil {
			c.now = clock
		}
	}
}

// WithSingleFlight rejects a new purchase operation while one is in flight.
func WithSingleFlight() Option {
	return func(c *Container) {
		c.singleFlight = true
	}
}

// WithProducts seeds the catalog for hosts that configure offerings
// statically instead of fetching them from the store.
func WithProducts(products []Product) Option {
	return func(c *Container) {
		c.products = append([]Product(nil), products...)
	}
}

// WithPurchaseHandler installs a custom purchase flow that takes precedence
// over the provider.
func WithPurchaseHandler(handler PurchaseHandler) Option {
	return func(c *Container) {
		c.purchaseHandler = handler
	}
}

// WithRestoreHandler installs a custom restore flow that takes precedence
// over the provider.
func WithRestoreHandler(handler RestoreHandler) Option {
	return func(c *Container) {
		c.restoreHandler = handler
	}
}

// New builds a Container around its injected dependencies. The translator is
// mandatory; the provider may be nil when custom handlers (or a static
// catalog) cover everything the host needs.
func New(provider Provider, translator *session.Translator, opts ...Option) (*Container, error) {
	if translator == nil {
		return nil, ErrNotInitialized.Clone().WithMetadata(map[string]any{
			"dependency": "translator",
		})
	}

	c := &Container{
		provider:   provider,
		translator: translator,
		sink:       session.NormalizeActivitySink(nil),
		now:        time.Now,
		observers:  map[int]Observer{},
	}

	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}

	c.loggerProvider, c.logger = session.ResolveLogger("entitlement.container", c.loggerProvider, c.logger)

	return c, nil
}

// Subscribe registers an observer and immediately delivers the current
// snapshot. The returned function unsubscribes.
func (c *Container) Subscribe(obs Observer) func() {
	if obs == nil {
		return func() {}
	}

	c.mu.Lock()
	id := c.nextID
	c.nextID++
	c.observers[id] = obs
	snap := c.snapshotLocked()
	c.mu.Unlock()

	obs(snap)

	return func() {
		c.mu.Lock()
		delete(c.observers, id)
		c.mu.Unlock()
	}
}

// Snapshot returns a copy of the current state.
func (c *Container) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

// Status returns the current entitlement status.
func (c *Container) Status() Status {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.status
}

// LastError returns the current user-facing error message, or "".
func (c *Container) LastError() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastErr
}

// SelectedProductID returns the current selection, or "".
func (c *Container) SelectedProductID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.selected
}

// ClearError resets LastError. Idempotent, no side effects.
func (c *Container) ClearError() {
	c.mu.Lock()
	c.lastErr = ""
	obs, snap := c.pendingLocked()
	c.mu.Unlock()

	c.deliver(obs, snap)
}

// SelectProduct records the selection and clears LastError. The id is not
// checked against the catalog; an unknown id surfaces later, at purchase
// time, from the store.
func (c *Container) SelectProduct(id string) {
	c.mu.Lock()
	c.selected = id
	c.lastErr = ""
	obs, snap := c.pendingLocked()
	c.mu.Unlock()

	c.emit(context.Background(), session.ActivityEvent{
		EventType:     ActivityEventProductSelected,
		Action:        "select_product",
		TrackingLabel: id,
	})
	c.deliver(obs, snap)
}

// SetPeriod records the period filter and moves the selection to the first
// catalog entry with that period, in list order. With no match the selection
// is left unchanged.
func (c *Container) SetPeriod(period Period) {
	c.mu.Lock()
	c.period = period
	for _, p := range c.products {
		if p.Period == period {
			c.selected = p.ID
			break
		}
	}
	obs, snap := c.pendingLocked()
	c.mu.Unlock()

	c.deliver(obs, snap)
}

// Purchase buys the selected product. With no selection it fails
// synchronously with ErrNoProductSelected, contacting nothing. A custom
// purchase handler takes precedence over the provider; when the handler
// reports success without a status patch only IsSubscribed/CurrentTierID
// are updated and callers should follow with Refresh.
func (c *Container) Purchase(ctx context.Context) error {
	c.mu.Lock()
	selected := c.selected
	if selected == "" {
		err := ErrNoProductSelected.Clone()
		c.lastErr = c.translator.TranslateError(err)
		obs, snap := c.pendingLocked()
		c.mu.Unlock()

		c.emitFailure(ctx, "purchase", ActivityEventPurchaseFailure, err)
		c.deliver(obs, snap)
		return err
	}

	product := Product{ID: selected}
	for _, p := range c.products {
		if p.ID == selected {
			product = p
			break
		}
	}
	c.mu.Unlock()

	if c.purchaseHandler != nil {
		return c.purchaseViaHandler(ctx, product)
	}

	if c.provider == nil {
		err := ErrProviderNotConfigured.Clone().WithMetadata(map[string]any{
			"operation": "purchase",
		})
		c.recordFailure(ctx, "purchase", ActivityEventPurchaseFailure, err)
		return err
	}

	if err := c.begin(); err != nil {
		return err
	}

	status, err := c.provider.Purchase(ctx, selected)
	if err != nil {
		c.finishFailure(ctx, "purchase", ActivityEventPurchaseFailure, err)
		return err
	}

	c.mu.Lock()
	c.status = status
	c.loading = false
	c.inFlight = false
	c.lastErr = ""
	obs, snap := c.pendingLocked()
	c.mu.Unlock()

	c.emit(ctx, session.ActivityEvent{
		EventType:     ActivityEventPurchaseSuccess,
		Action:        "purchase",
		TrackingLabel: selected,
	})
	c.deliver(obs, snap)
	return nil
}

func (c *Container) purchaseViaHandler(ctx context.Context, product Product) error {
	if err := c.begin(); err != nil {
		return err
	}

	result, err := c.purchaseHandler(ctx, product)
	if err != nil {
		c.finishFailure(ctx, "purchase", ActivityEventPurchaseFailure, err)
		return err
	}

	c.mu.Lock()
	if result.Status != nil {
		c.status = *result.Status
	} else {
		c.status.IsSubscribed = true
		c.status.CurrentTierID = product.ID
	}
	c.loading = false
	c.inFlight = false
	c.lastErr = ""
	obs, snap := c.pendingLocked()
	c.mu.Unlock()

	c.emit(ctx, session.ActivityEvent{
		EventType:     ActivityEventPurchaseSuccess,
		Action:        "purchase",
		TrackingLabel: product.ID,
		Metadata:      map[string]any{"handler": "custom"},
	})
	c.deliver(obs, snap)
	return nil
}

// Restore replays prior transactions through the custom handler or the
// provider. It reports success without mutating Status; the provider is
// expected to push the resulting entitlement through a Refresh.
func (c *Container) Restore(ctx context.Context) (bool, error) {
	restore := c.restoreHandler
	if restore == nil {
		if c.provider == nil {
			err := ErrProviderNotConfigured.Clone().WithMetadata(map[string]any{
				"operation": "restore",
			})
			c.recordFailure(ctx, "restore", ActivityEventRestoreFailure, err)
			return false, err
		}
		restore = c.provider.RestorePurchases
	}

	if err := c.begin(); err != nil {
		return false, err
	}

	ok, err := restore(ctx)
	if err != nil {
		c.finishFailure(ctx, "restore", ActivityEventRestoreFailure, err)
		return false, err
	}

	c.mu.Lock()
	c.loading = false
	c.inFlight = false
	c.lastErr = ""
	obs, snap := c.pendingLocked()
	c.mu.Unlock()

	c.emit(ctx, session.ActivityEvent{
		EventType: ActivityEventRestoreSuccess,
		Action:    "restore",
		Metadata:  map[string]any{"restored": ok},
	})
	c.deliver(obs, snap)
	return ok, nil
}

// Refresh re-fetches the catalog and status from the provider. Without a
// provider it is a no-op.
func (c *Container) Refresh(ctx context.Context) error {
	if c.provider == nil {
		return nil
	}

	if err := c.begin(); err != nil {
		return err
	}

	products, err := c.provider.Products(ctx)
	if err != nil {
		c.finishFailure(ctx, "refresh", ActivityEventRefreshFailure, err)
		return err
	}

	status, err := c.provider.Status(ctx)
	if err != nil {
		c.finishFailure(ctx, "refresh", ActivityEventRefreshFailure, err)
		return err
	}

	c.mu.Lock()
	c.products = products
	c.status = status
	c.loading = false
	c.inFlight = false
	obs, snap := c.pendingLocked()
	c.mu.Unlock()

	c.deliver(obs, snap)
	return nil
}

func (c *Container) begin() error {
	c.mu.Lock()
	if c.singleFlight && c.inFlight {
		c.mu.Unlock()
		return ErrOperationInFlight.Clone()
	}
	c.inFlight = true
	c.loading = true
	obs, snap := c.pendingLocked()
	c.mu.Unlock()

	c.deliver(obs, snap)
	return nil
}

func (c *Container) finishFailure(ctx context.Context, op string, event session.ActivityEventType, err error) {
	c.mu.Lock()
	c.lastErr = c.translator.TranslateError(err)
	c.loading = false
	c.inFlight = false
	obs, snap := c.pendingLocked()
	c.mu.Unlock()

	c.logger.Error("%s failed: %v", op, err)
	c.emitFailure(ctx, op, event, err)
	c.deliver(obs, snap)
}

// recordFailure handles failures that never contact the provider: the only
// state mutation is LastError.
func (c *Container) recordFailure(ctx context.Context, op string, event session.ActivityEventType, err error) {
	c.mu.Lock()
	c.lastErr = c.translator.TranslateError(err)
	obs, snap := c.pendingLocked()
	c.mu.Unlock()

	c.logger.Error("%s failed: %v", op, err)
	c.emitFailure(ctx, op, event, err)
	c.deliver(obs, snap)
}

func (c *Container) emitFailure(ctx context.Context, op string, event session.ActivityEventType, err error) {
	meta := map[string]any{"error": err.Error()}
	if code := session.ProviderCode(err); code != "" {
		meta["code"] = code
	}
	c.emit(ctx, session.ActivityEvent{
		EventType: event,
		Action:    op,
		Metadata:  meta,
	})
}

func (c *Container) emit(ctx context.Context, event session.ActivityEvent) {
	event.OccurredAt = c.now()
	if err := c.sink.Record(ctx, event); err != nil {
		c.logger.Error("activity sink record failed for %s: %v", event.EventType, err)
	}
}

func (c *Container) snapshotLocked() Snapshot {
	return Snapshot{
		Products:          append([]Product(nil), c.products...),
		Status:            c.status,
		SelectedProductID: c.selected,
		SelectedPeriod:    c.period,
		IsLoading:         c.loading,
		LastError:         c.lastErr,
	}
}

func (c *Container) pendingLocked() ([]Observer, Snapshot) {
	obs := make([]Observer, 0, len(c.observers))
	for _, o := range c.observers {
		obs = append(obs, o)
	}
	return obs, c.snapshotLocked()
}

func (c *Container) deliver(obs []Observer, snap Snapshot) {
	for _, o := range obs {
		o(snap)
	}
}
