// internal/domain/cart/store.go
package cart

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

// Store mirrors one customer's remote cart in memory. Every mutation goes
// through the gateway; adds and updates change local state only after the
// backend confirms, removals and clears reload from the backend instead.
type Store struct {
	gateway  Gateway
	session  SessionProvider
	logger   logrus.FieldLogger
	defaults Defaults
	numbers  *OrderNumberGenerator
	recorder OrderRecorder
	clock    func() time.Time
	location *time.Location
	newID    func() string

	// opMu serializes mutations; mu guards the fields below it
	opMu sync.Mutex

	mu       sync.RWMutex
	lines    []Line
	loading  bool
	lastErr  error
	custCode string
	empCode  string
	checkout CheckoutStatus
}

// Option configures a Store
type Option func(*Store)

// WithLogger sets the store logger
func WithLogger(logger logrus.FieldLogger) Option {
	return func(s *Store) { s.logger = logger }
}

// WithDefaults sets the fulfillment defaults applied to lines
func WithDefaults(d Defaults) Option {
	return func(s *Store) { s.defaults = d }
}

// WithOrderNumbers sets the order number generator
func WithOrderNumbers(g *OrderNumberGenerator) Option {
	return func(s *Store) { s.numbers = g }
}

// WithOrderRecorder registers a recorder for checkout attempts
func WithOrderRecorder(r OrderRecorder) Option {
	return func(s *Store) { s.recorder = r }
}

// WithClock overrides the wall clock and the time zone orders are dated in
func WithClock(clock func() time.Time, loc *time.Location) Option {
	return func(s *Store) {
		s.clock = clock
		if loc != nil {
			s.location = loc
		}
	}
}

// WithIDGenerator overrides how local line ids are minted
func WithIDGenerator(newID func() string) Option {
	return func(s *Store) { s.newID = newID }
}

// NewStore creates a cart store. It does not load; call Load once the
// caller is ready to wait for the backend.
func NewStore(gateway Gateway, session SessionProvider, opts ...Option) *Store {
	s := &Store{
		gateway: gateway,
		session: session,
		logger:  logrus.StandardLogger(),
		defaults: Defaults{
			UnitCode:      "ชิ้น",
			WarehouseCode: "MMA01",
			ShelfCode:     "SH101",
		},
		clock:    time.Now,
		location: time.Local,
		newID:    func() string { return uuid.NewString() },
		checkout: CheckoutIdle,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.numbers == nil {
		s.numbers = NewOrderNumberGenerator("MQT", nil)
	}
	return s
}

// Snapshot returns a copy of the current lines
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	lines := make([]Line, len(s.lines))
	copy(lines, s.lines)
	return Snapshot{Lines: lines}
}

// Lines returns a copy of the current lines
func (s *Store) Lines() []Line {
	return s.Snapshot().Lines
}

// TotalQuantity is recomputed from the lines on every call
func (s *Store) TotalQuantity() int {
	return s.Snapshot().TotalQuantity()
}

// TotalAmount is recomputed from the lines on every call
func (s *Store) TotalAmount() decimal.Decimal {
	return s.Snapshot().TotalAmount()
}

// IsInCart reports whether any line carries itemCode
func (s *Store) IsInCart(itemCode string) bool {
	return s.Snapshot().Contains(itemCode)
}

// Loading reports whether an operation is in flight
func (s *Store) Loading() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loading
}

// Err returns the error of the last operation, nil if it succeeded
func (s *Store) Err() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastErr
}

// CustomerCode returns the cached customer code, empty until identified
func (s *Store) CustomerCode() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.custCode
}

// CheckoutStatus returns the state of the latest checkout attempt
func (s *Store) CheckoutStatus() CheckoutStatus {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.checkout
}

// Load replaces the lines with the backend's. It never returns an error;
// a failed fetch leaves the cart empty and Err reports why.
func (s *Store) Load(ctx context.Context) Snapshot {
	s.opMu.Lock()
	defer s.opMu.Unlock()

	s.begin()
	s.finish(s.load(ctx))
	return s.Snapshot()
}

// AddOrUpdate puts quantity of product in the cart. An existing line with
// the same item and unit has its quantity replaced, not increased.
func (s *Store) AddOrUpdate(ctx context.Context, product Product, quantity int) error {
	s.opMu.Lock()
	defer s.opMu.Unlock()

	s.begin()
	err := s.addOrUpdate(ctx, product, quantity)
	s.finish(err)
	return err
}

// UpdateQuantity sets the quantity of the referenced line. When nothing
// matches, fallback is sent as a new line through the same backend call.
func (s *Store) UpdateQuantity(ctx context.Context, ref LineRef, quantity int, fallback *Product) error {
	s.opMu.Lock()
	defer s.opMu.Unlock()

	s.begin()
	err := s.updateQuantity(ctx, ref, quantity, fallback)
	s.finish(err)
	return err
}

// Remove deletes the referenced line at the backend and reloads, whether
// or not the delete succeeded.
func (s *Store) Remove(ctx context.Context, ref LineRef) error {
	s.opMu.Lock()
	defer s.opMu.Unlock()

	s.begin()
	err := s.remove(ctx, ref)
	loadErr := s.load(ctx)
	s.finish(firstErr(err, loadErr))
	return err
}

// Clear empties the cart at the backend and reloads
func (s *Store) Clear(ctx context.Context) error {
	s.opMu.Lock()
	defer s.opMu.Unlock()

	s.begin()
	err := s.clear(ctx)
	s.finish(err)
	return err
}

// PricedLines fetches the backend's priced view of the cart without
// touching the local lines
func (s *Store) PricedLines(ctx context.Context) ([]Line, error) {
	custCode, err := s.identity(ctx)
	if err != nil {
		return nil, err
	}

	result, err := s.gateway.FetchCartOrder(ctx, custCode)
	if err != nil {
		return nil, s.transportFailure("fetch cart order", "unable to load cart prices", err)
	}
	if result == nil || !result.Success {
		return []Line{}, nil
	}

	lines, err := normalize(result.Data)
	if err != nil {
		return nil, &TransportError{Op: "fetch cart order", Message: "unable to load cart prices", Err: err}
	}
	return lines, nil
}

func (s *Store) begin() {
	s.mu.Lock()
	s.loading = true
	s.lastErr = nil
	s.mu.Unlock()
}

func (s *Store) finish(err error) {
	s.mu.Lock()
	s.loading = false
	s.lastErr = err
	s.mu.Unlock()
}

func (s *Store) setLines(lines []Line) {
	s.mu.Lock()
	s.lines = lines
	s.mu.Unlock()
}

// identity returns the cached customer code, reading the session once
func (s *Store) identity(ctx context.Context) (string, error) {
	s.mu.RLock()
	code := s.custCode
	s.mu.RUnlock()
	if code != "" {
		return code, nil
	}

	id, err := s.session.Identity(ctx)
	if err != nil {
		s.logger.WithError(err).Warn("Failed to read session")
		return "", ErrUserDataMissing
	}
	if id.CustomerCode == "" {
		return "", ErrUserDataMissing
	}

	s.mu.Lock()
	s.custCode = id.CustomerCode
	s.empCode = id.EmployeeCode
	s.mu.Unlock()

	return id.CustomerCode, nil
}

// employee returns the employee acting in ctx, falling back to the session's
func (s *Store) employee(ctx context.Context) string {
	if code, ok := EmployeeFrom(ctx); ok {
		return code
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.empCode
}

func (s *Store) load(ctx context.Context) error {
	custCode, err := s.identity(ctx)
	if err != nil {
		s.setLines([]Line{})
		return err
	}

	result, err := s.gateway.FetchItems(ctx, custCode)
	if err != nil {
		s.setLines([]Line{})
		return s.transportFailure("fetch items", "unable to load cart", err)
	}

	if result == nil || !result.Success {
		s.logger.WithField("cust_code", custCode).Debug("Backend returned no cart")
		s.setLines([]Line{})
		return nil
	}

	lines, err := normalize(result.Data)
	if err != nil {
		s.logger.WithError(err).WithField("cust_code", custCode).Error("Malformed cart from backend")
		s.setLines([]Line{})
		return &TransportError{Op: "fetch items", Message: "unable to load cart", Err: err}
	}

	s.setLines(lines)
	return nil
}

func (s *Store) addOrUpdate(ctx context.Context, product Product, quantity int) error {
	custCode, err := s.identity(ctx)
	if err != nil {
		return err
	}
	if product.ItemCode == "" {
		return &ValidationError{Field: "item_code", Message: "product item code is required"}
	}

	unitCode := orDefault(product.UnitCode, s.defaults.UnitCode)
	if idx := s.indexOf(product.ItemCode, unitCode); idx >= 0 {
		return s.updateAt(ctx, custCode, idx, quantity)
	}

	line := s.newLine(product, unitCode, quantity)
	remote := s.toRemote(ctx, line, custCode)

	ack, err := s.gateway.AddItems(ctx, []RemoteLine{remote})
	if err := s.confirm("add items", "unable to add item to cart", ack, err); err != nil {
		return err
	}

	line.ServerGUID = remote.GUIDCode
	s.appendLine(line)

	s.logger.WithFields(logrus.Fields{
		"cust_code": custCode,
		"item_code": line.ItemCode,
		"unit_code": line.UnitCode,
		"qty":       quantity,
	}).Debug("Item added to cart")
	return nil
}

func (s *Store) updateQuantity(ctx context.Context, ref LineRef, quantity int, fallback *Product) error {
	custCode, err := s.identity(ctx)
	if err != nil {
		return err
	}

	if idx := s.resolve(ref, true); idx >= 0 {
		return s.updateAt(ctx, custCode, idx, quantity)
	}

	if fallback == nil || fallback.ItemCode == "" {
		return ErrLineNotFound
	}

	unitCode := orDefault(fallback.UnitCode, s.defaults.UnitCode)
	if idx := s.indexOf(fallback.ItemCode, unitCode); idx >= 0 {
		return s.updateAt(ctx, custCode, idx, quantity)
	}

	line := s.newLine(*fallback, unitCode, quantity)
	remote := s.toRemote(ctx, line, custCode)

	ack, err := s.gateway.UpdateItems(ctx, []RemoteLine{remote})
	if err := s.confirm("update items", "unable to update cart item", ack, err); err != nil {
		return err
	}

	line.LocalID = remote.GUIDCode
	line.ServerGUID = remote.GUIDCode
	s.appendLine(line)
	return nil
}

// updateAt sends the line at idx with a new quantity and applies it on success
func (s *Store) updateAt(ctx context.Context, custCode string, idx, quantity int) error {
	s.mu.RLock()
	merged := s.lines[idx]
	s.mu.RUnlock()
	merged.Quantity = quantity

	ack, err := s.gateway.UpdateItems(ctx, []RemoteLine{s.toRemote(ctx, merged, custCode)})
	if err := s.confirm("update items", "unable to update cart item", ack, err); err != nil {
		return err
	}

	s.mu.Lock()
	s.lines[idx].Quantity = quantity
	s.mu.Unlock()

	s.logger.WithFields(logrus.Fields{
		"cust_code": custCode,
		"item_code": merged.ItemCode,
		"qty":       quantity,
	}).Debug("Cart item quantity updated")
	return nil
}

func (s *Store) remove(ctx context.Context, ref LineRef) error {
	custCode, err := s.identity(ctx)
	if err != nil {
		return err
	}

	idx := s.resolve(ref, false)
	if idx < 0 {
		return ErrLineNotFound
	}

	s.mu.RLock()
	guid := orDefault(s.lines[idx].ServerGUID, ref.ID)
	s.mu.RUnlock()

	ack, err := s.gateway.DeleteItem(ctx, guid, custCode)
	return s.confirm("delete item", "unable to remove item from cart", ack, err)
}

func (s *Store) clear(ctx context.Context) error {
	custCode, err := s.identity(ctx)
	if err != nil {
		s.reload(ctx)
		return err
	}

	s.mu.RLock()
	empty := len(s.lines) == 0
	s.mu.RUnlock()
	if empty {
		return nil
	}

	ack, err := s.gateway.DeleteAllItems(ctx, custCode)
	err = s.confirm("delete all items", "unable to clear cart", ack, err)
	s.reload(ctx)
	return err
}

// reload repairs local state after a destructive call; its own failure is
// logged, the caller reports the original outcome
func (s *Store) reload(ctx context.Context) {
	if err := s.load(ctx); err != nil {
		s.logger.WithError(err).Warn("Cart reload failed")
	}
}

// confirm turns a gateway reply into an error
func (s *Store) confirm(op, generic string, ack *Ack, err error) error {
	if err != nil {
		return s.transportFailure(op, generic, err)
	}
	if ack == nil || !ack.Success {
		msg := ack.Reason()
		if msg == "" {
			msg = generic
		}
		s.logger.WithFields(logrus.Fields{"op": op, "reason": msg}).Warn("Backend rejected cart operation")
		return &GatewayError{Op: op, Message: msg}
	}
	return nil
}

func (s *Store) transportFailure(op, generic string, err error) error {
	var transport *TransportError
	if errors.As(err, &transport) {
		return transport
	}
	s.logger.WithError(err).WithField("op", op).Error("Cart backend request failed")
	return &TransportError{Op: op, Message: generic, Err: err}
}

// resolve finds a line by server guid, then local id, then (optionally)
// item code and unit. Returns -1 when nothing matches.
func (s *Store) resolve(ref LineRef, byItemCode bool) int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if ref.ID != "" {
		for i, line := range s.lines {
			if line.ServerGUID == ref.ID {
				return i
			}
		}
		for i, line := range s.lines {
			if line.LocalID == ref.ID {
				return i
			}
		}
	}

	if byItemCode && ref.ItemCode != "" {
		for i, line := range s.lines {
			if line.ItemCode == ref.ItemCode && (ref.UnitCode == "" || line.UnitCode == ref.UnitCode) {
				return i
			}
		}
	}

	return -1
}

func (s *Store) indexOf(itemCode, unitCode string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for i, line := range s.lines {
		if line.ItemCode == itemCode && line.UnitCode == unitCode {
			return i
		}
	}
	return -1
}

func (s *Store) appendLine(line Line) {
	s.mu.Lock()
	s.lines = append(s.lines, line)
	s.mu.Unlock()
}

func (s *Store) newLine(p Product, unitCode string, quantity int) Line {
	localID := p.ID
	if localID == "" {
		localID = p.GUID
	}
	if localID == "" {
		localID = s.newID()
	}

	return Line{
		LocalID:       localID,
		ServerGUID:    p.GUID,
		ItemCode:      p.ItemCode,
		UnitCode:      unitCode,
		ItemName:      p.ItemName,
		Barcode:       p.Barcode,
		Quantity:      quantity,
		UnitPrice:     p.Price,
		WarehouseCode: orDefault(p.WarehouseCode, s.defaults.WarehouseCode),
		ShelfCode:     orDefault(p.ShelfCode, s.defaults.ShelfCode),
		Ratio:         orDefault(p.Ratio, DefaultRatio),
		StandardValue: orDefault(p.StandardValue, DefaultStandardValue),
		DivideValue:   orDefault(p.DivideValue, DefaultDivideValue),
	}
}

// toRemote formats a line for the backend, filling every default
func (s *Store) toRemote(ctx context.Context, line Line, custCode string) RemoteLine {
	empCode := s.employee(ctx)

	guid := line.ServerGUID
	if guid == "" {
		guid = line.LocalID
	}
	if guid == "" {
		guid = s.newID()
	}

	return RemoteLine{
		CreatorCode:    custCode,
		CustCode:       custCode,
		EmpCode:        empCode,
		GUIDCode:       guid,
		ItemCode:       line.ItemCode,
		ItemName:       line.ItemName,
		UnitCode:       orDefault(line.UnitCode, s.defaults.UnitCode),
		Barcode:        line.Barcode,
		Qty:            Numeric(strconv.Itoa(line.Quantity)),
		Price:          Numeric(line.UnitPrice.String()),
		WhCode:         orDefault(line.WarehouseCode, s.defaults.WarehouseCode),
		ShelfCode:      orDefault(line.ShelfCode, s.defaults.ShelfCode),
		Ratio:          Numeric(orDefault(line.Ratio, DefaultRatio)),
		StandValue:     Numeric(orDefault(line.StandardValue, DefaultStandardValue)),
		DivideValue:    Numeric(orDefault(line.DivideValue, DefaultDivideValue)),
		CreateDatetime: s.clock().UTC().Format("2006-01-02 15:04:05.000"),
	}
}

func normalize(remote []RemoteLine) ([]Line, error) {
	lines := make([]Line, 0, len(remote))
	for _, r := range remote {
		line, err := r.toLine()
		if err != nil {
			return nil, err
		}
		lines = append(lines, line)
	}
	return lines, nil
}

func firstErr(errs ...error) error {
	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}
