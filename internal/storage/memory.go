package storage

import (
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/addisride/addisride-backend/internal/models"
	"github.com/addisride/addisride-backend/internal/phone"
)

// MemoryStore holds all data in memory. Used by tests and by local
// development when USE_MEMORY_STORE=true; it mirrors the GORM hooks
// (ID assignment, timestamps, phone normalization) so the services behave
// identically on both backends.
type MemoryStore struct {
	passengers map[uint]*models.Passenger
	drivers    map[uint]*models.Driver
	otps       map[uint]*models.OTP
	policies   map[uint]*models.PricingPolicy
	bookings   map[string]*models.Booking
	tokens     map[uint]*models.RefreshToken
	disputes   map[uint]*models.Dispute
	replies    map[uint]*models.DisputeReply

	passengerMu sync.RWMutex
	driverMu    sync.RWMutex
	otpMu       sync.RWMutex
	policyMu    sync.RWMutex
	bookingMu   sync.RWMutex
	tokenMu     sync.RWMutex
	disputeMu   sync.RWMutex

	passengerCounter uint
	driverCounter    uint
	otpCounter       uint
	policyCounter    uint
	tokenCounter     uint
	disputeCounter   uint
	replyCounter     uint
}

// NewMemoryStore creates a new in-memory storage.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		passengers: make(map[uint]*models.Passenger),
		drivers:    make(map[uint]*models.Driver),
		otps:       make(map[uint]*models.OTP),
		policies:   make(map[uint]*models.PricingPolicy),
		bookings:   make(map[string]*models.Booking),
		tokens:     make(map[uint]*models.RefreshToken),
		disputes:   make(map[uint]*models.Dispute),
		replies:    make(map[uint]*models.DisputeReply),
	}
}

// Passenger operations

func (m *MemoryStore) CreatePassenger(p *models.Passenger) (*models.Passenger, error) {
	m.passengerMu.Lock()
	defer m.passengerMu.Unlock()

	m.passengerCounter++
	p.ID = m.passengerCounter
	p.Phone = phone.Normalize(p.Phone)
	if p.Rating == 0 {
		p.Rating = 5.0
	}
	p.CreatedAt = time.Now()
	p.UpdatedAt = time.Now()

	stored := *p
	m.passengers[p.ID] = &stored
	return p, nil
}

func (m *MemoryStore) GetPassenger(id uint) (*models.Passenger, error) {
	m.passengerMu.RLock()
	defer m.passengerMu.RUnlock()

	p, ok := m.passengers[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (m *MemoryStore) GetPassengerByPhone(phoneNumber string) (*models.Passenger, error) {
	m.passengerMu.RLock()
	defer m.passengerMu.RUnlock()

	for _, p := range m.passengers {
		if p.Phone == phoneNumber {
			cp := *p
			return &cp, nil
		}
	}
	return nil, ErrNotFound
}

func (m *MemoryStore) UpdatePassenger(p *models.Passenger) error {
	m.passengerMu.Lock()
	defer m.passengerMu.Unlock()

	if _, ok := m.passengers[p.ID]; !ok {
		return ErrNotFound
	}
	p.UpdatedAt = time.Now()
	stored := *p
	m.passengers[p.ID] = &stored
	return nil
}

// Driver operations

func (m *MemoryStore) CreateDriver(d *models.Driver) (*models.Driver, error) {
	m.driverMu.Lock()
	defer m.driverMu.Unlock()

	m.driverCounter++
	d.ID = m.driverCounter
	d.Phone = phone.Normalize(d.Phone)
	if d.Status == "" {
		d.Status = models.StatusPending
	}
	if d.DriverStatus == "" {
		d.DriverStatus = models.DriverStatusActive
	}
	if d.Rating == 0 {
		d.Rating = 5.0
	}
	d.CreatedAt = time.Now()
	d.UpdatedAt = time.Now()

	stored := *d
	m.drivers[d.ID] = &stored
	return d, nil
}

func (m *MemoryStore) GetDriver(id uint) (*models.Driver, error) {
	m.driverMu.RLock()
	defer m.driverMu.RUnlock()

	d, ok := m.drivers[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *d
	return &cp, nil
}

func (m *MemoryStore) GetDriverByPhone(phoneNumber string) (*models.Driver, error) {
	m.driverMu.RLock()
	defer m.driverMu.RUnlock()

	for _, d := range m.drivers {
		if d.Phone == phoneNumber {
			cp := *d
			return &cp, nil
		}
	}
	return nil, ErrNotFound
}

func (m *MemoryStore) UpdateDriver(d *models.Driver) error {
	m.driverMu.Lock()
	defer m.driverMu.Unlock()

	if _, ok := m.drivers[d.ID]; !ok {
		return ErrNotFound
	}
	d.UpdatedAt = time.Now()
	stored := *d
	m.drivers[d.ID] = &stored
	return nil
}

func (m *MemoryStore) GetDriversPendingDocuments() ([]*models.Driver, error) {
	m.driverMu.RLock()
	defer m.driverMu.RUnlock()

	var out []*models.Driver
	for _, d := range m.drivers {
		if d.Status == models.StatusPending || d.DocumentStatus == models.DocumentStatusPending || d.DocumentStatus == "" {
			cp := *d
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *MemoryStore) GetDriversWithInsuranceExpiring(before time.Time) ([]*models.Driver, error) {
	m.driverMu.RLock()
	defer m.driverMu.RUnlock()

	var out []*models.Driver
	for _, d := range m.drivers {
		if d.InsuranceExpiry != nil && d.InsuranceExpiry.Before(before) {
			cp := *d
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// OTP operations

func (m *MemoryStore) CreateOTP(o *models.OTP) (*models.OTP, error) {
	m.otpMu.Lock()
	defer m.otpMu.Unlock()

	m.otpCounter++
	o.ID = m.otpCounter
	o.CreatedAt = time.Now()
	o.UpdatedAt = time.Now()

	stored := *o
	m.otps[o.ID] = &stored
	return o, nil
}

func (m *MemoryStore) GetOTPByStatus(phoneNumber, referenceType string, referenceID uint, status string) (*models.OTP, error) {
	m.otpMu.RLock()
	defer m.otpMu.RUnlock()

	for _, o := range m.otps {
		if o.Phone == phoneNumber && o.ReferenceType == referenceType && o.ReferenceID == referenceID && o.Status == status {
			cp := *o
			return &cp, nil
		}
	}
	return nil, ErrNotFound
}

func (m *MemoryStore) UpdateOTP(o *models.OTP) error {
	m.otpMu.Lock()
	defer m.otpMu.Unlock()

	if _, ok := m.otps[o.ID]; !ok {
		return ErrNotFound
	}
	o.UpdatedAt = time.Now()
	stored := *o
	m.otps[o.ID] = &stored
	return nil
}

func (m *MemoryStore) DeleteOTP(id uint) error {
	m.otpMu.Lock()
	defer m.otpMu.Unlock()

	delete(m.otps, id)
	return nil
}

func (m *MemoryStore) DeleteOTPsForKey(phoneNumber, referenceType string, referenceID uint) error {
	m.otpMu.Lock()
	defer m.otpMu.Unlock()

	for id, o := range m.otps {
		if o.Phone == phoneNumber && o.ReferenceType == referenceType && o.ReferenceID == referenceID {
			delete(m.otps, id)
		}
	}
	return nil
}

func (m *MemoryStore) PurgeStaleOTPs(phoneNumber, referenceType string, referenceID uint, now time.Time) error {
	m.otpMu.Lock()
	defer m.otpMu.Unlock()

	for id, o := range m.otps {
		if o.Phone != phoneNumber || o.ReferenceType != referenceType || o.ReferenceID != referenceID {
			continue
		}
		if now.After(o.ExpiresAt) || o.Status == models.OTPStatusVerified || o.Status == models.OTPStatusExpired {
			delete(m.otps, id)
		}
	}
	return nil
}

// Pricing operations

func (m *MemoryStore) CreatePricingPolicy(p *models.PricingPolicy) (*models.PricingPolicy, error) {
	m.policyMu.Lock()
	defer m.policyMu.Unlock()

	m.policyCounter++
	p.ID = m.policyCounter
	p.VehicleType = models.NormalizeVehicleType(p.VehicleType)
	p.CreatedAt = time.Now()
	p.UpdatedAt = time.Now()

	stored := *p
	m.policies[p.ID] = &stored
	return p, nil
}

func (m *MemoryStore) GetPricingPolicy(id uint) (*models.PricingPolicy, error) {
	m.policyMu.RLock()
	defer m.policyMu.RUnlock()

	p, ok := m.policies[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (m *MemoryStore) UpdatePricingPolicy(p *models.PricingPolicy) error {
	m.policyMu.Lock()
	defer m.policyMu.Unlock()

	if _, ok := m.policies[p.ID]; !ok {
		return ErrNotFound
	}
	p.VehicleType = models.NormalizeVehicleType(p.VehicleType)
	p.UpdatedAt = time.Now()
	stored := *p
	m.policies[p.ID] = &stored
	return nil
}

func (m *MemoryStore) ListPricingPolicies() ([]*models.PricingPolicy, error) {
	m.policyMu.RLock()
	defer m.policyMu.RUnlock()

	var out []*models.PricingPolicy
	for _, p := range m.policies {
		cp := *p
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *MemoryStore) GetActivePricing(vehicleType string) (*models.PricingPolicy, error) {
	m.policyMu.RLock()
	defer m.policyMu.RUnlock()

	vehicleType = models.NormalizeVehicleType(vehicleType)
	var best *models.PricingPolicy
	for _, p := range m.policies {
		if !p.IsActive || p.VehicleType != vehicleType {
			continue
		}
		if best == nil || p.UpdatedAt.After(best.UpdatedAt) {
			best = p
		}
	}
	if best == nil {
		return nil, ErrNotFound
	}
	cp := *best
	return &cp, nil
}

// Booking operations

func (m *MemoryStore) CreateBooking(b *models.Booking) (*models.Booking, error) {
	m.bookingMu.Lock()
	defer m.bookingMu.Unlock()

	if b.ID == "" {
		b.ID = uuid.NewString()
	}
	b.VehicleType = models.NormalizeVehicleType(b.VehicleType)
	if b.Status == "" {
		b.Status = "requested"
	}
	b.CreatedAt = time.Now()
	b.UpdatedAt = time.Now()

	stored := *b
	m.bookings[b.ID] = &stored
	return b, nil
}

func (m *MemoryStore) GetBooking(id string) (*models.Booking, error) {
	m.bookingMu.RLock()
	defer m.bookingMu.RUnlock()

	b, ok := m.bookings[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *b
	return &cp, nil
}

func (m *MemoryStore) UpdateBooking(b *models.Booking) error {
	m.bookingMu.Lock()
	defer m.bookingMu.Unlock()

	if _, ok := m.bookings[b.ID]; !ok {
		return ErrNotFound
	}
	b.UpdatedAt = time.Now()
	stored := *b
	m.bookings[b.ID] = &stored
	return nil
}

// Refresh token operations

func (m *MemoryStore) CreateRefreshToken(t *models.RefreshToken) (*models.RefreshToken, error) {
	m.tokenMu.Lock()
	defer m.tokenMu.Unlock()

	m.tokenCounter++
	t.ID = m.tokenCounter
	t.CreatedAt = time.Now()
	t.UpdatedAt = time.Now()

	stored := *t
	m.tokens[t.ID] = &stored
	return t, nil
}

func (m *MemoryStore) GetActiveRefreshTokens(userType string, userID uint) ([]*models.RefreshToken, error) {
	m.tokenMu.RLock()
	defer m.tokenMu.RUnlock()

	var out []*models.RefreshToken
	for _, t := range m.tokens {
		if t.UserType == userType && t.UserID == userID && t.RevokedAt == nil {
			cp := *t
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (m *MemoryStore) GetActiveRefreshTokensByType(userType string) ([]*models.RefreshToken, error) {
	m.tokenMu.RLock()
	defer m.tokenMu.RUnlock()

	var out []*models.RefreshToken
	for _, t := range m.tokens {
		if t.UserType == userType && t.RevokedAt == nil {
			cp := *t
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (m *MemoryStore) RevokeRefreshToken(id uint, at time.Time) error {
	m.tokenMu.Lock()
	defer m.tokenMu.Unlock()

	t, ok := m.tokens[id]
	if !ok {
		return ErrNotFound
	}
	t.RevokedAt = &at
	t.UpdatedAt = time.Now()
	return nil
}

// Dispute operations

func (m *MemoryStore) CreateDispute(d *models.Dispute) (*models.Dispute, error) {
	m.disputeMu.Lock()
	defer m.disputeMu.Unlock()

	m.disputeCounter++
	d.ID = m.disputeCounter
	if d.Status == "" {
		d.Status = models.DisputeStatusOpen
	}
	d.CreatedAt = time.Now()
	d.UpdatedAt = time.Now()

	stored := *d
	m.disputes[d.ID] = &stored
	return d, nil
}

func (m *MemoryStore) GetDispute(id uint) (*models.Dispute, error) {
	m.disputeMu.RLock()
	defer m.disputeMu.RUnlock()

	d, ok := m.disputes[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *d
	cp.Replies = nil
	for _, r := range m.replies {
		if r.DisputeID == id {
			cp.Replies = append(cp.Replies, *r)
		}
	}
	sort.Slice(cp.Replies, func(i, j int) bool { return cp.Replies[i].ID < cp.Replies[j].ID })
	return &cp, nil
}

func (m *MemoryStore) ListDisputes() ([]*models.Dispute, error) {
	m.disputeMu.RLock()
	defer m.disputeMu.RUnlock()

	var out []*models.Dispute
	for _, d := range m.disputes {
		cp := *d
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *MemoryStore) UpdateDispute(d *models.Dispute) error {
	m.disputeMu.Lock()
	defer m.disputeMu.Unlock()

	if _, ok := m.disputes[d.ID]; !ok {
		return ErrNotFound
	}
	d.UpdatedAt = time.Now()
	stored := *d
	stored.Replies = nil
	m.disputes[d.ID] = &stored
	return nil
}

func (m *MemoryStore) CreateDisputeReply(r *models.DisputeReply) (*models.DisputeReply, error) {
	m.disputeMu.Lock()
	defer m.disputeMu.Unlock()

	if _, ok := m.disputes[r.DisputeID]; !ok {
		return nil, ErrNotFound
	}
	m.replyCounter++
	r.ID = m.replyCounter
	r.CreatedAt = time.Now()
	r.UpdatedAt = time.Now()

	stored := *r
	m.replies[r.ID] = &stored
	return r, nil
}
