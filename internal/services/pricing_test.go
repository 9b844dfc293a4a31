package services

import (
	"errors"
	"math"
	"sync"
	"testing"

	"github.com/addisride/addisride-backend/internal/models"
	"github.com/addisride/addisride-backend/internal/storage"
)

// recordingBroadcaster collects broadcast events for assertions.
type recordingBroadcaster struct {
	mu     sync.Mutex
	events []string
	last   interface{}
}

func (r *recordingBroadcaster) Broadcast(event string, payload interface{}) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
	r.last = payload
}

func seedBooking(t *testing.T, store storage.Store) *models.Booking {
	t.Helper()
	// Bole to Piassa, roughly 3.1 km great-circle.
	b, err := store.CreateBooking(&models.Booking{
		PassengerID: 1,
		PickupLat:   9.0,
		PickupLng:   38.7,
		DropoffLat:  9.02,
		DropoffLng:  38.72,
		VehicleType: "mini",
	})
	if err != nil {
		t.Fatalf("CreateBooking: %v", err)
	}
	return b
}

func TestRecalculatePersistsAndBroadcasts(t *testing.T) {
	store := storage.NewMemoryStore()
	bc := &recordingBroadcaster{}
	svc := NewPricingService(store, bc)

	if _, err := store.CreatePricingPolicy(&models.PricingPolicy{
		VehicleType:     "mini",
		BaseFare:        50,
		PerKm:           10,
		SurgeMultiplier: 1.5,
		MinimumFare:     80,
		MaximumFare:     90,
		IsActive:        true,
	}); err != nil {
		t.Fatalf("CreatePricingPolicy: %v", err)
	}
	b := seedBooking(t, store)

	res, err := svc.Recalculate(b.ID)
	if err != nil {
		t.Fatalf("Recalculate: %v", err)
	}

	if math.Abs(res.DistanceKm-3.12) > 0.05 {
		t.Errorf("distance = %.3f km, want ~3.12", res.DistanceKm)
	}
	want := (50 + res.DistanceKm*10) * 1.5
	if math.Abs(res.FareEstimated-want) > 1e-9 {
		t.Errorf("fare = %.4f, want %.4f", res.FareEstimated, want)
	}
	// Minimum and maximum fare on the policy are informational only; the
	// computed fare exceeds MaximumFare here and is kept as-is.
	if res.FareEstimated <= 90 {
		t.Fatalf("test setup broken: fare %.2f does not exceed the maximum", res.FareEstimated)
	}

	stored, err := store.GetBooking(b.ID)
	if err != nil {
		t.Fatalf("GetBooking: %v", err)
	}
	if stored.FareEstimated != res.FareEstimated || stored.DistanceKm != res.DistanceKm {
		t.Errorf("booking not persisted: fare=%.4f dist=%.4f", stored.FareEstimated, stored.DistanceKm)
	}
	if stored.FareBreakdown.Base != 50 || stored.FareBreakdown.SurgeMultiplier != 1.5 {
		t.Errorf("breakdown not persisted: %+v", stored.FareBreakdown)
	}

	if len(bc.events) != 1 || bc.events[0] != PricingUpdateEvent {
		t.Errorf("events = %v, want [%s]", bc.events, PricingUpdateEvent)
	}
	if payload, ok := bc.last.(*FareResult); !ok || payload.BookingID != b.ID {
		t.Errorf("broadcast payload = %#v", bc.last)
	}
}

func TestRecalculateUsesNewestActivePolicy(t *testing.T) {
	store := storage.NewMemoryStore()
	svc := NewPricingService(store, nil)

	if _, err := store.CreatePricingPolicy(&models.PricingPolicy{
		VehicleType: "mini", BaseFare: 50, PerKm: 10, SurgeMultiplier: 1, IsActive: true,
	}); err != nil {
		t.Fatalf("CreatePricingPolicy: %v", err)
	}
	inactive, err := store.CreatePricingPolicy(&models.PricingPolicy{
		VehicleType: "mini", BaseFare: 999, PerKm: 99, SurgeMultiplier: 9, IsActive: false,
	})
	if err != nil {
		t.Fatalf("CreatePricingPolicy: %v", err)
	}
	newest, err := store.CreatePricingPolicy(&models.PricingPolicy{
		VehicleType: "mini", BaseFare: 60, PerKm: 12, SurgeMultiplier: 1, IsActive: true,
	})
	if err != nil {
		t.Fatalf("CreatePricingPolicy: %v", err)
	}
	_ = inactive
	b := seedBooking(t, store)

	res, err := svc.Recalculate(b.ID)
	if err != nil {
		t.Fatalf("Recalculate: %v", err)
	}
	want := (newest.BaseFare + res.DistanceKm*newest.PerKm) * newest.SurgeMultiplier
	if math.Abs(res.FareEstimated-want) > 1e-9 {
		t.Errorf("fare = %.4f, want %.4f from the newest active policy", res.FareEstimated, want)
	}
}

func TestRecalculateNoActivePolicy(t *testing.T) {
	store := storage.NewMemoryStore()
	bc := &recordingBroadcaster{}
	svc := NewPricingService(store, bc)

	if _, err := store.CreatePricingPolicy(&models.PricingPolicy{
		VehicleType: "sedan", BaseFare: 70, PerKm: 12, SurgeMultiplier: 1, IsActive: true,
	}); err != nil {
		t.Fatalf("CreatePricingPolicy: %v", err)
	}
	b := seedBooking(t, store) // vehicleType mini

	_, err := svc.Recalculate(b.ID)
	if !errors.Is(err, ErrNoActivePricing) {
		t.Fatalf("err = %v, want ErrNoActivePricing", err)
	}

	// The booking is untouched and nothing was broadcast.
	stored, _ := store.GetBooking(b.ID)
	if stored.FareEstimated != 0 || stored.DistanceKm != 0 {
		t.Errorf("failed recalculation mutated the booking: %+v", stored)
	}
	if len(bc.events) != 0 {
		t.Errorf("events = %v, want none", bc.events)
	}
}

func TestRecalculateUnknownBooking(t *testing.T) {
	svc := NewPricingService(storage.NewMemoryStore(), nil)
	if _, err := svc.Recalculate("no-such-id"); !errors.Is(err, ErrBookingNotFound) {
		t.Fatalf("err = %v, want ErrBookingNotFound", err)
	}
}
