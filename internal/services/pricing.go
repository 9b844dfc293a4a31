package services

import (
	"errors"

	"github.com/addisride/addisride-backend/internal/geo"
	"github.com/addisride/addisride-backend/internal/models"
	"github.com/addisride/addisride-backend/internal/storage"
)

// Broadcaster fans a named event out to subscribed clients. The websocket
// hub implements it; tests use a recording fake.
type Broadcaster interface {
	Broadcast(event string, payload interface{})
}

// NopBroadcaster discards events.
type NopBroadcaster struct{}

func (NopBroadcaster) Broadcast(event string, payload interface{}) {}

// PricingUpdateEvent is the broadcast topic for fare changes.
const PricingUpdateEvent = "pricing:update"

// FareResult is the recalculation outcome, persisted onto the booking and
// broadcast to subscribers.
type FareResult struct {
	BookingID     string               `json:"bookingId"`
	VehicleType   string               `json:"vehicleType"`
	DistanceKm    float64              `json:"distanceKm"`
	FareEstimated float64              `json:"fareEstimated"`
	FareBreakdown models.FareBreakdown `json:"fareBreakdown"`
}

// PricingService computes booking fares from the active pricing policy.
type PricingService struct {
	store       storage.Store
	broadcaster Broadcaster
}

// NewPricingService creates a pricing engine. Pass NopBroadcaster when no
// subscribers exist.
func NewPricingService(store storage.Store, broadcaster Broadcaster) *PricingService {
	if broadcaster == nil {
		broadcaster = NopBroadcaster{}
	}
	return &PricingService{store: store, broadcaster: broadcaster}
}

// Recalculate recomputes the fare for a booking from pickup/dropoff
// geodesic distance and the most-recently-updated active policy for the
// booking's vehicle type, persists the result in place, and broadcasts it.
// Time and waiting costs stay zero until trip telemetry exists. Minimum and
// maximum fare are intentionally not applied.
func (s *PricingService) Recalculate(bookingID string) (*FareResult, error) {
	booking, err := s.store.GetBooking(bookingID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, ErrBookingNotFound
		}
		return nil, err
	}

	distanceKm := geo.DistanceKm(booking.PickupLat, booking.PickupLng, booking.DropoffLat, booking.DropoffLng)

	policy, err := s.store.GetActivePricing(booking.VehicleType)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, ErrNoActivePricing
		}
		return nil, err
	}

	breakdown := models.FareBreakdown{
		Base:            policy.BaseFare,
		DistanceCost:    distanceKm * policy.PerKm,
		TimeCost:        0,
		WaitingCost:     0,
		SurgeMultiplier: policy.SurgeMultiplier,
	}
	fareEstimated := (breakdown.Base + breakdown.DistanceCost + breakdown.TimeCost + breakdown.WaitingCost) * breakdown.SurgeMultiplier

	booking.DistanceKm = distanceKm
	booking.FareEstimated = fareEstimated
	booking.FareBreakdown = breakdown
	if err := s.store.UpdateBooking(booking); err != nil {
		return nil, err
	}

	result := &FareResult{
		BookingID:     booking.ID,
		VehicleType:   booking.VehicleType,
		DistanceKm:    distanceKm,
		FareEstimated: fareEstimated,
		FareBreakdown: breakdown,
	}
	s.broadcaster.Broadcast(PricingUpdateEvent, result)
	return result, nil
}
