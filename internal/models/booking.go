package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// FareBreakdown itemizes the components summing to the estimated fare:
// total = (base + distanceCost + timeCost + waitingCost) * surgeMultiplier.
// timeCost and waitingCost stay zero until duration-based pricing lands.
type FareBreakdown struct {
	Base            float64 `json:"base"`
	DistanceCost    float64 `json:"distanceCost"`
	TimeCost        float64 `json:"timeCost"`
	WaitingCost     float64 `json:"waitingCost"`
	SurgeMultiplier float64 `json:"surgeMultiplier"`
}

// Booking holds the trip request and its recomputed fare. The fare fields
// are overwritten in place on each recalculation; no history is kept here.
type Booking struct {
	ID          string `json:"id" gorm:"primaryKey"`
	PassengerID uint   `json:"passengerId" gorm:"index"`

	PickupLat  float64 `json:"pickupLat"`
	PickupLng  float64 `json:"pickupLng"`
	DropoffLat float64 `json:"dropoffLat"`
	DropoffLng float64 `json:"dropoffLng"`

	VehicleType string `json:"vehicleType" gorm:"index"`
	Status      string `json:"status" gorm:"default:requested"`

	DistanceKm    float64       `json:"distanceKm"`
	FareEstimated float64       `json:"fareEstimated"`
	FareBreakdown FareBreakdown `json:"fareBreakdown" gorm:"embedded;embeddedPrefix:fare_"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (b *Booking) BeforeCreate(tx *gorm.DB) error {
	if b.ID == "" {
		b.ID = uuid.NewString()
	}
	b.VehicleType = NormalizeVehicleType(b.VehicleType)
	return nil
}
