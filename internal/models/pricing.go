package models

import (
	"gorm.io/gorm"
)

// PricingPolicy is the per-vehicle-type fare configuration. The pricing
// engine reads the most-recently-updated active policy for a vehicle type;
// admins create and update rows, the engine never writes them.
type PricingPolicy struct {
	gorm.Model
	VehicleType      string  `json:"vehicleType" gorm:"not null;index"`
	BaseFare         float64 `json:"baseFare" gorm:"not null"`
	PerKm            float64 `json:"perKm" gorm:"not null"`
	PerMinute        float64 `json:"perMinute"`
	WaitingPerMinute float64 `json:"waitingPerMinute"`
	SurgeMultiplier  float64 `json:"surgeMultiplier" gorm:"default:1"`
	MinimumFare      float64 `json:"minimumFare"`
	MaximumFare      float64 `json:"maximumFare"`
	IsActive         bool    `json:"isActive" gorm:"default:true"`
	Description      string  `json:"description"`
}

// BeforeSave normalizes the vehicle type enum value.
func (p *PricingPolicy) BeforeSave(tx *gorm.DB) error {
	p.VehicleType = NormalizeVehicleType(p.VehicleType)
	return nil
}
