package models

import (
	"database/sql"
	"time"
)

// DriverLocation is one row of the append-only driver location time series.
// Rows are never updated or deleted; the most recent row per driver is the
// current location.
type DriverLocation struct {
	ID         string          `json:"id"`
	DriverID   string          `json:"driver_id"`
	OrderID    sql.NullString  `json:"order_id,omitempty"`
	Latitude   float64         `json:"latitude"`
	Longitude  float64         `json:"longitude"`
	Accuracy   sql.NullFloat64 `json:"accuracy,omitempty"`
	Heading    sql.NullFloat64 `json:"heading,omitempty"`
	Speed      sql.NullFloat64 `json:"speed,omitempty"`
	RecordedAt time.Time       `json:"recorded_at"`
}

// LocationUpdateRequest is the body of a driver location report.
type LocationUpdateRequest struct {
	DriverID  string   `json:"driverId" validate:"required,uuid4"`
	OrderID   string   `json:"orderId,omitempty" validate:"omitempty,uuid4"`
	Latitude  float64  `json:"latitude" validate:"min=-90,max=90"`
	Longitude float64  `json:"longitude" validate:"min=-180,max=180"`
	Accuracy  *float64 `json:"accuracy,omitempty" validate:"omitempty,gte=0"`
	Heading   *float64 `json:"heading,omitempty" validate:"omitempty,gte=0,lte=360"`
	Speed     *float64 `json:"speed,omitempty" validate:"omitempty,gte=0"`
}
