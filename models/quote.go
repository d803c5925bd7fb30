package models

import "time"

// Quote is a customer's request for a parts or service quote
type Quote struct {
	ID              int64     `json:"id" db:"id" gorm:"primaryKey;autoIncrement"`
	FirstName       string    `json:"firstName" db:"first_name" gorm:"type:text;not null"`
	LastName        string    `json:"lastName" db:"last_name" gorm:"type:text;not null"`
	Email           string    `json:"email" db:"email" gorm:"type:text;not null"`
	Phone           string    `json:"phone" db:"phone" gorm:"type:text;not null"`
	VehicleMake     string    `json:"vehicleMake" db:"vehicle_make" gorm:"type:text;not null"`
	VehicleModel    string    `json:"vehicleModel" db:"vehicle_model" gorm:"type:text;not null"`
	ServiceRequired string    `json:"serviceRequired" db:"service_required" gorm:"type:text;not null"`
	CreatedAt       time.Time `json:"createdAt" db:"created_at" gorm:"not null"`
}

func (Quote) TableName() string { return "quotes" }
