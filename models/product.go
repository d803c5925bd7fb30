package models

// Product is a catalogue entry shown on the products page
type Product struct {
	ID          int64   `json:"id" db:"id" gorm:"primaryKey;autoIncrement"`
	Name        string  `json:"name" db:"name" gorm:"type:text;not null"`
	Description string  `json:"description" db:"description" gorm:"type:text;not null"`
	Category    string  `json:"category" db:"category" gorm:"type:text;not null;index"`
	ImageURL    *string `json:"imageUrl" db:"image_url" gorm:"column:image_url;type:text"`
}

func (Product) TableName() string { return "products" }
