package models

// User is a back-office account. Password holds a bcrypt hash, never plain text.
type User struct {
	ID       int64  `json:"id" db:"id" gorm:"primaryKey;autoIncrement"`
	Username string `json:"username" db:"username" gorm:"type:text;not null;uniqueIndex"`
	Password string `json:"-" db:"password" gorm:"type:text;not null"`
}

func (User) TableName() string { return "users" }
