// Package domain defines the persistence models for the excursion catalog,
// staff accounts, and customer feedback. These types are mapped with GORM and
// form the core data layer of the booking backend.
package domain

import (
	"time"

	"gorm.io/gorm"
)

// KeyLength is the number of decimal digits in an excursion key.
const KeyLength = 10

// Category groups excursions for the public catalog.
type Category struct {
	ID        uint      `json:"id"        gorm:"primaryKey"`
	Name      string    `json:"name"      gorm:"type:varchar(255);not null"`
	ImgSrc    string    `json:"imgSrc"    gorm:"column:img_src;type:varchar(512)"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// TableName returns the database table name for Category.
func (Category) TableName() string { return "categories" }

// Excursion is a bookable catalog item.
//
// Key is the 10-digit credential staff hand out to a customer; a payment is
// only created when the customer presents the item's current key. It is NULL
// until generated, unique across all non-NULL values, and never serialized
// into catalog responses.
type Excursion struct {
	ID                 uint      `json:"id"                 gorm:"primaryKey"`
	Name               string    `json:"name"               gorm:"type:varchar(255);not null"`
	City               string    `json:"city"               gorm:"type:varchar(255);not null"`
	ImgSrc             string    `json:"imgSrc"             gorm:"column:img_src;type:varchar(512)"`
	Info               string    `json:"info"               gorm:"type:text;not null"`
	PersonsAmount      int       `json:"personsAmount"      gorm:"not null;default:0"`
	AccompanistsAmount int       `json:"accompanistsAmount" gorm:"not null;default:0"`
	Price              float64   `json:"price"              gorm:"not null;default:0"`
	Key                *string   `json:"-"                  gorm:"type:varchar(10);uniqueIndex:ux_excursions_key"`
	CategoryID         *uint     `json:"categoryId,omitempty" gorm:"index"`
	CreatedAt          time.Time `json:"createdAt"`
	UpdatedAt          time.Time `json:"updatedAt"`

	// Events are the scheduled departures of this excursion.
	Events []ExcursionEvent `json:"excursionEvents" gorm:"foreignKey:ExcursionID"`

	Category *Category `json:"-" gorm:"foreignKey:CategoryID;constraint:OnUpdate:CASCADE,OnDelete:SET NULL"`
}

// TableName returns the database table name for Excursion.
func (Excursion) TableName() string { return "excursions" }

// ExcursionEvent is a named departure time ("HH:MM") of an excursion.
type ExcursionEvent struct {
	ID          uint   `json:"id"          gorm:"primaryKey"`
	ExcursionID uint   `json:"excursionId" gorm:"not null;index"`
	Name        string `json:"name"        gorm:"type:varchar(255);not null"`
	Time        string `json:"time"        gorm:"type:varchar(5);not null"`

	// Excursion is the owning catalog item. Events are cascade-deleted with it.
	Excursion *Excursion `json:"-" gorm:"foreignKey:ExcursionID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

// TableName returns the database table name for ExcursionEvent.
func (ExcursionEvent) TableName() string { return "excursion_events" }

// User is a staff account allowed to manage the catalog and issue keys.
type User struct {
	ID           uint           `json:"id"    gorm:"primaryKey"`
	Login        string         `json:"login" gorm:"type:varchar(128);not null;uniqueIndex"`
	PasswordHash string         `json:"-"     gorm:"column:password;type:varchar(255);not null"`
	CreatedAt    time.Time      `json:"createdAt"`
	UpdatedAt    time.Time      `json:"updatedAt"`
	DeletedAt    gorm.DeletedAt `json:"-"     gorm:"index"`
}

// TableName returns the database table name for User.
func (User) TableName() string { return "users" }

// Feedback is a customer message relayed to the staff chat.
//
// Rows are kept for audit; Delivered records whether the relay succeeded.
type Feedback struct {
	ID        string    `json:"id"        gorm:"type:char(36);primaryKey"`
	Name      string    `json:"name"      gorm:"type:varchar(255);not null"`
	Phone     string    `json:"phone"     gorm:"type:varchar(32);not null"`
	Comment   string    `json:"comment"   gorm:"type:text;not null"`
	Delivered bool      `json:"delivered" gorm:"not null;default:false"`
	CreatedAt time.Time `json:"createdAt"`
}

// TableName returns the database table name for Feedback.
func (Feedback) TableName() string { return "feedback" }
