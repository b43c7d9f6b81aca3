package model

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// License is a purchased activation right keyed by the buyer's phone number.
// DeviceID is nil until the first successful activation binds it.
type License struct {
	ID            uuid.UUID  `json:"id" gorm:"type:uuid;primaryKey"`
	Phone         string     `json:"phone" gorm:"size:32;not null;uniqueIndex"`
	OrderID       string     `json:"order_id" gorm:"size:128"`
	CustomerName  *string    `json:"customer_name" gorm:"size:255"`
	CustomerEmail *string    `json:"customer_email" gorm:"size:255"`
	DeviceID      *string    `json:"device_id" gorm:"size:128;index"`
	Used          bool       `json:"used" gorm:"not null;default:false;check:chk_activation_codes_claim,(used = false AND device_id IS NULL) OR (used = true AND device_id IS NOT NULL)"`
	UsedAt        *time.Time `json:"used_at"`
	CreatedAt     time.Time  `json:"created_at"`
}

func (License) TableName() string {
	return "activation_codes"
}

// BeforeCreate assigns the primary key when the caller left it empty
func (l *License) BeforeCreate(tx *gorm.DB) error {
	if l.ID == uuid.Nil {
		l.ID = uuid.New()
	}
	return nil
}

// IsClaimed reports whether a device is bound to the license
func (l *License) IsClaimed() bool {
	return l.Used && l.DeviceID != nil
}

// BoundTo reports whether the license is bound to the given device
func (l *License) BoundTo(deviceID string) bool {
	return l.DeviceID != nil && *l.DeviceID == deviceID
}

// Profile is the display identity derived from a license. It is never stored.
type Profile struct {
	Phone     string  `json:"phone"`
	Name      *string `json:"name"`
	FirstName *string `json:"firstName"`
	Email     *string `json:"email"`
}

// Profile derives the display identity; FirstName is the first word of the name
func (l *License) Profile() Profile {
	p := Profile{
		Phone: l.Phone,
		Name:  l.CustomerName,
		Email: l.CustomerEmail,
	}
	if l.CustomerName != nil {
		if fields := strings.Fields(*l.CustomerName); len(fields) > 0 {
			first := fields[0]
			p.FirstName = &first
		}
	}
	return p
}
