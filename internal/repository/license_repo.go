package repository

import (
	"context"
	"errors"
	"time"

	"github.com/niyyah-app/niyyah-api/internal/model"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ErrDeviceConflict is returned by Claim when the license is bound to another device
var ErrDeviceConflict = errors.New("license is bound to another device")

// LicenseRepository handles database operations for licenses.
// It is the only writer of the activation_codes table.
type LicenseRepository struct {
	db *gorm.DB
}

func NewLicenseRepository(db *gorm.DB) *LicenseRepository {
	return &LicenseRepository{db: db}
}

// FindByPhone finds a license by its normalized phone number
func (r *LicenseRepository) FindByPhone(ctx context.Context, phone string) (*model.License, error) {
	var license model.License
	err := r.db.WithContext(ctx).Where("phone = ?", phone).Take(&license).Error
	if err != nil {
		return nil, err
	}
	return &license, nil
}

// FindByDeviceID finds the claimed license bound to a device.
// When several are bound to the same device the most recently claimed wins.
func (r *LicenseRepository) FindByDeviceID(ctx context.Context, deviceID string) (*model.License, error) {
	var license model.License
	err := r.db.WithContext(ctx).
		Where("device_id = ? AND used = ?", deviceID, true).
		Order("used_at DESC").
		Take(&license).Error
	if err != nil {
		return nil, err
	}
	return &license, nil
}

// CreateUnclaimed inserts an unclaimed license. An existing license for the
// same phone is left untouched and created is false.
func (r *LicenseRepository) CreateUnclaimed(ctx context.Context, license *model.License) (bool, error) {
	license.Used = false
	license.DeviceID = nil
	license.UsedAt = nil

	result := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "phone"}},
			DoNothing: true,
		}).
		Create(license)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

// Claim binds the license to deviceID if it is still unclaimed. The bind is a
// single conditional update so concurrent claims have exactly one winner.
//
// Returns gorm.ErrRecordNotFound for an unknown phone and ErrDeviceConflict
// (with the current record) when another device holds it. Claiming again from
// the bound device succeeds with claimed=false and keeps the original UsedAt.
func (r *LicenseRepository) Claim(ctx context.Context, phone, deviceID string, at time.Time) (license *model.License, claimed bool, err error) {
	result := r.db.WithContext(ctx).
		Model(&model.License{}).
		Where("phone = ? AND device_id IS NULL", phone).
		Updates(map[string]interface{}{
			"used":      true,
			"device_id": deviceID,
			"used_at":   at,
		})
	if result.Error != nil {
		return nil, false, result.Error
	}

	license, err = r.FindByPhone(ctx, phone)
	if err != nil {
		return nil, false, err
	}

	if result.RowsAffected == 1 {
		return license, true, nil
	}
	if license.BoundTo(deviceID) {
		return license, false, nil
	}
	return license, false, ErrDeviceConflict
}

// ListRecent returns the most recently created licenses
func (r *LicenseRepository) ListRecent(ctx context.Context, limit int) ([]model.License, error) {
	var licenses []model.License
	err := r.db.WithContext(ctx).
		Order("created_at DESC").
		Limit(limit).
		Find(&licenses).Error
	return licenses, err
}

// IsNotFound reports whether err means no license matched
func IsNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}
