package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/niyyah-app/niyyah-api/internal/metrics"
	"github.com/niyyah-app/niyyah-api/internal/model"
	"github.com/niyyah-app/niyyah-api/internal/repository"
	"github.com/niyyah-app/niyyah-api/pkg/mailer"
)

// License intake sources
const (
	SourceWebhook = "webhook"
	SourceAdmin   = "admin"
	SourceSeeder  = "seeder"
)

const (
	defaultListLimit = 10
	maxListLimit     = 100
	manualEntryName  = "Manual Entry"

	// activation_codes column widths
	maxOrderIDLen  = 128
	maxCustomerLen = 255
)

// ActivationService binds licenses to devices and answers activation queries
type ActivationService struct {
	licenseRepo *repository.LicenseRepository
	mailer      *mailer.Mailer
	metrics     *metrics.Metrics
	logger      *slog.Logger
	now         func() time.Time
}

// NewActivationService wires the service. mailer and metrics may be nil.
func NewActivationService(
	licenseRepo *repository.LicenseRepository,
	mailer *mailer.Mailer,
	metrics *metrics.Metrics,
) *ActivationService {
	return &ActivationService{
		licenseRepo: licenseRepo,
		mailer:      mailer,
		metrics:     metrics,
		logger:      slog.Default().With(slog.String("service", "activation")),
		now:         time.Now,
	}
}

// ==================== Activate ====================

// Activate binds the license for phone to deviceID. It is the only operation
// that mutates a license. Activating again from the bound device succeeds and
// reports the original activation time.
func (s *ActivationService) Activate(ctx context.Context, phone, deviceID string) (*model.ActivateResponse, error) {
	const op = "activate"

	if s.licenseRepo == nil {
		return nil, s.fail(op, unavailableError(errors.New("license store not configured")))
	}

	deviceID = strings.TrimSpace(deviceID)
	if strings.TrimSpace(phone) == "" || deviceID == "" {
		return nil, s.fail(op, validationError("Phone number and deviceId are required"))
	}

	normalized, err := NormalizePhone(phone)
	if err != nil {
		return nil, s.fail(op, err)
	}

	license, claimed, err := s.licenseRepo.Claim(ctx, normalized, deviceID, s.now().UTC())
	switch {
	case repository.IsNotFound(err):
		return nil, s.fail(op, ErrNotFound)
	case errors.Is(err, repository.ErrDeviceConflict):
		s.logger.Warn("activation refused",
			slog.String("operation", op),
			slog.String("outcome", metrics.OutcomeConflict),
			slog.String("phone", normalized),
		)
		return nil, s.fail(op, ErrDeviceConflict)
	case err != nil:
		return nil, s.fail(op, unavailableError(fmt.Errorf("claim %s: %w", normalized, err)))
	}

	message := "Already activated on this device"
	if claimed {
		message = "Application activated successfully!"
		s.logger.Info("license claimed",
			slog.String("operation", op),
			slog.String("outcome", metrics.OutcomeOK),
			slog.String("phone", normalized),
			slog.String("device_id", deviceID),
		)
	}
	s.metrics.ObserveActivation(op, metrics.OutcomeOK)

	activatedAt := s.now().UTC()
	if license.UsedAt != nil {
		activatedAt = license.UsedAt.UTC()
	}

	return &model.ActivateResponse{
		Success: true,
		Message: message,
		Data: &model.ActivationData{
			Phone:       normalized,
			DeviceID:    deviceID,
			ActivatedAt: activatedAt,
			Profile:     license.Profile(),
		},
	}, nil
}

// ==================== Status ====================

// CheckStatus reports whether phone holds a license usable from deviceID.
// An empty deviceID skips the binding check. It never mutates state.
func (s *ActivationService) CheckStatus(ctx context.Context, phone, deviceID string) (*model.StatusResponse, error) {
	const op = "check_status"

	if s.licenseRepo == nil {
		return nil, s.fail(op, unavailableError(errors.New("license store not configured")))
	}

	normalized, err := NormalizePhone(phone)
	if err != nil {
		return nil, s.fail(op, err)
	}

	license, err := s.licenseRepo.FindByPhone(ctx, normalized)
	if repository.IsNotFound(err) {
		return nil, s.fail(op, ErrNotFound)
	}
	if err != nil {
		return nil, s.fail(op, unavailableError(fmt.Errorf("find %s: %w", normalized, err)))
	}

	deviceID = strings.TrimSpace(deviceID)
	if license.IsClaimed() && deviceID != "" && !license.BoundTo(deviceID) {
		return nil, s.fail(op, ErrDeviceConflict)
	}

	s.metrics.ObserveActivation(op, metrics.OutcomeOK)
	profile := license.Profile()
	return &model.StatusResponse{Valid: true, Profile: &profile}, nil
}

// CheckStatusByDevice looks up the license claimed by deviceID. Absence is
// an answer ({activated: false}), not an error.
func (s *ActivationService) CheckStatusByDevice(ctx context.Context, deviceID string) (*model.DeviceStatusResponse, error) {
	const op = "check_device"

	if s.licenseRepo == nil {
		return nil, s.fail(op, unavailableError(errors.New("license store not configured")))
	}

	deviceID = strings.TrimSpace(deviceID)
	if deviceID == "" {
		return nil, s.fail(op, validationError("Fingerprint required"))
	}

	license, err := s.licenseRepo.FindByDeviceID(ctx, deviceID)
	if repository.IsNotFound(err) {
		s.metrics.ObserveActivation(op, metrics.OutcomeNotFound)
		return &model.DeviceStatusResponse{Activated: false}, nil
	}
	if err != nil {
		return nil, s.fail(op, unavailableError(fmt.Errorf("find device: %w", err)))
	}

	s.metrics.ObserveActivation(op, metrics.OutcomeOK)
	profile := license.Profile()
	return &model.DeviceStatusResponse{
		Activated: true,
		Phone:     license.Phone,
		Profile:   &profile,
	}, nil
}

// ==================== Intake ====================

// NewLicense is an intake request for an unclaimed license
type NewLicense struct {
	Phone         string
	OrderID       string
	CustomerName  string
	CustomerEmail string
}

// CreateLicense stores an unclaimed license. An existing license for the same
// phone is left untouched and created is false. When a license is created and
// an email is known, a purchase confirmation is sent in the background.
func (s *ActivationService) CreateLicense(ctx context.Context, source string, in NewLicense) (license *model.License, created bool, err error) {
	if s.licenseRepo == nil {
		s.metrics.ObserveLicense(source, "error")
		return nil, false, unavailableError(errors.New("license store not configured"))
	}

	normalized, err := NormalizePhone(in.Phone)
	if err != nil {
		s.metrics.ObserveLicense(source, "invalid")
		return nil, false, err
	}

	if source == SourceAdmin {
		if in.OrderID == "" {
			in.OrderID = fmt.Sprintf("MANUAL-%d", s.now().UnixMilli())
		}
		if in.CustomerName == "" {
			in.CustomerName = manualEntryName
		}
	}

	if err := checkLengths(in); err != nil {
		s.metrics.ObserveLicense(source, "invalid")
		return nil, false, err
	}

	license = &model.License{
		Phone:         normalized,
		OrderID:       in.OrderID,
		CustomerName:  optional(in.CustomerName),
		CustomerEmail: optional(in.CustomerEmail),
	}

	created, err = s.licenseRepo.CreateUnclaimed(ctx, license)
	if err != nil {
		s.metrics.ObserveLicense(source, "error")
		return nil, false, unavailableError(fmt.Errorf("create %s: %w", normalized, err))
	}

	if !created {
		s.metrics.ObserveLicense(source, "exists")
		s.logger.Info("license already exists",
			slog.String("operation", "create_license"),
			slog.String("source", source),
			slog.String("phone", normalized),
		)
		return license, false, nil
	}

	s.metrics.ObserveLicense(source, "created")
	s.logger.Info("license created",
		slog.String("operation", "create_license"),
		slog.String("source", source),
		slog.String("phone", normalized),
		slog.String("order_id", in.OrderID),
	)

	if s.mailer != nil && license.CustomerEmail != nil {
		s.sendConfirmation(*license)
	}
	return license, true, nil
}

// ListLicenses returns the most recent licenses. limit is clamped to [1, 100]
// and defaults to 10.
func (s *ActivationService) ListLicenses(ctx context.Context, limit int) ([]model.License, error) {
	if s.licenseRepo == nil {
		return nil, unavailableError(errors.New("license store not configured"))
	}
	if limit <= 0 {
		limit = defaultListLimit
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}

	licenses, err := s.licenseRepo.ListRecent(ctx, limit)
	if err != nil {
		return nil, unavailableError(fmt.Errorf("list licenses: %w", err))
	}
	return licenses, nil
}

// ==================== Helpers ====================

func (s *ActivationService) sendConfirmation(license model.License) {
	name := "Client"
	if license.CustomerName != nil {
		name = *license.CustomerName
	}
	data := mailer.PurchaseConfirmation{Name: name, Phone: license.Phone, OrderID: license.OrderID}

	go func() {
		if err := s.mailer.SendPurchaseConfirmation(*license.CustomerEmail, data); err != nil {
			s.logger.Warn("purchase confirmation not sent",
				slog.String("phone", license.Phone),
				slog.String("error", err.Error()),
			)
			return
		}
		s.logger.Info("purchase confirmation sent", slog.String("phone", license.Phone))
	}()
}

func checkLengths(in NewLicense) error {
	switch {
	case utf8.RuneCountInString(in.OrderID) > maxOrderIDLen:
		return validationError(fmt.Sprintf("Order ID must be at most %d characters", maxOrderIDLen))
	case utf8.RuneCountInString(in.CustomerName) > maxCustomerLen:
		return validationError(fmt.Sprintf("Customer name must be at most %d characters", maxCustomerLen))
	case utf8.RuneCountInString(in.CustomerEmail) > maxCustomerLen:
		return validationError(fmt.Sprintf("Customer email must be at most %d characters", maxCustomerLen))
	}
	return nil
}

// fail records the outcome of a failed operation and returns err unchanged
func (s *ActivationService) fail(op string, err error) error {
	kind := KindOf(err)
	outcome := metrics.OutcomeUnavailable
	switch kind {
	case KindValidation:
		outcome = metrics.OutcomeInvalid
	case KindNotFound:
		outcome = metrics.OutcomeNotFound
	case KindDeviceConflict:
		outcome = metrics.OutcomeConflict
	}
	s.metrics.ObserveActivation(op, outcome)

	if kind == KindUnavailable {
		s.logger.Error("license store failure",
			slog.String("operation", op),
			slog.String("error", err.Error()),
		)
	}
	return err
}

func optional(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}
