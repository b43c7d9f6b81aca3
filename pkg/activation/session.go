// Package activation is the client side of device activation: an HTTP client
// for the activation API, a local snapshot cache and the Session state
// machine that reconciles the two at startup.
package activation

import (
	"context"
	"log/slog"
	"sync"

	"golang.org/x/sync/singleflight"
)

// State of an activation session
type State int

const (
	StateInitializing State = iota
	StateActivated
	StateNotActivated
)

func (s State) String() string {
	switch s {
	case StateInitializing:
		return "initializing"
	case StateActivated:
		return "activated"
	case StateNotActivated:
		return "not_activated"
	default:
		return "unknown"
	}
}

// Service is the part of the activation API a session needs
type Service interface {
	Activate(ctx context.Context, phone, deviceID string) (*Activation, error)
	CheckDevice(ctx context.Context, fingerprint string) (*DeviceStatus, error)
}

// Fingerprinter supplies the memoized device identifier
type Fingerprinter interface {
	DeviceID() string
}

// Cache persists the activation snapshot between runs
type Cache interface {
	Load() (Snapshot, error)
	Save(Snapshot) error
	Clear() error
}

// Session tracks whether this device is activated. Start reconciles the
// local cache with the server; Activate and Logout are user driven.
type Session struct {
	service     Service
	fingerprint Fingerprinter
	cache       Cache
	logger      *slog.Logger

	group singleflight.Group

	mu       sync.RWMutex
	state    State
	deviceID string
	phone    string
	profile  *Profile
}

func NewSession(service Service, fingerprint Fingerprinter, cache Cache, logger *slog.Logger) *Session {
	if logger == nil {
		logger = slog.Default()
	}
	return &Session{
		service:     service,
		fingerprint: fingerprint,
		cache:       cache,
		logger:      logger.With(slog.String("module", "activation_session")),
		state:       StateInitializing,
	}
}

// Start runs startup reconciliation and returns the resulting state.
// Concurrent calls share one run.
//
// A cached activation is trusted without a network call. Otherwise the
// server is asked whether this device is bound to a license: its answer
// overwrites the cache either way. When the server cannot be reached the
// session is not activated, the cache is left as it was and the error is
// returned.
func (s *Session) Start(ctx context.Context) (State, error) {
	v, err, _ := s.group.Do("start", func() (interface{}, error) {
		return s.reconcile(ctx)
	})
	return v.(State), err
}

func (s *Session) reconcile(ctx context.Context) (State, error) {
	deviceID := s.DeviceID()

	snap, err := s.cache.Load()
	if err != nil {
		s.logger.Warn("activation cache unreadable", slog.String("error", err.Error()))
		snap = Snapshot{}
	}

	if snap.Activated && snap.Phone != "" {
		s.set(StateActivated, snap.Phone, snap.Profile)
		s.logger.Debug("activation restored from cache", slog.String("phone", snap.Phone))
		return StateActivated, nil
	}

	status, err := s.service.CheckDevice(ctx, deviceID)
	if err != nil {
		s.set(StateNotActivated, "", nil)
		s.logger.Warn("device check failed", slog.String("error", err.Error()))
		return StateNotActivated, err
	}

	if !status.Activated {
		if err := s.cache.Clear(); err != nil {
			s.logger.Warn("activation cache not cleared", slog.String("error", err.Error()))
		}
		s.set(StateNotActivated, "", nil)
		return StateNotActivated, nil
	}

	s.persist(Snapshot{Activated: true, Phone: status.Phone, Profile: status.Profile})
	s.set(StateActivated, status.Phone, status.Profile)
	s.logger.Info("activation restored from server", slog.String("phone", status.Phone))
	return StateActivated, nil
}

// Activate binds phone's license to this device. On failure the server's
// error is returned as is and the session state does not change.
func (s *Session) Activate(ctx context.Context, phone string) (*Activation, error) {
	activation, err := s.service.Activate(ctx, phone, s.DeviceID())
	if err != nil {
		return nil, err
	}

	profile := activation.Profile
	s.persist(Snapshot{Activated: true, Phone: activation.Phone, Profile: &profile})
	s.set(StateActivated, activation.Phone, &profile)
	return activation, nil
}

// Logout forgets the local activation. The device stays bound on the server,
// so the next Start restores it.
func (s *Session) Logout() error {
	err := s.cache.Clear()
	s.set(StateNotActivated, "", nil)
	return err
}

func (s *Session) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

func (s *Session) IsActivated() bool {
	return s.State() == StateActivated
}

func (s *Session) Phone() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.phone
}

func (s *Session) Profile() *Profile {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.profile
}

// DeviceID returns the device fingerprint, computing it on first use
func (s *Session) DeviceID() string {
	s.mu.RLock()
	id := s.deviceID
	s.mu.RUnlock()
	if id != "" {
		return id
	}

	id = s.fingerprint.DeviceID()
	s.mu.Lock()
	s.deviceID = id
	s.mu.Unlock()
	return id
}

func (s *Session) set(state State, phone string, profile *Profile) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = state
	s.phone = phone
	s.profile = profile
}

func (s *Session) persist(snap Snapshot) {
	if err := s.cache.Save(snap); err != nil {
		s.logger.Warn("activation cache not written", slog.String("error", err.Error()))
	}
}
