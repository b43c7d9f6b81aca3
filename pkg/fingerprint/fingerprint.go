// Package fingerprint derives a stable identifier for the machine the client
// runs on. The identifier is a hash of durable environment signals, so it
// survives wiping the client's local storage.
package fingerprint

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"

	"github.com/google/uuid"
)

// FallbackPrefix marks identifiers generated when no signal could be collected
const FallbackPrefix = "fallback_"

var defaultMachineIDPaths = []string{
	"/etc/machine-id",
	"/var/lib/dbus/machine-id",
}

// Signals are the raw inputs hashed into a device identifier
type Signals struct {
	MachineID string
	MAC       string
	Hostname  string
	OS        string
	Arch      string
}

// Collector gathers signals from the environment
type Collector func() (Signals, error)

// Provider computes the device identifier once and memoizes it for its lifetime
type Provider struct {
	collect      Collector
	logger       *slog.Logger
	fallbackPath string
	mu       sync.Mutex
	deviceID string
	degraded bool
}

// Option configures a Provider
type Option func(*Provider)

// WithCollector replaces the environment collector
func WithCollector(c Collector) Option {
	return func(p *Provider) { p.collect = c }
}

// WithFallbackFile keeps the random fallback identifier in path so that it
// survives restarts of a machine without usable signals
func WithFallbackFile(path string) Option {
	return func(p *Provider) { p.fallbackPath = path }
}

// WithLogger sets the logger used for fallback warnings
func WithLogger(l *slog.Logger) Option {
	return func(p *Provider) { p.logger = l }
}

func New(opts ...Option) *Provider {
	p := &Provider{
		collect: CollectSystem,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(p)
	}
	p.logger = p.logger.With(slog.String("module", "fingerprint"))
	return p
}

// DeviceID returns the memoized identifier, computing it on first use.
// Concurrent first calls compute it once.
func (p *Provider) DeviceID() string {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.deviceID != "" {
		return p.deviceID
	}

	signals, err := p.collect()
	if err == nil && signals.empty() {
		err = errors.New("no usable signal")
	}
	if err != nil {
		p.deviceID = p.fallback()
		p.degraded = true
		p.logger.Warn("device signals unavailable, using random identifier",
			slog.String("device_id", p.deviceID),
			slog.String("error", err.Error()),
		)
		return p.deviceID
	}

	p.deviceID = Hash(signals)
	return p.deviceID
}

// Degraded reports whether DeviceID fell back to a random identifier. Without
// a fallback file such an identifier does not survive a restart of the client.
func (p *Provider) Degraded() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.degraded
}

// fallback reuses the stored random identifier or creates and stores a new one.
// A store that cannot be written only costs persistence.
func (p *Provider) fallback() string {
	if p.fallbackPath != "" {
		if raw, err := os.ReadFile(p.fallbackPath); err == nil {
			if id := strings.TrimSpace(string(raw)); strings.HasPrefix(id, FallbackPrefix) {
				return id
			}
		}
	}

	id := FallbackPrefix + uuid.NewString()
	if p.fallbackPath == "" {
		return id
	}
	if err := os.MkdirAll(filepath.Dir(p.fallbackPath), 0o700); err == nil {
		err = os.WriteFile(p.fallbackPath, []byte(id+"\n"), 0o600)
		if err == nil {
			return id
		}
	}
	p.logger.Warn("fallback identifier not stored", slog.String("path", p.fallbackPath))
	return id
}

// Hash turns signals into a hex SHA-256 identifier
func Hash(s Signals) string {
	h := sha256.New()
	for _, part := range []string{s.MachineID, s.MAC, s.Hostname, s.OS, s.Arch} {
		h.Write([]byte(part))
		h.Write([]byte{0})
	}
	return hex.EncodeToString(h.Sum(nil))
}

func (s Signals) empty() bool {
	return s.MachineID == "" && s.MAC == "" && s.Hostname == ""
}

// CollectSystem reads the machine id, the primary MAC address and the
// hostname. Missing individual signals are tolerated; it fails only when none
// is available.
func CollectSystem() (Signals, error) {
	s := Signals{
		OS:   runtime.GOOS,
		Arch: runtime.GOARCH,
	}

	s.MachineID = readMachineID(defaultMachineIDPaths)

	if mac, err := primaryMAC(); err == nil {
		s.MAC = mac
	}

	if host, err := os.Hostname(); err == nil {
		s.Hostname = strings.ToLower(strings.TrimSpace(host))
	}

	if s.empty() {
		return s, fmt.Errorf("no machine id, MAC address or hostname on %s/%s", s.OS, s.Arch)
	}
	return s, nil
}

func readMachineID(paths []string) string {
	for _, path := range paths {
		raw, err := os.ReadFile(path)
		if err != nil {
			continue
		}
		if id := strings.TrimSpace(string(raw)); id != "" {
			return id
		}
	}
	return ""
}

// primaryMAC returns the first non-loopback interface that is up
func primaryMAC() (string, error) {
	interfaces, err := net.Interfaces()
	if err != nil {
		return "", fmt.Errorf("failed to get network interfaces: %w", err)
	}

	for _, iface := range interfaces {
		if iface.Flags&net.FlagLoopback != 0 || iface.Flags&net.FlagUp == 0 {
			continue
		}
		if mac := iface.HardwareAddr.String(); mac != "" && mac != "00:00:00:00:00:00" {
			return mac, nil
		}
	}
	return "", errors.New("no valid MAC address found")
}
