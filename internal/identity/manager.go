// Package identity owns who this installation is: a stable anonymous CLI
// user id persisted under the Builder data directory, a per-process session
// id, a hashed machine id, and the optional backend user id resolved from
// the profile endpoint. Everything degrades: a broken identity file yields a
// fresh in-memory identity rather than an error.
package identity

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"sync"
	"time"

	"github.com/denisbrodbeck/machineid"
	"github.com/google/uuid"

	"builderbridge/internal/api"
	bridgeerrors "builderbridge/internal/errors"
	"builderbridge/internal/logging"
	"builderbridge/internal/telemetry"
)

// UnknownMachineID stands in when the hardware id cannot be determined.
const UnknownMachineID = "unknown"

// machineIDAppKey scopes the hashed machine id to this product so the raw
// hardware id never leaves the host.
const machineIDAppKey = "builder"

// ProfileFetcher resolves the backend profile for a token. api.Client
// implements it.
type ProfileFetcher interface {
	FetchProfile(ctx context.Context, token string) (api.Profile, error)
}

// Reporter receives fire-and-forget degradation reports.
type Reporter interface {
	ReportError(ctx context.Context, event string, properties map[string]any)
}

// Manager hands out identity values. It is safe for concurrent use.
//
// The persisted CLI user id loads lazily on first access, so a telemetry
// reporter attached between construction and first use still sees identity
// degradations.
type Manager struct {
	mu            sync.Mutex
	loaded        bool
	cliUserID     string
	builderUserID string
	reporter      Reporter

	sessionID    string
	sessionStart time.Time

	machineOnce sync.Once
	machineID   string

	homeDir      func() (string, error)
	readFile     func(string) ([]byte, error)
	now          func() time.Time
	newID        func() string
	probe        func() (string, error)
	fetchProfile ProfileFetcher
	logger       logging.Logger
}

// Option customises a Manager.
type Option func(*Manager)

// WithHomeDir overrides home directory resolution.
func WithHomeDir(homeDir func() (string, error)) Option {
	return func(m *Manager) {
		if homeDir != nil {
			m.homeDir = homeDir
		}
	}
}

// WithFileReader overrides how the identity file is read.
func WithFileReader(readFile func(string) ([]byte, error)) Option {
	return func(m *Manager) {
		if readFile != nil {
			m.readFile = readFile
		}
	}
}

// WithNow overrides the clock.
func WithNow(now func() time.Time) Option {
	return func(m *Manager) {
		if now != nil {
			m.now = now
		}
	}
}

// WithIDGenerator overrides how fresh ids are minted.
func WithIDGenerator(newID func() string) Option {
	return func(m *Manager) {
		if newID != nil {
			m.newID = newID
		}
	}
}

// WithMachineIDProbe overrides the hardware id probe.
func WithMachineIDProbe(probe func() (string, error)) Option {
	return func(m *Manager) {
		if probe != nil {
			m.probe = probe
		}
	}
}

// WithProfileFetcher wires the backend client used to resolve the remote
// user id.
func WithProfileFetcher(fetcher ProfileFetcher) Option {
	return func(m *Manager) {
		m.fetchProfile = fetcher
	}
}

// WithLogger supplies the debug logger.
func WithLogger(logger logging.Logger) Option {
	return func(m *Manager) {
		m.logger = logging.OrNop(logger)
	}
}

// NewManager builds a Manager. The session id is minted immediately and
// never persisted; every process gets a fresh one.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		homeDir:  os.UserHomeDir,
		readFile: os.ReadFile,
		now:      time.Now,
		newID:    uuid.NewString,
		probe:    func() (string, error) { return machineid.ProtectedID(machineIDAppKey) },
		logger:   logging.Nop(),
	}
	for _, opt := range opts {
		opt(m)
	}
	m.sessionID = m.newID()
	m.sessionStart = m.now()
	return m
}

var (
	defaultOnce    sync.Once
	defaultManager *Manager
)

// Default returns the process-wide Manager.
func Default() *Manager {
	defaultOnce.Do(func() {
		defaultManager = NewManager(WithLogger(logging.NewComponentLogger("identity")))
	})
	return defaultManager
}

// AttachReporter wires telemetry reporting for identity degradations. It is
// called after the recorder exists since the recorder itself tags events
// with values from this manager.
func (m *Manager) AttachReporter(reporter Reporter) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.reporter = reporter
}

// AttachProfileFetcher wires the backend client after construction. The
// client is usually built later than the manager because its telemetry
// reporter tags events with this manager's ids.
func (m *Manager) AttachProfileFetcher(fetcher ProfileFetcher) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.fetchProfile = fetcher
}

// Initialize front-loads the identity state: the persisted CLI user id and
// the machine id probe. Every accessor initializes lazily on demand, so the
// call is optional; the wiring layer uses it to surface filesystem
// degradations at startup rather than on first use.
func (m *Manager) Initialize() {
	m.mu.Lock()
	m.ensureLocked()
	m.mu.Unlock()
	m.MachineID()
}

// CLIUserID returns the stable installation id, minting and persisting a
// fresh one on first use when no usable identity file exists.
func (m *Manager) CLIUserID() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ensureLocked()
	return m.cliUserID
}

// BuilderUserID returns the backend user id from the last successful
// profile fetch, or "".
func (m *Manager) BuilderUserID() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.builderUserID
}

// DistinctID returns the id telemetry should key on: the backend user id
// when known, the CLI user id otherwise.
func (m *Manager) DistinctID() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.builderUserID != "" {
		return m.builderUserID
	}
	m.ensureLocked()
	return m.cliUserID
}

// SessionID returns this process's session id.
func (m *Manager) SessionID() string {
	return m.sessionID
}

// SessionStart returns the instant this process's session began.
func (m *Manager) SessionStart() time.Time {
	return m.sessionStart
}

// MachineID returns the hashed hardware id, probing at most once. Probe
// failures read as UnknownMachineID.
func (m *Manager) MachineID() string {
	m.machineOnce.Do(func() {
		id, err := m.probe()
		if err != nil {
			m.logger.Debug("machine id probe failed: %v", err)
		}
		if err != nil || id == "" {
			m.machineID = UnknownMachineID
			return
		}
		m.machineID = id
	})
	return m.machineID
}

// UpdateBuilderUserID refreshes the backend user id from the profile
// endpoint. Any failure, an empty token included, clears the stored id so a
// stale identity never sticks to telemetry.
func (m *Manager) UpdateBuilderUserID(ctx context.Context, token string) {
	m.mu.Lock()
	fetcher := m.fetchProfile
	m.mu.Unlock()

	if fetcher == nil || token == "" {
		m.setBuilderUserID("")
		return
	}
	profile, err := fetcher.FetchProfile(ctx, token)
	if err != nil {
		m.setBuilderUserID("")
		return
	}
	m.setBuilderUserID(profile.User.Email)
}

func (m *Manager) setBuilderUserID(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.builderUserID = id
}

// Reset deletes the persisted identity file and clears in-memory state. The
// next CLIUserID call mints a fresh id.
func (m *Manager) Reset() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.loaded = false
	m.cliUserID = ""
	m.builderUserID = ""

	home, err := m.homeDir()
	if err != nil {
		return fmt.Errorf("resolve home directory: %w", err)
	}
	return removeRecord(Path(home))
}

// ensureLocked loads or creates the persisted identity. Callers hold mu.
func (m *Manager) ensureLocked() {
	if m.loaded {
		return
	}
	m.loaded = true

	home, err := m.homeDir()
	if err != nil {
		m.cliUserID = m.newID()
		m.degradeLocked("resolve home directory", bridgeerrors.NewFilesystem("$HOME", err))
		return
	}
	path := Path(home)
	now := m.now()

	rec, err := loadRecord(m.readFile, path)
	if err == nil {
		m.cliUserID = rec.CLIUserID
		rec.LastUsed = now
	} else {
		// A missing file is the normal first run; anything else means the
		// previous identity is lost.
		if !errors.Is(err, fs.ErrNotExist) {
			m.degradeLocked("load identity file", err)
		}
		m.cliUserID = m.newID()
		rec = Record{CLIUserID: m.cliUserID, CreatedAt: now, LastUsed: now}
	}

	if err := saveRecord(path, rec); err != nil {
		m.degradeLocked("persist identity file", err)
	}
}

// degradeLocked logs an identity degradation and reports it off the calling
// goroutine. The reporter reads identity values back through this manager,
// so invoking it synchronously under mu would deadlock.
func (m *Manager) degradeLocked(action string, err error) {
	m.logger.Debug("%s failed (%s): %v", action, bridgeerrors.Classify(err), err)
	if m.reporter == nil {
		return
	}
	reporter := m.reporter
	props := map[string]any{
		telemetry.PropertyErrorCategory: string(bridgeerrors.Classify(err)),
	}
	go reporter.ReportError(context.Background(), telemetry.EventIdentityPersistFailed, props)
}
