package auth

import (
	"context"
	"sync"
	"time"

	"github.com/dgrijalva/jwt-go"
	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/upskillhub/upskill/core"
	"github.com/upskillhub/upskill/core/user"
)

const audience = "Upskill"

var (
	// errors
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrAccountDeactivated = errors.New("account deactivated")
	ErrRefreshExpired     = errors.New("refresh has expired")
	ErrSessionRevoked     = errors.New("session has been revoked")
	ErrManagerClosed      = errors.New("session manager is not running")
)

// Claims represents the authorization claims transmitted via a JWT.
type Claims struct {
	jwt.StandardClaims
	OrigIssuedAt int64    `json:"oriat,omitempty"`
	Email        string   `json:"email,omitempty"`
	Roles        []string `json:"roles,omitempty"`
}

// Session is the authenticated context of a request. Handlers receive it explicitly.
type Session struct {
	ID           string
	User         user.User
	IssuedAt     time.Time
	ExpiresAt    time.Time
	OrigIssuedAt time.Time
}

func (s Session) HasRole(role string) bool { return s.User.HasRole(role) }
func (s Session) IsAdmin() bool            { return s.User.IsAdmin() }

// Manager issues, resolves and revokes sessions.
// It must be initialised with Init before use and released with Close on shutdown.
type Manager struct {
	conf    *core.Config
	usrSvc  user.Service
	logger  core.Logger
	signKey []byte

	mu      sync.RWMutex
	running bool
	revoked map[string]time.Time // session ID -> token expiry
	stop    chan struct{}
	done    chan struct{}
}

func NewManager(conf *core.Config, usrSvc user.Service, logger core.Logger) *Manager {
	return &Manager{
		conf:    conf,
		usrSvc:  usrSvc,
		logger:  logger,
		signKey: []byte(conf.SecretKey),
	}
}

// SigningKey is the HS256 key the JWT middleware verifies tokens with.
func (m *Manager) SigningKey() []byte { return m.signKey }

// Init starts the manager and the sweeper forgetting revoked sessions once their token expired.
func (m *Manager) Init() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.running {
		return nil
	}
	m.running = true
	m.revoked = make(map[string]time.Time)
	m.stop = make(chan struct{})
	m.done = make(chan struct{})

	interval := m.conf.Server.SessionSweepInterval
	if interval <= 0 {
		interval = 10 * time.Minute
	}
	go m.sweep(interval, m.stop, m.done)
	return nil
}

// Close stops the sweeper and drops every revocation. It is safe to call more than once.
func (m *Manager) Close() error {
	m.mu.Lock()
	if !m.running {
		m.mu.Unlock()
		return nil
	}
	m.running = false
	close(m.stop)
	done := m.done
	m.mu.Unlock()

	<-done

	m.mu.Lock()
	m.revoked = nil
	m.mu.Unlock()
	return nil
}

func (m *Manager) sweep(interval time.Duration, stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case now := <-ticker.C:
			m.purgeExpired(now)
		}
	}
}

func (m *Manager) purgeExpired(now time.Time) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int
	for id, exp := range m.revoked {
		if now.After(exp) {
			delete(m.revoked, id)
			n++
		}
	}
	if n > 0 {
		m.logger.Debug("purged expired session revocations", map[string]interface{}{"count": n})
	}
	return n
}

func (m *Manager) checkRunning() error {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if !m.running {
		return ErrManagerClosed
	}
	return nil
}

// SignIn authenticates a User by email & password and opens a new Session.
func (m *Manager) SignIn(ctx context.Context, email, pwd string) (Session, string, error) {
	if err := m.checkRunning(); err != nil {
		return Session{}, "", err
	}

	usr, err := m.usrSvc.GetByEmail(ctx, email)
	if err != nil {
		if errors.Cause(err) == user.ErrNotFound {
			return Session{}, "", ErrInvalidCredentials
		}
		return Session{}, "", errors.Wrap(err, "finding user by email")
	}
	if err = usr.CheckPassword(pwd); err != nil {
		return Session{}, "", ErrInvalidCredentials
	}
	if !usr.Active() {
		return Session{}, "", ErrAccountDeactivated
	}
	usr, err = m.usrSvc.SetLastLogin(ctx, usr)
	if err != nil {
		return Session{}, "", errors.Wrap(err, "setting lastLogin")
	}
	return m.Issue(usr)
}

// Issue opens a new Session for the User and returns it with its signed token.
func (m *Manager) Issue(usr user.User, origIat ...time.Time) (Session, string, error) {
	now := time.Now()
	sess := Session{
		ID:           uuid.New().String(),
		User:         usr,
		IssuedAt:     now,
		ExpiresAt:    now.Add(m.conf.Server.JWTExpirationDelta),
		OrigIssuedAt: now,
	}
	if len(origIat) > 0 {
		sess.OrigIssuedAt = origIat[0]
	}

	token, err := m.GenerateToken(m.claims(sess))
	if err != nil {
		return Session{}, "", errors.Wrap(err, "generating token")
	}
	return sess, token, nil
}

func (m *Manager) claims(sess Session) *Claims {
	return &Claims{
		StandardClaims: jwt.StandardClaims{
			Id:        sess.ID,
			Issuer:    m.conf.AppName,
			Subject:   sess.User.ID,
			Audience:  audience,
			ExpiresAt: sess.ExpiresAt.Unix(),
			IssuedAt:  sess.IssuedAt.Unix(),
		},
		OrigIssuedAt: sess.OrigIssuedAt.Unix(),
		Email:        sess.User.Email,
		Roles:        sess.User.Roles,
	}
}

// GenerateToken generates a signed JWT token string representing the Claims.
func (m *Manager) GenerateToken(claims *Claims) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	ss, err := token.SignedString(m.signKey)
	if err != nil {
		return "", errors.Wrap(err, "signing token")
	}
	return ss, nil
}

// Resolve turns verified JWT claims into a Session, reloading the User.
func (m *Manager) Resolve(ctx context.Context, claims *Claims) (Session, error) {
	if err := m.checkRunning(); err != nil {
		return Session{}, err
	}
	if claims == nil || claims.Subject == "" {
		return Session{}, ErrSessionRevoked
	}
	if m.isRevoked(claims.Id) {
		return Session{}, ErrSessionRevoked
	}

	usr, err := m.usrSvc.GetByID(ctx, claims.Subject)
	if err != nil {
		if errors.Cause(err) == user.ErrNotFound {
			return Session{}, ErrSessionRevoked
		}
		return Session{}, errors.Wrap(err, "finding user by ID")
	}
	if !usr.Active() {
		return Session{}, ErrAccountDeactivated
	}

	return Session{
		ID:           claims.Id,
		User:         usr,
		IssuedAt:     time.Unix(claims.IssuedAt, 0),
		ExpiresAt:    time.Unix(claims.ExpiresAt, 0),
		OrigIssuedAt: time.Unix(claims.OrigIssuedAt, 0),
	}, nil
}

// Refresh issues a new token for the Session as long as the refresh window is still open.
// The previous session is revoked.
func (m *Manager) Refresh(ctx context.Context, sess Session) (Session, string, error) {
	if err := m.checkRunning(); err != nil {
		return Session{}, "", err
	}
	if !sess.User.Active() {
		return Session{}, "", ErrAccountDeactivated
	}
	if time.Now().After(sess.OrigIssuedAt.Add(m.conf.Server.JWTRefreshExpirationDelta)) {
		return Session{}, "", ErrRefreshExpired
	}
	newSess, token, err := m.Issue(sess.User, sess.OrigIssuedAt)
	if err != nil {
		return Session{}, "", err
	}
	m.revoke(sess)
	return newSess, token, nil
}

// SignOut revokes the Session until its token expires.
func (m *Manager) SignOut(sess Session) error {
	if err := m.checkRunning(); err != nil {
		return err
	}
	m.revoke(sess)
	return nil
}

func (m *Manager) revoke(sess Session) {
	if sess.ID == "" {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.revoked != nil {
		m.revoked[sess.ID] = sess.ExpiresAt
	}
}

func (m *Manager) isRevoked(id string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.revoked[id]
	return ok
}
