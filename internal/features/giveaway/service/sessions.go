package service

import (
	"sync"
	"time"

	apperrors "giveaway-bot/internal/common/errors"
)

// configSession is the interactive window between draft creation and
// organizer confirmation. It is in-memory only: if the process restarts or
// the session expires, the draft record simply stays a draft until the
// organizer cancels it explicitly.
type configSession struct {
	userID    string
	expiresAt time.Time
}

type sessionRegistry struct {
	mu       sync.Mutex
	ttl      time.Duration
	sessions map[string]*configSession
	now      func() time.Time
}

func newSessionRegistry(ttl time.Duration) *sessionRegistry {
	return &sessionRegistry{
		ttl:      ttl,
		sessions: make(map[string]*configSession),
		now:      time.Now,
	}
}

// open starts a configuration session for the draft announced by messageID,
// authorized for the organizer only.
func (r *sessionRegistry) open(messageID, userID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[messageID] = &configSession{
		userID:    userID,
		expiresAt: r.now().Add(r.ttl),
	}
}

// authorize checks that userID owns an unexpired session for messageID and
// extends the inactivity window. Expiry only disables the offer; no cleanup
// happens here.
func (r *sessionRegistry) authorize(messageID, userID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	session, ok := r.sessions[messageID]
	if !ok {
		return apperrors.New(apperrors.ErrCodeSessionExpired, "This configuration session has expired.")
	}
	if r.now().After(session.expiresAt) {
		delete(r.sessions, messageID)
		return apperrors.New(apperrors.ErrCodeSessionExpired, "This configuration session has expired.")
	}
	if session.userID != userID {
		return apperrors.NewNotAuthorizedError(userID)
	}

	session.expiresAt = r.now().Add(r.ttl)
	return nil
}

func (r *sessionRegistry) close(messageID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, messageID)
}
