package auth

import (
	"context"
	"encoding/json"
	"fmt"

	"go.uber.org/zap"

	"github.com/harrisonrobin/tasks/pkg/kv"
	"github.com/harrisonrobin/tasks/pkg/logging"
	"github.com/harrisonrobin/tasks/pkg/model"
)

// SessionKey is the key of the session blob in the key/value store.
const SessionKey = "userData"

// Store persists the signed-in session.
type Store struct {
	kv  kv.Store
	log *zap.SugaredLogger
}

func NewStore(s kv.Store, log *zap.SugaredLogger) *Store {
	return &Store{kv: s, log: logging.OrNop(log)}
}

// Save overwrites the stored session.
func (s *Store) Save(ctx context.Context, sess model.Session) error {
	b, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}
	if err := s.kv.Set(ctx, SessionKey, string(b)); err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}

// Load returns the stored session. A missing or unreadable blob is reported
// as absent; only storage failures are returned as errors.
func (s *Store) Load(ctx context.Context) (model.Session, bool, error) {
	raw, ok, err := s.kv.Get(ctx, SessionKey)
	if err != nil {
		return model.Session{}, false, fmt.Errorf("load session: %w", err)
	}
	if !ok {
		return model.Session{}, false, nil
	}

	var sess model.Session
	if err := json.Unmarshal([]byte(raw), &sess); err != nil {
		s.log.Warnw("discarding unreadable session", "error", err)
		return model.Session{}, false, nil
	}
	if sess.Token == "" {
		s.log.Warnw("discarding session without token")
		return model.Session{}, false, nil
	}
	return sess, true, nil
}

// Clear removes the stored session.
func (s *Store) Clear(ctx context.Context) error {
	if err := s.kv.Delete(ctx, SessionKey); err != nil {
		return fmt.Errorf("clear session: %w", err)
	}
	return nil
}
