package sessionstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/2beens/garminpartner/internal/session"
)

var ErrNotFound = errors.New("session not found")

type Store interface {
	Load(ctx context.Context) (*session.Session, error)
	Save(ctx context.Context, s *session.Session) error
	Clear(ctx context.Context) error
}

func seal(sealer *Sealer, s *session.Session) ([]byte, error) {
	if s == nil {
		return nil, errors.New("nil session")
	}
	if err := s.OAuth2.Validate(); err != nil {
		return nil, fmt.Errorf("invalid oauth2 token: %w", err)
	}

	sessionJSON, err := json.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("marshal session: %w", err)
	}

	return sealer.Seal(sessionJSON)
}

func unseal(sealer *Sealer, sealed []byte) (*session.Session, error) {
	sessionJSON, err := sealer.Open(sealed)
	if err != nil {
		return nil, err
	}

	s := &session.Session{}
	if err := json.Unmarshal(sessionJSON, s); err != nil {
		return nil, fmt.Errorf("unmarshal session: %w", err)
	}

	return s, nil
}
