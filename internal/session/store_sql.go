package session

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"
)

type SQLStore struct {
	db *sql.DB
}

func NewSQLStore(db *sql.DB) *SQLStore {
	return &SQLStore{db: db}
}

func (s *SQLStore) Get(ctx context.Context, sid string) (State, error) {
	var (
		st          State
		consent     sql.NullInt64
		pendingJSON string
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT sid, user_id, consent, pending_json, wants_url
		FROM sessions WHERE sid=$1`, sid).
		Scan(&st.SID, &st.UserID, &consent, &pendingJSON, &st.WantsURL)
	if errors.Is(err, sql.ErrNoRows) {
		return State{}, ErrNotFound
	}
	if err != nil {
		return State{}, err
	}
	if consent.Valid {
		if consent.Int64 != 0 {
			st.Consent = ConsentAgreed
		} else {
			st.Consent = ConsentDeclined
		}
	}
	if pendingJSON != "" {
		var p PendingAuthRequest
		if err := json.Unmarshal([]byte(pendingJSON), &p); err != nil {
			return State{}, err
		}
		st.Pending = &p
	}
	return st, nil
}

func (s *SQLStore) Put(ctx context.Context, st State) error {
	var consent sql.NullInt64
	switch st.Consent {
	case ConsentAgreed:
		consent = sql.NullInt64{Int64: 1, Valid: true}
	case ConsentDeclined:
		consent = sql.NullInt64{Int64: 0, Valid: true}
	}
	pendingJSON := ""
	if st.Pending != nil {
		b, err := json.Marshal(st.Pending)
		if err != nil {
			return err
		}
		pendingJSON = string(b)
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO sessions (sid, user_id, consent, pending_json, wants_url, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6)
		ON CONFLICT (sid)
		DO UPDATE SET user_id=EXCLUDED.user_id, consent=EXCLUDED.consent,
			pending_json=EXCLUDED.pending_json, wants_url=EXCLUDED.wants_url,
			updated_at=EXCLUDED.updated_at`,
		st.SID, st.UserID, consent, pendingJSON, st.WantsURL, time.Now().Unix())
	return err
}

func (s *SQLStore) Delete(ctx context.Context, sid string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM sessions WHERE sid=$1`, sid)
	return err
}

// Purge drops sessions idle for longer than maxAge, abandoning any pending
// auth requests inside them.
func (s *SQLStore) Purge(ctx context.Context, maxAge time.Duration) error {
	cutoff := time.Now().Add(-maxAge).Unix()
	_, err := s.db.ExecContext(ctx, `DELETE FROM sessions WHERE updated_at < $1`, cutoff)
	return err
}
