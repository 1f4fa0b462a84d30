package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/marquessam/select-start-api/internal/domain/challenge"
	"github.com/marquessam/select-start-api/internal/domain/shared"
)

// ChallengeRepository implements challenge.Repository for PostgreSQL.
type ChallengeRepository struct {
	conn *Connection
}

// NewChallengeRepository creates a new ChallengeRepository.
func NewChallengeRepository(conn *Connection) *ChallengeRepository {
	return &ChallengeRepository{conn: conn}
}

const challengeColumns = `
	id, starts_at, ends_at,
	monthly_game_id, monthly_game_title, monthly_total,
	shadow_game_id, shadow_game_title, shadow_total, shadow_revealed
`

// Current returns the challenge whose period contains the given instant.
func (r *ChallengeRepository) Current(ctx context.Context, at time.Time) (*challenge.Challenge, error) {
	ctx, cancel := r.conn.QueryContext(ctx)
	defer cancel()

	row := r.conn.QueryRow(ctx, `
		SELECT `+challengeColumns+`
		FROM challenges
		WHERE starts_at <= $1 AND ends_at > $1
		ORDER BY starts_at DESC
		LIMIT 1
	`, at.UTC())

	ch, err := scanChallenge(row)
	if IsNoRows(err) {
		return nil, shared.ErrNoCurrentChallenge
	}
	if err != nil {
		return nil, storeError("Current", err)
	}
	return ch, nil
}

// ByPeriodKey returns the challenge starting on the given period key date.
func (r *ChallengeRepository) ByPeriodKey(ctx context.Context, periodKey string) (*challenge.Challenge, error) {
	ctx, cancel := r.conn.QueryContext(ctx)
	defer cancel()

	row := r.conn.QueryRow(ctx, `
		SELECT `+challengeColumns+`
		FROM challenges
		WHERE starts_at::date = $1::date
		LIMIT 1
	`, periodKey)

	ch, err := scanChallenge(row)
	if IsNoRows(err) {
		return nil, shared.ErrChallengeNotFound
	}
	if err != nil {
		return nil, storeError("ByPeriodKey", err)
	}
	return ch, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanChallenge(row rowScanner) (*challenge.Challenge, error) {
	var ch challenge.Challenge
	err := row.Scan(
		&ch.ID,
		&ch.StartsAt,
		&ch.EndsAt,
		&ch.MonthlyGameID,
		&ch.MonthlyGameTitle,
		&ch.MonthlyTotal,
		&ch.ShadowGameID,
		&ch.ShadowGameTitle,
		&ch.ShadowTotal,
		&ch.ShadowRevealed,
	)
	if err != nil {
		return nil, err
	}
	return &ch, nil
}

// storeError maps a failed store query onto the shared error taxonomy:
// deadline overruns become timeouts, everything else source-unavailable.
// Callers never see raw driver errors.
func storeError(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return shared.WrapError("store", op, shared.ErrTimeout, "record store query timed out", err)
	}
	return shared.WrapError("store", op, shared.ErrSourceUnavailable, "record store is unreachable", err)
}
