package postgres

import (
	"context"
	"time"

	"github.com/marquessam/select-start-api/internal/domain/user"
	"github.com/marquessam/select-start-api/pkg/logger"
)

// Progress track labels used by the ingestion process.
const (
	trackMonthly = "monthly"
	trackShadow  = "shadow"
)

// UserRepository implements user.Repository for PostgreSQL.
//
// One malformed row never aborts an aggregation: rows that fail to scan
// are logged and skipped, and the fold sees everyone else.
type UserRepository struct {
	conn   *Connection
	logger *logger.Logger
}

// NewUserRepository creates a new UserRepository.
func NewUserRepository(conn *Connection, log *logger.Logger) *UserRepository {
	if log == nil {
		log = logger.Default()
	}
	return &UserRepository{
		conn:   conn,
		logger: log.With(logger.Component("user_repo")),
	}
}

// MonthlyProgress returns every user's primary and shadow standing for the
// given period key.
func (r *UserRepository) MonthlyProgress(ctx context.Context, periodKey string) ([]user.MonthlyProgress, error) {
	ctx, cancel := r.conn.QueryContext(ctx)
	defer cancel()

	rows, err := r.conn.Query(ctx, `
		SELECT u.id, u.username, u.discord_id,
		       p.track, p.tier, p.achievements, p.total_achievements, p.completion
		FROM challenge_progress p
		JOIN users u ON u.id = p.user_id
		WHERE p.period_key = $1
		ORDER BY u.username
	`, periodKey)
	if err != nil {
		return nil, storeError("MonthlyProgress", err)
	}
	defer rows.Close()

	byUser := make(map[string]*user.MonthlyProgress)
	var order []string

	for rows.Next() {
		var (
			u     user.User
			track string
			p     user.Progress
		)
		if err := rows.Scan(&u.ID, &u.Username, &u.DiscordID,
			&track, &p.Tier, &p.Achievements, &p.TotalAchievements, &p.Completion); err != nil {
			r.logger.Warn("skipping malformed progress row",
				logger.PeriodKey(periodKey), logger.Err(err))
			continue
		}

		mp, ok := byUser[u.ID]
		if !ok {
			mp = &user.MonthlyProgress{User: u, PeriodKey: periodKey}
			byUser[u.ID] = mp
			order = append(order, u.ID)
		}
		switch track {
		case trackShadow:
			mp.Shadow = p
		default:
			mp.Primary = p
		}
	}
	if err := rows.Err(); err != nil {
		return nil, storeError("MonthlyProgress", err)
	}

	result := make([]user.MonthlyProgress, 0, len(order))
	for _, id := range order {
		result = append(result, *byUser[id])
	}
	return result, nil
}

// YearRecords returns, per user, the period progress rows and community
// awards that can contribute to the given year's leaderboard.
func (r *UserRepository) YearRecords(ctx context.Context, year int) ([]user.YearRecord, error) {
	ctx, cancel := r.conn.QueryContext(ctx)
	defer cancel()

	byUser := make(map[string]*user.YearRecord)
	var order []string
	record := func(u user.User) *user.YearRecord {
		rec, ok := byUser[u.ID]
		if !ok {
			rec = &user.YearRecord{User: u}
			byUser[u.ID] = rec
			order = append(order, u.ID)
		}
		return rec
	}

	// Progress rows are keyed by period key; the prefix match mirrors the
	// year-scope test the ranking fold applies.
	rows, err := r.conn.Query(ctx, `
		SELECT u.id, u.username, u.discord_id,
		       p.period_key, p.track, p.tier, p.achievements, p.total_achievements, p.completion
		FROM challenge_progress p
		JOIN users u ON u.id = p.user_id
		WHERE p.period_key LIKE $1
		ORDER BY u.username, p.period_key
	`, periodKeyYearPattern(year))
	if err != nil {
		return nil, storeError("YearRecords", err)
	}

	type keyed struct {
		userID string
		key    string
	}
	periodIdx := make(map[keyed]int)

	for rows.Next() {
		var (
			u         user.User
			periodKey string
			track     string
			p         user.Progress
		)
		if err := rows.Scan(&u.ID, &u.Username, &u.DiscordID,
			&periodKey, &track, &p.Tier, &p.Achievements, &p.TotalAchievements, &p.Completion); err != nil {
			r.logger.Warn("skipping malformed progress row",
				logger.Int("year", year), logger.Err(err))
			continue
		}

		rec := record(u)
		k := keyed{userID: u.ID, key: periodKey}
		idx, ok := periodIdx[k]
		if !ok {
			rec.Progress = append(rec.Progress, user.PeriodProgress{PeriodKey: periodKey})
			idx = len(rec.Progress) - 1
			periodIdx[k] = idx
		}
		switch track {
		case trackShadow:
			rec.Progress[idx].Shadow = p
		default:
			rec.Progress[idx].Primary = p
		}
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, storeError("YearRecords", err)
	}
	rows.Close()

	awardRows, err := r.conn.Query(ctx, `
		SELECT u.id, u.username, u.discord_id, a.points, a.reason, a.awarded_at
		FROM community_awards a
		JOIN users u ON u.id = a.user_id
		WHERE a.awarded_at >= $1 AND a.awarded_at < $2
	`, yearStart(year), yearStart(year+1))
	if err != nil {
		return nil, storeError("YearRecords", err)
	}
	defer awardRows.Close()

	for awardRows.Next() {
		var (
			u user.User
			a user.CommunityAward
		)
		if err := awardRows.Scan(&u.ID, &u.Username, &u.DiscordID,
			&a.Points, &a.Reason, &a.AwardedAt); err != nil {
			r.logger.Warn("skipping malformed award row",
				logger.Int("year", year), logger.Err(err))
			continue
		}
		rec := record(u)
		rec.Awards = append(rec.Awards, a)
	}
	if err := awardRows.Err(); err != nil {
		return nil, storeError("YearRecords", err)
	}

	result := make([]user.YearRecord, 0, len(order))
	for _, id := range order {
		result = append(result, *byUser[id])
	}
	return result, nil
}

// NominationsSince returns all nominations made at or after the given
// instant.
func (r *UserRepository) NominationsSince(ctx context.Context, since time.Time) ([]user.Nomination, error) {
	ctx, cancel := r.conn.QueryContext(ctx)
	defer cancel()

	rows, err := r.conn.Query(ctx, `
		SELECT u.id, u.username, u.discord_id,
		       n.game_id, n.game_title, n.console_name, n.nominated_at
		FROM nominations n
		JOIN users u ON u.id = n.user_id
		WHERE n.nominated_at >= $1
		ORDER BY n.nominated_at
	`, since.UTC())
	if err != nil {
		return nil, storeError("NominationsSince", err)
	}
	defer rows.Close()

	var result []user.Nomination
	for rows.Next() {
		var n user.Nomination
		if err := rows.Scan(&n.User.ID, &n.User.Username, &n.User.DiscordID,
			&n.GameID, &n.GameTitle, &n.Console, &n.NominatedAt); err != nil {
			r.logger.Warn("skipping malformed nomination row", logger.Err(err))
			continue
		}
		result = append(result, n)
	}
	if err := rows.Err(); err != nil {
		return nil, storeError("NominationsSince", err)
	}
	return result, nil
}

func periodKeyYearPattern(year int) string {
	return time.Date(year, 1, 1, 0, 0, 0, 0, time.UTC).Format("2006") + "-%"
}

func yearStart(year int) time.Time {
	return time.Date(year, 1, 1, 0, 0, 0, 0, time.UTC)
}
