package postgres

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/alem-hub/puzzle-hub/internal/domain/achievement"
	"github.com/alem-hub/puzzle-hub/internal/domain/shared"
	"github.com/alem-hub/puzzle-hub/pkg/logger"
)

// Compile-time interface checks.
var (
	_ achievement.DefinitionRepository = (*DefinitionRepository)(nil)
	_ achievement.AwardRepository      = (*AwardRepository)(nil)
)

// ══════════════════════════════════════════════════════════════════════════════
// DEFINITION REPOSITORY
// ══════════════════════════════════════════════════════════════════════════════

// DefinitionRepository implements achievement.DefinitionRepository.
// A row whose rule_value does not decode is returned with an UnknownRule,
// so it never awards but does not hide the other definitions.
type DefinitionRepository struct {
	conn   *Connection
	logger *logger.Logger
}

// NewDefinitionRepository creates a new DefinitionRepository.
func NewDefinitionRepository(conn *Connection, log *logger.Logger) *DefinitionRepository {
	if log == nil {
		log = logger.Nop()
	}
	return &DefinitionRepository{
		conn:   conn,
		logger: log.With(logger.Component("postgres_definition_repo")),
	}
}

const selectAchievementColumns = `id, title, description, icon_url, rule_type, rule_value, created_at`

// List returns all definitions ordered by ID.
func (r *DefinitionRepository) List(ctx context.Context) ([]achievement.Achievement, error) {
	rows, err := r.conn.Query(ctx, `SELECT `+selectAchievementColumns+` FROM achievements ORDER BY id`)
	if err != nil {
		return nil, mapError("ListAchievements", err)
	}
	defer rows.Close()

	out := make([]achievement.Achievement, 0)
	for rows.Next() {
		def, err := r.scanAchievement(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, def)
	}
	if err := rows.Err(); err != nil {
		return nil, mapError("ListAchievements", err)
	}

	return out, nil
}

// Get returns a definition by ID.
func (r *DefinitionRepository) Get(ctx context.Context, id string) (*achievement.Achievement, error) {
	row := r.conn.QueryRow(ctx, `SELECT `+selectAchievementColumns+` FROM achievements WHERE id = $1`, id)

	def, err := r.scanAchievement(row)
	if err != nil {
		if IsNoRows(err) {
			return nil, shared.ErrAchievementNotFound
		}
		return nil, err
	}
	return &def, nil
}

// Upsert creates or replaces a definition. created_at is kept on update.
func (r *DefinitionRepository) Upsert(ctx context.Context, def achievement.Achievement) error {
	if def.ID == "" {
		return shared.ErrInvalidAchievementID
	}

	ruleType, ruleValue := achievement.RuleType(""), []byte("{}")
	if def.Rule != nil {
		var err error
		ruleType, ruleValue, err = achievement.EncodeRule(def.Rule)
		if err != nil {
			return err
		}
	}

	createdAt := def.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	_, err := r.conn.Exec(ctx, `
		INSERT INTO achievements (id, title, description, icon_url, rule_type, rule_value, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (id) DO UPDATE SET
			title = EXCLUDED.title,
			description = EXCLUDED.description,
			icon_url = EXCLUDED.icon_url,
			rule_type = EXCLUDED.rule_type,
			rule_value = EXCLUDED.rule_value,
			updated_at = NOW()
	`, def.ID, def.Title, def.Description, def.IconURL, string(ruleType), ruleValue, createdAt)
	if err != nil {
		return mapError("UpsertAchievement", err)
	}
	return nil
}

func (r *DefinitionRepository) scanAchievement(row pgx.Row) (achievement.Achievement, error) {
	var (
		def       achievement.Achievement
		ruleType  string
		ruleValue []byte
	)

	err := row.Scan(&def.ID, &def.Title, &def.Description, &def.IconURL, &ruleType, &ruleValue, &def.CreatedAt)
	if err != nil {
		if IsNoRows(err) {
			return def, err
		}
		return def, mapError("ScanAchievement", err)
	}

	if ruleType != "" {
		rule, err := achievement.DecodeRule(achievement.RuleType(ruleType), ruleValue)
		if err != nil {
			r.logger.Warn("stored rule does not decode, definition will never award",
				logger.AchievementID(def.ID),
				logger.RuleType(ruleType),
				logger.Err(err),
			)
			rule = achievement.UnknownRule{
				RuleType: achievement.RuleType(ruleType),
				Raw:      append([]byte(nil), ruleValue...),
			}
		}
		def.Rule = rule
	}
	def.CreatedAt = def.CreatedAt.UTC()

	return def, nil
}

// ══════════════════════════════════════════════════════════════════════════════
// AWARD REPOSITORY
// ══════════════════════════════════════════════════════════════════════════════

// AwardRepository implements achievement.AwardRepository. Uniqueness of
// (player_id, achievement_id) is enforced by a table constraint.
type AwardRepository struct {
	conn *Connection
}

// NewAwardRepository creates a new AwardRepository.
func NewAwardRepository(conn *Connection) *AwardRepository {
	return &AwardRepository{conn: conn}
}

// Get returns the award for a (player, achievement) pair.
func (r *AwardRepository) Get(ctx context.Context, playerID, achievementID string) (*achievement.PlayerAchievement, error) {
	var pa achievement.PlayerAchievement

	err := r.conn.QueryRow(ctx, `
		SELECT id, player_id, achievement_id, earned_at
		FROM player_achievements
		WHERE player_id = $1 AND achievement_id = $2
	`, playerID, achievementID).Scan(&pa.ID, &pa.PlayerID, &pa.AchievementID, &pa.EarnedAt)
	if err != nil {
		if IsNoRows(err) {
			return nil, shared.NewDomainError("achievement", "GetAward", shared.ErrNotFound, "award not found")
		}
		return nil, mapError("GetAward", err)
	}

	pa.EarnedAt = pa.EarnedAt.UTC()
	return &pa, nil
}

// InsertIfAbsent inserts the award. A concurrent or repeated insert of the
// same pair fails on the unique constraint and is reported as
// shared.ErrAchievementAwarded.
func (r *AwardRepository) InsertIfAbsent(ctx context.Context, award achievement.PlayerAchievement) error {
	_, err := r.conn.Exec(ctx, `
		INSERT INTO player_achievements (id, player_id, achievement_id, earned_at)
		VALUES ($1, $2, $3, $4)
	`, award.ID, award.PlayerID, award.AchievementID, award.EarnedAt)
	if err != nil {
		if IsUniqueViolation(err) {
			return shared.ErrAchievementAwarded
		}
		return mapError("InsertAward", err)
	}
	return nil
}

// ListByPlayer returns the player's awards, newest first.
func (r *AwardRepository) ListByPlayer(ctx context.Context, playerID string) ([]achievement.PlayerAchievement, error) {
	rows, err := r.conn.Query(ctx, `
		SELECT id, player_id, achievement_id, earned_at
		FROM player_achievements
		WHERE player_id = $1
		ORDER BY earned_at DESC, id DESC
	`, playerID)
	if err != nil {
		return nil, mapError("ListAwards", err)
	}
	defer rows.Close()

	out := make([]achievement.PlayerAchievement, 0)
	for rows.Next() {
		var pa achievement.PlayerAchievement
		if err := rows.Scan(&pa.ID, &pa.PlayerID, &pa.AchievementID, &pa.EarnedAt); err != nil {
			return nil, mapError("ListAwards", err)
		}
		pa.EarnedAt = pa.EarnedAt.UTC()
		out = append(out, pa)
	}
	if err := rows.Err(); err != nil {
		return nil, mapError("ListAwards", err)
	}

	return out, nil
}
