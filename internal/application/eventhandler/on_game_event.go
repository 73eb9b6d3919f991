// Package eventhandler содержит обработчики игровых и доменных событий.
package eventhandler

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/alem-hub/puzzle-hub/internal/application/command"
	"github.com/alem-hub/puzzle-hub/internal/domain/achievement"
	"github.com/alem-hub/puzzle-hub/pkg/logger"
)

// ═══════════════════════════════════════════════════════════════════════════
// ON GAME EVENT HANDLER
// Проверяет одно игровое событие против всех определений достижений
// и выдаёт каждое подходящее через AwardAchievementHandler.
//
// Достижения независимы: ошибка при выдаче одного не останавливает
// проверку остальных, а уже выданные остаются выданными.
// ═══════════════════════════════════════════════════════════════════════════

// Awarder - узкий контракт ledger'а, нужный обработчику.
type Awarder interface {
	AwardIfEligible(ctx context.Context, playerID, achievementID string) (command.AwardResult, error)
}

// GameEventResult - результат обработки одного события.
type GameEventResult struct {
	// Awarded - ID достижений, впервые выданных этим событием.
	Awarded []string

	// Evaluated - сколько определений было проверено (без уже полученных).
	Evaluated int
}

// OnGameEventHandler обрабатывает входящие игровые события.
type OnGameEventHandler struct {
	definitions achievement.DefinitionRepository
	awards      achievement.AwardRepository
	awarder     Awarder
	logger      *logger.Logger
}

// NewOnGameEventHandler создаёт обработчик игровых событий.
func NewOnGameEventHandler(
	definitions achievement.DefinitionRepository,
	awards achievement.AwardRepository,
	awarder Awarder,
	log *logger.Logger,
) *OnGameEventHandler {
	if log == nil {
		log = logger.Nop()
	}

	return &OnGameEventHandler{
		definitions: definitions,
		awards:      awards,
		awarder:     awarder,
		logger:      log.With(logger.F("handler", "on_game_event")),
	}
}

// Handle обрабатывает событие и возвращает объединённую ошибку
// по всем достижениям, выдача которых не удалась.
func (h *OnGameEventHandler) Handle(ctx context.Context, ev achievement.GameEvent) error {
	_, err := h.HandleWithResult(ctx, ev)
	return err
}

// HandleWithResult - то же, что Handle, но дополнительно возвращает
// ID впервые выданных достижений.
func (h *OnGameEventHandler) HandleWithResult(ctx context.Context, ev achievement.GameEvent) (GameEventResult, error) {
	start := time.Now()
	result := GameEventResult{Awarded: make([]string, 0)}

	if err := ev.Validate(); err != nil {
		return result, fmt.Errorf("on_game_event: %w", err)
	}

	log := h.logger.With(logger.PlayerID(ev.PlayerID), logger.EventType(string(ev.EventType)))

	defs, err := h.definitions.List(ctx)
	if err != nil {
		log.Error("failed to load achievement definitions", logger.Err(err))
		return result, fmt.Errorf("on_game_event: list definitions: %w", err)
	}

	// Один запрос на событие вместо проверки каждой пары по отдельности.
	earned, err := h.earnedSet(ctx, ev.PlayerID)
	if err != nil {
		log.Error("failed to load player achievements", logger.Err(err))
		return result, fmt.Errorf("on_game_event: list player achievements: %w", err)
	}

	var errs []error
	for _, def := range defs {
		if earned[def.ID] {
			continue
		}
		result.Evaluated++

		if !achievement.IsRecognized(def) {
			log.Debug("skipping achievement with unrecognized rule",
				logger.AchievementID(def.ID),
				logger.RuleType(string(def.RuleType())),
			)
			continue
		}

		if !achievement.Qualifies(def, ev) {
			continue
		}

		res, err := h.awarder.AwardIfEligible(ctx, ev.PlayerID, def.ID)
		if err != nil {
			errs = append(errs, fmt.Errorf("award %s: %w", def.ID, err))
			continue
		}
		if res.Awarded {
			result.Awarded = append(result.Awarded, def.ID)
		}
	}

	if len(result.Awarded) > 0 || len(errs) > 0 {
		log.Info("game event processed",
			logger.Int("awarded", len(result.Awarded)),
			logger.Int("failed", len(errs)),
			logger.Latency(time.Since(start)),
		)
	}

	return result, errors.Join(errs...)
}

// earnedSet возвращает множество ID уже полученных игроком достижений.
func (h *OnGameEventHandler) earnedSet(ctx context.Context, playerID string) (map[string]bool, error) {
	list, err := h.awards.ListByPlayer(ctx, playerID)
	if err != nil {
		return nil, err
	}

	set := make(map[string]bool, len(list))
	for _, pa := range list {
		set[pa.AchievementID] = true
	}
	return set, nil
}
