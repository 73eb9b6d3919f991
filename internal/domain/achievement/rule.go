package achievement

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/alem-hub/puzzle-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// RULES (tagged variant)
// ══════════════════════════════════════════════════════════════════════════════

// Rule - параметры правила достижения. Каждый тип правила - отдельная структура.
// В хранилище правило лежит парой (rule_type, rule_value JSON).
type Rule interface {
	// Type возвращает тип правила.
	Type() RuleType
}

// CompletionTimeRule - головоломка решена не дольше MaxTime секунд.
type CompletionTimeRule struct {
	MaxTime float64 `json:"maxTime"`
}

// Type implements Rule.
func (CompletionTimeRule) Type() RuleType { return RuleTypeCompletionTime }

// LoginStreakRule - не меньше RequiredDays дней входа подряд.
type LoginStreakRule struct {
	RequiredDays int `json:"requiredDays"`
}

// Type implements Rule.
func (LoginStreakRule) Type() RuleType { return RuleTypeLoginStreak }

// TotalPuzzlesRule - всего решено не меньше RequiredTotal головоломок.
type TotalPuzzlesRule struct {
	RequiredTotal int `json:"requiredTotal"`
}

// Type implements Rule.
func (TotalPuzzlesRule) Type() RuleType { return RuleTypeTotalPuzzles }

// FirstPuzzleRule - первая решённая головоломка.
// При IsFirstPuzzle == false правило отключено.
type FirstPuzzleRule struct {
	IsFirstPuzzle bool `json:"isFirstPuzzle"`
}

// Type implements Rule.
func (FirstPuzzleRule) Type() RuleType { return RuleTypeFirstPuzzle }

// DailyLoginRule - любой вход в игру. Параметров нет.
type DailyLoginRule struct{}

// Type implements Rule.
func (DailyLoginRule) Type() RuleType { return RuleTypeDailyLogin }

// UnknownRule - правило с неподдерживаемым типом. Никогда не выполняется.
// Сырое значение сохраняется, чтобы запись можно было вернуть без потерь.
type UnknownRule struct {
	RuleType RuleType
	Raw      json.RawMessage
}

// Type implements Rule.
func (r UnknownRule) Type() RuleType { return r.RuleType }

// ══════════════════════════════════════════════════════════════════════════════
// ENCODING
// ══════════════════════════════════════════════════════════════════════════════

// DecodeRule восстанавливает правило из пары (тип, JSON).
// Неизвестный тип не является ошибкой и превращается в UnknownRule.
// Пустое значение для известного типа даёт правило с нулевыми параметрами.
func DecodeRule(ruleType RuleType, raw []byte) (Rule, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		raw = []byte("{}")
	}

	var (
		rule Rule
		err  error
	)

	switch ruleType {
	case RuleTypeCompletionTime:
		var r CompletionTimeRule
		err = json.Unmarshal(raw, &r)
		if err == nil && r.MaxTime < 0 {
			err = shared.ErrNegativeValue
		}
		rule = r
	case RuleTypeLoginStreak:
		var r LoginStreakRule
		err = json.Unmarshal(raw, &r)
		if err == nil && r.RequiredDays < 0 {
			err = shared.ErrNegativeValue
		}
		rule = r
	case RuleTypeTotalPuzzles:
		var r TotalPuzzlesRule
		err = json.Unmarshal(raw, &r)
		if err == nil && r.RequiredTotal < 0 {
			err = shared.ErrNegativeValue
		}
		rule = r
	case RuleTypeFirstPuzzle:
		var r FirstPuzzleRule
		err = json.Unmarshal(raw, &r)
		rule = r
	case RuleTypeDailyLogin:
		rule = DailyLoginRule{}
	default:
		return UnknownRule{RuleType: ruleType, Raw: append(json.RawMessage(nil), raw...)}, nil
	}

	if err != nil {
		return nil, shared.WrapError("achievement", "DecodeRule", shared.ErrInvalidRuleValue,
			fmt.Sprintf("invalid value for rule %s", ruleType), err)
	}
	return rule, nil
}

// EncodeRule сериализует правило в пару (тип, JSON).
func EncodeRule(rule Rule) (RuleType, []byte, error) {
	if rule == nil {
		return "", nil, shared.ErrInvalidRuleType
	}
	if u, ok := rule.(UnknownRule); ok {
		raw := u.Raw
		if len(raw) == 0 {
			raw = json.RawMessage("{}")
		}
		return u.RuleType, raw, nil
	}

	raw, err := json.Marshal(rule)
	if err != nil {
		return "", nil, fmt.Errorf("marshal rule %s: %w", rule.Type(), err)
	}
	return rule.Type(), raw, nil
}
