// Package budget — оценка расходов маршрута относительно лимитов. Только чистые функции.
package budget

import (
	"fmt"
	"time"

	"github.com/jinzhu/now"
)

// WarnRatio — доля общего лимита, после которой выдаётся предупреждение.
const WarnRatio = 0.8

type Level string

const (
	LevelSufficient Level = "Sufficient"
	LevelWarning    Level = "Warning"
	LevelOver       Level = "Over"
)

type Limits struct {
	Total float64
	Daily float64
}

// Advisory — рекомендация, которая ничего не блокирует.
type Advisory struct {
	Level     Level
	Projected float64
	// Процент от лимита, 0 если лимит не задан.
	Percent float64
	Message string
}

// Evaluate сравнивает исторические расходы плюс новую трату с общим лимитом.
func Evaluate(limits Limits, historical, proposed float64) Advisory {
	projected := historical + proposed
	if limits.Total > 0 && projected/limits.Total > WarnRatio {
		pct := projected / limits.Total * 100
		return Advisory{
			Level:     LevelWarning,
			Projected: projected,
			Percent:   pct,
			Message:   fmt.Sprintf("Warning: projected total expenses will reach %.0f%% of the budget.", pct),
		}
	}

	a := Advisory{Level: LevelSufficient, Projected: projected, Message: "Budget is sufficient."}
	if limits.Total > 0 {
		a.Percent = projected / limits.Total * 100
	}
	return a
}

// EvaluateDay проверяет дневной лимит. При превышении Over, иначе Sufficient.
func EvaluateDay(dailyLimit, spentToday, proposed float64) Advisory {
	projected := spentToday + proposed
	if dailyLimit > 0 && projected > dailyLimit {
		return Advisory{
			Level:     LevelOver,
			Projected: projected,
			Percent:   projected / dailyLimit * 100,
			Message:   fmt.Sprintf("Daily limit exceeded: %.2f of %.2f.", projected, dailyLimit),
		}
	}

	a := Advisory{Level: LevelSufficient, Projected: projected, Message: "Daily budget is sufficient."}
	if dailyLimit > 0 {
		a.Percent = projected / dailyLimit * 100
	}
	return a
}

// DayWindow — полуинтервал [начало дня, начало следующего дня) для t в его часовом поясе.
func DayWindow(t time.Time) (time.Time, time.Time) {
	start := now.With(t).BeginningOfDay()
	return start, start.AddDate(0, 0, 1)
}
