package replan

import (
	"slices"

	"github.com/google/uuid"

	"github.com/Leganyst/travel-core/internal/config"
	"github.com/Leganyst/travel-core/internal/model"
	"github.com/Leganyst/travel-core/internal/repository"
)

// Disruption — событие, из-за которого план может потребовать замены.
type Disruption struct {
	Type   string
	Detail string
}

// Rule — строка таблицы анализа сбоев.
type Rule struct {
	Type    string
	Detail  string
	Affects []model.ActivityType
	// Какие типы предпочитать в замену.
	Prefer []model.ActivityType
}

func (r Rule) matches(d Disruption) bool {
	return r.Type == d.Type && r.Detail == d.Detail
}

// Policy — таблица правил. Первое совпавшее правило определяет затронутые активности.
type Policy struct {
	rules []Rule
}

// DefaultPolicy — сильный дождь отменяет посещение открытых достопримечательностей.
func DefaultPolicy() *Policy {
	return &Policy{rules: []Rule{{
		Type:    "weather",
		Detail:  "heavy_rain",
		Affects: []model.ActivityType{model.ActivityTypeVisitPOI},
		Prefer:  []model.ActivityType{model.ActivityTypeIndoor},
	}}}
}

// PolicyFromFile строит таблицу из YAML-конфига. Для пустого файла берутся правила по умолчанию.
func PolicyFromFile(pf *config.PolicyFile) *Policy {
	if pf == nil || len(pf.Rules) == 0 {
		return DefaultPolicy()
	}
	p := &Policy{rules: make([]Rule, 0, len(pf.Rules))}
	for _, r := range pf.Rules {
		p.rules = append(p.rules, Rule{
			Type:    r.Type,
			Detail:  r.Detail,
			Affects: toTypes(r.Affects),
			Prefer:  toTypes(r.Prefer),
		})
	}
	return p
}

func toTypes(in []string) []model.ActivityType {
	out := make([]model.ActivityType, len(in))
	for i, s := range in {
		out[i] = model.ActivityType(s)
	}
	return out
}

// Rule возвращает правило для сбоя, если оно есть.
func (p *Policy) Rule(d Disruption) (Rule, bool) {
	for _, r := range p.rules {
		if r.matches(d) {
			return r, true
		}
	}
	return Rule{}, false
}

// ImpactAnalysis — идентификаторы активностей, затронутых сбоем. Неизвестный сбой — пустой набор.
func (p *Policy) ImpactAnalysis(activities []repository.ActivityView, d Disruption) []uuid.UUID {
	rule, ok := p.Rule(d)
	if !ok {
		return nil
	}
	var affected []uuid.UUID
	for _, a := range activities {
		if slices.Contains(rule.Affects, a.Type) {
			affected = append(affected, a.ActivityID)
		}
	}
	return affected
}
