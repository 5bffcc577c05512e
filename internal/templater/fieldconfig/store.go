// Пакет fieldconfig хранит общие настройки типов полей шаблона одной сессии
// редактора и число их вхождений в документ.
package fieldconfig

import (
	"log/slog"
	"maps"
	"slices"
	"sync"

	"github.com/aisa-it/templater/internal/templater/editor/attrfield"
	"github.com/aisa-it/templater/internal/templater/editor/model"
)

// Store - настройки типов полей (fieldKey -> Policy) и счетчики вхождений.
// Живет столько же, сколько сессия редактора.
type Store struct {
	mu      sync.RWMutex
	configs map[string]attrfield.Policy
	usage   map[string]int
}

func NewStore() *Store {
	return &Store{
		configs: make(map[string]attrfield.Policy),
		usage:   make(map[string]int),
	}
}

func (s *Store) Get(fieldKey string) (attrfield.Policy, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.configs[fieldKey]
	return p, ok
}

// Set полностью заменяет настройки типа поля.
func (s *Store) Set(fieldKey string, p attrfield.Policy) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.configs[fieldKey] = p
}

// RecalculateUsage пересчитывает вхождения по документу и удаляет настройки
// типов полей, которых в документе больше нет.
func (s *Store) RecalculateUsage(doc *model.Node) map[string]int {
	counts := CountUsage(doc)

	s.mu.Lock()
	defer s.mu.Unlock()
	for key := range s.configs {
		if _, ok := counts[key]; !ok {
			delete(s.configs, key)
			slog.Debug("Drop unused field config", "fieldKey", key)
		}
	}
	s.usage = counts
	return maps.Clone(counts)
}

// Usage - счетчики последнего пересчета.
func (s *Store) Usage() map[string]int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return maps.Clone(s.usage)
}

// Keys - ключи типов полей с настройками, по возрастанию.
func (s *Store) Keys() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Sorted(maps.Keys(s.configs))
}

// Snapshot - копия всех настроек.
func (s *Store) Snapshot() map[string]attrfield.Policy {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return maps.Clone(s.configs)
}

// CountUsage считает поля шаблона по fieldKey. Поля без fieldKey не считаются.
func CountUsage(doc *model.Node) map[string]int {
	counts := make(map[string]int)
	model.Descendants(doc, func(n *model.Node, _ int, _ *model.Node, _ int) bool {
		if attrfield.IsField(n) {
			if key := attrfield.FromNode(n).Key(); key != "" {
				counts[key]++
			}
			return false
		}
		return true
	})
	return counts
}
