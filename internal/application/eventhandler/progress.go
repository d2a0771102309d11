// Package eventhandler содержит обработчики доменных событий.
package eventhandler

import (
	"fmt"
	"slices"

	"github.com/focusgoal/focusgoal-backend/internal/domain/shared"
	"github.com/focusgoal/focusgoal-backend/pkg/logger"
)

// ═══════════════════════════════════════════════════════════════════════════
// PROGRESS JOURNAL
// Пишет в журнал значимые моменты прогресса пользователя: рост уровня
// и круглые значения серий привычек. Не меняет состояние.
// ═══════════════════════════════════════════════════════════════════════════

// ProgressConfig содержит конфигурацию обработчика.
type ProgressConfig struct {
	// LevelMilestones - уровни, достижение которых отмечается отдельно.
	LevelMilestones []int

	// StreakMilestones - длины серий, достижение которых отмечается отдельно.
	StreakMilestones []int
}

// DefaultProgressConfig возвращает конфигурацию по умолчанию.
func DefaultProgressConfig() ProgressConfig {
	return ProgressConfig{
		LevelMilestones:  []int{5, 10, 25, 50, 100},
		StreakMilestones: []int{7, 30, 100, 365},
	}
}

// ProgressHandler обрабатывает события прогресса.
type ProgressHandler struct {
	logger *logger.Logger
	config ProgressConfig
}

// NewProgressHandler создаёт обработчик.
func NewProgressHandler(log *logger.Logger, config ProgressConfig) *ProgressHandler {
	if log == nil {
		log = logger.Nop()
	}
	return &ProgressHandler{logger: log.Named("progress"), config: config}
}

// Register подписывает обработчик на нужные события.
func (h *ProgressHandler) Register(bus shared.EventSubscriber) error {
	for _, t := range h.HandledEvents() {
		if err := bus.Subscribe(t, h.Handle); err != nil {
			return fmt.Errorf("subscribe %s: %w", t, err)
		}
	}
	return nil
}

// Handle обрабатывает событие. Неизвестные события игнорируются.
func (h *ProgressHandler) Handle(event shared.Event) error {
	switch e := event.(type) {
	case shared.LevelUpEvent:
		h.onLevelUp(e)
	case shared.HabitTrackedEvent:
		h.onHabitTracked(e)
	case shared.XPGainedEvent:
		h.logger.Debug("xp gained",
			logger.UserID(e.UserID),
			logger.XPAmount(e.Amount),
			logger.Int("total_xp", e.NewTotal),
			logger.Action(e.Source),
		)
	}
	return nil
}

func (h *ProgressHandler) onLevelUp(e shared.LevelUpEvent) {
	fields := []logger.Field{
		logger.UserID(e.UserID),
		logger.Int("old_level", e.OldLevel),
		logger.Int("new_level", e.NewLevel),
		logger.Int("total_xp", e.TotalXP),
	}

	h.logger.Info("level up", fields...)

	// Начисление может перескочить несколько уровней сразу.
	for _, m := range h.config.LevelMilestones {
		if e.OldLevel < m && e.NewLevel >= m {
			h.logger.Info("level milestone reached", append(fields, logger.Int("milestone", m))...)
		}
	}
}

// onHabitTracked пропускает повторные отметки за день: серия не изменилась.
func (h *ProgressHandler) onHabitTracked(e shared.HabitTrackedEvent) {
	if !e.StreakChanged || !slices.Contains(h.config.StreakMilestones, e.CurrentStreak) {
		return
	}
	h.logger.Info("streak milestone reached",
		logger.UserID(e.UserID),
		logger.HabitID(e.HabitID),
		logger.Int("streak", e.CurrentStreak),
	)
}

// HandledEvents возвращает события, на которые подписывается обработчик.
func (h *ProgressHandler) HandledEvents() []shared.EventType {
	return []shared.EventType{shared.EventLevelUp, shared.EventHabitTracked, shared.EventXPGained}
}
