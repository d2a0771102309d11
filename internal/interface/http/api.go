package http

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/mux"

	"github.com/focusgoal/focusgoal-backend/internal/application/command"
	"github.com/focusgoal/focusgoal-backend/internal/application/query"
	"github.com/focusgoal/focusgoal-backend/internal/domain/shared"
	"github.com/focusgoal/focusgoal-backend/pkg/logger"
	"github.com/focusgoal/focusgoal-backend/pkg/timeutil"
)

// ══════════════════════════════════════════════════════════════════════════════
// HEALTH HANDLERS
// ══════════════════════════════════════════════════════════════════════════════

// handleHealth returns the full health status.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	status := s.deps.HealthChecker.Check(ctx)

	code := http.StatusOK
	if !status.Healthy {
		code = http.StatusServiceUnavailable
	}
	write(w, code, status)
}

// handleReady reports whether the service can serve traffic.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	status := s.deps.HealthChecker.Check(ctx)
	if !status.Ready {
		writeError(w, http.StatusServiceUnavailable, status.Message)
		return
	}
	writeJSON(w, http.StatusOK, envelope{"status": "ready"})
}

// handleLive reports that the process is up.
func (s *Server) handleLive(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, envelope{"status": "alive"})
}

// ══════════════════════════════════════════════════════════════════════════════
// USER HANDLERS
// ══════════════════════════════════════════════════════════════════════════════

// handleRegisterUser handles POST /api/users.
func (s *Server) handleRegisterUser(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.requireUserID(w, r)
	if !ok {
		return
	}

	result, err := s.deps.RegisterUser.Handle(r.Context(), command.RegisterUserCommand{
		UserID:    userID,
		Username:  formValue(r, "username"),
		FirstName: formValue(r, "first_name"),
		LastName:  formValue(r, "last_name"),
	})
	if err != nil {
		s.handleError(w, r, err)
		return
	}

	status := http.StatusOK
	if result.Created {
		status = http.StatusCreated
	}
	writeJSON(w, status, envelope{"user": query.NewUserDTO(result.User)})
}

// handleGetUser handles GET /api/user/{id}.
func (s *Server) handleGetUser(w http.ResponseWriter, r *http.Request) {
	userID, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid user id")
		return
	}

	dto, err := s.deps.GetUser.Handle(r.Context(), query.GetUserQuery{UserID: userID})
	if err != nil {
		s.handleError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, envelope{"user": dto})
}

// handleDashboard handles GET /api/dashboard.
func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.requireUserID(w, r)
	if !ok {
		return
	}

	if s.deps.AutoRegister(userID) {
		_, err := s.deps.RegisterUser.Handle(r.Context(), command.RegisterUserCommand{
			UserID:    userID,
			Username:  formValue(r, "username"),
			FirstName: formValue(r, "first_name"),
			LastName:  formValue(r, "last_name"),
		})
		if err != nil {
			s.handleError(w, r, err)
			return
		}
	}

	dto, err := s.deps.GetDashboard.Handle(r.Context(), query.GetDashboardQuery{UserID: userID})
	if err != nil {
		s.handleError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, envelope{"dashboard": dto})
}

// ══════════════════════════════════════════════════════════════════════════════
// GOAL HANDLERS
// ══════════════════════════════════════════════════════════════════════════════

// handleListGoals handles GET /api/goals.
func (s *Server) handleListGoals(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.requireUserID(w, r)
	if !ok {
		return
	}

	goals, err := s.deps.ListGoals.Handle(r.Context(), query.ListByUserQuery{UserID: userID})
	if err != nil {
		s.handleError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, envelope{"goals": goals, "count": len(goals)})
}

// handleCreateGoal handles POST /api/goals.
func (s *Server) handleCreateGoal(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.requireUserID(w, r)
	if !ok {
		return
	}

	title := formValue(r, "title")
	if title == "" {
		writeError(w, http.StatusBadRequest, "title is required")
		return
	}

	var deadline *time.Time
	if raw := formValue(r, "deadline"); raw != "" {
		d, err := timeutil.ParseDate(raw, s.deps.Location)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid deadline")
			return
		}
		deadline = &d
	}

	result, err := s.deps.CreateGoal.Handle(r.Context(), command.CreateGoalCommand{
		UserID:      userID,
		Title:       title,
		Description: formValue(r, "description"),
		Priority:    formValue(r, "priority"),
		Category:    formValue(r, "category"),
		Difficulty:  formValue(r, "difficulty"),
		Deadline:    deadline,
	})
	if err != nil {
		s.handleError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, envelope{
		"message":  fmt.Sprintf("Цель успешно создана! +%d XP", result.XPAdded),
		"goal_id":  result.GoalID,
		"xp_added": result.XPAdded,
		"total_xp": result.TotalXP,
		"level":    result.Level,
		"level_up": result.LevelUp,
	})
}

// handleCompleteGoal handles POST /api/goals/{id}/complete.
func (s *Server) handleCompleteGoal(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.requireUserID(w, r)
	if !ok {
		return
	}

	goalID, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid goal id")
		return
	}

	result, err := s.deps.CompleteGoal.Handle(r.Context(), command.CompleteGoalCommand{
		UserID: userID,
		GoalID: goalID,
	})
	if err != nil {
		s.handleError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, envelope{
		"message":   fmt.Sprintf("Цель выполнена! +%d XP", result.XPEarned),
		"xp_earned": result.XPEarned,
		"total_xp":  result.TotalXP,
		"level":     result.Level,
		"level_up":  result.LevelUp,
	})
}

// ══════════════════════════════════════════════════════════════════════════════
// HABIT HANDLERS
// ══════════════════════════════════════════════════════════════════════════════

// handleListHabits handles GET /api/habits.
func (s *Server) handleListHabits(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.requireUserID(w, r)
	if !ok {
		return
	}

	habits, err := s.deps.ListHabits.Handle(r.Context(), query.ListByUserQuery{UserID: userID})
	if err != nil {
		s.handleError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, envelope{"habits": habits, "count": len(habits)})
}

// handleCreateHabit handles POST /api/habits.
func (s *Server) handleCreateHabit(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.requireUserID(w, r)
	if !ok {
		return
	}

	title := formValue(r, "title")
	if title == "" {
		writeError(w, http.StatusBadRequest, "title is required")
		return
	}

	result, err := s.deps.CreateHabit.Handle(r.Context(), command.CreateHabitCommand{
		UserID:       userID,
		Title:        title,
		Description:  formValue(r, "description"),
		Frequency:    formValue(r, "frequency"),
		ReminderTime: formValue(r, "reminder_time"),
		Category:     formValue(r, "category"),
	})
	if err != nil {
		s.handleError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, envelope{
		"message":  fmt.Sprintf("Привычка создана! +%d XP", result.XPAdded),
		"habit_id": result.HabitID,
		"xp_added": result.XPAdded,
		"total_xp": result.TotalXP,
		"level":    result.Level,
		"level_up": result.LevelUp,
	})
}

// handleTrackHabit handles POST /api/habits/{id}/track.
func (s *Server) handleTrackHabit(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.requireUserID(w, r)
	if !ok {
		return
	}

	habitID, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid habit id")
		return
	}

	result, err := s.deps.TrackHabit.Handle(r.Context(), command.TrackHabitCommand{
		UserID:  userID,
		HabitID: habitID,
	})
	if err != nil {
		s.handleError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, envelope{
		"message":   fmt.Sprintf("Привычка отмечена! +%d XP", result.XPEarned),
		"xp_earned": result.XPEarned,
		"total_xp":  result.TotalXP,
		"level":     result.Level,
		"level_up":  result.LevelUp,
		"habit":     query.NewHabitDTO(result.Habit),
	})
}

// ══════════════════════════════════════════════════════════════════════════════
// FOCUS & STATS HANDLERS
// ══════════════════════════════════════════════════════════════════════════════

// handleStartFocus handles POST /api/focus/start.
func (s *Server) handleStartFocus(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.requireUserID(w, r)
	if !ok {
		return
	}

	cmd := command.StartFocusSessionCommand{UserID: userID}

	if raw := formValue(r, "duration"); raw != "" {
		d, err := strconv.Atoi(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid duration")
			return
		}
		cmd.DurationMinutes = d
	}

	if raw := formValue(r, "goal_id"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid goal_id")
			return
		}
		cmd.GoalID = &id
	}

	result, err := s.deps.StartFocus.Handle(r.Context(), cmd)
	if err != nil {
		s.handleError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, envelope{
		"message":    fmt.Sprintf("Фокус-сессия началась! Длительность: %d мин", result.DurationMinutes),
		"session_id": result.SessionID,
		"duration":   result.DurationMinutes,
	})
}

// handleGetStats handles GET /api/stats.
func (s *Server) handleGetStats(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.requireUserID(w, r)
	if !ok {
		return
	}

	st, err := s.deps.GetStats.Handle(r.Context(), query.GetStatsQuery{UserID: userID})
	if err != nil {
		s.handleError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, envelope{"stats": st})
}

// ══════════════════════════════════════════════════════════════════════════════
// REQUEST PARSING & ERROR MAPPING
// ══════════════════════════════════════════════════════════════════════════════

// formValue returns a trimmed form or query value.
func formValue(r *http.Request, key string) string {
	return strings.TrimSpace(r.FormValue(key))
}

// requireUserID parses the mandatory user_id field. On failure it writes 400.
func (s *Server) requireUserID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	raw := formValue(r, "user_id")
	if raw == "" {
		writeError(w, http.StatusBadRequest, "user_id is required")
		return 0, false
	}

	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		writeError(w, http.StatusBadRequest, "invalid user_id")
		return 0, false
	}

	return id, true
}

// statusFor maps an application error to an HTTP status.
func statusFor(err error) int {
	switch {
	case shared.IsValidation(err):
		return http.StatusBadRequest
	case shared.IsNotFound(err):
		return http.StatusNotFound
	case shared.IsAlreadyProcessed(err):
		return http.StatusConflict
	case shared.IsRetryable(err):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// errorMessage returns the client-facing text. Domain errors expose their
// message, everything else the raw error.
func errorMessage(err error) string {
	var de *shared.DomainError
	if errors.As(err, &de) && !shared.IsStorage(err) && de.Message != "" {
		return de.Message
	}
	return err.Error()
}

// handleError writes the mapped error response and logs server-side failures.
func (s *Server) handleError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)

	if status >= http.StatusInternalServerError {
		logger.FromContext(r.Context()).Error("request failed",
			logger.String("path", r.URL.Path),
			logger.Err(err),
		)
	}

	writeError(w, status, errorMessage(err))
}
