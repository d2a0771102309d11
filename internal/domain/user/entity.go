// Package user содержит доменную модель пользователя FocusGoal:
// очки опыта, уровень и правила их изменения.
// Это ядро бизнес-логики - здесь нет внешних зависимостей.
package user

import (
	"fmt"
	"strings"
	"time"

	"github.com/focusgoal/focusgoal-backend/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// VALUE OBJECTS
// ══════════════════════════════════════════════════════════════════════════════

// XPPerLevel - ширина одного уровня в очках опыта.
const XPPerLevel = 100

// LevelThreshold возвращает суммарный XP, на котором заканчивается уровень level.
func LevelThreshold(level int) int {
	return level * XPPerLevel
}

// LevelForXP вычисляет уровень по суммарному XP.
// Уровень L покрывает диапазон [(L-1)*100, L*100).
func LevelForXP(xp int) int {
	if xp < 0 {
		return 1
	}
	return xp/XPPerLevel + 1
}

// LevelProgressPercent возвращает прогресс внутри текущего уровня в процентах.
func LevelProgressPercent(xp int) float64 {
	if xp < 0 {
		return 0
	}
	p := float64(xp%XPPerLevel) / float64(XPPerLevel) * 100
	if p > 100 {
		return 100
	}
	return p
}

// ══════════════════════════════════════════════════════════════════════════════
// MAIN ENTITY: USER
// ══════════════════════════════════════════════════════════════════════════════

// User - пользователь мини-приложения.
// ID приходит извне (Telegram user id), хранилище его не генерирует.
type User struct {
	ID        int64
	Username  string
	FirstName string
	LastName  string

	// XP никогда не уменьшается.
	XP int

	// Level всегда равен LevelForXP(XP).
	Level int

	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewUserParams содержит параметры для создания пользователя.
type NewUserParams struct {
	ID        int64
	Username  string
	FirstName string
	LastName  string
}

// NewUser создаёт пользователя с нулевым XP и первым уровнем.
// Пустой username заменяется на "user_{id}".
func NewUser(params NewUserParams, now time.Time) (*User, error) {
	if params.ID <= 0 {
		return nil, shared.ErrInvalidUserID
	}

	username := strings.TrimSpace(params.Username)
	if username == "" {
		username = DefaultUsername(params.ID)
	}

	return &User{
		ID:        params.ID,
		Username:  username,
		FirstName: strings.TrimSpace(params.FirstName),
		LastName:  strings.TrimSpace(params.LastName),
		XP:        0,
		Level:     1,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

// DefaultUsername возвращает имя для автоматически созданного пользователя.
func DefaultUsername(id int64) string {
	return fmt.Sprintf("user_%d", id)
}

// AddXP начисляет XP и пересчитывает уровень.
// Возвращает true, если уровень вырос.
func (u *User) AddXP(delta int, now time.Time) (bool, error) {
	if delta < 0 {
		return false, shared.ErrNegativeXP
	}

	oldLevel := u.Level
	u.XP += delta
	u.Level = LevelForXP(u.XP)
	u.UpdatedAt = now

	return u.Level > oldLevel, nil
}

// LevelProgress возвращает прогресс пользователя внутри текущего уровня.
func (u *User) LevelProgress() float64 {
	return LevelProgressPercent(u.XP)
}

// XPToNextLevel возвращает, сколько XP осталось до следующего уровня.
func (u *User) XPToNextLevel() int {
	return LevelThreshold(u.Level) - u.XP
}

// DisplayName возвращает имя для отображения.
func (u *User) DisplayName() string {
	full := strings.TrimSpace(u.FirstName + " " + u.LastName)
	if full != "" {
		return full
	}
	return u.Username
}
