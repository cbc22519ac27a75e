// Package admin — service.go содержит логику аутентификации, управления
// сессиями и привилегированные операции над игроками.
package admin

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"fmt"
	"strings"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"
	"golang.org/x/crypto/argon2"

	"serotonyl.ru/arena-bot/internal/config"
	"serotonyl.ru/arena-bot/internal/features/economy"
	"serotonyl.ru/arena-bot/internal/features/players"
	"serotonyl.ru/arena-bot/internal/features/subscription"
)

// Ledger — узкий интерфейс для ручных начислений и списаний.
type Ledger interface {
	AddCurrency(ctx context.Context, userID int64, delta int64, reason economy.Reason, description string) error
}

// Progression — узкий интерфейс переопределения уровня.
type Progression interface {
	OverrideLevel(ctx context.Context, adminID, userID int64, level int) error
}

// Promotions — создание акций на подписку.
type Promotions interface {
	CreatePromotion(ctx context.Context, p *subscription.Promotion) error
}

// Service управляет админ-панелью.
type Service struct {
	repo        *Repository
	playerSvc   *players.Service
	ledger      Ledger
	progression Progression
	promotions  Promotions
	cfg         *config.Config

	states   map[int64]*AdminState // Состояния диалогов (in-memory)
	statesMu sync.RWMutex
}

// NewService создаёт сервис админ-панели.
func NewService(repo *Repository, playerSvc *players.Service, ledger Ledger,
	progression Progression, promotions Promotions, cfg *config.Config) *Service {
	return &Service{
		repo:        repo,
		playerSvc:   playerSvc,
		ledger:      ledger,
		progression: progression,
		promotions:  promotions,
		cfg:         cfg,
		states:      make(map[int64]*AdminState),
	}
}

// VerifyPassword проверяет пароль администратора с использованием Argon2id.
// Включает защиту от brute-force: 3 неудачные попытки = блокировка на 1 час.
func (s *Service) VerifyPassword(ctx context.Context, userID int64, password string) error {
	// Проверяем лимит попыток
	failures, err := s.repo.CountRecentFailures(ctx, userID, 1*time.Hour)
	if err != nil {
		return err
	}
	if failures >= 3 {
		return fmt.Errorf("слишком много попыток, подождите 1 час")
	}

	// Проверяем пароль
	match := verifyArgon2id(password, s.cfg.AdminPasswordHash)

	// Логируем попытку
	if err := s.repo.LogAttempt(ctx, userID, match); err != nil {
		log.WithError(err).Warn("Не удалось записать попытку входа")
	}

	if !match {
		return fmt.Errorf("неверный пароль")
	}

	// Создаём сессию (24 часа)
	session := &AdminSession{
		UserID:       userID,
		SessionToken: generateSecureToken(),
		ExpiresAt:    time.Now().Add(24 * time.Hour),
	}
	return s.repo.CreateSession(ctx, session)
}

// HasActiveSession проверяет, есть ли у пользователя активная сессия.
func (s *Service) HasActiveSession(ctx context.Context, userID int64) bool {
	ok, err := s.repo.HasActiveSession(ctx, userID)
	return err == nil && ok
}

// Logout завершает сессию администратора.
func (s *Service) Logout(ctx context.Context, userID int64) error {
	s.ClearState(userID)
	return s.repo.DeactivateSession(ctx, userID)
}

// GetState возвращает текущее состояние диалога.
func (s *Service) GetState(userID int64) *AdminState {
	s.statesMu.RLock()
	defer s.statesMu.RUnlock()

	state, ok := s.states[userID]
	if !ok {
		return nil
	}
	// Проверяем истечение
	if time.Now().After(state.ExpiresAt) {
		return nil
	}
	return state
}

// SetState устанавливает состояние диалога с 5-минутным таймаутом.
func (s *Service) SetState(userID int64, stateName string, data interface{}) {
	s.statesMu.Lock()
	defer s.statesMu.Unlock()

	s.states[userID] = &AdminState{
		State:     stateName,
		Data:      data,
		ExpiresAt: time.Now().Add(5 * time.Minute),
	}
}

// ClearState сбрасывает состояние диалога.
func (s *Service) ClearState(userID int64) {
	s.statesMu.Lock()
	defer s.statesMu.Unlock()
	delete(s.states, userID)
}

// --- Привилегированные операции ---

// GiveCurrency начисляет игроку кристаллы от имени администратора.
func (s *Service) GiveCurrency(ctx context.Context, adminID int64, username string, amount int64) error {
	p, err := s.playerSvc.GetByUsername(ctx, username)
	if err != nil {
		return err
	}
	if err := s.ledger.AddCurrency(ctx, p.UserID, amount,
		economy.ReasonAdminGive, "Начисление администратором"); err != nil {
		return err
	}
	log.WithFields(log.Fields{
		"admin_id": adminID,
		"user_id":  p.UserID,
		"amount":   amount,
	}).Warn("Админ начислил кристаллы")
	return nil
}

// TakeCurrency списывает у игрока кристаллы. Баланс не может уйти
// в минус — при нехватке операция отклоняется целиком.
func (s *Service) TakeCurrency(ctx context.Context, adminID int64, username string, amount int64) error {
	p, err := s.playerSvc.GetByUsername(ctx, username)
	if err != nil {
		return err
	}
	if err := s.ledger.AddCurrency(ctx, p.UserID, -amount,
		economy.ReasonAdminTake, "Списание администратором"); err != nil {
		return err
	}
	log.WithFields(log.Fields{
		"admin_id": adminID,
		"user_id":  p.UserID,
		"amount":   amount,
	}).Warn("Админ списал кристаллы")
	return nil
}

// SetLevel переопределяет уровень игрока. Опыт пересинхронизируется
// на нижнюю границу нового уровня.
func (s *Service) SetLevel(ctx context.Context, adminID int64, username string, level int) error {
	p, err := s.playerSvc.GetByUsername(ctx, username)
	if err != nil {
		return err
	}
	return s.progression.OverrideLevel(ctx, adminID, p.UserID, level)
}

// RemovePlayer удаляет игрока вместе с балансом и историей.
func (s *Service) RemovePlayer(ctx context.Context, adminID int64, username string) error {
	p, err := s.playerSvc.GetByUsername(ctx, username)
	if err != nil {
		return err
	}
	log.WithFields(log.Fields{
		"admin_id": adminID,
		"user_id":  p.UserID,
	}).Warn("Админ удаляет игрока")
	return s.playerSvc.RemovePlayer(ctx, p.UserID)
}

// CreatePromotion создаёт акцию на подписку.
// Формат дат — ДД.ММ.ГГГГ, окно включительное с обеих сторон.
func (s *Service) CreatePromotion(ctx context.Context, name string, premiumCost, maintenanceCost int64, startsOn, endsOn string) error {
	start, err := time.Parse("02.01.2006", startsOn)
	if err != nil {
		return fmt.Errorf("неверная дата начала: %w", err)
	}
	end, err := time.Parse("02.01.2006", endsOn)
	if err != nil {
		return fmt.Errorf("неверная дата конца: %w", err)
	}
	if end.Before(start) {
		return fmt.Errorf("дата конца раньше даты начала")
	}

	return s.promotions.CreatePromotion(ctx, &subscription.Promotion{
		Name:            name,
		PremiumCost:     premiumCost,
		MaintenanceCost: maintenanceCost,
		StartsOn:        start,
		EndsOn:          end,
	})
}

// PurgeExpired чистит старые сессии и журнал попыток входа.
func (s *Service) PurgeExpired(ctx context.Context) error {
	return s.repo.PurgeExpired(ctx)
}

// --- Криптографические утилиты ---

// verifyArgon2id проверяет пароль по хешу Argon2id.
// Формат хеша: $argon2id$v=19$m=65536,t=3,p=2$<salt_base64>$<hash_base64>
func verifyArgon2id(password, encodedHash string) bool {
	// Парсим хеш
	parts := strings.Split(encodedHash, "$")
	if len(parts) != 6 {
		log.Error("Некорректный формат хеша Argon2id")
		return false
	}

	// Извлекаем параметры
	var memory uint32
	var iterations uint32
	var parallelism uint8
	_, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &memory, &iterations, &parallelism)
	if err != nil {
		log.WithError(err).Error("Ошибка парсинга параметров Argon2id")
		return false
	}

	// Декодируем соль
	salt, err := base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil {
		log.WithError(err).Error("Ошибка декодирования соли")
		return false
	}

	// Декодируем хеш
	expectedHash, err := base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil {
		log.WithError(err).Error("Ошибка декодирования хеша")
		return false
	}

	// Вычисляем хеш введённого пароля
	computedHash := argon2.IDKey([]byte(password), salt, iterations, memory, parallelism, uint32(len(expectedHash)))

	// Сравниваем в постоянном времени (защита от timing attack)
	return subtle.ConstantTimeCompare(computedHash, expectedHash) == 1
}

// generateSecureToken генерирует криптографически безопасный токен сессии.
func generateSecureToken() string {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return fmt.Sprintf("fallback-%d", time.Now().UnixNano())
	}
	return base64.URLEncoding.EncodeToString(b)
}
