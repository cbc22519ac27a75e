// Package players — service.go содержит бизнес-логику управления игроками.
// Сервис координирует регистрацию новых игроков, проверку членства
// и обновление информации.
package players

import (
	"context"
	"fmt"

	log "github.com/sirupsen/logrus"

	"serotonyl.ru/arena-bot/internal/config"
)

// Service управляет игроками.
// Связывает обработчики Telegram-событий с репозиторием БД.
type Service struct {
	repo *Repository    // Репозиторий для работы с таблицей players
	cfg  *config.Config // Конфигурация (стартовое здоровье)
}

// NewService создаёт новый сервис игроков.
func NewService(repo *Repository, cfg *config.Config) *Service {
	return &Service{repo: repo, cfg: cfg}
}

// HandleNewPlayer обрабатывает первый контакт пользователя с системой.
// Если игрок уже есть в базе (перезашёл) — обновляет его данные.
// Если игрок новый — создаёт запись с уровнем 1 и полным здоровьем.
func (s *Service) HandleNewPlayer(ctx context.Context, userID int64, username, firstName string) error {
	existing, _ := s.repo.GetByUserID(ctx, userID)
	if existing != nil {
		// Игрок уже зарегистрирован — обновляем данные
		log.WithField("user_id", userID).Info("Игрок перезашёл в чат, обновляем данные")
		return s.repo.UpdateInfo(ctx, userID, UpdateInfo{
			Username:  username,
			FirstName: firstName,
		})
	}

	player := &Player{
		UserID:    userID,
		Username:  username,
		FirstName: firstName,
		MaxHealth: s.cfg.CombatStartingHealth,
	}

	if err := s.repo.Create(ctx, player); err != nil {
		return fmt.Errorf("ошибка регистрации нового игрока: %w", err)
	}

	log.WithFields(log.Fields{
		"user_id":  userID,
		"username": username,
	}).Info("Новый игрок зарегистрирован")

	return nil
}

// IsMember проверяет, зарегистрирован ли пользователь как игрок.
// Используется для валидации доступа к DM.
func (s *Service) IsMember(ctx context.Context, userID int64) (bool, error) {
	return s.repo.Exists(ctx, userID)
}

// GetByUserID возвращает игрока по его Telegram user ID.
func (s *Service) GetByUserID(ctx context.Context, userID int64) (*Player, error) {
	return s.repo.GetByUserID(ctx, userID)
}

// GetByUsername возвращает игрока по @username (без @).
func (s *Service) GetByUsername(ctx context.Context, username string) (*Player, error) {
	return s.repo.GetByUsername(ctx, username)
}

// EnsurePlayer гарантирует, что пользователь есть в базе.
// Если нет — создаёт запись. Используется при первом сообщении в чате.
// Возвращает true, если игрок был создан этим вызовом: по этому признаку
// вызывающий код выдаёт стартовый баланс (как и при вступлении в чат).
func (s *Service) EnsurePlayer(ctx context.Context, userID int64, username, firstName string) (bool, error) {
	exists, err := s.repo.Exists(ctx, userID)
	if err != nil {
		return false, err
	}
	if exists {
		return false, nil
	}
	if err := s.HandleNewPlayer(ctx, userID, username, firstName); err != nil {
		return false, err
	}
	return true, nil
}

// RemovePlayer полностью удаляет игрока вместе с балансом и историей.
// Вызывается только из админки.
func (s *Service) RemovePlayer(ctx context.Context, userID int64) error {
	if err := s.repo.Delete(ctx, userID); err != nil {
		return err
	}
	log.WithField("user_id", userID).Warn("Игрок удалён администратором")
	return nil
}
