// Package catalog — service.go содержит бизнес-логику каталога персонажей:
// открытие контента по уровню, выбор персонажа, откат премиум-персонажей.
package catalog

import (
	"context"
	"fmt"
	"strings"

	log "github.com/sirupsen/logrus"

	"serotonyl.ru/arena-bot/internal/common"
	"serotonyl.ru/arena-bot/internal/features/players"
)

// Notifier отправляет игроку сообщение (fire-and-forget).
type Notifier func(userID int64, text string)

// Service управляет каталогом персонажей.
type Service struct {
	repo        *Repository
	playersRepo *players.Repository
	notify      Notifier
}

// NewService создаёт новый сервис каталога.
func NewService(repo *Repository, playersRepo *players.Repository, notify Notifier) *Service {
	return &Service{
		repo:        repo,
		playersRepo: playersRepo,
		notify:      notify,
	}
}

// UnlockContentForLevel сообщает игроку о персонажах, открывшихся
// на новом уровне. Вызывается прогрессией на каждом пересечённом уровне.
func (s *Service) UnlockContentForLevel(ctx context.Context, userID int64, level int) error {
	chars, err := s.repo.ListForLevel(ctx, level)
	if err != nil {
		return err
	}
	if len(chars) == 0 {
		return nil
	}

	names := make([]string, 0, len(chars))
	for _, c := range chars {
		name := c.Name
		if c.IsPremium {
			name += " ⭐"
		}
		names = append(names, name)
	}

	if s.notify != nil {
		s.notify(userID, fmt.Sprintf("🔓 Открыты новые персонажи: %s", strings.Join(names, ", ")))
	}
	return nil
}

// SelectCharacter выбирает персонажа для игрока.
// Проверяет уровень и премиум-доступ; при успехе сопротивление
// персонажа переносится в боевое состояние игрока.
func (s *Service) SelectCharacter(ctx context.Context, userID int64, name string) (*Character, error) {
	player, err := s.playersRepo.GetByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}

	char, err := s.repo.GetByName(ctx, name)
	if err != nil {
		return nil, err
	}

	if char.MinLevel > player.Level {
		return nil, fmt.Errorf("нужен %d уровень: %w", char.MinLevel, common.ErrCharacterLocked)
	}
	if char.IsPremium && !player.IsPremium {
		return nil, fmt.Errorf("нужна премиум-подписка: %w", common.ErrCharacterLocked)
	}

	if err := s.repo.AssignToPlayer(ctx, userID, char); err != nil {
		return nil, err
	}

	log.WithFields(log.Fields{
		"user_id":   userID,
		"character": char.Name,
	}).Info("Персонаж выбран")

	return char, nil
}

// DemoteToFreeEquivalent откатывает игрока с премиум-персонажа
// на его бесплатный аналог того же уровня. Вызывается при окончании
// подписки; если выбранный персонаж и так бесплатный — ничего не делает.
func (s *Service) DemoteToFreeEquivalent(ctx context.Context, userID int64, level int) error {
	player, err := s.playersRepo.GetByUserID(ctx, userID)
	if err != nil {
		return err
	}
	if player.SelectedCharacterID == nil {
		return nil
	}

	current, err := s.repo.GetByID(ctx, *player.SelectedCharacterID)
	if err != nil {
		return err
	}
	if !current.IsPremium {
		return nil
	}

	// Предпочитаем явный бесплатный аналог, иначе лучший доступный
	var free *Character
	if current.FreeEquivalentID != nil {
		free, err = s.repo.GetByID(ctx, *current.FreeEquivalentID)
	} else {
		free, err = s.repo.BestFreeForLevel(ctx, level)
	}
	if err != nil {
		return err
	}

	if err := s.repo.AssignToPlayer(ctx, userID, free); err != nil {
		return err
	}

	log.WithFields(log.Fields{
		"user_id": userID,
		"from":    current.Name,
		"to":      free.Name,
	}).Info("Премиум-персонаж заменён бесплатным аналогом")

	if s.notify != nil {
		s.notify(userID, fmt.Sprintf("👤 Персонаж %s требует премиум — выбран %s", current.Name, free.Name))
	}
	return nil
}

// GetSelected возвращает выбранного персонажа игрока (nil, если не выбран).
func (s *Service) GetSelected(ctx context.Context, userID int64) (*Character, error) {
	player, err := s.playersRepo.GetByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if player.SelectedCharacterID == nil {
		return nil, nil
	}
	return s.repo.GetByID(ctx, *player.SelectedCharacterID)
}

// ListAvailable возвращает персонажей, доступных игроку сейчас.
func (s *Service) ListAvailable(ctx context.Context, userID int64) ([]*Character, error) {
	player, err := s.playersRepo.GetByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.repo.ListAvailable(ctx, player.Level, player.IsPremium)
}
