package services

import (
	"context"
	"errors"

	"lektoria/internal/logger"
	"lektoria/internal/models"

	"go.uber.org/zap"
)

// EmailTokenService подтверждает адреса почты по одноразовому токену,
// выданному при регистрации. Срок жизни у токена отсутствует.
type EmailTokenService struct {
	repo UserRepo
}

func NewEmailTokenService(repo UserRepo) *EmailTokenService {
	return &EmailTokenService{repo: repo}
}

var ErrTokenInvalid = errors.New("неверный токен")

// Confirm активирует аккаунт по токену подтверждения и гасит токен.
// Повторное подтверждение тем же токеном вернёт ErrTokenInvalid: токен уже сброшен.
func (s *EmailTokenService) Confirm(ctx context.Context, token string) (*models.User, error) {
	if token == "" {
		return nil, ErrTokenInvalid
	}

	user, err := s.repo.GetByConfirmationToken(ctx, token)
	if err != nil {
		logger.Log.Warn("Токен подтверждения не найден (service)", zap.Error(err))
		return nil, ErrTokenInvalid
	}

	if err := s.repo.ConfirmEmail(ctx, user.ID); err != nil {
		logger.Log.Error("Ошибка активации аккаунта (service)", zap.Error(err), zap.Int("user_id", user.ID))
		return nil, err
	}

	logger.Log.Info("Почта подтверждена (service)", zap.Int("user_id", user.ID))
	return user, nil
}
