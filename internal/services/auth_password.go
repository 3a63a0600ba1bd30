package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"lektoria/internal/logger"
	"lektoria/internal/repository"
	"lektoria/internal/utils"

	"go.uber.org/zap"
)

// PasswordService — жизненный цикл токенов сброса пароля: выпуск, проверка,
// одноразовое погашение. Токены не имеют срока годности — строка либо есть, либо нет.
type PasswordService struct {
	repo        repository.PasswordResetRepo
	userRepo    UserRepo
	emailSender EmailSender
	appURL      string
}

type EmailSender interface {
	SendPasswordReset(ctx context.Context, to, username, resetLink string) error
}

func NewPasswordService(repo repository.PasswordResetRepo, userRepo UserRepo, emailSender EmailSender, appURL string) *PasswordService {
	return &PasswordService{
		repo:        repo,
		userRepo:    userRepo,
		emailSender: emailSender,
		appURL:      appURL,
	}
}

var (
	ErrUserNotFound      = errors.New("пользователь с таким email не найден")
	ErrResetTokenInvalid = errors.New("токен сброса пароля не существует")
)

// RequestReset выпускает новый токен сброса и отправляет письмо со ссылкой.
// Старые токены для этого email удаляются: живым остаётся только последний.
func (s *PasswordService) RequestReset(ctx context.Context, email string) error {
	email = strings.TrimSpace(strings.ToLower(email))
	logger.Log.Info("Запрос на сброс пароля (service)", zap.String("email", email))

	user, err := s.userRepo.GetActiveByEmail(ctx, email)
	if err != nil {
		logger.Log.Warn("Активный пользователь не найден при запросе сброса (service)", zap.String("email", email), zap.Error(err))
		return ErrUserNotFound
	}

	if err := s.repo.DeleteByEmail(ctx, user.Email); err != nil {
		return err
	}

	token, err := utils.RandomToken(utils.TokenLength)
	if err != nil {
		logger.Log.Error("Ошибка генерации токена сброса", zap.Error(err))
		return err
	}

	if _, err := s.repo.Create(ctx, user.Email, token); err != nil {
		return err
	}

	resetLink := fmt.Sprintf("%s/password/reset/%s", s.appURL, token)
	if err := s.emailSender.SendPasswordReset(ctx, user.Email, user.Username, resetLink); err != nil {
		// Письмо не ушло — токен уже выпущен, наружу это не отдаём
		logger.Log.Error("Ошибка отправки письма для сброса пароля", zap.String("email", user.Email), zap.Error(err))
	}

	logger.Log.Info("Токен сброса выпущен (service)", zap.Int("user_id", user.ID))
	return nil
}

// ValidateToken проверяет, существует ли пара email+token.
func (s *PasswordService) ValidateToken(ctx context.Context, email, token string) error {
	if _, err := s.repo.GetByEmailAndToken(ctx, email, token); err != nil {
		return ErrResetTokenInvalid
	}
	return nil
}

// ResetPassword гасит токен: ставит новый пароль и удаляет все токены по email,
// включая те, что не были использованы.
func (s *PasswordService) ResetPassword(ctx context.Context, email, token, newPassword string) error {
	email = strings.TrimSpace(strings.ToLower(email))
	logger.Log.Info("Попытка сброса пароля по токену (service)", zap.String("email", email))

	user, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		logger.Log.Warn("Пользователь не найден при сбросе пароля (service)", zap.String("email", email), zap.Error(err))
		return ErrUserNotFound
	}

	if _, err := s.repo.GetByEmailAndToken(ctx, user.Email, token); err != nil {
		logger.Log.Warn("Токен сброса не найден (service)", zap.String("email", email))
		return ErrResetTokenInvalid
	}

	hashed, err := utils.HashPassword(newPassword)
	if err != nil {
		logger.Log.Error("Ошибка хеширования нового пароля", zap.Error(err), zap.Int("user_id", user.ID))
		return err
	}

	if err := s.userRepo.UpdatePassword(ctx, user.ID, hashed); err != nil {
		return err
	}

	if err := s.repo.DeleteByEmail(ctx, user.Email); err != nil {
		// Пароль уже сменён; зависший токен подчистится при следующем запросе сброса
		logger.Log.Warn("Не удалось удалить токены после сброса", zap.Error(err), zap.Int("user_id", user.ID))
	}

	logger.Log.Info("Пароль успешно сброшен (service)", zap.Int("user_id", user.ID))
	return nil
}
