package services

import (
	"context"
	"errors"

	"lektoria/internal/logger"
	"lektoria/internal/models"
	"lektoria/internal/utils"

	"go.uber.org/zap"
)

type AuthService struct {
	repo UserRepo
}

func NewAuthService(repo UserRepo) *AuthService {
	return &AuthService{repo: repo}
}

type UserRepo interface {
	IsUsernameTaken(ctx context.Context, username string) (bool, error)
	IsEmailTaken(ctx context.Context, email string) (bool, error)
	CreateUser(ctx context.Context, user *models.User) error
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	GetActiveByEmail(ctx context.Context, email string) (*models.User, error)
	GetByConfirmationToken(ctx context.Context, token string) (*models.User, error)
	GetUserByID(ctx context.Context, id int) (*models.User, error)
	ConfirmEmail(ctx context.Context, userID int) error
	UpdatePassword(ctx context.Context, userID int, passwordHash string) error
}

var (
	ErrUsernameTaken = errors.New("имя пользователя уже занято")
	ErrEmailTaken    = errors.New("адрес электронной почты уже зарегистрирован")

	// ErrInvalidCredentials — единственная ошибка входа: неверный пароль,
	// несуществующий или неактивный аккаунт снаружи неотличимы.
	ErrInvalidCredentials = errors.New("не удалось проверить учётные данные")
)

// Register создаёт неактивного пользователя со свежим токеном подтверждения.
func (s *AuthService) Register(ctx context.Context, input *models.User, plainPassword string) error {
	logger.Log.Info("Регистрация пользователя (service)", zap.String("username", input.Username), zap.String("email", input.Email))
	if exists, err := s.repo.IsUsernameTaken(ctx, input.Username); exists || err != nil {
		if err != nil {
			logger.Log.Error("Ошибка проверки username", zap.Error(err))
		}
		return ErrUsernameTaken
	}
	if exists, err := s.repo.IsEmailTaken(ctx, input.Email); exists || err != nil {
		if err != nil {
			logger.Log.Error("Ошибка проверки email", zap.Error(err))
		}
		return ErrEmailTaken
	}

	hashed, err := utils.HashPassword(plainPassword)
	if err != nil {
		logger.Log.Error("Ошибка хеширования пароля", zap.Error(err))
		return err
	}

	token, err := utils.RandomToken(utils.TokenLength)
	if err != nil {
		logger.Log.Error("Ошибка генерации токена подтверждения", zap.Error(err))
		return err
	}

	input.PasswordHash = hashed
	input.ConfirmationToken = &token
	input.IsActive = false

	if err := s.repo.CreateUser(ctx, input); err != nil {
		logger.Log.Error("Ошибка создания пользователя", zap.Error(err))
		return err
	}
	logger.Log.Info("Пользователь зарегистрирован (service)", zap.String("username", input.Username))
	return nil
}

// Login возвращает активного пользователя по email и паролю.
// Все неуспешные исходы сводятся к ErrInvalidCredentials.
func (s *AuthService) Login(ctx context.Context, email, password string) (*models.User, error) {
	logger.Log.Info("Попытка входа (service)", zap.String("email", email))
	user, err := s.repo.GetActiveByEmail(ctx, email)
	if err != nil {
		logger.Log.Warn("Активный пользователь не найден (service)", zap.String("email", email), zap.Error(err))
		return nil, ErrInvalidCredentials
	}

	if !utils.CheckPasswordHash(password, user.PasswordHash) {
		logger.Log.Warn("Неверный пароль (service)", zap.String("email", email))
		return nil, ErrInvalidCredentials
	}

	logger.Log.Info("Вход выполнен (service)", zap.Int("user_id", user.ID))
	return user, nil
}

func (s *AuthService) GetUserByID(ctx context.Context, id int) (*models.User, error) {
	user, err := s.repo.GetUserByID(ctx, id)
	if err != nil {
		logger.Log.Warn("Пользователь не найден по ID (service)", zap.Int("user_id", id), zap.Error(err))
	}
	return user, err
}
