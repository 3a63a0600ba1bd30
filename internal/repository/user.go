package repository

import (
	"context"

	"lektoria/internal/logger"
	"lektoria/internal/models"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

type UserRepository struct {
	db *pgxpool.Pool
}

func NewUserRepository(db *pgxpool.Pool) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) CreateUser(ctx context.Context, user *models.User) error {
	logger.Log.Info("Создание пользователя (repo)", zap.String("username", user.Username), zap.String("email", user.Email))
	query := `
	INSERT INTO users (username, email, password_hash, confirmation_token, is_active)
	VALUES ($1, $2, $3, $4, $5)
	RETURNING id, created_at, updated_at`
	return r.db.QueryRow(ctx, query,
		user.Username,
		user.Email,
		user.PasswordHash,
		user.ConfirmationToken,
		user.IsActive,
	).Scan(&user.ID, &user.CreatedAt, &user.UpdatedAt)
}

func (r *UserRepository) IsUsernameTaken(ctx context.Context, username string) (bool, error) {
	logger.Log.Debug("Проверка username на уникальность (repo)", zap.String("username", username))
	query := `SELECT EXISTS(SELECT 1 FROM users WHERE username = $1)`
	var exists bool
	err := r.db.QueryRow(ctx, query, username).Scan(&exists)
	if err != nil {
		logger.Log.Error("Ошибка проверки username (repo)", zap.Error(err))
	}
	return exists, err
}

func (r *UserRepository) IsEmailTaken(ctx context.Context, email string) (bool, error) {
	logger.Log.Debug("Проверка email на уникальность (repo)", zap.String("email", email))
	query := `SELECT EXISTS(SELECT 1 FROM users WHERE email = $1)`
	var exists bool
	err := r.db.QueryRow(ctx, query, email).Scan(&exists)
	if err != nil {
		logger.Log.Error("Ошибка проверки email (repo)", zap.Error(err))
	}
	return exists, err
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	logger.Log.Debug("Получение пользователя по email (repo)", zap.String("email", email))
	query := `SELECT id, username, email, password_hash, confirmation_token, is_active, created_at, updated_at
	FROM users
	WHERE email = $1`

	return r.scanUser(r.db.QueryRow(ctx, query, email))
}

func (r *UserRepository) GetActiveByEmail(ctx context.Context, email string) (*models.User, error) {
	logger.Log.Debug("Получение активного пользователя по email (repo)", zap.String("email", email))
	query := `SELECT id, username, email, password_hash, confirmation_token, is_active, created_at, updated_at
	FROM users
	WHERE email = $1 AND is_active = true`

	return r.scanUser(r.db.QueryRow(ctx, query, email))
}

func (r *UserRepository) GetByConfirmationToken(ctx context.Context, token string) (*models.User, error) {
	logger.Log.Debug("Получение пользователя по токену подтверждения (repo)")
	query := `SELECT id, username, email, password_hash, confirmation_token, is_active, created_at, updated_at
	FROM users
	WHERE confirmation_token = $1`

	return r.scanUser(r.db.QueryRow(ctx, query, token))
}

func (r *UserRepository) GetUserByID(ctx context.Context, id int) (*models.User, error) {
	logger.Log.Debug("Получение пользователя по ID (repo)", zap.Int("user_id", id))
	query := `SELECT id, username, email, password_hash, confirmation_token, is_active, created_at, updated_at
	FROM users
	WHERE id = $1`

	return r.scanUser(r.db.QueryRow(ctx, query, id))
}

// ConfirmEmail активирует аккаунт и сбрасывает токен подтверждения (токен одноразовый).
func (r *UserRepository) ConfirmEmail(ctx context.Context, userID int) error {
	logger.Log.Info("Подтверждение почты (repo)", zap.Int("user_id", userID))
	query := `UPDATE users SET confirmation_token = NULL, is_active = true, updated_at = NOW() WHERE id = $1`
	_, err := r.db.Exec(ctx, query, userID)
	if err != nil {
		logger.Log.Error("Ошибка подтверждения почты (repo)", zap.Error(err), zap.Int("user_id", userID))
	}
	return err
}

func (r *UserRepository) UpdatePassword(ctx context.Context, userID int, passwordHash string) error {
	logger.Log.Info("Обновление пароля (repo)", zap.Int("user_id", userID))
	query := `UPDATE users SET password_hash = $1, updated_at = NOW() WHERE id = $2`
	_, err := r.db.Exec(ctx, query, passwordHash, userID)
	if err != nil {
		logger.Log.Error("Ошибка обновления пароля (repo)", zap.Error(err), zap.Int("user_id", userID))
	}
	return err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func (r *UserRepository) scanUser(row rowScanner) (*models.User, error) {
	var u models.User
	err := row.Scan(
		&u.ID,
		&u.Username,
		&u.Email,
		&u.PasswordHash,
		&u.ConfirmationToken,
		&u.IsActive,
		&u.CreatedAt,
		&u.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &u, nil
}
