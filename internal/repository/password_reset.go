package repository

import (
	"context"

	"lektoria/internal/logger"
	"lektoria/internal/models"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

type PasswordResetRepository struct {
	db *pgxpool.Pool
}

func NewPasswordResetRepository(db *pgxpool.Pool) *PasswordResetRepository {
	return &PasswordResetRepository{db: db}
}

type PasswordResetRepo interface {
	DeleteByEmail(ctx context.Context, email string) error
	Create(ctx context.Context, email, token string) (*models.PasswordResetToken, error)
	GetByEmailAndToken(ctx context.Context, email, token string) (*models.PasswordResetToken, error)
}

// DeleteByEmail удаляет ВСЕ токены по email: и при выпуске нового (последний запрос
// побеждает), и при успешном сбросе (гасим все выданные токены разом).
func (r *PasswordResetRepository) DeleteByEmail(ctx context.Context, email string) error {
	_, err := r.db.Exec(ctx, `DELETE FROM password_resets WHERE email = $1`, email)
	if err != nil {
		logger.Log.Error("Ошибка удаления токенов сброса (repo)", zap.Error(err), zap.String("email", email))
	}
	return err
}

func (r *PasswordResetRepository) Create(ctx context.Context, email, token string) (*models.PasswordResetToken, error) {
	row := r.db.QueryRow(ctx,
		`INSERT INTO password_resets (email, token) VALUES ($1, $2) RETURNING id, email, token, created_at, updated_at`,
		email, token,
	)

	var t models.PasswordResetToken
	if err := row.Scan(&t.ID, &t.Email, &t.Token, &t.CreatedAt, &t.UpdatedAt); err != nil {
		logger.Log.Error("Ошибка создания токена сброса (repo)", zap.Error(err), zap.String("email", email))
		return nil, err
	}
	return &t, nil
}

func (r *PasswordResetRepository) GetByEmailAndToken(ctx context.Context, email, token string) (*models.PasswordResetToken, error) {
	row := r.db.QueryRow(ctx, `
		SELECT id, email, token, created_at, updated_at
		FROM password_resets
		WHERE email = $1 AND token = $2
	`, email, token)

	var t models.PasswordResetToken
	if err := row.Scan(&t.ID, &t.Email, &t.Token, &t.CreatedAt, &t.UpdatedAt); err != nil {
		return nil, err
	}
	return &t, nil
}
