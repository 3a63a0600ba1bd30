package repository

import (
	"context"

	"lektoria/internal/logger"
	"lektoria/internal/models"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

type SessionRepository struct {
	db *pgxpool.Pool
}

func NewSessionRepository(db *pgxpool.Pool) *SessionRepository {
	return &SessionRepository{db: db}
}

func (r *SessionRepository) Create(ctx context.Context, s *models.Session) error {
	logger.Log.Debug("Создание сессии (repo)", zap.Int("user_id", s.UserID))
	query := `INSERT INTO sessions (id, user_id, remember, expires_at) VALUES ($1, $2, $3, $4) RETURNING created_at`
	err := r.db.QueryRow(ctx, query, s.ID, s.UserID, s.Remember, s.ExpiresAt).Scan(&s.CreatedAt)
	if err != nil {
		logger.Log.Error("Ошибка создания сессии (repo)", zap.Error(err), zap.Int("user_id", s.UserID))
	}
	return err
}

// GetByID возвращает только живую сессию: просроченные строки считаются отсутствующими.
func (r *SessionRepository) GetByID(ctx context.Context, id string) (*models.Session, error) {
	row := r.db.QueryRow(ctx, `
		SELECT id, user_id, remember, created_at, expires_at
		FROM sessions
		WHERE id = $1 AND expires_at > NOW()
	`, id)

	var s models.Session
	if err := row.Scan(&s.ID, &s.UserID, &s.Remember, &s.CreatedAt, &s.ExpiresAt); err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *SessionRepository) Delete(ctx context.Context, id string) error {
	logger.Log.Debug("Удаление сессии (repo)", zap.String("session_id", id))
	_, err := r.db.Exec(ctx, `DELETE FROM sessions WHERE id = $1`, id)
	if err != nil {
		logger.Log.Error("Ошибка удаления сессии (repo)", zap.Error(err))
	}
	return err
}

func (r *SessionRepository) DeleteExpired(ctx context.Context) error {
	_, err := r.db.Exec(ctx, `DELETE FROM sessions WHERE expires_at <= NOW()`)
	return err
}
