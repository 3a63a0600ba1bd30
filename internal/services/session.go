package services

import (
	"context"
	"time"

	"lektoria/internal/logger"
	"lektoria/internal/models"
	"lektoria/internal/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// SessionCookie — имя cookie с подписанным идентификатором сессии.
const SessionCookie = "lektoria_session"

// SessionService выдаёт и проверяет cookie-сессии. Строка сессии живёт в БД,
// в cookie уходит только подписанный идентификатор — logout гасит строку на сервере.
type SessionService struct {
	repo        SessionRepo
	secret      string
	sessionTTL  time.Duration
	rememberTTL time.Duration
}

type SessionRepo interface {
	Create(ctx context.Context, s *models.Session) error
	GetByID(ctx context.Context, id string) (*models.Session, error)
	Delete(ctx context.Context, id string) error
	DeleteExpired(ctx context.Context) error
}

func NewSessionService(repo SessionRepo, secret string, sessionTTL, rememberTTL time.Duration) *SessionService {
	return &SessionService{
		repo:        repo,
		secret:      secret,
		sessionTTL:  sessionTTL,
		rememberTTL: rememberTTL,
	}
}

// Create открывает сессию; remember продлевает срок жизни.
// Возвращает подписанное значение для cookie и момент истечения.
func (s *SessionService) Create(ctx context.Context, userID int, remember bool) (string, time.Time, error) {
	ttl := s.sessionTTL
	if remember {
		ttl = s.rememberTTL
	}

	session := &models.Session{
		ID:        uuid.New().String(),
		UserID:    userID,
		Remember:  remember,
		ExpiresAt: time.Now().Add(ttl),
	}
	if err := s.repo.Create(ctx, session); err != nil {
		return "", time.Time{}, err
	}

	token, err := utils.GenerateSessionToken(s.secret, session.ID, ttl)
	if err != nil {
		logger.Log.Error("Ошибка подписи сессии (service)", zap.Error(err), zap.Int("user_id", userID))
		return "", time.Time{}, err
	}

	logger.Log.Info("Сессия открыта (service)", zap.Int("user_id", userID), zap.Bool("remember", remember))
	return token, session.ExpiresAt, nil
}

// Validate разбирает cookie-значение и возвращает живую сессию из БД.
func (s *SessionService) Validate(ctx context.Context, tokenString string) (*models.Session, error) {
	sid, err := utils.ParseSessionToken(s.secret, tokenString)
	if err != nil {
		return nil, err
	}
	return s.repo.GetByID(ctx, sid)
}

// Destroy закрывает сессию на сервере; невалидное значение cookie не считается ошибкой.
func (s *SessionService) Destroy(ctx context.Context, tokenString string) error {
	sid, err := utils.ParseSessionToken(s.secret, tokenString)
	if err != nil {
		return nil
	}
	logger.Log.Info("Сессия закрыта (service)", zap.String("session_id", sid))
	return s.repo.Delete(ctx, sid)
}

// DeleteExpired подчищает просроченные строки сессий.
func (s *SessionService) DeleteExpired(ctx context.Context) error {
	return s.repo.DeleteExpired(ctx)
}
