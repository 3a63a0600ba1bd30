package services

import (
	"context"
	"errors"
	"testing"

	"lektoria/internal/models"
	"lektoria/internal/utils"
)

type mockResetRepo struct {
	rows   []*models.PasswordResetToken
	nextID int64
}

func (m *mockResetRepo) DeleteByEmail(_ context.Context, email string) error {
	kept := m.rows[:0]
	for _, t := range m.rows {
		if t.Email != email {
			kept = append(kept, t)
		}
	}
	m.rows = kept
	return nil
}

func (m *mockResetRepo) Create(_ context.Context, email, token string) (*models.PasswordResetToken, error) {
	m.nextID++
	t := &models.PasswordResetToken{ID: m.nextID, Email: email, Token: token}
	m.rows = append(m.rows, t)
	return t, nil
}

func (m *mockResetRepo) GetByEmailAndToken(_ context.Context, email, token string) (*models.PasswordResetToken, error) {
	for _, t := range m.rows {
		if t.Email == email && t.Token == token {
			return t, nil
		}
	}
	return nil, errors.New("no rows")
}

func (m *mockResetRepo) countByEmail(email string) int {
	n := 0
	for _, t := range m.rows {
		if t.Email == email {
			n++
		}
	}
	return n
}

type mockEmailSender struct {
	sent []string // ссылки из отправленных писем
}

func (m *mockEmailSender) SendPasswordReset(_ context.Context, to, username, resetLink string) error {
	m.sent = append(m.sent, resetLink)
	return nil
}

func activeUserFixture(repo *mockUserRepo, email, password string) *models.User {
	hashed, _ := utils.HashPassword(password)
	u := &models.User{
		ID:           len(repo.users) + 1,
		Username:     "alice",
		Email:        email,
		PasswordHash: hashed,
		IsActive:     true,
	}
	repo.users[email] = u
	return u
}

func TestRequestReset_UnknownEmail(t *testing.T) {
	userRepo := newMockUserRepo()
	resetRepo := &mockResetRepo{}
	sender := &mockEmailSender{}
	service := NewPasswordService(resetRepo, userRepo, sender, "http://x")

	err := service.RequestReset(context.Background(), "ghost@x.com")
	if !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("ожидалась ErrUserNotFound, получено: %v", err)
	}
	if len(resetRepo.rows) != 0 {
		t.Fatal("для неизвестного email строки создаваться не должны")
	}
	if len(sender.sent) != 0 {
		t.Fatal("письмо не должно отправляться")
	}
}

func TestRequestReset_InactiveUser(t *testing.T) {
	userRepo := newMockUserRepo()
	userRepo.users["a@x.com"] = &models.User{ID: 1, Username: "alice", Email: "a@x.com", IsActive: false}
	service := NewPasswordService(&mockResetRepo{}, userRepo, &mockEmailSender{}, "http://x")

	if err := service.RequestReset(context.Background(), "a@x.com"); !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("неактивный аккаунт должен выглядеть как отсутствующий, получено: %v", err)
	}
}

// Повторный запрос вытесняет предыдущий токен: живым остаётся ровно один.
func TestRequestReset_SupersedesPrevious(t *testing.T) {
	userRepo := newMockUserRepo()
	resetRepo := &mockResetRepo{}
	sender := &mockEmailSender{}
	service := NewPasswordService(resetRepo, userRepo, sender, "http://x")

	activeUserFixture(userRepo, "a@x.com", "pw1pw1")

	if err := service.RequestReset(context.Background(), "a@x.com"); err != nil {
		t.Fatalf("ошибка первого запроса: %v", err)
	}
	firstToken := resetRepo.rows[0].Token

	if err := service.RequestReset(context.Background(), "a@x.com"); err != nil {
		t.Fatalf("ошибка второго запроса: %v", err)
	}

	if resetRepo.countByEmail("a@x.com") != 1 {
		t.Fatalf("живой токен должен быть один, найдено %d", resetRepo.countByEmail("a@x.com"))
	}
	if resetRepo.rows[0].Token == firstToken {
		t.Fatal("второй запрос должен выпустить новый токен")
	}
	if err := service.ValidateToken(context.Background(), "a@x.com", firstToken); !errors.Is(err, ErrResetTokenInvalid) {
		t.Fatal("первый токен после второго запроса должен быть мёртв")
	}
	if err := service.ValidateToken(context.Background(), "a@x.com", resetRepo.rows[0].Token); err != nil {
		t.Fatalf("второй токен должен быть жив: %v", err)
	}
	if len(sender.sent) != 2 {
		t.Fatalf("ожидалось два письма, отправлено %d", len(sender.sent))
	}
}

func TestResetPassword(t *testing.T) {
	userRepo := newMockUserRepo()
	resetRepo := &mockResetRepo{}
	service := NewPasswordService(resetRepo, userRepo, &mockEmailSender{}, "http://x")

	user := activeUserFixture(userRepo, "a@x.com", "pw1pw1")

	if err := service.RequestReset(context.Background(), "a@x.com"); err != nil {
		t.Fatalf("ошибка запроса сброса: %v", err)
	}
	token := resetRepo.rows[0].Token

	if err := service.ResetPassword(context.Background(), "a@x.com", token, "pw2pw2"); err != nil {
		t.Fatalf("ошибка сброса: %v", err)
	}

	if !utils.CheckPasswordHash("pw2pw2", user.PasswordHash) {
		t.Fatal("новый пароль должен подходить")
	}
	if utils.CheckPasswordHash("pw1pw1", user.PasswordHash) {
		t.Fatal("старый пароль не должен подходить")
	}
	if resetRepo.countByEmail("a@x.com") != 0 {
		t.Fatal("после сброса все токены по email должны быть удалены")
	}
}

func TestResetPassword_BadToken(t *testing.T) {
	userRepo := newMockUserRepo()
	resetRepo := &mockResetRepo{}
	service := NewPasswordService(resetRepo, userRepo, &mockEmailSender{}, "http://x")

	user := activeUserFixture(userRepo, "a@x.com", "pw1pw1")
	oldHash := user.PasswordHash

	err := service.ResetPassword(context.Background(), "a@x.com", "nosuchtoken", "pw2pw2")
	if !errors.Is(err, ErrResetTokenInvalid) {
		t.Fatalf("ожидалась ErrResetTokenInvalid, получено: %v", err)
	}
	if user.PasswordHash != oldHash {
		t.Fatal("пароль не должен меняться при невалидном токене")
	}
}

func TestResetPassword_UnknownEmail(t *testing.T) {
	service := NewPasswordService(&mockResetRepo{}, newMockUserRepo(), &mockEmailSender{}, "http://x")

	err := service.ResetPassword(context.Background(), "ghost@x.com", "sometoken", "pw2pw2")
	if !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("ожидалась ErrUserNotFound, получено: %v", err)
	}
}
