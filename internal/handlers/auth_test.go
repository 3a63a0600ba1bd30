package handlers

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"strings"
	"testing"
	"time"

	"lektoria/internal/config"
	"lektoria/internal/logger"
	"lektoria/internal/middleware"
	"lektoria/internal/models"
	"lektoria/internal/services"
	"lektoria/internal/utils"

	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

func TestMain(m *testing.M) {
	logger.Log = zap.NewNop()
	os.Exit(m.Run())
}

type mockUserRepo struct {
	users  map[string]*models.User
	nextID int
}

func (m *mockUserRepo) IsUsernameTaken(_ context.Context, username string) (bool, error) {
	for _, u := range m.users {
		if u.Username == username {
			return true, nil
		}
	}
	return false, nil
}

func (m *mockUserRepo) IsEmailTaken(_ context.Context, email string) (bool, error) {
	_, ok := m.users[email]
	return ok, nil
}

func (m *mockUserRepo) CreateUser(_ context.Context, user *models.User) error {
	m.nextID++
	user.ID = m.nextID
	m.users[user.Email] = user
	return nil
}

func (m *mockUserRepo) GetByEmail(_ context.Context, email string) (*models.User, error) {
	if u, ok := m.users[email]; ok {
		return u, nil
	}
	return nil, errors.New("no rows")
}

func (m *mockUserRepo) GetActiveByEmail(_ context.Context, email string) (*models.User, error) {
	if u, ok := m.users[email]; ok && u.IsActive {
		return u, nil
	}
	return nil, errors.New("no rows")
}

func (m *mockUserRepo) GetByConfirmationToken(_ context.Context, token string) (*models.User, error) {
	for _, u := range m.users {
		if u.ConfirmationToken != nil && *u.ConfirmationToken == token {
			return u, nil
		}
	}
	return nil, errors.New("no rows")
}

func (m *mockUserRepo) GetUserByID(_ context.Context, id int) (*models.User, error) {
	for _, u := range m.users {
		if u.ID == id {
			return u, nil
		}
	}
	return nil, errors.New("no rows")
}

func (m *mockUserRepo) ConfirmEmail(_ context.Context, userID int) error {
	for _, u := range m.users {
		if u.ID == userID {
			u.ConfirmationToken = nil
			u.IsActive = true
			return nil
		}
	}
	return errors.New("no rows")
}

func (m *mockUserRepo) UpdatePassword(_ context.Context, userID int, passwordHash string) error {
	for _, u := range m.users {
		if u.ID == userID {
			u.PasswordHash = passwordHash
			return nil
		}
	}
	return errors.New("no rows")
}

type mockSessionRepo struct {
	sessions map[string]*models.Session
}

func (m *mockSessionRepo) Create(_ context.Context, s *models.Session) error {
	s.CreatedAt = time.Now()
	m.sessions[s.ID] = s
	return nil
}

func (m *mockSessionRepo) GetByID(_ context.Context, id string) (*models.Session, error) {
	if s, ok := m.sessions[id]; ok && s.ExpiresAt.After(time.Now()) {
		return s, nil
	}
	return nil, errors.New("no rows")
}

func (m *mockSessionRepo) Delete(_ context.Context, id string) error {
	delete(m.sessions, id)
	return nil
}

func (m *mockSessionRepo) DeleteExpired(_ context.Context) error { return nil }

type testEnv struct {
	router   *mux.Router
	userRepo *mockUserRepo
}

func newTestEnv() *testEnv {
	userRepo := &mockUserRepo{users: make(map[string]*models.User)}
	sessionRepo := &mockSessionRepo{sessions: make(map[string]*models.Session)}

	authService := services.NewAuthService(userRepo)
	emailService := services.NewEmailService(&config.Config{})
	emailTokenService := services.NewEmailTokenService(userRepo)
	sessionService := services.NewSessionService(sessionRepo, "testsecret", time.Hour, 24*time.Hour)

	authHandler := NewAuthHandler(authService, sessionService, emailService, emailTokenService, "http://x")

	router := mux.NewRouter()
	router.HandleFunc("/", middleware.RequireAuth(sessionService, authHandler.Home)).Methods("GET")
	router.HandleFunc("/login", middleware.Guest(sessionService, authHandler.ShowLogin)).Methods("GET")
	router.HandleFunc("/login", authHandler.Login).Methods("POST")
	router.HandleFunc("/logout", authHandler.Logout).Methods("GET", "POST")
	router.HandleFunc("/register", authHandler.Register).Methods("POST")
	router.HandleFunc("/confirm/{token}", authHandler.ConfirmEmail).Methods("GET")

	return &testEnv{router: router, userRepo: userRepo}
}

func (e *testEnv) postForm(path string, form url.Values, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	for _, c := range cookies {
		req.AddCookie(c)
	}
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func (e *testEnv) get(path string, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	for _, c := range cookies {
		req.AddCookie(c)
	}
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func (e *testEnv) addActiveUser(email, password string) *models.User {
	hashed, _ := utils.HashPassword(password)
	e.userRepo.nextID++
	u := &models.User{
		ID:           e.userRepo.nextID,
		Username:     "alice",
		Email:        email,
		PasswordHash: hashed,
		IsActive:     true,
	}
	e.userRepo.users[email] = u
	return u
}

func findCookie(rec *httptest.ResponseRecorder, name string) *http.Cookie {
	for _, c := range rec.Result().Cookies() {
		if c.Name == name && c.MaxAge >= 0 && c.Value != "" {
			return c
		}
	}
	return nil
}

func TestLogin_BadCredentialsRedirectsBack(t *testing.T) {
	env := newTestEnv()
	env.addActiveUser("a@x.com", "pw1pw1")

	rec := env.postForm("/login", url.Values{"email": {"a@x.com"}, "password": {"wrong"}})
	if rec.Code != http.StatusSeeOther || rec.Header().Get("Location") != "/login" {
		t.Fatalf("ожидался редирект на /login, получено %d %q", rec.Code, rec.Header().Get("Location"))
	}
	if findCookie(rec, "lektoria_flash") == nil {
		t.Fatal("ожидалось flash-уведомление об ошибке входа")
	}
	if findCookie(rec, services.SessionCookie) != nil {
		t.Fatal("cookie сессии не должна выставляться")
	}
}

func TestLogin_SuccessOpensSession(t *testing.T) {
	env := newTestEnv()
	env.addActiveUser("a@x.com", "pw1pw1")

	rec := env.postForm("/login", url.Values{"email": {"a@x.com"}, "password": {"pw1pw1"}})
	if rec.Code != http.StatusSeeOther || rec.Header().Get("Location") != "/" {
		t.Fatalf("ожидался редирект на /, получено %d %q", rec.Code, rec.Header().Get("Location"))
	}

	session := findCookie(rec, services.SessionCookie)
	if session == nil {
		t.Fatal("ожидалась cookie сессии")
	}

	// с этой cookie главная страница открывается
	home := env.get("/", session)
	if home.Code != http.StatusOK || !strings.Contains(home.Body.String(), "alice") {
		t.Fatalf("главная должна открываться для вошедшего, получено %d", home.Code)
	}

	// а форма логина уводит на главную
	login := env.get("/login", session)
	if login.Code != http.StatusSeeOther || login.Header().Get("Location") != "/" {
		t.Fatalf("вошедшего должно уводить с формы логина, получено %d %q", login.Code, login.Header().Get("Location"))
	}
}

func TestHome_RequiresSession(t *testing.T) {
	env := newTestEnv()

	rec := env.get("/")
	if rec.Code != http.StatusSeeOther || rec.Header().Get("Location") != "/login" {
		t.Fatalf("без сессии должно уводить на /login, получено %d %q", rec.Code, rec.Header().Get("Location"))
	}
}

func TestRegister_ValidationErrors(t *testing.T) {
	env := newTestEnv()

	rec := env.postForm("/register", url.Values{"username": {"alice"}, "email": {"не почта"}, "password": {""}})
	if rec.Code != http.StatusSeeOther || rec.Header().Get("Location") != "/register" {
		t.Fatalf("ожидался редирект обратно на /register, получено %d %q", rec.Code, rec.Header().Get("Location"))
	}
	if len(env.userRepo.users) != 0 {
		t.Fatal("невалидная форма не должна создавать пользователя")
	}
	if findCookie(rec, "lektoria_flash") == nil {
		t.Fatal("ожидались ошибки полей во flash")
	}
}

func TestRegisterAndConfirmFlow(t *testing.T) {
	env := newTestEnv()

	rec := env.postForm("/register", url.Values{
		"username": {"alice"},
		"email":    {"a@x.com"},
		"password": {"pw1pw1"},
	})
	if rec.Code != http.StatusSeeOther || rec.Header().Get("Location") != "/register" {
		t.Fatalf("ожидался редирект на /register, получено %d %q", rec.Code, rec.Header().Get("Location"))
	}

	user := env.userRepo.users["a@x.com"]
	if user == nil || user.IsActive || user.ConfirmationToken == nil {
		t.Fatal("пользователь должен быть создан неактивным с токеном подтверждения")
	}

	// до подтверждения вход закрыт даже с верным паролем
	login := env.postForm("/login", url.Values{"email": {"a@x.com"}, "password": {"pw1pw1"}})
	if login.Header().Get("Location") != "/login" {
		t.Fatal("неподтверждённый аккаунт не должен входить")
	}

	confirm := env.get("/confirm/" + *user.ConfirmationToken)
	if confirm.Code != http.StatusSeeOther || confirm.Header().Get("Location") != "/login" {
		t.Fatalf("ожидался редирект на /login, получено %d %q", confirm.Code, confirm.Header().Get("Location"))
	}
	if !user.IsActive || user.ConfirmationToken != nil {
		t.Fatal("после подтверждения аккаунт должен стать активным, токен — сброситься")
	}

	// теперь вход проходит
	login = env.postForm("/login", url.Values{"email": {"a@x.com"}, "password": {"pw1pw1"}})
	if login.Header().Get("Location") != "/" {
		t.Fatal("после подтверждения вход должен проходить")
	}
}
