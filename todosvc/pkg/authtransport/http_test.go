package authtransport

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/go-kit/kit/log"
	"github.com/gorilla/securecookie"
	"github.com/hisakawa/todolist/todosvc"
	dbgorm "github.com/hisakawa/todolist/todosvc/db/gorm"
	"github.com/hisakawa/todolist/todosvc/pkg/authendpoint"
	"github.com/hisakawa/todolist/todosvc/pkg/authservice"
	"github.com/hisakawa/todolist/todosvc/pkg/token"
	"gorm.io/driver/sqlite"
	stdgorm "gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func newTestHandler(t *testing.T) http.Handler {
	t.Helper()

	db, err := stdgorm.Open(
		sqlite.Open(filepath.Join(t.TempDir(), "test.db")),
		&stdgorm.Config{Logger: gormlogger.Default.LogMode(gormlogger.Silent)},
	)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if err := db.AutoMigrate(&todosvc.User{}, &todosvc.BlacklistedToken{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	var (
		logger    = log.NewNopLogger()
		users     = dbgorm.NewUserRepository(db)
		blacklist = dbgorm.NewBlacklistRepository(db)
		tokens    = token.NewService([]byte("test-secret"))
		cookies   = securecookie.New([]byte("very-secret"), []byte("a-lots-of-secret"))
	)

	svc := authservice.New(users, blacklist, tokens, logger)
	authenticator := NewAuthenticator(tokens, users, blacklist, logger)

	return NewHTTPHandler(authendpoint.New(svc, logger), authenticator, cookies, logger)
}

func postJSON(t *testing.T, handler http.Handler, path string, body interface{}, mutate func(*http.Request)) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode: %v", err)
		}
	}
	req := httptest.NewRequest("POST", path, &buf)
	if mutate != nil {
		mutate(req)
	}
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func register(t *testing.T, handler http.Handler) {
	t.Helper()

	rec := postJSON(t, handler, "/user/register", map[string]string{
		"name":     "Alice",
		"email":    "alice@example.com",
		"password": "s3cret",
	}, nil)
	if rec.Code != http.StatusCreated {
		t.Fatalf("register: status = %d, body = %s", rec.Code, rec.Body)
	}
}

func login(t *testing.T, handler http.Handler) (authendpoint.LoginResponse, []*http.Cookie) {
	t.Helper()

	rec := postJSON(t, handler, "/user/login", map[string]string{
		"email":    "alice@example.com",
		"password": "s3cret",
	}, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("login: status = %d, body = %s", rec.Code, rec.Body)
	}

	var resp authendpoint.LoginResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	return resp, rec.Result().Cookies()
}

func TestRegisterAndLogin(t *testing.T) {
	handler := newTestHandler(t)

	register(t, handler)

	rec := postJSON(t, handler, "/user/register", map[string]string{
		"name":     "Imposter",
		"email":    "alice@example.com",
		"password": "other",
	}, nil)
	if rec.Code != http.StatusConflict {
		t.Errorf("duplicate register: status = %d, want 409", rec.Code)
	}

	resp, cookies := login(t, handler)
	if resp.AccessToken == "" || resp.RefreshToken == "" || resp.TokenType != "bearer" {
		t.Errorf("login response = %+v", resp)
	}

	var found bool
	for _, c := range cookies {
		if c.Name == refreshCookieName && c.HttpOnly {
			found = true
		}
	}
	if !found {
		t.Error("refresh cookie not set")
	}
}

func TestLoginBadPasswordIsOpaque(t *testing.T) {
	handler := newTestHandler(t)
	register(t, handler)

	rec := postJSON(t, handler, "/user/login", map[string]string{
		"email":    "alice@example.com",
		"password": "wrong",
	}, nil)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}

	var body struct {
		Error string `json:"error"`
	}
	json.NewDecoder(rec.Body).Decode(&body)
	if body.Error != todosvc.ErrUnauthorized.Error() {
		t.Errorf("error = %q, want the uniform message", body.Error)
	}
}

func TestRefreshWithCookie(t *testing.T) {
	handler := newTestHandler(t)
	register(t, handler)
	_, cookies := login(t, handler)

	rec := postJSON(t, handler, "/user/refresh", nil, func(r *http.Request) {
		for _, c := range cookies {
			r.AddCookie(c)
		}
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("refresh: status = %d, body = %s", rec.Code, rec.Body)
	}

	var resp authendpoint.RefreshResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.AccessToken == "" {
		t.Error("no access token issued")
	}
}

func TestRefreshRejectsAccessToken(t *testing.T) {
	handler := newTestHandler(t)
	register(t, handler)
	resp, _ := login(t, handler)

	rec := postJSON(t, handler, "/user/refresh", map[string]string{
		"refresh_token": resp.AccessToken,
	}, nil)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rec.Code)
	}
}

func TestLogoutRevokesToken(t *testing.T) {
	handler := newTestHandler(t)
	register(t, handler)
	resp, _ := login(t, handler)

	bearer := func(r *http.Request) {
		r.Header.Set("Authorization", "Bearer "+resp.AccessToken)
	}

	rec := postJSON(t, handler, "/user/logout", nil, bearer)
	if rec.Code != http.StatusOK {
		t.Fatalf("logout: status = %d, body = %s", rec.Code, rec.Body)
	}

	// The token is in the blacklist now; presenting it again must fail even
	// though it has not expired.
	rec = postJSON(t, handler, "/user/logout", nil, bearer)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("second logout: status = %d, want 401", rec.Code)
	}
}
