package wire

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"medhistory/internal/data/entity"
	"medhistory/internal/data/repository"
	"medhistory/internal/token"
	"medhistory/pkg/utils"
)

type discardNotifier struct{}

func (discardNotifier) SMS(to, body string)            {}
func (discardNotifier) Email(to, subject, html string) {}

func newTestApp() *App {
	config := &utils.Config{
		App:  utils.AppConfig{BaseURL: "http://medhistory.test"},
		CORS: utils.CORSConfig{AllowedOrigins: []string{"https://app.medhistory.test"}},
	}
	tokens := token.NewManager("a", "r", "x", time.Minute, time.Hour, time.Hour)
	return Wiring(&repository.Repository{}, tokens, discardNotifier{}, config, zap.NewNop())
}

func serve(app *App, method, path, body string, header map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	for k, v := range header {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	app.Router.ServeHTTP(rec, req)
	return rec
}

func TestHealth(t *testing.T) {
	app := newTestApp()

	rec := serve(app, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "OK", rec.Body.String())

	rec = serve(app, http.MethodGet, "/health/", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code, "trailing slash is tolerated")
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	app := newTestApp()

	for _, path := range []string{"/api/hello", "/api/user/profile", "/api/admin/users"} {
		rec := serve(app, http.MethodGet, path, "", nil)
		assert.Equal(t, http.StatusUnauthorized, rec.Code, path)
	}

	rec := serve(app, http.MethodPost, "/api/admin/catalog/categories", `{"name":"x"}`, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestHelloWithToken(t *testing.T) {
	app := newTestApp()
	tokens := token.NewManager("a", "r", "x", time.Minute, time.Hour, time.Hour)
	pair, err := tokens.IssuePair(&entity.User{Base: entity.Base{ID: uuid.New()}})
	require.NoError(t, err)

	rec := serve(app, http.MethodGet, "/api/hello", "", map[string]string{"Authorization": "Bearer " + pair.Access})
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Hello, World!")
}

func TestUnknownMediumIsRejected(t *testing.T) {
	app := newTestApp()

	rec := serve(app, http.MethodPost, "/api/signup/password_reset/fax", `{"username":"u"}`, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = serve(app, http.MethodPost, "/api/login/otp/fax", `{"username":"u"}`, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCORSPreflight(t *testing.T) {
	app := newTestApp()

	rec := serve(app, http.MethodOptions, "/api/token", "", map[string]string{
		"Origin":                        "https://app.medhistory.test",
		"Access-Control-Request-Method": http.MethodPost,
	})
	assert.Equal(t, "https://app.medhistory.test", rec.Header().Get("Access-Control-Allow-Origin"))

	rec = serve(app, http.MethodOptions, "/api/token", "", map[string]string{
		"Origin":                        "https://evil.test",
		"Access-Control-Request-Method": http.MethodPost,
	})
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}
