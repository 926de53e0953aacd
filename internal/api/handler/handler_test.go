package handler_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"ethos/backend/internal/api/handler"
	"ethos/backend/internal/chat"
	"ethos/backend/internal/chathub"
	"ethos/backend/internal/fieldcrypt"
	"ethos/backend/internal/models"
	"ethos/backend/internal/storage"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"
)

const (
	testSecret = "test-secret"
	testIssuer = "ethos-test"
	caseCode   = "CASE-1"
)

var (
	reporter     = models.Identity{ID: "rep-1", Role: models.RoleReporter}
	stranger     = models.Identity{ID: "rep-2", Role: models.RoleReporter}
	investigator = models.Identity{ID: "hr-1", Role: models.RoleInvestigator}
)

type testEnv struct {
	store   *storage.MemoryStore
	svc     *chat.Service
	hub     *chathub.ManagerService
	auth    *handler.TokenAuth
	handler *handler.Handler
	router  *gin.Engine
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	key, err := fieldcrypt.GenerateKeyHex()
	require.NoError(t, err)
	cipher, err := fieldcrypt.NewFromHex(key, "")
	require.NoError(t, err)

	store := storage.NewMemoryStore()
	store.PutCase(models.Case{Code: caseCode, ReporterID: reporter.ID})

	reg := prometheus.NewRegistry()
	svc := chat.NewService(store, cipher, nil)
	hub := chathub.NewManagerService(svc, nil, chathub.NewMetrics(reg), time.Second)
	auth := handler.NewTokenAuth(testSecret, testIssuer)

	h := handler.NewHandler(hub, svc, auth, store)
	h.Gatherer = reg

	r := gin.New()
	h.Routes(r)

	return &testEnv{store: store, svc: svc, hub: hub, auth: auth, handler: h, router: r}
}

func (e *testEnv) token(t *testing.T, identity models.Identity) string {
	t.Helper()
	tok, err := e.auth.IssueToken(identity, time.Hour)
	require.NoError(t, err)
	return tok
}

func (e *testEnv) get(path, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}

func wsURL(srvURL, path string) string {
	return "ws" + strings.TrimPrefix(srvURL, "http") + path
}
