package tests

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/elimu/apps/api/echo"
	"github.com/trezcool/elimu/core"
	"github.com/trezcool/elimu/tests"
)

const secret = "test-secret"

var (
	errMissingToken = httpErr{Error: "missing or malformed jwt"}
	errForbidden    = httpErr{Error: "permission denied"}
)

func testConfig() *core.Config {
	return &core.Config{
		AppName:   "Elimu",
		SecretKey: secret,
		TestMode:  true,
		Server:    core.ServerConfig{DisableReqLogs: true},
	}
}

type app struct {
	env    *testutil.Env
	server *echoapi.Server
}

func newApp(t *testing.T, verifier ...core.IdentityVerifier) app {
	t.Helper()
	env := testutil.NewEnv()
	deps := &echoapi.Deps{
		Conf:       testConfig(),
		CourseSvc:  env.CourseSvc,
		ChapterSvc: env.ChapterSvc,
		QuizSvc:    env.QuizSvc,
	}
	if len(verifier) > 0 {
		deps.Verifier = verifier[0]
	}
	return app{env: env, server: echoapi.NewServer("", nil, deps)}
}

type httpErr struct {
	Error string `json:"error"`
}

type httpTest struct {
	name     string
	method   string
	path     string
	body     []byte
	token    string
	wantCode int
	wantData []byte
	check    func(t *testing.T, rec *httptest.ResponseRecorder)
}

func newAuthRequest(method, path, token string, data ...[]byte) (*http.Request, *httptest.ResponseRecorder) {
	var body bytes.Buffer
	if len(data) > 0 && data[0] != nil {
		body.Write(data[0])
	}
	req := httptest.NewRequest(method, path, &body)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return req, httptest.NewRecorder()
}

func (a app) do(method, path, token string, data ...[]byte) *httptest.ResponseRecorder {
	req, rec := newAuthRequest(method, path, token, data...)
	a.server.ServeHTTP(rec, req)
	return rec
}

func (a app) run(t *testing.T, tests []httpTest) {
	t.Helper()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			method := tt.method
			if method == "" {
				method = http.MethodGet
			}
			rec := a.do(method, tt.path, tt.token, tt.body)
			checkCodeAndData(t, tt, rec)
		})
	}
}

func getToken(t *testing.T, id string, roles ...string) string {
	t.Helper()
	token, err := echoapi.GenerateToken([]byte(secret), "elimu-test", testutil.Identity(id, roles...), time.Hour)
	require.NoError(t, err)
	return token
}

func marshalObj(t *testing.T, obj interface{}) []byte {
	t.Helper()
	data, err := json.Marshal(obj)
	require.NoError(t, err)
	return data
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, dst interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), dst), rec.Body.String())
}

func checkCodeAndData(t *testing.T, tt httpTest, rec *httptest.ResponseRecorder) {
	t.Helper()
	wantCode := tt.wantCode
	if wantCode == 0 {
		wantCode = http.StatusOK
	}
	assert.Equal(t, wantCode, rec.Code, rec.Body.String())
	if tt.wantData != nil {
		assert.JSONEq(t, string(tt.wantData), rec.Body.String())
	}
	if tt.check != nil {
		tt.check(t, rec)
	}
}

// stubVerifier stands in for the remote login service.
type stubVerifier map[string]core.Identity

func (v stubVerifier) Verify(_ context.Context, token string) (core.Identity, error) {
	if token == "down" {
		return core.Identity{}, core.NewError(core.KindDependencyFailure, "identity.Verify", "login service unavailable", context.DeadlineExceeded)
	}
	ident, ok := v[token]
	if !ok {
		return core.Identity{}, core.ErrUnauthenticated
	}
	return ident, nil
}
