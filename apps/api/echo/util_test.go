package echoapi

import (
	"bytes"
	"context"
	"encoding/json"
	"log"
	"net/http"
	"net/http/httptest"
	"net/mail"
	"reflect"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/academiahq/academia/core"
	"github.com/academiahq/academia/core/account"
)

// testLogger satisfies core.Logger for the test server.
type testLogger struct{}

func (l testLogger) Debug(msg string, args ...interface{}) { log.Println(append([]interface{}{msg}, args...)...) }
func (l testLogger) Info(msg string, args ...interface{})  { log.Println(append([]interface{}{msg}, args...)...) }
func (l testLogger) Warn(msg string, args ...interface{})  { log.Println(append([]interface{}{msg}, args...)...) }
func (l testLogger) Error(msg string, args ...interface{}) { log.Println(append([]interface{}{msg}, args...)...) }
func (l testLogger) Fatal(msg string, args ...interface{}) { log.Println(append([]interface{}{msg}, args...)...) }

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
	extra    interface{}
}

func newAuthRequest(method, path, token string, data ...[]byte) (*http.Request, *httptest.ResponseRecorder) {
	var body bytes.Buffer
	if len(data) > 0 {
		body.Write(data[0])
	}
	req := httptest.NewRequest(method, path, &body)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	return req, rec
}

func newRequest(method, path string, data ...[]byte) (*http.Request, *httptest.ResponseRecorder) {
	return newAuthRequest(method, path, "", data...)
}

func createAccount(
	t *testing.T,
	repo account.Repository,
	uname, email, pwd string,
	role account.Role,
	status account.ApprovalStatus,
	isActive bool,
) account.Account {
	t.Helper()
	now := time.Now().UTC()
	acct := account.Account{
		Username:       uname,
		Email:          email,
		Role:           role,
		ApprovalStatus: status,
		IsActive:       isActive,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if pwd != "" {
		if err := acct.SetPassword(pwd); err != nil {
			t.Fatalf("createAccount() failed: %v", err)
		}
	}
	acct, err := repo.CreateAccount(context.Background(), acct)
	if err != nil {
		t.Fatalf("createAccount() failed: %v", err)
	}
	return acct
}

func getToken(t *testing.T, acct account.Account) string {
	t.Helper()
	claims := GetAccountClaims(acct)
	token, err := GenerateToken(claims)
	if err != nil {
		t.Fatalf("getToken(): %v", err)
	}
	return token
}

func marchallObj(t *testing.T, obj interface{}) []byte {
	data, err := json.Marshal(obj)
	if err != nil {
		t.Fatalf("marchallObj(): %v", err)
	}
	return data
}

func jsonBytesEqual(t *testing.T, b1, b2 []byte) (bool, error) {
	var j1, j2 interface{}
	if err := json.Unmarshal(b1, &j1); err != nil {
		return false, err
	}
	if err := json.Unmarshal(b2, &j2); err != nil {
		return false, err
	}
	if reflect.DeepEqual(j1, j2) {
		return true, nil
	}
	if j1 == nil || j2 == nil {
		return false, nil
	}
	return assert.ElementsMatch(t, j1, j2), nil
}

func checkCodeAndData(t *testing.T, tt httpTest, rec *httptest.ResponseRecorder) {
	t.Helper()
	if rec.Code != tt.wantCode {
		t.Errorf("failed! code = %v; wantCode %v", rec.Code, tt.wantCode)
	}
	if tt.wantData == nil {
		return
	}
	ok, err := jsonBytesEqual(t, rec.Body.Bytes(), tt.wantData)
	if err != nil {
		t.Errorf("jsonBytesEqual() failed to compare; err %v", err)
	}
	if !ok {
		t.Errorf("failed! data = %v; wantData %v", rec.Body.String(), string(tt.wantData))
	}
}

func testConfig() *core.Config {
	return &core.Config{
		Env:             "TEST",
		Debug:           false,
		TestMode:        true,
		WorkDir:         "../../..",
		AppName:         "Academia",
		SecretKey:       "secret",
		FrontendBaseURL: "http://localhost:3000",
		DefaultFromEmail: mail.Address{
			Name:    "Academia",
			Address: "noreply@localhost",
		},
		Server: core.ServerConfig{
			Host:                      "localhost",
			Port:                      "8000",
			JWTExpirationDelta:        10 * time.Minute,
			JWTRefreshExpirationDelta: 4 * time.Hour,
			PasswordResetTimeoutDelta: 3 * 24 * time.Hour,
		},
	}
}
