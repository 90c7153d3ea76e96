package auth

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
)

func init() {
	gin.SetMode(gin.TestMode)
}

const testHMACSecretHex = "0x" + "11223344556677889900aabbccddeeff11223344556677889900aabbccddee"

func testSetup(t *testing.T) (*TokenSource, *gin.Engine) {
	t.Helper()
	ts, err := NewTokenSource(testHMACSecretHex)
	if err != nil {
		t.Fatal(err)
	}
	r := gin.New()
	r.POST("/test", Middleware(ts), func(c *gin.Context) {
		claims, _ := ClaimsFromContext(c)
		c.JSON(http.StatusOK, gin.H{"user": claims.User})
	})
	return ts, r
}

func doRequest(r *gin.Engine, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/test", nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestMiddleware_ValidToken(t *testing.T) {
	ts, r := testSetup(t)

	token, err := ts.Issue("alice", 1, time.Minute)
	if err != nil {
		t.Fatal(err)
	}

	w := doRequest(r, token)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	var resp map[string]string
	json.Unmarshal(w.Body.Bytes(), &resp)
	if resp["user"] != "alice" {
		t.Errorf("expected user alice, got %q", resp["user"])
	}
}

func TestMiddleware_MissingHeader(t *testing.T) {
	_, r := testSetup(t)

	w := doRequest(r, "")
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", w.Code)
	}
}

func TestMiddleware_ExpiredToken(t *testing.T) {
	ts, r := testSetup(t)

	token, err := ts.Issue("alice", 1, -time.Minute)
	if err != nil {
		t.Fatal(err)
	}

	w := doRequest(r, token)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d: %s", w.Code, w.Body.String())
	}
}

func TestMiddleware_WrongSecretRejected(t *testing.T) {
	_, r := testSetup(t)

	other, err := NewTokenSource("0x" + "0000000000000000000000000000000000000000000000000000000000000000")
	if err != nil {
		t.Fatal(err)
	}
	token, err := other.Issue("alice", 1, time.Minute)
	if err != nil {
		t.Fatal(err)
	}

	w := doRequest(r, token)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d: %s", w.Code, w.Body.String())
	}
}

func TestKeyringMiddleware_ResolvesSecretPerUser(t *testing.T) {
	gin.SetMode(gin.TestMode)

	aliceSecret := "0x" + "1111111111111111111111111111111111111111111111111111111111111111"
	bobSecret := "0x" + "2222222222222222222222222222222222222222222222222222222222222222"
	aliceTS, err := NewTokenSource(aliceSecret)
	if err != nil {
		t.Fatal(err)
	}
	bobTS, err := NewTokenSource(bobSecret)
	if err != nil {
		t.Fatal(err)
	}

	resolve := func(user string) (*TokenSource, error) {
		switch user {
		case "alice":
			return aliceTS, nil
		case "bob":
			return bobTS, nil
		default:
			return nil, ErrAccessDenied
		}
	}

	r := gin.New()
	r.POST("/test", KeyringMiddleware(resolve), func(c *gin.Context) {
		claims, _ := ClaimsFromContext(c)
		c.JSON(http.StatusOK, gin.H{"user": claims.User})
	})

	aliceToken, err := aliceTS.Issue("alice", 1, time.Minute)
	if err != nil {
		t.Fatal(err)
	}
	bobToken, err := bobTS.Issue("bob", 1, time.Minute)
	if err != nil {
		t.Fatal(err)
	}

	if w := doRequest(r, aliceToken); w.Code != http.StatusOK {
		t.Fatalf("alice: expected 200, got %d: %s", w.Code, w.Body.String())
	}
	if w := doRequest(r, bobToken); w.Code != http.StatusOK {
		t.Fatalf("bob: expected 200, got %d: %s", w.Code, w.Body.String())
	}

	// bob's token signed with alice's secret must not verify even though
	// the claimed user resolves to a real keyring.
	forged, err := aliceTS.Issue("bob", 1, time.Minute)
	if err != nil {
		t.Fatal(err)
	}
	if w := doRequest(r, forged); w.Code != http.StatusUnauthorized {
		t.Fatalf("forged token: expected 401, got %d: %s", w.Code, w.Body.String())
	}
}

func TestKeyringMiddleware_UnknownUserRejected(t *testing.T) {
	gin.SetMode(gin.TestMode)

	ts, err := NewTokenSource(testHMACSecretHex)
	if err != nil {
		t.Fatal(err)
	}
	resolve := func(user string) (*TokenSource, error) {
		return nil, ErrAccessDenied
	}

	r := gin.New()
	r.POST("/test", KeyringMiddleware(resolve), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{})
	})

	token, err := ts.Issue("ghost", 1, time.Minute)
	if err != nil {
		t.Fatal(err)
	}
	w := doRequest(r, token)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d: %s", w.Code, w.Body.String())
	}
}

func TestRequireAdminRejectsNonAdmin(t *testing.T) {
	ts, err := NewTokenSource(testHMACSecretHex)
	if err != nil {
		t.Fatal(err)
	}
	r := gin.New()
	r.POST("/admin", Middleware(ts), RequireAdmin("root"), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{})
	})

	token, err := ts.Issue("alice", 1, time.Minute)
	if err != nil {
		t.Fatal(err)
	}
	req := httptest.NewRequest(http.MethodPost, "/admin", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d: %s", w.Code, w.Body.String())
	}
}
