package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/devilmonastery/processo/internal/pkg/logger"
	"github.com/devilmonastery/processo/web/internal/session"
)

func testToken(exp time.Time) string {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"id":       "u-1",
		"tenantId": "t-1",
		"exp":      float64(exp.Unix()),
	})
	s, _ := token.SigningString()
	return s + ".sig"
}

func TestClassify(t *testing.T) {
	rules := DefaultRules()
	tests := []struct {
		path string
		want Class
	}{
		{"/dashboard", ClassProtected},
		{"/dashboard/", ClassProtected},
		{"/dashboard/processos/42", ClassProtected},
		{"/dashboards", ClassNeutral},
		{"/login", ClassPublic},
		{"/signup", ClassPublic},
		{"/login/help", ClassPublic},
		{"/loginx", ClassNeutral},
		{"/", ClassNeutral},
		{"/api/process", ClassNeutral},
		{"/confirm-email/abc", ClassNeutral},
	}
	for _, tt := range tests {
		if got := rules.Classify(tt.path); got != tt.want {
			t.Errorf("Classify(%q) = %s, want %s", tt.path, got, tt.want)
		}
	}
}

func TestClassifyProtectedWins(t *testing.T) {
	rules := Rules{Protected: []string{"/area"}, Public: []string{"/area"}}
	if got := rules.Classify("/area/x"); got != ClassProtected {
		t.Errorf("expected protected to win, got %s", got)
	}
}

func TestDecide(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	valid := testToken(now.Add(time.Hour))
	expired := testToken(now.Add(-time.Hour))
	rules := DefaultRules()

	tests := []struct {
		name  string
		path  string
		token string
		want  Decision
	}{
		{"protected no token", "/dashboard", "", Decision{Redirect, "/login"}},
		{"protected nested no token", "/dashboard/processos", "", Decision{Redirect, "/login"}},
		{"protected valid", "/dashboard", valid, Decision{Outcome: Allow}},
		{"protected expired", "/dashboard/settings/general", expired, Decision{RedirectAndClear, "/login"}},
		{"protected malformed", "/dashboard", "not.a.jwt", Decision{RedirectAndClear, "/login"}},
		{"protected two segments", "/dashboard", "abc.def", Decision{RedirectAndClear, "/login"}},
		{"public no token", "/login", "", Decision{Outcome: Allow}},
		{"public valid", "/login", valid, Decision{Redirect, "/dashboard"}},
		{"signup valid", "/signup", valid, Decision{Redirect, "/dashboard"}},
		{"public expired", "/login", expired, Decision{Outcome: Allow}},
		{"public malformed", "/signup", "garbage", Decision{RedirectAndClear, "/login"}},
		{"neutral valid", "/", valid, Decision{Outcome: Allow}},
		{"neutral expired", "/other", expired, Decision{Outcome: Allow}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := rules.Decide(tt.path, tt.token, now); got != tt.want {
				t.Errorf("Decide(%q) = %+v, want %+v", tt.path, got, tt.want)
			}
		})
	}
}

func TestDecideExpiryBoundary(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	rules := DefaultRules()

	if got := rules.Decide("/dashboard", testToken(now), now); got.Outcome != Allow {
		t.Errorf("exp == now should still allow, got %+v", got)
	}
	if got := rules.Decide("/dashboard", testToken(now), now.Add(time.Second)); got.Outcome != RedirectAndClear {
		t.Errorf("exp < now should clear, got %+v", got)
	}
}

func newTestGate(now time.Time) *Gate {
	sm := session.NewManager([]byte("0123456789abcdef0123456789abcdef"), false)
	g := NewGate(DefaultRules(), sm, logger.Discard())
	g.now = func() time.Time { return now }
	return g
}

func TestGateHandler(t *testing.T) {
	now := time.Now()
	g := newTestGate(now)

	reached := false
	h := g.Handler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reached = true
		w.WriteHeader(http.StatusOK)
	}))

	tests := []struct {
		name        string
		path        string
		token       string
		wantStatus  int
		wantTarget  string
		wantClear   bool
		wantReached bool
	}{
		{"protected without cookie", "/dashboard/processos", "", http.StatusSeeOther, "/login", false, false},
		{"protected expired", "/dashboard", testToken(now.Add(-time.Minute)), http.StatusSeeOther, "/login", true, false},
		{"protected malformed", "/dashboard", "x.y", http.StatusSeeOther, "/login", true, false},
		{"protected valid", "/dashboard", testToken(now.Add(time.Hour)), http.StatusOK, "", false, true},
		{"login with session", "/login", testToken(now.Add(time.Hour)), http.StatusSeeOther, "/dashboard", false, false},
		{"signup without session", "/signup", "", http.StatusOK, "", false, true},
		{"neutral malformed untouched", "/api/process", "garbage", http.StatusOK, "", false, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reached = false
			req := httptest.NewRequest(http.MethodGet, tt.path, nil)
			if tt.token != "" {
				req.AddCookie(&http.Cookie{Name: session.TokenCookieName, Value: tt.token})
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			if loc := rec.Header().Get("Location"); loc != tt.wantTarget {
				t.Errorf("Location = %q, want %q", loc, tt.wantTarget)
			}
			if reached != tt.wantReached {
				t.Errorf("reached next = %v, want %v", reached, tt.wantReached)
			}

			cleared := false
			for _, c := range rec.Result().Cookies() {
				if c.Name == session.TokenCookieName && c.MaxAge < 0 {
					cleared = true
				}
			}
			if cleared != tt.wantClear {
				t.Errorf("cookie cleared = %v, want %v", cleared, tt.wantClear)
			}
		})
	}
}
