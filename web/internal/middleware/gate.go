package middleware

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/devilmonastery/processo/internal/pkg/metrics"
	"github.com/devilmonastery/processo/web/internal/session"
)

// Class is the gate classification of a request path
type Class string

const (
	ClassProtected Class = "protected"
	ClassPublic    Class = "public"
	ClassNeutral   Class = "neutral"
)

// Outcome is what the gate does with a request
type Outcome int

const (
	Allow Outcome = iota
	Redirect
	RedirectAndClear
)

func (o Outcome) String() string {
	switch o {
	case Redirect:
		return "redirect"
	case RedirectAndClear:
		return "redirect_clear"
	default:
		return "allow"
	}
}

// Decision is the result of evaluating one request
type Decision struct {
	Outcome Outcome
	Target  string
}

// Rules configures path classification and redirect targets
type Rules struct {
	Protected []string
	Public    []string
	LoginPath string
	HomePath  string
}

// DefaultRules protects the dashboard and keeps signed-in users off login/signup
func DefaultRules() Rules {
	return Rules{
		Protected: []string{"/dashboard"},
		Public:    []string{"/login", "/signup"},
		LoginPath: "/login",
		HomePath:  "/dashboard",
	}
}

// Classify matches path against the protected set, then the public set.
// A prefix matches the exact path or anything below it.
func (r Rules) Classify(path string) Class {
	if matchAny(r.Protected, path) {
		return ClassProtected
	}
	if matchAny(r.Public, path) {
		return ClassPublic
	}
	return ClassNeutral
}

func matchAny(prefixes []string, path string) bool {
	for _, p := range prefixes {
		p = strings.TrimSuffix(p, "/")
		if path == p || strings.HasPrefix(path, p+"/") {
			return true
		}
	}
	return false
}

// Decide evaluates a request path and its token at time now. It does no I/O.
func (r Rules) Decide(path, token string, now time.Time) Decision {
	class := r.Classify(path)

	if token == "" {
		if class == ClassProtected {
			return Decision{Outcome: Redirect, Target: r.LoginPath}
		}
		return Decision{Outcome: Allow}
	}

	claims, err := session.Decode(token)
	if err != nil {
		return Decision{Outcome: RedirectAndClear, Target: r.LoginPath}
	}

	expired := claims.Expired(now)
	switch {
	case expired && class == ClassProtected:
		return Decision{Outcome: RedirectAndClear, Target: r.LoginPath}
	case !expired && class == ClassPublic:
		return Decision{Outcome: Redirect, Target: r.HomePath}
	}
	return Decision{Outcome: Allow}
}

// Gate applies Rules to every request on protected or public paths
type Gate struct {
	rules          Rules
	sessionManager *session.Manager
	log            *slog.Logger
	now            func() time.Time
}

// NewGate creates the session gate middleware
func NewGate(rules Rules, sessionManager *session.Manager, log *slog.Logger) *Gate {
	return &Gate{
		rules:          rules,
		sessionManager: sessionManager,
		log:            log.With("component", "gate"),
		now:            time.Now,
	}
}

// Handler wraps next with the gate
func (g *Gate) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		class := g.rules.Classify(r.URL.Path)
		if class == ClassNeutral {
			next.ServeHTTP(w, r)
			return
		}

		token, _ := g.sessionManager.GetToken(r)
		d := g.rules.Decide(r.URL.Path, token, g.now())
		metrics.RecordGateDecision(string(class), d.Outcome.String())

		switch d.Outcome {
		case RedirectAndClear:
			g.log.Debug("session invalid, clearing token", "path", r.URL.Path)
			g.sessionManager.ClearToken(w)
			http.Redirect(w, r, d.Target, http.StatusSeeOther)
		case Redirect:
			g.log.Debug("redirecting", "path", r.URL.Path, "target", d.Target)
			http.Redirect(w, r, d.Target, http.StatusSeeOther)
		default:
			next.ServeHTTP(w, r)
		}
	})
}
