package proxy

import (
	"net/http"

	"github.com/devilmonastery/processo/internal/client"
)

// Shape selects the JSON error body a route answers with
type Shape int

const (
	// ShapeError answers {"error": message}
	ShapeError Shape = iota
	// ShapeCoded answers {"message": message, "code": code}
	ShapeCoded
)

// Generic messages
const (
	MsgUnauthorized = "Não autorizado"
	MsgInternal     = "Erro ao processar a requisição"
	MsgTimeout      = "Tempo limite excedido ao contatar o servidor"
)

// Local error codes
const (
	CodeUnauthorized   = "UNAUTHORIZED"
	CodeInternal       = "INTERNAL_ERROR"
	CodeGatewayTimeout = "GATEWAY_TIMEOUT"
	CodeBadRequest     = "BAD_REQUEST"
	CodeSuccess        = "SUCCESS"
)

// CodeMapping is the local answer for one upstream error code
type CodeMapping struct {
	Status  int
	Code    string
	Message string
}

// CodeTable maps upstream error codes to local answers
type CodeTable struct {
	Codes   map[string]CodeMapping
	Default CodeMapping
}

// Lookup returns the mapping for code, or the table default
func (t *CodeTable) Lookup(code string) CodeMapping {
	if m, ok := t.Codes[code]; ok {
		if m.Code == "" {
			m.Code = code
		}
		return m
	}
	return t.Default
}

// PasswordCodes is the change-password error table
var PasswordCodes = &CodeTable{
	Codes: map[string]CodeMapping{
		"INVALID_CURRENT_PASSWORD": {Status: http.StatusUnauthorized, Message: "Senha atual incorreta"},
		"SAME_PASSWORD":            {Status: http.StatusBadRequest, Message: "A nova senha não pode ser igual à senha atual"},
		"USER_NOT_FOUND":           {Status: http.StatusNotFound, Message: "Usuário não encontrado"},
		"UNAUTHORIZED":             {Status: http.StatusUnauthorized, Message: "Não autorizado"},
	},
	Default: CodeMapping{Status: http.StatusInternalServerError, Code: CodeInternal, Message: "Erro interno do servidor"},
}

// Required names a body field that must be a non-empty value
type Required struct {
	Field   string
	Message string
}

// Route is one entry of the proxy table
type Route struct {
	Name    string
	Method  string
	Pattern string

	// UpstreamMethod defaults to Method
	UpstreamMethod string
	// UpstreamPath may hold {var} placeholders filled from the local path
	UpstreamPath string

	Auth     bool
	Fallback string
	Shape    Shape
	Codes    *CodeTable

	// Fields restricts the forwarded body to these keys when set
	Fields   []string
	Required []Required

	// Passthrough re-emits the upstream status and body untouched
	Passthrough bool
	// SuccessBody replaces the upstream body on 2xx when set
	SuccessBody any
	// SetsSession stores the upstream "token" field in the session cookie
	SetsSession bool
	// CORS adds allow headers and answers OPTIONS preflight
	CORS bool
}

func (rt Route) upstreamMethod() string {
	if rt.UpstreamMethod != "" {
		return rt.UpstreamMethod
	}
	return rt.Method
}

// Routes is the local API surface
func Routes() []Route {
	return []Route{
		{
			Name:         "auth.signin",
			Method:       http.MethodPost,
			Pattern:      "/api/auth/signin",
			UpstreamPath: client.PathSignIn,
			Shape:        ShapeCoded,
			Passthrough:  true,
			SetsSession:  true,
			CORS:         true,
		},
		{
			Name:         "auth.signup",
			Method:       http.MethodPost,
			Pattern:      "/api/auth/signup",
			UpstreamPath: client.PathSignUp,
			Shape:        ShapeCoded,
			Passthrough:  true,
		},
		{
			Name:         "auth.confirm_email",
			Method:       http.MethodPost,
			Pattern:      "/api/auth/confirm-email",
			UpstreamPath: client.PathVerifyEmail,
			Fallback:     "Erro ao confirmar email",
			Fields:       []string{"token"},
			Required:     []Required{{Field: "token", Message: "Token é obrigatório"}},
		},
		{
			Name:         "auth.resend_verification",
			Method:       http.MethodPost,
			Pattern:      "/api/auth/resend-verification",
			UpstreamPath: client.PathSendVerification,
			Auth:         true,
			Fallback:     "Erro ao reenviar email de verificação",
			Fields:       []string{"email"},
			Required:     []Required{{Field: "email", Message: "Email é obrigatório"}},
		},
		{
			Name:         "process.list",
			Method:       http.MethodGet,
			Pattern:      "/api/process",
			UpstreamPath: client.PathProcesses,
			Auth:         true,
			Fallback:     "Erro ao buscar processos",
		},
		{
			Name:         "process.create",
			Method:       http.MethodPost,
			Pattern:      "/api/process",
			UpstreamPath: client.PathProcesses,
			Auth:         true,
			Fallback:     "Erro ao cadastrar processo",
		},
		{
			Name:         "process.get",
			Method:       http.MethodGet,
			Pattern:      "/api/process/{id}",
			UpstreamPath: "/api/process/{id}",
			Auth:         true,
			Fallback:     "Erro ao buscar processo",
		},
		{
			Name:         "process.update",
			Method:       http.MethodPut,
			Pattern:      "/api/process/{id}",
			UpstreamPath: "/api/process/{id}",
			Auth:         true,
			Fallback:     "Erro ao atualizar processo",
		},
		{
			Name:         "process.delete",
			Method:       http.MethodDelete,
			Pattern:      "/api/process/{id}",
			UpstreamPath: "/api/process/{id}",
			Auth:         true,
			Fallback:     "Erro ao excluir processo",
			SuccessBody:  map[string]bool{"success": true},
		},
		{
			Name:         "user.update",
			Method:       http.MethodPut,
			Pattern:      "/api/user/{id}",
			UpstreamPath: "/api/users/{id}",
			Auth:         true,
			Fallback:     "Erro ao atualizar usuário",
		},
		{
			Name:           "user.change_password",
			Method:         http.MethodPut,
			Pattern:        "/api/user/{id}/password",
			UpstreamMethod: http.MethodPost,
			UpstreamPath:   client.PathChangePassword,
			Auth:           true,
			Shape:          ShapeCoded,
			Codes:          PasswordCodes,
			Fields:         []string{"currentPassword", "newPassword"},
			SuccessBody:    map[string]string{"message": "Senha alterada com sucesso", "code": CodeSuccess},
		},
		{
			Name:         "user.whoami",
			Method:       http.MethodGet,
			Pattern:      "/api/whoami",
			UpstreamPath: client.PathWhoAmI,
			Auth:         true,
			Fallback:     "Erro ao buscar dados do usuário",
		},
	}
}
