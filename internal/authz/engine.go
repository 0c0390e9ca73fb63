package authz

import (
	"context"
	"net/http"
	"strings"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// DefaultPublicPrefixes are reachable without credentials.
var DefaultPublicPrefixes = []string{
	"/health",
	"/ready",
	"/metrics",
	"/docs",
	"/auth/login",
	"/auth/token",
}

// DefaultAuthenticatedPrefixes need a valid token but no permission.
var DefaultAuthenticatedPrefixes = []string{
	"/auth/me",
	"/auth/refresh",
}

// TokenVerifier rebuilds a principal from a bearer token.
type TokenVerifier interface {
	Verify(token string) (*Principal, error)
}

// TenantChecker decides tenant reachability.
type TenantChecker interface {
	CanAccessTenant(ctx context.Context, p *Principal, tenantID string) (bool, error)
}

// DecisionObserver receives every decision the engine makes.
type DecisionObserver interface {
	ObserveDecision(allowed bool, code Code)
}

// Request is the part of an inbound request the engine needs.
type Request struct {
	Method        string
	Path          string
	Authorization string // raw Authorization header
}

// RequestFromHTTP extracts a Request from r.
func RequestFromHTTP(r *http.Request) Request {
	return Request{
		Method:        r.Method,
		Path:          r.URL.Path,
		Authorization: r.Header.Get("Authorization"),
	}
}

// Result is the outcome of Authorize. On deny, Code and Message describe the
// failure and Err may hold an internal cause that must not reach clients.
type Result struct {
	Allowed     bool
	Principal   *Principal
	Requirement Requirement
	TenantID    string
	Code        Code
	Message     string
	Err         error
}

// Denial converts a denied result into an *Error.
func (r Result) Denial() *Error {
	if r.Allowed {
		return nil
	}
	return &Error{Code: r.Code, Message: r.Message, Err: r.Err}
}

// Engine composes token verification, permission rules and tenant scoping
// into one allow/deny decision.
type Engine struct {
	rules        *AccessRules
	tokens       TokenVerifier
	tenants      TenantChecker
	publicPrefix []string
	authnPrefix  []string
	observer     DecisionObserver
	logger       zerolog.Logger
}

// EngineOption configures an Engine.
type EngineOption func(*Engine)

// WithPublicPrefixes replaces DefaultPublicPrefixes.
func WithPublicPrefixes(prefixes ...string) EngineOption {
	return func(e *Engine) {
		e.publicPrefix = append([]string(nil), prefixes...)
	}
}

// WithAuthenticatedPrefixes replaces DefaultAuthenticatedPrefixes.
func WithAuthenticatedPrefixes(prefixes ...string) EngineOption {
	return func(e *Engine) {
		e.authnPrefix = append([]string(nil), prefixes...)
	}
}

// WithDecisionObserver reports decisions to o.
func WithDecisionObserver(o DecisionObserver) EngineOption {
	return func(e *Engine) {
		e.observer = o
	}
}

// WithLogger sets the decision logger.
func WithLogger(l zerolog.Logger) EngineOption {
	return func(e *Engine) {
		e.logger = l
	}
}

// NewEngine wires the decision engine.
func NewEngine(rules *AccessRules, tokens TokenVerifier, tenants TenantChecker, opts ...EngineOption) *Engine {
	e := &Engine{
		rules:        rules,
		tokens:       tokens,
		tenants:      tenants,
		publicPrefix: append([]string(nil), DefaultPublicPrefixes...),
		authnPrefix:  append([]string(nil), DefaultAuthenticatedPrefixes...),
		logger:       log.Logger,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Rules returns the engine's rule table.
func (e *Engine) Rules() *AccessRules {
	return e.rules
}

// Authorize runs the decision pipeline for one request. It has no side
// effects besides logging and metrics, and stops early if ctx is done.
func (e *Engine) Authorize(ctx context.Context, req Request) Result {
	res := e.authorize(ctx, req)
	e.record(req, res)
	return res
}

func (e *Engine) authorize(ctx context.Context, req Request) Result {
	if err := ctx.Err(); err != nil {
		return deny(errInternal(err))
	}

	requirement := Classify(req.Method, req.Path)
	if e.isPublic(req.Path, requirement) {
		return Result{Allowed: true, Requirement: requirement}
	}

	token := BearerToken(req.Authorization)
	if token == "" {
		return deny(errUnauthorized())
	}

	principal, err := e.tokens.Verify(token)
	if err != nil {
		if ErrorCode(err) == CodeTokenExpired {
			return deny(&Error{Code: CodeTokenExpired, Message: ErrTokenExpired.Message, Err: err})
		}
		return deny(&Error{Code: CodeTokenInvalid, Message: ErrTokenInvalid.Message, Err: err})
	}

	if requirement.Public() {
		return Result{Allowed: true, Principal: principal, Requirement: requirement}
	}

	if !e.rules.HasPermission(principal.Role, requirement.Permission) {
		res := deny(errForbidden("insufficient permission: " + string(requirement.Permission) + " required"))
		res.Principal = principal
		res.Requirement = requirement
		return res
	}

	tenantID := TargetTenant(req.Path)
	if tenantID != "" && !principal.IsPlatformAdmin() {
		if err := ctx.Err(); err != nil {
			return deny(errInternal(err))
		}
		ok, err := e.tenants.CanAccessTenant(ctx, principal, tenantID)
		var res Result
		switch {
		case err != nil:
			res = deny(errInternal(err))
		case !ok:
			res = deny(errForbidden("access denied to this tenant"))
		default:
			res = Result{Allowed: true}
		}
		res.Principal = principal
		res.Requirement = requirement
		res.TenantID = tenantID
		return res
	}

	return Result{Allowed: true, Principal: principal, Requirement: requirement, TenantID: tenantID}
}

func deny(err *Error) Result {
	return Result{Code: err.Code, Message: err.Message, Err: err.Err}
}

func (e *Engine) isPublic(path string, requirement Requirement) bool {
	if hasAnyPrefix(path, e.publicPrefix) {
		return true
	}
	return requirement.Public() && !hasAnyPrefix(path, e.authnPrefix)
}

// Unclassified reports whether a route falls through to the public default
// arm without being on either allowlist.
func (e *Engine) Unclassified(method, path string) bool {
	if hasAnyPrefix(path, e.publicPrefix) || hasAnyPrefix(path, e.authnPrefix) {
		return false
	}
	return Classify(method, path).Public()
}

// RequiresAuthentication reports whether path needs a valid token but no
// permission.
func (e *Engine) RequiresAuthentication(path string) bool {
	return !hasAnyPrefix(path, e.publicPrefix) && hasAnyPrefix(path, e.authnPrefix)
}

func (e *Engine) record(req Request, res Result) {
	if e.observer != nil {
		e.observer.ObserveDecision(res.Allowed, res.Code)
	}

	var ev *zerolog.Event
	switch {
	case res.Allowed:
		ev = e.logger.Debug()
	case res.Code == CodeInternalError:
		ev = e.logger.Error().Err(res.Err)
	default:
		ev = e.logger.Info()
	}
	ev = ev.Str("method", req.Method).
		Str("path", req.Path).
		Bool("allowed", res.Allowed)
	if res.Principal != nil {
		ev = ev.Str("principal", res.Principal.ID).Str("role", string(res.Principal.Role))
	}
	if res.Requirement.Kind == RequirementPermission {
		ev = ev.Str("permission", string(res.Requirement.Permission))
	}
	if res.TenantID != "" {
		ev = ev.Str("tenant_id", res.TenantID)
	}
	if res.Code != "" {
		ev = ev.Str("code", string(res.Code))
	}
	ev.Msg("authorization decision")
}

// BearerToken extracts the token from an Authorization header value.
func BearerToken(header string) string {
	header = strings.TrimSpace(header)
	if len(header) < len("bearer ") || !strings.EqualFold(header[:len("bearer ")], "bearer ") {
		return ""
	}
	return strings.TrimSpace(header[len("bearer "):])
}

func hasAnyPrefix(path string, prefixes []string) bool {
	for _, p := range prefixes {
		if strings.HasPrefix(path, p) {
			return true
		}
	}
	return false
}
