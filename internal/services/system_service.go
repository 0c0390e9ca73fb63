package services

import (
	"runtime"
	"time"

	"github.com/avantlehq/core-avantle-ai/internal/authz"
)

// SystemInfo describes the running control plane
type SystemInfo struct {
	Service   string                            `json:"service"`
	Version   string                            `json:"version"`
	GoVersion string                            `json:"go_version"`
	StartedAt time.Time                         `json:"started_at"`
	Uptime    string                            `json:"uptime"`
	Roles     map[authz.Role][]authz.Permission `json:"roles"`
}

// SystemService reports build information and the access rule table
type SystemService struct {
	version string
	started time.Time
	rules   *authz.AccessRules
	now     func() time.Time
}

// NewSystemService creates a new system service
func NewSystemService(version string, rules *authz.AccessRules) *SystemService {
	now := func() time.Time { return time.Now().UTC() }
	return &SystemService{version: version, started: now(), rules: rules, now: now}
}

// Info returns version, uptime and each role's permissions
func (s *SystemService) Info() SystemInfo {
	roles := make(map[authz.Role][]authz.Permission, len(authz.Roles()))
	for _, role := range authz.Roles() {
		roles[role] = s.rules.Permissions(role)
	}
	return SystemInfo{
		Service:   "control-plane",
		Version:   s.version,
		GoVersion: runtime.Version(),
		StartedAt: s.started,
		Uptime:    s.now().Sub(s.started).Truncate(time.Second).String(),
		Roles:     roles,
	}
}

// Rules returns the configured access rules
func (s *SystemService) Rules() []authz.AccessRule {
	return s.rules.Rules()
}
