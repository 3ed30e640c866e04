package auth

import (
	"net/http"
	"strings"
)

// IdentityHeader is set by the access proxy in front of the admin routes.
const IdentityHeader = "CF-Access-Authenticated-User-Email"

type Result struct {
	Allowed  bool
	Identity string
	Reason   string
}

// Gate decides whether a request may write content. It holds no per-request
// state and is safe for concurrent use.
type Gate struct {
	allowed     map[string]struct{}
	devMode     bool
	devIdentity string
}

func NewGate(allowed []string, devMode bool, devIdentity string) *Gate {
	set := make(map[string]struct{}, len(allowed))
	for _, entry := range allowed {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		set[entry] = struct{}{}
	}
	return &Gate{
		allowed:     set,
		devMode:     devMode,
		devIdentity: strings.TrimSpace(devIdentity),
	}
}

// ParseAllowList splits a comma separated list, trimming entries and dropping
// empty ones.
func ParseAllowList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}

func (g *Gate) Authorize(r *http.Request) Result {
	identity := strings.TrimSpace(r.Header.Get(IdentityHeader))
	if identity == "" && g.devMode {
		identity = g.devIdentity
	}
	if identity == "" {
		return Result{Reason: "missing identity"}
	}
	if _, ok := g.allowed[identity]; !ok {
		return Result{Identity: identity, Reason: "identity not allowed"}
	}
	return Result{Allowed: true, Identity: identity}
}
