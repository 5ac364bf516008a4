package resource

import (
	"net/http"
	"path"
	"strings"

	"go.uber.org/zap"
)

// StrategyKind names one of the five caching strategies.
type StrategyKind string

const (
	StrategyCacheFirst           StrategyKind = "cache-first"
	StrategyNetworkFirst         StrategyKind = "network-first"
	StrategyStaleWhileRevalidate StrategyKind = "stale-while-revalidate"
	StrategyNetworkOnly          StrategyKind = "network-only"
	StrategyCacheOnly            StrategyKind = "cache-only"
)

// Role names one of the three byte-caches.
type Role string

const (
	RoleStatic  Role = "static"
	RoleDynamic Role = "dynamic"
	RoleAPI     Role = "api"
)

// Decision is the routing outcome for one request.
type Decision struct {
	Strategy StrategyKind
	Role     Role
}

// RoutingRules are the path patterns driving strategy selection.
// Prefix entries match the start of the URL path.
type RoutingRules struct {
	StaticExtensions []string `yaml:"static_extensions"`
	StaticPrefixes   []string `yaml:"static_prefixes"`
	AlwaysFreshAPI   []string `yaml:"always_fresh_api"`
	RevalidateAPI    []string `yaml:"revalidate_api"`
	WhitelistAPI     []string `yaml:"whitelist_api"`
	APIPrefix        string   `yaml:"api_prefix"`
}

// DefaultRoutingRules returns the built-in route table.
func DefaultRoutingRules() RoutingRules {
	return RoutingRules{
		StaticExtensions: []string{
			".js", ".css", ".png", ".jpg", ".jpeg", ".gif", ".svg", ".webp",
			".ico", ".woff", ".woff2", ".ttf", ".mp3", ".ogg", ".wav",
		},
		StaticPrefixes: []string{
			"/_next/static/", "/static/", "/icons/", "/images/", "/audio/", "/fonts/",
		},
		AlwaysFreshAPI: []string{"/api/auth", "/api/admin", "/api/health"},
		RevalidateAPI:  []string{"/api/content", "/api/translations"},
		WhitelistAPI:   []string{"/api/vocabulary", "/api/lessons", "/api/progress", "/api/user"},
		APIPrefix:      "/api/",
	}
}

func (r RoutingRules) withDefaults() RoutingRules {
	def := DefaultRoutingRules()
	if len(r.StaticExtensions) == 0 {
		r.StaticExtensions = def.StaticExtensions
	}
	if len(r.StaticPrefixes) == 0 {
		r.StaticPrefixes = def.StaticPrefixes
	}
	if len(r.AlwaysFreshAPI) == 0 {
		r.AlwaysFreshAPI = def.AlwaysFreshAPI
	}
	if len(r.RevalidateAPI) == 0 {
		r.RevalidateAPI = def.RevalidateAPI
	}
	if len(r.WhitelistAPI) == 0 {
		r.WhitelistAPI = def.WhitelistAPI
	}
	if r.APIPrefix == "" {
		r.APIPrefix = def.APIPrefix
	}
	return r
}

// Router classifies requests into a strategy and a byte-cache role.
type Router struct {
	rules  RoutingRules
	logger *zap.Logger
}

// NewRouter creates a router, filling unset rule groups with defaults.
func NewRouter(rules RoutingRules, logger *zap.Logger) *Router {
	return &Router{rules: rules.withDefaults(), logger: logger}
}

// Route decides how to handle a request. The checks run in a fixed
// tie-break order; the first match wins.
func (r *Router) Route(req *http.Request) Decision {
	p := req.URL.Path

	// 1. Static assets: extension or path-prefix match.
	if r.isStaticAsset(p) {
		return Decision{Strategy: StrategyCacheFirst, Role: RoleStatic}
	}

	if strings.HasPrefix(p, r.rules.APIPrefix) {
		// 2. Always-fresh API paths (auth, admin, health).
		if matchesAny(p, r.rules.AlwaysFreshAPI) {
			return Decision{Strategy: StrategyNetworkFirst, Role: RoleAPI}
		}
		// 3. Revalidate API paths (content, translations).
		if matchesAny(p, r.rules.RevalidateAPI) {
			return Decision{Strategy: StrategyStaleWhileRevalidate, Role: RoleAPI}
		}
		// 4. Whitelisted API paths.
		if matchesAny(p, r.rules.WhitelistAPI) {
			return Decision{Strategy: StrategyNetworkFirst, Role: RoleAPI}
		}
		// 5. Any other API path.
		return Decision{Strategy: StrategyNetworkOnly, Role: RoleAPI}
	}

	// 6. Page requests.
	return Decision{Strategy: StrategyNetworkFirst, Role: RoleDynamic}
}

func (r *Router) isStaticAsset(p string) bool {
	if ext := path.Ext(p); ext != "" {
		for _, known := range r.rules.StaticExtensions {
			if strings.EqualFold(ext, known) {
				return true
			}
		}
	}
	for _, prefix := range r.rules.StaticPrefixes {
		if strings.HasPrefix(p, prefix) {
			return true
		}
	}
	return false
}

func matchesAny(p string, prefixes []string) bool {
	for _, prefix := range prefixes {
		if strings.HasPrefix(p, prefix) {
			return true
		}
	}
	return false
}
