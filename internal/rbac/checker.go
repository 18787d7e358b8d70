package rbac

import "strings"

// grants is the compiled form of a role's permission patterns.
type grants struct {
	all      bool
	exact    map[string]struct{}
	prefixes []string
}

func compile(patterns []string) grants {
	g := grants{exact: make(map[string]struct{}, len(patterns))}
	for _, p := range patterns {
		switch {
		case p == "*":
			g.all = true
		case strings.HasSuffix(p, "*"):
			g.prefixes = append(g.prefixes, strings.TrimSuffix(p, "*"))
		default:
			g.exact[p] = struct{}{}
		}
	}
	return g
}

func (g grants) allows(perm string) bool {
	if g.all {
		return true
	}
	if _, ok := g.exact[perm]; ok {
		return true
	}
	for _, pre := range g.prefixes {
		if strings.HasPrefix(perm, pre) {
			return true
		}
	}
	return false
}

// Checker answers permission questions for roles. Patterns are compiled
// once: "*" grants everything, "report:*" grants the report: prefix, and
// anything else must match exactly.
type Checker struct {
	roles map[string]grants
}

// NewChecker compiles rp, falling back to RolePermissions when rp is nil.
func NewChecker(rp map[string][]string) *Checker {
	if rp == nil {
		rp = RolePermissions
	}
	c := &Checker{roles: make(map[string]grants, len(rp))}
	for role, patterns := range rp {
		c.roles[role] = compile(patterns)
	}
	return c
}

func (c *Checker) Has(role, perm string) bool {
	g, ok := c.roles[role]
	return ok && g.allows(perm)
}

func (c *Checker) Any(role string, perms ...string) bool {
	g, ok := c.roles[role]
	if !ok {
		return false
	}
	for _, p := range perms {
		if g.allows(p) {
			return true
		}
	}
	return false
}
