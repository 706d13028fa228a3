// Package authz decides which roles may call the administrative endpoints.
// Policies are casbin rules matched on the request path and method.
package authz

import (
	_ "embed"
	"fmt"
	"strings"

	"github.com/casbin/casbin/v2"
	"github.com/casbin/casbin/v2/model"
)

//go:embed model.conf
var embeddedModel string

//go:embed policy.csv
var embeddedPolicy string

type Enforcer struct {
	enforcer *casbin.SyncedEnforcer
}

// NewEnforcer builds an enforcer from the embedded model and policy.
func NewEnforcer() (*Enforcer, error) {
	m, err := model.NewModelFromString(embeddedModel)
	if err != nil {
		return nil, fmt.Errorf("casbin model: %w", err)
	}
	e, err := casbin.NewSyncedEnforcer(m)
	if err != nil {
		return nil, fmt.Errorf("casbin enforcer: %w", err)
	}
	if err := loadPolicy(e, embeddedPolicy); err != nil {
		return nil, err
	}
	return &Enforcer{enforcer: e}, nil
}

func loadPolicy(e *casbin.SyncedEnforcer, policy string) error {
	for _, line := range strings.Split(policy, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		parts := strings.Split(line, ",")
		for i := range parts {
			parts[i] = strings.TrimSpace(parts[i])
		}

		var err error
		switch {
		case parts[0] == "p" && len(parts) == 4:
			_, err = e.AddPolicy(parts[1], parts[2], parts[3])
		case parts[0] == "g" && len(parts) == 3:
			_, err = e.AddGroupingPolicy(parts[1], parts[2])
		default:
			err = fmt.Errorf("malformed rule %q", line)
		}
		if err != nil {
			return fmt.Errorf("policy: %w", err)
		}
	}
	return nil
}

// Allowed reports whether any of roles may perform method on path.
func (e *Enforcer) Allowed(roles []string, path, method string) (bool, error) {
	for _, role := range roles {
		ok, err := e.enforcer.Enforce(role, path, method)
		if err != nil {
			return false, fmt.Errorf("enforcement failed: %w", err)
		}
		if ok {
			return true, nil
		}
	}
	return false, nil
}
