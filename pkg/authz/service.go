package authz

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/casbin/casbin/v2"
	"github.com/casbin/casbin/v2/model"
	stringadapter "github.com/casbin/casbin/v2/persist/string-adapter"
	"github.com/sirupsen/logrus"
)

// Capabilities answers can(role, action) questions against a casbin RBAC policy.
type Capabilities struct {
	enforcer *casbin.Enforcer
	logger   *logrus.Entry
	mu       sync.RWMutex
}

// New builds a Capabilities checker from policy lines in casbin CSV form. An empty
// policy selects DefaultPolicy.
func New(policy string, logger *logrus.Logger) (*Capabilities, error) {
	if strings.TrimSpace(policy) == "" {
		policy = DefaultPolicy
	}
	m, err := model.NewModelFromString(modelText)
	if err != nil {
		return nil, fmt.Errorf("authz: failed to parse model: %w", err)
	}
	enf, err := casbin.NewEnforcer(m, stringadapter.NewAdapter(policy))
	if err != nil {
		return nil, fmt.Errorf("authz: failed to initialize enforcer: %w", err)
	}

	var entry *logrus.Entry
	if logger != nil {
		entry = logger.WithField("component", "authz")
	} else {
		entry = logrus.WithField("component", "authz")
	}
	return &Capabilities{enforcer: enf, logger: entry}, nil
}

var (
	defaultOnce    sync.Once
	defaultService *Capabilities
)

// Use returns a process-wide Capabilities with DefaultPolicy.
func Use() *Capabilities {
	defaultOnce.Do(func() {
		svc, err := New(DefaultPolicy, nil)
		if err != nil {
			panic(err)
		}
		defaultService = svc
	})
	return defaultService
}

// Can reports whether role holds capability. Evaluation errors deny.
func (s *Capabilities) Can(role, capability string) bool {
	allowed, err := s.Check(NewRequest(role, capability))
	if err != nil {
		s.logger.WithError(err).WithField("capability", capability).Error("authz check failed")
		return false
	}
	return allowed
}

// Check evaluates a request without returning an authorization error.
func (s *Capabilities) Check(req Request) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	allowed, err := s.enforcer.Enforce(req.Role, req.Object, req.Action)
	if err != nil {
		return false, fmt.Errorf("authz: enforce failed: %w", err)
	}
	recordDecision(req.Object, allowed)
	return allowed, nil
}

// Authorize returns a forbidden error if role lacks capability.
func (s *Capabilities) Authorize(ctx context.Context, role, capability string) error {
	req := NewRequest(role, capability)
	allowed, err := s.Check(req)
	if err != nil {
		return err
	}
	if !allowed {
		s.logger.WithContext(ctx).WithFields(logrus.Fields{
			"role":   req.Role,
			"object": req.Object,
			"action": req.Action,
		}).Warn("authz denied request")
		return forbiddenError(req)
	}
	return nil
}

// Granted lists every known capability the role holds, for UI gating.
func (s *Capabilities) Granted(role string) []string {
	all := []string{
		AssetView, AssetCreate, AssetEdit, AssetDelete, AssetDeleteAll, AssetAssign,
		AssetImport, AssetExport, AssetChangeEnvironment,
		ProjectView, ProjectCreate, ProjectEdit, ProjectDelete, ProjectAllocate,
		TeamView, TeamManage, ResourceView,
	}
	out := make([]string, 0, len(all))
	for _, c := range all {
		if s.Can(role, c) {
			out = append(out, c)
		}
	}
	return out
}
