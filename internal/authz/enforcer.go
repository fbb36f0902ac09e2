// Package authz answers "may this role do that?" with Casbin. The model and
// the role policy are embedded; admin is allowed everything.
package authz

import (
	_ "embed"
	"fmt"
	"strings"

	"github.com/casbin/casbin/v2"
	"github.com/casbin/casbin/v2/model"

	"github.com/tbourn/metrosite-backend/internal/domain"
)

//go:embed model.conf
var embeddedModel string

//go:embed policy.csv
var embeddedPolicy string

// Capability is an (object, action) pair checked against a role.
type Capability struct {
	Object string
	Action string
}

func (c Capability) String() string { return c.Object + ":" + c.Action }

// Capabilities used by the HTTP routes.
var (
	ContentWrite       = Capability{"content", "write"}
	EngagementLike     = Capability{"engagement", "like"}
	CommentsWrite      = Capability{"comments", "write"}
	LostItemsSubmit    = Capability{"lost_items", "submit"}
	LostItemsReview    = Capability{"lost_items", "review"}
	VacanciesWrite     = Capability{"vacancies", "write"}
	ApplicationsSubmit = Capability{"applications", "submit"}
	ApplicationsReview = Capability{"applications", "review"}
	StatisticsWrite    = Capability{"statistics", "write"}
	StaffWrite         = Capability{"staff", "write"}
)

// Enforcer wraps a Casbin SyncedEnforcer loaded with the embedded policy.
type Enforcer struct {
	e *casbin.SyncedEnforcer
}

// New builds an Enforcer from the embedded model and policy.
func New() (*Enforcer, error) {
	m, err := model.NewModelFromString(embeddedModel)
	if err != nil {
		return nil, fmt.Errorf("load casbin model: %w", err)
	}
	e, err := casbin.NewSyncedEnforcer(m)
	if err != nil {
		return nil, fmt.Errorf("create casbin enforcer: %w", err)
	}
	if err := loadPolicy(e, embeddedPolicy); err != nil {
		return nil, err
	}
	return &Enforcer{e: e}, nil
}

// MustNew is New for program start-up.
func MustNew() *Enforcer {
	e, err := New()
	if err != nil {
		panic(err)
	}
	return e
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
		if parts[0] != "p" || len(parts) != 4 {
			return fmt.Errorf("malformed policy line %q", line)
		}
		if _, err := domain.ParseRole(parts[1]); err != nil {
			return fmt.Errorf("policy line %q: %w", line, err)
		}
		if _, err := e.AddPolicy(parts[1], parts[2], parts[3]); err != nil {
			return fmt.Errorf("add policy %v: %w", parts[1:], err)
		}
	}
	return nil
}

// Can reports whether role holds capability c. Evaluation errors deny.
func (e *Enforcer) Can(role domain.Role, c Capability) bool {
	ok, err := e.e.Enforce(string(role), c.Object, c.Action)
	return err == nil && ok
}
