package sim

import (
	"context"
	"log/slog"

	"github.com/vnykmshr/allocmetrics/pkg/allocator"
)

// Churn applies one random lifecycle change: a framework joins or leaves,
// a role is suppressed or revived, a framework changes roles, or a quota is
// toggled. The sequence is reproducible for a given seed.
func (a *Allocator) Churn(ctx context.Context) error {
	return a.do(ctx, "churn", func() error {
		action := a.churn()
		a.log.Debug("churn", slog.String("action", action))
		return nil
	})
}

func (a *Allocator) churn() string {
	ids := sortedKeys(a.frameworks)

	switch a.rng.Intn(5) {
	case 0:
		if len(ids) < a.config.Frameworks || len(ids) == 0 {
			info := a.addFramework("", a.pickRoles())
			return "add framework " + info.ID
		}
		fw := a.frameworks[ids[a.rng.Intn(len(ids))]]
		a.removeFramework(fw)
		return "remove framework " + fw.info.ID

	case 1, 2:
		fw, role, ok := a.pickSubscription(ids)
		if !ok {
			return "noop"
		}
		if fw.suppressed[role] {
			fw.suppressed[role] = false
			fw.metrics.ReviveRole(role)
			return "revive " + role
		}
		fw.suppressed[role] = true
		fw.metrics.SuppressRole(role)
		return "suppress " + role

	case 3:
		if len(ids) == 0 {
			return "noop"
		}
		fw := a.frameworks[ids[a.rng.Intn(len(ids))]]
		a.updateRoles(fw, a.pickRoles())
		return "update roles " + fw.info.ID

	default:
		if len(a.config.Roles) == 0 {
			return "noop"
		}
		role := a.config.Roles[a.rng.Intn(len(a.config.Roles))]
		if _, ok := a.quotas[role]; ok {
			_ = a.removeQuota(role)
			return "remove quota " + role
		}
		_ = a.setQuota(role, a.sampleQuota())
		return "set quota " + role
	}
}

func (a *Allocator) pickSubscription(ids []string) (*framework, string, bool) {
	if len(ids) == 0 {
		return nil, "", false
	}
	fw := a.frameworks[ids[a.rng.Intn(len(ids))]]
	roles := sortedKeys(fw.suppressed)
	if len(roles) == 0 {
		return nil, "", false
	}
	return fw, roles[a.rng.Intn(len(roles))], true
}

func (a *Allocator) sampleQuota() allocator.Quota {
	guarantee := make(map[string]float64)
	for _, r := range a.config.Resources {
		if a.rng.Intn(3) == 0 {
			continue
		}
		guarantee[r] = a.total[r] * quotaFraction
	}
	return allocator.Quota{Guarantee: guarantee}
}
