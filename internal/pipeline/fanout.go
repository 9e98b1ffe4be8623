package pipeline

import (
	"context"
	"sort"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/blueprint-cli/internal/fusion"
	"github.com/sells-group/blueprint-cli/internal/model"
	"github.com/sells-group/blueprint-cli/internal/provider"
)

// dispatch is one (provider, region) pair queued for a fan-out wave.
type dispatch struct {
	prov   provider.Provider
	region model.Region
}

// fanOut runs every dispatch concurrently, each under its own timeout, and
// joins on all of them. A provider that errors or times out contributes an
// empty result; the wave itself never fails. Results land in a slice
// indexed by dispatch, so anything finishing after its context expired is
// discarded by construction.
func (p *Pipeline) fanOut(ctx context.Context, dispatches []dispatch) []*model.ProviderResult {
	results := make([]*model.ProviderResult, len(dispatches))
	timeout := time.Duration(p.cfg.Providers.TimeoutSecs) * time.Second
	if timeout <= 0 {
		timeout = 45 * time.Second
	}

	g, gCtx := errgroup.WithContext(ctx)
	for i, d := range dispatches {
		g.Go(func() error {
			callCtx, cancel := context.WithTimeout(gCtx, timeout)
			defer cancel()

			res, err := d.prov.ParseRegion(callCtx, d.region)
			if err != nil {
				zap.L().Warn("pipeline: provider call failed",
					zap.String("provider", d.prov.Name()),
					zap.String("region_type", string(d.region.RegionType)),
					zap.Error(err),
				)
				res = model.EmptyResult(d.prov.Name(), &d.region, err.Error())
			}
			if res == nil {
				res = model.EmptyResult(d.prov.Name(), &d.region, "provider returned no result")
			}
			results[i] = res
			return nil
		})
	}
	_ = g.Wait() // goroutines never return errors

	return results
}

// firstWave builds the dispatch list for the initial fan-out: every
// registered provider that supports each region, in priority order.
func (p *Pipeline) firstWave(regions []model.Region) []dispatch {
	var out []dispatch
	for _, region := range regions {
		for _, prov := range p.registry.ForRegion(region.RegionType, p.cfg.Providers.Priority) {
			out = append(out, dispatch{prov: prov, region: region})
		}
	}
	return out
}

// escalationWave builds the second-wave dispatch list from the hotspot
// detector's output. Backup providers that are not registered are skipped.
func (p *Pipeline) escalationWave(esc fusion.Escalation) []dispatch {
	names := make([]string, 0, len(esc.Needs))
	for name := range esc.Needs {
		names = append(names, name)
	}
	sort.Strings(names)

	var out []dispatch
	for _, name := range names {
		prov := p.registry.Get(name)
		if prov == nil {
			zap.L().Warn("pipeline: escalation wants unregistered provider", zap.String("provider", name))
			continue
		}
		for _, region := range esc.RegionsByProvider[name] {
			if prov.Supports(region.RegionType) {
				out = append(out, dispatch{prov: prov, region: region})
			}
		}
	}
	return out
}

// collectCandidates flattens fan-out results, tagging escalated waves.
func collectCandidates(results []*model.ProviderResult, escalated bool) []model.CandidateEntity {
	var out []model.CandidateEntity
	for _, res := range results {
		if res == nil {
			continue
		}
		for _, c := range res.Candidates {
			c.Escalated = escalated
			out = append(out, c)
		}
	}
	return out
}
