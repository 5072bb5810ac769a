// Package metagen generates self-consistent batches of paired START/COMPLETE
// lineage run events sized to an approximate bytes-per-event target. It is
// the load-bearing half of olgen: the CLI and sinks only shuttle its output.
package metagen

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/lineagelab/olgen/internal/openlineage"
)

// Generator produces batches of run events. It owns a single pseudo-random
// source, so it is not safe for concurrent use; create one generator per
// goroutine instead.
type Generator struct {
	params    Params
	budget    sizeBudget
	rng       *rand.Rand
	namespace string
	zone      *time.Location

	now func() time.Time
}

func New(p Params) (*Generator, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	budget, err := resolveBudget(p)
	if err != nil {
		return nil, err
	}

	zoneName := p.TimeZone
	if zoneName == "" {
		zoneName = DefaultTimeZone
	}
	zone, err := time.LoadLocation(zoneName)
	if err != nil {
		return nil, fmt.Errorf("%w: time_zone %q: %v", ErrInvalidParams, zoneName, err)
	}

	seed := p.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	g := &Generator{
		params: p,
		budget: budget,
		rng:    rand.New(rand.NewSource(seed)),
		zone:   zone,
		now:    time.Now,
	}
	g.namespace = p.Namespace
	if g.namespace == "" {
		g.namespace = g.newNamespaceName()
	}
	return g, nil
}

// Namespace reports the namespace shared by every entity this generator
// builds.
func (g *Generator) Namespace() string {
	return g.namespace
}

// Generate builds the requested number of run event pairs and flattens them
// into [start1, complete1, start2, complete2, ...]. That per-run ordering is
// a contract; there is no timestamp ordering across different runs. The
// context is checked between runs, and any error discards the whole batch.
func (g *Generator) Generate(ctx context.Context) ([]openlineage.RunEvent, error) {
	events := make([]openlineage.RunEvent, 0, 2*g.params.Runs)
	for i := 0; i < g.params.Runs; i++ {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("generation canceled after %d of %d runs: %w", i, g.params.Runs, err)
		}
		pair := g.newRunEventPair(g.splitShape(g.budget))
		events = append(events, pair.Start, pair.Complete)
	}
	return events, nil
}
