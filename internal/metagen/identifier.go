package metagen

import (
	"math"
	"strconv"
	"time"

	"github.com/google/uuid"
)

var fieldTypes = []string{"VARCHAR", "TEXT", "INTEGER"}

// newID draws a non-negative integer used as the suffix of every generated
// name. Uniqueness is probabilistic, which is enough for synthetic traffic.
func (g *Generator) newID() int {
	return g.rng.Intn(math.MaxInt32 - 1)
}

func (g *Generator) newNamespaceName() string {
	return "namespace" + strconv.Itoa(g.newID())
}

func (g *Generator) newJobName() string {
	return "job" + strconv.Itoa(g.newID())
}

func (g *Generator) newDatasetName() string {
	return "dataset" + strconv.Itoa(g.newID())
}

func (g *Generator) newFieldName() string {
	return "field" + strconv.Itoa(g.newID())
}

func (g *Generator) newDescription() string {
	return "description" + strconv.Itoa(g.newID())
}

func (g *Generator) newFieldType() string {
	return fieldTypes[g.rng.Intn(len(fieldTypes))]
}

// newRunID draws UUID bytes from the generator's own source so run ids are
// reproducible under a fixed seed.
func (g *Generator) newRunID() string {
	id, err := uuid.NewRandomFromReader(g.rng)
	if err != nil {
		// math/rand sources never fail to read; keep the fallback anyway.
		return uuid.NewString()
	}
	return id.String()
}

func (g *Generator) hasParentRun() bool {
	return g.rng.Intn(2) == 1
}

// newDelay is uniform over [1, delayCeilingMinutes) minutes so a COMPLETE
// event is always strictly after its START.
func (g *Generator) newDelay() time.Duration {
	return time.Duration(1+g.rng.Intn(delayCeilingMinutes-1)) * time.Minute
}
