package metagen

import (
	"github.com/lineagelab/olgen/internal/openlineage"
)

// RunEventPair is the unit of generation: the START and COMPLETE event for
// one run. Both share run and job identity; the COMPLETE event is strictly
// later and omits the schema-bearing input/output payload, mirroring
// producers that emit full schemas only at start.
type RunEventPair struct {
	Start    openlineage.RunEvent
	Complete openlineage.RunEvent
}

func (g *Generator) newRunEventPair(shape eventShape) RunEventPair {
	graph := g.newEntityGraph(shape)
	startTime := g.now().In(g.zone)

	return RunEventPair{
		Start: openlineage.RunEvent{
			EventType: openlineage.EventTypeStart,
			EventTime: startTime,
			Run:       graph.run,
			Job:       graph.job,
			Inputs:    graph.inputs,
			Outputs:   graph.outputs,
			Producer:  openlineage.Producer,
			SchemaURL: openlineage.SchemaURL,
		},
		Complete: openlineage.RunEvent{
			EventType: openlineage.EventTypeComplete,
			EventTime: startTime.Add(g.newDelay()),
			Run:       graph.run,
			Job:       graph.job,
			Inputs:    []openlineage.Dataset{},
			Outputs:   []openlineage.Dataset{},
			Producer:  openlineage.Producer,
			SchemaURL: openlineage.SchemaURL,
		},
	}
}
