package metagen

import (
	"time"

	"github.com/lineagelab/olgen/internal/openlineage"
)

// entityGraph is one run's worth of fully-populated entities. Datasets are
// never shared between runs; every input and output is freshly generated.
type entityGraph struct {
	run     openlineage.Run
	job     openlineage.Job
	inputs  []openlineage.Dataset
	outputs []openlineage.Dataset
}

func (g *Generator) newEntityGraph(shape eventShape) entityGraph {
	return entityGraph{
		run:     g.newRun(g.hasParentRun()),
		job:     g.newJob(),
		inputs:  g.newDatasets(shape.inputs, shape.inputFields),
		outputs: g.newDatasets(shape.outputs, shape.outputFields),
	}
}

// newRun builds a run with a nominal time window of one hour. When hasParent
// is set, a synthetic parent run/job pair is attached; parents are never
// nested further.
func (g *Generator) newRun(hasParent bool) openlineage.Run {
	nominalStart := g.now().In(g.zone)
	facets := openlineage.RunFacets{
		NominalTime: &openlineage.NominalTimeRunFacet{
			NominalStartTime: nominalStart,
			NominalEndTime:   nominalStart.Add(time.Hour),
		},
	}
	if hasParent {
		facets.Parent = &openlineage.ParentRunFacet{
			Run: openlineage.ParentRun{RunID: g.newRunID()},
			Job: openlineage.Job{Namespace: g.namespace, Name: g.newJobName()},
		}
	}
	return openlineage.Run{
		RunID:  g.newRunID(),
		Facets: facets,
	}
}

func (g *Generator) newJob() openlineage.Job {
	return openlineage.Job{Namespace: g.namespace, Name: g.newJobName()}
}

func (g *Generator) newDatasets(count int, fieldsPerSchema int) []openlineage.Dataset {
	datasets := make([]openlineage.Dataset, 0, count)
	for i := 0; i < count; i++ {
		datasets = append(datasets, openlineage.Dataset{
			Namespace: g.namespace,
			Name:      g.newDatasetName(),
			Facets: openlineage.DatasetFacets{
				Schema: g.newSchema(fieldsPerSchema),
			},
		})
	}
	return datasets
}

func (g *Generator) newSchema(fields int) *openlineage.SchemaDatasetFacet {
	schema := &openlineage.SchemaDatasetFacet{
		Fields: make([]openlineage.SchemaField, 0, fields),
	}
	for i := 0; i < fields; i++ {
		schema.Fields = append(schema.Fields, openlineage.SchemaField{
			Name:        g.newFieldName(),
			Type:        g.newFieldType(),
			Description: g.newDescription(),
		})
	}
	return schema
}
