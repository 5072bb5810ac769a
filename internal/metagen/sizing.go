package metagen

import (
	"errors"
	"fmt"
)

// ErrEventSizeTooSmall reports a bytes-per-event target whose derived dataset
// count range is empty. It surfaces before any entity is built.
var ErrEventSizeTooSmall = errors.New("bytes per event too small for derived dataset counts")

// sizeBudget holds the per-batch structural totals derived from the size
// target. The split of each total into input and output shares is drawn per
// run.
type sizeBudget struct {
	totalIO int
	fields  int
}

// resolveBudget converts the bytes-per-event target into a total dataset
// count. At or below the default target the configured counts are used
// unchanged; above it the count is derived as
//
//	(bytesPerEvent - run overhead - job overhead) / (fields per schema * bytes per field)
//
// which approximates, not guarantees, the serialized size.
func resolveBudget(p Params) (sizeBudget, error) {
	budget := sizeBudget{
		totalIO: p.InputsPerEvent + p.OutputsPerEvent,
		fields:  p.FieldsPerEvent,
	}
	if p.BytesPerEvent <= DefaultBytesPerEvent {
		return budget, nil
	}

	perDataset := DefaultFieldsPerEvent * BytesPerSchemaField
	totalIO := (p.BytesPerEvent - BytesPerRun - BytesPerJob) / perDataset
	if totalIO <= 0 {
		return sizeBudget{}, fmt.Errorf(
			"%w: %d bytes leaves no room for datasets after %d bytes of overhead",
			ErrEventSizeTooSmall, p.BytesPerEvent, BytesPerRun+BytesPerJob,
		)
	}
	budget.totalIO = totalIO
	return budget, nil
}

// eventShape fixes the dataset and schema-field counts for one run's START
// event. Every input dataset shares inputFields; every output dataset shares
// outputFields.
type eventShape struct {
	inputs       int
	outputs      int
	inputFields  int
	outputFields int
}

// splitShape draws this run's input/output split of the budget totals.
func (g *Generator) splitShape(b sizeBudget) eventShape {
	var shape eventShape
	if b.totalIO > 0 {
		shape.inputs = g.rng.Intn(b.totalIO)
		shape.outputs = b.totalIO - shape.inputs
	}
	if b.fields > 0 {
		shape.inputFields = g.rng.Intn(b.fields)
		shape.outputFields = b.fields - shape.inputFields
	}
	return shape
}
