// Package sink delivers generated run event batches to their destination: a
// local file, a lineage ingestion endpoint, or an object store. Sinks never
// mutate the batch; a failed write leaves the in-memory events intact.
package sink

import (
	"context"

	"github.com/lineagelab/olgen/internal/openlineage"
)

type Sink interface {
	Write(ctx context.Context, events []openlineage.RunEvent) error
}
