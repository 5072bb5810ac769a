package metagen

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Byte costs per entity, calibrated against the serialized event form.
const (
	BytesPerRun         = 578
	BytesPerJob         = 58
	BytesPerSchemaField = 256
)

const (
	DefaultRuns            = 25
	DefaultInputsPerEvent  = 4
	DefaultOutputsPerEvent = 2
	DefaultFieldsPerEvent  = 16

	DefaultBytesPerInput  = BytesPerSchemaField * DefaultFieldsPerEvent
	DefaultBytesPerOutput = BytesPerSchemaField * DefaultFieldsPerEvent

	DefaultBytesPerEvent = BytesPerRun +
		BytesPerJob +
		(DefaultBytesPerInput * DefaultInputsPerEvent) +
		(DefaultBytesPerOutput * DefaultOutputsPerEvent)

	DefaultTimeZone = "America/Los_Angeles"
)

// delayCeilingMinutes bounds the gap between a START event and its COMPLETE.
const delayCeilingMinutes = 10

const ProfileSchemaV1 = "olgen.profile.v1"

// ErrInvalidParams marks parameter validation failures so callers can tell
// configuration mistakes apart from runtime failures.
var ErrInvalidParams = errors.New("invalid generation params")

type Params struct {
	// Runs is the number of run event pairs to generate; each run yields one
	// START and one COMPLETE event.
	Runs int `yaml:"runs"`

	// BytesPerEvent is the approximate serialized size target for one START
	// event. Values above the default grow the dataset counts; values at or
	// below it leave the configured counts untouched.
	BytesPerEvent int `yaml:"bytes_per_event"`

	InputsPerEvent  int `yaml:"inputs_per_event"`
	OutputsPerEvent int `yaml:"outputs_per_event"`
	FieldsPerEvent  int `yaml:"fields_per_event"`

	// BytesPerInput and BytesPerOutput are accepted for future per-dataset
	// sizing. The current shape arithmetic splits a global field count and
	// does not consume them; they are kept so callers and profiles do not
	// break when that lands.
	BytesPerInput  int `yaml:"bytes_per_input"`
	BytesPerOutput int `yaml:"bytes_per_output"`

	// Namespace is shared by every job and dataset in the batch. Empty means
	// a fresh randomized namespace per generator.
	Namespace string `yaml:"namespace"`

	// TimeZone is the reference zone for event and nominal times.
	TimeZone string `yaml:"time_zone"`

	// Seed makes generation reproducible when non-zero. Zero seeds from the
	// wall clock.
	Seed int64 `yaml:"seed"`
}

func DefaultParams() Params {
	return Params{
		Runs:            DefaultRuns,
		BytesPerEvent:   DefaultBytesPerEvent,
		InputsPerEvent:  DefaultInputsPerEvent,
		OutputsPerEvent: DefaultOutputsPerEvent,
		FieldsPerEvent:  DefaultFieldsPerEvent,
		BytesPerInput:   DefaultBytesPerInput,
		BytesPerOutput:  DefaultBytesPerOutput,
		TimeZone:        DefaultTimeZone,
	}
}

func (p Params) Validate() error {
	if p.Runs < 0 {
		return fmt.Errorf("%w: runs must be >= 0 (got %d)", ErrInvalidParams, p.Runs)
	}
	if p.InputsPerEvent < 0 {
		return fmt.Errorf("%w: inputs_per_event must be >= 0 (got %d)", ErrInvalidParams, p.InputsPerEvent)
	}
	if p.OutputsPerEvent < 0 {
		return fmt.Errorf("%w: outputs_per_event must be >= 0 (got %d)", ErrInvalidParams, p.OutputsPerEvent)
	}
	if p.FieldsPerEvent < 0 {
		return fmt.Errorf("%w: fields_per_event must be >= 0 (got %d)", ErrInvalidParams, p.FieldsPerEvent)
	}
	if p.BytesPerInput < 0 {
		return fmt.Errorf("%w: bytes_per_input must be >= 0 (got %d)", ErrInvalidParams, p.BytesPerInput)
	}
	if p.BytesPerOutput < 0 {
		return fmt.Errorf("%w: bytes_per_output must be >= 0 (got %d)", ErrInvalidParams, p.BytesPerOutput)
	}
	if p.BytesPerEvent < BytesPerRun+BytesPerJob {
		return fmt.Errorf(
			"%w: bytes_per_event must cover the run and job overhead of %d bytes (got %d)",
			ErrInvalidParams, BytesPerRun+BytesPerJob, p.BytesPerEvent,
		)
	}
	return nil
}

type profileDoc struct {
	Schema string `yaml:"schema"`
	Params `yaml:",inline"`
}

// LoadProfile reads generation parameters from a YAML profile document.
// Fields omitted from the document keep their defaults.
func LoadProfile(path string) (Params, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return Params{}, fmt.Errorf("read profile %s: %w", path, err)
	}

	doc := profileDoc{Params: DefaultParams()}
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return Params{}, fmt.Errorf("parse profile %s: %w", path, err)
	}
	if doc.Schema != ProfileSchemaV1 {
		return Params{}, fmt.Errorf("profile %s: schema must be %q (got %q)", path, ProfileSchemaV1, doc.Schema)
	}
	if err := doc.Params.Validate(); err != nil {
		return Params{}, fmt.Errorf("profile %s: %w", path, err)
	}
	return doc.Params, nil
}
