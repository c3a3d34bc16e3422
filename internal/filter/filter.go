package filter

import (
	"log/slog"

	"github.com/everstacklabs/modelfilter/internal/catalog"
	"github.com/everstacklabs/modelfilter/internal/policy"
)

// Request describes one Filter call. The zero value applies no capability
// filter, excludes deprecated models and problematic variants, and keeps
// upstream order.
type Request struct {
	Capabilities               Capability
	IncludeDeprecated          bool
	IncludeProblematicVariants bool
	SortOrder                  SortKey
}

// Validate checks the request shape before any record is processed.
func (r Request) Validate() error {
	if err := r.Capabilities.Validate(); err != nil {
		return err
	}
	return r.SortOrder.Validate()
}

// Stage names the pipeline step that dropped a record.
type Stage string

const (
	StageKept       Stage = "kept"
	StageMalformed  Stage = "malformed"
	StageCapability Stage = "capability"
	StageDeprecated Stage = "deprecated"
	StageVariant    Stage = "variant"
)

// Stats counts records per pipeline outcome.
type Stats struct {
	Seen       int
	Malformed  int
	Capability int
	Deprecated int
	Variant    int
	Kept       int
}

// Result is the ordered output of a Filter call.
type Result struct {
	Models      []*Model
	Diagnostics []Diagnostic
	Stats       Stats
}

// Decision is the per-record trace produced by Explain.
type Decision struct {
	Index      int
	ID         string
	Stage      Stage
	Variant    Verdict
	Descriptor *Descriptor
	Err        error
}

type options struct {
	policy *policy.Policy
	logger *slog.Logger
}

// Option configures a Filter or Explain call.
type Option func(*options)

// WithPolicy sets the marker vocabulary and deprecation keywords.
func WithPolicy(p *policy.Policy) Option {
	return func(o *options) {
		if p != nil {
			o.policy = p
		}
	}
}

// WithLogger sets the logger used for dropped-record diagnostics.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

func buildOptions(opts []Option) options {
	o := options{policy: policy.Default(), logger: slog.Default()}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// Filter runs normalize, capability admit, deprecation exclude, variant
// exclude and sort over the catalog snapshot. Malformed records are dropped
// into Result.Diagnostics; only an invalid request fails the call.
//
// Filter holds no state between calls and does not modify records, so
// concurrent calls over an unmodified snapshot are safe.
func Filter(records []catalog.Record, req Request, opts ...Option) (*Result, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	o := buildOptions(opts)

	res := &Result{Models: make([]*Model, 0, len(records))}
	for i, rec := range records {
		dec := decide(i, rec, req, o.policy)
		res.Stats.Seen++

		switch dec.Stage {
		case StageMalformed:
			res.Stats.Malformed++
			res.Diagnostics = append(res.Diagnostics, Diagnostic{Index: i, ID: dec.ID, Err: dec.Err})
			o.logger.Warn("dropping malformed record", "index", i, "id", dec.ID, "error", dec.Err)
		case StageCapability:
			res.Stats.Capability++
		case StageDeprecated:
			res.Stats.Deprecated++
		case StageVariant:
			res.Stats.Variant++
		case StageKept:
			res.Stats.Kept++
			res.Models = append(res.Models, newModel(dec.Descriptor, o.policy))
		}
	}

	sortModels(res.Models, req.SortOrder)

	o.logger.Debug("filter complete",
		"seen", res.Stats.Seen,
		"kept", res.Stats.Kept,
		"malformed", res.Stats.Malformed,
		"capability_rejected", res.Stats.Capability,
		"deprecated_excluded", res.Stats.Deprecated,
		"variant_excluded", res.Stats.Variant,
		"sort", req.SortOrder.String())

	return res, nil
}

// Explain traces every record through the Filter pipeline without
// sorting, reporting which stage kept or dropped it.
func Explain(records []catalog.Record, req Request, opts ...Option) ([]Decision, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	o := buildOptions(opts)

	decisions := make([]Decision, 0, len(records))
	for i, rec := range records {
		decisions = append(decisions, decide(i, rec, req, o.policy))
	}
	return decisions, nil
}

func decide(i int, rec catalog.Record, req Request, pol *policy.Policy) Decision {
	dec := Decision{Index: i, ID: rec.ID()}

	d, err := Normalize(rec, pol)
	if err != nil {
		dec.Stage = StageMalformed
		dec.Err = err
		return dec
	}
	dec.Descriptor = d
	dec.Variant = ClassifyVariant(d, pol)

	switch {
	case !Admits(d, req.Capabilities):
		dec.Stage = StageCapability
	case !req.IncludeDeprecated && d.Deprecated:
		dec.Stage = StageDeprecated
	case !req.IncludeProblematicVariants && dec.Variant.Problematic:
		dec.Stage = StageVariant
	default:
		dec.Stage = StageKept
	}
	return dec
}
