// Package metrics counts contract checks and violations with Prometheus.
package metrics

import (
	"context"
	"fmt"
	"io"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/common/expfmt"

	"github.com/roach88/covenant/pkg/contract"
)

const namespace = "covenant"

// Observer is a contract.Observer that updates Prometheus counters.
type Observer struct {
	checks     *prometheus.CounterVec
	violations *prometheus.CounterVec
}

var _ contract.Observer = (*Observer)(nil)

// New registers the covenant counters with reg and returns an Observer
// feeding them. Pass a fresh prometheus.NewRegistry() per run to keep
// counts separate.
func New(reg prometheus.Registerer) *Observer {
	factory := promauto.With(reg)
	return &Observer{
		checks: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "checks_total",
			Help:      "Contract checks by stage and outcome",
		}, []string{"stage", "outcome"}),
		violations: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "violations_total",
			Help:      "Calls rejected by kind: precondition, postcondition, invariant or binding",
		}, []string{"kind"}),
	}
}

// Observe implements contract.Observer.
func (o *Observer) Observe(_ context.Context, e contract.Event) {
	o.checks.WithLabelValues(string(e.Stage), string(e.Outcome)).Inc()
	if e.Outcome == contract.OutcomeOK {
		return
	}
	if kind := violationKind(e.Stage); kind != "" {
		o.violations.WithLabelValues(kind).Inc()
	}
}

// violationKind maps a failing stage to the kind of error the caller saw.
// A failing body is the callable's own error, not a violation.
func violationKind(stage contract.Stage) string {
	switch stage {
	case contract.StagePrecondition:
		return string(contract.KindPrecondition)
	case contract.StagePostcondition:
		return string(contract.KindPostcondition)
	case contract.StageInvariantEntry, contract.StageInvariantExit:
		return string(contract.KindInvariant)
	case contract.StageBind:
		return "binding"
	}
	return ""
}

// Write renders every metric in g in the Prometheus text format.
func Write(w io.Writer, g prometheus.Gatherer) error {
	families, err := g.Gather()
	if err != nil {
		return fmt.Errorf("gather metrics: %w", err)
	}
	for _, mf := range families {
		if _, err := expfmt.MetricFamilyToText(w, mf); err != nil {
			return fmt.Errorf("write metric %s: %w", mf.GetName(), err)
		}
	}
	return nil
}
