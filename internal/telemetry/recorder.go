// Recording helpers for nd telemetry events. Each function emits both an
// OTel log event and a metric data point.
package telemetry

import (
	"context"
	"sync"
	"time"
	"unicode/utf8"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	otellog "go.opentelemetry.io/otel/log"
	"go.opentelemetry.io/otel/log/global"
	"go.opentelemetry.io/otel/metric"
)

const (
	meterRecorderName = "github.com/steveyegge/notedir"
	loggerName        = "notedir"
)

// recorderInstruments holds all lazy-initialized OTel metric instruments.
type recorderInstruments struct {
	fsalOpTotal     metric.Int64Counter
	commandTotal    metric.Int64Counter
	treeLoadTotal   metric.Int64Counter
	selectionTotal  metric.Int64Counter
	doctorRunTotal  metric.Int64Counter
	fsalOpDuration  metric.Float64Histogram
	treeNodesGauge  metric.Int64Gauge
	lockWaitSeconds metric.Float64Histogram
}

var (
	instOnce sync.Once
	inst     recorderInstruments
)

// initInstruments registers all recorder metric instruments against the current
// global MeterProvider. Must be called after telemetry.Init so the real
// provider is set. Also called lazily on first use as a safety net.
func initInstruments() {
	instOnce.Do(func() {
		m := otel.GetMeterProvider().Meter(meterRecorderName)

		inst.fsalOpTotal, _ = m.Int64Counter("nd.fsal.ops.total",
			metric.WithDescription("Total FSAL mutations by operation and outcome"),
		)
		inst.commandTotal, _ = m.Int64Counter("nd.command.runs.total",
			metric.WithDescription("Total command runs by terminal state"),
		)
		inst.treeLoadTotal, _ = m.Int64Counter("nd.tree.loads.total",
			metric.WithDescription("Total workspace tree loads"),
		)
		inst.selectionTotal, _ = m.Int64Counter("nd.selection.changes.total",
			metric.WithDescription("Total selection changes"),
		)
		inst.doctorRunTotal, _ = m.Int64Counter("nd.doctor.runs.total",
			metric.WithDescription("Total doctor runs"),
		)
		inst.fsalOpDuration, _ = m.Float64Histogram("nd.fsal.op.duration_ms",
			metric.WithDescription("FSAL mutation latency including disk I/O, in milliseconds"),
			metric.WithUnit("ms"),
		)
		inst.treeNodesGauge, _ = m.Int64Gauge("nd.tree.nodes",
			metric.WithDescription("Entities in the tree after the last load"),
		)
		inst.lockWaitSeconds, _ = m.Float64Histogram("nd.lock.wait_seconds",
			metric.WithDescription("Time spent waiting for the workspace lock"),
			metric.WithUnit("s"),
		)
	})
}

// statusStr returns "ok" or "error" depending on whether err is nil.
func statusStr(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}

// emit sends an OTel log event with the given body and key-value attributes.
func emit(ctx context.Context, body string, sev otellog.Severity, attrs ...otellog.KeyValue) {
	logger := global.GetLoggerProvider().Logger(loggerName)
	var r otellog.Record
	r.SetBody(otellog.StringValue(body))
	r.SetSeverity(sev)
	r.AddAttributes(attrs...)
	logger.Emit(ctx, r)
}

// maxErrLog is the maximum number of bytes of an error message logged.
const maxErrLog = 1024

// errKV returns a log KeyValue with the error message, or empty string if nil.
func errKV(err error) otellog.KeyValue {
	if err != nil {
		return otellog.String("error", truncateOutput(err.Error(), maxErrLog))
	}
	return otellog.String("error", "")
}

// severity returns SeverityInfo on success, SeverityError on failure.
func severity(err error) otellog.Severity {
	if err != nil {
		return otellog.SeverityError
	}
	return otellog.SeverityInfo
}

// truncateOutput trims s to max bytes and appends "…" when truncated.
// Avoids splitting multi-byte UTF-8 characters at the boundary.
func truncateOutput(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	truncated := s[:limit]
	for len(truncated) > 0 && !utf8.ValidString(truncated) {
		truncated = truncated[:len(truncated)-1]
	}
	return truncated + "…"
}

// RecordFSALOp records one FSAL mutation (metrics + log event). op is
// "create", "rename" or "remove".
func RecordFSALOp(ctx context.Context, op, path string, d time.Duration, err error) {
	initInstruments()
	status := statusStr(err)
	attrs := metric.WithAttributes(
		attribute.String("op", op),
		attribute.String("status", status),
	)
	inst.fsalOpTotal.Add(ctx, 1, attrs)
	inst.fsalOpDuration.Record(ctx, float64(d.Microseconds())/1000, attrs)
	emit(ctx, "fsal."+op, severity(err),
		otellog.String("path", path),
		otellog.Float64("duration_ms", float64(d.Microseconds())/1000),
		otellog.String("status", status),
		errKV(err),
	)
}

// RecordCommand records a command reaching a terminal state (metrics + log
// event). requestID correlates the event with the command's log lines.
func RecordCommand(ctx context.Context, name, requestID, state string, err error) {
	initInstruments()
	status := statusStr(err)
	inst.commandTotal.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("command", name),
			attribute.String("state", state),
			attribute.String("status", status),
		),
	)
	emit(ctx, "command.run", severity(err),
		otellog.String("command", name),
		otellog.String("request_id", requestID),
		otellog.String("state", state),
		otellog.String("status", status),
		errKV(err),
	)
}

// RecordTreeLoad records a tree load from disk (metrics + log event).
func RecordTreeLoad(ctx context.Context, roots, nodes int, err error) {
	initInstruments()
	status := statusStr(err)
	inst.treeLoadTotal.Add(ctx, 1,
		metric.WithAttributes(attribute.String("status", status)),
	)
	if err == nil {
		inst.treeNodesGauge.Record(ctx, int64(nodes))
	}
	emit(ctx, "tree.load", severity(err),
		otellog.Int("roots", roots),
		otellog.Int("nodes", nodes),
		otellog.String("status", status),
		errKV(err),
	)
}

// RecordSelection records a selection change (metrics + log event).
func RecordSelection(ctx context.Context, path string) {
	initInstruments()
	cleared := path == ""
	inst.selectionTotal.Add(ctx, 1,
		metric.WithAttributes(attribute.Bool("cleared", cleared)),
	)
	emit(ctx, "selection.change", otellog.SeverityInfo,
		otellog.String("path", path),
	)
}

// RecordLockWait records how long opening a workspace waited for its lock.
func RecordLockWait(ctx context.Context, d time.Duration, err error) {
	initInstruments()
	inst.lockWaitSeconds.Record(ctx, d.Seconds(),
		metric.WithAttributes(attribute.String("status", statusStr(err))),
	)
	if err != nil {
		emit(ctx, "workspace.lock", otellog.SeverityWarn,
			otellog.Float64("wait_seconds", d.Seconds()),
			errKV(err),
		)
	}
}

// RecordDoctorRun records a doctor run with result counts (metrics + log event).
func RecordDoctorRun(ctx context.Context, passed, warned, failed, fixed int) {
	initInstruments()
	inst.doctorRunTotal.Add(ctx, 1,
		metric.WithAttributes(
			attribute.Int("passed", passed),
			attribute.Int("warned", warned),
			attribute.Int("failed", failed),
			attribute.Int("fixed", fixed),
		),
	)
	emit(ctx, "doctor.run", otellog.SeverityInfo,
		otellog.Int("passed", passed),
		otellog.Int("warned", warned),
		otellog.Int("failed", failed),
		otellog.Int("fixed", fixed),
	)
}
