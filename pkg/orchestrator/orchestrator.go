package orchestrator

import (
	"context"

	"github.com/google/uuid"

	"github.com/mladen4o/ClovaLink/pkg/access"
	"github.com/mladen4o/ClovaLink/pkg/archive"
	"github.com/mladen4o/ClovaLink/pkg/backend"
	"github.com/mladen4o/ClovaLink/pkg/cas"
	"github.com/mladen4o/ClovaLink/pkg/catalog"
	"github.com/mladen4o/ClovaLink/internal/logger"
	"github.com/mladen4o/ClovaLink/pkg/metrics"
	"github.com/mladen4o/ClovaLink/pkg/scheduler"
	"github.com/mladen4o/ClovaLink/pkg/tenantconfig"
)

// Orchestrator wires C1-C5 under the policy described in spec §4.6.
type Orchestrator struct {
	cfg Config

	catalog   catalog.Catalog
	shares    catalog.ShareStore
	backend   backend.Backend
	cas       *cas.Store
	scheduler *scheduler.Scheduler
	tenants   *tenantconfig.Store
	packer    *archive.Packer

	audit AuditSink
	jobs  JobQueue

	metrics *metrics.Metrics
}

// SetMetrics wires a Prometheus collector in after construction.
func (o *Orchestrator) SetMetrics(m *metrics.Metrics) { o.metrics = m }

func New(
	cfg Config,
	cat catalog.Catalog,
	shares catalog.ShareStore,
	be backend.Backend,
	casStore *cas.Store,
	sched *scheduler.Scheduler,
	tenants *tenantconfig.Store,
	audit AuditSink,
	jobs JobQueue,
) *Orchestrator {
	cfg.applyDefaults()
	if audit == nil {
		audit = NoopAuditSink{}
	}
	if jobs == nil {
		jobs = NoopJobQueue{}
	}
	return &Orchestrator{
		cfg:       cfg,
		catalog:   cat,
		shares:    shares,
		backend:   be,
		cas:       casStore,
		scheduler: sched,
		tenants:   tenants,
		packer:    archive.NewPacker(be, cfg.MaxPackSizeBytes),
		audit:     audit,
		jobs:      jobs,
	}
}

func newRecordID() string {
	id, err := uuid.NewV7()
	if err != nil {
		// NewV7 only fails on an exhausted entropy source; fall back to v4
		// rather than surface an error from an id-generation helper.
		return uuid.NewString()
	}
	return id.String()
}

// decide is the one place orchestrator calls into C4, translating a
// catalog.Record into the access engine's Resource shape.
func (o *Orchestrator) decide(ctx context.Context, actor access.Actor, rec *catalog.Record, action access.Action, isPublicShare bool) error {
	entry, err := o.tenants.Get(ctx, rec.TenantID)
	if err != nil {
		return err
	}
	resource := recordToResource(rec, isPublicShare)
	d := access.Decide(actor, resource, action, entry.Compliance)
	o.metrics.ObserveAccessDecision(string(action), d.Allow)
	if !d.Allow {
		logger.Info("access denied",
			logger.Action(string(action)), logger.RecordID(rec.ID), logger.ActorID(actor.ID),
			logger.Scope(d.Reason))
		return ErrForbidden
	}
	return nil
}

func (o *Orchestrator) emitAudit(tenantID, actorID, action, recordID, detail string) {
	go o.audit.Record(context.Background(), AuditEvent{
		TenantID: tenantID, ActorID: actorID, Action: action, RecordID: recordID, Detail: detail,
	})
}

func (o *Orchestrator) enqueueDownstream(tenantID, recordID string) {
	for _, kind := range []string{"replicate", "scan", "summarize"} {
		go o.jobs.Enqueue(context.Background(), Job{Kind: kind, TenantID: tenantID, RecordID: recordID})
	}
}
