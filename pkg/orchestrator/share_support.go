package orchestrator

import (
	"context"

	"github.com/mladen4o/ClovaLink/pkg/access"
	"github.com/mladen4o/ClovaLink/pkg/catalog"
)

// DecideShare, DecideRead and DecideWrite expose C4's decision to pkg/share
// without that package reaching past the orchestrator into the catalog's
// compliance projection directly (spec §4.7: "creating a share requires
// C4.decide(share)"; redemption under the permissioned policy requires
// "C4.decide(read)").
func (o *Orchestrator) DecideShare(ctx context.Context, actor access.Actor, rec *catalog.Record, isPublic bool) error {
	return o.decide(ctx, actor, rec, access.ActionShare, isPublic)
}

func (o *Orchestrator) DecideRead(ctx context.Context, actor access.Actor, rec *catalog.Record) error {
	return o.decide(ctx, actor, rec, access.ActionRead, false)
}

func (o *Orchestrator) DecideWrite(ctx context.Context, actor access.Actor, rec *catalog.Record) error {
	return o.decide(ctx, actor, rec, access.ActionWrite, false)
}

// DownloadForShare streams an already-authorized record, reusing the same
// directory-pack and presigned-URL machinery as Download (spec §4.7: "the
// redemption path uses the same download machinery (§4.6)"). The caller
// (pkg/share) has already run whatever authorization the share's policy
// requires, so this skips the Decide call Download would otherwise make.
func (o *Orchestrator) DownloadForShare(ctx context.Context, rec *catalog.Record) (DownloadResult, error) {
	if rec.IsDir {
		return o.downloadDirectory(ctx, rec)
	}
	return o.downloadFile(ctx, rec)
}
