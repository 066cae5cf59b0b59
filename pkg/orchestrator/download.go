package orchestrator

import (
	"context"
	"errors"
	"strings"

	"github.com/mladen4o/ClovaLink/pkg/access"
	"github.com/mladen4o/ClovaLink/pkg/catalog"
	"github.com/mladen4o/ClovaLink/internal/telemetry"
	"github.com/mladen4o/ClovaLink/pkg/metrics"
)

// Download implements spec §4.6's download algorithm: decide, fetch
// metadata, branch on directory-vs-file, acquire a permit, and either
// redirect to a presigned URL or stream bytes.
func (o *Orchestrator) Download(ctx context.Context, actor access.Actor, recordID string) (result DownloadResult, err error) {
	ctx, span := telemetry.StartSpan(ctx, "orchestrator.Download")
	defer func() {
		telemetry.RecordError(ctx, err)
		span.End()
		if err != nil {
			o.metrics.ObserveDownload(metrics.ResultError, 0)
			return
		}
		o.metrics.ObserveDownload(metrics.ResultSuccess, result.SizeBytes)
	}()

	rec, err := o.catalog.GetByID(ctx, recordID)
	if err != nil {
		if errors.Is(err, catalog.ErrNotFound) {
			return DownloadResult{}, ErrNotFound
		}
		return DownloadResult{}, err
	}
	if rec.IsDeleted {
		return DownloadResult{}, ErrNotFound
	}

	if err := o.decide(ctx, actor, rec, access.ActionRead, false); err != nil {
		return DownloadResult{}, err
	}

	if rec.IsDir {
		return o.downloadDirectory(ctx, rec)
	}
	return o.downloadFile(ctx, rec)
}

func (o *Orchestrator) downloadDirectory(ctx context.Context, rec *catalog.Record) (DownloadResult, error) {
	descendants, err := o.catalog.ListLiveDescendants(ctx, rec.ID)
	if err != nil {
		return DownloadResult{}, err
	}

	pr, pw := pipe()
	go func() {
		err := o.packer.Pack(ctx, pw, rec.ParentPath, descendants)
		pw.CloseWithError(err)
	}()

	return DownloadResult{Record: rec, Stream: pr, IsRedirect: false}, nil
}

func (o *Orchestrator) downloadFile(ctx context.Context, rec *catalog.Record) (DownloadResult, error) {
	permit, err := o.scheduler.AcquireDownloadPermit(ctx, rec.SizeBytes)
	if err != nil {
		return DownloadResult{}, err
	}

	if o.cfg.PresignedURLsEnabled && o.backend.SupportsPresignedURLs() {
		url, err := o.backend.PresignGet(ctx, rec.StorageKey, o.cfg.PresignTTL)
		permit.Release() // bytes no longer traverse this process
		if err != nil {
			return DownloadResult{}, err
		}
		if url != "" {
			if o.cfg.CDNHost != "" {
				url = rewriteHost(url, o.cfg.CDNHost)
			}
			return DownloadResult{Record: rec, RedirectURL: url, IsRedirect: true, SizeBytes: rec.SizeBytes}, nil
		}
	}

	stream, size, err := o.backend.GetStream(ctx, rec.StorageKey)
	if err != nil {
		permit.Release()
		return DownloadResult{}, err
	}
	return DownloadResult{
		Record:    rec,
		Stream:    &releasingReadCloser{ReadCloser: stream, release: permit.Release},
		SizeBytes: size,
	}, nil
}

// rewriteHost replaces the host component of a presigned URL with cdnHost,
// preserving path and query (spec §4.6: "optionally rewrite its host to a
// CDN domain").
func rewriteHost(rawURL, cdnHost string) string {
	schemeSep := "://"
	idx := strings.Index(rawURL, schemeSep)
	if idx < 0 {
		return rawURL
	}
	scheme := rawURL[:idx]
	rest := rawURL[idx+len(schemeSep):]
	slash := strings.IndexByte(rest, '/')
	if slash < 0 {
		return scheme + schemeSep + cdnHost
	}
	return scheme + schemeSep + cdnHost + rest[slash:]
}
