// Package share implements the Share Gateway (spec §4.7, C7):
// token-addressable read access to a file or directory, with a policy that
// controls how much of C4's decision the redeemer must additionally satisfy.
package share

import (
	"context"
	"crypto/rand"
	"encoding/base32"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/mladen4o/ClovaLink/pkg/access"
	"github.com/mladen4o/ClovaLink/pkg/catalog"
	"github.com/mladen4o/ClovaLink/pkg/metrics"
	"github.com/mladen4o/ClovaLink/pkg/orchestrator"
	"github.com/mladen4o/ClovaLink/pkg/secrethash"
)

var (
	ErrNotFound  = errors.New("share: token not found")
	ErrExpired   = errors.New("share: token expired")
	ErrForbidden = errors.New("share: redeemer not authorized")
)

// Gateway wires C7 on top of the orchestrator's download machinery, reusing
// its presigned-URL branch and scheduler permits rather than duplicating
// them (spec §4.7: "the redemption path uses the same download machinery").
type Gateway struct {
	shares  catalog.ShareStore
	cat     catalog.Catalog
	orch    *orchestrator.Orchestrator
	metrics *metrics.Metrics
}

func New(shares catalog.ShareStore, cat catalog.Catalog, orch *orchestrator.Orchestrator) *Gateway {
	return &Gateway{shares: shares, cat: cat, orch: orch}
}

// SetMetrics wires a Prometheus collector in after construction.
func (g *Gateway) SetMetrics(m *metrics.Metrics) { g.metrics = m }

// CreateRequest is the inbound shape for spec §6's create-share operation.
type CreateRequest struct {
	Actor      access.Actor
	RecordID   string
	IsPublic   bool
	TTL        time.Duration // zero = no expiry
	Policy     catalog.SharePolicy
	SharedWith *string
	Password   string
}

// Create authorizes the share (C4.decide(share)) and persists a token.
func (g *Gateway) Create(ctx context.Context, req CreateRequest) (*catalog.ShareToken, error) {
	rec, err := g.cat.GetByID(ctx, req.RecordID)
	if err != nil {
		if errors.Is(err, catalog.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if rec.IsDeleted {
		return nil, ErrNotFound
	}

	if err := g.orch.DecideShare(ctx, req.Actor, rec, req.IsPublic); err != nil {
		return nil, err
	}

	policy := req.Policy
	if policy == "" {
		policy = catalog.SharePolicyPermissioned
	}

	token, err := newToken()
	if err != nil {
		return nil, err
	}

	share := &catalog.ShareToken{
		ID:         newShareID(),
		TenantID:   rec.TenantID,
		RecordID:   rec.ID,
		Token:      token,
		CreatorID:  req.Actor.ID,
		IsPublic:   req.IsPublic,
		Policy:     policy,
		SharedWith: req.SharedWith,
	}
	if req.TTL > 0 {
		expiry := time.Now().Add(req.TTL)
		share.ExpiresAt = &expiry
	}
	if req.Password != "" {
		hash, err := hashSharePassword(req.Password)
		if err != nil {
			return nil, err
		}
		share.PasswordHash = hash
	}

	if err := g.shares.CreateShare(ctx, share); err != nil {
		return nil, err
	}
	return share, nil
}

// RedeemRequest carries the token and, for the non-public policies, the
// credentials the caller already authenticated upstream of this package
// (spec §4.7: "the redeemer must present valid credentials for the same
// tenant"). redeemerActor is nil for anonymous, is-public=true redemptions.
type RedeemRequest struct {
	Token         string
	RedeemerActor *access.Actor
	Password      string
}

// Redeem implements spec §4.7's three-policy redemption check, increments
// the download counter before streaming, then delegates to the
// orchestrator's download machinery for the byte path.
func (g *Gateway) Redeem(ctx context.Context, req RedeemRequest) (result orchestrator.DownloadResult, err error) {
	policy := "unknown"
	defer func() {
		res := metrics.ResultSuccess
		if err != nil {
			res = metrics.ResultError
		}
		g.metrics.ObserveShareRedemption(policy, res)
	}()

	tok, err := g.shares.GetShareByToken(ctx, req.Token)
	if err != nil {
		if errors.Is(err, catalog.ErrShareNotFound) {
			return orchestrator.DownloadResult{}, ErrNotFound
		}
		return orchestrator.DownloadResult{}, err
	}
	policy = string(tok.Policy)
	if tok.IsPublic {
		policy = "public"
	}
	if tok.Expired(time.Now()) {
		return orchestrator.DownloadResult{}, ErrExpired
	}
	if tok.PasswordHash != "" {
		ok, err := verifySharePassword(req.Password, tok.PasswordHash)
		if err != nil {
			return orchestrator.DownloadResult{}, err
		}
		if !ok {
			return orchestrator.DownloadResult{}, ErrForbidden
		}
	}

	rec, err := g.cat.GetByID(ctx, tok.RecordID)
	if err != nil {
		if errors.Is(err, catalog.ErrNotFound) {
			return orchestrator.DownloadResult{}, ErrNotFound
		}
		return orchestrator.DownloadResult{}, err
	}
	if rec.IsDeleted {
		return orchestrator.DownloadResult{}, ErrNotFound
	}

	switch {
	case tok.IsPublic:
		// expiry is the only check; any client holding the token may download.
	case tok.Policy == catalog.SharePolicyTenantWide:
		if req.RedeemerActor == nil || req.RedeemerActor.TenantID != tok.TenantID {
			return orchestrator.DownloadResult{}, ErrForbidden
		}
	default: // permissioned, the most secure default
		if req.RedeemerActor == nil || req.RedeemerActor.TenantID != tok.TenantID {
			return orchestrator.DownloadResult{}, ErrForbidden
		}
		if err := g.orch.DecideRead(ctx, *req.RedeemerActor, rec); err != nil {
			return orchestrator.DownloadResult{}, ErrForbidden
		}
	}

	if err := g.shares.IncrementDownloads(ctx, tok.ID); err != nil {
		return orchestrator.DownloadResult{}, err
	}

	return g.orch.DownloadForShare(ctx, rec)
}

// Revoke deletes a share token outright, requiring the same authorization a
// write to the underlying record would; being the share's creator grants
// nothing beyond that.
func (g *Gateway) Revoke(ctx context.Context, actor access.Actor, shareID, recordID string) error {
	rec, err := g.cat.GetByID(ctx, recordID)
	if err != nil {
		if errors.Is(err, catalog.ErrNotFound) {
			return ErrNotFound
		}
		return err
	}
	if err := g.orch.DecideWrite(ctx, actor, rec); err != nil {
		return err
	}
	return g.shares.DeleteShare(ctx, shareID)
}

func hashSharePassword(password string) (string, error) {
	return secrethash.Hash(password, secrethash.DefaultParams())
}

func verifySharePassword(password, encoded string) (bool, error) {
	return secrethash.Verify(password, encoded)
}

func newShareID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}

// newToken generates an opaque, URL-safe bearer token distinct from the
// share's database ID, so leaking a record ID never leaks redemption access.
func newToken() (string, error) {
	buf := make([]byte, 24)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return base32.StdEncoding.WithPadding(base32.NoPadding).EncodeToString(buf), nil
}
