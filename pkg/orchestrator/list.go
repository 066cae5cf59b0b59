package orchestrator

import (
	"context"

	"github.com/mladen4o/ClovaLink/pkg/access"
	"github.com/mladen4o/ClovaLink/pkg/catalog"
)

// ListRequest is the inbound shape for spec §6's list operation.
type ListRequest struct {
	TenantID     string
	DepartmentID *string
	ParentPath   string
	Visibility   *catalog.Visibility
}

// List returns the live children of a parent path (spec §6 "list"),
// filtering out anything the actor could not C4.decide(read) against so a
// directory listing never leaks a private sibling's existence.
func (o *Orchestrator) List(ctx context.Context, actor access.Actor, req ListRequest) ([]catalog.Record, error) {
	if actor.TenantID != req.TenantID {
		return nil, ErrForbidden
	}

	children, err := o.catalog.ListChildren(ctx, req.TenantID, req.DepartmentID, req.ParentPath, req.Visibility)
	if err != nil {
		return nil, err
	}

	visible := make([]catalog.Record, 0, len(children))
	for i := range children {
		if err := o.decide(ctx, actor, &children[i], access.ActionRead, false); err != nil {
			continue
		}
		visible = append(visible, children[i])
	}
	return visible, nil
}
