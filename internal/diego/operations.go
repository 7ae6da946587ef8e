package diego

import (
	"context"
	"fmt"
	"time"

	"github.com/me/diegobridge/pkg/bbs"
)

// bbsError converts an application error carried in a response body.
// A nil *bbs.Error must not become a non-nil error interface.
func bbsError(e *bbs.Error) error {
	if e == nil {
		return nil
	}
	return e
}

// Ping reports whether the BBS is available.
func (c *Client) Ping(ctx context.Context) (bool, error) {
	var resp bbs.PingResponse
	if err := c.do(ctx, bbs.PingRoute, bbs.EmptyRequest{}, &resp); err != nil {
		return false, fmt.Errorf("ping: %w", err)
	}
	return resp.Available, nil
}

// UpsertDomain registers domain as fresh for ttl.
func (c *Client) UpsertDomain(ctx context.Context, domain string, ttl time.Duration) error {
	var resp bbs.UpsertDomainResponse
	req := &bbs.UpsertDomainRequest{Domain: domain, Ttl: uint32(ttl / time.Second)}
	if err := c.do(ctx, bbs.UpsertDomainRoute, req, &resp); err != nil {
		return fmt.Errorf("upsert domain %s: %w", domain, err)
	}
	return bbsError(resp.Error)
}

// DesireTask submits a task definition.
func (c *Client) DesireTask(ctx context.Context, req *bbs.DesireTaskRequest) error {
	var resp bbs.TaskLifecycleResponse
	if err := c.do(ctx, bbs.DesireTaskRoute, req, &resp); err != nil {
		return fmt.Errorf("desire task %s: %w", req.TaskGuid, err)
	}
	return bbsError(resp.Error)
}

// TaskByGUID fetches one task.
func (c *Client) TaskByGUID(ctx context.Context, guid string) (*bbs.Task, error) {
	var resp bbs.TaskResponse
	if err := c.do(ctx, bbs.TaskByGuidRoute, &bbs.TaskByGuidRequest{TaskGuid: guid}, &resp); err != nil {
		return nil, fmt.Errorf("get task %s: %w", guid, err)
	}
	if err := bbsError(resp.Error); err != nil {
		return nil, err
	}
	return resp.Task, nil
}

// Tasks lists tasks, optionally filtered by domain and cell.
func (c *Client) Tasks(ctx context.Context, domain, cellID string) ([]*bbs.Task, error) {
	var resp bbs.TasksResponse
	if err := c.do(ctx, bbs.ListTasksRoute, &bbs.TasksRequest{Domain: domain, CellId: cellID}, &resp); err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	if err := bbsError(resp.Error); err != nil {
		return nil, err
	}
	return resp.Tasks, nil
}

// CancelTask cancels a task.
func (c *Client) CancelTask(ctx context.Context, guid string) error {
	var resp bbs.TaskLifecycleResponse
	if err := c.do(ctx, bbs.CancelTaskRoute, &bbs.TaskGuidRequest{TaskGuid: guid}, &resp); err != nil {
		return fmt.Errorf("cancel task %s: %w", guid, err)
	}
	return bbsError(resp.Error)
}

// DesireLRP submits a desired LRP.
func (c *Client) DesireLRP(ctx context.Context, lrp *bbs.DesiredLRP) error {
	var resp bbs.DesiredLRPLifecycleResponse
	if err := c.do(ctx, bbs.DesireDesiredLRPRoute, &bbs.DesireLRPRequest{DesiredLRP: lrp}, &resp); err != nil {
		return fmt.Errorf("desire lrp %s: %w", lrp.ProcessGuid, err)
	}
	return bbsError(resp.Error)
}

// DesiredLRPByProcessGUID fetches one desired LRP.
func (c *Client) DesiredLRPByProcessGUID(ctx context.Context, guid string) (*bbs.DesiredLRP, error) {
	var resp bbs.DesiredLRPResponse
	if err := c.do(ctx, bbs.DesiredLRPByProcessGuidRoute, &bbs.DesiredLRPByProcessGuidRequest{ProcessGuid: guid}, &resp); err != nil {
		return nil, fmt.Errorf("get desired lrp %s: %w", guid, err)
	}
	if err := bbsError(resp.Error); err != nil {
		return nil, err
	}
	return resp.DesiredLRP, nil
}

// UpdateDesiredLRP changes instances or annotation of a desired LRP.
func (c *Client) UpdateDesiredLRP(ctx context.Context, guid string, update *bbs.DesiredLRPUpdate) error {
	var resp bbs.DesiredLRPLifecycleResponse
	if err := c.do(ctx, bbs.UpdateDesiredLRPRoute, &bbs.UpdateDesiredLRPRequest{ProcessGuid: guid, Update: update}, &resp); err != nil {
		return fmt.Errorf("update desired lrp %s: %w", guid, err)
	}
	return bbsError(resp.Error)
}

// RemoveDesiredLRP stops and removes a desired LRP.
func (c *Client) RemoveDesiredLRP(ctx context.Context, guid string) error {
	var resp bbs.DesiredLRPLifecycleResponse
	if err := c.do(ctx, bbs.RemoveDesiredLRPRoute, &bbs.RemoveDesiredLRPRequest{ProcessGuid: guid}, &resp); err != nil {
		return fmt.Errorf("remove desired lrp %s: %w", guid, err)
	}
	return bbsError(resp.Error)
}

// RetireActualLRP stops one running instance.
func (c *Client) RetireActualLRP(ctx context.Context, key *bbs.ActualLRPKey) error {
	var resp bbs.ActualLRPLifecycleResponse
	if err := c.do(ctx, bbs.RetireActualLRPRoute, &bbs.RetireActualLRPRequest{ActualLRPKey: key}, &resp); err != nil {
		return fmt.Errorf("retire actual lrp %s/%d: %w", key.ProcessGuid, key.Index, err)
	}
	return bbsError(resp.Error)
}

// DesiredLRPSchedulingInfos lists scheduling infos in domain.
func (c *Client) DesiredLRPSchedulingInfos(ctx context.Context, domain string) ([]*bbs.DesiredLRPSchedulingInfo, error) {
	var resp bbs.DesiredLRPSchedulingInfosResponse
	if err := c.do(ctx, bbs.DesiredLRPSchedulingInfosRoute, &bbs.DesiredLRPsRequest{Domain: domain}, &resp); err != nil {
		return nil, fmt.Errorf("list scheduling infos: %w", err)
	}
	if err := bbsError(resp.Error); err != nil {
		return nil, err
	}
	return resp.DesiredLRPSchedulingInfos, nil
}

// ActualLRPsByProcessGUID lists the running instances of a process.
func (c *Client) ActualLRPsByProcessGUID(ctx context.Context, guid string) ([]*bbs.ActualLRP, error) {
	var resp bbs.ActualLRPsResponse
	if err := c.do(ctx, bbs.ActualLRPsRoute, &bbs.ActualLRPsRequest{ProcessGuid: guid}, &resp); err != nil {
		return nil, fmt.Errorf("list actual lrps %s: %w", guid, err)
	}
	if err := bbsError(resp.Error); err != nil {
		return nil, err
	}
	return resp.ActualLRPs, nil
}
