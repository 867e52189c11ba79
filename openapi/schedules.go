package openapi

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/pscheid92/cyan/model"
)

type scheduleEnvelope struct {
	Schedule model.Schedule `json:"schedule"`
}

// ListSchedules returns the schedules of a schedule channel. A non-zero since
// limits the result to schedules of that day onwards.
func (c *Client) ListSchedules(ctx context.Context, channelID string, since time.Time) ([]model.Schedule, error) {
	var q url.Values
	if !since.IsZero() {
		q = url.Values{"since": {strconv.FormatInt(since.UnixMilli(), 10)}}
	}
	var schedules []model.Schedule
	r := request{method: http.MethodGet, route: "/channels/{channel_id}/schedules", path: path("/channels/%s/schedules", channelID), query: q}
	if err := c.do(ctx, r, &schedules); err != nil {
		return nil, fmt.Errorf("failed to list schedules of channel %s: %w", channelID, err)
	}
	if schedules == nil {
		schedules = []model.Schedule{}
	}
	return schedules, nil
}

func (c *Client) Schedule(ctx context.Context, channelID, scheduleID string) (*model.Schedule, error) {
	var s model.Schedule
	r := request{
		method: http.MethodGet,
		route:  "/channels/{channel_id}/schedules/{schedule_id}",
		path:   path("/channels/%s/schedules/%s", channelID, scheduleID),
	}
	if err := c.do(ctx, r, &s); err != nil {
		return nil, fmt.Errorf("failed to get schedule %s: %w", scheduleID, err)
	}
	return &s, nil
}

func normalizeSchedule(s model.Schedule) model.Schedule {
	s.ID = ""
	s.Creator = nil
	if s.JumpChannelID == "" {
		s.JumpChannelID = model.NoID
	}
	return s
}

func (c *Client) CreateSchedule(ctx context.Context, channelID string, s model.Schedule) (*model.Schedule, error) {
	var out model.Schedule
	r := request{
		method: http.MethodPost,
		route:  "/channels/{channel_id}/schedules",
		path:   path("/channels/%s/schedules", channelID),
		body:   scheduleEnvelope{Schedule: normalizeSchedule(s)},
	}
	if err := c.do(ctx, r, &out); err != nil {
		return nil, fmt.Errorf("failed to create schedule in channel %s: %w", channelID, err)
	}
	return &out, nil
}

func (c *Client) UpdateSchedule(ctx context.Context, channelID, scheduleID string, s model.Schedule) (*model.Schedule, error) {
	var out model.Schedule
	r := request{
		method: http.MethodPatch,
		route:  "/channels/{channel_id}/schedules/{schedule_id}",
		path:   path("/channels/%s/schedules/%s", channelID, scheduleID),
		body:   scheduleEnvelope{Schedule: normalizeSchedule(s)},
	}
	if err := c.do(ctx, r, &out); err != nil {
		return nil, fmt.Errorf("failed to update schedule %s: %w", scheduleID, err)
	}
	return &out, nil
}

func (c *Client) DeleteSchedule(ctx context.Context, channelID, scheduleID string) error {
	r := request{
		method: http.MethodDelete,
		route:  "/channels/{channel_id}/schedules/{schedule_id}",
		path:   path("/channels/%s/schedules/%s", channelID, scheduleID),
	}
	if err := c.do(ctx, r, nil); err != nil {
		return fmt.Errorf("failed to delete schedule %s: %w", scheduleID, err)
	}
	return nil
}
