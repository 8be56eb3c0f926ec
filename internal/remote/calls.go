package remote

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/quizlink/quizlink-bridge/internal/token"
)

// CreateEventRequest carries everything the quiz service needs to create an
// event bound to one activity: identity of the creating teacher, the bridge
// URLs it must call back on, and the optional quiz export and source event.
type CreateEventRequest struct {
	ActivityID  int64  `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Quiz        string `json:"quiz,omitempty"`

	MoodleUserID int64  `json:"moodleUserId"`
	DisplayName  string `json:"displayName"`
	FirstName    string `json:"firstName"`
	LastName     string `json:"lastName"`
	Email        string `json:"email"`

	AuthURL   string `json:"authUrl"`
	CourseURL string `json:"courseUrl"`
	ReportURL string `json:"reportUrl"`

	// SourceEventID asks the service to duplicate an existing event rather
	// than start from scratch.
	SourceEventID string `json:"eventId,omitempty"`
}

type CreateEventResponse struct {
	ViewURL   string `json:"viewUrl"`
	EventSlug string `json:"eventSlug"`
}

// CreateEvent registers a new activity with the quiz service.
func (c *Client) CreateEvent(ctx context.Context, req CreateEventRequest) (CreateEventResponse, error) {
	ts := isoNow()
	signed := token.Payload{
		"accessKeyId":  c.AccessKeyID,
		"authUrl":      req.AuthURL,
		"courseUrl":    req.CourseURL,
		"id":           fmt.Sprint(req.ActivityID),
		"moodleUserId": fmt.Sprint(req.MoodleUserID),
		"name":         req.Name,
		"reportUrl":    req.ReportURL,
		"ts":           ts,
	}
	if req.SourceEventID != "" {
		signed["eventId"] = req.SourceEventID
	}
	tok, err := c.Signer.Sign(token.ActionCreate, signed)
	if err != nil {
		return CreateEventResponse{}, err
	}

	body := struct {
		CreateEventRequest
		AccessKeyID string `json:"accessKeyId"`
		TS          string `json:"ts"`
		Token       string `json:"token"`
		Version     string `json:"version"`
	}{req, c.AccessKeyID, ts, tok, c.Version}

	var out CreateEventResponse
	if err := c.post(ctx, c.url("/api/moodle/v3/events"), body, &out); err != nil {
		return CreateEventResponse{}, err
	}
	if out.ViewURL == "" {
		return CreateEventResponse{}, fmt.Errorf("%w: create event: empty viewUrl", ErrRemote)
	}
	return out, nil
}

// Ping checks whether the configured keys are accepted. Advisory: callers
// treat any error as "disconnected" rather than raising it.
func (c *Client) Ping(ctx context.Context) (bool, error) {
	ts := isoNow()
	signed := token.Payload{
		"accessKeyId": c.AccessKeyID,
		"ts":          ts,
		"version":     c.Version,
	}
	tok, err := c.Signer.Sign(token.ActionPing, signed)
	if err != nil {
		return false, err
	}
	q := token.Payload{
		"accessKeyId": c.AccessKeyID,
		"ts":          ts,
		"token":       tok,
		"version":     c.Version,
	}
	var out struct {
		KeysAreValid bool `json:"keysAreValid"`
	}
	if err := c.get(ctx, c.url("/api/moodle/v3/ping")+"?"+token.CanonicalQuery(q), &out); err != nil {
		return false, err
	}
	return out.KeysAreValid, nil
}

// Event is one entry in the duplicate-event picker.
type Event struct {
	ID   string `json:"_id"`
	Name string `json:"name"`
}

// ListEvents returns the teacher's existing events on the quiz service.
func (c *Client) ListEvents(ctx context.Context, username, email string) ([]Event, error) {
	ts := isoNow()
	signed := token.Payload{
		"accessKeyId":    c.AccessKeyID,
		"email":          email,
		"moodleUsername": username,
		"ts":             ts,
	}
	tok, err := c.Signer.Sign(token.ActionEventsList, signed)
	if err != nil {
		return nil, err
	}
	q := token.Payload{
		"accessKeyId":    c.AccessKeyID,
		"email":          email,
		"moodleUsername": username,
		"ts":             ts,
		"token":          tok,
		"version":        c.Version,
	}
	var out []Event
	if err := c.get(ctx, c.url("/api/moodle/v3/events_list")+"?"+token.CanonicalQuery(q), &out); err != nil {
		return nil, err
	}
	return out, nil
}

// RenameEvent propagates a local activity rename to the linked event.
func (c *Client) RenameEvent(ctx context.Context, slug, name string) error {
	ts := isoNow()
	signed := token.Payload{
		"accessKeyId": c.AccessKeyID,
		"name":        name,
		"slug":        slug,
		"ts":          ts,
	}
	tok, err := c.Signer.Sign(token.ActionRename, signed)
	if err != nil {
		return err
	}
	body := map[string]string{
		"accessKeyId": c.AccessKeyID,
		"name":        name,
		"slug":        slug,
		"ts":          ts,
		"token":       tok,
		"version":     c.Version,
	}
	return c.post(ctx, c.url("/api/integration/moodle-plugin/rename-event"), body, nil)
}

// UpgradeStep1 asks the service which user ids it still knows only by
// number, the first half of the v3 protocol migration.
func (c *Client) UpgradeStep1(ctx context.Context) ([]int64, error) {
	ts := isoNow()
	signed := token.Payload{
		"accessKeyId": c.AccessKeyID,
		"ts":          ts,
		"version":     c.Version,
	}
	tok, err := c.Signer.Sign(token.ActionUpgrade1, signed)
	if err != nil {
		return nil, err
	}
	q := token.Payload{
		"accessKeyId": c.AccessKeyID,
		"ts":          ts,
		"token":       tok,
		"version":     c.Version,
	}
	var ids []int64
	if err := c.get(ctx, c.url("/api/moodle/v3/upgrade-step-1")+"?"+token.CanonicalQuery(q), &ids); err != nil {
		return nil, err
	}
	return ids, nil
}

// UpgradeStep2 posts the id-to-username mapping, completing the migration.
func (c *Client) UpgradeStep2(ctx context.Context, mapping map[int64]string) error {
	encoded := make(map[string]string, len(mapping))
	for id, username := range mapping {
		encoded[fmt.Sprint(id)] = username
	}
	blob, err := json.Marshal(encoded)
	if err != nil {
		return err
	}
	ts := isoNow()
	signed := token.Payload{
		"accessKeyId":           c.AccessKeyID,
		"idsToUsernamesMapping": string(blob),
		"ts":                    ts,
		"version":               c.Version,
	}
	tok, err := c.Signer.Sign(token.ActionUpgrade2, signed)
	if err != nil {
		return err
	}
	body := map[string]string{
		"accessKeyId":           c.AccessKeyID,
		"idsToUsernamesMapping": string(blob),
		"ts":                    ts,
		"token":                 tok,
		"version":               c.Version,
	}
	return c.post(ctx, c.url("/api/moodle/v3/upgrade-step-2"), body, nil)
}
