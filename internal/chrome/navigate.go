package chrome

import (
	"context"
	"encoding/json"
	"fmt"
	"time"
)

// loadTimeout bounds NavigateAndWait when ctx has no deadline of its own.
var loadTimeout = 30 * time.Second

// callInto sends method and decodes the reply into out, which may be nil.
func (c *Client) callInto(ctx context.Context, sessionID, method string, params, out interface{}) error {
	raw, err := c.CallSession(ctx, sessionID, method, params)
	if err != nil {
		return err
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decoding %s reply: %w", method, err)
	}
	return nil
}

// pageSession attaches to targetID and enables domain in its session.
func (c *Client) pageSession(ctx context.Context, targetID, domain string) (string, error) {
	sessionID, err := c.session(ctx, targetID)
	if err != nil {
		return "", err
	}
	if err := c.callInto(ctx, sessionID, domain+".enable", nil, nil); err != nil {
		return "", fmt.Errorf("enabling %s domain: %w", domain, err)
	}
	return sessionID, nil
}

// Version reports the browser product and protocol version.
func (c *Client) Version(ctx context.Context) (*VersionInfo, error) {
	var v struct {
		Product         string `json:"product"`
		ProtocolVersion string `json:"protocolVersion"`
		UserAgent       string `json:"userAgent"`
		JSVersion       string `json:"jsVersion"`
	}
	if err := c.callInto(ctx, "", "Browser.getVersion", nil, &v); err != nil {
		return nil, err
	}
	return &VersionInfo{
		Browser:         v.Product,
		ProtocolVersion: v.ProtocolVersion,
		UserAgent:       v.UserAgent,
		V8Version:       v.JSVersion,
	}, nil
}

// Targets lists every browser target: pages, workers and the rest.
func (c *Client) Targets(ctx context.Context) ([]TargetInfo, error) {
	var v struct {
		TargetInfos []struct {
			TargetID string `json:"targetId"`
			Type     string `json:"type"`
			Title    string `json:"title"`
			URL      string `json:"url"`
		} `json:"targetInfos"`
	}
	if err := c.callInto(ctx, "", "Target.getTargets", nil, &v); err != nil {
		return nil, err
	}

	targets := make([]TargetInfo, len(v.TargetInfos))
	for i, t := range v.TargetInfos {
		targets[i] = TargetInfo{ID: t.TargetID, Type: t.Type, Title: t.Title, URL: t.URL}
	}
	return targets, nil
}

// Pages lists the page targets in the order the browser reports them. The
// CLI's numeric --target indexes into this list.
func (c *Client) Pages(ctx context.Context) ([]TargetInfo, error) {
	targets, err := c.Targets(ctx)
	if err != nil {
		return nil, err
	}
	pages := targets[:0]
	for _, t := range targets {
		if t.Type == "page" {
			pages = append(pages, t)
		}
	}
	return pages, nil
}

// NavigateAndWait loads url in the page of targetID and waits for its load
// event. A navigation the browser rejects is reported through ErrorText, not
// as an error.
func (c *Client) NavigateAndWait(ctx context.Context, targetID string, url string) (*NavigateResult, error) {
	sessionID, err := c.pageSession(ctx, targetID, "Page")
	if err != nil {
		return nil, err
	}

	// Subscribe first so a fast load is not missed.
	loaded := eventKey{sessionID, "Page.loadEventFired"}
	ch := c.events.subscribe(loaded)
	defer c.events.unsubscribe(loaded, ch)

	res := &NavigateResult{URL: url}
	if err := c.callInto(ctx, sessionID, "Page.navigate", map[string]string{"url": url}, res); err != nil {
		return nil, fmt.Errorf("navigating to %s: %w", url, err)
	}
	res.URL = url
	if res.ErrorText != "" {
		res.LoaderID = ""
		return res, nil
	}

	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, loadTimeout)
		defer cancel()
	}
	select {
	case <-ch:
		return res, nil
	case <-ctx.Done():
		return nil, fmt.Errorf("waiting for %s to load: %w", url, ctx.Err())
	}
}

// NewTab opens a tab at url, about:blank when empty, and returns its target id.
func (c *Client) NewTab(ctx context.Context, url string) (string, error) {
	if url == "" {
		url = "about:blank"
	}
	var v struct {
		TargetID string `json:"targetId"`
	}
	if err := c.callInto(ctx, "", "Target.createTarget", map[string]string{"url": url}, &v); err != nil {
		return "", fmt.Errorf("creating target: %w", err)
	}
	return v.TargetID, nil
}

// CloseTab closes the tab of targetID and forgets its session.
func (c *Client) CloseTab(ctx context.Context, targetID string) error {
	c.sessions.forget(targetID)
	if err := c.callInto(ctx, "", "Target.closeTarget", map[string]string{"targetId": targetID}, nil); err != nil {
		return fmt.Errorf("closing target %s: %w", targetID, err)
	}
	return nil
}
