package chrome

import (
	"context"
	"encoding/json"
	"fmt"
)

// Eval evaluates a JavaScript expression in the page of targetID, awaiting
// promises, and decodes the result into out, which may be nil.
func (c *Client) Eval(ctx context.Context, targetID string, expression string, out interface{}) error {
	sessionID, err := c.pageSession(ctx, targetID, "Runtime")
	if err != nil {
		return err
	}

	var resp evalResponse
	err = c.callInto(ctx, sessionID, "Runtime.evaluate", map[string]interface{}{
		"expression":    expression,
		"returnByValue": true,
		"awaitPromise":  true,
	}, &resp)
	switch {
	case err != nil:
		return fmt.Errorf("evaluating expression: %w", err)
	case resp.ExceptionDetails != nil:
		return resp.ExceptionDetails.err()
	case out == nil || len(resp.Result.Value) == 0:
		return nil
	}
	if err := json.Unmarshal(resp.Result.Value, out); err != nil {
		return fmt.Errorf("decoding eval result: %w", err)
	}
	return nil
}
