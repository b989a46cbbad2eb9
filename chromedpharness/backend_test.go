package chromedpharness_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kylejwatson/playwright-harness/chromedpharness"
	"github.com/kylejwatson/playwright-harness/harness"
	"github.com/kylejwatson/playwright-harness/internal/domscript"
	"github.com/kylejwatson/playwright-harness/internal/testutil"
)

func TestAttach_ReleaseLeavesPageOpen(t *testing.T) {
	p := newFakeTab(t)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_, release, err := chromedpharness.Attach(ctx, p.fb.WSURL(), "T1")
	require.NoError(t, err)

	attach := p.fb.CallsTo("Target.attachToTarget")
	require.Len(t, attach, 1)
	assert.Equal(t, "T1", attach[0].Param("targetId"))

	release()

	assert.Empty(t, p.fb.CallsTo("Target.closeTarget"))
	detach := p.fb.CallsTo("Target.detachFromTarget")
	require.Len(t, detach, 1)
	assert.Equal(t, "S1", detach[0].Param("sessionId"))
}

func TestAttach_ContextEndDoesNotClosePage(t *testing.T) {
	p := newFakeTab(t)

	ctx, cancel := context.WithCancel(context.Background())
	tabCtx, release, err := chromedpharness.Attach(ctx, p.fb.WSURL(), "T1")
	require.NoError(t, err)

	cancel()
	<-tabCtx.Done()
	release()

	assert.Empty(t, p.fb.CallsTo("Target.closeTarget"))
}

func TestAttach_Fails(t *testing.T) {
	p := newFakeTab(t)
	p.fb.Handle("Target.attachToTarget", testutil.Fail(-32602, "No target with given id found"))

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_, _, err := chromedpharness.Attach(ctx, p.fb.WSURL(), "T9")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "attaching to target T9")
	assert.Empty(t, p.fb.CallsTo("Target.closeTarget"))
}

func TestLoader_RootsAtDocumentElement(t *testing.T) {
	p := newFakeTab(t)
	env := p.load(t)

	root := env.Backend().RawRootElement()
	assert.EqualValues(t, nodeHTML, root.NodeID)
	assert.Equal(t, "html", root.LocalName)
	assert.Same(t, root, env.Backend().DocumentRoot())
}

func TestAllRawElements_SelectorListOrder(t *testing.T) {
	p := newFakeTab(t)
	env := p.load(t)
	p.query(nodeHTML, "li", nodeLi1, nodeLi2)
	p.query(nodeHTML, "dt", nodeDt)

	els, err := env.LocatorForAll(context.Background(), "li, dt")
	require.NoError(t, err)
	assert.Equal(t, []int64{nodeLi1, nodeLi2, nodeDt}, nodeIDs(t, els))

	els, err = env.LocatorForAll(context.Background(), "dt,li")
	require.NoError(t, err)
	assert.Equal(t, []int64{nodeDt, nodeLi1, nodeLi2}, nodeIDs(t, els))
}

func TestAllRawElements_ScopedToChildRoot(t *testing.T) {
	p := newFakeTab(t)
	env := p.load(t)
	p.query(nodeHTML, "section", nodeSection)
	p.query(nodeSection, "button", nodeButton)
	p.query(nodeHTML, "button", nodeButton, nodeButton)

	child, err := env.ChildLoader(context.Background(), "section")
	require.NoError(t, err)
	p.fb.Reset()

	els, err := child.LocatorForAll(context.Background(), "button")
	require.NoError(t, err)
	assert.Equal(t, []int64{nodeButton}, nodeIDs(t, els))

	queries := p.fb.CallsTo("DOM.querySelectorAll")
	require.Len(t, queries, 1)
	assert.Equal(t, float64(nodeSection), queries[0].Param("nodeId"))
}

func TestLocatorFor_NoMatch(t *testing.T) {
	p := newFakeTab(t)
	env := p.load(t)

	_, err := env.LocatorFor(context.Background(), "dialog")
	assert.ErrorIs(t, err, harness.ErrNoMatch)
}

func TestForceStabilize_WaitsForAnimationFrame(t *testing.T) {
	p := newFakeTab(t)
	env := p.load(t)
	p.query(nodeHTML, "section", nodeSection)

	child, err := env.ChildLoader(context.Background(), "section")
	require.NoError(t, err)
	p.fb.Reset()

	require.NoError(t, child.ForceStabilize(context.Background()))

	calls := p.callsOn(domscript.AnimationFrame)
	require.Len(t, calls, 1)
	assert.Equal(t, objectID(float64(nodeHTML)), calls[0].Param("objectId"))
	assert.Equal(t, true, calls[0].Param("awaitPromise"))
}

func TestWaitForTasksOutsideAngular_NotImplemented(t *testing.T) {
	p := newFakeTab(t)
	env := p.load(t)
	p.query(nodeHTML, "section", nodeSection)

	assert.ErrorIs(t, env.WaitForTasksOutsideAngular(context.Background()), harness.ErrNotImplemented)

	child, err := env.ChildLoader(context.Background(), "section")
	require.NoError(t, err)
	assert.ErrorIs(t, child.WaitForTasksOutsideAngular(context.Background()), harness.ErrNotImplemented)
	assert.Empty(t, p.fb.CallsTo("Runtime.callFunctionOn"))
}
