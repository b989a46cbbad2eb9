package chrome

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kylejwatson/playwright-harness/internal/domscript"
	"github.com/kylejwatson/playwright-harness/internal/testutil"
)

func objectResult(id string) map[string]interface{} {
	return map[string]interface{}{"result": map[string]interface{}{"type": "object", "objectId": id}}
}

func valueResult(v interface{}) map[string]interface{} {
	return map[string]interface{}{"result": map[string]interface{}{"type": "object", "value": v}}
}

// scriptFunctions answers Runtime.callFunctionOn by matching the function
// declaration against domscript sources.
func scriptFunctions(fb *testutil.FakeBrowser, answers map[string]interface{}) {
	fb.Handle("Runtime.callFunctionOn", func(c testutil.Call) (interface{}, error) {
		fn, _ := c.Param("functionDeclaration").(string)
		for script, answer := range answers {
			if strings.Contains(fn, script) {
				return answer, nil
			}
		}
		return valueResult(nil), nil
	})
}

func documentElement(t *testing.T) (*Element, *testutil.FakeBrowser) {
	t.Helper()

	client, fb := connectFake(t)
	fb.Handle("Runtime.evaluate", testutil.Reply(objectResult("doc")))

	doc, err := client.DocumentElement(context.Background(), "T1")
	require.NoError(t, err)
	fb.Reset()
	return doc, fb
}

func TestDocumentElement(t *testing.T) {
	client, fb := connectFake(t)
	fb.Handle("Runtime.evaluate", testutil.Reply(objectResult("doc")))

	doc, err := client.DocumentElement(context.Background(), "T1")
	require.NoError(t, err)
	assert.Equal(t, "doc", doc.ObjectID())
	assert.Equal(t, "S1", doc.SessionID())
	assert.Equal(t, "document.documentElement", fb.CallsTo("Runtime.evaluate")[0].Param("expression"))
}

func TestQuerySelectorAll_DocumentOrder(t *testing.T) {
	doc, fb := documentElement(t)
	scriptFunctions(fb, map[string]interface{}{
		domscript.QueryAll: map[string]interface{}{"result": map[string]interface{}{"type": "object", "subtype": "array", "objectId": "arr"}},
	})
	fb.Handle("Runtime.getProperties", testutil.Reply(map[string]interface{}{
		"result": []map[string]interface{}{
			{"name": "1", "value": map[string]string{"type": "object", "objectId": "e2"}},
			{"name": "0", "value": map[string]string{"type": "object", "objectId": "e1"}},
			{"name": "length", "value": map[string]interface{}{"type": "number", "value": 2}},
			{"name": "__proto__", "value": map[string]string{"type": "object", "objectId": "proto"}},
		},
	}))
	fb.Handle("Runtime.releaseObject", testutil.Reply(struct{}{}))

	els, err := doc.QuerySelectorAll(context.Background(), "li")
	require.NoError(t, err)
	require.Len(t, els, 2)
	assert.Equal(t, "e1", els[0].ObjectID())
	assert.Equal(t, "e2", els[1].ObjectID())

	call := fb.CallsTo("Runtime.callFunctionOn")[0]
	assert.Equal(t, "doc", call.Param("objectId"))
	assert.Equal(t, false, call.Param("returnByValue"))
	args := call.Param("arguments").([]interface{})
	assert.Equal(t, "li", args[0].(map[string]interface{})["value"])

	release := fb.CallsTo("Runtime.releaseObject")
	require.Len(t, release, 1)
	assert.Equal(t, "arr", release[0].Param("objectId"))
}

func TestQuerySelectorAll_InvalidSelector(t *testing.T) {
	doc, fb := documentElement(t)
	scriptFunctions(fb, map[string]interface{}{
		domscript.QueryAll: map[string]interface{}{
			"result":           map[string]string{"type": "object"},
			"exceptionDetails": map[string]interface{}{"text": "Uncaught", "exception": map[string]string{"description": "SyntaxError: '' is not a valid selector"}},
		},
	})

	_, err := doc.QuerySelectorAll(context.Background(), "")
	var evalErr *EvalError
	require.ErrorAs(t, err, &evalErr)
	assert.Contains(t, err.Error(), "SyntaxError")
}

func TestCallFunction_NullResult(t *testing.T) {
	doc, fb := documentElement(t)
	scriptFunctions(fb, map[string]interface{}{
		domscript.Attribute: valueResult(nil),
	})

	s := new(string)
	*s = "unchanged"
	out := &s
	require.NoError(t, doc.Eval(context.Background(), domscript.Attribute, "title", out))
	assert.Nil(t, *out)
}

func TestElement_Click(t *testing.T) {
	doc, fb := documentElement(t)
	fb.Handle("DOM.scrollIntoViewIfNeeded", testutil.Reply(struct{}{}))
	fb.Handle("Input.dispatchMouseEvent", testutil.Reply(struct{}{}))
	scriptFunctions(fb, map[string]interface{}{
		domscript.Dimensions: valueResult(map[string]float64{"top": 10, "left": 20, "width": 100, "height": 50}),
	})

	err := doc.Click(context.Background(), ClickOptions{
		Button:    MouseRight,
		Position:  &Point{X: 5, Y: 6},
		Modifiers: KeyModifiers{Shift: true, Ctrl: true},
	})
	require.NoError(t, err)

	assert.Equal(t, []string{
		"DOM.scrollIntoViewIfNeeded",
		"Runtime.callFunctionOn",
		"Input.dispatchMouseEvent",
		"Input.dispatchMouseEvent",
		"Input.dispatchMouseEvent",
	}, fb.Methods())

	events := fb.CallsTo("Input.dispatchMouseEvent")
	for i, typ := range []string{"mouseMoved", "mousePressed", "mouseReleased"} {
		assert.Equal(t, typ, events[i].Param("type"))
		assert.Equal(t, 25.0, events[i].Param("x"))
		assert.Equal(t, 16.0, events[i].Param("y"))
		assert.Equal(t, 10.0, events[i].Param("modifiers"))
	}
	assert.Equal(t, "right", events[1].Param("button"))
}

func TestElement_ClickCenter(t *testing.T) {
	doc, fb := documentElement(t)
	fb.Handle("DOM.scrollIntoViewIfNeeded", testutil.Reply(struct{}{}))
	fb.Handle("Input.dispatchMouseEvent", testutil.Reply(struct{}{}))
	scriptFunctions(fb, map[string]interface{}{
		domscript.Dimensions: valueResult(map[string]float64{"top": 10, "left": 20, "width": 100, "height": 50}),
	})

	require.NoError(t, doc.Click(context.Background(), ClickOptions{}))

	pressed := fb.CallsTo("Input.dispatchMouseEvent")[1]
	assert.Equal(t, 70.0, pressed.Param("x"))
	assert.Equal(t, 35.0, pressed.Param("y"))
	assert.Equal(t, "left", pressed.Param("button"))
	assert.Equal(t, 0.0, pressed.Param("modifiers"))
}

func TestElement_MoveMouse(t *testing.T) {
	doc, fb := documentElement(t)
	fb.Handle("Input.dispatchMouseEvent", testutil.Reply(struct{}{}))

	require.NoError(t, doc.MoveMouse(context.Background(), -1, -1))
	ev := fb.CallsTo("Input.dispatchMouseEvent")[0]
	assert.Equal(t, "mouseMoved", ev.Param("type"))
	assert.Equal(t, -1.0, ev.Param("x"))
	assert.Equal(t, -1.0, ev.Param("y"))
}

func TestElement_Focus(t *testing.T) {
	doc, fb := documentElement(t)
	fb.Handle("DOM.focus", testutil.Reply(struct{}{}))

	require.NoError(t, doc.Focus(context.Background()))
	assert.Equal(t, "doc", fb.CallsTo("DOM.focus")[0].Param("objectId"))
}

func TestElement_PressCharacter(t *testing.T) {
	doc, fb := documentElement(t)
	fb.Handle("Input.dispatchKeyEvent", testutil.Reply(struct{}{}))

	require.NoError(t, doc.Press(context.Background(), "a", KeyModifiers{}))

	events := fb.CallsTo("Input.dispatchKeyEvent")
	require.Len(t, events, 2)
	assert.Equal(t, "keyDown", events[0].Param("type"))
	assert.Equal(t, "a", events[0].Param("text"))
	assert.Equal(t, "KeyA", events[0].Param("code"))
	assert.Equal(t, 65.0, events[0].Param("windowsVirtualKeyCode"))
	assert.Equal(t, "keyUp", events[1].Param("type"))
	assert.Nil(t, events[1].Param("text"))
}

func TestElement_PressWithModifiers(t *testing.T) {
	doc, fb := documentElement(t)
	fb.Handle("Input.dispatchKeyEvent", testutil.Reply(struct{}{}))

	require.NoError(t, doc.Press(context.Background(), "a", KeyModifiers{Ctrl: true, Shift: true}))

	type ev struct {
		typ, key string
		mods     float64
	}
	var got []ev
	for _, c := range fb.CallsTo("Input.dispatchKeyEvent") {
		got = append(got, ev{c.Param("type").(string), c.Param("key").(string), c.Param("modifiers").(float64)})
		if c.Param("key") == "a" {
			assert.Nil(t, c.Param("text"), "shortcut chords insert no text")
		}
	}
	assert.Equal(t, []ev{
		{"rawKeyDown", "Control", 2},
		{"rawKeyDown", "Shift", 10},
		{"rawKeyDown", "a", 10},
		{"keyUp", "a", 10},
		{"keyUp", "Shift", 2},
		{"keyUp", "Control", 0},
	}, got)
}

func TestElement_PressNamedKey(t *testing.T) {
	doc, fb := documentElement(t)
	fb.Handle("Input.dispatchKeyEvent", testutil.Reply(struct{}{}))

	require.NoError(t, doc.Press(context.Background(), "Enter", KeyModifiers{}))
	down := fb.CallsTo("Input.dispatchKeyEvent")[0]
	assert.Equal(t, "keyDown", down.Param("type"))
	assert.Equal(t, "\r", down.Param("text"))
	assert.Equal(t, 13.0, down.Param("windowsVirtualKeyCode"))

	fb.Reset()
	require.NoError(t, doc.Press(context.Background(), "F5", KeyModifiers{}))
	down = fb.CallsTo("Input.dispatchKeyEvent")[0]
	assert.Equal(t, "rawKeyDown", down.Param("type"))
	assert.Equal(t, 116.0, down.Param("windowsVirtualKeyCode"))

	assert.Error(t, doc.Press(context.Background(), "Hyper", KeyModifiers{}))
}

func TestKeyModifiers_Bitmask(t *testing.T) {
	assert.Equal(t, 0, KeyModifiers{}.Bitmask())
	assert.Equal(t, 1, KeyModifiers{Alt: true}.Bitmask())
	assert.Equal(t, 2, KeyModifiers{Ctrl: true}.Bitmask())
	assert.Equal(t, 4, KeyModifiers{Meta: true}.Bitmask())
	assert.Equal(t, 8, KeyModifiers{Shift: true}.Bitmask())
	assert.Equal(t, 15, KeyModifiers{Alt: true, Ctrl: true, Meta: true, Shift: true}.Bitmask())
}

func TestLookupKey(t *testing.T) {
	def, err := lookupKey("7")
	require.NoError(t, err)
	assert.Equal(t, keyDefinition{code: "Digit7", keyCode: '7', text: "7"}, def)

	def, err = lookupKey(",")
	require.NoError(t, err)
	assert.Equal(t, 188, def.keyCode)

	def, err = lookupKey("é")
	require.NoError(t, err)
	assert.Equal(t, "é", def.text)
	assert.Zero(t, def.keyCode)

	_, err = lookupKey("ab")
	assert.Error(t, err)
}
