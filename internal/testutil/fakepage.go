package testutil

import "strings"

// DOMNode is a node of the document a FakeBrowser returns from
// DOM.getDocument. Children are sent in full, so every node is known to the
// client without further DOM.setChildNodes events.
type DOMNode struct {
	NodeID        int64      `json:"nodeId"`
	ParentID      int64      `json:"parentId,omitempty"`
	BackendNodeID int64      `json:"backendNodeId"`
	NodeType      int        `json:"nodeType"`
	NodeName      string     `json:"nodeName"`
	LocalName     string     `json:"localName"`
	NodeValue     string     `json:"nodeValue"`
	FrameID       string     `json:"frameId,omitempty"`
	Attributes    []string   `json:"attributes,omitempty"`
	Children      []*DOMNode `json:"children,omitempty"`
}

// Element returns an element node with id and the given children, which
// get their ParentID set.
func Element(id int64, name string, children ...*DOMNode) *DOMNode {
	n := &DOMNode{
		NodeID:        id,
		BackendNodeID: id,
		NodeType:      1,
		NodeName:      strings.ToUpper(name),
		LocalName:     name,
	}
	n.adopt(children)
	return n
}

// Document returns a document node for frameID holding root.
func Document(id int64, frameID string, root *DOMNode) *DOMNode {
	n := &DOMNode{
		NodeID:        id,
		BackendNodeID: id,
		NodeType:      9,
		NodeName:      "#document",
		FrameID:       frameID,
	}
	n.adopt([]*DOMNode{root})
	return n
}

func (n *DOMNode) adopt(children []*DOMNode) {
	for _, c := range children {
		c.ParentID = n.NodeID
	}
	n.Children = children
}

// ServePage scripts the commands a chromedp client sends when it attaches
// to the page targetID: domain setup, a default execution context for the
// main frame announced on Runtime.enable, the frame tree and document.
// Handlers installed afterwards take precedence.
func (fb *FakeBrowser) ServePage(targetID string, document *DOMNode) {
	for _, method := range []string{
		"Log.enable", "Network.enable", "Inspector.enable", "CSS.enable",
		"Target.setDiscoverTargets", "Target.setAutoAttach",
		"Page.setLifecycleEventsEnabled", "Runtime.releaseObject",
	} {
		fb.Handle(method, Reply(struct{}{}))
	}

	fb.Handle("Runtime.enable", func(c Call) (interface{}, error) {
		err := fb.Emit(c.SessionID, "Runtime.executionContextCreated", map[string]interface{}{
			"context": map[string]interface{}{
				"id":       1,
				"origin":   "",
				"name":     "",
				"uniqueId": "ctx-" + targetID,
				"auxData": map[string]interface{}{
					"frameId":   targetID,
					"isDefault": true,
					"type":      "default",
				},
			},
		})
		return struct{}{}, err
	})
	fb.Handle("Runtime.evaluate", Reply(map[string]interface{}{
		"result": map[string]interface{}{"type": "object", "className": "Window"},
	}))
	fb.Handle("Page.getFrameTree", Reply(map[string]interface{}{
		"frameTree": map[string]interface{}{
			"frame": map[string]interface{}{
				"id":             targetID,
				"loaderId":       "L-" + targetID,
				"url":            "about:blank",
				"securityOrigin": "://",
				"mimeType":       "text/html",
			},
		},
	}))
	fb.Handle("DOM.getDocument", Reply(map[string]interface{}{"root": document}))
}
