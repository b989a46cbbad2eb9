// Package domscript holds the page-side functions the backends evaluate
// against elements.
//
// Every script is an arrow function taking the element and at most one
// argument, the shape Playwright's Locator.Evaluate expects. Protocol
// backends bind the element to this and go through OnThis.
package domscript

const (
	// Text returns the trimmed text content, skipping descendants that match
	// the exclude selector. Exclusions are removed from a detached clone.
	Text = `(node, exclude) => {
	if (!exclude) {
		return (node.textContent || '').trim();
	}
	const clone = node.cloneNode(true);
	for (const el of Array.from(clone.querySelectorAll(exclude))) {
		el.remove();
	}
	return (clone.textContent || '').trim();
}`

	CSSValue = `(node, property) => window.getComputedStyle(node).getPropertyValue(property)`

	// Attribute returns null for a missing attribute.
	Attribute = `(node, name) => node.getAttribute(name)`

	Dimensions = `(node) => {
	const { x, y, width, height } = node.getBoundingClientRect();
	return { top: y, left: x, width, height };
}`

	Property = `(node, name) => node[name]`

	Matches = `(node, selector) => node.matches(selector)`

	IsFocused = `(node) => document.activeElement === node`

	Blur = `(node) => node.blur()`

	// SetValue assigns value in one step and fires input and change.
	SetValue = `(node, value) => {
	node.value = value;
	node.dispatchEvent(new Event('input', { bubbles: true }));
	node.dispatchEvent(new Event('change', { bubbles: true }));
}`

	// DispatchEvent fires a plain Event named name with data copied onto it.
	DispatchEvent = `(node, { name, data }) => {
	const event = document.createEvent('Event');
	event.initEvent(name, true, true);
	if (data) {
		Object.assign(event, data);
	}
	node.dispatchEvent(event);
}`

	QueryAll = `(node, selector) => Array.from(node.querySelectorAll(selector))`

	// Describe renders a short CSS-like label for log lines.
	Describe = `(node) => {
	let s = node.tagName ? node.tagName.toLowerCase() : node.nodeName;
	if (node.id) {
		s += '#' + node.id;
	}
	if (typeof node.className === 'string' && node.className.trim()) {
		s += '.' + node.className.trim().split(/\s+/).join('.');
	}
	return s;
}`

	// AnimationFrame resolves on the next animation frame of the element's
	// window.
	AnimationFrame = `(node) => new Promise((resolve) => (node.ownerDocument.defaultView || window).requestAnimationFrame(() => resolve()))`
)

// OnThis wraps script as a function declaration for
// Runtime.callFunctionOn, which binds the element to this.
func OnThis(script string) string {
	return "function(arg) { return (" + script + ")(this, arg); }"
}
