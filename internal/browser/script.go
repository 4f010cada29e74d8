package browser

// captureScript runs before any page script on every document. It swallows
// clicks and remembers the last clicked element on window.ghostTester.
const captureScript = `(() => {
  if (window.ghostTester) return;
  window.ghostTester = { lastEl: null };
  document.addEventListener('click', (e) => {
    e.preventDefault();
    e.stopPropagation();
    window.ghostTester.lastEl = { element: e.target, time: Date.now() };
  }, true);
})();`

// fetchScript returns the last captured element's attributes and clears it
// in the same evaluation, so a click is never reported twice.
const fetchScript = `() => {
  const g = window.ghostTester;
  if (!g || !g.lastEl) return null;
  const el = g.lastEl.element;
  g.lastEl = null;
  return {
    id: el.id || '',
    text: (el.innerText || el.textContent || '').substring(0, 100).trim(),
    tag: (el.tagName || '').toLowerCase(),
    class: typeof el.className === 'string' ? el.className : '',
    type: el.type || ''
  };
}`

// readyScript reports whether the document finished loading and the capture
// hook is installed.
const readyScript = `() => document.readyState === 'complete' && !!window.ghostTester`
