// Package input intercepts text typed into the editor before it reaches
// the document.
//
// A Handler runs every insert through a chain of prioritized hooks, then
// decides between three outcomes:
//
//   - a markdown mark typed over a selection wraps the selection
//     (see package wrap) and nothing else happens;
//   - any other insert may schedule or cancel a completion request
//     (see package completion) before the text is inserted normally;
//   - a hook may consume the insert entirely.
//
// Pointer handling lives in package pointer and word segmentation for
// CJK-style scripts in package tokenizer.
package input
