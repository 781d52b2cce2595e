// Package guard decides, for every page navigation, whether the page renders,
// a loading placeholder is shown, the browser is sent to the login page or
// the destination does not exist.
//
// The decision itself is made by Machine, a pure function of the navigation
// input. Guard is the fiber middleware that gathers that input: it classifies
// the path, reads the browser session's identity and, when the identity is
// unknown, resolves it through the backend. Resolutions are deduplicated per
// browser session and their settled outcome is remembered for a short time, so
// reloading a page does not hit the backend again.
//
// When a resolution takes longer than the configured wait, the guard answers
// with a self refreshing loading page while the resolution continues in the
// background.
package guard
