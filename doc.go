// Package main provides the entry point for the MealDesk web front end.
// It runs a Fiber web server that renders the MealDesk pages and gates every
// navigation through a session guard which resolves the signed-in user
// against the MealDesk backend API, silently refreshing the session once
// before sending the visitor to the login page.
package main
