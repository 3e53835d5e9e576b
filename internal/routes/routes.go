// Package routes classifies requests into authorization classes from a static
// (method, path) table.
package routes

import "strings"

// Class is the authorization class of a request.
type Class int

const (
	// Public requests need only a resolvable token.
	Public Class = iota
	// PatronRequired requests must be scoped to a patron; the card number is
	// attached when the token is authenticated.
	PatronRequired
	// PatronOptional requests attach the card number when available but do
	// not need one.
	PatronOptional
)

func (c Class) String() string {
	switch c {
	case PatronRequired:
		return "patron_required"
	case PatronOptional:
		return "patron_optional"
	default:
		return "public"
	}
}

// MatchPolicy selects how table entries are compared against request paths.
// Both policies have been deployed historically, so the choice is explicit
// configuration rather than an implementation detail.
type MatchPolicy int

const (
	// MatchPrefix matches an entry when the request path equals it or sits
	// below it, on segment boundaries. "/v1/user/loans" matches
	// "/v1/user/loans/123" but never "/v1/user/loansummary".
	MatchPrefix MatchPolicy = iota
	// MatchExact matches an entry only when the request path equals it,
	// ignoring a trailing slash on either side.
	MatchExact
)

// PolicyFromString maps the ROUTE_MATCH configuration value to a policy.
// Unknown values fall back to prefix matching.
func PolicyFromString(s string) MatchPolicy {
	if strings.EqualFold(s, "exact") {
		return MatchExact
	}
	return MatchPrefix
}

// Rule maps one (method, path) pair to a class.
type Rule struct {
	Method string
	Path   string
	Class  Class
}

// Table classifies requests. It is immutable after construction and safe for
// concurrent use.
type Table struct {
	rules  []Rule
	policy MatchPolicy
}

// NewTable builds a table with the given policy. Rules are evaluated in
// order; the first match wins.
func NewTable(policy MatchPolicy, rules []Rule) *Table {
	normalized := make([]Rule, len(rules))
	for i, r := range rules {
		r.Path = trimTrailingSlash(r.Path)
		normalized[i] = r
	}
	return &Table{rules: normalized, policy: policy}
}

// Default returns the table for the Publizon API surface: patron loans,
// reservations, checklist and card number lookups require patron scope, loan
// status allows it.
func Default(policy MatchPolicy) *Table {
	return NewTable(policy, []Rule{
		{Method: "GET", Path: "/v1/user/loans", Class: PatronRequired},
		{Method: "POST", Path: "/v1/user/loans/", Class: PatronRequired},
		{Method: "GET", Path: "/v1/user/reservations", Class: PatronRequired},
		{Method: "POST", Path: "/v1/user/reservations/", Class: PatronRequired},
		{Method: "PATCH", Path: "/v1/user/reservations/", Class: PatronRequired},
		{Method: "DELETE", Path: "/v1/user/reservations/", Class: PatronRequired},
		{Method: "GET", Path: "/v1/user/checklist", Class: PatronRequired},
		{Method: "POST", Path: "/v1/user/checklist/", Class: PatronRequired},
		{Method: "DELETE", Path: "/v1/user/checklist/", Class: PatronRequired},
		{Method: "GET", Path: "/v1/user/cardnumber/friendly", Class: PatronRequired},
		{Method: "GET", Path: "/v1/some/authenticated/path", Class: PatronRequired},
		{Method: "POST", Path: "/v1/some/authenticated/path", Class: PatronRequired},
		{Method: "GET", Path: "/v1/loanstatus/", Class: PatronOptional},
		{Method: "POST", Path: "/v1/loanstatus", Class: PatronOptional},
		{Method: "GET", Path: "/v1/some/optional/path/", Class: PatronOptional},
		{Method: "POST", Path: "/v1/some/optional/path", Class: PatronOptional},
	})
}

// Classify returns the authorization class for a request. Unmatched requests
// are Public.
func (t *Table) Classify(method, path string) Class {
	path = trimTrailingSlash(path)
	for _, r := range t.rules {
		if r.Method != method {
			continue
		}
		if t.matches(r.Path, path) {
			return r.Class
		}
	}
	return Public
}

func (t *Table) matches(rulePath, path string) bool {
	if path == rulePath {
		return true
	}
	if t.policy == MatchExact {
		return false
	}
	return strings.HasPrefix(path, rulePath+"/")
}

func trimTrailingSlash(p string) string {
	if len(p) > 1 && strings.HasSuffix(p, "/") {
		return strings.TrimRight(p, "/")
	}
	return p
}
