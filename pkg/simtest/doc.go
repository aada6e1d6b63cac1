// Package simtest provides test helpers for exercising handlers through the
// simulator from Go tests.
//
// A Harness wraps one handler, builds requests fluently and records every
// exchange so tests can assert which requests reached the handler:
//
//	func TestUsers(t *testing.T) {
//		h := simtest.New(t, myHandler)
//
//		h.Request("POST", "http://localhost/users/{id}").
//			WithPathParam("id", 42).
//			WithJSON(map[string]any{"name": "nyarla"}).
//			Do().
//			AssertStatus(201).
//			AssertHeader("Content-Type", "application/json").
//			AssertJSONPath("$.name", "nyarla")
//
//		h.AssertCalledTimes(t, "POST", "/users/{id}", 1)
//	}
//
// Net/http handlers are wrapped with NewHTTP.
package simtest
