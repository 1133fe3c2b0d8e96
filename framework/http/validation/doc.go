// Package validation checks request input against pipe-separated rules.
//
// # Usage
//
// Flat maps, e.g. query strings:
//
//	v := validation.Make(map[string]string{"skip": "0", "limit": "50"},
//	    validation.Rules{"skip": "sometimes|integer", "limit": "sometimes|integer"})
//	if v.Fails() { ... v.Errors() ... }
//
// Request schemas, through `validate` struct tags:
//
//	type UserCreate struct {
//	    Name     string `json:"name"     validate:"required|max:255"`
//	    Email    string `json:"email"    validate:"required|email"`
//	    Password string `json:"password" validate:"required|min:8"`
//	}
//	if errs := validation.Struct(in); errs.Has() { ... }
//
// # Rules
//
//   - required, sometimes (alias nullable): presence
//   - string, integer, numeric, boolean: type
//   - email, url, alpha, alpha_num, alpha_dash, regex:pattern: format
//   - min:n, max:n: UTF-8 length
//   - in:a,b,c, confirmed, same:other: comparison
//
// Fields are checked in name order and each field stops at its first failure.
//
// # Error Bag
//
//	{
//	  "errors": {
//	    "email": ["The email must be a valid email address."]
//	  }
//	}
package validation
