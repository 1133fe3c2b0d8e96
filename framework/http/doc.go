// Package http holds the request binding and response envelope helpers
// shared by controllers and middlewares.
//
//	req := gohttp.NewRequest(r)
//	var in schemas.UserCreate
//	if err := req.Validate(&in); err != nil { ... }
//	skip := req.QueryInt("skip", 0)
//
//	res := gohttp.NewResponse(w)
//	res.Success(users, "Users retrieved successfully.", http.StatusOK)
//	res.Error("Hello, welcome to the API!", http.StatusBadRequest)
//	res.ValidationError(errs) // 422, bag in data
//
// Every controller body is an Envelope:
//
//	{"status_code": 200, "success": true, "status": "success", "message": "...", "data": ...}
//
// Middlewares that reject a request before any controller runs answer with
// WriteError's {"message": "..."}.
package http
