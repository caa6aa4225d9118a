// Package http provides the request and response wrappers handed to web
// actions.
//
// # Request
//
//	req := gohttp.NewRequest(r)
//
//	var payload struct {
//	    Name string `json:"name"`
//	}
//	if err := req.Bind(&payload); err != nil { ... }
//
//	name   := req.Input("name", "default")
//	page   := req.Query("page", "1")
//	id     := req.RouteParam("id")
//	params := req.Params()      // query + route params, used as action arguments
//
//	if err := req.Validate(validation.Rules{"id": "required|integer"}); err != nil {
//	    return nil, err         // rendered as 422
//	}
//
// # Response
//
//	res := gohttp.NewResponse(w)
//	res.Success(data)           // 200 {"data": ...}
//	res.Created(data)           // 201 {"data": ...}
//	res.NoContent()             // 204
//	res.NotFound()              // 404 {"message": "Not found."}
//	res.Fail(err)               // 422, 400 or 500 depending on err
package http
