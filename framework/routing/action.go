package routing

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"reflect"

	"go.uber.org/zap"

	"github.com/km-arc/go-inject/framework/container"
	"github.com/km-arc/go-inject/framework/container/external"
	gohttp "github.com/km-arc/go-inject/framework/http"
)

// Controller exposes named actions. Each action is invoked through the
// injector: parameters named after route or query parameters receive them,
// "request" and "response" receive the wrappers, everything typed is
// resolved from the container.
//
//	func (c *UserController) Actions() map[string]*container.Callable {
//	    return map[string]*container.Callable{
//	        "show": container.Func(c.Show, container.Param("id"), container.Param("repo")),
//	    }
//	}
type Controller interface {
	Actions() map[string]*container.Callable
}

var errNoAction = errors.New("no such action")

var (
	requestKey  = container.Key[gohttp.Request]()
	responseKey = container.Key[gohttp.Response]()
	contextKey  = container.Key[context.Context]()
)

// Action routes method+pattern to the action of the controller bound under
// controllerID. The controller is resolved on every request: with Get when
// bound, otherwise built with Make from the type declared under controllerID.
//
// The action's result is rendered as {"data": result}; a nil result sends
// 204 unless the action already wrote the response.
func (r *Router) Action(method, pattern, controllerID, action string) {
	r.mux.Method(method, pattern, r.dispatch(controllerID, action))
}

// Controller routes the conventional REST actions the controller defines:
//
//	GET    /photos        → index
//	POST   /photos        → store
//	GET    /photos/{id}   → show
//	PUT    /photos/{id}   → update
//	PATCH  /photos/{id}   → update
//	DELETE /photos/{id}   → destroy
//
// Actions the controller does not define are not routed.
func (r *Router) Controller(pattern, controllerID string) error {
	ctrl, err := r.controller(r.c, controllerID)
	if err != nil {
		return err
	}
	actions := ctrl.Actions()
	routes := []struct{ method, pattern, action string }{
		{http.MethodGet, pattern, "index"},
		{http.MethodPost, pattern, "store"},
		{http.MethodGet, pattern + "/{id}", "show"},
		{http.MethodPut, pattern + "/{id}", "update"},
		{http.MethodPatch, pattern + "/{id}", "update"},
		{http.MethodDelete, pattern + "/{id}", "destroy"},
	}
	for _, rt := range routes {
		if _, ok := actions[rt.action]; ok {
			r.Action(rt.method, rt.pattern, controllerID, rt.action)
		}
	}
	return nil
}

func (r *Router) dispatch(controllerID, action string) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		request, response := gohttp.NewRequest(req), gohttp.NewResponse(w)
		scope := requestScope(r.c, request, response)

		result, err := r.invoke(scope, controllerID, action, request, response)
		if err != nil {
			r.log.Warn("action failed",
				zap.String("controller", controllerID),
				zap.String("action", action),
				zap.Error(err),
			)
			switch {
			case response.Written():
			case errors.Is(err, errNoAction):
				response.NotFound()
			default:
				response.Fail(err)
			}
			return
		}

		switch {
		case response.Written():
		case result == nil:
			response.NoContent()
		default:
			response.Success(result)
		}
	}
}

func (r *Router) invoke(scope container.Contract, controllerID, action string, request *gohttp.Request, response *gohttp.Response) (any, error) {
	ctrl, err := r.controller(scope, controllerID)
	if err != nil {
		return nil, err
	}
	fn, ok := ctrl.Actions()[action]
	if !ok || fn == nil {
		return nil, fmt.Errorf("%s.%s: %w", controllerID, action, errNoAction)
	}

	args := container.Args{}
	for k, v := range request.Params() {
		args[k] = v
	}
	args["request"] = request
	args["response"] = response
	return r.injector.Invoke(scope, fn, args)
}

type typeRegistry interface {
	DeclaredType(key string) (reflect.Type, bool)
}

func (r *Router) controller(scope container.Contract, id string) (Controller, error) {
	var (
		value any
		err   error
	)
	if scope.Has(id) {
		value, err = scope.Get(id)
	} else if reg, ok := r.c.(typeRegistry); ok {
		t, declared := reg.DeclaredType(id)
		if !declared {
			return nil, &container.DefinitionNotFoundError{ID: id}
		}
		value, err = r.injector.Make(scope, t, nil)
	} else {
		return nil, &container.DefinitionNotFoundError{ID: id}
	}
	if err != nil {
		return nil, err
	}

	ctrl, ok := value.(Controller)
	if !ok {
		return nil, &container.InvalidArgumentError{Target: id, Reason: fmt.Sprintf("%T is not a controller", value)}
	}
	return ctrl, nil
}

// requestScope layers the request, the response and the request context
// over c, so typed action parameters can ask for them.
func requestScope(c container.Contract, request *gohttp.Request, response *gohttp.Response) container.Contract {
	scoped := map[string]any{
		requestKey:  request,
		responseKey: response,
		contextKey:  request.Raw().Context(),
	}
	return external.NewProxy(c).
		SetHasCallback(func(id string, next func(string) bool) bool {
			_, ok := scoped[id]
			return ok || next(id)
		}).
		SetGetCallback(func(id string, next func(string) (any, error)) (any, error) {
			if v, ok := scoped[id]; ok {
				return v, nil
			}
			return next(id)
		})
}
