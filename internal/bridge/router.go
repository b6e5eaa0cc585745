package bridge

import (
	"context"
	"fmt"

	"github.com/simforge/simbridge/internal/httpwire"
)

type handlerFunc func(ctx context.Context, req *httpwire.Request) result

type route struct {
	method string
	handle handlerFunc
}

// router maps (method, normalized path) pairs to handlers. Each path supports
// exactly one method.
type router struct {
	routes map[string]route
	paths  []string
}

func newRouter() *router {
	return &router{routes: make(map[string]route)}
}

func (rt *router) add(method, path string, h handlerFunc) {
	if _, dup := rt.routes[path]; dup {
		panic(fmt.Sprintf("route %s registered twice", path))
	}
	rt.routes[path] = route{method: method, handle: h}
	rt.paths = append(rt.paths, path)
}

// endpoints lists every registered "METHOD /path" in registration order.
func (rt *router) endpoints() []string {
	out := make([]string, 0, len(rt.paths))
	for _, p := range rt.paths {
		out = append(out, rt.routes[p].method+" "+p)
	}
	return out
}

// dispatch routes one request. OPTIONS is answered before any path or method
// matching so cross-origin preflight always succeeds.
func (rt *router) dispatch(ctx context.Context, req *httpwire.Request) result {
	if req.Method == "OPTIONS" {
		return result{status: 200}
	}

	r, ok := rt.routes[req.Path]
	if !ok {
		return result{
			status: 404,
			payload: notFoundResponse{
				Success:        false,
				Error:          "NotFound",
				Message:        fmt.Sprintf("Unknown endpoint '%s'.", req.Path),
				Path:           req.Path,
				ValidEndpoints: rt.endpoints(),
			},
		}
	}
	if req.Method != r.method {
		return result{
			status: 405,
			payload: errorResponse{
				Success: false,
				Error:   "MethodNotAllowed",
				Message: fmt.Sprintf("Method %s is not supported on %s, use %s.", req.Method, req.Path, r.method),
			},
			header: map[string]string{"Allow": r.method},
		}
	}
	return r.handle(ctx, req)
}
