package router

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/plumego/plume/pkg/common"
)

func newTestRouter() *Router {
	return New(RouterConfig{Logger: zap.NewNop()})
}

func process(r *Router, method, path string) *common.Response {
	return r.Process(context.Background(), common.NewRequest(method, path))
}

func TestOnionOrder(t *testing.T) {
	r := newTestRouter()

	var order []string
	tag := func(name string) common.Middleware {
		return func(c *common.Context, next common.Next) error {
			order = append(order, name+"-before")
			if err := next(); err != nil {
				return err
			}
			order = append(order, name+"-after")
			return nil
		}
	}

	_, err := r.Get("/onion", func(c *common.Context) error {
		order = append(order, "handler")
		return c.Text(200, "ok")
	}, tag("first"), tag("second"))
	if err != nil {
		t.Fatal(err)
	}

	res := process(r, "GET", "/onion")
	if res.Status() != 200 {
		t.Fatalf("Expected status 200, got %d", res.Status())
	}

	// First-registered middleware is the outermost layer.
	expected := []string{
		"first-before",
		"second-before",
		"handler",
		"second-after",
		"first-after",
	}
	if len(order) != len(expected) {
		t.Fatalf("Expected %d steps, got %d: %v", len(expected), len(order), order)
	}
	for i, v := range expected {
		if order[i] != v {
			t.Errorf("Expected step %d to be %q, got %q", i, v, order[i])
		}
	}
}

func TestPostLogicObservesCommittedResponse(t *testing.T) {
	r := newTestRouter()

	var committedAfterNext bool
	observer := func(c *common.Context, next common.Next) error {
		if err := next(); err != nil {
			return err
		}
		committedAfterNext = c.Response().Committed()
		return nil
	}

	_, _ = r.Get("/x", func(c *common.Context) error {
		return c.Text(200, "done")
	}, observer)

	process(r, "GET", "/x")
	if !committedAfterNext {
		t.Error("Expected the response to be committed by the time next() returns")
	}
}

func TestShortCircuitSkipsInnerLayersButNotOuterPostLogic(t *testing.T) {
	var loggedStatus int
	var loggedCommitted bool
	logger := func(c *common.Context, next common.Next) error {
		if err := next(); err != nil {
			return err
		}
		loggedStatus = c.Response().Status()
		loggedCommitted = c.Response().Committed()
		return nil
	}

	guard := func(c *common.Context, next common.Next) error {
		if c.Request().Header.Get("Authorization") == "" {
			return c.Text(http.StatusUnauthorized, "Unauthorized")
		}
		return next()
	}

	// Logger is global (outermost), the auth guard is scoped to /admin/*.
	r := New(RouterConfig{Logger: zap.NewNop(), Middlewares: []common.Middleware{logger}})
	if err := r.Use("/admin/*", guard); err != nil {
		t.Fatal(err)
	}

	handlerRan := false
	_, _ = r.Get("/admin/:page", func(c *common.Context) error {
		handlerRan = true
		return c.Text(200, "secret")
	})

	res := r.Process(context.Background(), common.NewRequest("GET", "/admin/secret"))

	if handlerRan {
		t.Error("Expected the wrapped handler to never run without credentials")
	}
	if res.Status() != http.StatusUnauthorized {
		t.Errorf("Expected status 401, got %d", res.Status())
	}
	if loggedStatus != http.StatusUnauthorized {
		t.Errorf("Expected the outer logger to record the short-circuited 401, got %d", loggedStatus)
	}
	if !loggedCommitted {
		t.Error("Expected the outer logger to observe a committed response")
	}
}

func TestDoubleNextDetected(t *testing.T) {
	r := newTestRouter()

	var second error
	offender := func(c *common.Context, next common.Next) error {
		if err := next(); err != nil {
			return err
		}
		second = next()
		return second
	}

	handlerRuns := 0
	_, _ = r.Get("/twice", func(c *common.Context) error {
		handlerRuns++
		return c.Text(200, "ok")
	}, offender)

	res := process(r, "GET", "/twice")

	if !errors.Is(second, common.ErrDoubleNext) {
		t.Errorf("Expected ErrDoubleNext from the second invocation, got %v", second)
	}
	if handlerRuns != 1 {
		t.Errorf("Expected the inner chain to run exactly once, got %d", handlerRuns)
	}
	// The offending middleware propagated the error, so the request fails.
	if res.Status() != http.StatusInternalServerError {
		t.Errorf("Expected status 500, got %d", res.Status())
	}
}

func TestDoubleNextDetectedForAllChainLengths(t *testing.T) {
	for chainLen := 1; chainLen <= 4; chainLen++ {
		r := newTestRouter()

		var detected error
		mws := make([]common.Middleware, 0, chainLen)
		// The innermost middleware is the offender; the rest just delegate.
		for i := 0; i < chainLen-1; i++ {
			mws = append(mws, func(c *common.Context, next common.Next) error {
				return next()
			})
		}
		mws = append(mws, func(c *common.Context, next common.Next) error {
			if err := next(); err != nil {
				return err
			}
			detected = next()
			return nil
		})

		_, _ = r.Get("/n", func(c *common.Context) error {
			return c.Text(200, "ok")
		}, mws...)

		process(r, "GET", "/n")
		if !errors.Is(detected, common.ErrDoubleNext) {
			t.Errorf("chain length %d: expected ErrDoubleNext, got %v", chainLen, detected)
		}
	}
}

func TestHandlerErrorConvertedToGeneric500(t *testing.T) {
	r := newTestRouter()

	_, _ = r.Get("/boom", func(c *common.Context) error {
		return errors.New("database exploded: credentials=hunter2")
	})

	res := process(r, "GET", "/boom")
	if res.Status() != http.StatusInternalServerError {
		t.Errorf("Expected status 500, got %d", res.Status())
	}
	if strings.Contains(string(res.Body()), "hunter2") {
		t.Error("Expected no internal detail to leak into the response body")
	}
	if !res.Committed() {
		t.Error("Expected the converted response to be committed")
	}
}

func TestHandlerErrorVerboseInDevelopment(t *testing.T) {
	r := New(RouterConfig{Logger: zap.NewNop(), Development: true})

	_, _ = r.Get("/boom", func(c *common.Context) error {
		return errors.New("exact failure detail")
	})

	res := process(r, "GET", "/boom")
	if !strings.Contains(string(res.Body()), "exact failure detail") {
		t.Errorf("Expected development mode to surface the failure detail, got %q", res.Body())
	}
}

func TestHTTPErrorKeepsStatusAndMessage(t *testing.T) {
	r := newTestRouter()

	_, _ = r.Get("/teapot", func(c *common.Context) error {
		return NewHTTPError(http.StatusTeapot, "short and stout")
	})

	res := process(r, "GET", "/teapot")
	if res.Status() != http.StatusTeapot {
		t.Errorf("Expected status 418, got %d", res.Status())
	}
	if string(res.Body()) != "short and stout" {
		t.Errorf("Expected the HTTPError message as body, got %q", res.Body())
	}
}

func TestPanicConvertedToResponse(t *testing.T) {
	r := newTestRouter()

	_, _ = r.Get("/panic", func(c *common.Context) error {
		panic("unexpected nil")
	})

	res := process(r, "GET", "/panic")
	if res.Status() != http.StatusInternalServerError {
		t.Errorf("Expected status 500, got %d", res.Status())
	}
	if strings.Contains(string(res.Body()), "unexpected nil") {
		t.Error("Expected panic detail to stay out of the production response")
	}
}

func TestOuterPostLogicObservesConvertedResponse(t *testing.T) {
	r := newTestRouter()

	var observedStatus int
	var observedErr error
	outer := func(c *common.Context, next common.Next) error {
		observedErr = next()
		observedStatus = c.Response().Status()
		return observedErr
	}

	_, _ = r.Get("/fail", func(c *common.Context) error {
		return errors.New("inner failure")
	}, outer)

	process(r, "GET", "/fail")

	// The failure was converted before unwinding resumed: the outer layer
	// sees a clean continuation return and the converted response.
	if observedErr != nil {
		t.Errorf("Expected the outer layer to observe no raw failure, got %v", observedErr)
	}
	if observedStatus != http.StatusInternalServerError {
		t.Errorf("Expected the outer layer to observe the converted 500, got %d", observedStatus)
	}
}

func TestCustomErrorHandler(t *testing.T) {
	r := newTestRouter()
	r.OnError(func(c *common.Context, err error) {
		c.Response().OverwriteHeader("Content-Type", "application/json")
		c.Response().Overwrite(http.StatusBadGateway, []byte(`{"error":"upstream"}`))
	})

	_, _ = r.Get("/fail", func(c *common.Context) error {
		return errors.New("anything")
	})

	res := process(r, "GET", "/fail")
	if res.Status() != http.StatusBadGateway {
		t.Errorf("Expected the custom error handler's 502, got %d", res.Status())
	}
	if string(res.Body()) != `{"error":"upstream"}` {
		t.Errorf("Expected the custom error body, got %q", res.Body())
	}
}

func TestPanickingErrorHandlerFallsBack(t *testing.T) {
	r := newTestRouter()
	r.OnError(func(c *common.Context, err error) {
		panic("handler of last resort misbehaves")
	})

	_, _ = r.Get("/fail", func(c *common.Context) error {
		return errors.New("anything")
	})

	res := process(r, "GET", "/fail")
	if res.Status() != http.StatusInternalServerError {
		t.Errorf("Expected fallback 500, got %d", res.Status())
	}
	if !res.Committed() {
		t.Error("Expected a committed response even when the error handler panics")
	}
}

func TestPostLogicHeaderMutationDropped(t *testing.T) {
	r := newTestRouter()

	late := func(c *common.Context, next common.Next) error {
		if err := next(); err != nil {
			return err
		}
		// The response is committed by now; this write must not reach it.
		c.Response().Header().Set("X-Late", "leaked")
		return nil
	}

	_, _ = r.Get("/x", func(c *common.Context) error {
		c.Response().Header().Set("X-Early", "kept")
		return c.Text(200, "ok")
	}, late)

	res := process(r, "GET", "/x")
	if got := res.Header().Get("X-Late"); got != "" {
		t.Errorf("Expected the post-commit header write to be dropped, got %q", got)
	}
	if got := res.Header().Get("X-Early"); got != "kept" {
		t.Errorf("Expected the handler's header to survive, got %q", got)
	}
}

func TestStoreVisibilityAcrossLayers(t *testing.T) {
	r := newTestRouter()

	var sawInner, sawOuter string
	outer := func(c *common.Context, next common.Next) error {
		c.Set("shared", "from-outer")
		if err := next(); err != nil {
			return err
		}
		sawOuter = c.GetString("shared")
		return nil
	}

	_, _ = r.Get("/store", func(c *common.Context) error {
		sawInner = c.GetString("shared")
		c.Set("shared", "from-handler")
		return c.Text(200, "ok")
	}, outer)

	process(r, "GET", "/store")

	if sawInner != "from-outer" {
		t.Errorf("Expected the handler to see the outer layer's value, got %q", sawInner)
	}
	if sawOuter != "from-handler" {
		t.Errorf("Expected the outer post-logic to see the handler's value, got %q", sawOuter)
	}
}
