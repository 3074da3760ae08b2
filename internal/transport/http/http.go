// Package http implements the primary HTTP transport adapter (spec.md §6
// "HTTP adapter specifics"), grounded on the teacher's
// internal/delivery/server/http.Router (net/http.ServeMux with
// method-specific patterns, a dedicated health endpoint). Routing itself
// is entirely data-driven through the Application's bound TaskRegistry,
// so the mux carries one catch-all pattern rather than one static entry
// per declared route.
package http

import (
	"context"
	"encoding/json"
	"io"
	"mime"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"taskgrid/internal/apperrors"
	"taskgrid/internal/application"
	"taskgrid/internal/body"
	"taskgrid/internal/handler"
	"taskgrid/internal/logging"
	"taskgrid/internal/middleware"
	"taskgrid/internal/registry"
	"taskgrid/internal/task"
	"taskgrid/internal/taskcontext"
	"taskgrid/internal/taskid"
)

// Transport is the HTTP adapter. A narrow gorilla/websocket upgrade path
// at GET /ws serves as a fallback for streaming bodies behind proxies
// that buffer SSE (SPEC_FULL.md's domain stack); the primary streaming
// path is text/event-stream over the ordinary response writer.
type Transport struct {
	addr     string
	logger   *logging.Logger
	server   *http.Server
	upgrader websocket.Upgrader
}

// New builds a Transport listening on addr (e.g. ":8080").
func New(addr string) *Transport {
	return &Transport{
		addr:     addr,
		logger:   logging.NewComponentLogger("HTTPTransport"),
		upgrader: websocket.Upgrader{CheckOrigin: func(r *http.Request) bool { return true }},
	}
}

// Name identifies this transport in the Application's registry map.
func (t *Transport) Name() string { return "http" }

// Start binds the listener and blocks until ctx is cancelled or the
// server stops on its own (§6, SPEC_FULL.md "Health/readiness endpoint").
func (t *Transport) Start(ctx context.Context, app *application.Application) error {
	healthReg := registerHealthEntry(app, t.Name())

	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", t.handleHealth(healthReg))
	mux.HandleFunc("GET /ws", t.handleWebSocketFallback(app))
	mux.HandleFunc("/", t.handleTask(app))

	t.server = &http.Server{Addr: t.addr, Handler: mux}
	t.logger.Info("listening on %s", t.addr)

	errCh := make(chan error, 1)
	go func() { errCh <- t.server.ListenAndServe() }()

	select {
	case <-ctx.Done():
		return t.Stop(context.Background())
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	}
}

// Stop gracefully shuts the listener down, letting in-flight requests
// finish (§9 "Graceful shutdown").
func (t *Transport) Stop(ctx context.Context) error {
	if t.server == nil {
		return nil
	}
	return t.server.Shutdown(ctx)
}

// registerHealthEntry wires /healthz as an ordinary static TaskEntry in
// the transport's own registry (SPEC_FULL.md "Health/readiness
// endpoint"), grounded on the teacher's internal/server/app health-probe
// pattern. It returns the registry so handleHealth can look the entry up
// and run it through a chain carrying nothing but error-recovery above
// it, deliberately bypassing the application's own middleware stack.
func registerHealthEntry(app *application.Application, transportName string) *registry.Registry {
	reg := app.Registry(transportName)
	h := handler.New("healthz", func(ctx context.Context, tc *taskcontext.Context, args []any) (any, error) {
		return map[string]any{"status": "ok"}, nil
	}, nil)
	reg.AddHandler(taskid.New(taskid.GET, "/healthz"), h)
	return reg
}

// handleHealth dispatches /healthz through its TaskEntry with only the
// fixed error-handling layer above it, skipping the application-level
// middleware chain every other route runs through.
func (t *Transport) handleHealth(reg *registry.Registry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := taskid.New(taskid.GET, "/healthz")
		meta := task.Metadata{TraceID: uuid.NewString()}
		tk := task.New(id, meta, map[string]any{})
		result := task.NewResult(meta)
		tc := taskcontext.New(tk, result, t.logger)

		entry, err := reg.Lookup(id)
		if err != nil {
			t.logger.Error("healthz: %v", err)
			w.WriteHeader(http.StatusInternalServerError)
			return
		}

		chain := middleware.Chain{middleware.ErrorHandling(), entry}
		if err := chain.Run(r.Context(), tc); err != nil {
			t.logger.Error("healthz: %v", err)
		}
		t.writeResult(w, r, result)
	}
}

// handleTask implements §6's adapter contract: build a Task, call
// handle_task, serialize task_result.
func (t *Transport) handleTask(app *application.Application) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tk := t.buildTask(r)
		result := task.NewResult(tk.Metadata)

		if err := app.HandleTask(r.Context(), t.Name(), tk, result); err != nil {
			t.logger.Error("task %s failed: %v", tk.ID.DumpToStr(), err)
		}
		t.writeResult(w, r, result)
	}
}

// handleWebSocketFallback upgrades the connection and delivers the task's
// result as one text frame per chunk, used by clients behind
// SSE-unfriendly proxies.
func (t *Transport) handleWebSocketFallback(app *application.Application) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := t.upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.logger.Error("websocket upgrade failed: %v", err)
			return
		}
		defer conn.Close()

		tk := t.buildTask(r)
		result := task.NewResult(tk.Metadata)
		if err := app.HandleTask(r.Context(), t.Name(), tk, result); err != nil {
			t.logger.Error("task %s failed: %v", tk.ID.DumpToStr(), err)
		}

		b := result.GetBody()
		stream, ok := b.(body.Streaming)
		if !ok {
			payload, err := b.Bytes("utf-8")
			if err != nil {
				return
			}
			_ = conn.WriteMessage(websocket.TextMessage, payload)
			return
		}

		ctx := r.Context()
		for {
			chunk, done, err := stream.Next(ctx)
			if err != nil || done {
				if stream.Cleanup != nil {
					stream.Cleanup()
				}
				return
			}
			payload, err := chunk.Bytes("utf-8")
			if err != nil {
				return
			}
			if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				if stream.Cleanup != nil {
					stream.Cleanup()
				}
				return
			}
		}
	}
}

// buildTask maps one *http.Request into a *task.Task per §6's
// header/body/query/cookie contract. It never fails outright: malformed
// input is deferred to the lazy body parameter so the params-invalid
// exception surfaces through the ordinary handler-execution path instead
// of short-circuiting routing.
func (t *Transport) buildTask(r *http.Request) *task.Task {
	method := taskid.Method(r.Method)
	id := taskid.New(method, r.URL.Path)

	meta := task.Metadata{}
	if auth := r.Header.Get("Authorization"); auth != "" {
		scheme, cred, ok := strings.Cut(auth, " ")
		if !ok {
			scheme, cred = "", auth
		}
		meta.AuthScheme = scheme
		meta.AuthCredential = cred
	}
	meta.TraceID = r.Header.Get("X-Trace-Id")
	if meta.TraceID == "" {
		meta.TraceID = uuid.NewString()
	}
	meta.ClientID = r.Header.Get("X-Client-Id")

	if cookies := r.Cookies(); len(cookies) > 0 {
		jar := make(map[string]string, len(cookies))
		for _, c := range cookies {
			jar[c.Name] = c.Value
		}
		meta.Set("cookies", jar)
	}
	if accept := r.Header.Get("Accept"); accept != "" {
		meta.Set("accept", accept)
	}

	params := map[string]any{}
	for k, v := range parseQuery(r.URL.Query()) {
		params[k] = v
	}

	contentType := r.Header.Get("Content-Type")
	body := r.Body
	params["body"] = task.NewLazyValue(func(ctx context.Context) (any, error) {
		return parseBody(body, contentType)
	})

	return task.New(id, meta, params)
}

// parseQuery applies the shared primitive coercion to every query/form
// value, collapsing single-valued keys and keeping duplicates as a list
// (§6 "Query string: parsed with the same primitive coercion as form
// bodies").
func parseQuery(values url.Values) map[string]any {
	out := make(map[string]any, len(values))
	for k, vs := range values {
		out[k] = coerceMulti(vs)
	}
	return out
}

func coerceMulti(vs []string) any {
	if len(vs) == 1 {
		return coercePrimitive(vs[0])
	}
	out := make([]any, len(vs))
	for i, v := range vs {
		out[i] = coercePrimitive(v)
	}
	return out
}

// coercePrimitive implements §6's form/query coercion policy: digits to
// int, true/false to bool, empty to null, else left as string.
func coercePrimitive(s string) any {
	switch s {
	case "":
		return nil
	case "true":
		return true
	case "false":
		return false
	}
	if n, err := strconv.Atoi(s); err == nil {
		return n
	}
	return s
}

// parseBody implements §6's MIME-type parse policy.
func parseBody(r io.ReadCloser, contentType string) (any, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.KindParamsInvalid, err, "reading request body")
	}

	if contentType == "" {
		if len(raw) == 0 {
			return nil, nil
		}
		return nil, apperrors.New(apperrors.KindParamsInvalid, "missing content-type for non-empty body")
	}

	mimeType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.KindParamsInvalid, err, "invalid content-type")
	}

	switch mimeType {
	case "application/json":
		if len(raw) == 0 {
			return nil, nil
		}
		var v any
		if err := json.Unmarshal(raw, &v); err != nil {
			return nil, apperrors.Wrap(apperrors.KindParamsInvalid, err, "invalid json body")
		}
		return v, nil
	case "application/x-www-form-urlencoded":
		values, err := url.ParseQuery(string(raw))
		if err != nil {
			return nil, apperrors.Wrap(apperrors.KindParamsInvalid, err, "invalid form body")
		}
		return parseQuery(values), nil
	case "text/plain":
		return string(raw), nil
	case "application/octet-stream":
		return raw, nil
	default:
		return nil, apperrors.Newf(apperrors.KindParamsInvalid, "unsupported content-type %q", mimeType)
	}
}

// writeResult serializes task_result per §6's response-mapping rules.
func (t *Transport) writeResult(w http.ResponseWriter, r *http.Request, result *task.TaskResult) {
	status := int(result.GetStatus())

	switch b := result.GetBody().(type) {
	case body.Empty:
		w.WriteHeader(status)
	case body.Json:
		payload, err := b.Bytes("utf-8")
		if err != nil {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.WriteHeader(status)
		_, _ = w.Write(payload)
	case body.Streaming:
		t.writeStream(w, r, status, b)
	default:
		w.WriteHeader(status)
	}
}

// writeStream drives a Streaming body's generator directly, sending one
// HTTP response chunk per yielded sub-body and terminating on the empty
// final chunk (§6 "Streaming").
func (t *Transport) writeStream(w http.ResponseWriter, r *http.Request, status int, s body.Streaming) {
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("Cache-Control", "no-cache")
	w.WriteHeader(status)

	flusher, _ := w.(http.Flusher)
	ctx := r.Context()
	for {
		chunk, done, err := s.Next(ctx)
		if err != nil {
			t.logger.Error("stream chunk error: %v", err)
			if s.Cleanup != nil {
				s.Cleanup()
			}
			return
		}
		if done {
			return
		}
		payload, err := chunk.Bytes("utf-8")
		if err != nil {
			t.logger.Error("stream chunk serialize error: %v", err)
			return
		}
		if _, err := w.Write(payload); err != nil {
			if s.Cleanup != nil {
				s.Cleanup()
			}
			return
		}
		if flusher != nil {
			flusher.Flush()
		}
		select {
		case <-ctx.Done():
			if s.Cleanup != nil {
				s.Cleanup()
			}
			return
		default:
		}
	}
}
