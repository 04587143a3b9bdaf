package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/starford/explode/internal/checksum"
	"github.com/starford/explode/internal/datetoken"
	"github.com/starford/explode/internal/docservice"
	"github.com/starford/explode/internal/session"
	"github.com/starford/explode/internal/sse"
	"github.com/starford/explode/internal/storage"
	"github.com/starford/explode/internal/testutil"
)

const (
	planProse = "## Plan\n\nShip it. Then rest."
	planList  = "- @ Plan\n\t- ~ Ship it.\n\t\t- Then rest."
	meeting   = "Call +{Meeting: 2024-03-01T09:30:00+02:00} soon."
)

// testEnv sets up a seeded vault, the services and the router.
func testEnv(t *testing.T, authToken string) (*storage.FS, http.Handler) {
	t.Helper()
	return testEnvFull(t, authToken != "", authToken, nil)
}

func testEnvFull(t *testing.T, authEnabled bool, authToken string, sseHandler http.Handler) (*storage.FS, http.Handler) {
	t.Helper()
	_, store := testutil.TestVault(t, map[string]string{
		"plan.md":       planProse,
		"notes/meet.md": meeting,
	})
	docs := docservice.NewService(store, testutil.Registry())
	sessions := session.NewManager(store, datetoken.NewDecorator(datetoken.Strict))
	return store, NewRouter(docs, sessions, authEnabled, authToken, sseHandler)
}

func do(t *testing.T, router http.Handler, method, target string, body any, header ...string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatal(err)
		}
	}
	req := httptest.NewRequest(method, target, &buf)
	for i := 0; i+1 < len(header); i += 2 {
		req.Header.Set(header[i], header[i+1])
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestListCommands(t *testing.T) {
	_, router := testEnv(t, "")
	w := do(t, router, http.MethodGet, "/commands", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	var resp CommandListResponse
	_ = json.Unmarshal(w.Body.Bytes(), &resp)
	if len(resp.Commands) != 5 || resp.Commands[3].ID != "explode" {
		t.Errorf("commands = %+v", resp.Commands)
	}
}

func TestTransform(t *testing.T) {
	_, router := testEnv(t, "")
	w := do(t, router, http.MethodPost, "/transform/explode", TransformRequest{Text: planProse})
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
	var resp TransformResponse
	_ = json.Unmarshal(w.Body.Bytes(), &resp)
	if resp.Content != planList || !resp.Changed {
		t.Errorf("resp = %+v", resp)
	}

	w = do(t, router, http.MethodPost, "/transform/implode", TransformRequest{File: "x.md", Text: planList})
	_ = json.Unmarshal(w.Body.Bytes(), &resp)
	if resp.Content != "## Plan\n\nShip it. Then rest.\n\n" {
		t.Errorf("implode = %q", resp.Content)
	}
}

func TestTransform_Errors(t *testing.T) {
	_, router := testEnv(t, "")
	if w := do(t, router, http.MethodPost, "/transform/shuffle", TransformRequest{Text: "x"}); w.Code != http.StatusNotFound {
		t.Errorf("unknown command = %d, want 404", w.Code)
	}
	req := httptest.NewRequest(http.MethodPost, "/transform/explode", bytes.NewBufferString("{"))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusBadRequest {
		t.Errorf("bad JSON = %d, want 400", w.Code)
	}
}

func TestDecorateDates(t *testing.T) {
	_, router := testEnv(t, "")
	w := do(t, router, http.MethodPost, "/dates", DecorateRequest{Text: meeting, LivePreview: true})
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	var resp struct {
		Annotations []struct {
			Kind    string `json:"kind"`
			From    int    `json:"from"`
			To      int    `json:"to"`
			Display *struct {
				Date string `json:"date"`
			} `json:"display"`
		} `json:"annotations"`
	}
	_ = json.Unmarshal(w.Body.Bytes(), &resp)
	if len(resp.Annotations) != 1 {
		t.Fatalf("annotations = %s", w.Body.String())
	}
	a := resp.Annotations[0]
	if a.Kind != "replace" || a.From != 5 || a.Display == nil || a.Display.Date != "2024-03-01" {
		t.Errorf("annotation = %+v", a)
	}
}

func TestListAndGetDocument(t *testing.T) {
	_, router := testEnv(t, "")

	w := do(t, router, http.MethodGet, "/documents", nil)
	var list DocumentListResponse
	_ = json.Unmarshal(w.Body.Bytes(), &list)
	if list.Total != 2 {
		t.Errorf("total = %d, want 2", list.Total)
	}

	w = do(t, router, http.MethodGet, "/documents/plan.md", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("get status = %d", w.Code)
	}
	var doc Document
	_ = json.Unmarshal(w.Body.Bytes(), &doc)
	if doc.Path != "plan.md" || doc.Exploded || doc.Body != planProse {
		t.Errorf("doc = %+v", doc)
	}
	if w.Header().Get("ETag") != `"`+checksum.Sum([]byte(planProse))+`"` {
		t.Errorf("etag = %q", w.Header().Get("ETag"))
	}

	if w := do(t, router, http.MethodGet, "/documents/notes%2Fmeet.md", nil); w.Code != http.StatusOK {
		t.Errorf("encoded path = %d", w.Code)
	}
	if w := do(t, router, http.MethodGet, "/documents/nope.md", nil); w.Code != http.StatusNotFound {
		t.Errorf("missing document = %d, want 404", w.Code)
	}
}

func TestApplyCommand(t *testing.T) {
	store, router := testEnv(t, "")

	w := do(t, router, http.MethodPost, "/documents/toggle/plan.md", nil,
		"If-Match", `"`+checksum.Sum([]byte(planProse))+`"`)
	if w.Code != http.StatusOK {
		t.Fatalf("apply status = %d, body = %s", w.Code, w.Body.String())
	}
	var tr Transform
	_ = json.Unmarshal(w.Body.Bytes(), &tr)
	if !tr.Written || tr.Content != planList {
		t.Errorf("transform = %+v", tr)
	}
	data, _ := store.Read("plan.md")
	if string(data) != planList {
		t.Errorf("file = %q", data)
	}

	// The checksum is stale now.
	w = do(t, router, http.MethodPost, "/documents/toggle/plan.md", nil,
		"If-Match", checksum.Sum([]byte(planProse)))
	if w.Code != http.StatusConflict {
		t.Errorf("stale apply = %d, want 409", w.Code)
	}

	if w := do(t, router, http.MethodPost, "/documents/toggle/nope.md", nil); w.Code != http.StatusNotFound {
		t.Errorf("missing document = %d, want 404", w.Code)
	}
}

func TestPreviewCommand(t *testing.T) {
	store, router := testEnv(t, "")
	w := do(t, router, http.MethodGet, "/preview/explode/plan.md", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	var tr Transform
	_ = json.Unmarshal(w.Body.Bytes(), &tr)
	if tr.Written || tr.Content != planList {
		t.Errorf("preview = %+v", tr)
	}
	data, _ := store.Read("plan.md")
	if string(data) != planProse {
		t.Error("preview wrote the file")
	}
}

func TestSessionLifecycle(t *testing.T) {
	_, router := testEnv(t, "")

	live := true
	w := do(t, router, http.MethodPost, "/sessions", OpenSessionRequest{Path: "notes/meet.md", LivePreview: &live})
	if w.Code != http.StatusCreated {
		t.Fatalf("open status = %d, body = %s", w.Code, w.Body.String())
	}
	var opened OpenSessionResponse
	_ = json.Unmarshal(w.Body.Bytes(), &opened)
	if opened.ID == "" || len(opened.Snapshot.Annotations) != 1 {
		t.Fatalf("opened = %s", w.Body.String())
	}
	base := "/sessions/" + opened.ID

	w = do(t, router, http.MethodPut, base+"/selection", SelectionRequest{Ranges: []datetoken.Span{{From: 6, To: 6}}})
	if w.Code != http.StatusNoContent {
		t.Fatalf("selection status = %d", w.Code)
	}
	w = do(t, router, http.MethodGet, base+"/annotations", nil)
	var snap session.Snapshot
	_ = json.Unmarshal(w.Body.Bytes(), &snap)
	if len(snap.Annotations) < 2 || snap.Annotations[0].Widget != nil {
		t.Errorf("expected marks after selecting the token: %s", w.Body.String())
	}

	for _, tc := range []struct {
		path string
		body any
	}{
		{"/viewport", datetoken.Span{From: 0, To: 10}},
		{"/mode", ModeRequest{LivePreview: false}},
		{"/pointer", PointerRequest{Down: true}},
	} {
		if w := do(t, router, http.MethodPut, base+tc.path, tc.body); w.Code != http.StatusNoContent {
			t.Errorf("PUT %s = %d", tc.path, w.Code)
		}
	}

	if w := do(t, router, http.MethodDelete, base, nil); w.Code != http.StatusNoContent {
		t.Errorf("close = %d", w.Code)
	}
	if w := do(t, router, http.MethodGet, base+"/annotations", nil); w.Code != http.StatusNotFound {
		t.Errorf("closed session = %d, want 404", w.Code)
	}
}

func TestOpenSession_Errors(t *testing.T) {
	_, router := testEnv(t, "")
	if w := do(t, router, http.MethodPost, "/sessions", OpenSessionRequest{}); w.Code != http.StatusBadRequest {
		t.Errorf("no path = %d, want 400", w.Code)
	}
	if w := do(t, router, http.MethodPost, "/sessions", OpenSessionRequest{Path: "nope.md"}); w.Code != http.StatusNotFound {
		t.Errorf("missing document = %d, want 404", w.Code)
	}
}

func TestAuthMiddleware(t *testing.T) {
	_, router := testEnv(t, "secret123")
	tests := []struct {
		name   string
		header []string
		want   int
	}{
		{"valid token", []string{"Authorization", "Bearer secret123"}, http.StatusOK},
		{"missing token", nil, http.StatusUnauthorized},
		{"wrong token", []string{"Authorization", "Bearer wrong"}, http.StatusUnauthorized},
		{"wrong scheme", []string{"Authorization", "Basic secret123"}, http.StatusUnauthorized},
	}
	for _, tt := range tests {
		if w := do(t, router, http.MethodGet, "/commands", nil, tt.header...); w.Code != tt.want {
			t.Errorf("%s = %d, want %d", tt.name, w.Code, tt.want)
		}
	}

	_, open := testEnv(t, "")
	if w := do(t, open, http.MethodGet, "/commands", nil); w.Code != http.StatusOK {
		t.Errorf("no auth = %d, want 200", w.Code)
	}
}

func TestSSEEvents_Auth(t *testing.T) {
	broker := sse.NewBroker(time.Second)
	t.Cleanup(broker.Close)
	_, router := testEnvFull(t, true, "tok", broker)

	if w := do(t, router, http.MethodGet, "/events", nil); w.Code != http.StatusUnauthorized {
		t.Errorf("SSE no auth = %d, want 401", w.Code)
	}

	// The handler streams until the request context ends.
	stream := func(target, authHeader string) int {
		ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
		defer cancel()
		req := httptest.NewRequest(http.MethodGet, target, nil).WithContext(ctx)
		if authHeader != "" {
			req.Header.Set("Authorization", authHeader)
		}
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		return w.Code
	}
	if code := stream("/events", "Bearer tok"); code != http.StatusOK {
		t.Errorf("SSE with valid token = %d, want 200", code)
	}
	if code := stream("/events?access_token=tok", ""); code != http.StatusOK {
		t.Errorf("SSE with query token = %d, want 200", code)
	}
	if code := stream("/events?access_token=nope", ""); code != http.StatusUnauthorized {
		t.Errorf("SSE with wrong query token = %d, want 401", code)
	}

	// Query tokens are only honoured for the event stream.
	if w := do(t, router, http.MethodGet, "/commands?access_token=tok", nil); w.Code != http.StatusUnauthorized {
		t.Errorf("query token on /commands = %d, want 401", w.Code)
	}
}
