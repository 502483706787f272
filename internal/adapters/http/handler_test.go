package httpadapter_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/PabloGalante/huddle/internal/adapters/calendar"
	"github.com/PabloGalante/huddle/internal/adapters/clock"
	httpadapter "github.com/PabloGalante/huddle/internal/adapters/http"
	"github.com/PabloGalante/huddle/internal/adapters/mail"
	"github.com/PabloGalante/huddle/internal/adapters/storage/memory"
	"github.com/PabloGalante/huddle/internal/app/agentflow"
	"github.com/PabloGalante/huddle/internal/app/history"
	"github.com/PabloGalante/huddle/internal/app/thread"
	"github.com/PabloGalante/huddle/internal/app/tools"
)

type testEnv struct {
	srv    http.Handler
	cal    *calendar.MemoryCalendar
	outbox *mail.Outbox
}

func newTestServer(t *testing.T) *testEnv {
	t.Helper()

	store := memory.NewThreadStore()
	audit := memory.NewAuditLog()
	cal := calendar.NewMemoryCalendar()
	outbox := mail.NewOutbox()
	clk := clock.NewFixed(time.Date(2026, 10, 19, 9, 0, 0, 0, time.UTC))

	agents := agentflow.NewDefaultOrchestrator(cal, clk, nil)
	threads := thread.NewService(store, audit, clk, agents, tools.NewDefaultToolbox(outbox, cal))
	hist := history.NewService(store, audit)

	return &testEnv{
		srv:    httpadapter.NewServer(threads, hist),
		cal:    cal,
		outbox: outbox,
	}
}

func (e *testEnv) do(t *testing.T, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()

	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, bytes.NewReader([]byte(body)))
	}
	w := httptest.NewRecorder()
	e.srv.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()

	var out T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), "body=%s", w.Body.String())
	return out
}

type threadBody struct {
	ID       string `json:"id"`
	Status   string `json:"status"`
	Proposal *struct {
		Summary  string `json:"summary"`
		Schedule *struct {
			Start string `json:"start"`
			End   string `json:"end"`
			Title string `json:"title"`
		} `json:"schedule"`
	} `json:"proposal"`
	ExecutedAt *time.Time `json:"executed_at"`
}

func (e *testEnv) createThread(t *testing.T) threadBody {
	t.Helper()

	w := e.do(t, http.MethodPost, "/threads",
		`{"user_id":"u1","kind":"schedule","prompt":"Sync on Q4","participants":[{"user_id":"u1"},{"user_id":"u2"}]}`)
	require.Equal(t, http.StatusCreated, w.Code, "body=%s", w.Body.String())
	return decode[threadBody](t, w)
}

func TestHealthz(t *testing.T) {
	env := newTestServer(t)

	w := env.do(t, http.MethodGet, "/healthz", "")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
}

func TestRequestIDIsEchoed(t *testing.T) {
	env := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set("X-Request-ID", "req-42")
	w := httptest.NewRecorder()
	env.srv.ServeHTTP(w, req)

	assert.Equal(t, "req-42", w.Header().Get("X-Request-ID"))
}

func TestThreadLifecycle(t *testing.T) {
	env := newTestServer(t)

	created := env.createThread(t)
	assert.Equal(t, "draft", created.Status)

	w := env.do(t, http.MethodPost, "/threads/"+created.ID+"/plan", `{"user_id":"u1"}`)
	require.Equal(t, http.StatusOK, w.Code, "body=%s", w.Body.String())
	plan := decode[struct {
		Thread    threadBody `json:"thread"`
		Reasoning string     `json:"reasoning"`
	}](t, w)
	assert.Equal(t, "proposed", plan.Thread.Status)
	require.NotNil(t, plan.Thread.Proposal)
	require.NotNil(t, plan.Thread.Proposal.Schedule)
	assert.Equal(t, "2026-10-19T09:00:00Z", plan.Thread.Proposal.Schedule.Start)
	assert.NotEmpty(t, plan.Reasoning)

	w = env.do(t, http.MethodPost, "/threads/"+created.ID+"/approve", `{"user_id":"u1"}`)
	require.Equal(t, http.StatusOK, w.Code, "body=%s", w.Body.String())
	done := decode[threadBody](t, w)
	assert.Equal(t, "done", done.Status)
	assert.NotNil(t, done.ExecutedAt)
	assert.Len(t, env.cal.Events(), 1)

	w = env.do(t, http.MethodGet, "/threads/"+created.ID+"/history?user_id=u2", "")
	require.Equal(t, http.StatusOK, w.Code)
	hist := decode[struct {
		Entries []struct {
			Action string `json:"action"`
		} `json:"entries"`
	}](t, w)
	require.Len(t, hist.Entries, 3)
	assert.Equal(t, "created", hist.Entries[0].Action)
	assert.Equal(t, "planning_complete", hist.Entries[1].Action)
	assert.Equal(t, "executed", hist.Entries[2].Action)
}

func TestGetAndListThreads(t *testing.T) {
	env := newTestServer(t)
	created := env.createThread(t)

	w := env.do(t, http.MethodGet, "/threads/"+created.ID+"?user_id=u2", "")
	assert.Equal(t, http.StatusOK, w.Code)

	w = env.do(t, http.MethodGet, "/threads/"+created.ID+"?user_id=stranger", "")
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = env.do(t, http.MethodGet, "/threads?user_id=u2", "")
	require.Equal(t, http.StatusOK, w.Code)
	list := decode[struct {
		Threads []threadBody `json:"threads"`
	}](t, w)
	require.Len(t, list.Threads, 1)
	assert.Equal(t, created.ID, list.Threads[0].ID)

	w = env.do(t, http.MethodGet, "/threads", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestErrorMapping(t *testing.T) {
	env := newTestServer(t)
	created := env.createThread(t)

	tests := []struct {
		name   string
		method string
		path   string
		body   string
		want   int
	}{
		{"unknown thread", http.MethodPost, "/threads/missing/plan", `{"user_id":"u1"}`, http.StatusNotFound},
		{"plan by non owner", http.MethodPost, "/threads/" + created.ID + "/plan", `{"user_id":"u2"}`, http.StatusForbidden},
		{"plan without user", http.MethodPost, "/threads/" + created.ID + "/plan", `{}`, http.StatusBadRequest},
		{"approve a draft", http.MethodPost, "/threads/" + created.ID + "/approve", `{"user_id":"u1"}`, http.StatusConflict},
		{"cancel by non owner", http.MethodPost, "/threads/" + created.ID + "/cancel", `{"user_id":"u2"}`, http.StatusForbidden},
		{"unknown kind", http.MethodPost, "/threads", `{"user_id":"u1","kind":"poll"}`, http.StatusBadRequest},
		{"broken json", http.MethodPost, "/threads", `{`, http.StatusBadRequest},
		{"missing user", http.MethodPost, "/threads/" + created.ID + "/cancel", `{}`, http.StatusBadRequest},
		{"wrong method", http.MethodDelete, "/threads/" + created.ID, "", http.StatusMethodNotAllowed},
		{"unknown action", http.MethodPost, "/threads/" + created.ID + "/archive", "", http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := env.do(t, tt.method, tt.path, tt.body)
			assert.Equal(t, tt.want, w.Code, "body=%s", w.Body.String())
		})
	}
}

func TestCancelThread(t *testing.T) {
	env := newTestServer(t)
	created := env.createThread(t)

	w := env.do(t, http.MethodPost, "/threads/"+created.ID+"/cancel", `{"user_id":"u1"}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "cancelled", decode[threadBody](t, w).Status)

	w = env.do(t, http.MethodPost, "/threads/"+created.ID+"/plan", `{"user_id":"u1"}`)
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestExecuteWithoutThread(t *testing.T) {
	env := newTestServer(t)

	body := `{"thread_id":"offline-1","user_id":"u1","proposal":{"summary":"Send recap",
		"email":{"recipients":["team@example.com"],"subject":"Recap","body_snippet":"Notes attached."}}}`

	w := env.do(t, http.MethodPost, "/executions", body)
	require.Equal(t, http.StatusOK, w.Code, "body=%s", w.Body.String())
	out := decode[threadBody](t, w)
	assert.Equal(t, "done", out.Status)
	assert.Len(t, env.outbox.Sent(), 1)

	w = env.do(t, http.MethodPost, "/executions", body)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Len(t, env.outbox.Sent(), 1)
}

func TestExecuteWithoutThreadRejectsBadTimes(t *testing.T) {
	env := newTestServer(t)

	w := env.do(t, http.MethodPost, "/executions",
		`{"thread_id":"offline-2","user_id":"u1","proposal":{"summary":"x",
		"schedule":{"start":"tomorrow","end":"2026-10-20T10:30:00Z","title":"Sync","participant_ids":["u1"]}}}`)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Empty(t, env.cal.Events())
}

func TestCORSPreflight(t *testing.T) {
	env := newTestServer(t)

	w := env.do(t, http.MethodOptions, "/threads", "")

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
}

func TestApproveEmailWithoutRecipients(t *testing.T) {
	env := newTestServer(t)

	w := env.do(t, http.MethodPost, "/threads",
		`{"user_id":"u1","kind":"email","prompt":"Share the Q4 numbers","participants":[{"user_id":"u1"},{"user_id":"u2"}]}`)
	require.Equal(t, http.StatusCreated, w.Code)
	created := decode[threadBody](t, w)

	w = env.do(t, http.MethodPost, "/threads/"+created.ID+"/plan", `{"user_id":"u1"}`)
	require.Equal(t, http.StatusOK, w.Code, "body=%s", w.Body.String())

	w = env.do(t, http.MethodPost, "/threads/"+created.ID+"/approve", `{"user_id":"u1"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Empty(t, env.outbox.Sent())

	w = env.do(t, http.MethodGet, "/threads/"+created.ID+"?user_id=u1", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "proposed", decode[threadBody](t, w).Status)
}
