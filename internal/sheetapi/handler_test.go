package sheetapi

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	log "github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Makepad-fr/taskboard/internal/model"
	"github.com/Makepad-fr/taskboard/internal/remote"
	"github.com/Makepad-fr/taskboard/internal/store/taskstore"
)

var handlerNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func quietLogger() *log.Logger {
	l := log.New()
	l.SetOutput(io.Discard)
	return l
}

func newServer(t *testing.T, b Backend) *httptest.Server {
	t.Helper()
	e := echo.New()
	seq := 0
	NewHandler(b, quietLogger(),
		WithClock(func() time.Time { return handlerNow }),
		WithIDGenerator(func() model.ID { seq++; return model.ID("srv-" + string(rune('0'+seq))) }),
	).Register(e, "")
	srv := httptest.NewServer(e)
	t.Cleanup(srv.Close)
	return srv
}

type reply struct {
	Success bool         `json:"success"`
	Error   string       `json:"error"`
	Task    *model.Task  `json:"task"`
	Tasks   []model.Task `json:"tasks"`
}

func call(t *testing.T, srv *httptest.Server, params url.Values) (int, reply) {
	t.Helper()
	resp, err := http.Get(srv.URL + DefaultPath + "?" + params.Encode())
	require.NoError(t, err)
	defer resp.Body.Close()
	var r reply
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&r))
	return resp.StatusCode, r
}

func TestHandler_AddAppliesDefaults(t *testing.T) {
	b := NewMemoryBackend()
	srv := newServer(t, b)

	code, r := call(t, srv, url.Values{"action": {"add"}, "title": {"  Write docs "}, "assignee": {"mira"}})

	require.Equal(t, http.StatusOK, code)
	require.True(t, r.Success)
	require.NotNil(t, r.Task)
	assert.Equal(t, model.ID("srv-1"), r.Task.ID)
	assert.Equal(t, "Write docs", r.Task.Title)
	assert.Equal(t, model.PriorityMedium, r.Task.Priority)
	assert.Equal(t, model.StatusNew, r.Task.Status)
	assert.True(t, handlerNow.Equal(r.Task.CreatedAt.Time))

	stored, err := b.Get(context.Background(), "srv-1")
	require.NoError(t, err)
	assert.Equal(t, model.AssigneeMira, stored.Assignee)
}

func TestHandler_Rejections(t *testing.T) {
	srv := newServer(t, NewMemoryBackend(model.Task{ID: "t1", Title: "Seed", Status: model.StatusNew}))

	cases := []struct {
		name   string
		params url.Values
		code   int
	}{
		{"unknown action", url.Values{"action": {"purge"}}, http.StatusBadRequest},
		{"add without title", url.Values{"action": {"add"}, "title": {"  "}}, http.StatusBadRequest},
		{"add bad status", url.Values{"action": {"add"}, "title": {"x"}, "status": {"archived"}}, http.StatusBadRequest},
		{"update without id", url.Values{"action": {"update"}, "status": {"new"}}, http.StatusBadRequest},
		{"update blank title", url.Values{"action": {"update"}, "id": {"t1"}, "title": {""}}, http.StatusBadRequest},
		{"update unknown id", url.Values{"action": {"update"}, "id": {"zz"}, "status": {"new"}}, http.StatusNotFound},
		{"delete unknown id", url.Values{"action": {"delete"}, "id": {"zz"}}, http.StatusNotFound},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			code, r := call(t, srv, tc.params)
			assert.Equal(t, tc.code, code)
			assert.False(t, r.Success)
			assert.NotEmpty(t, r.Error)
		})
	}
}

func TestHandler_UpdateOnlyTouchesSentFields(t *testing.T) {
	seed := model.Task{ID: "t1", Title: "Seed", Description: "keep me", Priority: model.PriorityLow, Status: model.StatusNew}
	b := NewMemoryBackend(seed)
	srv := newServer(t, b)

	code, r := call(t, srv, url.Values{"action": {"update"}, "id": {"t1"}, "status": {"completed"}})

	require.Equal(t, http.StatusOK, code)
	assert.True(t, r.Success)
	got, err := b.Get(context.Background(), "t1")
	require.NoError(t, err)
	assert.Equal(t, model.StatusCompleted, got.Status)
	assert.Equal(t, "keep me", got.Description)
	assert.Equal(t, model.PriorityLow, got.Priority)
	assert.True(t, handlerNow.Equal(got.UpdatedAt.Time))
}

func TestHandler_ListEmptyHasTasksKey(t *testing.T) {
	srv := newServer(t, NewMemoryBackend())

	resp, err := http.Get(srv.URL + DefaultPath + "?action=list")
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	assert.JSONEq(t, `{"success":true,"tasks":[]}`, string(body))
}

// The real client and store against the dev endpoint.
func TestEndToEnd_StoreRoundTrip(t *testing.T) {
	for name, b := range backends(t) {
		t.Run(name, func(t *testing.T) {
			srv := newServer(t, b)
			client, err := remote.New(srv.URL + DefaultPath)
			require.NoError(t, err)
			store := taskstore.New(client)
			ctx := context.Background()

			require.NoError(t, store.Load(ctx))
			assert.Empty(t, store.Tasks())

			created, err := store.Create(ctx, model.Fields{Title: "Plan sprint", Assignee: model.AssigneeKaka})
			require.NoError(t, err)
			assert.False(t, created.Pending())
			require.Len(t, store.Tasks(), 1)

			require.NoError(t, store.Move(ctx, created.ID, model.StatusWorking))
			require.NoError(t, store.Load(ctx))
			got, ok := store.Get(created.ID)
			require.True(t, ok)
			assert.Equal(t, model.StatusWorking, got.Status)
			assert.Equal(t, model.PriorityMedium, got.Priority)

			require.NoError(t, store.Delete(ctx, created.ID))
			require.NoError(t, store.Load(ctx))
			assert.Empty(t, store.Tasks())

			err = store.Delete(ctx, created.ID)
			assert.ErrorIs(t, err, remote.ErrRemote)
			assert.Empty(t, store.Tasks(), "unknown id leaves nothing visible")
		})
	}
}

func TestEndToEnd_DeleteRollsBackWhenServerRefuses(t *testing.T) {
	b := NewMemoryBackend()
	srv := newServer(t, b)
	client, err := remote.New(srv.URL + DefaultPath)
	require.NoError(t, err)
	store := taskstore.New(client)
	ctx := context.Background()

	created, err := store.Create(ctx, model.Fields{Title: "Gone elsewhere"})
	require.NoError(t, err)
	require.NoError(t, b.Remove(ctx, created.ID))

	err = store.Delete(ctx, created.ID)

	require.ErrorIs(t, err, remote.ErrRemote)
	_, ok := store.Get(created.ID)
	assert.True(t, ok, "local delete restored after remote failure")
}
