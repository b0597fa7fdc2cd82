package sink

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oksasatya/attendance-ledger/internal/domain/entity"
	"github.com/oksasatya/attendance-ledger/internal/domain/event"
	"github.com/oksasatya/attendance-ledger/pkg/helpers"
)

type fakeES struct {
	mu    sync.Mutex
	paths []string
	docs  []map[string]any
}

func (f *fakeES) server(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		var doc map[string]any
		_ = json.Unmarshal(b, &doc)
		f.mu.Lock()
		f.paths = append(f.paths, r.Method+" "+r.URL.Path)
		f.docs = append(f.docs, doc)
		f.mu.Unlock()
		w.Header().Set("X-Elastic-Product", "Elasticsearch")
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"result":"created"}`))
	}))
	t.Cleanup(srv.Close)
	return srv
}

type memObjects struct {
	objects map[string]string
	err     error
}

func (m *memObjects) Put(_ context.Context, objectPath, _ string, r io.Reader) (string, error) {
	if m.err != nil {
		return "", m.err
	}
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, r); err != nil {
		return "", err
	}
	if m.objects == nil {
		m.objects = map[string]string{}
	}
	m.objects[objectPath] = buf.String()
	return "mem://" + objectPath, nil
}

func newSink(t *testing.T) (*Sink, *fakeES, *memObjects) {
	t.Helper()
	es := &fakeES{}
	srv := es.server(t)
	client, err := helpers.NewESClient([]string{srv.URL}, "", "")
	require.NoError(t, err)
	objs := &memObjects{}
	return &Sink{ES: client, UsersIndex: "ledger-users", AttendanceIndex: "ledger-attendance", Objects: objs}, es, objs
}

var at = time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)

func TestHandle_UserCreatedIsIndexedByUserID(t *testing.T) {
	s, es, _ := newSink(t)
	u := entity.NewUser("u1", "Alice", []string{"eng"})
	u.CreatedAt = at

	body, err := json.Marshal(event.NewUserCreated(u, at))
	require.NoError(t, err)
	require.NoError(t, s.HandleMessage(context.Background(), body))

	require.Equal(t, []string{"PUT /ledger-users/_doc/u1"}, es.paths)
	assert.Equal(t, "Alice", es.docs[0]["name"])
	assert.Equal(t, []any{"eng"}, es.docs[0]["tags"])
}

func TestHandle_AttendanceIndexedPerRecord(t *testing.T) {
	s, es, _ := newSink(t)
	ev := event.NewAttendanceMarked([]entity.Attendance{
		{AttendanceID: 7, UserID: "u1", Timestamp: at},
		{AttendanceID: 8, UserID: "u2", Timestamp: at.Add(time.Hour)},
	}, at)

	require.NoError(t, s.Handle(context.Background(), ev))
	assert.Equal(t, []string{
		"PUT /ledger-attendance/_doc/7",
		"PUT /ledger-attendance/_doc/8",
	}, es.paths)
	assert.Equal(t, "2024-01-01T10:00:00Z", es.docs[1]["timestamp"])
}

func TestHandle_TemplateArchivedVerbatim(t *testing.T) {
	s, es, objs := newSink(t)
	tpl := &entity.Template{TemplateID: 3, UserID: "u1", TemplateData: "Rk1SACAy+/==", CreatedAt: at}

	require.NoError(t, s.Handle(context.Background(), event.NewTemplateEnrolled(tpl, at)))
	assert.Equal(t, "Rk1SACAy+/==", objs.objects["templates/u1/3.tpl"])
	assert.Empty(t, es.paths)
}

func TestHandle_ArchiveFailureIsRetryable(t *testing.T) {
	s, _, objs := newSink(t)
	objs.err = errors.New("gcs unavailable")
	tpl := &entity.Template{TemplateID: 3, UserID: "u1", TemplateData: "x"}

	err := s.Handle(context.Background(), event.NewTemplateEnrolled(tpl, at))
	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrBadMessage))
}

func TestHandleMessage_BadMessages(t *testing.T) {
	s, _, _ := newSink(t)

	for _, body := range []string{
		`not json`,
		`{"type":"user.deleted"}`,
		`{"type":"user.created"}`,
		`{"type":"template.enrolled"}`,
	} {
		err := s.HandleMessage(context.Background(), []byte(body))
		require.Error(t, err, body)
		assert.True(t, errors.Is(err, ErrBadMessage), body)
	}
}

func TestHandle_NoBackendsIsNoop(t *testing.T) {
	s := &Sink{}
	u := entity.NewUser("u1", "Alice", nil)
	require.NoError(t, s.Handle(context.Background(), event.NewUserCreated(u, at)))
	require.NoError(t, s.Handle(context.Background(), event.NewTemplateEnrolled(&entity.Template{UserID: "u1"}, at)))
}
