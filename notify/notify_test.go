package notify

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/user/jarvisfi-go/auth"
	"github.com/user/jarvisfi-go/security"
)

func TestEventWriteTo(t *testing.T) {
	e, err := NewEvent(TypeAlert, map[string]string{"type": "critical"})
	require.NoError(t, err)
	assert.NotEmpty(t, e.ID)

	var buf bytes.Buffer
	_, err = e.WriteTo(&buf)
	require.NoError(t, err)
	assert.Equal(t, "id: "+e.ID+"\nevent: alert\ndata: {\"type\":\"critical\"}\n\n", buf.String())

	_, err = NewEvent(TypeAlert, func() {})
	assert.Error(t, err)
}

func TestBroadcasterPublish(t *testing.T) {
	b := NewBroadcaster(zap.NewNop())
	id1, ch1 := b.Subscribe("u1")
	_, ch2 := b.Subscribe("u1")
	_, other := b.Subscribe("u2")
	assert.Equal(t, Stats{Clients: 3, Users: 2}, b.Stats())

	assert.Equal(t, 2, b.Notify("u1", TypeSystem, "hello"))
	assert.Equal(t, TypeSystem, (<-ch1).Type)
	assert.Equal(t, json.RawMessage(`"hello"`), (<-ch2).Data)
	assert.Empty(t, other)
	assert.Equal(t, 0, b.Notify("nobody", TypeSystem, "x"))

	b.Unsubscribe(id1)
	_, open := <-ch1
	assert.False(t, open)
	b.Unsubscribe(id1)
	assert.Equal(t, Stats{Clients: 2, Users: 2}, b.Stats())

	b.Close()
	assert.Equal(t, Stats{}, b.Stats())
}

func TestBroadcasterDropsWhenFull(t *testing.T) {
	b := NewBroadcaster(zap.NewNop())
	_, ch := b.Subscribe("u1")
	for i := 0; i < ClientBuffer; i++ {
		require.Equal(t, 1, b.Notify("u1", TypeAlert, i))
	}
	assert.Equal(t, 0, b.Notify("u1", TypeAlert, "overflow"))
	assert.EqualValues(t, 1, b.Stats().Dropped)
	assert.Len(t, ch, ClientBuffer)
}

func withUser(id uuid.UUID) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims := &security.Claims{TokenType: security.TokenTypeAccess, RegisteredClaims: jwt.RegisteredClaims{Subject: id.String()}}
			next.ServeHTTP(w, r.WithContext(auth.NewContextWithClaims(r.Context(), claims)))
		})
	}
}

func readEvent(t *testing.T, r *bufio.Reader) map[string]string {
	t.Helper()
	fields := map[string]string{}
	for {
		line, err := r.ReadString('\n')
		require.NoError(t, err)
		line = strings.TrimRight(line, "\n")
		if line == "" {
			if len(fields) > 0 {
				return fields
			}
			continue
		}
		if strings.HasPrefix(line, ":") {
			fields["comment"] = strings.TrimSpace(line[1:])
			continue
		}
		k, v, _ := strings.Cut(line, ": ")
		fields[k] = v
	}
}

func TestHandleStream(t *testing.T) {
	b := NewBroadcaster(zap.NewNop())
	h := NewHandlers(b, zap.NewNop())
	h.keepalive = 50 * time.Millisecond
	userID := uuid.New()

	r := chi.NewRouter()
	r.With(withUser(userID)).Group(h.RegisterRoutes)
	srv := httptest.NewServer(r)
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"/notifications/stream", nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	body := bufio.NewReader(resp.Body)
	hello := readEvent(t, body)
	assert.Equal(t, TypeSystem, hello["event"])
	assert.Contains(t, hello["data"], `"status":"connected"`)

	require.Equal(t, 1, b.Notify(userID.String(), TypeCommunityReply, map[string]string{"thread": "t1"}))
	ev := readEvent(t, body)
	for ev["event"] == "" {
		ev = readEvent(t, body)
	}
	assert.Equal(t, TypeCommunityReply, ev["event"])
	assert.Equal(t, `{"thread":"t1"}`, ev["data"])

	assert.Equal(t, "keepalive", readEvent(t, body)["comment"])
}

func TestHandleStreamRequiresUser(t *testing.T) {
	r := chi.NewRouter()
	NewHandlers(NewBroadcaster(zap.NewNop()), zap.NewNop()).RegisterRoutes(r)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/notifications/stream", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
