package http

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/dkeye/roomcall/internal/adapters/wsclient"
	"github.com/dkeye/roomcall/internal/app"
	"github.com/dkeye/roomcall/internal/app/orch"
	"github.com/dkeye/roomcall/internal/config"
	"github.com/dkeye/roomcall/internal/domain"
	"github.com/dkeye/roomcall/internal/protocol"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	return &config.Config{
		Mode:        "test",
		Port:        8080,
		StaticPath:  t.TempDir(),
		UploadDir:   t.TempDir(),
		MaxUploadMB: 1,
		ReadLimit:   65536,
		PingPeriod:  time.Second,
		PongWait:    2 * time.Second,
		WriteWait:   time.Second,
		SendBuffer:  32,
		Secret:      "test-secret",
		ChatRate:    100,
		ChatBurst:   100,
	}
}

type testServer struct {
	srv  *httptest.Server
	orch *orch.Orchestrator
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	o := orch.New(app.NewRegistry(), app.NewRoomManager(), app.SimplePolicy{})
	srv := httptest.NewServer(SetupRouter(ctx, testConfig(t), o))
	t.Cleanup(srv.Close)
	return &testServer{srv: srv, orch: o}
}

func (s *testServer) dial(t *testing.T) *wsclient.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(s.srv.URL, "http") + "/api/ws/signal"
	c, err := wsclient.Dial(context.Background(), url, wsclient.Options{})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = c.Run(ctx)
	}()
	t.Cleanup(func() {
		cancel()
		c.Close()
		<-done
	})
	return c
}

func send(t *testing.T, c *wsclient.Conn, typ protocol.EventType, target domain.ConnectionID, payload any) {
	t.Helper()
	env, err := protocol.New(typ, payload)
	require.NoError(t, err)
	env.Target = target
	require.NoError(t, c.Send(env))
}

// await skips frames until one of type typ arrives.
func await(t *testing.T, c *wsclient.Conn, typ protocol.EventType) protocol.Envelope {
	t.Helper()
	timeout := time.After(2 * time.Second)
	for {
		select {
		case env, ok := <-c.Incoming():
			require.True(t, ok, "connection closed while waiting for %s", typ)
			if env.Type == typ {
				return env
			}
		case <-timeout:
			require.FailNow(t, "timed out waiting for "+string(typ))
		}
	}
}

func TestSignalingOverWebsocket(t *testing.T) {
	s := newTestServer(t)
	a := s.dial(t)
	b := s.dial(t)
	require.NotEqual(t, a.ID(), b.ID())

	send(t, a, protocol.TypeJoinRoom, "", protocol.JoinRoomPayload{DisplayName: "alice", RoomID: "r1"})
	await(t, a, protocol.TypeMembershipUpdate)
	send(t, b, protocol.TypeJoinRoom, "", protocol.JoinRoomPayload{DisplayName: "bob", RoomID: "r1"})

	var members protocol.MembershipPayload
	require.NoError(t, await(t, b, protocol.TypeMembershipUpdate).Into(&members))
	require.Len(t, members.Members, 2)
	assert.Equal(t, a.ID(), members.Members[0].ConnectionID)
	assert.Equal(t, b.ID(), members.Members[1].ConnectionID)

	var notice protocol.ChatPayload
	require.NoError(t, await(t, a, protocol.TypeChatMessage).Into(&notice))
	assert.True(t, notice.System)
	assert.Contains(t, notice.Body, "bob")

	send(t, a, protocol.TypeChatMessage, "", protocol.ChatPayload{Body: "hello"})
	var chat protocol.ChatPayload
	require.NoError(t, await(t, b, protocol.TypeChatMessage).Into(&chat))
	assert.Equal(t, "hello", chat.Body)
	assert.Equal(t, a.ID(), chat.AuthorID)

	send(t, b, protocol.TypeOffer, a.ID(), protocol.SDPPayload{SDP: "v=0"})
	offer := await(t, a, protocol.TypeOffer)
	assert.Equal(t, b.ID(), offer.From)
	assert.Equal(t, domain.RoomID("r1"), offer.Room)

	send(t, a, protocol.TypeWhoAmI, "", nil)
	var who protocol.WhoAmIPayload
	require.NoError(t, await(t, a, protocol.TypeWhoAmI).Into(&who))
	assert.Equal(t, "alice", who.DisplayName)
	assert.Equal(t, domain.RoomID("r1"), who.RoomID)

	b.Close()
	var left protocol.ParticipantLeftPayload
	require.NoError(t, await(t, a, protocol.TypeParticipantLeft).Into(&left))
	assert.Equal(t, b.ID(), left.ConnectionID)
}

func TestSignalingErrors(t *testing.T) {
	s := newTestServer(t)
	a := s.dial(t)

	send(t, a, protocol.TypeChatMessage, "", protocol.ChatPayload{Body: "hi"})
	var p protocol.ErrorPayload
	require.NoError(t, await(t, a, protocol.TypeError).Into(&p))
	assert.Equal(t, "not_in_room", p.Error)

	send(t, a, protocol.TypeJoinRoom, "", protocol.JoinRoomPayload{DisplayName: " ", RoomID: "r1"})
	require.NoError(t, await(t, a, protocol.TypeError).Into(&p))
	assert.Equal(t, "invalid_name", p.Error)

	send(t, a, protocol.TypeResume, "", nil)
	require.NoError(t, await(t, a, protocol.TypeError).Into(&p))
	assert.Equal(t, "nothing_to_resume", p.Error)

	send(t, a, "bogus", "", nil)
	require.NoError(t, await(t, a, protocol.TypeError).Into(&p))
	assert.Equal(t, "unknown_type", p.Error)

	send(t, a, protocol.TypePing, "", nil)
	await(t, a, protocol.TypePong)
}

func TestRoomsAndHealth(t *testing.T) {
	s := newTestServer(t)
	a := s.dial(t)
	send(t, a, protocol.TypeJoinRoom, "", protocol.JoinRoomPayload{DisplayName: "alice", RoomID: "lobby"})
	await(t, a, protocol.TypeMembershipUpdate)

	resp, err := http.Get(s.srv.URL + "/api/rooms")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var body struct {
		Rooms []struct {
			Name        string `json:"name"`
			ClientCount int    `json:"client_count"`
		} `json:"rooms"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	require.Len(t, body.Rooms, 1)
	assert.Equal(t, "lobby", body.Rooms[0].Name)
	assert.Equal(t, 1, body.Rooms[0].ClientCount)

	health, err := http.Get(s.srv.URL + "/healthz")
	require.NoError(t, err)
	health.Body.Close()
	assert.Equal(t, http.StatusOK, health.StatusCode)
}

func TestProfileRoundTrip(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := SetupRouter(context.Background(), testConfig(t), orch.New(app.NewRegistry(), app.NewRoomManager(), app.SimplePolicy{}))

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPut, "/api/profile", strings.NewReader(`{"displayName":" alice ","roomId":"r1"}`))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"displayName":"alice","roomId":"r1"}`, w.Body.String())

	w2 := httptest.NewRecorder()
	req2 := httptest.NewRequest(http.MethodGet, "/api/profile", nil)
	for _, c := range w.Result().Cookies() {
		req2.AddCookie(c)
	}
	r.ServeHTTP(w2, req2)
	assert.JSONEq(t, `{"displayName":"alice","roomId":"r1"}`, w2.Body.String())

	w3 := httptest.NewRecorder()
	req3 := httptest.NewRequest(http.MethodPut, "/api/profile", strings.NewReader(`{"displayName":"","roomId":"r1"}`))
	r.ServeHTTP(w3, req3)
	assert.Equal(t, http.StatusBadRequest, w3.Code)
}

func multipartBody(t *testing.T, name string, content []byte) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", name)
	require.NoError(t, err)
	_, err = fw.Write(content)
	require.NoError(t, err)
	require.NoError(t, mw.Close())
	return &buf, mw.FormDataContentType()
}

func TestUploadStoresFileAndDetectsType(t *testing.T) {
	gin.SetMode(gin.TestMode)
	dir := t.TempDir()
	h := NewUploadHandler(dir, "http://files.test/", 1<<20)
	r := gin.New()
	r.POST("/upload", h.Handle)

	png := []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")
	body, ct := multipartBody(t, "../../My Photo.png", png)
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/upload", body)
	req.Header.Set("Content-Type", ct)
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp uploadResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "image/png", resp.MimeType)
	assert.True(t, strings.HasPrefix(resp.FileURL, "http://files.test/uploads/"))
	assert.True(t, strings.HasSuffix(resp.FileURL, "-My_Photo.png"))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	stored, err := os.ReadFile(filepath.Join(dir, entries[0].Name()))
	require.NoError(t, err)
	assert.Equal(t, png, stored)
}

func TestUploadRejectsMissingAndOversizedFiles(t *testing.T) {
	gin.SetMode(gin.TestMode)
	h := NewUploadHandler(t.TempDir(), "", 512)
	r := gin.New()
	r.POST("/upload", h.Handle)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/upload", nil))
	assert.Equal(t, http.StatusBadRequest, w.Code)

	body, ct := multipartBody(t, "big.bin", bytes.Repeat([]byte("x"), 4096))
	w = httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/upload", body)
	req.Header.Set("Content-Type", ct)
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
}

func TestSanitizeFileName(t *testing.T) {
	assert.Equal(t, "passwd", sanitizeFileName("../../etc/passwd"))
	assert.Equal(t, "a_b.txt", sanitizeFileName(`C:\dir\a b.txt`))
	assert.Equal(t, "file", sanitizeFileName(".."))
}
