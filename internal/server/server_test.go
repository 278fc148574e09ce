package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/danmuck/blefrag/internal/auth"
	"github.com/danmuck/blefrag/internal/catalog"
	"github.com/danmuck/blefrag/internal/gatt"
	"github.com/danmuck/blefrag/internal/protocol/frame"
	"github.com/danmuck/blefrag/internal/testutil/testlog"
	"github.com/rs/zerolog"
)

func newAdmin(t *testing.T, opts ...AdminOption) (*Admin, *gatt.Host) {
	t.Helper()
	host := gatt.NewHost(gatt.HostConfig{Name: "admin-test"}, catalog.New(), gatt.WithLogger(testlog.Logger(t)))
	return NewAdmin(host, testlog.Logger(t), opts...), host
}

func do(t *testing.T, a *Admin, method, path string, headers ...string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, nil)
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	rec := httptest.NewRecorder()
	a.Handler().ServeHTTP(rec, req)
	return rec
}

func TestHealth(t *testing.T) {
	testlog.Start(t)
	a, _ := newAdmin(t)
	rec := do(t, a, http.MethodGet, "/health")
	if rec.Code != http.StatusOK {
		t.Fatalf("status=%d", rec.Code)
	}
	var body map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body["status"] != "ok" || body["service"] != "admin-test" {
		t.Fatalf("unexpected body: %v", body)
	}
}

func TestStreamsListAndAbandon(t *testing.T) {
	testlog.Start(t)
	a, host := newAdmin(t)
	blocks, err := frame.EncodeBytes([]byte("partial transfer from peer"))
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	if _, _, err := host.OnWrite("peer-1", blocks[0]); err != nil {
		t.Fatalf("write: %v", err)
	}

	rec := do(t, a, http.MethodGet, "/streams")
	if rec.Code != http.StatusOK {
		t.Fatalf("status=%d", rec.Code)
	}
	var body struct {
		Inbound []streamView `json:"inbound"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(body.Inbound) != 1 || body.Inbound[0].Peer != "peer-1" || body.Inbound[0].Received != 1 {
		t.Fatalf("unexpected streams: %+v", body.Inbound)
	}

	rec = do(t, a, http.MethodDelete, "/streams/peer-1")
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"dropped":1`) {
		t.Fatalf("abandon status=%d body=%s", rec.Code, rec.Body.String())
	}
	if host.Store().Len() != 0 {
		t.Fatalf("abandon left %d streams", host.Store().Len())
	}
}

func TestMetricsEndpoint(t *testing.T) {
	a, host := newAdmin(t)
	if _, err := host.OnRead(catalog.StatusCharUUID); err != nil {
		t.Fatalf("read: %v", err)
	}
	rec := do(t, a, http.MethodGet, "/metrics")
	if rec.Code != http.StatusOK {
		t.Fatalf("status=%d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "blefrag_frames_sent_total") {
		t.Fatalf("metrics missing frames counter")
	}
}

func TestAbandonRequiresToken(t *testing.T) {
	testlog.Start(t)
	a, host := newAdmin(t, WithValidator(auth.StaticToken{Token: "s3cret"}))
	blocks, err := frame.EncodeBytes([]byte("another partial transfer"))
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	if _, _, err := host.OnWrite("peer-2", blocks[0]); err != nil {
		t.Fatalf("write: %v", err)
	}

	if rec := do(t, a, http.MethodDelete, "/streams/peer-2"); rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token, got %d", rec.Code)
	}
	if rec := do(t, a, http.MethodDelete, "/streams/peer-2", "Authorization", "Bearer wrong"); rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 with wrong token, got %d", rec.Code)
	}
	if host.Store().Len() != 1 {
		t.Fatalf("unauthorized request changed the store")
	}
	if rec := do(t, a, http.MethodDelete, "/streams/peer-2", "Authorization", "Bearer s3cret"); rec.Code != http.StatusOK {
		t.Fatalf("expected 200 with token, got %d", rec.Code)
	}
	if host.Store().Len() != 0 {
		t.Fatalf("abandon left %d streams", host.Store().Len())
	}
}

func TestUnguardedAdminWarns(t *testing.T) {
	host := gatt.NewHost(gatt.HostConfig{Name: "admin-test"}, catalog.New())

	var buf bytes.Buffer
	NewAdmin(host, zerolog.New(&buf))
	if !strings.Contains(buf.String(), `"level":"warn"`) || !strings.Contains(buf.String(), "unguarded") {
		t.Fatalf("expected unguarded warning, got %q", buf.String())
	}

	buf.Reset()
	NewAdmin(host, zerolog.New(&buf), WithValidator(auth.StaticToken{Token: "s3cret"}))
	if strings.Contains(buf.String(), "unguarded") {
		t.Fatalf("guarded admin should not warn: %q", buf.String())
	}
}
