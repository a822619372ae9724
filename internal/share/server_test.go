package share

import (
	"bytes"
	"context"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"net/url"
	"strings"
	"testing"

	"github.com/netanel-haber/localfiles.stream/internal/ingest"
	applog "github.com/netanel-haber/localfiles.stream/internal/log"
	"github.com/netanel-haber/localfiles.stream/internal/store"
)

func newTestServer(t *testing.T, maxBody int64) (*Server, *store.StagingStore, *ingest.Signal) {
	t.Helper()
	st, err := store.Open(t.TempDir())
	if err != nil {
		t.Fatalf("failed to open store: %v", err)
	}
	t.Cleanup(func() { st.Close() })

	staging := store.NewStagingStore(st)
	signal := ingest.NewSignal()
	producer := ingest.NewProducer(staging, signal, applog.NullLogger())
	return NewServer("127.0.0.1:0", producer, maxBody, applog.NullLogger()), staging, signal
}

func multipartBody(t *testing.T, files map[string][]byte) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for name, data := range files {
		header := make(textproto.MIMEHeader)
		header.Set("Content-Disposition", `form-data; name="files"; filename="`+name+`"`)
		header.Set("Content-Type", "video/mp4")
		part, err := w.CreatePart(header)
		if err != nil {
			t.Fatalf("failed to create part: %v", err)
		}
		part.Write(data)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("failed to close writer: %v", err)
	}
	return &buf, w.FormDataContentType()
}

func TestHandleShare_StagesFilesAndRedirects(t *testing.T) {
	srv, staging, signal := newTestServer(t, 0)

	body, contentType := multipartBody(t, map[string][]byte{
		"shared.mp4": []byte("shared media bytes"),
	})
	req := httptest.NewRequest(http.MethodPost, "/share", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()

	srv.handleShare(rec, req)

	if rec.Code != http.StatusSeeOther {
		t.Fatalf("expected 303, got %d", rec.Code)
	}
	if loc := rec.Header().Get("Location"); loc != "/?share=success" {
		t.Errorf("expected success redirect, got %q", loc)
	}

	entries, err := staging.All(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected 1 staged entry, got %d", len(entries))
	}
	e := entries[0]
	if e.Name != "shared.mp4" || e.MimeType != "video/mp4" || string(e.Payload) != "shared media bytes" {
		t.Errorf("staged entry wrong: %+v", e)
	}
	if !e.Valid() {
		t.Errorf("staged entry should validate: %+v", e)
	}

	select {
	case outcome := <-signal.Outcomes():
		if !outcome.OK {
			t.Errorf("expected success signal, got %+v", outcome)
		}
	default:
		t.Error("expected an outcome on the signal channel")
	}
}

func TestHandleShare_OverwritesPriorBatch(t *testing.T) {
	srv, staging, _ := newTestServer(t, 0)
	ctx := context.Background()

	post := func(name string, data []byte) {
		body, contentType := multipartBody(t, map[string][]byte{name: data})
		req := httptest.NewRequest(http.MethodPost, "/share", body)
		req.Header.Set("Content-Type", contentType)
		srv.handleShare(httptest.NewRecorder(), req)
	}
	post("first.mp4", []byte("first"))
	post("second.mp4", []byte("second"))

	entries, err := staging.All(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(entries) != 1 || entries[0].Name != "second.mp4" {
		t.Errorf("expected the second batch to overwrite the first, got %+v", entries)
	}
}

func TestHandleShare_RejectsNonPost(t *testing.T) {
	srv, _, _ := newTestServer(t, 0)

	req := httptest.NewRequest(http.MethodGet, "/share", nil)
	rec := httptest.NewRecorder()
	srv.handleShare(rec, req)

	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("expected 405, got %d", rec.Code)
	}
}

func TestHandleShare_MalformedBodyRedirectsWithError(t *testing.T) {
	srv, staging, _ := newTestServer(t, 0)

	req := httptest.NewRequest(http.MethodPost, "/share", strings.NewReader("not multipart"))
	req.Header.Set("Content-Type", "text/plain")
	rec := httptest.NewRecorder()

	srv.handleShare(rec, req)

	if rec.Code != http.StatusSeeOther {
		t.Fatalf("expected 303, got %d", rec.Code)
	}
	loc, err := url.Parse(rec.Header().Get("Location"))
	if err != nil {
		t.Fatalf("failed to parse redirect target: %v", err)
	}
	q := loc.Query()
	if q.Get("share") != "error" || q.Get("name") != "BadShare" || q.Get("message") == "" {
		t.Errorf("expected encoded failure flag, got %q", rec.Header().Get("Location"))
	}

	entries, err := staging.All(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("malformed share must not stage anything, got %d entries", len(entries))
	}
}

func TestHandleShare_BodyCapEnforced(t *testing.T) {
	srv, staging, _ := newTestServer(t, 64)

	body, contentType := multipartBody(t, map[string][]byte{
		"huge.mp4": bytes.Repeat([]byte("x"), 1024),
	})
	req := httptest.NewRequest(http.MethodPost, "/share", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()

	srv.handleShare(rec, req)

	if rec.Code != http.StatusSeeOther {
		t.Fatalf("expected 303, got %d", rec.Code)
	}
	if !strings.Contains(rec.Header().Get("Location"), "share=error") {
		t.Errorf("expected error redirect, got %q", rec.Header().Get("Location"))
	}

	entries, _ := staging.All(context.Background())
	if len(entries) != 0 {
		t.Errorf("oversized share must not stage anything, got %d entries", len(entries))
	}
}

func TestHandleRoot_RendersFlag(t *testing.T) {
	srv, _, _ := newTestServer(t, 0)

	cases := []struct {
		target string
		want   string
	}{
		{"/", "localfiles.stream share receiver"},
		{"/?share=success", "share received"},
		{"/?share=error&name=BadShare&message=broken", "share failed: BadShare: broken"},
	}
	for _, tc := range cases {
		rec := httptest.NewRecorder()
		srv.handleRoot(rec, httptest.NewRequest(http.MethodGet, tc.target, nil))
		if !strings.Contains(rec.Body.String(), tc.want) {
			t.Errorf("%s: expected %q in response, got %q", tc.target, tc.want, rec.Body.String())
		}
	}
}
