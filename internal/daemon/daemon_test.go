package daemon_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"photoreport/internal/config"
	"photoreport/internal/daemon"
	"photoreport/internal/logging"
	"photoreport/internal/report"
	"photoreport/internal/session"
	"photoreport/internal/storage"
	"photoreport/internal/testsupport"
)

type photo struct {
	ID      string `json:"id"`
	Index   int    `json:"index"`
	Image   string `json:"image"`
	Caption string `json:"caption"`
	Size    string `json:"size"`
}

type reportBody struct {
	ClientName   string  `json:"clientName"`
	PropertyName string  `json:"propertyName"`
	Key          string  `json:"key"`
	Photos       []photo `json:"photos"`
}

type uploadBody struct {
	Added   []photo  `json:"added"`
	Skipped []string `json:"skipped"`
	Failed  []struct {
		Name string `json:"name"`
	} `json:"failed"`
}

func newController(t *testing.T, cfg *config.Config) (*session.Controller, storage.Store) {
	t.Helper()
	store := testsupport.MustOpenStore(t, cfg)
	return session.NewFromConfig(cfg, store, logging.NewNop()), store
}

func newWorkbench(t *testing.T, cfg *config.Config) (http.Handler, *session.Controller) {
	t.Helper()
	ctrl, _ := newController(t, cfg)
	d, err := daemon.New(cfg, ctrl, logging.NewNop(), daemon.Options{Serve: true})
	if err != nil {
		t.Fatalf("daemon.New failed: %v", err)
	}
	return d.Handler(), ctrl
}

type upload struct {
	name, contentType string
	data              []byte
}

func multipartBody(t *testing.T, field string, files ...upload) (*bytes.Buffer, string) {
	t.Helper()
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	for _, f := range files {
		header := make(map[string][]string)
		header["Content-Disposition"] = []string{`form-data; name="` + field + `"; filename="` + f.name + `"`}
		header["Content-Type"] = []string{f.contentType}
		part, err := writer.CreatePart(header)
		if err != nil {
			t.Fatalf("CreatePart failed: %v", err)
		}
		if _, err := part.Write(f.data); err != nil {
			t.Fatalf("write part failed: %v", err)
		}
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("close multipart failed: %v", err)
	}
	return body, writer.FormDataContentType()
}

func do(t *testing.T, h http.Handler, method, target string, body *bytes.Buffer, contentType string) *httptest.ResponseRecorder {
	t.Helper()
	if body == nil {
		body = &bytes.Buffer{}
	}
	req := httptest.NewRequest(method, target, body)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func decode[T any](t *testing.T, rr *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	if err := json.Unmarshal(rr.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode response failed: %v (body %s)", err, rr.Body.String())
	}
	return out
}

func TestNewRequiresAFrontEnd(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithBackend(config.BackendMemory))
	ctrl, _ := newController(t, cfg)
	if _, err := daemon.New(cfg, ctrl, nil, daemon.Options{}); err == nil {
		t.Fatal("expected error when neither serve nor watch is enabled")
	}
}

func TestUploadPrependsImagesAndSkipsOthers(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithBackend(config.BackendMemory))
	h, _ := newWorkbench(t, cfg)

	body, ct := multipartBody(t, "files",
		upload{"a.png", "image/png", testsupport.PNG(t, 40, 30)},
		upload{"b.txt", "text/plain", []byte("notes")},
		upload{"c.jpg", "image/jpeg", testsupport.JPEG(t, 30, 40)},
	)
	rr := do(t, h, http.MethodPost, "/api/photos", body, ct)
	if rr.Code != http.StatusCreated {
		t.Fatalf("upload status = %d, body %s", rr.Code, rr.Body.String())
	}
	if rr.Header().Get("X-Request-ID") == "" {
		t.Fatal("expected X-Request-ID header")
	}
	result := decode[uploadBody](t, rr)
	if len(result.Added) != 2 || len(result.Skipped) != 1 || result.Skipped[0] != "b.txt" {
		t.Fatalf("unexpected upload result: %+v", result)
	}
	if result.Added[0].Index != 0 || result.Added[1].Index != 1 {
		t.Fatalf("batch should sit at the front in input order: %+v", result.Added)
	}

	got := decode[reportBody](t, do(t, h, http.MethodGet, "/api/report", nil, ""))
	if len(got.Photos) != 8 {
		t.Fatalf("expected 2 photos ahead of 6 placeholders, got %d", len(got.Photos))
	}
	if !strings.HasPrefix(got.Photos[0].Image, "data:image/") || got.Photos[2].Image != "" {
		t.Fatalf("unexpected card order: %+v", got.Photos[:3])
	}
}

func TestUploadWithoutFilesIsBadRequest(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithBackend(config.BackendMemory))
	h, _ := newWorkbench(t, cfg)
	body, ct := multipartBody(t, "other", upload{"a.png", "image/png", testsupport.PNG(t, 4, 4)})
	if rr := do(t, h, http.MethodPost, "/api/photos", body, ct); rr.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rr.Code)
	}
}

func TestCaptionRemoveAndReplace(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithBackend(config.BackendMemory))
	h, ctrl := newWorkbench(t, cfg)
	first := ctrl.Cards()[0].ID.String()

	rr := do(t, h, http.MethodPut, "/api/photos/"+first+"/caption", bytes.NewBufferString(`{"caption":"Kitchen"}`), "application/json")
	if rr.Code != http.StatusNoContent {
		t.Fatalf("caption status = %d, body %s", rr.Code, rr.Body.String())
	}
	if ctrl.Cards()[0].Caption != "Kitchen" {
		t.Fatalf("caption not applied: %+v", ctrl.Cards()[0])
	}

	body, ct := multipartBody(t, "file", upload{"k.png", "image/png", testsupport.PNG(t, 20, 20)})
	rr = do(t, h, http.MethodPut, "/api/photos/"+first+"/image", body, ct)
	if rr.Code != http.StatusOK {
		t.Fatalf("replace status = %d, body %s", rr.Code, rr.Body.String())
	}
	replaced := decode[photo](t, rr)
	if replaced.Caption != "Kitchen" || replaced.Index != 0 || replaced.Image == "" {
		t.Fatalf("replace should keep caption and position: %+v", replaced)
	}

	body, ct = multipartBody(t, "file", upload{"bad.png", "image/png", []byte("not a png")})
	rr = do(t, h, http.MethodPut, "/api/photos/"+first+"/image", body, ct)
	if rr.Code != http.StatusUnprocessableEntity {
		t.Fatalf("undecodable replace status = %d, want 422", rr.Code)
	}

	if rr := do(t, h, http.MethodDelete, "/api/photos/"+first, nil, ""); rr.Code != http.StatusNoContent {
		t.Fatalf("remove status = %d", rr.Code)
	}
	if rr := do(t, h, http.MethodDelete, "/api/photos/"+first, nil, ""); rr.Code != http.StatusNotFound {
		t.Fatalf("second remove status = %d, want 404", rr.Code)
	}
	if rr := do(t, h, http.MethodDelete, "/api/photos/not-a-uuid", nil, ""); rr.Code != http.StatusBadRequest {
		t.Fatalf("bad id status = %d, want 400", rr.Code)
	}
	if got := len(ctrl.Cards()); got != 5 {
		t.Fatalf("expected 5 cards after removal, got %d", got)
	}

	rr = do(t, h, http.MethodPost, "/api/photos/empty", nil, "")
	if rr.Code != http.StatusCreated {
		t.Fatalf("add empty status = %d", rr.Code)
	}
	if added := decode[photo](t, rr); added.Index != 5 {
		t.Fatalf("empty card should be appended, got index %d", added.Index)
	}
}

func TestMetadataSaveClearLoad(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithBackend(config.BackendMemory))
	h, _ := newWorkbench(t, cfg)

	rr := do(t, h, http.MethodPut, "/api/report/metadata",
		bytes.NewBufferString(`{"clientName":"Acme","propertyName":"12 Elm St"}`), "application/json")
	if rr.Code != http.StatusOK {
		t.Fatalf("metadata status = %d, body %s", rr.Code, rr.Body.String())
	}
	if got := decode[reportBody](t, rr); got.Key != storage.Key("Acme", "12 Elm St") {
		t.Fatalf("key = %q", got.Key)
	}

	rr = do(t, h, http.MethodPut, "/api/report/metadata", bytes.NewBufferString(`{"bogus":1}`), "application/json")
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("unknown field status = %d, want 400", rr.Code)
	}

	rr = do(t, h, http.MethodPost, "/api/report/save", nil, "")
	if rr.Code != http.StatusOK {
		t.Fatalf("save status = %d, body %s", rr.Code, rr.Body.String())
	}
	if got := decode[map[string]string](t, rr); got["notice"] != session.NoticeSaved {
		t.Fatalf("notice = %q", got["notice"])
	}

	cleared := decode[reportBody](t, do(t, h, http.MethodPost, "/api/report/clear", nil, ""))
	if cleared.ClientName != "" || len(cleared.Photos) != 6 {
		t.Fatalf("clear should reset metadata and seed placeholders: %+v", cleared)
	}

	rr = do(t, h, http.MethodPost, "/api/report/load", nil, "")
	if rr.Code != http.StatusNotFound {
		t.Fatalf("load of cleared key status = %d, want 404", rr.Code)
	}
	if got := decode[map[string]string](t, rr); got["notice"] != session.NoticeLoadNotFound {
		t.Fatalf("notice = %q", got["notice"])
	}

	do(t, h, http.MethodPut, "/api/report/metadata",
		bytes.NewBufferString(`{"clientName":"Acme","propertyName":"12 Elm St"}`), "application/json")
	rr = do(t, h, http.MethodPost, "/api/report/load", nil, "")
	if rr.Code != http.StatusOK {
		t.Fatalf("load status = %d, body %s", rr.Code, rr.Body.String())
	}
	if got := decode[reportBody](t, rr); got.PropertyName != "12 Elm St" {
		t.Fatalf("loaded report = %+v", got)
	}
}

func TestSaveOverQuotaIsInsufficientStorage(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithBackend(config.BackendMemory), testsupport.WithQuota(16))
	h, _ := newWorkbench(t, cfg)

	rr := do(t, h, http.MethodPost, "/api/report/save", nil, "")
	if rr.Code != http.StatusInsufficientStorage {
		t.Fatalf("status = %d, want 507", rr.Code)
	}
	got := decode[map[string]string](t, rr)
	if got["notice"] != session.NoticeSaveFailed || got["kind"] != "capacity" {
		t.Fatalf("unexpected payload: %+v", got)
	}
}

func TestPrintRendersHTML(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithBackend(config.BackendMemory))
	h, ctrl := newWorkbench(t, cfg)
	if err := ctrl.SetCaption(ctrl.Cards()[0].ID, "Roof"); err != nil {
		t.Fatalf("SetCaption failed: %v", err)
	}

	rr := do(t, h, http.MethodGet, "/print", nil, "")
	if rr.Code != http.StatusOK {
		t.Fatalf("print status = %d", rr.Code)
	}
	if ct := rr.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/html") {
		t.Fatalf("content type = %q", ct)
	}
	if rr.Header().Get("X-Photo-Count") != "1" {
		t.Fatalf("photo count = %q", rr.Header().Get("X-Photo-Count"))
	}
	if !strings.Contains(rr.Body.String(), "Roof") {
		t.Fatal("expected caption in printed document")
	}
}

func TestRunServesAndHoldsLock(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithBackend(config.BackendMemory))
	ctrl, _ := newController(t, cfg)
	d, err := daemon.New(cfg, ctrl, logging.NewNop(), daemon.Options{Serve: true})
	if err != nil {
		t.Fatalf("daemon.New failed: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- d.Run(ctx) }()

	deadline := time.Now().Add(5 * time.Second)
	for d.Addr() == "" {
		if time.Now().After(deadline) {
			t.Fatal("daemon did not start listening")
		}
		time.Sleep(10 * time.Millisecond)
	}

	resp, err := http.Get("http://" + d.Addr() + "/api/health")
	if err != nil {
		t.Fatalf("health request failed: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("health status = %d", resp.StatusCode)
	}

	other, err := daemon.New(cfg, ctrl, logging.NewNop(), daemon.Options{Watch: true})
	if err != nil {
		t.Fatalf("daemon.New failed: %v", err)
	}
	if err := other.Run(context.Background()); !errors.Is(err, daemon.ErrAlreadyRunning) {
		t.Fatalf("second Run error = %v, want ErrAlreadyRunning", err)
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Run returned error: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("daemon did not stop")
	}
	if d.Running() {
		t.Fatal("expected daemon to report stopped")
	}
}

func TestWatchIngestsAndAutoSaves(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithBackend(config.BackendMemory))
	ctrl, store := newController(t, cfg)
	ctrl.UpdateMetadata(func(m *report.Metadata) { m.ClientName = "Acme" })
	d, err := daemon.New(cfg, ctrl, logging.NewNop(), daemon.Options{Watch: true, AutoSave: true})
	if err != nil {
		t.Fatalf("daemon.New failed: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- d.Run(ctx) }()

	for !d.Running() {
		time.Sleep(10 * time.Millisecond)
	}
	// Give the watcher time to register the folder.
	time.Sleep(100 * time.Millisecond)
	testsupport.WriteFile(t, filepath.Join(cfg.Paths.DropDir, "porch.png"), testsupport.PNG(t, 16, 16))

	deadline := time.Now().Add(5 * time.Second)
	for {
		saved, err := store.Get(context.Background(), ctrl.Key())
		if err == nil && saved != nil && len(saved.Photos) == 7 {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("dropped photo was not ingested and saved (err %v)", err)
		}
		time.Sleep(20 * time.Millisecond)
	}
	if !ctrl.Cards()[0].HasImage() {
		t.Fatal("dropped photo should be the first card")
	}

	cancel()
	if err := <-done; err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if _, err := os.Stat(cfg.Paths.DropDir); err != nil {
		t.Fatalf("drop folder should exist: %v", err)
	}
}

type lockedBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *lockedBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *lockedBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func TestWatchAutoSaveFailureLogsOneWarning(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithBackend(config.BackendMemory), testsupport.WithQuota(16))
	var logs lockedBuffer
	logger := slog.New(slog.NewJSONHandler(&logs, &slog.HandlerOptions{Level: slog.LevelDebug}))
	store := testsupport.MustOpenStore(t, cfg)
	ctrl := session.NewFromConfig(cfg, store, logger)
	d, err := daemon.New(cfg, ctrl, logger, daemon.Options{Watch: true, AutoSave: true})
	if err != nil {
		t.Fatalf("daemon.New failed: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- d.Run(ctx) }()

	for !d.Running() {
		time.Sleep(10 * time.Millisecond)
	}
	time.Sleep(100 * time.Millisecond)
	testsupport.WriteFile(t, filepath.Join(cfg.Paths.DropDir, "porch.png"), testsupport.PNG(t, 16, 16))

	deadline := time.Now().Add(5 * time.Second)
	for !strings.Contains(logs.String(), `"msg":"report save failed"`) {
		if time.Now().After(deadline) {
			t.Fatalf("expected a save failure warning, logs:\n%s", logs.String())
		}
		time.Sleep(20 * time.Millisecond)
	}
	cancel()
	if err := <-done; err != nil {
		t.Fatalf("Run returned error: %v", err)
	}

	out := logs.String()
	if n := strings.Count(out, `"msg":"report save failed"`); n != 1 {
		t.Fatalf("expected one save warning, got %d:\n%s", n, out)
	}
	if strings.Contains(out, session.NoticeSaveFailed) {
		t.Fatalf("save notice should not be logged:\n%s", out)
	}
	if len(ctrl.Cards()) != 7 {
		t.Fatalf("in-memory report should keep the dropped photo, got %d cards", len(ctrl.Cards()))
	}
}
