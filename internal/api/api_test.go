package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/mattvik/texsnap/internal/controller"
	"github.com/mattvik/texsnap/internal/ledger"
	"github.com/mattvik/texsnap/internal/manual"
	"github.com/mattvik/texsnap/internal/resolve"
	"github.com/mattvik/texsnap/internal/storage"
	"github.com/mattvik/texsnap/internal/testutil"
)

// testEnv sets up a temp vault, a scripted recognizer, a running controller,
// and the router.
func testEnv(t *testing.T, authToken string) (storage.Provider, http.Handler) {
	t.Helper()

	_, store := testutil.TestVault(t)
	fake := &testutil.FakeRecognizer{Text: "E = mc^2"}
	notifier := &testutil.RecordingNotifier{}
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
	resolver := resolve.New(store, "attachments", 1, 10*time.Millisecond)

	ctrl := controller.New(controller.Params{
		Store:    store,
		Resolver: resolver,
		Gateway:  fake,
		Ledger:   ledger.New(),
		Notifier: notifier,
		Logger:   logger,
	})
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = ctrl.Run(ctx)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})

	man := manual.NewService(store, resolver, fake, notifier, logger)
	router := NewRouter(store, ctrl, man, authToken != "", authToken, nil)
	return store, router
}

func doJSON(t *testing.T, router http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var rd io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatal(err)
		}
		rd = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, rd)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestGetAndPutNote(t *testing.T) {
	store, router := testEnv(t, "")
	_ = store.Write("notes/hello.md", []byte("# Hello"))

	w := doJSON(t, router, http.MethodGet, "/notes/notes/hello.md", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("GET status = %d", w.Code)
	}
	var note NoteResponse
	_ = json.NewDecoder(w.Body).Decode(&note)
	if note.Content != "# Hello" || note.Path != "notes/hello.md" {
		t.Errorf("note = %+v", note)
	}

	w = doJSON(t, router, http.MethodPut, "/notes/notes/hello.md", PutNoteRequest{Content: "# Updated"})
	if w.Code != http.StatusOK {
		t.Fatalf("PUT status = %d", w.Code)
	}
	data, _ := store.Read("notes/hello.md")
	if string(data) != "# Updated" {
		t.Errorf("content = %q", data)
	}
}

func TestGetNote_NotFound(t *testing.T) {
	_, router := testEnv(t, "")
	w := doJSON(t, router, http.MethodGet, "/notes/missing.md", nil)
	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", w.Code)
	}
}

func TestAutoToggle(t *testing.T) {
	_, router := testEnv(t, "")

	w := doJSON(t, router, http.MethodGet, "/auto", nil)
	var st AutoStatusResponse
	_ = json.NewDecoder(w.Body).Decode(&st)
	if st.Enabled {
		t.Error("auto mode should start disabled")
	}

	w = doJSON(t, router, http.MethodPost, "/auto", SetAutoRequest{Enabled: true})
	if w.Code != http.StatusOK {
		t.Fatalf("POST status = %d", w.Code)
	}
	_ = json.NewDecoder(w.Body).Decode(&st)
	if !st.Enabled {
		t.Error("auto mode should be enabled after toggle")
	}
}

func TestOcrSelectionEndpoint(t *testing.T) {
	store, router := testEnv(t, "")
	_ = store.Write("attachments/img.png", []byte{0x89})
	_ = store.Write("note.md", []byte("x ![[img.png]] y"))

	w := doJSON(t, router, http.MethodPost, "/ocr/selection",
		OcrSelectionRequest{Path: "note.md", Selection: "![[img.png]]"})
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", w.Code, w.Body)
	}
	var resp OcrSelectionResponse
	_ = json.NewDecoder(w.Body).Decode(&resp)
	if resp.Text != "E = mc^2" {
		t.Errorf("text = %q", resp.Text)
	}
	data, _ := store.Read("note.md")
	if string(data) != "x E = mc^2 y" {
		t.Errorf("document = %q", data)
	}
}

func TestOcrSelectionEndpoint_Malformed(t *testing.T) {
	store, router := testEnv(t, "")
	_ = store.Write("note.md", []byte("content"))

	w := doJSON(t, router, http.MethodPost, "/ocr/selection",
		OcrSelectionRequest{Path: "note.md", Selection: "not a reference"})
	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
}

func TestOcrDocumentEndpoint(t *testing.T) {
	store, router := testEnv(t, "")
	_ = store.Write("attachments/img.png", []byte{0x89})
	_ = store.Write("note.md", []byte("![[img.png]] and ![[missing.png]]"))

	w := doJSON(t, router, http.MethodPost, "/ocr/document", OcrDocumentRequest{Path: "note.md"})
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", w.Code, w.Body)
	}
	var sum OcrDocumentResponse
	_ = json.NewDecoder(w.Body).Decode(&sum)
	if sum.Found != 2 || sum.Replaced != 1 || sum.Failed != 1 {
		t.Errorf("summary = %+v", sum)
	}
}

func TestAuth_TokenRequired(t *testing.T) {
	_, router := testEnv(t, "secret")

	w := doJSON(t, router, http.MethodGet, "/auto", nil)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("status without token = %d, want 401", w.Code)
	}

	req := httptest.NewRequest(http.MethodGet, "/auto", nil)
	req.Header.Set("Authorization", "Bearer secret")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Errorf("status with token = %d, want 200", rec.Code)
	}
}

func TestAttachmentUploadAndServe(t *testing.T) {
	_, router := testEnv(t, "")

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, _ := mw.CreateFormFile("file", "pasted.png")
	_, _ = fw.Write([]byte{0x89, 0x50, 0x4e, 0x47})
	mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/attachments", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusCreated {
		t.Fatalf("upload status = %d: %s", w.Code, w.Body)
	}

	get := httptest.NewRequest(http.MethodGet, "/attachments/pasted.png", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, get)
	if rec.Code != http.StatusOK {
		t.Errorf("serve status = %d", rec.Code)
	}
}

func TestAttachmentUpload_RejectsNonImage(t *testing.T) {
	_, router := testEnv(t, "")

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, _ := mw.CreateFormFile("file", "evil.sh")
	_, _ = fw.Write([]byte("#!/bin/sh"))
	mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/attachments", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
}
