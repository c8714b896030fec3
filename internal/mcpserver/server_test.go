package mcpserver

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"log/slog"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/mattvik/texsnap/internal/controller"
	"github.com/mattvik/texsnap/internal/ledger"
	"github.com/mattvik/texsnap/internal/manual"
	"github.com/mattvik/texsnap/internal/resolve"
	"github.com/mattvik/texsnap/internal/storage"
	"github.com/mattvik/texsnap/internal/testutil"
)

// pngBytes is a minimal PNG header that http.DetectContentType recognises.
var pngBytes = []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n', 0, 0, 0, 0}

func testServer(t *testing.T) (*Server, storage.Provider) {
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
	return New(store, ctrl, man), store
}

func callTool(t *testing.T, srv *Server, name string, args map[string]interface{}) *mcp.CallToolResult {
	t.Helper()
	ctx := context.Background()
	req := mcp.CallToolRequest{}
	req.Method = "tools/call"
	req.Params.Name = name
	req.Params.Arguments = args

	var result *mcp.CallToolResult
	var err error

	switch name {
	case "read_note":
		result, err = srv.readNote(ctx, req)
	case "list_notes":
		result, err = srv.listNotes(ctx, req)
	case "ocr_selection":
		result, err = srv.ocrSelection(ctx, req)
	case "ocr_document":
		result, err = srv.ocrDocument(ctx, req)
	case "set_auto_mode":
		result, err = srv.setAutoMode(ctx, req)
	case "auto_status":
		result, err = srv.autoStatus(ctx, req)
	case "upload_image":
		result, err = srv.uploadImage(ctx, req)
	default:
		t.Fatalf("unknown tool: %s", name)
	}

	if err != nil {
		t.Fatalf("tool %s error: %v", name, err)
	}
	return result
}

func resultText(r *mcp.CallToolResult) string {
	if len(r.Content) > 0 {
		if tc, ok := r.Content[0].(mcp.TextContent); ok {
			return tc.Text
		}
	}
	return ""
}

func TestReadAndListNotes(t *testing.T) {
	srv, store := testServer(t)
	_ = store.Write("a.md", []byte("# A"))
	_ = store.Write("sub/b.md", []byte("# B"))

	r := callTool(t, srv, "read_note", map[string]interface{}{"path": "a.md"})
	if resultText(r) != "# A" {
		t.Errorf("read result = %q", resultText(r))
	}

	r = callTool(t, srv, "list_notes", map[string]interface{}{})
	text := resultText(r)
	if !strings.Contains(text, "a.md") || !strings.Contains(text, "sub/b.md") {
		t.Errorf("list result = %q", text)
	}
}

func TestReadNoteMissing(t *testing.T) {
	srv, _ := testServer(t)
	r := callTool(t, srv, "read_note", map[string]interface{}{"path": "nope.md"})
	if !r.IsError {
		t.Error("expected error for missing document")
	}
}

func TestOcrSelectionTool(t *testing.T) {
	srv, store := testServer(t)
	_ = store.Write("attachments/f.png", pngBytes)
	_ = store.Write("note.md", []byte("before ![[f.png]] after"))

	r := callTool(t, srv, "ocr_selection", map[string]interface{}{
		"path":      "note.md",
		"selection": "![[f.png]]",
	})
	if r.IsError {
		t.Fatalf("tool error: %s", resultText(r))
	}
	if resultText(r) != "E = mc^2" {
		t.Errorf("text = %q", resultText(r))
	}
	data, _ := store.Read("note.md")
	if string(data) != "before E = mc^2 after" {
		t.Errorf("document = %q", data)
	}
}

func TestOcrSelectionTool_Malformed(t *testing.T) {
	srv, store := testServer(t)
	_ = store.Write("note.md", []byte("text"))

	r := callTool(t, srv, "ocr_selection", map[string]interface{}{
		"path":      "note.md",
		"selection": "just text",
	})
	if !r.IsError {
		t.Error("expected error for non-reference selection")
	}
}

func TestOcrDocumentTool(t *testing.T) {
	srv, store := testServer(t)
	_ = store.Write("attachments/f.png", pngBytes)
	_ = store.Write("note.md", []byte("![[f.png]] ![[gone.png]]"))

	r := callTool(t, srv, "ocr_document", map[string]interface{}{"path": "note.md"})
	if r.IsError {
		t.Fatalf("tool error: %s", resultText(r))
	}
	var sum manual.Summary
	if err := json.Unmarshal([]byte(resultText(r)), &sum); err != nil {
		t.Fatal(err)
	}
	if sum.Found != 2 || sum.Replaced != 1 || sum.Failed != 1 {
		t.Errorf("summary = %+v", sum)
	}
}

func TestAutoModeTools(t *testing.T) {
	srv, _ := testServer(t)

	r := callTool(t, srv, "auto_status", map[string]interface{}{})
	var st controller.Status
	_ = json.Unmarshal([]byte(resultText(r)), &st)
	if st.Enabled {
		t.Error("auto mode should start disabled")
	}

	r = callTool(t, srv, "set_auto_mode", map[string]interface{}{"enabled": true})
	_ = json.Unmarshal([]byte(resultText(r)), &st)
	if !st.Enabled {
		t.Error("auto mode should be enabled after set_auto_mode")
	}
}

func TestUploadImage_DataURI(t *testing.T) {
	srv, store := testServer(t)

	uri := "data:image/png;base64," + base64.StdEncoding.EncodeToString(pngBytes)
	r := callTool(t, srv, "upload_image", map[string]interface{}{
		"url":      uri,
		"filename": "pasted.png",
	})
	if r.IsError {
		t.Fatalf("tool error: %s", resultText(r))
	}

	var res uploadResult
	if err := json.Unmarshal([]byte(resultText(r)), &res); err != nil {
		t.Fatal(err)
	}
	if res.MarkdownImage != "![[pasted.png]]" {
		t.Errorf("markdownImage = %q", res.MarkdownImage)
	}
	if _, err := store.Read("attachments/pasted.png"); err != nil {
		t.Errorf("uploaded file missing: %v", err)
	}
}

func TestUploadImage_RejectsNonImage(t *testing.T) {
	srv, _ := testServer(t)

	uri := "data:image/png;base64," + base64.StdEncoding.EncodeToString(pngBytes)
	r := callTool(t, srv, "upload_image", map[string]interface{}{
		"url":      uri,
		"filename": "script.sh",
	})
	if !r.IsError {
		t.Error("expected error for non-image extension")
	}
}
