// Package mcpserver provides an MCP (Model Context Protocol) server
// that exposes texsnap tools for LLM integration via stdio transport.
package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/mattvik/texsnap/internal/controller"
	"github.com/mattvik/texsnap/internal/manual"
	"github.com/mattvik/texsnap/internal/storage"
)

// Server wraps the MCP server with texsnap tools.
type Server struct {
	mcp   *server.MCPServer
	store storage.Provider
	ctrl  *controller.Controller
	man   *manual.Service
}

// New creates a new MCP server with all texsnap tools registered.
func New(store storage.Provider, ctrl *controller.Controller, man *manual.Service) *Server {
	s := &Server{store: store, ctrl: ctrl, man: man}

	s.mcp = server.NewMCPServer(
		"texsnap",
		"1.0.0",
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("read_note",
		mcp.WithDescription("Read the full content of a Markdown document."),
		mcp.WithString("path", mcp.Required(), mcp.Description("Relative path to the document (e.g. folder/note.md)")),
	), s.readNote)

	s.mcp.AddTool(mcp.NewTool("list_notes",
		mcp.WithDescription("List all Markdown documents or documents in a specific folder."),
		mcp.WithString("folder", mcp.Description("Optional folder to list (empty for all)")),
	), s.listNotes)

	s.mcp.AddTool(mcp.NewTool("ocr_selection",
		mcp.WithDescription("Recognise a single image reference selected in a document and "+
			"replace it with the recognised LaTeX. The selection must be exactly one "+
			"![[image.png]] or ![alt](image.png) reference."),
		mcp.WithString("path", mcp.Required(), mcp.Description("Relative path to the document")),
		mcp.WithString("selection", mcp.Required(), mcp.Description("The selected image reference token")),
	), s.ocrSelection)

	s.mcp.AddTool(mcp.NewTool("ocr_document",
		mcp.WithDescription("Recognise every image reference in a document and replace "+
			"the successful ones with LaTeX. Returns a found/replaced/failed summary."),
		mcp.WithString("path", mcp.Required(), mcp.Description("Relative path to the document")),
	), s.ocrDocument)

	s.mcp.AddTool(mcp.NewTool("set_auto_mode",
		mcp.WithDescription("Enable or disable automatic OCR of freshly pasted image references."),
		mcp.WithBoolean("enabled", mcp.Required(), mcp.Description("true to enable, false to disable")),
	), s.setAutoMode)

	s.mcp.AddTool(mcp.NewTool("auto_status",
		mcp.WithDescription("Report the current auto-OCR state: enabled flag, tracked documents, in-flight submissions."),
	), s.autoStatus)

	s.mcp.AddTool(mcp.NewTool("upload_image",
		mcp.WithDescription("Store an image in the vault's attachments directory so a document "+
			"can reference it. Accepts a base64 data URI or an http(s) URL. Returns a "+
			"markdownImage field ready to paste into a document. Read the "+
			"texsnap://ocr-workflow resource for the full paste-and-recognise flow."),
		mcp.WithString("url", mcp.Required(), mcp.Description("data: URI or http(s) URL of the image")),
		mcp.WithString("filename", mcp.Description("Optional target filename (extension must be an image type)")),
	), s.uploadImage)

	// Resource: how pasted images become LaTeX.
	s.mcp.AddResource(
		mcp.NewResource("texsnap://ocr-workflow", "Image OCR Workflow",
			mcp.WithResourceDescription("How image references in documents are recognised into LaTeX."),
			mcp.WithMIMEType("text/markdown"),
		),
		s.readWorkflowResource,
	)

	return s
}

// ServeStdio starts the MCP server on stdin/stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcp)
}

// MCPServer returns the underlying server for testing.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcp
}

func (s *Server) readNote(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := req.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	data, err := s.store.Read(path)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("not found: %s", path)), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}

func (s *Server) listNotes(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	folder := ""
	if f, err := req.RequireString("folder"); err == nil {
		folder = f
	}

	infos, err := s.store.List(folder, ".md")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var paths []string
	for _, fi := range infos {
		paths = append(paths, fi.Path)
	}
	return mcp.NewToolResultText(strings.Join(paths, "\n")), nil
}

func (s *Server) ocrSelection(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := req.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	selection, err := req.RequireString("selection")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	text, err := s.man.OcrSelection(ctx, path, selection)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(text), nil
}

func (s *Server) ocrDocument(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := req.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	sum, err := s.man.OcrDocument(ctx, path)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	out, _ := json.Marshal(sum)
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) setAutoMode(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	enabled, err := req.RequireBool("enabled")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	s.ctrl.SetAuto(enabled)
	out, _ := json.Marshal(s.ctrl.Status())
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) autoStatus(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	out, _ := json.Marshal(s.ctrl.Status())
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) readWorkflowResource(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      "texsnap://ocr-workflow",
			MIMEType: "text/markdown",
			Text:     WorkflowGuide,
		},
	}, nil
}
