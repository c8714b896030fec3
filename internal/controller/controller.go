// Package controller reacts to document changes by submitting newly pasted
// image references for OCR and writing the recognised text back in place.
package controller

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/mattvik/texsnap/internal/apperr"
	"github.com/mattvik/texsnap/internal/gateway"
	"github.com/mattvik/texsnap/internal/ledger"
	"github.com/mattvik/texsnap/internal/mathtex"
	"github.com/mattvik/texsnap/internal/notify"
	"github.com/mattvik/texsnap/internal/resolve"
	"github.com/mattvik/texsnap/internal/scan"
	"github.com/mattvik/texsnap/internal/storage"
	"github.com/mattvik/texsnap/internal/textdiff"
)

// Params bundles the controller's collaborators.
type Params struct {
	Store    storage.Provider
	Resolver *resolve.Resolver
	Gateway  gateway.Recognizer
	Ledger   *ledger.Ledger
	Notifier notify.Notifier
	Logger   *slog.Logger

	// Debounce coalesces change events per quiescence window. Zero reacts
	// to every event immediately.
	Debounce time.Duration

	// Persist, if non-nil, receives a ledger snapshot after every ledger
	// mutation so dedup survives restarts.
	Persist func(map[string][]string)
}

// Status describes the controller's current state.
type Status struct {
	Enabled   bool `json:"enabled"`
	Documents int  `json:"documents"`
	InFlight  int  `json:"in_flight"`
}

type modeReq struct {
	enabled bool
	done    chan struct{}
}

type submitResult struct {
	docPath string
	token   string
	text    string
	err     error
}

// Controller is the auto-OCR state machine.
//
// Concurrency model: a single loop goroutine (Run) owns all mutable state:
// the enabled flag, the per-document baseline snapshots, and the debounce
// timer. Change events, mode switches, and write-backs all pass through the
// loop, so a write-back is always a reread-then-replace against the freshest
// text and the baseline is updated synchronously with every write. Only the
// network-bound submission tail runs on separate goroutines.
type Controller struct {
	p Params

	changeCh chan string
	applyCh  chan submitResult
	modeCh   chan modeReq
	statusCh chan chan Status
}

// New creates a controller in the Disabled state. Run must be called before
// any other method.
func New(p Params) *Controller {
	return &Controller{
		p:        p,
		changeCh: make(chan string, 256),
		applyCh:  make(chan submitResult, 64),
		modeCh:   make(chan modeReq),
		statusCh: make(chan chan Status),
	}
}

// OnChange enqueues a change notification for the document at path.
// Non-blocking; events are dropped only if the queue is saturated.
func (c *Controller) OnChange(path string) {
	select {
	case c.changeCh <- path:
	default:
		c.p.Logger.Warn("controller: change queue full, dropping event", slog.String("path", path))
	}
}

// SetAuto switches auto mode on or off and waits for the transition to take
// effect. Enabling snapshots every vault document as the diff baseline.
// Disabling clears the ledger but retains baselines; in-flight submissions
// are not cancelled.
func (c *Controller) SetAuto(enabled bool) {
	req := modeReq{enabled: enabled, done: make(chan struct{})}
	c.modeCh <- req
	<-req.done
}

// Status reports the current controller state.
func (c *Controller) Status() Status {
	resp := make(chan Status, 1)
	c.statusCh <- resp
	return <-resp
}

// Run executes the controller loop until ctx is cancelled.
func (c *Controller) Run(ctx context.Context) error {
	enabled := false
	baselines := make(map[string]string)
	inFlight := 0

	pending := make(map[string]struct{})
	var debounceTimer *time.Timer
	var debounceCh <-chan time.Time

	scheduleDebounce := func() {
		if debounceTimer == nil {
			debounceTimer = time.NewTimer(c.p.Debounce)
			debounceCh = debounceTimer.C
		} else {
			debounceTimer.Reset(c.p.Debounce)
		}
	}

	process := func(path string) {
		inFlight += c.processChange(ctx, path, baselines)
	}

	for {
		select {
		case <-ctx.Done():
			if debounceTimer != nil {
				debounceTimer.Stop()
			}
			c.p.Logger.Info("controller: stopped")
			return nil

		case req := <-c.modeCh:
			switch {
			case req.enabled && !enabled:
				enabled = true
				c.snapshotVault(baselines)
				c.p.Logger.Info("controller: auto mode enabled", slog.Int("documents", len(baselines)))
			case !req.enabled && enabled:
				enabled = false
				c.p.Ledger.ClearAll()
				c.persistLedger()
				// Baselines are retained: re-enabling without an
				// intervening edit must still see reality.
				c.p.Logger.Info("controller: auto mode disabled")
			}
			close(req.done)

		case path := <-c.changeCh:
			if !enabled {
				continue
			}
			if c.p.Debounce > 0 {
				pending[path] = struct{}{}
				scheduleDebounce()
				continue
			}
			process(path)

		case <-debounceCh:
			for path := range pending {
				process(path)
			}
			clear(pending)

		case res := <-c.applyCh:
			inFlight--
			c.applyResult(res, baselines)

		case resp := <-c.statusCh:
			resp <- Status{Enabled: enabled, Documents: len(baselines), InFlight: inFlight}
		}
	}
}

// snapshotVault captures the current full text of every vault document.
func (c *Controller) snapshotVault(baselines map[string]string) {
	infos, err := c.p.Store.List("", ".md")
	if err != nil {
		c.p.Logger.Warn("controller: vault snapshot failed", slog.String("error", err.Error()))
		return
	}
	for _, info := range infos {
		data, readErr := c.p.Store.Read(info.Path)
		if readErr != nil {
			c.p.Logger.Warn("controller: snapshot read failed",
				slog.String("path", info.Path), slog.String("error", readErr.Error()))
			continue
		}
		baselines[info.Path] = string(data)
	}
}

// processChange runs the steady-state reaction for one change notification
// and returns the number of submissions it started. The baseline is advanced
// to the observed text synchronously; the substituted text only becomes the
// baseline after its write-back lands.
func (c *Controller) processChange(ctx context.Context, path string, baselines map[string]string) int {
	data, err := c.p.Store.Read(path)
	if err != nil {
		// Document gone between event and read; drop its baseline.
		delete(baselines, path)
		return 0
	}
	newText := string(data)

	added := textdiff.Inserted(baselines[path], newText)
	baselines[path] = newText
	if added == "" {
		return 0
	}

	refs := scan.FindAll(added)
	started := 0
	for _, ref := range refs {
		if !c.p.Ledger.ShouldSubmit(path, ref.RawToken) {
			continue
		}
		started++
		go c.submit(ctx, path, ref)
	}
	if started > 0 {
		c.persistLedger()
		c.p.Logger.Info("controller: submitting references",
			slog.String("path", path), slog.Int("count", started))
	}
	return started
}

// submit runs the network-bound tail of one reference: resolve, fetch,
// recognise, normalise. The outcome re-enters the loop for write-back.
func (c *Controller) submit(ctx context.Context, docPath string, ref scan.Reference) {
	res := submitResult{docPath: docPath, token: ref.RawToken}

	imgPath, err := c.p.Resolver.Resolve(ctx, ref.Path, docPath)
	if err == nil {
		var img []byte
		var mime string
		img, mime, err = c.p.Resolver.ReadImage(imgPath)
		if err == nil {
			var text string
			text, err = c.p.Gateway.Recognize(ctx, img, mime)
			if err == nil {
				res.text = mathtex.Normalize(text)
			}
		}
	}
	res.err = err

	select {
	case c.applyCh <- res:
	case <-ctx.Done():
	}
}

// applyResult performs the serialized write-back for one finished submission.
// Failures abort only this reference; the ledger entry stays marked.
func (c *Controller) applyResult(res submitResult, baselines map[string]string) {
	if res.err != nil {
		c.p.Notifier.Error(failureNotice(res.token, res.err))
		c.p.Logger.Warn("controller: submission failed",
			slog.String("path", res.docPath),
			slog.String("token", res.token),
			slog.String("error", res.err.Error()))
		return
	}

	// Reread the live text: the user may have edited since submission.
	data, err := c.p.Store.Read(res.docPath)
	if err != nil {
		c.p.Logger.Warn("controller: write-back read failed",
			slog.String("path", res.docPath), slog.String("error", err.Error()))
		return
	}
	cur := string(data)

	if !strings.Contains(cur, res.token) {
		// Token edited away while OCR was in flight; nothing to replace.
		c.p.Logger.Debug("controller: token no longer present",
			slog.String("path", res.docPath), slog.String("token", res.token))
		return
	}

	next := strings.Replace(cur, res.token, res.text, 1)
	if err := c.p.Store.Write(res.docPath, []byte(next)); err != nil {
		c.p.Notifier.Error(fmt.Sprintf("failed to write recognised text into %s", res.docPath))
		c.p.Logger.Error("controller: write-back failed",
			slog.String("path", res.docPath), slog.String("error", err.Error()))
		return
	}

	// The substitution must never be seen as added text on the next change
	// notification: absorb it into the baseline before leaving the loop.
	baselines[res.docPath] = next

	c.p.Notifier.Info(fmt.Sprintf("recognised %s in %s", res.token, res.docPath))
	c.p.Notifier.DocumentUpdated(res.docPath)
	c.p.Logger.Info("controller: reference replaced",
		slog.String("path", res.docPath), slog.String("token", res.token))
}

func (c *Controller) persistLedger() {
	if c.p.Persist != nil {
		c.p.Persist(c.p.Ledger.Snapshot())
	}
}

// failureNotice maps a submission error to a user-facing message.
func failureNotice(token string, err error) string {
	switch {
	case errors.Is(err, apperr.ErrReferenceNotFound):
		return fmt.Sprintf("image for %s not found", token)
	case errors.Is(err, apperr.ErrGatewayEmpty):
		return fmt.Sprintf("no text recognised in %s", token)
	case errors.Is(err, apperr.ErrGatewayNetwork):
		return fmt.Sprintf("ocr request failed for %s", token)
	default:
		return fmt.Sprintf("could not process %s: %v", token, err)
	}
}
