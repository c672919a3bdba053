// Package dashboard holds the per-browser-session state machine: who is
// signed in, the live credit balance, the file listing, the processing form
// and the generated artifacts. Every user action lands here and ends as a
// status message on its own region of the View.
package dashboard

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"resume-portal/internal/files"
	"resume-portal/internal/identity"
	"resume-portal/internal/ledger"
	"resume-portal/internal/processor"
	"resume-portal/internal/shared/metrics"
	"resume-portal/internal/shared/telemetry"
)

// DefaultClearAfter is how long a success or error status stays visible.
const DefaultClearAfter = 10 * time.Second

// SessionExpiredMessage is shown when the identity client drops the session.
const SessionExpiredMessage = "Your session has expired. Please sign in again."

// Ledger is the credit collaborator.
type Ledger interface {
	Grant(ctx context.Context, userID string) error
	Reconcile(ctx context.Context, userID string) (bool, error)
	ChargeUpload(ctx context.Context, userID string) (ledger.Record, error)
	Subscribe(ctx context.Context, userID string) (*ledger.Subscription, error)
}

// Files is the file manager collaborator.
type Files interface {
	List(ctx context.Context, userID string) ([]files.Entry, error)
	Upload(ctx context.Context, userID, name string, r io.Reader) (files.Entry, error)
	Delete(ctx context.Context, userID, path string) error
}

// Processor is the processing API collaborator.
type Processor interface {
	ProcessResume(ctx context.Context, resumeURL, jobDescriptionURL string) (processor.ProcessResult, error)
	ListProcessed(ctx context.Context) ([]processor.Artifact, error)
	Call(ctx context.Context, path string, requiresAuth bool) (any, error)
}

// Deps are the collaborators of one Controller.
type Deps struct {
	Identity   identity.Client
	Ledger     Ledger
	Files      Files
	Processor  Processor
	ClearAfter time.Duration
}

// Controller serialises the state of one browser session. All methods are
// safe for concurrent use.
type Controller struct {
	deps Deps

	life    context.Context
	stop    context.CancelFunc
	wg      sync.WaitGroup
	unwatch func()

	mu       sync.Mutex
	view     View
	session  *identity.Session
	pending  *files.Entry
	sub      *ledger.Subscription
	epoch    uint64
	seq      map[Region]uint64
	timers   map[*time.Timer]struct{}
	watchers map[int]chan struct{}
	nextID   int
	closed   bool
}

// New builds a controller and starts following the identity client's
// session changes. Call Close when the browser session ends.
func New(deps Deps) *Controller {
	if deps.ClearAfter <= 0 {
		deps.ClearAfter = DefaultClearAfter
	}
	life, stop := context.WithCancel(context.Background())
	c := &Controller{
		deps:     deps,
		life:     life,
		stop:     stop,
		seq:      make(map[Region]uint64),
		timers:   make(map[*time.Timer]struct{}),
		watchers: make(map[int]chan struct{}),
	}
	c.resetLocked()
	c.view.Screen = ScreenAuth

	events, unwatch := deps.Identity.Watch()
	c.unwatch = unwatch
	c.wg.Add(1)
	go c.followIdentity(events)

	if s, ok := deps.Identity.Current(); ok {
		c.enterSignedIn(life, s, false)
	}
	return c
}

// Close signs the view out locally, stops timers and waits for background
// goroutines. The identity session itself is left alone.
func (c *Controller) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	sub := c.sub
	c.sub = nil
	for t := range c.timers {
		t.Stop()
	}
	c.timers = map[*time.Timer]struct{}{}
	for id, ch := range c.watchers {
		close(ch)
		delete(c.watchers, id)
	}
	c.mu.Unlock()

	if sub != nil {
		sub.Cancel()
	}
	c.unwatch()
	c.stop()
	c.wg.Wait()
}

// View returns a snapshot of the current state.
func (c *Controller) View() View {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.view.clone()
}

// Watch returns a channel that receives a signal after every change. Only the
// latest signal is kept. The returned func unsubscribes.
func (c *Controller) Watch() (<-chan struct{}, func()) {
	ch := make(chan struct{}, 1)
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		close(ch)
		return ch, func() {}
	}
	id := c.nextID
	c.nextID++
	c.watchers[id] = ch
	c.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			c.mu.Lock()
			defer c.mu.Unlock()
			if w, ok := c.watchers[id]; ok {
				delete(c.watchers, id)
				close(w)
			}
		})
	}
}

// SignUp creates an account, grants the initial credits and enters the
// dashboard.
func (c *Controller) SignUp(ctx context.Context, email, password string) error {
	c.setStatus(RegionAuth, LevelInfo, "Creating account…")
	s, err := c.deps.Identity.SignUp(ctx, strings.TrimSpace(email), password)
	if err != nil {
		return c.authFailed("signup", err)
	}
	c.enterSignedIn(ctx, s, true)
	return nil
}

// SignIn authenticates with email and password.
func (c *Controller) SignIn(ctx context.Context, email, password string) error {
	c.setStatus(RegionAuth, LevelInfo, "Signing in…")
	s, err := c.deps.Identity.SignIn(ctx, strings.TrimSpace(email), password)
	if err != nil {
		return c.authFailed("signin", err)
	}
	c.enterSignedIn(ctx, s, false)
	return nil
}

// SignInWithFederated exchanges an external credential for a session.
// First-time identities get their ledger record from the reconcile step.
func (c *Controller) SignInWithFederated(ctx context.Context, cred identity.FederatedCredential) error {
	s, err := c.deps.Identity.SignInWithFederated(ctx, cred)
	if err != nil {
		return c.authFailed("federated", err)
	}
	c.enterSignedIn(ctx, s, false)
	return nil
}

// SignOut ends the session.
func (c *Controller) SignOut(ctx context.Context) error {
	err := c.deps.Identity.SignOut(ctx)
	c.enterSignedOut(false)
	if err != nil {
		telemetry.Warn("dashboard.signout_failed", map[string]any{"error": err.Error()})
	}
	return err
}

// FailAuth shows err in the auth region. It is used by sign-in flows that
// fail before reaching the identity client.
func (c *Controller) FailAuth(err error) {
	_ = c.authFailed("external", err)
}

func (c *Controller) authFailed(op string, err error) error {
	metrics.IncSignInFailed()
	telemetry.Warn("dashboard.auth_failed", map[string]any{"op": op, "error": err.Error()})
	c.setStatus(RegionAuth, LevelError, describe(err))
	return err
}

// enterSignedIn resets the view for s. A fresh account is granted its
// credits outright; any other session goes through Reconcile.
func (c *Controller) enterSignedIn(ctx context.Context, s identity.Session, fresh bool) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	if c.session != nil && c.session.UserID == s.UserID {
		c.mu.Unlock()
		return
	}
	old := c.sub
	c.sub = nil
	c.resetLocked()
	c.epoch++
	epoch := c.epoch
	sess := s
	c.session = &sess
	c.view.Screen = ScreenDashboard
	c.view.UserID = s.UserID
	c.view.Email = s.Email
	c.bumpLocked()
	c.mu.Unlock()
	if old != nil {
		old.Cancel()
	}

	metrics.IncSignIn()
	telemetry.Info("dashboard.signed_in", map[string]any{"user_id": s.UserID, "provider": s.Provider})

	if fresh {
		if err := c.deps.Ledger.Grant(ctx, s.UserID); err != nil {
			c.ledgerFailed(s.UserID, err)
		}
	} else if created, err := c.deps.Ledger.Reconcile(ctx, s.UserID); err != nil {
		c.ledgerFailed(s.UserID, err)
	} else if created {
		telemetry.Info("dashboard.ledger_created", map[string]any{"user_id": s.UserID})
	}

	var g errgroup.Group
	g.Go(func() error { return c.startCredits(epoch, s.UserID) })
	g.Go(func() error { return c.refreshFiles(ctx, epoch, s.UserID) })
	g.Go(func() error { return c.refreshArtifacts(ctx, epoch) })
	if err := g.Wait(); err != nil {
		telemetry.Warn("dashboard.load_incomplete", map[string]any{"user_id": s.UserID, "error": err.Error()})
	}
}

// enterSignedOut is idempotent. The subscription is detached under the lock
// so it is cancelled exactly once.
func (c *Controller) enterSignedOut(expired bool) {
	c.mu.Lock()
	c.signOutLocked(expired)
}

// identityCleared handles a sign-out reported by the identity client. The
// event is dropped when it names another user or the client already holds a
// newer session; both are checked under the lock so a sign-in cannot slip in
// between.
func (c *Controller) identityCleared(ev identity.Event) {
	c.mu.Lock()
	stale := c.session == nil || (ev.UserID != "" && c.session.UserID != ev.UserID)
	if !stale {
		_, stale = c.deps.Identity.Current()
	}
	if stale {
		c.mu.Unlock()
		return
	}
	c.signOutLocked(ev.Expired)
}

// signOutLocked is entered with c.mu held and releases it.
func (c *Controller) signOutLocked(expired bool) {
	if c.closed {
		c.mu.Unlock()
		return
	}
	sub := c.sub
	c.sub = nil
	wasSignedIn := c.session != nil
	c.session = nil
	c.epoch++
	c.resetLocked()
	c.view.Screen = ScreenAuth
	if expired && wasSignedIn {
		c.setStatusLocked(RegionAuth, LevelInfo, SessionExpiredMessage)
	}
	c.bumpLocked()
	c.mu.Unlock()

	if sub != nil {
		sub.Cancel()
	}
	if wasSignedIn {
		telemetry.Info("dashboard.signed_out", map[string]any{"expired": expired})
	}
}

func (c *Controller) followIdentity(events <-chan identity.Event) {
	defer c.wg.Done()
	for {
		select {
		case <-c.life.Done():
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			if ev.Session != nil {
				continue
			}
			c.identityCleared(ev)
		}
	}
}

func (c *Controller) startCredits(epoch uint64, userID string) error {
	sub, err := c.deps.Ledger.Subscribe(c.life, userID)
	if err != nil {
		c.ledgerFailed(userID, err)
		return err
	}
	c.mu.Lock()
	if c.closed || c.epoch != epoch {
		c.mu.Unlock()
		sub.Cancel()
		return nil
	}
	c.sub = sub
	c.wg.Add(1)
	c.mu.Unlock()

	go func() {
		defer c.wg.Done()
		for balance := range sub.Balances() {
			c.applyBalance(epoch, balance)
		}
		c.creditsStreamEnded(epoch, userID, sub)
	}()
	return nil
}

// creditsStreamEnded reports a balance stream that closed while its session
// was still current. Deliberate cancels detach c.sub first and stay silent.
func (c *Controller) creditsStreamEnded(epoch uint64, userID string, sub *ledger.Subscription) {
	c.mu.Lock()
	lost := !c.closed && c.epoch == epoch && c.sub == sub
	if lost {
		c.sub = nil
	}
	c.mu.Unlock()
	if !lost {
		return
	}
	sub.Cancel()
	c.ledgerFailed(userID, &ledger.LedgerError{Op: "subscribe", UserID: userID, Err: ledger.ErrStreamClosed})
}

func (c *Controller) applyBalance(epoch uint64, balance float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.epoch != epoch {
		return
	}
	c.view.BalanceKnown = true
	c.view.Balance = balance
	c.view.CanUpload = ledger.CanUpload(balance)
	if c.view.CanUpload {
		c.view.CreditsMessage = ""
	} else {
		c.view.CreditsMessage = ledger.NoCreditsMessage
	}
	c.bumpLocked()
}

func (c *Controller) ledgerFailed(userID string, err error) {
	telemetry.Error("dashboard.ledger_failed", map[string]any{"user_id": userID, "error": err.Error()})
	c.setStatus(RegionCredits, LevelError, "Could not update credits: "+describe(err))
}

// Upload stores a file under the signed-in user's namespace, charges the
// upload and refreshes the listing.
func (c *Controller) Upload(ctx context.Context, name string, r io.Reader) error {
	c.mu.Lock()
	var reject string
	switch {
	case c.session == nil:
		reject = "Sign in to upload files."
	case !c.view.BalanceKnown || !ledger.CanUpload(c.view.Balance):
		reject = ledger.NoCreditsMessage
	case strings.TrimSpace(name) == "" || r == nil:
		reject = "Choose a file to upload."
	case c.view.Uploading:
		reject = "An upload is already in progress."
	}
	if reject != "" {
		c.setStatusLocked(RegionUpload, LevelError, reject)
		c.bumpLocked()
		c.mu.Unlock()
		return errors.New(reject)
	}
	userID := c.session.UserID
	epoch := c.epoch
	c.view.Uploading = true
	c.setStatusLocked(RegionUpload, LevelInfo, "Uploading "+name+"…")
	c.bumpLocked()
	c.mu.Unlock()

	defer func() {
		c.mu.Lock()
		if c.epoch == epoch {
			c.view.Uploading = false
			c.bumpLocked()
		}
		c.mu.Unlock()
	}()

	entry, err := c.deps.Files.Upload(ctx, userID, name, r)
	if err != nil {
		metrics.IncUploadFailed()
		telemetry.Warn("dashboard.upload_failed", map[string]any{"user_id": userID, "name": name, "error": err.Error()})
		c.setStatusIf(epoch, RegionUpload, LevelError, "Upload failed: "+describe(err))
		return err
	}
	metrics.IncUpload()
	if _, err := c.deps.Ledger.ChargeUpload(ctx, userID); err != nil {
		c.ledgerFailed(userID, err)
	}
	c.setStatusIf(epoch, RegionUpload, LevelSuccess, "Uploaded "+entry.Name+".")
	telemetry.Info("dashboard.uploaded", map[string]any{"user_id": userID, "path": entry.Path, "bytes": entry.SizeBytes})
	_ = c.refreshFiles(ctx, epoch, userID)
	return nil
}

// RefreshFiles reloads the listing.
func (c *Controller) RefreshFiles(ctx context.Context) error {
	c.mu.Lock()
	if c.session == nil {
		c.mu.Unlock()
		return identity.NotSignedIn()
	}
	userID, epoch := c.session.UserID, c.epoch
	c.mu.Unlock()
	return c.refreshFiles(ctx, epoch, userID)
}

func (c *Controller) refreshFiles(ctx context.Context, epoch uint64, userID string) error {
	entries, err := c.deps.Files.List(ctx, userID)
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.epoch != epoch {
		return nil
	}
	if err != nil {
		c.setStatusLocked(RegionFiles, LevelError, "Could not load files: "+describe(err))
		c.bumpLocked()
		return err
	}
	c.view.Files = entries
	c.view.ResumeOptions = files.ResumeCandidates(entries)
	if len(entries) == 0 {
		c.view.FilesMessage = files.NoFilesMessage
	} else {
		c.view.FilesMessage = ""
	}
	c.bumpLocked()
	return nil
}

// RequestDelete marks path for deletion and asks for confirmation.
func (c *Controller) RequestDelete(path string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.session == nil {
		return identity.NotSignedIn()
	}
	for _, e := range c.view.Files {
		if e.Path == path {
			target := e
			c.pending = &target
			c.view.PendingDelete = &target
			c.view.DeletePrompt = fmt.Sprintf("Delete %s? This cannot be undone.", e.Name)
			c.bumpLocked()
			return nil
		}
	}
	c.setStatusLocked(RegionFiles, LevelError, "That file is no longer listed.")
	c.bumpLocked()
	return files.ErrOutsideUser
}

// CancelDelete forgets the pending target without touching the store.
func (c *Controller) CancelDelete() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.clearPendingLocked()
	c.bumpLocked()
}

// ConfirmDelete removes the pending target. A failure raises the blocking
// alert.
func (c *Controller) ConfirmDelete(ctx context.Context) error {
	c.mu.Lock()
	if c.session == nil || c.pending == nil {
		c.mu.Unlock()
		return nil
	}
	if c.view.Deleting {
		c.setStatusLocked(RegionFiles, LevelError, "A delete is already in progress.")
		c.bumpLocked()
		c.mu.Unlock()
		return nil
	}
	target := *c.pending
	userID, epoch := c.session.UserID, c.epoch
	c.clearPendingLocked()
	c.view.Deleting = true
	c.bumpLocked()
	c.mu.Unlock()

	err := c.deps.Files.Delete(ctx, userID, target.Path)

	c.mu.Lock()
	if c.epoch == epoch {
		c.view.Deleting = false
		if err != nil {
			c.view.Alert = fmt.Sprintf("Could not delete %s: %s", target.Name, describe(err))
		} else {
			c.setStatusLocked(RegionFiles, LevelSuccess, "Deleted "+target.Name+".")
		}
	}
	c.bumpLocked()
	c.mu.Unlock()

	if err != nil {
		metrics.IncDeleteFailed()
		telemetry.Warn("dashboard.delete_failed", map[string]any{"user_id": userID, "path": target.Path, "error": err.Error()})
		return err
	}
	metrics.IncDelete()
	telemetry.Info("dashboard.deleted", map[string]any{"user_id": userID, "path": target.Path})
	_ = c.refreshFiles(ctx, epoch, userID)
	return nil
}

// DismissAlert closes the blocking alert.
func (c *Controller) DismissAlert() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.view.Alert = ""
	c.bumpLocked()
}

func (c *Controller) clearPendingLocked() {
	c.pending = nil
	c.view.PendingDelete = nil
	c.view.DeletePrompt = ""
}

// Process submits a resume and job description to the processing API.
func (c *Controller) Process(ctx context.Context, resumeURL, jobDescriptionURL string) error {
	resumeURL = strings.TrimSpace(resumeURL)
	jobDescriptionURL = strings.TrimSpace(jobDescriptionURL)

	c.mu.Lock()
	c.view.Form = ProcessForm{ResumeURL: resumeURL, JobDescriptionURL: jobDescriptionURL}
	var reject string
	switch {
	case c.session == nil:
		reject = "Sign in to process a resume."
	case resumeURL == "" || jobDescriptionURL == "":
		reject = "Select a resume and enter a job description URL."
	case c.view.Processing:
		reject = "A resume is already being processed."
	}
	if reject != "" {
		c.setStatusLocked(RegionProcess, LevelError, reject)
		c.bumpLocked()
		c.mu.Unlock()
		return errors.New(reject)
	}
	userID, epoch := c.session.UserID, c.epoch
	c.view.Processing = true
	c.view.CanProcess = false
	c.setStatusLocked(RegionProcess, LevelInfo, "Processing…")
	c.bumpLocked()
	c.mu.Unlock()

	metrics.IncProcessStarted()
	start := time.Now()
	res, err := c.deps.Processor.ProcessResume(ctx, resumeURL, jobDescriptionURL)
	metrics.ObserveProcessDuration(time.Since(start))

	c.mu.Lock()
	if c.epoch == epoch {
		c.view.Processing = false
		c.view.CanProcess = true
		if err != nil {
			c.setStatusLocked(RegionProcess, LevelError, describe(err))
		} else {
			c.view.Form = ProcessForm{}
			c.setStatusLocked(RegionProcess, LevelSuccess, processedMessage(res))
		}
	}
	c.bumpLocked()
	c.mu.Unlock()

	if err != nil {
		metrics.IncProcessFailed()
		telemetry.Warn("dashboard.process_failed", map[string]any{"user_id": userID, "error": err.Error()})
		return err
	}
	telemetry.Info("dashboard.processed", map[string]any{
		"user_id":     userID,
		"company":     res.CompanyName,
		"duration_ms": time.Since(start).Milliseconds(),
	})
	_ = c.refreshArtifacts(ctx, epoch)
	return nil
}

func processedMessage(res processor.ProcessResult) string {
	switch {
	case res.CompanyName != "" && res.UserName != "":
		return fmt.Sprintf("Resume for %s tailored to %s.", res.UserName, res.CompanyName)
	case res.CompanyName != "":
		return fmt.Sprintf("Resume tailored to %s.", res.CompanyName)
	default:
		return "Resume processed."
	}
}

// RefreshArtifacts reloads the processed documents list.
func (c *Controller) RefreshArtifacts(ctx context.Context) error {
	c.mu.Lock()
	if c.session == nil {
		c.mu.Unlock()
		return identity.NotSignedIn()
	}
	epoch := c.epoch
	c.mu.Unlock()
	return c.refreshArtifacts(ctx, epoch)
}

func (c *Controller) refreshArtifacts(ctx context.Context, epoch uint64) error {
	list, err := c.deps.Processor.ListProcessed(ctx)
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.epoch != epoch {
		return nil
	}
	if err != nil {
		c.setStatusLocked(RegionArtifacts, LevelError, "Could not load processed resumes: "+describe(err))
		c.bumpLocked()
		return err
	}
	c.view.Artifacts = processor.GroupArtifacts(list)
	c.bumpLocked()
	return nil
}

// Fetch calls an arbitrary API path and shows the decoded response.
func (c *Controller) Fetch(ctx context.Context, path string, requiresAuth bool) error {
	path = strings.TrimSpace(path)
	if path == "" {
		path = "/"
	}
	c.mu.Lock()
	epoch := c.epoch
	c.view.FetchResult = ""
	c.setStatusLocked(RegionFetch, LevelInfo, "Calling "+path+"…")
	c.bumpLocked()
	c.mu.Unlock()

	result, err := c.deps.Processor.Call(ctx, path, requiresAuth)

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.epoch != epoch {
		return err
	}
	if err != nil {
		c.setStatusLocked(RegionFetch, LevelError, describe(err))
		c.bumpLocked()
		return err
	}
	c.view.FetchResult = renderResult(result)
	c.setStatusLocked(RegionFetch, LevelSuccess, "GET "+path+" succeeded.")
	c.bumpLocked()
	return nil
}

func renderResult(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Sprint(v)
	}
	return string(b)
}

// resetLocked clears everything tied to a session.
func (c *Controller) resetLocked() {
	for t := range c.timers {
		t.Stop()
	}
	c.timers = make(map[*time.Timer]struct{})
	c.pending = nil
	version := c.view.Version
	c.view = SignedOutView()
	c.view.Version = version
}

func (c *Controller) setStatus(r Region, level Level, text string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.setStatusLocked(r, level, text)
	c.bumpLocked()
}

// setStatusIf drops the update when the session changed meanwhile.
func (c *Controller) setStatusIf(epoch uint64, r Region, level Level, text string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.epoch != epoch {
		return
	}
	c.setStatusLocked(r, level, text)
	c.bumpLocked()
}

func (c *Controller) setStatusLocked(r Region, level Level, text string) {
	c.seq[r]++
	c.view.Statuses[r] = Status{Level: level, Text: text}
	if level == LevelInfo || !autoClears(r) || c.closed {
		return
	}
	seq := c.seq[r]
	var t *time.Timer
	t = time.AfterFunc(c.deps.ClearAfter, func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		delete(c.timers, t)
		if c.closed || c.seq[r] != seq {
			return
		}
		delete(c.view.Statuses, r)
		c.bumpLocked()
	})
	c.timers[t] = struct{}{}
}

// autoClears excludes regions whose message describes standing state.
func autoClears(r Region) bool {
	return r != RegionAuth && r != RegionCredits
}

func (c *Controller) bumpLocked() {
	c.view.Version++
	for _, ch := range c.watchers {
		select {
		case <-ch:
		default:
		}
		ch <- struct{}{}
	}
}

// describe turns a collaborator error into the text shown to the user.
func describe(err error) string {
	var authErr *identity.AuthenticationError
	var apiErr *processor.APIError
	var netErr *processor.NetworkError
	var storeErr *files.StorageError
	var ledgerErr *ledger.LedgerError
	switch {
	case errors.As(err, &authErr):
		return authErr.Error()
	case errors.As(err, &apiErr):
		return apiErr.Message
	case errors.As(err, &netErr):
		return "Could not reach the server: " + netErr.Err.Error()
	case errors.As(err, &storeErr):
		return storeErr.Err.Error()
	case errors.As(err, &ledgerErr):
		return ledgerErr.Err.Error()
	default:
		return err.Error()
	}
}
