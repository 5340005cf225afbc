package services

import (
	"context"
	"fmt"
	"net/url"
	"sync"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"model-registry-service/internal/core/domain"
	"model-registry-service/internal/core/store"
	"model-registry-service/internal/core/tracker"
)

type PageStatus string

const (
	PageLoading  PageStatus = "LOADING"
	PageReady    PageStatus = "READY"
	PageError    PageStatus = "ERROR"
	PageNotFound PageStatus = "NOT_FOUND"
)

const (
	PageKindModel           = "model"
	PageKindModelVersion    = "model-version"
	PageKindPendingRequests = "pending-requests"
)

// Page is a mounted detail page of a session.
type Page interface {
	ID() string
	Kind() string
	// Mount starts the initial loads and, once they settle, polling. It
	// returns immediately; Loaded is closed when the initial loads are done.
	Mount(ctx context.Context)
	Loaded() <-chan struct{}
	Unmount()
	View() interface{}
}

// PageHeader is the part of every page view that describes its state.
type PageHeader struct {
	PageID   string     `json:"page_id"`
	Kind     string     `json:"kind"`
	Status   PageStatus `json:"status"`
	Error    string     `json:"error,omitempty"`
	Redirect string     `json:"redirect,omitempty"`
}

// page holds the critical request set and outcome shared by all pages.
type page struct {
	id      string
	kind    string
	d       *Dispatcher
	refresh *RefreshController

	mu       sync.Mutex
	critical map[string]string
	err      error
	notFound bool

	mountOnce sync.Once
	loaded    chan struct{}
}

func newPage(kind string, d *Dispatcher) *page {
	return &page{
		id:       uuid.NewString(),
		kind:     kind,
		d:        d,
		critical: make(map[string]string),
		loaded:   make(chan struct{}),
	}
}

func (p *page) ID() string              { return p.id }
func (p *page) Kind() string            { return p.kind }
func (p *page) Loaded() <-chan struct{} { return p.loaded }

func (p *page) Unmount() {
	p.refresh.Stop()

	p.mu.Lock()
	ids := make([]string, 0, len(p.critical))
	for _, id := range p.critical {
		ids = append(ids, id)
	}
	p.mu.Unlock()
	p.d.Tracker().Forget(ids...)
}

func (p *page) mount(ctx context.Context, load func(ctx context.Context)) {
	p.mountOnce.Do(func() {
		go func() {
			load(ctx)
			close(p.loaded)
			if !p.isNotFound() {
				p.refresh.Start(ctx)
			}
		}()
	})
}

// runCritical runs l as part of the critical set. An optional load that fails
// leaves the critical set so the rest of the page can render.
func (p *page) runCritical(ctx context.Context, l Load, optional bool) error {
	req := p.d.Track(l.Op, tracker.KindInitial)
	p.mu.Lock()
	p.critical[l.Op] = req.ID
	p.mu.Unlock()

	err := l.Fetch(ctx, req)
	if err == nil {
		return nil
	}

	fields := log.Fields{"page": p.kind, "op": l.Op}
	switch {
	case l.Root && domain.IsNotFound(err):
		p.mu.Lock()
		p.notFound = true
		p.mu.Unlock()
		p.refresh.NotFound()
	case optional:
		p.mu.Lock()
		delete(p.critical, l.Op)
		p.mu.Unlock()
		p.d.Release(req)
		log.WithError(err).WithFields(fields).Warn("Optional page load failed")
	default:
		p.mu.Lock()
		if p.err == nil {
			p.err = err
		}
		p.mu.Unlock()
		log.WithError(err).WithFields(fields).Error("Critical page load failed")
	}
	return err
}

// runInitial runs a non-critical initial load. Failures are only logged.
func (p *page) runInitial(ctx context.Context, l Load) {
	req := p.d.Track(l.Op, tracker.KindInitial)
	defer p.d.Release(req)
	if err := l.Fetch(ctx, req); err != nil {
		log.WithError(err).WithFields(log.Fields{"page": p.kind, "op": l.Op}).Warn("Initial page load failed")
	}
}

func (p *page) isNotFound() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.notFound
}

func (p *page) header() PageHeader {
	h := PageHeader{PageID: p.id, Kind: p.kind}

	p.mu.Lock()
	ids := make([]string, 0, len(p.critical))
	for _, id := range p.critical {
		ids = append(ids, id)
	}
	notFound, err := p.notFound, p.err
	p.mu.Unlock()

	if p.refresh.Navigated() {
		h.Redirect = p.refresh.ParentRoute()
	}

	switch {
	case notFound:
		h.Status = PageNotFound
	case p.d.Tracker().AnyPending(ids...):
		h.Status = PageLoading
	case err != nil:
		h.Status = PageError
		h.Error = err.Error()
	default:
		select {
		case <-p.loaded:
			h.Status = PageReady
		default:
			h.Status = PageLoading
		}
	}
	return h
}

func runParallel(ctx context.Context, fns ...func(context.Context)) {
	var wg sync.WaitGroup
	wg.Add(len(fns))
	for _, fn := range fns {
		go func(fn func(context.Context)) {
			defer wg.Done()
			fn(ctx)
		}(fn)
	}
	wg.Wait()
}

func modelRoute(name string) string {
	return "/models/" + url.PathEscape(name)
}

func versionRoute(key domain.VersionKey) string {
	return fmt.Sprintf("%s/versions/%s", modelRoute(key.Name), url.PathEscape(key.Version))
}

// ============================================================================
// Model page
// ============================================================================

type ModelPage struct {
	*page
	name string
	svc  *Services
}

type ModelPageView struct {
	PageHeader
	Model     *domain.RegisteredModel `json:"model,omitempty"`
	Versions  []domain.ModelVersion   `json:"versions"`
	CanEdit   bool                    `json:"can_edit"`
	CanDelete bool                    `json:"can_delete"`
}

func (s *Services) ModelPage(name string) *ModelPage {
	p := &ModelPage{page: newPage(PageKindModel, s.Dispatcher), name: name, svc: s}
	p.refresh = NewRefreshController(s.Dispatcher, RefreshConfig{
		Page:            PageKindModel,
		Interval:        s.opts.PollInterval,
		Loads:           []Load{p.modelLoad(), p.versionsLoad()},
		Visibility:      s.visibility,
		Navigator:       s.navigator,
		ParentRoute:     "/models",
		Cleanup:         store.ModelDeleted{Name: name},
		Instrumentation: s.inst,
	})
	return p
}

func (p *ModelPage) modelLoad() Load {
	return Load{Op: "getRegisteredModel", Root: true, Fetch: func(ctx context.Context, req Request) error {
		_, err := p.svc.Models.fetch(ctx, req, p.name)
		return err
	}}
}

func (p *ModelPage) versionsLoad() Load {
	return Load{Op: "searchModelVersions", Fetch: func(ctx context.Context, req Request) error {
		_, err := p.svc.Versions.search(ctx, req, VersionsOf(p.name))
		return err
	}}
}

func (p *ModelPage) Mount(ctx context.Context) {
	p.mount(ctx, func(ctx context.Context) {
		runParallel(ctx,
			func(ctx context.Context) { _ = p.runCritical(ctx, p.modelLoad(), false) },
			func(ctx context.Context) { p.runInitial(ctx, p.versionsLoad()) },
		)
	})
}

func (p *ModelPage) View() interface{} {
	v := ModelPageView{PageHeader: p.header(), Versions: []domain.ModelVersion{}}
	st := p.d.Store()
	m, ok := st.Model(p.name)
	if !ok {
		return v
	}
	v.Model = &m
	v.Versions = st.Versions(p.name)
	ptrs := make([]*domain.ModelVersion, 0, len(v.Versions))
	for i := range v.Versions {
		ptrs = append(ptrs, &v.Versions[i])
	}
	v.CanEdit = domain.CanEdit(m.PermissionLevel)
	v.CanDelete = domain.CanDeleteModel(m.PermissionLevel, ptrs)
	return v
}

// ============================================================================
// Model version page
// ============================================================================

type ModelVersionPage struct {
	*page
	key   domain.VersionKey
	svc   *Services
	Table *PendingRequestTable
}

// StageMenuItem is one entry of the stage menu of a version.
type StageMenuItem struct {
	ToStage             domain.Stage          `json:"to_stage"`
	Kind                domain.TransitionKind `json:"kind"`
	Description         string                `json:"description"`
	ShowArchiveCheckbox bool                  `json:"show_archive_checkbox"`
	ArchiveDefault      bool                  `json:"archive_default"`
}

type ModelVersionPageView struct {
	PageHeader
	Version         *domain.ModelVersion     `json:"version,omitempty"`
	PermissionLevel domain.PermissionLevel   `json:"permission_level,omitempty"`
	Activities      []domain.Activity        `json:"activities"`
	PendingRequests []PendingRequestRow      `json:"pending_requests"`
	Dialog          *ConfirmationDialog      `json:"dialog,omitempty"`
	StageMenu       []StageMenuItem          `json:"stage_menu"`
	CanEdit         bool                     `json:"can_edit"`
	CanDelete       bool                     `json:"can_delete"`
	Artifact        string                   `json:"artifact,omitempty"`
	Monitoring      []domain.MonitoringEntry `json:"monitoring,omitempty"`
}

func (s *Services) ModelVersionPage(name, version string) *ModelVersionPage {
	key := domain.VersionKey{Name: name, Version: version}
	p := &ModelVersionPage{
		page:  newPage(PageKindModelVersion, s.Dispatcher),
		key:   key,
		svc:   s,
		Table: NewPendingRequestTable(key, s.Dispatcher, s.Transitions),
	}
	p.refresh = NewRefreshController(s.Dispatcher, RefreshConfig{
		Page:            PageKindModelVersion,
		Interval:        s.opts.PollInterval,
		Loads:           []Load{p.versionLoad(), p.activitiesLoad(), p.requestsLoad()},
		Visibility:      s.visibility,
		Navigator:       s.navigator,
		ParentRoute:     modelRoute(name),
		Cleanup:         store.VersionDeleted{Key: key},
		Instrumentation: s.inst,
	})
	return p
}

func (p *ModelVersionPage) versionLoad() Load {
	return Load{Op: "getModelVersion", Root: true, Fetch: func(ctx context.Context, req Request) error {
		_, err := p.svc.Versions.fetch(ctx, req, p.key.Name, p.key.Version)
		return err
	}}
}

func (p *ModelVersionPage) modelLoad() Load {
	return Load{Op: "getRegisteredModel", Fetch: func(ctx context.Context, req Request) error {
		_, err := p.svc.Models.fetch(ctx, req, p.key.Name)
		return err
	}}
}

func (p *ModelVersionPage) activitiesLoad() Load {
	return Load{Op: "listActivities", Fetch: func(ctx context.Context, req Request) error {
		_, err := p.svc.Activities.fetchActivities(ctx, req, p.key)
		return err
	}}
}

func (p *ModelVersionPage) requestsLoad() Load {
	return Load{Op: "listTransitionRequests", Fetch: func(ctx context.Context, req Request) error {
		_, err := p.svc.Activities.fetchTransitionRequests(ctx, req, p.key)
		return err
	}}
}

func (p *ModelVersionPage) artifactLoad() Load {
	return Load{Op: "getModelVersionArtifact", Fetch: func(ctx context.Context, req Request) error {
		v, ok := p.d.Store().Version(p.key)
		if !ok {
			_, err := Complete(p.d, req, struct{}{}, domain.ErrVersionNotFound, nil)
			return err
		}
		_, err := p.svc.Versions.fetchArtifact(ctx, req, v)
		return err
	}}
}

func (p *ModelVersionPage) Mount(ctx context.Context) {
	p.mount(ctx, func(ctx context.Context) {
		var versionErr error
		runParallel(ctx,
			func(ctx context.Context) { versionErr = p.runCritical(ctx, p.versionLoad(), false) },
			func(ctx context.Context) { _ = p.runCritical(ctx, p.modelLoad(), false) },
			func(ctx context.Context) { p.runInitial(ctx, p.activitiesLoad()) },
			func(ctx context.Context) { p.runInitial(ctx, p.requestsLoad()) },
		)
		if versionErr == nil {
			_ = p.runCritical(ctx, p.artifactLoad(), true)
		}
	})
}

func (p *ModelVersionPage) View() interface{} {
	v := ModelVersionPageView{
		PageHeader:      p.header(),
		Activities:      []domain.Activity{},
		PendingRequests: []PendingRequestRow{},
		StageMenu:       []StageMenuItem{},
	}
	st := p.d.Store()
	mv, ok := st.Version(p.key)
	if !ok {
		return v
	}

	level := PermissionLevel(st, p.key)
	v.Version = &mv
	v.PermissionLevel = level
	v.Activities = st.Activities(p.key)
	v.PendingRequests = p.Table.Rows()
	v.Dialog = p.Table.Dialog()
	v.StageMenu = stageMenu(level, mv.CurrentStage, p.svc.Features().TransitionRequests)
	v.CanEdit = domain.CanEdit(level)
	v.CanDelete = domain.CanDeleteVersion(level, &mv)
	if b, ok := st.Artifact(p.key); ok {
		v.Artifact = string(b)
	}
	v.Monitoring = p.svc.Monitoring.Entries(p.key)
	return v
}

// stageMenu lists direct transitions the caller may apply and, when requests
// are enabled, the requests the caller may file for the remaining stages.
func stageMenu(level domain.PermissionLevel, current domain.Stage, requests bool) []StageMenuItem {
	items := []StageMenuItem{}
	direct := make(map[domain.Stage]bool)
	for _, to := range domain.TransitionTargets(level, current) {
		direct[to] = true
		offered := domain.ArchiveOffered(domain.TransitionApply, to)
		items = append(items, StageMenuItem{
			ToStage:             to,
			Kind:                domain.TransitionApply,
			Description:         domain.TransitionApply.Description(to),
			ShowArchiveCheckbox: offered,
			ArchiveDefault:      offered,
		})
	}
	if !requests {
		return items
	}
	for _, to := range domain.RequestTargets(level, current) {
		if direct[to] {
			continue
		}
		items = append(items, StageMenuItem{
			ToStage:     to,
			Kind:        domain.TransitionRequested,
			Description: domain.TransitionRequested.Description(to),
		})
	}
	return items
}

// ============================================================================
// Pending requests page
// ============================================================================

type PendingRequestsPage struct {
	*page
	key   domain.VersionKey
	svc   *Services
	Table *PendingRequestTable
}

type PendingRequestsPageView struct {
	PageHeader
	Rows   []PendingRequestRow `json:"rows"`
	Dialog *ConfirmationDialog `json:"dialog,omitempty"`
}

func (s *Services) PendingRequestsPage(name, version string) *PendingRequestsPage {
	key := domain.VersionKey{Name: name, Version: version}
	p := &PendingRequestsPage{
		page:  newPage(PageKindPendingRequests, s.Dispatcher),
		key:   key,
		svc:   s,
		Table: NewPendingRequestTable(key, s.Dispatcher, s.Transitions),
	}
	p.refresh = NewRefreshController(s.Dispatcher, RefreshConfig{
		Page:            PageKindPendingRequests,
		Interval:        s.opts.PollInterval,
		Loads:           []Load{p.requestsLoad()},
		Visibility:      s.visibility,
		Navigator:       s.navigator,
		ParentRoute:     versionRoute(key),
		Cleanup:         store.TransitionRequestsListed{Key: key},
		Instrumentation: s.inst,
	})
	return p
}

func (p *PendingRequestsPage) requestsLoad() Load {
	return Load{Op: "listTransitionRequests", Root: true, Fetch: func(ctx context.Context, req Request) error {
		_, err := p.svc.Activities.fetchTransitionRequests(ctx, req, p.key)
		return err
	}}
}

func (p *PendingRequestsPage) Mount(ctx context.Context) {
	p.mount(ctx, func(ctx context.Context) {
		_ = p.runCritical(ctx, p.requestsLoad(), false)
	})
}

func (p *PendingRequestsPage) View() interface{} {
	return PendingRequestsPageView{
		PageHeader: p.header(),
		Rows:       p.Table.Rows(),
		Dialog:     p.Table.Dialog(),
	}
}

// Table returns the pending-request table of a page, if it has one.
func Table(p Page) (*PendingRequestTable, bool) {
	switch pg := p.(type) {
	case *ModelVersionPage:
		return pg.Table, true
	case *PendingRequestsPage:
		return pg.Table, true
	}
	return nil, false
}
