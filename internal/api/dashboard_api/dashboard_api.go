package dashboard_api

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/BearBump/ShipDesk/internal/export"
	"github.com/BearBump/ShipDesk/internal/integrations/freshdesk"
	"github.com/BearBump/ShipDesk/internal/models"
	"github.com/BearBump/ShipDesk/internal/services/records"
	"github.com/BearBump/ShipDesk/internal/services/snapshot"
	"github.com/BearBump/ShipDesk/internal/services/xref"
	"github.com/go-chi/chi/v5"
	"github.com/pkg/errors"
)

const columnFilterPrefix = "f."

type Snapshots interface {
	Current() snapshot.Snapshot
	Refresh(ctx context.Context) (snapshot.Snapshot, error)
	Notifications() []models.Notification
	MarkAllRead()
	ClearNotifications()
}

type Searcher interface {
	Resolve(ctx context.Context, query string, outbounds []models.OutboundShipment, inbounds []models.InboundReturn) (xref.Result, error)
}

type Helpdesk interface {
	Mode() string
	Configured() bool
	TestConnection(ctx context.Context) error
	TicketsOrEmpty(ctx context.Context, perPage int) []freshdesk.Ticket
	GroupsOrDefault(ctx context.Context) []freshdesk.Group
	ListAgents(ctx context.Context) ([]freshdesk.Agent, error)
	ListTicketFields(ctx context.Context) ([]freshdesk.TicketField, error)
}

type DashboardAPI struct {
	snaps  Snapshots
	search Searcher
	brands []string

	helpdesk Helpdesk
	proxy    http.Handler

	today func() time.Time
}

func New(snaps Snapshots, search Searcher, brands []string) *DashboardAPI {
	return &DashboardAPI{
		snaps:  snaps,
		search: search,
		brands: brands,
		today:  time.Now,
	}
}

// WithHelpdesk wires the ticket client and the /api/*, /v2/* passthrough. Either may be nil.
func (a *DashboardAPI) WithHelpdesk(h Helpdesk, proxy http.Handler) *DashboardAPI {
	a.helpdesk = h
	a.proxy = proxy
	return a
}

// WithToday overrides the clock used for "created today" figures.
func (a *DashboardAPI) WithToday(f func() time.Time) *DashboardAPI {
	if f != nil {
		a.today = f
	}
	return a
}

func (a *DashboardAPI) Routes(r chi.Router) {
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	if a.proxy != nil {
		r.Handle("/api/*", a.proxy)
		r.Handle("/v2/*", a.proxy)
	}

	r.Route("/v1", func(r chi.Router) {
		r.Get("/outbounds", a.listOutbounds)
		r.Get("/inbounds", a.listInbounds)
		r.Get("/outbounds/columns/{key}/values", a.outboundValues)
		r.Get("/inbounds/columns/{key}/values", a.inboundValues)
		r.Get("/outbounds/timeline", a.outboundTimeline)
		r.Get("/inbounds/timeline", a.inboundTimeline)

		r.Get("/search", a.searchRecords)
		r.Post("/refresh", a.refresh)
		r.Get("/sync", a.syncState)

		r.Get("/metrics", a.metrics)
		r.Get("/metrics/outbound/{bucket}", a.outboundBucket)
		r.Get("/metrics/inbound/{bucket}", a.inboundBucket)

		r.Get("/notifications", a.notifications)
		r.Post("/notifications/read", a.markNotificationsRead)
		r.Delete("/notifications", a.clearNotifications)

		r.Get("/export/outbounds.csv", a.exportOutbounds)
		r.Get("/export/inbounds.csv", a.exportInbounds)

		r.Get("/helpdesk/status", a.helpdeskStatus)
		r.Get("/helpdesk/tickets", a.helpdeskTickets)
		r.Get("/helpdesk/groups", a.helpdeskGroups)
		r.Get("/helpdesk/agents", a.helpdeskAgents)
		r.Get("/helpdesk/ticket_fields", a.helpdeskTicketFields)
	})
}

type listResponse[T any] struct {
	Items    []T `json:"items"`
	Total    int `json:"total"`
	Filtered int `json:"filtered"`
}

// FilterFromQuery reads brand, search, start, end, sort, dir and repeated
// f.<column> parameters.
func FilterFromQuery(q map[string][]string) records.Filter {
	get := func(k string) string {
		if vs := q[k]; len(vs) > 0 {
			return vs[0]
		}
		return ""
	}
	f := records.Filter{
		Brand:  get("brand"),
		Search: get("search"),
		Start:  get("start"),
		End:    get("end"),
		Sort:   records.Sort{Key: get("sort"), Dir: get("dir")},
	}
	if f.Sort.Key != "" && f.Sort.Dir == "" {
		f.Sort.Dir = records.SortAsc
	}
	for k, vs := range q {
		key, ok := strings.CutPrefix(k, columnFilterPrefix)
		if !ok || key == "" {
			continue
		}
		if f.Columns == nil {
			f.Columns = map[string][]string{}
		}
		f.Columns[key] = append(f.Columns[key], vs...)
	}
	return f
}

func listRecords[T any](w http.ResponseWriter, r *http.Request, s *records.Schema[T], recs []T) {
	items, err := records.Apply(s, recs, FilterFromQuery(r.URL.Query()))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, listResponse[T]{Items: items, Total: len(recs), Filtered: len(items)})
}

func (a *DashboardAPI) listOutbounds(w http.ResponseWriter, r *http.Request) {
	listRecords(w, r, records.Outbound, a.snaps.Current().Outbounds)
}

func (a *DashboardAPI) listInbounds(w http.ResponseWriter, r *http.Request) {
	listRecords(w, r, records.Inbound, a.snaps.Current().Inbounds)
}

func columnValues[T any](w http.ResponseWriter, r *http.Request, s *records.Schema[T], recs []T) {
	vals, err := records.UniqueValues(s, recs, chi.URLParam(r, "key"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string][]string{"values": vals})
}

func (a *DashboardAPI) outboundValues(w http.ResponseWriter, r *http.Request) {
	columnValues(w, r, records.Outbound, a.snaps.Current().Outbounds)
}

func (a *DashboardAPI) inboundValues(w http.ResponseWriter, r *http.Request) {
	columnValues(w, r, records.Inbound, a.snaps.Current().Inbounds)
}

func timeline[T any](w http.ResponseWriter, r *http.Request, s *records.Schema[T], recs []T) {
	status := r.URL.Query().Get("status")
	if status == "" {
		writeError(w, http.StatusBadRequest, "status is required")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"status": status, "days": records.StatusTimeline(s, recs, status)})
}

func (a *DashboardAPI) outboundTimeline(w http.ResponseWriter, r *http.Request) {
	timeline(w, r, records.Outbound, a.snaps.Current().Outbounds)
}

func (a *DashboardAPI) inboundTimeline(w http.ResponseWriter, r *http.Request) {
	timeline(w, r, records.Inbound, a.snaps.Current().Inbounds)
}

func (a *DashboardAPI) searchRecords(w http.ResponseWriter, r *http.Request) {
	cur := a.snaps.Current()
	res, err := a.search.Resolve(r.Context(), r.URL.Query().Get("q"), cur.Outbounds, cur.Inbounds)
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, res)
	case errors.Is(err, xref.ErrNoRecords):
		writeJSON(w, http.StatusNotFound, xref.Result{Outcome: xref.OutcomeNotFound})
	case errors.Is(err, xref.ErrSearchFailed):
		writeError(w, http.StatusBadGateway, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}

func (a *DashboardAPI) refresh(w http.ResponseWriter, r *http.Request) {
	snap, err := a.snaps.Refresh(r.Context())
	if err != nil {
		writeError(w, http.StatusServiceUnavailable, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, syncView(snap))
}

func (a *DashboardAPI) syncState(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, syncView(a.snaps.Current()))
}

type syncResponse struct {
	snapshot.Snapshot
	Loaded    bool `json:"loaded"`
	Outbounds int  `json:"outbounds"`
	Inbounds  int  `json:"inbounds"`
}

func syncView(s snapshot.Snapshot) syncResponse {
	return syncResponse{Snapshot: s, Loaded: s.Loaded(), Outbounds: len(s.Outbounds), Inbounds: len(s.Inbounds)}
}

func (a *DashboardAPI) metrics(w http.ResponseWriter, r *http.Request) {
	cur := a.snaps.Current()
	writeJSON(w, http.StatusOK, records.ComputeMetrics(cur.Outbounds, cur.Inbounds, a.today(), a.brands))
}

func (a *DashboardAPI) outboundBucket(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "bucket")
	if !records.IsOutboundBucket(name) {
		writeError(w, http.StatusNotFound, "unknown bucket "+name)
		return
	}
	items := records.OutboundBucket(name, a.snaps.Current().Outbounds, a.today())
	writeJSON(w, http.StatusOK, map[string]any{"bucket": name, "items": items})
}

func (a *DashboardAPI) inboundBucket(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "bucket")
	if !records.IsInboundBucket(name) {
		writeError(w, http.StatusNotFound, "unknown bucket "+name)
		return
	}
	items := records.InboundBucket(name, a.snaps.Current().Inbounds)
	writeJSON(w, http.StatusOK, map[string]any{"bucket": name, "items": items})
}

func (a *DashboardAPI) notifications(w http.ResponseWriter, r *http.Request) {
	notes := a.snaps.Notifications()
	unread := 0
	for _, n := range notes {
		if !n.Read {
			unread++
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": notes, "unread": unread})
}

func (a *DashboardAPI) markNotificationsRead(w http.ResponseWriter, r *http.Request) {
	a.snaps.MarkAllRead()
	w.WriteHeader(http.StatusNoContent)
}

func (a *DashboardAPI) clearNotifications(w http.ResponseWriter, r *http.Request) {
	a.snaps.ClearNotifications()
	w.WriteHeader(http.StatusNoContent)
}

func writeCSV[T any](w http.ResponseWriter, s *records.Schema[T], recs []T, filename string) {
	w.Header().Set("Content-Type", export.ContentType)
	w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)
	// заголовки уже отправлены, ошибку записи вернуть клиенту нельзя
	_ = export.WriteCSV(w, s, recs)
}

func (a *DashboardAPI) exportOutbounds(w http.ResponseWriter, r *http.Request) {
	writeCSV(w, records.Outbound, a.snaps.Current().Outbounds, export.Filename("outbound", a.today()))
}

func (a *DashboardAPI) exportInbounds(w http.ResponseWriter, r *http.Request) {
	writeCSV(w, records.Inbound, a.snaps.Current().Inbounds, export.Filename("inbound", a.today()))
}

type helpdeskStatusResponse struct {
	Configured bool   `json:"configured"`
	Mode       string `json:"mode,omitempty"`
	Connected  bool   `json:"connected"`
	Error      string `json:"error,omitempty"`
}

func (a *DashboardAPI) helpdeskStatus(w http.ResponseWriter, r *http.Request) {
	if a.helpdesk == nil || !a.helpdesk.Configured() {
		writeJSON(w, http.StatusOK, helpdeskStatusResponse{})
		return
	}
	resp := helpdeskStatusResponse{Configured: true, Mode: a.helpdesk.Mode()}
	if err := a.helpdesk.TestConnection(r.Context()); err != nil {
		resp.Error = err.Error()
	} else {
		resp.Connected = true
	}
	writeJSON(w, http.StatusOK, resp)
}

type ticketView struct {
	freshdesk.Ticket
	StatusName string `json:"status_name"`
	Active     bool   `json:"active"`
}

// helpdeskTickets lists the newest tickets. scope (25|50|75|all) sets the page,
// per_page overrides it; group narrows to a helpdesk group, the consolidated
// group or MASTER (everything).
func (a *DashboardAPI) helpdeskTickets(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	perPage, err := freshdesk.ParseScope(q.Get("scope"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if v := q.Get("per_page"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			writeError(w, http.StatusBadRequest, "per_page must be a positive integer")
			return
		}
		perPage = n
	}
	group := freshdesk.MasterGroupID
	if v := q.Get("group"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil || id <= 0 {
			writeError(w, http.StatusBadRequest, "group must be a positive group id")
			return
		}
		group = id
	}

	items := []ticketView{}
	if a.helpdesk != nil {
		ts := freshdesk.FilterByGroup(a.helpdesk.TicketsOrEmpty(r.Context(), perPage), group)
		for _, t := range ts {
			items = append(items, ticketView{Ticket: t, StatusName: freshdesk.StatusName(t.Status), Active: freshdesk.IsActive(t.Status)})
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{"tickets": items, "group": group})
}

func (a *DashboardAPI) helpdeskGroups(w http.ResponseWriter, r *http.Request) {
	groups := freshdesk.DefaultGroups
	if a.helpdesk != nil {
		groups = a.helpdesk.GroupsOrDefault(r.Context())
	}
	writeJSON(w, http.StatusOK, map[string]any{"groups": groups})
}

func (a *DashboardAPI) helpdeskAgents(w http.ResponseWriter, r *http.Request) {
	if a.helpdesk == nil {
		writeError(w, http.StatusServiceUnavailable, freshdesk.ErrNotConfigured.Error())
		return
	}
	agents, err := a.helpdesk.ListAgents(r.Context())
	if err != nil {
		writeHelpdeskError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"agents": agents})
}

func (a *DashboardAPI) helpdeskTicketFields(w http.ResponseWriter, r *http.Request) {
	if a.helpdesk == nil {
		writeError(w, http.StatusServiceUnavailable, freshdesk.ErrNotConfigured.Error())
		return
	}
	fields, err := a.helpdesk.ListTicketFields(r.Context())
	if err != nil {
		writeHelpdeskError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ticket_fields": fields})
}

func writeHelpdeskError(w http.ResponseWriter, err error) {
	if errors.Is(err, freshdesk.ErrNotConfigured) {
		writeError(w, http.StatusServiceUnavailable, err.Error())
		return
	}
	writeError(w, http.StatusBadGateway, err.Error())
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, map[string]string{"error": msg})
}
