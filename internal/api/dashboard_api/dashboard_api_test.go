package dashboard_api

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/BearBump/ShipDesk/internal/integrations/freshdesk"
	"github.com/BearBump/ShipDesk/internal/models"
	"github.com/BearBump/ShipDesk/internal/services/records"
	"github.com/BearBump/ShipDesk/internal/services/snapshot"
	"github.com/BearBump/ShipDesk/internal/services/xref"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/suite"
)

type fixedSource struct {
	out []models.OutboundShipment
	in  []models.InboundReturn
}

func (s *fixedSource) FetchAll(ctx context.Context) ([]models.OutboundShipment, []models.InboundReturn) {
	return s.out, s.in
}

func (s *fixedSource) Mode() string { return "mock" }

type fakeHelpdesk struct {
	connErr  error
	tickets  []freshdesk.Ticket
	perPage  int
	groups   []freshdesk.Group
	agents   []freshdesk.Agent
	agentErr error
}

func (h *fakeHelpdesk) Mode() string     { return freshdesk.ModeDirect }
func (h *fakeHelpdesk) Configured() bool { return true }
func (h *fakeHelpdesk) TestConnection(ctx context.Context) error {
	return h.connErr
}
func (h *fakeHelpdesk) TicketsOrEmpty(ctx context.Context, perPage int) []freshdesk.Ticket {
	h.perPage = perPage
	return h.tickets
}
func (h *fakeHelpdesk) GroupsOrDefault(ctx context.Context) []freshdesk.Group {
	if h.groups == nil {
		return freshdesk.DefaultGroups
	}
	return h.groups
}
func (h *fakeHelpdesk) ListAgents(ctx context.Context) ([]freshdesk.Agent, error) {
	return h.agents, h.agentErr
}
func (h *fakeHelpdesk) ListTicketFields(ctx context.Context) ([]freshdesk.TicketField, error) {
	return []freshdesk.TicketField{{ID: 1, Name: "ticket_type", Label: "Type"}}, nil
}

func groupID(v int64) *int64 { return &v }

type DashboardAPISuite struct {
	suite.Suite
	store    *snapshot.Store
	helpdesk *fakeHelpdesk
	proxyHit bool
	srv      *httptest.Server
}

func TestDashboardAPISuite(t *testing.T) {
	suite.Run(t, new(DashboardAPISuite))
}

func (s *DashboardAPISuite) SetupTest() {
	src := &fixedSource{
		out: []models.OutboundShipment{
			{ID: "1", OrderID: "ORD-20000", SourceStoreOrderID: "SHP-20000", Brand: "Diesel", Date: "2025-12-14 09:10", Status: "SHIPPED", Tracking: "TRK1", Customer: "Jane Doe"},
			{ID: "2", OrderID: "ORD-20001", SourceStoreOrderID: "SHP-20001", Brand: "Hurley", Date: "2025-12-12 11:00", Status: "DELIVERED", Customer: "John Roe"},
			{ID: "3", OrderID: "ORD-20002", SourceStoreOrderID: "SHP-20002", Brand: "Diesel", Date: "2025-12-10 08:00", Status: "CANCELLED"},
		},
		in: []models.InboundReturn{
			{ReturnID: "RET-DIE-5000", SourceShipmentID: "SHP-20000", Reference: "RMA-D-20000", Brand: "Diesel", Date: "2025-12-13 10:00", Status: "AWAITING_ARRIVAL"},
		},
	}
	s.store = snapshot.New(src, time.Second)
	_, err := s.store.Refresh(context.Background())
	s.Require().NoError(err)

	s.helpdesk = &fakeHelpdesk{tickets: []freshdesk.Ticket{{ID: 1, Subject: "Where is my order", Status: 17}}}
	s.proxyHit = false
	proxy := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.proxyHit = true
		w.WriteHeader(http.StatusTeapot)
	})

	today := time.Date(2025, 12, 14, 12, 0, 0, 0, time.Local)
	api := New(s.store, xref.New(nil), []string{"Diesel", "Hurley"}).
		WithHelpdesk(s.helpdesk, proxy).
		WithToday(func() time.Time { return today })

	r := chi.NewRouter()
	api.Routes(r)
	s.srv = httptest.NewServer(r)
}

func (s *DashboardAPISuite) TearDownTest() {
	s.srv.Close()
}

func (s *DashboardAPISuite) get(path string, out any) int {
	resp, err := http.Get(s.srv.URL + path)
	s.Require().NoError(err)
	defer resp.Body.Close()
	if out != nil {
		s.Require().NoError(json.NewDecoder(resp.Body).Decode(out))
	}
	return resp.StatusCode
}

func (s *DashboardAPISuite) TestHealth() {
	var body map[string]string
	s.Equal(http.StatusOK, s.get("/health", &body))
	s.Equal("ok", body["status"])
}

func (s *DashboardAPISuite) TestListOutbounds_FilterAndSort() {
	var body listResponse[models.OutboundShipment]
	s.Equal(http.StatusOK, s.get("/v1/outbounds?brand=Diesel&sort=date&dir=asc", &body))
	s.Equal(3, body.Total)
	s.Equal(2, body.Filtered)
	s.Equal("3", body.Items[0].ID)
	s.Equal("1", body.Items[1].ID)
}

func (s *DashboardAPISuite) TestListOutbounds_ColumnFilter() {
	q := url.Values{}
	q.Add("f.status", "SHIPPED")
	q.Add("f.status", "DELIVERED")
	var body listResponse[models.OutboundShipment]
	s.Equal(http.StatusOK, s.get("/v1/outbounds?"+q.Encode(), &body))
	s.Equal(2, body.Filtered)
}

func (s *DashboardAPISuite) TestListOutbounds_BadRequest() {
	s.Equal(http.StatusBadRequest, s.get("/v1/outbounds?f.nope=x", nil))
	s.Equal(http.StatusBadRequest, s.get("/v1/outbounds?start=14-12-2025", nil))
	s.Equal(http.StatusBadRequest, s.get("/v1/outbounds?sort=id&dir=up", nil))
}

func (s *DashboardAPISuite) TestListInbounds_Search() {
	var body listResponse[models.InboundReturn]
	s.Equal(http.StatusOK, s.get("/v1/inbounds?search=rma-d", &body))
	s.Equal(1, body.Filtered)
}

func (s *DashboardAPISuite) TestColumnValues() {
	var body map[string][]string
	s.Equal(http.StatusOK, s.get("/v1/outbounds/columns/tracking/values", &body))
	s.Equal([]string{"-", "TRK1"}, body["values"])

	s.Equal(http.StatusBadRequest, s.get("/v1/inbounds/columns/nope/values", nil))
}

func (s *DashboardAPISuite) TestSearch_FoundWithLink() {
	var res xref.Result
	s.Equal(http.StatusOK, s.get("/v1/search?q=ORD-20000", &res))
	s.Equal(xref.OutcomeFound, res.Outcome)
	s.Require().NotNil(res.Inbound)
	s.Equal("RET-DIE-5000", res.Inbound.ReturnID)
	s.Equal(xref.LinkFound, res.Link)
}

func (s *DashboardAPISuite) TestSearch_NotFound() {
	var res xref.Result
	s.Equal(http.StatusNotFound, s.get("/v1/search?q=nothing-here", &res))
	s.Equal(xref.OutcomeNotFound, res.Outcome)
}

func (s *DashboardAPISuite) TestRefreshAndSync() {
	resp, err := http.Post(s.srv.URL+"/v1/refresh", "application/json", nil)
	s.Require().NoError(err)
	defer resp.Body.Close()
	s.Equal(http.StatusOK, resp.StatusCode)

	var body map[string]any
	s.Require().NoError(json.NewDecoder(resp.Body).Decode(&body))
	s.Equal(true, body["loaded"])
	s.Equal(float64(3), body["outbounds"])
	// same ids as the first load
	s.Equal(float64(0), body["newCount"])
	s.Equal("mock", body["mode"])
}

func (s *DashboardAPISuite) TestMetrics() {
	var m records.Metrics
	s.Equal(http.StatusOK, s.get("/v1/metrics", &m))
	s.Equal(2, m.Outbound[records.BucketTotalOrders])
	s.Equal(1, m.Outbound[records.BucketDelivered])
	s.Equal(1, m.Outbound[records.BucketCreatedToday])
	s.Equal(1, m.Inbound[records.BucketPendingIn])
	s.Equal([]string{"Diesel", "Hurley"}, m.OutboundMatrix.Brands)
}

func (s *DashboardAPISuite) TestMetricBuckets() {
	var body struct {
		Items []models.OutboundShipment `json:"items"`
	}
	s.Equal(http.StatusOK, s.get("/v1/metrics/outbound/"+records.BucketCreatedToday, &body))
	s.Len(body.Items, 1)
	s.Equal(http.StatusNotFound, s.get("/v1/metrics/outbound/NOPE", nil))
	s.Equal(http.StatusOK, s.get("/v1/metrics/inbound/"+records.BucketMissingWaybill, nil))
}

func (s *DashboardAPISuite) TestTimeline() {
	var body struct {
		Days []records.DayCount `json:"days"`
	}
	s.Equal(http.StatusOK, s.get("/v1/outbounds/timeline?status=SHIPPED", &body))
	s.Len(body.Days, 1)
	s.Equal(http.StatusBadRequest, s.get("/v1/inbounds/timeline", nil))
}

func (s *DashboardAPISuite) TestNotifications() {
	var body struct {
		Items  []models.Notification `json:"items"`
		Unread int                   `json:"unread"`
	}
	s.Equal(http.StatusOK, s.get("/v1/notifications", &body))
	s.Require().Len(body.Items, 1)
	s.Equal("Records Synced", body.Items[0].Title)
	s.Equal(1, body.Unread)

	resp, err := http.Post(s.srv.URL+"/v1/notifications/read", "", nil)
	s.Require().NoError(err)
	resp.Body.Close()
	s.Equal(http.StatusNoContent, resp.StatusCode)
	s.True(s.store.Notifications()[0].Read)

	req, _ := http.NewRequest(http.MethodDelete, s.srv.URL+"/v1/notifications", nil)
	resp, err = http.DefaultClient.Do(req)
	s.Require().NoError(err)
	resp.Body.Close()
	s.Empty(s.store.Notifications())
}

func (s *DashboardAPISuite) TestExportCSV() {
	resp, err := http.Get(s.srv.URL + "/v1/export/outbounds.csv?brand=Hurley")
	s.Require().NoError(err)
	defer resp.Body.Close()
	s.Equal(http.StatusOK, resp.StatusCode)
	s.Contains(resp.Header.Get("Content-Disposition"), "outbound_tracker_2025-12-14.csv")

	rows, err := csv.NewReader(resp.Body).ReadAll()
	s.Require().NoError(err)
	// filters do not apply to exports
	s.Len(rows, 4)
	s.Equal(records.Outbound.Keys(), rows[0])
}

func (s *DashboardAPISuite) TestHelpdeskStatus() {
	var body helpdeskStatusResponse
	s.Equal(http.StatusOK, s.get("/v1/helpdesk/status", &body))
	s.True(body.Connected)

	s.helpdesk.connErr = errors.New("auth failed")
	body = helpdeskStatusResponse{}
	s.Equal(http.StatusOK, s.get("/v1/helpdesk/status", &body))
	s.False(body.Connected)
	s.Equal("auth failed", body.Error)
}

func (s *DashboardAPISuite) TestHelpdeskTickets() {
	var body struct {
		Tickets []ticketView `json:"tickets"`
	}
	s.Equal(http.StatusOK, s.get("/v1/helpdesk/tickets?per_page=5", &body))
	s.Require().Len(body.Tickets, 1)
	s.Equal("Waiting on Warehouse", body.Tickets[0].StatusName)
	s.True(body.Tickets[0].Active)
	s.Equal(5, s.helpdesk.perPage)

	s.Equal(http.StatusBadRequest, s.get("/v1/helpdesk/tickets?per_page=x", nil))
}

func (s *DashboardAPISuite) TestHelpdeskTickets_ScopeAndGroup() {
	s.helpdesk.tickets = []freshdesk.Ticket{
		{ID: 1, Status: 2, GroupID: groupID(24000009010)}, // Diesel
		{ID: 2, Status: 2, GroupID: groupID(24000009052)}, // Hurley
		{ID: 3, Status: 5, GroupID: groupID(24000008969)}, // Levi's
		{ID: 4, Status: 2},
	}
	var body struct {
		Tickets []ticketView `json:"tickets"`
		Group   int64        `json:"group"`
	}
	ids := func() []int64 {
		out := []int64{}
		for _, t := range body.Tickets {
			out = append(out, t.ID)
		}
		return out
	}

	s.Equal(http.StatusOK, s.get("/v1/helpdesk/tickets?scope=50", &body))
	s.Equal(50, s.helpdesk.perPage)
	s.Equal(freshdesk.MasterGroupID, body.Group)
	s.Equal([]int64{1, 2, 3, 4}, ids())

	body.Tickets = nil
	s.Equal(http.StatusOK, s.get("/v1/helpdesk/tickets?scope=all&group=999999999", &body))
	s.Equal(100, s.helpdesk.perPage)
	s.Equal([]int64{1, 2}, ids())

	body.Tickets = nil
	s.Equal(http.StatusOK, s.get("/v1/helpdesk/tickets?group=24000008969&per_page=10", &body))
	s.Equal(10, s.helpdesk.perPage)
	s.Equal([]int64{3}, ids())
	s.False(body.Tickets[0].Active)

	s.Equal(http.StatusBadRequest, s.get("/v1/helpdesk/tickets?scope=custom", nil))
	s.Equal(http.StatusBadRequest, s.get("/v1/helpdesk/tickets?group=abc", nil))
}

func (s *DashboardAPISuite) TestHelpdeskGroups() {
	var body struct {
		Groups []freshdesk.Group `json:"groups"`
	}
	s.Equal(http.StatusOK, s.get("/v1/helpdesk/groups", &body))
	s.Equal(freshdesk.DefaultGroups, body.Groups)

	s.helpdesk.groups = []freshdesk.Group{{ID: freshdesk.MasterGroupID, Name: "MASTER Executive Report"}, {ID: 7, Name: "Ops"}}
	s.Equal(http.StatusOK, s.get("/v1/helpdesk/groups", &body))
	s.Len(body.Groups, 2)
	s.Equal("Ops", body.Groups[1].Name)
}

func (s *DashboardAPISuite) TestHelpdeskMetadata() {
	s.helpdesk.agents = []freshdesk.Agent{{ID: 5, Available: true, Contact: freshdesk.AgentContact{Name: "Ann"}}}
	var agents struct {
		Agents []freshdesk.Agent `json:"agents"`
	}
	s.Equal(http.StatusOK, s.get("/v1/helpdesk/agents", &agents))
	s.Require().Len(agents.Agents, 1)
	s.Equal("Ann", agents.Agents[0].Contact.Name)

	var fields struct {
		Fields []freshdesk.TicketField `json:"ticket_fields"`
	}
	s.Equal(http.StatusOK, s.get("/v1/helpdesk/ticket_fields", &fields))
	s.Require().Len(fields.Fields, 1)

	s.helpdesk.agentErr = freshdesk.ErrNotConfigured
	s.Equal(http.StatusServiceUnavailable, s.get("/v1/helpdesk/agents", nil))
	s.helpdesk.agentErr = errors.New("upstream 500")
	s.Equal(http.StatusBadGateway, s.get("/v1/helpdesk/agents", nil))
}

func (s *DashboardAPISuite) TestProxyMounted() {
	s.Equal(http.StatusTeapot, s.get("/v2/tickets", nil))
	s.True(s.proxyHit)
}

func TestFilterFromQuery(t *testing.T) {
	q := url.Values{}
	q.Set("brand", "Diesel")
	q.Set("sort", "date")
	q.Add("f.brand", "Diesel")
	q.Add("f.", "ignored")
	f := FilterFromQuery(q)

	if f.Sort.Dir != records.SortAsc || f.Brand != "Diesel" || len(f.Columns) != 1 {
		t.Fatalf("unexpected filter %+v", f)
	}
}
