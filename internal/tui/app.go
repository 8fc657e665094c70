package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"tripline/internal/api"
	"tripline/internal/config"
	"tripline/internal/service"
)

// App ties together the trip views.
type App struct {
	ctx       context.Context
	cfg       config.Config
	queries   *service.TripQueries
	assigner  *service.Assigner
	offloader *service.Offloading
	userID    string
	role      string
	tz        *time.Location

	state  appState
	status string

	// trip tabs
	activeTab  int
	tripCursor int
	searching  bool
	search     string

	// assignment form
	drivers       []service.Option
	trips         []service.Option
	driverCursor  int
	tripPick      int
	assignField   assignField
	fuelling      bool
	assignModal   bool
	optionsErr    string

	// offloading form
	offloadTripID api.ID
	qtyInput      string
	remarksInput  string
	offloadField  offloadField
	fieldErrs     map[string]string
	submitting    bool
}

type appState string

const (
	viewTrips   appState = "trips"
	viewAssign  appState = "assign"
	viewOffload appState = "offload"
)

type assignField int

const (
	fieldDriver assignField = iota
	fieldTrip
	fieldFuelling
	fieldSubmit
)

type offloadField int

const (
	fieldQty offloadField = iota
	fieldRemark
)

func New(ctx context.Context, cfg config.Config, queries *service.TripQueries, assigner *service.Assigner, offloader *service.Offloading, userID, role string, tz *time.Location) *App {
	if tz == nil {
		tz = time.Local
	}
	return &App{
		ctx:       ctx,
		cfg:       cfg,
		queries:   queries,
		assigner:  assigner,
		offloader: offloader,
		userID:    userID,
		role:      role,
		tz:        tz,
		state:     viewTrips,
	}
}

func (a *App) Init() tea.Cmd {
	cmds := make([]tea.Cmd, 0, 4)
	for _, s := range api.Statuses() {
		cmds = append(cmds, a.refreshCmd(s))
	}
	return tea.Batch(cmds...)
}

// refreshCmd refetches one partition. Generation fencing lives in the query
// layer, so overlapping refreshes of the same tab are safe.
func (a *App) refreshCmd(status api.TripStatus) tea.Cmd {
	return func() tea.Msg {
		a.queries.Refresh(a.ctx, status)
		return partitionMsg{status: status}
	}
}

func (a *App) loadAssignOptionsCmd() tea.Cmd {
	return func() tea.Msg {
		drivers, err := a.assigner.LoadDrivers(a.ctx)
		if err != nil {
			return assignOptionsMsg{err: err}
		}
		trips, err := a.assigner.LoadTrips(a.ctx, a.userID)
		if err != nil {
			return assignOptionsMsg{err: err}
		}
		return assignOptionsMsg{drivers: drivers, trips: trips}
	}
}

func (a *App) submitAssignCmd(tripID, driverID api.ID, fuelling bool) tea.Cmd {
	return func() tea.Msg {
		return assignResultMsg{err: a.assigner.Submit(a.ctx, tripID, driverID, fuelling, a.userID)}
	}
}

func (a *App) submitOffloadCmd(tripID api.ID, qty, remarks string) tea.Cmd {
	return func() tea.Msg {
		fieldErrs, err := a.offloader.ValidateAndSubmit(a.ctx, tripID, qty, remarks, a.userID)
		return offloadResultMsg{fieldErrs: fieldErrs, err: err}
	}
}

func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch m := msg.(type) {
	case tea.KeyMsg:
		switch a.state {
		case viewAssign:
			return a.handleAssignKey(m)
		case viewOffload:
			return a.handleOffloadKey(m)
		default:
			return a.handleTripsKey(m)
		}

	case partitionMsg:
		if a.tripCursor >= len(a.visibleTrips()) {
			a.tripCursor = 0
		}
		return a, nil

	case assignOptionsMsg:
		if m.err != nil {
			a.optionsErr = m.err.Error()
			return a, nil
		}
		a.optionsErr = ""
		a.drivers = m.drivers
		a.trips = m.trips
		return a, nil

	case assignResultMsg:
		a.status = ""
		if m.err != nil {
			// failures render from the coordinator's terminal state; an
			// ErrSubmitInFlight rejection leaves the earlier submission running
			return a, nil
		}
		a.assignModal = true
		// assignment moves a trip between partitions; refetch the affected views
		return a, tea.Batch(a.refreshCmd(api.StatusInitiated), a.refreshCmd(api.StatusInProgress))

	case offloadResultMsg:
		a.submitting = false
		if len(m.fieldErrs) > 0 {
			a.fieldErrs = m.fieldErrs
			return a, nil
		}
		a.fieldErrs = nil
		if m.err != nil {
			a.status = "Error: " + m.err.Error()
			return a, nil
		}
		// terminal transition confirmed; jump to the delivered tab
		a.state = viewTrips
		a.activeTab = 3
		a.status = "OffLoading point data submitted"
		a.qtyInput, a.remarksInput = "", ""
		return a, a.refreshCmd(api.StatusDelivered)

	case statusMsg:
		a.status = string(m)
		return a, nil
	}
	return a, nil
}

func (a *App) handleTripsKey(m tea.KeyMsg) (tea.Model, tea.Cmd) {
	if a.searching {
		switch m.String() {
		case "esc":
			a.searching, a.search = false, ""
		case "enter":
			a.searching = false
		case "backspace":
			if len(a.search) > 0 {
				a.search = a.search[:len(a.search)-1]
			}
		default:
			if len(m.Runes) > 0 {
				a.search += string(m.Runes)
			}
		}
		a.tripCursor = 0
		return a, nil
	}

	switch m.String() {
	case "q", "ctrl+c":
		return a, tea.Quit
	case "left", "h", "shift+tab":
		if a.activeTab > 0 {
			a.activeTab--
			a.tripCursor = 0
		}
	case "right", "l", "tab":
		if a.activeTab < len(api.Statuses())-1 {
			a.activeTab++
			a.tripCursor = 0
		}
	case "up", "k":
		if a.tripCursor > 0 {
			a.tripCursor--
		}
	case "down", "j":
		if a.tripCursor < len(a.visibleTrips())-1 {
			a.tripCursor++
		}
	case "/":
		a.searching = true
		a.search = ""
	case "r":
		a.status = ""
		return a, a.refreshCmd(a.activeStatus())
	case "a":
		a.state = viewAssign
		a.status = ""
		a.assignModal = false
		a.assignField = fieldDriver
		a.driverCursor, a.tripPick = 0, 0
		a.fuelling = false
		return a, a.loadAssignOptionsCmd()
	case "c":
		trips := a.visibleTrips()
		if a.activeStatus() == api.StatusClosingRequested && len(trips) > 0 {
			a.state = viewOffload
			a.status = ""
			a.offloadTripID = trips[a.tripCursor].TripID
			a.offloadField = fieldQty
			a.fieldErrs = nil
			a.qtyInput, a.remarksInput = "", ""
		}
	}
	return a, nil
}

func (a *App) handleAssignKey(m tea.KeyMsg) (tea.Model, tea.Cmd) {
	if a.assignModal {
		switch m.String() {
		case "enter", "esc":
			a.assignModal = false
			a.state = viewTrips
		}
		return a, nil
	}

	switch m.String() {
	case "ctrl+c":
		return a, tea.Quit
	case "esc":
		a.state = viewTrips
		return a, nil
	case "tab", "down", "enter":
		if m.String() == "enter" && a.assignField == fieldSubmit {
			return a, a.trySubmitAssign()
		}
		if a.assignField < fieldSubmit {
			a.assignField++
		}
	case "shift+tab", "up":
		if a.assignField > fieldDriver {
			a.assignField--
		}
	case "left", "right", " ":
		switch a.assignField {
		case fieldDriver:
			a.driverCursor = cycle(a.driverCursor, len(a.drivers), m.String() != "left")
		case fieldTrip:
			a.tripPick = cycle(a.tripPick, len(a.trips), m.String() != "left")
		case fieldFuelling:
			a.fuelling = !a.fuelling
		}
	}
	return a, nil
}

func (a *App) trySubmitAssign() tea.Cmd {
	if len(a.drivers) == 0 || len(a.trips) == 0 {
		a.status = "Select a truck driver and a trip first."
		return nil
	}
	if a.assigner.Phase() == service.AssignSubmitting {
		return nil // one submission at a time
	}
	a.status = "Submitting..."
	return a.submitAssignCmd(a.trips[a.tripPick].ID, a.drivers[a.driverCursor].ID, a.fuelling)
}

func (a *App) handleOffloadKey(m tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch m.String() {
	case "ctrl+c":
		return a, tea.Quit
	case "esc":
		a.state = viewTrips
		return a, nil
	case "tab", "shift+tab":
		if a.offloadField == fieldQty {
			a.offloadField = fieldRemark
		} else {
			a.offloadField = fieldQty
		}
	case "enter":
		if a.submitting {
			return a, nil
		}
		a.submitting = true
		a.status = ""
		return a, a.submitOffloadCmd(a.offloadTripID, a.qtyInput, a.remarksInput)
	case "backspace":
		if a.offloadField == fieldQty && len(a.qtyInput) > 0 {
			a.qtyInput = a.qtyInput[:len(a.qtyInput)-1]
		}
		if a.offloadField == fieldRemark && len(a.remarksInput) > 0 {
			a.remarksInput = a.remarksInput[:len(a.remarksInput)-1]
		}
	default:
		if len(m.Runes) > 0 {
			if a.offloadField == fieldQty {
				a.qtyInput += string(m.Runes)
			} else {
				a.remarksInput += string(m.Runes)
			}
		}
	}
	return a, nil
}

func (a *App) View() string {
	switch a.state {
	case viewAssign:
		return a.renderAssign()
	case viewOffload:
		return a.renderOffload()
	default:
		return a.renderTrips()
	}
}

func (a *App) activeStatus() api.TripStatus {
	return api.Statuses()[a.activeTab]
}

// visibleTrips applies the search query to the active partition.
func (a *App) visibleTrips() []api.Trip {
	snap := a.queries.Snapshot(a.activeStatus())
	if strings.TrimSpace(a.search) == "" {
		return snap.Trips
	}
	byID := make(map[api.ID]api.Trip, len(snap.Trips))
	opts := make([]service.Option, 0, len(snap.Trips))
	for _, t := range snap.Trips {
		byID[t.TripID] = t
		opts = append(opts, service.Option{
			ID:    t.TripID,
			Label: fmt.Sprintf("%s %s %s", t.TripID, t.OriginName, t.DestinationName),
		})
	}
	matched := service.FilterOptions(opts, a.search)
	out := make([]api.Trip, 0, len(matched))
	for _, m := range matched {
		out = append(out, byID[m.ID])
	}
	return out
}

func (a *App) renderTrips() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("Trips") + "\n")

	var tabLabels []string
	for i, s := range api.Statuses() {
		label := s.Title()
		if i == a.activeTab {
			tabLabels = append(tabLabels, activeTabStyle.Render(label))
		} else {
			tabLabels = append(tabLabels, tabStyle.Render(label))
		}
	}
	b.WriteString(strings.Join(tabLabels, " ") + "\n")

	if a.searching || a.search != "" {
		b.WriteString(fmt.Sprintf("Find: %s\n", a.search))
	}

	snap := a.queries.Snapshot(a.activeStatus())
	switch snap.State {
	case service.PartitionPending:
		b.WriteString("\nLoading...\n")
	case service.PartitionFailed:
		b.WriteString("\n" + errStyle.Render("Error: "+snap.Err.Error()) + "\n[r] Retry\n")
	default:
		trips := a.visibleTrips()
		if len(trips) == 0 {
			b.WriteString("\n" + a.emptyMessage() + "\n")
		}
		for i, t := range trips {
			marker := " "
			if i == a.tripCursor {
				marker = "▶"
			}
			b.WriteString(fmt.Sprintf("%s %-10s  %s to %s  %s to %s\n",
				marker, t.TripID, t.OriginName, t.DestinationName,
				a.formatDate(t.StartDate), a.formatDate(t.EndDate)))
		}
	}

	b.WriteString("\n[tab] Switch tab  [/] Find  [r] Refresh  [a] Assign Driver")
	if a.activeStatus() == api.StatusClosingRequested {
		b.WriteString("  [c] Confirm Offloading")
	}
	b.WriteString("  [q] Quit")
	if a.status != "" {
		b.WriteString("\n" + a.status)
	}
	return b.String()
}

func (a *App) emptyMessage() string {
	switch a.activeStatus() {
	case api.StatusInProgress:
		return "No in-progress trips found."
	case api.StatusClosingRequested:
		return "No trips requested to be closed."
	case api.StatusDelivered:
		return "No Delivered trips found."
	default:
		return "No initiated trips found."
	}
}

func (a *App) renderAssign() string {
	if a.assignModal {
		return modalStyle.Render("Assignment Successful\n\nYou have successfully assigned a truck driver to the trip\n\n[enter] Continue")
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render("Assign Truck Driver") + "\n")
	if a.optionsErr != "" {
		b.WriteString(errStyle.Render("Error: "+a.optionsErr) + "\n")
	}

	b.WriteString(a.fieldLabel("Truck Driver", a.assignField == fieldDriver))
	b.WriteString(pickValue(a.drivers, a.driverCursor, "Select Truck Driver") + "\n")

	b.WriteString(a.fieldLabel("Trips", a.assignField == fieldTrip))
	b.WriteString(pickValue(a.trips, a.tripPick, "Select Trip") + "\n")

	b.WriteString(a.fieldLabel("Fueling ?", a.assignField == fieldFuelling))
	if a.fuelling {
		b.WriteString("Yes\n")
	} else {
		b.WriteString("No\n")
	}

	submit := "[ Submit ]"
	if a.assignField == fieldSubmit {
		submit = activeTabStyle.Render(submit)
	}
	if a.assigner.Phase() == service.AssignSubmitting {
		submit = "[ Submitting... ]"
	}
	b.WriteString("\n" + submit + "\n")

	if lastErr := a.assigner.LastError(); lastErr != nil && a.assigner.Phase() == service.AssignFailed {
		b.WriteString(errStyle.Render(lastErr.Message) + "\n")
	}

	b.WriteString("\n[tab] Next field  [space] Change value  [enter] Submit  [esc] Back")
	if a.status != "" {
		b.WriteString("\n" + a.status)
	}
	return b.String()
}

func (a *App) renderOffload() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("Confirm Offloading Point") + "\n")
	b.WriteString(fmt.Sprintf("Trip: %s\n\n", a.offloadTripID))

	b.WriteString(a.fieldLabel("Tonnage Offloaded", a.offloadField == fieldQty))
	b.WriteString(a.qtyInput)
	if msg, ok := a.fieldErrs[service.FieldOffloadingQty]; ok {
		b.WriteString("   " + errStyle.Render(msg))
	}
	b.WriteString("\n")

	b.WriteString(a.fieldLabel("Remark", a.offloadField == fieldRemark))
	b.WriteString(a.remarksInput)
	if msg, ok := a.fieldErrs[service.FieldRemarks]; ok {
		b.WriteString("   " + errStyle.Render(msg))
	}
	b.WriteString("\n\n")

	if a.submitting {
		b.WriteString("Submitting...\n")
	} else {
		b.WriteString("[enter] Confirm Offloading Point\n")
	}
	b.WriteString("[tab] Switch field  [esc] Back")
	if a.status != "" {
		b.WriteString("\n" + a.status)
	}
	return b.String()
}

func (a *App) fieldLabel(label string, active bool) string {
	if active {
		return activeTabStyle.Render(label) + ": "
	}
	return label + ": "
}

func (a *App) formatDate(raw string) string {
	t, err := time.Parse("2006-01-02", strings.TrimSpace(raw))
	if err != nil {
		return raw // display formatting only, never arithmetic
	}
	return t.In(a.tz).Format(a.cfg.UI.DateFormat)
}

func pickValue(opts []service.Option, cursor int, placeholder string) string {
	if len(opts) == 0 || cursor >= len(opts) {
		return placeholder
	}
	return opts[cursor].Label
}

func cycle(cur, n int, forward bool) int {
	if n == 0 {
		return 0
	}
	if forward {
		return (cur + 1) % n
	}
	return (cur - 1 + n) % n
}

// messages
type partitionMsg struct {
	status api.TripStatus
}

type assignOptionsMsg struct {
	drivers []service.Option
	trips   []service.Option
	err     error
}

type assignResultMsg struct{ err error }

type offloadResultMsg struct {
	fieldErrs map[string]string
	err       error
}

type statusMsg string

// styles
var (
	titleStyle     = lipgloss.NewStyle().Bold(true).Underline(true)
	tabStyle       = lipgloss.NewStyle().Faint(true)
	activeTabStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("63"))
	errStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	modalStyle     = lipgloss.NewStyle().Bold(true).Padding(1, 2).Border(lipgloss.RoundedBorder())
)
