package tui

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"charm.land/bubbles/v2/help"
	"charm.land/bubbles/v2/key"
	"charm.land/bubbles/v2/textinput"
	tea "charm.land/bubbletea/v2"

	"otx/internal/api"
	"otx/internal/domain"
)

// Service represents the remote gateway surface used by this package.
type Service interface {
	MyWorkOrders(context.Context) ([]domain.WorkOrder, error)
	AssignedToMe(context.Context) ([]domain.WorkOrder, error)
	DashboardStats(context.Context) (domain.DashboardStats, error)
	WorkOrder(context.Context, string) (domain.WorkOrder, error)
	Teams(context.Context) ([]domain.Team, error)
	Users(context.Context) ([]domain.User, error)
	AdminStats(context.Context) (domain.AdminStats, error)
	AllWorkOrders(context.Context, api.AdminFilter) ([]domain.WorkOrder, error)
	Start(ctx context.Context, id, actorID string) error
	Complete(ctx context.Context, id, actorID string) error
	Reject(ctx context.Context, id, actorID, reason string) error
	Assign(ctx context.Context, id, userID, assignedByID string) error
	CreateWorkOrder(context.Context, api.CreateWorkOrderInput) (domain.WorkOrder, error)
}

// Session represents the credential store surface used by this package.
type Session interface {
	Login(ctx context.Context, email, password string) (domain.User, error)
	Logout() error
	Identity() (domain.User, bool)
	Authenticated() bool
}

// screen identifies the active top-level view.
type screen int

// screenLogin and related constants define package defaults.
const (
	screenLogin screen = iota
	screenPersonal
	screenAdmin
)

// inputMode represents a selectable overlay mode.
type inputMode int

const (
	modeNone inputMode = iota
	modeDetail
	modeRejectReason
	modeAssign
	modeForm
)

// statusFilterOptions lists the admin status filter cycle; index 0 is "any".
var statusFilterOptions = []domain.Status{"", domain.StatusOpen, domain.StatusInProgress, domain.StatusClosed, domain.StatusRejected}

// Model represents model data used by this package.
type Model struct {
	svc  Service
	sess Session

	ctx    context.Context
	cancel context.CancelFunc

	ready  bool
	width  int
	height int

	status string
	help   help.Model
	keys   keyMap

	language     string
	theme        string
	saveLanguage UpsertSettingFunc
	saveTheme    UpsertSettingFunc

	pollInterval time.Duration
	pollPending  bool

	screen screen
	mode   inputMode

	loginInputs []textinput.Model
	loginFocus  int
	loginErr    string
	loggingIn   bool

	refreshSeq int
	stats      domain.DashboardStats
	mine       []domain.WorkOrder
	assigned   []domain.WorkOrder
	tab        int
	selected   int

	adminStats    domain.AdminStats
	teams         []domain.Team
	users         []domain.User
	adminOrders   []domain.WorkOrder
	listSeq       int
	statusIdx     int
	teamIdx       int
	userIdx       int
	adminSelected int

	detailSeq     int
	detailID      string
	detail        domain.WorkOrder
	detailTeams   []domain.Team
	detailLoaded  bool
	detailCtx     context.Context
	detailCancel  context.CancelFunc
	rejectInput   textinput.Model
	assignTeamIdx int
	assignUserIdx int
	assignFocus   int

	form formState

	md markdownRenderer
}

// loginMsg carries the login result through update handling.
type loginMsg struct {
	user domain.User
	err  error
}

// dashboardMsg carries one joined personal refresh; seq guards staleness.
type dashboardMsg struct {
	seq      int
	stats    domain.DashboardStats
	mine     []domain.WorkOrder
	assigned []domain.WorkOrder
	err      error
}

// pollTickMsg fires the periodic dashboard refresh.
type pollTickMsg struct{}

// adminStatsMsg carries the global counters section.
type adminStatsMsg struct {
	stats domain.AdminStats
	err   error
}

// teamsMsg carries the team directory section.
type teamsMsg struct {
	teams []domain.Team
	err   error
}

// usersMsg carries the user directory section.
type usersMsg struct {
	users []domain.User
	err   error
}

// adminListMsg carries one filtered admin list fetch; seq guards staleness.
type adminListMsg struct {
	seq    int
	orders []domain.WorkOrder
	err    error
}

// detailMsg carries the joined order+teams fetch for the detail overlay.
type detailMsg struct {
	seq   int
	order domain.WorkOrder
	teams []domain.Team
	err   error
}

// actionMsg carries the outcome of one status transition request.
type actionMsg struct {
	verb string
	err  error
}

// createdMsg carries the outcome of a creation submission.
type createdMsg struct {
	order domain.WorkOrder
	err   error
}

// settingSavedMsg carries the outcome of persisting a UI setting.
type settingSavedMsg struct {
	what string
	err  error
}

// NewModel constructs a new value for this package.
func NewModel(svc Service, sess Session, opts ...Option) Model {
	h := help.New()
	h.ShowAll = false

	email := textinput.New()
	email.Prompt = ""
	email.Placeholder = "name@company.com"
	email.CharLimit = 120
	password := textinput.New()
	password.Prompt = ""
	password.Placeholder = "password"
	password.CharLimit = 120
	password.EchoMode = textinput.EchoPassword
	reject := textinput.New()
	reject.Prompt = "reason: "
	reject.Placeholder = "why this order is rejected"
	reject.CharLimit = 500

	ctx, cancel := context.WithCancel(context.Background())
	m := Model{
		ctx:          ctx,
		cancel:       cancel,
		svc:          svc,
		sess:         sess,
		status:       "loading...",
		help:         h,
		keys:         newKeyMap(),
		language:     "en",
		theme:        "dark",
		pollInterval: 30 * time.Second,
		loginInputs:  []textinput.Model{email, password},
		rejectInput:  reject,
		form:         newFormState(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(&m)
		}
	}
	if identity, ok := m.sess.Identity(); ok {
		m.screen = screenForRole(identity.Role)
	}
	if m.screen == screenLogin {
		m.loginInputs[0].Focus()
	}
	return m
}

// screenForRole picks the dashboard an identity lands on.
func screenForRole(role domain.Role) screen {
	if role == domain.RoleAdmin {
		return screenAdmin
	}
	return screenPersonal
}

// Init handles init.
func (m Model) Init() tea.Cmd {
	switch m.screen {
	case screenPersonal:
		return m.fetchDashboard(m.refreshSeq)
	case screenAdmin:
		return m.fetchAdminAll()
	default:
		return nil
	}
}

// Update updates state for the requested operation.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.ready = true
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case loginMsg:
		m.loggingIn = false
		if msg.err != nil {
			m.loginErr = msg.err.Error()
			return m, nil
		}
		m.loginErr = ""
		m.loginInputs[1].SetValue("")
		m.screen = screenForRole(msg.user.Role)
		m.status = "signed in as " + msg.user.Name
		if m.screen == screenAdmin {
			cmd := m.fetchAdminAll()
			return m, cmd
		}
		m.refreshSeq++
		cmd := m.fetchDashboard(m.refreshSeq)
		return m, cmd

	case dashboardMsg:
		if msg.seq != m.refreshSeq {
			return m, nil
		}
		cmd := m.scheduleNextPoll()
		if msg.err != nil {
			m.status = "refresh failed: " + msg.err.Error()
			return m, cmd
		}
		m.stats = msg.stats
		m.mine = msg.mine
		m.assigned = msg.assigned
		m.selected = clamp(m.selected, 0, len(m.currentList())-1)
		if m.status == "loading..." || strings.HasPrefix(m.status, "refresh failed") {
			m.status = "ready"
		}
		return m, cmd

	case pollTickMsg:
		m.pollPending = false
		if m.screen != screenPersonal || !m.sess.Authenticated() {
			return m, nil
		}
		m.refreshSeq++
		return m, m.fetchDashboard(m.refreshSeq)

	case adminStatsMsg:
		if msg.err != nil {
			m.status = "stats unavailable: " + msg.err.Error()
			return m, nil
		}
		m.adminStats = msg.stats
		return m, nil

	case teamsMsg:
		if msg.err != nil {
			m.status = "teams unavailable: " + msg.err.Error()
			return m, nil
		}
		m.teams = msg.teams
		m.teamIdx = clamp(m.teamIdx, 0, len(m.teams))
		return m, nil

	case usersMsg:
		if msg.err != nil {
			m.status = "users unavailable: " + msg.err.Error()
			return m, nil
		}
		m.users = msg.users
		m.userIdx = clamp(m.userIdx, 0, len(m.users))
		return m, nil

	case adminListMsg:
		if msg.seq != m.listSeq {
			return m, nil
		}
		if msg.err != nil {
			m.status = "list unavailable: " + msg.err.Error()
			return m, nil
		}
		m.adminOrders = msg.orders
		m.adminSelected = clamp(m.adminSelected, 0, len(m.adminOrders)-1)
		if m.status == "loading..." || strings.HasPrefix(m.status, "list unavailable") {
			m.status = "ready"
		}
		return m, nil

	case detailMsg:
		if msg.seq != m.detailSeq {
			return m, nil
		}
		if msg.err != nil {
			m.status = "open failed: " + msg.err.Error()
			cmd := m.closeDetail()
			return m, cmd
		}
		m.detail = msg.order
		if len(msg.teams) > 0 {
			m.detailTeams = msg.teams
		}
		m.detailLoaded = true
		return m, nil

	case actionMsg:
		if msg.err != nil {
			m.status = msg.verb + " failed: " + msg.err.Error()
			return m, nil
		}
		m.status = msg.verb + " ok"
		m.mode = modeDetail
		m.rejectInput.SetValue("")
		m.rejectInput.Blur()
		m.detailSeq++
		return m, tea.Batch(m.fetchDetail(m.detailSeq, m.detailID), m.refreshUnderlying())

	case createdMsg:
		m.form.submitting = false
		if msg.err != nil {
			m.status = "create failed: " + msg.err.Error()
			return m, nil
		}
		m.status = "work order created: " + msg.order.Title
		m.form = newFormState()
		m.mode = modeNone
		return m, m.refreshUnderlying()

	case settingSavedMsg:
		if msg.err != nil {
			m.status = "save " + msg.what + " failed: " + msg.err.Error()
		}
		return m, nil

	case tea.KeyPressMsg:
		return m.handleKey(msg)

	default:
		return m, nil
	}
}

// handleKey routes key presses by screen and overlay mode.
func (m Model) handleKey(msg tea.KeyPressMsg) (tea.Model, tea.Cmd) {
	if m.screen == screenLogin {
		return m.handleLoginKey(msg)
	}
	switch m.mode {
	case modeDetail:
		return m.handleDetailKey(msg)
	case modeRejectReason:
		return m.handleRejectKey(msg)
	case modeAssign:
		return m.handleAssignKey(msg)
	case modeForm:
		return m.handleFormKey(msg)
	}
	return m.handleDashboardKey(msg)
}

// handleLoginKey drives the email/password form.
func (m Model) handleLoginKey(msg tea.KeyPressMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c":
		m.cancel()
		return m, tea.Quit
	case "tab", "shift+tab", "up", "down":
		m.loginInputs[m.loginFocus].Blur()
		m.loginFocus = (m.loginFocus + 1) % len(m.loginInputs)
		m.loginInputs[m.loginFocus].Focus()
		return m, nil
	case "enter":
		if m.loggingIn {
			return m, nil
		}
		email := strings.TrimSpace(m.loginInputs[0].Value())
		password := m.loginInputs[1].Value()
		if email == "" || password == "" {
			m.loginErr = "email and password are required"
			return m, nil
		}
		m.loggingIn = true
		m.loginErr = ""
		return m, m.loginCmd(email, password)
	}
	var cmd tea.Cmd
	m.loginInputs[m.loginFocus], cmd = m.loginInputs[m.loginFocus].Update(msg)
	return m, cmd
}

// handleDashboardKey drives both dashboards when no overlay is active.
func (m Model) handleDashboardKey(msg tea.KeyPressMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.quit):
		m.cancel()
		return m, tea.Quit
	case key.Matches(msg, m.keys.toggleHelp):
		m.help.ShowAll = !m.help.ShowAll
		return m, nil
	case key.Matches(msg, m.keys.logout):
		return m.doLogout()
	case key.Matches(msg, m.keys.reload):
		return m, m.refreshUnderlying()
	case key.Matches(msg, m.keys.newOrder):
		m.mode = modeForm
		m.form = newFormState()
		m.form.inputs[0].Focus()
		if len(m.detailTeams) == 0 && len(m.teams) == 0 {
			return m, m.fetchDirectory()
		}
		return m, nil
	case key.Matches(msg, m.keys.language):
		return m.toggleLanguage()
	case key.Matches(msg, m.keys.theme):
		return m.toggleTheme()
	}
	if m.screen == screenAdmin {
		return m.handleAdminKey(msg)
	}
	return m.handlePersonalKey(msg)
}

// handlePersonalKey drives tab and row selection on the personal dashboard.
func (m Model) handlePersonalKey(msg tea.KeyPressMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.nextTab):
		m.tab = (m.tab + 1) % 2
		m.selected = clamp(m.selected, 0, len(m.currentList())-1)
		return m, nil
	case key.Matches(msg, m.keys.moveDown):
		m.selected = clamp(m.selected+1, 0, len(m.currentList())-1)
		return m, nil
	case key.Matches(msg, m.keys.moveUp):
		m.selected = clamp(m.selected-1, 0, len(m.currentList())-1)
		return m, nil
	case key.Matches(msg, m.keys.open):
		list := m.currentList()
		if len(list) == 0 {
			return m, nil
		}
		return m.openDetail(list[clamp(m.selected, 0, len(list)-1)].ID)
	}
	return m, nil
}

// handleAdminKey drives filters and row selection on the admin dashboard.
func (m Model) handleAdminKey(msg tea.KeyPressMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.moveDown):
		m.adminSelected = clamp(m.adminSelected+1, 0, len(m.adminOrders)-1)
		return m, nil
	case key.Matches(msg, m.keys.moveUp):
		m.adminSelected = clamp(m.adminSelected-1, 0, len(m.adminOrders)-1)
		return m, nil
	case key.Matches(msg, m.keys.open):
		if len(m.adminOrders) == 0 {
			return m, nil
		}
		return m.openDetail(m.adminOrders[clamp(m.adminSelected, 0, len(m.adminOrders)-1)].ID)
	case key.Matches(msg, m.keys.cycleStatus):
		m.statusIdx = (m.statusIdx + 1) % len(statusFilterOptions)
		return m.refetchAdminList()
	case key.Matches(msg, m.keys.cycleTeam):
		m.teamIdx = (m.teamIdx + 1) % (len(m.teams) + 1)
		return m.refetchAdminList()
	case key.Matches(msg, m.keys.cycleUser):
		m.userIdx = (m.userIdx + 1) % (len(m.users) + 1)
		return m.refetchAdminList()
	case key.Matches(msg, m.keys.clearFilters):
		if m.statusIdx == 0 && m.teamIdx == 0 && m.userIdx == 0 {
			return m, nil
		}
		m.statusIdx, m.teamIdx, m.userIdx = 0, 0, 0
		return m.refetchAdminList()
	}
	return m, nil
}

// doLogout tears everything down and returns to the login view.
func (m Model) doLogout() (tea.Model, tea.Cmd) {
	if m.detailCancel != nil {
		m.detailCancel()
		m.detailCancel = nil
	}
	if err := m.sess.Logout(); err != nil {
		m.status = "logout failed: " + err.Error()
		return m, nil
	}
	m.refreshSeq++
	m.listSeq++
	m.detailSeq++
	m.screen = screenLogin
	m.mode = modeNone
	m.stats = domain.DashboardStats{}
	m.mine = nil
	m.assigned = nil
	m.adminStats = domain.AdminStats{}
	m.adminOrders = nil
	m.detailLoaded = false
	m.status = "signed out"
	m.loginFocus = 0
	m.loginInputs[0].Focus()
	m.loginInputs[1].Blur()
	return m, nil
}

// toggleLanguage flips en/fr and persists the choice when a saver is wired.
func (m Model) toggleLanguage() (tea.Model, tea.Cmd) {
	if m.language == "en" {
		m.language = "fr"
	} else {
		m.language = "en"
	}
	if m.saveLanguage == nil {
		return m, nil
	}
	save, value := m.saveLanguage, m.language
	return m, func() tea.Msg {
		return settingSavedMsg{what: "language", err: save(value)}
	}
}

// toggleTheme flips dark/light and persists the choice when a saver is wired.
func (m Model) toggleTheme() (tea.Model, tea.Cmd) {
	if m.theme == "dark" {
		m.theme = "light"
	} else {
		m.theme = "dark"
	}
	if m.saveTheme == nil {
		return m, nil
	}
	save, value := m.saveTheme, m.theme
	return m, func() tea.Msg {
		return settingSavedMsg{what: "theme", err: save(value)}
	}
}

// currentList resolves the personal list backing the focused tab.
func (m Model) currentList() []domain.WorkOrder {
	if m.tab == 1 {
		return m.assigned
	}
	return m.mine
}

// refreshUnderlying re-fetches whichever dashboard is behind the overlay,
// reusing the current sequence so an in-flight refresh stays committable.
func (m Model) refreshUnderlying() tea.Cmd {
	if m.screen == screenAdmin {
		return tea.Batch(m.fetchAdminStats, m.fetchAdminList(m.listSeq))
	}
	return m.fetchDashboard(m.refreshSeq)
}

// refetchAdminList re-issues only the filtered list fetch under a fresh
// sequence, so in-flight results for the previous filters are discarded.
func (m Model) refetchAdminList() (tea.Model, tea.Cmd) {
	m.adminSelected = 0
	m.listSeq++
	cmd := m.fetchAdminList(m.listSeq)
	return m, cmd
}

// scheduleNextPoll arms one poll tick unless polling is off or armed.
func (m *Model) scheduleNextPoll() tea.Cmd {
	if m.pollInterval <= 0 || m.pollPending || m.screen != screenPersonal {
		return nil
	}
	m.pollPending = true
	return tea.Tick(m.pollInterval, func(time.Time) tea.Msg {
		return pollTickMsg{}
	})
}

// loginCmd posts the credentials and reports the identity.
func (m Model) loginCmd(email, password string) tea.Cmd {
	ctx, sess := m.ctx, m.sess
	return func() tea.Msg {
		user, err := sess.Login(ctx, email, password)
		return loginMsg{user: user, err: err}
	}
}

// fetchDashboard joins the three personal fetches into one message tagged
// with the sequence the result must still match to be committed.
func (m Model) fetchDashboard(seq int) tea.Cmd {
	ctx, svc := m.ctx, m.svc
	return func() tea.Msg {
		var (
			stats                          domain.DashboardStats
			mine, assigned                 []domain.WorkOrder
			statsErr, mineErr, assignedErr error
		)
		var wg sync.WaitGroup
		wg.Add(3)
		go func() { defer wg.Done(); stats, statsErr = svc.DashboardStats(ctx) }()
		go func() { defer wg.Done(); mine, mineErr = svc.MyWorkOrders(ctx) }()
		go func() { defer wg.Done(); assigned, assignedErr = svc.AssignedToMe(ctx) }()
		wg.Wait()
		if err := errors.Join(statsErr, mineErr, assignedErr); err != nil {
			return dashboardMsg{seq: seq, err: err}
		}
		return dashboardMsg{seq: seq, stats: stats, mine: mine, assigned: assigned}
	}
}

// fetchAdminAll issues the four independent admin fetches.
func (m Model) fetchAdminAll() tea.Cmd {
	return tea.Batch(m.fetchAdminStats, m.fetchTeams, m.fetchUsers, m.fetchAdminList(m.listSeq))
}

func (m Model) fetchAdminStats() tea.Msg {
	stats, err := m.svc.AdminStats(m.ctx)
	return adminStatsMsg{stats: stats, err: err}
}

func (m Model) fetchTeams() tea.Msg {
	teams, err := m.svc.Teams(m.ctx)
	return teamsMsg{teams: teams, err: err}
}

func (m Model) fetchUsers() tea.Msg {
	users, err := m.svc.Users(m.ctx)
	return usersMsg{users: users, err: err}
}

// adminFilter assembles the non-empty filters for the list fetch.
func (m Model) adminFilter() api.AdminFilter {
	filter := api.AdminFilter{Status: string(statusFilterOptions[m.statusIdx])}
	if m.teamIdx > 0 && m.teamIdx <= len(m.teams) {
		filter.TeamID = m.teams[m.teamIdx-1].ID
	}
	if m.userIdx > 0 && m.userIdx <= len(m.users) {
		filter.UserID = m.users[m.userIdx-1].ID
	}
	return filter
}

func (m Model) fetchAdminList(seq int) tea.Cmd {
	ctx, svc, filter := m.ctx, m.svc, m.adminFilter()
	return func() tea.Msg {
		orders, err := svc.AllWorkOrders(ctx, filter)
		return adminListMsg{seq: seq, orders: orders, err: err}
	}
}

// fetchDirectory loads teams for the creation form when none are cached.
func (m Model) fetchDirectory() tea.Cmd {
	return m.fetchTeams
}
