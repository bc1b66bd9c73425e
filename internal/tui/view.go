package tui

import (
	"fmt"
	"strings"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"otx/internal/domain"
)

// timeLayout formats every timestamp shown in the terminal.
const timeLayout = "2006-01-02 15:04"

// View handles view.
func (m Model) View() tea.View {
	if !m.ready {
		return tea.NewView("loading...")
	}

	var content string
	switch m.screen {
	case screenLogin:
		content = m.renderLogin()
	case screenAdmin:
		content = m.renderAdmin()
	default:
		content = m.renderPersonal()
	}

	if m.screen != screenLogin && m.mode != modeNone {
		overlay := m.renderOverlay()
		if overlay != "" {
			content = lipgloss.Place(max(1, m.width), max(1, m.height), lipgloss.Center, lipgloss.Center, overlay)
		}
	}

	v := tea.NewView(content)
	v.AltScreen = true
	return v
}

// renderOverlay picks the active overlay box.
func (m Model) renderOverlay() string {
	switch m.mode {
	case modeDetail, modeRejectReason, modeAssign:
		return m.renderDetail()
	case modeForm:
		return m.renderForm()
	}
	return ""
}

// renderLogin draws the centered credentials box.
func (m Model) renderLogin() string {
	p := themeFor(m.theme)
	titleStyle := lipgloss.NewStyle().Bold(true).Foreground(p.accent)
	labelStyle := lipgloss.NewStyle().Foreground(p.muted)
	errStyle := lipgloss.NewStyle().Foreground(p.danger)
	hintStyle := lipgloss.NewStyle().Foreground(p.dim)

	lines := []string{
		titleStyle.Render("otx — " + m.tr("login.title")),
		"",
		labelStyle.Render(m.tr("login.email")),
		m.loginInputs[0].View(),
		"",
		labelStyle.Render(m.tr("login.password")),
		m.loginInputs[1].View(),
		"",
	}
	if m.loggingIn {
		lines = append(lines, hintStyle.Render("signing in..."))
	} else if m.loginErr != "" {
		lines = append(lines, errStyle.Render(m.loginErr))
	} else {
		lines = append(lines, hintStyle.Render(m.tr("login.submit")))
	}

	box := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(p.accent).
		Padding(1, 3).
		Width(48).
		Render(strings.Join(lines, "\n"))
	return lipgloss.Place(max(1, m.width), max(1, m.height), lipgloss.Center, lipgloss.Center, box)
}

// renderPersonal draws the user dashboard: counters, tabs, and the list
// backing the focused tab.
func (m Model) renderPersonal() string {
	p := themeFor(m.theme)
	titleStyle := lipgloss.NewStyle().Bold(true).Foreground(p.accent)
	mutedStyle := lipgloss.NewStyle().Foreground(p.muted)
	dimStyle := lipgloss.NewStyle().Foreground(p.dim)

	name := ""
	if identity, ok := m.sess.Identity(); ok {
		name = identity.Name
	}
	header := titleStyle.Render("otx") + "  " + mutedStyle.Render(name)

	counts := m.stats.Created
	if m.tab == 1 {
		counts = m.stats.Assigned
	}
	counters := fmt.Sprintf("%s %d  %s %d  %s %d  %s %d  %s %d",
		m.tr("dashboard.total"), counts.Total,
		m.tr("dashboard.open"), counts.Open,
		m.tr("dashboard.progress"), counts.InProgress,
		m.tr("dashboard.closed"), counts.Closed,
		m.tr("dashboard.rejected"), counts.Rejected,
	)

	tabs := m.renderTabs(p)
	list := m.currentList()
	inProgress, closed := domain.PartitionByStatus(list)
	section := dimStyle.Render(fmt.Sprintf("%d %s · %d %s",
		len(inProgress), m.tr("dashboard.progress"),
		len(closed), m.tr("dashboard.closed"),
	))

	rows := m.renderRows(list, m.selected, p)
	sections := []string{header, "", mutedStyle.Render(counters), "", tabs, section, "", rows}
	return m.withStatusBar(strings.Join(sections, "\n"), p)
}

// renderTabs draws the mine/assigned tab bar.
func (m Model) renderTabs(p palette) string {
	active := lipgloss.NewStyle().Bold(true).Foreground(p.accent).Underline(true)
	inactive := lipgloss.NewStyle().Foreground(p.muted)
	mine := m.tr("dashboard.mine")
	assigned := m.tr("dashboard.assigned")
	if m.tab == 0 {
		return active.Render(mine) + "   " + inactive.Render(assigned)
	}
	return inactive.Render(mine) + "   " + active.Render(assigned)
}

// renderRows draws a work-order list with the selection marker.
func (m Model) renderRows(orders []domain.WorkOrder, selected int, p palette) string {
	if len(orders) == 0 {
		return lipgloss.NewStyle().Foreground(p.dim).Render("(no work orders)")
	}
	textStyle := lipgloss.NewStyle().Foreground(p.text)
	selStyle := lipgloss.NewStyle().Bold(true).Foreground(p.accent)

	width := max(40, m.width-8)
	lines := make([]string, 0, len(orders))
	for idx, order := range orders {
		badge := lipgloss.NewStyle().Foreground(statusColor(order.Status)).Render(m.statusLabel(order.Status))
		prio := lipgloss.NewStyle().Foreground(priorityColor(order.Priority)).Render(string(order.Priority))
		marker := "  "
		style := textStyle
		if idx == selected {
			marker = "> "
			style = selStyle
		}
		title := truncate(order.Title, max(10, width-34))
		lines = append(lines, marker+style.Render(title)+"  "+badge+"  "+prio)
	}
	return strings.Join(lines, "\n")
}

// renderAdmin draws the global dashboard with its filter bar.
func (m Model) renderAdmin() string {
	p := themeFor(m.theme)
	titleStyle := lipgloss.NewStyle().Bold(true).Foreground(p.accent)
	mutedStyle := lipgloss.NewStyle().Foreground(p.muted)

	counters := fmt.Sprintf("%s %d  %s %d  %s %d  %s %d  %s %d",
		m.tr("dashboard.total"), m.adminStats.Global.Total,
		m.tr("dashboard.open"), m.adminStats.Global.Open,
		m.tr("dashboard.progress"), m.adminStats.Global.InProgress,
		m.tr("dashboard.closed"), m.adminStats.Global.Closed,
		m.tr("dashboard.rejected"), m.adminStats.Global.Rejected,
	)

	status := m.tr("admin.any")
	if m.statusIdx > 0 {
		status = m.statusLabel(statusFilterOptions[m.statusIdx])
	}
	team := m.tr("admin.any")
	if m.teamIdx > 0 && m.teamIdx <= len(m.teams) {
		team = m.teams[m.teamIdx-1].Name
	}
	user := m.tr("admin.any")
	if m.userIdx > 0 && m.userIdx <= len(m.users) {
		user = m.users[m.userIdx-1].Name
	}
	filters := fmt.Sprintf("%s: [s] %s  [t] %s  [u] %s  [x] ×", m.tr("admin.filters"), status, team, user)

	sections := []string{
		titleStyle.Render("otx — " + m.tr("admin.title")),
		"",
		mutedStyle.Render(counters),
		mutedStyle.Render(filters),
		"",
		m.renderRows(m.adminOrders, m.adminSelected, p),
	}
	return m.withStatusBar(strings.Join(sections, "\n"), p)
}

// withStatusBar appends the status line and help footer.
func (m Model) withStatusBar(content string, p palette) string {
	statusStyle := lipgloss.NewStyle().Foreground(p.dim)
	helpBubble := m.help
	helpLine := lipgloss.NewStyle().
		Foreground(p.muted).
		BorderTop(true).
		BorderForeground(p.dim).
		Padding(0, 1).
		Width(max(0, m.width)).
		Render(helpBubble.View(m.keys))
	return content + "\n\n" + statusStyle.Render(m.status) + "\n" + helpLine
}

// renderDetail draws the work-order overlay with its panels.
func (m Model) renderDetail() string {
	p := themeFor(m.theme)
	titleStyle := lipgloss.NewStyle().Bold(true).Foreground(p.accent)
	labelStyle := lipgloss.NewStyle().Foreground(p.muted)
	dimStyle := lipgloss.NewStyle().Foreground(p.dim)
	dangerStyle := lipgloss.NewStyle().Foreground(p.danger)

	boxWidth := clamp(m.width-10, 44, 100)
	inner := boxWidth - 6

	if !m.detailLoaded {
		box := lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(p.accent).
			Padding(1, 2).
			Width(boxWidth).
			Render("loading work order...")
		return box
	}

	wo := m.detail
	badge := lipgloss.NewStyle().Bold(true).Foreground(statusColor(wo.Status)).Render(m.statusLabel(wo.Status))
	prio := lipgloss.NewStyle().Foreground(priorityColor(wo.Priority)).Render(string(wo.Priority))

	lines := []string{
		titleStyle.Render(truncate(wo.Title, inner)) + "  " + badge + "  " + prio,
		"",
		labelStyle.Render(m.tr("detail.general")),
	}
	creator := "-"
	if wo.Creator != nil {
		creator = wo.Creator.Name
	}
	lines = append(lines,
		"  "+labelStyle.Render("place ")+wo.WorkPlace,
		"  "+labelStyle.Render("date  ")+wo.WorkDate,
		"  "+labelStyle.Render("lot   ")+wo.LotNumber,
		"  "+labelStyle.Render("by    ")+creator,
	)

	lines = append(lines, "", labelStyle.Render(m.tr("detail.work")), "  "+truncate(wo.Action, inner-2))
	if wo.Impact != "" {
		lines = append(lines, "  "+dimStyle.Render(truncate(wo.Impact, inner-2)))
	}
	if wo.Comment != "" {
		md := m.md.render(wo.Comment, m.theme, inner-2)
		if md != "" {
			lines = append(lines, md)
		}
	}

	if len(wo.Intervenants) > 0 {
		chips := make([]string, 0, len(wo.Intervenants))
		for _, iv := range wo.Intervenants {
			chips = append(chips, iv.IntervenantName())
		}
		lines = append(lines, "", labelStyle.Render(m.tr("detail.intervenants")), "  "+strings.Join(chips, ", "))
	}

	if len(wo.CustomFields) > 0 {
		lines = append(lines, "", labelStyle.Render(m.tr("detail.customFields")))
		for _, field := range wo.CustomFields {
			lines = append(lines, "  "+field.Name+": "+field.Value)
		}
	}

	if len(wo.Attachments) > 0 {
		lines = append(lines, "", labelStyle.Render(m.tr("detail.attachments")))
		for _, att := range wo.Attachments {
			lines = append(lines, "  "+att.Filename)
		}
	}

	lines = append(lines, "", labelStyle.Render(m.tr("detail.timeline")))
	for _, event := range domain.Timeline(wo) {
		badge := lipgloss.NewStyle().Foreground(statusColor(event.Status)).Render(m.statusLabel(event.Status))
		entry := fmt.Sprintf("  ● %s · %s · %s by %s", badge, event.Timestamp.Format(timeLayout), event.Label, event.ActorName)
		if event.Reason != "" {
			entry += dangerStyle.Render(" (" + event.Reason + ")")
		}
		lines = append(lines, entry)
	}

	switch wo.Status {
	case domain.StatusRejected:
		if wo.RejectionReason != "" {
			lines = append(lines, "", dangerStyle.Render(m.tr("detail.reason")+": "+wo.RejectionReason))
		}
	case domain.StatusClosed:
		if wo.ClosedAt != nil {
			lines = append(lines, "", dimStyle.Render(m.tr("detail.closedOn")+" "+wo.ClosedAt.Format(timeLayout)))
		}
	}

	switch m.mode {
	case modeRejectReason:
		lines = append(lines, "", dangerStyle.Render("reject: ")+m.rejectInput.View(), dimStyle.Render("enter confirm · esc cancel"))
	case modeAssign:
		lines = append(lines, "", m.renderAssignPanel(p, inner))
	default:
		lines = append(lines, "", dimStyle.Render(m.detailHint()))
	}

	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(p.accent).
		Padding(1, 2).
		Width(boxWidth).
		Render(strings.Join(lines, "\n"))
}

// detailHint lists the transitions available from the current status.
func (m Model) detailHint() string {
	hints := []string{}
	if m.detail.Status.CanStart() {
		hints = append(hints, "S start")
	}
	if m.detail.Status.CanComplete() {
		hints = append(hints, "C complete")
	}
	if m.detail.Status.CanReject() {
		hints = append(hints, "R reject")
	}
	if m.detail.Status.CanAssign() {
		hints = append(hints, "A assign")
	}
	hints = append(hints, "esc close")
	return strings.Join(hints, " · ")
}

// renderAssignPanel draws the team/member two-column picker.
func (m Model) renderAssignPanel(p palette, width int) string {
	focusStyle := lipgloss.NewStyle().Bold(true).Foreground(p.accent)
	mutedStyle := lipgloss.NewStyle().Foreground(p.muted)
	dimStyle := lipgloss.NewStyle().Foreground(p.dim)

	colWidth := max(16, (width-4)/2)
	teamLines := []string{mutedStyle.Render("team")}
	for idx, team := range m.detailTeams {
		marker := "  "
		style := mutedStyle
		if idx == m.assignTeamIdx {
			marker = "> "
			if m.assignFocus == 0 {
				style = focusStyle
			}
		}
		teamLines = append(teamLines, marker+style.Render(truncate(team.Name, colWidth-2)))
	}
	userLines := []string{mutedStyle.Render("member")}
	users := m.assignUsers()
	if len(users) == 0 {
		userLines = append(userLines, dimStyle.Render("(no members)"))
	}
	for idx, user := range users {
		marker := "  "
		style := mutedStyle
		if idx == m.assignUserIdx {
			marker = "> "
			if m.assignFocus == 1 {
				style = focusStyle
			}
		}
		userLines = append(userLines, marker+style.Render(truncate(user.Name, colWidth-2)))
	}

	columns := lipgloss.JoinHorizontal(lipgloss.Top,
		lipgloss.NewStyle().Width(colWidth).Render(strings.Join(teamLines, "\n")),
		"  ",
		lipgloss.NewStyle().Width(colWidth).Render(strings.Join(userLines, "\n")),
	)
	return columns + "\n" + dimStyle.Render("enter assign · S assign+start · tab column · esc cancel")
}

// renderForm draws the creation form overlay.
func (m Model) renderForm() string {
	p := themeFor(m.theme)
	titleStyle := lipgloss.NewStyle().Bold(true).Foreground(p.accent)
	labelStyle := lipgloss.NewStyle().Foreground(p.muted)
	focusStyle := lipgloss.NewStyle().Bold(true).Foreground(p.accent)
	errStyle := lipgloss.NewStyle().Foreground(p.danger)
	dimStyle := lipgloss.NewStyle().Foreground(p.dim)

	boxWidth := clamp(m.width-10, 48, 96)

	lines := []string{titleStyle.Render(m.tr("form.title")), ""}
	for idx, name := range formFields {
		label := labelStyle
		if m.form.focus == idx {
			label = focusStyle
		}
		line := label.Render(fmt.Sprintf("%-10s", name)) + " " + m.form.inputs[idx].View()
		if key, ok := m.form.errors[name]; ok {
			line += "  " + errStyle.Render(m.tr(key))
		}
		lines = append(lines, line)
	}

	prioLabel := labelStyle
	if m.form.focus == slotPriority {
		prioLabel = focusStyle
	}
	lines = append(lines, prioLabel.Render(fmt.Sprintf("%-10s", "priority"))+" "+
		lipgloss.NewStyle().Foreground(priorityColor(priorityOptions[m.form.priorityIdx])).Render(string(priorityOptions[m.form.priorityIdx])))

	teamLabel := labelStyle
	if m.form.focus == slotTeam {
		teamLabel = focusStyle
	}
	teams := m.formTeams()
	teamName := "(none)"
	if m.form.teamIdx >= 0 && m.form.teamIdx < len(teams) {
		teamName = teams[m.form.teamIdx].Name
	}
	teamLine := teamLabel.Render(fmt.Sprintf("%-10s", "team")) + " " + teamName
	if key, ok := m.form.errors["teamId"]; ok {
		teamLine += "  " + errStyle.Render(m.tr(key))
	}
	lines = append(lines, teamLine)

	memberLabel := labelStyle
	if m.form.focus == slotMembers {
		memberLabel = focusStyle
	}
	memberLine := memberLabel.Render(fmt.Sprintf("%-10s", "assign"))
	members := m.formMembers()
	if len(members) == 0 {
		memberLine += " " + dimStyle.Render("(pick a team first)")
		lines = append(lines, memberLine)
	} else {
		lines = append(lines, memberLine)
		for idx, member := range members {
			check := "[ ]"
			if _, ok := m.form.intervenants[member.ID]; ok {
				check = "[x]"
			}
			marker := "   "
			style := labelStyle
			if m.form.focus == slotMembers && idx == m.form.memberIdx {
				marker = " > "
				style = focusStyle
			}
			lines = append(lines, marker+check+" "+style.Render(member.Name))
		}
	}
	if key, ok := m.form.errors["intervenants"]; ok {
		lines = append(lines, "  "+errStyle.Render(m.tr(key)))
	}

	if len(m.form.custom) > 0 {
		lines = append(lines, "", labelStyle.Render("custom fields (ctrl+n add · ctrl+d remove)"))
		for idx, row := range m.form.custom {
			line := "  " + row.name.View() + " = " + row.value.View()
			if key, ok := m.form.errors["custom_"+fmt.Sprint(idx)+"_name"]; ok {
				line += "  " + errStyle.Render(m.tr(key))
			}
			if key, ok := m.form.errors["custom_"+fmt.Sprint(idx)+"_value"]; ok {
				line += "  " + errStyle.Render(m.tr(key))
			}
			lines = append(lines, line)
		}
	} else {
		lines = append(lines, "", dimStyle.Render("ctrl+n adds a custom field"))
	}

	fileLabel := labelStyle
	if m.form.focus == m.form.slotFile() {
		fileLabel = focusStyle
	}
	fileLine := fileLabel.Render(fmt.Sprintf("%-10s", "attach")) + " " + m.form.fileInput.View()
	if key, ok := m.form.errors["file"]; ok {
		fileLine += "  " + errStyle.Render(m.tr(key))
	}
	lines = append(lines, fileLine)
	for _, staged := range m.form.files {
		lines = append(lines, "  "+dimStyle.Render("· "+staged.filename))
	}

	footer := m.tr("form.submit") + " · tab next · esc cancel"
	if m.form.submitting {
		footer = "submitting..."
	}
	lines = append(lines, "", dimStyle.Render(footer))

	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(p.accent).
		Padding(1, 2).
		Width(boxWidth).
		Render(strings.Join(lines, "\n"))
}

// statusLabel localizes a status for display.
func (m Model) statusLabel(status domain.Status) string {
	return m.tr("status." + string(status))
}

// clamp bounds v to [low, high]; an inverted range collapses to low.
func clamp(v, low, high int) int {
	if high < low {
		return low
	}
	if v < low {
		return low
	}
	if v > high {
		return high
	}
	return v
}

// truncate shortens s to width runes with an ellipsis.
func truncate(s string, width int) string {
	if width <= 0 {
		return ""
	}
	runes := []rune(s)
	if len(runes) <= width {
		return s
	}
	if width == 1 {
		return "…"
	}
	return string(runes[:width-1]) + "…"
}
