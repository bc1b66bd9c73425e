package tui

import (
	"context"
	"strings"
	"sync"

	tea "charm.land/bubbletea/v2"

	"otx/internal/domain"
)

// openDetail enters the detail overlay and starts the joined fetch under a
// cancelable context scoped to the overlay's lifetime.
func (m Model) openDetail(id string) (tea.Model, tea.Cmd) {
	if m.detailCancel != nil {
		m.detailCancel()
	}
	ctx, cancel := context.WithCancel(m.ctx)
	m.detailCtx = ctx
	m.detailCancel = cancel
	m.mode = modeDetail
	m.detailID = id
	m.detailLoaded = false
	m.detailSeq++
	cmd := m.fetchDetail(m.detailSeq, id)
	return m, cmd
}

// closeDetail cancels any in-flight overlay fetch and refreshes the
// dashboard behind it.
func (m *Model) closeDetail() tea.Cmd {
	if m.detailCancel != nil {
		m.detailCancel()
		m.detailCancel = nil
	}
	m.mode = modeNone
	m.detailLoaded = false
	m.rejectInput.SetValue("")
	m.rejectInput.Blur()
	return m.refreshUnderlying()
}

// fetchDetail joins the order and team fetches. The order is mandatory;
// a failed team fetch only degrades the assignment panel.
func (m Model) fetchDetail(seq int, id string) tea.Cmd {
	ctx, svc := m.detailCtx, m.svc
	if ctx == nil {
		ctx = m.ctx
	}
	return func() tea.Msg {
		var (
			order    domain.WorkOrder
			teams    []domain.Team
			orderErr error
			teamsErr error
		)
		var wg sync.WaitGroup
		wg.Add(2)
		go func() { defer wg.Done(); order, orderErr = svc.WorkOrder(ctx, id) }()
		go func() { defer wg.Done(); teams, teamsErr = svc.Teams(ctx) }()
		wg.Wait()
		if orderErr != nil {
			return detailMsg{seq: seq, err: orderErr}
		}
		if teamsErr != nil {
			teams = nil
		}
		return detailMsg{seq: seq, order: order, teams: teams}
	}
}

// detailActorID resolves the acting user for a transition: the first
// intervenant when one is assigned, otherwise the logged-in identity.
func (m Model) detailActorID() string {
	if len(m.detail.Intervenants) > 0 {
		if id := m.detail.Intervenants[0].IntervenantID(); id != "" {
			return id
		}
	}
	if identity, ok := m.sess.Identity(); ok {
		return identity.ID
	}
	return ""
}

// handleDetailKey drives the detail overlay in its resting state.
func (m Model) handleDetailKey(msg tea.KeyPressMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c":
		m.cancel()
		return m, tea.Quit
	case "esc", "q":
		cmd := m.closeDetail()
		return m, cmd
	}
	if !m.detailLoaded {
		return m, nil
	}
	switch msg.String() {
	case "S":
		if !m.detail.Status.CanStart() {
			m.status = "start requires an open order"
			return m, nil
		}
		return m, m.transitionCmd("start", "")
	case "C":
		if !m.detail.Status.CanComplete() {
			m.status = "complete requires an order in progress"
			return m, nil
		}
		return m, m.transitionCmd("complete", "")
	case "R":
		if !m.detail.Status.CanReject() {
			m.status = "cannot reject a finished order"
			return m, nil
		}
		m.mode = modeRejectReason
		m.rejectInput.Focus()
		return m, nil
	case "A":
		if !m.detail.Status.CanAssign() {
			m.status = "assignment requires an open order"
			return m, nil
		}
		if len(m.detailTeams) == 0 {
			m.status = "no teams available"
			return m, nil
		}
		m.mode = modeAssign
		m.assignFocus = 0
		m.assignTeamIdx = 0
		m.assignUserIdx = 0
		return m, nil
	}
	return m, nil
}

// handleRejectKey drives the inline rejection-reason prompt.
func (m Model) handleRejectKey(msg tea.KeyPressMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.mode = modeDetail
		m.rejectInput.SetValue("")
		m.rejectInput.Blur()
		return m, nil
	case "enter":
		reason := strings.TrimSpace(m.rejectInput.Value())
		if reason == "" {
			m.status = "a rejection reason is required"
			return m, nil
		}
		return m, m.transitionCmd("reject", reason)
	}
	var cmd tea.Cmd
	m.rejectInput, cmd = m.rejectInput.Update(msg)
	return m, cmd
}

// assignUsers resolves the member list of the highlighted team.
func (m Model) assignUsers() []domain.User {
	if len(m.detailTeams) == 0 {
		return nil
	}
	return m.detailTeams[clamp(m.assignTeamIdx, 0, len(m.detailTeams)-1)].Users
}

// handleAssignKey drives the team/user assignment panel.
func (m Model) handleAssignKey(msg tea.KeyPressMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.mode = modeDetail
		return m, nil
	case "tab", "h", "l", "left", "right":
		m.assignFocus = (m.assignFocus + 1) % 2
		return m, nil
	case "j", "down":
		if m.assignFocus == 0 {
			m.assignTeamIdx = clamp(m.assignTeamIdx+1, 0, len(m.detailTeams)-1)
			m.assignUserIdx = 0
		} else {
			m.assignUserIdx = clamp(m.assignUserIdx+1, 0, len(m.assignUsers())-1)
		}
		return m, nil
	case "k", "up":
		if m.assignFocus == 0 {
			m.assignTeamIdx = clamp(m.assignTeamIdx-1, 0, len(m.detailTeams)-1)
			m.assignUserIdx = 0
		} else {
			m.assignUserIdx = clamp(m.assignUserIdx-1, 0, len(m.assignUsers())-1)
		}
		return m, nil
	case "enter":
		return m.submitAssign(false)
	case "S":
		return m.submitAssign(true)
	}
	return m, nil
}

// submitAssign posts the highlighted user as sole intervenant, optionally
// chaining a start call with that user as actor.
func (m Model) submitAssign(startAfter bool) (tea.Model, tea.Cmd) {
	users := m.assignUsers()
	if len(users) == 0 {
		m.status = "selected team has no members"
		return m, nil
	}
	user := users[clamp(m.assignUserIdx, 0, len(users)-1)]
	identity, ok := m.sess.Identity()
	if !ok {
		m.status = "not signed in"
		return m, nil
	}
	return m, m.assignCmd(user.ID, identity.ID, startAfter)
}

// transitionCmd posts one transition with the resolved actor.
func (m Model) transitionCmd(verb, reason string) tea.Cmd {
	ctx, svc, id, actor := m.detailCtx, m.svc, m.detailID, m.detailActorID()
	return func() tea.Msg {
		var err error
		switch verb {
		case "start":
			err = svc.Start(ctx, id, actor)
		case "complete":
			err = svc.Complete(ctx, id, actor)
		case "reject":
			err = svc.Reject(ctx, id, actor, reason)
		}
		return actionMsg{verb: verb, err: err}
	}
}

// assignCmd posts the assignment and, when requested, starts the order
// with the newly assigned user as actor.
func (m Model) assignCmd(userID, assignedByID string, startAfter bool) tea.Cmd {
	ctx, svc, id := m.detailCtx, m.svc, m.detailID
	return func() tea.Msg {
		if err := svc.Assign(ctx, id, userID, assignedByID); err != nil {
			return actionMsg{verb: "assign", err: err}
		}
		if !startAfter {
			return actionMsg{verb: "assign"}
		}
		if err := svc.Start(ctx, id, userID); err != nil {
			return actionMsg{verb: "start", err: err}
		}
		return actionMsg{verb: "assign+start"}
	}
}
