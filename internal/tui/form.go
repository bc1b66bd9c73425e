package tui

import (
	"html"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"charm.land/bubbles/v2/textinput"
	tea "charm.land/bubbletea/v2"
	"github.com/google/uuid"
	"github.com/microcosm-cc/bluemonday"

	"otx/internal/api"
	"otx/internal/domain"
)

// formFields stores the scalar form field keys in display/update order.
var formFields = [...]string{"title", "workPlace", "action", "workDate", "contactTT", "impact", "comment"}

// scalar form field indexes used throughout keyboard/update logic.
const (
	fieldTitle = iota
	fieldWorkPlace
	fieldAction
	fieldWorkDate
	fieldContactTT
	fieldImpact
	fieldComment
)

// priorityOptions stores the priority cycle; index 1 (NORMAL) is the default.
var priorityOptions = []domain.Priority{
	domain.PriorityLow,
	domain.PriorityNormal,
	domain.PriorityHigh,
	domain.PriorityUrgent,
}

// sanitizePolicy strips all markup from free-text input before it enters
// form state, mirroring the backend's expectation of plain text.
var sanitizePolicy = bluemonday.StrictPolicy()

// sanitizeText reduces user input to plain text. The policy HTML-escapes
// what it keeps, so the escape pass is undone to store the raw characters.
func sanitizeText(value string) string {
	return html.UnescapeString(sanitizePolicy.Sanitize(value))
}

// stagedFile is one attachment staged locally before submission.
type stagedFile struct {
	id       string
	path     string
	filename string
}

// customFieldRow is one editable name/value pair.
type customFieldRow struct {
	name  textinput.Model
	value textinput.Model
}

// formState holds the creation form between key presses.
type formState struct {
	inputs       []textinput.Model
	focus        int
	priorityIdx  int
	teamIdx      int
	intervenants map[string]struct{}
	memberIdx    int
	custom       []customFieldRow
	fileInput    textinput.Model
	files        []stagedFile
	errors       map[string]string
	submitting   bool
}

// focus slot layout: scalar fields, then priority, team, members, the
// custom rows (two slots each), and finally the attachment path input.
const (
	slotPriority = len(formFields)
	slotTeam     = slotPriority + 1
	slotMembers  = slotTeam + 1
	slotCustom   = slotMembers + 1
)

func (f formState) slotFile() int  { return slotCustom + 2*len(f.custom) }
func (f formState) slotCount() int { return f.slotFile() + 1 }

// newFormState constructs an empty creation form.
func newFormState() formState {
	inputs := make([]textinput.Model, len(formFields))
	for i, name := range formFields {
		in := textinput.New()
		in.Prompt = ""
		in.CharLimit = 500
		switch name {
		case "workDate":
			in.Placeholder = "YYYY-MM-DD"
			in.CharLimit = 10
		case "comment":
			in.Placeholder = "markdown supported"
		}
		inputs[i] = in
	}
	fileInput := textinput.New()
	fileInput.Prompt = ""
	fileInput.Placeholder = "path to attach, enter to stage"
	fileInput.CharLimit = 1024
	return formState{
		inputs:       inputs,
		priorityIdx:  1,
		teamIdx:      -1,
		intervenants: map[string]struct{}{},
		fileInput:    fileInput,
		errors:       map[string]string{},
	}
}

// newCustomFieldRow constructs one empty name/value pair.
func newCustomFieldRow() customFieldRow {
	name := textinput.New()
	name.Prompt = ""
	name.Placeholder = "name"
	name.CharLimit = 120
	value := textinput.New()
	value.Prompt = ""
	value.Placeholder = "value"
	value.CharLimit = 500
	return customFieldRow{name: name, value: value}
}

// formTeams resolves the team directory backing the form.
func (m Model) formTeams() []domain.Team {
	if len(m.teams) > 0 {
		return m.teams
	}
	return m.detailTeams
}

// formMembers resolves the member list of the selected team.
func (m Model) formMembers() []domain.User {
	teams := m.formTeams()
	if m.form.teamIdx < 0 || m.form.teamIdx >= len(teams) {
		return nil
	}
	return teams[m.form.teamIdx].Users
}

// blurAll drops focus from every form input.
func (f *formState) blurAll() {
	for i := range f.inputs {
		f.inputs[i].Blur()
	}
	for i := range f.custom {
		f.custom[i].name.Blur()
		f.custom[i].value.Blur()
	}
	f.fileInput.Blur()
}

// sanitizeAll strips markup from every free-text input.
func (f *formState) sanitizeAll() {
	for i := range f.inputs {
		f.inputs[i].SetValue(sanitizeText(f.inputs[i].Value()))
	}
	for i := range f.custom {
		f.custom[i].name.SetValue(sanitizeText(f.custom[i].name.Value()))
		f.custom[i].value.SetValue(sanitizeText(f.custom[i].value.Value()))
	}
}

// sanitizeFocused strips markup from the input losing focus.
func (f *formState) sanitizeFocused() {
	switch {
	case f.focus < len(formFields):
		f.inputs[f.focus].SetValue(sanitizeText(f.inputs[f.focus].Value()))
	case f.focus >= slotCustom && f.focus < f.slotFile():
		row := (f.focus - slotCustom) / 2
		if (f.focus-slotCustom)%2 == 0 {
			f.custom[row].name.SetValue(sanitizeText(f.custom[row].name.Value()))
		} else {
			f.custom[row].value.SetValue(sanitizeText(f.custom[row].value.Value()))
		}
	}
}

// setFocus moves the cursor to a slot and focuses the matching input.
func (f *formState) setFocus(slot int) {
	f.sanitizeFocused()
	f.blurAll()
	f.focus = clamp(slot, 0, f.slotCount()-1)
	switch {
	case f.focus < len(formFields):
		f.inputs[f.focus].Focus()
	case f.focus >= slotCustom && f.focus < f.slotFile():
		row := (f.focus - slotCustom) / 2
		if (f.focus-slotCustom)%2 == 0 {
			f.custom[row].name.Focus()
		} else {
			f.custom[row].value.Focus()
		}
	case f.focus == f.slotFile():
		f.fileInput.Focus()
	}
}

// handleFormKey drives the creation form overlay.
func (m Model) handleFormKey(msg tea.KeyPressMsg) (tea.Model, tea.Cmd) {
	if m.form.submitting {
		return m, nil
	}
	switch msg.String() {
	case "ctrl+c":
		m.cancel()
		return m, tea.Quit
	case "esc":
		m.mode = modeNone
		m.form = newFormState()
		return m, nil
	case "tab", "enter":
		if m.form.focus == m.form.slotFile() && msg.String() == "enter" {
			return m.stageFile()
		}
		m.form.setFocus(m.form.focus + 1)
		return m, nil
	case "shift+tab":
		m.form.setFocus(m.form.focus - 1)
		return m, nil
	case "ctrl+n":
		m.form.custom = append(m.form.custom, newCustomFieldRow())
		m.form.setFocus(slotCustom + 2*(len(m.form.custom)-1))
		return m, nil
	case "ctrl+d":
		return m.removeAtFocus()
	case "ctrl+s":
		return m.submitForm()
	}

	switch {
	case m.form.focus == slotPriority:
		switch msg.String() {
		case "j", "down", "l", "right", " ", "space":
			m.form.priorityIdx = (m.form.priorityIdx + 1) % len(priorityOptions)
		case "k", "up", "h", "left":
			m.form.priorityIdx = (m.form.priorityIdx - 1 + len(priorityOptions)) % len(priorityOptions)
		}
		return m, nil
	case m.form.focus == slotTeam:
		teams := m.formTeams()
		if len(teams) == 0 {
			return m, nil
		}
		switch msg.String() {
		case "j", "down", "l", "right", " ", "space":
			m.form.teamIdx = (m.form.teamIdx + 1) % len(teams)
		case "k", "up", "h", "left":
			m.form.teamIdx = (m.form.teamIdx - 1 + len(teams)) % len(teams)
		default:
			return m, nil
		}
		// Changing team resets the selection like the web form does.
		m.form.intervenants = map[string]struct{}{}
		m.form.memberIdx = 0
		return m, nil
	case m.form.focus == slotMembers:
		members := m.formMembers()
		if len(members) == 0 {
			return m, nil
		}
		switch msg.String() {
		case "j", "down":
			m.form.memberIdx = clamp(m.form.memberIdx+1, 0, len(members)-1)
		case "k", "up":
			m.form.memberIdx = clamp(m.form.memberIdx-1, 0, len(members)-1)
		case " ", "space":
			id := members[clamp(m.form.memberIdx, 0, len(members)-1)].ID
			if _, ok := m.form.intervenants[id]; ok {
				delete(m.form.intervenants, id)
			} else {
				m.form.intervenants[id] = struct{}{}
			}
		}
		return m, nil
	}

	var cmd tea.Cmd
	switch {
	case m.form.focus < len(formFields):
		m.form.inputs[m.form.focus], cmd = m.form.inputs[m.form.focus].Update(msg)
	case m.form.focus >= slotCustom && m.form.focus < m.form.slotFile():
		row := (m.form.focus - slotCustom) / 2
		if (m.form.focus-slotCustom)%2 == 0 {
			m.form.custom[row].name, cmd = m.form.custom[row].name.Update(msg)
		} else {
			m.form.custom[row].value, cmd = m.form.custom[row].value.Update(msg)
		}
	case m.form.focus == m.form.slotFile():
		m.form.fileInput, cmd = m.form.fileInput.Update(msg)
	}
	return m, cmd
}

// stageFile validates the typed path and stages it with a fresh handle.
func (m Model) stageFile() (tea.Model, tea.Cmd) {
	path := strings.TrimSpace(m.form.fileInput.Value())
	if path == "" {
		return m, nil
	}
	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		m.form.errors["file"] = "form.fileMissing"
		return m, nil
	}
	delete(m.form.errors, "file")
	m.form.files = append(m.form.files, stagedFile{
		id:       uuid.NewString(),
		path:     path,
		filename: filepath.Base(path),
	})
	m.form.fileInput.SetValue("")
	return m, nil
}

// removeAtFocus drops the focused custom row or the last staged file.
func (m Model) removeAtFocus() (tea.Model, tea.Cmd) {
	switch {
	case m.form.focus >= slotCustom && m.form.focus < m.form.slotFile():
		row := (m.form.focus - slotCustom) / 2
		m.form.custom = append(m.form.custom[:row], m.form.custom[row+1:]...)
		for key := range m.form.errors {
			if strings.HasPrefix(key, "custom_") {
				delete(m.form.errors, key)
			}
		}
		m.form.setFocus(min(m.form.focus, m.form.slotCount()-1))
	case m.form.focus == m.form.slotFile() && len(m.form.files) > 0:
		m.form.files = m.form.files[:len(m.form.files)-1]
	}
	return m, nil
}

// validateForm fills the per-field error map; an empty map means valid.
func (m *Model) validateForm() map[string]string {
	m.form.sanitizeAll()
	errs := map[string]string{}
	required := []int{fieldTitle, fieldWorkPlace, fieldAction, fieldWorkDate, fieldContactTT}
	for _, idx := range required {
		if strings.TrimSpace(m.form.inputs[idx].Value()) == "" {
			errs[formFields[idx]] = "form.required"
		}
	}
	if date := strings.TrimSpace(m.form.inputs[fieldWorkDate].Value()); date != "" {
		if _, err := time.Parse("2006-01-02", date); err != nil {
			errs["workDate"] = "form.required"
		}
	}
	teams := m.formTeams()
	if m.form.teamIdx < 0 || m.form.teamIdx >= len(teams) {
		errs["teamId"] = "form.required"
	}
	if len(m.form.intervenants) == 0 {
		errs["intervenants"] = "form.intervenantRequired"
	}
	for idx, row := range m.form.custom {
		name := strings.TrimSpace(row.name.Value())
		value := strings.TrimSpace(row.value.Value())
		if name != "" && value == "" {
			errs["custom_"+strconv.Itoa(idx)+"_value"] = "form.customValueMissing"
		}
		if name == "" && value != "" {
			errs["custom_"+strconv.Itoa(idx)+"_name"] = "form.customNameMissing"
		}
	}
	return errs
}

// submitForm validates, assembles the multipart input, and posts it.
// Validation failure blocks the submission entirely.
func (m Model) submitForm() (tea.Model, tea.Cmd) {
	errs := m.validateForm()
	m.form.errors = errs
	if len(errs) > 0 {
		m.status = "fix the highlighted fields"
		return m, nil
	}

	teams := m.formTeams()
	team := teams[m.form.teamIdx]
	intervenants := make([]string, 0, len(m.form.intervenants))
	for _, member := range team.Users {
		if _, ok := m.form.intervenants[member.ID]; ok {
			intervenants = append(intervenants, member.ID)
		}
	}
	customFields := make([]domain.CustomField, 0, len(m.form.custom))
	for _, row := range m.form.custom {
		name := strings.TrimSpace(row.name.Value())
		value := strings.TrimSpace(row.value.Value())
		if name == "" && value == "" {
			continue
		}
		customFields = append(customFields, domain.CustomField{Name: name, Value: value})
	}

	in := api.CreateWorkOrderInput{
		Title:        strings.TrimSpace(m.form.inputs[fieldTitle].Value()),
		WorkPlace:    strings.TrimSpace(m.form.inputs[fieldWorkPlace].Value()),
		Action:       strings.TrimSpace(m.form.inputs[fieldAction].Value()),
		WorkDate:     strings.TrimSpace(m.form.inputs[fieldWorkDate].Value()),
		ContactTT:    strings.TrimSpace(m.form.inputs[fieldContactTT].Value()),
		TeamID:       team.ID,
		Impact:       strings.TrimSpace(m.form.inputs[fieldImpact].Value()),
		Comment:      strings.TrimSpace(m.form.inputs[fieldComment].Value()),
		Priority:     priorityOptions[m.form.priorityIdx],
		Intervenants: intervenants,
		CustomFields: customFields,
	}
	m.form.submitting = true
	m.status = "submitting..."
	return m, m.createCmd(in, append([]stagedFile(nil), m.form.files...))
}

// createCmd opens the staged files and posts the creation request.
func (m Model) createCmd(in api.CreateWorkOrderInput, files []stagedFile) tea.Cmd {
	ctx, svc := m.ctx, m.svc
	return func() tea.Msg {
		handles := make([]*os.File, 0, len(files))
		defer func() {
			for _, h := range handles {
				h.Close()
			}
		}()
		for _, f := range files {
			h, err := os.Open(f.path)
			if err != nil {
				return createdMsg{err: err}
			}
			handles = append(handles, h)
			in.Attachments = append(in.Attachments, api.AttachmentUpload{Filename: f.filename, Content: h})
		}
		order, err := svc.CreateWorkOrder(ctx, in)
		return createdMsg{order: order, err: err}
	}
}
