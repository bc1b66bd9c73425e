package tui

import (
	"os"
	"path/filepath"
	"testing"

	"otx/internal/domain"
)

func TestSanitizeText(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{name: "plain text passes", in: "replace the breaker", want: "replace the breaker"},
		{name: "tags stripped", in: "<script>alert(1)</script>urgent", want: "urgent"},
		{name: "markup removed, content kept", in: "<b>hall B</b>", want: "hall B"},
		{name: "entities restored", in: "cable & conduit", want: "cable & conduit"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := sanitizeText(tc.in); got != tc.want {
				t.Fatalf("sanitizeText(%q) = %q, want %q", tc.in, got, tc.want)
			}
		})
	}
}

func TestFormValidationBlocksSubmission(t *testing.T) {
	svc := &fakeService{teams: []domain.Team{{ID: "team1", Name: "Electrical"}}}
	m, _ := newPersonalModel(svc)
	m = applyMsg(t, m, teamsMsg{teams: svc.teams})
	m.mode = modeForm
	m.form = newFormState()

	updated, cmd := m.submitForm()
	m = updated.(Model)
	if cmd != nil {
		t.Fatal("invalid form must not issue a network call")
	}
	if len(svc.created) != 0 {
		t.Fatal("invalid form must not reach the gateway")
	}
	for _, field := range []string{"title", "workPlace", "action", "workDate", "contactTT", "teamId", "intervenants"} {
		if _, ok := m.form.errors[field]; !ok {
			t.Fatalf("expected error for %q, got %v", field, m.form.errors)
		}
	}
}

func TestFormCustomFieldPairValidation(t *testing.T) {
	svc := &fakeService{}
	m, _ := newPersonalModel(svc)
	m.form = newFormState()
	m.form.custom = append(m.form.custom, newCustomFieldRow(), newCustomFieldRow())
	m.form.custom[0].name.SetValue("voltage")
	m.form.custom[1].value.SetValue("480V")

	errs := m.validateForm()
	if errs["custom_0_value"] != "form.customValueMissing" {
		t.Fatalf("expected missing value error, got %v", errs)
	}
	if errs["custom_1_name"] != "form.customNameMissing" {
		t.Fatalf("expected missing name error, got %v", errs)
	}
}

func TestFormSubmitSendsSanitizedInput(t *testing.T) {
	team := domain.Team{ID: "team1", Name: "Electrical", Users: []domain.User{
		{ID: "u9", Name: "Nadia"},
		{ID: "u10", Name: "Omar"},
	}}
	svc := &fakeService{teams: []domain.Team{team}}
	m, _ := newPersonalModel(svc)
	m = applyMsg(t, m, teamsMsg{teams: svc.teams})
	m.mode = modeForm
	m.form = newFormState()

	m.form.inputs[fieldTitle].SetValue("<b>Replace breaker</b>")
	m.form.inputs[fieldWorkPlace].SetValue("Hall B")
	m.form.inputs[fieldAction].SetValue("swap unit 4")
	m.form.inputs[fieldWorkDate].SetValue("2026-04-02")
	m.form.inputs[fieldContactTT].SetValue("ext 4411")
	m.form.teamIdx = 0
	m.form.intervenants = map[string]struct{}{"u10": {}, "u9": {}}
	m.form.custom = append(m.form.custom, newCustomFieldRow())
	m.form.custom[0].name.SetValue("voltage")
	m.form.custom[0].value.SetValue("480V")

	updated, cmd := m.submitForm()
	m = updated.(Model)
	if cmd == nil {
		t.Fatalf("expected submission command, errors: %v", m.form.errors)
	}
	m = applyCmd(t, m, cmd)

	if len(svc.created) != 1 {
		t.Fatalf("expected one creation call, got %d", len(svc.created))
	}
	in := svc.created[0]
	if in.Title != "Replace breaker" {
		t.Fatalf("expected sanitized title, got %q", in.Title)
	}
	if in.TeamID != "team1" || in.Priority != domain.PriorityNormal {
		t.Fatalf("unexpected payload: %+v", in)
	}
	// Intervenants follow team member order, not selection order.
	if len(in.Intervenants) != 2 || in.Intervenants[0] != "u9" || in.Intervenants[1] != "u10" {
		t.Fatalf("expected ordered intervenants, got %v", in.Intervenants)
	}
	if len(in.CustomFields) != 1 || in.CustomFields[0].Name != "voltage" {
		t.Fatalf("unexpected custom fields: %v", in.CustomFields)
	}

	// Success resets the form and closes the overlay.
	if m.mode != modeNone {
		t.Fatalf("expected overlay closed, got mode %d", m.mode)
	}
	if m.form.inputs[fieldTitle].Value() != "" || len(m.form.files) != 0 {
		t.Fatal("expected form reset after success")
	}
}

func TestFormFileStaging(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "plan.pdf")
	if err := os.WriteFile(path, []byte("pdf"), 0o644); err != nil {
		t.Fatal(err)
	}

	svc := &fakeService{}
	m, _ := newPersonalModel(svc)
	m.form = newFormState()
	m.form.setFocus(m.form.slotFile())

	m.form.fileInput.SetValue(path)
	updated, _ := m.stageFile()
	m = updated.(Model)
	if len(m.form.files) != 1 {
		t.Fatalf("expected one staged file, got %d", len(m.form.files))
	}
	staged := m.form.files[0]
	if staged.filename != "plan.pdf" || staged.id == "" {
		t.Fatalf("unexpected staged file: %+v", staged)
	}

	m.form.fileInput.SetValue(filepath.Join(dir, "missing.pdf"))
	updated, _ = m.stageFile()
	m = updated.(Model)
	if len(m.form.files) != 1 {
		t.Fatal("missing file must not be staged")
	}
	if m.form.errors["file"] != "form.fileMissing" {
		t.Fatalf("expected file error, got %v", m.form.errors)
	}
}

func TestFormWorkDateFormat(t *testing.T) {
	svc := &fakeService{teams: []domain.Team{{ID: "team1", Name: "Electrical"}}}
	m, _ := newPersonalModel(svc)
	m = applyMsg(t, m, teamsMsg{teams: svc.teams})
	m.form = newFormState()
	m.form.inputs[fieldWorkDate].SetValue("02/04/2026")

	errs := m.validateForm()
	if errs["workDate"] != "form.required" {
		t.Fatalf("expected date format rejection, got %v", errs)
	}
}
