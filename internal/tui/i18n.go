package tui

// labels holds the per-language string table. The backend serves a
// bilingual shop floor, so the client ships English and French only.
var labels = map[string]map[string]string{
	"en": {
		"login.title":              "Sign in",
		"login.email":              "Email",
		"login.password":           "Password",
		"login.submit":             "press enter to sign in",
		"dashboard.mine":           "My work orders",
		"dashboard.assigned":       "Assigned to me",
		"dashboard.open":           "Open",
		"dashboard.progress":       "In progress",
		"dashboard.closed":         "Closed",
		"dashboard.rejected":       "Rejected",
		"dashboard.total":          "Total",
		"dashboard.created":        "Created",
		"admin.title":              "All work orders",
		"admin.filters":            "Filters",
		"admin.any":                "any",
		"detail.timeline":          "Timeline",
		"detail.general":           "General",
		"detail.work":              "Work details",
		"detail.intervenants":      "Intervenants",
		"detail.customFields":      "Custom fields",
		"detail.attachments":       "Attachments",
		"detail.reason":            "Rejection reason",
		"detail.closedOn":          "Closed on",
		"form.title":               "New work order",
		"form.submit":              "ctrl+s submit",
		"form.required":            "required",
		"form.customValueMissing":  "value required",
		"form.customNameMissing":   "name required",
		"form.intervenantRequired": "select at least one intervenant",
		"form.fileMissing":         "file not found",
		"status.OPEN":              "Open",
		"status.IN_PROGRESS":       "In progress",
		"status.CLOSED":            "Closed",
		"status.REJECTED":          "Rejected",
		"status.ASSIGNED":          "Assigned",
	},
	"fr": {
		"login.title":              "Connexion",
		"login.email":              "Email",
		"login.password":           "Mot de passe",
		"login.submit":             "entrée pour se connecter",
		"dashboard.mine":           "Mes ordres de travail",
		"dashboard.assigned":       "Assignés à moi",
		"dashboard.open":           "Ouverts",
		"dashboard.progress":       "En cours",
		"dashboard.closed":         "Clôturés",
		"dashboard.rejected":       "Rejetés",
		"dashboard.total":          "Total",
		"dashboard.created":        "Créés",
		"admin.title":              "Tous les ordres de travail",
		"admin.filters":            "Filtres",
		"admin.any":                "tous",
		"detail.timeline":          "Chronologie",
		"detail.general":           "Général",
		"detail.work":              "Détails des travaux",
		"detail.intervenants":      "Intervenants",
		"detail.customFields":      "Champs personnalisés",
		"detail.attachments":       "Pièces jointes",
		"detail.reason":            "Motif de rejet",
		"detail.closedOn":          "Clôturé le",
		"form.title":               "Nouvel ordre de travail",
		"form.submit":              "ctrl+s envoyer",
		"form.required":            "obligatoire",
		"form.customValueMissing":  "valeur obligatoire",
		"form.customNameMissing":   "nom obligatoire",
		"form.intervenantRequired": "sélectionner au moins un intervenant",
		"form.fileMissing":         "fichier introuvable",
		"status.OPEN":              "Ouvert",
		"status.IN_PROGRESS":       "En cours",
		"status.CLOSED":            "Clôturé",
		"status.REJECTED":          "Rejeté",
		"status.ASSIGNED":          "Assigné",
	},
}

// tr resolves a label for the model's language, falling back to English
// and then to the key itself so missing entries stay visible.
func (m Model) tr(key string) string {
	if table, ok := labels[m.language]; ok {
		if v, ok := table[key]; ok {
			return v
		}
	}
	if v, ok := labels["en"][key]; ok {
		return v
	}
	return key
}
