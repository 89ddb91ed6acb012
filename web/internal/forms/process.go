package forms

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/devilmonastery/processo/internal/domain/entities"
)

var processMessages = map[string]string{
	"folder":           "A pasta é obrigatória",
	"title":            "O título deve ter pelo menos 3 caracteres",
	"tags.*":           "Etiqueta inválida",
	"instance":         "A instância é obrigatória",
	"processNumber":    "O número do processo é obrigatório",
	"responsible":      "O responsável é obrigatório",
	"userId":           "ID do usuário é obrigatório",
	"courtLink":        "Link inválido",
	"caseValue":        "Valor inválido",
	"convictionValue":  "Valor inválido",
	"distributionDate": "Data inválida",
	"accessLevel":      "Nível de acesso inválido",
	"clients.*.name":   "O nome do cliente é obrigatório",
	"involved.*.name":  "O nome do envolvido é obrigatório",
}

// ProcessForm holds the raw values of the case form so it can be re-rendered
type ProcessForm struct {
	Folder           string
	Title            string
	Tags             []string
	CustomTags       string
	Instance         string
	ProcessNumber    string
	Responsible      string
	UserID           string
	CourtNumber      string
	CourtSection     string
	Forum            string
	Action           string
	CourtLink        string
	Description      string
	Observations     string
	CaseValue        string
	ConvictionValue  string
	DistributionDate string
	AccessLevel      string
	Clients          []entities.Party
	Involved         []entities.Party
}

// NewProcessForm returns an empty form with one client row
func NewProcessForm(userID string) *ProcessForm {
	return &ProcessForm{
		UserID:      userID,
		AccessLevel: string(entities.AccessPublic),
		Clients:     []entities.Party{{}},
	}
}

// ProcessFormFrom prefills the form from an existing case
func ProcessFormFrom(p *entities.Process) *ProcessForm {
	f := &ProcessForm{
		Folder:           p.Folder,
		Title:            p.Title,
		Tags:             append([]string(nil), p.Tags...),
		Instance:         p.Instance,
		ProcessNumber:    p.ProcessNumber,
		Responsible:      p.Responsible,
		UserID:           p.UserID,
		Action:           p.Action,
		CourtLink:        p.CourtLink,
		Description:      p.Description,
		Observations:     p.Observations,
		CaseValue:        FormatDecimal(p.CaseValue),
		ConvictionValue:  FormatDecimal(p.ConvictionValue),
		DistributionDate: dateOnly(p.DistributionDate),
		AccessLevel:      string(p.AccessLevel),
		Clients:          append([]entities.Party(nil), p.Clients...),
		Involved:         append([]entities.Party(nil), p.Involved...),
	}
	if p.Court != nil {
		f.CourtNumber = string(p.Court.Number)
		f.CourtSection = p.Court.CourtSection
		f.Forum = p.Court.Forum
	}
	if f.AccessLevel == "" {
		f.AccessLevel = string(entities.AccessPublic)
	}
	if len(f.Clients) == 0 {
		f.Clients = []entities.Party{{}}
	}
	return f
}

// ParseProcessForm reads the case form from posted values. Party rows come
// from the parallel client_name/client_qualification and
// involved_name/involved_qualification lists.
func ParseProcessForm(values url.Values) *ProcessForm {
	get := func(k string) string { return strings.TrimSpace(values.Get(k)) }
	return &ProcessForm{
		Folder:           get("folder"),
		Title:            get("title"),
		Tags:             values["tags"],
		CustomTags:       get("custom_tags"),
		Instance:         get("instance"),
		ProcessNumber:    get("processNumber"),
		Responsible:      get("responsible"),
		UserID:           get("userId"),
		CourtNumber:      get("court.number"),
		CourtSection:     get("court.courtSection"),
		Forum:            get("court.forum"),
		Action:           get("action"),
		CourtLink:        get("courtLink"),
		Description:      values.Get("description"),
		Observations:     values.Get("observations"),
		CaseValue:        get("caseValue"),
		ConvictionValue:  get("convictionValue"),
		DistributionDate: get("distributionDate"),
		AccessLevel:      get("accessLevel"),
		Clients:          parseParties(values["client_name"], values["client_qualification"]),
		Involved:         parseParties(values["involved_name"], values["involved_qualification"]),
	}
}

// parseParties zips the name and qualification lists, dropping blank rows
func parseParties(names, qualifications []string) []entities.Party {
	var out []entities.Party
	for i, name := range names {
		p := entities.Party{Name: strings.TrimSpace(name)}
		if i < len(qualifications) {
			p.Qualification = strings.TrimSpace(qualifications[i])
		}
		if p.Name == "" && p.Qualification == "" {
			continue
		}
		out = append(out, p)
	}
	return out
}

// AllTags merges the selected catalog tags and the comma separated custom
// labels, slugged and without duplicates
func (f *ProcessForm) AllTags() []string {
	seen := map[string]bool{}
	var out []string
	add := func(v string) {
		if v == "" || seen[v] {
			return
		}
		seen[v] = true
		out = append(out, v)
	}
	for _, t := range f.Tags {
		add(strings.TrimSpace(t))
	}
	for _, label := range strings.Split(f.CustomTags, ",") {
		add(entities.TagSlug(label))
	}
	if out == nil {
		out = []string{}
	}
	return out
}

// HasTag reports whether tag is among the selected tags
func (f *ProcessForm) HasTag(tag string) bool {
	for _, t := range f.Tags {
		if t == tag {
			return true
		}
	}
	return false
}

// Validate converts the form into a case, or returns the field errors
func (f *ProcessForm) Validate() (*entities.Process, FieldErrors, error) {
	fe := FieldErrors{}

	caseValue, err := ParseDecimal(f.CaseValue)
	if err != nil {
		fe.Add("caseValue", processMessages["caseValue"])
	}
	convictionValue, err := ParseDecimal(f.ConvictionValue)
	if err != nil {
		fe.Add("convictionValue", processMessages["convictionValue"])
	}

	p := &entities.Process{
		Folder:           f.Folder,
		Title:            f.Title,
		ProcessNumber:    f.ProcessNumber,
		Instance:         f.Instance,
		Responsible:      f.Responsible,
		UserID:           f.UserID,
		Tags:             f.AllTags(),
		Clients:          f.Clients,
		Involved:         f.Involved,
		Action:           f.Action,
		CourtLink:        f.CourtLink,
		Description:      f.Description,
		Observations:     f.Observations,
		CaseValue:        caseValue,
		ConvictionValue:  convictionValue,
		DistributionDate: f.DistributionDate,
		AccessLevel:      entities.AccessLevel(f.AccessLevel),
	}
	court := entities.Court{Number: entities.FlexString(f.CourtNumber), CourtSection: f.CourtSection, Forum: f.Forum}
	if !court.IsZero() {
		p.Court = &court
	}

	schemaErrs, err := validate(processSchema, processDocument(p), processMessages)
	if err != nil {
		return nil, nil, fmt.Errorf("validate case form: %w", err)
	}
	for k, v := range schemaErrs {
		fe.Add(k, v)
	}
	if fe.Any() {
		return nil, fe, nil
	}
	return p, fe, nil
}

// processDocument is the validated view of a case: required strings are
// always present so minLength applies to them
func processDocument(p *entities.Process) map[string]any {
	doc := map[string]any{
		"folder":           p.Folder,
		"title":            p.Title,
		"tags":             p.Tags,
		"instance":         p.Instance,
		"processNumber":    p.ProcessNumber,
		"responsible":      p.Responsible,
		"userId":           p.UserID,
		"action":           p.Action,
		"courtLink":        p.CourtLink,
		"description":      p.Description,
		"observations":     p.Observations,
		"distributionDate": p.DistributionDate,
		"accessLevel":      string(p.AccessLevel),
		"clients":          partiesDocument(p.Clients),
		"involved":         partiesDocument(p.Involved),
	}
	if p.CaseValue != nil {
		doc["caseValue"] = *p.CaseValue
	}
	if p.ConvictionValue != nil {
		doc["convictionValue"] = *p.ConvictionValue
	}
	return doc
}

func partiesDocument(parties []entities.Party) []map[string]any {
	out := make([]map[string]any, 0, len(parties))
	for _, p := range parties {
		out = append(out, map[string]any{"name": p.Name, "qualification": p.Qualification})
	}
	return out
}

func dateOnly(s string) string {
	t := entities.ParseTime(s)
	if t.IsZero() {
		return ""
	}
	return t.Format("2006-01-02")
}
