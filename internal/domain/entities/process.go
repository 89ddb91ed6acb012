package entities

import (
	"bytes"
	"encoding/json"
	"strings"
	"time"
)

// Qualification values used for parties involved in a case
const (
	QualificationAuthor    = "Autor"
	QualificationDefendant = "Réu"
)

// AccessLevel controls who in the tenant can see a case
type AccessLevel string

const (
	AccessPublic     AccessLevel = "public"
	AccessPrivate    AccessLevel = "private"
	AccessRestricted AccessLevel = "restricted"
)

// AccessLevels lists the accepted access levels in display order
var AccessLevels = []AccessLevel{AccessPublic, AccessPrivate, AccessRestricted}

// Party is a client or other person involved in a case
type Party struct {
	ID            string `json:"id,omitempty"`
	Name          string `json:"name"`
	Qualification string `json:"qualification,omitempty"`
}

// Court identifies where a case is being heard
type Court struct {
	Number       FlexString `json:"number,omitempty"`
	CourtSection string     `json:"courtSection,omitempty"`
	Forum        string     `json:"forum,omitempty"`
}

// IsZero reports whether no court field is set
func (c Court) IsZero() bool {
	return c.Number == "" && c.CourtSection == "" && c.Forum == ""
}

// Process is a legal case record ("processo") as stored by the upstream API
type Process struct {
	ID               string      `json:"_id,omitempty"`
	Folder           string      `json:"folder"`
	Title            string      `json:"title"`
	ProcessNumber    string      `json:"processNumber"`
	Instance         string      `json:"instance"`
	Responsible      string      `json:"responsible"`
	UserID           string      `json:"userId"`
	Tags             []string    `json:"tags"`
	Clients          []Party     `json:"clients,omitempty"`
	Involved         []Party     `json:"involved,omitempty"`
	Court            *Court      `json:"court,omitempty"`
	Status           string      `json:"status,omitempty"`
	Action           string      `json:"action,omitempty"`
	CourtLink        string      `json:"courtLink,omitempty"`
	Description      string      `json:"description,omitempty"`
	Observations     string      `json:"observations,omitempty"`
	CaseValue        *float64    `json:"caseValue,omitempty"`
	ConvictionValue  *float64    `json:"convictionValue,omitempty"`
	DistributionDate string      `json:"distributionDate,omitempty"`
	DistributedAt    string      `json:"distributedAt,omitempty"`
	AccessLevel      AccessLevel `json:"accessLevel,omitempty"`
	CreatedAt        string      `json:"createdAt,omitempty"`
	UpdatedAt        string      `json:"updatedAt,omitempty"`
}

// Authors returns the involved parties qualified as plaintiffs
func (p *Process) Authors() []Party {
	return p.involvedAs(QualificationAuthor)
}

// Defendants returns the involved parties qualified as defendants
func (p *Process) Defendants() []Party {
	return p.involvedAs(QualificationDefendant)
}

func (p *Process) involvedAs(qualification string) []Party {
	var out []Party
	for _, party := range p.Involved {
		if party.Qualification == qualification {
			out = append(out, party)
		}
	}
	return out
}

// HasTag reports whether the case carries the given tag
func (p *Process) HasTag(tag string) bool {
	for _, t := range p.Tags {
		if t == tag {
			return true
		}
	}
	return false
}

// Matches reports whether query appears in the folder, title, number,
// responsible or any client name (case-insensitive)
func (p *Process) Matches(query string) bool {
	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" {
		return true
	}
	fields := []string{p.Folder, p.Title, p.ProcessNumber, p.Responsible}
	for _, c := range p.Clients {
		fields = append(fields, c.Name)
	}
	for _, f := range fields {
		if strings.Contains(strings.ToLower(f), query) {
			return true
		}
	}
	return false
}

// CreatedTime parses CreatedAt, returning the zero time when it is absent or malformed
func (p *Process) CreatedTime() time.Time {
	return ParseTime(p.CreatedAt)
}

// ParseTime accepts RFC3339 timestamps and plain dates
func ParseTime(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	for _, layout := range []string{time.RFC3339Nano, time.RFC3339, "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}

// FlexString decodes from either a JSON string or a JSON number.
// The upstream API is not consistent about court numbers.
type FlexString string

func (f *FlexString) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*f = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*f = FlexString(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*f = FlexString(n.String())
	return nil
}
