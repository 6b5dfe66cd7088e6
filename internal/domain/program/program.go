package program

import (
	"fmt"
	"regexp"
	"strings"
)

var idRegex = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)

// Column names, in export order. They double as JSON and CSV field names.
const (
	ColID                  = "program_id"
	ColName                = "program_name"
	ColUniversity          = "university"
	ColDegreeType          = "degree_type"
	ColDuration            = "duration"
	ColTuitionFee          = "tuition_fee"
	ColApplicationFee      = "application_fee"
	ColStartDate           = "start_date"
	ColDeadline            = "deadline"
	ColCountry             = "country"
	ColRequirements        = "requirements"
	ColEnglishTestRequired = "english_test_required"
	ColDescription         = "description"
	ColURL                 = "url"
	ColIntake              = "intake"
	ColScrapedAt           = "scraped_at"
)

// Columns lists every program column in export order.
var Columns = []string{
	ColID, ColName, ColUniversity, ColDegreeType, ColDuration, ColTuitionFee,
	ColApplicationFee, ColStartDate, ColDeadline, ColCountry, ColRequirements,
	ColEnglishTestRequired, ColDescription, ColURL, ColIntake, ColScrapedAt,
}

// requiredColumns must be non-empty on create.
var requiredColumns = []string{ColName, ColUniversity, ColDegreeType}

// Program is one educational offering. Missing attributes are empty strings.
type Program struct {
	ID                  string
	Name                string
	University          string
	DegreeType          string
	Duration            string
	TuitionFee          string
	ApplicationFee      string
	StartDate           string
	Deadline            string
	Country             string
	Requirements        string
	EnglishTestRequired string
	Description         string
	URL                 string
	Intake              string
	ScrapedAt           string
}

// Details are fields scraped from a program's public page. Empty means not found.
type Details struct {
	Description  string
	Requirements string
	TuitionFee   string
	Duration     string
}

// New validates a program built from user input. The ID must already be assigned.
func New(p Program) (Program, error) {
	if err := ValidateID(p.ID); err != nil {
		return Program{}, err
	}
	for _, col := range requiredColumns {
		if v, _ := p.Field(col); strings.TrimSpace(v) == "" {
			return Program{}, fmt.Errorf("missing required field: %s", col)
		}
	}
	return p, nil
}

// ValidateID checks the identifier format.
func ValidateID(id string) error {
	if id == "" {
		return fmt.Errorf("program ID is required")
	}
	if len(id) > 128 {
		return fmt.Errorf("program ID too long (max 128)")
	}
	if !idRegex.MatchString(id) {
		return fmt.Errorf("program ID must be alphanumeric with underscores and hyphens")
	}
	return nil
}

// Text is the field concatenation fed to the corpus indexer.
func (p *Program) Text() string {
	return strings.Join([]string{
		p.Name, p.University, p.DegreeType, p.Description, p.Country, p.Requirements,
	}, " ")
}

// Field returns the value of a column by name.
func (p *Program) Field(name string) (string, bool) {
	ptr := p.fieldPtr(name)
	if ptr == nil {
		return "", false
	}
	return *ptr, true
}

// Fields returns all columns as a map.
func (p *Program) Fields() map[string]string {
	m := make(map[string]string, len(Columns))
	for _, col := range Columns {
		m[col], _ = p.Field(col)
	}
	return m
}

// Apply returns a copy with the given columns overwritten.
// The identifier is immutable and unknown columns are rejected.
func (p *Program) Apply(changes map[string]string) (Program, error) {
	out := *p
	for k, v := range changes {
		if k == ColID {
			continue
		}
		ptr := out.fieldPtr(k)
		if ptr == nil {
			return Program{}, fmt.Errorf("unknown field %q", k)
		}
		*ptr = v
	}
	return out, nil
}

// FromFields builds a program from a column map, ignoring unknown columns.
func FromFields(m map[string]string) Program {
	var p Program
	for k, v := range m {
		if ptr := p.fieldPtr(k); ptr != nil {
			*ptr = v
		}
	}
	return p
}

// IsColumn reports whether name is a known column.
func IsColumn(name string) bool {
	var p Program
	return p.fieldPtr(name) != nil
}

func (p *Program) fieldPtr(name string) *string {
	switch name {
	case ColID:
		return &p.ID
	case ColName:
		return &p.Name
	case ColUniversity:
		return &p.University
	case ColDegreeType:
		return &p.DegreeType
	case ColDuration:
		return &p.Duration
	case ColTuitionFee:
		return &p.TuitionFee
	case ColApplicationFee:
		return &p.ApplicationFee
	case ColStartDate:
		return &p.StartDate
	case ColDeadline:
		return &p.Deadline
	case ColCountry:
		return &p.Country
	case ColRequirements:
		return &p.Requirements
	case ColEnglishTestRequired:
		return &p.EnglishTestRequired
	case ColDescription:
		return &p.Description
	case ColURL:
		return &p.URL
	case ColIntake:
		return &p.Intake
	case ColScrapedAt:
		return &p.ScrapedAt
	default:
		return nil
	}
}
