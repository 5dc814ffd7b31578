package resume

import (
	"regexp"
	"strings"
)

// ScoreItem 是单个评分维度的结果。
type ScoreItem struct {
	Key        string `json:"key"`
	Label      string `json:"label"`
	Points     int    `json:"points"`
	Max        int    `json:"max"`
	Suggestion string `json:"suggestion,omitempty"`
}

// ScoreReport is the ATS-style completeness report for a document.
type ScoreReport struct {
	Total       int         `json:"total"`
	Items       []ScoreItem `json:"items"`
	Suggestions []string    `json:"suggestions"`
}

const targetSkillCount = 5

var quantifiedPattern = regexp.MustCompile(`\d+(?:[.,]\d+)?\s*(?:%|\+|x\b|k\b|users|customers|ms\b|hours|days)|\$\s*\d`)

// Score rates how complete and ATS-friendly a document is, out of 100.
// Work experience is read from Internships and skills from the categorized
// Skills object.
func Score(d *Document) ScoreReport {
	if d == nil {
		d = &Document{}
	}
	p := d.PersonalInfo

	items := []ScoreItem{
		scoreContact(p),
		binary("links", "Professional links", 5,
			p.LinkedIn != "" || p.GitHub != "" || p.Portfolio != "",
			"Add a LinkedIn, GitHub or portfolio link."),
		binary("objective", "Summary", 10,
			len(strings.Fields(d.Objective)) >= 10,
			"Write a summary of at least one full sentence."),
		binary("education", "Education", 15,
			hasEducation(d.Education),
			"Add your degree and institution."),
		scoreSkills(d.Skills),
		binary("experience", "Work experience", 20,
			hasInternship(d.Internships),
			"Add an internship or job with a short description."),
		binary("projects", "Projects", 10,
			hasProject(d.Projects),
			"Add at least one project with a description."),
		binary("achievements", "Achievements", 5,
			hasAchievement(d.Achievements),
			"List awards, honors or certifications."),
		binary("impact", "Quantified impact", 5,
			hasQuantified(d),
			"Use numbers to show impact, for example \"cut build time by 30%\"."),
	}

	report := ScoreReport{Items: items, Suggestions: []string{}}
	for _, it := range items {
		report.Total += it.Points
		if it.Points < it.Max && it.Suggestion != "" {
			report.Suggestions = append(report.Suggestions, it.Suggestion)
		}
	}
	return report
}

func binary(key, label string, max int, ok bool, suggestion string) ScoreItem {
	item := ScoreItem{Key: key, Label: label, Max: max}
	if ok {
		item.Points = max
	} else {
		item.Suggestion = suggestion
	}
	return item
}

func scoreContact(p PersonalInfo) ScoreItem {
	item := ScoreItem{Key: "contact", Label: "Contact details", Max: 15}
	fields := []string{p.FullName, p.Email, p.Phone}
	have := countNonEmpty(fields...)
	item.Points = have * 5
	if have < len(fields) {
		item.Suggestion = "Include your full name, email and phone number."
	}
	return item
}

func scoreSkills(s Skills) ScoreItem {
	item := ScoreItem{Key: "skills", Label: "Skills", Max: 15}
	n := countNonEmpty(s.Technical...) + countNonEmpty(s.Tools...) + countNonEmpty(s.Languages...)
	if n >= targetSkillCount {
		item.Points = item.Max
		return item
	}
	item.Points = item.Max * n / targetSkillCount
	item.Suggestion = "List at least five relevant skills."
	return item
}

func hasEducation(list []Education) bool {
	for _, e := range list {
		if strings.TrimSpace(e.Degree) != "" && strings.TrimSpace(e.Institution) != "" {
			return true
		}
	}
	return false
}

func hasInternship(list []Internship) bool {
	for _, i := range list {
		if strings.TrimSpace(i.Title) != "" && strings.TrimSpace(i.Description) != "" {
			return true
		}
	}
	return false
}

func hasProject(list []Project) bool {
	for _, p := range list {
		if strings.TrimSpace(p.Title) != "" && strings.TrimSpace(p.Description) != "" {
			return true
		}
	}
	return false
}

func hasAchievement(list []Achievement) bool {
	for _, a := range list {
		if strings.TrimSpace(a.Title) != "" {
			return true
		}
	}
	return false
}

func hasQuantified(d *Document) bool {
	for _, i := range d.Internships {
		if quantifiedPattern.MatchString(strings.ToLower(i.Description)) {
			return true
		}
	}
	for _, p := range d.Projects {
		if quantifiedPattern.MatchString(strings.ToLower(p.Description)) {
			return true
		}
	}
	return false
}
