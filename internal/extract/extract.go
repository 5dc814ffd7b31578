// Package extract turns unstructured resume text into a partial resume.Document.
//
// Extraction is best effort: every rule either finds a value or leaves the
// field empty, and no input makes Extract fail.
package extract

import (
	"sort"
	"strings"

	"resumeForge/internal/resume"
)

// Report 记录一次提取找到了哪些字段与段落，用于日志与指标。
type Report struct {
	Fields   []string `json:"fields"`
	Sections []string `json:"sections"`
	Skills   int      `json:"skills"`
	Entries  int      `json:"entries"`
}

// Found reports whether anything at all was extracted.
func (r Report) Found() bool {
	return len(r.Fields) > 0 || len(r.Sections) > 0 || r.Skills > 0
}

type contactRule struct {
	field string
	rule  Rule
	set   func(*resume.PersonalInfo, string)
}

var contactRules = []contactRule{
	{"email", ExtractEmail, func(p *resume.PersonalInfo, v string) { p.Email = v }},
	{"phone", ExtractPhone, func(p *resume.PersonalInfo, v string) { p.Phone = v }},
	{"linkedIn", ExtractLinkedIn, func(p *resume.PersonalInfo, v string) { p.LinkedIn = v }},
	{"github", ExtractGitHub, func(p *resume.PersonalInfo, v string) { p.GitHub = v }},
	{"portfolio", ExtractPortfolio, func(p *resume.PersonalInfo, v string) { p.Portfolio = v }},
	{"location", ExtractLocation, func(p *resume.PersonalInfo, v string) { p.Location = v }},
	{"fullName", ExtractName, func(p *resume.PersonalInfo, v string) { p.FullName = v }},
}

// Extract runs every rule over text and returns what it found. Fields that
// could not be found stay empty and list sections stay nil.
func Extract(text string) *resume.Document {
	doc, _ := extract(text)
	return doc
}

// ExtractInto extracts text and merges the result into doc without
// overwriting existing data with empty values.
func ExtractInto(doc *resume.Document, text string) (*resume.Document, Report) {
	partial, report := extract(text)
	return resume.Merge(doc, partial), report
}

func extract(text string) (*resume.Document, Report) {
	var (
		doc    = &resume.Document{}
		report Report
	)
	text = normalizeText(text)
	if strings.TrimSpace(text) == "" {
		return doc, report
	}

	for _, r := range contactRules {
		if v, ok := r.rule(text); ok {
			r.set(&doc.PersonalInfo, v)
			report.Fields = append(report.Fields, r.field)
		}
	}

	sections := Sections(text)
	for s := range sections {
		report.Sections = append(report.Sections, string(s))
	}
	sort.Strings(report.Sections)

	if body, ok := sections[SectionSummary]; ok {
		doc.Objective = strings.Join(strings.Fields(body), " ")
		report.Fields = append(report.Fields, "objective")
	}
	if body, ok := sections[SectionEducation]; ok {
		doc.Education = ParseEducation(body)
	}
	if body, ok := sections[SectionSkills]; ok {
		doc.Skills = ParseSkills(body)
	} else {
		doc.Skills = scanSkills(text)
	}
	if body, ok := sections[SectionExperience]; ok {
		doc.Internships = ParseExperience(body)
	}
	if body, ok := sections[SectionProjects]; ok {
		doc.Projects = ParseProjects(body)
	}
	if body, ok := sections[SectionAchievements]; ok {
		doc.Achievements = ParseAchievements(body)
	}

	report.Skills = len(doc.Skills.Technical) + len(doc.Skills.Languages) + len(doc.Skills.Tools)
	report.Entries = len(doc.Education) + len(doc.Internships) + len(doc.Projects) + len(doc.Achievements)

	doc.EnsureIDs()
	return doc, report
}
