package render

import (
	"strings"

	"resumeForge/internal/resume"
)

// RenderText renders doc as plain ATS-friendly text. Section headers and
// line shapes are the ones the extractor recognises, so pasting the output
// back into extraction recovers the same fields.
func RenderText(doc *resume.Document) string {
	if doc == nil {
		return ""
	}
	var blocks []string

	p := doc.PersonalInfo
	header := joinLines(
		strings.TrimSpace(p.FullName),
		joinSep(" | ", p.Email, p.Phone, p.Location),
		joinSep(" | ", p.LinkedIn, p.GitHub, p.Portfolio),
	)
	if header != "" {
		blocks = append(blocks, header)
	}

	if obj := strings.TrimSpace(doc.Objective); obj != "" {
		blocks = append(blocks, "SUMMARY\n"+obj)
	}

	var edu []string
	for _, e := range doc.Education {
		edu = appendEntry(edu, joinLines(
			joinSep(" | ", e.Degree, e.Institution, e.Location, e.GraduationDate),
			prefixed("GPA: ", e.GPA),
			prefixed("Relevant Coursework: ", e.RelevantCoursework),
		))
	}
	blocks = appendSection(blocks, "EDUCATION", edu)

	skills := joinLines(
		prefixed("Technical: ", strings.Join(doc.Skills.Technical, ", ")),
		prefixed("Languages: ", strings.Join(doc.Skills.Languages, ", ")),
		prefixed("Tools: ", strings.Join(doc.Skills.Tools, ", ")),
	)
	if skills != "" {
		blocks = append(blocks, "SKILLS\n"+skills)
	}

	var exp []string
	for _, i := range doc.Internships {
		exp = appendEntry(exp, joinLines(
			joinSep(" | ", i.Title, i.Company, i.Location, i.Duration),
			bullets(i.Description),
		))
	}
	blocks = appendSection(blocks, "EXPERIENCE", exp)

	var projects []string
	for _, pr := range doc.Projects {
		projects = appendEntry(projects, joinLines(
			joinSep(" | ", pr.Title, pr.Duration),
			prefixed("Technologies: ", pr.Technologies),
			prefixed("Link: ", pr.Link),
			bullets(pr.Description),
		))
	}
	blocks = appendSection(blocks, "PROJECTS", projects)

	var awards []string
	for _, a := range doc.Achievements {
		line := joinSep(" - ", a.Title, a.Description)
		if d := strings.TrimSpace(a.Date); d != "" {
			line = strings.TrimSpace(line + " (" + d + ")")
		}
		if line != "" {
			awards = append(awards, line)
		}
	}
	if len(awards) > 0 {
		blocks = append(blocks, "ACHIEVEMENTS\n"+strings.Join(awards, "\n"))
	}

	if len(blocks) == 0 {
		return ""
	}
	return strings.Join(blocks, "\n\n") + "\n"
}

func appendEntry(entries []string, entry string) []string {
	if entry == "" {
		return entries
	}
	return append(entries, entry)
}

func appendSection(blocks []string, title string, entries []string) []string {
	if len(entries) == 0 {
		return blocks
	}
	return append(blocks, title+"\n"+strings.Join(entries, "\n\n"))
}

func joinSep(sep string, parts ...string) string {
	var kept []string
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, sep)
}

func joinLines(lines ...string) string {
	return joinSep("\n", lines...)
}

func prefixed(prefix, value string) string {
	if value = strings.TrimSpace(value); value == "" {
		return ""
	}
	return prefix + value
}

func bullets(description string) string {
	lines := descriptionLines(description)
	for i, l := range lines {
		lines[i] = "• " + l
	}
	return strings.Join(lines, "\n")
}
