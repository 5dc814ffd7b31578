package extract

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRules(t *testing.T) {
	cases := []struct {
		name   string
		rule   Rule
		input  string
		want   string
		wantOK bool
	}{
		{"email", ExtractEmail, "mail: a.b+c@mail.example.org.", "a.b+c@mail.example.org", true},
		{"email missing", ExtractEmail, "no address here", "", false},
		{"phone us dashes", ExtractPhone, "Call 555-123-4567 today", "555-123-4567", true},
		{"phone us dots", ExtractPhone, "555.123.4567", "555.123.4567", true},
		{"phone us parens", ExtractPhone, "+1 (555) 123-4567", "+1 (555) 123-4567", true},
		{"phone uk", ExtractPhone, "tel +44 20 7946 0958", "+44 20 7946 0958", true},
		{"phone india", ExtractPhone, "+91 98765 43210 | Pune", "+91 98765 43210", true},
		{"phone year is not a phone", ExtractPhone, "Graduated 2019", "", false},
		{"linkedin url", ExtractLinkedIn, "https://www.linkedin.com/in/jane-doe-123/", "linkedin.com/in/jane-doe-123", true},
		{"linkedin label", ExtractLinkedIn, "LinkedIn: janedoe", "linkedin.com/in/janedoe", true},
		{"github url", ExtractGitHub, "code at github.com/octocat/hello-world", "github.com/octocat", true},
		{"github label", ExtractGitHub, "GitHub: @octocat", "github.com/octocat", true},
		{"linkedin label before url", ExtractLinkedIn, "LinkedIn: janedoe\nReferences\nlinkedin.com/in/someoneelse", "linkedin.com/in/janedoe", true},
		{"linkedin url before label", ExtractLinkedIn, "linkedin.com/in/janedoe\nLinkedIn: someoneelse", "linkedin.com/in/janedoe", true},
		{"github label before url", ExtractGitHub, "GitHub: octocat\nForked from github.com/torvalds/linux", "github.com/octocat", true},
		{"portfolio skips social links", ExtractPortfolio, "see https://github.com/x and www.janedoe.dev.", "www.janedoe.dev", true},
		{"portfolio missing", ExtractPortfolio, "linkedin.com/in/x", "", false},
		{"location label", ExtractLocation, "Location: Berlin, Germany", "Berlin, Germany", true},
		{"location in header", ExtractLocation, "Jane Doe\njane@x.io | Austin, TX\nSkills\nGo", "Austin, TX", true},
		{"name", ExtractName, "Jane Doe\nSoftware Engineer", "Jane Doe", true},
		{"name before title", ExtractName, "Jane Doe | Software Engineer", "Jane Doe", true},
		{"name all caps", ExtractName, "JOHN SMITH\njohn@x.io", "John Smith", true},
		{"name fallback before comma", ExtractName, "jane doe, backend engineer", "jane doe", true},
		{"name rejects skills", ExtractName, "Python, Go", "", false},
		{"name rejects headers", ExtractName, "EDUCATION\nMIT", "", false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, ok := tc.rule(tc.input)
			assert.Equal(t, tc.wantOK, ok)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestSections(t *testing.T) {
	text := "Jane Doe\n\nProfessional Summary:\nFoo bar\n\nSKILLS: Go, Rust\n\n## Projects\nThing\n\nExperience\nA\nEducation & Training\nB"

	got := Sections(text)

	assert.Equal(t, map[Section]string{
		SectionSummary:    "Foo bar",
		SectionSkills:     "Go, Rust",
		SectionProjects:   "Thing",
		SectionExperience: "A",
		SectionEducation:  "B",
	}, got)
}

func TestSectionsKeepsEntryLabels(t *testing.T) {
	got := Sections("Projects\nTracker\nTechnologies: Go, Redis\n\nSkills\nRust")
	assert.Equal(t, "Tracker\nTechnologies: Go, Redis", got[SectionProjects])
	assert.Equal(t, "Rust", got[SectionSkills])
}

func TestParseSkillsCategorizes(t *testing.T) {
	skills := ParseSkills("• Python | Go\nLanguages: Java, French\nKubernetes; Figma\npython")

	assert.Equal(t, []string{"Python", "Go", "Java"}, skills.Technical)
	assert.Equal(t, []string{"French"}, skills.Languages)
	assert.Equal(t, []string{"Kubernetes", "Figma"}, skills.Tools)
}

func TestParseEducationSplitsEntries(t *testing.T) {
	body := "Master of Science, Computer Science\nMIT Institute of Technology, 2024\n\nB.A., Economics\nBoston College\nCGPA: 9.1"

	got := ParseEducation(body)

	if assert.Len(t, got, 2) {
		assert.Equal(t, "Master of Science", got[0].Degree)
		assert.Equal(t, "MIT Institute of Technology", got[0].Institution)
		assert.Equal(t, "2024", got[0].GraduationDate)
		assert.Equal(t, "B.A. Economics", got[1].Degree)
		assert.Equal(t, "Boston College", got[1].Institution)
		assert.Equal(t, "9.1", got[1].GPA)
	}
}

func TestParseEducationSingleLineWithDash(t *testing.T) {
	got := ParseEducation("Stanford University — B.S. Computer Science, 2022 (GPA 3.85)")

	if assert.Len(t, got, 1) {
		assert.Equal(t, "Stanford University", got[0].Institution)
		assert.Equal(t, "B.S. Computer Science", got[0].Degree)
		assert.Equal(t, "2022", got[0].GraduationDate)
		assert.Equal(t, "3.85", got[0].GPA)
	}
}

func TestParseAchievementsSplitsDates(t *testing.T) {
	got := ParseAchievements("- Hackathon Winner (2023)\n- AWS Certified Developer\n")

	if assert.Len(t, got, 2) {
		assert.Equal(t, "Hackathon Winner", got[0].Title)
		assert.Equal(t, "2023", got[0].Date)
		assert.Equal(t, "AWS Certified Developer", got[1].Title)
		assert.Empty(t, got[1].Date)
	}
}
