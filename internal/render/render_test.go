package render

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"resumeForge/internal/extract"
	"resumeForge/internal/resume"
)

func parseHTML(t *testing.T, html []byte) *goquery.Document {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(html))
	require.NoError(t, err)
	return doc
}

func headings(doc *goquery.Document) []string {
	var out []string
	doc.Find("h2").Each(func(_ int, s *goquery.Selection) {
		out = append(out, strings.TrimSpace(s.Text()))
	})
	return out
}

func TestRenderEveryTemplateHandlesPartialDocuments(t *testing.T) {
	docs := map[string]*resume.Document{
		"nil":   nil,
		"empty": {},
		"name only": {
			PersonalInfo: resume.PersonalInfo{FullName: "Jane Doe"},
		},
		"blank entries": {
			Education:    []resume.Education{{}},
			Projects:     []resume.Project{{ID: "1-abc"}},
			Internships:  []resume.Internship{{Description: "   "}},
			Achievements: []resume.Achievement{{}},
			Skills:       resume.Skills{Technical: []string{""}},
		},
		"demo": resume.NewDemo(),
	}

	for _, info := range Templates() {
		for name, doc := range docs {
			t.Run(info.ID+"/"+name, func(t *testing.T) {
				out, err := Render(doc, resume.Settings{TemplateID: info.ID})
				require.NoError(t, err)
				html := parseHTML(t, out)
				assert.Equal(t, 1, html.Find("body.template-"+info.ID).Length())
				if name != "demo" {
					assert.Empty(t, headings(html))
				}
			})
		}
	}
}

func TestRenderOmitsProjectsWhenEmpty(t *testing.T) {
	doc := resume.NewDemo()
	doc.Projects = nil

	for _, info := range Templates() {
		out, err := Render(doc, resume.Settings{TemplateID: info.ID})
		require.NoError(t, err)

		html := parseHTML(t, out)
		assert.NotContains(t, headings(html), "Projects", info.ID)
		assert.Contains(t, headings(html), "Experience", info.ID)
		assert.Zero(t, html.Find(".section-projects").Length(), info.ID)
	}
}

func TestRenderDemoContent(t *testing.T) {
	out, err := Render(resume.NewDemo(), resume.DefaultSettings())
	require.NoError(t, err)

	html := parseHTML(t, out)
	assert.Equal(t, "Alex Morgan", strings.TrimSpace(html.Find("h1").Text()))
	assert.Equal(t, []string{"Summary", "Education", "Skills", "Experience", "Projects", "Achievements"}, headings(html))

	href, _ := html.Find(`.contact a[href^="mailto:"]`).Attr("href")
	assert.Equal(t, "mailto:alex.morgan@example.com", href)
	href, _ = html.Find(`.contact a[href^="tel:"]`).Attr("href")
	assert.Equal(t, "tel:+15550102030", href)
	href, _ = html.Find(".section-projects a").Attr("href")
	assert.Equal(t, "https://github.com/alexmorgan/campus-events", href)

	assert.Contains(t, string(out), "--accent: #2563eb;")
}

func TestRenderDoesNotMutateDocument(t *testing.T) {
	doc := resume.NewDemo()
	doc.Settings.AccentColor = "rgb(255, 0, 0)"
	before := doc.Clone()

	_, err := Render(doc, doc.Settings)
	require.NoError(t, err)
	assert.Equal(t, before, doc)
}

func TestRenderEscapesUserContent(t *testing.T) {
	doc := &resume.Document{
		PersonalInfo: resume.PersonalInfo{FullName: `<script>alert("x")</script>`},
		Projects:     []resume.Project{{Title: "Evil", Link: "javascript:alert(1)"}},
	}

	out, err := Render(doc, resume.Settings{})
	require.NoError(t, err)
	assert.NotContains(t, string(out), "<script>")
	assert.NotContains(t, string(out), `href="javascript:`)
}

func TestRenderUnknownTemplateFallsBack(t *testing.T) {
	out, err := Render(resume.NewDemo(), resume.Settings{TemplateID: "does-not-exist"})
	require.NoError(t, err)
	assert.Equal(t, 1, parseHTML(t, out).Find("body.template-professional").Length())
}

func TestRenderUnsupportedColor(t *testing.T) {
	_, err := Render(resume.NewDemo(), resume.Settings{AccentColor: "lab(50% 40 59)"})
	require.Error(t, err)

	var re *RenderError
	require.True(t, errors.As(err, &re))
	assert.Equal(t, "professional", re.TemplateID)
	assert.True(t, IsUnsupportedColor(err))
}

func TestRenderRejectsOutOfRangeSettings(t *testing.T) {
	_, err := Render(resume.NewDemo(), resume.Settings{FontSize: 72})
	require.Error(t, err)
	assert.False(t, IsUnsupportedColor(err))
}

func TestTemplatesCatalogue(t *testing.T) {
	var ids []string
	for _, info := range Templates() {
		ids = append(ids, info.ID)
	}
	assert.Equal(t, []string{
		"professional", "professional-compact",
		"modern", "modern-sidebar",
		"minimalist",
		"creative", "creative-bold",
	}, ids)
	assert.Equal(t, "modern", Lookup("modern-sidebar").Layout)
	assert.Equal(t, "professional", Lookup("").ID)
}

func TestNormalizeColor(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"#2563EB", "#2563eb"},
		{"#abc", "#aabbcc"},
		{"#000f", "#000000"},
		{"#00000000", "#ffffff"},
		{"#ff000080", "#ff7f7f"},
		{"rgb(255, 0, 0)", "#ff0000"},
		{"rgb(0 128 255)", "#0080ff"},
		{"rgb(100%, 0%, 0%)", "#ff0000"},
		{"rgba(0, 0, 0, 0)", "#ffffff"},
		{"rgba(0 0 0 / 100%)", "#000000"},
		{"hsl(0, 100%, 50%)", "#ff0000"},
		{"hsl(120deg 100% 25%)", "#008000"},
		{"hsla(240, 100%, 50%, 1)", "#0000ff"},
		{"oklch(1 0 0)", "#ffffff"},
		{"oklch(0% 0 0)", "#000000"},
		{"oklab(1 0 0)", "#ffffff"},
		{"  Navy ", "#000080"},
	}
	for _, tc := range cases {
		t.Run(tc.in, func(t *testing.T) {
			got, err := NormalizeColor(tc.in)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestNormalizeColorUnsupported(t *testing.T) {
	for _, in := range []string{
		"",
		"lab(50% 40 59)",
		"lch(52% 72 50)",
		"color(display-p3 1 0 0)",
		"#12345",
		"#gggggg",
		"rgb(1, 2)",
		"hsl(nan, 1%, 1%)",
		"not-a-colour",
	} {
		_, err := NormalizeColor(in)
		assert.ErrorIs(t, err, ErrUnsupportedColor, in)
	}
}

func TestResolveSettingsFillsDefaults(t *testing.T) {
	got, err := ResolveSettings(resume.Settings{AccentColor: "teal", TemplateID: "nope"})
	require.NoError(t, err)

	want := resume.DefaultSettings()
	want.AccentColor = "#008080"
	assert.Equal(t, want, got)
}

func TestRenderText(t *testing.T) {
	text := RenderText(resume.NewDemo())

	assert.True(t, strings.HasPrefix(text, "Alex Morgan\nalex.morgan@example.com | +1 (555) 010-2030 | Austin, TX\n"))
	assert.Contains(t, text, "\n\nEDUCATION\nB.S. Computer Science | University of Texas at Austin | Austin, TX | May 2026\nGPA: 3.8\n")
	assert.Contains(t, text, "\n\nSKILLS\nTechnical: Go, Python, SQL, React\nLanguages: English, Spanish\nTools: Git, Docker, PostgreSQL\n")
	assert.Contains(t, text, "• Reduced report generation time by 40% by moving batch jobs to a queue.")
	assert.Contains(t, text, "\n\nACHIEVEMENTS\nDean's List - Recognised for academic excellence (2024)\n")

	assert.Empty(t, RenderText(nil))
	assert.Empty(t, RenderText(&resume.Document{}))
	assert.NotContains(t, RenderText(&resume.Document{Objective: "x"}), "PROJECTS")
}

func TestExtractRenderedTextIsAdditive(t *testing.T) {
	docs := []*resume.Document{
		resume.NewDemo(),
		{PersonalInfo: resume.PersonalInfo{FullName: "Jane Doe", Email: "jane@example.com"}},
		{Skills: resume.Skills{Tools: []string{"Docker"}}},
		{},
	}

	for _, doc := range docs {
		before := resume.PopulatedFieldCount(doc)
		merged := resume.Merge(doc.Clone(), extract.Extract(RenderText(doc)))
		assert.GreaterOrEqual(t, resume.PopulatedFieldCount(merged), before)
	}
}

func TestExtractRenderedTextRecoversDemo(t *testing.T) {
	demo := resume.NewDemo()
	got := extract.Extract(RenderText(demo))

	assert.Equal(t, demo.PersonalInfo, got.PersonalInfo)
	assert.Equal(t, demo.Objective, got.Objective)
	assert.Equal(t, demo.Skills, got.Skills)

	require.Len(t, got.Education, 1)
	assert.Equal(t, demo.Education[0].Degree, got.Education[0].Degree)
	assert.Equal(t, demo.Education[0].Institution, got.Education[0].Institution)
	assert.Equal(t, demo.Education[0].GPA, got.Education[0].GPA)

	require.Len(t, got.Internships, 1)
	assert.Equal(t, demo.Internships[0].Title, got.Internships[0].Title)
	assert.Equal(t, demo.Internships[0].Company, got.Internships[0].Company)
	assert.Equal(t, demo.Internships[0].Description, got.Internships[0].Description)

	require.Len(t, got.Projects, 1)
	assert.Equal(t, demo.Projects[0].Title, got.Projects[0].Title)
	assert.Equal(t, demo.Projects[0].Link, got.Projects[0].Link)

	require.Len(t, got.Achievements, 1)
	assert.Equal(t, demo.Achievements[0].Title, got.Achievements[0].Title)
	assert.Equal(t, demo.Achievements[0].Date, got.Achievements[0].Date)

	merged := resume.Merge(demo.Clone(), got)
	assert.Len(t, merged.Education, 1)
	assert.Len(t, merged.Internships, 1)
	assert.Len(t, merged.Projects, 1)
	assert.Len(t, merged.Achievements, 1)
}
