// Package render turns a resume.Document into one of the fixed HTML layouts
// or into plain text. Rendering is pure: the document is never modified.
package render

import (
	"bytes"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"regexp"
	"strconv"
	"strings"
	"sync"

	"resumeForge/internal/resume"
)

//go:embed templates/*.gohtml
var templateFS embed.FS

// TemplateInfo 描述一个可选模板；Layout 为实际执行的 .gohtml 模板名。
type TemplateInfo struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Layout      string `json:"-"`
	Variant     string `json:"-"`
}

var catalog = []TemplateInfo{
	{ID: "professional", Name: "Professional", Description: "Single column with ruled section headings.", Layout: "professional"},
	{ID: "professional-compact", Name: "Professional Compact", Description: "Professional layout with tighter spacing for longer resumes.", Layout: "professional", Variant: "compact"},
	{ID: "modern", Name: "Modern", Description: "Accent header band with a clean single column.", Layout: "modern"},
	{ID: "modern-sidebar", Name: "Modern Sidebar", Description: "Contact details and skills in a tinted sidebar.", Layout: "modern", Variant: "sidebar"},
	{ID: "minimalist", Name: "Minimalist", Description: "Plain typography, no colour blocks.", Layout: "minimalist"},
	{ID: "creative", Name: "Creative", Description: "Accent rail on the left and pill-shaped skills.", Layout: "creative"},
	{ID: "creative-bold", Name: "Creative Bold", Description: "Creative layout with a solid accent header.", Layout: "creative", Variant: "bold"},
}

// Templates returns the template catalogue in display order.
func Templates() []TemplateInfo {
	out := make([]TemplateInfo, len(catalog))
	copy(out, catalog)
	return out
}

// Lookup 返回 id 对应的模板；未知 id 回退到 professional。
func Lookup(id string) TemplateInfo {
	for _, t := range catalog {
		if t.ID == id {
			return t
		}
	}
	return catalog[0]
}

// TemplateError represents a failure parsing the embedded layouts.
type TemplateError struct {
	Message string
	Cause   error
}

func (e *TemplateError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("template error: %s: %v", e.Message, e.Cause)
	}
	return fmt.Sprintf("template error: %s", e.Message)
}

func (e *TemplateError) Unwrap() error {
	return e.Cause
}

// RenderError represents a failure rendering a specific document.
type RenderError struct {
	TemplateID string
	Cause      error
}

func (e *RenderError) Error() string {
	return fmt.Sprintf("render error: template %s: %v", e.TemplateID, e.Cause)
}

func (e *RenderError) Unwrap() error {
	return e.Cause
}

var (
	parseOnce sync.Once
	parsed    *template.Template
	parseErr  error
)

var funcs = template.FuncMap{
	"safeCSS": func(s string) template.CSS { return template.CSS(s) },
	"lines":   descriptionLines,
	"join":    strings.Join,
	"split":   splitList,
	"href":    linkHref,
	"display": linkDisplay,
}

func loadTemplates() (*template.Template, error) {
	parseOnce.Do(func() {
		parsed, parseErr = template.New("resume").Funcs(funcs).ParseFS(templateFS, "templates/*.gohtml")
		if parseErr != nil {
			parseErr = &TemplateError{Message: "parse layouts", Cause: parseErr}
		}
	})
	return parsed, parseErr
}

// Render renders doc with the given presentation settings. Settings are
// resolved first, so zero values fall back to defaults and an unknown
// template id renders the professional layout. A nil doc renders an
// empty page.
func Render(doc *resume.Document, settings resume.Settings) ([]byte, error) {
	info := Lookup(settings.TemplateID)
	resolved, err := ResolveSettings(settings)
	if err != nil {
		return nil, &RenderError{TemplateID: info.ID, Cause: err}
	}
	tmpl, err := loadTemplates()
	if err != nil {
		return nil, err
	}
	if doc == nil {
		doc = &resume.Document{}
	}

	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, info.Layout, newView(doc, resolved, info)); err != nil {
		return nil, &RenderError{TemplateID: info.ID, Cause: err}
	}
	return buf.Bytes(), nil
}

// ResolveSettings fills zero values with defaults, validates ranges and
// flattens the accent colour to "#rrggbb". Unknown template ids are
// replaced by the default template.
func ResolveSettings(s resume.Settings) (resume.Settings, error) {
	def := resume.DefaultSettings()
	if strings.TrimSpace(s.AccentColor) == "" {
		s.AccentColor = def.AccentColor
	}
	if strings.TrimSpace(s.FontFamily) == "" {
		s.FontFamily = def.FontFamily
	}
	if s.FontSize == 0 {
		s.FontSize = def.FontSize
	}
	if s.LineSpacing == 0 {
		s.LineSpacing = def.LineSpacing
	}
	if s.Margins == 0 {
		s.Margins = def.Margins
	}
	s.TemplateID = Lookup(s.TemplateID).ID

	if err := resume.ValidateSettings(s); err != nil {
		return s, err
	}
	accent, err := NormalizeColor(s.AccentColor)
	if err != nil {
		return s, err
	}
	s.AccentColor = accent
	return s, nil
}

// IsUnsupportedColor reports whether err comes from a colour that cannot be flattened.
func IsUnsupportedColor(err error) bool {
	return errors.Is(err, ErrUnsupportedColor)
}

type contactItem struct {
	Text string
	Href template.URL
}

type skillGroup struct {
	Label string
	Items []string
}

type style struct {
	Accent     template.CSS
	AccentSoft template.CSS
	Font       template.CSS
	FontSize   template.CSS
	LineHeight template.CSS
	Margin     template.CSS
}

type view struct {
	TemplateID   string
	Variant      string
	Style        style
	Name         string
	Contact      []contactItem
	Photo        template.URL
	Objective    string
	Education    []resume.Education
	Skills       []skillGroup
	Internships  []resume.Internship
	Projects     []resume.Project
	Achievements []resume.Achievement
}

func newView(doc *resume.Document, s resume.Settings, info TemplateInfo) view {
	p := doc.PersonalInfo
	v := view{
		TemplateID: info.ID,
		Variant:    info.Variant,
		Style:      newStyle(s),
		Name:       strings.TrimSpace(p.FullName),
		Objective:  strings.TrimSpace(doc.Objective),
	}

	for _, c := range []contactItem{
		{Text: p.Email, Href: template.URL("mailto:" + strings.TrimSpace(p.Email))},
		{Text: p.Phone, Href: template.URL("tel:" + strings.Map(dialChar, p.Phone))},
		{Text: p.Location},
		{Text: linkDisplay(p.LinkedIn), Href: template.URL(linkHref(p.LinkedIn))},
		{Text: linkDisplay(p.GitHub), Href: template.URL(linkHref(p.GitHub))},
		{Text: linkDisplay(p.Portfolio), Href: template.URL(linkHref(p.Portfolio))},
	} {
		if strings.TrimSpace(c.Text) != "" {
			v.Contact = append(v.Contact, c)
		}
	}
	if strings.HasPrefix(p.Photo, "data:image/") {
		v.Photo = template.URL(p.Photo)
	}

	v.Education = filter(doc.Education, func(e resume.Education) bool {
		return nonEmpty(e.Degree, e.Institution, e.Location, e.GraduationDate, e.GPA, e.RelevantCoursework)
	})
	v.Internships = filter(doc.Internships, func(i resume.Internship) bool {
		return nonEmpty(i.Title, i.Company, i.Location, i.Duration, i.Description)
	})
	v.Projects = filter(doc.Projects, func(p resume.Project) bool {
		return nonEmpty(p.Title, p.Description, p.Technologies, p.Link, p.Duration)
	})
	v.Achievements = filter(doc.Achievements, func(a resume.Achievement) bool {
		return nonEmpty(a.Title, a.Description, a.Date)
	})

	for _, g := range []skillGroup{
		{Label: "Technical", Items: doc.Skills.Technical},
		{Label: "Languages", Items: doc.Skills.Languages},
		{Label: "Tools", Items: doc.Skills.Tools},
	} {
		g.Items = filter(g.Items, func(s string) bool { return strings.TrimSpace(s) != "" })
		if len(g.Items) > 0 {
			v.Skills = append(v.Skills, g)
		}
	}
	return v
}

var fontNamePattern = regexp.MustCompile(`^[A-Za-z0-9 \-_]+$`)

func newStyle(s resume.Settings) style {
	font := strings.TrimSpace(s.FontFamily)
	stack := "'Inter', 'Helvetica Neue', Arial, sans-serif"
	if fontNamePattern.MatchString(font) {
		stack = "'" + font + "', " + stack
	}
	return style{
		Accent:     template.CSS(s.AccentColor),
		AccentSoft: template.CSS(s.AccentColor + "1a"),
		Font:       template.CSS(stack),
		FontSize:   template.CSS(strconv.FormatFloat(s.FontSize, 'f', -1, 64) + "pt"),
		LineHeight: template.CSS(strconv.FormatFloat(s.LineSpacing, 'f', -1, 64)),
		Margin:     template.CSS(strconv.FormatFloat(s.Margins, 'f', -1, 64) + "mm"),
	}
}

func filter[T any](in []T, keep func(T) bool) []T {
	var out []T
	for _, item := range in {
		if keep(item) {
			out = append(out, item)
		}
	}
	return out
}

func nonEmpty(values ...string) bool {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return true
		}
	}
	return false
}

func dialChar(r rune) rune {
	if r == '+' || (r >= '0' && r <= '9') {
		return r
	}
	return -1
}

// descriptionLines splits a free-text description into bullet lines.
func descriptionLines(s string) []string {
	var out []string
	for _, line := range strings.Split(s, "\n") {
		line = strings.TrimSpace(strings.TrimLeft(strings.TrimSpace(line), "•-*▪◦·"))
		if line != "" {
			out = append(out, line)
		}
	}
	return out
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func linkHref(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	if strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://") {
		return s
	}
	return "https://" + s
}

func linkDisplay(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(strings.TrimPrefix(s, "https://"), "http://")
	return strings.TrimSuffix(strings.TrimPrefix(s, "www."), "/")
}
