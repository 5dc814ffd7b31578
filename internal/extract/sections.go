package extract

import (
	"strings"
	"unicode"
)

// Section 标识简历中的一个段落。
type Section string

const (
	SectionSummary      Section = "summary"
	SectionEducation    Section = "education"
	SectionSkills       Section = "skills"
	SectionExperience   Section = "experience"
	SectionProjects     Section = "projects"
	SectionAchievements Section = "achievements"
)

// AllSections lists the sections in the order they are rendered.
var AllSections = []Section{
	SectionSummary,
	SectionEducation,
	SectionSkills,
	SectionExperience,
	SectionProjects,
	SectionAchievements,
}

var sectionKeywords = map[string]Section{
	"summary":                  SectionSummary,
	"professional summary":     SectionSummary,
	"career summary":           SectionSummary,
	"objective":                SectionSummary,
	"career objective":         SectionSummary,
	"profile":                  SectionSummary,
	"professional profile":     SectionSummary,
	"about":                    SectionSummary,
	"about me":                 SectionSummary,
	"education":                SectionEducation,
	"academic background":      SectionEducation,
	"academics":                SectionEducation,
	"qualifications":           SectionEducation,
	"educational background":   SectionEducation,
	"skills":                   SectionSkills,
	"technical skills":         SectionSkills,
	"core competencies":        SectionSkills,
	"competencies":             SectionSkills,
	"technologies":             SectionSkills,
	"skills summary":           SectionSkills,
	"key skills":               SectionSkills,
	"experience":               SectionExperience,
	"work experience":          SectionExperience,
	"professional experience":  SectionExperience,
	"relevant experience":      SectionExperience,
	"employment history":       SectionExperience,
	"employment":               SectionExperience,
	"work history":             SectionExperience,
	"internships":              SectionExperience,
	"internship":               SectionExperience,
	"internship experience":    SectionExperience,
	"projects":                 SectionProjects,
	"personal projects":        SectionProjects,
	"academic projects":        SectionProjects,
	"key projects":             SectionProjects,
	"selected projects":        SectionProjects,
	"achievements":             SectionAchievements,
	"awards":                   SectionAchievements,
	"honors":                   SectionAchievements,
	"honours":                  SectionAchievements,
	"accomplishments":          SectionAchievements,
	"certifications":           SectionAchievements,
	"certificates":             SectionAchievements,
	"awards and achievements":  SectionAchievements,
	"achievements and awards":  SectionAchievements,
	"honors and awards":        SectionAchievements,
	"awards and honors":        SectionAchievements,
}

// maxHeaderLen 超过这个长度的行不可能是段落标题。
const maxHeaderLen = 48

type header struct {
	section Section
	key     string
	inline  string
}

// parseHeader reports whether line is a section header. A header is a short
// line made of a known keyword, optionally followed by ":" and inline content.
func parseHeader(line string) (header, bool) {
	trimmed := strings.TrimSpace(line)
	if trimmed == "" {
		return header{}, false
	}

	head, inline := trimmed, ""
	if idx := strings.IndexAny(trimmed, ":："); idx >= 0 {
		head = trimmed[:idx]
		inline = strings.TrimSpace(strings.TrimLeft(trimmed[idx:], ":："))
	}
	if len(head) > maxHeaderLen {
		return header{}, false
	}

	key := headerKey(head)
	if s, ok := sectionKeywords[key]; ok {
		return header{section: s, key: key, inline: inline}, true
	}
	// "Education & Training", "Skills and Interests"
	for _, sep := range []string{" and ", " & "} {
		if idx := strings.Index(key, sep); idx > 0 {
			if s, ok := sectionKeywords[key[:idx]]; ok {
				return header{section: s, key: key, inline: inline}, true
			}
		}
	}
	return header{}, false
}

// isEntryLabel 判断 "Technologies: Go, Redis" 这类行是否只是条目内的标签。
func (h header) isEntryLabel(current Section) bool {
	if h.inline == "" || h.key != "technologies" {
		return false
	}
	return current == SectionProjects || current == SectionExperience
}

func isSectionHeader(line string) bool {
	_, ok := parseHeader(line)
	return ok
}

// headerKey lowercases and strips decoration ("## Skills", "=== EDUCATION ===").
func headerKey(s string) string {
	var b strings.Builder
	space := false
	for _, r := range strings.ToLower(s) {
		switch {
		case unicode.IsLetter(r):
			if space && b.Len() > 0 {
				b.WriteByte(' ')
			}
			space = false
			b.WriteRune(r)
		case r == '&':
			if b.Len() > 0 {
				b.WriteString(" &")
			}
			space = true
		default:
			space = true
		}
	}
	return b.String()
}

// Sections 按标题切分文本，返回每个段落的正文。同一段落出现多次时内容拼接。
// 第一个标题之前的内容（页眉）不属于任何段落。
func Sections(text string) map[Section]string {
	out := make(map[Section]string)
	var (
		current Section
		buf     []string
	)
	flush := func() {
		if current == "" {
			return
		}
		body := strings.Trim(strings.Join(buf, "\n"), "\n")
		if body == "" {
			return
		}
		if prev, ok := out[current]; ok {
			out[current] = prev + "\n\n" + body
		} else {
			out[current] = body
		}
	}

	for _, line := range splitLines(text) {
		if h, ok := parseHeader(line); ok && !h.isEntryLabel(current) {
			flush()
			current, buf = h.section, nil
			if h.inline != "" {
				buf = append(buf, h.inline)
			}
			continue
		}
		if current != "" {
			buf = append(buf, strings.TrimRight(line, " \t"))
		}
	}
	flush()
	return out
}

// headerBlock returns the non-empty lines before the first section header.
func headerBlock(text string) []string {
	var out []string
	for _, line := range splitLines(text) {
		if isSectionHeader(line) {
			break
		}
		if l := strings.TrimSpace(line); l != "" {
			out = append(out, l)
		}
	}
	return out
}

func normalizeText(text string) string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")
	text = strings.ReplaceAll(text, "\u00a0", " ")
	return strings.ReplaceAll(text, "\t", " ")
}

func splitLines(text string) []string {
	return strings.Split(normalizeText(text), "\n")
}

func firstNonEmptyLine(text string) string {
	for _, line := range splitLines(text) {
		if l := strings.TrimSpace(line); l != "" {
			return l
		}
	}
	return ""
}

// splitSegments 按常见的页眉分隔符（| • · 以及两侧带空格的短横线）切分一行。
func splitSegments(line string) []string {
	fields := strings.FieldsFunc(line, func(r rune) bool {
		return r == '|' || r == '•' || r == '·' || r == '◦' || r == '▪'
	})
	var out []string
	for _, f := range fields {
		for _, part := range splitDashes(f) {
			if p := strings.TrimSpace(part); p != "" {
				out = append(out, p)
			}
		}
	}
	return out
}

func splitDashes(s string) []string {
	for _, sep := range []string{" – ", " — ", " - "} {
		s = strings.ReplaceAll(s, sep, "\x00")
	}
	return strings.Split(s, "\x00")
}

var bulletPrefixes = []string{"•", "◦", "▪", "●", "‣", "·", "- ", "* ", "– ", "— ", "-", "*"}

// trimBullet removes a leading list marker and reports whether one was present.
func trimBullet(line string) (string, bool) {
	l := strings.TrimSpace(line)
	for _, p := range bulletPrefixes {
		if strings.HasPrefix(l, p) {
			return strings.TrimSpace(strings.TrimPrefix(l, p)), true
		}
	}
	return l, false
}

// blocks 把段落按空行切成块。
func blocks(body string) [][]string {
	var (
		out [][]string
		cur []string
	)
	for _, line := range splitLines(body) {
		if strings.TrimSpace(line) == "" {
			if len(cur) > 0 {
				out = append(out, cur)
				cur = nil
			}
			continue
		}
		cur = append(cur, strings.TrimSpace(line))
	}
	if len(cur) > 0 {
		out = append(out, cur)
	}
	return out
}
