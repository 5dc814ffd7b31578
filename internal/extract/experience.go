package extract

import (
	"regexp"
	"strings"

	"resumeForge/internal/resume"
)

const (
	monthOrSeason = `\b(?:(?:jan|feb|mar|apr|may|jun|jul|aug|sep|sept|oct|nov|dec)[a-z]*\.?|spring|summer|fall|autumn|winter)`
	yearExpr      = `(?:19|20)\d{2}\b`
	pointInTime   = `(?:` + monthOrSeason + `\s+` + yearExpr + `|\b(?:0?[1-9]|1[0-2])/` + yearExpr + `|\b` + yearExpr + `)`
)

var (
	durationPattern  = regexp.MustCompile(`(?i)` + pointInTime + `\s*(?:-|–|—|to|until)\s*(?:` + pointInTime + `|present|current|now|ongoing|today)|` + monthOrSeason + `\s+` + yearExpr)
	techLabelPattern = regexp.MustCompile(`(?i)^(?:technologies|tech stack|tech|stack|built with|tools used|tools)\s*[:\-]\s*(.+)$`)
	linkLabelPattern = regexp.MustCompile(`(?i)^(?:link|url|demo|repo|repository|source|github|website)\s*[:\-]\s*(\S+)$`)
	atPattern        = regexp.MustCompile(`(?i)\s+(?:at|@)\s+`)
)

// entry 是经历/项目块拆出来的中间结构。
type entry struct {
	head     []string
	bullets  []string
	body     []string
	duration string
	tech     string
	link     string
}

// splitEntries 按空行拆块，块内出现"列表项之后的非列表行"时也切开。
func splitEntries(body string) []entry {
	var out []entry
	for _, blk := range blocks(body) {
		var cur entry
		for _, line := range blk {
			text, isBullet := trimBullet(line)
			if !isBullet && len(cur.bullets) > 0 {
				out = append(out, cur)
				cur = entry{}
			}

			if !isBullet {
				if m := techLabelPattern.FindStringSubmatch(text); m != nil {
					cur.tech = strings.TrimSpace(m[1])
					continue
				}
				if m := linkLabelPattern.FindStringSubmatch(text); m != nil {
					cur.link = m[1]
					continue
				}
			}
			if !isBullet && cur.duration == "" && len(cur.body) == 0 {
				if d := durationPattern.FindString(text); d != "" {
					cur.duration = strings.TrimSpace(d)
					text = strings.Replace(text, d, "", 1)
					text = strings.TrimSpace(strings.Trim(cleanSegment(text), "|•·-–—,"))
					if text == "" {
						continue
					}
				}
			}

			switch {
			case isBullet:
				cur.bullets = append(cur.bullets, text)
			case len(cur.head) < 2 && len(cur.body) == 0 && isHeadLine(text, len(cur.head)):
				cur.head = append(cur.head, text)
			default:
				cur.body = append(cur.body, text)
			}
		}
		if !cur.empty() {
			out = append(out, cur)
		}
	}
	return out
}

func (e entry) empty() bool {
	return len(e.head) == 0 && len(e.bullets) == 0 && len(e.body) == 0 &&
		e.duration == "" && e.tech == "" && e.link == ""
}

// isHeadLine: 第一行总是标题；第二行只有在较短且不像句子时才算公司/副标题。
func isHeadLine(line string, index int) bool {
	if index == 0 {
		return true
	}
	return len(line) <= 60 && !strings.HasSuffix(line, ".") && len(strings.Fields(line)) <= 8
}

func (e entry) description() string {
	lines := append(append([]string{}, e.bullets...), e.body...)
	return strings.Join(lines, "\n")
}

// ParseExperience 解析工作/实习经历段落。
func ParseExperience(body string) []resume.Internship {
	var out []resume.Internship
	for _, e := range splitEntries(body) {
		if len(e.head) == 0 {
			// 只有列表项的块归到上一段经历。
			if n := len(out); n > 0 && len(e.bullets) > 0 {
				out[n-1].Description = joinNonEmpty("\n", out[n-1].Description, e.description())
			}
			continue
		}
		it := resume.Internship{Duration: e.duration, Description: e.description()}
		parts := splitTitleLine(e.head[0])
		it.Title = parts[0]
		if len(parts) > 1 {
			it.Company = parts[1]
		}
		if len(parts) > 2 {
			it.Location = strings.Join(parts[2:], ", ")
		}
		if len(e.head) > 1 {
			second := splitTitleLine(e.head[1])
			if it.Company == "" {
				it.Company = second[0]
				second = second[1:]
			}
			if it.Location == "" && len(second) > 0 {
				it.Location = strings.Join(second, ", ")
			}
		}
		out = append(out, it)
	}
	return out
}

// ParseProjects 解析项目段落：标题行可带 "| 技术栈"，正文中的链接与技术栈标签单独识别。
func ParseProjects(body string) []resume.Project {
	var out []resume.Project
	for _, e := range splitEntries(body) {
		if len(e.head) == 0 {
			if n := len(out); n > 0 && len(e.bullets) > 0 {
				out[n-1].Description = joinNonEmpty("\n", out[n-1].Description, e.description())
			}
			continue
		}
		p := resume.Project{Duration: e.duration, Technologies: e.tech, Link: e.link}

		title := e.head[0]
		if p.Link == "" {
			if u := urlPattern.FindString(title); u != "" {
				p.Link = strings.TrimRight(u, ".")
				title = strings.Replace(title, u, "", 1)
			} else if m := gitHubURLPattern.FindString(title); m != "" {
				p.Link = m
				title = strings.Replace(title, m, "", 1)
			}
		}
		parts := splitProjectTitle(title)
		p.Title = parts[0]
		if p.Technologies == "" && len(parts) > 1 {
			p.Technologies = strings.Join(parts[1:], ", ")
		}

		desc := e.description()
		if len(e.head) > 1 {
			desc = joinNonEmpty("\n", e.head[1], desc)
		}
		if p.Link == "" {
			if u := urlPattern.FindString(desc); u != "" {
				p.Link = strings.TrimRight(u, ".")
			}
		}
		p.Description = desc
		out = append(out, p)
	}
	return out
}

// splitTitleLine 拆分 "Title at Company", "Title | Company | City", "Title - Company", "Title, Company"。
func splitTitleLine(line string) []string {
	line = strings.TrimSpace(line)
	if segs := splitSegments(line); len(segs) > 1 {
		return cleanParts(segs)
	}
	if loc := atPattern.FindStringIndex(line); loc != nil {
		return cleanParts([]string{line[:loc[0]], line[loc[1]:]})
	}
	if strings.Contains(line, ",") {
		return cleanParts(strings.Split(line, ","))
	}
	return cleanParts([]string{line})
}

func splitProjectTitle(line string) []string {
	if segs := splitSegments(line); len(segs) > 1 {
		return cleanParts(segs)
	}
	return cleanParts([]string{line})
}

func cleanParts(parts []string) []string {
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = cleanSegment(p); p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return []string{""}
	}
	return out
}

func joinNonEmpty(sep string, values ...string) string {
	kept := make([]string, 0, len(values))
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			kept = append(kept, v)
		}
	}
	return strings.Join(kept, sep)
}
