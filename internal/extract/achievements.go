package extract

import (
	"strings"

	"resumeForge/internal/resume"
)

// ParseAchievements 每行一条；日期从标题中拆出，"标题: 描述" 与 "标题 - 描述" 都能识别。
func ParseAchievements(body string) []resume.Achievement {
	var out []resume.Achievement
	for _, raw := range splitLines(body) {
		line, _ := trimBullet(raw)
		if line == "" {
			continue
		}

		var a resume.Achievement
		if dates := datePattern.FindAllString(line, -1); len(dates) > 0 {
			a.Date = strings.TrimSpace(dates[len(dates)-1])
			line = strings.Replace(line, dates[len(dates)-1], "", 1)
			line = strings.ReplaceAll(line, "()", "")
			line = strings.ReplaceAll(line, "[]", "")
		}
		line = strings.TrimSpace(strings.Trim(strings.TrimSpace(line), "|,-–—:"))

		title, desc := splitTitleDescription(line)
		a.Title = title
		a.Description = desc
		if a.Title == "" && a.Description == "" {
			continue
		}
		if a.Title == "" {
			a.Title, a.Description = a.Description, ""
		}
		out = append(out, a)
	}
	return out
}

func splitTitleDescription(line string) (string, string) {
	if segs := splitSegments(line); len(segs) > 1 {
		return cleanSegment(segs[0]), cleanSegment(strings.Join(segs[1:], " - "))
	}
	if idx := strings.Index(line, ": "); idx > 0 {
		return cleanSegment(line[:idx]), cleanSegment(line[idx+1:])
	}
	return cleanSegment(line), ""
}
