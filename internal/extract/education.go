package extract

import (
	"regexp"
	"strings"

	"resumeForge/internal/resume"
)

var (
	// 学位缩写后面常跟 "."，没有 \b 可用，所以显式写出边界字符。
	degreePattern = regexp.MustCompile(`(?i)(?:^|[\s(,])(B\.?\s?S\.?c?|B\.?\s?A\.?|B\.?\s?Tech|B\.?\s?E\.?|B\.?\s?Eng|B\.?\s?Com|BBA|M\.?\s?S\.?c?|M\.?\s?A\.?|M\.?\s?Tech|M\.?\s?Eng|MBA|Ph\.?\s?D\.?|Bachelor(?:'s)?|Master(?:'s)?|Doctor(?:ate)?|Associate(?:'s)?|Diploma|High School)(?:[\s.,:()]|$)`)
	degreeOnlyPattern  = regexp.MustCompile(`(?i)^(?:B\.?\s?S\.?c?|B\.?\s?A\.?|B\.?\s?Tech|B\.?\s?E\.?|M\.?\s?S\.?c?|M\.?\s?A\.?|M\.?\s?Tech|MBA|Ph\.?\s?D\.?)\.?$`)
	institutionPattern = regexp.MustCompile(`(?i)\b(?:university|college|institute|school|academy|polytechnic|universidad|université)\b`)
	gpaPattern         = regexp.MustCompile(`(?i)\b(?:GPA|CGPA)\s*[:\-]?\s*(\d+(?:\.\d+)?)(?:\s*/\s*\d+(?:\.\d+)?)?`)
	courseworkPattern  = regexp.MustCompile(`(?i)^\s*(?:relevant\s+)?(?:coursework|courses)\s*[:\-]\s*(.+)$`)
	datePattern        = regexp.MustCompile(`(?i)\b(?:(?:jan|feb|mar|apr|may|jun|jul|aug|sep|sept|oct|nov|dec)[a-z]*\.?\s+|(?:spring|summer|fall|autumn|winter)\s+)?(?:19|20)\d{2}\b`)
	dateRangeJunk      = regexp.MustCompile(`(?i)(?:^|\s)(?:-|–|—|to|expected|graduated|graduation|present|current)(?:\s|$)`)
)

// ParseEducation 解析教育段落。空行、或再次出现学位/学校时开始新的条目。
func ParseEducation(body string) []resume.Education {
	var (
		out []resume.Education
		cur resume.Education
	)
	flush := func() {
		if educationPopulated(cur) {
			out = append(out, cur)
		}
		cur = resume.Education{}
	}

	for _, raw := range splitLines(body) {
		line, _ := trimBullet(raw)
		if line == "" {
			flush()
			continue
		}

		if m := courseworkPattern.FindStringSubmatch(line); m != nil {
			cur.RelevantCoursework = strings.TrimSpace(m[1])
			continue
		}

		hasDegree := degreePattern.MatchString(line)
		hasInstitution := institutionPattern.MatchString(line)
		if (hasDegree && cur.Degree != "") || (hasInstitution && cur.Institution != "") {
			flush()
		}

		if m := gpaPattern.FindStringSubmatch(line); m != nil {
			if cur.GPA == "" {
				cur.GPA = m[1]
			}
			line = strings.Replace(line, m[0], "", 1)
		}

		if dates := datePattern.FindAllString(line, -1); len(dates) > 0 && cur.GraduationDate == "" {
			cur.GraduationDate = strings.TrimSpace(dates[len(dates)-1])
		}

		// 先按分隔符切段再去掉日期，避免 " — " 这类分隔符被当成日期区间的连接符删掉。
		segs := splitSegments(line)
		for i, seg := range segs {
			if !datePattern.MatchString(seg) {
				continue
			}
			seg = datePattern.ReplaceAllString(seg, "")
			segs[i] = dateRangeJunk.ReplaceAllString(seg, " ")
		}
		classifyEducationSegments(&cur, segs)
	}
	flush()
	return out
}

func classifyEducationSegments(cur *resume.Education, segs []string) {
	for i := 0; i < len(segs); i++ {
		seg := cleanSegment(segs[i])
		if seg == "" {
			continue
		}
		isDegree := degreePattern.MatchString(seg)
		isInstitution := institutionPattern.MatchString(seg)

		switch {
		case isDegree || isInstitution:
			var leftovers []string
			for _, part := range strings.Split(seg, ",") {
				part = cleanSegment(part)
				switch {
				case part == "":
				case degreePattern.MatchString(part) && cur.Degree == "":
					cur.Degree = part
				case institutionPattern.MatchString(part) && cur.Institution == "":
					cur.Institution = part
				case degreeOnlyPattern.MatchString(cur.Degree) && len(leftovers) == 0 && cur.Institution == "":
					// "B.S., Computer Science"
					cur.Degree = strings.TrimRight(cur.Degree, ",") + " " + part
				default:
					leftovers = append(leftovers, part)
				}
			}
			if loc := strings.Join(leftovers, ", "); cur.Location == "" && (looksLikeLocation(loc) || isLocationHint(loc)) {
				cur.Location = loc
			}
		case looksLikeLocation(seg) && cur.Location == "":
			cur.Location = seg
		case degreeOnlyPattern.MatchString(cur.Degree) && !isLocationHint(seg):
			cur.Degree = cur.Degree + " " + seg
		}
	}
}

// isLocationHint accepts "Remote" and two-letter region codes such as "CA".
func isLocationHint(s string) bool {
	s = strings.TrimSpace(s)
	if strings.EqualFold(s, "remote") {
		return true
	}
	return len(s) == 2 && countDigits(s) == 0 && strings.ToUpper(s) == s
}

func cleanSegment(s string) string {
	return strings.Trim(strings.TrimSpace(s), ",;:()[] ")
}

func educationPopulated(e resume.Education) bool {
	return e.Degree != "" || e.Institution != "" || e.GPA != "" || e.GraduationDate != "" || e.RelevantCoursework != ""
}
