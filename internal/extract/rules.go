package extract

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Rule 是单个字段的提取规则：找到返回 (值, true)，否则 ("", false)。
// 规则之间互不依赖，可以单独测试或调整顺序。
type Rule func(text string) (string, bool)

var (
	emailPattern = regexp.MustCompile(`[A-Za-z0-9._%+\-]+@[A-Za-z0-9.\-]+\.[A-Za-z]{2,}`)

	phonePatterns = []*regexp.Regexp{
		// +1 (555) 123-4567, +44 20 7946 0958, +91 98765 43210
		regexp.MustCompile(`\+\d{1,3}[ \t.\-]?\(?\d{1,4}\)?(?:[ \t.\-]?\d{2,5}){1,3}`),
		// (555) 123-4567, 555-123-4567, 555.123.4567
		regexp.MustCompile(`\(?\d{3}\)?[ \t.\-]?\d{3}[ \t.\-]\d{4}`),
	}

	linkedInURLPattern   = regexp.MustCompile(`(?i)(?:https?://)?(?:[a-z]{2,3}\.)?linkedin\.com/in/([A-Za-z0-9_%\-]+)`)
	linkedInLabelPattern = regexp.MustCompile(`(?i)\blinked\s?in\s*[:\-]\s*@?([A-Za-z0-9_\-]+)([./]?)`)
	gitHubURLPattern     = regexp.MustCompile(`(?i)(?:https?://)?(?:www\.)?github\.com/([A-Za-z0-9\-]+)`)
	gitHubLabelPattern   = regexp.MustCompile(`(?i)\bgithub\s*[:\-]\s*@?([A-Za-z0-9\-]+)([./]?)`)
	urlPattern           = regexp.MustCompile(`(?i)\b(?:https?://|www\.)[^\s,;|()<>"']+`)

	locationLabelPattern = regexp.MustCompile(`(?im)^\s*(?:location|address)\s*[:\-]\s*(.+?)\s*$`)
	locationPattern      = regexp.MustCompile(`^[A-Z][A-Za-z.'\-]*(?:\s[A-Z][A-Za-z.'\-]*){0,3},\s*(?:[A-Z]{2}|[A-Z][A-Za-z.'\-]*(?:\s[A-Z][A-Za-z.'\-]*){0,2})$`)

	nameWordsPattern = regexp.MustCompile(`^[A-Z][A-Za-z'’.\-]*(?:\s+[A-Z][A-Za-z'’.\-]*){1,3}$`)
)

// maxHeaderLines 限制在页眉里找姓名的行数。
const maxHeaderLines = 5

// ExtractEmail returns the first email address in text order.
func ExtractEmail(text string) (string, bool) {
	m := emailPattern.FindString(text)
	return m, m != ""
}

// ExtractPhone tries every phone format and keeps the match that starts
// earliest; on a tie the longer match wins.
func ExtractPhone(text string) (string, bool) {
	bestStart, bestEnd := -1, -1
	for _, p := range phonePatterns {
		for _, loc := range p.FindAllStringIndex(text, -1) {
			digits := countDigits(text[loc[0]:loc[1]])
			if digits < 7 || digits > 15 {
				continue
			}
			if bestStart == -1 || loc[0] < bestStart || (loc[0] == bestStart && loc[1] > bestEnd) {
				bestStart, bestEnd = loc[0], loc[1]
			}
			break
		}
	}
	if bestStart == -1 {
		return "", false
	}
	return strings.TrimSpace(text[bestStart:bestEnd]), true
}

// ExtractLinkedIn 识别完整 URL 或 "LinkedIn: handle"，统一成 linkedin.com/in/<handle>。
// 两种写法都出现时取文中靠前的一个。
func ExtractLinkedIn(text string) (string, bool) {
	if h, ok := firstHandle(linkedInURLPattern, linkedInLabelPattern, text); ok {
		return "linkedin.com/in/" + h, true
	}
	return "", false
}

// ExtractGitHub 识别完整 URL 或 "GitHub: handle"，统一成 github.com/<handle>。
func ExtractGitHub(text string) (string, bool) {
	if h, ok := firstHandle(gitHubURLPattern, gitHubLabelPattern, text); ok {
		return "github.com/" + h, true
	}
	return "", false
}

// firstHandle returns the handle of whichever form, URL or label, starts
// first in text.
func firstHandle(urlP, labelP *regexp.Regexp, text string) (string, bool) {
	handle, at := "", -1
	if loc := urlP.FindStringSubmatchIndex(text); loc != nil {
		handle, at = text[loc[2]:loc[3]], loc[0]
	}
	if h, labelAt, ok := labelledHandle(labelP, text); ok && (at == -1 || labelAt < at) {
		handle, at = h, labelAt
	}
	return handle, at != -1
}

func labelledHandle(p *regexp.Regexp, text string) (string, int, bool) {
	for _, loc := range p.FindAllStringSubmatchIndex(text, -1) {
		// "LinkedIn: linkedin.com/..." is a URL, not a handle.
		if loc[5] > loc[4] {
			continue
		}
		return text[loc[2]:loc[3]], loc[0], true
	}
	return "", -1, false
}

// ExtractPortfolio returns the first URL that is not a LinkedIn or GitHub link.
func ExtractPortfolio(text string) (string, bool) {
	for _, u := range urlPattern.FindAllString(text, -1) {
		u = strings.TrimRight(u, ".:")
		lower := strings.ToLower(u)
		if strings.Contains(lower, "linkedin.com") || strings.Contains(lower, "github.com") {
			continue
		}
		return u, true
	}
	return "", false
}

// ExtractLocation looks for "Location: ..." anywhere, then for a
// "City, ST" segment in the header block.
func ExtractLocation(text string) (string, bool) {
	if m := locationLabelPattern.FindStringSubmatch(text); m != nil {
		return m[1], true
	}
	for _, line := range headerBlock(text) {
		for _, seg := range splitSegments(line) {
			if looksLikeLocation(seg) {
				return seg, true
			}
		}
	}
	return "", false
}

// ExtractName 先在页眉里找 2~4 个首字母大写的单词，找不到再退回到
// 第一行逗号之前的内容。
func ExtractName(text string) (string, bool) {
	header := headerBlock(text)
	for i, line := range header {
		if i >= maxHeaderLines {
			break
		}
		segs := splitSegments(line)
		if len(segs) == 0 {
			continue
		}
		candidate := segs[0]
		if isContactLine(candidate) || isSectionHeader(candidate) || isKnownSkill(candidate) {
			continue
		}
		if nameWordsPattern.MatchString(candidate) {
			return tidyName(candidate), true
		}
	}

	first := firstNonEmptyLine(text)
	if first == "" {
		return "", false
	}
	if idx := strings.Index(first, ","); idx >= 0 {
		first = first[:idx]
	}
	first = strings.TrimSpace(first)
	if first == "" || len(first) > 60 || isContactLine(first) || isSectionHeader(first) || isKnownSkill(first) {
		return "", false
	}
	if countDigits(first) > 0 || len(strings.Fields(first)) > 5 {
		return "", false
	}
	return tidyName(first), true
}

// tidyName 把全大写的姓名转换为首字母大写。
func tidyName(name string) string {
	if strings.ToUpper(name) != name {
		return name
	}
	return cases.Title(language.English).String(strings.ToLower(name))
}

func looksLikeLocation(seg string) bool {
	if strings.ContainsAny(seg, "@/:") || countDigits(seg) > 0 {
		return false
	}
	return locationPattern.MatchString(seg)
}

func isContactLine(s string) bool {
	if strings.Contains(s, "@") || urlPattern.MatchString(s) {
		return true
	}
	if _, ok := ExtractPhone(s); ok {
		return true
	}
	lower := strings.ToLower(s)
	return strings.Contains(lower, "linkedin") || strings.Contains(lower, "github")
}

func countDigits(s string) int {
	n := 0
	for _, r := range s {
		if unicode.IsDigit(r) {
			n++
		}
	}
	return n
}
