package extract

import (
	"regexp"
	"strings"

	"golang.org/x/text/cases"

	"resumeForge/internal/resume"
)

type skillCategory int

const (
	categoryAuto skillCategory = iota
	categoryTechnical
	categoryLanguages
	categoryTools
)

var spokenLanguages = keywordSet(
	"english", "spanish", "french", "german", "italian", "portuguese", "dutch", "swedish",
	"norwegian", "danish", "finnish", "polish", "russian", "ukrainian", "greek", "turkish",
	"arabic", "hebrew", "persian", "hindi", "bengali", "urdu", "punjabi", "marathi",
	"gujarati", "tamil", "telugu", "kannada", "malayalam", "mandarin", "cantonese",
	"chinese", "japanese", "korean", "vietnamese", "thai", "indonesian", "malay",
	"tagalog", "swahili",
)

var toolKeywords = keywordSet(
	"git", "github", "gitlab", "bitbucket", "docker", "kubernetes", "k8s", "helm",
	"jenkins", "github actions", "circleci", "travis ci", "terraform", "ansible",
	"aws", "azure", "gcp", "google cloud", "heroku", "vercel", "netlify", "firebase",
	"linux", "unix", "bash", "jira", "confluence", "trello", "notion", "slack",
	"figma", "sketch", "photoshop", "illustrator", "postman", "insomnia", "vs code",
	"vscode", "visual studio", "intellij", "eclipse", "xcode", "android studio",
	"vim", "excel", "tableau", "power bi", "looker", "npm", "yarn", "webpack", "vite",
	"maven", "gradle", "postgresql", "postgres", "mysql", "sqlite", "mongodb", "redis",
	"elasticsearch", "kafka", "rabbitmq", "nginx", "grafana", "prometheus", "matlab",
	"jupyter", "latex",
)

var technicalKeywords = keywordSet(
	"go", "golang", "python", "java", "javascript", "typescript", "c", "c++", "c#",
	"rust", "ruby", "php", "swift", "kotlin", "scala", "r", "dart", "elixir", "haskell",
	"perl", "lua", "sql", "nosql", "html", "css", "sass", "react", "react native",
	"angular", "vue", "vue.js", "svelte", "next.js", "nuxt", "node.js", "nodejs",
	"express", "django", "flask", "fastapi", "spring", "spring boot", ".net",
	"asp.net", "rails", "ruby on rails", "laravel", "graphql", "rest", "grpc",
	"microservices", "machine learning", "deep learning", "nlp",
	"computer vision", "data analysis", "data structures", "algorithms",
	"tensorflow", "pytorch", "keras", "scikit-learn", "pandas", "numpy", "spark",
	"hadoop", "flutter", "unity", "tailwind", "bootstrap", "jquery", "redux",
	"oop", "tdd", "ci/cd", "agile", "scrum",
)

// 标签行，例如 "Languages: English, Spanish"。
var skillLabelPattern = regexp.MustCompile(`(?i)^\s*([A-Za-z][A-Za-z &/]{1,40}?)\s*[:：]\s*(.*)$`)

var skillLabels = map[string]skillCategory{
	"languages":              categoryLanguages,
	"language":               categoryLanguages,
	"spoken languages":       categoryLanguages,
	"tools":                  categoryTools,
	"tools & platforms":      categoryTools,
	"tools & technologies":   categoryTools,
	"developer tools":        categoryTools,
	"platforms":              categoryTools,
	"software":               categoryTools,
	"databases":              categoryTools,
	"technical":              categoryTechnical,
	"technical skills":       categoryTechnical,
	"programming":            categoryTechnical,
	"programming languages":  categoryTechnical,
	"frameworks":             categoryTechnical,
	"libraries":              categoryTechnical,
	"frameworks & libraries": categoryTechnical,
	"technologies":           categoryTechnical,
	"skills":                 categoryTechnical,
}

const (
	maxSkillLen   = 40
	maxSkillWords = 4
)

func keywordSet(words ...string) map[string]struct{} {
	out := make(map[string]struct{}, len(words))
	for _, w := range words {
		out[w] = struct{}{}
	}
	return out
}

// foldKey 返回大小写折叠后的比较键。Caser 不能跨 goroutine 共享，所以每次新建。
func foldKey(s string) string {
	return cases.Fold().String(strings.TrimSpace(s))
}

func isKnownSkill(s string) bool {
	k := foldKey(s)
	if _, ok := technicalKeywords[k]; ok {
		return true
	}
	if _, ok := toolKeywords[k]; ok {
		return true
	}
	_, ok := spokenLanguages[k]
	return ok
}

// ParseSkills 解析技能段落。带标签的行决定分类，其余按关键词表分类，
// 未识别的技能归入 Technical。
func ParseSkills(body string) resume.Skills {
	var skills resume.Skills
	for _, line := range splitLines(body) {
		line, _ = trimBullet(line)
		if line == "" {
			continue
		}
		category := categoryAuto
		if m := skillLabelPattern.FindStringSubmatch(line); m != nil {
			if c, ok := skillLabels[headerKey(m[1])]; ok {
				category = c
				line = m[2]
			}
		}
		for _, token := range splitSkillTokens(line) {
			addSkill(&skills, token, category)
		}
	}
	return dedupeSkills(skills)
}

// scanSkills is used when the text has no skills section: only tokens that
// are known skill keywords are kept.
func scanSkills(text string) resume.Skills {
	var skills resume.Skills
	for _, line := range splitLines(text) {
		if isSectionHeader(line) {
			continue
		}
		line, _ = trimBullet(line)
		for _, token := range splitSkillTokens(line) {
			if isKnownSkill(token) {
				addSkill(&skills, token, categoryAuto)
			}
		}
	}
	return dedupeSkills(skills)
}

func splitSkillTokens(line string) []string {
	raw := strings.FieldsFunc(line, func(r rune) bool {
		switch r {
		case ',', ';', '|', '•', '·', '◦', '▪', '●', '，', '、':
			return true
		}
		return false
	})
	out := make([]string, 0, len(raw))
	for _, t := range raw {
		t, _ = trimBullet(t)
		t = strings.TrimRight(strings.TrimSpace(t), ".")
		if t == "" || len(t) > maxSkillLen || len(strings.Fields(t)) > maxSkillWords {
			continue
		}
		out = append(out, t)
	}
	return out
}

func addSkill(s *resume.Skills, token string, category skillCategory) {
	key := foldKey(token)
	switch category {
	case categoryTools:
		s.Tools = append(s.Tools, token)
	case categoryTechnical:
		s.Technical = append(s.Technical, token)
	case categoryLanguages:
		// "Languages: Python, Go" 在技术简历里通常指编程语言。
		if _, ok := spokenLanguages[key]; ok {
			s.Languages = append(s.Languages, token)
		} else {
			s.Technical = append(s.Technical, token)
		}
	default:
		if _, ok := spokenLanguages[key]; ok {
			s.Languages = append(s.Languages, token)
		} else if _, ok := toolKeywords[key]; ok {
			s.Tools = append(s.Tools, token)
		} else {
			s.Technical = append(s.Technical, token)
		}
	}
}

func dedupeSkills(s resume.Skills) resume.Skills {
	return resume.Skills{
		Technical: resume.DedupeStrings(s.Technical),
		Languages: resume.DedupeStrings(s.Languages),
		Tools:     resume.DedupeStrings(s.Tools),
	}
}
