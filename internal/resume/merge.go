package resume

import (
	"strings"
	"unicode"
)

// Clone 返回文档的深拷贝，保存快照时使用，避免与正在编辑的文档共享切片。
func (d *Document) Clone() *Document {
	if d == nil {
		return nil
	}
	out := *d
	out.Education = cloneSlice(d.Education)
	out.Projects = cloneSlice(d.Projects)
	out.Internships = cloneSlice(d.Internships)
	out.Achievements = cloneSlice(d.Achievements)
	out.Skills = Skills{
		Technical: cloneSlice(d.Skills.Technical),
		Languages: cloneSlice(d.Skills.Languages),
		Tools:     cloneSlice(d.Skills.Tools),
	}
	return &out
}

func cloneSlice[T any](in []T) []T {
	if in == nil {
		return nil
	}
	out := make([]T, len(in))
	copy(out, in)
	return out
}

// Merge folds src into dst without destroying existing data:
//   - non-empty scalar fields of src overwrite dst, empty ones are ignored;
//   - list sections are unioned, items with the same normalised content key
//     only fill the blanks of the existing item;
//   - skills are unioned case-insensitively, keeping the first-seen spelling.
//
// Settings are presentation-only and never merged. dst is modified in place
// and returned; a nil dst yields a clone of src.
func Merge(dst, src *Document) *Document {
	if src == nil {
		return dst
	}
	if dst == nil {
		return src.Clone()
	}

	mergePersonalInfo(&dst.PersonalInfo, src.PersonalInfo)
	setIfPresent(&dst.Objective, src.Objective)

	dst.Education = mergeEntities(dst.Education, src.Education, educationKey, fillEducation)
	dst.Projects = mergeEntities(dst.Projects, src.Projects, projectKey, fillProject)
	dst.Internships = mergeEntities(dst.Internships, src.Internships, internshipKey, fillInternship)
	dst.Achievements = mergeEntities(dst.Achievements, src.Achievements, achievementKey, fillAchievement)

	dst.Skills.Technical = unionStrings(dst.Skills.Technical, src.Skills.Technical)
	dst.Skills.Languages = unionStrings(dst.Skills.Languages, src.Skills.Languages)
	dst.Skills.Tools = unionStrings(dst.Skills.Tools, src.Skills.Tools)

	dst.EnsureIDs()
	return dst
}

func mergePersonalInfo(dst *PersonalInfo, src PersonalInfo) {
	setIfPresent(&dst.FullName, src.FullName)
	setIfPresent(&dst.Email, src.Email)
	setIfPresent(&dst.Phone, src.Phone)
	setIfPresent(&dst.Location, src.Location)
	setIfPresent(&dst.LinkedIn, src.LinkedIn)
	setIfPresent(&dst.GitHub, src.GitHub)
	setIfPresent(&dst.Portfolio, src.Portfolio)
	setIfPresent(&dst.Photo, src.Photo)
}

func setIfPresent(dst *string, value string) {
	if v := strings.TrimSpace(value); v != "" {
		*dst = v
	}
}

func fillIfEmpty(dst *string, value string) {
	if strings.TrimSpace(*dst) == "" {
		setIfPresent(dst, value)
	}
}

func mergeEntities[T any](dst, src []T, key func(T) string, fill func(*T, T)) []T {
	if len(src) == 0 {
		return dst
	}
	index := make(map[string]int, len(dst))
	for i, item := range dst {
		if k := key(item); k != "" {
			if _, ok := index[k]; !ok {
				index[k] = i
			}
		}
	}
	for _, item := range src {
		k := key(item)
		if k == "" {
			continue
		}
		if i, ok := index[k]; ok {
			fill(&dst[i], item)
			continue
		}
		dst = append(dst, item)
		index[k] = len(dst) - 1
	}
	return dst
}

func educationKey(e Education) string {
	return keyOrContent(joinKey(e.Degree, e.Institution),
		e.Location, e.GraduationDate, e.GPA, e.RelevantCoursework)
}

func projectKey(p Project) string {
	return keyOrContent(joinKey(p.Title), p.Link, p.Description, p.Technologies, p.Duration)
}

func internshipKey(i Internship) string {
	return keyOrContent(joinKey(i.Title, i.Company), i.Location, i.Duration, i.Description)
}

func achievementKey(a Achievement) string {
	return keyOrContent(joinKey(a.Title), a.Description, a.Date)
}

// keyOrContent 在标识字段缺失时退回到其余全部内容作为比较键，
// 这样只有 GPA 或链接的条目仍会被合并进来，而完全相同的条目不会重复追加。
func keyOrContent(primary string, rest ...string) string {
	if primary != "" {
		return primary
	}
	if k := joinKey(rest...); k != "" {
		return "~" + k
	}
	return ""
}

func fillEducation(dst *Education, src Education) {
	fillIfEmpty(&dst.Location, src.Location)
	fillIfEmpty(&dst.GraduationDate, src.GraduationDate)
	fillIfEmpty(&dst.GPA, src.GPA)
	fillIfEmpty(&dst.RelevantCoursework, src.RelevantCoursework)
}

func fillProject(dst *Project, src Project) {
	fillIfEmpty(&dst.Description, src.Description)
	fillIfEmpty(&dst.Technologies, src.Technologies)
	fillIfEmpty(&dst.Link, src.Link)
	fillIfEmpty(&dst.Duration, src.Duration)
}

func fillInternship(dst *Internship, src Internship) {
	fillIfEmpty(&dst.Location, src.Location)
	fillIfEmpty(&dst.Duration, src.Duration)
	fillIfEmpty(&dst.Description, src.Description)
}

func fillAchievement(dst *Achievement, src Achievement) {
	fillIfEmpty(&dst.Description, src.Description)
	fillIfEmpty(&dst.Date, src.Date)
}

// joinKey 归一化若干字段为比较键：小写、仅保留字母数字、压缩空白。
// 所有字段都为空时返回空串。
func joinKey(parts ...string) string {
	normalized := make([]string, 0, len(parts))
	empty := true
	for _, p := range parts {
		n := normalizeKey(p)
		if n != "" {
			empty = false
		}
		normalized = append(normalized, n)
	}
	if empty {
		return ""
	}
	return strings.Join(normalized, "|")
}

func normalizeKey(s string) string {
	var b strings.Builder
	space := false
	for _, r := range strings.ToLower(s) {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			if space && b.Len() > 0 {
				b.WriteByte(' ')
			}
			space = false
			b.WriteRune(r)
		default:
			space = true
		}
	}
	return b.String()
}

// DedupeStrings 去重（大小写不敏感），保留首次出现的写法与顺序，丢弃空白项。
func DedupeStrings(values []string) []string {
	if values == nil {
		return nil
	}
	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		k := strings.ToLower(v)
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, v)
	}
	return out
}

func unionStrings(dst, src []string) []string {
	if len(src) == 0 {
		return dst
	}
	combined := make([]string, 0, len(dst)+len(src))
	combined = append(combined, dst...)
	combined = append(combined, src...)
	return DedupeStrings(combined)
}

// PopulatedFieldCount counts non-empty content fields plus skill tokens.
// Ids and settings are not content and are not counted.
func PopulatedFieldCount(d *Document) int {
	if d == nil {
		return 0
	}
	n := countNonEmpty(
		d.PersonalInfo.FullName, d.PersonalInfo.Email, d.PersonalInfo.Phone, d.PersonalInfo.Location,
		d.PersonalInfo.LinkedIn, d.PersonalInfo.GitHub, d.PersonalInfo.Portfolio, d.PersonalInfo.Photo,
		d.Objective,
	)
	for _, e := range d.Education {
		n += countNonEmpty(e.Degree, e.Institution, e.Location, e.GraduationDate, e.GPA, e.RelevantCoursework)
	}
	for _, p := range d.Projects {
		n += countNonEmpty(p.Title, p.Description, p.Technologies, p.Link, p.Duration)
	}
	for _, i := range d.Internships {
		n += countNonEmpty(i.Title, i.Company, i.Location, i.Duration, i.Description)
	}
	for _, a := range d.Achievements {
		n += countNonEmpty(a.Title, a.Description, a.Date)
	}
	n += countNonEmpty(d.Skills.Technical...)
	n += countNonEmpty(d.Skills.Languages...)
	n += countNonEmpty(d.Skills.Tools...)
	return n
}

func countNonEmpty(values ...string) int {
	n := 0
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			n++
		}
	}
	return n
}
