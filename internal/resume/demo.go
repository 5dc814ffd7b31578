package resume

const (
	DefaultTemplateID  = "professional"
	DefaultAccentColor = "#2563eb"
	DefaultFontFamily  = "Inter"
	DefaultFontSize    = 11
	DefaultLineSpacing = 1.4
	DefaultMargins     = 16
)

// DefaultSettings 返回新建简历使用的展示设置。
func DefaultSettings() Settings {
	return Settings{
		AccentColor: DefaultAccentColor,
		FontFamily:  DefaultFontFamily,
		FontSize:    DefaultFontSize,
		LineSpacing: DefaultLineSpacing,
		Margins:     DefaultMargins,
		TemplateID:  DefaultTemplateID,
	}
}

// NewDemo 构造会话开始（或用户重置）时展示的占位简历。
func NewDemo() *Document {
	doc := &Document{
		PersonalInfo: PersonalInfo{
			FullName:  "Alex Morgan",
			Email:     "alex.morgan@example.com",
			Phone:     "+1 (555) 010-2030",
			Location:  "Austin, TX",
			LinkedIn:  "linkedin.com/in/alexmorgan",
			GitHub:    "github.com/alexmorgan",
			Portfolio: "https://alexmorgan.dev",
		},
		Objective: "Computer science student looking for a software engineering internship where I can ship reliable backend services.",
		Education: []Education{
			{
				Degree:             "B.S. Computer Science",
				Institution:        "University of Texas at Austin",
				Location:           "Austin, TX",
				GraduationDate:     "May 2026",
				GPA:                "3.8",
				RelevantCoursework: "Data Structures, Operating Systems, Databases",
			},
		},
		Skills: Skills{
			Technical: []string{"Go", "Python", "SQL", "React"},
			Languages: []string{"English", "Spanish"},
			Tools:     []string{"Git", "Docker", "PostgreSQL"},
		},
		Projects: []Project{
			{
				Title:        "Campus Events API",
				Description:  "Built a REST API serving 2,000 weekly users with caching and rate limiting.",
				Technologies: "Go, PostgreSQL, Redis",
				Link:         "https://github.com/alexmorgan/campus-events",
				Duration:     "Jan 2025 - Apr 2025",
			},
		},
		Internships: []Internship{
			{
				Title:       "Software Engineering Intern",
				Company:     "Acme Corp",
				Location:    "Remote",
				Duration:    "Jun 2024 - Aug 2024",
				Description: "Reduced report generation time by 40% by moving batch jobs to a queue.",
			},
		},
		Achievements: []Achievement{
			{
				Title:       "Dean's List",
				Description: "Recognised for academic excellence",
				Date:        "2024",
			},
		},
		Settings: DefaultSettings(),
	}
	doc.EnsureIDs()
	return doc
}
