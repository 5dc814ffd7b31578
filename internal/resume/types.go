package resume

// Document 是简历的根聚合，所有模板与解析器都读写它。
// 没有任何字段是必填的；空字段在渲染时直接省略。
type Document struct {
	PersonalInfo PersonalInfo  `json:"personalInfo"`
	Objective    string        `json:"objective"`
	Education    []Education   `json:"education"`
	Skills       Skills        `json:"skills"`
	Projects     []Project     `json:"projects"`
	Internships  []Internship  `json:"internships"`
	Achievements []Achievement `json:"achievements"`
	Settings     Settings      `json:"settings"`
}

// PersonalInfo 描述页眉中的身份与联系方式。
type PersonalInfo struct {
	FullName  string `json:"fullName"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
	Location  string `json:"location"`
	LinkedIn  string `json:"linkedIn"`
	GitHub    string `json:"github"`
	Portfolio string `json:"portfolio"`
	Photo     string `json:"photo" validate:"omitempty,datauri"` // data URI
}

// Education 表示一段教育经历。
type Education struct {
	ID                 string `json:"id"`
	Degree             string `json:"degree"`
	Institution        string `json:"institution"`
	Location           string `json:"location"`
	GraduationDate     string `json:"graduationDate"`
	GPA                string `json:"gpa"`
	RelevantCoursework string `json:"relevantCoursework"`
}

// Skills groups skill tokens by category. Languages holds spoken languages,
// programming languages live in Technical.
type Skills struct {
	Technical []string `json:"technical"`
	Languages []string `json:"languages"`
	Tools     []string `json:"tools"`
}

// Project 表示一个项目经历。
type Project struct {
	ID           string `json:"id"`
	Title        string `json:"title"`
	Description  string `json:"description"`
	Technologies string `json:"technologies"`
	Link         string `json:"link"`
	Duration     string `json:"duration"`
}

// Internship 表示一段工作或实习经历。
type Internship struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Company     string `json:"company"`
	Location    string `json:"location"`
	Duration    string `json:"duration"`
	Description string `json:"description"`
}

// Achievement 表示奖项、荣誉或证书。
type Achievement struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Date        string `json:"date"`
}

// Settings 只影响展示，不影响简历语义。
type Settings struct {
	AccentColor string  `json:"accentColor" validate:"omitempty,max=64"`
	FontFamily  string  `json:"fontFamily" validate:"omitempty,max=80"`
	FontSize    float64 `json:"fontSize" validate:"omitempty,gte=6,lte=24"`       // pt
	LineSpacing float64 `json:"lineSpacing" validate:"omitempty,gte=0.8,lte=3"`   // multiplier
	Margins     float64 `json:"margins" validate:"omitempty,gte=0,lte=60"`        // mm
	TemplateID  string  `json:"templateId" validate:"omitempty,max=64"`
}
