package types

import "time"

// WorkFormat 工作形式
type WorkFormat string

const (
	WorkFormatRemote WorkFormat = "remote"
	WorkFormatHybrid WorkFormat = "hybrid"
	WorkFormatOffice WorkFormat = "office"
)

// EmploymentType 雇佣类型
type EmploymentType string

const (
	EmploymentFullTime   EmploymentType = "full_time"
	EmploymentPartTime   EmploymentType = "part_time"
	EmploymentInternship EmploymentType = "internship"
)

// PrimarySkills 核心技能，分必须与优先两档
type PrimarySkills struct {
	Required  []string `json:"required,omitempty"`
	Preferred []string `json:"preferred,omitempty"`
}

// Vacancy 职位，对应后端 VacancySchema
type Vacancy struct {
	ID                 int            `json:"id"`
	Title              string         `json:"title"`
	Description        string         `json:"description,omitempty"`
	ExperienceRequired string         `json:"experience_required,omitempty"`
	PrimarySkills      *PrimarySkills `json:"primary_skills,omitempty"`
	NiceToHaveSkills   []string       `json:"nice_to_have_skills,omitempty"`
	SalaryFrom         *int           `json:"salary_from,omitempty"`
	SalaryTo           *int           `json:"salary_to,omitempty"`
	SalaryCurrency     string         `json:"salary_currency,omitempty"`
	WorkFormat         WorkFormat     `json:"work_format,omitempty"`
	EmploymentType     EmploymentType `json:"employment_type,omitempty"`
	EmployerID         int            `json:"employer_id,omitempty"`
	CreatedAt          time.Time      `json:"created_at,omitempty"`
	UpdatedAt          time.Time      `json:"updated_at,omitempty"`
}

// VacancyInput 创建/更新职位时提交给后端的载荷
type VacancyInput struct {
	Title              string         `json:"title"`
	Description        string         `json:"description,omitempty"`
	ExperienceRequired string         `json:"experience_required,omitempty"`
	PrimarySkills      *PrimarySkills `json:"primary_skills,omitempty"`
	NiceToHaveSkills   []string       `json:"nice_to_have_skills,omitempty"`
	SalaryFrom         *int           `json:"salary_from,omitempty"`
	SalaryTo           *int           `json:"salary_to,omitempty"`
	SalaryCurrency     string         `json:"salary_currency,omitempty"`
	WorkFormat         WorkFormat     `json:"work_format,omitempty"`
	EmploymentType     EmploymentType `json:"employment_type,omitempty"`
}

// VacancyFilter /vacancies/ 列表的筛选参数，原样透传给后端
type VacancyFilter struct {
	Skip           int
	Limit          int
	SearchQuery    string
	WorkFormat     string
	EmploymentType string
	MinSalaryFrom  int
}
