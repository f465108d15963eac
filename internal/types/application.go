package types

import "time"

// ApplicationStatus 投递状态。状态码由后端定义且是开放集合：
// 未识别的状态码保留原始字符串，展示时直接回退为原码。
type ApplicationStatus string

const (
	StatusSubmitted          ApplicationStatus = "submitted"
	StatusViewed             ApplicationStatus = "viewed"
	StatusUnderReview        ApplicationStatus = "under_review"
	StatusShortlisted        ApplicationStatus = "shortlisted"
	StatusRejected           ApplicationStatus = "rejected"
	StatusInvitedToInterview ApplicationStatus = "invited_to_interview"
	StatusHired              ApplicationStatus = "hired"
)

// Resume 简历摘要，嵌套在投递记录里
type Resume struct {
	ID              int    `json:"id"`
	Title           string `json:"title,omitempty"`
	OriginalPDFPath string `json:"original_pdf_path,omitempty"`
}

// Application 投递记录，对应后端 ApplicationSchema
type Application struct {
	ID           int               `json:"id"`
	CandidateID  int               `json:"candidate_id"`
	VacancyID    int               `json:"vacancy_id"`
	ResumeID     int               `json:"resume_id"`
	Status       ApplicationStatus `json:"status"`
	MatchScore   *float64          `json:"match_score,omitempty"`
	MatchDetails map[string]any    `json:"match_details,omitempty"`
	Vacancy      *Vacancy          `json:"vacancy,omitempty"`
	Resume       *Resume           `json:"resume,omitempty"`
	CreatedAt    time.Time         `json:"created_at"`
	UpdatedAt    time.Time         `json:"updated_at,omitempty"`
}

// MatchedCandidate 某职位的匹配候选人，对应后端 MatchedCandidateSchema
type MatchedCandidate struct {
	ID         int      `json:"id"`
	FullName   string   `json:"full_name"`
	Email      string   `json:"email"`
	Phone      string   `json:"phone,omitempty"`
	Summary    string   `json:"summary,omitempty"`
	Skills     []string `json:"skills"`
	ResumeID   int      `json:"resume_id"`
	MatchScore *float64 `json:"match_score,omitempty"`
}
