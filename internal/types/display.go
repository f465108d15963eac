package types

import (
	"strconv"
	"strings"
)

// DefaultCurrency 后端未指定薪资货币时的默认值
const DefaultCurrency = "RUB"

// SalaryUnspecified 薪资完全未填写时的展示文案
const SalaryUnspecified = "не указана"

// 界面展示文案（产品面向俄语市场）
var workFormatDisplay = map[WorkFormat]string{
	WorkFormatRemote: "Удаленно",
	WorkFormatHybrid: "Гибрид",
	WorkFormatOffice: "В офисе",
}

var employmentTypeDisplay = map[EmploymentType]string{
	EmploymentFullTime:   "Полная занятость",
	EmploymentPartTime:   "Частичная занятость",
	EmploymentInternship: "Стажировка",
}

var applicationStatusDisplay = map[ApplicationStatus]string{
	StatusSubmitted:          "Подана",
	StatusViewed:             "Просмотрена",
	StatusUnderReview:        "На рассмотрении",
	StatusShortlisted:        "В шортлисте",
	StatusRejected:           "Отклонена",
	StatusInvitedToInterview: "Приглашен(а) на собеседование",
	StatusHired:              "Принят(а) на работу",
}

// Display 工作形式展示文案，未识别的取值回退为原始码
func (w WorkFormat) Display() string {
	if s, ok := workFormatDisplay[w]; ok {
		return s
	}
	return string(w)
}

// Display 雇佣类型展示文案，未识别的取值回退为原始码
func (e EmploymentType) Display() string {
	if s, ok := employmentTypeDisplay[e]; ok {
		return s
	}
	return string(e)
}

// Display 投递状态展示文案。未识别的状态码回退为原始码，空状态给出占位文案
func (s ApplicationStatus) Display() string {
	trimmed := strings.TrimSpace(string(s))
	if trimmed == "" {
		return "Статус не определен"
	}
	if display, ok := applicationStatusDisplay[ApplicationStatus(strings.ToLower(trimmed))]; ok {
		return display
	}
	return trimmed
}

// FormatSalary 按俄语惯例格式化薪资区间。
// 两端都未填写时返回 SalaryUnspecified；货币缺省为 RUB。
func FormatSalary(from, to *int, currency string) string {
	if from == nil && to == nil {
		return SalaryUnspecified
	}

	var b strings.Builder
	if from != nil {
		b.WriteString("от ")
		b.WriteString(groupDigits(*from))
	}
	if to != nil {
		if from != nil {
			b.WriteString(" ")
		}
		b.WriteString("до ")
		b.WriteString(groupDigits(*to))
	}
	if currency == "" {
		currency = DefaultCurrency
	}
	b.WriteString(" ")
	b.WriteString(currency)
	return b.String()
}

// SalaryDisplay 职位薪资展示文案
func (v Vacancy) SalaryDisplay() string {
	return FormatSalary(v.SalaryFrom, v.SalaryTo, v.SalaryCurrency)
}

// FormatMatchScore 匹配分展示为整数百分比，未评分时返回空串
func FormatMatchScore(score *float64) string {
	if score == nil {
		return ""
	}
	return strconv.Itoa(int(*score+0.5)) + "%"
}

// MatchScoreDisplay 投递记录的匹配分文案
func (a Application) MatchScoreDisplay() string {
	return FormatMatchScore(a.MatchScore)
}

// MatchScoreDisplay 匹配候选人的匹配分文案
func (m MatchedCandidate) MatchScoreDisplay() string {
	return FormatMatchScore(m.MatchScore)
}

// RejectionReason 被拒投递的原因摘要，取自匹配详情；
// 非拒绝状态或无摘要时返回空串
func (a Application) RejectionReason() string {
	if !strings.EqualFold(strings.TrimSpace(string(a.Status)), string(StatusRejected)) {
		return ""
	}
	if a.MatchDetails == nil {
		return ""
	}
	reason, _ := a.MatchDetails["reason_summary"].(string)
	return reason
}

// groupDigits 按千位以空格分组，对应 ru-RU 的数字格式
func groupDigits(n int) string {
	s := strconv.Itoa(n)
	neg := strings.HasPrefix(s, "-")
	if neg {
		s = s[1:]
	}
	var parts []string
	for len(s) > 3 {
		parts = append([]string{s[len(s)-3:]}, parts...)
		s = s[:len(s)-3]
	}
	parts = append([]string{s}, parts...)
	out := strings.Join(parts, " ")
	if neg {
		return "-" + out
	}
	return out
}
