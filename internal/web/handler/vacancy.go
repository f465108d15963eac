package handler

import (
	"context"
	"strconv"
	"strings"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/protocol/consts"

	"nexitera-web/internal/constants"
	"nexitera-web/internal/gateway"
	"nexitera-web/internal/session"
	"nexitera-web/internal/types"
)

// VacancyHandler 职位相关页面：公开的列表/详情、候选人投递、
// 雇主侧的发布/编辑/删除/匹配候选人
type VacancyHandler struct {
	gw       *gateway.Client
	sessions *session.Manager
}

// NewVacancyHandler 创建职位页面处理器
func NewVacancyHandler(gw *gateway.Client, sessions *session.Manager) *VacancyHandler {
	return &VacancyHandler{gw: gw, sessions: sessions}
}

// List GET /vacancies
// 筛选参数透传给后端；后端错误以页内文案展示
func (h *VacancyHandler) List(c context.Context, ctx *app.RequestContext) {
	sess := SessionFrom(ctx)

	filter := types.VacancyFilter{
		Skip:           parseIntQuery(ctx, "skip", 0),
		Limit:          clampLimit(parseIntQuery(ctx, "limit", constants.DefaultPageLimit)),
		SearchQuery:    strings.TrimSpace(string(ctx.Query("search_query"))),
		WorkFormat:     string(ctx.Query("work_format")),
		EmploymentType: string(ctx.Query("employment_type")),
		MinSalaryFrom:  parseIntQuery(ctx, "min_salary_from", 0),
	}

	data := pageData{
		"Title":  "Вакансии",
		"Filter": filter,
	}

	vacancies, err := h.gw.ListVacancies(c, filter)
	if err != nil {
		data["Error"] = gateway.UserMessage(err, "Не удалось загрузить вакансии.")
		renderPage(ctx, consts.StatusOK, "vacancies.tmpl", sess, data)
		return
	}
	data["Vacancies"] = vacancies
	// 满页才可能有下一页；短页说明已到末尾
	data["HasNext"] = len(vacancies) == filter.Limit
	data["NextSkip"] = filter.Skip + filter.Limit
	if filter.Skip > 0 {
		prev := filter.Skip - filter.Limit
		if prev < 0 {
			prev = 0
		}
		data["HasPrev"] = true
		data["PrevSkip"] = prev
	}
	renderPage(ctx, consts.StatusOK, "vacancies.tmpl", sess, data)
}

// Detail GET /vacancies/:id
func (h *VacancyHandler) Detail(c context.Context, ctx *app.RequestContext) {
	sess := SessionFrom(ctx)
	id, ok := vacancyID(ctx)
	if !ok {
		redirectTo(ctx, "/vacancies")
		return
	}
	h.renderDetail(c, ctx, sess, id, pageData{})
}

// renderDetail 渲染详情页；extra里携带投递结果等页内状态
func (h *VacancyHandler) renderDetail(c context.Context, ctx *app.RequestContext, sess session.Session, id int, extra pageData) {
	data := extra
	data["Title"] = "Вакансия"
	data["CanApply"] = sess.Role() == types.RoleCandidate
	data["VacancyID"] = id

	vacancy, err := h.gw.GetVacancy(c, id)
	if err != nil {
		if gateway.IsNotFound(err) {
			data["NotFound"] = true
		} else {
			data["Error"] = gateway.UserMessage(err, "Не удалось загрузить детали вакансии.")
		}
		renderPage(ctx, consts.StatusOK, "vacancy_detail.tmpl", sess, data)
		return
	}
	data["Vacancy"] = vacancy
	data["Title"] = vacancy.Title
	renderPage(ctx, consts.StatusOK, "vacancy_detail.tmpl", sess, data)
}

// Apply POST /vacancies/:id/apply （守卫: candidate）
// 上传简历拿到解析后的简历ID，再提交 vacancy+resume 投递。
// 成功与失败都以详情页内文案呈现。
func (h *VacancyHandler) Apply(c context.Context, ctx *app.RequestContext) {
	sess := SessionFrom(ctx)
	id, ok := vacancyID(ctx)
	if !ok {
		redirectTo(ctx, "/vacancies")
		return
	}

	fileHeader, err := ctx.FormFile("resume")
	if err != nil {
		h.renderDetail(c, ctx, sess, id, pageData{"ApplyError": "Пожалуйста, выберите PDF файл вашего резюме."})
		return
	}
	if fileHeader.Size > constants.MaxResumeUploadBytes {
		h.renderDetail(c, ctx, sess, id, pageData{"ApplyError": "Файл слишком большой (максимум 10 МБ)."})
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		h.renderDetail(c, ctx, sess, id, pageData{"ApplyError": "Не удалось прочитать файл."})
		return
	}
	defer file.Close()

	resume, err := h.gw.UploadResume(c, sess.Token, fileHeader.Filename, file)
	if err != nil {
		h.applyFailed(c, ctx, sess, id, err)
		return
	}

	if _, err := h.gw.CreateApplication(c, sess.Token, id, resume.ID); err != nil {
		h.applyFailed(c, ctx, sess, id, err)
		return
	}

	h.renderDetail(c, ctx, sess, id, pageData{"ApplySuccess": "Вы успешно откликнулись на вакансию!"})
}

// applyFailed 投递失败：401走静默降级，其余展示页内错误
func (h *VacancyHandler) applyFailed(c context.Context, ctx *app.RequestContext, sess session.Session, id int, err error) {
	if gateway.IsUnauthorized(err) {
		setSession(ctx, h.sessions.Downgrade(c, sess.SID))
		redirectTo(ctx, "/login?redirect=/vacancies/"+strconv.Itoa(id))
		return
	}
	h.renderDetail(c, ctx, sess, id, pageData{
		"ApplyError": gateway.UserMessage(err, "Ошибка при отклике. Попробуйте снова."),
	})
}

// Mine GET /my-posted-vacancies （守卫: employer）
func (h *VacancyHandler) Mine(c context.Context, ctx *app.RequestContext) {
	sess := SessionFrom(ctx)
	data := pageData{"Title": "Мои вакансии"}

	vacancies, err := h.gw.MyVacancies(c, sess.Token, 0, constants.MaxPageLimit)
	if err != nil {
		if gateway.IsUnauthorized(err) {
			setSession(ctx, h.sessions.Downgrade(c, sess.SID))
			redirectTo(ctx, "/login")
			return
		}
		data["Error"] = gateway.UserMessage(err, "Не удалось загрузить ваши вакансии.")
		renderPage(ctx, consts.StatusOK, "my_vacancies.tmpl", sess, data)
		return
	}
	data["Vacancies"] = vacancies
	renderPage(ctx, consts.StatusOK, "my_vacancies.tmpl", sess, data)
}

// ShowForm GET /create-vacancy 和 GET /create-vacancy/:id （守卫: employer）
// 无id为新建，有id为编辑（预填现有数据）
func (h *VacancyHandler) ShowForm(c context.Context, ctx *app.RequestContext) {
	sess := SessionFrom(ctx)
	data := pageData{"Title": "Новая вакансия"}

	if idStr := ctx.Param("id"); idStr != "" {
		id, err := strconv.Atoi(idStr)
		if err != nil {
			redirectTo(ctx, "/my-posted-vacancies")
			return
		}
		vacancy, err := h.gw.GetVacancy(c, id)
		if err != nil {
			if gateway.IsNotFound(err) {
				data["NotFound"] = true
				renderPage(ctx, consts.StatusOK, "vacancy_form.tmpl", sess, data)
				return
			}
			data["Error"] = gateway.UserMessage(err, "Не удалось загрузить вакансию.")
			renderPage(ctx, consts.StatusOK, "vacancy_form.tmpl", sess, data)
			return
		}
		data["Title"] = "Редактирование вакансии"
		data["Editing"] = true
		data["VacancyID"] = id
		fillFormData(data, vacancyToForm(vacancy))
	}
	renderPage(ctx, consts.StatusOK, "vacancy_form.tmpl", sess, data)
}

// Save POST /create-vacancy 和 POST /create-vacancy/:id （守卫: employer）
func (h *VacancyHandler) Save(c context.Context, ctx *app.RequestContext) {
	sess := SessionFrom(ctx)
	form := readVacancyForm(ctx)

	editing := false
	id := 0
	if idStr := ctx.Param("id"); idStr != "" {
		parsed, err := strconv.Atoi(idStr)
		if err != nil {
			redirectTo(ctx, "/my-posted-vacancies")
			return
		}
		editing, id = true, parsed
	}

	renderError := func(msg string) {
		data := pageData{"Title": "Новая вакансия", "Error": msg}
		if editing {
			data["Title"] = "Редактирование вакансии"
			data["Editing"] = true
			data["VacancyID"] = id
		}
		fillFormData(data, form)
		renderPage(ctx, consts.StatusOK, "vacancy_form.tmpl", sess, data)
	}

	if strings.TrimSpace(form.Title) == "" {
		renderError("Укажите название вакансии.")
		return
	}

	input := form.toInput()
	var err error
	if editing {
		_, err = h.gw.UpdateVacancy(c, sess.Token, id, input)
	} else {
		_, err = h.gw.CreateVacancy(c, sess.Token, input)
	}
	if err != nil {
		if gateway.IsUnauthorized(err) {
			setSession(ctx, h.sessions.Downgrade(c, sess.SID))
			redirectTo(ctx, "/login")
			return
		}
		renderError(gateway.UserMessage(err, "Не удалось сохранить вакансию."))
		return
	}
	redirectTo(ctx, "/my-posted-vacancies")
}

// ConfirmDelete GET /vacancies/:id/delete （守卫: employer）
// 破坏性操作前的显式确认页，确认之前不发出删除请求
func (h *VacancyHandler) ConfirmDelete(c context.Context, ctx *app.RequestContext) {
	sess := SessionFrom(ctx)
	id, ok := vacancyID(ctx)
	if !ok {
		redirectTo(ctx, "/my-posted-vacancies")
		return
	}

	data := pageData{"Title": "Удаление вакансии", "VacancyID": id}
	vacancy, err := h.gw.GetVacancy(c, id)
	if err != nil {
		if gateway.IsNotFound(err) {
			data["NotFound"] = true
		} else {
			data["Error"] = gateway.UserMessage(err, "Не удалось загрузить вакансию.")
		}
		renderPage(ctx, consts.StatusOK, "vacancy_delete.tmpl", sess, data)
		return
	}
	data["Vacancy"] = vacancy
	renderPage(ctx, consts.StatusOK, "vacancy_delete.tmpl", sess, data)
}

// Delete POST /vacancies/:id/delete （守卫: employer）
func (h *VacancyHandler) Delete(c context.Context, ctx *app.RequestContext) {
	sess := SessionFrom(ctx)
	id, ok := vacancyID(ctx)
	if !ok {
		redirectTo(ctx, "/my-posted-vacancies")
		return
	}

	if err := h.gw.DeleteVacancy(c, sess.Token, id); err != nil {
		if gateway.IsUnauthorized(err) {
			setSession(ctx, h.sessions.Downgrade(c, sess.SID))
			redirectTo(ctx, "/login")
			return
		}
		data := pageData{
			"Title":     "Удаление вакансии",
			"VacancyID": id,
			"Error":     gateway.UserMessage(err, "Не удалось удалить вакансию."),
		}
		renderPage(ctx, consts.StatusOK, "vacancy_delete.tmpl", sess, data)
		return
	}
	redirectTo(ctx, "/my-posted-vacancies")
}

// MatchedCandidates GET /vacancies/:id/matched-candidates （守卫: employer）
func (h *VacancyHandler) MatchedCandidates(c context.Context, ctx *app.RequestContext) {
	sess := SessionFrom(ctx)
	id, ok := vacancyID(ctx)
	if !ok {
		redirectTo(ctx, "/my-posted-vacancies")
		return
	}

	data := pageData{"Title": "Подходящие кандидаты", "VacancyID": id}
	candidates, err := h.gw.MatchedCandidates(c, sess.Token, id)
	if err != nil {
		if gateway.IsUnauthorized(err) {
			setSession(ctx, h.sessions.Downgrade(c, sess.SID))
			redirectTo(ctx, "/login")
			return
		}
		if gateway.IsNotFound(err) {
			data["NotFound"] = true
		} else {
			data["Error"] = gateway.UserMessage(err, "Не удалось загрузить кандидатов.")
		}
		renderPage(ctx, consts.StatusOK, "matched_candidates.tmpl", sess, data)
		return
	}
	data["Candidates"] = candidates
	renderPage(ctx, consts.StatusOK, "matched_candidates.tmpl", sess, data)
}

// --- 表单解析辅助 ---

// vacancyForm 发布/编辑表单的原始字段
type vacancyForm struct {
	Title              string
	Description        string
	ExperienceRequired string
	SkillsRequired     string
	SkillsPreferred    string
	NiceToHaveSkills   string
	SalaryFrom         string
	SalaryTo           string
	SalaryCurrency     string
	WorkFormat         string
	EmploymentType     string
}

func readVacancyForm(ctx *app.RequestContext) vacancyForm {
	return vacancyForm{
		Title:              strings.TrimSpace(string(ctx.PostForm("title"))),
		Description:        strings.TrimSpace(string(ctx.PostForm("description"))),
		ExperienceRequired: strings.TrimSpace(string(ctx.PostForm("experience_required"))),
		SkillsRequired:     string(ctx.PostForm("skills_required")),
		SkillsPreferred:    string(ctx.PostForm("skills_preferred")),
		NiceToHaveSkills:   string(ctx.PostForm("nice_to_have_skills")),
		SalaryFrom:         strings.TrimSpace(string(ctx.PostForm("salary_from"))),
		SalaryTo:           strings.TrimSpace(string(ctx.PostForm("salary_to"))),
		SalaryCurrency:     strings.TrimSpace(string(ctx.PostForm("salary_currency"))),
		WorkFormat:         string(ctx.PostForm("work_format")),
		EmploymentType:     string(ctx.PostForm("employment_type")),
	}
}

// toInput 表单到后端载荷的转换
func (f vacancyForm) toInput() types.VacancyInput {
	input := types.VacancyInput{
		Title:              f.Title,
		Description:        f.Description,
		ExperienceRequired: f.ExperienceRequired,
		NiceToHaveSkills:   splitSkills(f.NiceToHaveSkills),
		SalaryCurrency:     f.SalaryCurrency,
		WorkFormat:         types.WorkFormat(f.WorkFormat),
		EmploymentType:     types.EmploymentType(f.EmploymentType),
		SalaryFrom:         atoiPtr(f.SalaryFrom),
		SalaryTo:           atoiPtr(f.SalaryTo),
	}
	required := splitSkills(f.SkillsRequired)
	preferred := splitSkills(f.SkillsPreferred)
	if len(required) > 0 || len(preferred) > 0 {
		input.PrimarySkills = &types.PrimarySkills{Required: required, Preferred: preferred}
	}
	return input
}

// vacancyToForm 编辑时用现有职位预填表单
func vacancyToForm(v *types.Vacancy) vacancyForm {
	form := vacancyForm{
		Title:              v.Title,
		Description:        v.Description,
		ExperienceRequired: v.ExperienceRequired,
		NiceToHaveSkills:   strings.Join(v.NiceToHaveSkills, ", "),
		SalaryCurrency:     v.SalaryCurrency,
		WorkFormat:         string(v.WorkFormat),
		EmploymentType:     string(v.EmploymentType),
	}
	if v.PrimarySkills != nil {
		form.SkillsRequired = strings.Join(v.PrimarySkills.Required, ", ")
		form.SkillsPreferred = strings.Join(v.PrimarySkills.Preferred, ", ")
	}
	if v.SalaryFrom != nil {
		form.SalaryFrom = strconv.Itoa(*v.SalaryFrom)
	}
	if v.SalaryTo != nil {
		form.SalaryTo = strconv.Itoa(*v.SalaryTo)
	}
	return form
}

func fillFormData(data pageData, form vacancyForm) {
	data["Form"] = form
}

// splitSkills 逗号分隔的技能列表，去掉空项
func splitSkills(raw string) []string {
	parts := strings.Split(raw, ",")
	skills := make([]string, 0, len(parts))
	for _, p := range parts {
		if s := strings.TrimSpace(p); s != "" {
			skills = append(skills, s)
		}
	}
	if len(skills) == 0 {
		return nil
	}
	return skills
}

func atoiPtr(s string) *int {
	if s == "" {
		return nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return nil
	}
	return &n
}

func vacancyID(ctx *app.RequestContext) (int, bool) {
	id, err := strconv.Atoi(ctx.Param("id"))
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

func parseIntQuery(ctx *app.RequestContext, name string, fallback int) int {
	raw := string(ctx.Query(name))
	if raw == "" {
		return fallback
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return fallback
	}
	return n
}

func clampLimit(limit int) int {
	if limit <= 0 {
		return constants.DefaultPageLimit
	}
	if limit > constants.MaxPageLimit {
		return constants.MaxPageLimit
	}
	return limit
}
