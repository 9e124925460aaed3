package payrollhandler

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/jung-kurt/gofpdf"
	"github.com/shopspring/decimal"

	"academy/internal/domain/audit"
	"academy/internal/domain/auth"
	"academy/internal/domain/salary"
	"academy/internal/domain/staff"
	"academy/internal/transport/http/api"
	"academy/internal/transport/http/middleware"
	"academy/internal/transport/http/shared"
)

type Handler struct {
	Salaries  *salary.Service
	Staff     *staff.Store
	Audit     *audit.Service
	Perms     middleware.PermissionStore
	ExportDir string
}

func NewHandler(salaries *salary.Service, staffStore *staff.Store, auditSvc *audit.Service, perms middleware.PermissionStore, exportDir string) *Handler {
	return &Handler{Salaries: salaries, Staff: staffStore, Audit: auditSvc, Perms: perms, ExportDir: exportDir}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/payroll", func(r chi.Router) {
		r.With(middleware.RequirePermission(auth.PermRatesRead, h.Perms)).Get("/rates", h.handleListRates)
		r.With(middleware.RequirePermission(auth.PermRatesRead, h.Perms)).Get("/rates/{teacherID}", h.handleGetRate)
		r.With(middleware.RequirePermission(auth.PermRatesWrite, h.Perms)).Put("/rates/{teacherID}", h.handleUpdateRate)
		r.With(middleware.RequirePermission(auth.PermScheduleRead, h.Perms)).Get("/hours/{teacherID}", h.handleResolveHours)

		r.With(middleware.RequirePermission(auth.PermSalaryRead, h.Perms)).Get("/salaries", h.handleListSalaries)
		r.With(middleware.RequirePermission(auth.PermSalaryWrite, h.Perms)).Post("/salaries", h.handleCreateSalary)
		r.With(middleware.RequirePermission(auth.PermSalaryWrite, h.Perms)).Post("/salaries/recalculate", h.handleRecalculateAll)
		r.With(middleware.RequirePermission(auth.PermSalaryRead, h.Perms)).Get("/salaries/export/register", h.handleExportRegister)
		r.With(middleware.RequirePermission(auth.PermSalaryRead, h.Perms)).Get("/salaries/{salaryID}", h.handleGetSalary)
		r.With(middleware.RequirePermission(auth.PermSalaryWrite, h.Perms)).Put("/salaries/{salaryID}/adjustments", h.handleEditAdjustments)
		r.With(middleware.RequirePermission(auth.PermSalaryWrite, h.Perms)).Post("/salaries/{salaryID}/recalculate", h.handleRecalculate)
		r.With(middleware.RequirePermission(auth.PermSalaryApprove, h.Perms)).Post("/salaries/{salaryID}/approve", h.handleApprove)
		r.With(middleware.RequirePermission(auth.PermSalaryPay, h.Perms)).Post("/salaries/{salaryID}/pay", h.handleMarkPaid)
		r.With(middleware.RequirePermission(auth.PermSalaryApprove, h.Perms)).Post("/salaries/{salaryID}/reject", h.handleReject)
		r.With(middleware.RequirePermission(auth.PermSalaryRead, h.Perms)).Get("/salaries/{salaryID}/slip", h.handleSalarySlip)
	})
}

// failSalaryError maps domain errors onto HTTP statuses.
func failSalaryError(w http.ResponseWriter, err error, requestID string) {
	switch {
	case errors.Is(err, salary.ErrNotFound):
		api.Fail(w, http.StatusNotFound, "not_found", "salary record not found", requestID)
	case errors.Is(err, salary.ErrValidation):
		api.Fail(w, http.StatusBadRequest, "validation_error", err.Error(), requestID)
	case errors.Is(err, salary.ErrInvalidTransition):
		api.Fail(w, http.StatusConflict, "invalid_transition", err.Error(), requestID)
	case errors.Is(err, salary.ErrVersionConflict):
		api.Fail(w, http.StatusConflict, "version_conflict", "record was modified concurrently, retry", requestID)
	case errors.Is(err, salary.ErrRateNotConfigured):
		api.Fail(w, http.StatusBadRequest, "rate_not_configured", err.Error(), requestID)
	case errors.Is(err, salary.ErrNoScheduleData):
		api.Fail(w, http.StatusBadRequest, "no_schedule_data", err.Error(), requestID)
	default:
		api.Fail(w, http.StatusInternalServerError, "payroll_error", "payroll operation failed", requestID)
	}
}

func (h *Handler) handleListRates(w http.ResponseWriter, r *http.Request) {
	rates, err := h.Salaries.ListRates(r.Context())
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "rates_list_failed", "failed to list rates", middleware.GetRequestID(r.Context()))
		return
	}
	if rates == nil {
		rates = []salary.Rate{}
	}
	api.Success(w, rates, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleGetRate(w http.ResponseWriter, r *http.Request) {
	rate, err := h.Salaries.ResolveRate(r.Context(), chi.URLParam(r, "teacherID"))
	if errors.Is(err, salary.ErrRateNotConfigured) {
		api.Fail(w, http.StatusNotFound, "rate_not_configured", "no rate configured for teacher", middleware.GetRequestID(r.Context()))
		return
	}
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "rate_get_failed", "failed to load rate", middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, map[string]any{
		"rate":      rate,
		"totalRate": rate.TotalRate(),
	}, middleware.GetRequestID(r.Context()))
}

type ratePayload struct {
	BaseRate decimal.Decimal     `json:"baseRate"`
	Factors  []salary.RateFactor `json:"factors"`
}

func (h *Handler) handleUpdateRate(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	teacherID := chi.URLParam(r, "teacherID")

	var payload ratePayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", middleware.GetRequestID(r.Context()))
		return
	}

	rate, err := h.Salaries.UpdateRate(r.Context(), teacherID, payload.BaseRate, payload.Factors)
	if err != nil {
		failSalaryError(w, err, middleware.GetRequestID(r.Context()))
		return
	}
	if err := h.Audit.Record(r.Context(), user.UserID, "payroll.rate.update", "salary_rate", teacherID, middleware.GetRequestID(r.Context()), shared.ClientIP(r), nil, rate); err != nil {
		log.Printf("audit payroll.rate.update failed: %v", err)
	}
	api.Success(w, map[string]any{
		"rate":      rate,
		"totalRate": rate.TotalRate(),
	}, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleResolveHours(w http.ResponseWriter, r *http.Request) {
	month, year, err := shared.ParsePeriod(r, time.Now())
	if err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", err.Error(), middleware.GetRequestID(r.Context()))
		return
	}

	hours, err := h.Salaries.ResolveHours(r.Context(), chi.URLParam(r, "teacherID"), month, year)
	if err != nil {
		failSalaryError(w, err, middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, map[string]any{
		"hours":       hours,
		"totalUsable": hours.TotalUsableHours(),
	}, middleware.GetRequestID(r.Context()))
}

type createSalaryPayload struct {
	TeacherID   string              `json:"teacherId"`
	Month       int                 `json:"month"`
	Year        int                 `json:"year"`
	ManualRate  *decimal.Decimal    `json:"manualRate,omitempty"`
	ManualHours *decimal.Decimal    `json:"manualHours,omitempty"`
	Allowances  []salary.Adjustment `json:"allowances"`
	Bonuses     []salary.Adjustment `json:"bonuses"`
	Deductions  []salary.Adjustment `json:"deductions"`
}

func (h *Handler) handleCreateSalary(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())

	var payload createSalaryPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", middleware.GetRequestID(r.Context()))
		return
	}

	record, err := h.Salaries.Create(r.Context(), salary.CreateInput{
		TeacherID:   payload.TeacherID,
		Month:       payload.Month,
		Year:        payload.Year,
		ManualRate:  payload.ManualRate,
		ManualHours: payload.ManualHours,
		Allowances:  payload.Allowances,
		Bonuses:     payload.Bonuses,
		Deductions:  payload.Deductions,
	})
	if err != nil {
		failSalaryError(w, err, middleware.GetRequestID(r.Context()))
		return
	}
	if err := h.Audit.Record(r.Context(), user.UserID, "payroll.salary.create", "salary_record", record.ID, middleware.GetRequestID(r.Context()), shared.ClientIP(r), nil, record); err != nil {
		log.Printf("audit payroll.salary.create failed: %v", err)
	}
	api.Created(w, record, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleListSalaries(w http.ResponseWriter, r *http.Request) {
	month, year, err := shared.ParsePeriod(r, time.Now())
	if err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", err.Error(), middleware.GetRequestID(r.Context()))
		return
	}

	records, err := h.Salaries.List(r.Context(), month, year)
	if err != nil {
		failSalaryError(w, err, middleware.GetRequestID(r.Context()))
		return
	}
	if records == nil {
		records = []salary.Record{}
	}
	api.Success(w, records, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleGetSalary(w http.ResponseWriter, r *http.Request) {
	record, err := h.Salaries.Get(r.Context(), chi.URLParam(r, "salaryID"))
	if err != nil {
		failSalaryError(w, err, middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, record, middleware.GetRequestID(r.Context()))
}

type adjustmentsPayload struct {
	Allowances []salary.Adjustment `json:"allowances"`
	Bonuses    []salary.Adjustment `json:"bonuses"`
	Deductions []salary.Adjustment `json:"deductions"`
}

func (h *Handler) handleEditAdjustments(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	salaryID := chi.URLParam(r, "salaryID")

	var payload adjustmentsPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", middleware.GetRequestID(r.Context()))
		return
	}

	record, err := h.Salaries.EditAdjustments(r.Context(), salaryID, payload.Allowances, payload.Bonuses, payload.Deductions)
	if err != nil {
		failSalaryError(w, err, middleware.GetRequestID(r.Context()))
		return
	}
	if err := h.Audit.Record(r.Context(), user.UserID, "payroll.salary.adjust", "salary_record", salaryID, middleware.GetRequestID(r.Context()), shared.ClientIP(r), nil, payload); err != nil {
		log.Printf("audit payroll.salary.adjust failed: %v", err)
	}
	api.Success(w, record, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleRecalculate(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	salaryID := chi.URLParam(r, "salaryID")

	record, err := h.Salaries.Recalculate(r.Context(), salaryID)
	if err != nil {
		failSalaryError(w, err, middleware.GetRequestID(r.Context()))
		return
	}
	if err := h.Audit.Record(r.Context(), user.UserID, "payroll.salary.recalculate", "salary_record", salaryID, middleware.GetRequestID(r.Context()), shared.ClientIP(r), nil, nil); err != nil {
		log.Printf("audit payroll.salary.recalculate failed: %v", err)
	}
	api.Success(w, record, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleRecalculateAll(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	month, year, err := shared.ParsePeriod(r, time.Now())
	if err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", err.Error(), middleware.GetRequestID(r.Context()))
		return
	}

	result, err := h.Salaries.RecalculateAll(r.Context(), month, year)
	if err != nil {
		failSalaryError(w, err, middleware.GetRequestID(r.Context()))
		return
	}
	if err := h.Audit.Record(r.Context(), user.UserID, "payroll.salary.recalculate_all", "salary_batch", fmt.Sprintf("%04d-%02d", year, month), middleware.GetRequestID(r.Context()), shared.ClientIP(r), nil, result); err != nil {
		log.Printf("audit payroll.salary.recalculate_all failed: %v", err)
	}
	api.Success(w, result, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleApprove(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	salaryID := chi.URLParam(r, "salaryID")

	record, err := h.Salaries.Approve(r.Context(), salaryID, user.UserID)
	if err != nil {
		failSalaryError(w, err, middleware.GetRequestID(r.Context()))
		return
	}
	if err := h.Audit.Record(r.Context(), user.UserID, "payroll.salary.approve", "salary_record", salaryID, middleware.GetRequestID(r.Context()), shared.ClientIP(r), nil, nil); err != nil {
		log.Printf("audit payroll.salary.approve failed: %v", err)
	}
	api.Success(w, record, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleMarkPaid(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	salaryID := chi.URLParam(r, "salaryID")

	record, err := h.Salaries.MarkPaid(r.Context(), salaryID)
	if err != nil {
		failSalaryError(w, err, middleware.GetRequestID(r.Context()))
		return
	}
	if err := h.Audit.Record(r.Context(), user.UserID, "payroll.salary.pay", "salary_record", salaryID, middleware.GetRequestID(r.Context()), shared.ClientIP(r), nil, nil); err != nil {
		log.Printf("audit payroll.salary.pay failed: %v", err)
	}
	api.Success(w, record, middleware.GetRequestID(r.Context()))
}

type rejectPayload struct {
	Reason string `json:"reason"`
}

func (h *Handler) handleReject(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	salaryID := chi.URLParam(r, "salaryID")

	var payload rejectPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", middleware.GetRequestID(r.Context()))
		return
	}

	record, err := h.Salaries.Reject(r.Context(), salaryID, payload.Reason)
	if err != nil {
		failSalaryError(w, err, middleware.GetRequestID(r.Context()))
		return
	}
	if err := h.Audit.Record(r.Context(), user.UserID, "payroll.salary.reject", "salary_record", salaryID, middleware.GetRequestID(r.Context()), shared.ClientIP(r), nil, payload); err != nil {
		log.Printf("audit payroll.salary.reject failed: %v", err)
	}
	api.Success(w, record, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleExportRegister(w http.ResponseWriter, r *http.Request) {
	month, year, err := shared.ParsePeriod(r, time.Now())
	if err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", err.Error(), middleware.GetRequestID(r.Context()))
		return
	}

	records, err := h.Salaries.List(r.Context(), month, year)
	if err != nil {
		failSalaryError(w, err, middleware.GetRequestID(r.Context()))
		return
	}

	names := map[string]string{}
	teachers, err := h.Staff.List(r.Context(), true)
	if err != nil {
		log.Printf("export register teacher lookup failed: %v", err)
	}
	for _, t := range teachers {
		names[t.ID] = t.LastName + " " + t.FirstName
	}

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=salary-register-%04d-%02d.csv", year, month))
	writer := csv.NewWriter(w)
	if err := writer.Write([]string{"teacher_id", "teacher", "status", "base_salary", "allowances", "bonuses", "deductions", "gross", "net"}); err != nil {
		log.Printf("export register header write failed: %v", err)
	}
	for _, rec := range records {
		row := []string{
			rec.TeacherID,
			names[rec.TeacherID],
			string(rec.Status),
			rec.BaseSalary.StringFixed(2),
			rec.TotalAllowances.StringFixed(2),
			rec.TotalBonuses.StringFixed(2),
			rec.TotalDeductions.StringFixed(2),
			rec.TotalGross.StringFixed(2),
			rec.TotalNet.StringFixed(2),
		}
		if err := writer.Write(row); err != nil {
			log.Printf("export register row write failed: %v", err)
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		log.Printf("export register flush failed: %v", err)
	}
}

func (h *Handler) handleSalarySlip(w http.ResponseWriter, r *http.Request) {
	record, err := h.Salaries.Get(r.Context(), chi.URLParam(r, "salaryID"))
	if err != nil {
		failSalaryError(w, err, middleware.GetRequestID(r.Context()))
		return
	}

	teacherName := record.TeacherID
	if teacher, err := h.Staff.Get(r.Context(), record.TeacherID); err == nil {
		teacherName = teacher.FirstName + " " + teacher.LastName
	}

	filePath, err := h.generateSlipPDF(record, teacherName)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "slip_generate_failed", "failed to generate salary slip", middleware.GetRequestID(r.Context()))
		return
	}
	http.ServeFile(w, r, filePath)
}

func (h *Handler) generateSlipPDF(record salary.Record, teacherName string) (string, error) {
	dir := h.ExportDir
	if dir == "" {
		dir = "storage/slips"
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	filePath := filepath.Join(dir, record.ID+".pdf")

	period := fmt.Sprintf("%s %d", time.Month(record.Month), record.Year)

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.AddPage()
	pdf.SetFont("Helvetica", "B", 16)
	pdf.Cell(40, 10, "Salary Slip")
	pdf.Ln(12)
	pdf.SetFont("Helvetica", "", 12)
	pdf.Cell(0, 8, fmt.Sprintf("Teacher: %s", teacherName))
	pdf.Ln(7)
	pdf.Cell(0, 8, fmt.Sprintf("Period: %s", period))
	pdf.Ln(7)
	pdf.Cell(0, 8, fmt.Sprintf("Status: %s", record.Status))
	pdf.Ln(10)
	pdf.Cell(0, 8, fmt.Sprintf("Hourly rate: %s", record.HourlyRate.StringFixed(2)))
	pdf.Ln(7)
	pdf.Cell(0, 8, fmt.Sprintf("Hours worked: %s", record.HoursWorked.StringFixed(2)))
	pdf.Ln(7)
	pdf.Cell(0, 8, fmt.Sprintf("Base salary: %s", record.BaseSalary.StringFixed(2)))
	pdf.Ln(7)
	pdf.Cell(0, 8, fmt.Sprintf("Allowances: %s", record.TotalAllowances.StringFixed(2)))
	pdf.Ln(7)
	pdf.Cell(0, 8, fmt.Sprintf("Bonuses: %s", record.TotalBonuses.StringFixed(2)))
	pdf.Ln(7)
	pdf.Cell(0, 8, fmt.Sprintf("Deductions: %s", record.TotalDeductions.StringFixed(2)))
	pdf.Ln(7)
	pdf.Cell(0, 8, fmt.Sprintf("Gross: %s", record.TotalGross.StringFixed(2)))
	pdf.Ln(7)
	pdf.SetFont("Helvetica", "B", 12)
	pdf.Cell(0, 8, fmt.Sprintf("Net: %s", record.TotalNet.StringFixed(2)))

	if err := pdf.OutputFileAndClose(filePath); err != nil {
		return "", err
	}
	return filePath, nil
}
