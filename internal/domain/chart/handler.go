package chart

import (
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/patki1992-cpu/ikigai-wellness-emr/internal/platform/auth"
	"github.com/patki1992-cpu/ikigai-wellness-emr/pkg/pagination"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// RegisterRoutes wires the chart endpoints. provider is the provider-guarded
// /api group; self is the patient-guarded /api/patient group whose handlers
// list exclusively by the guard-injected patient id.
func (h *Handler) RegisterRoutes(provider, self *echo.Group) {
	provider.GET("/medical-records", h.ListRecords)
	provider.POST("/medical-records", h.CreateRecord)
	provider.GET("/medical-records/:id", h.GetRecord)
	provider.PUT("/medical-records/:id", h.UpdateRecord)
	provider.DELETE("/medical-records/:id", h.DeleteRecord)

	provider.GET("/lab-results", h.ListLabs)
	provider.POST("/lab-results", h.CreateLab)
	provider.GET("/lab-results/:id", h.GetLab)
	provider.PUT("/lab-results/:id", h.UpdateLab)
	provider.DELETE("/lab-results/:id", h.DeleteLab)

	provider.GET("/medications", h.ListMedications)
	provider.POST("/medications", h.CreateMedication)
	provider.GET("/medications/:id", h.GetMedication)
	provider.PUT("/medications/:id", h.UpdateMedication)
	provider.DELETE("/medications/:id", h.DeleteMedication)

	provider.GET("/care-reminders", h.ListReminders)
	provider.POST("/care-reminders", h.CreateReminder)
	provider.PUT("/care-reminders/:id", h.UpdateReminder)
	provider.DELETE("/care-reminders/:id", h.DeleteReminder)

	provider.GET("/diet-plans", h.ListDietPlans)
	provider.POST("/diet-plans", h.CreateDietPlan)
	provider.PUT("/diet-plans/:id", h.UpdateDietPlan)
	provider.DELETE("/diet-plans/:id", h.DeleteDietPlan)

	self.GET("/medical-records", h.SelfRecords)
	self.GET("/lab-results", h.SelfLabs)
	self.GET("/medications", h.SelfMedications)
	self.GET("/care-reminders", h.SelfReminders)
	self.GET("/diet-plans", h.SelfDietPlans)
}

func patientIDParam(c echo.Context) (uuid.UUID, error) {
	id, err := uuid.Parse(c.QueryParam("patient_id"))
	if err != nil {
		return uuid.Nil, echo.NewHTTPError(http.StatusBadRequest, "patient_id query parameter is required")
	}
	return id, nil
}

func idParam(c echo.Context) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return uuid.Nil, echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	return id, nil
}

func guardPatientID(c echo.Context) (uuid.UUID, error) {
	pid, ok := auth.PatientID(c)
	if !ok {
		return uuid.Nil, echo.NewHTTPError(http.StatusUnauthorized, "authentication required")
	}
	return pid, nil
}

func mapServiceErr(err error) error {
	if errors.Is(err, ErrNotFound) {
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	}
	return echo.NewHTTPError(http.StatusBadRequest, err.Error())
}

// -- Medical records --

func (h *Handler) CreateRecord(c echo.Context) error {
	var r MedicalRecord
	if err := c.Bind(&r); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if u := auth.CurrentUser(c); u != nil {
		author := u.ID
		r.AuthorID = &author
	}
	if err := h.svc.CreateRecord(c.Request().Context(), &r); err != nil {
		return mapServiceErr(err)
	}
	return c.JSON(http.StatusCreated, r)
}

func (h *Handler) GetRecord(c echo.Context) error {
	id, err := idParam(c)
	if err != nil {
		return err
	}
	r, err := h.svc.GetRecord(c.Request().Context(), id)
	if err != nil {
		return mapServiceErr(err)
	}
	return c.JSON(http.StatusOK, r)
}

func (h *Handler) ListRecords(c echo.Context) error {
	pid, err := patientIDParam(c)
	if err != nil {
		return err
	}
	return h.listRecords(c, pid)
}

func (h *Handler) SelfRecords(c echo.Context) error {
	pid, err := guardPatientID(c)
	if err != nil {
		return err
	}
	return h.listRecords(c, pid)
}

func (h *Handler) listRecords(c echo.Context, pid uuid.UUID) error {
	pg := pagination.FromContext(c)
	items, total, err := h.svc.ListRecords(c.Request().Context(), pid, pg.Limit, pg.Offset)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, pg.Limit, pg.Offset))
}

func (h *Handler) UpdateRecord(c echo.Context) error {
	id, err := idParam(c)
	if err != nil {
		return err
	}
	var r MedicalRecord
	if err := c.Bind(&r); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	r.ID = id
	if err := h.svc.UpdateRecord(c.Request().Context(), &r); err != nil {
		return mapServiceErr(err)
	}
	return c.JSON(http.StatusOK, r)
}

func (h *Handler) DeleteRecord(c echo.Context) error {
	id, err := idParam(c)
	if err != nil {
		return err
	}
	if err := h.svc.DeleteRecord(c.Request().Context(), id); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.NoContent(http.StatusNoContent)
}

// -- Lab results --

func (h *Handler) CreateLab(c echo.Context) error {
	var l LabResult
	if err := c.Bind(&l); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := h.svc.CreateLab(c.Request().Context(), &l); err != nil {
		return mapServiceErr(err)
	}
	return c.JSON(http.StatusCreated, l)
}

func (h *Handler) GetLab(c echo.Context) error {
	id, err := idParam(c)
	if err != nil {
		return err
	}
	l, err := h.svc.GetLab(c.Request().Context(), id)
	if err != nil {
		return mapServiceErr(err)
	}
	return c.JSON(http.StatusOK, l)
}

func (h *Handler) ListLabs(c echo.Context) error {
	pid, err := patientIDParam(c)
	if err != nil {
		return err
	}
	return h.listLabs(c, pid)
}

func (h *Handler) SelfLabs(c echo.Context) error {
	pid, err := guardPatientID(c)
	if err != nil {
		return err
	}
	return h.listLabs(c, pid)
}

func (h *Handler) listLabs(c echo.Context, pid uuid.UUID) error {
	pg := pagination.FromContext(c)
	items, total, err := h.svc.ListLabs(c.Request().Context(), pid, pg.Limit, pg.Offset)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, pg.Limit, pg.Offset))
}

func (h *Handler) UpdateLab(c echo.Context) error {
	id, err := idParam(c)
	if err != nil {
		return err
	}
	var l LabResult
	if err := c.Bind(&l); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	l.ID = id
	if err := h.svc.UpdateLab(c.Request().Context(), &l); err != nil {
		return mapServiceErr(err)
	}
	return c.JSON(http.StatusOK, l)
}

func (h *Handler) DeleteLab(c echo.Context) error {
	id, err := idParam(c)
	if err != nil {
		return err
	}
	if err := h.svc.DeleteLab(c.Request().Context(), id); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.NoContent(http.StatusNoContent)
}

// -- Medications --

func (h *Handler) CreateMedication(c echo.Context) error {
	var m Medication
	if err := c.Bind(&m); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := h.svc.CreateMedication(c.Request().Context(), &m); err != nil {
		return mapServiceErr(err)
	}
	return c.JSON(http.StatusCreated, m)
}

func (h *Handler) GetMedication(c echo.Context) error {
	id, err := idParam(c)
	if err != nil {
		return err
	}
	m, err := h.svc.GetMedication(c.Request().Context(), id)
	if err != nil {
		return mapServiceErr(err)
	}
	return c.JSON(http.StatusOK, m)
}

func (h *Handler) ListMedications(c echo.Context) error {
	pid, err := patientIDParam(c)
	if err != nil {
		return err
	}
	return h.listMedications(c, pid)
}

func (h *Handler) SelfMedications(c echo.Context) error {
	pid, err := guardPatientID(c)
	if err != nil {
		return err
	}
	return h.listMedications(c, pid)
}

func (h *Handler) listMedications(c echo.Context, pid uuid.UUID) error {
	pg := pagination.FromContext(c)
	items, total, err := h.svc.ListMedications(c.Request().Context(), pid, pg.Limit, pg.Offset)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, pg.Limit, pg.Offset))
}

func (h *Handler) UpdateMedication(c echo.Context) error {
	id, err := idParam(c)
	if err != nil {
		return err
	}
	var m Medication
	if err := c.Bind(&m); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	m.ID = id
	if err := h.svc.UpdateMedication(c.Request().Context(), &m); err != nil {
		return mapServiceErr(err)
	}
	return c.JSON(http.StatusOK, m)
}

func (h *Handler) DeleteMedication(c echo.Context) error {
	id, err := idParam(c)
	if err != nil {
		return err
	}
	if err := h.svc.DeleteMedication(c.Request().Context(), id); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.NoContent(http.StatusNoContent)
}

// -- Care reminders --

func (h *Handler) CreateReminder(c echo.Context) error {
	var r CareReminder
	if err := c.Bind(&r); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := h.svc.CreateReminder(c.Request().Context(), &r); err != nil {
		return mapServiceErr(err)
	}
	return c.JSON(http.StatusCreated, r)
}

func (h *Handler) ListReminders(c echo.Context) error {
	pid, err := patientIDParam(c)
	if err != nil {
		return err
	}
	return h.listReminders(c, pid)
}

func (h *Handler) SelfReminders(c echo.Context) error {
	pid, err := guardPatientID(c)
	if err != nil {
		return err
	}
	return h.listReminders(c, pid)
}

func (h *Handler) listReminders(c echo.Context, pid uuid.UUID) error {
	pg := pagination.FromContext(c)
	items, total, err := h.svc.ListReminders(c.Request().Context(), pid, pg.Limit, pg.Offset)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, pg.Limit, pg.Offset))
}

func (h *Handler) UpdateReminder(c echo.Context) error {
	id, err := idParam(c)
	if err != nil {
		return err
	}
	var r CareReminder
	if err := c.Bind(&r); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	r.ID = id
	if err := h.svc.UpdateReminder(c.Request().Context(), &r); err != nil {
		return mapServiceErr(err)
	}
	return c.JSON(http.StatusOK, r)
}

func (h *Handler) DeleteReminder(c echo.Context) error {
	id, err := idParam(c)
	if err != nil {
		return err
	}
	if err := h.svc.DeleteReminder(c.Request().Context(), id); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.NoContent(http.StatusNoContent)
}

// -- Diet plans --

func (h *Handler) CreateDietPlan(c echo.Context) error {
	var d DietPlan
	if err := c.Bind(&d); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := h.svc.CreateDietPlan(c.Request().Context(), &d); err != nil {
		return mapServiceErr(err)
	}
	return c.JSON(http.StatusCreated, d)
}

func (h *Handler) ListDietPlans(c echo.Context) error {
	pid, err := patientIDParam(c)
	if err != nil {
		return err
	}
	return h.listDietPlans(c, pid)
}

func (h *Handler) SelfDietPlans(c echo.Context) error {
	pid, err := guardPatientID(c)
	if err != nil {
		return err
	}
	return h.listDietPlans(c, pid)
}

func (h *Handler) listDietPlans(c echo.Context, pid uuid.UUID) error {
	pg := pagination.FromContext(c)
	items, total, err := h.svc.ListDietPlans(c.Request().Context(), pid, pg.Limit, pg.Offset)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, pg.Limit, pg.Offset))
}

func (h *Handler) UpdateDietPlan(c echo.Context) error {
	id, err := idParam(c)
	if err != nil {
		return err
	}
	var d DietPlan
	if err := c.Bind(&d); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	d.ID = id
	if err := h.svc.UpdateDietPlan(c.Request().Context(), &d); err != nil {
		return mapServiceErr(err)
	}
	return c.JSON(http.StatusOK, d)
}

func (h *Handler) DeleteDietPlan(c echo.Context) error {
	id, err := idParam(c)
	if err != nil {
		return err
	}
	if err := h.svc.DeleteDietPlan(c.Request().Context(), id); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.NoContent(http.StatusNoContent)
}
