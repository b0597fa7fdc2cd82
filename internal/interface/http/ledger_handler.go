package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/attendance-ledger/internal/application"
	"github.com/oksasatya/attendance-ledger/internal/domain/entity"
	"github.com/oksasatya/attendance-ledger/internal/domain/ledgererr"
	"github.com/oksasatya/attendance-ledger/pkg/response"
	"github.com/oksasatya/attendance-ledger/pkg/validation"
)

// LedgerService is the application surface the handlers dispatch to.
type LedgerService interface {
	CreateUser(ctx context.Context, in application.CreateUserInput) (*entity.User, error)
	EnrollUser(ctx context.Context, userID, templateData string) (*entity.Template, error)
	MarkAttendance(ctx context.Context, userIDs, timestamps []string) ([]entity.Attendance, error)
	UsersByTags(ctx context.Context, tags []string) ([]entity.User, error)
	Users(ctx context.Context) ([]entity.User, error)
	AttendanceInRange(ctx context.Context, userIDs []string, start, end string) ([]application.AttendanceSeries, error)
	Templates(ctx context.Context, userIDs []string) (application.TemplateLookup, error)
}

type LedgerHandler struct {
	Svc    LedgerService
	Logger *logrus.Logger
}

func NewLedgerHandler(svc LedgerService, logger *logrus.Logger) *LedgerHandler {
	return &LedgerHandler{Svc: svc, Logger: logger}
}

// bind decodes the envelope payload into req and validates it. Any failure is
// answered with kind and reported as false.
func (h *LedgerHandler) bind(c *gin.Context, req any, kind ledgererr.Kind, message string) bool {
	pd := response.Payload(c)
	if len(pd) == 0 {
		pd = []byte("{}")
	}
	if err := binding.JSON.BindBody(pd, req); err != nil {
		h.logClientError(c, kind, err)
		response.Error(c, kind.Status(), string(kind), message, validation.ToDetails(err))
		return false
	}
	return true
}

func (h *LedgerHandler) fail(c *gin.Context, err error) {
	kind := ledgererr.KindOf(err)
	if kind == ledgererr.Internal {
		if h.Logger != nil {
			h.Logger.WithFields(requestFields(c)).WithError(err).Error("request failed")
		}
		response.Error(c, kind.Status(), string(kind), "internal error", nil)
		return
	}
	h.logClientError(c, kind, err)

	msg := err.Error()
	var details any
	var lerr *ledgererr.Error
	if errors.As(err, &lerr) {
		msg = lerr.Message
		if len(lerr.Meta) > 0 {
			details = lerr.Meta
		}
	}
	response.Error(c, kind.Status(), string(kind), msg, details)
}

func (h *LedgerHandler) logClientError(c *gin.Context, kind ledgererr.Kind, err error) {
	if h.Logger == nil {
		return
	}
	h.Logger.WithFields(requestFields(c)).WithField("kind", kind).WithError(err).Debug("request rejected")
}

func requestFields(c *gin.Context) logrus.Fields {
	return logrus.Fields{
		"request_id":  c.GetString("request_id"),
		"envelope_id": c.GetString("envelope_id"),
		"route":       c.FullPath(),
	}
}

func (h *LedgerHandler) CreateUser(c *gin.Context) {
	var req createUserRequest
	if !h.bind(c, &req, ledgererr.MissingFields, "user_id and name are required") {
		return
	}
	u, err := h.Svc.CreateUser(c.Request.Context(), application.CreateUserInput{
		UserID: req.UserID,
		Name:   req.Name,
		Tags:   req.Tags,
	})
	if err != nil {
		h.fail(c, err)
		return
	}
	response.Success(c, http.StatusCreated, gin.H{
		"message": "User created successfully",
		"user":    toUserDTO(*u),
	})
}

func (h *LedgerHandler) EnrollUser(c *gin.Context) {
	var req enrollUserRequest
	if !h.bind(c, &req, ledgererr.MissingFields, "user_id and template_data are required") {
		return
	}
	t, err := h.Svc.EnrollUser(c.Request.Context(), req.UserID, req.TemplateData)
	if err != nil {
		h.fail(c, err)
		return
	}
	response.Success(c, http.StatusCreated, gin.H{
		"message":     "User enrolled successfully",
		"user_id":     t.UserID,
		"template_id": t.TemplateID,
	})
}

func (h *LedgerHandler) MarkAttendance(c *gin.Context) {
	var req markAttendanceRequest
	if !h.bind(c, &req, ledgererr.MissingFields, "user_ids and timestamps are required") {
		return
	}
	rows, err := h.Svc.MarkAttendance(c.Request.Context(), req.UserIDs, req.Timestamps)
	if err != nil {
		h.fail(c, err)
		return
	}
	records := make([]recordDTO, 0, len(rows))
	for _, r := range rows {
		records = append(records, recordDTO{
			AttendanceID: r.AttendanceID,
			UserID:       r.UserID,
			Timestamp:    entity.FormatTimestamp(r.Timestamp),
		})
	}
	response.Success(c, http.StatusOK, gin.H{
		"message": "Attendance marked successfully",
		"records": records,
	})
}

func (h *LedgerHandler) UsersByTags(c *gin.Context) {
	var req usersByTagsRequest
	if !h.bind(c, &req, ledgererr.MissingTags, "tags must contain at least one tag") {
		return
	}
	users, err := h.Svc.UsersByTags(c.Request.Context(), req.Tags)
	if err != nil {
		h.fail(c, err)
		return
	}
	out := make([]userDTO, 0, len(users))
	for _, u := range users {
		out = append(out, toUserDTO(u))
	}
	response.Success(c, http.StatusOK, gin.H{"users": out})
}

// ListUsers answers GET /users with every user and its creation time.
func (h *LedgerHandler) ListUsers(c *gin.Context) {
	users, err := h.Svc.Users(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	out := make([]userDTO, 0, len(users))
	for _, u := range users {
		dto := toUserDTO(u)
		dto.CreatedAt = entity.FormatTimestamp(u.CreatedAt)
		out = append(out, dto)
	}
	response.Success(c, http.StatusOK, gin.H{"users": out})
}

func (h *LedgerHandler) Attendance(c *gin.Context) {
	var req attendanceRequest
	if !h.bind(c, &req, ledgererr.MissingParameters, "user_ids, start_time and end_time are required") {
		return
	}
	series, err := h.Svc.AttendanceInRange(c.Request.Context(), req.UserIDs, req.StartTime, req.EndTime)
	if err != nil {
		h.fail(c, err)
		return
	}
	out := make([]seriesDTO, 0, len(series))
	for _, s := range series {
		dto := seriesDTO{UserID: s.UserID, Timestamps: make([]string, 0, len(s.Timestamps))}
		for _, ts := range s.Timestamps {
			dto.Timestamps = append(dto.Timestamps, entity.FormatTimestamp(ts))
		}
		out = append(out, dto)
	}
	response.Success(c, http.StatusOK, gin.H{"attendance": out})
}

func (h *LedgerHandler) Templates(c *gin.Context) {
	var req templateRequest
	if !h.bind(c, &req, ledgererr.MissingUserIDs, "user_id or user_ids is required") {
		return
	}
	res, err := h.Svc.Templates(c.Request.Context(), req.ids())
	if err != nil {
		h.fail(c, err)
		return
	}
	out := make([]templateDTO, 0, len(res.Templates))
	for _, t := range res.Templates {
		out = append(out, templateDTO{
			UserID:     t.UserID,
			TemplateID: t.TemplateID,
			Template:   t.TemplateData,
			CreatedAt:  entity.FormatTimestamp(t.CreatedAt),
		})
	}
	response.Success(c, http.StatusOK, gin.H{"templates": out, "missing": res.Missing})
}

func toUserDTO(u entity.User) userDTO {
	tags := u.Tags
	if tags == nil {
		tags = []string{}
	}
	return userDTO{UserID: u.UserID, Name: u.Name, Tags: tags}
}
