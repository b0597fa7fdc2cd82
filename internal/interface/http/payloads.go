package handlers

import (
	"bytes"
	"encoding/json"
	"errors"
)

// IDList decodes either a single string or an array of strings.
type IDList []string

func (l *IDList) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*l = nil
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*l = IDList{s}
		return nil
	}
	var many []string
	if err := json.Unmarshal(b, &many); err != nil {
		return errors.New("must be a string or an array of strings")
	}
	*l = many
	return nil
}

type createUserRequest struct {
	UserID string   `json:"user_id" binding:"required,userid"`
	Name   string   `json:"name" binding:"required,username"`
	Tags   []string `json:"tags" binding:"omitempty,dive,required"`
}

type enrollUserRequest struct {
	UserID       string `json:"user_id" binding:"required,userid"`
	TemplateData string `json:"template_data" binding:"required"`
}

type markAttendanceRequest struct {
	UserIDs    []string `json:"user_ids" binding:"required"`
	Timestamps []string `json:"timestamps" binding:"required"`
}

type usersByTagsRequest struct {
	Tags IDList `json:"tags" binding:"required,min=1,dive,required"`
}

type attendanceRequest struct {
	UserIDs   IDList `json:"user_ids" binding:"required,min=1"`
	StartTime string `json:"start_time" binding:"required"`
	EndTime   string `json:"end_time" binding:"required"`
}

type templateRequest struct {
	UserID  IDList `json:"user_id"`
	UserIDs IDList `json:"user_ids"`
}

func (r templateRequest) ids() []string {
	out := make([]string, 0, len(r.UserID)+len(r.UserIDs))
	out = append(out, r.UserID...)
	return append(out, r.UserIDs...)
}

type userDTO struct {
	UserID    string   `json:"user_id"`
	Name      string   `json:"name"`
	Tags      []string `json:"tags"`
	CreatedAt string   `json:"created_at,omitempty"`
}

type recordDTO struct {
	AttendanceID int64  `json:"attendance_id"`
	UserID       string `json:"user_id"`
	Timestamp    string `json:"timestamp"`
}

type seriesDTO struct {
	UserID     string   `json:"user_id"`
	Timestamps []string `json:"timestamps"`
}

type templateDTO struct {
	UserID     string `json:"user_id"`
	TemplateID int64  `json:"template_id"`
	Template   string `json:"template"`
	CreatedAt  string `json:"created_at"`
}
