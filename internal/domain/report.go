package domain

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"
)

// Workflow status labels used by the dashboard
const (
	StatusPending  = "pendiente"
	StatusInReview = "en_revision"
	StatusResolved = "resuelto"
	StatusClosed   = "cerrado"
)

// MaxAttachments is the maximum number of files per report
const MaxAttachments = 5

// Report represents one submitted ethics complaint - maps to the feedback table
type Report struct {
	ID                  string         `gorm:"column:id;type:varchar(36);primaryKey" json:"id"`
	Name                *string        `gorm:"column:name;type:varchar(255)" json:"name"`
	Email               *string        `gorm:"column:email;type:varchar(255)" json:"email"`
	Phone               *string        `gorm:"column:phone;type:varchar(50)" json:"phone"`
	Company             string         `gorm:"column:company;type:varchar(255)" json:"company"`
	Position            string         `gorm:"column:position;type:varchar(255)" json:"position"`
	SituationRelation   string         `gorm:"column:situation_relation;type:varchar(255);not null;check:chk_feedback_situation_relation,trim(situation_relation) <> ''" json:"situation_relation"`
	Area                string         `gorm:"column:area;type:varchar(100);not null;index" json:"area"`
	Type                string         `gorm:"column:type;type:varchar(100);not null;index" json:"type"`
	Subject             string         `gorm:"column:subject;type:varchar(255);not null" json:"subject"`
	Message             string         `gorm:"column:message;type:text;not null;check:chk_feedback_message,trim(message) <> ''" json:"message"`
	Anonymous           bool           `gorm:"column:anonymous" json:"anonymous"`
	AttachmentURLs      AttachmentList `gorm:"column:attachment_urls;type:text" json:"attachment_urls"`
	PointOfSale         *string        `gorm:"column:puntos_venta;type:varchar(255)" json:"point_of_sale"`
	IncidentDate        *Date          `gorm:"column:incident_date;type:date" json:"incident_date"`
	IncidentDateInitial *Date          `gorm:"column:incident_date_initial;type:date" json:"incident_date_initial"`
	IncidentDateEnd     *Date          `gorm:"column:incident_date_end;type:date" json:"incident_date_end"`
	CreatedAt           time.Time      `gorm:"column:fecha_creacion;autoCreateTime;index" json:"created_at"`
	Status              string         `gorm:"column:estado;type:varchar(50);not null" json:"status"`
}

// TableName returns the table name
func (Report) TableName() string {
	return "feedback"
}

// AfterFind normalizes status labels written by older clients ("Pendiente",
// "En Revisión") so the dashboard only ever sees the canonical keys
func (r *Report) AfterFind(tx *gorm.DB) error {
	r.Status = NormalizeStatus(r.Status)
	return nil
}

// IsOpen reports whether the report still awaits a decision
func (r *Report) IsOpen() bool {
	status := NormalizeStatus(r.Status)
	return status == StatusPending || status == StatusInReview
}

// IsResolved reports whether the report reached a final status
func (r *Report) IsResolved() bool {
	status := NormalizeStatus(r.Status)
	return status == StatusResolved || status == StatusClosed
}

// NormalizeStatus maps a stored status label to its canonical key.
// Unknown labels are returned trimmed but otherwise unchanged.
func NormalizeStatus(status string) string {
	key := strings.ToLower(strings.TrimSpace(status))
	key = strings.ReplaceAll(key, "ó", "o")
	key = strings.ReplaceAll(key, " ", "_")
	switch key {
	case StatusPending, StatusInReview, StatusResolved, StatusClosed:
		return key
	}
	return strings.TrimSpace(status)
}

// IsValidStatus checks a workflow status label
func IsValidStatus(status string) bool {
	switch status {
	case StatusPending, StatusInReview, StatusResolved, StatusClosed:
		return true
	}
	return false
}

// StatusLabel returns the human label of a status
func StatusLabel(status string) string {
	switch NormalizeStatus(status) {
	case StatusPending:
		return "Pendiente"
	case StatusInReview:
		return "En Revision"
	case StatusResolved:
		return "Resuelto"
	case StatusClosed:
		return "Cerrado"
	}
	return status
}

// UpdateStatusRequest represents the dashboard edit action
type UpdateStatusRequest struct {
	Status string `json:"status" binding:"required,oneof=pendiente en_revision resuelto cerrado"`
}

// CountByKey is one row of a grouped count
type CountByKey struct {
	Key   string `json:"key"`
	Count int64  `json:"count"`
}

// FeedbackStats aggregates over the whole feedback table
type FeedbackStats struct {
	Total      int64        `json:"total"`
	Anonymous  int64        `json:"anonymous"`
	Identified int64        `json:"identified"`
	Areas      int64        `json:"areas"`
	Types      int64        `json:"types"`
	ByArea     []CountByKey `json:"by_area"`
	ByType     []CountByKey `json:"by_type"`
}

// AttachmentList is stored as a JSON array in a text column. Rows written by
// the previous intake form hold a comma separated list of file names instead.
type AttachmentList []string

// Value implements driver.Valuer
func (a AttachmentList) Value() (driver.Value, error) {
	if a == nil {
		a = AttachmentList{}
	}
	b, err := json.Marshal([]string(a))
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan implements sql.Scanner
func (a *AttachmentList) Scan(value interface{}) error {
	var raw []byte
	switch v := value.(type) {
	case nil:
		*a = AttachmentList{}
		return nil
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return fmt.Errorf("attachment list: unsupported type %T", value)
	}
	text := strings.TrimSpace(string(raw))
	if text == "" || text == "null" {
		*a = AttachmentList{}
		return nil
	}
	if !strings.HasPrefix(text, "[") {
		*a = splitLegacyAttachments(text)
		return nil
	}
	var list []string
	if err := json.Unmarshal([]byte(text), &list); err != nil {
		return fmt.Errorf("attachment list: %w", err)
	}
	*a = list
	return nil
}

func splitLegacyAttachments(text string) AttachmentList {
	list := AttachmentList{}
	for _, part := range strings.Split(text, ",") {
		if name := strings.TrimSpace(part); name != "" {
			list = append(list, name)
		}
	}
	return list
}
