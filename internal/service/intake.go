package service

import (
	"fmt"
	"mime"
	"mime/multipart"
	"path/filepath"
	"strings"

	"github.com/lineaetica/etica-backend/internal/common"
	"github.com/lineaetica/etica-backend/internal/dashboard"
	"github.com/lineaetica/etica-backend/internal/domain"
)

// MaxAttachmentSize is the per-file ceiling (5MB)
const MaxAttachmentSize = 5 * 1024 * 1024

const (
	defaultCompany  = "No especificada"
	defaultPosition = "No especificado"
)

// Form field names
const (
	FieldSituationRelation = "situation_relation"
	FieldArea              = "area"
	FieldType              = "type"
	FieldSubject           = "subject"
	FieldMessage           = "message"
	FieldName              = "name"
	FieldEmail             = "email"
	FieldPhone             = "phone"
	FieldCompany           = "company"
	FieldPosition          = "position"
	FieldAnonymous         = "anonymous"
	FieldPointOfSale       = "point_of_sale"
	FieldIncidentDate      = "incident_date"
	FieldIncidentStart     = "incident_date_initial"
	FieldIncidentEnd       = "incident_date_end"
	FieldAttachments       = "attachments"
)

// requiredFields in the order they are checked, with their display names
var requiredFields = []struct {
	name  string
	label string
}{
	{FieldSituationRelation, "Relación con la situación"},
	{FieldArea, "Área"},
	{FieldType, "Tipo de reporte"},
	{FieldSubject, "Asunto"},
	{FieldMessage, "Mensaje"},
}

// fieldAliases maps legacy form names to canonical ones. Canonical names win.
var fieldAliases = map[string][]string{
	FieldSituationRelation: {"relation_to_situation", "relacion_situacion"},
	FieldType:              {"tipo_reporte", "tipo"},
	FieldSubject:           {"asunto"},
	FieldMessage:           {"descripcion", "mensaje"},
	FieldCompany:           {"empresa"},
	FieldPosition:          {"cargo", "relation_to_company"},
	FieldName:              {"nombre_reportante", "nombre"},
	FieldEmail:             {"email_reportante"},
	FieldPhone:             {"telefono_reportante", "telefono"},
	FieldPointOfSale:       {"puntos_venta", "punto_venta"},
	FieldIncidentDate:      {"fecha_incidente"},
	FieldIncidentStart:     {"fecha_incidente_inicial"},
	FieldIncidentEnd:       {"fecha_incidente_final"},
}

// allowedTypes maps each allowed extension to the MIME types a browser may declare for it
var allowedTypes = map[string][]string{
	".jpg":  {"image/jpeg", "image/pjpeg"},
	".jpeg": {"image/jpeg", "image/pjpeg"},
	".png":  {"image/png"},
	".gif":  {"image/gif"},
	".pdf":  {"application/pdf"},
	".doc":  {"application/msword"},
	".docx": {"application/vnd.openxmlformats-officedocument.wordprocessingml.document"},
	".txt":  {"text/plain"},
	".xls":  {"application/vnd.ms-excel"},
	".xlsx": {"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"},
}

// IntakeValidator decides accept/reject for a submission before anything is written
type IntakeValidator struct {
	catalog *dashboard.Catalog
}

// NewIntakeValidator creates an IntakeValidator
func NewIntakeValidator(catalog *dashboard.Catalog) *IntakeValidator {
	if catalog == nil {
		catalog = &dashboard.Catalog{}
	}
	return &IntakeValidator{catalog: catalog}
}

// Validate turns the multipart values and files into an unsaved report.
// ID, status, timestamps and attachment URLs are left to the caller.
func (v *IntakeValidator) Validate(values map[string][]string, files []*multipart.FileHeader) (*domain.Report, error) {
	form := intakeForm(values)

	for _, f := range requiredFields {
		if form.get(f.name) == "" {
			return nil, common.NewValidationError(f.name, fmt.Sprintf("El campo %s es obligatorio", f.label))
		}
	}

	if err := ValidateAttachments(files); err != nil {
		return nil, err
	}

	report := &domain.Report{
		Company:           orDefault(form.get(FieldCompany), defaultCompany),
		Position:          orDefault(form.get(FieldPosition), defaultPosition),
		SituationRelation: form.get(FieldSituationRelation),
		Area:              form.get(FieldArea),
		Type:              form.get(FieldType),
		Subject:           form.get(FieldSubject),
		Message:           form.get(FieldMessage),
		AttachmentURLs:    domain.AttachmentList{},
	}

	name := form.get(FieldName)
	report.Anonymous = name == "" || isTruthy(form.get(FieldAnonymous))
	if !report.Anonymous {
		email := form.get(FieldEmail)
		phone := form.get(FieldPhone)
		report.Name = &name
		report.Email = &email
		report.Phone = &phone
	}

	if err := v.applyDates(report, form); err != nil {
		return nil, err
	}

	if v.catalog.RequiresPointOfSale(report.Company, report.Area) {
		if pos := v.catalog.NormalizeSelection(report.Company, form.get(FieldPointOfSale)); pos != "" {
			report.PointOfSale = &pos
		}
	}

	return report, nil
}

func (v *IntakeValidator) applyDates(report *domain.Report, form intakeForm) error {
	single, err := parseOptionalDate(form, FieldIncidentDate, "Fecha del incidente")
	if err != nil {
		return err
	}
	if single != nil {
		// a single date wins; range fields are ignored
		report.IncidentDate = single
		return nil
	}

	start, err := parseOptionalDate(form, FieldIncidentStart, "Fecha inicial del incidente")
	if err != nil {
		return err
	}
	end, err := parseOptionalDate(form, FieldIncidentEnd, "Fecha final del incidente")
	if err != nil {
		return err
	}
	if start != nil && end != nil && end.Before(start.Time) {
		return common.NewValidationError(FieldIncidentEnd, "La fecha final no puede ser anterior a la fecha inicial")
	}

	report.IncidentDateInitial = start
	report.IncidentDateEnd = end
	return nil
}

// ValidateAttachments checks count, size, extension and declared MIME type
func ValidateAttachments(files []*multipart.FileHeader) error {
	if len(files) > domain.MaxAttachments {
		return common.NewValidationError(FieldAttachments,
			fmt.Sprintf("Máximo %d archivos permitidos", domain.MaxAttachments))
	}

	for _, file := range files {
		if file.Size > MaxAttachmentSize {
			return common.NewValidationError(FieldAttachments,
				fmt.Sprintf("El archivo %s excede el tamaño máximo de 5MB", file.Filename))
		}

		ext := strings.ToLower(filepath.Ext(file.Filename))
		mimes, ok := allowedTypes[ext]
		if !ok {
			return common.NewValidationError(FieldAttachments,
				fmt.Sprintf("Tipo de archivo no permitido: %s. Solo se permiten imágenes, PDFs, documentos de Word, Excel y archivos de texto.", file.Filename))
		}

		if !declaredTypeMatches(file.Header.Get("Content-Type"), mimes) {
			return common.NewValidationError(FieldAttachments,
				fmt.Sprintf("El tipo de contenido del archivo %s no coincide con su extensión", file.Filename))
		}
	}
	return nil
}

// declaredTypeMatches accepts an absent or generic declared type
func declaredTypeMatches(declared string, allowed []string) bool {
	if declared == "" {
		return true
	}
	mediaType, _, err := mime.ParseMediaType(declared)
	if err != nil {
		return false
	}
	if mediaType == "application/octet-stream" {
		return true
	}
	for _, m := range allowed {
		if mediaType == m {
			return true
		}
	}
	return false
}

type intakeForm map[string][]string

// get returns the trimmed first value of name or of its first non-empty alias
func (f intakeForm) get(name string) string {
	if v := f.first(name); v != "" {
		return v
	}
	for _, alias := range fieldAliases[name] {
		if v := f.first(alias); v != "" {
			return v
		}
	}
	return ""
}

func (f intakeForm) first(name string) string {
	values := f[name]
	if len(values) == 0 {
		return ""
	}
	return strings.TrimSpace(values[0])
}

func parseOptionalDate(form intakeForm, field, label string) (*domain.Date, error) {
	raw := form.get(field)
	if raw == "" {
		return nil, nil
	}
	d, err := domain.ParseDate(raw)
	if err != nil {
		return nil, common.NewValidationError(field, fmt.Sprintf("%s inválida, use el formato AAAA-MM-DD", label))
	}
	return &d, nil
}

func isTruthy(v string) bool {
	switch strings.ToLower(v) {
	case "true", "1", "on":
		return true
	}
	return false
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}
