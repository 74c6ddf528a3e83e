package service

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"io"
	"sync"
	"time"

	"github.com/lineaetica/etica-backend/internal/dashboard"
	"github.com/lineaetica/etica-backend/internal/domain"
	pkglogger "github.com/lineaetica/etica-backend/pkg/logger"
	"github.com/lineaetica/etica-backend/pkg/mailer"
	"github.com/lineaetica/etica-backend/pkg/storage"
)

// Notifier tells the operations mailbox about new reports
type Notifier interface {
	// NotifyReportCreated sends synchronously; errors are logged, never returned
	NotifyReportCreated(ctx context.Context, report *domain.Report, files []storage.Object)
	// NotifyAsync sends in the background with its own timeout
	NotifyAsync(report *domain.Report, files []storage.Object)
}

// NotificationService renders and dispatches the report notification email
type NotificationService struct {
	mailer  mailer.Mailer
	files   storage.Storage
	from    string
	to      string
	timeout time.Duration
	wg      sync.WaitGroup
}

// NewNotificationService creates a NotificationService. m may be nil, which
// turns every call into a logged no-op.
func NewNotificationService(m mailer.Mailer, files storage.Storage, from, to string, timeout time.Duration) *NotificationService {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &NotificationService{
		mailer:  m,
		files:   files,
		from:    from,
		to:      to,
		timeout: timeout,
	}
}

// Enabled reports whether a provider and recipient are configured
func (s *NotificationService) Enabled() bool {
	return s.mailer != nil && s.to != ""
}

// NotifyAsync sends in a goroutine with a context detached from the request
func (s *NotificationService) NotifyAsync(report *domain.Report, files []storage.Object) {
	if !s.Enabled() {
		pkglogger.Info("notification skipped for report %s: mail not configured", report.ID)
		return
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer func() {
			if r := recover(); r != nil {
				pkglogger.Error("notification panic for report %s: %v", report.ID, r)
			}
		}()

		ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
		defer cancel()
		s.NotifyReportCreated(ctx, report, files)
	}()
}

// Wait blocks until in-flight notifications finish
func (s *NotificationService) Wait() {
	s.wg.Wait()
}

// NotifyReportCreated renders and sends the email
func (s *NotificationService) NotifyReportCreated(ctx context.Context, report *domain.Report, files []storage.Object) {
	if !s.Enabled() {
		pkglogger.Info("notification skipped for report %s: mail not configured", report.ID)
		return
	}

	html, err := RenderReportEmail(report, time.Now())
	if err != nil {
		pkglogger.Error("notification template for report %s: %v", report.ID, err)
		return
	}

	msg := &mailer.Message{
		From:        s.from,
		To:          []string{s.to},
		Subject:     fmt.Sprintf("Nuevo Reporte de Línea Ética - %s", dashboard.TypeLabel(report.Type)),
		HTML:        html,
		Attachments: s.loadAttachments(ctx, files),
	}

	if err := s.mailer.Send(ctx, msg); err != nil {
		pkglogger.Error("notification for report %s via %s failed: %v", report.ID, s.mailer.Name(), err)
		return
	}
	pkglogger.Info("notification for report %s sent via %s", report.ID, s.mailer.Name())
}

// loadAttachments reads files back from storage; unreadable ones are skipped
func (s *NotificationService) loadAttachments(ctx context.Context, files []storage.Object) []mailer.Attachment {
	if s.files == nil || len(files) == 0 {
		return nil
	}

	out := make([]mailer.Attachment, 0, len(files))
	for _, f := range files {
		rc, err := s.files.Open(ctx, f.Key)
		if err != nil {
			pkglogger.Warn("notification attachment %s unreadable: %v", f.Key, err)
			continue
		}
		data, err := io.ReadAll(rc)
		_ = rc.Close()
		if err != nil {
			pkglogger.Warn("notification attachment %s unreadable: %v", f.Key, err)
			continue
		}
		out = append(out, mailer.Attachment{
			Filename:    f.Filename,
			ContentType: f.ContentType,
			Content:     data,
		})
	}
	return out
}

var reportEmailTemplate = template.Must(template.New("report_created").Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<style>
body { font-family: Arial, sans-serif; line-height: 1.6; color: #333; }
.container { max-width: 600px; margin: 0 auto; padding: 20px; }
.header { background: #2c3e50; color: white; padding: 20px; text-align: center; }
.content { background: #f8f9fa; padding: 20px; }
.field { margin-bottom: 15px; }
.label { font-weight: bold; color: #2c3e50; }
.value { margin-top: 5px; padding: 8px; background: white; border-radius: 4px; }
.footer { text-align: center; padding: 20px; color: #666; font-size: 12px; }
</style>
</head>
<body>
<div class="container">
<div class="header"><h1>Nuevo Reporte de Línea Ética</h1></div>
<div class="content">
<div class="field"><div class="label">Código:</div><div class="value">{{.ID}}</div></div>
<div class="field"><div class="label">Empresa:</div><div class="value">{{.Company}}</div></div>
{{- if .PointOfSale}}
<div class="field"><div class="label">Punto de Venta:</div><div class="value">{{.PointOfSale}}</div></div>
{{- end}}
<div class="field"><div class="label">Relación con la Empresa:</div><div class="value">{{.Position}}</div></div>
<div class="field"><div class="label">Relación con la Situación:</div><div class="value">{{.SituationRelation}}</div></div>
<div class="field"><div class="label">Tipo de Reporte:</div><div class="value">{{.Type}}</div></div>
<div class="field"><div class="label">Fecha del Incidente:</div><div class="value">{{.IncidentDate}}</div></div>
<div class="field"><div class="label">Área:</div><div class="value">{{.Area}}</div></div>
<div class="field"><div class="label">Asunto:</div><div class="value">{{.Subject}}</div></div>
<div class="field"><div class="label">Descripción:</div><div class="value">{{.Message}}</div></div>
{{- if .Anonymous}}
<div class="field"><div class="label">Reportante:</div><div class="value">Reporte anónimo. No se proporcionó información de contacto.</div></div>
{{- else}}
<div class="field"><div class="label">Reportante:</div><div class="value">
<strong>Nombre:</strong> {{.Name}}<br>
{{- if .Email}}
<strong>Email:</strong> {{.Email}}<br>
{{- end}}
{{- if .Phone}}
<strong>Teléfono:</strong> {{.Phone}}
{{- end}}
</div></div>
{{- end}}
{{- if .Attachments}}
<div class="field"><div class="label">Archivos Adjuntos:</div><div class="value">{{.Attachments}} archivo(s) adjunto(s)</div></div>
{{- end}}
<div class="field"><div class="label">Fecha de Reporte:</div><div class="value">{{.CreatedAt}}</div></div>
</div>
<div class="footer">
<p>Este es un mensaje automático del sistema de Línea Ética.</p>
<p>Por favor, no responda a este correo.</p>
</div>
</div>
</body>
</html>
`))

type reportEmailData struct {
	ID                string
	Company           string
	PointOfSale       string
	Position          string
	SituationRelation string
	Type              string
	IncidentDate      string
	Area              string
	Subject           string
	Message           string
	Anonymous         bool
	Name              string
	Email             string
	Phone             string
	Attachments       int
	CreatedAt         string
}

// RenderReportEmail renders the notification body; html/template escapes every field
func RenderReportEmail(report *domain.Report, now time.Time) (string, error) {
	created := report.CreatedAt
	if created.IsZero() {
		created = now
	}

	data := reportEmailData{
		ID:                report.ID,
		Company:           orDefault(report.Company, defaultCompany),
		PointOfSale:       derefString(report.PointOfSale),
		Position:          orDefault(report.Position, defaultPosition),
		SituationRelation: report.SituationRelation,
		Type:              dashboard.TypeLabel(report.Type),
		IncidentDate:      incidentDateText(report),
		Area:              report.Area,
		Subject:           report.Subject,
		Message:           report.Message,
		Anonymous:         report.Anonymous,
		Attachments:       len(report.AttachmentURLs),
		CreatedAt:         created.Local().Format("02/01/2006 15:04:05"),
	}
	if !report.Anonymous {
		data.Name = derefString(report.Name)
		data.Email = derefString(report.Email)
		data.Phone = derefString(report.Phone)
	}

	var buf bytes.Buffer
	if err := reportEmailTemplate.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func incidentDateText(r *domain.Report) string {
	switch {
	case r.IncidentDate != nil:
		return r.IncidentDate.String()
	case r.IncidentDateInitial != nil && r.IncidentDateEnd != nil:
		return r.IncidentDateInitial.String() + " - " + r.IncidentDateEnd.String()
	case r.IncidentDateInitial != nil:
		return r.IncidentDateInitial.String()
	case r.IncidentDateEnd != nil:
		return r.IncidentDateEnd.String()
	}
	return "No especificada"
}

func derefString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
