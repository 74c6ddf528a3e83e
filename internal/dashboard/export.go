package dashboard

import (
	"fmt"
	"strings"
	"time"

	"github.com/lineaetica/etica-backend/internal/domain"
	"github.com/xuri/excelize/v2"
)

// ExportSheet is the worksheet name of the export
const ExportSheet = "Reportes"

const (
	notAvailable   = "N/A"
	anonymousLabel = "Anonimo"
	displayDate    = "02/01/2006"
)

var exportColumns = []struct {
	title string
	width float64
}{
	{"Fecha Reporte", 15},
	{"Fecha Incidente", 15},
	{"Fecha Inicial Incidente", 20},
	{"Fecha Final Incidente", 20},
	{"Nombre", 20},
	{"Email", 25},
	{"Telefono", 15},
	{"Empresa", 15},
	{"Cargo", 20},
	{"Relacion", 15},
	{"Area", 25},
	{"Punto de Venta", 20},
	{"Tipo", 20},
	{"Asunto", 40},
	{"Mensaje", 50},
	{"Anonimo", 10},
	{"Archivos", 10},
	{"Estado", 15},
}

var typeLabels = map[string]string{
	"acoso":                 "Acoso",
	"conflicto_interes":     "Conflicto de Interes",
	"corrupcion":            "Corrupcion",
	"discriminacion":        "Discriminacion",
	"fraude":                "Fraude",
	"incumplimiento_normas": "Incumplimiento de Normas",
	"mal_uso_recursos":      "Mal Uso de Recursos",
	"nepotismo":             "Nepotismo",
	"otro":                  "Otro",
}

// TypeLabel returns the display label of a report type
func TypeLabel(t string) string {
	if label, ok := typeLabels[t]; ok {
		return label
	}
	return t
}

// ExportFilename is stamped with the local date of now
func ExportFilename(now time.Time) string {
	return fmt.Sprintf("reportes_linea_etica_%s.xlsx", now.Format("2006-01-02"))
}

// ExportHeaders returns the column titles in order
func ExportHeaders() []string {
	out := make([]string, len(exportColumns))
	for i, col := range exportColumns {
		out[i] = col.title
	}
	return out
}

// Export writes reports to a workbook with one sheet. The caller closes the file.
func Export(reports []domain.Report, now time.Time) (string, *excelize.File, error) {
	f := excelize.NewFile()
	if err := f.SetSheetName(f.GetSheetName(0), ExportSheet); err != nil {
		_ = f.Close()
		return "", nil, err
	}

	header := make([]interface{}, len(exportColumns))
	for i, col := range exportColumns {
		header[i] = col.title
		name, err := excelize.ColumnNumberToName(i + 1)
		if err != nil {
			_ = f.Close()
			return "", nil, err
		}
		if err := f.SetColWidth(ExportSheet, name, name, col.width); err != nil {
			_ = f.Close()
			return "", nil, err
		}
	}
	if err := f.SetSheetRow(ExportSheet, "A1", &header); err != nil {
		_ = f.Close()
		return "", nil, err
	}

	if style, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}}); err == nil {
		last, _ := excelize.ColumnNumberToName(len(exportColumns))
		_ = f.SetCellStyle(ExportSheet, "A1", last+"1", style)
	}

	for i := range reports {
		row := exportRow(&reports[i])
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			_ = f.Close()
			return "", nil, err
		}
		if err := f.SetSheetRow(ExportSheet, cell, &row); err != nil {
			_ = f.Close()
			return "", nil, fmt.Errorf("write row %d: %w", i+2, err)
		}
	}

	return ExportFilename(now), f, nil
}

func exportRow(r *domain.Report) []interface{} {
	identity := func(v *string) string {
		if r.Anonymous {
			return anonymousLabel
		}
		return orNA(deref(v))
	}
	anonymous := "No"
	if r.Anonymous {
		anonymous = "Si"
	}

	return []interface{}{
		r.CreatedAt.Local().Format(displayDate),
		formatDate(r.IncidentDate),
		formatDate(r.IncidentDateInitial),
		formatDate(r.IncidentDateEnd),
		identity(r.Name),
		identity(r.Email),
		identity(r.Phone),
		orNA(r.Company),
		orNA(r.Position),
		orNA(r.SituationRelation),
		orNA(r.Area),
		orNA(deref(r.PointOfSale)),
		TypeLabel(r.Type),
		orNA(r.Subject),
		orNA(r.Message),
		anonymous,
		len(r.AttachmentURLs),
		domain.StatusLabel(r.Status),
	}
}

func formatDate(d *domain.Date) string {
	if d == nil || d.IsZero() {
		return notAvailable
	}
	return d.Format(displayDate)
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func orNA(s string) string {
	if strings.TrimSpace(s) == "" {
		return notAvailable
	}
	return s
}
