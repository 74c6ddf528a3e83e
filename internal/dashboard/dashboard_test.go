package dashboard

import (
	"bytes"
	"testing"
	"time"

	"github.com/lineaetica/etica-backend/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func strPtr(s string) *string { return &s }

func sampleReports(now time.Time) []domain.Report {
	return []domain.Report{
		{ID: "1", Type: "fraude", Company: "Centromotos", Area: "comercial_venta_posventa", PointOfSale: strPtr("Bogota"),
			Subject: "Cash mismatch", Message: "Faltante en caja", Status: domain.StatusPending, Anonymous: true,
			CreatedAt: now.AddDate(0, 0, -3)},
		{ID: "2", Type: "acoso", Company: "Centromotos", Area: "rrhh",
			Subject: "Trato", Message: "Comentarios ofensivos del jefe", Status: domain.StatusInReview,
			CreatedAt: now.AddDate(0, -2, 0)},
		{ID: "3", Type: "fraude", Company: "Fintotal", Area: "finanzas",
			Subject: "Facturas", Message: "Facturas duplicadas en CAJA menor", Status: domain.StatusResolved, Anonymous: true,
			CreatedAt: now.AddDate(0, -6, 0)},
		{ID: "4", Type: "otro", Company: "Fintotal", Area: "finanzas",
			Subject: "Otro", Message: "Sin detalle", Status: domain.StatusClosed,
			CreatedAt: now.AddDate(-2, 0, 0)},
	}
}

func ids(reports []domain.Report) []string {
	out := make([]string, len(reports))
	for i, r := range reports {
		out[i] = r.ID
	}
	return out
}

func TestApply_NoFilterReturnsAll(t *testing.T) {
	now := time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC)
	reports := sampleReports(now)

	got := Apply(reports, Filter{}, now)
	assert.Equal(t, []string{"1", "2", "3", "4"}, ids(got))
}

func TestApply_Conjunction(t *testing.T) {
	now := time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC)
	reports := sampleReports(now)

	assert.Equal(t, []string{"1"}, ids(Apply(reports, Filter{Type: "fraude", Company: "Centromotos"}, now)))
	assert.Equal(t, []string{"3"}, ids(Apply(reports, Filter{Type: "fraude", Company: "Fintotal"}, now)))
	assert.Empty(t, Apply(reports, Filter{Type: "acoso", Company: "Fintotal"}, now))
	assert.Equal(t, []string{"1"}, ids(Apply(reports, Filter{PointOfSale: "Bogota"}, now)))
	assert.Equal(t, []string{"3", "4"}, ids(Apply(reports, Filter{Area: "finanzas"}, now)))
}

func TestApply_Search(t *testing.T) {
	now := time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC)
	reports := sampleReports(now)

	// subject OR message, case-insensitive
	assert.Equal(t, []string{"1", "3"}, ids(Apply(reports, Filter{Search: "caja"}, now)))
	assert.Equal(t, []string{"1"}, ids(Apply(reports, Filter{Search: "CASH"}, now)))
	assert.Equal(t, []string{"3"}, ids(Apply(reports, Filter{Search: "caja", Type: "fraude", Area: "finanzas"}, now)))
}

func TestApply_Period(t *testing.T) {
	now := time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC)
	reports := sampleReports(now)

	assert.Equal(t, []string{"1"}, ids(Apply(reports, Filter{Period: PeriodLastMonth}, now)))
	assert.Equal(t, []string{"1", "2"}, ids(Apply(reports, Filter{Period: "ultimos_3_meses"}, now)))
	assert.Equal(t, []string{"1", "2", "3"}, ids(Apply(reports, Filter{Period: PeriodLastYear}, now)))
	assert.Len(t, Apply(reports, Filter{Period: "whenever"}, now), 4)
}

func TestPeriodStart_InclusiveLowerBound(t *testing.T) {
	now := time.Date(2024, 3, 31, 18, 30, 0, 0, time.UTC)

	start, ok := PeriodStart(PeriodLastMonth, now)
	require.True(t, ok)
	// calendar arithmetic normalizes Feb 31 to Mar 2
	assert.Equal(t, time.Date(2024, 3, 2, 0, 0, 0, 0, time.UTC), start)

	onBoundary := []domain.Report{{ID: "edge", CreatedAt: start}}
	assert.Len(t, Apply(onBoundary, Filter{Period: PeriodLastMonth}, now), 1)

	_, ok = PeriodStart("", now)
	assert.False(t, ok)
}

func TestComputeMetrics(t *testing.T) {
	now := time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC)
	m := ComputeMetrics(sampleReports(now))

	assert.Equal(t, 4, m.Total)
	assert.Equal(t, 2, m.Open)
	assert.Equal(t, 2, m.Resolved)
	assert.Equal(t, 2, m.Anonymous)
	assert.Equal(t, domain.CountByKey{Key: "finanzas", Count: 2}, m.ByArea[0])
	assert.Equal(t, domain.CountByKey{Key: "fraude", Count: 2}, m.ByType[0])

	empty := ComputeMetrics(nil)
	assert.Equal(t, 0, empty.Total)
	assert.NotNil(t, empty.ByArea)
}

func TestCatalog(t *testing.T) {
	c := NewCatalog("comercial_venta_posventa",
		[]string{"Centromotos", "Fintotal"},
		map[string][]string{"Centromotos": {"Bogota", "Medellin"}})

	assert.True(t, c.RequiresPointOfSale("Centromotos", "comercial_venta_posventa"))
	assert.False(t, c.RequiresPointOfSale("Centromotos", "rrhh"))
	assert.False(t, c.RequiresPointOfSale("Otra", "comercial_venta_posventa"))

	assert.Equal(t, []string{"Bogota", "Medellin"}, c.PointsOfSaleFor("Centromotos"))
	assert.Equal(t, []string{}, c.PointsOfSaleFor("Fintotal"))
	assert.Equal(t, []string{"Bogota", "Medellin"}, c.PointsOfSaleFor(""))

	// switching company resets a selection that does not belong to it
	assert.Equal(t, "Bogota", c.NormalizeSelection("Centromotos", "bogota"))
	assert.Equal(t, "", c.NormalizeSelection("Centromotos", "Cali"))
	assert.Equal(t, "Cali", c.NormalizeSelection("Fintotal", "Cali"))
	assert.Equal(t, "", c.NormalizeSelection("Otra", "Bogota"))
}

func TestExport(t *testing.T) {
	now := time.Date(2024, 6, 15, 12, 0, 0, 0, time.Local)
	incident, err := domain.ParseDate("2024-06-01")
	require.NoError(t, err)

	reports := []domain.Report{
		{ID: "1", Type: "fraude", Company: "Centromotos", Area: "ventas", SituationRelation: "Testigo",
			Subject: "Caja", Message: "Faltante", Anonymous: true, Status: domain.StatusPending,
			AttachmentURLs: domain.AttachmentList{"/uploads/a.pdf", "/uploads/b.png"},
			IncidentDate:   &incident, CreatedAt: now},
		{ID: "2", Type: "nuevo_tipo", Name: strPtr("Ana"), Email: strPtr("ana@example.com"), Phone: strPtr(""),
			Area: "rrhh", SituationRelation: "Victima", Subject: "Trato", Message: "Detalle",
			Status: domain.StatusInReview, CreatedAt: now},
	}

	name, f, err := Export(reports, now)
	require.NoError(t, err)
	defer func() { _ = f.Close() }()
	assert.Equal(t, "reportes_linea_etica_2024-06-15.xlsx", name)

	buf, err := f.WriteToBuffer()
	require.NoError(t, err)

	book, err := excelize.OpenReader(bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)
	defer func() { _ = book.Close() }()

	assert.Equal(t, ExportSheet, book.GetSheetName(0))
	rows, err := book.GetRows(ExportSheet)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, ExportHeaders(), rows[0])

	first := rows[1]
	assert.Equal(t, "15/06/2024", first[0])
	assert.Equal(t, "01/06/2024", first[1])
	assert.Equal(t, "N/A", first[2])
	assert.Equal(t, "Anonimo", first[4])
	assert.Equal(t, "Anonimo", first[5])
	assert.Equal(t, "Fraude", first[12])
	assert.Equal(t, "Si", first[15])
	assert.Equal(t, "2", first[16])
	assert.Equal(t, "Pendiente", first[17])

	second := rows[2]
	assert.Equal(t, "Ana", second[4])
	assert.Equal(t, "N/A", second[6])
	assert.Equal(t, "N/A", second[7])
	assert.Equal(t, "nuevo_tipo", second[12])
	assert.Equal(t, "No", second[15])
	assert.Equal(t, "En Revision", second[17])
}
