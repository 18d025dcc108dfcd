package export

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/caravalia/reservas/internal/domain"
	"github.com/xuri/excelize/v2"
)

const SheetName = "Reservas"

var headers = []string{
	"Nº reserva", "Modelo", "Cliente", "DNI", "Teléfono",
	"Entrega", "Hora entrega", "Devolución", "Hora devolución",
	"Días", "Precio por día", "Importe total", "Señal", "Importe restante",
	"Forma de pago", "Validada", "Fecha validación", "Creada", "Notas", "ID",
}

// Workbook lays reservations out one per row under a styled header.
func Workbook(reservations []domain.CompletedReservation, loc *time.Location) (*excelize.File, error) {
	f := excelize.NewFile()

	index, err := f.NewSheet(SheetName)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("create sheet: %w", err)
	}
	f.SetActiveSheet(index)

	for i, header := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		f.SetCellValue(SheetName, cell, header)
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#CCFBF1"}, Pattern: 1},
	})
	if err == nil {
		f.SetRowStyle(SheetName, 1, 1, headerStyle)
	}

	for i, r := range reservations {
		for col, value := range row(r, loc) {
			cell, _ := excelize.CoordinatesToCellName(col+1, i+2)
			if err := f.SetCellValue(SheetName, cell, value); err != nil {
				f.Close()
				return nil, fmt.Errorf("write reservation %s: %w", r.ID, err)
			}
		}
	}

	last, _ := excelize.ColumnNumberToName(len(headers))
	f.SetColWidth(SheetName, "A", last, 16)

	if f.GetSheetName(0) != SheetName {
		f.DeleteSheet("Sheet1")
	}
	return f, nil
}

func WriteReservations(w io.Writer, reservations []domain.CompletedReservation, loc *time.Location) error {
	f, err := Workbook(reservations, loc)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := f.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

// SaveSnapshot writes reservations-<timestamp>.xlsx into dir and returns its path.
func SaveSnapshot(dir string, reservations []domain.CompletedReservation, loc *time.Location, at time.Time) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create export dir: %w", err)
	}

	f, err := Workbook(reservations, loc)
	if err != nil {
		return "", err
	}
	defer f.Close()

	path := filepath.Join(dir, "reservations-"+at.In(loc).Format("20060102-150405")+".xlsx")
	if err := f.SaveAs(path); err != nil {
		return "", fmt.Errorf("save snapshot: %w", err)
	}
	return path, nil
}

func row(r domain.CompletedReservation, loc *time.Location) []any {
	validated := "No"
	if r.Validated {
		validated = "Sí"
	}

	return []any{
		r.ReservationNumber,
		r.Model,
		r.Customer.FullName,
		r.Customer.NationalID,
		r.Customer.Phone,
		formatDate(r.Details.EntryDate, loc),
		r.Details.EntryTime,
		formatDate(r.Details.ReturnDate, loc),
		r.Details.ReturnTime,
		r.TotalDays,
		r.Details.DailyRate,
		r.TotalAmount,
		r.DepositAmount,
		r.RemainingAmount,
		r.PaymentMethod.Label(),
		validated,
		formatTimestamp(r.ValidatedAt, loc),
		r.CreatedAt.In(loc).Format("02/01/2006 15:04"),
		r.Customer.Notes,
		r.ID,
	}
}

func formatDate(t time.Time, loc *time.Location) string {
	if t.IsZero() {
		return ""
	}
	return t.In(loc).Format("02/01/2006")
}

func formatTimestamp(t *time.Time, loc *time.Location) string {
	if t == nil {
		return ""
	}
	return t.In(loc).Format("02/01/2006 15:04")
}
