package export

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"courtbook/internal/domain"
	"courtbook/internal/models"
	"courtbook/internal/schedule"

	"github.com/rs/zerolog"
	"github.com/xuri/excelize/v2"
)

const (
	reservationsSheet = "Reservations"
	occupancySheet    = "Occupancy"

	// MaxRangeDays caps one export to roughly a quarter.
	MaxRangeDays = 92
)

var (
	ErrInvalidRange  = errors.New("export range start is after its end")
	ErrRangeTooLarge = fmt.Errorf("export range exceeds %d days", MaxRangeDays)
)

var reservationHeaders = []string{
	"Date", "Hour", "Court", "Member ID", "First name", "Last name", "Reservation ID", "Created at",
}

// Exporter renders reservation history into an xlsx workbook for admins.
type Exporter struct {
	archive domain.ReservationArchive
	grid    *schedule.Grid
	dir     string
	logger  *zerolog.Logger
}

func NewExporter(archive domain.ReservationArchive, grid *schedule.Grid, dir string, logger *zerolog.Logger) *Exporter {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	return &Exporter{archive: archive, grid: grid, dir: dir, logger: logger}
}

// FileName is the download name for a [from, to] export.
func FileName(from, to schedule.Date) string {
	return fmt.Sprintf("reservations_%s_to_%s.xlsx", from, to)
}

func checkRange(from, to schedule.Date) error {
	if to.Before(from) {
		return ErrInvalidRange
	}
	if from.AddDays(MaxRangeDays).Before(to) {
		return ErrRangeTooLarge
	}
	return nil
}

// Build loads reservations in [from, to] and lays them out in a workbook:
// a flat list sheet and a per-day occupancy sheet over the slot grid.
func (e *Exporter) Build(ctx context.Context, from, to schedule.Date) (*excelize.File, error) {
	if err := checkRange(from, to); err != nil {
		return nil, err
	}

	list, err := e.archive.ListReservationsBetween(ctx, from, to)
	if err != nil {
		return nil, fmt.Errorf("error getting reservations: %w", err)
	}

	f := excelize.NewFile()
	if err := e.writeReservations(f, list); err != nil {
		f.Close()
		return nil, err
	}
	if err := e.writeOccupancy(f, from, to, list); err != nil {
		f.Close()
		return nil, err
	}
	_ = f.DeleteSheet("Sheet1")

	return f, nil
}

// WriteTo streams the workbook for [from, to] to w.
func (e *Exporter) WriteTo(ctx context.Context, w io.Writer, from, to schedule.Date) error {
	f, err := e.Build(ctx, from, to)
	if err != nil {
		return err
	}
	defer f.Close()

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("error writing workbook: %w", err)
	}
	return nil
}

// SaveFile writes the workbook into the exports directory and returns its path.
func (e *Exporter) SaveFile(ctx context.Context, from, to schedule.Date) (string, error) {
	if err := os.MkdirAll(e.dir, 0o755); err != nil {
		return "", fmt.Errorf("error creating export directory: %w", err)
	}

	f, err := e.Build(ctx, from, to)
	if err != nil {
		return "", err
	}
	defer f.Close()

	filePath := filepath.Join(e.dir, FileName(from, to))
	if err := f.SaveAs(filePath); err != nil {
		return "", fmt.Errorf("error saving file: %w", err)
	}

	e.logger.Info().Str("file_path", filePath).Msg("Excel file created")
	return filePath, nil
}

func (e *Exporter) writeReservations(f *excelize.File, list []*models.Reservation) error {
	index, err := f.NewSheet(reservationsSheet)
	if err != nil {
		return fmt.Errorf("error creating sheet: %w", err)
	}
	f.SetActiveSheet(index)

	header, _ := f.NewStyle(&excelize.Style{
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#DDEBF7"}, Pattern: 1},
		Font: &excelize.Font{Bold: true},
	})
	for i, h := range reservationHeaders {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(reservationsSheet, cell, h)
		_ = f.SetCellStyle(reservationsSheet, cell, cell, header)
	}

	for i, r := range list {
		row := []interface{}{
			r.ReservationDate.String(),
			fmt.Sprintf("%02d:00", r.ReservationTime),
			r.CourtNumber,
			r.MemberID,
			r.MemberFirstName,
			r.MemberLastName,
			r.ID,
			r.CreatedAt.Format("2006-01-02 15:04"),
		}
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		if err := f.SetSheetRow(reservationsSheet, cell, &row); err != nil {
			return fmt.Errorf("error writing row %d: %w", i+2, err)
		}
	}

	_ = f.SetColWidth(reservationsSheet, "A", "C", 12)
	_ = f.SetColWidth(reservationsSheet, "D", "F", 18)
	_ = f.SetColWidth(reservationsSheet, "G", "G", 38)
	_ = f.SetColWidth(reservationsSheet, "H", "H", 18)
	return nil
}

// writeOccupancy puts one row per reservation day in range and one column
// per hour; each cell reads "occupied/courts" and turns red when full.
func (e *Exporter) writeOccupancy(f *excelize.File, from, to schedule.Date, list []*models.Reservation) error {
	if _, err := f.NewSheet(occupancySheet); err != nil {
		return fmt.Errorf("error creating sheet: %w", err)
	}

	counts := make(map[schedule.Date]map[int]int)
	for _, r := range list {
		if counts[r.ReservationDate] == nil {
			counts[r.ReservationDate] = make(map[int]int)
		}
		counts[r.ReservationDate][r.ReservationTime]++
	}

	hours := e.grid.Hours()
	courts := e.grid.CourtCount()

	_ = f.SetCellValue(occupancySheet, "A1", "Date")
	for i, h := range hours {
		cell, _ := excelize.CoordinatesToCellName(i+2, 1)
		_ = f.SetCellValue(occupancySheet, cell, fmt.Sprintf("%02d:00", h))
	}

	full, _ := f.NewStyle(&excelize.Style{
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#FFC7CE"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})
	partial, _ := f.NewStyle(&excelize.Style{
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#FFEB9C"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})

	row := 2
	for d := from; !to.Before(d); d = d.AddDays(1) {
		if !isReservationWeekday(d) && counts[d] == nil {
			continue
		}
		cell, _ := excelize.CoordinatesToCellName(1, row)
		_ = f.SetCellValue(occupancySheet, cell, d.String())

		for i, h := range hours {
			n := counts[d][h]
			cell, _ := excelize.CoordinatesToCellName(i+2, row)
			_ = f.SetCellValue(occupancySheet, cell, fmt.Sprintf("%d/%d", n, courts))
			switch {
			case n >= courts:
				_ = f.SetCellStyle(occupancySheet, cell, cell, full)
			case n > 0:
				_ = f.SetCellStyle(occupancySheet, cell, cell, partial)
			}
		}
		row++
	}

	_ = f.SetColWidth(occupancySheet, "A", "A", 12)
	return nil
}

func isReservationWeekday(d schedule.Date) bool {
	wd := d.Weekday()
	for _, rw := range schedule.ReservationWeekdays {
		if wd == rw {
			return true
		}
	}
	return false
}
