// Package export builds the Excel workbook sent by /prices_export.
package export

import (
	"bytes"
	"fmt"
	"time"

	"github.com/Dmitrii-VO/SaitAlevit/pkg/content"

	"github.com/xuri/excelize/v2"
)

const (
	SheetPrices   = "Цены"
	SheetProjects = "Проекты"
)

// Workbook renders the price sheet and the project catalogue with per-finish estimates.
func Workbook(repo *content.Repository, now time.Time) ([]byte, error) {
	prices, err := repo.Prices.Read()
	if err != nil {
		return nil, fmt.Errorf("read prices: %w", err)
	}
	projects, err := repo.Projects.Read()
	if err != nil {
		return nil, fmt.Errorf("read projects: %w", err)
	}

	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if err := f.SetSheetName(f.GetSheetName(0), SheetPrices); err != nil {
		return nil, err
	}
	if _, err := f.NewSheet(SheetProjects); err != nil {
		return nil, err
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return nil, err
	}

	if err := writePrices(f, prices, now, bold); err != nil {
		return nil, fmt.Errorf("prices sheet: %w", err)
	}
	if err := writeProjects(f, projects, prices, bold); err != nil {
		return nil, fmt.Errorf("projects sheet: %w", err)
	}

	if idx, err := f.GetSheetIndex(SheetPrices); err == nil {
		f.SetActiveSheet(idx)
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, fmt.Errorf("write workbook: %w", err)
	}
	return buf.Bytes(), nil
}

func writePrices(f *excelize.File, p content.PriceSheet, now time.Time, bold int) error {
	rows := [][]interface{}{
		{"Вариант отделки", "Цена за м², ₽"},
		{"Под самоотделку", p.Shell},
		{"Чистовая отделка", p.Clean},
		{"Под ключ", p.Turnkey},
		{},
		{"Выгружено", now.Format("02.01.2006 15:04")},
	}
	if err := setRows(f, SheetPrices, rows); err != nil {
		return err
	}
	if err := f.SetCellStyle(SheetPrices, "A1", "B1", bold); err != nil {
		return err
	}
	return f.SetColWidth(SheetPrices, "A", "A", 24)
}

func writeProjects(f *excelize.File, projects []content.Project, p content.PriceSheet, bold int) error {
	rows := [][]interface{}{{
		"ID", "Название", "Этажность", "Площадь, м²", "Стоимость, ₽", "Статус",
		"Под самоотделку, ₽", "Чистовая отделка, ₽", "Под ключ, ₽", "Создан",
	}}
	for _, pr := range projects {
		status := "скрыт"
		if pr.Status.Published() {
			status = "опубликован"
		}
		created := ""
		if !pr.CreatedAt.IsZero() {
			created = pr.CreatedAt.Format("02.01.2006")
		}
		rows = append(rows, []interface{}{
			pr.ID, pr.Title, pr.Floors, pr.Area, pr.Price, status,
			pr.Area * p.Shell, pr.Area * p.Clean, pr.Area * p.Turnkey, created,
		})
	}
	if err := setRows(f, SheetProjects, rows); err != nil {
		return err
	}
	if err := f.SetCellStyle(SheetProjects, "A1", "J1", bold); err != nil {
		return err
	}
	return f.SetColWidth(SheetProjects, "B", "B", 32)
}

func setRows(f *excelize.File, sheet string, rows [][]interface{}) error {
	for i, row := range rows {
		if len(row) == 0 {
			continue
		}
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return err
		}
	}
	return nil
}
