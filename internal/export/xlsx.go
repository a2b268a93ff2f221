package export

import (
	"fmt"
	"io"
	"time"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"github.com/Veraticus/ponto/internal/attendance"
	"github.com/Veraticus/ponto/internal/model"
)

// Sheet names in the generated workbook.
const (
	SheetDaily     = "Registros"
	SheetBalance   = "Saldo"
	SheetStatement = "Extrato"
)

// Day status labels used in the statement sheet.
const (
	StatusOK         = "OK"
	StatusIncomplete = "Ponto Incompleto"
)

// Hours converts a duration into decimal hours rounded to two places.
func Hours(d time.Duration) decimal.Decimal {
	return decimal.NewFromInt(int64(d / time.Minute)).Div(decimal.NewFromInt(60)).Round(2)
}

// WriteXLSX writes a workbook with the daily listing, per-employee balances and a per-day statement.
func WriteXLSX(w io.Writer, report attendance.Report) error {
	f, err := buildWorkbook(report)
	if err != nil {
		return err
	}
	defer func() { _ = f.Close() }()

	if err := f.Write(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

func buildWorkbook(report attendance.Report) (*excelize.File, error) {
	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", SheetDaily); err != nil {
		_ = f.Close()
		return nil, err
	}
	for _, name := range []string{SheetBalance, SheetStatement} {
		if _, err := f.NewSheet(name); err != nil {
			_ = f.Close()
			return nil, err
		}
	}

	header, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		_ = f.Close()
		return nil, err
	}

	steps := []func(*excelize.File, int, attendance.Report) error{writeDaily, writeBalances, writeStatement}
	for _, step := range steps {
		if err := step(f, header, report); err != nil {
			_ = f.Close()
			return nil, err
		}
	}
	return f, nil
}

func setRow(f *excelize.File, sheet string, row int, values []any) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	return f.SetSheetRow(sheet, cell, &values)
}

func setHeader(f *excelize.File, sheet string, style int, values ...any) error {
	if err := setRow(f, sheet, 1, values); err != nil {
		return err
	}
	last, err := excelize.CoordinatesToCellName(len(values), 1)
	if err != nil {
		return err
	}
	return f.SetCellStyle(sheet, "A1", last, style)
}

func writeDaily(f *excelize.File, style int, report attendance.Report) error {
	header := make([]any, len(DailyHeader))
	for i, h := range DailyHeader {
		header[i] = h
	}
	if err := setHeader(f, SheetDaily, style, header...); err != nil {
		return err
	}
	for i, s := range report.Summaries {
		row := DailyRow(s)
		if err := setRow(f, SheetDaily, i+2, []any{row[0], row[1], row[2], row[3]}); err != nil {
			return err
		}
	}
	return nil
}

func writeBalances(f *excelize.File, style int, report attendance.Report) error {
	if err := setHeader(f, SheetBalance, style, "Nome", "Dias completos", "Dias incompletos", "Saldo", "Saldo (horas)"); err != nil {
		return err
	}
	for i, b := range report.Balances {
		complete := len(b.Days) - b.Incomplete
		values := []any{b.EmployeeName, complete, b.Incomplete, attendance.FormatBalance(b.Total), Hours(b.Total).InexactFloat64()}
		if err := setRow(f, SheetBalance, i+2, values); err != nil {
			return err
		}
	}
	return nil
}

func writeStatement(f *excelize.File, style int, report attendance.Report) error {
	if err := setHeader(f, SheetStatement, style, "Nome", "Data", "Entrada", "Saída", "Saldo do dia", "Status"); err != nil {
		return err
	}
	row := 2
	for _, b := range report.Balances {
		for _, s := range b.Days {
			balance, status := "", StatusIncomplete
			if d, ok := report.Policy.DayBalance(s); ok {
				balance, status = attendance.FormatBalance(d), StatusOK
			}
			values := []any{s.EmployeeName, model.FormatDate(s.Date), s.Entry.String(), s.ExitString(), balance, status}
			if err := setRow(f, SheetStatement, row, values); err != nil {
				return err
			}
			row++
		}
	}
	return nil
}
