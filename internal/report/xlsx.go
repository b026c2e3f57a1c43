package report

import (
	"github.com/xuri/excelize/v2"
)

const (
	sheetCommissions = "Comissões"
	sheetSales       = "Vendas"
)

// Workbook renders both reports into one .xlsx file.
func Workbook(commissions *CommissionReport, sales *SalesReport) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", sheetCommissions); err != nil {
		return nil, err
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return nil, err
	}

	rows := [][]any{{"Barbeiro", "Itens", "Base", "Comissão"}}
	for _, b := range commissions.Barbers {
		rows = append(rows, []any{b.BarberName, b.Items, b.Base.InexactFloat64(), b.Commission.InexactFloat64()})
	}
	rows = append(rows, []any{"Total", "", "", commissions.Total.InexactFloat64()})
	if err := writeRows(f, sheetCommissions, rows, bold); err != nil {
		return nil, err
	}

	if sales != nil {
		if _, err := f.NewSheet(sheetSales); err != nil {
			return nil, err
		}
		rows := [][]any{{"Forma de pagamento", "Vendas", "Total"}}
		for _, m := range sales.Methods {
			rows = append(rows, []any{m.Method, m.Count, m.Total.InexactFloat64()})
		}
		rows = append(rows,
			[]any{"Bruto", sales.Count, sales.Gross.InexactFloat64()},
			[]any{"Descontos", "", sales.Discounts.InexactFloat64()},
			[]any{"Líquido", "", sales.Net.InexactFloat64()},
		)
		if err := writeRows(f, sheetSales, rows, bold); err != nil {
			return nil, err
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func writeRows(f *excelize.File, sheet string, rows [][]any, headerStyle int) error {
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return err
		}
	}

	last, err := excelize.CoordinatesToCellName(len(rows[0]), 1)
	if err != nil {
		return err
	}
	if err := f.SetCellStyle(sheet, "A1", last, headerStyle); err != nil {
		return err
	}
	return f.SetColWidth(sheet, "A", "A", 24)
}
