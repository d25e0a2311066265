package xlsxGenerator

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/KotFed0t/crypto_trading_sandbox/internal/model"
	"github.com/KotFed0t/crypto_trading_sandbox/utils"
	"github.com/xuri/excelize/v2"
)

const sheetName = "Transactions"

type XLSXGenerator struct{}

func New() *XLSXGenerator {
	return &XLSXGenerator{}
}

func (g *XLSXGenerator) Generate(ctx context.Context, txns []model.Transaction) (fileBytes []byte, fileExtension string, err error) {
	rqID := utils.GetRequestIDFromCtx(ctx)
	op := "XLSXGenerator.Generate"

	slog.Debug("Generate start", slog.String("rqID", rqID), slog.String("op", op))

	f := excelize.NewFile()
	defer func() {
		if err := f.Close(); err != nil {
			slog.Error("got error while closing file", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
		}
	}()

	_, err = f.NewSheet(sheetName)
	if err != nil {
		slog.Error("got error while creating NewSheet", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
		return nil, "", err
	}

	// Удаляем лист по умолчанию "Sheet1"
	if err := f.DeleteSheet("Sheet1"); err != nil {
		slog.Error("got error while deleting Sheet1", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
	}

	if err := g.fillSheet(f, txns); err != nil {
		return nil, "", err
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		slog.Error("got error while Saving file to bytes buffer", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
		return nil, "", err
	}

	slog.Debug("Generate completed", slog.String("rqID", rqID), slog.String("op", op))

	return buf.Bytes(), ".xlsx", nil
}

func (g *XLSXGenerator) fillSheet(f *excelize.File, txns []model.Transaction) error {
	err := f.MergeCell(sheetName, "A1", "H1")
	if err != nil {
		return err
	}

	f.SetCellValue(sheetName, "A1", "Trade history")

	styleID, err := f.NewStyle(&excelize.Style{
		Alignment: &excelize.Alignment{
			Horizontal: "center",
			Vertical:   "center",
		},
		Font: &excelize.Font{
			Bold: true,
			Size: 11,
		},
		Fill: excelize.Fill{
			Type:    "pattern",
			Pattern: 1,
			Color:   []string{"#cfe2f3"}, // Светло-голубой цвет
		},
	})
	if err != nil {
		return err
	}

	if err := f.SetCellStyle(sheetName, "A1", "A1", styleID); err != nil {
		return fmt.Errorf("ошибка применения стиля: %w", err)
	}

	_ = f.SetCellStr(sheetName, "A2", "date")
	_ = f.SetCellStr(sheetName, "B2", "type")
	_ = f.SetCellStr(sheetName, "C2", "symbol")
	_ = f.SetCellStr(sheetName, "D2", "name")
	_ = f.SetCellStr(sheetName, "E2", "quantity")
	_ = f.SetCellStr(sheetName, "F2", "price per unit")
	_ = f.SetCellStr(sheetName, "G2", "total amount")
	_ = f.SetCellStr(sheetName, "H2", "realized gain/loss")

	for i, txn := range txns {
		row := i + 3
		_ = f.SetCellValue(sheetName, fmt.Sprintf("A%d", row), txn.CreatedAt)
		_ = f.SetCellStr(sheetName, fmt.Sprintf("B%d", row), txn.Type)
		_ = f.SetCellStr(sheetName, fmt.Sprintf("C%d", row), txn.Symbol)
		_ = f.SetCellStr(sheetName, fmt.Sprintf("D%d", row), txn.Name)
		_ = f.SetCellValue(sheetName, fmt.Sprintf("E%d", row), txn.Quantity.InexactFloat64())
		_ = f.SetCellValue(sheetName, fmt.Sprintf("F%d", row), txn.PricePerUnit.InexactFloat64())
		_ = f.SetCellValue(sheetName, fmt.Sprintf("G%d", row), txn.TotalAmount.InexactFloat64())
		if txn.Type == model.TransactionTypeSell {
			_ = f.SetCellValue(sheetName, fmt.Sprintf("H%d", row), txn.RealizedGainLoss.InexactFloat64())
		}
	}

	return nil
}
