package document

import (
	"context"
	"fmt"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/coopec/missions-backend/internal/application/port"
)

// ExcelRenderer produces the mission order workbook handed to the agent
// once validation completes.
type ExcelRenderer struct {
	organizationName string
	logger           *zap.Logger
}

// NewExcelRenderer creates a new Excel mission order renderer
func NewExcelRenderer(organizationName string, logger *zap.Logger) *ExcelRenderer {
	return &ExcelRenderer{
		organizationName: organizationName,
		logger:           logger,
	}
}

func (r *ExcelRenderer) RenderMissionOrder(ctx context.Context, data *port.MissionOrderData) ([]byte, string, error) {
	if data == nil || data.Mission == nil || data.Creator == nil {
		return nil, "", fmt.Errorf("incomplete mission order data")
	}

	f := excelize.NewFile()
	defer f.Close()

	sheet := f.GetSheetName(0)
	mission := data.Mission

	r.setCell(f, sheet, "A1", r.organizationName)
	r.setCell(f, sheet, "A2", "ORDRE DE MISSION")
	r.setCell(f, sheet, "A3", mission.Reference)

	r.setCell(f, sheet, "A5", "Agent")
	r.setCell(f, sheet, "B5", fmt.Sprintf("%s %s", data.Creator.FirstName, data.Creator.LastName))
	r.setCell(f, sheet, "A6", "Entité")
	r.setCell(f, sheet, "B6", data.EntityName)
	r.setCell(f, sheet, "A7", "Objet")
	r.setCell(f, sheet, "B7", mission.Title)
	r.setCell(f, sheet, "A8", "Destination")
	r.setCell(f, sheet, "B8", mission.Location)
	r.setCell(f, sheet, "A9", "Période")
	r.setCell(f, sheet, "B9", fmt.Sprintf("du %s au %s",
		mission.StartDate.Format("02/01/2006"),
		mission.EndDate.Format("02/01/2006")))
	r.setCell(f, sheet, "A10", "Durée")
	r.setCell(f, sheet, "B10", fmt.Sprintf("%d jour(s)", mission.DurationDays()))
	r.setCell(f, sheet, "A11", "Budget estimé")
	r.setCell(f, sheet, "B11", fmt.Sprintf("%d FCFA", mission.BudgetEstimate))

	buf, err := f.WriteToBuffer()
	if err != nil {
		r.logger.Error("Failed to render mission order",
			zap.String("reference", mission.Reference),
			zap.Error(err))
		return nil, "", fmt.Errorf("failed to render mission order: %w", err)
	}

	fileName := fmt.Sprintf("ordre-mission-%s.xlsx", mission.Reference)

	r.logger.Info("Mission order rendered",
		zap.String("reference", mission.Reference),
		zap.Int("size", buf.Len()))

	return buf.Bytes(), fileName, nil
}

func (r *ExcelRenderer) setCell(f *excelize.File, sheet, cell string, value interface{}) {
	if err := f.SetCellValue(sheet, cell, value); err != nil {
		r.logger.Warn("Failed to set cell value",
			zap.String("cell", cell),
			zap.Error(err))
	}
}

// Verify interface compliance
var _ port.DocumentRenderer = (*ExcelRenderer)(nil)
