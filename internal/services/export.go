package services

import (
	"context"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/GregMSThompson/ca-portal/internal/dto"
	"github.com/GregMSThompson/ca-portal/internal/errs"
	"github.com/GregMSThompson/ca-portal/internal/fiscal"
	"github.com/GregMSThompson/ca-portal/internal/models"
	"github.com/GregMSThompson/ca-portal/pkg/logger"
)

const exportDateLayout = "2006-01-02 15:04"

var (
	clientColumns      = []any{"UID", "Name", "Email", "Mobile", "Role", "Entity Type", "Company", "GSTIN", "Profile Complete", "Joined"}
	documentColumns    = []any{"Document ID", "Owner", "Owner Name", "Application", "Type", "File", "Status", "Financial Year", "Uploaded", "Review Note"}
	applicationColumns = []any{"Application ID", "Owner", "Owner Name", "Type", "Status", "Financial Year", "Submitted", "Review Note"}
)

// Export builds an xlsx workbook with Clients, Documents and Applications
// sheets. A financial year narrows the documents and applications.
func (s *adminService) Export(ctx context.Context, filter dto.ExportFilter) ([]byte, error) {
	if filter.FinancialYear != "" {
		if _, err := fiscal.Parse(filter.FinancialYear); err != nil {
			return nil, errs.NewFieldValidationError(err.Error(), map[string]string{"financialYear": "format"})
		}
	}

	profiles, err := s.profiles.ListSummaries(ctx)
	if err != nil {
		return nil, err
	}
	docs, err := s.docs.List(ctx, "", dto.DocumentFilter{FinancialYear: filter.FinancialYear})
	if err != nil {
		return nil, err
	}
	apps, err := s.apps.List(ctx, "", filter.FinancialYear)
	if err != nil {
		return nil, err
	}

	names := make(map[string]string, len(profiles))
	clients := make([]*models.Profile, 0, len(profiles))
	for _, p := range profiles {
		names[p.UID] = displayName(p)
		if p.Role != models.RoleAdmin {
			clients = append(clients, p)
		}
	}

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", "Clients"); err != nil {
		return nil, exportError(err)
	}
	clientRows := make([][]any, 0, len(clients))
	for _, p := range clients {
		clientRows = append(clientRows, []any{
			p.UID, p.FullName, p.Email, p.Mobile, p.Role, p.EntityType,
			p.CompanyName, p.GSTIN, yesNo(p.ProfileCompleted), formatTime(p.CreatedAt),
		})
	}
	if err := writeSheet(f, "Clients", clientColumns, clientRows); err != nil {
		return nil, err
	}

	docRows := make([][]any, 0, len(docs))
	for _, d := range docs {
		docRows = append(docRows, []any{
			d.DocumentID, d.UserID, names[d.UserID], d.ApplicationType, d.TypeName,
			d.FileName, d.Status, d.FinancialYear, formatTime(d.CreatedAt), d.ReviewNote,
		})
	}
	if err := writeSheet(f, "Documents", documentColumns, docRows); err != nil {
		return nil, err
	}

	appRows := make([][]any, 0, len(apps))
	for _, a := range apps {
		appRows = append(appRows, []any{
			a.ApplicationID, a.UserID, names[a.UserID], a.Type, a.Status,
			a.FinancialYear, formatTime(a.CreatedAt), a.ReviewNote,
		})
	}
	if err := writeSheet(f, "Applications", applicationColumns, appRows); err != nil {
		return nil, err
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, exportError(err)
	}
	logger.FromContext(ctx).Info("export generated",
		"financial_year", filter.FinancialYear,
		"clients", len(clientRows), "documents", len(docRows), "applications", len(appRows))
	return buf.Bytes(), nil
}

func writeSheet(f *excelize.File, sheet string, header []any, rows [][]any) error {
	if idx, _ := f.GetSheetIndex(sheet); idx < 0 {
		if _, err := f.NewSheet(sheet); err != nil {
			return exportError(err)
		}
	}
	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return exportError(err)
	}
	sw, err := f.NewStreamWriter(sheet)
	if err != nil {
		return exportError(err)
	}
	headerCells := make([]any, len(header))
	for i, h := range header {
		headerCells[i] = excelize.Cell{StyleID: bold, Value: h}
	}
	if err := sw.SetRow("A1", headerCells); err != nil {
		return exportError(err)
	}
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return exportError(err)
		}
		if err := sw.SetRow(cell, row); err != nil {
			return exportError(err)
		}
	}
	if err := sw.Flush(); err != nil {
		return exportError(err)
	}
	return nil
}

func exportError(err error) error {
	return errs.NewStorageError("export.xlsx", "failed to build export workbook", err)
}

func displayName(p *models.Profile) string {
	if p.EntityType == models.EntityBusiness && p.CompanyName != "" {
		return p.CompanyName
	}
	return p.FullName
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(exportDateLayout)
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
