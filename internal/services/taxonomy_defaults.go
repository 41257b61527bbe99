package services

import "github.com/GregMSThompson/ca-portal/internal/models"

type seedType struct {
	name          string
	required      bool
	allowMultiple bool
}

type seedCategory struct {
	appType string
	name    string
	types   []seedType
}

var defaultChecklists = []seedCategory{
	{models.ApplicationLoan, "KYC", []seedType{
		{"Aadhaar Card", true, false},
		{"PAN Card", true, false},
		{"Passport Photo", true, false},
	}},
	{models.ApplicationLoan, "Income Proof", []seedType{
		{"Salary Slips (6 Months)", true, true},
		{"Bank Statements (1 Year)", true, true},
		{"ITR Copies (3 Years)", true, true},
	}},
	{models.ApplicationLoan, "Business & Property", []seedType{
		{"Property Documents", false, true},
		{"Business Proof", false, true},
		{"GST Returns", false, true},
		{"Existing Loan Details", false, true},
		{"Other Documents", false, true},
	}},
	{models.ApplicationTax, "KYC", []seedType{
		{"Aadhaar Card", true, false},
		{"PAN Card", true, false},
	}},
	{models.ApplicationTax, "Bank & Income", []seedType{
		{"All Bank Statements (Last 3 Years)", true, true},
		{"TDS Certificate", false, true},
		{"Capital Gain Statements", false, true},
		{"GST Summary (optional)", false, true},
	}},
	{models.ApplicationTax, "Deductions", []seedType{
		{"LIC Premium Receipts", false, true},
		{"Mediclaim Receipts", false, true},
		{"School Fee Receipts", false, true},
		{"Home Loan Statement", false, true},
		{"Rent Receipts", false, true},
	}},
	{models.ApplicationTax, "Other", []seedType{
		{"Other Documents", false, true},
	}},
}

func defaultTaxonomy(newID func() string) ([]*models.DocumentCategory, []*models.DocumentType) {
	var cats []*models.DocumentCategory
	var types []*models.DocumentType
	for i, sc := range defaultChecklists {
		c := &models.DocumentCategory{
			CategoryID:      newID(),
			Name:            sc.name,
			ApplicationType: sc.appType,
			OrderNo:         i + 1,
			IsActive:        true,
		}
		cats = append(cats, c)
		for j, st := range sc.types {
			types = append(types, &models.DocumentType{
				TypeID:        newID(),
				CategoryID:    c.CategoryID,
				Name:          st.name,
				OrderNo:       j + 1,
				IsRequired:    st.required,
				IsActive:      true,
				AllowMultiple: st.allowMultiple,
			})
		}
	}
	return cats, types
}
