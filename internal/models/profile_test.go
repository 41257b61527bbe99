package models

import "testing"

func TestProfileComplete(t *testing.T) {
	individual := &Profile{EntityType: EntityClient, FullName: "Asha Rao", Mobile: "9876543210"}
	if individual.Complete() {
		t.Fatalf("individual without PAN should be incomplete")
	}
	individual.PANNumber = "ABCDE1234F"
	if !individual.Complete() {
		t.Fatalf("individual with name, mobile and PAN should be complete")
	}

	business := &Profile{EntityType: EntityBusiness, CompanyName: "Rao Traders"}
	if business.Complete() {
		t.Fatalf("business without GSTIN should be incomplete")
	}
	business.GSTIN = "27ABCDE1234F1Z5"
	if !business.Complete() {
		t.Fatalf("business with company name and GSTIN should be complete")
	}
}

func TestProfileIsStaff(t *testing.T) {
	for role, want := range map[string]bool{RoleAdmin: true, RoleStaff: true, RoleUser: false, "": false} {
		p := &Profile{Role: role}
		if p.IsStaff() != want {
			t.Fatalf("IsStaff(%q) = %v, want %v", role, p.IsStaff(), want)
		}
	}
}
