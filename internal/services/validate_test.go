package services

import (
	"errors"
	"testing"

	"github.com/GregMSThompson/ca-portal/internal/dto"
	"github.com/GregMSThompson/ca-portal/internal/errs"
)

func TestValidateRequestReportsJSONFields(t *testing.T) {
	err := validateRequest(dto.SignupRequest{Email: "not-an-email", Password: "123", FullName: ""})
	var v *errs.ValidationError
	if !errors.As(err, &v) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if v.Fields["email"] != "email" || v.Fields["password"] != "min=6" || v.Fields["fullName"] != "required" {
		t.Fatalf("unexpected fields: %v", v.Fields)
	}
}

func TestValidateIndianIdentifiers(t *testing.T) {
	ok := dto.UpdateProfileRequest{
		EntityType:    "client",
		Mobile:        "9876543210",
		PANNumber:     "ABCDE1234F",
		AadhaarNumber: "123412341234",
		GSTIN:         "27ABCDE1234F1Z5",
	}
	if err := validateRequest(ok); err != nil {
		t.Fatalf("valid identifiers rejected: %v", err)
	}

	bad := dto.UpdateProfileRequest{
		EntityType:    "client",
		Mobile:        "12345",
		PANNumber:     "ABCD1234F",
		AadhaarNumber: "1234",
		GSTIN:         "27ABCDE1234F1X5",
	}
	var v *errs.ValidationError
	if err := validateRequest(bad); !errors.As(err, &v) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	for _, f := range []string{"mobile", "panNumber", "aadhaarNumber", "gstin"} {
		if v.Fields[f] == "" {
			t.Fatalf("expected %s to be reported, fields=%v", f, v.Fields)
		}
	}
}

func TestValidateNotificationTarget(t *testing.T) {
	if err := validateRequest(dto.SendNotificationRequest{Title: "t", Message: "m"}); err == nil {
		t.Fatalf("missing user id without broadcast should fail")
	}
	if err := validateRequest(dto.SendNotificationRequest{Broadcast: true, Title: "t", Message: "m"}); err != nil {
		t.Fatalf("broadcast without user id should pass: %v", err)
	}
}
