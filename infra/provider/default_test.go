package provider

import "testing"

func TestPortalLabels(t *testing.T) {
	got := portalLabels("Prod", "Prompt Financial Services")
	want := map[string]string{
		"system":     "client-document-portal",
		"data-class": "client-kyc",
		"env":        "prod",
		"firm":       "prompt-financial-services",
	}
	if len(got) != len(want) {
		t.Fatalf("labels = %v", got)
	}
	for k, v := range want {
		if got[k] != v {
			t.Fatalf("label %s = %q, want %q", k, got[k], v)
		}
	}

	if _, ok := portalLabels("dev", "")["firm"]; ok {
		t.Fatalf("firm label should be omitted when unset")
	}
}
