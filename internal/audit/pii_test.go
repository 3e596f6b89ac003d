package audit

import (
	"testing"
)

func TestScanTextContactLine(t *testing.T) {
	counts := ScanText("Contact: john@example.com, Tel: +33 6 12 34 56 78")

	if counts[CategoryEmail] != 1 {
		t.Errorf("email count = %d, want 1", counts[CategoryEmail])
	}
	if counts[CategoryPhoneFR] != 1 {
		t.Errorf("phone_fr count = %d, want 1", counts[CategoryPhoneFR])
	}
	if counts[CategoryPhoneIntl] != 0 {
		t.Errorf("phone_intl count = %d, want 0 (deduplicated against phone_fr)", counts[CategoryPhoneIntl])
	}

	total := 0
	for _, n := range counts {
		total += n
	}
	if total != 2 {
		t.Errorf("total = %d, want 2: %v", total, counts)
	}
}

func TestScanTextCategories(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		category string
		want     int
	}{
		{"email", "write to alice@corp.fr or bob@corp.fr", CategoryEmail, 2},
		{"french mobile", "appelez le 06 12 34 56 78", CategoryPhoneFR, 1},
		{"international", "call +1 415 555 0100 today", CategoryPhoneIntl, 1},
		{"nir", "NIR: 1 85 05 78 006 084 36", CategoryNIR, 1},
		{"iban", "IBAN FR76 3000 6000 0112 3456 7890 189", CategoryIBAN, 1},
		{"card", "card 4111 1111 1111 1111 on file", CategoryCard, 1},
		{"ipv4", "server at 192.168.1.10", CategoryIPv4, 1},
		{"clean", "nothing personal in here", CategoryEmail, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			counts := ScanText(tt.text)
			if counts[tt.category] != tt.want {
				t.Errorf("%s count = %d, want %d (all: %v)", tt.category, counts[tt.category], tt.want, counts)
			}
		})
	}
}

func TestScanChunksAggregation(t *testing.T) {
	report := ScanChunks([]string{
		"clean text",
		"mail me at x@y.fr",
		"also clean",
		"card 4111 1111 1111 1111 and mail z@y.fr",
	})

	if report.Total != 3 {
		t.Errorf("total = %d, want 3", report.Total)
	}
	if report.ByCategory[CategoryEmail] != 2 {
		t.Errorf("email = %d, want 2", report.ByCategory[CategoryEmail])
	}
	if len(report.ChunksWithPII) != 2 || report.ChunksWithPII[0] != 1 || report.ChunksWithPII[1] != 3 {
		t.Errorf("chunks_with_pii = %v, want [1 3]", report.ChunksWithPII)
	}
	if !report.Critical() {
		t.Error("card finding should be critical")
	}
	if len(report.Recommendations()) == 0 {
		t.Error("expected recommendations for email and card findings")
	}
}

func TestReportNotCriticalWithoutCardOrNIR(t *testing.T) {
	report := ScanChunks([]string{"mail me at x@y.fr"})
	if report.Critical() {
		t.Error("email alone should not be critical")
	}
}
