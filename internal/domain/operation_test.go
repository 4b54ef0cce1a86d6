package domain

import "testing"

func TestParseMediaKind(t *testing.T) {
	tests := []struct {
		in   string
		want MediaKind
		ok   bool
	}{
		{"IMAGE", MediaKindImage, true},
		{" video ", MediaKindVideo, true},
		{"Image", MediaKindImage, true},
		{"audio", "", false},
		{"", "", false},
	}
	for _, tc := range tests {
		got, ok := ParseMediaKind(tc.in)
		if got != tc.want || ok != tc.ok {
			t.Fatalf("ParseMediaKind(%q) = %q,%v want %q,%v", tc.in, got, ok, tc.want, tc.ok)
		}
	}
}

func TestStateTerminal(t *testing.T) {
	if StateProcessing.Terminal() {
		t.Fatal("PROCESSING must not be terminal")
	}
	if !StateCompleted.Terminal() || !StateFailed.Terminal() {
		t.Fatal("COMPLETED and FAILED must be terminal")
	}
}

func TestStatusConstructorsSetOneField(t *testing.T) {
	if got := Completed("gs://b/x.mp4"); got.State != StateCompleted || got.ArtifactURI != "gs://b/x.mp4" || got.Reason != "" {
		t.Fatalf("Completed = %+v", got)
	}
	if got := Failed("blocked"); got.State != StateFailed || got.Reason != "blocked" || got.ArtifactURI != "" {
		t.Fatalf("Failed = %+v", got)
	}
	if got := Processing(); got != (OperationStatus{State: StateProcessing}) {
		t.Fatalf("Processing = %+v", got)
	}
}
