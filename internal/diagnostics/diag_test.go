package diagnostics

import (
	"errors"
	"testing"
)

func TestFromError(t *testing.T) {
	d := FromError(Err, CodeTxFail, "frame dropped", errors.New("spi: busy"))
	if d.Detail != "spi: busy" {
		t.Fatalf("detail = %q", d.Detail)
	}
	if len(d.LikelyCauses) == 0 || len(d.SuggestedFixes) == 0 {
		t.Fatalf("expected hints for %s, got %+v", CodeTxFail, d)
	}
	if d.At.IsZero() {
		t.Fatal("timestamp not set")
	}

	d = FromError(Info, CodeTxRecover, "frames flowing again", nil)
	if d.Detail != "" || d.LikelyCauses != nil {
		t.Fatalf("unexpected fields: %+v", d)
	}
}
