package cmd

import (
	"errors"
	"strings"
	"testing"

	"github.com/docpipe/docpipe/internal/pipeline"
)

func TestFailureSummaryNamesFailedStage(t *testing.T) {
	report := &pipeline.RunReport{
		Stages: []pipeline.StageStatus{
			{Name: "extraction", State: pipeline.StageCompleted},
			{Name: "chunking", State: pipeline.StageFailed, Error: "no documents to chunk"},
			{Name: "enrichment", State: pipeline.StagePending},
		},
	}

	got := failureSummary(report, errors.New("stage chunking failed; no documents to chunk"))
	want := "stage=chunking error=no documents to chunk"
	if got != want {
		t.Errorf("failureSummary = %q, want %q", got, want)
	}
}

func TestFailureSummaryStartupFallback(t *testing.T) {
	report := &pipeline.RunReport{
		Stages: []pipeline.StageStatus{
			{Name: "extraction", State: pipeline.StagePending},
		},
	}

	got := failureSummary(report, errors.New("invalid stage configuration"))
	if !strings.HasPrefix(got, "stage=startup error=") {
		t.Errorf("failureSummary = %q, want startup prefix", got)
	}
}
