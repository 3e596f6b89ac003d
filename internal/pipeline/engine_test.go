package pipeline

import (
	"context"
	"errors"
	"strings"
	"testing"
)

type fakeStage struct {
	name        string
	validateErr error
	execErr     error
	executed    bool
	onExecute   func(board *Blackboard)
}

func (s *fakeStage) Name() string          { return s.name }
func (s *fakeStage) ValidateConfig() error { return s.validateErr }

func (s *fakeStage) Execute(ctx context.Context, board *Blackboard) error {
	s.executed = true
	if s.onExecute != nil {
		s.onExecute(board)
	}
	return s.execErr
}

func TestEngineRunsStagesInOrder(t *testing.T) {
	var order []string
	mk := func(name string) *fakeStage {
		return &fakeStage{name: name, onExecute: func(*Blackboard) { order = append(order, name) }}
	}
	stages := []Stage{mk("extraction"), mk("chunking"), mk("storage")}

	report, err := NewEngine(stages).Run(context.Background(), NewBlackboard(nil))
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	want := []string{"extraction", "chunking", "storage"}
	if len(order) != len(want) {
		t.Fatalf("executed %d stages, want %d", len(order), len(want))
	}
	for i := range want {
		if order[i] != want[i] {
			t.Errorf("stage %d = %s, want %s", i, order[i], want[i])
		}
	}
	for _, st := range report.Stages {
		if st.State != StageCompleted {
			t.Errorf("stage %s state = %s, want completed", st.Name, st.State)
		}
	}
}

func TestEngineSkipsDisabledStages(t *testing.T) {
	a := &fakeStage{name: "extraction"}
	b := &fakeStage{name: "embedding"}

	engine := NewEngine([]Stage{a, b}, WithEnabledFunc(func(name string) bool {
		return name != "embedding"
	}))

	report, err := engine.Run(context.Background(), NewBlackboard(nil))
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if !a.executed {
		t.Error("extraction should have executed")
	}
	if b.executed {
		t.Error("embedding should have been skipped")
	}
	if report.Stages[1].State != StageSkipped {
		t.Errorf("embedding state = %s, want skipped", report.Stages[1].State)
	}
}

func TestEngineValidatesBeforeExecuting(t *testing.T) {
	bad := &fakeStage{name: "chunking", validateErr: errors.New("overlap out of range")}
	after := &fakeStage{name: "storage"}

	_, err := NewEngine([]Stage{bad, after}).Run(context.Background(), NewBlackboard(nil))
	if err == nil {
		t.Fatal("expected validation error")
	}
	if !strings.Contains(err.Error(), "chunking") {
		t.Errorf("error should name the stage: %v", err)
	}
	if bad.executed || after.executed {
		t.Error("no stage should execute when validation fails")
	}
}

func TestEngineValidationReportsAllStages(t *testing.T) {
	s1 := &fakeStage{name: "chunking", validateErr: errors.New("bad overlap")}
	s2 := &fakeStage{name: "storage", validateErr: errors.New("bad backend")}

	_, err := NewEngine([]Stage{s1, s2}).Run(context.Background(), NewBlackboard(nil))
	if err == nil {
		t.Fatal("expected validation error")
	}
	if !strings.Contains(err.Error(), "chunking") || !strings.Contains(err.Error(), "storage") {
		t.Errorf("error should report both stages: %v", err)
	}
}

func TestEngineStageFailureNamesStage(t *testing.T) {
	failing := &fakeStage{name: "embedding", execErr: errors.New("provider unreachable")}
	after := &fakeStage{name: "storage"}

	report, err := NewEngine([]Stage{failing, after}).Run(context.Background(), NewBlackboard(nil))
	if err == nil {
		t.Fatal("expected run error")
	}
	if !strings.Contains(err.Error(), "stage embedding failed") {
		t.Errorf("error should name the failed stage: %v", err)
	}
	if after.executed {
		t.Error("stages after a failure must not execute")
	}
	if report.Stages[1].State != StagePending {
		t.Errorf("trailing stage state = %s, want pending", report.Stages[1].State)
	}
}

func TestEngineCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	first := &fakeStage{name: "extraction", onExecute: func(*Blackboard) { cancel() }}
	second := &fakeStage{name: "chunking"}

	_, err := NewEngine([]Stage{first, second}).Run(ctx, NewBlackboard(nil))
	if err == nil {
		t.Fatal("expected cancellation error")
	}
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
	if second.executed {
		t.Error("stage after cancellation must not execute")
	}
}

func TestBlackboardActiveChunks(t *testing.T) {
	board := NewBlackboard(nil)
	board.Chunks = []Chunk{{Text: "raw"}}
	if got := board.ActiveChunks()[0].Text; got != "raw" {
		t.Errorf("expected raw chunks, got %q", got)
	}

	board.EnrichedChunks = []Chunk{{Text: "enriched"}}
	if got := board.ActiveChunks()[0].Text; got != "enriched" {
		t.Errorf("expected enriched chunks, got %q", got)
	}

	board.NormalizedChunks = []Chunk{{Text: "normalized"}}
	if got := board.ActiveChunks()[0].Text; got != "normalized" {
		t.Errorf("expected normalized chunks, got %q", got)
	}
}
