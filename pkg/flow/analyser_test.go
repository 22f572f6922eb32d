package flow

import (
	"sync/atomic"
	"testing"

	"github.com/dexlens/dexlens/pkg/dex"
	"github.com/dexlens/dexlens/pkg/model"
)

// buildDeadBranchMethod builds:
//
//	int x = 1;
//	if (x == 2) { return 20; } else { return 10; }
//
// x is a compile-time constant, so the analyser should see the
// comparison never holds and flag the if-body as dead.
func buildDeadBranchMethod() *model.Method {
	class := &model.Class{Descriptor: "LPick;"}
	return &model.Method{
		Descriptor:  "LPick;->pick()I",
		Name:        "pick",
		AccessFlags: dex.AccStatic,
		Class:       class,
		HasCode:     true,
		Code: dex.CodeItem{
			RegistersSize: 3,
			Insns: []uint16{
				0x1012, // 0: const/4 v0, #1
				0x2112, // 1: const/4 v1, #2
				0x1032, // 2: if-eq v0, v1, +5
				0x0005, // 3: (branch offset)
				0x0213, // 4: const/16 v2, #10   (fallthrough: x != 2)
				0x000a, // 5: (10)
				0x020f, // 6: return v2
				0x0213, // 7: const/16 v2, #20   (taken: dead, x never equals 2)
				0x0014, // 8: (20)
				0x020f, // 9: return v2
			},
		},
	}
}

func TestAnalyseDeadBranch(t *testing.T) {
	method := buildDeadBranchMethod()

	result, err := Analyse(method, Options{})
	if err != nil {
		t.Fatalf("Analyse: %v", err)
	}
	if result.Incomplete {
		t.Fatal("expected a complete analysis for a seven-instruction method")
	}
	if len(result.Branches) != 1 {
		t.Fatalf("len(Branches) = %d, want 1", len(result.Branches))
	}

	b := result.Branches[0]
	if b.PC != 2 {
		t.Errorf("branch PC = %d, want 2", b.PC)
	}
	if b.TakenPC != 7 {
		t.Errorf("branch TakenPC = %d, want 7", b.TakenPC)
	}
	if b.FallthroughPC != 4 {
		t.Errorf("branch FallthroughPC = %d, want 4", b.FallthroughPC)
	}
	if b.DeadSide != DeadSideTaken {
		t.Errorf("branch DeadSide = %v, want %v (x==2 never holds)", b.DeadSide, DeadSideTaken)
	}
}

func TestAnalyseDeadBranchConservativeStillDecidesOnFullConcreteOperands(t *testing.T) {
	// Conservative mode only changes how an Unknown operand is treated;
	// it does not soften a dead-branch verdict reached from two fully
	// concrete operands.
	method := buildDeadBranchMethod()

	result, err := Analyse(method, Options{Conservative: true})
	if err != nil {
		t.Fatalf("Analyse: %v", err)
	}
	if len(result.Branches) != 1 || result.Branches[0].DeadSide != DeadSideTaken {
		t.Fatalf("Branches = %+v, want one DeadSideTaken branch even in conservative mode", result.Branches)
	}
}

// buildSymbolicBranchMethod builds an instance method whose single
// branch tests a register the analyser never pins to a constant —
// both sides must stay reachable.
func buildSymbolicBranchMethod() *model.Method {
	class := &model.Class{Descriptor: "LPick;"}
	return &model.Method{
		Descriptor: "LPick;->pickFrom(I)I",
		Name:       "pickFrom",
		Proto:      dex.Proto{Shorty: "II", ReturnType: "I", ParamTypes: []string{"I"}},
		Class:      class,
		HasCode:    true,
		Code: dex.CodeItem{
			RegistersSize: 2,
			InsSize:       1,
			Insns: []uint16{
				0x0038, // 0: if-eqz v0, +4
				0x0004, // 1: (branch offset)
				0x010f, // 2: return v1
				0x0000, // 3: nop
				0x000f, // 4: return v0
			},
		},
	}
}

func TestAnalyseSymbolicBranchBothSidesSurvive(t *testing.T) {
	method := buildSymbolicBranchMethod()

	result, err := Analyse(method, Options{})
	if err != nil {
		t.Fatalf("Analyse: %v", err)
	}
	if len(result.Branches) != 1 {
		t.Fatalf("len(Branches) = %d, want 1", len(result.Branches))
	}
	if result.Branches[0].DeadSide != DeadSideNone {
		t.Errorf("DeadSide = %v, want %v (parameter value is unknown)", result.Branches[0].DeadSide, DeadSideNone)
	}
}

func TestAnalyseCancellationMarksIncomplete(t *testing.T) {
	method := buildDeadBranchMethod()
	var cancel atomic.Bool
	cancel.Store(true)

	result, err := Analyse(method, Options{Cancel: &cancel})
	if err != nil {
		t.Fatalf("Analyse: %v", err)
	}
	if !result.Incomplete {
		t.Error("expected Incomplete when Cancel is already set before the first step")
	}
}

func TestAnalyseBatchPreservesOrder(t *testing.T) {
	methods := []*model.Method{
		buildDeadBranchMethod(),
		buildSymbolicBranchMethod(),
		buildDeadBranchMethod(),
	}

	results := AnalyseBatch(methods, Options{})
	if len(results) != 3 {
		t.Fatalf("len(results) = %d, want 3", len(results))
	}
	for i, r := range results {
		if r.Method != methods[i] {
			t.Errorf("results[%d].Method mismatch, batch must preserve input order", i)
		}
		if r.Err != nil {
			t.Errorf("results[%d].Err = %v, want nil", i, r.Err)
		}
	}
	if len(results[0].Result.Branches) != 1 || results[0].Result.Branches[0].DeadSide != DeadSideTaken {
		t.Error("results[0] should be the dead-branch method's outcome")
	}
	if len(results[1].Result.Branches) != 1 || results[1].Result.Branches[0].DeadSide != DeadSideNone {
		t.Error("results[1] should be the symbolic-branch method's outcome")
	}
}
