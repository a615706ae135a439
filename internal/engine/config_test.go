package engine

import (
	"runtime"
	"strings"
	"testing"
)

func TestDefaultConfiguration(t *testing.T) {
	c := DefaultConfiguration()
	if c.Preset() != PresetMedium {
		t.Errorf("Preset() = %v, want medium", c.Preset())
	}
	if c.Skill() != 10 || c.Depth() != 10 || c.MoveTime() != 1000 {
		t.Errorf("medium values = %d/%d/%d", c.Skill(), c.Depth(), c.MoveTime())
	}
	if want := max(1, runtime.NumCPU()/2); c.Threads() != want {
		t.Errorf("Threads() = %d, want %d", c.Threads(), want)
	}
	if c.HashMB() != 256 || c.MultiPV() != 1 || c.Ponder() {
		t.Errorf("unexpected defaults: %+v", c)
	}
}

func TestPresets(t *testing.T) {
	tests := []struct {
		preset               Preset
		skill, depth, moveMS int
	}{
		{PresetEasy, 5, 5, 500},
		{PresetMedium, 10, 10, 1000},
		{PresetHard, 20, 20, 2000},
		{PresetCustom, 5, 5, 500},
	}
	for _, tt := range tests {
		c := DefaultConfiguration()
		c.ApplyPreset(PresetEasy)
		c.ApplyPreset(tt.preset)
		if c.Preset() != tt.preset || c.Skill() != tt.skill || c.Depth() != tt.depth || c.MoveTime() != tt.moveMS {
			t.Errorf("%s: got %s %d/%d/%d", tt.preset, c.Preset(), c.Skill(), c.Depth(), c.MoveTime())
		}
	}
}

func TestSettersClampAndForceCustom(t *testing.T) {
	c := DefaultConfiguration()
	c.SetSkill(42)
	if c.Skill() != 20 || c.Preset() != PresetCustom {
		t.Errorf("SetSkill(42) = %d, preset %s", c.Skill(), c.Preset())
	}

	c = DefaultConfiguration()
	c.SetMoveTime(5)
	if c.MoveTime() != 100 || c.Preset() != PresetCustom {
		t.Errorf("SetMoveTime(5) = %d, preset %s", c.MoveTime(), c.Preset())
	}

	c.SetThreads(0)
	c.SetHashMB(1 << 20)
	c.SetDepth(0)
	if c.Threads() != 1 || c.HashMB() != 16384 || c.Depth() != 1 {
		t.Errorf("clamps: threads %d hash %d depth %d", c.Threads(), c.HashMB(), c.Depth())
	}

	c = DefaultConfiguration()
	c.SetMultiPV(99)
	c.SetPonder(true)
	if c.MultiPV() != 10 || !c.Ponder() || c.Preset() != PresetMedium {
		t.Errorf("multipv/ponder should clamp without leaving the preset: %d %v %s", c.MultiPV(), c.Ponder(), c.Preset())
	}
}

func TestCommands(t *testing.T) {
	c := DefaultConfiguration()
	c.ApplyPreset(PresetHard)
	if got, want := c.GoCommand(), "go depth 20 movetime 2000"; got != want {
		t.Errorf("GoCommand() = %q, want %q", got, want)
	}
	opts := strings.Join(c.OptionCommands(), "\n")
	for _, want := range []string{
		"setoption name Hash value 256",
		"setoption name Skill Level value 20",
		"setoption name MultiPV value 1",
		"setoption name Ponder value false",
	} {
		if !strings.Contains(opts, want) {
			t.Errorf("OptionCommands() missing %q", want)
		}
	}
}

func TestSummaryAndParsePreset(t *testing.T) {
	c := DefaultConfiguration()
	if got := c.Summary(); got != "Medium (Skill 10, Depth 10)" {
		t.Errorf("Summary() = %q", got)
	}
	c.SetMoveTime(1500)
	if got := c.Summary(); got != "Custom (Skill 10, Depth 10, 1500ms)" {
		t.Errorf("Summary() = %q", got)
	}
	if p, err := ParsePreset("hard"); err != nil || p != PresetHard {
		t.Errorf("ParsePreset(hard) = %v, %v", p, err)
	}
	if _, err := ParsePreset("insane"); err == nil {
		t.Error("ParsePreset should reject unknown names")
	}
}
