package engine

import (
	"fmt"
	"runtime"
)

type Preset string

const (
	PresetEasy   Preset = "easy"
	PresetMedium Preset = "medium"
	PresetHard   Preset = "hard"
	PresetCustom Preset = "custom"
)

type presetValues struct {
	skill    int
	depth    int
	moveTime int
}

var presets = map[Preset]presetValues{
	PresetEasy:   {skill: 5, depth: 5, moveTime: 500},
	PresetMedium: {skill: 10, depth: 10, moveTime: 1000},
	PresetHard:   {skill: 20, depth: 20, moveTime: 2000},
	PresetCustom: {},
}

// ParsePreset accepts the lower-case preset names.
func ParsePreset(s string) (Preset, error) {
	p := Preset(s)
	if _, ok := presets[p]; !ok {
		return "", fmt.Errorf("unknown preset %q", s)
	}
	return p, nil
}

func (p Preset) DisplayName() string {
	switch p {
	case PresetEasy:
		return "Easy"
	case PresetMedium:
		return "Medium"
	case PresetHard:
		return "Hard"
	}
	return "Custom"
}

const (
	minThreads, maxThreads   = 1, 128
	minHash, maxHash         = 1, 16384
	minSkill, maxSkill       = 0, 20
	minDepth, maxDepth       = 1, 100
	minMoveTime, maxMoveTime = 100, 60000
	minMultiPV, maxMultiPV   = 1, 10
)

// Configuration holds the engine options and search limits. Setters clamp
// their argument; changing threads, hash, skill, depth or move time switches
// the preset to custom.
type Configuration struct {
	preset   Preset
	threads  int
	hashMB   int
	skill    int
	depth    int
	moveTime int
	multiPV  int
	ponder   bool
}

// DefaultConfiguration is the medium preset with half the CPUs and 256 MB hash.
func DefaultConfiguration() Configuration {
	c := Configuration{
		threads: max(1, runtime.NumCPU()/2),
		hashMB:  256,
		multiPV: 1,
	}
	c.ApplyPreset(PresetMedium)
	return c
}

// ApplyPreset sets skill, depth and move time from a preset. Custom only
// relabels the configuration and keeps the current values.
func (c *Configuration) ApplyPreset(p Preset) {
	v, ok := presets[p]
	if !ok {
		return
	}
	c.preset = p
	if p == PresetCustom {
		return
	}
	c.skill = v.skill
	c.depth = v.depth
	c.moveTime = v.moveTime
}

func (c *Configuration) SetThreads(n int) {
	c.threads = clamp(n, minThreads, maxThreads)
	c.preset = PresetCustom
}

func (c *Configuration) SetHashMB(n int) {
	c.hashMB = clamp(n, minHash, maxHash)
	c.preset = PresetCustom
}

func (c *Configuration) SetSkill(n int) {
	c.skill = clamp(n, minSkill, maxSkill)
	c.preset = PresetCustom
}

func (c *Configuration) SetDepth(n int) {
	c.depth = clamp(n, minDepth, maxDepth)
	c.preset = PresetCustom
}

func (c *Configuration) SetMoveTime(ms int) {
	c.moveTime = clamp(ms, minMoveTime, maxMoveTime)
	c.preset = PresetCustom
}

// SetMultiPV does not affect the preset.
func (c *Configuration) SetMultiPV(n int) {
	c.multiPV = clamp(n, minMultiPV, maxMultiPV)
}

// SetPonder does not affect the preset.
func (c *Configuration) SetPonder(on bool) {
	c.ponder = on
}

func (c Configuration) Preset() Preset { return c.preset }
func (c Configuration) Threads() int   { return c.threads }
func (c Configuration) HashMB() int    { return c.hashMB }
func (c Configuration) Skill() int     { return c.skill }
func (c Configuration) Depth() int     { return c.depth }
func (c Configuration) MoveTime() int  { return c.moveTime }
func (c Configuration) MultiPV() int   { return c.multiPV }
func (c Configuration) Ponder() bool   { return c.ponder }

// OptionCommands returns the setoption lines for this configuration.
func (c Configuration) OptionCommands() []string {
	return []string{
		fmt.Sprintf("setoption name Threads value %d", c.threads),
		fmt.Sprintf("setoption name Hash value %d", c.hashMB),
		fmt.Sprintf("setoption name Skill Level value %d", c.skill),
		fmt.Sprintf("setoption name MultiPV value %d", c.multiPV),
		fmt.Sprintf("setoption name Ponder value %t", c.ponder),
	}
}

// GoCommand returns the search command bounded by depth and move time.
func (c Configuration) GoCommand() string {
	return fmt.Sprintf("go depth %d movetime %d", c.depth, c.moveTime)
}

// Summary is a short description such as "Medium (Skill 10, Depth 10)".
func (c Configuration) Summary() string {
	if c.preset != PresetCustom {
		return fmt.Sprintf("%s (Skill %d, Depth %d)", c.preset.DisplayName(), c.skill, c.depth)
	}
	return fmt.Sprintf("Custom (Skill %d, Depth %d, %dms)", c.skill, c.depth, c.moveTime)
}

func clamp(v, lo, hi int) int {
	return min(max(v, lo), hi)
}
