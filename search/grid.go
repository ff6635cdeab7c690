package search

import (
	"errors"
	"fmt"
	"os"

	"github.com/samber/lo"
	"gopkg.in/yaml.v3"
)

// Configuration is one point of the simulator's parameter space.
type Configuration struct {
	BoostInterval int   `yaml:"boost-interval" json:"boost-interval"`
	Quantums      []int `yaml:"quantums" json:"quantums"`
}

func (c Configuration) String() string {
	return fmt.Sprintf("boost=%d quantums=%v", c.BoostInterval, c.Quantums)
}

// Validate checks that the configuration can be applied to the simulator: a positive boost
// interval and a non-empty, positive, non-decreasing list of quantums.
func (c Configuration) Validate() error {
	if c.BoostInterval < 1 {
		return fmt.Errorf("boost interval must be greater than 0, got %d", c.BoostInterval)
	}
	if len(c.Quantums) < 1 {
		return errors.New("at least one quantum is required")
	}
	for i, quantum := range c.Quantums {
		if quantum < 1 {
			return fmt.Errorf("quantums[%d] must be greater than 0, got %d", i, quantum)
		}
		if i > 0 && quantum < c.Quantums[i-1] {
			return fmt.Errorf("quantums must be non-decreasing, quantums[%d]=%d < quantums[%d]=%d", i, quantum, i-1, c.Quantums[i-1])
		}
	}
	return nil
}

// Level is one quantum axis of the grid. It either lists its candidate values, or is derived
// from an earlier level by a constant factor.
type Level struct {
	Values  []int `yaml:"values,omitempty"`
	ScaleOf *int  `yaml:"scale-of,omitempty"`
	Factor  int   `yaml:"factor,omitempty"`
}

// UnmarshalYAML accepts either a plain list of values or a level object.
func (l *Level) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.SequenceNode {
		l.ScaleOf, l.Factor = nil, 0
		return node.Decode(&l.Values)
	}

	type plain Level
	return node.Decode((*plain)(l))
}

func (l Level) derived() bool {
	return l.ScaleOf != nil
}

// Grid is the cartesian product of the boost intervals and the quantum levels.
type Grid struct {
	BoostIntervals []int   `yaml:"boost-intervals"`
	Levels         []Level `yaml:"quantum-levels"`
}

// DefaultGrid is boost {30, 50, 70, 100} x q1 {5, 10, 15} x q2 {10, 20, 30}, with the third
// quantum twice the second.
func DefaultGrid() Grid {
	return Grid{
		BoostIntervals: []int{30, 50, 70, 100},
		Levels: []Level{
			{Values: []int{5, 10, 15}},
			{Values: []int{10, 20, 30}},
			{ScaleOf: lo.ToPtr(1), Factor: 2},
		},
	}
}

func LoadGrid(file string) (Grid, error) {
	buf, err := os.ReadFile(file)
	if err != nil {
		return Grid{}, fmt.Errorf("read file: %w", err)
	}

	var grid Grid
	if err := yaml.Unmarshal(buf, &grid); err != nil {
		return Grid{}, fmt.Errorf("unmarshal: %w", err)
	}
	if err := grid.Validate(); err != nil {
		return Grid{}, fmt.Errorf("validate: %w", err)
	}
	return grid, nil
}

// Validate checks the structure of the grid. Parameter values themselves are checked per
// configuration, so that an invalid combination only skips its own grid point.
func (g Grid) Validate() error {
	if len(g.BoostIntervals) < 1 {
		return errors.New("boost-intervals is required")
	}
	if len(g.Levels) < 1 {
		return errors.New("quantum-levels is required")
	}

	for i, level := range g.Levels {
		if !level.derived() {
			if len(level.Values) < 1 {
				return fmt.Errorf("quantum-levels[%d].values is required", i)
			}
			continue
		}

		if len(level.Values) > 0 {
			return fmt.Errorf("quantum-levels[%d] cannot have both values and scale-of", i)
		}
		if *level.ScaleOf < 0 || *level.ScaleOf >= i {
			return fmt.Errorf("quantum-levels[%d].scale-of must reference an earlier level", i)
		}
		if level.Factor < 1 {
			return fmt.Errorf("quantum-levels[%d].factor must be greater than 0", i)
		}
	}

	return nil
}

// Size is the number of configurations of the grid.
func (g Grid) Size() int {
	return lo.Reduce(g.Levels, func(size int, level Level, _ int) int {
		return lo.Ternary(level.derived(), size, size*len(level.Values))
	}, len(g.BoostIntervals))
}

// Configurations enumerates the grid, boost interval outermost then each level in order,
// like nested loops. The order is stable and defines which of two equal scores wins.
func (g Grid) Configurations() []Configuration {
	configurations := make([]Configuration, 0, g.Size())

	for _, boost := range g.BoostIntervals {
		quantums := make([]int, len(g.Levels))

		var walk func(level int)
		walk = func(level int) {
			if level == len(g.Levels) {
				configurations = append(configurations, Configuration{
					BoostInterval: boost,
					Quantums:      append([]int(nil), quantums...),
				})
				return
			}

			if l := g.Levels[level]; l.derived() {
				quantums[level] = quantums[*l.ScaleOf] * l.Factor
				walk(level + 1)
			} else {
				for _, value := range l.Values {
					quantums[level] = value
					walk(level + 1)
				}
			}
		}
		walk(0)
	}

	return configurations
}
