package problem

import (
	"fmt"
	"slices"

	"golang.org/x/exp/rand"
)

type BanditState int

const (
	Start BanditState = iota
	Done
)

func (s BanditState) String() string {
	if s == Done {
		return "done"
	}
	return "start"
}

// Arm is a deterministic action of a Bandit.
type Arm struct {
	Name   string
	Reward float64
	Costs  []float64
}

// Bandit is a one-step constrained decision process: pull one arm, collect
// its reward and cost, and stop.
type Bandit struct {
	arms   map[string]Arm
	order  []string
	budget []float64
}

func NewBandit(budget []float64, arms ...Arm) *Bandit {
	b := &Bandit{
		arms:   make(map[string]Arm, len(arms)),
		budget: slices.Clone(budget),
	}
	for _, arm := range arms {
		b.arms[arm.Name] = arm
		b.order = append(b.order, arm.Name)
	}
	return b
}

// NewTwoArmBandit returns the process with arms A (reward 1, cost 2) and
// B (reward 1, cost 0.5) under a budget of 1.
func NewTwoArmBandit() *Bandit {
	return NewBandit([]float64{1.0},
		Arm{Name: "A", Reward: 1.0, Costs: []float64{2.0}},
		Arm{Name: "B", Reward: 1.0, Costs: []float64{0.5}},
	)
}

func (b *Bandit) Step(state BanditState, action string, _ *rand.Rand) (BanditState, float64, []float64, error) {
	if state == Done {
		return Done, 0, nil, fmt.Errorf("bandit already played")
	}
	arm, ok := b.arms[action]
	if !ok {
		return Done, 0, nil, fmt.Errorf("unknown arm %q", action)
	}
	return Done, arm.Reward, slices.Clone(arm.Costs), nil
}

func (b *Bandit) Actions(state BanditState) []string {
	if state == Done {
		return nil
	}
	return slices.Clone(b.order)
}

func (b *Bandit) IsTerminal(state BanditState) bool {
	return state == Done
}

func (b *Bandit) Discount() float64 {
	return 1.0
}

func (b *Bandit) InitialBudget() []float64 {
	return slices.Clone(b.budget)
}
