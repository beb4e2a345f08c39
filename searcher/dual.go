package searcher

import (
	"math"
	"slices"
)

// controller keeps the Lagrange multipliers and the remaining budget.
type controller struct {
	schedule Schedule
	nu       float64
	clip     []float64
	initial  []float64
	lambda0  []float64

	budget   []float64
	lambda   []float64
	realized []float64
	steps    int
}

func newController(budget []float64, p Params) *controller {
	dims := len(budget)
	lambda0 := make([]float64, dims)
	if p.InitialLambda != nil {
		copy(lambda0, p.InitialLambda)
	}
	clip := make([]float64, dims)
	for i := range clip {
		if len(p.MaxClip) == 1 {
			clip[i] = p.MaxClip[0]
		} else {
			clip[i] = p.MaxClip[i]
		}
	}
	c := &controller{
		schedule: p.Schedule,
		nu:       p.Nu,
		clip:     clip,
		initial:  slices.Clone(budget),
		lambda0:  lambda0,
	}
	c.reset()
	return c
}

func (c *controller) reset() {
	c.budget = slices.Clone(c.initial)
	c.lambda = slices.Clone(c.lambda0)
	c.realized = make([]float64, len(c.initial))
	c.steps = 0
}

func (c *controller) dims() int {
	return len(c.initial)
}

// step returns the step size of the next dual update.
func (c *controller) step() float64 {
	if c.schedule == Inverse {
		return c.nu / float64(c.steps)
	}
	return c.nu
}

// update applies λ ← clip(λ + step·(realized - budget), 0, max_clip).
func (c *controller) update(realized []float64) {
	c.steps++
	copy(c.realized, realized)
	alpha := c.step()
	for i := range c.lambda {
		next := c.lambda[i] + alpha*(realized[i]-c.budget[i])
		c.lambda[i] = math.Min(math.Max(next, 0), c.clip[i])
	}
}

// consume charges costs incurred by the environment against the remaining
// budget, rescaled for the next decision step.
func (c *controller) consume(costs []float64, discount float64) {
	if discount <= 0 {
		discount = 1
	}
	for i := range c.budget {
		c.budget[i] = (c.budget[i] - costs[i]) / discount
	}
}
