// Package stage holds the shared production-stage catalog and the progress
// arithmetic derived from stage position. Everything here is pure and safe to
// share by reference across callers.
package stage

import (
	"math"
	"strings"

	"github.com/adelorme/labflow/internal/domain"
)

// Catalog is the fixed, totally ordered list of production stages. Order
// indexes are 1-based and contiguous; ids are stable across laboratories.
type Catalog struct {
	stages []domain.ProductionStage
	byID   map[string]int // id -> slice index
}

// New builds a catalog from the given stages. The slice must already be
// sorted by OrderIndex; New panics on an empty, gapped, or duplicate-id list
// since the catalog is fixed at build time and a bad one is a programming error.
func New(stages []domain.ProductionStage) *Catalog {
	if len(stages) == 0 {
		panic("stage: empty catalog")
	}
	byID := make(map[string]int, len(stages))
	for i, s := range stages {
		if s.OrderIndex != i+1 {
			panic("stage: catalog order indexes must be contiguous from 1")
		}
		if _, dup := byID[s.ID]; dup {
			panic("stage: duplicate stage id " + s.ID)
		}
		byID[s.ID] = i
	}
	return &Catalog{stages: stages, byID: byID}
}

// Default returns the standard six-stage dental production pipeline.
func Default() *Catalog {
	return New([]domain.ProductionStage{
		{
			ID:          "stage-reception",
			Name:        "Reception",
			Description: "Impression and prescription received from the dentist",
			OrderIndex:  1,
			Color:       "#6366f1",
		},
		{
			ID:          "stage-modeling",
			Name:        "Modeling",
			Description: "Model preparation and digital design",
			OrderIndex:  2,
			Color:       "#8b5cf6",
		},
		{
			ID:          "stage-production",
			Name:        "Production",
			Description: "Milling, casting or printing of the prosthesis",
			OrderIndex:  3,
			Color:       "#f59e0b",
		},
		{
			ID:          "stage-finishing",
			Name:        "Finishing",
			Description: "Polishing, glazing and final adjustments",
			OrderIndex:  4,
			Color:       "#ec4899",
		},
		{
			ID:               "stage-quality-control",
			Name:             "Quality Control",
			Description:      "Conformity check against the prescription",
			OrderIndex:       5,
			Color:            "#14b8a6",
			RequiresApproval: true,
		},
		{
			ID:            "stage-ready-to-deliver",
			Name:          "Ready to Deliver",
			Description:   "Packaged and waiting for pickup or courier",
			OrderIndex:    6,
			Color:         "#22c55e",
			DeliveryReady: true,
		},
	})
}

// Stages returns the ordered stage list. Callers must not mutate it.
func (c *Catalog) Stages() []domain.ProductionStage {
	return c.stages
}

// Len returns the number of stages.
func (c *Catalog) Len() int {
	return len(c.stages)
}

// ByID looks a stage up by its portable id.
func (c *Catalog) ByID(id string) (domain.ProductionStage, bool) {
	i, ok := c.byID[id]
	if !ok {
		return domain.ProductionStage{}, false
	}
	return c.stages[i], true
}

// ByOrder looks a stage up by its 1-based order index.
func (c *Catalog) ByOrder(orderIndex int) (domain.ProductionStage, bool) {
	if orderIndex < 1 || orderIndex > len(c.stages) {
		return domain.ProductionStage{}, false
	}
	return c.stages[orderIndex-1], true
}

// ByName looks a stage up by case-insensitive exact name match.
func (c *Catalog) ByName(name string) (domain.ProductionStage, bool) {
	for _, s := range c.stages {
		if strings.EqualFold(s.Name, name) {
			return s, true
		}
	}
	return domain.ProductionStage{}, false
}

// Progress returns the starting progress percentage for residing in a stage:
// round(((orderIndex-1)/N)*100). An empty or unknown id yields 0. Entering
// the last stage does not yield 100; only marking an item delivered does.
func (c *Catalog) Progress(stageID string) int {
	s, ok := c.ByID(stageID)
	if !ok {
		return 0
	}
	n := float64(len(c.stages))
	return int(math.Round(float64(s.OrderIndex-1) / n * 100))
}

// Next returns the stage following stageID. An empty id returns the first
// stage; the terminal stage has no next.
func (c *Catalog) Next(stageID string) (domain.ProductionStage, bool) {
	if stageID == "" {
		return c.stages[0], true
	}
	s, ok := c.ByID(stageID)
	if !ok {
		return domain.ProductionStage{}, false
	}
	return c.ByOrder(s.OrderIndex + 1)
}

// IsTerminal reports whether stageID is the last stage of the pipeline.
func (c *Catalog) IsTerminal(stageID string) bool {
	s, ok := c.ByID(stageID)
	return ok && s.OrderIndex == len(c.stages)
}
