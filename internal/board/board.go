// Package board arranges filtered deliveries into kanban lanes and models
// the drag gesture as discrete commands, keeping presentation decoupled from
// authorization and persistence.
package board

import (
	"github.com/adelorme/labflow/internal/domain"
	"github.com/adelorme/labflow/internal/stage"
)

// Lane is one kanban column. Stage is nil for the unassigned lane.
type Lane struct {
	Stage *domain.ProductionStage
	Items []*domain.Delivery
}

// Title returns the lane's display label.
func (l Lane) Title() string {
	if l.Stage == nil {
		return "Unassigned"
	}
	return l.Stage.Name
}

// Board is the laid-out set of lanes: the unassigned lane first, then one
// lane per stage the caller may see, in pipeline order.
type Board struct {
	Lanes []Lane
}

// Layout groups items into lanes. Stage-restricted employees get lanes only
// for their allowed stages; everyone else gets the full catalog. Item order
// within a lane follows the input order; no re-sorting happens here.
func Layout(items []*domain.Delivery, env domain.PermissionEnvelope, catalog *stage.Catalog) Board {
	var lanes []Lane
	lanes = append(lanes, Lane{})

	laneIndex := map[string]int{}
	for _, s := range catalog.Stages() {
		if env.IsEmployee && !env.CanEditAllStages && !env.AllowedStages[s.ID] {
			continue
		}
		stageCopy := s
		laneIndex[s.ID] = len(lanes)
		lanes = append(lanes, Lane{Stage: &stageCopy})
	}

	for _, d := range items {
		if d.CurrentStageID == nil {
			lanes[0].Items = append(lanes[0].Items, d)
			continue
		}
		if i, ok := laneIndex[*d.CurrentStageID]; ok {
			lanes[i].Items = append(lanes[i].Items, d)
		}
	}
	return Board{Lanes: lanes}
}

// TransitionRequest is the command a completed drop produces. The host wires
// it to the transition engine.
type TransitionRequest struct {
	DeliveryID    string
	TargetStageID string
}

// DragController tracks the item being dragged. It is a per-view value, not
// shared state.
type DragController struct {
	draggingID  string
	sourceStage string
}

// BeginDrag picks an item up. sourceStageID is "" for the unassigned lane.
func (c *DragController) BeginDrag(deliveryID, sourceStageID string) {
	c.draggingID = deliveryID
	c.sourceStage = sourceStageID
}

// Dragging returns the id of the item in flight, or "".
func (c *DragController) Dragging() string {
	return c.draggingID
}

// Cancel drops the gesture without producing a request.
func (c *DragController) Cancel() {
	c.draggingID = ""
	c.sourceStage = ""
}

// Drop completes the gesture over targetStageID. Dropping on the source
// stage is a tolerated no-op: the gesture ends and no request is produced.
func (c *DragController) Drop(targetStageID string) (TransitionRequest, bool) {
	if c.draggingID == "" {
		return TransitionRequest{}, false
	}
	req := TransitionRequest{DeliveryID: c.draggingID, TargetStageID: targetStageID}
	sameStage := targetStageID == c.sourceStage
	c.Cancel()
	if sameStage {
		return TransitionRequest{}, false
	}
	return req, true
}
