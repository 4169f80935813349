package service

import (
	"strings"
	"time"

	"github.com/adelorme/labflow/internal/domain"
)

// FilterOptions are the user-chosen narrowing toggles applied on top of the
// caller's permission envelope.
type FilterOptions struct {
	MyWorksOnly bool
	SearchText  string
	// Status and Priority filter on exact match; "" or "all" disables them.
	Status   string
	Priority string
	// DueBucket selects a single due-date bucket; "" disables it.
	DueBucket domain.DueBucket
	// Now anchors the due-date buckets. Zero means time.Now().
	Now time.Time
}

// FilterVisible narrows deliveries to what the caller may see, then applies
// the option toggles. The pipeline order is fixed: assignment restriction,
// stage restriction, free-text search, status/priority, due-date bucket.
// Items without a stage are never hidden by the stage restriction.
func FilterVisible(items []*domain.Delivery, env domain.PermissionEnvelope, opts FilterOptions) []*domain.Delivery {
	now := opts.Now
	if now.IsZero() {
		now = time.Now()
	}

	out := make([]*domain.Delivery, 0, len(items))
	for _, d := range items {
		if visible(d, env, opts, now) {
			out = append(out, d)
		}
	}
	return out
}

func visible(d *domain.Delivery, env domain.PermissionEnvelope, opts FilterOptions, now time.Time) bool {
	// 1. Assigned-only restriction. viewAllWorks wins over viewAssignedOnly
	// when a role document sets both.
	assignedOnly := env.IsEmployee && (opts.MyWorksOnly ||
		(env.CanViewAssignedOnly && !env.CanViewAllWorks))
	if assignedOnly && !assignedToCaller(d, env) {
		return false
	}

	// 2. Stage restriction. Unassigned items stay visible regardless of
	// allowed stages.
	if env.IsEmployee && !env.CanEditAllStages && d.CurrentStageID != nil {
		if !env.AllowedStages[*d.CurrentStageID] {
			return false
		}
	}

	// 3. Free-text search over delivery number, patient and dentist names.
	if search := strings.TrimSpace(opts.SearchText); search != "" {
		needle := strings.ToLower(search)
		if !strings.Contains(strings.ToLower(d.DeliveryNumber), needle) &&
			!strings.Contains(strings.ToLower(d.PatientName), needle) &&
			!strings.Contains(strings.ToLower(d.DentistName), needle) {
			return false
		}
	}

	// 4. Exact status and priority filters.
	if opts.Status != "" && opts.Status != "all" && string(d.Status) != opts.Status {
		return false
	}
	if opts.Priority != "" && opts.Priority != "all" && string(d.Priority) != opts.Priority {
		return false
	}

	// 5. Due-date bucket.
	switch opts.DueBucket {
	case domain.DueOverdue:
		return d.DueDate != nil && d.DueDate.Before(startOfDay(now)) &&
			d.Status != domain.StatusCompleted
	case domain.DueToday:
		return d.DueDate != nil && sameDay(*d.DueDate, now)
	case domain.DueWeek:
		if d.DueDate == nil {
			return false
		}
		due := startOfDay(*d.DueDate)
		return !due.Before(startOfDay(now)) && due.Before(startOfDay(now).AddDate(0, 0, 7))
	}
	return true
}

func assignedToCaller(d *domain.Delivery, env domain.PermissionEnvelope) bool {
	if env.EmployeeID != "" {
		return d.AssignedTo(env.EmployeeID)
	}
	return len(d.Assignments) > 0
}

func startOfDay(t time.Time) time.Time {
	y, m, day := t.Date()
	return time.Date(y, m, day, 0, 0, 0, 0, t.Location())
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}
