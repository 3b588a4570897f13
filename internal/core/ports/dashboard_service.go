package ports

import (
	"context"
	"time"

	"github.com/oracadehub/learning-portal/internal/core/domain"
)

// DashboardStatus is the sub-state of a dashboard view.
type DashboardStatus string

const (
	DashboardLoading DashboardStatus = "loading"
	DashboardError   DashboardStatus = "error"
	DashboardReady   DashboardStatus = "ready"
)

// CourseRow is one joined line of a dashboard's course list.
type CourseRow struct {
	CourseID    string
	Title       string
	Description string
	// Student dashboards only.
	EnrolledAt       time.Time
	EnrollmentStatus domain.EnrollmentStatus
	// Instructor dashboards only.
	StudentCount int64
}

// DashboardView is what a dashboard page renders.
type DashboardView struct {
	Role    domain.Role
	Status  DashboardStatus
	Message string
	Courses []CourseRow
}

// Empty reports a successful load that returned no courses.
func (v DashboardView) Empty() bool {
	return v.Status == DashboardReady && len(v.Courses) == 0
}

// DashboardService builds the per-role dashboards.
type DashboardService interface {
	Load(ctx context.Context, identity *domain.Identity, role domain.Role) DashboardView
}
