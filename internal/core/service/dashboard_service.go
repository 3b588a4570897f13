package service

import (
	"context"
	"fmt"
	"sort"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/oracadehub/learning-portal/internal/core/domain"
	"github.com/oracadehub/learning-portal/internal/core/ports"
)

const (
	MsgNotEnrolled     = "You are not enrolled in any courses yet."
	MsgNoCourses       = "You have not created any courses yet."
	MsgDashboardFailed = "Could not load your courses."

	// maxCountLookups bounds the concurrent enrollment counts of an
	// instructor dashboard.
	maxCountLookups = 4
)

// Dashboard is the per-role part of a dashboard: what to fetch and what to
// say when nothing was found.
type Dashboard interface {
	Role() domain.Role
	load(ctx context.Context, uid string) ([]ports.CourseRow, error)
	emptyMessage() string
}

// StudentDashboard lists the courses a student is enrolled in.
type StudentDashboard struct {
	enrollments ports.EnrollmentRepository
	courses     ports.CourseRepository
}

// InstructorDashboard lists the courses an instructor teaches with their
// enrollment counts.
type InstructorDashboard struct {
	enrollments ports.EnrollmentRepository
	courses     ports.CourseRepository
}

func (StudentDashboard) Role() domain.Role    { return domain.RoleStudent }
func (InstructorDashboard) Role() domain.Role { return domain.RoleInstructor }

func (StudentDashboard) emptyMessage() string    { return MsgNotEnrolled }
func (InstructorDashboard) emptyMessage() string { return MsgNoCourses }

func (d StudentDashboard) load(ctx context.Context, uid string) ([]ports.CourseRow, error) {
	enrollments, err := d.enrollments.ListByStudent(ctx, uid)
	if err != nil {
		return nil, fmt.Errorf("list enrollments: %w", err)
	}
	if len(enrollments) == 0 {
		return nil, nil
	}

	ids := make([]string, 0, len(enrollments))
	for _, e := range enrollments {
		ids = append(ids, e.CourseID)
	}
	courses, err := d.courses.FindByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("find courses: %w", err)
	}

	byID := make(map[string]*domain.Course, len(courses))
	for _, c := range courses {
		byID[c.ID] = c
	}

	rows := make([]ports.CourseRow, 0, len(enrollments))
	for _, e := range enrollments {
		c, ok := byID[e.CourseID]
		if !ok {
			// Dangling enrollment; the course was removed.
			continue
		}
		rows = append(rows, ports.CourseRow{
			CourseID:         c.ID,
			Title:            c.Title,
			Description:      c.Description,
			EnrolledAt:       e.EnrolledAt,
			EnrollmentStatus: e.Status,
		})
	}
	return rows, nil
}

func (d InstructorDashboard) load(ctx context.Context, uid string) ([]ports.CourseRow, error) {
	courses, err := d.courses.ListByInstructor(ctx, uid)
	if err != nil {
		return nil, fmt.Errorf("list courses: %w", err)
	}

	rows := make([]ports.CourseRow, len(courses))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxCountLookups)
	for i, c := range courses {
		rows[i] = ports.CourseRow{CourseID: c.ID, Title: c.Title, Description: c.Description}
		g.Go(func() error {
			n, err := d.enrollments.CountByCourse(gctx, c.ID)
			if err != nil {
				return fmt.Errorf("count enrollments for %s: %w", c.ID, err)
			}
			rows[i].StudentCount = n
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	sort.SliceStable(rows, func(i, j int) bool { return rows[i].Title < rows[j].Title })
	return rows, nil
}

// DashboardService resolves the dashboard variant for a role and loads it.
type DashboardService struct {
	enrollments ports.EnrollmentRepository
	courses     ports.CourseRepository
	log         zerolog.Logger
}

func NewDashboardService(enrollments ports.EnrollmentRepository, courses ports.CourseRepository, log zerolog.Logger) *DashboardService {
	return &DashboardService{enrollments: enrollments, courses: courses, log: log}
}

// DashboardFor returns the dashboard variant of role, or nil for an unknown
// role.
func (s *DashboardService) DashboardFor(role domain.Role) Dashboard {
	switch role {
	case domain.RoleStudent:
		return StudentDashboard{enrollments: s.enrollments, courses: s.courses}
	case domain.RoleInstructor:
		return InstructorDashboard{enrollments: s.enrollments, courses: s.courses}
	default:
		return nil
	}
}

// Load builds the dashboard view of identity for role. Failures become an
// error view; they are not retried.
func (s *DashboardService) Load(ctx context.Context, identity *domain.Identity, role domain.Role) ports.DashboardView {
	view := ports.DashboardView{Role: role, Status: ports.DashboardLoading}

	d := s.DashboardFor(role)
	if d == nil || identity == nil {
		view.Status = ports.DashboardError
		view.Message = MsgDashboardFailed
		return view
	}

	rows, err := d.load(ctx, identity.UID)
	if err != nil {
		s.log.Error().Err(err).Str("uid", identity.UID).Str("role", string(role)).Msg("dashboard load failed")
		view.Status = ports.DashboardError
		view.Message = MsgDashboardFailed
		return view
	}

	view.Status = ports.DashboardReady
	view.Courses = rows
	if len(rows) == 0 {
		view.Message = d.emptyMessage()
	}
	return view
}

var _ ports.DashboardService = (*DashboardService)(nil)
