package domain

// Client-side routes handed to redirect subscribers.
const (
	RouteLogin = "/login"
	RouteHome  = "/"
	RouteFeed  = "/feed"
)

// DashboardRoute is the landing page for a role.
func DashboardRoute(role Role) string {
	switch role {
	case RoleAdmin:
		return "/admin"
	case RoleInstitute:
		return "/institute/dashboard"
	case RoleTutor:
		return "/tutor/dashboard"
	case RoleStudent, RoleParent:
		return "/student/dashboard"
	default:
		return RouteHome
	}
}

// PostPurchaseRoute is where a user lands after buying credits. Tutors and
// institutes go back to their dashboards, everyone else to the job feed.
func PostPurchaseRoute(role Role) string {
	switch role {
	case RoleTutor, RoleInstitute:
		return DashboardRoute(role)
	default:
		return RouteFeed
	}
}
