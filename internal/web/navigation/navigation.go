// Package navigation provides utilities for managing navigation state and breadcrumbs.
package navigation

// Sections of the dashboard.
const (
	SectionDashboard = "dashboard"
	SectionAdmin     = "admin"
)

// BreadcrumbItem represents a single breadcrumb link.
type BreadcrumbItem struct {
	Title  string
	URL    string
	Active bool
}

// MenuItem is one entry of the dashboard menu.
type MenuItem struct {
	Title   string
	URL     string
	Section string
}

// Context represents the navigation context for a page.
type Context struct {
	ActiveSection string
	ActivePage    string
	Breadcrumbs   []BreadcrumbItem
	Menu          []MenuItem
	PageTitle     string
}

// NewContext creates a new navigation context.
func NewContext(pageTitle, activeSection, activePage string) *Context {
	return &Context{
		PageTitle:     pageTitle,
		ActiveSection: activeSection,
		ActivePage:    activePage,
		Breadcrumbs:   make([]BreadcrumbItem, 0),
		Menu:          make([]MenuItem, 0),
	}
}

// AddBreadcrumb adds a breadcrumb item to the context.
func (c *Context) AddBreadcrumb(title, url string, active bool) *Context {
	c.Breadcrumbs = append(c.Breadcrumbs, BreadcrumbItem{
		Title:  title,
		URL:    url,
		Active: active,
	})

	return c
}

// WithMenu sets the dashboard menu. The admin entry is only listed for admins.
func (c *Context) WithMenu(dashboardPath string, admin bool) *Context {
	c.Menu = []MenuItem{
		{Title: "Dashboard", URL: dashboardPath, Section: SectionDashboard},
	}

	if admin {
		c.Menu = append(c.Menu, MenuItem{Title: "Admin", URL: dashboardPath + "/admin", Section: SectionAdmin})
	}

	return c
}

// IsActive checks if the given section and page match the current context.
func (c *Context) IsActive(section, page string) bool {
	return c.ActiveSection == section && c.ActivePage == page
}

// IsSectionActive checks if the given section is active.
func (c *Context) IsSectionActive(section string) bool {
	return c.ActiveSection == section
}
