// Package navigation builds the sidebar menu and breadcrumbs of dashboard pages.
package navigation

import (
	"github.com/mealdesk/mealdesk-web/internal/models"
)

// Sections of the dashboard.
const (
	SectionOverview = "overview"
	SectionMeals    = "meals"
	SectionBalance  = "balance"
	SectionAdmin    = "admin"
	SectionAccount  = "account"
)

// MenuItem is a single sidebar link.
type MenuItem struct {
	Title     string
	URL       string
	Section   string
	AdminOnly bool
	Active    bool
}

var menu = []MenuItem{
	{Title: "Overview", URL: "/dashboard", Section: SectionOverview},
	{Title: "Meals", URL: "/dashboard/meals", Section: SectionMeals},
	{Title: "Add Balance", URL: "/dashboard/add-balance", Section: SectionBalance},
	{Title: "Requests", URL: "/dashboard/requests", Section: SectionAdmin, AdminOnly: true},
	{Title: "Users", URL: "/dashboard/users", Section: SectionAdmin, AdminOnly: true},
	{Title: "Account", URL: "/dashboard/account", Section: SectionAccount},
}

// BreadcrumbItem represents a single breadcrumb link.
type BreadcrumbItem struct {
	Title  string
	URL    string
	Active bool
}

// Context is the navigation state of a dashboard page.
type Context struct {
	PageTitle     string
	ActiveSection string
	Menu          []MenuItem
	Breadcrumbs   []BreadcrumbItem
}

// NewContext creates the navigation of a page in section for user. Admin
// entries are only listed for admins.
func NewContext(pageTitle, section string, user *models.User) *Context {
	c := &Context{
		PageTitle:     pageTitle,
		ActiveSection: section,
		Menu:          make([]MenuItem, 0, len(menu)),
		Breadcrumbs:   []BreadcrumbItem{{Title: "Dashboard", URL: "/dashboard"}},
	}

	isAdmin := user != nil && user.IsAdmin()

	for _, item := range menu {
		if item.AdminOnly && !isAdmin {
			continue
		}

		item.Active = item.Section == section
		c.Menu = append(c.Menu, item)
	}

	return c
}

// AddBreadcrumb appends a breadcrumb. The last one added is the active one.
func (c *Context) AddBreadcrumb(title, url string) *Context {
	for i := range c.Breadcrumbs {
		c.Breadcrumbs[i].Active = false
	}

	c.Breadcrumbs = append(c.Breadcrumbs, BreadcrumbItem{
		Title:  title,
		URL:    url,
		Active: true,
	})

	return c
}

// IsSectionActive checks if the given section is active.
func (c *Context) IsSectionActive(section string) bool {
	return c.ActiveSection == section
}
