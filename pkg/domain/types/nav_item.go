package types

import "fmt"

// NavItem is a dashboard sidebar entry. The set is closed; rendering data
// comes from navTable.
type NavItem string

const (
	NavItemDashboard NavItem = "dashboard"
	NavItemRunners   NavItem = "runners"
	NavItemBilling   NavItem = "billing"
	NavItemSettings  NavItem = "settings"
)

// NavRendering is how a NavItem is drawn
type NavRendering struct {
	Title string
	Path  string
	Icon  string
}

var navTable = map[NavItem]NavRendering{
	NavItemDashboard: {Title: "Dashboard", Path: "/dashboard", Icon: "layout-dashboard"},
	NavItemRunners:   {Title: "Runners", Path: "/dashboard/runners", Icon: "server"},
	NavItemBilling:   {Title: "Billing", Path: "/dashboard/billing", Icon: "credit-card"},
	NavItemSettings:  {Title: "Settings", Path: "/dashboard/settings", Icon: "settings"},
}

// AllNavItems returns the sidebar entries in display order
func AllNavItems() []NavItem {
	return []NavItem{
		NavItemDashboard,
		NavItemRunners,
		NavItemBilling,
		NavItemSettings,
	}
}

func (x NavItem) IsValid() bool {
	switch x {
	case NavItemDashboard,
		NavItemRunners,
		NavItemBilling,
		NavItemSettings:
		return true
	default:
		return false
	}
}

func (x NavItem) String() string {
	return string(x)
}

// Render returns the rendering of x. It panics on values outside the enumeration.
func (x NavItem) Render() NavRendering {
	r, ok := navTable[x]
	if !ok {
		panic(fmt.Sprintf("unknown nav item: %q", string(x)))
	}
	return r
}

func ParseNavItem(s string) (NavItem, error) {
	item := NavItem(s)
	if !item.IsValid() {
		return "", fmt.Errorf("invalid nav item: %s", s)
	}
	return item, nil
}
