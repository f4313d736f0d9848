package usecase

import (
	"github.com/m2rads/lime/pkg/domain/model/config"
	"github.com/m2rads/lime/pkg/domain/types"
)

// NavEntry is one rendered sidebar entry
type NavEntry struct {
	Item  types.NavItem `json:"item"`
	Title string        `json:"title"`
	Path  string        `json:"path"`
	Icon  string        `json:"icon"`
}

// NavigationUseCase renders the dashboard sidebar
type NavigationUseCase struct {
	titles map[types.NavItem]string
}

func NewNavigationUseCase(cfg config.NavigationConfig) *NavigationUseCase {
	return &NavigationUseCase{titles: cfg.Titles}
}

// Items returns every sidebar entry in display order
func (uc *NavigationUseCase) Items() []NavEntry {
	items := types.AllNavItems()
	entries := make([]NavEntry, 0, len(items))
	for _, item := range items {
		r := item.Render()
		if title, ok := uc.titles[item]; ok && title != "" {
			r.Title = title
		}
		entries = append(entries, NavEntry{
			Item:  item,
			Title: r.Title,
			Path:  r.Path,
			Icon:  r.Icon,
		})
	}
	return entries
}
