// Copyright (c) 2024 The Topaz Authors
// released under the MIT license

package topaz

import (
	"fmt"
	"sort"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/topazui/topaz/topaz/layout"
	"github.com/topazui/topaz/topaz/legacyfmt"
)

// ItemConfig is a menu item as written in the config file. An item with a
// Group spreads the group's items over its slots in order, continuing on
// further pages; Alignment places a row's items when they don't fill it.
type ItemConfig struct {
	Material  string
	Name      string
	Lore      []string
	Action    string
	Group     []ItemConfig
	Alignment string
}

// GroupAlignment positions the items of a group within a partly filled row.
type GroupAlignment uint8

const (
	AlignLeft GroupAlignment = iota
	AlignCenter
	AlignRight
)

var alignmentNames = map[GroupAlignment]string{
	AlignLeft:   "left",
	AlignCenter: "center",
	AlignRight:  "right",
}

func (a GroupAlignment) String() string {
	if name, ok := alignmentNames[a]; ok {
		return name
	}
	return alignmentNames[AlignLeft]
}

// ParseGroupAlignment is the inverse of GroupAlignment.String; the empty
// string is AlignLeft.
func ParseGroupAlignment(name string) (GroupAlignment, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	switch name {
	case "":
		return AlignLeft, nil
	case "centre":
		return AlignCenter, nil
	}
	for alignment, alignmentName := range alignmentNames {
		if alignmentName == name {
			return alignment, nil
		}
	}
	return AlignLeft, fmt.Errorf("%w: unknown alignment %s", errMenuGroupInvalid, name)
}

func (a GroupAlignment) MarshalText() ([]byte, error) {
	return []byte(a.String()), nil
}

func (a *GroupAlignment) UnmarshalText(text []byte) (err error) {
	*a, err = ParseGroupAlignment(string(text))
	return
}

// MenuConfig is a menu as written in the config file. Each character of
// Rows is a slot; Items maps a single layout character to the item shown in
// every slot holding that character.
type MenuConfig struct {
	Title  string
	Rows   []string
	Items  map[string]ItemConfig
	Filler *ItemConfig
}

// MenuItem is a compiled item: text fields are tag markup and Slots lists
// the container slots the item occupies. For a group, Pages[p][i] is the
// index into Group of the item shown in Slots[i] on page p, or -1 when the
// slot is empty on that page.
type MenuItem struct {
	Key       string         `json:"key,omitempty"`
	Material  string         `json:"material,omitempty"`
	Name      string         `json:"name,omitempty"`
	Lore      []string       `json:"lore,omitempty"`
	Action    string         `json:"action,omitempty"`
	Slots     []int          `json:"slots"`
	Group     []MenuItem     `json:"group,omitempty"`
	Alignment GroupAlignment `json:"alignment,omitempty"`
	Pages     [][]int        `json:"pages,omitempty"`
}

// Menu is a compiled menu, ready to hand to a container builder. Size is the
// container's slot count, which for three-wide menus can exceed the number
// of laid-out slots. Ragged is set when the configured rows have different
// widths and were centred to fit. Pages is the number of pages needed to
// show every item of the largest group, and at least 1.
type Menu struct {
	Name       string       `json:"name"`
	Key        string       `json:"key"`
	Title      string       `json:"title"`
	PlainTitle string       `json:"plain-title"`
	Shape      layout.Shape `json:"shape"`
	Ragged     bool         `json:"ragged,omitempty"`
	Rows       []string     `json:"rows"`
	Size       int          `json:"size"`
	Pages      int          `json:"pages"`
	Items      []MenuItem   `json:"items"`
	Filler     *MenuItem    `json:"filler,omitempty"`
	CompiledAt time.Time    `json:"compiled-at"`
}

func compileItem(key string, conf ItemConfig, tr *legacyfmt.Translator) MenuItem {
	item := MenuItem{
		Key:      key,
		Material: conf.Material,
		Name:     tr.Translate(conf.Name),
		Action:   conf.Action,
	}
	if len(conf.Lore) != 0 {
		item.Lore = make([]string, len(conf.Lore))
		for i, line := range conf.Lore {
			item.Lore[i] = tr.Translate(line)
		}
	}
	return item
}

// CompileMenu translates a menu's text to markup and lays its items out on
// the fitted slot grid.
func CompileMenu(name string, conf MenuConfig, tr *legacyfmt.Translator) (menu *Menu, err error) {
	key, err := CasefoldName(name)
	if err != nil {
		return nil, fmt.Errorf("%w %s: %s", errMenuNameInvalid, name, err.Error())
	}

	grid, err := layout.NewGrid(conf.Rows)
	if err != nil {
		return nil, fmt.Errorf("menu %s: %w", name, errMenuShapeUnknown)
	}

	size := grid.Shape().ContainerSize(grid.Height())
	if grid.Size() > size {
		return nil, fmt.Errorf("menu %s: %w (%d rows)", name, errMenuTooManyRows, grid.Height())
	}

	menu = &Menu{
		Name:       name,
		Key:        key,
		Title:      tr.Translate(conf.Title),
		PlainTitle: tr.Strip(conf.Title),
		Shape:      grid.Shape(),
		Ragged:     ragged(conf.Rows),
		Rows:       grid.Rows(),
		Size:       size,
		Pages:      1,
		CompiledAt: time.Now().UTC(),
	}

	claimed := make(map[int]bool)
	itemKeys := make([]string, 0, len(conf.Items))
	for itemKey := range conf.Items {
		itemKeys = append(itemKeys, itemKey)
	}
	sort.Strings(itemKeys)
	for _, itemKey := range itemKeys {
		if utf8.RuneCountInString(itemKey) != 1 || itemKey == " " {
			return nil, fmt.Errorf("menu %s, item %q: %w", name, itemKey, errMenuItemKeyInvalid)
		}
		ch, _ := utf8.DecodeRuneInString(itemKey)
		slots := grid.Slots(ch)
		if len(slots) == 0 {
			return nil, fmt.Errorf("menu %s, item %q: %w", name, itemKey, errMenuItemNotInLayout)
		}
		itemConf := conf.Items[itemKey]
		item := compileItem(itemKey, itemConf, tr)
		item.Slots = slots
		if len(itemConf.Group) != 0 {
			if err := compileGroup(&item, itemConf, grid.Width(), tr); err != nil {
				return nil, fmt.Errorf("menu %s, item %q: %w", name, itemKey, err)
			}
			if len(item.Pages) > menu.Pages {
				menu.Pages = len(item.Pages)
			}
		} else if itemConf.Alignment != "" {
			return nil, fmt.Errorf("menu %s, item %q: %w: alignment without a group", name, itemKey, errMenuGroupInvalid)
		}
		for _, slot := range slots {
			claimed[slot] = true
		}
		menu.Items = append(menu.Items, item)
	}

	if conf.Filler != nil {
		filler := compileItem("", *conf.Filler, tr)
		filler.Slots = []int{}
		for slot := 0; slot < size; slot++ {
			if !claimed[slot] {
				filler.Slots = append(filler.Slots, slot)
			}
		}
		menu.Filler = &filler
	}

	return menu, nil
}

// compileGroup lays the group's items out page by page over item.Slots.
// width is the width of the fitted grid.
func compileGroup(item *MenuItem, conf ItemConfig, width int, tr *legacyfmt.Translator) (err error) {
	item.Alignment, err = ParseGroupAlignment(conf.Alignment)
	if err != nil {
		return err
	}

	count := len(conf.Group)
	item.Group = make([]MenuItem, count)
	for i, member := range conf.Group {
		if len(member.Group) != 0 {
			return fmt.Errorf("%w: groups cannot be nested", errMenuGroupInvalid)
		}
		item.Group[i] = compileItem("", member, tr)
		item.Group[i].Slots = item.Slots
	}

	pages := (count + len(item.Slots) - 1) / len(item.Slots)
	item.Pages = make([][]int, pages)
	for page := range item.Pages {
		item.Pages[page] = placeGroup(item.Slots, width, count, page, item.Alignment)
	}
	return nil
}

// placeGroup returns, for each of slots, the index of the group item shown
// there on page, or -1. Full rows are filled in order; a row the remaining
// items cannot fill is aligned.
func placeGroup(slots []int, width, count, page int, alignment GroupAlignment) []int {
	result := make([]int, len(slots))
	offset := 0
	if len(slots) < count {
		offset = page * len(slots)
	}
	for i, slot := range slots {
		result[i] = -1
		index := i + offset
		if alignment == AlignLeft {
			if index < count {
				result[i] = index
			}
			continue
		}

		lineWidth, linePosition := groupLine(slots, slot, width)
		if count-index > lineWidth-linePosition {
			result[i] = index
			continue
		}
		rest := count - (index - linePosition)
		blankBefore := lineWidth - rest
		if alignment == AlignCenter {
			blankBefore /= 2
		}
		if linePosition >= blankBefore && index-blankBefore < count {
			result[i] = index - blankBefore
		}
	}
	return result
}

// groupLine returns how many of slots share slot's grid row, and slot's
// position among them.
func groupLine(slots []int, slot, width int) (lineWidth, linePosition int) {
	row := slot / width
	linePosition = -1
	for _, s := range slots {
		if s/width == row {
			lineWidth++
			if s <= slot {
				linePosition++
			}
		}
	}
	return
}

func ragged(rows []string) bool {
	for _, row := range rows {
		if utf8.RuneCountInString(row) != utf8.RuneCountInString(rows[0]) {
			return true
		}
	}
	return false
}

// Item returns the item occupying slot on the first page, the filler if no
// item does, or nil.
func (menu *Menu) Item(slot int) *MenuItem {
	return menu.ItemOnPage(slot, 0)
}

// ItemOnPage is like Item for the given page. A group that fits on one page
// shows on every page; a longer one leaves its slots empty past its last
// page.
func (menu *Menu) ItemOnPage(slot, page int) *MenuItem {
	for i := range menu.Items {
		item := &menu.Items[i]
		for j, itemSlot := range item.Slots {
			if itemSlot != slot {
				continue
			}
			if item.Pages == nil {
				return item
			}
			if len(item.Pages) == 1 {
				page = 0
			}
			if 0 <= page && page < len(item.Pages) && item.Pages[page][j] >= 0 {
				return &item.Group[item.Pages[page][j]]
			}
			return menu.Filler
		}
	}
	if menu.Filler != nil && 0 <= slot && slot < menu.Size {
		return menu.Filler
	}
	return nil
}

// compileMenus compiles every configured menu, rejecting names that
// casefold or skeletonize to the same value as another menu.
func compileMenus(confs map[string]MenuConfig, tr *legacyfmt.Translator) (result map[string]*Menu, err error) {
	names := make([]string, 0, len(confs))
	for name := range confs {
		names = append(names, name)
	}
	sort.Strings(names)

	result = make(map[string]*Menu, len(confs))
	skeletons := make(map[string]string, len(confs))
	for _, name := range names {
		menu, err := CompileMenu(name, confs[name], tr)
		if err != nil {
			return nil, err
		}
		skeleton, err := Skeleton(name)
		if err != nil {
			return nil, fmt.Errorf("%w %s: %s", errMenuNameInvalid, name, err.Error())
		}
		if other, exists := skeletons[skeleton]; exists {
			return nil, fmt.Errorf("%w: %s and %s", errMenuNameConfusable, other, name)
		}
		skeletons[skeleton] = name
		result[menu.Key] = menu
	}
	return result, nil
}
