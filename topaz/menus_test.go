// Copyright (c) 2024 The Topaz Authors
// released under the MIT license

package topaz

import (
	"errors"
	"fmt"
	"testing"

	"github.com/topazui/topaz/topaz/layout"
	"github.com/topazui/topaz/topaz/legacyfmt"
)

func TestCompileMenu(t *testing.T) {
	conf := MenuConfig{
		Title: "&6&lShop",
		Rows: []string{
			"#########",
			"#a  b  a#",
		},
		Items: map[string]ItemConfig{
			"a": {Material: "diamond", Name: "&bGems", Lore: []string{"&7Shiny", "plain"}},
			"b": {Material: "barrier", Name: "&x&f&f&0&0&0&0Close", Action: "close"},
		},
		Filler: &ItemConfig{Material: "glass_pane", Name: " "},
	}
	menu, err := CompileMenu("Shop", conf, legacyfmt.Default())
	if err != nil {
		t.Fatal(err)
	}

	assertEqual(menu.Name, "Shop", t)
	assertEqual(menu.Key, "shop", t)
	assertEqual(menu.Title, "<gold><bold>Shop", t)
	assertEqual(menu.PlainTitle, "Shop", t)
	assertEqual(menu.Shape, layout.ShapeNineWide, t)
	assertEqual(menu.Ragged, false, t)
	assertEqual(menu.Size, 18, t)

	if len(menu.Items) != 2 {
		t.Fatalf("expected 2 items, got %d", len(menu.Items))
	}
	// items are ordered by key
	gems, closeItem := menu.Items[0], menu.Items[1]
	assertEqual(gems.Slots, []int{10, 16}, t)
	assertEqual(gems.Name, "<aqua>Gems", t)
	assertEqual(gems.Lore, []string{"<gray>Shiny", "plain"}, t)
	assertEqual(closeItem.Slots, []int{13}, t)
	assertEqual(closeItem.Name, "<#ff0000>Close", t)
	assertEqual(closeItem.Action, "close", t)

	if menu.Filler == nil {
		t.Fatal("expected a filler")
	}
	assertEqual(len(menu.Filler.Slots), 15, t)
	assertEqual(menu.Item(16).Key, "a", t)
	assertEqual(menu.Item(0), menu.Filler, t)
	if menu.Item(18) != nil || menu.Item(-1) != nil {
		t.Error("slots outside the container should hold nothing")
	}
}

func TestCompileSmallContainers(t *testing.T) {
	dispenser, err := CompileMenu("warps", MenuConfig{
		Rows:   []string{"s h"},
		Items:  map[string]ItemConfig{"s": {Name: "Spawn"}, "h": {Name: "Home"}},
		Filler: &ItemConfig{Material: "glass_pane"},
	}, legacyfmt.Default())
	if err != nil {
		t.Fatal(err)
	}
	assertEqual(dispenser.Shape, layout.ShapeThreeWide, t)
	// a dispenser always has nine slots, even with one row laid out
	assertEqual(dispenser.Size, 9, t)
	assertEqual(dispenser.Filler.Slots, []int{1, 3, 4, 5, 6, 7, 8}, t)

	// narrower than three is centred into a dispenser
	confirm, err := CompileMenu("confirm", MenuConfig{
		Rows:  []string{"yn"},
		Items: map[string]ItemConfig{"y": {Name: "&aYes"}, "n": {Name: "&cNo"}},
	}, legacyfmt.Default())
	if err != nil {
		t.Fatal(err)
	}
	assertEqual(confirm.Shape, layout.ShapeThreeWide, t)
	assertEqual(confirm.Rows, []string{"yn "}, t)
	// a single narrow row is centred but not ragged
	assertEqual(confirm.Ragged, false, t)
	assertEqual(confirm.Items[0].Key, "n", t)
	assertEqual(confirm.Items[0].Slots, []int{1}, t)

	hopper, err := CompileMenu("vote", MenuConfig{
		Rows:  []string{"1 2 3"},
		Items: map[string]ItemConfig{"1": {}, "2": {}, "3": {}},
	}, legacyfmt.Default())
	if err != nil {
		t.Fatal(err)
	}
	assertEqual(hopper.Shape, layout.ShapeFiveWide, t)
	assertEqual(hopper.Size, 5, t)
	assertEqual(hopper.Items[2].Slots, []int{4}, t)
	if hopper.Filler != nil {
		t.Error("no filler was configured")
	}
}

func TestCompileRaggedMenu(t *testing.T) {
	menu, err := CompileMenu("ragged", MenuConfig{
		Rows:  []string{"abc", "abcdefghi"},
		Items: map[string]ItemConfig{"a": {}},
	}, legacyfmt.Default())
	if err != nil {
		t.Fatal(err)
	}
	assertEqual(menu.Shape, layout.ShapeNineWide, t)
	assertEqual(menu.Ragged, true, t)
	assertEqual(menu.Rows, []string{"   abc   ", "abcdefghi"}, t)
	assertEqual(menu.Items[0].Slots, []int{3, 9}, t)

	// the menu is sized by its widest row, not by the first row alone
	rows := []string{"###", "#########"}
	chest, err := CompileMenu("chest", MenuConfig{Rows: rows}, legacyfmt.Default())
	if err != nil {
		t.Fatal(err)
	}
	assertEqual(layout.Classify(rows), layout.ShapeThreeWide, t)
	assertEqual(chest.Shape, layout.ShapeNineWide, t)
}

func TestCompileMenuErrors(t *testing.T) {
	valid := map[string]ItemConfig{"a": {}}
	cases := []struct {
		name     string
		conf     MenuConfig
		expected error
	}{
		{"two words", MenuConfig{Rows: []string{"a"}, Items: valid}, errMenuNameInvalid},
		{"", MenuConfig{Rows: []string{"a"}, Items: valid}, errMenuNameInvalid},
		{"wide", MenuConfig{Rows: []string{"abcdefghij"}, Items: valid}, errMenuShapeUnknown},
		{"empty", MenuConfig{Items: valid}, errMenuShapeUnknown},
		{"tall", MenuConfig{Rows: []string{"a", "b", "c", "d"}, Items: valid}, errMenuTooManyRows},
		{"tallchest", MenuConfig{Rows: []string{"a", "b", "c", "d", "e", "f", "abcdefghi"}, Items: valid}, errMenuTooManyRows},
		{"tallhopper", MenuConfig{Rows: []string{"abcd", "a"}, Items: valid}, errMenuTooManyRows},
		{"longkey", MenuConfig{Rows: []string{"ab"}, Items: map[string]ItemConfig{"ab": {}}}, errMenuItemKeyInvalid},
		{"spacekey", MenuConfig{Rows: []string{"a b"}, Items: map[string]ItemConfig{" ": {}}}, errMenuItemKeyInvalid},
		{"missing", MenuConfig{Rows: []string{"abc"}, Items: map[string]ItemConfig{"z": {}}}, errMenuItemNotInLayout},
	}
	for _, c := range cases {
		_, err := CompileMenu(c.name, c.conf, legacyfmt.Default())
		if !errors.Is(err, c.expected) {
			t.Errorf("menu %q: expected %v, got %v", c.name, c.expected, err)
		}
	}
}

func TestCompileMenusRejectsConfusables(t *testing.T) {
	rows := MenuConfig{Rows: []string{"abc"}}

	menus, err := compileMenus(map[string]MenuConfig{"shop": rows, "warps": rows}, legacyfmt.Default())
	if err != nil {
		t.Fatal(err)
	}
	if menus["shop"] == nil || menus["warps"] == nil {
		t.Errorf("menus should be keyed by casefolded name, got %v", menus)
	}

	for _, pair := range [][2]string{
		{"shop", "Shop"},
		{"shop", "\u0455h\u043ep"},
	} {
		_, err := compileMenus(map[string]MenuConfig{pair[0]: rows, pair[1]: rows}, legacyfmt.Default())
		if !errors.Is(err, errMenuNameConfusable) {
			t.Errorf("%q and %q: expected errMenuNameConfusable, got %v", pair[0], pair[1], err)
		}
	}
}

func TestCompileMenuCustomPrefixes(t *testing.T) {
	tr := legacyfmt.MustTranslator("$")
	menu, err := CompileMenu("cash", MenuConfig{Title: "$a&aMoney", Rows: []string{"abc"}}, tr)
	if err != nil {
		t.Fatal(err)
	}
	assertEqual(menu.Title, "<green>&aMoney", t)
	assertEqual(menu.PlainTitle, "&aMoney", t)
}

func groupOf(count int) (group []ItemConfig) {
	for i := 0; i < count; i++ {
		group = append(group, ItemConfig{Material: "player_head", Name: fmt.Sprintf("&e%d", i)})
	}
	return
}

func TestCompileGroupAlignment(t *testing.T) {
	rows := []string{
		"#########",
		"#ggggggg#",
	}
	cases := []struct {
		alignment string
		lastPage  []int
	}{
		{"", []int{7, 8, 9, -1, -1, -1, -1}},
		{"left", []int{7, 8, 9, -1, -1, -1, -1}},
		{"center", []int{-1, -1, 7, 8, 9, -1, -1}},
		{"right", []int{-1, -1, -1, -1, 7, 8, 9}},
	}
	for _, c := range cases {
		menu, err := CompileMenu("heads", MenuConfig{
			Rows:  rows,
			Items: map[string]ItemConfig{"g": {Group: groupOf(10), Alignment: c.alignment}},
		}, legacyfmt.Default())
		if err != nil {
			t.Fatal(err)
		}
		group := menu.Items[0]
		assertEqual(menu.Pages, 2, t)
		assertEqual(group.Slots, []int{10, 11, 12, 13, 14, 15, 16}, t)
		// a full page is never aligned
		assertEqual(group.Pages[0], []int{0, 1, 2, 3, 4, 5, 6}, t)
		if len(group.Pages) != 2 {
			t.Fatalf("alignment %q: expected 2 pages, got %d", c.alignment, len(group.Pages))
		}
		assertEqual(group.Pages[1], c.lastPage, t)
		assertEqual(len(group.Group), 10, t)
		assertEqual(group.Group[9].Name, "<yellow>9", t)
	}
}

func TestCompileGroupRows(t *testing.T) {
	menu, err := CompileMenu("dispenser", MenuConfig{
		Rows:   []string{"ggg", "ggg"},
		Items:  map[string]ItemConfig{"g": {Group: groupOf(4), Alignment: "centre"}},
		Filler: &ItemConfig{Material: "glass_pane"},
	}, legacyfmt.Default())
	if err != nil {
		t.Fatal(err)
	}
	group := menu.Items[0]
	assertEqual(group.Alignment, AlignCenter, t)
	assertEqual(menu.Pages, 1, t)
	// the first row is full; the single item left over is centred in the second
	assertEqual(group.Pages, [][]int{{0, 1, 2, -1, 3, -1}}, t)

	assertEqual(menu.Item(4).Name, "<yellow>3", t)
	assertEqual(menu.Item(3), menu.Filler, t)
	// a group that fits on one page shows on every page
	assertEqual(menu.ItemOnPage(4, 3).Name, "<yellow>3", t)
	// slots outside the group are unaffected
	assertEqual(menu.ItemOnPage(7, 1), menu.Filler, t)
}

func TestCompileGroupPages(t *testing.T) {
	menu, err := CompileMenu("heads", MenuConfig{
		Rows: []string{"ggggggggg", "ggggggggg", "<   c   >"},
		Items: map[string]ItemConfig{
			"g": {Group: groupOf(37)},
			"c": {Name: "&cClose"},
		},
	}, legacyfmt.Default())
	if err != nil {
		t.Fatal(err)
	}
	assertEqual(menu.Pages, 3, t)
	assertEqual(menu.ItemOnPage(0, 0).Name, "<yellow>0", t)
	assertEqual(menu.ItemOnPage(0, 1).Name, "<yellow>18", t)
	assertEqual(menu.ItemOnPage(0, 2).Name, "<yellow>36", t)
	if menu.ItemOnPage(1, 2) != nil {
		t.Error("slots past the end of the group hold nothing without a filler")
	}
	if menu.ItemOnPage(0, 3) != nil {
		t.Error("pages past the last hold nothing without a filler")
	}
	// plain items show on every page
	assertEqual(menu.ItemOnPage(22, 2).Key, "c", t)

	// ceil(groupSize / slotCount) pages, with an exact fit taking no extra page
	exact, err := CompileMenu("exact", MenuConfig{
		Rows:  []string{"ggg"},
		Items: map[string]ItemConfig{"g": {Group: groupOf(6)}},
	}, legacyfmt.Default())
	if err != nil {
		t.Fatal(err)
	}
	assertEqual(exact.Pages, 2, t)
}

func TestCompileGroupErrors(t *testing.T) {
	nested := groupOf(2)
	nested[1].Group = groupOf(2)
	cases := map[string]ItemConfig{
		"nested":       {Group: nested},
		"badalignment": {Group: groupOf(2), Alignment: "justify"},
		"nogroup":      {Name: "plain", Alignment: "center"},
	}
	for name, item := range cases {
		_, err := CompileMenu(name, MenuConfig{
			Rows:  []string{"ggg"},
			Items: map[string]ItemConfig{"g": item},
		}, legacyfmt.Default())
		if !errors.Is(err, errMenuGroupInvalid) {
			t.Errorf("menu %q: expected errMenuGroupInvalid, got %v", name, err)
		}
	}
}
