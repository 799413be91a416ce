package collection

import "github.com/cratedig/cratedig/internal/song"

// ItemType discriminates the node kinds in the tree.
type ItemType int

const (
	ItemTypeRoot ItemType = iota
	ItemTypeContainer
	ItemTypeSong
	ItemTypeDivider
	ItemTypeLoading
)

// Item is one tree node. Containers hold grouping buckets, song items wrap a
// single record, dividers are the synthetic top-level headers and the loading
// item is shown while a full reload is in flight.
//
// An item is owned by its parent's child slice; every other reference to it
// (the model's lookup tables, pending artwork entries) is a back-reference
// pruned when the item is deleted.
type Item struct {
	Type           ItemType
	ContainerLevel int
	Key            string
	DisplayText    string
	SortText       string
	Metadata       song.Song
	Parent         *Item
	Children       []*Item
	Row            int

	// Cached link to this container's "Various Artists" child, nil when no
	// compilation songs route through it.
	compilationArtist *Item
}

// newItem creates an item appended to parent's children. Parent may be nil
// only for the root.
func newItem(itemType ItemType, parent *Item) *Item {
	item := &Item{Type: itemType, ContainerLevel: -1, Parent: parent}
	if parent != nil {
		item.Row = len(parent.Children)
		parent.Children = append(parent.Children, item)
	}
	return item
}

// removeChild deletes the child at the given row and renumbers the rest so
// rows stay contiguous.
func (i *Item) removeChild(row int) {
	i.Children = append(i.Children[:row], i.Children[row+1:]...)
	for r := row; r < len(i.Children); r++ {
		i.Children[r].Row = r
	}
}

// DisplayPath is the chain of display labels from the top level down to this
// item, used as the artwork cache key.
func (i *Item) DisplayPath() []string {
	var path []string
	for node := i; node != nil && node.Type != ItemTypeRoot; node = node.Parent {
		path = append([]string{node.DisplayText}, path...)
	}
	return path
}

// root walks to the tree root of this item.
func (i *Item) root() *Item {
	node := i
	for node.Parent != nil {
		node = node.Parent
	}
	return node
}
