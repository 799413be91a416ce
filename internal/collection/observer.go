package collection

// Observer receives structural change notifications from the model. Insert
// and remove notifications bracket the mutation: the Begin call fires before
// the tree changes, the End call after, so a presentation layer can animate
// consistently. All callbacks run on the goroutine mutating the model.
type Observer interface {
	BeginInsertRows(parent *Item, first, last int)
	EndInsertRows()
	BeginRemoveRows(parent *Item, first, last int)
	EndRemoveRows()
	// DataChanged signals that an existing row needs redisplay without any
	// structural change.
	DataChanged(item *Item)
	BeginReset()
	EndReset()
}

// NopObserver implements Observer with no-ops; embed it to pick only the
// callbacks you care about.
type NopObserver struct{}

func (NopObserver) BeginInsertRows(*Item, int, int) {}
func (NopObserver) EndInsertRows()                  {}
func (NopObserver) BeginRemoveRows(*Item, int, int) {}
func (NopObserver) EndRemoveRows()                  {}
func (NopObserver) DataChanged(*Item)               {}
func (NopObserver) BeginReset()                     {}
func (NopObserver) EndReset()                       {}
