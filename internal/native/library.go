// Package native is the embedded storage engine behind the toodle store.
// Records live in SQLite; callers only ever see opaque handles and reach the
// engine through the Library interface, one synchronous call at a time.
//
// Ownership rules: every handle returned by a call is owned by the caller and
// must be passed to the matching Destroy call exactly once. Handle arrays
// passed in are read during the call and never retained.
package native

// Library is the handle-passing boundary of the engine.
type Library interface {
	OpenStore(path string) (StoreHandle, error)
	DestroyStore(store StoreHandle) error
	OnItemsChanged(store StoreHandle, callback func()) error

	CreateLabel(store StoreHandle, name, color string) (LabelHandle, error)
	LabelByName(store StoreHandle, name string) (LabelHandle, error)
	AllLabels(store StoreHandle) (LabelListHandle, error)
	LabelUUID(label LabelHandle) (string, error)
	LabelName(label LabelHandle) (string, error)
	LabelColor(label LabelHandle) (string, error)
	DestroyLabel(label LabelHandle) error

	CreateItem(store StoreHandle, name string, dueDate *int64, labels []LabelHandle) (ItemHandle, error)
	UpdateItem(store StoreHandle, item ItemHandle, name *string, dueDate, completionDate *int64, labels []LabelHandle) error
	ItemByUUID(store StoreHandle, uuid string) (ItemHandle, error)
	AllItems(store StoreHandle) (ItemListHandle, error)
	ItemsWithLabel(store StoreHandle, label LabelHandle) (ItemListHandle, error)
	ItemUUID(item ItemHandle) (string, error)
	ItemName(item ItemHandle) (string, error)
	ItemSetName(item ItemHandle, name string) error
	ItemDueDate(item ItemHandle) (*int64, error)
	ItemSetDueDate(item ItemHandle, dueDate *int64) error
	ItemClearDueDate(item ItemHandle) error
	ItemCompletionDate(item ItemHandle) (*int64, error)
	ItemSetCompletionDate(item ItemHandle, completionDate *int64) error
	ItemClearCompletionDate(item ItemHandle) error
	ItemLabels(item ItemHandle) (LabelListHandle, error)
	DestroyItem(item ItemHandle) error

	ItemListCount(list ItemListHandle) (int, error)
	ItemListEntryAt(list ItemListHandle, index int) (ItemHandle, error)
	DestroyItemList(list ItemListHandle) error

	LabelListCount(list LabelListHandle) (int, error)
	LabelListEntryAt(list LabelListHandle, index int) (LabelHandle, error)
	DestroyLabelList(list LabelListHandle) error
}

// Compile-time interface check.
var _ Library = (*Runtime)(nil)
