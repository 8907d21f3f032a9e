package catalog

// catalogStatus tracks the assortment revision. The revision is bumped on
// every mutation, in the same transaction as the product write itself.
type catalogStatus struct {
	UID      string
	Revision int64
}

const catalogStatusUID = "catalog"
