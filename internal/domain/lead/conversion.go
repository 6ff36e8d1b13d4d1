package lead

import "github.com/atelierhq/atelier/internal/domain/client"

// ConversionRecord is the prebuilt write set for one lead conversion. The
// service fills in the new client (ids and display id already assigned) and
// the copy flags; the store applies everything in a single transaction:
// insert the client, stamp the lead won with the forward reference, copy
// lead contacts into client contacts preserving is_primary, and re-point
// document copies at the new client.
type ConversionRecord struct {
	Lead          *Lead
	Client        *client.Client
	CopyContacts  bool
	CopyDocuments bool
}
