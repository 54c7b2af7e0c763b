// Package transform turns an overlay's file transforms into concrete copy
// operations against a checkout.
//
// Resolution happens once per overlay, after the checkout exists: glob
// sources are expanded, directory targets (a dst ending in a separator)
// are created, and every match becomes a types.Operation. Applying the
// operations is left to the filesystem package.
package transform
